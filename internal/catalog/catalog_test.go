package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webshell-backend/config"
	"webshell-backend/internal/db"
	"webshell-backend/internal/notification"
	"webshell-backend/internal/push"
	"webshell-backend/internal/registry"
	"webshell-backend/internal/store"
)

type broadcastCall struct {
	title string
	body  string
}

// mockNotifier is a mock implementation of the Notifier interface.
type mockNotifier struct {
	calls  []broadcastCall
	result notification.Result
	err    error
}

func (m *mockNotifier) Broadcast(_ context.Context, title, body string) (notification.Result, error) {
	m.calls = append(m.calls, broadcastCall{title: title, body: body})
	return m.result, m.err
}

type acceptAll struct{}

func (acceptAll) Deliver(context.Context, *webpush.Subscription, push.Message) (push.Outcome, error) {
	return push.Delivered, nil
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	gormDB, err := db.Init(&config.DatabaseConfig{DSN: "sqlite::memory:", MaxOpenConns: 1, MaxIdleConns: 1, LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		sqlDB.Close()
	})
	return store.NewGormStore(gormDB)
}

func strPtr(s string) *string { return &s }

func TestSiteService_Add(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	notifier := &mockNotifier{result: notification.Result{DeliveredCount: 4}}
	sites := NewSiteService(s, notifier)

	site, sent, err := sites.Add(ctx, NewSite{URL: "https://news.example.com/today", Title: " News "})
	require.NoError(t, err)
	assert.Equal(t, 4, sent)
	assert.Equal(t, "News", site.Title)
	require.NotNil(t, site.Favicon)
	assert.Equal(t, "https://www.google.com/s2/favicons?domain=news.example.com&sz=64", *site.Favicon)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "New site added: News", notifier.calls[0].title)
	assert.Equal(t, "News is now available in your app.", notifier.calls[0].body)

	got, err := sites.Get(ctx, site.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://news.example.com/today", got.URL)

	withFavicon, _, err := sites.Add(ctx, NewSite{URL: "https://x.com", Title: "X", Favicon: strPtr("https://x.com/f.ico")})
	require.NoError(t, err)
	assert.Equal(t, "https://x.com/f.ico", *withFavicon.Favicon)
	assert.Len(t, sites.List(ctx), 2)
}

func TestSiteService_Add_Validation(t *testing.T) {
	notifier := &mockNotifier{}
	sites := NewSiteService(newTestStore(t), notifier)

	for name, in := range map[string]NewSite{
		"relative url":  {URL: "/local", Title: "X"},
		"no scheme":     {URL: "x.com", Title: "X"},
		"bad scheme":    {URL: "javascript:alert(1)", Title: "X"},
		"missing title": {URL: "https://x.com", Title: "  "},
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := sites.Add(context.Background(), in)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
	assert.Empty(t, notifier.calls, "nothing is broadcast for rejected input")
}

func TestSiteService_Add_BroadcastFailureKeepsSite(t *testing.T) {
	ctx := context.Background()
	notifier := &mockNotifier{result: notification.Result{DeliveredCount: 2}, err: errors.New("history write failed")}
	sites := NewSiteService(newTestStore(t), notifier)

	site, sent, err := sites.Add(ctx, NewSite{URL: "https://x.com", Title: "X"})
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.NotZero(t, site.ID)
	assert.Len(t, sites.List(ctx), 1)
}

func TestSiteService_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	sites := NewSiteService(newTestStore(t), &mockNotifier{})

	site, _, err := sites.Add(ctx, NewSite{URL: "https://x.com", Title: "X"})
	require.NoError(t, err)

	require.NoError(t, sites.Update(ctx, site.ID, store.SitePatch{Title: strPtr("Y")}))
	assert.ErrorIs(t, sites.Update(ctx, site.ID, store.SitePatch{URL: strPtr("ftp://x.com")}), ErrInvalid)
	assert.ErrorIs(t, sites.Update(ctx, site.ID, store.SitePatch{Title: strPtr("")}), ErrInvalid)
	assert.ErrorIs(t, sites.Update(ctx, 999, store.SitePatch{Title: strPtr("Z")}), store.ErrNotFound)

	got, err := sites.Get(ctx, site.ID)
	require.NoError(t, err)
	assert.Equal(t, "Y", got.Title)

	require.NoError(t, sites.Delete(ctx, site.ID))
	_, err = sites.Get(ctx, site.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, sites.Delete(ctx, site.ID), store.ErrNotFound)
}

func TestSiteService_AddNotifiesAllSubscribedDevices(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	devices := registry.New(s)
	for i := 1; i <= 3; i++ {
		sub := fmt.Sprintf(`{"endpoint":"https://push.example/%d","keys":{"p256dh":"k","auth":"a"}}`, i)
		require.NoError(t, devices.Register(ctx, registry.Registration{
			DeviceID:             fmt.Sprintf("d%d", i),
			NotificationsEnabled: true,
			Subscription:         &sub,
		}))
	}
	broadcaster := notification.NewBroadcaster(devices, s, acceptAll{})
	sites := NewSiteService(s, broadcaster)

	_, sent, err := sites.Add(ctx, NewSite{URL: "https://x.com", Title: "X"})
	require.NoError(t, err)
	assert.Equal(t, 3, sent)

	history := broadcaster.History(ctx, 10)
	require.Len(t, history, 1)
	assert.Equal(t, 3, history[0].DeliveredCount)
	assert.Equal(t, "New site added: X", history[0].Title)
}

func TestVersionService_Update(t *testing.T) {
	ctx := context.Background()
	notifier := &mockNotifier{result: notification.Result{DeliveredCount: 1}}
	versions := NewVersionService(newTestStore(t), notifier)

	assert.Nil(t, versions.Current(ctx))
	assert.Empty(t, versions.List(ctx))

	_, sent, err := versions.Update(ctx, "1.0.0", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	v, _, err := versions.Update(ctx, "1.1.0", strPtr("Faster start"))
	require.NoError(t, err)
	assert.True(t, v.IsCurrent)

	current := versions.Current(ctx)
	require.NotNil(t, current)
	assert.Equal(t, "1.1.0", current.Version)
	require.NotNil(t, current.ReleaseNotes)
	assert.Equal(t, "Faster start", *current.ReleaseNotes)

	list := versions.List(ctx)
	require.Len(t, list, 2)
	assert.False(t, list[0].IsCurrent)

	require.Len(t, notifier.calls, 2)
	assert.Equal(t, "Update available: 1.0.0", notifier.calls[0].title)
	assert.Equal(t, "Version 1.0.0 is out. Reload the app to get the latest changes.", notifier.calls[0].body)
	assert.Equal(t, "Version 1.1.0 is out. Reload the app to get the latest changes.\nFaster start", notifier.calls[1].body)

	_, _, err = versions.Update(ctx, " ", nil)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVersionService_Update_BroadcastFailureKeepsRelease(t *testing.T) {
	ctx := context.Background()
	versions := NewVersionService(newTestStore(t), &mockNotifier{err: errors.New("history write failed")})

	_, sent, err := versions.Update(ctx, "2.0.0", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	require.NotNil(t, versions.Current(ctx))
}

func TestIconService(t *testing.T) {
	ctx := context.Background()
	icons := NewIconService(newTestStore(t))

	assert.Equal(t, "/icon-192.png", icons.Get(ctx))

	got, err := icons.Update(ctx, "/icons/new.png")
	require.NoError(t, err)
	assert.Equal(t, "/icons/new.png", got)
	assert.Equal(t, "/icons/new.png", icons.Get(ctx))

	got, err = icons.Update(ctx, "https://cdn.example.com/icon.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/icon.png", got)
	assert.Equal(t, "https://cdn.example.com/icon.png", icons.Get(ctx))

	_, err = icons.Update(ctx, "")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = icons.Update(ctx, "icon.png")
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, "https://cdn.example.com/icon.png", icons.Get(ctx))
}

type failingSettings struct{}

func (failingSettings) GetSetting(context.Context, string) (string, error) {
	return "", errors.New("connection refused")
}

func (failingSettings) PutSetting(context.Context, string, string) error {
	return errors.New("connection refused")
}

func TestIconService_StoreUnavailable(t *testing.T) {
	icons := NewIconService(failingSettings{})
	assert.Equal(t, "/icon-192.png", icons.Get(context.Background()))

	_, err := icons.Update(context.Background(), "/x.png")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}
