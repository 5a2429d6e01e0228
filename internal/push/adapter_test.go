package push

import (
	"bytes"
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSender is a mock implementation of the Sender interface.
type mockSender struct {
	SendFunc func(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(ctx, payload, sub, options)
}

func statusSender(status int) *mockSender {
	return &mockSender{
		SendFunc: func(context.Context, []byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
			return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(""))}, nil
		},
	}
}

var testOptions = &webpush.Options{VAPIDPublicKey: "public", VAPIDPrivateKey: "private", Subscriber: "admin@example.com", TTL: 60}

func TestNewAdapter_RequiresKeys(t *testing.T) {
	_, err := NewAdapter(nil)
	assert.ErrorIs(t, err, ErrMissingVAPIDKeys)

	_, err = NewAdapter(&webpush.Options{VAPIDPublicKey: "only-public"})
	assert.ErrorIs(t, err, ErrMissingVAPIDKeys)

	a, err := NewAdapter(testOptions)
	require.NoError(t, err)
	assert.Equal(t, "public", a.PublicKey())
}

func TestAdapter_Deliver_Classification(t *testing.T) {
	sub := &webpush.Subscription{Endpoint: "https://push.example/abc"}

	testCases := []struct {
		name    string
		sender  Sender
		outcome Outcome
		wantErr bool
	}{
		{name: "created", sender: statusSender(http.StatusCreated), outcome: Delivered},
		{name: "ok", sender: statusSender(http.StatusOK), outcome: Delivered},
		{name: "gone", sender: statusSender(http.StatusGone), outcome: SubscriptionGone, wantErr: true},
		{name: "not found", sender: statusSender(http.StatusNotFound), outcome: SubscriptionGone, wantErr: true},
		{name: "rate limited", sender: statusSender(http.StatusTooManyRequests), outcome: TransientFailure, wantErr: true},
		{name: "server error", sender: statusSender(http.StatusInternalServerError), outcome: TransientFailure, wantErr: true},
		{
			name: "transport error",
			sender: &mockSender{SendFunc: func(context.Context, []byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
				return nil, errors.New("dial tcp: connection refused")
			}},
			outcome: TransientFailure,
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := NewAdapter(testOptions, WithSender(tc.sender))
			require.NoError(t, err)

			outcome, err := a.Deliver(context.Background(), sub, Message{Title: "t", Body: "b"})
			assert.Equal(t, tc.outcome, outcome)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAdapter_Deliver_PayloadDefaults(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_123)
	var got wirePayload

	sender := &mockSender{SendFunc: func(_ context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
		require.NoError(t, json.Unmarshal(payload, &got))
		assert.Equal(t, "https://push.example/abc", sub.Endpoint)
		assert.Same(t, testOptions, options)
		return &http.Response{StatusCode: http.StatusCreated, Body: io.NopCloser(strings.NewReader(""))}, nil
	}}

	a, err := NewAdapter(testOptions, WithSender(sender), WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	outcome, err := a.Deliver(context.Background(), &webpush.Subscription{Endpoint: "https://push.example/abc"}, Message{Title: "Hello", Body: "World"})
	require.NoError(t, err)
	assert.Equal(t, Delivered, outcome)

	assert.Equal(t, wirePayload{
		Title:     "Hello",
		Body:      "World",
		Icon:      DefaultIcon,
		Badge:     DefaultIcon,
		URL:       DefaultURL,
		Timestamp: 1_700_000_000_123,
	}, got)
}

func TestAdapter_Deliver_AppliesTimeout(t *testing.T) {
	sender := &mockSender{SendFunc: func(ctx context.Context, _ []byte, _ *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	a, err := NewAdapter(testOptions, WithSender(sender), WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	outcome, err := a.Deliver(context.Background(), &webpush.Subscription{Endpoint: "https://push.example/slow"}, Message{Title: "t"})
	assert.Equal(t, TransientFailure, outcome)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

// newBrowserSubscription builds a subscription with real P-256 and auth keys so
// the webpush library can encrypt for it.
func newBrowserSubscription(t *testing.T, endpoint string) *webpush.Subscription {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)

	return &webpush.Subscription{
		Endpoint: endpoint,
		Keys: webpush.Keys{
			P256dh: base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
			Auth:   base64.RawURLEncoding.EncodeToString(auth),
		},
	}
}

func TestAdapter_Deliver_AgainstPushEndpoint(t *testing.T) {
	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)

	var status atomic.Int32
	status.Store(http.StatusCreated)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "aes128gcm", r.Header.Get("Content-Encoding"))
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "vapid "))
		body, _ := io.ReadAll(r.Body)
		assert.NotEmpty(t, body)
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	a, err := NewAdapter(&webpush.Options{
		VAPIDPublicKey:  publicKey,
		VAPIDPrivateKey: privateKey,
		Subscriber:      "admin@example.com",
		TTL:             60,
	})
	require.NoError(t, err)

	sub := newBrowserSubscription(t, server.URL+"/push/1")

	outcome, err := a.Deliver(context.Background(), sub, Message{Title: "Hi", Body: "there"})
	require.NoError(t, err)
	assert.Equal(t, Delivered, outcome)

	status.Store(http.StatusGone)
	outcome, err = a.Deliver(context.Background(), sub, Message{Title: "Hi", Body: "again"})
	assert.Error(t, err)
	assert.Equal(t, SubscriptionGone, outcome)
}

func TestParseSubscription(t *testing.T) {
	valid := `{"endpoint":"https://fcm.googleapis.com/fcm/send/abc","keys":{"p256dh":"BNc","auth":"tBH"}}`
	sub, err := ParseSubscription(valid)
	require.NoError(t, err)
	assert.Equal(t, "https://fcm.googleapis.com/fcm/send/abc", sub.Endpoint)
	assert.Equal(t, "BNc", sub.Keys.P256dh)
	assert.Equal(t, "tBH", sub.Keys.Auth)

	for name, raw := range map[string]string{
		"not json":         "{not json",
		"empty object":     "{}",
		"relative":         `{"endpoint":"/push","keys":{"p256dh":"a","auth":"b"}}`,
		"unsupported":      `{"endpoint":"ftp://push.example","keys":{"p256dh":"a","auth":"b"}}`,
		"missing keys":     `{"endpoint":"https://push.example/1"}`,
		"missing auth key": `{"endpoint":"https://push.example/1","keys":{"p256dh":"a"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSubscription(raw)
			assert.ErrorIs(t, err, ErrInvalidSubscription)
		})
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "delivered", Delivered.String())
	assert.Equal(t, "subscription_gone", SubscriptionGone.String())
	assert.Equal(t, "transient_failure", TransientFailure.String())
	assert.Equal(t, "unknown", Outcome(42).String())

	var zero Outcome
	assert.Equal(t, OutcomeUnknown, zero)
	assert.NotEqual(t, Delivered, zero)
}
