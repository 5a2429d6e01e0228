package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/goccy/go-json"
)

const (
	// DefaultIcon is used for both the icon and the badge when a message sets none.
	DefaultIcon = "/icon-192.png"
	// DefaultURL is opened when the notification is clicked.
	DefaultURL = "/"

	defaultTimeout = 5 * time.Second
)

// ErrMissingVAPIDKeys is returned when the adapter is built without keys.
var ErrMissingVAPIDKeys = errors.New("vapid keys are not configured")

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotificationWithContext(ctx, payload, sub, options)
}

// Message is what a broadcast asks to show on a device.
type Message struct {
	Title string
	Body  string
	Icon  string
	Badge string
	URL   string
}

// wirePayload is the JSON document the service worker receives.
type wirePayload struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Icon      string `json:"icon"`
	Badge     string `json:"badge"`
	URL       string `json:"url"`
	Timestamp int64  `json:"timestamp"`
}

// Adapter delivers messages to single push subscriptions and classifies the result.
type Adapter struct {
	options *webpush.Options
	sender  Sender
	timeout time.Duration
	now     func() time.Time
}

// Option customises an Adapter.
type Option func(*Adapter)

// WithSender replaces the webpush transport, mainly for tests.
func WithSender(s Sender) Option {
	return func(a *Adapter) { a.sender = s }
}

// WithTimeout bounds every single delivery attempt.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithClock overrides the clock used for payload timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

// NewAdapter creates an adapter signing requests with the given VAPID options.
func NewAdapter(options *webpush.Options, opts ...Option) (*Adapter, error) {
	if options == nil || options.VAPIDPublicKey == "" || options.VAPIDPrivateKey == "" {
		return nil, ErrMissingVAPIDKeys
	}
	a := &Adapter{
		options: options,
		sender:  &WebPushSender{},
		timeout: defaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// PublicKey returns the VAPID application server key clients subscribe with.
func (a *Adapter) PublicKey() string {
	return a.options.VAPIDPublicKey
}

// Deliver attempts one delivery. It never panics or returns a fatal error:
// the returned error only explains a SubscriptionGone or TransientFailure
// outcome.
func (a *Adapter) Deliver(ctx context.Context, sub *webpush.Subscription, msg Message) (Outcome, error) {
	payload, err := a.encode(msg)
	if err != nil {
		return TransientFailure, fmt.Errorf("encode payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.sender.Send(ctx, payload, sub, a.options)
	if err != nil {
		return TransientFailure, fmt.Errorf("send to %s: %w", sub.Endpoint, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return classify(resp.StatusCode)
}

func (a *Adapter) encode(msg Message) ([]byte, error) {
	return json.Marshal(wirePayload{
		Title:     msg.Title,
		Body:      msg.Body,
		Icon:      orDefault(msg.Icon, DefaultIcon),
		Badge:     orDefault(msg.Badge, DefaultIcon),
		URL:       orDefault(msg.URL, DefaultURL),
		Timestamp: a.now().UnixMilli(),
	})
}

func classify(status int) (Outcome, error) {
	switch {
	case status >= 200 && status < 300:
		return Delivered, nil
	case status == http.StatusGone || status == http.StatusNotFound:
		return SubscriptionGone, fmt.Errorf("push service answered %d", status)
	default:
		return TransientFailure, fmt.Errorf("push service answered %d", status)
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
