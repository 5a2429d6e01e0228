package push

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/goccy/go-json"
)

// ErrInvalidSubscription marks a stored subscription that cannot be used for delivery.
var ErrInvalidSubscription = errors.New("invalid push subscription")

// ParseSubscription decodes the serialized PushSubscription a browser hands
// out ({"endpoint": ..., "keys": {"p256dh": ..., "auth": ...}}).
func ParseSubscription(raw string) (*webpush.Subscription, error) {
	var sub webpush.Subscription
	if err := json.Unmarshal([]byte(raw), &sub); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSubscription, err)
	}
	if sub.Endpoint == "" {
		return nil, fmt.Errorf("%w: missing endpoint", ErrInvalidSubscription)
	}
	u, err := url.Parse(sub.Endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return nil, fmt.Errorf("%w: bad endpoint %q", ErrInvalidSubscription, sub.Endpoint)
	}
	if sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return nil, fmt.Errorf("%w: missing keys", ErrInvalidSubscription)
	}
	return &sub, nil
}
