// Package catalog holds the admin-managed content of the app shell: the
// bookmarked sites, the released versions and the app icon. Adding a site or
// releasing a version notifies every subscribed device.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"webshell-backend/internal/notification"
)

// ErrInvalid is wrapped by every validation failure of this package.
var ErrInvalid = errors.New("invalid input")

// Notifier broadcasts a notification. notification.Broadcaster is the real one.
type Notifier interface {
	Broadcast(ctx context.Context, title, body string) (notification.Result, error)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// parseSiteURL accepts absolute http and https URLs only.
func parseSiteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, invalid("url %q must be an absolute http(s) address", raw)
	}
	return u, nil
}
