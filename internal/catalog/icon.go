package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"webshell-backend/internal/model"
	"webshell-backend/internal/push"
	"webshell-backend/internal/store"
)

type settingStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error
}

// IconService stores the URL of the app icon shown by the shell.
type IconService struct {
	store settingStore
}

func NewIconService(s settingStore) *IconService {
	return &IconService{store: s}
}

// Get falls back to the bundled icon when none was set.
func (s *IconService) Get(ctx context.Context) string {
	v, err := s.store.GetSetting(ctx, model.SettingIconURL)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error().Err(err).Msg("icon setting unavailable, using default")
		}
		return push.DefaultIcon
	}
	return v
}

// Update accepts a root-relative path or an absolute http(s) URL.
func (s *IconService) Update(ctx context.Context, iconURL string) (string, error) {
	iconURL = strings.TrimSpace(iconURL)
	if iconURL == "" {
		return "", invalid("icon url is required")
	}
	if !strings.HasPrefix(iconURL, "/") {
		u, err := parseSiteURL(iconURL)
		if err != nil {
			return "", err
		}
		iconURL = u.String()
	} else if _, err := url.Parse(iconURL); err != nil {
		return "", invalid("icon path %q: %v", iconURL, err)
	}

	if err := s.store.PutSetting(ctx, model.SettingIconURL, iconURL); err != nil {
		return "", fmt.Errorf("update icon: %w", err)
	}
	return iconURL, nil
}
