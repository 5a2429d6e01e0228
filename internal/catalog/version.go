package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"webshell-backend/internal/model"
)

type versionStore interface {
	CreateVersion(ctx context.Context, v *model.Version) error
	CurrentVersion(ctx context.Context) (*model.Version, error)
	ListVersions(ctx context.Context) ([]model.Version, error)
}

// VersionService tracks released app versions.
type VersionService struct {
	store    versionStore
	notifier Notifier
}

func NewVersionService(s versionStore, n Notifier) *VersionService {
	return &VersionService{store: s, notifier: n}
}

// Current returns nil when nothing has been released or the store is unreachable.
func (s *VersionService) Current(ctx context.Context) *model.Version {
	v, err := s.store.CurrentVersion(ctx)
	if err != nil {
		log.Error().Err(err).Msg("current version unavailable")
		return nil
	}
	return v
}

func (s *VersionService) List(ctx context.Context) []model.Version {
	versions, err := s.store.ListVersions(ctx)
	if err != nil {
		log.Error().Err(err).Msg("version list unavailable, returning empty result")
		return []model.Version{}
	}
	return versions
}

// Update records version as the new current release and announces it. The
// release stays recorded even if the announcement fails.
func (s *VersionService) Update(ctx context.Context, version string, releaseNotes *string) (*model.Version, int, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return nil, 0, invalid("version is required")
	}
	if releaseNotes != nil && strings.TrimSpace(*releaseNotes) == "" {
		releaseNotes = nil
	}

	v := &model.Version{Version: version, ReleaseNotes: releaseNotes}
	if err := s.store.CreateVersion(ctx, v); err != nil {
		return nil, 0, fmt.Errorf("update version: %w", err)
	}

	body := fmt.Sprintf("Version %s is out. Reload the app to get the latest changes.", version)
	if releaseNotes != nil {
		body += "\n" + strings.TrimSpace(*releaseNotes)
	}
	res, err := s.notifier.Broadcast(ctx, fmt.Sprintf("Update available: %s", version), body)
	if err != nil {
		log.Error().Err(err).Str("version", version).Msg("version notification failed")
	}
	return v, res.DeliveredCount, nil
}
