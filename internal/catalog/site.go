package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"webshell-backend/internal/model"
	"webshell-backend/internal/store"
)

const faviconService = "https://www.google.com/s2/favicons?domain=%s&sz=64"

type siteStore interface {
	ListSites(ctx context.Context) ([]model.Site, error)
	GetSite(ctx context.Context, id int64) (*model.Site, error)
	CreateSite(ctx context.Context, s *model.Site) error
	UpdateSite(ctx context.Context, id int64, patch store.SitePatch) error
	DeleteSite(ctx context.Context, id int64) error
}

// NewSite is the input of SiteService.Add.
type NewSite struct {
	URL     string
	Title   string
	Favicon *string
}

// SiteService manages the bookmark list.
type SiteService struct {
	store    siteStore
	notifier Notifier
}

func NewSiteService(s siteStore, n Notifier) *SiteService {
	return &SiteService{store: s, notifier: n}
}

// List returns all sites in the order they were added, or an empty list if
// the store cannot be read.
func (s *SiteService) List(ctx context.Context) []model.Site {
	sites, err := s.store.ListSites(ctx)
	if err != nil {
		log.Error().Err(err).Msg("site list unavailable, returning empty result")
		return []model.Site{}
	}
	return sites
}

func (s *SiteService) Get(ctx context.Context, id int64) (*model.Site, error) {
	return s.store.GetSite(ctx, id)
}

// Add stores the site and then tells every subscribed device about it. The
// returned count is the number of devices reached; a failed broadcast leaves
// the site in place.
func (s *SiteService) Add(ctx context.Context, in NewSite) (*model.Site, int, error) {
	u, err := parseSiteURL(in.URL)
	if err != nil {
		return nil, 0, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, 0, invalid("title is required")
	}

	site := &model.Site{URL: u.String(), Title: title, Favicon: in.Favicon}
	if site.Favicon == nil || *site.Favicon == "" {
		favicon := fmt.Sprintf(faviconService, u.Hostname())
		site.Favicon = &favicon
	}
	if err := s.store.CreateSite(ctx, site); err != nil {
		return nil, 0, fmt.Errorf("add site: %w", err)
	}

	res, err := s.notifier.Broadcast(ctx,
		fmt.Sprintf("New site added: %s", site.Title),
		fmt.Sprintf("%s is now available in your app.", site.Title))
	if err != nil {
		log.Error().Err(err).Int64("site_id", site.ID).Msg("new site notification failed")
	}
	return site, res.DeliveredCount, nil
}

// Update applies the set fields of patch.
func (s *SiteService) Update(ctx context.Context, id int64, patch store.SitePatch) error {
	if patch.URL != nil {
		u, err := parseSiteURL(*patch.URL)
		if err != nil {
			return err
		}
		normalized := u.String()
		patch.URL = &normalized
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return invalid("title must not be empty")
	}
	return s.store.UpdateSite(ctx, id, patch)
}

func (s *SiteService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteSite(ctx, id)
}
