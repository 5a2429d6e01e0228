package store

// DeviceUpsert carries the fields a client sends on every registration.
// A nil Subscription leaves the stored one untouched.
type DeviceUpsert struct {
	ID                   string
	NotificationsEnabled bool
	Subscription         *string
	UserAgent            string
}

// SitePatch is a partial site update; nil fields are left unchanged.
type SitePatch struct {
	URL     *string
	Title   *string
	Favicon *string
}

func (p SitePatch) columns() map[string]any {
	updates := make(map[string]any, 3)
	if p.URL != nil {
		updates["url"] = *p.URL
	}
	if p.Title != nil {
		updates["title"] = *p.Title
	}
	if p.Favicon != nil {
		updates["favicon"] = *p.Favicon
	}
	return updates
}
