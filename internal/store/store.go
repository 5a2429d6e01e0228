package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"webshell-backend/internal/model"
)

// ErrNotFound is returned when a lookup or mutation targets a missing row.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for all database operations.
type Store interface {
	UpsertDevice(ctx context.Context, d DeviceUpsert) error
	GetDevice(ctx context.Context, id string) (*model.Device, error)
	ListDevices(ctx context.Context) ([]model.Device, error)
	ClearSubscription(ctx context.Context, id string) error

	InsertNotification(ctx context.Context, n *model.Notification) error
	ListNotifications(ctx context.Context, limit int) ([]model.Notification, error)

	ListSites(ctx context.Context) ([]model.Site, error)
	GetSite(ctx context.Context, id int64) (*model.Site, error)
	CreateSite(ctx context.Context, s *model.Site) error
	UpdateSite(ctx context.Context, id int64, patch SitePatch) error
	DeleteSite(ctx context.Context, id int64) error

	CreateVersion(ctx context.Context, v *model.Version) error
	CurrentVersion(ctx context.Context) (*model.Version, error)
	ListVersions(ctx context.Context) ([]model.Version, error)

	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// UpsertDevice inserts the device or overwrites the mutable fields of an
// existing row with the same id. The stored subscription is only replaced
// when the registration carries one.
func (s *gormStore) UpsertDevice(ctx context.Context, d DeviceUpsert) error {
	now := s.now()
	device := model.Device{
		ID:                   d.ID,
		NotificationsEnabled: d.NotificationsEnabled,
		Subscription:         d.Subscription,
		UserAgent:            d.UserAgent,
		LastSeen:             now,
		CreatedAt:            now,
	}

	columns := []string{"notifications_enabled", "user_agent", "last_seen"}
	if d.Subscription != nil {
		columns = append(columns, "subscription")
	}

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&device).Error; err != nil {
		return fmt.Errorf("failed to upsert device %s: %w", d.ID, err)
	}
	return nil
}

func (s *gormStore) GetDevice(ctx context.Context, id string) (*model.Device, error) {
	var device model.Device
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device %s: %w", id, err)
	}
	return &device, nil
}

func (s *gormStore) ListDevices(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	if err := s.db.WithContext(ctx).Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// ClearSubscription drops the stored push subscription of a device, keeping
// the device row itself.
func (s *gormStore) ClearSubscription(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&model.Device{}).
		Where("id = ?", id).
		Update("subscription", nil)
	if res.Error != nil {
		return fmt.Errorf("failed to clear subscription of device %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertNotification persists a broadcast history record. SentAt is stamped here.
func (s *gormStore) InsertNotification(ctx context.Context, n *model.Notification) error {
	n.SentAt = s.now()
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// ListNotifications returns the most recent history records first.
func (s *gormStore) ListNotifications(ctx context.Context, limit int) ([]model.Notification, error) {
	var notifications []model.Notification
	if err := s.db.WithContext(ctx).
		Order("sent_at DESC").Order("id DESC").
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *gormStore) ListSites(ctx context.Context) ([]model.Site, error) {
	var sites []model.Site
	if err := s.db.WithContext(ctx).Order("added_at").Order("id").Find(&sites).Error; err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	return sites, nil
}

func (s *gormStore) GetSite(ctx context.Context, id int64) (*model.Site, error) {
	var site model.Site
	err := s.db.WithContext(ctx).First(&site, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site %d: %w", id, err)
	}
	return &site, nil
}

func (s *gormStore) CreateSite(ctx context.Context, site *model.Site) error {
	if site.AddedAt.IsZero() {
		site.AddedAt = s.now()
	}
	if err := s.db.WithContext(ctx).Create(site).Error; err != nil {
		return fmt.Errorf("failed to insert site: %w", err)
	}
	return nil
}

// UpdateSite applies only the fields set in patch. An empty patch still
// verifies that the site exists.
func (s *gormStore) UpdateSite(ctx context.Context, id int64, patch SitePatch) error {
	updates := patch.columns()
	if len(updates) == 0 {
		_, err := s.GetSite(ctx, id)
		return err
	}

	res := s.db.WithContext(ctx).Model(&model.Site{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update site %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) DeleteSite(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.Site{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete site %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateVersion stores v as the only current version. Clearing the previous
// current row and inserting the new one happen in one transaction so readers
// never observe zero or two current versions.
func (s *gormStore) CreateVersion(ctx context.Context, v *model.Version) error {
	if v.ReleasedAt.IsZero() {
		v.ReleasedAt = s.now()
	}
	v.IsCurrent = true

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Version{}).
			Where("is_current = ?", true).
			Update("is_current", false).Error; err != nil {
			return fmt.Errorf("failed to clear current version: %w", err)
		}
		if err := tx.Create(v).Error; err != nil {
			return fmt.Errorf("failed to insert version %s: %w", v.Version, err)
		}
		return nil
	})
}

// CurrentVersion returns nil without error when no version has been released.
func (s *gormStore) CurrentVersion(ctx context.Context) (*model.Version, error) {
	var version model.Version
	err := s.db.WithContext(ctx).Where("is_current = ?", true).Order("id DESC").First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current version: %w", err)
	}
	return &version, nil
}

func (s *gormStore) ListVersions(ctx context.Context) ([]model.Version, error) {
	var versions []model.Version
	if err := s.db.WithContext(ctx).Order("released_at").Order("id").Find(&versions).Error; err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	return versions, nil
}

func (s *gormStore) GetSetting(ctx context.Context, key string) (string, error) {
	var setting model.AppSetting
	err := s.db.WithContext(ctx).Where(&model.AppSetting{Key: key}).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return setting.Value, nil
}

func (s *gormStore) PutSetting(ctx context.Context, key, value string) error {
	setting := model.AppSetting{Key: key, Value: value, UpdatedAt: s.now()}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error; err != nil {
		return fmt.Errorf("failed to put setting %s: %w", key, err)
	}
	return nil
}
