package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"webshell-backend/internal/model"
	"webshell-backend/internal/store"
)

// ErrMissingDeviceID is returned when a registration carries no id.
var ErrMissingDeviceID = errors.New("device id is required")

// deviceStore is the part of store.Store the registry needs.
type deviceStore interface {
	UpsertDevice(ctx context.Context, d store.DeviceUpsert) error
	GetDevice(ctx context.Context, id string) (*model.Device, error)
	ListDevices(ctx context.Context) ([]model.Device, error)
	ClearSubscription(ctx context.Context, id string) error
}

// Registration is what a client sends each time it starts or changes its
// notification preference.
type Registration struct {
	DeviceID             string
	NotificationsEnabled bool
	Subscription         *string
	UserAgent            string
}

// Stats aggregates the registry. Enabled and Disabled always add up to Total.
type Stats struct {
	TotalDevices          int `json:"totalDevices"`
	NotificationsEnabled  int `json:"notificationEnabled"`
	NotificationsDisabled int `json:"notificationDisabled"`
}

// Registry keeps one record per installed client.
type Registry struct {
	store deviceStore
}

// New creates a registry backed by s.
func New(s deviceStore) *Registry {
	return &Registry{store: s}
}

// Register upserts the device. Store failures are returned to the caller.
func (r *Registry) Register(ctx context.Context, reg Registration) error {
	if reg.DeviceID == "" {
		return ErrMissingDeviceID
	}
	if reg.Subscription != nil && *reg.Subscription == "" {
		reg.Subscription = nil
	}
	if err := r.store.UpsertDevice(ctx, store.DeviceUpsert{
		ID:                   reg.DeviceID,
		NotificationsEnabled: reg.NotificationsEnabled,
		Subscription:         reg.Subscription,
		UserAgent:            reg.UserAgent,
	}); err != nil {
		return fmt.Errorf("register device: %w", err)
	}
	return nil
}

// List returns every known device. If the store cannot be read the result is
// empty and the failure is only logged.
func (r *Registry) List(ctx context.Context) []model.Device {
	devices, err := r.store.ListDevices(ctx)
	if err != nil {
		log.Error().Err(err).Msg("device list unavailable, returning empty result")
		return []model.Device{}
	}
	return devices
}

// Get returns the device or nil when it is unknown or the store is unreachable.
func (r *Registry) Get(ctx context.Context, id string) *model.Device {
	device, err := r.store.GetDevice(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error().Err(err).Str("device_id", id).Msg("device lookup failed")
		}
		return nil
	}
	return device
}

// Stats is recomputed from List on every call.
func (r *Registry) Stats(ctx context.Context) Stats {
	devices := r.List(ctx)
	stats := Stats{TotalDevices: len(devices)}
	for _, d := range devices {
		if d.NotificationsEnabled {
			stats.NotificationsEnabled++
		} else {
			stats.NotificationsDisabled++
		}
	}
	return stats
}

// Forget drops the stored subscription of a device whose push endpoint is
// gone. The device record itself is kept.
func (r *Registry) Forget(ctx context.Context, id string) error {
	if err := r.store.ClearSubscription(ctx, id); err != nil {
		return fmt.Errorf("forget subscription of %s: %w", id, err)
	}
	return nil
}
