package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"webshell-backend/internal/metrics"
	"webshell-backend/internal/model"
	"webshell-backend/internal/push"
)

const defaultWorkers = 32

// Deliverer attempts a single push delivery. push.Adapter is the real one.
type Deliverer interface {
	Deliver(ctx context.Context, sub *webpush.Subscription, msg push.Message) (push.Outcome, error)
}

// DeviceSource is the view of the device registry a broadcast needs.
type DeviceSource interface {
	List(ctx context.Context) []model.Device
	Forget(ctx context.Context, id string) error
}

// HistoryStore persists and reads broadcast history records.
type HistoryStore interface {
	InsertNotification(ctx context.Context, n *model.Notification) error
	ListNotifications(ctx context.Context, limit int) ([]model.Notification, error)
}

// Result aggregates one broadcast. DeviceIDs lists every device a delivery
// was attempted for, successful or not.
type Result struct {
	DeliveredCount int      `json:"deliveredCount"`
	TotalDevices   int      `json:"totalDevices"`
	DeviceIDs      []string `json:"deviceIds"`
	Gone           int      `json:"-"`
	Failed         int      `json:"-"`
}

// Broadcaster fans a notification out to every eligible device and records
// one history entry per broadcast.
type Broadcaster struct {
	devices   DeviceSource
	history   HistoryStore
	deliverer Deliverer
	metrics   metrics.Recorder
	workers   int
	pruneGone bool
}

// Option customises a Broadcaster.
type Option func(*Broadcaster)

// WithMetrics sets the recorder for delivery outcomes and latency.
func WithMetrics(r metrics.Recorder) Option {
	return func(b *Broadcaster) { b.metrics = r }
}

// WithWorkers caps the number of deliveries in flight per broadcast.
func WithWorkers(n int) Option {
	return func(b *Broadcaster) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithPruneGone makes the broadcaster drop subscriptions the push service
// reported as gone.
func WithPruneGone(prune bool) Option {
	return func(b *Broadcaster) { b.pruneGone = prune }
}

// NewBroadcaster creates a new broadcaster.
func NewBroadcaster(devices DeviceSource, history HistoryStore, deliverer Deliverer, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		devices:   devices,
		history:   history,
		deliverer: deliverer,
		metrics:   metrics.Noop{},
		workers:   defaultWorkers,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type target struct {
	deviceID string
	sub      *webpush.Subscription
}

// Broadcast delivers title and body to all enabled devices with a usable
// subscription. Per-device failures only lower DeliveredCount. The returned
// error is non-nil only when the history record could not be written, in
// which case the Result is still complete.
//
// Cancelling ctx does not stop a broadcast that has started; deliveries keep
// their own timeout and the history record is always attempted.
func (b *Broadcaster) Broadcast(ctx context.Context, title, body string) (Result, error) {
	ctx = context.WithoutCancel(ctx)
	logger := log.With().Str("broadcast_id", uuid.NewString()).Logger()
	start := time.Now()

	targets := b.targets(ctx, logger)
	result := Result{
		TotalDevices: len(targets),
		DeviceIDs:    make([]string, 0, len(targets)),
	}

	outcomes := b.fanOut(ctx, logger, targets, push.Message{Title: title, Body: body})
	for i, t := range targets {
		result.DeviceIDs = append(result.DeviceIDs, t.deviceID)
		switch outcomes[i] {
		case push.Delivered:
			result.DeliveredCount++
		case push.SubscriptionGone:
			result.Gone++
			if b.pruneGone {
				if err := b.devices.Forget(ctx, t.deviceID); err != nil {
					logger.Warn().Err(err).Str("device_id", t.deviceID).Msg("could not drop gone subscription")
				}
			}
		default:
			result.Failed++
		}
		b.metrics.IncDelivery(outcomes[i].String())
	}
	b.metrics.ObserveBroadcast(time.Since(start), len(targets))

	logger.Info().
		Int("targeted", result.TotalDevices).
		Int("delivered", result.DeliveredCount).
		Int("gone", result.Gone).
		Int("failed", result.Failed).
		Dur("took", time.Since(start)).
		Msg("broadcast finished")

	record := &model.Notification{Title: title, Body: body, DeliveredCount: result.DeliveredCount}
	if err := b.history.InsertNotification(ctx, record); err != nil {
		b.metrics.IncHistoryWriteFailure()
		logger.Error().Err(err).Msg("broadcast history not recorded")
		return result, fmt.Errorf("record broadcast history: %w", err)
	}
	return result, nil
}

// targets selects the enabled devices whose stored subscription parses.
func (b *Broadcaster) targets(ctx context.Context, logger zerolog.Logger) []target {
	var targets []target
	for _, d := range b.devices.List(ctx) {
		if !d.NotificationsEnabled || !d.HasSubscription() {
			continue
		}
		sub, err := push.ParseSubscription(*d.Subscription)
		if err != nil {
			logger.Warn().Err(err).Str("device_id", d.ID).Msg("skipping device with malformed subscription")
			continue
		}
		targets = append(targets, target{deviceID: d.ID, sub: sub})
	}
	return targets
}

// fanOut runs one delivery per target and waits for all of them. Tasks never
// return an error, so one failing device cannot cancel its siblings.
func (b *Broadcaster) fanOut(ctx context.Context, logger zerolog.Logger, targets []target, msg push.Message) []push.Outcome {
	outcomes := make([]push.Outcome, len(targets))

	var g errgroup.Group
	g.SetLimit(b.workers)
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			outcomes[i] = b.deliverOne(ctx, logger, t, msg)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (b *Broadcaster) deliverOne(ctx context.Context, logger zerolog.Logger, t target, msg push.Message) (outcome push.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str("device_id", t.deviceID).Msg("delivery panicked")
			outcome = push.TransientFailure
		}
	}()

	outcome, err := b.deliverer.Deliver(ctx, t.sub, msg)
	switch outcome {
	case push.Delivered:
		logger.Debug().Str("device_id", t.deviceID).Msg("delivered")
	case push.SubscriptionGone:
		logger.Info().Err(err).Str("device_id", t.deviceID).Str("outcome", outcome.String()).Msg("subscription gone")
	default:
		logger.Warn().Err(err).Str("device_id", t.deviceID).Str("outcome", outcome.String()).Msg("delivery failed")
	}
	return outcome
}

// History returns up to limit records, newest first. Store failures degrade
// to an empty list.
func (b *Broadcaster) History(ctx context.Context, limit int) []model.Notification {
	records, err := b.history.ListNotifications(ctx, limit)
	if err != nil {
		log.Error().Err(err).Msg("notification history unavailable, returning empty result")
		return []model.Notification{}
	}
	return records
}
