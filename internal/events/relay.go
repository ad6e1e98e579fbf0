package events

import (
	"context"
	"time"

	"github.com/wolfman30/salon-scheduler/internal/bookings"
	observemetrics "github.com/wolfman30/salon-scheduler/internal/observability/metrics"
	"github.com/wolfman30/salon-scheduler/pkg/logging"
)

// ChangeSource streams the changes made by this process. Changes written by
// other replicas are relayed by those replicas.
type ChangeSource interface {
	SubscribeLocal(ctx context.Context) (<-chan bookings.ChangeEvent, error)
}

// Relay forwards booking changes to every configured sink.
type Relay struct {
	source         ChangeSource
	sinks          []Sink
	logger         *logging.Logger
	metrics        *observemetrics.SchedulerMetrics
	deliverTimeout time.Duration
}

func NewRelay(source ChangeSource, sinks []Sink, logger *logging.Logger, metrics *observemetrics.SchedulerMetrics) *Relay {
	if source == nil {
		panic("events: change source required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Relay{
		source:         source,
		sinks:          sinks,
		logger:         logger,
		metrics:        metrics,
		deliverTimeout: 10 * time.Second,
	}
}

// Run blocks until ctx is cancelled or the change stream closes.
func (r *Relay) Run(ctx context.Context) error {
	if len(r.sinks) == 0 {
		r.logger.Info("booking event relay has no sinks, not subscribing")
		<-ctx.Done()
		return nil
	}
	changes, err := r.source.SubscribeLocal(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("booking event relay started", "sinks", len(r.sinks))
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			r.dispatch(ctx, FromChange(change))
		}
	}
}

func (r *Relay) dispatch(ctx context.Context, evt BookingEvent) {
	for _, sink := range r.sinks {
		deliverCtx, cancel := context.WithTimeout(ctx, r.deliverTimeout)
		err := sink.Deliver(deliverCtx, evt)
		cancel()
		r.metrics.ObserveEventDelivery(sink.Name(), err == nil)
		if err != nil {
			r.logger.Warn("booking event delivery failed",
				"sink", sink.Name(),
				"event_type", evt.Type,
				"booking_id", evt.BookingID,
				"error", err,
			)
			continue
		}
		r.logger.Debug("booking event delivered", "sink", sink.Name(), "event_type", evt.Type, "booking_id", evt.BookingID)
	}
}
