// Package pipeline classifies strike events and derives alert records. All
// processing runs on a single goroutine in arrival order: the daily-dedup
// check and the ledger append for one event form a read-then-write sequence
// that must never interleave with another event's.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/lightning-alert-service/internal/catalog"
	"github.com/couchcryptid/lightning-alert-service/internal/config"
	"github.com/couchcryptid/lightning-alert-service/internal/domain"
	"github.com/couchcryptid/lightning-alert-service/internal/observability"
)

// Ledger is the alert store the processor reads and appends.
type Ledger interface {
	Append(rec domain.AlertRecord) (domain.AlertRecord, error)
	HasAlertedOn(location string, day domain.Day) bool
}

// Publisher mirrors appended alerts to an external sink. Publish failures are
// logged and never affect event processing.
type Publisher interface {
	Publish(ctx context.Context, rec domain.AlertRecord) error
}

// Processor applies the classification rules to each incoming event:
// heartbeat short-circuit, minimum-intensity threshold, geofence against the
// catalog, same-day dedup, then a single alert covering all surviving
// locations.
type Processor struct {
	catalog   *catalog.Catalog
	ledger    Ledger
	publisher Publisher // nil when mirroring is disabled

	minPeakCurrent float64
	absolute       bool
	radiusKm       float64

	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Processor. Pass a nil publisher to disable alert mirroring.
func New(cat *catalog.Catalog, ledger Ledger, publisher Publisher, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Processor {
	return &Processor{
		catalog:        cat,
		ledger:         ledger,
		publisher:      publisher,
		minPeakCurrent: cfg.MinPeakCurrentKA,
		absolute:       cfg.PeakCurrentAbsolute,
		radiusKm:       cfg.ProximityRadiusKm,
		logger:         logger,
		metrics:        metrics,
	}
}

// CheckReadiness returns nil once the pipeline has processed at least one
// message, or an error describing why the service is not yet ready.
func (p *Processor) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any messages yet")
	}
	return nil
}

// Run consumes events until the context is cancelled or the channel closes.
func (p *Processor) Run(ctx context.Context, events <-chan domain.StrikeEvent) error {
	p.logger.Info("pipeline started",
		"min_peak_current_ka", p.minPeakCurrent,
		"absolute_threshold", p.absolute,
		"radius_km", p.radiusKm,
		"locations", p.catalog.Len(),
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case event, ok := <-events:
			if !ok {
				p.logger.Info("pipeline stopping", "reason", "event channel closed")
				return nil
			}
			start := time.Now()
			p.Process(ctx, event)
			p.metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
			p.ready.Store(true)
		}
	}
}

// Process classifies one event and returns the appended alert record, or nil
// when the event produces no alert. Ledger write failures are logged and the
// alert is lost for that occurrence; the stream continues.
func (p *Processor) Process(ctx context.Context, event domain.StrikeEvent) *domain.AlertRecord {
	if event.IsHeartbeat() {
		p.logger.Debug("heartbeat received")
		p.metrics.Heartbeats.Inc()
		return nil
	}

	value := event.PeakCurrentKA
	if p.absolute {
		value = math.Abs(value)
	}
	if value < p.minPeakCurrent {
		p.logger.Debug("strike below threshold", "peak_current_ka", event.PeakCurrentKA, "threshold", p.minPeakCurrent)
		p.metrics.BelowThreshold.Inc()
		return nil
	}

	affected := p.affectedLocations(event)
	if len(affected) == 0 {
		p.metrics.OutsideGeofence.Inc()
		return nil
	}

	rec, err := p.ledger.Append(domain.AlertRecord{
		Cities:      affected,
		Timestamp:   event.TimeUTC,
		PeakCurrent: event.PeakCurrentKA,
	})
	if err != nil {
		p.logger.Error("alert lost: ledger append failed", "cities", affected, "error", err)
		p.metrics.LedgerWriteErrors.Inc()
		return nil
	}

	p.metrics.AlertsAppended.Inc()
	p.logger.Info("alert recorded",
		"number", rec.Number,
		"cities", rec.Cities,
		"peak_current_ka", rec.PeakCurrent,
		"timestamp", rec.Timestamp,
	)

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, rec); err != nil {
			p.logger.Warn("alert mirror publish failed", "number", rec.Number, "error", err)
			p.metrics.MirrorErrors.Inc()
		} else {
			p.metrics.AlertsMirrored.Inc()
		}
	}

	return &rec
}

// affectedLocations returns, in catalog order, the watched locations within
// the proximity radius that have not yet been alerted on the strike's day.
func (p *Processor) affectedLocations(event domain.StrikeEvent) []string {
	day := domain.DayOf(event.OccurredAt)

	var affected []string
	for _, loc := range p.catalog.Locations() {
		if !domain.WithinRadius(event.Pos, loc.Coordinate(), p.radiusKm) {
			continue
		}
		if p.ledger.HasAlertedOn(loc.Name, day) {
			p.logger.Debug("location already alerted today", "location", loc.Name, "day", string(day))
			p.metrics.DedupSuppressed.Inc()
			continue
		}
		affected = append(affected, loc.Name)
	}
	return affected
}
