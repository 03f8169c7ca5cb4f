package worker

import (
	"context"
	"encoding/json"
	"time"

	"outagewatch/internal/metrics"
	"outagewatch/internal/scraper"
	"outagewatch/logger"
	pkgerrors "outagewatch/pkg/errors"
	"outagewatch/services/publisher"
	"outagewatch/services/store"
)

// NotificationRunner runs one notification pass and returns the number of
// successful sends
type NotificationRunner interface {
	Run(ctx context.Context) (int, error)
}

// Worker owns the poll loop: one extraction pass over all sources, then one
// notification pass, then sleep until the next tick
type Worker struct {
	ctx          context.Context
	scrapers     []scraper.Scraper
	notifier     NotificationRunner
	publisher    publisher.Publisher
	pollInterval time.Duration
	log          *logger.Logger
}

// NewWorker creates a new worker. The notifier and publisher may be nil when
// delivery or downstream publishing is not configured.
func NewWorker(
	ctx context.Context,
	scrapers []scraper.Scraper,
	notifier NotificationRunner,
	pub publisher.Publisher,
	pollInterval time.Duration,
) *Worker {
	return &Worker{
		ctx:          ctx,
		scrapers:     scrapers,
		notifier:     notifier,
		publisher:    pub,
		pollInterval: pollInterval,
		log:          logger.ForWorker(),
	}
}

// Start runs the poll loop until the worker's context is cancelled. The
// first pass runs immediately; cancellation is honoured between ticks.
func (w *Worker) Start() error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		start := time.Now()
		w.runPass()
		elapsed := time.Since(start)

		metrics.PassesTotal.Inc()
		metrics.PassDuration.Observe(elapsed.Seconds())
		w.log.Info().
			Dur("elapsed", elapsed).
			Dur("sleep", w.pollInterval).
			Msg("Pass finished, sleeping")

		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		case <-ticker.C:
		}
	}
}

// runPass performs one full pipeline pass. A storage error aborts the pass;
// any other source failure skips that source. The pass itself never kills
// the process.
func (w *Worker) runPass() {
	for _, s := range w.scrapers {
		created, err := s.Scrape(w.ctx)
		w.publishCreated(s.Name(), created)
		metrics.RecordsDiscovered.WithLabelValues(s.Name()).Add(float64(len(created)))

		if err != nil {
			metrics.ScrapeErrors.WithLabelValues(s.Name()).Inc()
			if pkgerrors.IsFatal(err) {
				w.log.Error().Err(err).Str("source", s.Name()).Msg("Storage failure, aborting pass")
				return
			}
			w.log.Error().Err(err).Str("source", s.Name()).Msg("Source pass failed")
			continue
		}

		if len(created) > 0 {
			w.log.Info().
				Str("source", s.Name()).
				Int("created", len(created)).
				Msg("Discovered new records")
		}
	}

	if w.notifier != nil {
		sent, err := w.notifier.Run(w.ctx)
		if err != nil {
			w.log.Error().Err(err).Msg("Notification pass failed")
			return
		}
		metrics.NotificationsSent.Add(float64(sent))
		if sent > 0 {
			w.log.Info().Int("sent", sent).Msg("Notifications dispatched")
		}
	}
}

// publishCreated emits newly created records to the downstream stream
func (w *Worker) publishCreated(source string, created []store.Record) {
	if w.publisher == nil {
		return
	}
	for _, rec := range created {
		payload, err := json.Marshal(rec)
		if err != nil {
			w.log.Error().Err(err).Str("key", rec.ID).Msg("Marshal record for publishing")
			continue
		}
		if err := w.publisher.Publish(source, payload); err != nil {
			w.log.Error().Err(err).Str("key", rec.ID).Msg("Publish record")
		}
	}
}
