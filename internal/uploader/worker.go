package uploader

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// TempFileCleaner is implemented by storage providers that stage uploads in
// temporary files. A crash or kill during an upload leaves those behind.
type TempFileCleaner interface {
	CleanupTempFiles(ctx context.Context, olderThan time.Duration) (int, error)
}

type CleanupWorker struct {
	cleaner  TempFileCleaner
	interval time.Duration
	maxAge   time.Duration
	done     chan struct{}
	ticker   *time.Ticker
}

// NewCleanupWorker removes staged uploads older than maxAge every interval.
func NewCleanupWorker(cleaner TempFileCleaner, interval, maxAge time.Duration) *CleanupWorker {
	return &CleanupWorker{
		cleaner:  cleaner,
		interval: interval,
		maxAge:   maxAge,
		done:     make(chan struct{}),
	}
}

func (w *CleanupWorker) Start(ctx context.Context) {
	w.cleanup(ctx)

	w.ticker = time.NewTicker(w.interval)
	go w.run(ctx)

	log.Info().
		Dur("interval", w.interval).
		Dur("max_age", w.maxAge).
		Msg("started temp file cleanup worker")
}

func (w *CleanupWorker) Stop() {
	w.ticker.Stop()
	close(w.done)
	log.Info().Msg("temp file cleanup worker stopped")
}

func (w *CleanupWorker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("context cancelled, cleanup worker shutting down")
			return
		case <-w.done:
			return
		case <-w.ticker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *CleanupWorker) cleanup(ctx context.Context) {
	removed, err := w.cleaner.CleanupTempFiles(ctx, w.maxAge)
	if err != nil {
		log.Error().
			Err(err).
			Msg("error cleaning up temp files")
		return
	}
	if removed > 0 {
		log.Info().
			Int("removed", removed).
			Msg("removed stale temp files")
	}
}
