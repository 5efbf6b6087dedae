package views

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clipstream/internal/observability/metrics"
	"clipstream/internal/storage"
)

// DefaultFlushInterval controls how often buffered view increments are folded
// into the repository when the caller does not override it.
const DefaultFlushInterval = 15 * time.Second

const finalFlushTimeout = 5 * time.Second

// VideoRepository is the slice of the storage layer the flusher needs.
type VideoRepository interface {
	AddVideoViews(id string, delta int64) error
}

// Restorer is implemented by counters that can take increments back after a
// failed delivery.
type Restorer interface {
	Restore(ctx context.Context, counts map[string]int64) error
}

// FlusherConfig configures a Flusher.
type FlusherConfig struct {
	Counter    Counter
	Repository VideoRepository
	Interval   time.Duration
	Logger     *slog.Logger
	Metrics    *metrics.Recorder
}

// Flusher periodically drains a Counter and applies the increments to the
// repository. A final drain runs on shutdown so buffered views are not lost.
type Flusher struct {
	counter    Counter
	repository VideoRepository
	interval   time.Duration
	logger     *slog.Logger
	metrics    *metrics.Recorder
}

// NewFlusher validates cfg and builds a Flusher.
func NewFlusher(cfg FlusherConfig) (*Flusher, error) {
	if cfg.Counter == nil {
		return nil, errors.New("views: counter is required")
	}
	if cfg.Repository == nil {
		return nil, errors.New("views: repository is required")
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.Default()
	}
	return &Flusher{
		counter:    cfg.Counter,
		repository: cfg.Repository,
		interval:   interval,
		logger:     logger,
		metrics:    recorder,
	}, nil
}

// Run flushes on every tick until ctx is cancelled, then performs one final
// flush with a bounded timeout.
func (f *Flusher) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
			if err := f.FlushOnce(flushCtx); err != nil {
				f.logger.Warn("final view flush failed", "error", err)
			}
			cancel()
			return
		case <-ticker.C:
			if err := f.FlushOnce(ctx); err != nil {
				f.logger.Warn("view flush failed", "error", err)
			}
		}
	}
}

// FlushOnce drains the counter and applies the increments. Increments for
// videos that no longer exist are dropped; increments the repository rejects
// for other reasons are put back into the counter when it supports that.
func (f *Flusher) FlushOnce(ctx context.Context) error {
	counts, err := f.counter.Drain(ctx)
	if err != nil {
		f.metrics.ObserveViewFlushError()
		return err
	}
	if len(counts) == 0 {
		return nil
	}

	var delivered int64
	undelivered := make(map[string]int64)
	for videoID, delta := range counts {
		err := f.repository.AddVideoViews(videoID, delta)
		switch {
		case err == nil:
			delivered += delta
		case errors.Is(err, storage.ErrNotFound):
			// Video was deleted while views were buffered.
		default:
			undelivered[videoID] = delta
			f.logger.Warn("could not apply view increments", "videoId", videoID, "delta", delta, "error", err)
		}
	}
	f.metrics.ObserveViewFlush(delivered)

	if len(undelivered) > 0 {
		f.metrics.ObserveViewFlushError()
		if restorer, ok := f.counter.(Restorer); ok {
			if err := restorer.Restore(ctx, undelivered); err != nil {
				return err
			}
		}
		return errors.New("views: some increments could not be applied")
	}
	return nil
}
