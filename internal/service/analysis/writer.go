package analysis

import (
	"context"
	"time"

	"github.com/kapu/creator-insight-go/internal/constants"
	"github.com/kapu/creator-insight-go/internal/domain"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// EntryWriter persists cache entries; store.AnalysisStore satisfies it.
type EntryWriter interface {
	UpsertEntry(ctx context.Context, entry domain.CacheEntry) error
	UpsertAuxiliaryEntry(ctx context.Context, entry domain.AuxiliaryEntry) error
}

// Writer persists freshly computed entries in the background. Callers never
// see the outcome; failures are only logged.
type Writer struct {
	store   EntryWriter
	timeout time.Duration
	logger  *zap.Logger
	wg      conc.WaitGroup
}

func NewWriter(store EntryWriter, timeout time.Duration, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = constants.Timeouts.StoreWrite
	}
	return &Writer{
		store:   store,
		timeout: timeout,
		logger:  logger,
	}
}

func (w *Writer) WritePrimary(entry domain.CacheEntry) {
	w.spawn("primary", entry.VideoID, func(ctx context.Context) error {
		return w.store.UpsertEntry(ctx, entry)
	})
}

func (w *Writer) WriteAuxiliary(entry domain.AuxiliaryEntry) {
	w.spawn("auxiliary", entry.VideoID, func(ctx context.Context) error {
		return w.store.UpsertAuxiliaryEntry(ctx, entry)
	})
}

// spawn detaches the write from any request context.
func (w *Writer) spawn(kind, videoID string, write func(context.Context) error) {
	w.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				w.logger.Error("Background cache write panicked",
					zap.String("kind", kind),
					zap.String("video_id", videoID),
					zap.Any("panic", r),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		defer cancel()

		start := time.Now()
		if err := write(ctx); err != nil {
			w.logger.Error("Background cache write failed",
				zap.String("kind", kind),
				zap.String("video_id", videoID),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err),
			)
			return
		}
		w.logger.Debug("Background cache write completed",
			zap.String("kind", kind),
			zap.String("video_id", videoID),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// Wait blocks until every pending write has finished. Used at shutdown.
func (w *Writer) Wait() {
	w.wg.Wait()
}
