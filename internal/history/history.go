package history

import (
	"context"
	"io"

	"github.com/Resham8/token-swap/internal/models"
)

// Recorder persists confirmed swaps. Recording is best-effort from the
// desk's point of view: a failed write never fails the swap.
type Recorder interface {
	// Record stores one confirmed swap.
	Record(ctx context.Context, rec *models.SwapRecord) error

	// Recent returns the most recent swaps, newest first.
	Recent(ctx context.Context, limit int64) ([]*models.SwapRecord, error)

	// Ping checks if the backing store is reachable.
	Ping(ctx context.Context) error

	io.Closer
}

// Fanout writes every record to all recorders and reads from the first.
type Fanout []Recorder

func (f Fanout) Record(ctx context.Context, rec *models.SwapRecord) error {
	var firstErr error
	for _, r := range f {
		if err := r.Record(ctx, rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f Fanout) Recent(ctx context.Context, limit int64) ([]*models.SwapRecord, error) {
	if len(f) == 0 {
		return []*models.SwapRecord{}, nil
	}
	return f[0].Recent(ctx, limit)
}

func (f Fanout) Ping(ctx context.Context) error {
	for _, r := range f {
		if err := r.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (f Fanout) Close() error {
	var firstErr error
	for _, r := range f {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
