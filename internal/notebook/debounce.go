package notebook

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/at-ishikawa/learntools/internal/metrics"
)

// WriteFunc performs one durable write.
type WriteFunc func(ctx context.Context) error

type pendingWrite struct {
	timer *time.Timer
	write WriteFunc
	gen   uint64
}

// Debouncer coalesces writes per key: scheduling again before the wait
// elapses replaces the pending write and restarts its timer. Writes run one
// at a time so an older write can never land after a newer one for a key.
type Debouncer struct {
	ctx context.Context

	mu      sync.Mutex
	pending map[string]*pendingWrite
	gen     uint64
	stopped bool

	// runMu is held from taking a pending write until it completed.
	runMu sync.Mutex
}

func NewDebouncer(ctx context.Context) *Debouncer {
	return &Debouncer{
		ctx:     context.WithoutCancel(ctx),
		pending: make(map[string]*pendingWrite),
	}
}

// Schedule replaces the pending write of key. It returns false after Stop.
func (d *Debouncer) Schedule(key string, wait time.Duration, write WriteFunc) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return false
	}
	d.gen++
	gen := d.gen
	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
	}
	d.pending[key] = &pendingWrite{
		write: write,
		gen:   gen,
		timer: time.AfterFunc(wait, func() {
			d.fire(key, gen)
		}),
	}
	return true
}

func (d *Debouncer) fire(key string, gen uint64) {
	d.runMu.Lock()
	defer d.runMu.Unlock()

	d.mu.Lock()
	p, ok := d.pending[key]
	if !ok || p.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	if err := p.write(d.ctx); err != nil {
		logWriteError(key, err)
	}
}

// take removes the pending write of key. Callers hold runMu.
func (d *Debouncer) take(key string) WriteFunc {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pending[key]
	if !ok {
		return nil
	}
	p.timer.Stop()
	delete(d.pending, key)
	return p.write
}

// Flush runs the pending write of key now.
func (d *Debouncer) Flush(ctx context.Context, key string) error {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	write := d.take(key)
	if write == nil {
		return nil
	}
	if err := write(ctx); err != nil {
		logWriteError(key, err)
		return err
	}
	return nil
}

// maxFlushRounds bounds FlushAll when flushed writes keep scheduling more.
const maxFlushRounds = 8

// FlushAll runs every pending write in key order, then the writes those
// scheduled, until nothing is pending.
func (d *Debouncer) FlushAll(ctx context.Context) error {
	var errs []error
	for range maxFlushRounds {
		keys := d.Pending()
		if len(keys) == 0 {
			break
		}
		for _, key := range keys {
			if err := d.Flush(ctx, key); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Pending lists the keys with a scheduled write.
func (d *Debouncer) Pending() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Sorted(maps.Keys(d.pending))
}

// Stop flushes the pending writes and refuses new ones. Follow-up writes
// scheduled while draining still run.
func (d *Debouncer) Stop(ctx context.Context) error {
	err := d.FlushAll(ctx)
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	return errors.Join(err, d.FlushAll(ctx))
}

func logWriteError(key string, err error) {
	metrics.StorageErrors.WithLabelValues("notebook").Inc()
	slog.Default().Warn("failed to write notebook record", "key", key, "error", err)
}
