package aggregator

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/guildpulse/guildpulse-go/internal/pkg/logger"
	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
	"go.uber.org/zap"
)

// Writer absorbs DAU enqueues into a bounded single-consumer queue and
// flushes deduplicated pipelined PFADDs. Ordering across users does not
// matter: HLL insertion is commutative and idempotent.
type Writer struct {
	store     *storage.Client
	queue     chan storage.DAUEntry
	batchMax  int
	batchWait time.Duration
	retention time.Duration

	dropQueue atomic.Int64
	flushed   atomic.Int64
}

// New builds a Writer; capacity, batchMax and batchWait come from config.
func New(store *storage.Client, capacity, batchMax int, batchWait, retention time.Duration) *Writer {
	return &Writer{
		store:     store,
		queue:     make(chan storage.DAUEntry, capacity),
		batchMax:  batchMax,
		batchWait: batchWait,
		retention: retention,
	}
}

// Enqueue offers one DAU contribution. A full queue drops the entry and
// counts it; the tap must never block on ingestion.
func (w *Writer) Enqueue(e storage.DAUEntry) bool {
	select {
	case w.queue <- e:
		return true
	default:
		w.dropQueue.Add(1)
		return false
	}
}

// Depth returns the current queue backlog, for the heartbeat.
func (w *Writer) Depth() int { return len(w.queue) }

// Dropped returns the total entries dropped on overflow.
func (w *Writer) Dropped() int64 { return w.dropQueue.Load() }

// Flushed returns the total entries written.
func (w *Writer) Flushed() int64 { return w.flushed.Load() }

// Run consumes the queue until ctx is cancelled, draining what it can on
// shutdown.
func (w *Writer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case first := <-w.queue:
			batch := w.collect(first)
			w.flush(ctx, batch)
		}
	}
}

// collect gathers up to batchMax items, waiting at most batchWait for
// stragglers after the first.
func (w *Writer) collect(first storage.DAUEntry) []storage.DAUEntry {
	batch := make([]storage.DAUEntry, 1, w.batchMax)
	batch[0] = first

	timer := time.NewTimer(w.batchWait)
	defer timer.Stop()

	for len(batch) < w.batchMax {
		select {
		case e := <-w.queue:
			batch = append(batch, e)
		case <-timer.C:
			return batch
		}
	}
	return batch
}

// Dedup collapses a batch to its distinct (guild, user, day) triples.
func Dedup(batch []storage.DAUEntry) []storage.DAUEntry {
	seen := make(map[storage.DAUEntry]struct{}, len(batch))
	out := batch[:0]
	for _, e := range batch {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

func (w *Writer) flush(ctx context.Context, batch []storage.DAUEntry) {
	batch = Dedup(batch)
	if err := w.store.FlushDAUBatch(ctx, batch, w.retention); err != nil {
		logger.Error("DAU batch flush failed", zap.Int("batch", len(batch)), zap.Error(err))
		return
	}
	w.flushed.Add(int64(len(batch)))
}

// drain flushes whatever is still queued at shutdown, bounded so a stuck
// Redis cannot hang the exit.
func (w *Writer) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		var batch []storage.DAUEntry
		for len(batch) < w.batchMax {
			select {
			case e := <-w.queue:
				batch = append(batch, e)
			default:
				goto flush
			}
		}
	flush:
		if len(batch) == 0 {
			return
		}
		w.flush(ctx, batch)
	}
}
