package store

import (
	"context"
	"sync"

	"ludex/internal/logging"
)

const writerQueueDepth = 128

// identityWriter applies fire-and-forget identity write-backs discovered
// during matching (for example a freshly computed content hash) from a
// bounded queue on a single goroutine. Callers must not assume a queued
// write is durable until Flush returns.
type identityWriter struct {
	store   *Store
	queue   chan Identity
	pending sync.WaitGroup
	once    sync.Once
	done    chan struct{}
}

func newIdentityWriter(s *Store) *identityWriter {
	w := &identityWriter{
		store: s,
		queue: make(chan Identity, writerQueueDepth),
		done:  make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *identityWriter) run() {
	defer close(w.done)
	for identity := range w.queue {
		if !w.store.UpsertIdentity(context.Background(), identity) {
			w.store.logger.Warn("background identity write failed",
				logging.String("item", identity.LocalItemID))
		}
		w.pending.Done()
	}
}

// enqueue queues an identity write. When the queue is full the write is
// dropped and logged; the caller already holds the authoritative value and a
// later audit will persist it.
func (w *identityWriter) enqueue(identity Identity) bool {
	w.pending.Add(1)
	select {
	case w.queue <- identity:
		return true
	default:
		w.pending.Done()
		w.store.logger.Warn("identity write queue full, dropping write",
			logging.String("item", identity.LocalItemID))
		return false
	}
}

// flush blocks until every currently queued write has been applied.
func (w *identityWriter) flush() {
	w.pending.Wait()
}

func (w *identityWriter) close() {
	w.once.Do(func() {
		w.pending.Wait()
		close(w.queue)
		<-w.done
	})
}

// QueueIdentityWrite enqueues an asynchronous identity upsert. Failures are
// logged, never returned; Flush lets tests and shutdown paths await drain.
func (s *Store) QueueIdentityWrite(identity Identity) bool {
	if s.writer == nil {
		return false
	}
	return s.writer.enqueue(identity)
}

// Flush waits for all queued background identity writes to land.
func (s *Store) Flush() {
	if s.writer != nil {
		s.writer.flush()
	}
}
