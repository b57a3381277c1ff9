package cleanup

import (
	"context"
	"log"
	"time"

	"github.com/dmhouse/user-service/internal/service/session"
)

// Worker periodically hard-deletes session rows whose expiry has passed.
// This is pure cleanup, independent of logical invalidation, and needs no
// coordination with the rest of the registry.
type Worker struct {
	Registry *session.Registry
	Interval time.Duration
}

func NewWorker(registry *session.Registry, interval time.Duration) *Worker {
	return &Worker{Registry: registry, Interval: interval}
}

// Start initiates the background ticker
func (w *Worker) Start() {
	go w.runCleanup()

	ticker := time.NewTicker(w.Interval)
	go func() {
		for range ticker.C {
			w.runCleanup()
		}
	}()
	log.Println("[CLEANUP] Background worker started")
}

func (w *Worker) runCleanup() {
	deleted, err := w.Registry.PurgeExpired(context.Background(), time.Now())
	if err != nil {
		log.Printf("[CLEANUP] Error purging expired sessions: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[CLEANUP] Removed %d expired sessions from database", deleted)
	}
}
