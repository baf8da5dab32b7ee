// Package expiry moves ACTIVE conventions past their end date to EXPIRED.
package expiry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"oversight/internal/domain"
	"oversight/internal/ports"
)

// StatusUpdater is the convention operation the worker drives.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status, actor uuid.UUID, expectedVersion int64) (domain.Convention, error)
}

type Worker struct {
	repo        ports.ExpiryRepository
	conventions StatusUpdater
	batch       int
	concurrency int
	log         logrus.FieldLogger
	now         func() time.Time
}

func New(repo ports.ExpiryRepository, conventions StatusUpdater, batch, concurrency int, log logrus.FieldLogger) *Worker {
	if batch < 1 {
		batch = 100
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		repo:        repo,
		conventions: conventions,
		batch:       batch,
		concurrency: concurrency,
		log:         log.WithField("component", "expiry"),
		now:         time.Now,
	}
}

// Run sweeps on every tick until ctx is done. A non-positive interval disables the worker.
func (w *Worker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		w.drain(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// drain sweeps batches until one comes back short.
func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		listed, err := w.Sweep(ctx)
		if err != nil {
			w.log.WithError(err).Error("expiry sweep failed")
			return
		}
		if listed < w.batch {
			return
		}
	}
}

// Sweep expires one batch and returns how many conventions were listed.
// Conventions another writer changed meanwhile are skipped.
func (w *Worker) Sweep(ctx context.Context) (int, error) {
	ids, err := w.repo.ListExpired(ctx, w.now(), w.batch)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	jobs := make(chan uuid.UUID)
	var (
		wg       sync.WaitGroup
		expired  atomic.Int64
		mu       sync.Mutex
		failures []error
	)
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				_, err := w.conventions.UpdateStatus(ctx, id, domain.StatusExpired, domain.SystemUserID, 0)
				switch {
				case err == nil:
					expired.Add(1)
				case domain.IsKind(err, domain.KindConflict), domain.IsKind(err, domain.KindNotFound):
					w.log.WithError(err).WithField("convention", id).Warn("skipping convention changed during sweep")
				default:
					mu.Lock()
					failures = append(failures, err)
					mu.Unlock()
				}
			}
		}()
	}
	for _, id := range ids {
		jobs <- id
	}
	close(jobs)
	wg.Wait()

	w.log.WithFields(logrus.Fields{"listed": len(ids), "expired": expired.Load()}).Info("expiry sweep done")
	return len(ids), errors.Join(failures...)
}
