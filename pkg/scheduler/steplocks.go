package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/semaphore"
)

// StepLocks holds every lock a running job acquired, released together when
// the job finishes. Ports original_source/src/step_locks.rs's
// read_flocks/write_flocks/permit triple.
type StepLocks struct {
	readLocks  []*sync.RWMutex
	writeLocks []*sync.RWMutex
	sem        *semaphore.Weighted
	held       bool
}

// Release unlocks every held lock, in reverse acquisition order, and
// returns the semaphore permit.
func (l *StepLocks) Release() {
	for i := len(l.writeLocks) - 1; i >= 0; i-- {
		l.writeLocks[i].Unlock()
	}
	for i := len(l.readLocks) - 1; i >= 0; i-- {
		l.readLocks[i].RUnlock()
	}
	if l.held && l.sem != nil {
		l.sem.Release(1)
		l.held = false
	}
}

// AcquireLocks waits for job's dependencies, then acquires the job's file
// locks (shared for Check, exclusive for Fix, none for a stomp step) in the
// job's file order, then the hook-wide semaphore permit. Ports
// original_source/src/step_locks.rs::lock exactly, including the
// depends-before-locks ordering.
func AcquireLocks(ctx context.Context, hctx *HookContext, depends *Depends, job *StepJob, sem *semaphore.Weighted) (*StepLocks, error) {
	for _, dep := range job.Step.Depends {
		if !depends.IsDone(dep) {
			if err := depends.WaitFor(ctx, dep); err != nil {
				return nil, err
			}
		}
	}

	locks := &StepLocks{}
	if !job.Step.Stomp {
		for _, path := range job.Files {
			full := path
			if job.Step.Dir != "" {
				full = filepath.Join(job.Step.Dir, path)
			}
			rw := hctx.Locks.Get(full)
			switch {
			case job.RunType.Kind == RunFix:
				rw.Lock()
				locks.writeLocks = append(locks.writeLocks, rw)
			default:
				rw.RLock()
				locks.readLocks = append(locks.readLocks, rw)
			}
		}
	}

	if err := sem.Acquire(ctx, 1); err != nil {
		releasePartial(locks)
		return nil, fmt.Errorf("acquiring job semaphore: %w", err)
	}
	locks.sem = sem
	locks.held = true
	return locks, nil
}

func releasePartial(l *StepLocks) {
	if l == nil {
		return
	}
	l.Release()
}
