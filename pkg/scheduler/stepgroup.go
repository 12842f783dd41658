package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/markjaquith/hk/pkg/progress"
)

// Run executes every job in the group with maximum safe parallelism,
// honoring fail-fast cancellation. Ports
// original_source/src/step_group.rs::StepGroup::run: build per-step
// StepContexts sharing one Depends, build the job queue, spawn every job
// concurrently, wait for all, then report aggregate or first-failure error
// depending on Settings.FailFast. Per spec.md §4.11, a non-fail-fast group
// runs to completion and aggregates every job's error rather than
// surfacing only the first.
func (g *Group) Run(ctx context.Context, hctx *HookContext, files []string, runType RunType, groupJob progress.Job) error {
	names := make([]string, len(g.Steps))
	for i, s := range g.Steps {
		names[i] = s.Name
	}
	depends := NewDepends(names)

	stepCtx := make(map[string]*StepContext, len(g.Steps))
	for _, s := range g.Steps {
		stepCtx[s.Name] = NewStepContext(hctx, s, depends, groupJob)
	}

	builder := &StepQueueBuilder{Steps: g.Steps, Files: files, RunType: runType, Jobs: hctx.Settings.Jobs}
	queue, err := builder.Build()
	if err != nil {
		return err
	}

	counts := map[string]int{}
	for _, job := range queue {
		counts[job.Step.Name]++
	}
	for name, n := range counts {
		stepCtx[name].SetJobCount(n)
	}
	// Steps that produced no jobs at all (e.g. no matching files) complete
	// their dependency latch immediately so steps depending on them aren't
	// stuck waiting forever.
	for _, s := range g.Steps {
		if counts[s.Name] == 0 {
			depends.MarkDone(s.Name)
		}
	}

	groupCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error
	failFast := hctx.Settings.FailFast

	for _, job := range queue {
		job := job
		sctx := stepCtx[job.Step.Name]
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := runJobWithLocks(groupCtx, hctx, depends, job, sctx)
			ok := err == nil
			sctx.JobDone(ok)
			if err == nil {
				return
			}
			hctx.MarkFailed()
			mu.Lock()
			errs = append(errs, fmt.Errorf("step %s: %w", job.Step.Name, err))
			mu.Unlock()
			if failFast {
				cancel()
			}
		}()
	}
	wg.Wait()

	groupErr := errors.Join(errs...)
	if failFast && len(errs) > 0 {
		groupErr = errs[0]
	}

	if groupJob != nil {
		if groupErr != nil {
			groupJob.SetStatus(progress.StatusFailed)
		} else {
			groupJob.SetStatus(progress.StatusDone)
		}
	}

	return groupErr
}

// runJobWithLocks acquires the job's dependency/file/semaphore locks,
// executes it, and always releases the locks, mirroring
// original_source/src/step_job.rs::run_all_jobs's per-job lock scope.
func runJobWithLocks(ctx context.Context, hctx *HookContext, depends *Depends, job *StepJob, sctx *StepContext) error {
	if ctx.Err() != nil {
		job.StatusAborted()
		return Cancelled
	}

	locks, err := AcquireLocks(ctx, hctx, depends, job, hctx.Sem)
	if err != nil {
		job.StatusErrored(err.Error())
		return err
	}
	defer locks.Release()

	job.StatusStart()
	if err := ExecuteJob(ctx, hctx, sctx, job); err != nil {
		job.StatusErrored(err.Error())
		return err
	}
	job.StatusFinished()
	return nil
}
