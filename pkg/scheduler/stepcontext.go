package scheduler

import (
	"sync"

	"github.com/markjaquith/hk/pkg/progress"
)

// StepContext is the per-group-run state scoped to one Step within one
// Group.Run call: its Depends latch, progress handle, and job counters.
// Ports original_source/src/step_context.rs's struct, minus the
// file_locks/semaphore fields that spec.md places on HookContext instead
// (see hookcontext.go's doc comment).
type StepContext struct {
	Hook    *HookContext
	Step    *Step
	Depends *Depends
	Job     progress.Job

	mu            sync.Mutex
	jobsRemaining int
	jobsFailed    int
}

// NewStepContext creates a StepContext for step, reporting progress to a
// child job under groupJob, and sharing depends with the rest of the group.
func NewStepContext(hctx *HookContext, step *Step, depends *Depends, groupJob progress.Job) *StepContext {
	var job progress.Job
	if groupJob != nil {
		job = groupJob.AddChild(step.Name)
	}
	return &StepContext{
		Hook:    hctx,
		Step:    step,
		Depends: depends,
		Job:     job,
	}
}

// SetJobCount records how many StepJobs this step was split into, for
// progress reporting and to know when the step as a whole is done.
func (s *StepContext) SetJobCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobsRemaining = n
}

// JobDone records one job's completion; ok is false if the job failed. When
// every job for this step has reported in, the step's Depends latch is
// released and its progress job is marked done or failed, mirroring
// original_source/src/step_group.rs::run's per-step completion handling.
func (s *StepContext) JobDone(ok bool) {
	s.mu.Lock()
	if !ok {
		s.jobsFailed++
	}
	s.jobsRemaining--
	remaining := s.jobsRemaining
	failed := s.jobsFailed
	s.mu.Unlock()

	if remaining > 0 {
		return
	}
	s.Depends.MarkDone(s.Step.Name)
	if s.Job == nil {
		return
	}
	if failed > 0 {
		s.Job.SetStatus(progress.StatusFailed)
	} else {
		s.Job.SetStatus(progress.StatusDone)
	}
}
