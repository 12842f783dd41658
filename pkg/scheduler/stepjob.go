package scheduler

// JobStatus is the per-job state machine from spec.md §4.11.
type JobStatus int

const (
	JobPending JobStatus = iota
	JobStarted
	JobFinished
	JobErrored
	JobAborted
)

// StepJob is one concrete invocation of a Step over a file subset
// (spec.md §3). Ports original_source/src/step_job.rs.
type StepJob struct {
	Step    *Step
	Files   []string
	RunType RunType

	// CheckFirst may be cleared at job-build time (stepqueue.go) if none of
	// this job's files are in contention.
	CheckFirst bool

	WorkspaceIndicator string

	status JobStatus
	errMsg string
}

// NewStepJob builds a job, eagerly deciding whether check-first applies:
// only meaningful when the job's RunType is Fix and the step declares both
// Fix and CheckFirst (original_source/src/step_job.rs::new).
func NewStepJob(step *Step, files []string, rt RunType) *StepJob {
	return &StepJob{
		Step:       step,
		Files:      files,
		RunType:    rt,
		CheckFirst: rt.Kind == RunFix && step.Fix != "" && step.CheckFirst,
	}
}

// WithWorkspaceIndicator returns a copy of the job anchored to one
// workspace root, used for each workspace root matched by a step that
// declares WorkspaceIndicator (spec.md §4.4).
func (j *StepJob) WithWorkspaceIndicator(indicator string) *StepJob {
	c := *j
	c.WorkspaceIndicator = indicator
	return &c
}

// Transition helpers are idempotent: only the first matching transition
// fires, per spec.md §4.11's state machine diagram.

func (j *StepJob) StatusStart() {
	if j.status == JobPending {
		j.status = JobStarted
	}
}

func (j *StepJob) StatusFinished() {
	if j.status == JobStarted {
		j.status = JobFinished
	}
}

func (j *StepJob) StatusErrored(msg string) {
	if j.status == JobStarted || j.status == JobPending {
		j.status = JobErrored
		j.errMsg = msg
	}
}

func (j *StepJob) StatusAborted() {
	if j.status == JobStarted || j.status == JobPending {
		j.status = JobAborted
	}
}

func (j *StepJob) Status() JobStatus { return j.status }
