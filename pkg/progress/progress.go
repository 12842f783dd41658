// Package progress defines the hierarchical progress-reporting capability
// the scheduler depends on (spec.md §6, §9's "trait-object progress" note)
// and a console implementation styled the way the teacher's
// pkg/hook/formatting/formatter.go renders pass/fail/skip lines, with
// charmbracelet/lipgloss coloring the status markers and nested jobs
// indented by depth.
package progress

import "sync"

// Status mirrors spec.md §6's status enum for a progress job.
type Status int

const (
	StatusRunning Status = iota
	StatusHide
	StatusDone
	StatusFailed
	StatusWarn
)

// Job is one node in the hierarchical progress tree: a hook, a group, a
// step, or a job within a step.
type Job interface {
	// AddChild creates a child job under this one.
	AddChild(body string) Job
	// SetProp sets a named template property on the job's body.
	SetProp(key string, value any)
	// SetStatus transitions the job's status.
	SetStatus(status Status)
	// SetBody replaces the job's display body.
	SetBody(body string)
}

// Sink is the capability the scheduler is injected with; it creates the
// root job for a hook invocation.
type Sink interface {
	Start(body string) Job
	// Flush ensures any buffered output is written before the process exits.
	Flush()
}
