package scheduler

import (
	"errors"
	"fmt"
)

// ConfigError is an unknown dependency name or malformed step (spec.md §7).
type ConfigError struct {
	Step string
	Msg  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in step %q: %s", e.Step, e.Msg)
}

// FileSelectionError wraps a glob compilation or repo status failure.
type FileSelectionError struct {
	Step string
	Err  error
}

func (e *FileSelectionError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("file selection failed for step %q: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("file selection failed: %v", e.Err)
}

func (e *FileSelectionError) Unwrap() error { return e.Err }

// StashError wraps a diff-build, patch-write, or patch-apply failure.
type StashError struct {
	Op  string
	Err error
}

func (e *StashError) Error() string {
	return fmt.Sprintf("stash %s failed: %v", e.Op, e.Err)
}

func (e *StashError) Unwrap() error { return e.Err }

// CheckListFailed is the distinguished error a check_list_files script
// returns on non-zero exit: its stdout lists the files that failed, which
// the check-first caller uses to narrow the subsequent fix (spec.md §4.8,
// §4.9).
type CheckListFailed struct {
	Stdout string
}

func (e *CheckListFailed) Error() string {
	return "check_list_files reported failing files"
}

// ScriptFailed is a step subprocess's non-zero exit, missing executable, or
// other run failure (spec.md §7).
type ScriptFailed struct {
	Bin            string
	Args           []string
	CombinedOutput string
	ExitCode       int
	Err            error
}

func (e *ScriptFailed) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Bin, e.Err)
	}
	return fmt.Sprintf("%s exited with code %d", e.Bin, e.ExitCode)
}

func (e *ScriptFailed) Unwrap() error { return e.Err }

// Cancelled marks a task that stopped because the hook's cancellation token
// was tripped, either before it began or while its subprocess was running.
var Cancelled = errors.New("cancelled")
