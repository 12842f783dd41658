// Package scheduler is the core of this module: it takes a resolved hook
// (an ordered map of steps) and a file set, and executes the steps with
// maximum safe parallelism, per spec sections 3-5. Grounded throughout on
// _examples/original_source/src/step*.rs, hook.rs, file_rw_locks.rs,
// step_depends.rs, env.rs, and settings.rs — see DESIGN.md.
package scheduler

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
)

// CheckType distinguishes the three read-only run variants.
type CheckType int

const (
	CheckPlain CheckType = iota
	CheckDiff
	CheckListFiles
)

func (c CheckType) String() string {
	switch c {
	case CheckDiff:
		return "diff"
	case CheckListFiles:
		return "list-files"
	default:
		return "plain"
	}
}

// RunKind distinguishes a read-only Check from a mutating Fix.
type RunKind int

const (
	RunCheck RunKind = iota
	RunFix
)

// RunType is the tagged Check(kind)|Fix variant from spec.md §3.
type RunType struct {
	Kind  RunKind
	Check CheckType
}

func (rt RunType) String() string {
	if rt.Kind == RunFix {
		return "fix"
	}
	return "check:" + rt.Check.String()
}

// Fix and CheckPlainRT are the two RunTypes a Hook selects between at
// invocation time (hook.rs's run_type choice always picks Check(Plain) as
// the top-level check variant; individual steps pick their own preferred
// check variant via PreferredCheckType for the check-first path).
var (
	Fix          = RunType{Kind: RunFix}
	CheckPlainRT = RunType{Kind: RunCheck, Check: CheckPlain}
)

// Step is the static, immutable-after-load descriptor for one linter,
// formatter, or ad-hoc shell command (spec.md §3).
type Step struct {
	Name string

	Glob    []string
	Exclude []string
	Dir     string

	// Shell is the command interpreter; "sh -o errexit -c" if empty.
	Shell string

	Check          string
	CheckDiff      string
	CheckListFiles string
	Fix            string

	WorkspaceIndicator string
	Batch              bool

	Depends []string

	Exclusive   bool
	CheckFirst  bool
	Stomp       bool
	Interactive bool

	Profiles []string

	// Condition is an expr-lang/expr boolean expression, evaluated by
	// EvalCondition. Hook.Run does not call EvalCondition, so a step runs
	// whatever its Condition evaluates to.
	Condition string

	Env map[string]string

	Stage []string
}

// Validate checks the invariants spec.md §3 names that are cheap to check
// at config-load time rather than discovering them mid-run.
func (s *Step) Validate() error {
	if s.Interactive && !s.Exclusive {
		return &ConfigError{Step: s.Name, Msg: "interactive step must also be exclusive"}
	}
	if s.Check == "" && s.CheckDiff == "" && s.CheckListFiles == "" && s.Fix == "" {
		return &ConfigError{Step: s.Name, Msg: "step has no check, check_diff, check_list_files, or fix script"}
	}
	return nil
}

// ShellCmd returns the interpreter and flags to invoke, splitting the
// configured Shell string (e.g. "bash -c") into argv form, defaulting to
// POSIX sh per spec.md §3.
func (s *Step) ShellCmd() []string {
	if s.Shell == "" {
		return []string{"sh", "-o", "errexit", "-c"}
	}
	return strings.Fields(s.Shell)
}

// scriptFor returns the script configured for a specific CheckType, without
// any fallback.
func (s *Step) scriptFor(ct CheckType) string {
	switch ct {
	case CheckDiff:
		return s.CheckDiff
	case CheckListFiles:
		return s.CheckListFiles
	default:
		return s.Check
	}
}

// RunCmd implements spec.md §3's selection rule:
//
//	run_cmd(Fix)       = fix ?? check ?? check_list_files ?? check_diff
//	run_cmd(Check(k))  = (script for k) ?? check ?? check_list_files ?? check_diff
func (s *Step) RunCmd(rt RunType) (string, bool) {
	if rt.Kind == RunFix {
		return firstNonEmpty(s.Fix, s.Check, s.CheckListFiles, s.CheckDiff)
	}
	preferred := s.scriptFor(rt.Check)
	switch rt.Check {
	case CheckDiff:
		return firstNonEmpty(preferred, s.Check, s.CheckListFiles, s.CheckDiff)
	case CheckListFiles:
		return firstNonEmpty(preferred, s.Check, s.CheckListFiles, s.CheckDiff)
	default:
		return firstNonEmpty(preferred, s.Check, s.CheckListFiles, s.CheckDiff)
	}
}

func firstNonEmpty(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if c != "" {
			return c, true
		}
	}
	return "", false
}

// AvailableRunType reports whether the step has a runnable command for the
// hook's chosen run type, per spec.md §4.4 point 1 and
// original_source/src/step_queue.rs's available_run_type.
func (s *Step) AvailableRunType(requested RunType) (RunType, bool) {
	if _, ok := s.RunCmd(requested); !ok {
		return RunType{}, false
	}
	return requested, true
}

// PreferredCheckType selects the check-first variant per spec.md §4.9:
// Diff if declared, else ListFiles, else Plain.
func (s *Step) PreferredCheckType() CheckType {
	switch {
	case s.CheckDiff != "":
		return CheckDiff
	case s.CheckListFiles != "":
		return CheckListFiles
	default:
		return CheckPlain
	}
}

// IsProfileEnabled reports whether this step should run given the active
// enabled/disabled profile sets, per original_source/src/settings.rs's
// profile handling ("foo" enables, "!foo" disables; disables win).
func (s *Step) IsProfileEnabled(enabled, disabled map[string]bool) bool {
	if len(s.Profiles) == 0 {
		return true
	}
	for _, p := range s.Profiles {
		if disabled[p] {
			return false
		}
	}
	for _, p := range s.Profiles {
		if enabled[p] {
			return true
		}
	}
	// A step with profiles set runs only when at least one of them is
	// enabled; with none of them enabled it is skipped.
	return false
}

// EvalCondition evaluates the step's Condition expression (expr-lang/expr)
// against a template-context-like environment. An empty Condition always
// passes. Grounded on other_examples/manifests/tombee-conductor's go.mod,
// the only pack reference to an expression-evaluation library; no complete
// example repo demonstrates its use, so the call pattern here follows
// expr-lang/expr's own documented Eval API rather than a pack source file.
func (s *Step) EvalCondition(env map[string]any) (bool, error) {
	if s.Condition == "" {
		return true, nil
	}
	out, err := expr.Eval(s.Condition, env)
	if err != nil {
		return false, fmt.Errorf("step %s: evaluating condition %q: %w", s.Name, s.Condition, err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("step %s: condition %q did not evaluate to a boolean", s.Name, s.Condition)
	}
	return b, nil
}
