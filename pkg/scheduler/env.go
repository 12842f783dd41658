package scheduler

import (
	"os"
	"runtime"
	"strconv"
	"strings"
)

// StashMethod mirrors original_source/src/hook.rs's StashMethod enum.
type StashMethod int

const (
	StashNone StashMethod = iota
	StashGit
	StashPatchFile
)

func parseStashMethod(s string) (StashMethod, bool) {
	switch strings.ToLower(s) {
	case "git":
		return StashGit, true
	case "patch-file", "patchfile":
		return StashPatchFile, true
	case "none":
		return StashNone, true
	default:
		return StashNone, false
	}
}

// envReader abstracts os.Getenv so settings parsing is testable without
// mutating the real process environment.
type envReader interface {
	Getenv(key string) string
}

type realEnv struct{}

func (realEnv) Getenv(key string) string { return os.Getenv(key) }

func varBool(e envReader, name string, truthy bool) bool {
	v := strings.ToLower(strings.TrimSpace(e.Getenv(name)))
	if v == "" {
		return false
	}
	if truthy {
		return v == "true" || v == "1"
	}
	return v == "false" || v == "0"
}

func varCSV(e envReader, names ...string) map[string]bool {
	for _, name := range names {
		v := e.Getenv(name)
		if v == "" {
			continue
		}
		out := map[string]bool{}
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out[part] = true
			}
		}
		return out
	}
	return map[string]bool{}
}

// SettingsFromEnv parses environment variables per spec.md §6's table,
// following original_source/src/env.rs's exact fallback order for each
// variable (e.g. HK_JOBS falls back to available parallelism, HK_SKIP_STEPS
// falls back to the singular HK_SKIP_STEP alias).
func SettingsFromEnv(e envReader) *Settings {
	s := &Settings{
		Jobs: runtime.NumCPU(),
		// HK_FAIL_FAST defaults true; only an explicit falsy value disables it.
		FailFast: !varBool(e, "HK_FAIL_FAST", false),
		Fix:      !varBool(e, "HK_FIX", false),

		CheckFirst: !varBool(e, "HK_CHECK_FIRST", false),

		// Stashing is on (PatchFile) by default; HK_STASH overrides below.
		StashMethod:    StashPatchFile,
		StashUntracked: varBool(e, "HK_STASH_UNTRACKED", true),

		HideWhenDone: varBool(e, "HK_HIDE_WHEN_DONE", true),
		SkipSteps:    varCSV(e, "HK_SKIP_STEPS", "HK_SKIP_STEP"),
		SkipHooks:    varCSV(e, "HK_SKIP_HOOK", "HK_SKIP_HOOKS"),
	}

	if v := e.Getenv("HK_JOBS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.Jobs = n
		}
	}

	s.EnabledProfiles = map[string]bool{}
	s.DisabledProfiles = map[string]bool{}
	for profile := range varCSV(e, "HK_PROFILE", "HK_PROFILES") {
		if strings.HasPrefix(profile, "!") {
			s.DisabledProfiles[strings.TrimPrefix(profile, "!")] = true
		} else {
			s.EnabledProfiles[profile] = true
		}
	}

	if v := e.Getenv("HK_STASH"); v != "" {
		if varBool(e, "HK_STASH", false) {
			s.StashMethod = StashNone
			s.StashExplicit = true
		} else if m, ok := parseStashMethod(v); ok {
			s.StashMethod = m
			s.StashExplicit = true
		}
	}

	return s
}
