package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunCommand_Help(t *testing.T) {
	cmd := &RunCommand{}
	help := cmd.Help()

	if help == "" {
		t.Error("help output should not be empty")
	}

	expectedStrings := []string{
		"run",
		"--all",
		"--fix",
		"--check",
		"--from-ref",
		"--step",
	}
	for _, expected := range expectedStrings {
		if !strings.Contains(help, expected) {
			t.Errorf("help output should contain %q", expected)
		}
	}
}

func TestRunCommand_Synopsis(t *testing.T) {
	cmd := &RunCommand{}
	if cmd.Synopsis() == "" {
		t.Error("synopsis should not be empty")
	}
}

func TestRunCommand_HelpFlag(t *testing.T) {
	cmd := &RunCommand{}
	if exitCode := cmd.Run([]string{"--help"}); exitCode != 0 {
		t.Errorf("expected exit code 0 for --help, got %d", exitCode)
	}
}

func TestRunCommand_MissingHookArgument(t *testing.T) {
	dir := initTestGitRepo(t)
	if err := os.WriteFile(filepath.Join(dir, "hk.yaml"), []byte(testHookConfig), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cmd := &RunCommand{}
	if exitCode := cmd.Run(nil); exitCode != 1 {
		t.Errorf("expected exit code 1 with no HOOK argument, got %d", exitCode)
	}
}

func TestRunCommand_UnknownHook(t *testing.T) {
	dir := initTestGitRepo(t)
	if err := os.WriteFile(filepath.Join(dir, "hk.yaml"), []byte(testHookConfig), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cmd := &RunCommand{}
	if exitCode := cmd.Run([]string{"pre-push"}); exitCode != 1 {
		t.Errorf("expected exit code 1 for an undeclared hook, got %d", exitCode)
	}
}

func TestRunCommand_NoGitRepo(t *testing.T) {
	dir := t.TempDir()
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get current directory: %v", err)
	}
	defer os.Chdir(originalDir)
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to change to temp directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "hk.yaml"), []byte(testHookConfig), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cmd := &RunCommand{}
	if exitCode := cmd.Run([]string{"pre-commit"}); exitCode != 1 {
		t.Errorf("expected exit code 1 outside a git repository, got %d", exitCode)
	}
}

func TestRunCommand_PlanDoesNotExecuteSteps(t *testing.T) {
	dir := initTestGitRepo(t)

	markerFile := filepath.Join(dir, "marker.txt")
	cfg := "hooks:\n  pre-commit:\n    steps:\n      touch:\n        check: \"touch " + markerFile + "\"\n"
	if err := os.WriteFile(filepath.Join(dir, "hk.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cmd := &RunCommand{}
	if exitCode := cmd.Run([]string{"--plan", "pre-commit"}); exitCode != 0 {
		t.Fatalf("expected exit code 0 for --plan, got %d", exitCode)
	}

	if _, err := os.Stat(markerFile); !os.IsNotExist(err) {
		t.Error("--plan should not execute any step")
	}
}

func TestRunCommand_RunsConfiguredStepOnExplicitFile(t *testing.T) {
	dir := initTestGitRepo(t)

	targetFile := filepath.Join(dir, "hello.txt")
	if err := os.WriteFile(targetFile, []byte("hello\n"), 0o644); err != nil {
		t.Fatalf("failed to write target file: %v", err)
	}

	cfg := "hooks:\n  pre-commit:\n    steps:\n      echo:\n        check: \"echo {{files}}\"\n"
	if err := os.WriteFile(filepath.Join(dir, "hk.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cmd := &RunCommand{}
	exitCode := cmd.Run([]string{"--file", targetFile, "pre-commit"})
	if exitCode != 0 {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
}

func TestRunCommand_StepFilterSkipsOtherSteps(t *testing.T) {
	dir := initTestGitRepo(t)

	ranMarker := filepath.Join(dir, "ran.txt")
	cfg := "hooks:\n  pre-commit:\n    steps:\n" +
		"      noisy:\n        check: \"false\"\n" +
		"      quiet:\n        check: \"touch " + ranMarker + "\"\n"
	if err := os.WriteFile(filepath.Join(dir, "hk.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cmd := &RunCommand{}
	exitCode := cmd.Run([]string{"--step", "quiet", "--all", "pre-commit"})
	if exitCode != 0 {
		t.Fatalf("expected exit code 0 when only running the passing step, got %d", exitCode)
	}
	if _, err := os.Stat(ranMarker); err != nil {
		t.Error("the selected step should have run")
	}
}

func TestRunCommand_InvalidFlag(t *testing.T) {
	cmd := &RunCommand{}
	if exitCode := cmd.Run([]string{"--not-a-flag"}); exitCode == 0 {
		t.Error("expected non-zero exit code for an invalid flag")
	}
}

func TestRunCommandBuildRunOptionsKeepsExcludeGlobSeparateFromGlob(t *testing.T) {
	cmd := &RunCommand{}
	opts := &RunOptions{All: true, ExcludeGlob: []string{"*_test.go"}}

	ro := cmd.buildRunOptions(opts)

	if !ro.AllFiles {
		t.Error("AllFiles should stay set when only --exclude-glob is passed, not hijacked into an explicit glob selection")
	}
	if len(ro.ExtraGlob) != 0 {
		t.Errorf("ExtraGlob should be empty when --glob wasn't passed, got %v", ro.ExtraGlob)
	}
	if len(ro.ExcludeGlob) != 1 || ro.ExcludeGlob[0] != "*_test.go" {
		t.Errorf("expected ExcludeGlob to carry through as its own field, got %v", ro.ExcludeGlob)
	}
}

func TestRunCommandBuildRunOptionsCarriesExcludeForEverySelectionMode(t *testing.T) {
	cmd := &RunCommand{}
	opts := &RunOptions{FromRef: "HEAD~1", ToRef: "HEAD", Exclude: []string{"vendor/x.go"}}

	ro := cmd.buildRunOptions(opts)

	if len(ro.Exclude) != 1 || ro.Exclude[0] != "vendor/x.go" {
		t.Errorf("expected Exclude to carry through regardless of selection mode, got %v", ro.Exclude)
	}
}

func TestRunCommandFactory(t *testing.T) {
	cmd, err := RunCommandFactory()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if _, ok := cmd.(*RunCommand); !ok {
		t.Errorf("expected *RunCommand, got %T", cmd)
	}
}
