package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUninstallCommand_Help(t *testing.T) {
	cmd := &UninstallCommand{}
	help := cmd.Help()

	expectedStrings := []string{
		"uninstall",
		"hk-installed",
	}
	for _, expected := range expectedStrings {
		if !strings.Contains(help, expected) {
			t.Errorf("Help output should contain %q, but got: %s", expected, help)
		}
	}
}

func TestUninstallCommand_Synopsis(t *testing.T) {
	cmd := &UninstallCommand{}
	if cmd.Synopsis() == "" {
		t.Error("synopsis should not be empty")
	}
}

func TestUninstallCommand_Run_Help(t *testing.T) {
	cmd := &UninstallCommand{}
	if exitCode := cmd.Run([]string{"--help"}); exitCode != 0 {
		t.Errorf("expected exit code 0 for --help, got %d", exitCode)
	}
	if exitCode := cmd.Run([]string{"-h"}); exitCode != 0 {
		t.Errorf("expected exit code 0 for -h, got %d", exitCode)
	}
}

func TestUninstallCommand_Run_InvalidFlag(t *testing.T) {
	cmd := &UninstallCommand{}
	if exitCode := cmd.Run([]string{"--invalid-flag"}); exitCode == 0 {
		t.Error("expected non-zero exit code for invalid flag")
	}
}

func TestUninstallCommand_Run_NotInGitRepo(t *testing.T) {
	dir := t.TempDir()
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get current directory: %v", err)
	}
	defer os.Chdir(originalDir)
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to change to temp directory: %v", err)
	}

	cmd := &UninstallCommand{}
	if exitCode := cmd.Run(nil); exitCode != 1 {
		t.Errorf("expected exit code 1 outside a git repository, got %d", exitCode)
	}
}

func TestUninstallCommand_RemovesHkHooksOnly(t *testing.T) {
	dir := initTestGitRepo(t)

	if err := os.WriteFile(filepath.Join(dir, "hk.yaml"), []byte(testHookConfig), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if exitCode := (&InstallCommand{}).Run(nil); exitCode != 0 {
		t.Fatalf("install should succeed, got %d", exitCode)
	}

	otherHook := filepath.Join(dir, ".git", "hooks", "post-checkout")
	if err := os.WriteFile(otherHook, []byte("#!/bin/sh\necho not-hk\n"), 0o755); err != nil {
		t.Fatalf("failed to write other hook: %v", err)
	}

	cmd := &UninstallCommand{}
	if exitCode := cmd.Run(nil); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", exitCode)
	}

	if _, err := os.Stat(filepath.Join(dir, ".git", "hooks", "pre-commit")); !os.IsNotExist(err) {
		t.Error("hk-installed pre-commit hook should have been removed")
	}
	if _, err := os.Stat(otherHook); err != nil {
		t.Errorf("non-hk hook should be left in place: %v", err)
	}
}

func TestUninstallCommand_NoHooksInstalled(t *testing.T) {
	initTestGitRepo(t)

	cmd := &UninstallCommand{}
	if exitCode := cmd.Run(nil); exitCode != 0 {
		t.Errorf("expected exit code 0 when nothing to uninstall, got %d", exitCode)
	}
}

func TestUninstallCommandFactory(t *testing.T) {
	cmd, err := UninstallCommandFactory()
	if err != nil {
		t.Fatalf("expected no error from UninstallCommandFactory, got: %v", err)
	}
	if cmd == nil {
		t.Fatal("expected non-nil command from factory")
	}
	if _, ok := cmd.(*UninstallCommand); !ok {
		t.Errorf("expected *UninstallCommand, got %T", cmd)
	}
}
