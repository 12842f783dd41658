// Package config loads the hk.yaml file: a named map of hooks, each an
// ordered map of steps, into pkg/scheduler's runtime types. Grounded on the
// teacher's pkg/config/config.go for YAML loading conventions (path
// validation, yaml.Unmarshal error wrapping); the Config/Hook/Step shapes
// themselves are rebuilt from spec.md §3 and §6, which the teacher's
// repos-and-revisions pre-commit-config.yaml model has no equivalent of.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/markjaquith/hk/pkg/scheduler"
)

// ConfigFileName is the default name for the hook configuration file.
const ConfigFileName = "hk.yaml"

// Config is the root of the configuration file: a map of hook name (e.g.
// "pre-commit", "pre-push", "check", "fix") to its step list.
type Config struct {
	Min   string           `yaml:"min,omitempty"`
	Hooks map[string]*Hook `yaml:"-"`
}

// Hook is one named hook: an ordered map of steps. Step order is
// significant (spec.md §3: exclusive-step group boundaries are computed
// over the declared order), so Steps is populated by decodeOrderedSteps
// rather than relying on yaml.v3's unordered map decoding.
type Hook struct {
	Steps []*scheduler.Step
}

// stepYAML mirrors scheduler.Step's fields for YAML decoding. scheduler.Step
// itself carries no yaml tags: the scheduler package is the core and has no
// config-format concerns, per spec.md §1's "configuration file loading" being
// an out-of-scope external collaborator.
type stepYAML struct {
	Glob               []string          `yaml:"glob,omitempty"`
	Exclude            []string          `yaml:"exclude,omitempty"`
	Dir                string            `yaml:"dir,omitempty"`
	Shell              string            `yaml:"shell,omitempty"`
	Check              string            `yaml:"check,omitempty"`
	CheckDiff          string            `yaml:"check_diff,omitempty"`
	CheckListFiles     string            `yaml:"check_list_files,omitempty"`
	Fix                string            `yaml:"fix,omitempty"`
	WorkspaceIndicator string            `yaml:"workspace_indicator,omitempty"`
	Batch              bool              `yaml:"batch,omitempty"`
	Depends            []string          `yaml:"depends,omitempty"`
	Exclusive          bool              `yaml:"exclusive,omitempty"`
	CheckFirst         bool              `yaml:"check_first,omitempty"`
	Stomp              bool              `yaml:"stomp,omitempty"`
	Interactive        bool              `yaml:"interactive,omitempty"`
	Profiles           []string          `yaml:"profiles,omitempty"`
	Condition          string            `yaml:"condition,omitempty"`
	Env                map[string]string `yaml:"env,omitempty"`
	Stage              []string          `yaml:"stage,omitempty"`
}

func (s *stepYAML) toStep(name string) *scheduler.Step {
	return &scheduler.Step{
		Name:               name,
		Glob:               s.Glob,
		Exclude:            s.Exclude,
		Dir:                s.Dir,
		Shell:              s.Shell,
		Check:              s.Check,
		CheckDiff:          s.CheckDiff,
		CheckListFiles:     s.CheckListFiles,
		Fix:                s.Fix,
		WorkspaceIndicator: s.WorkspaceIndicator,
		Batch:              s.Batch,
		Depends:            s.Depends,
		Exclusive:          s.Exclusive,
		CheckFirst:         s.CheckFirst,
		Stomp:              s.Stomp,
		Interactive:        s.Interactive,
		Profiles:           s.Profiles,
		Condition:          s.Condition,
		Env:                s.Env,
		Stage:              s.Stage,
	}
}

// UnmarshalYAML decodes Config manually so that each hook's step order
// survives yaml.v3's otherwise-unordered map decoding: a mapping node's
// Content alternates key, value nodes in document order, which plain
// map[string]T decoding discards.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig struct {
		Min   string    `yaml:"min,omitempty"`
		Hooks yaml.Node `yaml:"hooks"`
	}
	var raw rawConfig
	if err := node.Decode(&raw); err != nil {
		return err
	}
	c.Min = raw.Min
	c.Hooks = map[string]*Hook{}

	if raw.Hooks.Kind == 0 {
		return nil
	}
	if raw.Hooks.Kind != yaml.MappingNode {
		return fmt.Errorf("hk.yaml: \"hooks\" must be a map, got %v", raw.Hooks.Kind)
	}
	for i := 0; i+1 < len(raw.Hooks.Content); i += 2 {
		hookName := raw.Hooks.Content[i].Value
		steps, err := decodeOrderedSteps(raw.Hooks.Content[i+1])
		if err != nil {
			return fmt.Errorf("hk.yaml: hook %q: %w", hookName, err)
		}
		c.Hooks[hookName] = &Hook{Steps: steps}
	}
	return nil
}

// decodeOrderedSteps walks a "steps" mapping node's Content pairs in
// document order, decoding each value into a stepYAML and attaching the
// key as the resulting Step's Name.
func decodeOrderedSteps(hookNode *yaml.Node) ([]*scheduler.Step, error) {
	var stepsNode *yaml.Node
	if hookNode.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(hookNode.Content); i += 2 {
			if hookNode.Content[i].Value == "steps" {
				stepsNode = hookNode.Content[i+1]
				break
			}
		}
	}
	if stepsNode == nil {
		return nil, nil
	}
	if stepsNode.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("\"steps\" must be a map")
	}

	steps := make([]*scheduler.Step, 0, len(stepsNode.Content)/2)
	for i := 0; i+1 < len(stepsNode.Content); i += 2 {
		name := stepsNode.Content[i].Value
		var sy stepYAML
		if err := stepsNode.Content[i+1].Decode(&sy); err != nil {
			return nil, fmt.Errorf("step %q: %w", name, err)
		}
		step := sy.toStep(name)
		if err := step.Validate(); err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// Load reads and parses the hook configuration file at path. An empty path
// defaults to ConfigFileName in the current directory.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigFileName
	}
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}
	if strings.Contains(path, "..") {
		return nil, fmt.Errorf("invalid config path: %s", path)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path is validated above
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("config file %s is empty", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Hook looks up a named hook, returning (nil, false) if undefined.
func (c *Config) Hook(name string) (*Hook, bool) {
	h, ok := c.Hooks[name]
	return h, ok
}

// ToSchedulerHook builds the runtime scheduler.Hook for this configuration
// hook.
func (h *Hook) ToSchedulerHook(name string) *scheduler.Hook {
	return &scheduler.Hook{Name: name, Steps: h.Steps}
}
