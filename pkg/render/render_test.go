package render

import "testing"

func TestRenderKnownKeys(t *testing.T) {
	ctx := &Context{Files: "a.js b.js", Workspace: "pkg/foo"}
	got, err := Render("run --workspace={{workspace}} -- {{files}}", ctx)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "run --workspace=pkg/foo -- a.js b.js"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderExtraKeys(t *testing.T) {
	ctx := &Context{}
	ctx.Insert("commit_msg_file", "/tmp/COMMIT_EDITMSG")
	got, err := Render("cat {{commit_msg_file}}", ctx)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "cat /tmp/COMMIT_EDITMSG" {
		t.Fatalf("got %q", got)
	}
}

func TestQuoteFilesPOSIX(t *testing.T) {
	got := QuoteFiles(ShellPOSIX, []string{"a.js", "needs quote.js", "it's.js"})
	want := `a.js 'needs quote.js' 'it'"'"'s.js'`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
