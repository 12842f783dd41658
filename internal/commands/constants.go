package commands

// Git hook type constants: the real lifecycle hook names git invokes
// (distinct from the arbitrary hook names a user declares in hk.yaml,
// though by convention most configs name their hooks after one of these).
const (
	hookTypePreCommit      = "pre-commit"
	hookTypePreMergeCommit = "pre-merge-commit"
	hookTypePrePush        = "pre-push"
	hookTypePrepareCommit  = "prepare-commit-msg"
	hookTypeCommitMsg      = "commit-msg"
	hookTypePostCheckout   = "post-checkout"
	hookTypePostCommit     = "post-commit"
	hookTypePostMerge      = "post-merge"
	hookTypePostRewrite    = "post-rewrite"
	hookTypePreRebase      = "pre-rebase"
	hookTypePreAutoGC      = "pre-auto-gc"
)

var validGitHookTypes = map[string]bool{
	hookTypePreCommit:      true,
	hookTypePreMergeCommit: true,
	hookTypePrePush:        true,
	hookTypePrepareCommit:  true,
	hookTypeCommitMsg:      true,
	hookTypePostCheckout:   true,
	hookTypePostCommit:     true,
	hookTypePostMerge:      true,
	hookTypePostRewrite:    true,
	hookTypePreRebase:      true,
	hookTypePreAutoGC:      true,
}

// Common constants used across command implementations
const (
	// OptionsUsage is the standard usage line for commands with only flags.
	OptionsUsage = "[OPTIONS]"
)
