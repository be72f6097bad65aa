// Merge operations. go-git only supports fast-forward merges, so real
// merges run through the git binary instead. Merges are local-only: no
// network access and no credentials are involved.

package gitx

import (
	"context"
	"strings"

	"github.com/upstreamed/forksync/internal/execx"
)

// MergeOptions configures a merge of a revision into the current branch.
type MergeOptions struct {
	// AllowUnrelated permits merging histories with no common ancestor.
	AllowUnrelated bool

	// Message overrides the default merge commit message.
	Message string

	// Committer identifies the author of the merge commit.
	Committer Signature
}

// Merge merges rev into the current branch. A merge that hits conflicts
// is aborted and reported as ErrMergeConflict, leaving the worktree
// clean. Merging a branch with no common ancestor without AllowUnrelated
// returns ErrUnrelatedHistories.
//
// A merge that finds nothing to do ("already up to date") succeeds and
// leaves HEAD unchanged; callers can compare Head before and after to
// tell the two apart.
func (r *Repo) Merge(ctx context.Context, rev string, opts *MergeOptions) error {
	if !r.cli.Available() {
		return ErrGitBinaryMissing
	}
	if opts == nil {
		opts = &MergeOptions{}
	}

	args := []string{"merge", "--no-edit"}
	if opts.AllowUnrelated {
		args = append(args, "--allow-unrelated-histories")
	}
	if opts.Message != "" {
		args = append(args, "-m", opts.Message)
	}
	args = append(args, rev)

	result, err := r.cli.Run(ctx, args, r.mergeEnv(opts.Committer)...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return WrapError(ctx.Err(), "merge")
	}

	out := result.Stdout + result.Stderr
	switch {
	case strings.Contains(out, "refusing to merge unrelated histories"):
		return ErrUnrelatedHistories
	case strings.Contains(out, "CONFLICT") || strings.Contains(out, "Automatic merge failed"):
		r.abortMerge(ctx)
		return ErrMergeConflict
	case strings.Contains(out, "not something we can merge"):
		return WrapError(ErrResolveFailed, rev)
	}

	return WrapError(err, "merge")
}

func (r *Repo) mergeEnv(sig Signature) []execx.Option {
	name := sig.Name
	email := sig.Email
	if name == "" {
		name = "forksync"
	}
	if email == "" {
		email = "forksync@localhost"
	}
	return []execx.Option{
		execx.WithWorkdir(r.path),
		execx.WithEnv("GIT_TERMINAL_PROMPT", "0"),
		execx.WithEnv("GIT_AUTHOR_NAME", name),
		execx.WithEnv("GIT_AUTHOR_EMAIL", email),
		execx.WithEnv("GIT_COMMITTER_NAME", name),
		execx.WithEnv("GIT_COMMITTER_EMAIL", email),
	}
}

// abortMerge returns the worktree to its pre-merge state. Best effort: a
// failed abort leaves the conflict markers in place for inspection.
func (r *Repo) abortMerge(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	_, _ = r.cli.Run(ctx, []string{"merge", "--abort"}, execx.WithWorkdir(r.path))
}
