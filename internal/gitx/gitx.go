// Package gitx wraps go-git with the handful of task-oriented operations
// the fork reconciler needs: clone, fetch, merge, reset, commit and push.
//
// Everything runs in-process through go-git except true merges. go-git only
// implements fast-forward merges, so Merge shells out to the git binary for
// three-way and unrelated-history merges. All other operations, including
// clone, fetch and push, never touch the CLI.
package gitx

import (
	"context"
	"errors"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/upstreamed/forksync/internal/execx"
)

// DefaultRemoteName is the remote a repository is cloned from.
const DefaultRemoteName = "origin"

// UpstreamRemoteName is the conventional name for the parent repository's
// remote.
const UpstreamRemoteName = "upstream"

// TokenAuth builds HTTP basic auth from an access token. The username is
// ignored by GitHub as long as it is non-empty.
func TokenAuth(token string) transport.AuthMethod {
	if token == "" {
		return nil
	}
	return &githttp.BasicAuth{
		Username: "x-access-token",
		Password: token,
	}
}

// Signature identifies the author of commits created by the tool.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Repo is a local clone and provides high-level operations on it.
// Credentials are supplied per network operation and are never written
// into the repository configuration.
type Repo struct {
	path string
	repo *git.Repository
	wt   *git.Worktree
	cli  *execx.Runner
}

// CloneOptions configures Clone.
type CloneOptions struct {
	// URL is the remote to clone. Must not embed credentials.
	URL string

	// Path is the local directory for the clone.
	Path string

	// Branch checks out the named branch instead of the remote HEAD.
	Branch string

	// Auth is the transport credential, or nil for anonymous access.
	Auth transport.AuthMethod
}

// Clone clones a remote repository to a local path. An empty remote is
// reported as ErrEmptyRepository so callers can skip it rather than fail.
func Clone(ctx context.Context, opts *CloneOptions) (*Repo, error) {
	cloneOpts := &git.CloneOptions{
		URL:        opts.URL,
		RemoteName: DefaultRemoteName,
		Auth:       opts.Auth,
	}
	if opts.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
	}

	repo, err := git.PlainCloneContext(ctx, opts.Path, false, cloneOpts)
	if err != nil {
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			return nil, WrapError(ErrEmptyRepository, "clone")
		}
		return nil, wrapTransportErr("clone", err)
	}

	return wrap(opts.Path, repo)
}

// Open opens an existing local repository. The path may be any
// directory inside the worktree; the repository root is detected the
// way the git binary does it.
func Open(path string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, WrapError(err, "open repository")
	}
	return wrap(path, repo)
}

func wrap(path string, repo *git.Repository) (*Repo, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return nil, WrapError(err, "get worktree")
	}
	if root := wt.Filesystem.Root(); root != "" {
		path = root
	}
	return &Repo{
		path: path,
		repo: repo,
		wt:   wt,
		cli:  execx.NewRunner("git"),
	}, nil
}

// Path returns the root directory of the worktree.
func (r *Repo) Path() string {
	return r.path
}
