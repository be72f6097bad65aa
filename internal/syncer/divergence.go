package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/upstreamed/forksync/internal/ghapi"
)

// conventionalBranches are probed in order when the hosting API does
// not report the upstream's default branch.
var conventionalBranches = []string{"main", "master"}

const branchCacheSize = 512

var (
	// errEmptyFork marks a fork whose default branch has no commits.
	// Such forks are skipped, not failed.
	errEmptyFork = errors.New("fork has no commits")

	// errUpstreamGone marks an upstream whose resolved branch (or whole
	// repository) no longer exists. There is nothing to sync against.
	errUpstreamGone = errors.New("upstream branch not found")
)

// divergenceChecker decides, without side effects, whether a fork's
// default branch head differs from its upstream's. Upstream branch
// resolution is memoized per parent so repeated checks of forks of the
// same upstream cost one resolution.
type divergenceChecker struct {
	repos    repoAPI
	branches *lru.Cache[RepoName, string]
}

func newDivergenceChecker(repos repoAPI) (*divergenceChecker, error) {
	cache, err := lru.New[RepoName, string](branchCacheSize)
	if err != nil {
		return nil, fmt.Errorf("branch cache: %w", err)
	}
	return &divergenceChecker{
		repos:    repos,
		branches: cache,
	}, nil
}

// Check compares the fork's head with the upstream's head on the
// resolved branch. A fork branch that does not exist classifies as
// errEmptyFork; a missing upstream branch as errUpstreamGone.
func (d *divergenceChecker) Check(ctx context.Context, rec *ForkRecord) (*CheckResult, error) {
	branch, warning, err := d.resolveUpstreamBranch(ctx, rec)
	if err != nil {
		return nil, err
	}

	fork, err := d.repos.GetBranch(ctx, rec.Name.Owner(), rec.Name.Name(), rec.DefaultBranch)
	if err != nil {
		if ghapi.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s has no %q branch", errEmptyFork, rec.Name, rec.DefaultBranch)
		}
		return nil, fmt.Errorf("fork head: %w", err)
	}

	upstream, err := d.repos.GetBranch(ctx, rec.Parent.Owner(), rec.Parent.Name(), branch)
	if err != nil {
		if ghapi.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s has no %q branch", errUpstreamGone, rec.Parent, branch)
		}
		return nil, fmt.Errorf("upstream head: %w", err)
	}

	result := &CheckResult{
		UpstreamBranch: branch,
		ForkHead:       fork.Commit.SHA,
		UpstreamHead:   upstream.Commit.SHA,
		NeedsSync:      fork.Commit.SHA != upstream.Commit.SHA,
		Warning:        warning,
	}
	slog.Debug("divergence",
		"repo", rec.Name,
		"branch", branch,
		"fork_head", result.ForkHead,
		"upstream_head", result.UpstreamHead,
		"needs_sync", result.NeedsSync,
	)
	return result, nil
}

// resolveUpstreamBranch picks the upstream branch to sync against. The
// fallback chain: the default branch the hosting API reported for the
// parent, then the conventional branch names probed for existence,
// then the fork's own branch name with a warning. Only the first two
// are cached; the fallback depends on the fork asking.
func (d *divergenceChecker) resolveUpstreamBranch(ctx context.Context, rec *ForkRecord) (branch, warning string, err error) {
	if cached, ok := d.branches.Get(rec.Parent); ok {
		return cached, "", nil
	}

	if rec.ParentDefaultBranch != "" {
		d.branches.Add(rec.Parent, rec.ParentDefaultBranch)
		return rec.ParentDefaultBranch, "", nil
	}

	for _, name := range conventionalBranches {
		_, err := d.repos.GetBranch(ctx, rec.Parent.Owner(), rec.Parent.Name(), name)
		if err == nil {
			d.branches.Add(rec.Parent, name)
			return name, "", nil
		}
		if !ghapi.IsNotFound(err) {
			return "", "", fmt.Errorf("probe %s branch %q: %w", rec.Parent, name, err)
		}
	}

	warning = fmt.Sprintf("upstream default branch unknown, assuming %q", rec.DefaultBranch)
	slog.Warn("divergence", "repo", rec.Name, "upstream", rec.Parent, "warning", warning)
	return rec.DefaultBranch, warning, nil
}
