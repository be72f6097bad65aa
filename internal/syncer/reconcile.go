package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/upstreamed/forksync/internal/config"
	"github.com/upstreamed/forksync/internal/gitx"
	"github.com/upstreamed/forksync/internal/retry"
)

const (
	publishAttempts       = 3
	publishRateLimitDelay = 60 * time.Second
	publishNetworkDelay   = 10 * time.Second
	publishOtherDelay     = 2 * time.Second
)

// mergeCommitMessage is the fixed message for merge commits created by
// the tool.
const mergeCommitMessage = "Sync fork with upstream"

// transientPolicy paces fetch and push retries with a fixed delay per
// failure kind: rate limits wait longest, network failures a medium
// interval, everything else a short one. Delays never grow across
// attempts; exponential backoff belongs to discovery only.
func transientPolicy() retry.Policy {
	return retry.FixedByKind(publishAttempts, map[retry.Kind]time.Duration{
		retry.KindRateLimit: publishRateLimitDelay,
		retry.KindNetwork:   publishNetworkDelay,
		retry.KindOther:     publishOtherDelay,
	})
}

// workRepo is the slice of a local clone the reconciler drives.
type workRepo interface {
	SetRemote(name, url string) error
	Fetch(ctx context.Context, remote string, auth transport.AuthMethod) error
	Head() (string, error)
	ResolveRevision(rev string) (string, error)
	Merge(ctx context.Context, rev string, opts *gitx.MergeOptions) error
	HardReset(rev string) error
	Push(ctx context.Context, remote string, force bool, auth transport.AuthMethod) error
}

// cloneFn lets tests stand in a fake repository for gitx.Clone.
type cloneFn func(ctx context.Context, opts *gitx.CloneOptions) (workRepo, error)

func gitClone(ctx context.Context, opts *gitx.CloneOptions) (workRepo, error) {
	repo, err := gitx.Clone(ctx, opts)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

type reconciler struct {
	cfg       *config.Config
	ws        *Workspace
	clone     cloneFn
	transient retry.Policy
}

func newReconciler(cfg *config.Config, ws *Workspace) *reconciler {
	return &reconciler{
		cfg:       cfg,
		ws:        ws,
		clone:     gitClone,
		transient: transientPolicy(),
	}
}

// Reconcile converges one diverging fork to its upstream and publishes
// the result. Every error is converted to the record's outcome here,
// at the processing boundary, so one repository can never abort its
// siblings.
func (r *reconciler) Reconcile(ctx context.Context, rec *ForkRecord, check *CheckResult) *Outcome {
	start := time.Now()
	out, err := r.converge(ctx, rec, check)
	if err != nil {
		slog.Warn("reconcile", "repo", rec.Name, "error", err)
		out = newOutcome(rec, OutcomeFailed, err.Error())
	}
	out.Duration = time.Since(start)
	return out
}

func (r *reconciler) converge(ctx context.Context, rec *ForkRecord, check *CheckResult) (*Outcome, error) {
	if rec.CloneURL == "" || rec.ParentCloneURL == "" {
		return nil, errors.New("record is missing clone URLs")
	}

	dir, err := r.ws.CloneDir(rec.Name)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r.cfg.KeepWork {
			return
		}
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("clone dir not removed", "dir", dir, "error", err)
		}
	}()

	auth := gitx.TokenAuth(r.cfg.Token)

	repo, err := r.clone(ctx, &gitx.CloneOptions{
		URL:    rec.CloneURL,
		Path:   dir,
		Branch: rec.DefaultBranch,
		Auth:   auth,
	})
	if err != nil {
		if errors.Is(err, gitx.ErrEmptyRepository) {
			return newOutcome(rec, OutcomeSkipped, "empty repository: nothing to sync"), nil
		}
		return nil, fmt.Errorf("clone: %w", err)
	}

	if err := repo.SetRemote(gitx.UpstreamRemoteName, rec.ParentCloneURL); err != nil {
		return nil, err
	}

	err = retry.Do(ctx, r.transient, func(ctx context.Context) error {
		err := repo.Fetch(ctx, gitx.UpstreamRemoteName, auth)
		if errors.Is(err, gitx.ErrAlreadyUpToDate) {
			return nil
		}
		return err
	})
	if err != nil {
		if errors.Is(err, gitx.ErrEmptyRepository) {
			return newOutcome(rec, OutcomeSkipped, "upstream repository is empty"), nil
		}
		return nil, fmt.Errorf("fetch upstream: %w", err)
	}

	baseHead, err := repo.Head()
	if err != nil {
		return nil, err
	}

	upstreamRef := gitx.UpstreamRemoteName + "/" + check.UpstreamBranch
	upstreamHead, err := repo.ResolveRevision(upstreamRef)
	if err != nil {
		return nil, fmt.Errorf("upstream branch %q vanished after fetch: %w", check.UpstreamBranch, err)
	}

	// API heads can lag; trust the freshly fetched refs
	if upstreamHead == baseHead {
		detail := withWarning("", check.Warning)
		return newOutcome(rec, OutcomeInSync, detail), nil
	}

	applied, err := r.runLadder(ctx, rec, repo, upstreamRef)
	if err != nil {
		return nil, err
	}

	newHead, err := repo.Head()
	if err != nil {
		return nil, err
	}
	if newHead == baseHead {
		// the merge found nothing to do: the fork already contains
		// upstream (it is strictly ahead). Nothing to publish.
		detail := withWarning("fork is ahead of "+upstreamRef, check.Warning)
		return newOutcome(rec, OutcomeInSync, detail), nil
	}

	if err := r.publish(ctx, repo, auth, applied == StrategyReset); err != nil {
		return nil, fmt.Errorf("%s succeeded locally but push failed: %w", applied, err)
	}

	out := newOutcome(rec, outcomeKindFor(applied), withWarning(strategyDetail(applied, upstreamRef), check.Warning))
	out.Strategy = applied
	return out, nil
}

// runLadder walks the strategy ladder until a strategy succeeds or the
// ladder is exhausted.
func (r *reconciler) runLadder(ctx context.Context, rec *ForkRecord, repo workRepo, upstreamRef string) (Strategy, error) {
	var lastErr error
	strategy := StrategyNone
	for {
		next, ok := nextStrategy(strategy, r.cfg.Force)
		if !ok {
			return StrategyNone, fmt.Errorf("all strategies exhausted: %w", lastErr)
		}
		strategy = next

		lastErr = r.apply(ctx, repo, strategy, upstreamRef)
		if lastErr == nil {
			return strategy, nil
		}
		if ctx.Err() != nil {
			return StrategyNone, lastErr
		}
		slog.Debug("strategy failed", "repo", rec.Name, "strategy", strategy, "error", lastErr)
	}
}

func (r *reconciler) apply(ctx context.Context, repo workRepo, strategy Strategy, upstreamRef string) error {
	switch strategy {
	case StrategyMerge, StrategyMergeUnrelated:
		return repo.Merge(ctx, upstreamRef, &gitx.MergeOptions{
			AllowUnrelated: strategy == StrategyMergeUnrelated,
			Message:        mergeCommitMessage,
			Committer: gitx.Signature{
				Name:  r.cfg.CommitName,
				Email: r.cfg.CommitEmail,
			},
		})
	case StrategyReset:
		return repo.HardReset(upstreamRef)
	default:
		return fmt.Errorf("no strategy %q", strategy)
	}
}

// publish pushes the branch back to the fork, force only after a
// reset. Exhausting the retries means the record failed even though
// local convergence succeeded.
func (r *reconciler) publish(ctx context.Context, repo workRepo, auth transport.AuthMethod, force bool) error {
	return retry.Do(ctx, r.transient, func(ctx context.Context) error {
		err := repo.Push(ctx, gitx.DefaultRemoteName, force, auth)
		if errors.Is(err, gitx.ErrAlreadyUpToDate) {
			return nil
		}
		return err
	})
}

func strategyDetail(s Strategy, upstreamRef string) string {
	switch s {
	case StrategyMerge:
		return "merged " + upstreamRef
	case StrategyMergeUnrelated:
		return "merged " + upstreamRef + " (unrelated histories)"
	case StrategyReset:
		return "reset to " + upstreamRef
	}
	return ""
}
