// Package syncer implements the fork sync pipeline: discover an
// account's forks, check which ones diverge from their upstream
// parents, and reconcile the diverging ones through an escalating
// strategy ladder. Per-repository failures become outcomes in the run
// report; only structural failures (credentials, discovery) abort a
// run.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/upstreamed/forksync/internal/config"
	"github.com/upstreamed/forksync/internal/ghapi"
)

// repoAPI is the slice of the hosting API the pipeline consumes.
type repoAPI interface {
	ListForUser(ctx context.Context, params *ghapi.ListReposParams) ([]*ghapi.Repository, error)
	Get(ctx context.Context, owner, repo string) (*ghapi.Repository, error)
	GetBranch(ctx context.Context, owner, repo, branch string) (*ghapi.Branch, error)
}

// userAPI resolves the authenticated account.
type userAPI interface {
	GetAuthenticated(ctx context.Context) (*ghapi.User, error)
}

// Syncer wires the pipeline stages together for one run.
type Syncer struct {
	cfg     *config.Config
	api     *ghapi.Client
	users   userAPI
	repos   repoAPI
	checker *divergenceChecker
	rec     *reconciler
	ws      *Workspace
}

func New(cfg *config.Config, ws *Workspace) (*Syncer, error) {
	api, err := ghapi.New(cfg.APIBaseURL, cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("api client: %w", err)
	}

	checker, err := newDivergenceChecker(api.Repos)
	if err != nil {
		api.Close()
		return nil, err
	}

	return &Syncer{
		cfg:     cfg,
		api:     api,
		users:   api.Users,
		repos:   api.Repos,
		checker: checker,
		rec:     newReconciler(cfg, ws),
		ws:      ws,
	}, nil
}

// Close releases the API client's connections.
func (s *Syncer) Close() {
	if s.api != nil {
		s.api.Close()
	}
}

// Discover resolves the owner and enumerates the forks to consider,
// without checking or mutating anything. Backs the list command.
func (s *Syncer) Discover(ctx context.Context) (string, []*ForkRecord, error) {
	owner, err := s.resolveOwner(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("resolve owner: %w", err)
	}
	records, err := s.discoverForks(ctx, owner)
	if err != nil {
		return "", nil, err
	}
	return owner, records, nil
}

// Run executes one full sync and returns its report. The error is
// non-nil only for structural failures; per-repository problems are
// folded into the report. The credential is scrubbed from the
// configuration before Run returns, on every path.
func (s *Syncer) Run(ctx context.Context) (*RunReport, error) {
	defer s.cfg.Scrub()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	report := &RunReport{
		RunID:   uuid.NewString(),
		DryRun:  s.cfg.DryRun,
		Started: time.Now().UTC(),
	}

	if err := s.ws.Setup(); err != nil {
		return nil, err
	}
	defer func() {
		if !s.cfg.KeepWork {
			if err := s.ws.Cleanup(); err != nil {
				slog.Warn("work area cleanup", "error", err)
			}
		}
		if err := s.ws.Unlock(); err != nil {
			slog.Warn("work area unlock", "error", err)
		}
	}()

	owner, records, err := s.Discover(ctx)
	if err != nil {
		return nil, err
	}
	report.Owner = owner
	slog.Info("discovery", "owner", owner, "forks", len(records))

	outcomes := make([]*Outcome, len(records))
	pending := make([]*workItem, 0, len(records))
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item, out := s.evaluate(ctx, rec)
		if out != nil {
			outcomes[i] = out
			slog.Info("check", "repo", rec.Name, "outcome", out.Kind, "detail", out.Detail)
			continue
		}
		item.idx = i
		pending = append(pending, item)
	}

	s.processPending(ctx, pending, outcomes)

	report.Outcomes = outcomes
	report.Totals = Tally(outcomes)
	report.Finished = time.Now().UTC()

	slog.Info("run complete",
		"run_id", report.RunID,
		"total", report.Totals.Total,
		"synced", report.Totals.Synced,
		"in_sync", report.Totals.InSync,
		"skipped", report.Totals.Skipped,
		"failed", report.Totals.Failed,
		"took", report.Duration().Round(time.Millisecond),
	)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("run interrupted: %w", err)
	}
	return report, nil
}

// evaluate runs the divergence stage for one record, returning either
// a final outcome or a work item for reconciliation. Records that
// cannot be synced at all are skipped, never failed.
func (s *Syncer) evaluate(ctx context.Context, rec *ForkRecord) (*workItem, *Outcome) {
	switch {
	case !rec.Fork:
		return nil, newOutcome(rec, OutcomeSkipped, "not a fork")
	case rec.Parent == "":
		return nil, newOutcome(rec, OutcomeSkipped, "no upstream parent")
	case rec.Archived:
		return nil, newOutcome(rec, OutcomeSkipped, "archived")
	}

	check, err := s.checker.Check(ctx, rec)
	if err != nil {
		if errors.Is(err, errEmptyFork) || errors.Is(err, errUpstreamGone) {
			return nil, newOutcome(rec, OutcomeSkipped, err.Error())
		}
		return nil, newOutcome(rec, OutcomeFailed, "divergence check: "+err.Error())
	}

	if !check.NeedsSync {
		return nil, newOutcome(rec, OutcomeInSync, withWarning("", check.Warning))
	}
	if s.cfg.DryRun {
		detail := fmt.Sprintf("heads differ on %q (%.7s vs %.7s)", check.UpstreamBranch, check.ForkHead, check.UpstreamHead)
		return nil, newOutcome(rec, OutcomeNeedsSync, withWarning(detail, check.Warning))
	}

	return &workItem{rec: rec, check: check}, nil
}
