package syncer

import (
	"time"
)

// OutcomeKind classifies the result of processing one fork.
type OutcomeKind string

const (
	// OutcomeInSync means the fork's head already matched upstream and
	// nothing was mutated.
	OutcomeInSync OutcomeKind = "in-sync"
	// OutcomeMerged means a clean three-way merge was pushed.
	OutcomeMerged OutcomeKind = "merged"
	// OutcomeMergedUnrelated means the merge needed the
	// unrelated-histories allowance.
	OutcomeMergedUnrelated OutcomeKind = "merged-unrelated"
	// OutcomeReset means the branch was overwritten with upstream's
	// state. An overwrite, not a merge; only reachable with --force.
	OutcomeReset OutcomeKind = "reset"
	// OutcomeNeedsSync is reported in dry runs for forks that diverge.
	OutcomeNeedsSync OutcomeKind = "needs-sync"
	// OutcomeSkipped marks forks that cannot be synced at all: no
	// parent, archived, or an empty repository. A signal, not a failure.
	OutcomeSkipped OutcomeKind = "skipped"
	// OutcomeFailed marks forks whose processing errored.
	OutcomeFailed OutcomeKind = "failed"
)

// Synced reports whether the kind represents a published convergence.
func (k OutcomeKind) Synced() bool {
	switch k {
	case OutcomeMerged, OutcomeMergedUnrelated, OutcomeReset:
		return true
	}
	return false
}

// Strategy is one rung of the reconciliation ladder.
type Strategy string

const (
	StrategyNone           Strategy = ""
	StrategyMerge          Strategy = "merge"
	StrategyMergeUnrelated Strategy = "merge-unrelated"
	StrategyReset          Strategy = "reset"
)

// Outcome is the result of processing one ForkRecord. Produced exactly
// once per record per run and never persisted between runs.
type Outcome struct {
	Record   *ForkRecord   `json:"record"`
	Kind     OutcomeKind   `json:"kind"`
	Strategy Strategy      `json:"strategy,omitempty"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration"`
}

func newOutcome(rec *ForkRecord, kind OutcomeKind, detail string) *Outcome {
	return &Outcome{Record: rec, Kind: kind, Detail: detail}
}

// withWarning appends a branch-resolution warning to an outcome detail.
func withWarning(detail, warning string) string {
	switch {
	case warning == "":
		return detail
	case detail == "":
		return warning
	default:
		return detail + "; " + warning
	}
}

// Totals are the run's summary counts. Synced covers merged,
// merged-unrelated and reset; InSync and Skipped count separately and
// NeedsSync only appears in dry runs.
type Totals struct {
	Total     int `json:"total"`
	Synced    int `json:"synced"`
	InSync    int `json:"in_sync"`
	NeedsSync int `json:"needs_sync,omitempty"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Tally aggregates outcomes into summary counts.
func Tally(outcomes []*Outcome) Totals {
	t := Totals{Total: len(outcomes)}
	for _, out := range outcomes {
		if out == nil {
			continue
		}
		switch {
		case out.Kind == OutcomeInSync:
			t.InSync++
		case out.Kind == OutcomeNeedsSync:
			t.NeedsSync++
		case out.Kind == OutcomeSkipped:
			t.Skipped++
		case out.Kind == OutcomeFailed:
			t.Failed++
		case out.Kind.Synced():
			t.Synced++
		}
	}
	return t
}

// RunReport is everything one run produced, in discovery order.
type RunReport struct {
	RunID    string     `json:"run_id"`
	Owner    string     `json:"owner"`
	DryRun   bool       `json:"dry_run,omitempty"`
	Started  time.Time  `json:"started"`
	Finished time.Time  `json:"finished"`
	Outcomes []*Outcome `json:"outcomes"`
	Totals   Totals     `json:"totals"`
}

// Duration returns the wall-clock time the run took.
func (r *RunReport) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}
