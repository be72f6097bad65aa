package syncer

// The reconciliation ladder escalates through strategies in strict
// order: clean merge, unrelated-histories merge, forced reset. The
// reset rung overwrites fork-only commits, so it is gated on the force
// flag; without it the ladder ends in exhausted failure instead.

// nextStrategy is the ladder's transition function: given the strategy
// that just failed (StrategyNone to start), it returns the strategy to
// attempt next. ok is false when the ladder is exhausted.
func nextStrategy(prev Strategy, force bool) (next Strategy, ok bool) {
	switch prev {
	case StrategyNone:
		return StrategyMerge, true
	case StrategyMerge:
		return StrategyMergeUnrelated, true
	case StrategyMergeUnrelated:
		if force {
			return StrategyReset, true
		}
		return StrategyNone, false
	default:
		return StrategyNone, false
	}
}

// outcomeKindFor maps a successful strategy to its outcome kind. A
// reset is flagged distinctly from the merge outcomes because it
// discards fork-only history.
func outcomeKindFor(s Strategy) OutcomeKind {
	switch s {
	case StrategyMerge:
		return OutcomeMerged
	case StrategyMergeUnrelated:
		return OutcomeMergedUnrelated
	case StrategyReset:
		return OutcomeReset
	default:
		return OutcomeFailed
	}
}
