package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextStrategy(t *testing.T) {
	tests := []struct {
		name   string
		prev   Strategy
		force  bool
		next   Strategy
		wantOK bool
	}{
		{"start", StrategyNone, false, StrategyMerge, true},
		{"after merge", StrategyMerge, false, StrategyMergeUnrelated, true},
		{"exhausted without force", StrategyMergeUnrelated, false, StrategyNone, false},
		{"reset with force", StrategyMergeUnrelated, true, StrategyReset, true},
		{"nothing after reset", StrategyReset, true, StrategyNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok := nextStrategy(tt.prev, tt.force)
			assert.Equal(t, tt.next, next)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

// Walking the full ladder must never reach the reset rung unless force
// is set, regardless of how many transitions are taken.
func TestLadderNeverResetsWithoutForce(t *testing.T) {
	strategy := StrategyNone
	for {
		next, ok := nextStrategy(strategy, false)
		if !ok {
			break
		}
		assert.NotEqual(t, StrategyReset, next)
		strategy = next
	}
	assert.Equal(t, StrategyMergeUnrelated, strategy)
}

func TestOutcomeKindForStrategy(t *testing.T) {
	assert.Equal(t, OutcomeMerged, outcomeKindFor(StrategyMerge))
	assert.Equal(t, OutcomeMergedUnrelated, outcomeKindFor(StrategyMergeUnrelated))
	assert.Equal(t, OutcomeReset, outcomeKindFor(StrategyReset))
	assert.Equal(t, OutcomeFailed, outcomeKindFor(StrategyNone))
}

func TestOutcomeKindSynced(t *testing.T) {
	assert.True(t, OutcomeMerged.Synced())
	assert.True(t, OutcomeMergedUnrelated.Synced())
	assert.True(t, OutcomeReset.Synced())
	assert.False(t, OutcomeInSync.Synced())
	assert.False(t, OutcomeSkipped.Synced())
	assert.False(t, OutcomeFailed.Synced())
	assert.False(t, OutcomeNeedsSync.Synced())
}
