package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummary(t *testing.T) {
	out := Summary(fixtureReport())

	assert.Contains(t, out, "Fork sync for octocat")
	assert.Contains(t, out, "octocat/alpha")
	assert.Contains(t, out, "octocat/bravo")
	assert.Contains(t, out, "merged upstream/main")
	assert.Contains(t, out, "3 considered · 1 synced · 1 already in sync · 1 skipped · 0 failed")
	assert.Contains(t, out, "run 1b7f9a52-3f51-4cbe-9f0e-6a1f1c6d1a11 finished in 42s")
	assert.NotContains(t, out, "need sync")
	assert.NotContains(t, out, "dry run")
}

func TestSummaryDryRun(t *testing.T) {
	rep := fixtureReport()
	rep.DryRun = true
	rep.Totals.NeedsSync = 2

	out := Summary(rep)
	assert.Contains(t, out, "dry run")
	assert.Contains(t, out, "2 need sync")
}
