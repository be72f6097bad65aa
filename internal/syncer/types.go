package syncer

import (
	"strings"
	"time"
)

// RepoName is a repository's fully-qualified name in "owner/name" form.
type RepoName string

func (n RepoName) String() string {
	return string(n)
}

// Owner returns the segment before the first slash.
func (n RepoName) Owner() string {
	owner, _, _ := strings.Cut(string(n), "/")
	return owner
}

// Name returns the segment after the first slash, or the whole string
// when there is none.
func (n RepoName) Name() string {
	_, name, ok := strings.Cut(string(n), "/")
	if !ok {
		return string(n)
	}
	return name
}

// IsValid reports whether the name has exactly two non-empty segments.
func (n RepoName) IsValid() bool {
	owner, name, ok := strings.Cut(string(n), "/")
	return ok && owner != "" && name != "" && !strings.Contains(name, "/")
}

// ForkRecord identifies one repository under reconciliation. It is built
// during discovery and immutable for the remainder of the run.
type ForkRecord struct {
	Name RepoName `json:"name"`

	// Parent is the upstream the fork was created from. Empty when the
	// hosting platform reports no resolvable parent; such records are
	// skipped, never failed.
	Parent RepoName `json:"parent,omitempty"`

	Fork     bool `json:"fork"`
	Archived bool `json:"archived,omitempty"`

	DefaultBranch       string `json:"default_branch"`
	ParentDefaultBranch string `json:"parent_default_branch,omitempty"`

	Language    string `json:"language,omitempty"`
	Description string `json:"description,omitempty"`

	CloneURL       string `json:"clone_url,omitempty"`
	ParentCloneURL string `json:"parent_clone_url,omitempty"`
	HTMLURL        string `json:"html_url,omitempty"`
	ParentHTMLURL  string `json:"parent_html_url,omitempty"`

	PushedAt time.Time `json:"pushed_at"`
}

// CheckResult is the outcome of a divergence check: the resolved
// upstream branch, both head commits, and whether they differ.
type CheckResult struct {
	UpstreamBranch string
	ForkHead       string
	UpstreamHead   string
	NeedsSync      bool

	// Warning is set when the upstream branch could not be resolved and
	// the fork's own branch name was assumed instead.
	Warning string
}

// workItem is one needing-sync record queued for reconciliation. idx is
// the record's position in the discovery order, so outcomes land in
// stable slots no matter how batches interleave.
type workItem struct {
	idx   int
	rec   *ForkRecord
	check *CheckResult
}
