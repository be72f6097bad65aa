package ghapi

import "time"

// Repository is a GitHub repository record. Parent and Source are only
// populated on single-repo fetches, never in list responses.
type Repository struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	FullName      string      `json:"full_name"`
	Owner         *User       `json:"owner"`
	Fork          bool        `json:"fork"`
	Private       bool        `json:"private"`
	Archived      bool        `json:"archived"`
	Disabled      bool        `json:"disabled"`
	Description   string      `json:"description"`
	Language      string      `json:"language"`
	DefaultBranch string      `json:"default_branch"`
	CloneURL      string      `json:"clone_url"`
	SSHURL        string      `json:"ssh_url"`
	HTMLURL       string      `json:"html_url"`
	PushedAt      *time.Time  `json:"pushed_at"`
	UpdatedAt     *time.Time  `json:"updated_at"`
	Parent        *Repository `json:"parent"`
	Source        *Repository `json:"source"`
}

// OwnerLogin returns the owner's login, or "" for a partial record.
func (r *Repository) OwnerLogin() string {
	if r.Owner == nil {
		return ""
	}
	return r.Owner.Login
}

// ListReposParams selects one page of a user's repositories.
type ListReposParams struct {
	Username string
	Page     int
	PerPage  int
}

// Branch is a GitHub branch record.
type Branch struct {
	Name      string       `json:"name"`
	Commit    BranchCommit `json:"commit"`
	Protected bool         `json:"protected"`
}

// BranchCommit is the head commit of a branch.
type BranchCommit struct {
	SHA string `json:"sha"`
	URL string `json:"url"`
}
