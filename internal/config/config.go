// Package config holds the run configuration for the sync pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/upstreamed/forksync/internal/utils"
)

const (
	DefaultAPIBaseURL  = "https://api.github.com"
	DefaultBatchSize   = 25
	DefaultMaxParallel = 5
	DefaultBatchPause  = 2 * time.Second
	DefaultTimeout     = 30 * time.Minute
	DefaultReadmePath  = "README.md"
	DefaultCommitName  = "forksync"
	DefaultCommitEmail = "forksync@users.noreply.github.com"
)

var (
	home, _           = os.UserHomeDir()
	DefaultConfigPath = filepath.Join(home, ".forksync", "config.json")
	DefaultWorkDir    = filepath.Join(home, ".forksync", "work")
)

type Config struct {
	// Owner is the account whose forks are synced. When empty it is
	// resolved from the token.
	Owner string `json:"owner"`

	// Repo restricts the run to a single fork instead of discovering all.
	Repo string `json:"repo,omitempty"`

	// Token authenticates API and git access. Never serialized and
	// overwritten by Scrub before the process exits.
	Token string `json:"-"`

	// APIBaseURL points at the GitHub API, overridable for enterprise
	// installs and tests.
	APIBaseURL string `json:"api_base_url,omitempty"`

	// Force permits history rewrites when merging fails.
	Force bool `json:"force"`

	// DryRun reports what would happen without cloning or pushing.
	DryRun bool `json:"dry_run"`

	// BatchSize is the number of forks per dispatch batch.
	BatchSize int `json:"batch_size"`

	// MaxParallel bounds concurrently processed batches.
	MaxParallel int `json:"max_parallel"`

	// BatchPause is the fixed pause between repos within a batch.
	BatchPause time.Duration `json:"batch_pause"`

	// Exclude lists glob patterns of fork names to skip.
	Exclude []string `json:"exclude,omitempty"`

	// WorkDir is where clones are created. Each run gets an isolated
	// subdirectory that is removed afterwards.
	WorkDir string `json:"work_dir"`

	// KeepWork retains clone directories after the run for debugging.
	KeepWork bool `json:"keep_work"`

	// ReadmePath is where the markdown report is written.
	ReadmePath string `json:"readme_path"`

	// CommitReadme commits the report when it changed and its directory
	// is a git repository.
	CommitReadme bool `json:"commit_readme"`

	// JSONPath optionally writes the machine-readable run report.
	JSONPath string `json:"json_path,omitempty"`

	// CommitName and CommitEmail identify merge and report commits.
	CommitName  string `json:"commit_name"`
	CommitEmail string `json:"commit_email"`

	// Timeout bounds the whole run. Zero means no limit.
	Timeout time.Duration `json:"timeout"`

	// Path is the config file this was loaded from, if any.
	Path string `json:"-"`
}

// Default returns a config populated with defaults.
func Default() *Config {
	return &Config{
		APIBaseURL:  DefaultAPIBaseURL,
		BatchSize:   DefaultBatchSize,
		MaxParallel: DefaultMaxParallel,
		BatchPause:  DefaultBatchPause,
		WorkDir:     DefaultWorkDir,
		ReadmePath:  DefaultReadmePath,
		CommitName:  DefaultCommitName,
		CommitEmail: DefaultCommitEmail,
		Timeout:     DefaultTimeout,
	}
}

// Validate checks the config and resolves filesystem paths.
func (c *Config) Validate() error {
	if c.Owner == "" && c.Token == "" {
		return fmt.Errorf("config: `owner` or `token` is required")
	}
	if !c.DryRun && c.Token == "" {
		return fmt.Errorf("config: `token` is required to push changes, use --dry-run for read-only checks")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("config: `batch_size` must be at least 1")
	}
	if c.MaxParallel < 1 {
		return fmt.Errorf("config: `max_parallel` must be at least 1")
	}
	if c.BatchPause < 0 {
		return fmt.Errorf("config: `batch_pause` cannot be negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config: `timeout` cannot be negative")
	}
	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("config: invalid exclude pattern %q", pattern)
		}
	}

	workDir, err := utils.ResolvePath(c.WorkDir)
	if err != nil {
		return fmt.Errorf("config: `work_dir`: %w", err)
	}
	c.WorkDir = workDir

	if c.ReadmePath != "" {
		readmePath, err := utils.ResolvePath(c.ReadmePath)
		if err != nil {
			return fmt.Errorf("config: `readme_path`: %w", err)
		}
		c.ReadmePath = readmePath
	}

	return nil
}

// MaskedToken returns the token in redacted form, safe for logs.
func (c *Config) MaskedToken() string {
	return utils.MaskSecret(c.Token)
}

// Scrub overwrites credential material so it cannot outlive the run.
func (c *Config) Scrub() {
	c.Token = ""
}
