package syncer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/upstreamed/forksync/internal/utils"
)

const (
	clonesDir   = "clones"
	logsDir     = "logs"
	lockFile    = "forksync.lock"
	logFileName = "forksync.log"
)

var ErrWorkspaceLocked = errors.New("work area locked by another process")

// Workspace is the on-disk work area for a run: ephemeral clone
// directories plus the log file. An exclusive lock keeps concurrent
// runs from sharing clone directories.
type Workspace struct {
	Root      string
	ClonesDir string
	LogsDir   string

	flock *flock.Flock
}

func NewWorkspace(rootDir string) (*Workspace, error) {
	root, err := utils.ResolvePath(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", rootDir, err)
	}

	return &Workspace{
		Root:      root,
		ClonesDir: filepath.Join(root, clonesDir),
		LogsDir:   filepath.Join(root, logsDir),
		flock:     flock.New(filepath.Join(root, lockFile)),
	}, nil
}

// LogFile returns the path of the run log inside the work area.
func (w *Workspace) LogFile() string {
	return filepath.Join(w.LogsDir, logFileName)
}

// Setup locks the work area and creates its directory layout.
func (w *Workspace) Setup() error {
	if err := utils.EnsureDir(w.Root); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", w.Root, err)
	}

	if err := w.Lock(); err != nil {
		return err
	}

	slog.Info("work area", "root", w.Root)

	for _, dir := range []string{w.ClonesDir, w.LogsDir} {
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

func (w *Workspace) Lock() error {
	locked, err := w.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock work area: %w", err)
	}
	if !locked {
		return ErrWorkspaceLocked
	}

	return nil
}

func (w *Workspace) Unlock() error {
	// if this process hasn't locked the work area, don't delete the lock file
	if !w.flock.Locked() {
		return nil
	}

	if err := w.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock work area: %w", err)
	}

	return os.Remove(w.flock.Path())
}

// CloneDir creates a fresh private directory for one repository clone.
// Callers remove it when they are done with the repository.
func (w *Workspace) CloneDir(repo RepoName) (string, error) {
	prefix := strings.ReplaceAll(repo.String(), "/", "__")
	dir, err := os.MkdirTemp(w.ClonesDir, prefix+"-")
	if err != nil {
		return "", fmt.Errorf("failed to create clone dir for %s: %w", repo, err)
	}
	return dir, nil
}

// Cleanup removes all clone directories. Logs are kept.
func (w *Workspace) Cleanup() error {
	return os.RemoveAll(w.ClonesDir)
}
