package syncer

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/stretchr/testify/require"

	"github.com/upstreamed/forksync/internal/config"
	"github.com/upstreamed/forksync/internal/ghapi"
	"github.com/upstreamed/forksync/internal/gitx"
	"github.com/upstreamed/forksync/internal/retry"
)

// fakeHostAPI is an in-memory stand-in for the hosting API. Branch
// heads are keyed "owner/repo@branch".
type fakeHostAPI struct {
	mu   sync.Mutex
	user *ghapi.User

	pages    [][]*ghapi.Repository
	listErrs []error

	byName map[string]*ghapi.Repository
	heads  map[string]string

	getErrs    map[string]error
	branchErrs map[string]error

	listCalls   int
	getCalls    map[string]int
	branchCalls map[string]int
}

func newFakeHostAPI() *fakeHostAPI {
	return &fakeHostAPI{
		user:        &ghapi.User{Login: "octocat"},
		byName:      map[string]*ghapi.Repository{},
		heads:       map[string]string{},
		getErrs:     map[string]error{},
		branchErrs:  map[string]error{},
		getCalls:    map[string]int{},
		branchCalls: map[string]int{},
	}
}

func (f *fakeHostAPI) GetAuthenticated(ctx context.Context) (*ghapi.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user == nil {
		return nil, &ghapi.APIError{StatusCode: http.StatusUnauthorized, Message: "Bad credentials"}
	}
	return f.user, nil
}

func (f *fakeHostAPI) ListForUser(ctx context.Context, params *ghapi.ListReposParams) ([]*ghapi.Repository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if len(f.listErrs) > 0 {
		err := f.listErrs[0]
		f.listErrs = f.listErrs[1:]
		return nil, err
	}
	if params.Page < 1 || params.Page > len(f.pages) {
		return nil, nil
	}
	return f.pages[params.Page-1], nil
}

func (f *fakeHostAPI) Get(ctx context.Context, owner, repo string) (*ghapi.Repository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := owner + "/" + repo
	f.getCalls[key]++
	if err := f.getErrs[key]; err != nil {
		return nil, err
	}
	r, ok := f.byName[key]
	if !ok {
		return nil, notFoundErr()
	}
	return r, nil
}

func (f *fakeHostAPI) GetBranch(ctx context.Context, owner, repo, branch string) (*ghapi.Branch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := owner + "/" + repo + "@" + branch
	f.branchCalls[key]++
	if err := f.branchErrs[key]; err != nil {
		return nil, err
	}
	sha, ok := f.heads[key]
	if !ok {
		return nil, notFoundErr()
	}
	return &ghapi.Branch{Name: branch, Commit: ghapi.BranchCommit{SHA: sha}}, nil
}

// addFork registers a fork with its parent for both list and get
// responses, and sets both heads.
func (f *fakeHostAPI) addFork(fullName, parentFullName, forkHead, parentHead string) *ghapi.Repository {
	fork := testRepo(fullName, true)
	fork.Parent = testRepo(parentFullName, false)
	f.byName[fullName] = fork
	if len(f.pages) == 0 {
		f.pages = [][]*ghapi.Repository{{}}
	}
	f.pages[0] = append(f.pages[0], testRepo(fullName, true))
	f.heads[fullName+"@main"] = forkHead
	f.heads[parentFullName+"@main"] = parentHead
	return fork
}

func notFoundErr() error {
	return &ghapi.APIError{StatusCode: http.StatusNotFound, Message: "Not Found"}
}

func rateLimitedErr() error {
	return &ghapi.APIError{StatusCode: http.StatusForbidden, Message: "API rate limit exceeded", RateLimited: true}
}

func testRepo(fullName string, fork bool) *ghapi.Repository {
	owner, name, _ := strings.Cut(fullName, "/")
	return &ghapi.Repository{
		Name:          name,
		FullName:      fullName,
		Owner:         &ghapi.User{Login: owner},
		Fork:          fork,
		DefaultBranch: "main",
		CloneURL:      "https://git.example.test/" + fullName + ".git",
		HTMLURL:       "https://git.example.test/" + fullName,
	}
}

// fakeGitRepo is an in-memory workRepo. The scripted errors are
// consumed one per call so tests can express "fail twice then
// succeed".
type fakeGitRepo struct {
	mu sync.Mutex

	head         string
	upstreamHead string // what fetch makes upstream/<branch> resolve to
	mergedHead   string // head after a merge commit; "" keeps head (no-op merge)

	remotes map[string]string

	fetchErrs         []error
	mergeErr          error
	mergeUnrelatedErr error
	resetErr          error
	pushErrs          []error

	fetchCalls int
	mergeCalls []bool // allowUnrelated flag per call
	resetCalls int
	pushCalls  int
	pushForce  []bool
}

func (f *fakeGitRepo) SetRemote(name, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.remotes == nil {
		f.remotes = map[string]string{}
	}
	f.remotes[name] = url
	return nil
}

func (f *fakeGitRepo) Fetch(ctx context.Context, remote string, auth transport.AuthMethod) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if len(f.fetchErrs) > 0 {
		err := f.fetchErrs[0]
		f.fetchErrs = f.fetchErrs[1:]
		return err
	}
	return nil
}

func (f *fakeGitRepo) Head() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.head, nil
}

func (f *fakeGitRepo) ResolveRevision(rev string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.HasPrefix(rev, gitx.UpstreamRemoteName+"/") && f.upstreamHead != "" {
		return f.upstreamHead, nil
	}
	return "", gitx.ErrResolveFailed
}

func (f *fakeGitRepo) Merge(ctx context.Context, rev string, opts *gitx.MergeOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mergeCalls = append(f.mergeCalls, opts.AllowUnrelated)
	err := f.mergeErr
	if opts.AllowUnrelated {
		err = f.mergeUnrelatedErr
	}
	if err != nil {
		return err
	}
	if f.mergedHead != "" {
		f.head = f.mergedHead
	}
	return nil
}

func (f *fakeGitRepo) HardReset(rev string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetCalls++
	if f.resetErr != nil {
		return f.resetErr
	}
	f.head = f.upstreamHead
	return nil
}

func (f *fakeGitRepo) Push(ctx context.Context, remote string, force bool, auth transport.AuthMethod) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushCalls++
	f.pushForce = append(f.pushForce, force)
	if len(f.pushErrs) > 0 {
		err := f.pushErrs[0]
		f.pushErrs = f.pushErrs[1:]
		return err
	}
	return nil
}

// fakeCloner routes clones to per-URL fake repositories.
type fakeCloner struct {
	mu    sync.Mutex
	repos map[string]*fakeGitRepo
	errs  map[string]error
	calls map[string]int
	opts  []*gitx.CloneOptions
}

func newFakeCloner() *fakeCloner {
	return &fakeCloner{
		repos: map[string]*fakeGitRepo{},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func (c *fakeCloner) clone(ctx context.Context, opts *gitx.CloneOptions) (workRepo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[opts.URL]++
	c.opts = append(c.opts, opts)
	if err := c.errs[opts.URL]; err != nil {
		return nil, err
	}
	repo, ok := c.repos[opts.URL]
	if !ok {
		return nil, gitx.ErrResolveFailed
	}
	return repo, nil
}

func (c *fakeCloner) totalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Owner = "octocat"
	cfg.Token = "ghp_test1234token"
	cfg.WorkDir = t.TempDir()
	cfg.BatchPause = 0
	return cfg
}

// newTestSyncer wires a Syncer from fakes, with retry delays zeroed so
// tests never sleep.
func newTestSyncer(t *testing.T, cfg *config.Config, api *fakeHostAPI, cloner *fakeCloner) *Syncer {
	t.Helper()

	ws, err := NewWorkspace(cfg.WorkDir)
	require.NoError(t, err)

	checker, err := newDivergenceChecker(api)
	require.NoError(t, err)

	rec := newReconciler(cfg, ws)
	rec.transient = zeroDelayPolicy()
	if cloner != nil {
		rec.clone = cloner.clone
	}

	return &Syncer{
		cfg:     cfg,
		users:   api,
		repos:   api,
		checker: checker,
		rec:     rec,
		ws:      ws,
	}
}

func zeroDelayPolicy() retry.Policy {
	return retry.FixedByKind(publishAttempts, map[retry.Kind]time.Duration{
		retry.KindRateLimit: 0,
		retry.KindNetwork:   0,
		retry.KindOther:     0,
	})
}

// stubDiscoveryRetry replaces the discovery policy with a sleepless
// equivalent for the duration of the test.
func stubDiscoveryRetry(t *testing.T) {
	t.Helper()
	old := discoveryRetry
	discoveryRetry = retry.Exponential(discoveryAttempts, 0, 0, retry.KindRateLimit)
	t.Cleanup(func() { discoveryRetry = old })
}
