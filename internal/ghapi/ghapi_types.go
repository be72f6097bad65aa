package ghapi

import (
	"fmt"
	"runtime"

	"github.com/upstreamed/forksync/internal/version"
)

const (
	HeaderAccept        = "Accept"
	HeaderAPIVersion    = "X-GitHub-Api-Version"
	HeaderRateRemaining = "X-RateLimit-Remaining"
	HeaderRateReset     = "X-RateLimit-Reset"
	HeaderRetryAfter    = "Retry-After"
)

const (
	acceptGitHubJSON = "application/vnd.github+json"
	apiVersion       = "2022-11-28"
)

// ForkSyncUserAgent identifies the tool in API requests.
var ForkSyncUserAgent = fmt.Sprintf("ForkSync/%s (%s; %s; %s)", version.Version, version.Revision, runtime.GOOS, runtime.GOARCH)
