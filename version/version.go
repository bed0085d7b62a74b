// Package version reports how the lineage binary was built.
//
// The values are stamped by the release build:
//
//	go build -ldflags "-X github.com/teranos/lineage/version.Version=v0.4.0 \
//	    -X github.com/teranos/lineage/version.CommitHash=$(git rev-parse HEAD) \
//	    -X github.com/teranos/lineage/version.BuildTime=$(date -u +%FT%TZ)"
//
// Blueprints may require an engine range (engine = ">= 0.4"); a dev build
// satisfies every range, see blueprint.CheckEngine.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Set through ldflags.
var (
	CommitHash = "dev"
	BuildTime  = "unknown"
	// Version is the release tag, "dev" for untagged builds.
	Version = "dev"
)

// Info is the build information printed by `lineage version`.
type Info struct {
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

func Get() Info {
	return Info{
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		Version:    Version,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// IsDev reports an untagged build.
func (i Info) IsDev() bool {
	return i.Version == "" || i.Version == "dev"
}

// Semver strips the tag's leading "v" for constraint checks.
func (i Info) Semver() string {
	return strings.TrimPrefix(i.Version, "v")
}

func (i Info) String() string {
	if i.IsDev() {
		return fmt.Sprintf("lineage dev (commit %s, built %s)", i.CommitHash, i.BuildTime)
	}
	return fmt.Sprintf("lineage %s (commit %s, built %s)", i.Version, i.CommitHash, i.BuildTime)
}

// Short is the abbreviated commit hash.
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}
