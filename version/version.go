// Package version knows which gantry build this is.
package version

import (
	_ "embed"
	"fmt"
	"runtime"
	"strings"
)

// baseVersion comes from the VERSION file in this directory.
//
//go:embed VERSION
var baseVersion string

// buildVersion distinguishes individual builds of the same base version.
// Release builds set it at link time:
//
//	go build -ldflags "-X github.com/gantry-ci/gantry/version.buildVersion=4711" .
var buildVersion string

func Version() string {
	return strings.TrimSpace(baseVersion)
}

// BuildVersion returns the build number, or "dev" for local builds.
func BuildVersion() string {
	if buildVersion == "" {
		return "dev"
	}
	return buildVersion
}

func FullVersion() string {
	return fmt.Sprintf("%s.%s", Version(), BuildVersion())
}

// UserAgent is the User-Agent gantry sends on its requests.
func UserAgent() string {
	return fmt.Sprintf("gantry/%s.%s (%s; %s)", Version(), BuildVersion(), runtime.GOOS, runtime.GOARCH)
}
