// Package version provides the build version, set by the linker:
//
//	go build -ldflags "-X github.com/effective-security/xjws/internal/version.version=1.2.3 -X github.com/effective-security/xjws/internal/version.commit=abcdef"
package version

import (
	"fmt"
	"runtime"
)

var (
	version = "0.0.0"
	commit  = "dev"
)

// Info describes the build
type Info struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Runtime string `json:"runtime" yaml:"runtime"`
}

// Current returns the version of the build
func Current() Info {
	return Info{
		Version: version,
		Commit:  commit,
		Runtime: runtime.Version(),
	}
}

// String returns version in "1.2.3-abcdef" format
func (v Info) String() string {
	return fmt.Sprintf("%s-%s", v.Version, v.Commit)
}
