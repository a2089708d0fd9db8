// Package version хранит данные сборки, проставляемые через -ldflags:
//
//	-X github.com/vladislavdragonenkov/storefront/internal/version.version=v1.2.0
package version

import (
	"fmt"
	"runtime"

	log "github.com/sirupsen/logrus"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Build — сведения о текущем бинарнике.
type Build struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
}

// Current возвращает сведения о сборке.
func Current() Build {
	return Build{Version: version, Commit: commit, Date: date, GoVersion: runtime.Version()}
}

// Version возвращает semver сборки или "dev".
func Version() string { return version }

// Dev сообщает, что бинарник собран без -ldflags.
func (b Build) Dev() bool { return b.Version == "dev" }

func (b Build) String() string {
	return fmt.Sprintf("storefront %s (commit %s, built %s, %s)", b.Version, b.Commit, b.Date, b.GoVersion)
}

// Fields — поля сборки для стартового лога.
func (b Build) Fields() log.Fields {
	return log.Fields{
		"version": b.Version,
		"commit":  b.Commit,
		"built":   b.Date,
		"go":      b.GoVersion,
	}
}
