package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Version is the API version reported by /health. Overridden with -ldflags at release.
var Version = "0.5.0"

var (
	Revision string
	BuildAt  string
	Dirty    bool
)

func init() {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	for _, setting := range buildInfo.Settings {
		// https://pkg.go.dev/runtime/debug#BuildSetting
		switch setting.Key {
		case "vcs.revision":
			Revision = setting.Value
		case "vcs.time":
			BuildAt = setting.Value
		case "vcs.modified":
			Dirty = setting.Value == "true"
		}
	}
}

// String describes the running build, e.g. "0.5.0 1a2b3c4 at 2025-01-01 10:00:00".
func String() string {
	// go run / go test
	if Revision == "" {
		return Version + " dev"
	}

	rev := Revision
	if len(rev) > 7 {
		rev = rev[:7]
	}

	at := BuildAt
	if t, err := time.Parse(time.RFC3339, BuildAt); err == nil {
		at = t.Format("2006-01-02 15:04:05")
	}

	s := fmt.Sprintf("%s %s at %s", Version, rev, at)
	if Dirty {
		s += " dirty"
	}
	return s
}
