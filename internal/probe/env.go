package probe

import (
	"io"
	"os"
)

// Environment toggles. Both have zero functional effect on bundling.
const (
	// EnvDebug enables the structured event stream on stderr when set to a
	// non-empty value other than "0".
	EnvDebug = "DTSBUNDLE_DEBUG"
	// EnvSnapshot names a file that receives a counters snapshot when the
	// session finishes.
	EnvSnapshot = "DTSBUNDLE_PROBE_SNAPSHOT"
)

// FromEnv assembles the session probe from environment toggles. Counters is
// non-nil whenever any recording was requested; callers use it to write the
// snapshot after the session ends (SnapshotPath names the destination).
func FromEnv(w io.Writer) (Probe, *Counters) {
	debug := envEnabled(EnvDebug)
	snapshot := os.Getenv(EnvSnapshot) != ""
	if !debug && !snapshot {
		return Nop, nil
	}

	counters := NewCounters()
	if !debug {
		return counters, counters
	}
	return NewMulti(counters, NewLog(w)), counters
}

// SnapshotPath returns the configured snapshot destination, if any.
func SnapshotPath() (string, bool) {
	path := os.Getenv(EnvSnapshot)
	return path, path != ""
}

func envEnabled(name string) bool {
	v := os.Getenv(name)
	return v != "" && v != "0"
}
