package probe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when Snapshot format changes
const snapshotSchemaVersion uint16 = 1

// ErrSnapshotSchema indicates the snapshot on disk was written by an
// incompatible version of the tool.
var ErrSnapshotSchema = errors.New("snapshot schema mismatch")

// Snapshot is the serialisable form of Counters, written at session end when
// DTSBUNDLE_PROBE_SNAPSHOT is set and read back by `dtsbundle inspect`.
type Snapshot struct {
	Schema    uint16
	SessionID string
	CreatedAt time.Time

	Requests     uint64
	PerFile      map[string]uint64
	Outcomes     map[string]uint64
	UnitsCreated int
	Classified   uint64
	EmitsBlocked int
	MaxDepth     int
	Cycles       [][]string
}

// Snapshot freezes the current counter values.
func (c *Counters) Snapshot(sessionID string) *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := &Snapshot{
		Schema:       snapshotSchemaVersion,
		SessionID:    sessionID,
		CreatedAt:    time.Now(),
		Requests:     c.requests,
		PerFile:      make(map[string]uint64, len(c.perFile)),
		Outcomes:     make(map[string]uint64, len(c.outcomes)),
		UnitsCreated: c.unitsCreated,
		Classified:   c.classified,
		EmitsBlocked: c.emitsBlocked,
		MaxDepth:     c.maxDepth,
	}
	for path, n := range c.perFile {
		snap.PerFile[path] = n
	}
	for outcome, n := range c.outcomes {
		snap.Outcomes[outcome.String()] = n
	}
	for _, cyc := range c.cycles {
		snap.Cycles = append(snap.Cycles, append([]string(nil), cyc...))
	}
	return snap
}

// WriteSnapshot serialises snap to path. The write is atomic: encode into a
// temp file in the destination directory, then rename over the target.
func WriteSnapshot(path string, snap *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err = os.Remove(f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Printf("failed to remove temp file: %v", err)
		}
	}()

	enc := msgpack.NewEncoder(f)
	if err = enc.Encode(snap); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), path)
}

// ReadSnapshot loads and validates a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			panic(closeErr)
		}
	}()

	var snap Snapshot
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(&snap); err != nil {
		return nil, err
	}
	if snap.Schema != snapshotSchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSnapshotSchema, snap.Schema, snapshotSchemaVersion)
	}
	return &snap, nil
}
