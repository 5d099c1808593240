// Package probe instruments module resolution. A Probe observes every
// resolution request, unit creation, import classification and blocked
// emission; it must never influence outcomes. The bundle layer takes a Probe
// at session construction and defaults to Nop, so instrumented and plain
// sessions behave identically.
package probe

// Outcome classifies how a resolution request was served.
type Outcome uint8

const (
	// OutcomeRawDecl: declaration text served from the given bytes before any
	// compilation unit existed.
	OutcomeRawDecl Outcome = iota + 1
	// OutcomeExistingUnit: served by a unit already in the pool.
	OutcomeExistingUnit
	// OutcomeExternalFast: raw disk text for a declaration that some unit
	// tracks as an external member.
	OutcomeExternalFast
	// OutcomeNewUnit: a fresh unit was created and now owns the file.
	OutcomeNewUnit
	// OutcomeNotFound: the file does not exist on disk.
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRawDecl:
		return "raw-decl"
	case OutcomeExistingUnit:
		return "existing-unit"
	case OutcomeExternalFast:
		return "external-fast"
	case OutcomeNewUnit:
		return "new-unit"
	case OutcomeNotFound:
		return "not-found"
	}
	return "unknown"
}

// Probe receives resolution events. Implementations must be goroutine-safe.
type Probe interface {
	// BeginResolve marks the start of a resolution request for path.
	BeginResolve(path string)

	// EndResolve marks the end of the request started by the matching
	// BeginResolve. unitIndex is the pool index of the owning unit, or -1
	// when no unit served the request.
	EndResolve(path string, outcome Outcome, unitIndex int)

	// UnitCreated reports a new compilation unit rooted at root; poolSize is
	// the pool length after insertion.
	UnitCreated(root string, poolSize int)

	// ImportClassified reports the classifier's verdict for a specifier.
	ImportClassified(specifier, importer, class string)

	// EmitBlocked reports that declaration emission for path was blocked by
	// errorCount error diagnostics.
	EmitBlocked(path string, errorCount int)

	// Flush ensures all buffered events are written.
	Flush() error

	// Close flushes and releases resources.
	Close() error

	// Enabled returns false only for the nop probe; callers may skip
	// building expensive event payloads when it is false.
	Enabled() bool
}

// nopProbe is a no-op implementation for zero overhead when probing is disabled.
type nopProbe struct{}

func (nopProbe) BeginResolve(string)                     {}
func (nopProbe) EndResolve(string, Outcome, int)         {}
func (nopProbe) UnitCreated(string, int)                 {}
func (nopProbe) ImportClassified(string, string, string) {}
func (nopProbe) EmitBlocked(string, int)                 {}
func (nopProbe) Flush() error                            { return nil }
func (nopProbe) Close() error                            { return nil }
func (nopProbe) Enabled() bool                           { return false }

// Nop is the package-level singleton nop probe.
var Nop Probe = nopProbe{}
