package probe

import (
	"slices"
	"sync"
)

// Counters is a recording probe: request totals, per-file counts, outcome
// tallies and the active resolution stack. The stack exists to catch true
// import cycles (a file re-entering resolution while its own resolution is
// still in flight) as opposed to plain repeated requests, which are normal
// and show up only in PerFile.
type Counters struct {
	mu sync.Mutex

	requests     uint64
	perFile      map[string]uint64
	outcomes     map[Outcome]uint64
	unitsCreated int
	classified   uint64
	emitsBlocked int

	stack    []string
	maxDepth int
	cycles   [][]string
}

// NewCounters returns an empty recording probe.
func NewCounters() *Counters {
	return &Counters{
		perFile:  make(map[string]uint64),
		outcomes: make(map[Outcome]uint64),
	}
}

func (c *Counters) BeginResolve(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests++
	c.perFile[path]++

	if i := slices.Index(c.stack, path); i >= 0 {
		cycle := make([]string, 0, len(c.stack)-i+1)
		cycle = append(cycle, c.stack[i:]...)
		cycle = append(cycle, path)
		c.cycles = append(c.cycles, cycle)
	}
	c.stack = append(c.stack, path)
	if len(c.stack) > c.maxDepth {
		c.maxDepth = len(c.stack)
	}
}

func (c *Counters) EndResolve(path string, outcome Outcome, unitIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.outcomes[outcome]++

	// Пара Begin/End строго вложенная, поэтому снимаем верх стека.
	if n := len(c.stack); n > 0 && c.stack[n-1] == path {
		c.stack = c.stack[:n-1]
	}
}

func (c *Counters) UnitCreated(root string, poolSize int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unitsCreated++
}

func (c *Counters) ImportClassified(specifier, importer, class string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.classified++
}

func (c *Counters) EmitBlocked(path string, errorCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emitsBlocked++
}

func (c *Counters) Flush() error  { return nil }
func (c *Counters) Close() error  { return nil }
func (c *Counters) Enabled() bool { return true }

// Requests returns the total number of resolution requests observed.
func (c *Counters) Requests() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests
}

// FileRequests returns how many times path was requested.
func (c *Counters) FileRequests(path string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.perFile[path]
}

// OutcomeCount returns how many requests ended with the given outcome.
func (c *Counters) OutcomeCount(o Outcome) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcomes[o]
}

// UnitsCreated returns the number of compilation units created.
func (c *Counters) UnitsCreated() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unitsCreated
}

// Classified returns how many classifier verdicts were observed.
func (c *Counters) Classified() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classified
}

// EmitsBlocked returns how many emissions were blocked by diagnostics.
func (c *Counters) EmitsBlocked() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.emitsBlocked
}

// Depth returns the current resolution nesting depth.
func (c *Counters) Depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stack)
}

// Cycles returns recorded import cycles, innermost request last.
func (c *Counters) Cycles() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]string, len(c.cycles))
	for i, cyc := range c.cycles {
		out[i] = slices.Clone(cyc)
	}
	return out
}
