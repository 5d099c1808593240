package probe

// Multi fans out probe events to multiple probes.
type Multi struct {
	probes []Probe
}

// NewMulti creates a probe that forwards every event to all provided probes.
func NewMulti(probes ...Probe) *Multi {
	return &Multi{probes: probes}
}

func (m *Multi) BeginResolve(path string) {
	for _, p := range m.probes {
		p.BeginResolve(path)
	}
}

func (m *Multi) EndResolve(path string, outcome Outcome, unitIndex int) {
	for _, p := range m.probes {
		p.EndResolve(path, outcome, unitIndex)
	}
}

func (m *Multi) UnitCreated(root string, poolSize int) {
	for _, p := range m.probes {
		p.UnitCreated(root, poolSize)
	}
}

func (m *Multi) ImportClassified(specifier, importer, class string) {
	for _, p := range m.probes {
		p.ImportClassified(specifier, importer, class)
	}
}

func (m *Multi) EmitBlocked(path string, errorCount int) {
	for _, p := range m.probes {
		p.EmitBlocked(path, errorCount)
	}
}

func (m *Multi) Flush() error {
	var firstErr error
	for _, p := range m.probes {
		if err := p.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *Multi) Close() error {
	var firstErr error
	for _, p := range m.probes {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *Multi) Enabled() bool {
	for _, p := range m.probes {
		if p.Enabled() {
			return true
		}
	}
	return false
}
