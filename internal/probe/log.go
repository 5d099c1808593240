package probe

import (
	"io"

	"github.com/rs/zerolog"
)

// LogProbe streams resolution events as structured log lines. Intended for
// DTSBUNDLE_DEBUG runs; the output format is zerolog's JSON, one event per
// line, so sessions can be grepped and diffed.
type LogProbe struct {
	log zerolog.Logger
}

// NewLog builds a LogProbe writing to w.
func NewLog(w io.Writer) *LogProbe {
	return &LogProbe{
		log: zerolog.New(w).With().Timestamp().Str("component", "resolve").Logger(),
	}
}

func (p *LogProbe) BeginResolve(path string) {
	p.log.Debug().Str("path", path).Msg("resolve begin")
}

func (p *LogProbe) EndResolve(path string, outcome Outcome, unitIndex int) {
	ev := p.log.Debug().Str("path", path).Str("outcome", outcome.String())
	if unitIndex >= 0 {
		ev = ev.Int("unit", unitIndex)
	}
	ev.Msg("resolve end")
}

func (p *LogProbe) UnitCreated(root string, poolSize int) {
	p.log.Debug().Str("root", root).Int("pool", poolSize).Msg("unit created")
}

func (p *LogProbe) ImportClassified(specifier, importer, class string) {
	p.log.Debug().
		Str("specifier", specifier).
		Str("importer", importer).
		Str("class", class).
		Msg("import classified")
}

func (p *LogProbe) EmitBlocked(path string, errorCount int) {
	p.log.Warn().Str("path", path).Int("errors", errorCount).Msg("emit blocked")
}

func (p *LogProbe) Flush() error  { return nil }
func (p *LogProbe) Close() error  { return nil }
func (p *LogProbe) Enabled() bool { return true }
