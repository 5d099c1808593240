// Package diag defines the diagnostic model shared by every bundling phase.
//
// # Purpose
//
//   - Provide deterministic, serialisable data structures that capture
//     findings produced by scanning, configuration loading, module
//     resolution, and declaration emission.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the canonical source.Span pointing to the issue.
//   - Notes – optional secondary spans/messages for additional context.
//
// Notes should be used sparingly: each note must add new context (e.g. "first
// export was here") rather than repeating the diagnostic message.
//
// # Emitting diagnostics
//
// Phases should use a diag.Reporter to decouple emission from storage. The
// declaration generator, for example, constructs a ReportBuilder via
// NewReportBuilder (or the helpers ReportError/ReportWarning/ReportInfo) and
// chains WithNote before calling Emit. When no metadata is needed, phases may
// call Reporter.Report(...) directly. diag.BagReporter aggregates diagnostics
// into a Bag, which supports sorting, deduplication and merging.
//
// Error-severity diagnostics block declaration emission for the owning
// compilation unit; the bundle layer wraps them into a fatal error and the
// CLI renders them with FormatShortDiagnostics.
package diag
