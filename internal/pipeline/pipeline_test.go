package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dtsbundle/internal/bundle"
	"dtsbundle/internal/pipeline"
	"dtsbundle/internal/probe"
	"dtsbundle/internal/source"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func run(t *testing.T, req *pipeline.Request) pipeline.Result {
	t.Helper()
	res, err := pipeline.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func readOutput(t *testing.T, res pipeline.Result) string {
	t.Helper()
	if len(res.Outputs) != 1 {
		t.Fatalf("outputs = %d, want 1", len(res.Outputs))
	}
	data, err := os.ReadFile(filepath.FromSlash(res.Outputs[0].Path))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	return string(data)
}

func TestRunBundlesSourceEntry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "util.ts"),
		"export function pad(s: string, width: number): string { return s; }\n")
	entry := writeFile(t, filepath.Join(dir, "src", "index.ts"),
		"import { pad } from \"./util\";\nexport function banner(name: string): string { return pad(name, 20); }\n")

	res := run(t, &pipeline.Request{Target: pipeline.Target{
		Name:    "main",
		Entries: []string{entry},
		OutDir:  filepath.Join(dir, "dist"),
	}})

	text := readOutput(t, res)
	if !strings.Contains(text, "declare function pad(s: string, width: number): string;") {
		t.Fatalf("dependency declaration missing:\n%s", text)
	}
	if !strings.Contains(text, "declare function banner(name: string): string;") {
		t.Fatalf("entry declaration missing:\n%s", text)
	}
	if strings.Contains(text, "\"./util\"") {
		t.Fatalf("internal import survived:\n%s", text)
	}
	if strings.Index(text, "pad") > strings.Index(text, "banner") {
		t.Fatalf("dependencies must render before importers:\n%s", text)
	}
	if filepath.Base(res.Outputs[0].Path) != "index.d.ts" {
		t.Fatalf("output name = %q, want index.d.ts", res.Outputs[0].Path)
	}

	wantWatch := 0
	for _, p := range res.WatchFiles {
		if strings.HasSuffix(p, "util.ts") || strings.HasSuffix(p, "index.ts") {
			wantWatch++
		}
	}
	if wantWatch != 2 {
		t.Fatalf("watch files = %v, want both sources", res.WatchFiles)
	}
}

func TestRunDeclarationOnlyStaysZeroProgram(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, filepath.Join(dir, "index.d.ts"),
		"export declare const version: string;\n")

	counters := probe.NewCounters()
	res := run(t, &pipeline.Request{
		Target: pipeline.Target{
			Name:    "types",
			Entries: []string{entry},
			OutDir:  filepath.Join(dir, "dist"),
		},
		Probe: counters,
	})

	if counters.UnitsCreated() != 0 {
		t.Fatalf("units created = %d, want 0 for a declaration-only session", counters.UnitsCreated())
	}
	if counters.OutcomeCount(probe.OutcomeRawDecl) == 0 {
		t.Fatal("expected raw-declaration fast-path resolutions")
	}
	text := readOutput(t, res)
	if !strings.Contains(text, "export declare const version: string;") {
		t.Fatalf("declaration text lost:\n%s", text)
	}
}

func TestRunHoistsExternalImports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "node_modules", "leftpad", "package.json"),
		"{\"name\": \"leftpad\", \"types\": \"index.d.ts\"}\n")
	writeFile(t, filepath.Join(dir, "node_modules", "leftpad", "index.d.ts"),
		"export declare function leftpad(s: string, n: number): string;\n")
	writeFile(t, filepath.Join(dir, "src", "a.ts"),
		"import { leftpad } from \"leftpad\";\nexport function padA(s: string): string { return leftpad(s, 4); }\n")
	entry := writeFile(t, filepath.Join(dir, "src", "index.ts"),
		"import { leftpad } from \"leftpad\";\nexport { padA } from \"./a\";\nexport function padMain(s: string): string { return leftpad(s, 8); }\n")

	res := run(t, &pipeline.Request{Target: pipeline.Target{
		Name:    "main",
		Entries: []string{entry},
		OutDir:  filepath.Join(dir, "dist"),
	}})

	text := readOutput(t, res)
	if n := strings.Count(text, "from \"leftpad\""); n != 1 {
		t.Fatalf("external import appears %d times, want 1 hoisted copy:\n%s", n, text)
	}
	if !strings.HasPrefix(text, "import { leftpad } from \"leftpad\";") {
		t.Fatalf("external import not hoisted to the top:\n%s", text)
	}
	if len(res.Externals) != 1 || res.Externals[0] != "leftpad" {
		t.Fatalf("externals = %v, want [leftpad]", res.Externals)
	}
}

func TestRunEntryNotFoundIsFatal(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "nope.ts")

	_, err := pipeline.Run(context.Background(), &pipeline.Request{Target: pipeline.Target{
		Name:    "main",
		Entries: []string{missing},
		OutDir:  filepath.Join(dir, "dist"),
	}})
	if err == nil || !strings.Contains(err.Error(), "entry point") {
		t.Fatalf("Run = %v, want fatal entry-point error", err)
	}
}

func TestRunMissingDeclarationEntryIsFatal(t *testing.T) {
	// декларацию сессия обслуживает текстом хоста не глядя на диск;
	// отсутствие файла обязан заметить прогрев, иначе на выходе
	// появился бы пустой бандл
	dir := t.TempDir()
	missing := filepath.Join(dir, "nope.d.ts")
	outDir := filepath.Join(dir, "dist")

	_, err := pipeline.Run(context.Background(), &pipeline.Request{Target: pipeline.Target{
		Name:    "main",
		Entries: []string{missing},
		OutDir:  outDir,
	}})
	if err == nil || !strings.Contains(err.Error(), "entry point") {
		t.Fatalf("Run = %v, want fatal entry-point error", err)
	}
	if _, statErr := os.Stat(filepath.Join(outDir, "nope.d.ts")); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("stat output = %v, want no output written", statErr)
	}
}

func TestRunEmitBlockedIsFatal(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, filepath.Join(dir, "index.ts"),
		"export function untyped(x) { return x; }\n")

	_, err := pipeline.Run(context.Background(), &pipeline.Request{Target: pipeline.Target{
		Name:    "main",
		Entries: []string{entry},
		OutDir:  filepath.Join(dir, "dist"),
	}})
	var emitErr *bundle.EmitError
	if !errors.As(err, &emitErr) {
		t.Fatalf("Run = %v, want *bundle.EmitError", err)
	}
	if !strings.Contains(err.Error(), "GEN") {
		t.Fatalf("fatal error must carry rendered diagnostics, got:\n%v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "dist", "index.d.ts")); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("no partial output may be written for a blocked entry")
	}
}

func TestRunSharedDependencyKeepsTwoUnits(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "c.ts"),
		"export function shared(n: number): number { return n; }\n")
	a := writeFile(t, filepath.Join(dir, "a.ts"),
		"export { shared } from \"./c\";\nexport function fromA(): number { return 1; }\n")
	b := writeFile(t, filepath.Join(dir, "b.ts"),
		"export { shared } from \"./c\";\nexport function fromB(): number { return 2; }\n")

	counters := probe.NewCounters()
	res := run(t, &pipeline.Request{
		Target: pipeline.Target{
			Name:    "multi",
			Entries: []string{a, b},
			OutDir:  filepath.Join(dir, "dist"),
		},
		Probe: counters,
	})

	if counters.UnitsCreated() != 2 {
		t.Fatalf("units created = %d, want one per entry", counters.UnitsCreated())
	}
	if len(res.Outputs) != 2 {
		t.Fatalf("outputs = %d, want 2", len(res.Outputs))
	}
	for _, out := range res.Outputs {
		data, err := os.ReadFile(filepath.FromSlash(out.Path))
		if err != nil {
			t.Fatalf("read %s: %v", out.Path, err)
		}
		if !strings.Contains(string(data), "declare function shared(n: number): number;") {
			t.Fatalf("%s must carry the shared dependency:\n%s", out.Path, data)
		}
	}
}

func TestRunTransformIdempotentAcrossEntries(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, filepath.Join(dir, "index.ts"),
		"export function one(): number { return 1; }\n")

	first := run(t, &pipeline.Request{Target: pipeline.Target{
		Name:    "main",
		Entries: []string{entry, entry},
		OutDir:  filepath.Join(dir, "dist"),
	}})
	if len(first.Outputs) != 1 {
		t.Fatalf("duplicate entry registrations must collapse, outputs = %d", len(first.Outputs))
	}

	text1 := readOutput(t, first)
	second := run(t, &pipeline.Request{Target: pipeline.Target{
		Name:    "main",
		Entries: []string{entry},
		OutDir:  filepath.Join(dir, "dist2"),
	}})
	if text2 := readOutput(t, second); text1 != text2 {
		t.Fatal("two sessions over the same input produced different bundles")
	}
}

func TestRunEventsReachSink(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, filepath.Join(dir, "index.ts"),
		"export function one(): number { return 1; }\n")

	events := make(chan pipeline.Event, 64)
	done := make(chan []pipeline.Event, 1)
	go func() {
		var got []pipeline.Event
		for ev := range events {
			got = append(got, ev)
		}
		done <- got
	}()

	_, err := pipeline.Run(context.Background(), &pipeline.Request{
		Target: pipeline.Target{
			Name:    "main",
			Entries: []string{entry},
			OutDir:  filepath.Join(dir, "dist"),
		},
		Progress: pipeline.ChannelSink{Ch: events},
	})
	close(events)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := <-done
	var queued, written bool
	canon, _ := source.Canon(entry)
	for _, ev := range got {
		if ev.File == canon && ev.Stage == pipeline.StageResolve && ev.Status == pipeline.StatusQueued {
			queued = true
		}
		if ev.File == canon && ev.Stage == pipeline.StageWrite && ev.Status == pipeline.StatusDone {
			written = true
		}
	}
	if !queued || !written {
		t.Fatalf("missing lifecycle events (queued=%v written=%v) in %d events", queued, written, len(got))
	}
}
