package bundle_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dtsbundle/internal/bundle"
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

func canon(t *testing.T, path string) string {
	t.Helper()
	c, err := source.Canon(path)
	if err != nil {
		t.Fatalf("canon %s: %v", path, err)
	}
	return c
}

func newSession(t *testing.T, cfg bundle.Config) *bundle.Session {
	t.Helper()
	s, err := bundle.NewSession(cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func resolve(t *testing.T, s *bundle.Session, path string, raw []byte) *bundle.Resolution {
	t.Helper()
	res, err := s.Resolve(path, raw)
	if err != nil {
		t.Fatalf("Resolve %s: %v", path, err)
	}
	return res
}

func TestResolveZeroProgramRawDecl(t *testing.T) {
	dir := t.TempDir()
	raw := "export declare const version: string;\n"
	decl := writeFile(t, filepath.Join(dir, "index.d.ts"), raw)
	counters := probe.NewCounters()
	s := newSession(t, bundle.Config{Probe: counters})

	if _, err := s.ClassifyImport(decl, ""); err != nil {
		t.Fatalf("register entry: %v", err)
	}
	for i := 0; i < 3; i++ {
		res := resolve(t, s, decl, []byte(raw))
		if res == nil {
			t.Fatal("declaration entry resolved to NotFound")
		}
		if got := string(res.Code); got != raw {
			t.Fatalf("code = %q, want the raw text", got)
		}
		if res.Unit != nil || res.File != nil {
			t.Fatal("zero-program resolution must not carry a unit")
		}
	}
	if n := len(s.Units()); n != 0 {
		t.Fatalf("pool size = %d, want 0 for a declaration-only session", n)
	}
	if got := counters.OutcomeCount(probe.OutcomeRawDecl); got != 3 {
		t.Fatalf("raw-decl outcomes = %d, want 3", got)
	}
}

func TestResolveRawDeclServesMemoryText(t *testing.T) {
	// идентичность отсутствует на диске: пустой пул отдаёт текст хоста,
	// не трогая файловую систему
	s := newSession(t, bundle.Config{})
	res := resolve(t, s, filepath.Join(t.TempDir(), "virtual.d.ts"), []byte("export {};\n"))
	if res == nil {
		t.Fatal("in-memory declaration resolved to NotFound")
	}
	if string(res.Code) != "export {};\n" || res.Unit != nil {
		t.Fatalf("res = %+v, want raw text without unit", res)
	}
}

func TestResolveCreatesUnit(t *testing.T) {
	dir := t.TempDir()
	content := "import './util';\nexport function run(): void {}\n"
	entry := writeFile(t, filepath.Join(dir, "main.ts"), content)
	util := writeFile(t, filepath.Join(dir, "util.ts"), "export const u = 1;\n")
	counters := probe.NewCounters()
	s := newSession(t, bundle.Config{Probe: counters})

	res := resolve(t, s, entry, nil)
	if res == nil {
		t.Fatal("existing source file resolved to NotFound")
	}
	if res.Unit == nil || res.File == nil {
		t.Fatal("new-unit resolution must carry both unit and file")
	}
	if res.Unit.Index() != 0 {
		t.Fatalf("unit index = %d, want 0", res.Unit.Index())
	}
	if got := string(res.Code); got != content {
		t.Fatalf("code = %q, want the member text", got)
	}
	ok, err := res.Unit.Contains(canon(t, util))
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if !ok {
		t.Fatal("fresh unit did not pull its import")
	}
	if got := counters.UnitsCreated(); got != 1 {
		t.Fatalf("units created = %d, want 1", got)
	}
	if got := counters.OutcomeCount(probe.OutcomeNewUnit); got != 1 {
		t.Fatalf("new-unit outcomes = %d, want 1", got)
	}
}

func TestResolveNoDuplicateRoots(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, filepath.Join(dir, "main.ts"), "export const x = 1;\n")
	counters := probe.NewCounters()
	s := newSession(t, bundle.Config{Probe: counters})

	first := resolve(t, s, entry, nil)
	second := resolve(t, s, entry, nil)
	if first == nil || second == nil {
		t.Fatal("entry resolved to NotFound")
	}
	if second.Unit != first.Unit {
		t.Fatal("repeated resolution created a second unit for the same root")
	}
	if n := len(s.Units()); n != 1 {
		t.Fatalf("pool size = %d, want 1", n)
	}
	if got := counters.UnitsCreated(); got != 1 {
		t.Fatalf("units created = %d, want 1", got)
	}
	if got := counters.OutcomeCount(probe.OutcomeExistingUnit); got != 1 {
		t.Fatalf("existing-unit outcomes = %d, want 1", got)
	}
}

func TestResolveEntryRootPrecedence(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a.ts"), "import './b';\nimport './c';\nexport const a = 1;\n")
	b := writeFile(t, filepath.Join(dir, "b.ts"), "import './c';\nexport const b = 2;\n")
	c := writeFile(t, filepath.Join(dir, "c.ts"), "export const c = 3;\n")
	counters := probe.NewCounters()
	s := newSession(t, bundle.Config{Probe: counters})
	for _, e := range []string{a, b} {
		if _, err := s.ClassifyImport(e, ""); err != nil {
			t.Fatalf("register %s: %v", e, err)
		}
	}

	ra := resolve(t, s, a, nil)
	if ra == nil || ra.Unit.Index() != 0 {
		t.Fatalf("entry a: res = %+v, want unit 0", ra)
	}
	// b уже член юнита 0, но вход обслуживает только укоренивший его юнит
	rb := resolve(t, s, b, nil)
	if rb == nil || rb.Unit == nil {
		t.Fatal("entry b resolved without a unit")
	}
	if rb.Unit == ra.Unit {
		t.Fatal("entry b was served by the unit that merely imports it")
	}
	if rb.Unit.Index() != 1 {
		t.Fatalf("entry b unit index = %d, want 1", rb.Unit.Index())
	}
	if again := resolve(t, s, b, nil); again.Unit != rb.Unit {
		t.Fatal("repeated entry resolution switched units")
	}
	// общая зависимость достаётся первому созданному юниту
	rc := resolve(t, s, c, nil)
	if rc == nil || rc.Unit != ra.Unit {
		t.Fatalf("shared dependency must come from the first unit, got %+v", rc)
	}
	if n := len(s.Units()); n != 2 {
		t.Fatalf("pool size = %d, want 2", n)
	}
	if got := counters.UnitsCreated(); got != 2 {
		t.Fatalf("units created = %d, want 2", got)
	}
}

func TestResolveExternalFastPathNoGrowth(t *testing.T) {
	dir := t.TempDir()
	pkg := filepath.Join(dir, "node_modules", "pkglib")
	writeFile(t, filepath.Join(pkg, "package.json"), "{\"types\": \"index.d.ts\"}\n")
	extraText := "export declare const extra: number;\n"
	pkgIndex := writeFile(t, filepath.Join(pkg, "index.d.ts"),
		"import './extra';\nexport declare function lib(): void;\n")
	pkgExtra := writeFile(t, filepath.Join(pkg, "extra.d.ts"), extraText)
	entry := writeFile(t, filepath.Join(dir, "main.ts"), "import 'pkglib';\nexport const x = 1;\n")
	counters := probe.NewCounters()
	s := newSession(t, bundle.Config{Probe: counters})

	res := resolve(t, s, entry, nil)
	if res == nil || res.Unit == nil {
		t.Fatal("entry did not create a unit")
	}
	for _, p := range []string{pkgIndex, pkgExtra} {
		ext, err := res.Unit.IsExternalMember(canon(t, p))
		if err != nil {
			t.Fatalf("IsExternalMember: %v", err)
		}
		if !ext {
			t.Fatalf("%s is not tracked as an external member", p)
		}
	}

	before := len(s.Units())
	for i := 0; i < 3; i++ {
		for _, p := range []string{pkgIndex, pkgExtra} {
			r := resolve(t, s, p, nil)
			if r == nil {
				t.Fatalf("external declaration %s resolved to NotFound", p)
			}
			if r.Unit != nil || r.File != nil {
				t.Fatal("external fast path must not attach a unit")
			}
		}
	}
	if r := resolve(t, s, pkgExtra, nil); string(r.Code) != extraText {
		t.Fatalf("external code = %q, want disk text", r.Code)
	}
	if n := len(s.Units()); n != before {
		t.Fatalf("pool grew from %d to %d on external declarations", before, n)
	}
	if got := counters.OutcomeCount(probe.OutcomeExternalFast); got != 7 {
		t.Fatalf("external-fast outcomes = %d, want 7", got)
	}
}

func TestResolveNotFound(t *testing.T) {
	dir := t.TempDir()
	counters := probe.NewCounters()
	s := newSession(t, bundle.Config{Probe: counters})

	res, err := s.Resolve(filepath.Join(dir, "missing.ts"), nil)
	if err != nil {
		t.Fatalf("absence must not be an error: %v", err)
	}
	if res != nil {
		t.Fatalf("res = %+v, want nil", res)
	}
	if got := counters.OutcomeCount(probe.OutcomeNotFound); got != 1 {
		t.Fatalf("not-found outcomes = %d, want 1", got)
	}
}

func TestResolveSealsRegistration(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, filepath.Join(dir, "main.ts"), "export {};\n")
	s := newSession(t, bundle.Config{})

	if _, err := s.ClassifyImport(entry, ""); err != nil {
		t.Fatalf("register entry: %v", err)
	}
	resolve(t, s, entry, nil)
	_, err := s.ClassifyImport(filepath.Join(dir, "late.ts"), "")
	if !errors.Is(err, bundle.ErrSessionSealed) {
		t.Fatalf("err = %v, want ErrSessionSealed", err)
	}
}

func TestSessionExplicitTsconfig(t *testing.T) {
	dir := t.TempDir()
	// конфигурация лежит вне пути автопоиска от src/
	cfgPath := writeFile(t, filepath.Join(dir, "config", "tsconfig.json"),
		"{\n  \"compilerOptions\": {\n    \"paths\": {\"@lib/*\": [\"../lib/*\"]}\n  }\n}\n")
	entry := writeFile(t, filepath.Join(dir, "src", "main.ts"), "import '@lib/util';\nexport {};\n")
	util := writeFile(t, filepath.Join(dir, "lib", "util.ts"), "export const u = 1;\n")

	s := newSession(t, bundle.Config{TsconfigPath: cfgPath})
	res := resolve(t, s, entry, nil)
	if res == nil || res.Unit == nil {
		t.Fatal("entry did not create a unit")
	}
	ok, err := res.Unit.Contains(canon(t, util))
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if !ok {
		t.Fatal("paths mapping from the explicit tsconfig was not honored")
	}
}

func TestSessionBadTsconfig(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, filepath.Join(dir, "tsconfig.json"), "{ nope")
	if _, err := bundle.NewSession(bundle.Config{TsconfigPath: bad}); err == nil {
		t.Fatal("malformed tsconfig must fail session construction")
	}
	absent := filepath.Join(dir, "absent.json")
	if _, err := bundle.NewSession(bundle.Config{TsconfigPath: absent}); err == nil {
		t.Fatal("missing explicit tsconfig must fail session construction")
	}
}

func TestSessionOverrides(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, filepath.Join(dir, "main.ts"), "import './data.json';\nexport {};\n")
	data := writeFile(t, filepath.Join(dir, "data.json"), "{\"name\": \"pkg\"}\n")
	on := true
	s := newSession(t, bundle.Config{Overrides: bundle.Overrides{ResolveJSONModule: &on}})

	res := resolve(t, s, entry, nil)
	if res == nil || res.Unit == nil {
		t.Fatal("entry did not create a unit")
	}
	ok, err := res.Unit.Contains(canon(t, data))
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if !ok {
		t.Fatal("resolveJsonModule override was not applied")
	}
}
