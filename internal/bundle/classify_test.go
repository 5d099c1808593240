package bundle_test

import (
	"path/filepath"
	"testing"

	"dtsbundle/internal/bundle"
	"dtsbundle/internal/probe"
)

func classify(t *testing.T, s *bundle.Session, specifier, importer string) bundle.Classification {
	t.Helper()
	cls, err := s.ClassifyImport(specifier, importer)
	if err != nil {
		t.Fatalf("ClassifyImport %q from %q: %v", specifier, importer, err)
	}
	return cls
}

func TestClassifyEntryRegistration(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a.ts"), "export {};\n")
	b := writeFile(t, filepath.Join(dir, "b.ts"), "export {};\n")
	s := newSession(t, bundle.Config{})

	cls := classify(t, s, a, "")
	if cls.Class != bundle.ClassEntry {
		t.Fatalf("class = %v, want entry", cls.Class)
	}
	if cls.Path != canon(t, a) {
		t.Fatalf("path = %q, want %q", cls.Path, canon(t, a))
	}
	classify(t, s, b, "")
	// повторная регистрация той же идентичности схлопывается, позиция
	// остаётся за первой
	classify(t, s, a, "")
	entries := s.Entries()
	if len(entries) != 2 || entries[0] != canon(t, a) || entries[1] != canon(t, b) {
		t.Fatalf("entries = %v, want [%s %s]", entries, canon(t, a), canon(t, b))
	}
}

func TestClassifyRelativeImport(t *testing.T) {
	dir := t.TempDir()
	importer := writeFile(t, filepath.Join(dir, "src", "main.ts"), "export {};\n")
	util := writeFile(t, filepath.Join(dir, "src", "util.ts"), "export const u = 1;\n")
	s := newSession(t, bundle.Config{})

	cls := classify(t, s, "./util", importer)
	if cls.Class != bundle.ClassResolved {
		t.Fatalf("class = %v, want resolved", cls.Class)
	}
	if cls.Path != canon(t, util) {
		t.Fatalf("path = %q, want %q", cls.Path, canon(t, util))
	}
	// ESM-спецификатор с .js разрешается в соседний TypeScript
	if cls := classify(t, s, "./util.js", importer); cls.Path != canon(t, util) {
		t.Fatalf("js counterpart path = %q, want %q", cls.Path, canon(t, util))
	}
}

func TestClassifyExternalDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "node_modules", "pkglib", "index.d.ts"),
		"export declare function lib(): void;\n")
	importer := writeFile(t, filepath.Join(dir, "main.ts"), "export {};\n")
	counters := probe.NewCounters()
	s := newSession(t, bundle.Config{Probe: counters})

	cls := classify(t, s, "pkglib", importer)
	if cls.Class != bundle.ClassExternal {
		t.Fatalf("class = %v, want external", cls.Class)
	}
	if cls.Path != "" {
		t.Fatalf("external verdict carries path %q, want empty", cls.Path)
	}
	if got := counters.Classified(); got != 1 {
		t.Fatalf("classified = %d, want 1", got)
	}
}

func TestClassifyRespectExternal(t *testing.T) {
	dir := t.TempDir()
	lib := writeFile(t, filepath.Join(dir, "node_modules", "pkglib", "index.d.ts"),
		"export declare function lib(): void;\n")
	importer := writeFile(t, filepath.Join(dir, "main.ts"), "export {};\n")
	s := newSession(t, bundle.Config{RespectExternal: true})

	cls := classify(t, s, "pkglib", importer)
	if cls.Class != bundle.ClassResolved {
		t.Fatalf("class = %v, want resolved", cls.Class)
	}
	if cls.Path != canon(t, lib) {
		t.Fatalf("path = %q, want %q", cls.Path, canon(t, lib))
	}
}

func TestClassifyForceInclude(t *testing.T) {
	dir := t.TempDir()
	lib := writeFile(t, filepath.Join(dir, "node_modules", "pkglib", "index.d.ts"),
		"export declare function lib(): void;\n")
	extra := writeFile(t, filepath.Join(dir, "node_modules", "pkglib", "extra.d.ts"),
		"export declare const extra: number;\n")
	scoped := writeFile(t, filepath.Join(dir, "node_modules", "@scope", "lib", "index.d.ts"),
		"export declare const s: string;\n")
	importer := writeFile(t, filepath.Join(dir, "main.ts"), "export {};\n")
	s := newSession(t, bundle.Config{
		IncludeExternal: []string{"pkglib", "@scope/lib"},
	})

	if cls := classify(t, s, "pkglib", importer); cls.Class != bundle.ClassResolved || cls.Path != canon(t, lib) {
		t.Fatalf("pkglib: %+v, want resolved %s", cls, canon(t, lib))
	}
	// подпуть наследует вердикт своего пакета
	if cls := classify(t, s, "pkglib/extra", importer); cls.Class != bundle.ClassResolved || cls.Path != canon(t, extra) {
		t.Fatalf("pkglib/extra: %+v, want resolved %s", cls, canon(t, extra))
	}
	if cls := classify(t, s, "@scope/lib", importer); cls.Class != bundle.ClassResolved || cls.Path != canon(t, scoped) {
		t.Fatalf("@scope/lib: %+v, want resolved %s", cls, canon(t, scoped))
	}
	// пакет вне списка остаётся внешним
	writeFile(t, filepath.Join(dir, "node_modules", "other", "index.d.ts"), "export {};\n")
	if cls := classify(t, s, "other", importer); cls.Class != bundle.ClassExternal {
		t.Fatalf("other: %+v, want external", cls)
	}
}

func TestClassifyUnresolved(t *testing.T) {
	dir := t.TempDir()
	importer := writeFile(t, filepath.Join(dir, "main.ts"), "export {};\n")
	s := newSession(t, bundle.Config{})

	if cls := classify(t, s, "./missing", importer); cls.Class != bundle.ClassUnresolved {
		t.Fatalf("relative: %+v, want unresolved", cls)
	}
	if cls := classify(t, s, "ghostpkg", importer); cls.Class != bundle.ClassUnresolved {
		t.Fatalf("bare: %+v, want unresolved", cls)
	}
}

func TestClassifyImporterTsconfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tsconfig.json"),
		"{\n  \"compilerOptions\": {\n    \"baseUrl\": \".\",\n    \"paths\": {\"@lib/*\": [\"lib/*\"]}\n  }\n}\n")
	importer := writeFile(t, filepath.Join(dir, "src", "main.ts"), "export {};\n")
	util := writeFile(t, filepath.Join(dir, "lib", "util.ts"), "export const u = 1;\n")
	s := newSession(t, bundle.Config{})

	cls := classify(t, s, "@lib/util", importer)
	if cls.Class != bundle.ClassResolved {
		t.Fatalf("class = %v, want resolved via discovered tsconfig", cls.Class)
	}
	if cls.Path != canon(t, util) {
		t.Fatalf("path = %q, want %q", cls.Path, canon(t, util))
	}
}
