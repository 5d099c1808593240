package tsconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dtsbundle/internal/tsconfig"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tsconfig.json"), `{}`)
	deep := filepath.Join(root, "src", "components", "nested")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	path, ok, err := tsconfig.Find(deep)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !ok {
		t.Fatal("expected tsconfig.json to be found")
	}
	if path != filepath.Join(root, "tsconfig.json") {
		t.Errorf("found %q, want config at root", path)
	}
}

func TestFindMissing(t *testing.T) {
	// корень пустой: ожидаем спокойное «не найдено» вплоть до /
	dir := t.TempDir()
	_, ok, err := tsconfig.Find(dir)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if ok {
		t.Skip("tsconfig.json present above the temp dir")
	}
}

func TestLoadBasic(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, "tsconfig.json")
	writeFile(t, cfgPath, `{
    // разрешаем js и json
    "compilerOptions": {
        "baseUrl": "./src",
        "paths": {
            "@app/*": ["app/*"],
            "shared": ["shared/index.ts"],
        },
        "allowJs": true,
        "resolveJsonModule": true,
    },
}`)

	cfg, err := tsconfig.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	wantBase := filepath.ToSlash(filepath.Join(root, "src"))
	if cfg.Options.BaseURL != wantBase {
		t.Errorf("BaseURL = %q, want %q", cfg.Options.BaseURL, wantBase)
	}
	if cfg.Options.PathsBase != wantBase {
		t.Errorf("PathsBase = %q, want %q", cfg.Options.PathsBase, wantBase)
	}
	if !cfg.Options.AllowJS || !cfg.Options.ResolveJSONModule {
		t.Error("allowJs and resolveJsonModule must be true")
	}
	if got := cfg.Options.Paths["@app/*"]; len(got) != 1 || got[0] != "app/*" {
		t.Errorf("paths[@app/*] = %v", got)
	}
}

func TestLoadPathsWithoutBaseURL(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, "tsconfig.json")
	writeFile(t, cfgPath, `{
    "compilerOptions": {
        "paths": { "#internal/*": ["./lib/*"] }
    }
}`)

	cfg, err := tsconfig.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Options.BaseURL != "" {
		t.Errorf("BaseURL = %q, want empty", cfg.Options.BaseURL)
	}
	// без baseUrl подстановки считаются от каталога конфига
	if cfg.Options.PathsBase != filepath.ToSlash(root) {
		t.Errorf("PathsBase = %q, want %q", cfg.Options.PathsBase, filepath.ToSlash(root))
	}
}

func TestLoadExtendsChain(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tsconfig.base.json"), `{
    "compilerOptions": {
        "baseUrl": ".",
        "allowJs": true,
        "paths": { "base/*": ["from-base/*"] }
    }
}`)
	childPath := filepath.Join(root, "pkg", "tsconfig.json")
	writeFile(t, childPath, `{
    "extends": "../tsconfig.base.json",
    "compilerOptions": {
        "paths": { "child/*": ["from-child/*"] }
    }
}`)

	cfg, err := tsconfig.Load(childPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// baseUrl наследуется от базы и считается от её каталога
	wantBase := filepath.ToSlash(root)
	if cfg.Options.BaseURL != wantBase {
		t.Errorf("BaseURL = %q, want %q", cfg.Options.BaseURL, wantBase)
	}
	if !cfg.Options.AllowJS {
		t.Error("allowJs must be inherited")
	}
	// paths заменяются целиком, не сливаются
	if _, ok := cfg.Options.Paths["base/*"]; ok {
		t.Error("child paths must replace base paths entirely")
	}
	if _, ok := cfg.Options.Paths["child/*"]; !ok {
		t.Error("child paths missing")
	}
	if cfg.Options.PathsBase != wantBase {
		t.Errorf("PathsBase = %q, want inherited baseUrl %q", cfg.Options.PathsBase, wantBase)
	}
}

func TestLoadExtendsWithoutExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "base.json"), `{
    "compilerOptions": { "allowJs": true }
}`)
	cfgPath := filepath.Join(root, "tsconfig.json")
	writeFile(t, cfgPath, `{ "extends": "./base" }`)

	cfg, err := tsconfig.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Options.AllowJS {
		t.Error("allowJs must come from ./base.json")
	}
}

func TestLoadExtendsPackage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "node_modules", "@tsconfig", "strict", "tsconfig.json"), `{
    "compilerOptions": { "resolveJsonModule": true }
}`)
	cfgPath := filepath.Join(root, "app", "tsconfig.json")
	writeFile(t, cfgPath, `{ "extends": "@tsconfig/strict/tsconfig.json" }`)

	cfg, err := tsconfig.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Options.ResolveJSONModule {
		t.Error("resolveJsonModule must come from the extended package")
	}
}

func TestLoadExtendsCycle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.json"), `{ "extends": "./b.json" }`)
	writeFile(t, filepath.Join(root, "b.json"), `{ "extends": "./a.json" }`)

	_, err := tsconfig.Load(filepath.Join(root, "a.json"))
	if !errors.Is(err, tsconfig.ErrExtendsCycle) {
		t.Fatalf("expected ErrExtendsCycle, got %v", err)
	}
}

func TestLoadExtendsMissing(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, "tsconfig.json")
	writeFile(t, cfgPath, `{ "extends": "./nope.json" }`)

	_, err := tsconfig.Load(cfgPath)
	if !errors.Is(err, tsconfig.ErrExtendsNotFound) {
		t.Fatalf("expected ErrExtendsNotFound, got %v", err)
	}
}

func TestLoadMalformed(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, "tsconfig.json")
	writeFile(t, cfgPath, `{ "compilerOptions": { "baseUrl": [ } }`)

	_, err := tsconfig.Load(cfgPath)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if !strings.Contains(err.Error(), "tsconfig.json") {
		t.Errorf("error must name the file: %v", err)
	}
}

func TestLoadRootDirsParsed(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, "tsconfig.json")
	writeFile(t, cfgPath, `{
    "compilerOptions": { "rootDirs": ["./src", "./generated"] }
}`)

	cfg, err := tsconfig.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Options.RootDirs) != 2 {
		t.Fatalf("RootDirs = %v", cfg.Options.RootDirs)
	}
	if cfg.Options.RootDirs[0] != filepath.ToSlash(filepath.Join(root, "src")) {
		t.Errorf("RootDirs[0] = %q", cfg.Options.RootDirs[0])
	}
}
