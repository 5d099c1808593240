// Package tsconfig загружает tsconfig.json: поиск вверх по дереву каталогов,
// терпимый к JSONC разбор, слияние цепочки extends и подмножество опций
// компилятора, которое влияет на разрешение модулей.
package tsconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"dtsbundle/internal/source"
)

// FileName — имя файла конфигурации, которое ищется вверх по дереву.
const FileName = "tsconfig.json"

// maxExtendsDepth ограничивает цепочку extends.
const maxExtendsDepth = 16

var (
	// ErrExtendsDepth indicates the extends chain exceeds maxExtendsDepth.
	ErrExtendsDepth = errors.New("tsconfig extends chain too deep")
	// ErrExtendsCycle indicates the extends chain revisits a config file.
	ErrExtendsCycle = errors.New("tsconfig extends cycle")
	// ErrExtendsNotFound indicates an extends target cannot be located.
	ErrExtendsNotFound = errors.New("tsconfig extends target not found")
)

// Options is the compiler-option subset the bundler honors during module
// resolution. Пути уже приведены к абсолютным.
type Options struct {
	BaseURL           string              // пусто = не задан
	Paths             map[string][]string // паттерн -> подстановки
	PathsBase         string              // каталог, от которого считаются подстановки
	RootDirs          []string            // разбираются, но разрешением не используются
	AllowJS           bool
	ResolveJSONModule bool
}

// HasPaths reports whether path mappings are configured.
func (o *Options) HasPaths() bool {
	return len(o.Paths) > 0 && o.PathsBase != ""
}

// Config is a parsed tsconfig with its resolved options.
type Config struct {
	Path    string // абсолютный путь к загруженному tsconfig.json
	Options Options
}

// rawConfig покрывает только интересующие поля; указатели отличают
// «не задано» от нулевого значения при слиянии extends.
type rawConfig struct {
	Extends         string             `json:"extends"`
	CompilerOptions rawCompilerOptions `json:"compilerOptions"`
}

type rawCompilerOptions struct {
	BaseURL           *string             `json:"baseUrl"`
	Paths             map[string][]string `json:"paths"`
	RootDirs          []string            `json:"rootDirs"`
	AllowJS           *bool               `json:"allowJs"`
	ResolveJSONModule *bool               `json:"resolveJsonModule"`
}

// Find walks up from startDir to locate tsconfig.json.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load читает tsconfig по пути и сливает всю цепочку extends:
// сперва базовые слои, затем поверх — собственные опции файла.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	var opts Options
	visited := make(map[string]bool)
	if err := loadInto(&opts, abs, visited, 0); err != nil {
		return nil, err
	}
	return &Config{Path: filepath.ToSlash(abs), Options: opts}, nil
}

// LoadForDir находит tsconfig, управляющий каталогом dir, и загружает его.
// ok=false означает, что конфигурации нет ни в dir, ни выше.
func LoadForDir(dir string) (*Config, bool, error) {
	path, ok, err := Find(dir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return cfg, true, nil
}

func loadInto(dst *Options, path string, visited map[string]bool, depth int) error {
	if depth > maxExtendsDepth {
		return fmt.Errorf("%s: %w", path, ErrExtendsDepth)
	}
	// path здесь всегда абсолютный и очищенный
	key := filepath.ToSlash(path)
	if visited[key] {
		return fmt.Errorf("%s: %w", path, ErrExtendsCycle)
	}
	visited[key] = true

	// #nosec G304 -- путь приходит из поиска конфигурации
	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	var raw rawConfig
	if err := json.Unmarshal(stripJSONC(rawBytes), &raw); err != nil {
		return fmt.Errorf("%s: failed to parse JSON: %w", path, err)
	}

	dir := filepath.Dir(path)
	if raw.Extends != "" {
		base, err := resolveExtends(dir, raw.Extends)
		if err != nil {
			return fmt.Errorf("%s: extends %q: %w", path, raw.Extends, err)
		}
		if err := loadInto(dst, base, visited, depth+1); err != nil {
			return err
		}
	}

	mergeLayer(dst, dir, raw.CompilerOptions)
	return nil
}

// mergeLayer накладывает опции одного файла поверх уже слитых. Пути
// каждого слоя считаются от каталога его собственного файла.
func mergeLayer(dst *Options, dir string, raw rawCompilerOptions) {
	if raw.BaseURL != nil {
		dst.BaseURL = source.CanonIn(dir, *raw.BaseURL)
	}
	if raw.Paths != nil {
		dst.Paths = raw.Paths
		if dst.BaseURL != "" {
			dst.PathsBase = dst.BaseURL
		} else {
			// paths без baseUrl считаются от каталога задавшего их файла
			dst.PathsBase = filepath.ToSlash(dir)
		}
	}
	if raw.RootDirs != nil {
		dirs := make([]string, 0, len(raw.RootDirs))
		for _, d := range raw.RootDirs {
			dirs = append(dirs, source.CanonIn(dir, d))
		}
		dst.RootDirs = dirs
	}
	if raw.AllowJS != nil {
		dst.AllowJS = *raw.AllowJS
	}
	if raw.ResolveJSONModule != nil {
		dst.ResolveJSONModule = *raw.ResolveJSONModule
	}
}

// resolveExtends находит цель extends: относительный или абсолютный путь,
// иначе пакет в node_modules вверх по дереву. Суффикс .json и форма
// «каталог с tsconfig.json» допускаются, как в tsc.
func resolveExtends(fromDir, spec string) (string, error) {
	isRelative := len(spec) > 0 && spec[0] == '.'
	if isRelative || filepath.IsAbs(spec) {
		candidate := spec
		if isRelative {
			candidate = filepath.Join(fromDir, spec)
		}
		if found, ok := probeExtends(candidate); ok {
			return found, nil
		}
		return "", ErrExtendsNotFound
	}

	dir := fromDir
	for {
		candidate := filepath.Join(dir, "node_modules", filepath.FromSlash(spec))
		if found, ok := probeExtends(candidate); ok {
			return found, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", ErrExtendsNotFound
}

func probeExtends(candidate string) (string, bool) {
	if info, err := os.Stat(candidate); err == nil {
		if !info.IsDir() {
			return candidate, true
		}
		nested := filepath.Join(candidate, FileName)
		if info, err := os.Stat(nested); err == nil && !info.IsDir() {
			return nested, true
		}
		return "", false
	}
	if filepath.Ext(candidate) != ".json" {
		withExt := candidate + ".json"
		if info, err := os.Stat(withExt); err == nil && !info.IsDir() {
			return withExt, true
		}
	}
	return "", false
}
