// Package resolve реализует разрешение спецификаторов модулей в файловые
// идентичности: относительные и абсолютные пути с опробованием расширений,
// маппинги paths из tsconfig, baseUrl и bare-спецификаторы через подъём по
// node_modules с фолбэком на @types. Классификатор импортов и программы
// компилятора используют один Resolver, поэтому их ответы совпадают по
// построению.
package resolve

import (
	"fmt"
	"path/filepath"
	"strings"

	"dtsbundle/internal/source"
	"dtsbundle/internal/tsconfig"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	pkgCacheSize = 512
	dirCacheSize = 512
	cfgCacheSize = 64
)

// Result описывает результат разрешения спецификатора.
type Result struct {
	Path     string // канонический абсолютный путь
	External bool   // лежит под node_modules
}

// Resolver кэширует package.json и привязку каталогов к tsconfig.
// Безопасен для последовательного использования в рамках сессии.
type Resolver struct {
	pkgCache *lru.Cache[string, *packageInfo]
	dirCache *lru.Cache[string, *tsconfig.Options]
	cfgCache *lru.Cache[string, *tsconfig.Options]
}

// New создаёт Resolver с пустыми кэшами.
func New() *Resolver {
	pkgCache, err := lru.New[string, *packageInfo](pkgCacheSize)
	if err != nil {
		panic(fmt.Errorf("package cache: %w", err))
	}
	dirCache, err := lru.New[string, *tsconfig.Options](dirCacheSize)
	if err != nil {
		panic(fmt.Errorf("directory cache: %w", err))
	}
	cfgCache, err := lru.New[string, *tsconfig.Options](cfgCacheSize)
	if err != nil {
		panic(fmt.Errorf("config cache: %w", err))
	}
	return &Resolver{
		pkgCache: pkgCache,
		dirCache: dirCache,
		cfgCache: cfgCache,
	}
}

// Resolve разрешает спецификатор относительно каталога импортирующего файла.
// opts может быть nil: тогда действуют значения по умолчанию (без paths,
// без allowJs, без resolveJsonModule).
func (r *Resolver) Resolve(specifier, importerDir string, opts *tsconfig.Options) (Result, bool) {
	if opts == nil {
		opts = noOptions
	}
	if specifier == "" {
		return Result{}, false
	}
	if isRelative(specifier) || filepath.IsAbs(specifier) {
		return r.probePath(source.CanonIn(importerDir, filepath.FromSlash(specifier)), opts, 0)
	}
	if opts.HasPaths() {
		if res, ok := r.resolveMapped(specifier, opts); ok {
			return res, true
		}
	}
	if opts.BaseURL != "" {
		if res, ok := r.probePath(source.CanonIn(opts.BaseURL, filepath.FromSlash(specifier)), opts, 0); ok {
			return res, true
		}
	}
	return r.resolveBare(specifier, importerDir, opts)
}

// ResolveTypes разрешает имя пакета типов: /// <reference types="name" />.
// Сначала @types/<name>, затем одноимённый пакет с собственными типами.
func (r *Resolver) ResolveTypes(name, fromDir string, opts *tsconfig.Options) (Result, bool) {
	if opts == nil {
		opts = noOptions
	}
	pkg, sub := splitPackageSpec(name)
	if pkg == "" {
		return Result{}, false
	}
	return walkNodeModules(fromDir, func(nm string) (Result, bool) {
		if res, ok := r.probePackage(filepath.Join(nm, "@types", typesPackageName(pkg)), sub, opts); ok {
			return res, true
		}
		return r.probePackage(filepath.Join(nm, filepath.FromSlash(pkg)), sub, opts)
	})
}

// resolveBare разрешает bare-спецификатор подъёмом по node_modules.
// TS-файлы пакета и @types имеют приоритет над его JS-артефактами.
func (r *Resolver) resolveBare(spec, fromDir string, opts *tsconfig.Options) (Result, bool) {
	pkg, sub := splitPackageSpec(spec)
	if pkg == "" {
		return Result{}, false
	}
	tsOnly := *opts
	tsOnly.AllowJS = false
	return walkNodeModules(fromDir, func(nm string) (Result, bool) {
		pkgDir := filepath.Join(nm, filepath.FromSlash(pkg))
		if res, ok := r.probePackage(pkgDir, sub, &tsOnly); ok {
			return res, true
		}
		if res, ok := r.probePackage(filepath.Join(nm, "@types", typesPackageName(pkg)), sub, &tsOnly); ok {
			return res, true
		}
		if opts.AllowJS {
			return r.probePackage(pkgDir, sub, opts)
		}
		return Result{}, false
	})
}

// resolveMapped применяет paths из tsconfig: точное совпадение, иначе
// wildcard-паттерн с самым длинным префиксом. Непопавшие подстановки не
// препятствуют дальнейшему разрешению.
func (r *Resolver) resolveMapped(spec string, opts *tsconfig.Options) (Result, bool) {
	pattern, captured, ok := matchPathPattern(spec, opts.Paths)
	if !ok {
		return Result{}, false
	}
	for _, subst := range opts.Paths[pattern] {
		candidate := strings.Replace(subst, "*", captured, 1)
		if res, ok := r.probePath(source.CanonIn(opts.PathsBase, filepath.FromSlash(candidate)), opts, 0); ok {
			return res, true
		}
	}
	return Result{}, false
}

func matchPathPattern(spec string, paths map[string][]string) (pattern, captured string, ok bool) {
	if _, exact := paths[spec]; exact {
		return spec, "", true
	}
	bestLen := -1
	for p := range paths {
		star := strings.IndexByte(p, '*')
		if star < 0 {
			continue
		}
		prefix, suffix := p[:star], p[star+1:]
		if len(spec) < len(prefix)+len(suffix) {
			continue
		}
		if !strings.HasPrefix(spec, prefix) || !strings.HasSuffix(spec, suffix) {
			continue
		}
		// при равных префиксах выбор детерминирован лексикографически
		if len(prefix) > bestLen || (len(prefix) == bestLen && p < pattern) {
			bestLen = len(prefix)
			pattern = p
			captured = spec[len(prefix) : len(spec)-len(suffix)]
		}
	}
	return pattern, captured, bestLen >= 0
}

func walkNodeModules(fromDir string, probe func(nmDir string) (Result, bool)) (Result, bool) {
	dir := fromDir
	for {
		if res, ok := probe(filepath.Join(dir, "node_modules")); ok {
			return res, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Result{}, false
		}
		dir = parent
	}
}

func isRelative(spec string) bool {
	return spec == "." || spec == ".." ||
		strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// splitPackageSpec делит bare-спецификатор на имя пакета и подпуть.
// Скоуп-пакеты занимают два сегмента.
func splitPackageSpec(spec string) (pkg, sub string) {
	if spec == "" || spec[0] == '.' || filepath.IsAbs(spec) {
		return "", ""
	}
	parts := strings.SplitN(spec, "/", 3)
	if spec[0] == '@' {
		if len(parts) < 2 {
			return "", ""
		}
		pkg = parts[0] + "/" + parts[1]
		if len(parts) == 3 {
			sub = parts[2]
		}
		return pkg, sub
	}
	pkg = parts[0]
	if len(parts) > 1 {
		sub = strings.Join(parts[1:], "/")
	}
	return pkg, sub
}

// typesPackageName переводит имя пакета в имя внутри @types:
// @scope/name -> scope__name.
func typesPackageName(pkg string) string {
	if strings.HasPrefix(pkg, "@") {
		return strings.Replace(strings.TrimPrefix(pkg, "@"), "/", "__", 1)
	}
	return pkg
}

// IsExternal сообщает, лежит ли путь внутри node_modules.
func IsExternal(path string) bool {
	return strings.Contains(filepath.ToSlash(path), "/node_modules/")
}

func (r *Resolver) finish(path string) Result {
	canon := filepath.ToSlash(path)
	return Result{Path: canon, External: IsExternal(canon)}
}
