package resolve

import (
	"os"
	"path/filepath"
	"strings"

	"dtsbundle/internal/source"
	"dtsbundle/internal/tsconfig"
)

// maxProbeDepth ограничивает цепочки package.json, указывающие на каталоги.
const maxProbeDepth = 8

// tsExts — порядок опробования расширений TypeScript.
var tsExts = []string{".ts", ".tsx", ".d.ts", ".mts", ".d.mts", ".cts", ".d.cts"}

// jsExts опробуются только при allowJs.
var jsExts = []string{".js", ".jsx"}

// jsCounterparts: ESM-спецификаторы пишут .js, на диске лежит TypeScript.
var jsCounterparts = map[string][]string{
	".js":  {".ts", ".tsx", ".d.ts"},
	".jsx": {".tsx", ".d.ts"},
	".mjs": {".mts", ".d.mts"},
	".cjs": {".cts", ".d.cts"},
}

// probePath пробует base как файл, затем как каталог.
func (r *Resolver) probePath(base string, opts *tsconfig.Options, depth int) (Result, bool) {
	if depth > maxProbeDepth {
		return Result{}, false
	}
	if res, ok := r.probeAsFile(base, opts); ok {
		return res, true
	}
	if statDir(base) {
		return r.probeDir(base, opts, depth)
	}
	return Result{}, false
}

// probeAsFile реализует порядок опробования файла: известное расширение
// ограничивает варианты, неизвестное ведёт к добавлению расширений.
func (r *Resolver) probeAsFile(base string, opts *tsconfig.Options) (Result, bool) {
	ext := knownExt(base)

	if counterparts, ok := jsCounterparts[ext]; ok {
		stem := base[:len(base)-len(ext)]
		for _, c := range counterparts {
			if statFile(stem + c) {
				return r.finish(stem + c), true
			}
		}
		if opts.AllowJS && statFile(base) {
			return r.finish(base), true
		}
		return Result{}, false
	}

	if ext == ".json" {
		if opts.ResolveJSONModule && statFile(base) {
			return r.finish(base), true
		}
		return Result{}, false
	}

	if ext != "" {
		// явное TS-расширение, включая формы .d.ts
		if statFile(base) {
			return r.finish(base), true
		}
		return Result{}, false
	}

	// Точное совпадение допускается только при наличии какого-то расширения:
	// файл неизвестного вида разрешается и дальше пропускается трансформой.
	if filepath.Ext(base) != "" && statFile(base) {
		return r.finish(base), true
	}
	for _, e := range tsExts {
		if statFile(base + e) {
			return r.finish(base + e), true
		}
	}
	if opts.AllowJS {
		for _, e := range jsExts {
			if statFile(base + e) {
				return r.finish(base + e), true
			}
		}
	}
	if opts.ResolveJSONModule && statFile(base+".json") {
		return r.finish(base + ".json"), true
	}
	return Result{}, false
}

// probeDir разрешает каталог: types/typings из package.json, затем main
// (через probePath его .js превратится в соседний .d.ts), затем index-файлы.
func (r *Resolver) probeDir(dir string, opts *tsconfig.Options, depth int) (Result, bool) {
	if pkg := r.packageAt(dir); pkg != nil {
		if entry := pkg.typesEntry(); entry != "" {
			if res, ok := r.probePath(source.CanonIn(dir, filepath.FromSlash(entry)), opts, depth+1); ok {
				return res, true
			}
		}
		if pkg.Main != "" {
			if res, ok := r.probePath(source.CanonIn(dir, filepath.FromSlash(pkg.Main)), opts, depth+1); ok {
				return res, true
			}
		}
	}
	return r.probeIndex(dir, opts)
}

func (r *Resolver) probeIndex(dir string, opts *tsconfig.Options) (Result, bool) {
	base := filepath.Join(dir, "index")
	for _, e := range tsExts {
		if statFile(base + e) {
			return r.finish(base + e), true
		}
	}
	if opts.AllowJS {
		for _, e := range jsExts {
			if statFile(base + e) {
				return r.finish(base + e), true
			}
		}
	}
	if opts.ResolveJSONModule && statFile(base+".json") {
		return r.finish(base + ".json"), true
	}
	return Result{}, false
}

// probePackage пробует каталог пакета: без подпути — как каталог,
// с подпутём — обычным порядком файла-затем-каталога.
func (r *Resolver) probePackage(pkgDir, sub string, opts *tsconfig.Options) (Result, bool) {
	if !statDir(pkgDir) {
		return Result{}, false
	}
	if sub == "" {
		return r.probeDir(pkgDir, opts, 0)
	}
	return r.probePath(filepath.Join(pkgDir, filepath.FromSlash(sub)), opts, 0)
}

// knownExt возвращает распознанное расширение base, иначе пустую строку.
// Формы .d.ts проверяются раньше, чем одиночный суффикс.
func knownExt(path string) string {
	for _, e := range []string{".d.ts", ".d.mts", ".d.cts"} {
		if strings.HasSuffix(path, e) {
			return e
		}
	}
	switch e := filepath.Ext(path); e {
	case ".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs", ".json":
		return e
	default:
		return ""
	}
}

func statFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func statDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
