package source

import "strings"

// FileKind classifies an input file by its path suffix. The set is closed:
// every path maps to exactly one kind and KindUnknown is a first-class
// answer, not an error.
type FileKind uint8

const (
	// KindUnknown covers extensions the bundler does not process (.css, .svg, ...).
	KindUnknown FileKind = iota
	// KindDecl is a declaration file (.d.ts, .d.mts, .d.cts).
	KindDecl
	// KindSource is a compilable source file (.ts, .tsx, .mts, .cts and the JS family).
	KindSource
	// KindJSON is a JSON module (.json).
	KindJSON
)

func (k FileKind) String() string {
	switch k {
	case KindDecl:
		return "decl"
	case KindSource:
		return "source"
	case KindJSON:
		return "json"
	}
	return "unknown"
}

// Declaration suffixes win over plain source suffixes: "x.d.ts" ends with
// ".ts" too, so the order of checks below matters.
var declSuffixes = [...]string{".d.ts", ".d.mts", ".d.cts"}

var sourceSuffixes = [...]string{".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"}

// KindOf classifies path purely lexically, without touching the disk.
func KindOf(path string) FileKind {
	switch {
	case IsDeclarationPath(path):
		return KindDecl
	case strings.HasSuffix(path, ".json"):
		return KindJSON
	}
	for _, suffix := range sourceSuffixes {
		if strings.HasSuffix(path, suffix) {
			return KindSource
		}
	}
	return KindUnknown
}

// IsDeclarationPath reports whether path names a declaration file.
func IsDeclarationPath(path string) bool {
	for _, suffix := range declSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// derivedDeclExt maps a source extension to its declaration counterpart.
var derivedDeclExt = map[string]string{
	".ts":  ".d.ts",
	".tsx": ".d.ts",
	".js":  ".d.ts",
	".jsx": ".d.ts",
	".mts": ".d.mts",
	".mjs": ".d.mts",
	".cts": ".d.cts",
	".cjs": ".d.cts",
}

// DeclarationPath returns the identity a file's declaration output is keyed
// by. Declaration files map to themselves. JSON modules get ".d.ts" appended
// (never substituted) so "data.json" and a sibling "data.ts" cannot collide
// on "data.d.ts". Unknown kinds map to themselves.
func DeclarationPath(path string) string {
	if IsDeclarationPath(path) {
		return path
	}
	if strings.HasSuffix(path, ".json") {
		return path + ".d.ts"
	}
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 {
		return path
	}
	if declExt, ok := derivedDeclExt[path[dot:]]; ok {
		return path[:dot] + declExt
	}
	return path
}
