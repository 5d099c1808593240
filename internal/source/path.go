package source

import (
	"path/filepath"
	"strings"
)

// Canon returns the canonical identity for path: absolute, cleaned,
// slash-separated. Relative paths resolve against the process working
// directory. Every map and sequence in the bundler keys on this form.
func Canon(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(abs), nil
}

// CanonIn resolves path against dir when it is relative and canonicalizes
// the result. dir must already be absolute.
func CanonIn(dir, path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	return filepath.ToSlash(filepath.Clean(path))
}

// Dir returns the directory of a canonical path, itself canonical.
func Dir(path string) string {
	return filepath.ToSlash(filepath.Dir(path))
}

// Within reports whether path lies inside root (or equals it). Both
// arguments must be canonical.
func Within(root, path string) bool {
	if path == root {
		return true
	}
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return strings.HasPrefix(path, root)
}

// AbsolutePath returns an absolute, cleaned version of path.
func AbsolutePath(path string) (string, error) {
	return filepath.Abs(path)
}

// RelativePath rewrites target relative to baseDir. Targets outside baseDir
// fall back to the absolute form so diagnostics never print "../../.." runs.
func RelativePath(target, baseDir string) (string, error) {
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return normalizePath(absTarget), nil
	}
	return normalizePath(rel), nil
}

// BaseName returns the final path element.
func BaseName(path string) string {
	return filepath.Base(path)
}
