package source

import "testing"

func TestKindOf(t *testing.T) {
	cases := []struct {
		path string
		kind FileKind
	}{
		{"/p/a.ts", KindSource},
		{"/p/a.tsx", KindSource},
		{"/p/a.mts", KindSource},
		{"/p/a.cts", KindSource},
		{"/p/a.js", KindSource},
		{"/p/a.jsx", KindSource},
		{"/p/a.mjs", KindSource},
		{"/p/a.cjs", KindSource},
		{"/p/a.d.ts", KindDecl},
		{"/p/a.d.mts", KindDecl},
		{"/p/a.d.cts", KindDecl},
		{"/p/a.json", KindJSON},
		{"/p/a.css", KindUnknown},
		{"/p/a.svg", KindUnknown},
		{"/p/Makefile", KindUnknown},
		// суффикс .d.ts должен побеждать .ts
		{"/p/weird.d.ts", KindDecl},
	}
	for _, tc := range cases {
		if got := KindOf(tc.path); got != tc.kind {
			t.Errorf("KindOf(%q) = %v, want %v", tc.path, got, tc.kind)
		}
	}
}

func TestDeclarationPath(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/p/a.ts", "/p/a.d.ts"},
		{"/p/a.tsx", "/p/a.d.ts"},
		{"/p/a.mts", "/p/a.d.mts"},
		{"/p/a.cts", "/p/a.d.cts"},
		{"/p/a.js", "/p/a.d.ts"},
		{"/p/a.jsx", "/p/a.d.ts"},
		{"/p/a.mjs", "/p/a.d.mts"},
		{"/p/a.cjs", "/p/a.d.cts"},
		// declaration files map to themselves
		{"/p/a.d.ts", "/p/a.d.ts"},
		{"/p/a.d.mts", "/p/a.d.mts"},
		// JSON appends, never substitutes
		{"/p/data.json", "/p/data.json.d.ts"},
		// unknown kinds map to themselves
		{"/p/logo.svg", "/p/logo.svg"},
	}
	for _, tc := range cases {
		if got := DeclarationPath(tc.path); got != tc.want {
			t.Errorf("DeclarationPath(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestDerivedIdentityAvoidsJSONCollision(t *testing.T) {
	// data.json и data.ts не должны давать одинаковый derived путь.
	fromJSON := DeclarationPath("/p/data.json")
	fromTS := DeclarationPath("/p/data.ts")
	if fromJSON == fromTS {
		t.Fatalf("derived identities collide: %q", fromJSON)
	}
}
