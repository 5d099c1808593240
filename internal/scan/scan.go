// Package scan реализует однопроходный байтовый сканер TypeScript/JavaScript,
// извлекающий директивы модулей: import, export-from, require и triple-slash
// reference. Сканер не строит AST: ему нужны только спецификаторы и их спаны,
// чтобы классификатор мог разрешить зависимости, а рендер мог вырезать
// внутренние операторы импорта из готового текста.
package scan

import (
	"fmt"

	"dtsbundle/internal/source"

	"fortio.org/safecast"
)

// Kind определяет синтаксическую форму, в которой встретился спецификатор.
type Kind uint8

const (
	KindStatic     Kind = iota + 1 // import ... from "x"
	KindSideEffect                 // import "x"
	KindExportFrom                 // export ... from "x"
	KindDynamic                    // import("x")
	KindRequire                    // require("x") и import x = require("x")
	KindRefPath                    // /// <reference path="x" />
	KindRefTypes                   // /// <reference types="x" />
)

func (k Kind) String() string {
	switch k {
	case KindStatic:
		return "import"
	case KindSideEffect:
		return "side-effect"
	case KindExportFrom:
		return "export-from"
	case KindDynamic:
		return "dynamic"
	case KindRequire:
		return "require"
	case KindRefPath:
		return "reference-path"
	case KindRefTypes:
		return "reference-types"
	default:
		return "unknown"
	}
}

// Directive is a single module reference found in a file.
type Directive struct {
	Specifier string // текст спецификатора без кавычек
	Kind      Kind
	TypeOnly  bool        // import type / export type / все имена в скобках с type
	Spec      source.Span // спан строкового литерала, без кавычек
	Stmt      source.Span // спан всего оператора, включая завершающий ';'
}

type scanner struct {
	file *source.File
	src  []byte
	n    int
	out  []Directive
}

// File сканирует содержимое файла и возвращает директивы в порядке появления.
// Контент уже нормализован FileSet-ом (BOM снят, CRLF приведён к LF).
func File(f *source.File) []Directive {
	if _, err := safecast.Conv[uint32](len(f.Content)); err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	s := &scanner{
		file: f,
		src:  f.Content,
		n:    len(f.Content),
		out:  make([]Directive, 0, 16),
	}
	s.run()
	return s.out
}

// span строит Span по байтовым границам. Длина контента проверена в File,
// поэтому прямое сужение безопасно.
func (s *scanner) span(start, end int) source.Span {
	return source.Span{File: s.file.ID, Start: uint32(start), End: uint32(end)}
}

func (s *scanner) emit(d Directive) {
	s.out = append(s.out, d)
}

// run — главный цикл. На глубине 0 распознаются все формы директив; внутри
// фигурных скобок статический import/export невозможен, поэтому там работает
// узкий путь: только import(...) и require(...).
func (s *scanner) run() {
	src, n := s.src, s.n
	i := 0
	depth := 0

	for i < n {
		if depth > 0 {
			switch b := src[i]; b {
			case '{':
				depth++
				i++
			case '}':
				depth--
				i++
			case '\'', '"', '`':
				i = skipString(src, i, b)
			case '/':
				switch {
				case i+1 < n && src[i+1] == '/':
					i = skipLineComment(src, i)
				case i+1 < n && src[i+1] == '*':
					i = skipBlockComment(src, i)
				default:
					i++
				}
			case 'i':
				if hasIsolatedWordAt(src, i, "import") {
					if next, ok := s.parseCallForm(i, len("import"), KindDynamic); ok {
						i = next
						continue
					}
				}
				i++
			case 'r':
				if hasIsolatedWordAt(src, i, "require") {
					if next, ok := s.parseCallForm(i, len("require"), KindRequire); ok {
						i = next
						continue
					}
				}
				i++
			default:
				i++
			}
			continue
		}

		// Глубина 0: полное распознавание операторов.
		i = skipSpaces(src, i)
		if i >= n {
			break
		}

		switch src[i] {
		case '\'', '"', '`':
			i = skipString(src, i, src[i])
			continue
		case '/':
			if i+1 < n && src[i+1] == '/' {
				if next, ok := s.parseReference(i); ok {
					i = next
					continue
				}
				i = skipLineComment(src, i)
				continue
			}
			if i+1 < n && src[i+1] == '*' {
				i = skipBlockComment(src, i)
				continue
			}
		case 'd':
			if next, ok := s.skipDeclareBlock(i); ok {
				i = next
				continue
			}
		case 'i':
			if next, ok := s.parseImport(i); ok {
				i = next
				continue
			}
		case 'e':
			if next, ok := s.parseExport(i); ok {
				i = next
				continue
			}
		case 'r':
			if hasIsolatedWordAt(src, i, "require") {
				if next, ok := s.parseCallForm(i, len("require"), KindRequire); ok {
					i = next
					continue
				}
			}
		}

		if src[i] == '{' {
			depth++
		}
		i++
	}
}
