// Package render собирает итоговый бандл из декларационных чанков: это
// граница «внешнего трансформа слияния» из описания системы. Рендер не
// делает межфайлового анализа символов и никого не переименовывает —
// он упорядочивает чанки (зависимости раньше импортёров, порядок задаёт
// конвейер), вырезает операторы импорта, чьи спецификаторы разрешились
// внутрь бандла, и поднимает внешние импорты наверх без дублей.
package render

import (
	"strings"

	"dtsbundle/internal/scan"
	"dtsbundle/internal/source"
)

// Chunk — декларационный текст одного файла под его выходной
// идентичностью.
type Chunk struct {
	ID   string
	Code string
}

// Decision — судьба одного оператора импорта в чанке.
type Decision uint8

const (
	// Keep оставляет оператор на месте.
	Keep Decision = iota
	// Prune вырезает оператор: его спецификатор разрешился в чанк
	// этого же бандла.
	Prune
	// Hoist вырезает оператор из чанка и поднимает его в шапку
	// бандла (внешние импорты, reference types).
	Hoist
)

// Classifier решает судьбу директивы в чанке. nil-классификатор
// оставляет все операторы на месте.
type Classifier func(chunkID string, d scan.Directive) Decision

// Options настраивают сборку бандла.
type Options struct {
	// BaseDir — база относительных путей в баннерах чанков.
	BaseDir string
	// Classify решает prune/hoist по директивам. Рендер применяет
	// вердикт только к операторам уровня файла: статический импорт,
	// side-effect импорт, export-from и triple-slash reference.
	// Динамический import(...) — часть типового выражения, его трогать
	// нельзя.
	Classify Classifier
}

// Bundle склеивает чанки в итоговый текст бандла. Порядок чанков —
// порядок вызывающей стороны; чанки, опустевшие после вырезания
// импортов, пропускаются вместе с баннерами.
func Bundle(chunks []Chunk, opts Options) string {
	fset := source.NewFileSet()

	var refs, imports block
	var body strings.Builder

	for _, chunk := range chunks {
		f := fset.Get(fset.AddVirtual(chunk.ID, []byte(chunk.Code)))
		text := rewriteChunk(f, chunk.ID, opts.Classify, &refs, &imports)
		if strings.TrimSpace(text) == "" {
			continue
		}
		body.WriteString("// from ")
		body.WriteString(banner(chunk.ID, opts.BaseDir))
		body.WriteByte('\n')
		body.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			body.WriteByte('\n')
		}
		body.WriteByte('\n')
	}

	var out strings.Builder
	refs.writeTo(&out)
	imports.writeTo(&out)
	if out.Len() > 0 && body.Len() > 0 {
		out.WriteByte('\n')
	}
	out.WriteString(body.String())
	return collapseBlankRuns(out.String())
}

// rewriteChunk вырезает Prune/Hoist-операторы из текста чанка и
// складывает поднятые в соответствующие блоки шапки.
func rewriteChunk(f *source.File, id string, classify Classifier, refs, imports *block) string {
	src := f.Content
	if classify == nil {
		return string(src)
	}

	var out strings.Builder
	last := 0
	for _, d := range scan.File(f) {
		if !statementLevel(d.Kind) {
			continue
		}
		verdict := classify(id, d)
		if verdict == Keep {
			continue
		}
		start, end := int(d.Stmt.Start), int(d.Stmt.End)
		if start < last {
			continue
		}
		out.Write(src[last:start])
		last = skipLineBreak(src, end)
		if verdict == Hoist {
			stmt := strings.TrimSpace(string(src[start:end]))
			if d.Kind == scan.KindRefPath || d.Kind == scan.KindRefTypes {
				refs.add(stmt)
			} else {
				imports.add(stmt)
			}
		}
	}
	out.Write(src[last:])
	return out.String()
}

func statementLevel(k scan.Kind) bool {
	switch k {
	case scan.KindStatic, scan.KindSideEffect, scan.KindExportFrom,
		scan.KindRefPath, scan.KindRefTypes:
		return true
	}
	return false
}

// block копит поднятые операторы в порядке первого появления, без
// дублей по точному тексту.
type block struct {
	seen  map[string]bool
	lines []string
}

func (b *block) add(stmt string) {
	if b.seen == nil {
		b.seen = make(map[string]bool)
	}
	if b.seen[stmt] {
		return
	}
	b.seen[stmt] = true
	b.lines = append(b.lines, stmt)
}

func (b *block) writeTo(out *strings.Builder) {
	for _, line := range b.lines {
		out.WriteString(line)
		out.WriteByte('\n')
	}
}

// banner возвращает путь чанка для баннера: относительный к baseDir,
// когда чанк лежит внутри него.
func banner(id, baseDir string) string {
	if baseDir == "" {
		return id
	}
	rel, err := source.RelativePath(id, baseDir)
	if err != nil {
		return id
	}
	return rel
}

// skipLineBreak съедает перевод строки сразу после вырезанного
// оператора, чтобы не плодить пустые строки.
func skipLineBreak(src []byte, i int) int {
	if i < len(src) && src[i] == '\n' {
		return i + 1
	}
	return i
}

// collapseBlankRuns схлопывает прогоны из трёх и более переводов строки
// до одной пустой строки и гарантирует завершающий перевод строки.
func collapseBlankRuns(text string) string {
	if text == "" {
		return text
	}
	var out strings.Builder
	out.Grow(len(text))
	newlines := 0
	for i := 0; i < len(text); i++ {
		b := text[i]
		if b == '\n' {
			newlines++
			if newlines <= 2 {
				out.WriteByte(b)
			}
			continue
		}
		newlines = 0
		out.WriteByte(b)
	}
	result := strings.TrimLeft(out.String(), "\n")
	result = strings.TrimRight(result, "\n") + "\n"
	return result
}
