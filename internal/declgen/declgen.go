// Package declgen синтезирует текст деклараций (.d.ts) из исходников
// TypeScript и JSON-модулей без тайпчекера.
//
// Генератор работает на уровне операторов: файл режется на верхнеуровневые
// стейтменты, декларативные формы (import/export, interface, type, declare)
// проходят как есть, у функций, классов и переменных срезаются тела и
// инициализаторы. Там, где без вывода типов не обойтись (нет аннотации
// возврата, параметра или переменной), выписывается блокирующая диагностика
// вместо угадывания.
package declgen

import (
	"fmt"
	"strings"

	"dtsbundle/internal/diag"
	"dtsbundle/internal/source"

	"fortio.org/safecast"
)

const indentUnit = "    "

type generator struct {
	file *source.File
	src  []byte
	n    int
	rep  diag.Reporter
}

// Source синтезирует декларацию для исходного файла. Диагностики уходят в r;
// записи уровня error означают, что вывод неполон и публиковать его нельзя.
func Source(f *source.File, r diag.Reporter) string {
	if _, err := safecast.Conv[uint32](len(f.Content)); err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	g := &generator{file: f, src: f.Content, n: len(f.Content), rep: r}
	var out strings.Builder
	g.block(&out, 0, g.n, false, 0)
	return out.String()
}

// block обходит операторы диапазона [start, limit) и эмитит их декларационные
// формы. ambient=true внутри declare-контекста (тело namespace), где повторный
// declare запрещён синтаксисом.
func (g *generator) block(out *strings.Builder, start, limit int, ambient bool, indent int) {
	// имена функций, у которых уже встречалась сигнатура-перегрузка:
	// их реализацию в декларацию не выписываем
	overloads := make(map[string]bool)
	i := start
	for i < limit {
		st, next := g.nextStatement(i, limit)
		if st == nil {
			break
		}
		g.emitStatement(out, st, ambient, indent, overloads)
		i = next
	}
}

func (g *generator) emitStatement(out *strings.Builder, st *statement, ambient bool, indent int, overloads map[string]bool) {
	h := &st.head
	switch {
	case h.kw == "///":
		g.writeText(out, st.start, st.end, indent)
	case h.kw == "import", h.kw == "export-list", h.kw == "=", h.kw == "export-as-namespace":
		g.writeVerbatim(out, st, indent)
	case h.declared:
		// уже ambient-форма, переписывать нечего
		g.writeVerbatim(out, st, indent)
	case h.kw == "interface", h.kw == "type":
		g.writeVerbatim(out, st, indent)
	case h.kw == "function":
		g.function(out, st, ambient, indent, overloads)
	case h.kw == "const", h.kw == "let", h.kw == "var":
		g.variables(out, st, ambient, indent)
	case h.kw == "class":
		g.class(out, st, ambient, indent)
	case h.kw == "enum":
		g.enum(out, st, ambient, indent)
	case h.kw == "namespace", h.kw == "module":
		g.namespace(out, st, ambient, indent)
	case h.kw == "" && h.isDefault:
		g.defaultExport(out, st, indent)
	default:
		// выражения и управляющие конструкции в декларацию не попадают
	}
}

// defaultExport пропускает только именованные ссылки: export default Foo
// или export default Foo.Bar. Для произвольного выражения понадобился бы
// вывод типа.
func (g *generator) defaultExport(out *strings.Builder, st *statement, indent int) {
	exprStart := g.skipTrivia(st.head.afterKw)
	expr := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(string(g.src[exprStart:st.end])), ";"))
	if !isEntityName(expr) {
		g.report(diag.GenUnsupportedDefaultExport, exprStart, st.end,
			"default export expression cannot be declared; export a named reference or add a type annotation")
		return
	}
	g.writeVerbatim(out, st, indent)
}

// isEntityName принимает идентификатор или цепочку через точку: Foo, Foo.Bar.
func isEntityName(s string) bool {
	if s == "" {
		return false
	}
	prevDot := true
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b == '.' {
			if prevDot {
				return false
			}
			prevDot = true
			continue
		}
		if !isIdentByte(b) || (prevDot && b >= '0' && b <= '9') {
			return false
		}
		prevDot = false
	}
	return !prevDot
}

func (g *generator) report(code diag.Code, start, end int, msg string) {
	diag.ReportError(g.rep, code, g.span(start, end), msg).Emit()
}

// span строит Span по байтовым границам; длина контента проверена в Source.
func (g *generator) span(start, end int) source.Span {
	return source.Span{File: g.file.ID, Start: uint32(start), End: uint32(end)}
}

func (g *generator) writeIndent(out *strings.Builder, indent int) {
	for k := 0; k < indent; k++ {
		out.WriteString(indentUnit)
	}
}

// writeDoc выписывает прикреплённый /** */ комментарий, если он есть.
func (g *generator) writeDoc(out *strings.Builder, st *statement, indent int) {
	if st.docEnd > st.docStart {
		g.writeText(out, st.docStart, st.docEnd, indent)
	}
}

func (g *generator) writeVerbatim(out *strings.Builder, st *statement, indent int) {
	g.writeDoc(out, st, indent)
	g.writeText(out, st.start, st.end, indent)
}

// writeText переносит фрагмент исходника, выравнивая его строки по текущему
// отступу: собственный отступ первой строки снимается со всех последующих.
func (g *generator) writeText(out *strings.Builder, start, end, indent int) {
	text := strings.TrimRight(string(g.src[start:end]), " \t\n")
	col := g.columnOf(start)
	for idx, line := range strings.Split(text, "\n") {
		if idx > 0 {
			line = dedentBy(line, col)
		}
		line = strings.TrimRight(line, " \t")
		if line != "" {
			g.writeIndent(out, indent)
			out.WriteString(line)
		}
		out.WriteByte('\n')
	}
}

// columnOf возвращает число байтов отступа между началом строки и позицией i.
func (g *generator) columnOf(i int) int {
	start := i
	for start > 0 && g.src[start-1] != '\n' {
		start--
	}
	col := 0
	for j := start; j < i && (g.src[j] == ' ' || g.src[j] == '\t'); j++ {
		col++
	}
	return col
}

func dedentBy(line string, col int) string {
	k := 0
	for k < len(line) && k < col && (line[k] == ' ' || line[k] == '\t') {
		k++
	}
	return line[k:]
}
