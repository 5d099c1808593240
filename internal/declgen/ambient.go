package declgen

import "strings"

// enum сохраняет тело как есть: значения членов — константные выражения,
// допустимые в ambient-форме.
func (g *generator) enum(out *strings.Builder, st *statement, ambient bool, indent int) {
	h := &st.head
	i := g.skipTrivia(h.afterKw)
	nameStart := i
	for i < g.n && isIdentByte(g.src[i]) {
		i++
	}
	name := string(g.src[nameStart:i])
	bodyOpen := -1
	for j := i; j < st.end; j++ {
		if g.src[j] == '{' {
			bodyOpen = j
			break
		}
	}
	if name == "" || bodyOpen < 0 {
		return
	}
	bodyClose := g.skipBraces(bodyOpen)
	g.writeDoc(out, st, indent)
	g.writeIndent(out, indent)
	if h.exported {
		out.WriteString("export ")
	}
	if !ambient {
		out.WriteString("declare ")
	}
	if h.isConstEnum {
		out.WriteString("const ")
	}
	out.WriteString("enum ")
	out.WriteString(name)
	out.WriteByte(' ')
	g.writeTail(out, bodyOpen, bodyClose, g.columnOf(st.start), indent)
}

// namespace переписывает блок пространства имён, рекурсивно обрабатывая тело
// уже как ambient-контекст. module Foo нормализуется к namespace Foo.
func (g *generator) namespace(out *strings.Builder, st *statement, ambient bool, indent int) {
	h := &st.head
	i := g.skipTrivia(h.afterKw)
	nameStart := i
	for i < g.n && (isIdentByte(g.src[i]) || g.src[i] == '.') {
		i++
	}
	name := string(g.src[nameStart:i])
	if name == "" {
		// module "строка" без declare — оставляем как есть
		g.writeVerbatim(out, st, indent)
		return
	}
	bodyOpen := -1
	for j := i; j < st.end; j++ {
		if g.src[j] == '{' {
			bodyOpen = j
			break
		}
	}
	if bodyOpen < 0 {
		return
	}
	bodyClose := g.skipBraces(bodyOpen)
	g.writeDoc(out, st, indent)
	g.writeIndent(out, indent)
	if h.exported {
		out.WriteString("export ")
	}
	if !ambient {
		out.WriteString("declare ")
	}
	out.WriteString("namespace ")
	out.WriteString(name)
	out.WriteString(" {\n")
	g.block(out, bodyOpen+1, bodyClose-1, true, indent+1)
	g.writeIndent(out, indent)
	out.WriteString("}\n")
}

// writeTail дописывает фрагмент в текущую строку вывода; последующие строки
// фрагмента переносятся со снятием исходного отступа col.
func (g *generator) writeTail(out *strings.Builder, start, end, col, indent int) {
	text := strings.TrimRight(string(g.src[start:end]), " \t\n")
	for idx, line := range strings.Split(text, "\n") {
		if idx == 0 {
			out.WriteString(strings.TrimRight(line, " \t"))
			continue
		}
		line = strings.TrimRight(dedentBy(line, col), " \t")
		out.WriteByte('\n')
		if line != "" {
			g.writeIndent(out, indent)
			out.WriteString(line)
		}
	}
	out.WriteByte('\n')
}
