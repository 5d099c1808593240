package declgen

import (
	"fmt"
	"strings"

	"dtsbundle/internal/diag"
)

// class переписывает класс в ambient-декларацию: тела методов и
// инициализаторы свойств срезаются, параметр-свойства конструктора
// поднимаются в члены, приватные #-поля сводятся к одному маркеру #private.
func (g *generator) class(out *strings.Builder, st *statement, ambient bool, indent int) {
	h := &st.head
	i := g.skipTrivia(h.afterKw)
	nameStart := i
	for i < g.n && isIdentByte(g.src[i]) {
		i++
	}
	name := string(g.src[nameStart:i])
	if name == "" {
		if h.isDefault {
			g.report(diag.GenUnsupportedDefaultExport, st.start, nameStart,
				"default export of an anonymous class cannot be declared; name it")
		}
		return
	}
	i = g.skipTrivia(i)
	generics := ""
	if i < g.n && g.src[i] == '<' {
		gEnd := g.skipAngles(i)
		generics = collapseSpaces(string(g.src[i:gEnd]))
		i = gEnd
	}
	bodyOpen := g.classBodyOpen(i, st.end)
	if bodyOpen < 0 {
		return
	}
	heritage := collapseSpaces(string(g.src[i:bodyOpen]))
	bodyClose := g.skipBraces(bodyOpen)

	cls := &classWriter{gen: g, owner: name, overloads: map[string]bool{}}
	cls.walk(bodyOpen+1, bodyClose-1)

	g.writeDoc(out, st, indent)
	g.writeIndent(out, indent)
	if h.exported && !h.isDefault {
		out.WriteString("export ")
	}
	if !ambient {
		out.WriteString("declare ")
	}
	if h.isAbstract {
		out.WriteString("abstract ")
	}
	out.WriteString("class ")
	out.WriteString(name)
	out.WriteString(generics)
	if heritage != "" {
		out.WriteByte(' ')
		out.WriteString(heritage)
	}
	out.WriteString(" {\n")
	for _, line := range cls.lines {
		if line == "" {
			out.WriteByte('\n')
			continue
		}
		g.writeIndent(out, indent+1)
		out.WriteString(line)
		out.WriteByte('\n')
	}
	g.writeIndent(out, indent)
	out.WriteString("}\n")
	if h.isDefault {
		g.writeIndent(out, indent)
		fmt.Fprintf(out, "export default %s;\n", name)
	}
}

// classBodyOpen находит '{' тела класса, пропуская generic-группы и
// объектные типы в heritage-клаузах.
func (g *generator) classBodyOpen(i, limit int) int {
	angle := 0
	for i < limit {
		switch b := g.src[i]; b {
		case '<':
			if i > 0 && isIdentByte(g.src[i-1]) {
				angle++
			}
			i++
		case '>':
			if angle > 0 && g.src[i-1] != '=' {
				angle--
			}
			i++
		case '{':
			if angle == 0 {
				return i
			}
			i = g.skipBraces(i)
		case '(':
			i = g.skipParens(i)
		case '\'', '"':
			i = skipString(g.src, i, b)
		case '/':
			i = g.skipSlash(i)
		default:
			i++
		}
	}
	return -1
}

// classWriter копит строки членов класса в порядке исходника.
type classWriter struct {
	gen        *generator
	owner      string
	lines      []string
	overloads  map[string]bool
	hasPrivate bool
}

func (c *classWriter) walk(start, end int) {
	i := start
	for i < end {
		next := c.member(i, end)
		if next <= i {
			next = i + 1
		}
		i = next
	}
}

func (c *classWriter) append(doc []string, line string) {
	c.lines = append(c.lines, doc...)
	c.lines = append(c.lines, line)
}

// member разбирает один член класса и возвращает позицию за ним.
func (c *classWriter) member(i, end int) int {
	g := c.gen
	docStart, docEnd := 0, 0
trivia:
	for i < end {
		switch {
		case isSpace(g.src[i]) || g.src[i] == ';':
			i++
		case g.src[i] == '@':
			i = g.skipTrivia(g.skipDecorator(i))
		case g.src[i] == '/' && i+1 < end && g.src[i+1] == '/':
			i = skipLineComment(g.src, i)
		case g.src[i] == '/' && i+1 < end && g.src[i+1] == '*':
			e := skipBlockComment(g.src, i)
			if hasPrefixAt(g.src, i, "/**") {
				docStart, docEnd = i, e
			}
			i = e
		default:
			break trivia
		}
	}
	if i >= end {
		return end
	}

	var mods []string
	isReadonly := false
modifiers:
	for i < end {
		switch {
		case g.modifierAt(i, end, "static"):
			j := g.skipTrivia(i + len("static"))
			if j < end && g.src[j] == '{' {
				// static-блок инициализации в декларацию не попадает
				return g.skipBraces(j)
			}
			mods = append(mods, "static")
			i = j
		case g.modifierAt(i, end, "public"):
			i = g.skipTrivia(i + len("public"))
		case g.modifierAt(i, end, "private"):
			mods = append(mods, "private")
			i = g.skipTrivia(i + len("private"))
		case g.modifierAt(i, end, "protected"):
			mods = append(mods, "protected")
			i = g.skipTrivia(i + len("protected"))
		case g.modifierAt(i, end, "readonly"):
			mods = append(mods, "readonly")
			isReadonly = true
			i = g.skipTrivia(i + len("readonly"))
		case g.modifierAt(i, end, "abstract"):
			mods = append(mods, "abstract")
			i = g.skipTrivia(i + len("abstract"))
		case g.modifierAt(i, end, "override"):
			i = g.skipTrivia(i + len("override"))
		case g.modifierAt(i, end, "declare"):
			i = g.skipTrivia(i + len("declare"))
		case g.modifierAt(i, end, "accessor"):
			mods = append(mods, "accessor")
			i = g.skipTrivia(i + len("accessor"))
		case g.modifierAt(i, end, "async"):
			i = g.skipTrivia(i + len("async"))
		default:
			break modifiers
		}
	}

	kind := ""
	switch {
	case g.modifierAt(i, end, "get"):
		kind = "get"
		i = g.skipTrivia(i + len("get"))
	case g.modifierAt(i, end, "set"):
		kind = "set"
		i = g.skipTrivia(i + len("set"))
	}
	if i < end && g.src[i] == '*' {
		i = g.skipTrivia(i + 1)
	}

	nameStart := i
	name := ""
	switch {
	case i < end && g.src[i] == '#':
		// приватные поля не описываются, их наличие метит один маркер
		if !c.hasPrivate {
			c.hasPrivate = true
			c.lines = append(c.lines, "#private;")
		}
		return g.memberEnd(i, end)
	case i < end && g.src[i] == '[':
		bEnd := g.skipBrackets(i)
		name = collapseSpaces(string(g.src[i:bEnd]))
		i = bEnd
	case i < end && (g.src[i] == '\'' || g.src[i] == '"'):
		j := skipString(g.src, i, g.src[i])
		name = string(g.src[i:j])
		i = j
	default:
		for i < end && isIdentByte(g.src[i]) {
			i++
		}
		name = string(g.src[nameStart:i])
	}
	if name == "" {
		return g.memberEnd(i, end)
	}

	i = g.skipTrivia(i)
	opt := ""
	if i < end && g.src[i] == '?' {
		opt = "?"
		i = g.skipTrivia(i + 1)
	}
	if i < end && g.src[i] == '!' {
		i = g.skipTrivia(i + 1)
	}
	generics := ""
	if i < end && g.src[i] == '<' {
		gEnd := g.skipAngles(i)
		generics = collapseSpaces(string(g.src[i:gEnd]))
		i = g.skipTrivia(gEnd)
	}

	prefix := strings.Join(mods, " ")
	if prefix != "" {
		prefix += " "
	}
	doc := g.docLines(docStart, docEnd)

	switch {
	case i < end && g.src[i] == '(':
		return c.method(i, end, doc, prefix, kind, name, nameStart, opt, generics)
	case i < end && g.src[i] == ':':
		tEnd := g.annotationEnd(i+1, end)
		typ := collapseSpaces(string(g.src[i+1 : tEnd]))
		mEnd := g.memberEnd(tEnd, end)
		c.append(doc, prefix+name+opt+": "+typ+";")
		return mEnd
	case i < end && g.src[i] == '=':
		initStart := i + 1
		mEnd := g.memberEnd(i, end)
		initEnd := mEnd
		for initEnd > initStart && (isSpace(g.src[initEnd-1]) || g.src[initEnd-1] == ';') {
			initEnd--
		}
		kw := "let"
		if isReadonly {
			// readonly-поле получает литеральный тип
			kw = "const"
		}
		typ, ok := g.literalType(initStart, initEnd, kw)
		if !ok {
			g.report(diag.GenMissingVarType, nameStart, nameStart+len(name),
				fmt.Sprintf("property %q of class %q needs a type annotation or literal initializer", name, c.owner))
			return mEnd
		}
		c.append(doc, prefix+name+opt+": "+typ+";")
		return mEnd
	default:
		// голое поле: неявный any
		mEnd := g.memberEnd(i, end)
		c.append(doc, prefix+name+opt+";")
		return mEnd
	}
}

// method выписывает сигнатуру метода, конструктора или аксессора.
func (c *classWriter) method(i, end int, doc []string, prefix, kind, name string, nameStart int, opt, generics string) int {
	g := c.gen
	ctor := name == "constructor" && kind == ""
	owner := c.owner + "." + name
	pEnd := g.skipParens(i)
	params, props, ok := g.params(i+1, pEnd-1, owner, ctor)
	i = g.skipTrivia(pEnd)
	ret := ""
	if i < end && g.src[i] == ':' {
		rEnd := g.typeEnd(i+1, end)
		ret = collapseSpaces(string(g.src[i+1 : rEnd]))
		i = rEnd
	}
	hasBody := false
	mEnd := i
	if j := g.skipTrivia(i); j < end && g.src[j] == '{' {
		hasBody = true
		mEnd = g.skipBraces(j)
	} else {
		mEnd = g.memberEnd(i, end)
	}
	if hasBody && c.overloads[name] {
		// реализация после сигнатур-перегрузок
		return mEnd
	}
	if !hasBody {
		c.overloads[name] = true
	}
	if !ctor && kind != "set" && ret == "" {
		g.report(diag.GenMissingReturnType, nameStart, nameStart+len(name),
			fmt.Sprintf("method %q needs an explicit return type annotation", owner))
		ok = false
	}
	if !ok {
		return mEnd
	}
	// параметр-свойства конструктора поднимаются перед ним
	c.lines = append(c.lines, props...)
	var sig strings.Builder
	sig.WriteString(prefix)
	if kind != "" {
		sig.WriteString(kind)
		sig.WriteByte(' ')
	}
	sig.WriteString(name)
	sig.WriteString(opt)
	sig.WriteString(generics)
	sig.WriteByte('(')
	sig.WriteString(strings.Join(params, ", "))
	sig.WriteByte(')')
	if !ctor && kind != "set" {
		sig.WriteString(": ")
		sig.WriteString(ret)
	}
	sig.WriteByte(';')
	c.append(doc, sig.String())
	return mEnd
}

// memberEnd пропускает до конца члена: ';' на верхнем уровне, граница строки
// по ASI либо конец тела класса.
func (g *generator) memberEnd(i, end int) int {
	for i < end {
		switch b := g.src[i]; b {
		case ';':
			return i + 1
		case '(':
			i = g.skipParens(i)
		case '[':
			i = g.skipBrackets(i)
		case '{':
			i = g.skipBraces(i)
		case '\'', '"':
			i = skipString(g.src, i, b)
		case '`':
			i = g.skipTemplate(i)
		case '/':
			i = g.skipSlash(i)
		case '\n':
			if g.typeBreakAt(i, end) {
				return i
			}
			i++
		default:
			i++
		}
	}
	return end
}

// modifierAt: слово является модификатором, только если за ним следует
// продолжение члена, а не ':', '(', '=' и т.п. — иначе это имя члена.
func (g *generator) modifierAt(i, end int, w string) bool {
	if !g.wordAt(i, w) {
		return false
	}
	j := g.skipTrivia(i + len(w))
	if j >= end {
		return false
	}
	switch g.src[j] {
	case ':', '(', '=', '?', ';', '<', ')', ',', '}':
		return false
	}
	return true
}

// docLines снимает прикреплённый /** */ комментарий в готовые строки.
func (g *generator) docLines(start, end int) []string {
	if end <= start {
		return nil
	}
	col := g.columnOf(start)
	raw := strings.Split(strings.TrimRight(string(g.src[start:end]), " \t\n"), "\n")
	lines := make([]string, 0, len(raw))
	for idx, line := range raw {
		if idx > 0 {
			line = dedentBy(line, col)
		}
		lines = append(lines, strings.TrimRight(line, " \t"))
	}
	return lines
}
