package declgen

import (
	"fmt"
	"strings"

	"dtsbundle/internal/diag"
)

// function переписывает объявление функции в ambient-сигнатуру:
// declare function f(a: T): R;
func (g *generator) function(out *strings.Builder, st *statement, ambient bool, indent int, overloads map[string]bool) {
	h := &st.head
	i := g.skipTrivia(h.afterKw)
	// звёздочка генератора в декларацию не попадает
	if i < g.n && g.src[i] == '*' {
		i = g.skipTrivia(i + 1)
	}
	nameStart := i
	for i < g.n && isIdentByte(g.src[i]) {
		i++
	}
	name := string(g.src[nameStart:i])
	if name == "" {
		if h.isDefault {
			g.report(diag.GenUnsupportedDefaultExport, st.start, nameStart,
				"default export of an anonymous function cannot be declared; name it")
		}
		return
	}
	if st.hasBody && overloads[name] {
		// реализация после сигнатур-перегрузок: декларации уже выписаны
		return
	}
	if !st.hasBody {
		overloads[name] = true
	}
	i = g.skipTrivia(i)
	generics := ""
	if i < g.n && g.src[i] == '<' {
		gEnd := g.skipAngles(i)
		generics = collapseSpaces(string(g.src[i:gEnd]))
		i = g.skipTrivia(gEnd)
	}
	if i >= g.n || g.src[i] != '(' {
		return
	}
	pEnd := g.skipParens(i)
	params, _, ok := g.params(i+1, pEnd-1, name, false)
	j := g.skipTrivia(pEnd)
	ret := ""
	if j < st.end && g.src[j] == ':' {
		rEnd := g.typeEnd(j+1, st.end)
		ret = collapseSpaces(string(g.src[j+1 : rEnd]))
	}
	if ret == "" {
		g.report(diag.GenMissingReturnType, nameStart, nameStart+len(name),
			fmt.Sprintf("function %q needs an explicit return type annotation", name))
		ok = false
	}
	if !ok {
		return
	}
	g.writeDoc(out, st, indent)
	g.writeIndent(out, indent)
	if h.exported && !h.isDefault {
		out.WriteString("export ")
	}
	if !ambient {
		out.WriteString("declare ")
	}
	fmt.Fprintf(out, "function %s%s(%s): %s;\n", name, generics, strings.Join(params, ", "), ret)
	if h.isDefault {
		g.writeIndent(out, indent)
		fmt.Fprintf(out, "export default %s;\n", name)
	}
}

// params разбирает список параметров [start, end) и возвращает готовые
// сигнатурные фрагменты. Для конструктора параметр-свойства (private x: T)
// дополнительно превращаются в строки членов класса.
func (g *generator) params(start, end int, owner string, ctor bool) (list, props []string, ok bool) {
	ok = true
	i := start
	for i < end {
		i = g.skipTrivia(i)
		if i >= end {
			break
		}
		pStart := i
		i = g.paramEnd(i, end)
		param, prop, pOK := g.param(pStart, i, owner, ctor)
		if pOK {
			if param != "" {
				list = append(list, param)
			}
			if prop != "" {
				props = append(props, prop)
			}
		} else {
			ok = false
		}
		if i < end && g.src[i] == ',' {
			i++
		}
	}
	return list, props, ok
}

// paramEnd находит запятую, завершающую параметр, на верхнем уровне скобок.
func (g *generator) paramEnd(i, end int) int {
	for i < end {
		switch b := g.src[i]; b {
		case ',':
			return i
		case '(':
			i = g.skipParens(i)
		case '[':
			i = g.skipBrackets(i)
		case '{':
			i = g.skipBraces(i)
		case '<':
			if i > 0 && isIdentByte(g.src[i-1]) {
				i = g.skipAngles(i)
			} else {
				i++
			}
		case '\'', '"':
			i = skipString(g.src, i, b)
		case '`':
			i = g.skipTemplate(i)
		case '/':
			i = g.skipSlash(i)
		default:
			i++
		}
	}
	return end
}

// param обрабатывает один параметр: имя, опциональность, аннотация.
// Параметр со значением по умолчанию становится необязательным, его
// инициализатор в сигнатуру не попадает.
func (g *generator) param(start, end int, owner string, ctor bool) (param, prop string, ok bool) {
	i := g.skipTrivia(start)
	for i < end && g.src[i] == '@' {
		i = g.skipTrivia(g.skipDecorator(i))
	}
	var mods []string
	if ctor {
		for i < end {
			m := ""
			for _, w := range [...]string{"public", "private", "protected", "readonly", "override"} {
				if g.wordAt(i, w) {
					m = w
					break
				}
			}
			if m == "" {
				break
			}
			mods = append(mods, m)
			i = g.skipTrivia(i + len(m))
		}
	}
	rest := ""
	if hasPrefixAt(g.src, i, "...") {
		rest = "..."
		i = g.skipTrivia(i + 3)
	}
	nameStart := i
	if i < end && (g.src[i] == '{' || g.src[i] == '[') {
		g.report(diag.GenMissingParamType, nameStart, min(end, nameStart+1),
			fmt.Sprintf("destructured parameter of %q needs a type annotation", owner))
		return "", "", false
	}
	for i < end && isIdentByte(g.src[i]) {
		i++
	}
	name := string(g.src[nameStart:i])
	if name == "" {
		return "", "", true // пустой хвост после запятой
	}
	i = g.skipTrivia(i)
	optional := false
	if i < end && g.src[i] == '?' {
		optional = true
		i = g.skipTrivia(i + 1)
	}
	typ := ""
	if i < end && g.src[i] == ':' {
		tEnd := g.annotationEnd(i+1, end)
		typ = collapseSpaces(string(g.src[i+1 : tEnd]))
		i = tEnd
	}
	i = g.skipTrivia(i)
	if i < end && g.src[i] == '=' && rest == "" {
		optional = true
	}
	if typ == "" {
		g.report(diag.GenMissingParamType, nameStart, nameStart+len(name),
			fmt.Sprintf("parameter %q of %q needs a type annotation", name, owner))
		return "", "", false
	}
	mark := ""
	if optional {
		mark = "?"
	}
	param = rest + name + mark + ": " + typ
	if len(mods) > 0 {
		// параметр-свойство: модификаторы уезжают в член класса
		var kept []string
		for _, m := range mods {
			if m != "public" && m != "override" {
				kept = append(kept, m)
			}
		}
		prefix := strings.Join(kept, " ")
		if prefix != "" {
			prefix += " "
		}
		prop = prefix + name + mark + ": " + typ + ";"
	}
	return param, prop, true
}

// annotationEnd ищет конец аннотации типа внутри параметра или декларатора:
// до '=' инициализатора, ',' следующего декларатора или ';' на верхнем
// уровне. Стрелка '=>' аннотацию не завершает.
func (g *generator) annotationEnd(i, end int) int {
	for i < end {
		switch b := g.src[i]; b {
		case ',', ';':
			return i
		case '=':
			if i+1 < end && g.src[i+1] == '>' {
				i += 2
				continue
			}
			return i
		case '\n':
			if g.typeBreakAt(i, end) {
				return i
			}
			i++
		case '(':
			i = g.skipParens(i)
		case '[':
			i = g.skipBrackets(i)
		case '{':
			i = g.skipBraces(i)
		case '<':
			i = g.skipAngles(i)
		case '\'', '"':
			i = skipString(g.src, i, b)
		case '`':
			i = g.skipTemplate(i)
		case '/':
			i = g.skipSlash(i)
		default:
			i++
		}
	}
	return end
}

// typeEnd ищет конец аннотации возврата: до тела '{' либо ';' на верхнем
// уровне. Объектный тип в позиции возврата отличим от тела по байту перед
// '{': объектному типу предшествует ':', '|', '&', ',' или стрелка '=>'.
func (g *generator) typeEnd(i, limit int) int {
	for i < limit {
		switch b := g.src[i]; b {
		case ';':
			return i
		case '{':
			if g.objectTypeAt(i) {
				i = g.skipBraces(i)
				continue
			}
			return i
		case '\n':
			if g.typeBreakAt(i, limit) {
				return i
			}
			i++
		case '(':
			i = g.skipParens(i)
		case '[':
			i = g.skipBrackets(i)
		case '<':
			i = g.skipAngles(i)
		case '\'', '"':
			i = skipString(g.src, i, b)
		case '`':
			i = g.skipTemplate(i)
		case '/':
			i = g.skipSlash(i)
		default:
			i++
		}
	}
	return limit
}

// typeBreakAt решает, обрывает ли перенос строки тип: продолжение возможно,
// только когда строка кончается или начинается соединительным знаком
// (| & , < ( [ { : = ?).
func (g *generator) typeBreakAt(i, limit int) bool {
	j := i - 1
	for j >= 0 && (g.src[j] == ' ' || g.src[j] == '\t' || g.src[j] == '\r') {
		j--
	}
	if j >= 0 && isTypeJoiner(g.src[j]) {
		return false
	}
	k := g.skipTrivia(i + 1)
	if k < limit && isTypeJoiner(g.src[k]) {
		return false
	}
	return true
}

func isTypeJoiner(b byte) bool {
	switch b {
	case '|', '&', ',', '<', '(', '[', '{', ':', '=', '?', '.':
		return true
	}
	return false
}

func (g *generator) objectTypeAt(i int) bool {
	j := i - 1
	for j >= 0 && isSpace(g.src[j]) {
		j--
	}
	if j < 0 {
		return false
	}
	switch g.src[j] {
	case ':', '|', '&', ',':
		return true
	case '>':
		return j > 0 && g.src[j-1] == '='
	}
	return false
}

// skipDecorator пропускает @ident или @ident(...) вместе с цепочкой свойств.
func (g *generator) skipDecorator(i int) int {
	i++ // '@'
	for i < g.n && (isIdentByte(g.src[i]) || g.src[i] == '.') {
		i++
	}
	j := g.skipTrivia(i)
	if j < g.n && g.src[j] == '(' {
		return g.skipParens(j)
	}
	return i
}

// collapseSpaces сводит переводы строк и повторные пробелы к одному пробелу,
// чтобы многострочные аннотации ложились в однострочную сигнатуру.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
