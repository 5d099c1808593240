package declgen

// Байтовые помощники в духе internal/scan: декларации режутся без
// полноценного парсера, по скобочной структуре и границам слов.

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isIdentByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_' || b == '$'
}

func skipHSpaces(src []byte, i int) int {
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	return i
}

func hasPrefixAt(src []byte, i int, w string) bool {
	if i < 0 || i+len(w) > len(src) {
		return false
	}
	for j := 0; j < len(w); j++ {
		if src[i+j] != w[j] {
			return false
		}
	}
	return true
}

// wordAt проверяет слово с границами с обеих сторон: слева не идентификатор
// и не '.', справа не байт идентификатора.
func (g *generator) wordAt(i int, w string) bool {
	if i > 0 && (isIdentByte(g.src[i-1]) || g.src[i-1] == '.') {
		return false
	}
	if !hasPrefixAt(g.src, i, w) {
		return false
	}
	end := i + len(w)
	return end >= g.n || !isIdentByte(g.src[end])
}

func skipString(src []byte, i int, quote byte) int {
	i++
	for i < len(src) {
		if src[i] == '\\' && i+1 < len(src) {
			i += 2
			continue
		}
		if src[i] == quote {
			return i + 1
		}
		i++
	}
	return i
}

// skipLineComment останавливается на '\n', не съедая его.
func skipLineComment(src []byte, i int) int {
	for i < len(src) && src[i] != '\n' {
		i++
	}
	return i
}

func skipBlockComment(src []byte, i int) int {
	i += 2
	for i+1 < len(src) {
		if src[i] == '*' && src[i+1] == '/' {
			return i + 2
		}
		i++
	}
	return len(src)
}

func (g *generator) skipTrivia(i int) int {
	for i < g.n {
		if isSpace(g.src[i]) {
			i++
			continue
		}
		if g.src[i] == '/' && i+1 < g.n && g.src[i+1] == '/' {
			i = skipLineComment(g.src, i)
			continue
		}
		if g.src[i] == '/' && i+1 < g.n && g.src[i+1] == '*' {
			i = skipBlockComment(g.src, i)
			continue
		}
		break
	}
	return i
}

// skipTemplate пропускает шаблонный литерал, включая вложенные ${...}.
func (g *generator) skipTemplate(i int) int {
	i++
	for i < g.n {
		switch g.src[i] {
		case '\\':
			i += 2
		case '`':
			return i + 1
		case '$':
			if i+1 < g.n && g.src[i+1] == '{' {
				i = g.skipBraces(i + 1)
			} else {
				i++
			}
		default:
			i++
		}
	}
	return i
}

// skipBraces пропускает сбалансированную группу начиная с '{', учитывая
// строки, шаблоны и комментарии. Возвращает позицию за парной '}'.
func (g *generator) skipBraces(i int) int {
	depth := 1
	i++
	for i < g.n && depth > 0 {
		switch b := g.src[i]; b {
		case '{':
			depth++
			i++
		case '}':
			depth--
			i++
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
	return i
}

func (g *generator) skipParens(i int) int {
	depth := 1
	i++
	for i < g.n && depth > 0 {
		switch b := g.src[i]; b {
		case '(':
			depth++
			i++
		case ')':
			depth--
			i++
		case '{':
			i = g.skipBraces(i)
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
	return i
}

func (g *generator) skipBrackets(i int) int {
	depth := 1
	i++
	for i < g.n && depth > 0 {
		switch b := g.src[i]; b {
		case '[':
			depth++
			i++
		case ']':
			depth--
			i++
		case '{':
			i = g.skipBraces(i)
		case '(':
			i = g.skipParens(i)
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
	return i
}

// skipAngles пропускает generic-группу <...>. Вызывается только там, где '<'
// гарантированно открывает параметры типов (после идентификатора в голове
// функции или класса).
func (g *generator) skipAngles(i int) int {
	depth := 1
	i++
	for i < g.n && depth > 0 {
		switch b := g.src[i]; b {
		case '<':
			depth++
			i++
		case '>':
			// '>' из стрелки '=>' группу не закрывает
			if g.src[i-1] != '=' {
				depth--
			}
			i++
		case '{':
			i = g.skipBraces(i)
		case '(':
			i = g.skipParens(i)
		case '[':
			i = g.skipBrackets(i)
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
	return i
}

func (g *generator) skipSlash(i int) int {
	switch {
	case i+1 < g.n && g.src[i+1] == '/':
		return skipLineComment(g.src, i)
	case i+1 < g.n && g.src[i+1] == '*':
		return skipBlockComment(g.src, i)
	}
	return i + 1
}
