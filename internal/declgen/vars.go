package declgen

import (
	"fmt"
	"strings"

	"dtsbundle/internal/diag"
)

// variables переписывает const/let/var в ambient-форму без инициализаторов.
// Каждый декларатор выписывается отдельной строкой: declare const x: T;
func (g *generator) variables(out *strings.Builder, st *statement, ambient bool, indent int) {
	h := &st.head
	stop := st.end
	for stop > h.afterKw && (isSpace(g.src[stop-1]) || g.src[stop-1] == ';') {
		stop--
	}
	docWritten := false
	i := h.afterKw
	for i < stop {
		i = g.skipTrivia(i)
		if i >= stop {
			break
		}
		nameStart := i
		if g.src[i] == '{' || g.src[i] == '[' {
			g.report(diag.GenMissingVarType, nameStart, min(stop, nameStart+1),
				"destructuring declaration needs an explicit type annotation per binding")
			i = g.segmentEnd(i, stop)
			if i < stop && g.src[i] == ',' {
				i++
			}
			continue
		}
		for i < stop && isIdentByte(g.src[i]) {
			i++
		}
		name := string(g.src[nameStart:i])
		if name == "" {
			break
		}
		i = g.skipTrivia(i)
		if i < stop && g.src[i] == '!' {
			i = g.skipTrivia(i + 1)
		}
		typ := ""
		if i < stop && g.src[i] == ':' {
			tEnd := g.annotationEnd(i+1, stop)
			typ = collapseSpaces(string(g.src[i+1 : tEnd]))
			i = tEnd
		}
		i = g.skipTrivia(i)
		hasInit := i < stop && g.src[i] == '='
		if hasInit {
			initStart := i + 1
			i = g.segmentEnd(i, stop)
			if typ == "" {
				lit, ok := g.literalType(initStart, i, h.kw)
				if !ok {
					g.report(diag.GenMissingVarType, nameStart, nameStart+len(name),
						fmt.Sprintf("variable %q needs a type annotation or literal initializer", name))
					if i < stop && g.src[i] == ',' {
						i++
					}
					continue
				}
				typ = lit
			}
		}
		if typ == "" {
			g.report(diag.GenMissingVarType, nameStart, nameStart+len(name),
				fmt.Sprintf("variable %q needs a type annotation", name))
			if i < stop && g.src[i] == ',' {
				i++
			}
			continue
		}
		if !docWritten {
			g.writeDoc(out, st, indent)
			docWritten = true
		}
		g.writeIndent(out, indent)
		if h.exported {
			out.WriteString("export ")
		}
		if !ambient {
			out.WriteString("declare ")
		}
		fmt.Fprintf(out, "%s %s: %s;\n", h.kw, name, typ)
		if i < stop && g.src[i] == ',' {
			i++
		}
	}
}

// segmentEnd пропускает до запятой на верхнем уровне скобок (граница
// декларатора) либо до конца диапазона.
func (g *generator) segmentEnd(i, end int) int {
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

// literalType выводит тип литерального инициализатора: const получает
// литеральный тип, let и var — расширенный примитив. Приведение `expr as T`
// даёт готовый тип без вывода; `as const` потребовал бы настоящего вывода
// и не поддерживается.
func (g *generator) literalType(start, end int, keyword string) (string, bool) {
	asPos := -1
	for j := g.skipTrivia(start); j < end; {
		switch b := g.src[j]; b {
		case '(':
			j = g.skipParens(j)
		case '[':
			j = g.skipBrackets(j)
		case '{':
			j = g.skipBraces(j)
		case '\'', '"':
			j = skipString(g.src, j, b)
		case '`':
			j = g.skipTemplate(j)
		case '/':
			j = g.skipSlash(j)
		default:
			if g.wordAt(j, "as") {
				asPos = j
			}
			if isIdentByte(b) {
				for j < end && isIdentByte(g.src[j]) {
					j++
				}
				continue
			}
			j++
		}
	}
	if asPos >= 0 {
		typ := collapseSpaces(string(g.src[asPos+len("as") : end]))
		if typ == "" || typ == "const" {
			return "", false
		}
		return typ, true
	}

	text := strings.TrimSpace(string(g.src[start:end]))
	wide := keyword != "const"
	switch {
	case text == "":
		return "", false
	case text[0] == '\'' || text[0] == '"':
		if !wholeStringLiteral(text) {
			return "", false
		}
		if wide {
			return "string", true
		}
		return text, true
	case text[0] == '`':
		// шаблон без подстановок сводим к string даже для const
		if len(text) >= 2 && text[len(text)-1] == '`' && !strings.Contains(text, "${") {
			return "string", true
		}
		return "", false
	case text == "true" || text == "false":
		if wide {
			return "boolean", true
		}
		return text, true
	case isNumericLiteral(text):
		if strings.HasSuffix(text, "n") {
			return "bigint", true
		}
		if wide {
			return "number", true
		}
		return text, true
	}
	return "", false
}

// wholeStringLiteral проверяет, что текст целиком является одним строковым
// литералом, без хвоста вида "a" + b.
func wholeStringLiteral(s string) bool {
	if len(s) < 2 {
		return false
	}
	quote := s[0]
	i := 1
	for i < len(s) && s[i] != quote {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		i++
	}
	return i == len(s)-1
}

// isNumericLiteral принимает десятичные, hex/oct/bin и экспоненциальные
// формы, подчёркивания-разделители и bigint-суффикс n.
func isNumericLiteral(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	if i >= len(s) || s[i] < '0' || s[i] > '9' {
		return false
	}
	for ; i < len(s); i++ {
		b := s[i]
		switch {
		case b >= '0' && b <= '9':
		case b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F':
		case b == '.' || b == '_':
		case b == 'x' || b == 'X' || b == 'o' || b == 'O':
		case b == 'n' && i == len(s)-1:
		case (b == '+' || b == '-') && (s[i-1] == 'e' || s[i-1] == 'E'):
		default:
			return false
		}
	}
	return true
}
