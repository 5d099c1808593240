package scan

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isHSpace(b byte) bool {
	return b == ' ' || b == '\t'
}

// isIdentByte покрывает ASCII-идентификаторы JS, включая '$'.
func isIdentByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_' || b == '$'
}

func skipSpaces(src []byte, i int) int {
	for i < len(src) && isSpace(src[i]) {
		i++
	}
	return i
}

func skipHSpaces(src []byte, i int) int {
	for i < len(src) && isHSpace(src[i]) {
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

// hasWordAt проверяет слово с границей справа: за ним не идёт байт
// идентификатора.
func hasWordAt(src []byte, i int, w string) bool {
	if !hasPrefixAt(src, i, w) {
		return false
	}
	end := i + len(w)
	return end >= len(src) || !isIdentByte(src[end])
}

// hasIsolatedWordAt дополнительно проверяет границу слева, отсекая
// употребления внутри идентификаторов (reimport) и доступ к свойству
// (obj.require).
func hasIsolatedWordAt(src []byte, i int, w string) bool {
	if i > 0 && (isIdentByte(src[i-1]) || src[i-1] == '.') {
		return false
	}
	return hasWordAt(src, i, w)
}

// stringLiteral читает строковый литерал в кавычках ' или ". Возвращает
// содержимое, его байтовые границы и позицию за закрывающей кавычкой.
// Незакрытый литерал возвращает пустое содержимое.
func stringLiteral(src []byte, i int) (lit string, start, end, next int) {
	quote := src[i]
	i++
	start = i
	for i < len(src) && src[i] != quote {
		if src[i] == '\\' && i+1 < len(src) {
			i++
		}
		i++
	}
	if i >= len(src) {
		return "", i, i, i
	}
	return string(src[start:i]), start, i, i + 1
}

// skipString пропускает строку или шаблонный литерал с учётом экранирования.
// Возвращает позицию за закрывающей кавычкой либо конец файла.
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

func skipSpacesAndComments(src []byte, i int) int {
	n := len(src)
	for i < n {
		if isSpace(src[i]) {
			i++
			continue
		}
		if i+1 < n && src[i] == '/' && src[i+1] == '/' {
			i = skipLineComment(src, i)
			continue
		}
		if i+1 < n && src[i] == '/' && src[i+1] == '*' {
			i = skipBlockComment(src, i)
			continue
		}
		break
	}
	return i
}

// skipBalancedBraces пропускает сбалансированную группу начиная с '{',
// учитывая строки и комментарии. Возвращает позицию за парной '}'.
func skipBalancedBraces(src []byte, i int) int {
	n := len(src)
	depth := 1
	i++
	for i < n && depth > 0 {
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
		default:
			i++
		}
	}
	return i
}

// allBracedNamesTyped сообщает, что все имена внутри {...} помечены `type`,
// то есть весь список типовой: import { type A, type B } from "x".
func allBracedNamesTyped(src []byte, i int) bool {
	n := len(src)
	i++
	for i < n {
		i = skipSpacesAndComments(src, i)
		if i >= n {
			return false
		}
		if src[i] == '}' {
			return true
		}
		if hasWordAt(src, i, "type") && i+len("type") < n && isSpace(src[i+len("type")]) {
			i = skipSpaces(src, i+len("type"))
			// `{ type }` и `{ type as b }` импортируют байндинг
			// с именем type, а не тип.
			if i >= n || src[i] == ',' || src[i] == '}' {
				return false
			}
			if hasWordAt(src, i, "as") {
				j := skipSpaces(src, i+len("as"))
				if !hasWordAt(src, j, "as") {
					return false
				}
			}
			for i < n && src[i] != ',' && src[i] != '}' {
				i++
			}
		} else {
			return false
		}
		if i < n && src[i] == ',' {
			i++
		}
	}
	return false
}
