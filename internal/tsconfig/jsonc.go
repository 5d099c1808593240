package tsconfig

// stripJSONC убирает комментарии и висячие запятые: tsc принимает JSONC,
// encoding/json — нет. Содержимое строк не трогается.
func stripJSONC(src []byte) []byte {
	out := make([]byte, 0, len(src))
	n := len(src)
	i := 0
	for i < n {
		b := src[i]
		switch {
		case b == '"':
			j := i + 1
			for j < n {
				if src[j] == '\\' && j+1 < n {
					j += 2
					continue
				}
				if src[j] == '"' {
					j++
					break
				}
				j++
			}
			out = append(out, src[i:j]...)
			i = j
		case b == '/' && i+1 < n && src[i+1] == '/':
			for i < n && src[i] != '\n' {
				i++
			}
		case b == '/' && i+1 < n && src[i+1] == '*':
			i = skipJSONBlockComment(src, i)
		case b == ',':
			if closesAfterComma(src, i+1) {
				i++
				continue
			}
			out = append(out, b)
			i++
		default:
			out = append(out, b)
			i++
		}
	}
	return out
}

// closesAfterComma проверяет, что после запятой до самого } или ] нет
// значимых символов, то есть запятая висячая.
func closesAfterComma(src []byte, i int) bool {
	n := len(src)
	for i < n {
		b := src[i]
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			i++
			continue
		}
		if b == '/' && i+1 < n && src[i+1] == '/' {
			for i < n && src[i] != '\n' {
				i++
			}
			continue
		}
		if b == '/' && i+1 < n && src[i+1] == '*' {
			i = skipJSONBlockComment(src, i)
			continue
		}
		return b == '}' || b == ']'
	}
	return false
}

func skipJSONBlockComment(src []byte, i int) int {
	n := len(src)
	i += 2
	for i+1 < n {
		if src[i] == '*' && src[i+1] == '/' {
			return i + 2
		}
		i++
	}
	return n
}
