package declgen

// statement — один верхнеуровневый оператор с прикреплённым doc-комментарием.
type statement struct {
	docStart, docEnd int // /** */ прямо перед оператором, 0:0 если нет
	start, end       int
	hasBody          bool // у brace-формы было тело {...}
	head             head
}

// head — разобранные модификаторы и ключевое слово оператора.
type head struct {
	exported    bool
	isDefault   bool
	declared    bool
	isAsync     bool
	isAbstract  bool
	isConstEnum bool
	// kw: "function", "class", "interface", "type", "enum", "namespace",
	// "module", "global", "const", "let", "var", "import", "export-list",
	// "export-as-namespace", "=" (export-assignment), "///" либо "" для
	// выражения.
	kw      string
	afterKw int // позиция сразу за ключевым словом
}

// nextStatement находит следующий оператор начиная с i. Возвращает nil, когда
// до limit остались только пробелы и комментарии.
func (g *generator) nextStatement(i, limit int) (*statement, int) {
	src := g.src
	docStart, docEnd := 0, 0
	for i < limit {
		if isSpace(src[i]) {
			i++
			continue
		}
		if src[i] == '/' && i+1 < limit && src[i+1] == '/' {
			if hasPrefixAt(src, i, "///") {
				// triple-slash директива — самостоятельный оператор
				end := skipLineComment(src, i)
				st := &statement{start: i, end: end}
				st.head.kw = "///"
				return st, end
			}
			i = skipLineComment(src, i)
			continue
		}
		if src[i] == '/' && i+1 < limit && src[i+1] == '*' {
			end := skipBlockComment(src, i)
			if hasPrefixAt(src, i, "/**") {
				docStart, docEnd = i, end
			}
			i = end
			continue
		}
		break
	}
	if i >= limit {
		return nil, limit
	}

	st := &statement{docStart: docStart, docEnd: docEnd, start: i}
	st.head = g.parseHead(i)
	end, hasBody := g.statementEnd(st.head.afterKw, limit, braceFormKw(st.head.kw))
	st.end = end
	st.hasBody = hasBody
	return st, end
}

func braceFormKw(kw string) bool {
	switch kw {
	case "function", "class", "interface", "enum", "namespace", "module", "global":
		return true
	}
	return false
}

// parseHead снимает модификаторы (export, default, declare, abstract, async)
// и определяет ключевое слово оператора.
func (g *generator) parseHead(i int) head {
	h := head{}
	for i < g.n {
		i = g.skipTrivia(i)
		switch {
		case !h.exported && g.wordAt(i, "export"):
			h.exported = true
			i += len("export")
			j := g.skipTrivia(i)
			switch {
			case j < g.n && g.src[j] == '=':
				h.kw = "="
				h.afterKw = j + 1
				return h
			case j < g.n && (g.src[j] == '{' || g.src[j] == '*'):
				h.kw = "export-list"
				h.afterKw = j
				return h
			case g.wordAt(j, "as"):
				h.kw = "export-as-namespace"
				h.afterKw = j
				return h
			}
		case !h.isDefault && g.wordAt(i, "default"):
			h.isDefault = true
			i += len("default")
		case !h.declared && g.wordAt(i, "declare"):
			h.declared = true
			i += len("declare")
		case !h.isAbstract && g.wordAt(i, "abstract"):
			h.isAbstract = true
			i += len("abstract")
		case !h.isAsync && g.wordAt(i, "async"):
			h.isAsync = true
			i += len("async")
		case g.wordAt(i, "const"):
			j := g.skipTrivia(i + len("const"))
			if g.wordAt(j, "enum") {
				h.isConstEnum = true
				h.kw = "enum"
				h.afterKw = j + len("enum")
				return h
			}
			h.kw = "const"
			h.afterKw = i + len("const")
			return h
		case g.wordAt(i, "let"), g.wordAt(i, "var"):
			h.kw = string(g.src[i : i+3])
			h.afterKw = i + 3
			return h
		case g.wordAt(i, "function"):
			h.kw = "function"
			h.afterKw = i + len("function")
			return h
		case g.wordAt(i, "class"):
			h.kw = "class"
			h.afterKw = i + len("class")
			return h
		case g.wordAt(i, "interface"):
			h.kw = "interface"
			h.afterKw = i + len("interface")
			return h
		case g.wordAt(i, "type"):
			h.kw = "type"
			h.afterKw = i + len("type")
			return h
		case g.wordAt(i, "enum"):
			h.kw = "enum"
			h.afterKw = i + len("enum")
			return h
		case g.wordAt(i, "namespace"):
			h.kw = "namespace"
			h.afterKw = i + len("namespace")
			return h
		case g.wordAt(i, "module"):
			h.kw = "module"
			h.afterKw = i + len("module")
			return h
		case g.wordAt(i, "global"):
			h.kw = "global"
			h.afterKw = i + len("global")
			return h
		case g.wordAt(i, "import"):
			h.kw = "import"
			h.afterKw = i + len("import")
			return h
		default:
			h.kw = ""
			h.afterKw = i
			return h
		}
	}
	h.afterKw = g.n
	return h
}

// statementEnd находит конец оператора. Для brace-форм (function, class, ...)
// оператор заканчивается первым верхнеуровневым блоком {...} либо ';' до
// него (сигнатура-перегрузка). Для остальных — ';' на верхнем уровне или
// граница строки перед следующим ключевым словом (ASI).
func (g *generator) statementEnd(i, limit int, braceForm bool) (end int, hasBody bool) {
	src := g.src
	depth := 0 // круглые и квадратные скобки
	angle := 0 // generic-скобки в голове brace-формы
	for i < limit {
		switch b := src[i]; b {
		case '(', '[':
			depth++
			i++
		case ')', ']':
			if depth > 0 {
				depth--
			}
			i++
		case '<':
			if braceForm && depth == 0 && i > 0 && isIdentByte(src[i-1]) {
				angle++
			}
			i++
		case '>':
			// '>' из стрелки '=>' generic-скобку не закрывает
			if angle > 0 && src[i-1] != '=' {
				angle--
			}
			i++
		case ';':
			if depth == 0 && angle == 0 {
				return i + 1, false
			}
			i++
		case '{':
			if depth == 0 && angle == 0 && braceForm {
				end = g.skipBraces(i)
				j := skipHSpaces(src, end)
				if j < limit && src[j] == ';' {
					end = j + 1
				}
				return end, true
			}
			i = g.skipBraces(i)
		case '\'', '"':
			i = skipString(src, i, b)
		case '`':
			i = g.skipTemplate(i)
		case '/':
			switch {
			case i+1 < limit && src[i+1] == '/':
				i = skipLineComment(src, i)
			case i+1 < limit && src[i+1] == '*':
				i = skipBlockComment(src, i)
			default:
				i++
			}
		case '\n':
			if depth == 0 && angle == 0 && !braceForm {
				j := g.skipTrivia(i + 1)
				if j < limit && g.statementKeywordAt(j) {
					return i, false
				}
			}
			i++
		default:
			i++
		}
	}
	return limit, false
}

var statementKeywords = [...]string{
	"import", "export", "const", "let", "var", "function", "class",
	"interface", "type", "enum", "namespace", "module", "declare",
	"abstract", "async",
}

// statementKeywordAt — эвристика ASI: строка, начинающаяся с ключевого слова
// оператора, открывает новый оператор.
func (g *generator) statementKeywordAt(i int) bool {
	for _, kw := range statementKeywords {
		if g.wordAt(i, kw) {
			return true
		}
	}
	return false
}
