package scan

// parseImport разбирает статический import, side-effect import, динамический
// import(...) и import-equals на верхнем уровне. Возвращает позицию после
// разобранной части и признак того, что оператор распознан.
func (s *scanner) parseImport(kwStart int) (int, bool) {
	src, n := s.src, s.n
	if !hasIsolatedWordAt(src, kwStart, "import") {
		return 0, false
	}
	i := kwStart + len("import")
	if i >= n {
		return i, true
	}
	// import.meta и прочие не-операторные употребления слова.
	if !(isSpace(src[i]) || src[i] == '{' || src[i] == '"' || src[i] == '\'' || src[i] == '*' || src[i] == '(') {
		return i, true
	}
	i = skipSpacesAndComments(src, i)

	typeOnly := false
	if hasWordAt(src, i, "type") {
		// `import type from "x"` импортирует default под именем type,
		// это не type-only форма.
		j := skipSpacesAndComments(src, i+len("type"))
		if !s.isFromClause(j) {
			typeOnly = true
			i = j
		}
	}

	// import "side-effect"
	if i < n && (src[i] == '"' || src[i] == '\'') {
		lit, start, end, next := stringLiteral(src, i)
		stmtEnd := s.statementEnd(next)
		if lit != "" {
			s.emit(Directive{
				Specifier: lit,
				Kind:      KindSideEffect,
				Spec:      s.span(start, end),
				Stmt:      s.span(kwStart, stmtEnd),
			})
		}
		return stmtEnd, true
	}

	// import("dynamic")
	if i < n && src[i] == '(' {
		lit, start, end, next, ok := s.callSpecifier(i)
		if ok {
			s.emit(Directive{
				Specifier: lit,
				Kind:      KindDynamic,
				Spec:      s.span(start, end),
				Stmt:      s.span(kwStart, next),
			})
		}
		return next, true
	}

	// import foo = require("./mod") — TS import-equals.
	if i < n && isIdentByte(src[i]) {
		j := i
		for j < n && isIdentByte(src[j]) {
			j++
		}
		k := skipSpacesAndComments(src, j)
		if k < n && src[k] == '=' {
			k = skipSpacesAndComments(src, k+1)
			if hasWordAt(src, k, "require") {
				p := skipSpacesAndComments(src, k+len("require"))
				if p < n && src[p] == '(' {
					lit, start, end, next, ok := s.callSpecifier(p)
					stmtEnd := s.statementEnd(next)
					if ok {
						s.emit(Directive{
							Specifier: lit,
							Kind:      KindRequire,
							TypeOnly:  typeOnly,
							Spec:      s.span(start, end),
							Stmt:      s.span(kwStart, stmtEnd),
						})
					}
					return stmtEnd, true
				}
			}
			// import A = Other.Namespace — алиас без зависимости.
			return k, true
		}
	}

	if i < n && src[i] == '{' && !typeOnly && allBracedNamesTyped(src, i) {
		typeOnly = true
	}
	return s.finishFromClause(kwStart, i, KindStatic, typeOnly)
}

// parseExport разбирает export-операторы. Директиву порождают только формы
// re-export с "from"; локальные экспорты пропускаются по границам оператора.
func (s *scanner) parseExport(kwStart int) (int, bool) {
	src, n := s.src, s.n
	if !hasIsolatedWordAt(src, kwStart, "export") {
		return 0, false
	}
	i := kwStart + len("export")
	if i >= n || !(isSpace(src[i]) || src[i] == '{' || src[i] == '*') {
		return i, true
	}
	i = skipSpacesAndComments(src, i)

	// export namespace/module с телом: внутренние экспорты являются членами
	// пространства имён, пропускаем тело целиком.
	if hasWordAt(src, i, "namespace") || s.isModuleBlock(i) {
		for i < n && src[i] != '{' {
			if i+1 < n && src[i] == '/' && src[i+1] == '/' {
				i = skipLineComment(src, i)
				continue
			}
			if i+1 < n && src[i] == '/' && src[i+1] == '*' {
				i = skipBlockComment(src, i)
				continue
			}
			i++
		}
		if i < n {
			i = skipBalancedBraces(src, i)
		}
		return i, true
	}

	// Локальные экспортируемые декларации не порождают директив,
	// главный цикл продолжит со следующего токена.
	for _, kw := range [...]string{"default", "const", "let", "var", "function", "async", "class", "abstract", "enum", "interface", "declare"} {
		if hasWordAt(src, i, kw) {
			return i, true
		}
	}

	typeOnly := false
	if hasWordAt(src, i, "type") {
		j := skipSpacesAndComments(src, i+len("type"))
		if j < n && (src[j] == '{' || src[j] == '*') {
			typeOnly = true
			i = j
		} else {
			// export type X = ... — локальный алиас.
			return i, true
		}
	}

	if i < n && src[i] == '{' {
		braceEnd := skipBalancedBraces(src, i)
		if !typeOnly && allBracedNamesTyped(src, i) {
			typeOnly = true
		}
		j := skipSpacesAndComments(src, braceEnd)
		if !hasWordAt(src, j, "from") {
			// export { A, B } — локальный список.
			return s.statementEnd(braceEnd), true
		}
		return s.finishFromClause(kwStart, j, KindExportFrom, typeOnly)
	}
	if i < n && src[i] == '*' {
		// `export * from` и `export * as ns from`: байтовый поиск from
		// проходит через опциональный алиас сам.
		return s.finishFromClause(kwStart, i+1, KindExportFrom, typeOnly)
	}
	return i, true
}

// finishFromClause ищет "from" после байндингов и читает спецификатор.
// Для сломанных операторов (опечатка вместо from) подбирается первый
// строковый литерал до конца строки.
func (s *scanner) finishFromClause(kwStart, i int, kind Kind, typeOnly bool) (int, bool) {
	src, n := s.src, s.n
	scanStart := i
	foundFrom := false
	for i < n {
		if hasWordAt(src, i, "from") {
			foundFrom = true
			break
		}
		if src[i] == ';' {
			break
		}
		if hasIsolatedWordAt(src, i, "import") || hasIsolatedWordAt(src, i, "export") {
			break
		}
		// Строка до from бывает только в сломанном операторе; пропуск
		// целиком защищает от ложного from внутри литерала.
		if src[i] == '"' || src[i] == '\'' || src[i] == '`' {
			i = skipString(src, i, src[i])
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
		i++
	}

	if foundFrom {
		i = skipSpacesAndComments(src, i+len("from"))
		if i < n && (src[i] == '"' || src[i] == '\'') {
			lit, start, end, next := stringLiteral(src, i)
			stmtEnd := s.statementEnd(next)
			if lit != "" {
				s.emit(Directive{
					Specifier: lit,
					Kind:      kind,
					TypeOnly:  typeOnly,
					Spec:      s.span(start, end),
					Stmt:      s.span(kwStart, stmtEnd),
				})
			}
			return stmtEnd, true
		}
		return i, true
	}

	j := scanStart
	for j < n {
		if j+1 < n && src[j] == '/' && src[j+1] == '/' {
			j = skipLineComment(src, j)
			continue
		}
		if j+1 < n && src[j] == '/' && src[j+1] == '*' {
			j = skipBlockComment(src, j)
			continue
		}
		b := src[j]
		if b == ';' || b == '\n' || b == '\r' {
			break
		}
		if b == '"' || b == '\'' {
			lit, start, end, next := stringLiteral(src, j)
			if lit != "" {
				s.emit(Directive{
					Specifier: lit,
					Kind:      kind,
					TypeOnly:  typeOnly,
					Spec:      s.span(start, end),
					Stmt:      s.span(kwStart, s.statementEnd(next)),
				})
			}
			return next, true
		}
		j++
	}
	return j, true
}

// parseCallForm разбирает import("x") и require("x") после ключевого слова.
// Вызов с нелитеральным аргументом директивой не считается, но пропускается
// целиком, чтобы не сбить учёт скобок.
func (s *scanner) parseCallForm(kwStart, kwLen int, kind Kind) (int, bool) {
	src, n := s.src, s.n
	i := skipSpacesAndComments(src, kwStart+kwLen)
	if i >= n || src[i] != '(' {
		return 0, false
	}
	lit, start, end, next, ok := s.callSpecifier(i)
	if ok {
		s.emit(Directive{
			Specifier: lit,
			Kind:      kind,
			Spec:      s.span(start, end),
			Stmt:      s.span(kwStart, next),
		})
	}
	return next, true
}

// callSpecifier читает аргументы вызова начиная с '('. Спецификатором
// считается только строковый литерал первым аргументом; остаток аргументов
// (import-атрибуты и пр.) пропускается до парной скобки.
func (s *scanner) callSpecifier(open int) (lit string, specStart, specEnd, next int, ok bool) {
	src, n := s.src, s.n
	i := skipSpacesAndComments(src, open+1)
	if i < n && (src[i] == '"' || src[i] == '\'') {
		lit, specStart, specEnd, i = stringLiteral(src, i)
		ok = lit != ""
	}
	depth := 1
	for i < n && depth > 0 {
		switch b := src[i]; b {
		case '(':
			depth++
			i++
		case ')':
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
	return lit, specStart, specEnd, i, ok
}

// statementEnd доводит оператор до конца: import-атрибуты (with/assert)
// и необязательная точка с запятой. Перевод строки завершает оператор.
func (s *scanner) statementEnd(i int) int {
	src, n := s.src, s.n
	end := i
	j := skipHSpaces(src, i)
	kwLen := 0
	switch {
	case hasWordAt(src, j, "with"):
		kwLen = len("with")
	case hasWordAt(src, j, "assert"):
		kwLen = len("assert")
	}
	if kwLen > 0 {
		k := skipSpacesAndComments(src, j+kwLen)
		if k < n && src[k] == '{' {
			end = skipBalancedBraces(src, k)
			j = skipHSpaces(src, end)
		}
	}
	if j < n && src[j] == ';' {
		return j + 1
	}
	return end
}

// skipDeclareBlock пропускает тело ambient-декларации declare module /
// global / namespace: импорты внутри относятся к объявляемому модулю,
// а не к файлу. Сокращённая форма `declare module "x";` тела не имеет.
func (s *scanner) skipDeclareBlock(i int) (int, bool) {
	src, n := s.src, s.n
	if !hasIsolatedWordAt(src, i, "declare") {
		return 0, false
	}
	j := skipSpaces(src, i+len("declare"))
	if !hasWordAt(src, j, "module") && !hasWordAt(src, j, "global") && !hasWordAt(src, j, "namespace") {
		return 0, false
	}
	for j < n && src[j] != '{' {
		if src[j] == ';' {
			return j + 1, true
		}
		if src[j] == '"' || src[j] == '\'' {
			j = skipString(src, j, src[j])
			continue
		}
		if j+1 < n && src[j] == '/' && src[j+1] == '/' {
			j = skipLineComment(src, j)
			continue
		}
		if j+1 < n && src[j] == '/' && src[j+1] == '*' {
			j = skipBlockComment(src, j)
			continue
		}
		j++
	}
	if j < n {
		j = skipBalancedBraces(src, j)
	}
	return j, true
}

// parseReference распознаёт triple-slash директивы
// /// <reference path="./x.d.ts" /> и /// <reference types="node" />.
// Прочие reference-формы (lib, no-default-lib) остаются комментариями.
func (s *scanner) parseReference(start int) (int, bool) {
	src, n := s.src, s.n
	if !hasPrefixAt(src, start, "///") {
		return 0, false
	}
	i := skipHSpaces(src, start+3)
	if !hasPrefixAt(src, i, "<reference") {
		return 0, false
	}
	i = skipHSpaces(src, i+len("<reference"))
	var kind Kind
	switch {
	case hasPrefixAt(src, i, "path"):
		kind = KindRefPath
		i += len("path")
	case hasPrefixAt(src, i, "types"):
		kind = KindRefTypes
		i += len("types")
	default:
		return 0, false
	}
	i = skipHSpaces(src, i)
	if i >= n || src[i] != '=' {
		return 0, false
	}
	i = skipHSpaces(src, i+1)
	if i >= n || (src[i] != '"' && src[i] != '\'') {
		return 0, false
	}
	lit, specStart, specEnd, _ := stringLiteral(src, i)
	lineEnd := start
	for lineEnd < n && src[lineEnd] != '\n' && src[lineEnd] != '\r' {
		lineEnd++
	}
	if lit == "" {
		return lineEnd, true
	}
	s.emit(Directive{
		Specifier: lit,
		Kind:      kind,
		Spec:      s.span(specStart, specEnd),
		Stmt:      s.span(start, lineEnd),
	})
	return lineEnd, true
}

// isFromClause проверяет, что с позиции i начинается `from "..."`.
func (s *scanner) isFromClause(i int) bool {
	if !hasWordAt(s.src, i, "from") {
		return false
	}
	j := skipSpacesAndComments(s.src, i+len("from"))
	return j < s.n && (s.src[j] == '"' || s.src[j] == '\'')
}

// isModuleBlock отличает `export module Foo {` от `export ... from "module"`.
func (s *scanner) isModuleBlock(i int) bool {
	if !hasWordAt(s.src, i, "module") {
		return false
	}
	j := skipSpacesAndComments(s.src, i+len("module"))
	return j < s.n && isIdentByte(s.src[j])
}
