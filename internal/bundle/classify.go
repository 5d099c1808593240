package bundle

import (
	"fmt"
	"strings"

	"dtsbundle/internal/source"
)

// Class — вердикт классификатора импортов.
type Class uint8

const (
	// ClassEntry: спецификатор без импортёра зарегистрирован точкой входа.
	ClassEntry Class = iota + 1
	// ClassResolved: импорт разрешён в абсолютную идентичность и войдёт
	// в бандл.
	ClassResolved
	// ClassExternal: импорт внешний и остаётся непрозрачным.
	ClassExternal
	// ClassUnresolved: резолвер не нашёл модуль; решает разрешение хоста.
	ClassUnresolved
)

func (c Class) String() string {
	switch c {
	case ClassEntry:
		return "entry"
	case ClassResolved:
		return "resolved"
	case ClassExternal:
		return "external"
	case ClassUnresolved:
		return "unresolved"
	}
	return "unknown"
}

// Classification — результат одного запроса классификации. Path заполнен
// для ClassEntry и ClassResolved.
type Classification struct {
	Class Class
	Path  string
}

// ClassifyImport обрабатывает запрос хоста на разрешение импорта.
// Пустой importer означает точку входа: спецификатор канонизируется от
// рабочего каталога процесса и регистрируется в сессии. Иначе импорт
// разрешается отн. каталога импортёра опциями его tsconfig.
//
// Неразрешённый импорт — не ошибка: вердикт ClassUnresolved отдаёт
// специфика хосту. Ошибка возвращается только за регистрацию после
// первого Resolve и за отказ канонизации.
func (s *Session) ClassifyImport(specifier, importer string) (Classification, error) {
	if importer == "" {
		path, err := s.registerEntry(specifier)
		if err != nil {
			return Classification{}, err
		}
		cls := Classification{Class: ClassEntry, Path: path}
		s.probe.ImportClassified(specifier, importer, cls.Class.String())
		return cls, nil
	}
	imp, err := source.Canon(importer)
	if err != nil {
		return Classification{}, fmt.Errorf("classify %s from %s: %w", specifier, importer, err)
	}
	cls := s.classify(specifier, imp)
	s.probe.ImportClassified(specifier, imp, cls.Class.String())
	return cls, nil
}

// classify применяет политику в фиксированном порядке: принудительное
// включение перечисленных пакетов, затем пометка внешних, затем
// разрешённая идентичность.
func (s *Session) classify(specifier, importer string) Classification {
	dir := source.Dir(importer)
	res, ok := s.res.Resolve(specifier, dir, s.optionsFor(dir))
	if !ok {
		return Classification{Class: ClassUnresolved}
	}
	if res.External {
		if s.force[packageName(specifier)] {
			return Classification{Class: ClassResolved, Path: res.Path}
		}
		if !s.cfg.RespectExternal {
			return Classification{Class: ClassExternal}
		}
	}
	return Classification{Class: ClassResolved, Path: res.Path}
}

// registerEntry канонизирует и регистрирует точку входа. Повторная
// регистрация той же идентичности схлопывается, позиция остаётся за
// первой.
func (s *Session) registerEntry(specifier string) (string, error) {
	if s.sealed {
		return "", fmt.Errorf("register entry %s: %w", specifier, ErrSessionSealed)
	}
	path, err := source.Canon(specifier)
	if err != nil {
		return "", fmt.Errorf("register entry %s: %w", specifier, err)
	}
	if !s.entrySet[path] {
		s.entrySet[path] = true
		s.entries = append(s.entries, path)
	}
	return path, nil
}

// packageName снимает имя пакета со спецификатора: @scope/name для
// скоупов, первый сегмент иначе. Относительный спецификатор именем
// пакета не является и ни с чем не совпадёт.
func packageName(specifier string) string {
	parts := strings.SplitN(specifier, "/", 3)
	if strings.HasPrefix(specifier, "@") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}
