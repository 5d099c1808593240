package bundle

import (
	"dtsbundle/internal/compiler"
	"dtsbundle/internal/probe"
	"dtsbundle/internal/tsconfig"
)

// Unit — единица компиляции в пуле сессии: программа, укоренённая в
// одном файле, плюс её позиция в порядке создания. Юнит отвечает на
// вопросы членства и эмитит декларационный текст своих членов.
type Unit struct {
	index int
	root  string
	prog  *compiler.Program
	probe probe.Probe
}

// Index возвращает позицию юнита в пуле (порядок создания, с нуля).
func (u *Unit) Index() int { return u.index }

// Root возвращает корневую идентичность юнита.
func (u *Unit) Root() string { return u.root }

// HasRoot сообщает, укоренён ли юнит в path.
func (u *Unit) HasRoot(path string) bool { return u.root == path }

// Contains сообщает, входит ли файл в состав программы юнита.
func (u *Unit) Contains(path string) (bool, error) {
	return u.prog.Has(path)
}

// IsExternalMember сообщает, внесён ли член внешней зависимостью.
func (u *Unit) IsExternalMember(path string) (bool, error) {
	return u.prog.IsExternal(path)
}

// SourceFor возвращает член программы юнита по идентичности.
func (u *Unit) SourceFor(path string) (*compiler.SourceFile, bool, error) {
	return u.prog.SourceFor(path)
}

// Files возвращает членов юнита в порядке материализации.
func (u *Unit) Files() ([]string, error) {
	return u.prog.Files()
}

// FilesUnder возвращает членов юнита под каталогом dir.
func (u *Unit) FilesUnder(dir string) ([]string, error) {
	return u.prog.FilesUnder(dir)
}

// Options возвращает опции разрешения программы юнита.
func (u *Unit) Options() *tsconfig.Options { return u.prog.Options() }

// Emit эмитит декларационный текст члена path. Блокирующие диагностики
// фатальны: вместо частичного текста возвращается *EmitError с полной
// сумкой.
func (u *Unit) Emit(path string) (string, error) {
	text, bag, err := u.prog.Emit(path)
	if err != nil {
		return "", err
	}
	if bag.HasErrors() {
		u.probe.EmitBlocked(path, blockingCount(bag))
		return "", &EmitError{Path: path, Bag: bag}
	}
	return text, nil
}
