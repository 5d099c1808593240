// Package compiler владеет программами компиляции: корень, опции
// разрешения и лениво материализуемый граф достижимых файлов. Программа
// не проверяет типы — она знает состав модуля, помечает членов из
// node_modules как внешние и эмитит декларационный текст каждого члена
// через declgen.
package compiler

import (
	"errors"
	"fmt"

	"dtsbundle/internal/resolve"
	"dtsbundle/internal/scan"
	"dtsbundle/internal/source"
	"dtsbundle/internal/tsconfig"
)

var (
	// ErrNoRoot возвращается конструктором без корневого файла.
	ErrNoRoot = errors.New("program needs a root file")
	// ErrNoHost возвращается конструктором без файлсета или резолвера.
	ErrNoHost = errors.New("program needs a file set and a resolver")
	// ErrNotMember возвращается эмиссией для файла вне программы.
	ErrNotMember = errors.New("file is not a member of the program")
)

// DefaultMaxDiagnostics ограничивает сумку диагностик одной эмиссии.
const DefaultMaxDiagnostics = 100

// Config описывает вход конструктора программы.
type Config struct {
	Root           string            // путь корневого файла
	Options        *tsconfig.Options // опции разрешения, nil = значения по умолчанию
	Files          *source.FileSet   // общий файлсет сессии
	Resolver       *resolve.Resolver // общий резолвер сессии
	MaxDiagnostics int               // ёмкость сумки эмиссии, 0 = DefaultMaxDiagnostics
}

// SourceFile — член программы: идентичность, вид, признак внешности и
// снятые сканером директивы импорта.
type SourceFile struct {
	Path       string
	Kind       source.FileKind
	External   bool // вклад внешней зависимости (node_modules)
	File       *source.File
	Directives []scan.Directive
}

// Program — компиляционная единица: неизменяемые корни и лениво
// растущий состав. Методы не потокобезопасны: программа живёт внутри
// однопоточной сессии.
type Program struct {
	roots    []string
	opts     *tsconfig.Options
	fset     *source.FileSet
	res      *resolve.Resolver
	maxDiags int

	built    bool
	buildErr error
	members  map[string]*SourceFile
	order    []string
	emits    map[string]*emitResult
}

// New создаёт программу с единственным корнем. Граф не строится до
// первого обращения к составу или эмиссии.
func New(cfg Config) (*Program, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("compiler: %w", ErrNoRoot)
	}
	if cfg.Files == nil || cfg.Resolver == nil {
		return nil, fmt.Errorf("compiler: %w", ErrNoHost)
	}
	root, err := source.Canon(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("compiler: root %s: %w", cfg.Root, err)
	}
	maxDiags := cfg.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = DefaultMaxDiagnostics
	}
	return &Program{
		roots:    []string{root},
		opts:     cfg.Options,
		fset:     cfg.Files,
		res:      cfg.Resolver,
		maxDiags: maxDiags,
		emits:    make(map[string]*emitResult),
	}, nil
}

// Roots возвращает корневые идентичности в порядке создания.
func (p *Program) Roots() []string {
	return append([]string(nil), p.roots...)
}

// Options возвращает опции разрешения программы.
func (p *Program) Options() *tsconfig.Options {
	return p.opts
}

// Files возвращает членов программы в порядке материализации.
func (p *Program) Files() ([]string, error) {
	if err := p.ensure(); err != nil {
		return nil, err
	}
	return append([]string(nil), p.order...), nil
}

// Has сообщает, входит ли файл в состав программы.
func (p *Program) Has(path string) (bool, error) {
	if err := p.ensure(); err != nil {
		return false, err
	}
	_, ok := p.members[path]
	return ok, nil
}

// IsExternal сообщает, внесён ли член внешней зависимостью.
// Для не-члена всегда false.
func (p *Program) IsExternal(path string) (bool, error) {
	if err := p.ensure(); err != nil {
		return false, err
	}
	sf, ok := p.members[path]
	return ok && sf.External, nil
}

// SourceFor возвращает член программы по идентичности.
func (p *Program) SourceFor(path string) (*SourceFile, bool, error) {
	if err := p.ensure(); err != nil {
		return nil, false, err
	}
	sf, ok := p.members[path]
	return sf, ok, nil
}

// FilesUnder возвращает членов под каталогом dir в порядке
// материализации. Каталог — каноническая идентичность.
func (p *Program) FilesUnder(dir string) ([]string, error) {
	if err := p.ensure(); err != nil {
		return nil, err
	}
	var files []string
	for _, path := range p.order {
		if source.Within(dir, path) {
			files = append(files, path)
		}
	}
	return files, nil
}

// ensure материализует граф достижимых файлов обходом в ширину от
// корней. Внешние члены тоже обходятся: их транзитивные файлы входят в
// состав с External=true. Ошибка чтения фиксируется и возвращается на
// каждом последующем обращении.
func (p *Program) ensure() error {
	if p.built {
		return p.buildErr
	}
	p.built = true
	p.members = make(map[string]*SourceFile)
	queue := append([]string(nil), p.roots...)
	seen := make(map[string]bool, len(queue))
	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		if seen[path] {
			continue
		}
		seen[path] = true
		sf, err := p.load(path)
		if err != nil {
			p.buildErr = err
			return err
		}
		p.members[sf.Path] = sf
		p.order = append(p.order, sf.Path)
		dir := source.Dir(sf.Path)
		for _, d := range sf.Directives {
			res, ok := p.resolveDirective(d, dir)
			if !ok {
				// неразрешённый импорт — не ошибка программы,
				// о нём сообщает классификатор
				continue
			}
			if !seen[res.Path] {
				queue = append(queue, res.Path)
			}
		}
	}
	return nil
}

func (p *Program) resolveDirective(d scan.Directive, dir string) (resolve.Result, bool) {
	if d.Kind == scan.KindRefTypes {
		return p.res.ResolveTypes(d.Specifier, dir, p.opts)
	}
	return p.res.Resolve(d.Specifier, dir, p.opts)
}

// load читает файл в файлсет (или берёт уже загруженный) и снимает
// директивы импорта. JSON и неизвестные виды директив не имеют.
func (p *Program) load(path string) (*SourceFile, error) {
	file, ok := p.fset.GetByPath(path)
	if !ok {
		id, err := p.fset.Load(path)
		if err != nil {
			return nil, fmt.Errorf("program load: %w", err)
		}
		file = p.fset.Get(id)
	}
	sf := &SourceFile{
		Path:     file.Path,
		Kind:     file.Kind,
		External: resolve.IsExternal(file.Path),
		File:     file,
	}
	if sf.Kind == source.KindDecl || sf.Kind == source.KindSource {
		sf.Directives = scan.File(file)
	}
	return sf, nil
}
