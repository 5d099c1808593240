// Package bundle реализует оркестрацию разрешения модулей поверх пула
// компиляционных юнитов. Сессия живёт один прогон бандлера: сначала фаза
// регистрации точек входа, затем фаза разрешения, в которой пул растёт
// монотонно. Разделение программ — центральная оптимизация: файл,
// достижимый из уже созданного юнита, никогда не порождает второй юнит.
package bundle

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"dtsbundle/internal/compiler"
	"dtsbundle/internal/probe"
	"dtsbundle/internal/resolve"
	"dtsbundle/internal/source"
	"dtsbundle/internal/tsconfig"
)

// Overrides — переопределения опций компилятора поверх значений из
// tsconfig. Указатель отличает «не задано» от явного false.
type Overrides struct {
	AllowJS           *bool
	ResolveJSONModule *bool
}

// Config описывает сессию бандлинга.
type Config struct {
	// RespectExternal включает режим, в котором внешние модули
	// разрешаются в файлы вместо пометки external.
	RespectExternal bool
	// IncludeExternal перечисляет пакеты, принудительно включаемые в
	// бандл даже при выключенном RespectExternal.
	IncludeExternal []string
	// TsconfigPath — явный путь к tsconfig.json. Пусто = автопоиск
	// вверх от каталога каждого импортирующего файла.
	TsconfigPath string
	// Overrides накладываются на опции из любого найденного tsconfig.
	Overrides Overrides
	// MaxDiagnostics ограничивает сумку диагностик одной эмиссии,
	// 0 = compiler.DefaultMaxDiagnostics.
	MaxDiagnostics int
	// Probe наблюдает события разрешения, nil = probe.Nop.
	Probe probe.Probe
	// Files — файлсет сессии, nil = новый. Тесты подкладывают свой,
	// чтобы читать загруженные файлы.
	Files *source.FileSet
}

// Resolution — ответ на один запрос разрешения. Unit и File либо оба
// присутствуют, либо оба nil: запись без них — сырой текст без
// компиляционного контекста.
type Resolution struct {
	Code []byte
	Unit *Unit
	File *compiler.SourceFile
}

// Session — состояние одного прогона: точки входа, конфигурация и пул
// юнитов. Не потокобезопасна: хост сериализует запросы.
type Session struct {
	id    string
	cfg   Config
	fset  *source.FileSet
	res   *resolve.Resolver
	probe probe.Probe
	pool  *pool

	entries  []string
	entrySet map[string]bool
	sealed   bool

	// primary — опции явного tsconfig, выключают автопоиск.
	primary  *tsconfig.Options
	defaults *tsconfig.Options
	applied  map[*tsconfig.Options]*tsconfig.Options
	force    map[string]bool
}

// NewSession создаёт сессию. Явный tsconfig загружается сразу: битая
// конфигурация — ошибка вызова, а не скрытый откат к умолчаниям.
func NewSession(cfg Config) (*Session, error) {
	s := &Session{
		id:       uuid.NewString(),
		cfg:      cfg,
		fset:     cfg.Files,
		res:      resolve.New(),
		probe:    cfg.Probe,
		pool:     newPool(),
		entrySet: make(map[string]bool),
		applied:  make(map[*tsconfig.Options]*tsconfig.Options),
		force:    make(map[string]bool, len(cfg.IncludeExternal)),
	}
	if s.fset == nil {
		s.fset = source.NewFileSet()
	}
	if s.probe == nil {
		s.probe = probe.Nop
	}
	for _, name := range cfg.IncludeExternal {
		s.force[name] = true
	}
	s.defaults = overridden(tsconfig.Options{}, cfg.Overrides)
	if cfg.TsconfigPath != "" {
		c, err := tsconfig.Load(cfg.TsconfigPath)
		if err != nil {
			return nil, fmt.Errorf("session tsconfig %s: %w", cfg.TsconfigPath, err)
		}
		s.primary = overridden(c.Options, cfg.Overrides)
	}
	return s, nil
}

// ID возвращает уникальный идентификатор сессии.
func (s *Session) ID() string { return s.id }

// Files возвращает файлсет сессии.
func (s *Session) Files() *source.FileSet { return s.fset }

// Entries возвращает зарегистрированные точки входа в порядке
// регистрации.
func (s *Session) Entries() []string {
	return append([]string(nil), s.entries...)
}

// Units возвращает юниты пула в порядке создания.
func (s *Session) Units() []*Unit {
	return append([]*Unit(nil), s.pool.all()...)
}

// Resolve отвечает на запрос «дай декларационный текст файла». raw —
// текст, который хост уже держит для этой идентичности; он отдаётся как
// есть на нулевом быстром пути. Возвращает (nil, nil), когда файла нет
// ни на диске, ни в одном юните: отсутствие — нормальный исход, не
// ошибка. Первый вызов закрывает фазу регистрации точек входа.
func (s *Session) Resolve(path string, raw []byte) (*Resolution, error) {
	canon, err := source.Canon(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	s.sealed = true
	s.probe.BeginResolve(canon)
	res, outcome, err := s.resolveCanon(canon, raw)
	idx := -1
	if res != nil && res.Unit != nil {
		idx = res.Unit.Index()
	}
	s.probe.EndResolve(canon, outcome, idx)
	return res, err
}

// resolveCanon выполняет шаги разрешения над канонической идентичностью
// в строгом порядке. Нулевой исход означает ошибку ввода-вывода.
func (s *Session) resolveCanon(canon string, raw []byte) (*Resolution, probe.Outcome, error) {
	// Пустой пул и декларационное имя: компилировать нечего, текст
	// хоста уже в целевой форме.
	if s.pool.len() == 0 && source.IsDeclarationPath(canon) {
		return &Resolution{Code: raw}, probe.OutcomeRawDecl, nil
	}

	// Точку входа обслуживает только юнит, укоренённый в ней: юнит,
	// затянувший её как зависимость, не владеет её эмиссией.
	isEntry := s.entrySet[canon]
	for _, u := range s.pool.all() {
		matched := false
		if isEntry {
			matched = u.HasRoot(canon)
		} else {
			ok, err := u.Contains(canon)
			if err != nil {
				return nil, 0, err
			}
			if ok {
				ext, err := u.IsExternalMember(canon)
				if err != nil {
					return nil, 0, err
				}
				matched = !ext
			}
		}
		if !matched {
			continue
		}
		sf, ok, err := u.SourceFor(canon)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			return nil, 0, fmt.Errorf("resolve %s: unit %d lost its member", canon, u.Index())
		}
		return &Resolution{Code: sf.File.Content, Unit: u, File: sf}, probe.OutcomeExistingUnit, nil
	}

	// Декларация из node_modules, уже учтённая каким-то юнитом как
	// внешняя: сырой текст с диска вместо юнита на каждый файл
	// большого пакета типов.
	if s.pool.len() > 0 && source.IsDeclarationPath(canon) && s.fileExists(canon) {
		external, err := s.externallyTracked(canon)
		if err != nil {
			return nil, 0, err
		}
		if external {
			code, err := s.diskText(canon)
			if err != nil {
				return nil, 0, err
			}
			return &Resolution{Code: code}, probe.OutcomeExternalFast, nil
		}
	}

	if !s.fileExists(canon) {
		return nil, probe.OutcomeNotFound, nil
	}

	u, err := s.createUnit(canon)
	if err != nil {
		return nil, 0, err
	}
	sf, ok, err := u.SourceFor(canon)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, fmt.Errorf("resolve %s: fresh unit misses its root", canon)
	}
	return &Resolution{Code: sf.File.Content, Unit: u, File: sf}, probe.OutcomeNewUnit, nil
}

// externallyTracked сообщает, числится ли файл внешним членом хотя бы
// одного юнита.
func (s *Session) externallyTracked(canon string) (bool, error) {
	for _, u := range s.pool.all() {
		ext, err := u.IsExternalMember(canon)
		if err != nil {
			return false, err
		}
		if ext {
			return true, nil
		}
	}
	return false, nil
}

// createUnit строит юнит, укоренённый в canon, с опциями tsconfig его
// каталога и добавляет его в пул.
func (s *Session) createUnit(canon string) (*Unit, error) {
	prog, err := compiler.New(compiler.Config{
		Root:           canon,
		Options:        s.optionsFor(source.Dir(canon)),
		Files:          s.fset,
		Resolver:       s.res,
		MaxDiagnostics: s.cfg.MaxDiagnostics,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", canon, err)
	}
	u := &Unit{root: canon, prog: prog, probe: s.probe}
	if err := s.pool.add(u); err != nil {
		return nil, err
	}
	s.probe.UnitCreated(canon, s.pool.len())
	return u, nil
}

// optionsFor возвращает опции разрешения для каталога: явный tsconfig
// сессии, иначе ближайший найденный автопоиском, иначе умолчания. Битый
// tsconfig по пути автопоиска не валит сессию.
func (s *Session) optionsFor(dir string) *tsconfig.Options {
	if s.primary != nil {
		return s.primary
	}
	opts, err := s.res.OptionsFor(dir)
	if err != nil {
		return s.defaults
	}
	return s.withOverrides(opts)
}

// withOverrides накладывает переопределения сессии на опции. Резолвер
// отдаёт общие указатели, копия на каждый считается один раз.
func (s *Session) withOverrides(opts *tsconfig.Options) *tsconfig.Options {
	if s.cfg.Overrides == (Overrides{}) {
		return opts
	}
	if c, ok := s.applied[opts]; ok {
		return c
	}
	c := overridden(*opts, s.cfg.Overrides)
	s.applied[opts] = c
	return c
}

func overridden(opts tsconfig.Options, ov Overrides) *tsconfig.Options {
	if ov.AllowJS != nil {
		opts.AllowJS = *ov.AllowJS
	}
	if ov.ResolveJSONModule != nil {
		opts.ResolveJSONModule = *ov.ResolveJSONModule
	}
	return &opts
}

// fileExists проверяет существование файла: сначала файлсет (виртуальные
// и уже загруженные файлы), затем диск.
func (s *Session) fileExists(canon string) bool {
	if _, ok := s.fset.GetByPath(canon); ok {
		return true
	}
	info, err := os.Stat(canon)
	return err == nil && !info.IsDir()
}

// diskText читает текст файла через файлсет сессии, чтобы нормализация
// и идентичность совпадали с компиляционными членами.
func (s *Session) diskText(canon string) ([]byte, error) {
	if f, ok := s.fset.GetByPath(canon); ok {
		return f.Content, nil
	}
	id, err := s.fset.Load(canon)
	if err != nil {
		return nil, fmt.Errorf("resolve read %s: %w", canon, err)
	}
	return s.fset.Get(id).Content, nil
}
