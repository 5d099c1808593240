// Package config загружает манифест инструмента dtsbundle.toml: цели
// бандлинга, политику внешних пакетов и переопределения опций
// компилятора. Манифест ищется подъёмом от стартового каталога, как
// tsconfig, и разбирается строго: неизвестный ключ — ошибка
// конфигурации до начала сессии.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"dtsbundle/internal/source"
)

// FileName — имя манифеста проекта.
const FileName = "dtsbundle.toml"

var (
	// ErrNoTargets возвращается для манифеста без единой цели.
	ErrNoTargets = errors.New("manifest declares no targets")
	// ErrTargetNoEntries возвращается для цели без точек входа.
	ErrTargetNoEntries = errors.New("target declares no entries")
)

// Defaults — секция [bundle]: значения, наследуемые каждой целью.
type Defaults struct {
	OutDir          string   `toml:"out_dir"`
	Tsconfig        string   `toml:"tsconfig"`
	RespectExternal bool     `toml:"respect_external"`
	IncludeExternal []string `toml:"include_external"`
}

// Compiler — секция [compiler]: переопределения поверх tsconfig.
// Указатели отличают «не задано» от явного false.
type Compiler struct {
	AllowJS           *bool `toml:"allow_js"`
	ResolveJSONModule *bool `toml:"resolve_json_module"`
}

// Target — элемент [[target]]. Пустые поля наследуют [bundle].
type Target struct {
	Name            string   `toml:"name"`
	Entries         []string `toml:"entries"`
	OutDir          string   `toml:"out_dir"`
	Tsconfig        string   `toml:"tsconfig"`
	RespectExternal *bool    `toml:"respect_external"`
	IncludeExternal []string `toml:"include_external"`
}

// Manifest — разобранный dtsbundle.toml вместе с местом находки.
type Manifest struct {
	Path string // путь файла манифеста
	Root string // каталог манифеста, база относительных путей

	Bundle   Defaults
	Compiler Compiler
	Targets  []Target
}

type rawManifest struct {
	Bundle   Defaults `toml:"bundle"`
	Compiler Compiler `toml:"compiler"`
	Target   []Target `toml:"target"`
}

// Find ищет dtsbundle.toml подъёмом от startDir к корню файловой
// системы. Отсутствие манифеста — не ошибка: инструмент умеет работать
// от явных аргументов.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("config: resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("config: stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load разбирает манифест по пути и валидирует цели. Пути точек входа
// и выходных каталогов канонизируются относительно каталога манифеста.
func Load(path string) (*Manifest, error) {
	var raw rawManifest
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m := &Manifest{
		Path:     filepath.ToSlash(abs),
		Root:     source.Dir(filepath.ToSlash(abs)),
		Bundle:   raw.Bundle,
		Compiler: raw.Compiler,
		Targets:  raw.Target,
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	m.resolvePaths()
	return m, nil
}

// LoadForDir находит и загружает манифест, управляющий каталогом dir.
func LoadForDir(dir string) (*Manifest, bool, error) {
	path, ok, err := Find(dir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

func (m *Manifest) validate() error {
	if len(m.Targets) == 0 {
		return fmt.Errorf("%s: %w", m.Path, ErrNoTargets)
	}
	seen := make(map[string]bool, len(m.Targets))
	for i := range m.Targets {
		t := &m.Targets[i]
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("%s: target #%d: missing name", m.Path, i+1)
		}
		if seen[t.Name] {
			return fmt.Errorf("%s: duplicate target %q", m.Path, t.Name)
		}
		seen[t.Name] = true
		if len(t.Entries) == 0 {
			return fmt.Errorf("%s: target %q: %w", m.Path, t.Name, ErrTargetNoEntries)
		}
	}
	return nil
}

// resolvePaths канонизирует пути манифеста относительно его каталога.
func (m *Manifest) resolvePaths() {
	if m.Bundle.OutDir != "" {
		m.Bundle.OutDir = source.CanonIn(m.Root, m.Bundle.OutDir)
	}
	if m.Bundle.Tsconfig != "" {
		m.Bundle.Tsconfig = source.CanonIn(m.Root, m.Bundle.Tsconfig)
	}
	for i := range m.Targets {
		t := &m.Targets[i]
		for j, e := range t.Entries {
			t.Entries[j] = source.CanonIn(m.Root, e)
		}
		if t.OutDir != "" {
			t.OutDir = source.CanonIn(m.Root, t.OutDir)
		}
		if t.Tsconfig != "" {
			t.Tsconfig = source.CanonIn(m.Root, t.Tsconfig)
		}
	}
}

// Effective возвращает цель с подставленными наследуемыми значениями
// секции [bundle]. Списки include_external объединяются без дублей:
// принудительное включение пакета нельзя отменить на уровне цели.
func (m *Manifest) Effective(t Target) Target {
	if t.OutDir == "" {
		t.OutDir = m.Bundle.OutDir
	}
	if t.OutDir == "" {
		t.OutDir = source.CanonIn(m.Root, "dist")
	}
	if t.Tsconfig == "" {
		t.Tsconfig = m.Bundle.Tsconfig
	}
	if t.RespectExternal == nil {
		v := m.Bundle.RespectExternal
		t.RespectExternal = &v
	}
	t.IncludeExternal = mergeNames(m.Bundle.IncludeExternal, t.IncludeExternal)
	return t
}

func mergeNames(base, extra []string) []string {
	if len(extra) == 0 {
		return append([]string(nil), base...)
	}
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, lst := range [][]string{base, extra} {
		for _, name := range lst {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
