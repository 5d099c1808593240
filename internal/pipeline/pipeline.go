// Package pipeline — хостовый конвейер бандлинга: один прогон на цель.
// Конвейер регистрирует точки входа, обходит граф импортов поверх уже
// трансформированного декларационного текста, отдаёт упорядоченные
// чанки рендеру и пишет результат в выходной каталог. Ядро разрешения
// живёт в bundle; конвейер лишь сериализует запросы к нему и ведёт
// события прогресса и тайминги стадий.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"dtsbundle/internal/bundle"
	"dtsbundle/internal/diag"
	"dtsbundle/internal/probe"
	"dtsbundle/internal/render"
	"dtsbundle/internal/source"
)

// Target описывает одну цель бандлинга.
type Target struct {
	Name            string
	Entries         []string // пути точек входа, любые; канонизируются сессией
	OutDir          string
	TsconfigPath    string
	RespectExternal bool
	IncludeExternal []string
	Overrides       bundle.Overrides
	MaxDiagnostics  int
}

// Request конфигурирует прогон конвейера.
type Request struct {
	Target   Target
	Probe    probe.Probe     // nil = probe.Nop
	Progress ProgressSink    // nil = без событий
	Files    *source.FileSet // nil = новый; тесты подкладывают свой
}

// Output — один записанный бандл.
type Output struct {
	Entry string // каноническая точка входа
	Path  string // путь записанного файла
	Bytes int
}

// Result — итог прогона одной цели.
type Result struct {
	SessionID  string
	Outputs    []Output
	WatchFiles []string // файлы для инвалидации перестройки, отсортированы
	Externals  []string // внешние спецификаторы, оставшиеся непрозрачными
	Timings    Timings
}

// ErrNoEntries возвращается для цели без точек входа.
var ErrNoEntries = errors.New("target has no entries")

// Run выполняет один прогон цели: регистрация, прогрев пула, обход,
// рендер, запись. Ошибка эмиссии фатальна для всей цели; отсутствие
// точки входа на диске — тоже.
func Run(ctx context.Context, req *Request) (Result, error) {
	var result Result
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing pipeline request")
	}
	tgt := req.Target
	if len(tgt.Entries) == 0 {
		return result, fmt.Errorf("target %q: %w", tgt.Name, ErrNoEntries)
	}
	if tgt.OutDir == "" {
		return result, fmt.Errorf("target %q: missing output directory", tgt.Name)
	}

	session, err := bundle.NewSession(bundle.Config{
		RespectExternal: tgt.RespectExternal,
		IncludeExternal: tgt.IncludeExternal,
		TsconfigPath:    tgt.TsconfigPath,
		Overrides:       tgt.Overrides,
		MaxDiagnostics:  tgt.MaxDiagnostics,
		Probe:           req.Probe,
		Files:           req.Files,
	})
	if err != nil {
		return result, err
	}
	result.SessionID = session.ID()

	w := newWalker(session, req.Progress)

	// Фаза регистрации: все точки входа до первого Resolve.
	for _, entry := range tgt.Entries {
		if _, err := session.ClassifyImport(entry, ""); err != nil {
			return result, err
		}
	}
	entries := session.Entries()
	for _, entry := range entries {
		emitEvent(req.Progress, Event{File: entry, Stage: StageResolve, Status: StatusQueued})
	}

	// Прогрев пула: неисходная точка входа компилируется сразу, чтобы
	// первый трансформ исходника не увидел пустой пул. Чисто
	// декларационная сессия ничего не прогревает и остаётся без
	// программ, но существование на диске проверяется у каждой точки
	// входа: разрешение деклараций отдаёт текст хоста не глядя на диск
	// и пропажу само не заметит.
	start := time.Now()
	for _, entry := range entries {
		raw, ok := w.rawText(entry)
		if !ok {
			return result, w.entryMissing(entry)
		}
		if source.IsDeclarationPath(entry) {
			continue
		}
		res, err := session.Resolve(entry, raw)
		if err != nil {
			return result, w.fatal(entry, err)
		}
		if res == nil {
			return result, w.entryMissing(entry)
		}
	}
	result.Timings.Add(StageResolve, time.Since(start))

	// Обход и рендер по точкам входа.
	outDir := filepath.FromSlash(tgt.OutDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return result, fmt.Errorf("target %q: %w", tgt.Name, err)
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		chunks, err := w.bundleEntry(ctx, entry)
		if err != nil {
			return result, err
		}

		renderStart := time.Now()
		included := make(map[string]bool, len(chunks))
		for _, c := range chunks {
			included[c.ID] = true
		}
		emitEvent(req.Progress, Event{File: entry, Stage: StageRender, Status: StatusWorking})
		text := render.Bundle(chunks, render.Options{
			BaseDir:  source.Dir(entry),
			Classify: w.renderDecision(included),
		})
		result.Timings.Add(StageRender, time.Since(renderStart))

		writeStart := time.Now()
		outPath := filepath.Join(outDir, source.DeclarationPath(source.BaseName(entry)))
		if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
			emitEvent(req.Progress, Event{File: entry, Stage: StageWrite, Status: StatusError, Err: err})
			return result, fmt.Errorf("target %q: write %s: %w", tgt.Name, outPath, err)
		}
		result.Timings.Add(StageWrite, time.Since(writeStart))
		emitEvent(req.Progress, Event{
			File: entry, Stage: StageWrite, Status: StatusDone,
			Elapsed: time.Since(renderStart),
		})
		result.Outputs = append(result.Outputs, Output{
			Entry: entry,
			Path:  filepath.ToSlash(outPath),
			Bytes: len(text),
		})
	}

	result.Timings.Add(StageResolve, w.resolveSpent)
	result.Timings.Add(StageEmit, w.emitSpent)
	result.WatchFiles = sortedKeys(w.watch)
	result.Externals = sortedKeys(w.externals)
	return result, nil
}

// fatal оборачивает ошибку обхода; блокирующие диагностики эмиссии
// рендерятся в текст ошибки целиком.
func (w *walker) fatal(path string, err error) error {
	var emitErr *bundle.EmitError
	if errors.As(err, &emitErr) {
		rendered := diag.FormatGoldenDiagnostics(emitErr.Bag.Items(), w.session.Files(), true)
		emitEvent(w.progress, Event{File: path, Stage: StageEmit, Status: StatusError, Err: err})
		return fmt.Errorf("%w\n%s", err, rendered)
	}
	emitEvent(w.progress, Event{File: path, Stage: StageResolve, Status: StatusError, Err: err})
	return err
}

func (w *walker) entryMissing(entry string) error {
	err := fmt.Errorf("entry point %s: %s", entry, diag.ResEntryNotFound.Title())
	emitEvent(w.progress, Event{File: entry, Stage: StageResolve, Status: StatusError, Err: err})
	return err
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
