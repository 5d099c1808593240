package pipeline

import (
	"context"
	"fmt"
	"time"

	"dtsbundle/internal/bundle"
	"dtsbundle/internal/render"
	"dtsbundle/internal/scan"
	"dtsbundle/internal/source"
)

// walker ведёт обход графа импортов одной цели. Кэш трансформаций общий
// для всех точек входа цели: повторный запрос одной идентичности
// идемпотентен, так что результат достаточно посчитать один раз.
type walker struct {
	session     *bundle.Session
	transformer *bundle.Transformer
	progress    ProgressSink

	cache     map[string]*bundle.TransformResult // nil-значение = «без трансформации»
	dirCache  map[string][]scan.Directive        // директивы по выходной идентичности
	scratch   *source.FileSet                    // файлсет для сканирования выведенного текста
	watch     map[string]bool
	externals map[string]bool
	misses    map[string]bool

	resolveSpent time.Duration
	emitSpent    time.Duration
}

func newWalker(session *bundle.Session, progress ProgressSink) *walker {
	w := &walker{
		session:   session,
		progress:  progress,
		cache:     make(map[string]*bundle.TransformResult),
		dirCache:  make(map[string][]scan.Directive),
		scratch:   source.NewFileSet(),
		watch:     make(map[string]bool),
		externals: make(map[string]bool),
		misses:    make(map[string]bool),
	}
	w.transformer = bundle.NewTransformer(session, bundle.WatchFunc(func(paths []string) {
		for _, p := range paths {
			w.watch[p] = true
		}
	}))
	return w
}

// bundleEntry обходит граф точки входа в глубину и возвращает чанки в
// пост-порядке: зависимости раньше импортёров, сама точка входа —
// последней.
func (w *walker) bundleEntry(ctx context.Context, entry string) ([]render.Chunk, error) {
	visited := make(map[string]bool)
	stack := make(map[string]bool)
	var chunks []render.Chunk
	if err := w.visit(ctx, entry, visited, stack, &chunks); err != nil {
		return nil, err
	}
	if w.misses[entry] {
		return nil, w.entryMissing(entry)
	}
	return chunks, nil
}

func (w *walker) visit(ctx context.Context, path string, visited, stack map[string]bool, chunks *[]render.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if visited[path] || stack[path] {
		// повторное посещение или цикл импортов: чанк уже будет (или
		// уже есть) в бандле, углубляться некуда
		return nil
	}
	stack[path] = true
	defer delete(stack, path)

	res, err := w.transform(path)
	if err != nil {
		return err
	}
	if res == nil {
		// нет трансформации: нераспознанное расширение или файл не
		// найден; фатально это только для точки входа, решает вызывающий
		visited[path] = true
		w.misses[path] = true
		return nil
	}
	w.watch[path] = true

	for _, d := range w.directives(res) {
		cls, err := w.session.ClassifyImport(d.Specifier, path)
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		switch cls.Class {
		case bundle.ClassResolved:
			if err := w.visit(ctx, cls.Path, visited, stack, chunks); err != nil {
				return err
			}
		case bundle.ClassExternal:
			w.externals[d.Specifier] = true
		case bundle.ClassUnresolved:
			// разрешение хоста по умолчанию; probe уже записал событие
		}
	}

	visited[path] = true
	*chunks = append(*chunks, render.Chunk{ID: res.OutputID, Code: res.Code})
	return nil
}

// transform прогоняет файл через машину решений с кэшированием по
// идентичности. Время декларационных запросов ложится на стадию
// resolve, остальных — на emit.
func (w *walker) transform(path string) (*bundle.TransformResult, error) {
	if res, ok := w.cache[path]; ok {
		return res, nil
	}
	raw, _ := w.rawText(path)
	emitEvent(w.progress, Event{File: path, Stage: StageResolve, Status: StatusWorking})

	start := time.Now()
	res, err := w.transformer.Transform(path, raw)
	spent := time.Since(start)
	if source.KindOf(path) == source.KindDecl {
		w.resolveSpent += spent
	} else {
		w.emitSpent += spent
	}
	if err != nil {
		return nil, w.fatal(path, err)
	}
	w.cache[path] = res
	if res != nil {
		emitEvent(w.progress, Event{File: path, Stage: StageResolve, Status: StatusDone, Elapsed: spent})
	}
	return res, nil
}

// rawText отдаёт нормализованный текст файла через файлсет сессии.
// Отсутствие файла — не ошибка обхода: трансформер сам вернёт «не
// найдено».
func (w *walker) rawText(path string) ([]byte, bool) {
	fset := w.session.Files()
	if f, ok := fset.GetByPath(path); ok {
		return f.Content, true
	}
	id, err := fset.Load(path)
	if err != nil {
		return nil, false
	}
	return fset.Get(id).Content, true
}

// directives сканирует выведенный декларационный текст. Кэш по выходной
// идентичности: один и тот же чанк нужен и обходу, и рендеру.
func (w *walker) directives(res *bundle.TransformResult) []scan.Directive {
	if dirs, ok := w.dirCache[res.OutputID]; ok {
		return dirs
	}
	f := w.scratch.Get(w.scratch.AddVirtual(res.OutputID, []byte(res.Code)))
	dirs := scan.File(f)
	w.dirCache[res.OutputID] = dirs
	return dirs
}

// renderDecision строит классификатор для рендера: импорты чанков этого
// бандла вырезаются, внешние поднимаются, неразрешённые остаются на
// месте.
func (w *walker) renderDecision(included map[string]bool) render.Classifier {
	return func(chunkID string, d scan.Directive) render.Decision {
		cls, err := w.session.ClassifyImport(d.Specifier, chunkID)
		if err != nil {
			return render.Keep
		}
		switch cls.Class {
		case bundle.ClassResolved:
			if included[source.DeclarationPath(cls.Path)] {
				return render.Prune
			}
		case bundle.ClassExternal:
			return render.Hoist
		}
		return render.Keep
	}
}
