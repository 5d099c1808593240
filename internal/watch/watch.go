// Package watch следит за файлами, от которых зависели собранные
// бандлы, и дёргает перестройку при их изменении. События файловой
// системы прилетают сериями (редакторы пишут во временный файл и
// переименовывают), поэтому изменения копятся и отдаются одним пакетом
// после паузы.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"dtsbundle/internal/source"
)

// DefaultDebounce — пауза тишины перед выдачей накопленных изменений.
const DefaultDebounce = 250 * time.Millisecond

// Handler получает пакет изменённых файлов (канонические пути,
// отсортированы).
type Handler func(changed []string)

// Watcher следит за набором файлов. Набор можно заменить после
// перестройки: новый бандл зависит от нового множества файлов.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	fn       Handler

	interested map[string]bool
	dirs       map[string]bool
	pending    *batch
}

// New создаёт вотчер над списком файлов. Слежение ведётся за
// каталогами: так ловится rename-запись, которой fsnotify по самому
// файлу не видит.
func New(paths []string, debounce time.Duration, fn Handler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		fs:         fsw,
		debounce:   debounce,
		fn:         fn,
		interested: make(map[string]bool),
		dirs:       make(map[string]bool),
		pending:    newBatch(),
	}
	if err := w.SetPaths(paths); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// SetPaths заменяет отслеживаемое множество файлов. Каталоги, ставшие
// ненужными, из слежения не убираются: лишние события отфильтрует
// interested.
func (w *Watcher) SetPaths(paths []string) error {
	w.interested = make(map[string]bool, len(paths))
	for _, p := range paths {
		canon, err := source.Canon(p)
		if err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		w.interested[canon] = true
		dir := source.Dir(canon)
		if w.dirs[dir] {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	return nil
}

// Close останавливает слежение.
func (w *Watcher) Close() error { return w.fs.Close() }

// Run крутит цикл событий до отмены контекста или гибели вотчера.
func (w *Watcher) Run(ctx context.Context) error {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			canon, err := source.Canon(ev.Name)
			if err != nil || !w.interested[canon] {
				continue
			}
			w.pending.add(canon)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		case <-fire:
			fire = nil
			if changed := w.pending.flush(); len(changed) > 0 && w.fn != nil {
				w.fn(changed)
			}
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	return ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) ||
		ev.Op.Has(fsnotify.Rename) || ev.Op.Has(fsnotify.Remove)
}
