package watch

import "sort"

// batch копит изменённые пути между срабатываниями дебаунса, без
// дублей.
type batch struct {
	seen  map[string]bool
	order []string
}

func newBatch() *batch {
	return &batch{seen: make(map[string]bool)}
}

func (b *batch) add(path string) {
	if b.seen[path] {
		return
	}
	b.seen[path] = true
	b.order = append(b.order, path)
}

func (b *batch) len() int { return len(b.order) }

// flush отдаёт накопленное отсортированным и очищает пакет.
func (b *batch) flush() []string {
	if len(b.order) == 0 {
		return nil
	}
	out := b.order
	sort.Strings(out)
	b.order = nil
	b.seen = make(map[string]bool)
	return out
}
