package bundle

import "fmt"

// pool хранит юниты в порядке создания. Порядок — часть контракта:
// сканирование при разрешении идёт от старых юнитов к новым, поэтому
// файл, попавший в несколько программ, всегда отвечает из первой.
type pool struct {
	units  []*Unit
	byRoot map[string]*Unit
}

func newPool() *pool {
	return &pool{byRoot: make(map[string]*Unit)}
}

func (p *pool) add(u *Unit) error {
	root := u.Root()
	if _, ok := p.byRoot[root]; ok {
		return fmt.Errorf("pool add %s: %w", root, ErrDuplicateRoot)
	}
	u.index = len(p.units)
	p.units = append(p.units, u)
	p.byRoot[root] = u
	return nil
}

func (p *pool) len() int { return len(p.units) }

// all отдаёт юниты в порядке создания. Слайс общий, вызывающий не
// мутирует его.
func (p *pool) all() []*Unit { return p.units }

func (p *pool) rooted(root string) (*Unit, bool) {
	u, ok := p.byRoot[root]
	return u, ok
}
