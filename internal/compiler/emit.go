package compiler

import (
	"fmt"

	"dtsbundle/internal/declgen"
	"dtsbundle/internal/diag"
	"dtsbundle/internal/source"
)

type emitResult struct {
	text string
	bag  *diag.Bag
}

// Emit возвращает декларационный текст члена path и сумку диагностик
// эмиссии. Каждый файл эмитится один раз, повторные вызовы отдают
// кэшированный результат. Запрос не-члена — ErrNotMember.
//
// Сумка с ошибками означает, что текст неполон: решать, фатально ли
// это, должен вызывающий слой.
func (p *Program) Emit(path string) (string, *diag.Bag, error) {
	if err := p.ensure(); err != nil {
		return "", nil, err
	}
	if cached, ok := p.emits[path]; ok {
		return cached.text, cached.bag, nil
	}
	sf, ok := p.members[path]
	if !ok {
		return "", nil, fmt.Errorf("emit %s: %w", path, ErrNotMember)
	}
	bag := diag.NewBag(p.maxDiags)
	rep := diag.BagReporter{Bag: bag}
	var text string
	switch sf.Kind {
	case source.KindDecl:
		// декларация уже в целевой форме
		text = string(sf.File.Content)
	case source.KindJSON:
		text = declgen.JSON(sf.File, rep)
	case source.KindSource:
		text = declgen.Source(sf.File, rep)
	default:
		// KindUnknown: файл мог попасть в состав точным разрешением,
		// но декларационного текста у него нет
	}
	p.emits[path] = &emitResult{text: text, bag: bag}
	return text, bag, nil
}
