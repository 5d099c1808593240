package bundle

import (
	"fmt"

	"dtsbundle/internal/source"
)

// WatchSink получает от трансформера файлы, изменение которых должно
// инвалидировать перестройку.
type WatchSink interface {
	WatchFiles(paths []string)
}

// WatchFunc адаптирует функцию к WatchSink.
type WatchFunc func(paths []string)

func (f WatchFunc) WatchFiles(paths []string) { f(paths) }

// TransformResult — вывод одной трансформации: декларационный текст и
// идентичность, под которой он уходит во внешний бандлинг.
type TransformResult struct {
	OutputID string
	Code     string
}

// Transformer решает за хост, что делать с каждым обходимым файлом:
// пропустить, отдать как декларацию или сгенерировать декларацию из
// исходника. Повторные запросы одной идентичности идемпотентны.
type Transformer struct {
	session *Session
	sink    WatchSink
}

// NewTransformer создаёт трансформер над сессией. sink может быть nil.
func NewTransformer(s *Session, sink WatchSink) *Transformer {
	return &Transformer{session: s, sink: sink}
}

// Transform обрабатывает один файл. (nil, nil) означает «без
// трансформации»: либо расширение не распознано, либо файл не найден и
// решать хосту.
func (t *Transformer) Transform(path string, raw []byte) (*TransformResult, error) {
	canon, err := source.Canon(path)
	if err != nil {
		return nil, fmt.Errorf("transform %s: %w", path, err)
	}
	switch source.KindOf(canon) {
	case source.KindDecl:
		return t.declaration(canon, raw)
	case source.KindJSON:
		return t.jsonModule(canon, raw)
	case source.KindSource:
		return t.sourceModule(canon, raw)
	}
	return nil, nil
}

// declaration отдаёт текст декларации под её собственной идентичностью.
func (t *Transformer) declaration(path string, raw []byte) (*TransformResult, error) {
	res, err := t.session.Resolve(path, raw)
	if err != nil || res == nil {
		return nil, err
	}
	t.reportWatch(path, res.Unit)
	return &TransformResult{OutputID: path, Code: string(res.Code)}, nil
}

// jsonModule эмитит декларацию JSON-модуля. Эмиссия всегда требует
// настоящего юнита: запись без него — нарушение контракта разрешения.
func (t *Transformer) jsonModule(path string, raw []byte) (*TransformResult, error) {
	res, err := t.session.Resolve(path, raw)
	if err != nil || res == nil {
		return nil, err
	}
	if res.Unit == nil {
		return nil, fmt.Errorf("transform %s: %w", path, ErrNoUnit)
	}
	text, err := res.Unit.Emit(path)
	if err != nil {
		return nil, err
	}
	t.reportWatch(path, res.Unit)
	return &TransformResult{OutputID: source.DeclarationPath(path), Code: text}, nil
}

// sourceModule сначала пробует производную декларационную идентичность:
// рядом может лежать рукописная декларация, а в режиме без программ сам
// исходник уже считается декларацией. Только если она не нашлась,
// декларация генерируется из исходника. Вывод в обеих ветках уходит под
// производной идентичностью.
func (t *Transformer) sourceModule(path string, raw []byte) (*TransformResult, error) {
	declID := source.DeclarationPath(path)
	res, err := t.session.Resolve(declID, raw)
	if err != nil {
		return nil, err
	}
	if res != nil {
		t.reportWatch(path, res.Unit)
		return &TransformResult{OutputID: declID, Code: string(res.Code)}, nil
	}
	res, err = t.session.Resolve(path, raw)
	if err != nil || res == nil {
		return nil, err
	}
	if res.Unit == nil {
		return nil, fmt.Errorf("transform %s: %w", path, ErrNoUnit)
	}
	text, err := res.Unit.Emit(path)
	if err != nil {
		return nil, err
	}
	t.reportWatch(path, res.Unit)
	return &TransformResult{OutputID: declID, Code: text}, nil
}

// reportWatch сообщает хосту файлы юнита под каталогом запрошенного
// файла. Наблюдаемость, не корректность: ошибки членства глотаются.
func (t *Transformer) reportWatch(path string, u *Unit) {
	if t.sink == nil || u == nil {
		return
	}
	files, err := u.FilesUnder(source.Dir(path))
	if err != nil || len(files) == 0 {
		return
	}
	t.sink.WatchFiles(files)
}
