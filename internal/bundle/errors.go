package bundle

import (
	"errors"
	"fmt"

	"dtsbundle/internal/diag"
)

var (
	// ErrSessionSealed возвращается на попытку регистрации точки входа
	// после первого Resolve.
	ErrSessionSealed = errors.New("session is sealed: entries must be registered before resolution")
	// ErrDuplicateRoot возвращается пулом при попытке добавить юнит с уже
	// занятым корнем.
	ErrDuplicateRoot = errors.New("unit with this root already exists in the pool")
	// ErrNoUnit возвращается трансформером, когда разрешение отдало текст
	// без компиляционного юнита там, где юнит обязателен.
	ErrNoUnit = errors.New("resolution carries no compilation unit")
)

// EmitError — фатальная ошибка эмиссии: юнит сообщил блокирующие
// диагностики, частичный вывод для файла не публикуется. Сумка несёт
// полный текст диагностик для рендеринга вызывающим слоем.
type EmitError struct {
	Path string
	Bag  *diag.Bag
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("declaration emit blocked for %s: %d blocking diagnostic(s)",
		e.Path, blockingCount(e.Bag))
}

// blockingCount считает диагностики уровня error в сумке.
func blockingCount(bag *diag.Bag) int {
	if bag == nil {
		return 0
	}
	n := 0
	for _, d := range bag.Items() {
		if d.Severity == diag.SevError {
			n++
		}
	}
	return n
}
