package resolve

import (
	"path/filepath"

	"dtsbundle/internal/tsconfig"
)

// noOptions отдаётся для каталогов без tsconfig. Общий экземпляр,
// вызывающие стороны его не изменяют.
var noOptions = &tsconfig.Options{}

// OptionsFor возвращает опции tsconfig, управляющего каталогом dir.
// Поиск вверх по дереву и разбор конфига кэшируются: по каталогу и по
// пути найденного файла, так что общий tsconfig монорепы разбирается
// один раз.
func (r *Resolver) OptionsFor(dir string) (*tsconfig.Options, error) {
	key := filepath.ToSlash(dir)
	if opts, ok := r.dirCache.Get(key); ok {
		return opts, nil
	}

	path, found, err := tsconfig.Find(dir)
	if err != nil {
		return nil, err
	}
	if !found {
		r.dirCache.Add(key, noOptions)
		return noOptions, nil
	}

	cfgKey := filepath.ToSlash(path)
	if opts, ok := r.cfgCache.Get(cfgKey); ok {
		r.dirCache.Add(key, opts)
		return opts, nil
	}

	cfg, err := tsconfig.Load(path)
	if err != nil {
		return nil, err
	}
	opts := &cfg.Options
	r.cfgCache.Add(cfgKey, opts)
	r.dirCache.Add(key, opts)
	return opts, nil
}
