package resolve

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// packageInfo — подмножество package.json, влияющее на разрешение типов.
// Поля exports и typesVersions не поддерживаются: для деклараций хватает
// types/typings и main с заменой расширения.
type packageInfo struct {
	Name    string `json:"name"`
	Types   string `json:"types"`
	Typings string `json:"typings"`
	Main    string `json:"main"`
}

func (p *packageInfo) typesEntry() string {
	if p.Types != "" {
		return p.Types
	}
	return p.Typings
}

// packageAt читает и кэширует package.json каталога dir.
// nil означает, что файла нет или он не разбирается; отрицательный
// результат тоже кэшируется.
func (r *Resolver) packageAt(dir string) *packageInfo {
	path := filepath.Join(dir, "package.json")
	key := filepath.ToSlash(path)
	if info, ok := r.pkgCache.Get(key); ok {
		return info
	}
	var info *packageInfo
	// #nosec G304 -- путь составлен из каталога разрешения
	if raw, err := os.ReadFile(path); err == nil {
		var parsed packageInfo
		if json.Unmarshal(raw, &parsed) == nil {
			info = &parsed
		}
	}
	r.pkgCache.Add(key, info)
	return info
}
