// Package version несёт метаданные сборки dtsbundle, показываемые
// командой version. Строковые переменные подменяются через -ldflags.
package version

import "github.com/fatih/color"

var (
	// Version — семантическая версия CLI; сегменты подкрашены для
	// терминального вывода.
	Version = colorize("0", color.FgYellow) + "." +
		colorize("1", color.FgGreen) + "." +
		colorize("0", color.FgBlue) + "-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

func colorize(segment string, attr color.Attribute) string {
	return color.New(attr, color.Bold).Sprint(segment)
}
