package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"dtsbundle/internal/pipeline"
	"dtsbundle/internal/ui"
)

type bundleOutcome struct {
	result pipeline.Result
	err    error
}

// runTargetWithUI выполняет цель под Bubble Tea: прогон идёт в горутине
// и шлёт события в модель, результат возвращается после закрытия UI.
func runTargetWithUI(ctx context.Context, title string, tgt pipeline.Target) (pipeline.Result, error) {
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan bundleOutcome, 1)

	go func() {
		res, err := runTarget(ctx, tgt, pipeline.ChannelSink{Ch: events}, false)
		outcomeCh <- bundleOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, tgt.Entries, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
