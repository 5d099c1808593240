// Package main implements the dtsbundle CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"dtsbundle/internal/pipeline"
	"dtsbundle/internal/probe"
	"dtsbundle/internal/watch"
)

var bundleCmd = &cobra.Command{
	Use:   "bundle [flags] [entry ...]",
	Short: "Bundle declaration files for one or more entry points",
	Long: `Bundle TypeScript declarations. Entry points come from the command line or,
when no arguments are given, from the [[target]] sections of dtsbundle.toml.`,
	Args: cobra.ArbitraryArgs,
	RunE: bundleExecution,
}

func init() {
	bundleCmd.Flags().String("out", "", "output directory for command-line entries (default \"dist\")")
	bundleCmd.Flags().String("name", "", "target name for command-line entries")
	bundleCmd.Flags().String("tsconfig", "", "explicit tsconfig.json path (default: per-directory discovery)")
	bundleCmd.Flags().Bool("respect-external", false, "resolve external modules into the bundle instead of leaving them opaque")
	bundleCmd.Flags().StringSlice("include-external", nil, "package names to force-include despite being external")
	bundleCmd.Flags().Bool("allow-js", false, "let JS files participate in resolution")
	bundleCmd.Flags().Bool("resolve-json", false, "let JSON modules participate in resolution")
	bundleCmd.Flags().StringSlice("target", nil, "manifest targets to bundle (default: all)")
	bundleCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	bundleCmd.Flags().Bool("watch", false, "stay running and rebuild when watched files change")
}

func bundleExecution(cmd *cobra.Command, args []string) error {
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	jobs, err := cmd.Root().PersistentFlags().GetInt("jobs")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	watchMode, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return err
	}
	uiWanted, err := progressUIWanted(uiValue)
	if err != nil {
		return err
	}

	targets, err := collectTargets(cmd, args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if watchMode {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
	}

	// TUI имеет смысл для одной цели: несколько конкурентных прогонов
	// не делят один терминал.
	useTUI := !quiet && len(targets) == 1 && uiWanted

	results, err := runTargets(ctx, targets, jobs, useTUI)
	if err != nil {
		return err
	}
	if !quiet {
		printSummary(os.Stdout, targets, results)
	}

	if watchMode {
		return runWatchLoop(ctx, targets, results, quiet)
	}
	return nil
}

// progressUIWanted решает по значению --ui, рисовать ли прогресс-модель:
// явное on/off, auto — по наличию терминала на stdout.
func progressUIWanted(value string) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return isTerminal(os.Stdout), nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

// runTargets прогоняет цели: одну — с TUI, несколько — параллельно с
// лимитом --jobs.
func runTargets(ctx context.Context, targets []pipeline.Target, jobs int, useTUI bool) ([]pipeline.Result, error) {
	results := make([]pipeline.Result, len(targets))
	if useTUI && len(targets) == 1 {
		res, err := runTargetWithUI(ctx, "bundling "+targets[0].Name, targets[0])
		if err != nil {
			return nil, err
		}
		results[0] = res
		return results, nil
	}

	limit := jobs
	if limit > len(targets) {
		limit = len(targets)
	}
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	multi := len(targets) > 1
	for i, tgt := range targets {
		i, tgt := i, tgt
		g.Go(func() error {
			res, err := runTarget(gctx, tgt, nil, multi)
			if err != nil {
				return fmt.Errorf("target %q: %w", tgt.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// runTarget выполняет один прогон цели с пробой из окружения и, если
// запрошен, снапшотом счётчиков по окончании сессии.
func runTarget(ctx context.Context, tgt pipeline.Target, progress pipeline.ProgressSink, multi bool) (pipeline.Result, error) {
	pb, counters := probe.FromEnv(os.Stderr)
	res, err := pipeline.Run(ctx, &pipeline.Request{
		Target:   tgt,
		Probe:    pb,
		Progress: progress,
	})
	if counters != nil {
		if path, ok := probe.SnapshotPath(); ok {
			if multi {
				path = path + "." + tgt.Name
			}
			if werr := probe.WriteSnapshot(path, counters.Snapshot(res.SessionID)); werr != nil {
				fmt.Fprintf(os.Stderr, "snapshot %s: %v\n", path, werr)
			}
		}
	}
	if cerr := pb.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return res, err
}

// runWatchLoop перестраивает цели при изменении файлов, от которых
// зависели их бандлы. Перестройки идут последовательно: параллельные
// сессии ничего не делят, но вывод в терминал — один.
func runWatchLoop(ctx context.Context, targets []pipeline.Target, results []pipeline.Result, quiet bool) error {
	owners := make(map[string][]int)
	var all []string
	collect := func() {
		owners = make(map[string][]int)
		all = all[:0]
		for i, res := range results {
			for _, f := range res.WatchFiles {
				if len(owners[f]) == 0 {
					all = append(all, f)
				}
				owners[f] = append(owners[f], i)
			}
		}
	}
	collect()

	var w *watch.Watcher
	handler := func(changed []string) {
		affected := make(map[int]bool)
		for _, f := range changed {
			for _, i := range owners[f] {
				affected[i] = true
			}
		}
		for i := range targets {
			if !affected[i] {
				continue
			}
			if !quiet {
				fmt.Fprintf(os.Stdout, "rebuilding %s\n", targets[i].Name)
			}
			res, err := runTarget(ctx, targets[i], nil, len(targets) > 1)
			if err != nil {
				// в watch-режиме ошибка цели не валит процесс: чинится
				// следующей правкой
				fmt.Fprintf(os.Stderr, "target %q: %v\n", targets[i].Name, err)
				continue
			}
			results[i] = res
		}
		collect()
		if err := w.SetPaths(all); err != nil {
			fmt.Fprintf(os.Stderr, "watch: %v\n", err)
		}
	}

	var err error
	w, err = watch.New(all, watch.DefaultDebounce, handler)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if !quiet {
		fmt.Fprintf(os.Stdout, "watching %d file(s), press Ctrl-C to stop\n", len(all))
	}
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
