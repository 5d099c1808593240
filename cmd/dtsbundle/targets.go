package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dtsbundle/internal/bundle"
	"dtsbundle/internal/config"
	"dtsbundle/internal/pipeline"
	"dtsbundle/internal/source"
)

// collectTargets собирает цели прогона: из аргументов командной строки
// (одна цель ad-hoc) или из манифеста dtsbundle.toml (все цели либо
// выбранные через --target). Флаги компилятора, заданные явно,
// перекрывают и манифест, и tsconfig.
func collectTargets(cmd *cobra.Command, args []string) ([]pipeline.Target, error) {
	maxDiag, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return nil, err
	}
	overrides, err := readOverrides(cmd)
	if err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cwd, err = source.Canon(cwd)
	if err != nil {
		return nil, err
	}

	if len(args) > 0 {
		return adHocTarget(cmd, args, cwd, overrides, maxDiag)
	}
	return manifestTargets(cmd, cwd, overrides, maxDiag)
}

// adHocTarget строит единственную цель из точек входа, переданных
// аргументами. Манифест при этом не читается: явные аргументы — явный
// контракт.
func adHocTarget(cmd *cobra.Command, args []string, cwd string, overrides bundle.Overrides, maxDiag int) ([]pipeline.Target, error) {
	name, err := cmd.Flags().GetString("name")
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = "bundle"
	}
	outDir, err := cmd.Flags().GetString("out")
	if err != nil {
		return nil, err
	}
	if outDir == "" {
		outDir = "dist"
	}
	tsconfigPath, err := cmd.Flags().GetString("tsconfig")
	if err != nil {
		return nil, err
	}
	respect, err := cmd.Flags().GetBool("respect-external")
	if err != nil {
		return nil, err
	}
	include, err := cmd.Flags().GetStringSlice("include-external")
	if err != nil {
		return nil, err
	}

	entries := make([]string, len(args))
	for i, a := range args {
		entries[i] = source.CanonIn(cwd, a)
	}
	if tsconfigPath != "" {
		tsconfigPath = source.CanonIn(cwd, tsconfigPath)
	}
	return []pipeline.Target{{
		Name:            name,
		Entries:         entries,
		OutDir:          source.CanonIn(cwd, outDir),
		TsconfigPath:    tsconfigPath,
		RespectExternal: respect,
		IncludeExternal: include,
		Overrides:       overrides,
		MaxDiagnostics:  maxDiag,
	}}, nil
}

// manifestTargets строит цели из dtsbundle.toml, найденного подъёмом от
// текущего каталога.
func manifestTargets(cmd *cobra.Command, cwd string, overrides bundle.Overrides, maxDiag int) ([]pipeline.Target, error) {
	m, ok, err := config.LoadForDir(cwd)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no entry points given and no %s found (run `dtsbundle init` to create one)", config.FileName)
	}

	selected, err := cmd.Flags().GetStringSlice("target")
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(selected))
	for _, name := range selected {
		want[name] = true
	}

	// Флаги компилятора из манифеста действуют, только если команда их
	// не переопределила.
	if overrides.AllowJS == nil {
		overrides.AllowJS = m.Compiler.AllowJS
	}
	if overrides.ResolveJSONModule == nil {
		overrides.ResolveJSONModule = m.Compiler.ResolveJSONModule
	}

	var targets []pipeline.Target
	for _, raw := range m.Targets {
		if len(want) > 0 && !want[raw.Name] {
			continue
		}
		delete(want, raw.Name)
		t := m.Effective(raw)
		targets = append(targets, pipeline.Target{
			Name:            t.Name,
			Entries:         t.Entries,
			OutDir:          t.OutDir,
			TsconfigPath:    t.Tsconfig,
			RespectExternal: *t.RespectExternal,
			IncludeExternal: t.IncludeExternal,
			Overrides:       overrides,
			MaxDiagnostics:  maxDiag,
		})
	}
	if len(want) > 0 {
		for name := range want {
			return nil, fmt.Errorf("%s: unknown target %q", m.Path, name)
		}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%s: %w", m.Path, config.ErrNoTargets)
	}
	return targets, nil
}

// readOverrides переводит флаги компилятора в трёхзначную форму:
// nil, если флаг не трогали.
func readOverrides(cmd *cobra.Command) (bundle.Overrides, error) {
	var o bundle.Overrides
	if cmd.Flags().Changed("allow-js") {
		v, err := cmd.Flags().GetBool("allow-js")
		if err != nil {
			return o, err
		}
		o.AllowJS = &v
	}
	if cmd.Flags().Changed("resolve-json") {
		v, err := cmd.Flags().GetBool("resolve-json")
		if err != nil {
			return o, err
		}
		o.ResolveJSONModule = &v
	}
	return o, nil
}

// printSummary печатает по строке на цель и по строке на записанный
// бандл.
func printSummary(w io.Writer, targets []pipeline.Target, results []pipeline.Result) {
	nameColor := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)
	for i, res := range results {
		total := res.Timings.Sum().Round(time.Millisecond)
		fmt.Fprintf(w, "%s: %d file(s) in %s\n", nameColor.Sprint(targets[i].Name), len(res.Outputs), total)
		for _, out := range res.Outputs {
			rel, err := source.RelativePath(out.Path, targets[i].OutDir)
			if err != nil {
				rel = out.Path
			}
			fmt.Fprintf(w, "  %s %s\n", rel, dim.Sprintf("(%d bytes)", out.Bytes))
		}
		if len(res.Externals) > 0 {
			fmt.Fprintf(w, "  %s\n", dim.Sprintf("external: %d package(s) left opaque", len(res.Externals)))
		}
	}
}
