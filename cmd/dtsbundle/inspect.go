package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dtsbundle/internal/probe"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [snapshot]",
	Short: "Print a recorded probe snapshot",
	Long: `Inspect the resolver counters recorded by a previous run. The snapshot path
comes from the argument or from ` + probe.EnvSnapshot + `.`,
	Args: cobra.MaximumNArgs(1),
	RunE: inspectExecution,
}

func init() {
	inspectCmd.Flags().String("snapshot", "", "snapshot file to read")
	inspectCmd.Flags().Int("top", 5, "how many most-requested files to show")
}

func inspectExecution(cmd *cobra.Command, args []string) error {
	path, err := cmd.Flags().GetString("snapshot")
	if err != nil {
		return err
	}
	if path == "" && len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		if env, ok := probe.SnapshotPath(); ok {
			path = env
		}
	}
	if path == "" {
		return fmt.Errorf("no snapshot path: pass one or set %s", probe.EnvSnapshot)
	}
	top, err := cmd.Flags().GetInt("top")
	if err != nil {
		return err
	}

	snap, err := probe.ReadSnapshot(path)
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", path, err)
	}
	printSnapshot(snap, top)
	return nil
}

func printSnapshot(snap *probe.Snapshot, top int) {
	head := color.New(color.FgCyan, color.Bold)
	key := color.New(color.Faint)
	warn := color.New(color.FgYellow)

	head.Printf("session %s\n", snap.SessionID)
	fmt.Printf("%s %s\n", key.Sprint("recorded:"), snap.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("%s %d\n", key.Sprint("resolve requests:"), snap.Requests)
	fmt.Printf("%s %d\n", key.Sprint("units created:"), snap.UnitsCreated)
	fmt.Printf("%s %d\n", key.Sprint("imports classified:"), snap.Classified)
	fmt.Printf("%s %d\n", key.Sprint("max depth:"), snap.MaxDepth)
	if snap.EmitsBlocked > 0 {
		warn.Printf("emits blocked: %d\n", snap.EmitsBlocked)
	}

	if len(snap.Outcomes) > 0 {
		head.Println("outcomes")
		names := make([]string, 0, len(snap.Outcomes))
		for name := range snap.Outcomes {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-14s %d\n", name, snap.Outcomes[name])
		}
	}

	if top > 0 && len(snap.PerFile) > 0 {
		head.Println("most requested")
		type pair struct {
			path string
			n    uint64
		}
		pairs := make([]pair, 0, len(snap.PerFile))
		for p, n := range snap.PerFile {
			pairs = append(pairs, pair{p, n})
		}
		sort.Slice(pairs, func(i, j int) bool {
			if pairs[i].n != pairs[j].n {
				return pairs[i].n > pairs[j].n
			}
			return pairs[i].path < pairs[j].path
		})
		if len(pairs) > top {
			pairs = pairs[:top]
		}
		for _, p := range pairs {
			fmt.Printf("  %4d  %s\n", p.n, p.path)
		}
	}

	if len(snap.Cycles) > 0 {
		warn.Fprintf(os.Stdout, "cycles: %d\n", len(snap.Cycles))
		for _, cyc := range snap.Cycles {
			fmt.Printf("  %s\n", strings.Join(cyc, " -> "))
		}
	}
}
