package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"statecheck/checker"
	"statecheck/cmd/util"
)

var checkCmd = &cobra.Command{
	Use:               "check",
	Short:             "run a registered model to completion and report the properties it discovers",
	Long:              "run a registered model to completion and report the properties it discovers\n\navailable models:\n" + modelHelp(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return util.BindCommandFlags(cmd) },
	RunE:              runCheck,
}

func init() {
	checkCmd.Flags().String("model", "", util.WrapString("model to check: "+modelNames()))
	checkCmd.Flags().Int("n", 3, util.WrapString("size parameter passed to the model (thread/replica count)"))
	checkCmd.Flags().Int("workers", 1, util.WrapString("size of the checker's worker pool"))
	checkCmd.Flags().String("discipline", "bfs", util.WrapString("traversal order: bfs, dfs, or random"))
	checkCmd.Flags().Int("max-depth", 0, util.WrapString("bound exploration depth (0 means unbounded)"))
	checkCmd.Flags().Duration("timeout", 0, util.WrapString("stop after this long and report a timeout (0 means no timeout)"))
	checkCmd.Flags().Bool("finish-when-resolved", false, util.WrapString("stop as soon as every property has a discovery"))
	checkCmd.Flags().Int64("seed", 1, util.WrapString("seed for the random discipline"))
}

func modelNames() string {
	names := make([]string, 0, len(registry))
	for _, m := range registry {
		names = append(names, m.name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func modelHelp() string {
	sorted := append([]modelEntry(nil), registry...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].name < sorted[j].name })
	entries := make([]string, len(sorted))
	for i, m := range sorted {
		entries[i] = fmt.Sprintf("  %-12s %s", m.name, m.description)
	}
	return strings.Join(entries, "\n")
}

func runCheck(cmd *cobra.Command, args []string) error {
	name := viper.GetString("model")
	entry, ok := findModel(name)
	if !ok {
		return fmt.Errorf("statecheck: unknown model %q (available: %s)", name, modelNames())
	}

	cfg := runConfig{
		workers:    viper.GetInt("workers"),
		discipline: viper.GetString("discipline"),
		maxDepth:   viper.GetInt("max-depth"),
		timeout:    viper.GetDuration("timeout"),
		finishFast: viper.GetBool("finish-when-resolved"),
		seed:       viper.GetInt64("seed"),
	}

	ctx := context.Background()
	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout+time.Second)
		defer cancel()
	}

	result, err := entry.run(ctx, viper.GetInt("n"), cfg)
	if err != nil {
		return err
	}

	fmt.Printf("model:    %s (n=%d)\n", entry.name, viper.GetInt("n"))
	fmt.Printf("explored: %d\n", result.Explored)
	fmt.Printf("unique:   %d\n", result.Unique)
	if len(result.Discoveries) == 0 {
		fmt.Println("discoveries: none")
	} else {
		fmt.Println("discoveries:")
		for _, d := range result.Discoveries {
			fmt.Printf("  - %s\n", d)
		}
	}
	// exit 0 if every property holds, 1 if a discovery is a
	// counterexample, 2 on an internal error (anything but the benign,
	// documented TimeoutError, which just means partial results).
	if result.Err != nil {
		fmt.Printf("error: %v\n", result.Err)
		if !errors.Is(result.Err, checker.ErrTimeout) {
			os.Exit(2)
		}
	}
	for _, d := range result.Discoveries {
		if strings.Contains(d, "always-violated") || strings.Contains(d, "eventually-resolved") {
			os.Exit(1)
		}
	}
	return nil
}
