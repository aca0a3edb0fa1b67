// Command statecheck is the CLI front end for the model checker: it can
// run a registered example model to completion (check), serve one over
// HTTP for interactive exploration (explore), or run its actor logic for
// real over UDP (spawn).
//
// The command tree, PersistentPreRunE flag binding, and .env/viper
// wiring are grounded on ValentinKolb-dKV's cmd package
// (cmd/root.go, cmd/kv/root.go, cmd/util/util.go).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"statecheck/cmd/util"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "statecheck",
	Short: "an explicit-state model checker for nondeterministic distributed systems",
	Long: fmt.Sprintf(`statecheck (v%s)

Explores the reachable state space of a user-supplied model via BFS/DFS,
checks Always/Sometimes/Eventually properties along the way, and can
run the same actor logic for real over a UDP network.`, version),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the statecheck version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("statecheck v%s\n", version)
	},
}

func init() {
	cobra.OnInitialize(util.InitConfig)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(spawnCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
