package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"statecheck/actor"
	"statecheck/cmd/util"
	"statecheck/explorer"
	"statecheck/network"
	"statecheck/protocols/abdregister"
	"statecheck/protocols/increment"
	"statecheck/protocols/twophase"
)

var exploreCmd = &cobra.Command{
	Use:               "explore",
	Short:             "serve a registered model over HTTP for interactive, on-demand state exploration",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return util.BindCommandFlags(cmd) },
	RunE:              runExplore,
}

func init() {
	exploreCmd.Flags().String("model", "", util.WrapString("model to explore: "+modelNames()))
	exploreCmd.Flags().Int("n", 3, util.WrapString("size parameter passed to the model"))
	exploreCmd.Flags().String("addr", "localhost:3000", util.WrapString("address to listen on"))
}

func runExplore(cmd *cobra.Command, args []string) error {
	name := viper.GetString("model")
	n := viper.GetInt("n")
	addr := viper.GetString("addr")

	var handler http.Handler
	switch name {
	case "increment":
		handler = explorer.New[increment.State, increment.Action](increment.NewModel(n)).Handler()
	case "twophase":
		handler = explorer.New[twophase.State, twophase.Action](twophase.NewModel(n)).Handler()
	case "abdregister":
		m := abdregister.NewModel(n, network.UnorderedNonDuplicating)
		handler = explorer.New[actor.ActorModelState[abdregister.Role, abdregister.Msg, abdregister.History], actor.Action](m).Handler()
	default:
		return fmt.Errorf("statecheck: unknown model %q (available: %s)", name, modelNames())
	}

	fmt.Printf("serving %s (n=%d) on %s\n", name, n, addr)
	return http.ListenAndServe(addr, handler)
}
