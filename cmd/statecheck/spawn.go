package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"statecheck/actor"
	"statecheck/cmd/util"
	"statecheck/protocols/abdregister"
	"statecheck/spawn"
)

var spawnCmd = &cobra.Command{
	Use:               "spawn",
	Short:             "run one abdregister actor for real over UDP, using a peer table loaded from .env",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return util.BindCommandFlags(cmd) },
	RunE:              runSpawn,
}

func init() {
	spawnCmd.Flags().Int("id", -1, util.WrapString("this process's actor id (required)"))
	spawnCmd.Flags().String("peers", "", util.WrapString("path to a .env file of STATECHECK_PEER_<id>=host:port entries (default .env)"))
	spawnCmd.Flags().String("role", "server", util.WrapString("server or client"))
	spawnCmd.Flags().String("store", "", util.WrapString("directory to persist actor state across restarts (default: in-memory only)"))
}

func runSpawn(cmd *cobra.Command, args []string) error {
	id := viper.GetInt("id")
	if id < 0 {
		return fmt.Errorf("statecheck: --id is required")
	}

	peers, err := spawn.LoadPeerTable(viper.GetString("peers"))
	if err != nil {
		return err
	}

	var store spawn.Store
	if dir := viper.GetString("store"); dir != "" {
		fs, err := spawn.NewFileStore(dir)
		if err != nil {
			return err
		}
		store = fs
	}

	var logic actor.Actor[abdregister.Role, abdregister.Msg]
	switch viper.GetString("role") {
	case "server":
		logic = abdregister.NewServerActor()
	case "client":
		replicas := make([]actor.Id, 0, len(peers)-1)
		for _, pid := range peers.Ids() {
			if int(pid) != id {
				replicas = append(replicas, pid)
			}
		}
		logic = abdregister.NewClientActor(actor.Id(id), replicas)
	default:
		return fmt.Errorf("statecheck: unknown --role %q (want server or client)", viper.GetString("role"))
	}

	rt, err := spawn.NewRuntime[abdregister.Role, abdregister.Msg](actor.Id(id), logic, peers, store)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	fmt.Printf("actor %d (%s) listening on %v\n", id, viper.GetString("role"), peers[actor.Id(id)])
	if err := rt.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
