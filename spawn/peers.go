package spawn

import (
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/exp/maps"

	"statecheck/actor"
)

// PeerTable maps an actor id to the UDP address it listens on.
type PeerTable map[actor.Id]*net.UDPAddr

// LoadPeerTable reads a peer table from a .env-style file using
// github.com/joho/godotenv (the same library ValentinKolb-dKV's cmd
// package uses to load configuration before binding it to viper), looking
// for keys of the form STATECHECK_PEER_<id>=host:port. If path is empty,
// ".env" in the working directory is used; a missing file is not an
// error, matching godotenv.Load's own behavior of being a no-op when the
// file is absent so a deployment can supply peers purely through the
// process environment instead.
func LoadPeerTable(path string) (PeerTable, error) {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err == nil {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("spawn: loading peer table from %s: %w", path, err)
		}
	}

	const prefix = "STATECHECK_PEER_"
	table := PeerTable{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, prefix) {
			continue
		}
		idStr := strings.TrimPrefix(k, prefix)
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return nil, fmt.Errorf("spawn: invalid peer id in env key %q: %w", k, err)
		}
		addr, err := net.ResolveUDPAddr("udp", v)
		if err != nil {
			return nil, fmt.Errorf("spawn: invalid address for peer %d (%q): %w", id, v, err)
		}
		table[actor.Id(id)] = addr
	}
	return table, nil
}

// Ids returns the peer table's actor ids in ascending order.
func (t PeerTable) Ids() []actor.Id {
	ids := maps.Keys(t)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
