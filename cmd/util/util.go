// Package util holds the small pieces of configuration plumbing shared by
// every statecheck subcommand, grounded on ValentinKolb-dKV's cmd/util
// package: load .env files with godotenv, then let viper read whatever
// wasn't overridden on the command line from the process environment.
package util

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Wrap is the column width WrapString wraps help text at.
const Wrap = 60

// WrapString wraps text at Wrap characters on word boundaries, matching
// the help text formatting dKV's cmd package uses for its own flags.
func WrapString(text string) string {
	var lines []string
	var line strings.Builder
	width := 0
	for _, word := range strings.Fields(text) {
		if width > 0 && width+1+len(word) > Wrap {
			lines = append(lines, line.String())
			line.Reset()
			width = 0
		}
		if width > 0 {
			line.WriteString(" ")
			width++
		}
		line.WriteString(word)
		width += len(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// InitConfig loads .env / .env.local (a missing file is not an error) and
// wires viper to also read STATECHECK_-prefixed environment variables,
// so flags like --workers can be set as STATECHECK_WORKERS instead.
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("statecheck")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindCommandFlags binds cmd's own flags to viper, so viper.Get* prefers
// an explicit flag over the environment when both are set.
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
