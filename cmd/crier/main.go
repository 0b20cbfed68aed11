// Command crier runs the posting orchestrator: scheduled sessions, curation
// cycles and the decision listener.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var (
	configFile string
	envFile    string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "crier",
		Short:         "Human-in-the-loop social posting orchestrator",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default ./crier.yaml)")
	root.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file loaded before the config")
	root.AddCommand(newServeCmd(), newSessionCmd(), newCurateCmd(), newCalendarCmd(), newDiscoverCmd(), newListenCmd())
	return root
}
