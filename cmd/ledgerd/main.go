// Command ledgerd runs the funding ledger: the HTTP API, the revenue stream,
// the optional revenue simulator and maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	os.Exit(execute())
}

func execute() int {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "ledgerd",
		Short:         "Funding and revenue ledger for trading bots",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./ledgerd.yaml)")

	root.AddCommand(newServeCmd(&cfgFile))
	root.AddCommand(newMigrateCmd(&cfgFile))
	root.AddCommand(newSeedCmd(&cfgFile))
	root.AddCommand(newSimulateCmd(&cfgFile))

	return root
}
