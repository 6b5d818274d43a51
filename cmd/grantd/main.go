package main

import (
	"fmt"
	"os"

	"github.com/iov-one/grantd/commands/server"
	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/libs/log"
)

func main() {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout)).
		With("module", "grantd")

	root := rootCmd(logger)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd(logger log.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "grantd",
		Short:         "Grant funding ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		initCmd(),
		deployCmd(logger),
		server.StartCmd(generateApp, os.Stdout),
		versionCmd(),
	)
	return root
}
