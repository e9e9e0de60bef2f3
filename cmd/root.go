package cmd

import (
	"fmt"
	"github.com/ValentinKolb/bKV/cmd/kv"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "bkv",
		Short: "access layer for boundary backed key-value stores",
		Long: fmt.Sprintf(`bKV (v%s)

A key-value store access layer written in Go. Stores are opened through
a narrow handle based boundary and served by an exchangeable engine
(bolt for persistent stores, mem for process local ones).`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of bKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("bKV v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
