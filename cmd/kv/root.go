package kv

import (
	"github.com/ValentinKolb/bKV/cmd/util"
	"github.com/ValentinKolb/bKV/lib/common"
	"github.com/ValentinKolb/bKV/lib/storage"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
)

var Logger = logger.GetLogger("cli")

var (
	store *storage.Store

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform key-value store operations",
		PersistentPreRunE:  openStore,
		PersistentPostRunE: closeStore,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitStoreConfig)

	// Add the store flags to the KV command
	util.SetupStoreFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(scanCmd)
	KeyValueCommands.AddCommand(importCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// openStore validates the configuration and opens the store used by all subcommands
func openStore(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	config := util.GetStoreConfig()
	if err := config.Validate(); err != nil {
		return err
	}
	common.InitLoggers(config.LogLevel)
	Logger.Debugf("store configuration:%s", config.String())

	var err error
	store, err = storage.OpenConfig(config)
	return err
}

// closeStore closes the store and prints the metrics if requested
func closeStore(_ *cobra.Command, _ []string) error {
	if store != nil {
		_ = store.Close()
	}
	if viper.GetBool("stats") {
		metrics.WritePrometheus(os.Stdout, false)
	}
	return nil
}
