package kv

import (
	"github.com/ValentinKolb/kvbench/cmd/util"
	"github.com/ValentinKolb/kvbench/rpc/client"
	"github.com/spf13/cobra"
)

var (
	lineStore *client.LineStore

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform single key-value operations against a cluster",
		PersistentPreRunE:  setupKVClient,
		PersistentPostRunE: closeKVClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add client flags to the KV command
	util.SetupClientFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(putCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(hasCmd)
}

// setupKVClient creates the store client from the flags
func setupKVClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	exec, err := client.NewTCPExecutor(util.GetClientConfig())
	if err != nil {
		return err
	}

	lineStore = client.NewLineStore(exec)
	return nil
}

func closeKVClient(_ *cobra.Command, _ []string) error {
	if lineStore == nil {
		return nil
	}
	return lineStore.Close()
}
