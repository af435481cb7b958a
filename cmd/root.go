package cmd

import (
	"fmt"
	"github.com/ValentinKolb/kvbench/cmd/bench"
	"github.com/ValentinKolb/kvbench/cmd/kv"
	"github.com/ValentinKolb/kvbench/cmd/serve"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "kvbench",
		Short: "line protocol key-value client and benchmark",
		Long: fmt.Sprintf(`kvbench (v%s)

A resilient client for leader based, replicated key-value stores speaking a
simple line protocol, with a YCSB style benchmark driver and a local test cluster.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kvbench",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kvbench v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(bench.BenchCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
