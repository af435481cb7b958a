package serve

import (
	"context"
	"fmt"
	cmdUtil "github.com/ValentinKolb/kvbench/cmd/util"
	"github.com/ValentinKolb/kvbench/lib/store/lstore"
	"github.com/ValentinKolb/kvbench/rpc/common"
	"github.com/ValentinKolb/kvbench/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:   "serve",
		Short: "Start a local line protocol cluster",
		Long: `Start an in-process cluster of line protocol members sharing one in-memory store.
Followers redirect writes to the leader, which makes the cluster suitable for testing and
benchmarking the client locally. The configuration can be set via command line flags or
environment variables. The format of the environment variables is KVBENCH_<flag> (e.g. KVBENCH_LEADER=1)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "endpoints"
	ServeCmd.PersistentFlags().String(key, cmdUtil.DefaultEndpoints, cmdUtil.WrapString("Comma-separated list of listen addresses, one per member. The position in the list is the member index"))

	key = "leader"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Index of the initial leader"))

	key = "redirect-reads"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Followers redirect reads to the leader as well (by default they serve reads)"))

	key = "silent-writes"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("The leader does not answer successful writes at all"))

	key = "leader-rotate-ms"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Move the leader to the next member every N milliseconds (0 = never)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Optional http address serving prometheus metrics on /metrics (e.g. localhost:9100)"))

	cmdUtil.SetupLogFlag(ServeCmd, "info")
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper and set up logging
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	serveCmdConfig.Endpoints = nil
	for _, endpoint := range strings.Split(viper.GetString("endpoints"), ",") {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
			serveCmdConfig.Endpoints = append(serveCmdConfig.Endpoints, endpoint)
		}
	}
	if len(serveCmdConfig.Endpoints) == 0 {
		return fmt.Errorf("at least one endpoint is required")
	}

	serveCmdConfig.Leader = viper.GetInt("leader")
	serveCmdConfig.RedirectReads = viper.GetBool("redirect-reads")
	serveCmdConfig.SilentWrites = viper.GetBool("silent-writes")
	serveCmdConfig.LeaderRotateMillisecond = viper.GetInt("leader-rotate-ms")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return nil
}

// run starts the cluster and blocks until SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := server.NewCluster(*serveCmdConfig, lstore.NewLocalStore())
	if err != nil {
		return err
	}

	<-ctx.Done()
	server.Logger.Infof("Shutting down")
	return c.Close()
}
