package bench

import (
	"context"
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"github.com/ValentinKolb/kvbench/cmd/util"
	"github.com/ValentinKolb/kvbench/lib/store/lstore"
	"github.com/ValentinKolb/kvbench/lib/ycsb"
	"github.com/ValentinKolb/kvbench/lib/ycsb/linekv"
	"github.com/ValentinKolb/kvbench/rpc/common"
	"github.com/ValentinKolb/kvbench/rpc/server"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
)

var Logger = logger.GetLogger("bench")

var (
	workload   ycsb.WorkloadConfig
	properties ycsb.Properties

	// BenchCmd runs a YCSB style workload through a registered binding
	BenchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Run a YCSB style workload against a cluster",
		Long: `Run a YCSB style workload (load and/or run phase) against a cluster.
The client flags are passed to the linekv binding, additional binding properties can be set
with -p key=value. With --local-cluster N an in-process cluster of N members is started and
used as target.`,
		Args:    cobra.NoArgs,
		PreRunE: processBenchConfig,
		RunE:    run,
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)
	util.SetupClientFlags(BenchCmd)

	key := "db"
	BenchCmd.Flags().String(key, linekv.Name, util.WrapString("Name of the binding to benchmark"))
	key = "phase"
	BenchCmd.Flags().String(key, "both", util.WrapString("Which phase to execute (load, run, both)"))
	key = "records"
	BenchCmd.Flags().Int(key, 1000, util.WrapString("Number of records inserted by the load phase"))
	key = "operations"
	BenchCmd.Flags().Int(key, 1000, util.WrapString("Number of operations executed by the run phase"))
	key = "threads"
	BenchCmd.Flags().Int(key, 1, util.WrapString("Number of workers, every worker uses its own client"))
	key = "table"
	BenchCmd.Flags().String(key, "usertable", util.WrapString("Table name passed to the binding"))
	key = "field-count"
	BenchCmd.Flags().Int(key, 10, util.WrapString("Number of fields per record"))
	key = "field-length"
	BenchCmd.Flags().Int(key, 100, util.WrapString("Length of every field in bytes"))
	key = "read-proportion"
	BenchCmd.Flags().Float64(key, 0.5, util.WrapString("Share of reads in the run phase"))
	key = "update-proportion"
	BenchCmd.Flags().Float64(key, 0.5, util.WrapString("Share of updates in the run phase"))
	key = "insert-proportion"
	BenchCmd.Flags().Float64(key, 0, util.WrapString("Share of inserts in the run phase"))
	key = "delete-proportion"
	BenchCmd.Flags().Float64(key, 0, util.WrapString("Share of deletes in the run phase"))
	key = "seed"
	BenchCmd.Flags().Int64(key, 0, util.WrapString("Seed of the workload random generators (0 = time based)"))
	key = "csv"
	BenchCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
	key = "metrics"
	BenchCmd.Flags().Bool(key, false, util.WrapString("Print the client metrics in prometheus text format after the benchmark"))
	key = "local-cluster"
	BenchCmd.Flags().Int(key, 0, util.WrapString("Start an in-process cluster with this many members and benchmark it (0 = use --endpoints)"))
	key = "property"
	BenchCmd.Flags().StringArrayP(key, "p", nil, util.WrapString("Binding property as key=value (may be repeated)"))
}

func processBenchConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	switch viper.GetString("phase") {
	case "load", "run", "both":
	default:
		return fmt.Errorf("invalid phase %s (expected load, run or both)", viper.GetString("phase"))
	}

	workload = ycsb.WorkloadConfig{
		Table:            viper.GetString("table"),
		RecordCount:      viper.GetInt("records"),
		OperationCount:   viper.GetInt("operations"),
		Threads:          viper.GetInt("threads"),
		FieldCount:       viper.GetInt("field-count"),
		FieldLength:      viper.GetInt("field-length"),
		ReadProportion:   viper.GetFloat64("read-proportion"),
		UpdateProportion: viper.GetFloat64("update-proportion"),
		InsertProportion: viper.GetFloat64("insert-proportion"),
		DeleteProportion: viper.GetFloat64("delete-proportion"),
		Seed:             viper.GetInt64("seed"),
	}

	extra, err := cmd.Flags().GetStringArray("property")
	if err != nil {
		return err
	}
	overrides, err := ycsb.ParseProperties(extra)
	if err != nil {
		return err
	}

	properties = clientProperties(util.GetClientConfig())
	for k, v := range overrides {
		properties[k] = v
	}
	return nil
}

// clientProperties translates the client flags into linekv properties
func clientProperties(config common.ClientConfig) ycsb.Properties {
	return ycsb.Properties{
		linekv.PropHosts:          strings.Join(config.Endpoints, ","),
		linekv.PropTimeout:        strconv.Itoa(config.TimeoutMillisecond),
		linekv.PropWriteTimeout:   strconv.Itoa(config.WriteTimeoutMillisecond),
		linekv.PropConnectTimeout: strconv.Itoa(config.ConnectTimeoutMillisecond),
		linekv.PropRetries:        strconv.Itoa(config.RetryCount),
		linekv.PropRedirectLimit:  strconv.Itoa(config.RedirectLimit),
		linekv.PropRetryBackoff:   strconv.Itoa(config.RetryBackoffMillisecond),
		linekv.PropRandomStart:    strconv.FormatBool(config.RandomStart),
		linekv.PropTCPNoDelay:     strconv.FormatBool(config.TCPConf.TCPNoDelay),
	}
}

func run(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start an in-process cluster if requested
	if n := viper.GetInt("local-cluster"); n > 0 {
		endpoints := make([]string, n)
		for i := range endpoints {
			endpoints[i] = "127.0.0.1:0"
		}
		c, err := server.NewCluster(common.ServerConfig{Endpoints: endpoints}, lstore.NewLocalStore())
		if err != nil {
			return fmt.Errorf("failed to start local cluster: %w", err)
		}
		defer c.Close()
		properties[linekv.PropHosts] = strings.Join(c.Addrs(), ",")
	}

	dbName := viper.GetString("db")
	runner, err := ycsb.NewRunner(workload, func() (ycsb.DB, error) {
		return ycsb.Open(dbName, properties)
	})
	if err != nil {
		return err
	}

	effective := runner.Config()
	fmt.Printf("Benchmark %s (db %s)\n", runner.RunID(), dbName)
	fmt.Print(effective.String())
	fmt.Println()

	var reports []*ycsb.Report
	phase := viper.GetString("phase")

	if phase == "load" || phase == "both" {
		report, err := runner.Load(ctx)
		if err != nil {
			return fmt.Errorf("load phase failed: %w", err)
		}
		printReport(report)
		reports = append(reports, report)
	}

	if phase == "run" || phase == "both" {
		report, err := runner.Run(ctx)
		if err != nil {
			return fmt.Errorf("run phase failed: %w", err)
		}
		printReport(report)
		reports = append(reports, report)
	}

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, reports); err != nil {
			return err
		}
	}

	if viper.GetBool("metrics") {
		fmt.Println()
		metrics.WritePrometheus(os.Stdout, false)
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// printReport prints the result of a phase in the YCSB text format
func printReport(report *ycsb.Report) {
	fmt.Print(report.String())
	if failed := report.Failed(); failed > 0 {
		Logger.Warningf("%d of %d operations failed in the %s phase", failed, report.Total(), report.Phase)
	}
	fmt.Println()
}

// writeResultsToCSV writes the reports of all executed phases to a CSV file
func writeResultsToCSV(csvPath string, reports []*ycsb.Report) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	for i, report := range reports {
		if err := report.WriteCSV(file, i == 0); err != nil {
			return err
		}
	}
	return nil
}
