package util

import (
	"github.com/ValentinKolb/kvbench/rpc/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (e.g. KVBENCH_TIMEOUT_MS)
	EnvPrefix = "kvbench"

	// DefaultEndpoints is the member list used when no endpoints are configured
	DefaultEndpoints = "127.0.0.1:2001,127.0.0.1:2211,127.0.0.1:2221"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupClientFlags adds the line protocol client flags to a command
func SetupClientFlags(cmd *cobra.Command) {
	key := "endpoints"
	cmd.PersistentFlags().String(key, DefaultEndpoints, WrapString("Comma-separated list of cluster members (host:port). The index of a member in this list is the index used in 'leader is N' answers"))

	key = "timeout-ms"
	cmd.PersistentFlags().Int(key, common.DefaultTimeoutMillisecond, WrapString("Read timeout in milliseconds. A read that times out is retried on the next member"))

	key = "write-timeout-ms"
	cmd.PersistentFlags().Int(key, common.DefaultWriteTimeoutMillisecond, WrapString("How long to wait for the answer to a write (in milliseconds). No answer within this time counts as success"))

	key = "connect-timeout-ms"
	cmd.PersistentFlags().Int(key, 0, WrapString("Dial timeout in milliseconds (0 = read timeout)"))

	key = "retries"
	cmd.PersistentFlags().Int(key, common.DefaultRetryCount, WrapString("Retry budget per operation for busy members and connection errors"))

	key = "redirect-limit"
	cmd.PersistentFlags().Int(key, 0, WrapString("How many leader redirects are followed per operation (0 = number of endpoints)"))

	key = "retry-backoff-ms"
	cmd.PersistentFlags().Int(key, 0, WrapString("Initial backoff between retries in milliseconds, doubled after every retry (0 = no backoff)"))

	key = "random-start"
	cmd.PersistentFlags().Bool(key, false, WrapString("Start at a random member instead of the first one"))

	key = "tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY"))

	key = "tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval in seconds (0 = system default)"))

	key = "tcp-linger"
	cmd.PersistentFlags().Int(key, 0, WrapString("The linger time in seconds (0 = system default)"))

	SetupLogFlag(cmd, "warn")
}

// SetupLogFlag adds the log-level flag to a command
func SetupLogFlag(cmd *cobra.Command, def string) {
	cmd.PersistentFlags().String("log-level", def, WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// InitConfig loads .env files and configures viper to read environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads the client configuration from viper
func GetClientConfig() common.ClientConfig {
	var endpoints []string
	for _, endpoint := range strings.Split(viper.GetString("endpoints"), ",") {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
			endpoints = append(endpoints, endpoint)
		}
	}

	return common.ClientConfig{
		Endpoints:                 endpoints,
		TimeoutMillisecond:        viper.GetInt("timeout-ms"),
		WriteTimeoutMillisecond:   viper.GetInt("write-timeout-ms"),
		ConnectTimeoutMillisecond: viper.GetInt("connect-timeout-ms"),
		RetryCount:                viper.GetInt("retries"),
		RedirectLimit:             viper.GetInt("redirect-limit"),
		RetryBackoffMillisecond:   viper.GetInt("retry-backoff-ms"),
		RandomStart:               viper.GetBool("random-start"),
		TCPConf: common.TCPConf{
			TCPNoDelay:      viper.GetBool("tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("tcp-linger"),
		},
		LogLevel: viper.GetString("log-level"),
	}
}

// BindCommandFlags binds a command's flags to viper and initializes the loggers
func BindCommandFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	return common.InitLoggers(viper.GetString("log-level"))
}
