package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	clientcmd "github.com/cmeiklejohn/riak-repl/internal/cmd/client"
	serverrun "github.com/cmeiklejohn/riak-repl/internal/cmd/server"
	cfgpkg "github.com/cmeiklejohn/riak-repl/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "riak-repl",
		Short: "Realtime replication queue CLI",
		Long:  "riak-repl runs the realtime replication queue node and manages it over its HTTP API.",
	}

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the replication queue node",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			httpAddr, _ := cmd.Flags().GetString("http")
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")
			maxBytes, _ := cmd.Flags().GetInt64("queue-max-bytes")
			filter, _ := cmd.Flags().GetString("queue-filter")

			cfg, err := cfgpkg.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfgpkg.FromEnv(&cfg)
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if logFormat != "" {
				cfg.LogFormat = logFormat
			}
			if maxBytes > 0 {
				cfg.Queue.MaxBytes = maxBytes
			}
			if filter != "" {
				cfg.Queue.Filter = filter
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := serverrun.Run(ctx, serverrun.Options{
				HTTPAddr: httpAddr,
				Config:   cfg,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	serverStartCmd.Flags().String("config", "", "Path to JSON config file")
	serverStartCmd.Flags().String("http", "", "HTTP listen address (default from config)")
	serverStartCmd.Flags().String("log-level", os.Getenv("RIAK_REPL_LOG_LEVEL"), "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", os.Getenv("RIAK_REPL_LOG_FORMAT"), "Log format: text|json (default text)")
	serverStartCmd.Flags().Int64("queue-max-bytes", 0, "Evict oldest entries past this byte budget (0 = unbounded)")
	serverStartCmd.Flags().String("queue-filter", "", "CEL expression gating which mutations enter the queue")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	// queue commands (speak the HTTP API)
	rootCmd.AddCommand(clientcmd.NewQueueCommand(apiURL))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func apiURL() string {
	if v := os.Getenv("RIAK_REPL_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8098"
}
