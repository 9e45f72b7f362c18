package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	rexster "github.com/saulfrancisco-ruizacevedo/go-rexster"
)

// Global flags
var (
	configPath string
	hostFlag   string
	graphFlag  string
	levelFlag  string
)

// Loaded by PersistentPreRunE before any subcommand runs.
var (
	cfg    *rexster.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rexster",
	Short: "Command line client for Rexster graph servers",
	Long: `rexster talks to a Rexster-compatible graph server over its REST
protocol: inspect the server, read and write vertices, edges and indices,
export a graph snapshot or mirror a graph into Neo4j.

Settings come from a YAML file (--config or $REXSTER_CONFIG); --host and
--graph override it.`,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command with signal handling
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = os.Getenv("REXSTER_CONFIG")
	}

	if path == "" {
		cfg = rexster.DefaultConfig()
	} else {
		loaded, err := rexster.LoadConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if hostFlag != "" {
		cfg.Host = hostFlag
	}
	if graphFlag != "" {
		cfg.Graph = graphFlag
	}
	if levelFlag != "" {
		cfg.LogLevel = levelFlag
	}

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	return nil
}

// dial connects to the configured server.
func dial(cmd *cobra.Command) (*rexster.Server, error) {
	return cfg.Dial(cmd.Context(), logger)
}

// openGraph connects and returns the configured graph.
func openGraph(cmd *cobra.Command) (*rexster.IndexableGraph, error) {
	srv, err := dial(cmd)
	if err != nil {
		return nil, err
	}
	return srv.IndexableGraph(cfg.Graph), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "Server base URL (e.g. http://localhost:8182)")
	rootCmd.PersistentFlags().StringVarP(&graphFlag, "graph", "g", "", "Graph name")
	rootCmd.PersistentFlags().StringVar(&levelFlag, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(graphsCmd)
	rootCmd.AddCommand(vertexCmd)
	rootCmd.AddCommand(edgeCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(mirrorCmd)
}
