package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/saulfrancisco-ruizacevedo/go-rexster/codec"
	"github.com/saulfrancisco-ruizacevedo/go-rexster/mirror"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a snapshot of the whole graph",
	Long: `Walk every vertex and edge of the graph and write them as one
document. Each element costs one request; set rate_limit in the config file
when exporting large graphs from a shared server.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Copy the graph into Neo4j",
	Long: `Copy every vertex and edge of the graph into the Neo4j database
configured under the neo4j section of the config file. Vertices are merged
on their Rexster id; edges are created, so use --reset when mirroring again.`,
	Args: cobra.NoArgs,
	RunE: runMirror,
}

var (
	exportFormat string
	exportOutput string
	mirrorReset  bool
)

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", fmt.Sprintf("Export format %v", codec.Formats()))
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: stdout)")
	mirrorCmd.Flags().BoolVar(&mirrorReset, "reset", false, "Delete previously mirrored nodes first")
}

func runExport(cmd *cobra.Command, args []string) error {
	exporter, err := codec.ForFormat(exportFormat)
	if err != nil {
		return err
	}
	g, err := openGraph(cmd)
	if err != nil {
		return err
	}

	snap, err := g.Snapshot(cmd.Context())
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := exporter.Export(snap, w); err != nil {
		return err
	}

	logger.Info("exported graph", "graph", snap.Graph, "vertices", len(snap.Nodes), "edges", len(snap.Edges), "format", exporter.Format())
	return nil
}

func runMirror(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	n := cfg.Neo4j

	exec, err := mirror.NewNeo4jExecutor(n.URI, n.Username, n.Password, n.Database)
	if err != nil {
		return err
	}
	exec.Logger = logger
	defer exec.Close(ctx)
	if err := exec.Verify(ctx); err != nil {
		return fmt.Errorf("could not connect to neo4j database %q: %w", n.Database, err)
	}

	g, err := openGraph(cmd)
	if err != nil {
		return err
	}

	m := mirror.New(exec,
		mirror.WithLabel(n.Label),
		mirror.WithReset(mirrorReset),
		mirror.WithLogger(logger),
	)
	report, err := m.Replicate(ctx, g.Graph)
	if report != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Mirrored %d vertices and %d edges (%d failed)\n",
			report.Vertices, report.Edges, report.Failed)
	}
	return err
}
