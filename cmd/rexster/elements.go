package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	rexster "github.com/saulfrancisco-ruizacevedo/go-rexster"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show server name, version, uptime and graphs",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

var graphsCmd = &cobra.Command{
	Use:   "graphs",
	Short: "List the graphs hosted by the server",
	Args:  cobra.NoArgs,
	RunE:  runGraphs,
}

var vertexCmd = &cobra.Command{
	Use:   "vertex",
	Short: "Read and write vertices",
}

var vertexGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show a vertex and its properties",
	Args:  cobra.ExactArgs(1),
	RunE:  runVertexGet,
}

var vertexListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List every vertex of the graph",
	Args:  cobra.NoArgs,
	RunE:  runVertexList,
}

var vertexAddCmd = &cobra.Command{
	Use:   "add [ID]",
	Short: "Create a vertex, optionally under a given id",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runVertexAdd,
}

var vertexRemoveCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a vertex",
	Args:  cobra.ExactArgs(1),
	RunE:  runVertexRemove,
}

var vertexEdgesCmd = &cobra.Command{
	Use:   "edges ID",
	Short: "List the edges incident to a vertex",
	Args:  cobra.ExactArgs(1),
	RunE:  runVertexEdges,
}

var edgeCmd = &cobra.Command{
	Use:   "edge",
	Short: "Read and write edges",
}

var edgeGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show an edge and its properties",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdgeGet,
}

var edgeListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List every edge of the graph",
	Args:  cobra.NoArgs,
	RunE:  runEdgeList,
}

var edgeAddCmd = &cobra.Command{
	Use:   "add OUT_ID IN_ID LABEL",
	Short: "Create an edge between two vertices",
	Args:  cobra.ExactArgs(3),
	RunE:  runEdgeAdd,
}

var edgeRemoveCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete an edge",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdgeRemove,
}

var (
	propFlags     []string
	directionFlag string
	edgeLabelFlag string
)

func init() {
	vertexAddCmd.Flags().StringArrayVarP(&propFlags, "prop", "p", nil, "Property to set, as key=value (repeatable)")
	edgeAddCmd.Flags().StringArrayVarP(&propFlags, "prop", "p", nil, "Property to set, as key=value (repeatable)")
	vertexEdgesCmd.Flags().StringVar(&directionFlag, "direction", "both", "Edge direction (out, in, both)")
	vertexEdgesCmd.Flags().StringVar(&edgeLabelFlag, "label", "", "Only edges with this label")

	vertexCmd.AddCommand(vertexGetCmd, vertexListCmd, vertexAddCmd, vertexRemoveCmd, vertexEdgesCmd)
	edgeCmd.AddCommand(edgeGetCmd, edgeListCmd, edgeAddCmd, edgeRemoveCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	srv, err := dial(cmd)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Host:\t%s\n", srv.Host())
	fmt.Fprintf(w, "Name:\t%s\n", srv.Name())
	fmt.Fprintf(w, "Version:\t%s\n", srv.Version())
	fmt.Fprintf(w, "Uptime:\t%s\n", srv.Uptime())
	fmt.Fprintf(w, "Graphs:\t%s\n", strings.Join(srv.Graphs(), ", "))
	return w.Flush()
}

func runGraphs(cmd *cobra.Command, args []string) error {
	srv, err := dial(cmd)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION")
	for _, name := range srv.Graphs() {
		meta, err := srv.Graph(name).Metadata(cmd.Context())
		if err != nil {
			logger.Warn("could not read graph metadata", "graph", name, "error", err)
			fmt.Fprintf(w, "%s\t\n", name)
			continue
		}
		desc, ok := meta["graph"]
		if !ok {
			desc = meta["message"]
		}
		fmt.Fprintf(w, "%s\t%v\n", name, desc)
	}
	return w.Flush()
}

func runVertexGet(cmd *cobra.Command, args []string) error {
	g, err := openGraph(cmd)
	if err != nil {
		return err
	}
	v, err := g.Vertex(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("vertex %s not found in %s", args[0], g.Name())
	}
	return printElement(cmd.OutOrStdout(), v)
}

func runVertexList(cmd *cobra.Command, args []string) error {
	g, err := openGraph(cmd)
	if err != nil {
		return err
	}
	it, err := g.Vertices(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROPERTIES")
	for it.Next(cmd.Context()) {
		v := it.Value()
		fmt.Fprintf(w, "%s\t%s\n", v.ID(), compact(rexster.UserProperties(v.Properties())))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return it.Err()
}

func runVertexAdd(cmd *cobra.Command, args []string) error {
	props, err := parseProps(propFlags)
	if err != nil {
		return err
	}
	g, err := openGraph(cmd)
	if err != nil {
		return err
	}

	var id string
	if len(args) == 1 {
		id = args[0]
	}
	v, err := g.AddVertex(cmd.Context(), id)
	if err != nil {
		return err
	}
	for key, value := range props {
		if err := v.SetProperty(cmd.Context(), key, value); err != nil {
			return err
		}
	}
	return printElement(cmd.OutOrStdout(), v)
}

func runVertexRemove(cmd *cobra.Command, args []string) error {
	g, err := openGraph(cmd)
	if err != nil {
		return err
	}
	v, err := g.Vertex(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("vertex %s not found in %s", args[0], g.Name())
	}
	if err := g.RemoveVertex(cmd.Context(), v); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed vertex %s\n", v.ID())
	return nil
}

func runVertexEdges(cmd *cobra.Command, args []string) error {
	g, err := openGraph(cmd)
	if err != nil {
		return err
	}
	v, err := g.Vertex(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("vertex %s not found in %s", args[0], g.Name())
	}

	var it *rexster.Iterator[*rexster.Edge]
	switch directionFlag {
	case "out":
		it, err = v.OutEdges(cmd.Context(), edgeLabelFlag)
	case "in":
		it, err = v.InEdges(cmd.Context(), edgeLabelFlag)
	case "both":
		it, err = v.BothEdges(cmd.Context(), edgeLabelFlag)
	default:
		return fmt.Errorf("unknown direction %q (want out, in or both)", directionFlag)
	}
	if err != nil {
		return err
	}
	return printEdges(cmd, it)
}

func runEdgeGet(cmd *cobra.Command, args []string) error {
	g, err := openGraph(cmd)
	if err != nil {
		return err
	}
	e, err := g.Edge(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("edge %s not found in %s", args[0], g.Name())
	}
	return printElement(cmd.OutOrStdout(), e)
}

func runEdgeList(cmd *cobra.Command, args []string) error {
	g, err := openGraph(cmd)
	if err != nil {
		return err
	}
	it, err := g.Edges(cmd.Context())
	if err != nil {
		return err
	}
	return printEdges(cmd, it)
}

func runEdgeAdd(cmd *cobra.Command, args []string) error {
	props, err := parseProps(propFlags)
	if err != nil {
		return err
	}
	g, err := openGraph(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out, err := rexster.NewVertex(ctx, g.Graph, args[0])
	if err != nil {
		return fmt.Errorf("out vertex: %w", err)
	}
	in, err := rexster.NewVertex(ctx, g.Graph, args[1])
	if err != nil {
		return fmt.Errorf("in vertex: %w", err)
	}
	e, err := g.AddEdge(ctx, out, in, args[2])
	if err != nil {
		return err
	}
	for key, value := range props {
		if err := e.SetProperty(ctx, key, value); err != nil {
			return err
		}
	}
	return printElement(cmd.OutOrStdout(), e)
}

func runEdgeRemove(cmd *cobra.Command, args []string) error {
	g, err := openGraph(cmd)
	if err != nil {
		return err
	}
	e, err := g.Edge(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("edge %s not found in %s", args[0], g.Name())
	}
	if err := g.RemoveEdge(cmd.Context(), e); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed edge %s\n", e.ID())
	return nil
}

func printEdges(cmd *cobra.Command, it *rexster.Iterator[*rexster.Edge]) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tOUT\tLABEL\tIN")
	for it.Next(cmd.Context()) {
		e := it.Value()
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID(), e.OutVertexID(), e.Label(), e.InVertexID())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return it.Err()
}

func printElement(w io.Writer, e rexster.GraphElement) error {
	out := map[string]any{
		"id":         e.ID(),
		"kind":       e.Kind().String(),
		"properties": e.Properties(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func compact(props map[string]any) string {
	data, err := json.Marshal(props)
	if err != nil {
		return fmt.Sprint(props)
	}
	return string(data)
}

// parseProps turns key=value flags into typed values: integers, floats and
// booleans are recognised, anything else stays a string.
func parseProps(flags []string) (map[string]any, error) {
	props := make(map[string]any, len(flags))
	for _, f := range flags {
		key, raw, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid property %q (want key=value)", f)
		}
		props[key] = parseScalar(raw)
	}
	return props, nil
}

func parseScalar(raw string) any {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
