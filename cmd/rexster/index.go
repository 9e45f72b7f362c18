package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the indices of a graph",
}

var indexListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List indices",
	Args:  cobra.NoArgs,
	RunE:  runIndexList,
}

var indexCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a manual or automatic index",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexCreate,
}

var indexDropCmd = &cobra.Command{
	Use:   "drop NAME",
	Short: "Drop an index",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexDrop,
}

var indexCountCmd = &cobra.Command{
	Use:   "count NAME KEY VALUE",
	Short: "Count the elements indexed under a key/value pair",
	Args:  cobra.ExactArgs(3),
	RunE:  runIndexCount,
}

var indexGetCmd = &cobra.Command{
	Use:   "get NAME KEY VALUE",
	Short: "List the elements indexed under a key/value pair",
	Args:  cobra.ExactArgs(3),
	RunE:  runIndexGet,
}

var (
	indexClassFlag string
	automaticFlag  bool
	autoKeysFlag   []string
)

func init() {
	for _, c := range []*cobra.Command{indexCreateCmd, indexCountCmd, indexGetCmd} {
		c.Flags().StringVar(&indexClassFlag, "class", "vertex", "Index class (vertex, edge)")
	}
	indexCreateCmd.Flags().BoolVar(&automaticFlag, "automatic", false, "Create an automatic index")
	indexCreateCmd.Flags().StringSliceVar(&autoKeysFlag, "keys", nil, "Auto-indexed property keys (automatic indices)")

	indexCmd.AddCommand(indexListCmd, indexCreateCmd, indexDropCmd, indexCountCmd, indexGetCmd)
}

func runIndexList(cmd *cobra.Command, args []string) error {
	g, err := openGraph(cmd)
	if err != nil {
		return err
	}
	it, err := g.Indices(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCLASS\tTYPE\tKEYS")
	for it.Next(cmd.Context()) {
		idx := it.Value()
		keys := ""
		if auto, ok := idx.Automatic(); ok {
			k, err := auto.AutoIndexKeys(cmd.Context())
			if err != nil {
				return err
			}
			keys = strings.Join(k, ",")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", idx.Name(), idx.Class(), idx.Type(), keys)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return it.Err()
}

func runIndexCreate(cmd *cobra.Command, args []string) error {
	g, err := openGraph(cmd)
	if err != nil {
		return err
	}
	if automaticFlag {
		idx, err := g.CreateAutomaticIndex(cmd.Context(), args[0], indexClassFlag, autoKeysFlag)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), idx)
		return nil
	}
	idx, err := g.CreateManualIndex(cmd.Context(), args[0], indexClassFlag)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), idx)
	return nil
}

func runIndexDrop(cmd *cobra.Command, args []string) error {
	g, err := openGraph(cmd)
	if err != nil {
		return err
	}
	if err := g.DropIndex(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Dropped index %s\n", args[0])
	return nil
}

func runIndexCount(cmd *cobra.Command, args []string) error {
	g, err := openGraph(cmd)
	if err != nil {
		return err
	}
	idx, err := g.Index(cmd.Context(), args[0], indexClassFlag)
	if err != nil {
		return err
	}
	if idx == nil {
		return fmt.Errorf("%s index %s not found", indexClassFlag, args[0])
	}
	n, err := idx.Count(cmd.Context(), args[1], parseScalar(args[2]))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), n)
	return nil
}

func runIndexGet(cmd *cobra.Command, args []string) error {
	g, err := openGraph(cmd)
	if err != nil {
		return err
	}
	idx, err := g.Index(cmd.Context(), args[0], indexClassFlag)
	if err != nil {
		return err
	}
	if idx == nil {
		return fmt.Errorf("%s index %s not found", indexClassFlag, args[0])
	}
	it, err := idx.Get(cmd.Context(), args[1], parseScalar(args[2]))
	if err != nil {
		return err
	}
	for it.Next(cmd.Context()) {
		if err := printElement(cmd.OutOrStdout(), it.Value()); err != nil {
			return err
		}
	}
	return it.Err()
}
