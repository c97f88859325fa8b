package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Query the import graph built from the index",
	}
	cmd.PersistentFlags().StringVar(&root, "root", ".", "Project root to query")

	cmd.AddCommand(newGraphDependentsCmd(&root))
	cmd.AddCommand(newGraphDependenciesCmd(&root))
	cmd.AddCommand(newGraphCyclesCmd(&root))
	cmd.AddCommand(newGraphImpactCmd(&root))

	return cmd
}

func newGraphDependentsCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "dependents <file>",
		Short: "List files that import the given file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGraph(cmd.Context(), *root, func(ctx context.Context, a *app) error {
				files, err := a.Graph.Dependents(ctx, args[0])
				if err != nil {
					return err
				}
				printFileList(cmd, files)
				return nil
			})
		},
	}
}

func newGraphDependenciesCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "dependencies <file>",
		Short: "List files the given file imports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGraph(cmd.Context(), *root, func(ctx context.Context, a *app) error {
				files, err := a.Graph.Dependencies(ctx, args[0])
				if err != nil {
					return err
				}
				printFileList(cmd, files)
				return nil
			})
		},
	}
}

func newGraphCyclesCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cycles",
		Short: "Detect import cycles across the indexed repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGraph(cmd.Context(), *root, func(ctx context.Context, a *app) error {
				cycles, err := a.Graph.DetectCycles(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(cycles) == 0 {
					fmt.Fprintln(out, "No import cycles detected.")
					return nil
				}
				for i, c := range cycles {
					fmt.Fprintf(out, "%d. depth=%d  %v\n", i+1, c.Depth, c.Files)
				}
				return nil
			})
		},
	}
}

func newGraphImpactCmd(root *string) *cobra.Command {
	var maxDepth int

	cmd := &cobra.Command{
		Use:   "impact <file>",
		Short: "Walk the reverse-dependency graph from the given file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGraph(cmd.Context(), *root, func(ctx context.Context, a *app) error {
				hits, err := a.Graph.ImpactAnalysis(ctx, args[0], maxDepth)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(hits) == 0 {
					fmt.Fprintln(out, "No dependents reached within max depth.")
					return nil
				}
				for _, h := range hits {
					fmt.Fprintf(out, "%s  distance=%d  path=%v\n", h.FilePath, h.Distance, h.Path)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Maximum BFS depth (0 uses the default of 5)")
	return cmd
}

func withGraph(ctx context.Context, root string, fn func(context.Context, *app) error) error {
	a, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printFileList(cmd *cobra.Command, files []string) {
	out := cmd.OutOrStdout()
	if len(files) == 0 {
		fmt.Fprintln(out, "(none)")
		return
	}
	for _, f := range files {
		fmt.Fprintln(out, f)
	}
}
