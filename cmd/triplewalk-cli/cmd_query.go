package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/persistorai/triplewalk/client"
)

func newClosureCmd() *cobra.Command {
	var (
		predicate string
		reverse   bool
		seeds     bool
		depth     int
	)

	cmd := &cobra.Command{
		Use:   "closure <term | node...>",
		Short: "List every node reachable over one predicate",
		Long: `List every node reachable over one predicate. The argument is a label
resolved to its nodes, or with --seeds one or more node identifiers.
A negative --depth is unbounded.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := client.ClosureRequest{Predicate: predicate, Reverse: reverse}
			switch {
			case seeds:
				req.Seeds = args
			case len(args) == 1:
				req.Term = args[0]
			default:
				return fmt.Errorf("closure takes one term; use --seeds for node identifiers")
			}
			if cmd.Flags().Changed("depth") {
				req.MaxDepth = &depth
			}

			result, err := apiClient.Closure(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("closure: %w", err)
			}
			return outputRecords(result)
		},
	}

	cmd.Flags().StringVar(&predicate, "predicate", "", "Predicate to follow (required)")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "Follow the predicate from object to subject")
	cmd.Flags().BoolVar(&seeds, "seeds", false, "Treat arguments as node identifiers")
	cmd.Flags().IntVar(&depth, "depth", 0, "Max recursion depth (server default when unset)")
	cmd.MarkFlagRequired("predicate") //nolint:errcheck // flag is defined above
	return cmd
}

func newLabelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "labels <node>",
		Short: "List the labels of a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.Labels(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("labels: %w", err)
			}
			return outputList(result, "LABEL", result.Labels)
		},
	}
}

func newFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <label>",
		Short: "List the nodes carrying a label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.Find(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("find: %w", err)
			}
			return outputList(result, "NODE", result.Nodes)
		},
	}
}

func newRelatedCmd() *cobra.Command {
	var predicate string

	cmd := &cobra.Command{
		Use:   "related <term>",
		Short: "List labels of nodes linked to a term by a predicate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.Related(cmd.Context(), args[0], predicate)
			if err != nil {
				return fmt.Errorf("related: %w", err)
			}
			return outputList(result, "LABEL", result.Labels)
		},
	}

	cmd.Flags().StringVar(&predicate, "predicate", "", "Predicate linking the term's nodes (required)")
	cmd.MarkFlagRequired("predicate") //nolint:errcheck // flag is defined above
	return cmd
}

func newHealthCmd() *cobra.Command {
	var ready bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server liveness, or readiness with --ready",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ready {
				result, err := apiClient.Ready(cmd.Context())
				if err != nil {
					return fmt.Errorf("ready: %w", err)
				}
				return output(result, nil, nil, []string{result.Status})
			}

			result, err := apiClient.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("health: %w", err)
			}
			rows := [][]string{{result.Status, result.Version, result.Backend, result.Store, fmt.Sprint(result.Streams)}}
			return output(result, []string{"STATUS", "VERSION", "BACKEND", "STORE", "STREAMS"}, rows, []string{result.Status})
		},
	}

	cmd.Flags().BoolVar(&ready, "ready", false, "Check readiness instead of liveness")
	return cmd
}
