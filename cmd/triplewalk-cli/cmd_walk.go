package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/persistorai/triplewalk/client"
)

// parseStep reads one --step value. The operator comes before the first "=",
// arguments follow it separated by commas:
//
//	out=ex:p,ex:q   in=ex:p   all_out   all_in   has=ex:p,ex:o   is=ex:a,ex:b
func parseStep(s string) (client.Step, error) {
	op, arg, hasArg := strings.Cut(s, "=")
	op = strings.TrimSpace(op)

	var args []string
	if hasArg {
		for _, a := range strings.Split(arg, ",") {
			if a = strings.TrimSpace(a); a != "" {
				args = append(args, a)
			}
		}
	}

	switch op {
	case client.StepOut, client.StepIn:
		if len(args) == 0 {
			return client.Step{}, fmt.Errorf("step %q: at least one predicate required", s)
		}
		return client.Step{Op: op, Predicates: args}, nil
	case client.StepAllOut, client.StepAllIn:
		if len(args) > 0 {
			return client.Step{}, fmt.Errorf("step %q: %s takes no arguments", s, op)
		}
		return client.Step{Op: op}, nil
	case client.StepHas:
		if len(args) != 2 {
			return client.Step{}, fmt.Errorf("step %q: has needs predicate,object", s)
		}
		return client.Step{Op: op, Predicate: args[0], Object: args[1]}, nil
	case client.StepIs:
		if len(args) == 0 {
			return client.Step{}, fmt.Errorf("step %q: at least one node required", s)
		}
		return client.Step{Op: op, Nodes: args}, nil
	default:
		return client.Step{}, fmt.Errorf("step %q: unknown operator %q", s, op)
	}
}

func parseSteps(raw []string) ([]client.Step, error) {
	steps := make([]client.Step, 0, len(raw))
	for _, s := range raw {
		step, err := parseStep(s)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func newWalkCmd() *cobra.Command {
	var (
		rawSteps []string
		limit    int
		labels   bool
		stream   bool
		page     int
	)

	cmd := &cobra.Command{
		Use:   "walk <node>...",
		Short: "Evaluate a path expression from the given nodes",
		Long: `Evaluate a path expression from the given nodes. Steps apply in order:

  triplewalk walk ex:cairo --step out=ex:holonym --step out=ex:holonym --labels`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := parseSteps(rawSteps)
			if err != nil {
				return err
			}
			req := client.WalkRequest{From: args, Steps: steps, Limit: limit, Labels: labels}

			if stream {
				return streamWalk(cmd.Context(), req, page)
			}

			result, err := apiClient.Walk(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("walk: %w", err)
			}
			if err := outputPaths(result, result.Paths); err != nil {
				return err
			}
			if result.Truncated && flagFmt == "table" {
				fmt.Printf("(truncated at %d paths)\n", result.Count)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&rawSteps, "step", nil, "Path step, repeatable (op[=arg,...])")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max paths (server default when 0)")
	cmd.Flags().BoolVar(&labels, "labels", false, "Include node labels")
	cmd.Flags().BoolVar(&stream, "stream", false, "Pull paths page by page over a WebSocket")
	cmd.Flags().IntVar(&page, "page", 100, "Page size for --stream")
	return cmd
}

// streamWalk prints every path of a streamed walk. Labels are not streamed;
// use a plain walk for labelled output.
func streamWalk(ctx context.Context, req client.WalkRequest, page int) error {
	s, err := apiClient.Stream(ctx, req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer s.Close() //nolint:errcheck // best-effort close

	var all []client.Path
	for {
		paths, done, err := s.Next(ctx, page)
		if err != nil {
			return fmt.Errorf("stream: %w", err)
		}
		all = append(all, paths...)
		if done {
			break
		}
	}

	return outputPaths(client.WalkResult{Paths: all, Count: len(all)}, all)
}
