package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/flowplan/internal/evaluator"
	"github.com/fyrsmithlabs/flowplan/internal/goal"
	"github.com/fyrsmithlabs/flowplan/internal/plan"
)

// errFailedEvaluation is returned by evaluate --strict for a failing plan.
var errFailedEvaluation = errors.New("plan failed evaluation")

type evaluateOptions struct {
	goal   string
	band   string
	kind   string
	strict bool
}

func newEvaluateCmd(root *rootOptions) *cobra.Command {
	opts := &evaluateOptions{}
	cmd := &cobra.Command{
		Use:   "evaluate <plan.json>",
		Short: "Score a plan against an effort band",
		Long: `Score a plan file, or stdin with "-", and print the evaluation.

The plan may use any of the loose shapes a proposer returns.

Examples:
  planctl evaluate plan.json --goal "Run a 5k" --band light
  cat plan.json | planctl evaluate - --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.goal, "goal", "", "goal text used for requirement checks (defaults to the plan title)")
	cmd.Flags().StringVar(&opts.band, "band", "medium", "effort band: light, medium or intense")
	cmd.Flags().StringVar(&opts.kind, "type", "", "resolution type (classified from the goal when unset)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit non-zero when the plan fails")
	return cmd
}

func runEvaluate(cmd *cobra.Command, root *rootOptions, opts *evaluateOptions, path string) error {
	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}
	p, err := plan.Decode(data)
	if err != nil {
		return err
	}
	p.Normalize(goal.NormalizeTitle(opts.goal), nil)

	text := opts.goal
	if text == "" {
		text = p.Title
	}
	rt := goal.ParseType(opts.kind)
	if rt == goal.TypeOther {
		rt = goal.Classify(text)
	}
	ev := evaluator.Evaluate(p, opts.band, rt, goal.Extract(text, rt))
	if err := root.write(cmd.OutOrStdout(), ev); err != nil {
		return err
	}
	if opts.strict && !ev.Passed {
		return errFailedEvaluation
	}
	return nil
}
