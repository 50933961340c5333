package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/flowplan/internal/app"
	"github.com/fyrsmithlabs/flowplan/internal/generator"
	"github.com/fyrsmithlabs/flowplan/internal/goal"
	"github.com/fyrsmithlabs/flowplan/internal/plan"
	"github.com/fyrsmithlabs/flowplan/internal/proposer"
)

type generateOptions struct {
	title     string
	band      string
	kind      string
	weeks     int
	weekStart string
	proposal  string
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate <goal>",
		Short: "Generate a plan for a goal",
		Long: `Generate a multi-week plan with a scheduled first week.

Without a configured proposer the built-in templates are used.

Examples:
  # Template plan for the coming week
  planctl generate "Run a 5k by spring"

  # Light band, six weeks, starting on a given Monday
  planctl generate "Learn Spanish" --band light --weeks 6 --week-start 2024-01-08

  # Replay a saved proposer response
  planctl generate "Run a 5k" --proposal response.json -o yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, root, opts, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&opts.title, "title", "", "plan title (defaults to the first sentence of the goal)")
	cmd.Flags().StringVar(&opts.band, "band", "", "effort band: light, medium or intense")
	cmd.Flags().StringVar(&opts.kind, "type", "", "resolution type: habit, project, learning, health, finance, skill, work or other")
	cmd.Flags().IntVar(&opts.weeks, "weeks", 0, "plan duration in weeks, 1 to 12")
	cmd.Flags().StringVar(&opts.weekStart, "week-start", "", "first day of week one, YYYY-MM-DD (defaults to next Monday)")
	cmd.Flags().StringVar(&opts.proposal, "proposal", "", "file holding a proposer response to use instead of the configured provider")
	return cmd
}

func runGenerate(cmd *cobra.Command, root *rootOptions, opts *generateOptions, goalText string) error {
	ctx := cmd.Context()
	if strings.TrimSpace(goalText) == "" {
		return fmt.Errorf("goal is required")
	}
	if opts.weeks < 0 || opts.weeks > plan.MaxWeeks {
		return fmt.Errorf("--weeks must be between 1 and %d", plan.MaxWeeks)
	}
	weekStart, err := parseWeekStart(opts.weekStart)
	if err != nil {
		return err
	}

	cfg, logger, err := root.loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var appOpts app.Options
	if opts.proposal != "" {
		static, err := proposer.LoadStatic(opts.proposal)
		if err != nil {
			return err
		}
		appOpts.Proposer = static
	}
	gen, err := app.NewGenerator(ctx, cfg, logger, nil, appOpts)
	if err != nil {
		return err
	}

	res, err := gen.Generate(ctx, generator.Request{
		GoalText:       goalText,
		Title:          opts.title,
		ResolutionType: goal.ParseType(opts.kind),
		Band:           opts.band,
		DurationWeeks:  opts.weeks,
		WeekStart:      weekStart,
	})
	if err != nil {
		return err
	}
	return root.write(cmd.OutOrStdout(), res)
}

func parseWeekStart(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(plan.DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("--week-start must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}
