package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/flowplan/internal/cadence"
	"github.com/fyrsmithlabs/flowplan/internal/generator"
	"github.com/fyrsmithlabs/flowplan/internal/plan"
)

type cadenceOptions struct {
	weekStart        string
	allowDailyRepeat bool
}

// cadenceOutput is the result of planctl cadence.
type cadenceOutput struct {
	Cadence     cadence.Spec `json:"cadence"`
	Label       string       `json:"label"`
	Occurrences int          `json:"occurrences"`
	Dates       []string     `json:"dates"`
}

func newCadenceCmd(root *rootOptions) *cobra.Command {
	opts := &cadenceOptions{}
	cmd := &cobra.Command{
		Use:   "cadence <descriptor>",
		Short: "Normalize a cadence and expand it into dates",
		Long: `Normalize a cadence descriptor and list the dates it occupies in one week.

The descriptor is free text or a JSON object.

Examples:
  planctl cadence "3x per week" --week-start 2024-01-01
  planctl cadence "mon, wed, fri"
  planctl cadence '{"type": "x_per_week", "count": 2}'
  planctl cadence daily --allow-daily-repeat`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCadence(cmd, root, opts, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&opts.weekStart, "week-start", "", "first day of the week, YYYY-MM-DD (defaults to next Monday)")
	cmd.Flags().BoolVar(&opts.allowDailyRepeat, "allow-daily-repeat", false, "expand daily cadences to all seven days")
	return cmd
}

func runCadence(cmd *cobra.Command, root *rootOptions, opts *cadenceOptions, descriptor string) error {
	weekStart, err := parseWeekStart(opts.weekStart)
	if err != nil {
		return err
	}
	if weekStart.IsZero() {
		weekStart = generator.NextMonday(time.Now())
	}

	var raw any = descriptor
	if trimmed := strings.TrimSpace(descriptor); strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
			return fmt.Errorf("parsing cadence object: %w", err)
		}
	}

	spec := cadence.Normalize(raw)
	dates := cadence.Expand(spec, weekStart, opts.allowDailyRepeat)
	out := cadenceOutput{
		Cadence:     spec,
		Label:       spec.String(),
		Occurrences: spec.Occurrences(),
		Dates:       make([]string, 0, len(dates)),
	}
	for _, d := range dates {
		out.Dates = append(out.Dates, d.Format(plan.DateLayout))
	}
	return root.write(cmd.OutOrStdout(), out)
}
