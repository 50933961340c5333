// Package main implements planctl, a CLI for generating and checking plans
// locally without the flowplan daemon.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/flowplan/internal/config"
	"github.com/fyrsmithlabs/flowplan/internal/logging"
)

// version information (set via ldflags during build)
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	output     string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "planctl",
		Short: "Generate, evaluate and schedule goal plans",
		Long: `planctl runs the flowplan planner locally.

It turns a goal into a multi-week plan with a scheduled first week, scores
existing plans against an effort band, and expands cadences into dates.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/flowplan/config.yaml)")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "json", "output format: json or yaml")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log planner decisions to stderr")

	cmd.AddCommand(newGenerateCmd(opts))
	cmd.AddCommand(newEvaluateCmd(opts))
	cmd.AddCommand(newCadenceCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the planctl version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "planctl %s\n", version)
			return err
		},
	}
}

// loadConfig reads configuration and builds a stderr logger, so stdout only
// carries command output.
func (o *rootOptions) loadConfig() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if !o.verbose {
		return cfg, logging.NewNop(), nil
	}
	lcfg, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	lcfg.Output.Stdout = false
	lcfg.Output.Stderr = true
	lcfg.Output.OTEL = false
	lcfg.Format = "console"
	lcfg.Level = zapcore.DebugLevel
	logger, err := logging.NewLogger(lcfg, nil)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func (o *rootOptions) write(w io.Writer, v any) error {
	return writeOutput(w, o.output, v)
}

// writeOutput renders v as indented JSON or as YAML. YAML goes through the
// JSON encoding so field names and custom marshalers match.
func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q: want json or yaml", format)
	}
}

// readInput reads a file, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- user-supplied input file
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return data, nil
}
