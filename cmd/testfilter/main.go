// Package main implements the CLI for querying platform test exclusions.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v3"

	"github.com/715d/testfilter/internal/runner"
	"github.com/715d/testfilter/pkg/platform"
	"github.com/715d/testfilter/pkg/testfilter"
)

// Config holds all command-line configuration options.
type Config struct {
	Verbose     bool   // enables debug logging
	JSON        bool   // enables JSON output format
	BuildConfig string // build config the filters are evaluated for
	Overlay     string // optional layer file stacked on the platform
	WebPlatform bool   // select web platform test filters instead of unit tests
	Registered  string // YAML file mapping targets to their test cases
}

const (
	exitSkipped = 1
	exitError   = 2
)

var (
	// Set via ldflags during build.
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

var cfg Config

func main() {
	rootCmd := newRootCmd(os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		if err.Error() != "" {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		var cErr *codedError
		if errors.As(err, &cErr) {
			os.Exit(cErr.code)
		}
		os.Exit(exitError)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "testfilter",
		Short: "Query per-platform test exclusions",
		Long: `testfilter reports which unit tests and web platform tests are excluded
on a platform. Each platform layers its own exclusions on top of the
platform it extends.`,
		Example: `  testfilter platforms
  testfilter list linux-x64x11-clang-3-9
  testfilter list linux-x64x11-clang-3-9 --wpt --json
  testfilter gtest-filter linux-x64x11-clang-3-9 base_unittests
  testfilter stale linux-x64x11-clang-3-9 --registered tests.yaml`,
		PersistentPreRunE: setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Version:           version,
	}
	rootCmd.SetOut(out)
	rootCmd.SetVersionTemplate(fmt.Sprintf("testfilter version %s\n  commit: %s\n  built:  %s\n", version, gitCommit, buildTime))

	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&cfg.JSON, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&cfg.BuildConfig, "config", "devel", "Build config to evaluate filters for (debug, devel, qa, gold)")
	rootCmd.PersistentFlags().StringVar(&cfg.Overlay, "overlay", "", "YAML layer file with extra exclusions stacked on the platform")
	rootCmd.PersistentFlags().BoolVar(&cfg.WebPlatform, "wpt", false, "Use web platform test filters")

	staleCmd := &cobra.Command{
		Use:   "stale <platform>",
		Short: "Report filters that no longer match a registered test",
		Args:  cobra.ExactArgs(1),
		RunE:  runStale,
	}
	staleCmd.Flags().StringVar(&cfg.Registered, "registered", "", "YAML file mapping each target to its test cases")
	_ = staleCmd.MarkFlagRequired("registered")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "platforms",
			Short: "List registered platforms",
			Args:  cobra.NoArgs,
			RunE:  runPlatforms,
		},
		&cobra.Command{
			Use:   "list <platform>",
			Short: "Print the exclusions for a platform",
			Args:  cobra.ExactArgs(1),
			RunE:  runList,
		},
		&cobra.Command{
			Use:   "gtest-filter <platform> <target>",
			Short: "Print the --gtest_filter value for a target",
			Args:  cobra.ExactArgs(2),
			RunE:  runGTestFilter,
		},
		staleCmd,
	)
	return rootCmd
}

func runPlatforms(cmd *cobra.Command, _ []string) error {
	names := platform.Default.Names()
	if cfg.JSON {
		return writeJSON(cmd.OutOrStdout(), names)
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	filters, err := selectedFilters(args[0])
	if err != nil {
		return errWithCode(err, exitError)
	}

	if cfg.JSON {
		return writeJSON(cmd.OutOrStdout(), filters)
	}
	for _, f := range filters {
		if f.Config != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", f.Target, f.Test, f.Config)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", f.Target, f.Test)
	}
	return nil
}

func runGTestFilter(cmd *cobra.Command, args []string) error {
	filters, err := selectedFilters(args[0])
	if err != nil {
		return errWithCode(err, exitError)
	}

	decision := runner.Plan(filters, args[1], cfg.BuildConfig)
	slog.Info("planned target", "target", decision.Target, "skip", decision.Skip, "excluded", len(decision.Excluded))

	if cfg.JSON {
		if err := writeJSON(cmd.OutOrStdout(), decision); err != nil {
			return err
		}
	} else if !decision.Skip {
		fmt.Fprintln(cmd.OutOrStdout(), decision.GTestFilter())
	}

	if decision.Skip {
		return errWithCode(fmt.Errorf("%s is disabled on %s", decision.Target, args[0]), exitSkipped)
	}
	return nil
}

func runStale(cmd *cobra.Command, args []string) error {
	filters, err := selectedFilters(args[0])
	if err != nil {
		return errWithCode(err, exitError)
	}

	data, err := os.ReadFile(cfg.Registered)
	if err != nil {
		return errWithCode(fmt.Errorf("reading registered tests: %w", err), exitError)
	}
	var registered map[string][]string
	if err := yaml.Unmarshal(data, &registered); err != nil {
		return errWithCode(fmt.Errorf("parsing %s: %w", cfg.Registered, err), exitError)
	}

	stale := runner.Stale(filters, registered)
	slog.Info("stale filters", "platform", args[0], "count", len(stale))
	if cfg.JSON {
		return writeJSON(cmd.OutOrStdout(), stale)
	}
	for _, f := range stale {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", f.Target, f.Test)
	}
	return nil
}

// selectedFilters resolves the platform plus any overlay and returns the
// filter list chosen by the --wpt flag.
func selectedFilters(name string) ([]testfilter.TestFilter, error) {
	pc, err := platform.Lookup(name)
	if err != nil {
		return nil, err
	}
	if cfg.Overlay != "" {
		pc, err = platform.LoadLayer(name+"+overlay", pc, cfg.Overlay)
		if err != nil {
			return nil, err
		}
	}
	slog.Debug("resolved platform", "lineage", strings.Join(platform.Lineage(pc), " <- "))

	if cfg.WebPlatform {
		return pc.WebPlatformTestFilters(), nil
	}
	return pc.TestFilters(), nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling json output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func setup(_ *cobra.Command, _ []string) error {
	// Disable logger unless verbose flag is set.
	slog.SetDefault(slog.New(slog.DiscardHandler))
	if cfg.Verbose {
		opts := &slog.HandlerOptions{Level: slog.LevelDebug}
		var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
		if cfg.JSON {
			handler = slog.NewJSONHandler(os.Stderr, opts)
		}
		slog.SetDefault(slog.New(handler))
	}
	return nil
}

func errWithCode(err error, code int) error {
	return &codedError{err: err, code: code}
}

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return ""
}

func (e *codedError) Unwrap() error { return e.err }
