// Package main provides the CLI entry point for hebench, a
// benchmarking test harness for homomorphic-encryption backends.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/weiihann/hebench/abi"
	"github.com/weiihann/hebench/backends/ckks"
	"github.com/weiihann/hebench/backends/cleartext"
	"github.com/weiihann/hebench/bench"
	"github.com/weiihann/hebench/config"
	"github.com/weiihann/hebench/engine"
)

// Process exit codes.
const (
	exitOK          = 0
	exitValidation  = 1
	exitBackend     = 2
	exitConfig      = 3
	exitInterrupted = 130
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(logger)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	var configErr *config.Error
	var backendErr *abi.BackendError
	var failedErr *failedError

	switch {
	case errors.Is(err, bench.ErrCancelled), errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.As(err, &failedErr):
		return exitValidation
	case errors.As(err, &configErr):
		return exitConfig
	case errors.As(err, &backendErr):
		return exitBackend
	default:
		return exitBackend
	}
}

// failedError marks a run where at least one benchmark failed
// numerically.
type failedError struct {
	failed int
}

func (e *failedError) Error() string {
	return fmt.Sprintf("%d benchmark(s) failed", e.failed)
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "hebench",
		Short: "Benchmarking test harness for homomorphic-encryption backends",
		Long: `Hebench discovers the benchmark variants a homomorphic-encryption
backend supports, generates reference inputs with cleartext ground truth,
drives the backend through its encode/encrypt/load/operate/store/decrypt/
decode pipeline, times each stage, validates numerical correctness, and
emits structured CSV reports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd(logger))

	return root
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var (
		backendLibPath string
		builtin        string
		configFile     string
		dump           bool
		randomSeed     uint64
		outputDir      string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every supported benchmark a backend publishes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dump {
				data, err := config.Default().Dump()
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), string(data))

				return nil
			}

			return runBenchmarks(cmd.Context(), logger, runOptions{
				backendLibPath: backendLibPath,
				builtin:        builtin,
				configFile:     configFile,
				randomSeed:     randomSeed,
				outputDir:      outputDir,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&backendLibPath, "backend_lib_path", "",
		"Path to the backend shared library")
	flags.StringVar(&builtin, "builtin", "",
		"Run an in-tree backend instead of a shared library (cleartext, ckks)")
	flags.StringVar(&configFile, "config_file", "",
		"Path to a YAML configuration file")
	flags.BoolVar(&dump, "dump", false,
		"Emit the default YAML configuration and exit")
	flags.Uint64Var(&randomSeed, "random_seed", 0,
		"Random seed for data generation (0 = use current time)")
	flags.StringVar(&outputDir, "output_dir", "reports",
		"Root directory for benchmark reports")

	return cmd
}

type runOptions struct {
	backendLibPath string
	builtin        string
	configFile     string
	randomSeed     uint64
	outputDir      string
}

func runBenchmarks(ctx context.Context, logger *slog.Logger, opts runOptions) error {
	cfg := config.Default()

	if opts.configFile != "" {
		var err error
		cfg, err = config.Load(opts.configFile)
		if err != nil {
			return err
		}
	}

	if opts.backendLibPath != "" {
		cfg.BackendLibPath = opts.backendLibPath
	}
	if opts.randomSeed != 0 {
		cfg.RandomSeed = opts.randomSeed
	}
	if cfg.RandomSeed == 0 {
		cfg.RandomSeed = uint64(time.Now().UnixNano())
	}

	ft, err := resolveBackend(cfg, opts.builtin)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting benchmark run",
		slog.Uint64("random_seed", cfg.RandomSeed),
		slog.Uint64("default_sample_size", cfg.DefaultSampleSize),
		slog.String("output_dir", opts.outputDir),
	)

	eng, err := engine.New(logger, ft)
	if err != nil {
		return err
	}
	defer eng.Close()

	summary, err := eng.Run(ctx, cfg, opts.outputDir)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "benchmark run complete",
		slog.Int("total", summary.Total),
		slog.Int("failed", summary.Failed),
	)

	if summary.Failed > 0 {
		for _, f := range summary.Failures {
			if f.Kind == "ValidationError" {
				// Exit code 1: at least one benchmark failed numerically.
				return &failedError{failed: summary.Failed}
			}
		}

		// No numerical failure: the failures came from the backend.
		return fmt.Errorf("%d benchmark(s) failed: %w",
			summary.Failed, summary.Failures[0].Err)
	}

	return nil
}

// resolveBackend picks the backend function table. Dynamic loading of
// shared libraries is provided by an external loader; this binary
// ships the in-tree backends.
func resolveBackend(cfg config.Config, builtin string) (*abi.FunctionTable, error) {
	switch builtin {
	case "cleartext":
		return cleartext.New().FunctionTable(), nil

	case "ckks":
		b, err := ckks.New()
		if err != nil {
			return nil, err
		}

		return b.FunctionTable(), nil

	case "":
		if cfg.BackendLibPath == "" {
			return nil, &config.Error{
				Field:  "backend_lib_path",
				Reason: "required unless --builtin is given",
			}
		}

		return nil, &config.Error{
			Field:  "backend_lib_path",
			Reason: "dynamic backend loading is not linked into this build; use --builtin",
		}

	default:
		return nil, &config.Error{
			Field:  "builtin",
			Reason: fmt.Sprintf("unknown in-tree backend %q", builtin),
		}
	}
}
