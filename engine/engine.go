// Package engine owns one backend instance for the process lifetime,
// enumerates the benchmarks it publishes, matches them against the
// registered workload matchers, and runs every recognized benchmark in
// enumeration order.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/weiihann/hebench/abi"
	"github.com/weiihann/hebench/bench"
	"github.com/weiihann/hebench/config"
	"github.com/weiihann/hebench/datagen"
	"github.com/weiihann/hebench/datapack"
	"github.com/weiihann/hebench/report"
	"github.com/weiihann/hebench/validate"
	"github.com/weiihann/hebench/workload"
)

// Engine drives one backend through its full benchmark catalog.
type Engine struct {
	logger   *slog.Logger
	adapter  *abi.Adapter
	handle   abi.Handle
	matchers []bench.Matcher
}

// Failure records one benchmark that did not complete successfully.
type Failure struct {
	Path string
	Kind string
	Err  error
}

// Summary is the outcome of a full run.
type Summary struct {
	Total    int
	Failed   int
	Failures []Failure
}

// New initializes the backend and registers one matcher per supported
// workload family.
func New(logger *slog.Logger, ft *abi.FunctionTable) (*Engine, error) {
	adapter, err := abi.NewAdapter(ft)
	if err != nil {
		return nil, err
	}

	handle, err := adapter.Init()
	if err != nil {
		return nil, fmt.Errorf("initialize backend: %w", err)
	}

	return &Engine{
		logger:   logger.With(slog.String("component", "engine")),
		adapter:  adapter,
		handle:   handle,
		matchers: bench.DefaultMatchers(),
	}, nil
}

// Close releases the backend engine handle.
func (e *Engine) Close() error {
	if e.handle == 0 {
		return nil
	}

	h := e.handle
	e.handle = 0

	return e.adapter.Destroy(h)
}

// Adapter implements bench.Host.
func (e *Engine) Adapter() *abi.Adapter {
	return e.adapter
}

// Handle implements bench.Host.
func (e *Engine) Handle() abi.Handle {
	return e.handle
}

// defaultParamSets returns the workload parameter vectors the harness
// proposes for a backend workload.
func defaultParamSets(w workload.Workload) [][]workload.Param {
	switch w {
	case workload.EltwiseAdd, workload.EltwiseMult, workload.DotProduct:
		return [][]workload.Param{
			{workload.UInt64Param(100)},
			{workload.UInt64Param(1000)},
		}
	case workload.MatrixMultiply:
		return [][]workload.Param{
			{workload.UInt64Param(10), workload.UInt64Param(10), workload.UInt64Param(10)},
			{workload.UInt64Param(64), workload.UInt64Param(64), workload.UInt64Param(64)},
		}
	case workload.LogisticRegression, workload.LogisticRegressionPolyD3,
		workload.LogisticRegressionPolyD5, workload.LogisticRegressionPolyD7:
		return [][]workload.Param{
			{workload.UInt64Param(16)},
		}
	default:
		return nil
	}
}

// Run enumerates the backend's benchmarks, matches each against every
// registered matcher and known workload parameter set, and runs the
// recognized ones. Validation and backend failures are recorded and
// the run continues; configuration and resource failures abort.
func (e *Engine) Run(ctx context.Context, cfg config.Config, outputDir string) (Summary, error) {
	datagen.Seed(cfg.RandomSeed)

	benchCfg := bench.Config{
		DefaultSampleSize: cfg.DefaultSampleSize,
		MinTestTimeMS:     cfg.MinTestTimeMS,
		Tolerance: validate.Tolerance{
			F32Rel: cfg.ToleranceF32,
			F64Rel: cfg.ToleranceF64,
		},
	}

	handles, err := e.adapter.SubscribeBenchmarks(e.handle)
	if err != nil {
		return Summary{}, fmt.Errorf("subscribe benchmarks: %w", err)
	}

	e.logger.InfoContext(ctx, "backend benchmarks enumerated",
		slog.Int("count", len(handles)),
	)

	var summary Summary

	for _, h := range handles {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("%w: %v", bench.ErrCancelled, err)
		}

		desc, err := e.adapter.DescribeBenchmark(e.handle, h)
		if err != nil {
			summary.Total++
			e.recordFailure(&summary, outputDir, "", err)

			continue
		}

		for _, params := range defaultParamSets(desc.Workload) {
			token, matcher := e.matchDescriptor(ctx, benchCfg, h, params)
			if token == nil {
				continue
			}

			summary.Total++

			if err := e.runBenchmark(ctx, matcher, token, outputDir); err != nil {
				if errors.Is(err, bench.ErrCancelled) {
					e.recordFailure(&summary, outputDir, token.Path(), err)

					return summary, err
				}

				e.recordFailure(&summary, outputDir, token.Path(), err)

				if fatal(err) {
					return summary, err
				}
			}
		}
	}

	return summary, nil
}

// matchDescriptor tries every registered matcher in order; the first
// one that accepts wins.
func (e *Engine) matchDescriptor(ctx context.Context, cfg bench.Config,
	h abi.Handle, params []workload.Param,
) (*bench.DescriptionToken, bench.Matcher) {
	for _, m := range e.matchers {
		token, err := bench.MatchDescriptor(e, m, cfg, h, params)
		if err != nil {
			if !errors.Is(err, bench.ErrMismatch) {
				e.logger.WarnContext(ctx, "descriptor match failed",
					slog.String("family", m.Family()),
					slog.String("error", err.Error()),
				)
			}

			continue
		}

		return token, m
	}

	return nil, nil
}

// runBenchmark executes one matched benchmark end to end: data
// generation, backend initialization, the category driver, and report
// finalization.
func (e *Engine) runBenchmark(ctx context.Context, matcher bench.Matcher,
	token *bench.DescriptionToken, outputDir string,
) error {
	desc := token.Descriptor()

	e.logger.InfoContext(ctx, "running benchmark",
		slog.String("workload", token.WorkloadName()),
		slog.String("category", desc.Category.String()),
		slog.String("data_type", desc.DataType.String()),
		slog.String("path", token.Path()),
	)

	pb, err := bench.NewPartialBenchmark(e, matcher.ID(), token)
	if err != nil {
		return err
	}
	defer pb.Close()

	loader, err := matcher.NewData(desc, token.Params(), pb.Config())
	if err != nil {
		return err
	}

	sink := report.NewCSVSink(outputDir)
	sink.AddHeader(token.Header())

	if err := pb.InitBackend(sink); err != nil {
		return err
	}

	if err := e.runDriver(ctx, pb, loader, sink); err != nil {
		return err
	}

	if err := pb.Close(); err != nil {
		return err
	}

	if err := sink.Finalize(token.Path()); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "benchmark complete",
		slog.String("path", token.Path()),
	)

	return nil
}

func (e *Engine) runDriver(ctx context.Context, pb *bench.PartialBenchmark,
	loader *datapack.Loader, sink report.Sink,
) error {
	switch pb.Descriptor().Category {
	case workload.Offline:
		return bench.NewOfflineDriver(pb, loader, sink).Run(ctx)
	case workload.Latency:
		return bench.NewLatencyDriver(pb, loader, sink).Run(ctx)
	default:
		return fmt.Errorf("%w: unsupported category %d",
			bench.ErrMismatch, uint32(pb.Descriptor().Category))
	}
}

// recordFailure logs one failed benchmark, counts it, and leaves a
// note in the report directory when a canonical path is known.
func (e *Engine) recordFailure(summary *Summary, outputDir, path string, err error) {
	kind := errorKind(err)

	summary.Failed++
	summary.Failures = append(summary.Failures, Failure{
		Path: path,
		Kind: kind,
		Err:  err,
	})

	fmt.Fprintf(os.Stderr, "[FAILED] %s: %s: %s\n", path, kind, err.Error())

	if path == "" {
		return
	}

	dir := filepath.Join(outputDir, filepath.FromSlash(path))
	if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
		return
	}

	note := fmt.Sprintf("[FAILED] %s: %s: %s\n", path, kind, err.Error())
	_ = os.WriteFile(filepath.Join(dir, "error.txt"), []byte(note), 0o644)
}

// errorKind maps an error to its taxonomy name.
func errorKind(err error) string {
	var backendErr *abi.BackendError
	var validationErr *validate.Error
	var configErr *config.Error

	switch {
	case errors.Is(err, bench.ErrCancelled):
		return "Cancelled"
	case errors.As(err, &validationErr):
		return "ValidationError"
	case errors.As(err, &backendErr):
		return "BackendError"
	case errors.Is(err, bench.ErrMismatch):
		return "DescriptorMismatch"
	case errors.Is(err, bench.ErrPrecondition):
		return "PreconditionFailed"
	case errors.Is(err, datapack.ErrResource):
		return "ResourceError"
	case errors.As(err, &configErr):
		return "ConfigError"
	default:
		return "Error"
	}
}

// fatal reports whether an error must abort the whole run instead of
// continuing with the next benchmark.
func fatal(err error) bool {
	switch errorKind(err) {
	case "ValidationError", "BackendError", "DescriptorMismatch", "Error":
		return false
	default:
		return true
	}
}
