package bench

import (
	"context"
	"time"

	"github.com/weiihann/hebench/abi"
	"github.com/weiihann/hebench/datapack"
	"github.com/weiihann/hebench/report"
	"github.com/weiihann/hebench/validate"
)

// Minimum measured iterations before a Latency run may stop.
const latencyMinIterations = 2

// LatencyDriver runs the full pipeline once per iteration on a single
// sample and keeps iterating until both the iteration floor and the
// requested minimum test time are met.
type LatencyDriver struct {
	pb     *PartialBenchmark
	loader *datapack.Loader
	sink   report.Sink
}

// NewLatencyDriver binds a driver to an initialized benchmark, its
// generated data, and the report sink.
func NewLatencyDriver(pb *PartialBenchmark, loader *datapack.Loader,
	sink report.Sink,
) *LatencyDriver {
	return &LatencyDriver{pb: pb, loader: loader, sink: sink}
}

// Run executes the Latency protocol: warmup iterations first, untimed,
// then measured iterations until iteration count and elapsed wall time
// both satisfy the termination rule. The final decoded result is
// validated against ground truth.
func (d *LatencyDriver) Run(ctx context.Context) error {
	d.pb.PostInit()

	desc := d.pb.Descriptor()
	cfg := d.pb.Config()

	minTestTime := time.Duration(desc.CatParams.Latency.MinTestTimeMS) * time.Millisecond
	if floor := time.Duration(cfg.MinTestTimeMS) * time.Millisecond; floor > minTestTime {
		minTestTime = floor
	}

	// One sample per parameter: the first of each batch.
	inputs := make([]datapack.DataPack, d.loader.InputParamCount())
	indexers := make([]abi.ParamIndexer, d.loader.InputParamCount())

	for i := range inputs {
		pack := d.loader.ParameterPack(i)
		inputs[i] = datapack.DataPack{
			Buffers:       pack.Buffers[:1],
			ParamPosition: pack.ParamPosition,
		}
		indexers[i] = abi.ParamIndexer{ValueIndex: 0, BatchSize: 1}
	}

	// Every parameter batch is 1, so each result pack holds a single
	// buffer.
	out := actualResultPacks(d.loader)

	pipe := &pipeline{pb: d.pb, sink: d.sink}

	// Warmup iterations run the full pipeline untimed; each one is
	// recorded as a single event so the report shows they happened.
	for i := uint64(0); i < desc.CatParams.Latency.WarmupIterations; i++ {
		timer := startTimer()

		if err := pipe.run(ctx, inputs, indexers, 1, false, out); err != nil {
			return err
		}

		wall, cpu := timer.stop()

		d.sink.AddEvent(report.TimingEvent{
			ID:         d.pb.nextEventID(),
			Wall:       wall,
			CPU:        cpu,
			Iterations: 1,
			Label:      "Warmup",
		})
	}

	var elapsed time.Duration
	iterations := 0

	for iterations < latencyMinIterations || elapsed < minTestTime {
		start := time.Now()

		if err := pipe.run(ctx, inputs, indexers, 1, true, out); err != nil {
			return err
		}

		elapsed += time.Since(start)
		iterations++
	}

	return d.validateResults(out)
}

// validateResults compares the last decoded results against the
// expected outputs for the single measured sample.
func (d *LatencyDriver) validateResults(out []datapack.DataPack) error {
	multi := make([]uint64, d.loader.InputParamCount())

	for r := 0; r < d.loader.ResultCount(); r++ {
		expected := d.loader.ResultPack(r).Buffers[0].Data
		actual := out[r].Buffers[0].Data

		err := validate.Result(d.pb.Descriptor().DataType, expected, actual,
			0, multi, d.pb.Config().Tolerance)
		if err != nil {
			return err
		}
	}

	return nil
}
