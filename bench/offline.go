package bench

import (
	"context"

	"github.com/weiihann/hebench/abi"
	"github.com/weiihann/hebench/datapack"
	"github.com/weiihann/hebench/report"
	"github.com/weiihann/hebench/validate"
)

// OfflineDriver runs the pipeline once across the entire input batch.
// Operate is invoked a single time; its iterations field records the
// total result count for throughput computation.
type OfflineDriver struct {
	pb     *PartialBenchmark
	loader *datapack.Loader
	sink   report.Sink
}

// NewOfflineDriver binds a driver to an initialized benchmark, its
// generated data, and the report sink.
func NewOfflineDriver(pb *PartialBenchmark, loader *datapack.Loader,
	sink report.Sink,
) *OfflineDriver {
	return &OfflineDriver{pb: pb, loader: loader, sink: sink}
}

// Run executes one pass over the whole sample space and validates
// every result position.
func (d *OfflineDriver) Run(ctx context.Context) error {
	d.pb.PostInit()

	inputs := make([]datapack.DataPack, d.loader.InputParamCount())
	indexers := make([]abi.ParamIndexer, d.loader.InputParamCount())

	for i := range inputs {
		pack := d.loader.ParameterPack(i)
		inputs[i] = *pack
		indexers[i] = abi.ParamIndexer{
			ValueIndex: 0,
			BatchSize:  uint64(len(pack.Buffers)),
		}
	}

	out := actualResultPacks(d.loader)

	pipe := &pipeline{pb: d.pb, sink: d.sink}

	if err := pipe.run(ctx, inputs, indexers, d.loader.ResultBatchSize(), true, out); err != nil {
		return err
	}

	return d.validateResults(out)
}

// validateResults walks the full sample space and compares every
// decoded result against its ground truth.
func (d *OfflineDriver) validateResults(out []datapack.DataPack) error {
	total := d.loader.ResultBatchSize()

	for r := 0; r < d.loader.ResultCount(); r++ {
		expected := d.loader.ResultPack(r)

		for flat := uint64(0); flat < total; flat++ {
			multi, err := d.loader.MultiIndex(flat)
			if err != nil {
				return err
			}

			err = validate.Result(d.pb.Descriptor().DataType,
				expected.Buffers[flat].Data, out[r].Buffers[flat].Data,
				flat, multi, d.pb.Config().Tolerance)
			if err != nil {
				return err
			}
		}
	}

	return nil
}
