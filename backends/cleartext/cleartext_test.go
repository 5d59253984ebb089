package cleartext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/hebench/abi"
	"github.com/weiihann/hebench/datagen"
	"github.com/weiihann/hebench/datapack"
	"github.com/weiihann/hebench/workload"
)

func TestCatalogCoversWorkloads(t *testing.T) {
	catalog := buildCatalog()

	seen := make(map[workload.Workload]bool)
	for _, desc := range catalog {
		seen[desc.Workload] = true
	}

	for _, w := range []workload.Workload{
		workload.EltwiseAdd, workload.EltwiseMult, workload.DotProduct,
		workload.MatrixMultiply, workload.LogisticRegression,
		workload.LogisticRegressionPolyD3, workload.LogisticRegressionPolyD5,
		workload.LogisticRegressionPolyD7,
	} {
		assert.True(t, seen[w], "catalog missing %s", w)
	}
}

// TestFullPipelineByHand drives the raw function table through one
// EltwiseAdd latency unit with crafted inputs.
func TestFullPipelineByHand(t *testing.T) {
	desc := workload.BenchmarkDescriptor{
		Workload: workload.EltwiseAdd,
		Category: workload.Latency,
		DataType: workload.Int32,
	}

	ft := NewWithCatalog([]workload.BenchmarkDescriptor{desc}).FunctionTable()

	engineH, code := ft.Init()
	require.Equal(t, abi.ErrorCode(0), code)

	handles, code := ft.SubscribeBenchmarks(engineH)
	require.Equal(t, abi.ErrorCode(0), code)
	require.Len(t, handles, 1)

	benchH, code := ft.InitBenchmark(engineH, handles[0],
		[]workload.Param{workload.UInt64Param(4)})
	require.Equal(t, abi.ErrorCode(0), code)

	a := make([]byte, 16)
	b := make([]byte, 16)
	for i, v := range []int32{1, 2, 3, 4} {
		datagen.PutElem(a, uint64(i), v)
	}
	for i, v := range []int32{10, 20, 30, 40} {
		datagen.PutElem(b, uint64(i), v)
	}

	packs := []datapack.DataPack{
		{Buffers: []datapack.NativeDataBuffer{{Data: a}}, ParamPosition: 0},
		{Buffers: []datapack.NativeDataBuffer{{Data: b}}, ParamPosition: 1},
	}

	hPlain, code := ft.Encode(benchH, packs)
	require.Equal(t, abi.ErrorCode(0), code)

	hRemote, code := ft.Load(benchH, []abi.Handle{hPlain})
	require.Equal(t, abi.ErrorCode(0), code)

	indexers := []abi.ParamIndexer{
		{ValueIndex: 0, BatchSize: 1},
		{ValueIndex: 0, BatchSize: 1},
	}

	hResult, code := ft.Operate(benchH, hRemote, indexers)
	require.Equal(t, abi.ErrorCode(0), code)

	hLocal, code := ft.Store(benchH, hResult)
	require.Equal(t, abi.ErrorCode(0), code)

	out := []datapack.DataPack{{
		Buffers:       []datapack.NativeDataBuffer{{Data: make([]byte, 16)}},
		ParamPosition: 2,
	}}

	code = ft.Decode(benchH, hLocal, out)
	require.Equal(t, abi.ErrorCode(0), code)

	want := []int32{11, 22, 33, 44}
	for i, w := range want {
		assert.Equal(t, w, datagen.Elem[int32](out[0].Buffers[0].Data, uint64(i)))
	}

	require.Equal(t, abi.ErrorCode(0), ft.DestroyHandle(benchH))
	require.Equal(t, abi.ErrorCode(0), ft.Destroy(engineH))
}

func TestInitBenchmarkValidatesParams(t *testing.T) {
	desc := workload.BenchmarkDescriptor{
		Workload: workload.MatrixMultiply,
		Category: workload.Latency,
		DataType: workload.Int64,
	}

	ft := NewWithCatalog([]workload.BenchmarkDescriptor{desc}).FunctionTable()

	engineH, code := ft.Init()
	require.Equal(t, abi.ErrorCode(0), code)

	handles, code := ft.SubscribeBenchmarks(engineH)
	require.Equal(t, abi.ErrorCode(0), code)

	// Wrong arity.
	_, code = ft.InitBenchmark(engineH, handles[0],
		[]workload.Param{workload.UInt64Param(4)})
	assert.NotEqual(t, abi.ErrorCode(0), code)
	assert.NotEmpty(t, ft.GetLastErrorDescription())

	// Zero dimension.
	_, code = ft.InitBenchmark(engineH, handles[0], []workload.Param{
		workload.UInt64Param(2), workload.UInt64Param(0), workload.UInt64Param(2),
	})
	assert.NotEqual(t, abi.ErrorCode(0), code)
}
