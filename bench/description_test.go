package bench

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/weiihann/hebench/abi"
	"github.com/weiihann/hebench/datapack"
	"github.com/weiihann/hebench/report"
	"github.com/weiihann/hebench/workload"
)

func TestCipherMaskSegment(t *testing.T) {
	tests := []struct {
		mask uint32
		want string
	}{
		{0, "all_plain"},
		{^uint32(0), "all_cipher"},
		{0b1, "c"},
		{0b10, "pc"},
		{0b101, "cpc"},
		{0b11, "cc"},
	}

	for _, tt := range tests {
		if got := cipherMaskSegment(tt.mask); got != tt.want {
			t.Errorf("cipherMaskSegment(%#b) = %q, want %q", tt.mask, got, tt.want)
		}
	}
}

func TestCatParamsDigest(t *testing.T) {
	latency := workload.BenchmarkDescriptor{
		Category: workload.Latency,
		CatParams: workload.CategoryParams{
			Latency: workload.LatencyParams{WarmupIterations: 3, MinTestTimeMS: 50},
		},
	}
	if got := catParamsDigest(latency); got != "350" {
		t.Errorf("latency digest = %q, want 350", got)
	}

	var offline workload.BenchmarkDescriptor
	offline.Category = workload.Offline
	offline.CatParams.Offline.DataCount[0] = 2
	offline.CatParams.Offline.DataCount[1] = 3
	if got := catParamsDigest(offline); got != "23" {
		t.Errorf("offline digest = %q, want 23", got)
	}

	var empty workload.BenchmarkDescriptor
	empty.Category = workload.Offline
	if got := catParamsDigest(empty); got != "default" {
		t.Errorf("empty digest = %q, want default", got)
	}
}

func TestSampleSizes(t *testing.T) {
	cfg := Config{DefaultSampleSize: 100}

	var offline workload.BenchmarkDescriptor
	offline.Category = workload.Offline
	offline.CatParams.Offline.DataCount[0] = 5

	sizes := sampleSizes(offline, 2, cfg)
	if sizes[0] != 5 || sizes[1] != 100 {
		t.Errorf("offline sizes = %v, want [5 100]", sizes)
	}

	var latency workload.BenchmarkDescriptor
	latency.Category = workload.Latency

	sizes = sampleSizes(latency, 3, cfg)
	for i, n := range sizes {
		if n != 1 {
			t.Errorf("latency size[%d] = %d, want 1", i, n)
		}
	}
}

func TestTokenOpen(t *testing.T) {
	sealer := uuid.New()
	token := &DescriptionToken{sealerID: sealer}

	if err := token.open(sealer); err != nil {
		t.Errorf("sealing identity rejected: %v", err)
	}

	err := token.open(uuid.New())
	if !errors.Is(err, ErrPrecondition) {
		t.Errorf("foreign identity error = %v, want ErrPrecondition", err)
	}
}

// stubHost backs precondition tests with a function table that never
// fails.
type stubHost struct {
	adapter *abi.Adapter
}

func (h *stubHost) Adapter() *abi.Adapter { return h.adapter }
func (h *stubHost) Handle() abi.Handle    { return 1 }

func newStubHost(t *testing.T) *stubHost {
	t.Helper()

	ft := &abi.FunctionTable{
		Init:    func() (abi.Handle, abi.ErrorCode) { return 1, 0 },
		Destroy: func(abi.Handle) abi.ErrorCode { return 0 },
		SubscribeBenchmarks: func(abi.Handle) ([]abi.Handle, abi.ErrorCode) {
			return nil, 0
		},
		GetWorkloadParamsDetails: func(_, _ abi.Handle) (uint64, uint64, abi.ErrorCode) {
			return 1, 0, 0
		},
		DescribeBenchmark: func(_, _ abi.Handle) (workload.BenchmarkDescriptor, abi.ErrorCode) {
			return workload.BenchmarkDescriptor{}, 0
		},
		InitBenchmark: func(_, _ abi.Handle, _ []workload.Param) (abi.Handle, abi.ErrorCode) {
			return 2, 0
		},
		Encode: func(abi.Handle, []datapack.DataPack) (abi.Handle, abi.ErrorCode) {
			return 3, 0
		},
		Encrypt: func(_, _ abi.Handle) (abi.Handle, abi.ErrorCode) { return 4, 0 },
		Load: func(abi.Handle, []abi.Handle) (abi.Handle, abi.ErrorCode) {
			return 5, 0
		},
		Operate: func(_, _ abi.Handle, _ []abi.ParamIndexer) (abi.Handle, abi.ErrorCode) {
			return 6, 0
		},
		Store:   func(_, _ abi.Handle) (abi.Handle, abi.ErrorCode) { return 7, 0 },
		Decrypt: func(_, _ abi.Handle) (abi.Handle, abi.ErrorCode) { return 8, 0 },
		Decode: func(_, _ abi.Handle, _ []datapack.DataPack) abi.ErrorCode {
			return 0
		},
		DestroyHandle: func(abi.Handle) abi.ErrorCode { return 0 },
		GetSchemeName: func(abi.Handle, uint32) (string, abi.ErrorCode) {
			return "Plain", 0
		},
		GetSecurityName: func(abi.Handle, uint32, uint32) (string, abi.ErrorCode) {
			return "None", 0
		},
		GetExtraDescription: func(_, _ abi.Handle, _ []workload.Param) (string, abi.ErrorCode) {
			return "", 0
		},
		GetLastErrorDescription: func() string { return "" },
	}

	adapter, err := abi.NewAdapter(ft)
	if err != nil {
		t.Fatalf("NewAdapter failed: %v", err)
	}

	return &stubHost{adapter: adapter}
}

func TestPipelineBeforePostInit(t *testing.T) {
	host := newStubHost(t)
	sealer := uuid.New()

	token := &DescriptionToken{sealerID: sealer}

	pb, err := NewPartialBenchmark(host, sealer, token)
	if err != nil {
		t.Fatalf("NewPartialBenchmark failed: %v", err)
	}
	defer pb.Close()

	pipe := &pipeline{pb: pb, sink: discardSink{}}

	err = pipe.run(context.Background(), nil, nil, 1, true, nil)
	if !errors.Is(err, ErrPrecondition) {
		t.Errorf("pipeline before PostInit = %v, want ErrPrecondition", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	host := newStubHost(t)
	sealer := uuid.New()
	token := &DescriptionToken{sealerID: sealer}

	pb, err := NewPartialBenchmark(host, sealer, token)
	if err != nil {
		t.Fatalf("NewPartialBenchmark failed: %v", err)
	}

	if err := pb.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := pb.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

type discardSink struct{}

func (discardSink) AddEvent(_ report.TimingEvent) {}
func (discardSink) AddHeader(_ string)            {}
func (discardSink) Finalize(_ string) error       { return nil }
