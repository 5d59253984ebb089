package abi

import (
	"errors"
	"testing"

	"github.com/weiihann/hebench/datapack"
	"github.com/weiihann/hebench/workload"
)

func completeTable() *FunctionTable {
	return &FunctionTable{
		Init:    func() (Handle, ErrorCode) { return 1, 0 },
		Destroy: func(Handle) ErrorCode { return 0 },
		SubscribeBenchmarks: func(Handle) ([]Handle, ErrorCode) {
			return []Handle{2}, 0
		},
		GetWorkloadParamsDetails: func(_, _ Handle) (uint64, uint64, ErrorCode) {
			return 1, 0, 0
		},
		DescribeBenchmark: func(_, _ Handle) (workload.BenchmarkDescriptor, ErrorCode) {
			return workload.BenchmarkDescriptor{}, 0
		},
		InitBenchmark: func(_, _ Handle, _ []workload.Param) (Handle, ErrorCode) {
			return 3, 0
		},
		Encode: func(Handle, []datapack.DataPack) (Handle, ErrorCode) {
			return 4, 0
		},
		Encrypt: func(_, _ Handle) (Handle, ErrorCode) { return 5, 0 },
		Load:    func(Handle, []Handle) (Handle, ErrorCode) { return 6, 0 },
		Operate: func(_, _ Handle, _ []ParamIndexer) (Handle, ErrorCode) {
			return 7, 0
		},
		Store:   func(_, _ Handle) (Handle, ErrorCode) { return 8, 0 },
		Decrypt: func(_, _ Handle) (Handle, ErrorCode) { return 9, 0 },
		Decode: func(_, _ Handle, _ []datapack.DataPack) ErrorCode {
			return 0
		},
		DestroyHandle: func(Handle) ErrorCode { return 0 },
		GetSchemeName: func(Handle, uint32) (string, ErrorCode) {
			return "Plain", 0
		},
		GetSecurityName: func(Handle, uint32, uint32) (string, ErrorCode) {
			return "None", 0
		},
		GetExtraDescription: func(_, _ Handle, _ []workload.Param) (string, ErrorCode) {
			return "", 0
		},
		GetLastErrorDescription: func() string { return "" },
	}
}

func TestValidateRejectsIncompleteTable(t *testing.T) {
	ft := completeTable()
	ft.Operate = nil

	if err := ft.Validate(); err == nil {
		t.Error("expected error for missing Operate")
	}

	if _, err := NewAdapter(ft); err == nil {
		t.Error("NewAdapter accepted an incomplete table")
	}
}

func TestNonzeroCodeYieldsBackendError(t *testing.T) {
	ft := completeTable()
	ft.Encode = func(Handle, []datapack.DataPack) (Handle, ErrorCode) {
		return 0, 42
	}
	ft.GetLastErrorDescription = func() string { return "encode exploded" }

	adapter, err := NewAdapter(ft)
	if err != nil {
		t.Fatalf("NewAdapter failed: %v", err)
	}

	_, err = adapter.Encode(1, nil)
	if err == nil {
		t.Fatal("expected error for nonzero code")
	}

	var berr *BackendError
	if !errors.As(err, &berr) {
		t.Fatalf("error is %T, want *BackendError", err)
	}
	if berr.Code != 42 {
		t.Errorf("code = %d, want 42", berr.Code)
	}
	if berr.Message != "encode exploded" {
		t.Errorf("message = %q, want backend's last error", berr.Message)
	}
}

func TestDestroyNullHandleIsNoop(t *testing.T) {
	ft := completeTable()

	called := false
	ft.DestroyHandle = func(Handle) ErrorCode {
		called = true

		return 0
	}

	adapter, err := NewAdapter(ft)
	if err != nil {
		t.Fatalf("NewAdapter failed: %v", err)
	}

	if err := adapter.DestroyHandle(0); err != nil {
		t.Errorf("destroying the null handle failed: %v", err)
	}
	if called {
		t.Error("backend called for the null handle")
	}
}

func TestSuccessfulCallsPassThrough(t *testing.T) {
	adapter, err := NewAdapter(completeTable())
	if err != nil {
		t.Fatalf("NewAdapter failed: %v", err)
	}

	h, err := adapter.Init()
	if err != nil || h != 1 {
		t.Errorf("Init = (%d, %v), want (1, nil)", h, err)
	}

	hs, err := adapter.SubscribeBenchmarks(h)
	if err != nil || len(hs) != 1 {
		t.Errorf("SubscribeBenchmarks = (%v, %v)", hs, err)
	}
}
