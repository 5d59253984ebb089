// Package abi is the typed boundary between the harness and a
// homomorphic-encryption backend. A backend presents itself as a table
// of C-style entry points returning integer error codes; the adapter
// wraps the table and normalizes every nonzero code into a typed error
// carrying the backend's last-error string.
package abi

import (
	"fmt"

	"github.com/weiihann/hebench/datapack"
	"github.com/weiihann/hebench/workload"
)

// Handle is an opaque backend resource identifier. The zero handle is
// the null handle.
type Handle uint64

// ErrorCode is the raw return of every backend entry point. Zero means
// success.
type ErrorCode int32

// Success is the only non-failure error code.
const Success ErrorCode = 0

// ParamIndexer selects the slice of an operation parameter's batch that
// a single operate call consumes.
type ParamIndexer struct {
	ValueIndex uint64
	BatchSize  uint64
}

// FunctionTable is the backend's entry point set. The dynamic library
// loader fills this from exported symbols; in-tree backends fill it
// directly. Signatures are Go renderings of the C pipeline: handles in,
// handles out, an error code on every call.
type FunctionTable struct {
	Init                     func() (Handle, ErrorCode)
	Destroy                  func(engine Handle) ErrorCode
	SubscribeBenchmarks      func(engine Handle) ([]Handle, ErrorCode)
	GetWorkloadParamsDetails func(engine, desc Handle) (count uint64, other uint64, code ErrorCode)
	DescribeBenchmark        func(engine, desc Handle) (workload.BenchmarkDescriptor, ErrorCode)
	InitBenchmark            func(engine, desc Handle, params []workload.Param) (Handle, ErrorCode)

	Encode  func(bench Handle, packs []datapack.DataPack) (Handle, ErrorCode)
	Encrypt func(bench, plain Handle) (Handle, ErrorCode)
	Load    func(bench Handle, locals []Handle) (Handle, ErrorCode)
	Operate func(bench, remote Handle, indexers []ParamIndexer) (Handle, ErrorCode)
	Store   func(bench, remote Handle) (Handle, ErrorCode)
	Decrypt func(bench, cipher Handle) (Handle, ErrorCode)
	Decode  func(bench, plain Handle, out []datapack.DataPack) ErrorCode

	DestroyHandle func(h Handle) ErrorCode

	GetSchemeName           func(engine Handle, scheme uint32) (string, ErrorCode)
	GetSecurityName         func(engine Handle, scheme, security uint32) (string, ErrorCode)
	GetExtraDescription     func(engine, desc Handle, params []workload.Param) (string, ErrorCode)
	GetLastErrorDescription func() string
}

// Validate reports whether every required entry point is present.
func (ft *FunctionTable) Validate() error {
	missing := ""
	switch {
	case ft.Init == nil:
		missing = "Init"
	case ft.Destroy == nil:
		missing = "Destroy"
	case ft.SubscribeBenchmarks == nil:
		missing = "SubscribeBenchmarks"
	case ft.GetWorkloadParamsDetails == nil:
		missing = "GetWorkloadParamsDetails"
	case ft.DescribeBenchmark == nil:
		missing = "DescribeBenchmark"
	case ft.InitBenchmark == nil:
		missing = "InitBenchmark"
	case ft.Encode == nil:
		missing = "Encode"
	case ft.Encrypt == nil:
		missing = "Encrypt"
	case ft.Load == nil:
		missing = "Load"
	case ft.Operate == nil:
		missing = "Operate"
	case ft.Store == nil:
		missing = "Store"
	case ft.Decrypt == nil:
		missing = "Decrypt"
	case ft.Decode == nil:
		missing = "Decode"
	case ft.DestroyHandle == nil:
		missing = "DestroyHandle"
	case ft.GetSchemeName == nil:
		missing = "GetSchemeName"
	case ft.GetSecurityName == nil:
		missing = "GetSecurityName"
	case ft.GetExtraDescription == nil:
		missing = "GetExtraDescription"
	case ft.GetLastErrorDescription == nil:
		missing = "GetLastErrorDescription"
	}

	if missing != "" {
		return fmt.Errorf("backend function table missing %s", missing)
	}

	return nil
}
