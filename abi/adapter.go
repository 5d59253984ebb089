package abi

import (
	"fmt"

	"github.com/weiihann/hebench/datapack"
	"github.com/weiihann/hebench/workload"
)

// BackendError is a nonzero return from a backend entry point, wrapping
// the backend's last-error description.
type BackendError struct {
	Op      string
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend %s: error code %d", e.Op, e.Code)
	}

	return fmt.Sprintf("backend %s: error code %d: %s", e.Op, e.Code, e.Message)
}

// Adapter exposes the backend function table as typed calls returning
// errors instead of raw codes.
type Adapter struct {
	ft *FunctionTable
}

// NewAdapter wraps a complete function table.
func NewAdapter(ft *FunctionTable) (*Adapter, error) {
	if err := ft.Validate(); err != nil {
		return nil, err
	}

	return &Adapter{ft: ft}, nil
}

func (a *Adapter) check(op string, code ErrorCode) error {
	if code == Success {
		return nil
	}

	return &BackendError{
		Op:      op,
		Code:    code,
		Message: a.ft.GetLastErrorDescription(),
	}
}

// Init creates the backend engine handle.
func (a *Adapter) Init() (Handle, error) {
	h, code := a.ft.Init()

	return h, a.check("init", code)
}

// Destroy releases the backend engine handle.
func (a *Adapter) Destroy(engine Handle) error {
	return a.check("destroy", a.ft.Destroy(engine))
}

// SubscribeBenchmarks returns the backend's full supported benchmark
// descriptor handle set.
func (a *Adapter) SubscribeBenchmarks(engine Handle) ([]Handle, error) {
	hs, code := a.ft.SubscribeBenchmarks(engine)

	return hs, a.check("subscribeBenchmarks", code)
}

// WorkloadParamsDetails returns the workload parameter count and the
// backend's "other" discriminator for a descriptor.
func (a *Adapter) WorkloadParamsDetails(engine, desc Handle) (uint64, uint64, error) {
	count, other, code := a.ft.GetWorkloadParamsDetails(engine, desc)

	return count, other, a.check("getWorkloadParamsDetails", code)
}

// DescribeBenchmark fetches a descriptor's full self-description.
func (a *Adapter) DescribeBenchmark(engine, desc Handle) (workload.BenchmarkDescriptor, error) {
	bd, code := a.ft.DescribeBenchmark(engine, desc)

	return bd, a.check("describeBenchmark", code)
}

// InitBenchmark instantiates a backend benchmark for the given
// workload parameters.
func (a *Adapter) InitBenchmark(engine, desc Handle, params []workload.Param) (Handle, error) {
	h, code := a.ft.InitBenchmark(engine, desc, params)

	return h, a.check("initBenchmark", code)
}

// Encode turns cleartext data packs into a backend plaintext handle.
func (a *Adapter) Encode(bench Handle, packs []datapack.DataPack) (Handle, error) {
	h, code := a.ft.Encode(bench, packs)

	return h, a.check("encode", code)
}

// Encrypt turns a plaintext handle into a ciphertext handle.
func (a *Adapter) Encrypt(bench, plain Handle) (Handle, error) {
	h, code := a.ft.Encrypt(bench, plain)

	return h, a.check("encrypt", code)
}

// Load transfers local handles onto the backend's target device.
func (a *Adapter) Load(bench Handle, locals []Handle) (Handle, error) {
	h, code := a.ft.Load(bench, locals)

	return h, a.check("load", code)
}

// Operate runs the measured workload operation.
func (a *Adapter) Operate(bench, remote Handle, indexers []ParamIndexer) (Handle, error) {
	h, code := a.ft.Operate(bench, remote, indexers)

	return h, a.check("operate", code)
}

// Store brings a remote result handle back to the host.
func (a *Adapter) Store(bench, remote Handle) (Handle, error) {
	h, code := a.ft.Store(bench, remote)

	return h, a.check("store", code)
}

// Decrypt turns a ciphertext result handle into a plaintext handle.
func (a *Adapter) Decrypt(bench, cipher Handle) (Handle, error) {
	h, code := a.ft.Decrypt(bench, cipher)

	return h, a.check("decrypt", code)
}

// Decode writes a plaintext result handle into harness-owned buffers.
func (a *Adapter) Decode(bench, plain Handle, out []datapack.DataPack) error {
	return a.check("decode", a.ft.Decode(bench, plain, out))
}

// DestroyHandle releases any backend handle. Destroying the null
// handle is a no-op.
func (a *Adapter) DestroyHandle(h Handle) error {
	if h == 0 {
		return nil
	}

	return a.check("destroyHandle", a.ft.DestroyHandle(h))
}

// SchemeName resolves a scheme identifier to its display name.
func (a *Adapter) SchemeName(engine Handle, scheme uint32) (string, error) {
	s, code := a.ft.GetSchemeName(engine, scheme)

	return s, a.check("getSchemeName", code)
}

// SecurityName resolves a security identifier to its display name.
func (a *Adapter) SecurityName(engine Handle, scheme, security uint32) (string, error) {
	s, code := a.ft.GetSecurityName(engine, scheme, security)

	return s, a.check("getSecurityName", code)
}

// ExtraDescription returns backend-specific header lines for a
// descriptor, if any.
func (a *Adapter) ExtraDescription(engine, desc Handle, params []workload.Param) (string, error) {
	s, code := a.ft.GetExtraDescription(engine, desc, params)

	return s, a.check("getExtraDescription", code)
}
