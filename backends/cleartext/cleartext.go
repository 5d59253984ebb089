// Package cleartext is an in-process reference backend. It implements
// the full ABI function table with plain arithmetic: encryption and
// decryption are identity transforms, and every workload is computed
// directly over the decoded samples. It exists to exercise the harness
// end to end without a homomorphic-encryption library.
package cleartext

import (
	"fmt"

	"github.com/weiihann/hebench/abi"
	"github.com/weiihann/hebench/datapack"
	"github.com/weiihann/hebench/workload"
)

const (
	codeOK abi.ErrorCode = iota
	codeError
	codeInvalidHandle
	codeInvalidArgs
)

type payloadKind int

const (
	kindPlain payloadKind = iota
	kindCipher
	kindLoaded
	kindResult
)

// clearPack is a backend-side copy of one parameter's sample batch.
type clearPack struct {
	pos  int
	bufs [][]byte
}

type payload struct {
	kind  payloadKind
	packs []clearPack
}

type benchState struct {
	desc   workload.BenchmarkDescriptor
	params []workload.Param
}

// Backend holds all backend-side state behind the function table.
type Backend struct {
	next     abi.Handle
	engines  map[abi.Handle]bool
	catalog  []workload.BenchmarkDescriptor
	descs    map[abi.Handle]int
	benches  map[abi.Handle]*benchState
	payloads map[abi.Handle]*payload
	lastErr  string
}

// New creates a cleartext backend with its full benchmark catalog.
func New() *Backend {
	return NewWithCatalog(buildCatalog())
}

// NewWithCatalog creates a cleartext backend publishing only the given
// benchmark descriptors.
func NewWithCatalog(catalog []workload.BenchmarkDescriptor) *Backend {
	return &Backend{
		engines:  make(map[abi.Handle]bool),
		catalog:  catalog,
		descs:    make(map[abi.Handle]int),
		benches:  make(map[abi.Handle]*benchState),
		payloads: make(map[abi.Handle]*payload),
	}
}

// buildCatalog enumerates every benchmark variant the backend offers.
func buildCatalog() []workload.BenchmarkDescriptor {
	var catalog []workload.BenchmarkDescriptor

	allTypes := []workload.DataType{
		workload.Int32, workload.Int64, workload.Float32, workload.Float64,
	}
	floatTypes := []workload.DataType{workload.Float32, workload.Float64}

	latency := workload.CategoryParams{
		Latency: workload.LatencyParams{WarmupIterations: 1, MinTestTimeMS: 0},
	}

	add := func(w workload.Workload, dt workload.DataType, paramCount int) {
		catalog = append(catalog, workload.BenchmarkDescriptor{
			Workload:  w,
			Category:  workload.Latency,
			DataType:  dt,
			CatParams: latency,
		})

		var offline workload.CategoryParams
		for i := 0; i < paramCount; i++ {
			offline.Offline.DataCount[i] = uint64(i + 2)
		}

		catalog = append(catalog, workload.BenchmarkDescriptor{
			Workload:  w,
			Category:  workload.Offline,
			DataType:  dt,
			CatParams: offline,
		})
	}

	for _, dt := range allTypes {
		add(workload.EltwiseAdd, dt, 2)
		add(workload.EltwiseMult, dt, 2)
		add(workload.DotProduct, dt, 2)
		add(workload.MatrixMultiply, dt, 2)
	}

	for _, dt := range floatTypes {
		add(workload.LogisticRegression, dt, 3)
		add(workload.LogisticRegressionPolyD3, dt, 3)
		add(workload.LogisticRegressionPolyD5, dt, 3)
		add(workload.LogisticRegressionPolyD7, dt, 3)
	}

	// One encrypted-parameter variant to exercise the encrypt and
	// decrypt steps; cleartext "encryption" is the identity.
	catalog = append(catalog, workload.BenchmarkDescriptor{
		Workload:        workload.EltwiseAdd,
		Category:        workload.Latency,
		DataType:        workload.Float64,
		CipherParamMask: 0b11,
		CatParams:       latency,
	})

	return catalog
}

func (b *Backend) fail(code abi.ErrorCode, format string, args ...any) abi.ErrorCode {
	b.lastErr = fmt.Sprintf(format, args...)

	return code
}

func (b *Backend) alloc() abi.Handle {
	b.next++

	return b.next
}

// paramCountFor returns the workload parameter arity of a workload.
func paramCountFor(w workload.Workload) uint64 {
	if w == workload.MatrixMultiply {
		return 3
	}

	return 1
}

// opParamCountFor returns the operation parameter arity of a workload.
func opParamCountFor(w workload.Workload) int {
	switch w {
	case workload.LogisticRegression, workload.LogisticRegressionPolyD3,
		workload.LogisticRegressionPolyD5, workload.LogisticRegressionPolyD7:
		return 3
	default:
		return 2
	}
}

// FunctionTable exposes the backend as an ABI function table.
func (b *Backend) FunctionTable() *abi.FunctionTable {
	return &abi.FunctionTable{
		Init:                     b.init,
		Destroy:                  b.destroy,
		SubscribeBenchmarks:      b.subscribeBenchmarks,
		GetWorkloadParamsDetails: b.workloadParamsDetails,
		DescribeBenchmark:        b.describeBenchmark,
		InitBenchmark:            b.initBenchmark,
		Encode:                   b.encode,
		Encrypt:                  b.encrypt,
		Load:                     b.load,
		Operate:                  b.operate,
		Store:                    b.store,
		Decrypt:                  b.decrypt,
		Decode:                   b.decode,
		DestroyHandle:            b.destroyHandle,
		GetSchemeName:            b.schemeName,
		GetSecurityName:          b.securityName,
		GetExtraDescription:      b.extraDescription,
		GetLastErrorDescription:  func() string { return b.lastErr },
	}
}

func (b *Backend) init() (abi.Handle, abi.ErrorCode) {
	h := b.alloc()
	b.engines[h] = true

	return h, codeOK
}

func (b *Backend) destroy(engine abi.Handle) abi.ErrorCode {
	if !b.engines[engine] {
		return b.fail(codeInvalidHandle, "unknown engine handle %d", engine)
	}
	delete(b.engines, engine)

	return codeOK
}

func (b *Backend) subscribeBenchmarks(engine abi.Handle) ([]abi.Handle, abi.ErrorCode) {
	if !b.engines[engine] {
		return nil, b.fail(codeInvalidHandle, "unknown engine handle %d", engine)
	}

	handles := make([]abi.Handle, len(b.catalog))
	for i := range b.catalog {
		h := b.alloc()
		b.descs[h] = i
		handles[i] = h
	}

	return handles, codeOK
}

func (b *Backend) workloadParamsDetails(engine, desc abi.Handle) (uint64, uint64, abi.ErrorCode) {
	idx, ok := b.descs[desc]
	if !ok {
		return 0, 0, b.fail(codeInvalidHandle, "unknown descriptor handle %d", desc)
	}

	return paramCountFor(b.catalog[idx].Workload), 0, codeOK
}

func (b *Backend) describeBenchmark(engine, desc abi.Handle) (workload.BenchmarkDescriptor, abi.ErrorCode) {
	idx, ok := b.descs[desc]
	if !ok {
		return workload.BenchmarkDescriptor{},
			b.fail(codeInvalidHandle, "unknown descriptor handle %d", desc)
	}

	return b.catalog[idx], codeOK
}

func (b *Backend) initBenchmark(engine, desc abi.Handle, params []workload.Param) (abi.Handle, abi.ErrorCode) {
	idx, ok := b.descs[desc]
	if !ok {
		return 0, b.fail(codeInvalidHandle, "unknown descriptor handle %d", desc)
	}

	bd := b.catalog[idx]

	if uint64(len(params)) != paramCountFor(bd.Workload) {
		return 0, b.fail(codeInvalidArgs,
			"workload %s expects %d parameters, got %d",
			bd.Workload, paramCountFor(bd.Workload), len(params))
	}
	for i, p := range params {
		if p.Type != workload.ParamUInt64 || p.U == 0 {
			return 0, b.fail(codeInvalidArgs,
				"workload parameter %d must be a positive u64", i)
		}
	}

	h := b.alloc()
	b.benches[h] = &benchState{
		desc:   bd,
		params: append([]workload.Param(nil), params...),
	}

	return h, codeOK
}

func (b *Backend) encode(benchH abi.Handle, packs []datapack.DataPack) (abi.Handle, abi.ErrorCode) {
	if _, ok := b.benches[benchH]; !ok {
		return 0, b.fail(codeInvalidHandle, "unknown benchmark handle %d", benchH)
	}

	// Deep-copy: the harness owns the buffers it handed over and the
	// backend must not retain them past this call.
	cp := make([]clearPack, len(packs))
	for i, pack := range packs {
		bufs := make([][]byte, len(pack.Buffers))
		for j, buf := range pack.Buffers {
			bufs[j] = append([]byte(nil), buf.Data...)
		}
		cp[i] = clearPack{pos: pack.ParamPosition, bufs: bufs}
	}

	h := b.alloc()
	b.payloads[h] = &payload{kind: kindPlain, packs: cp}

	return h, codeOK
}

func (b *Backend) encrypt(benchH, plain abi.Handle) (abi.Handle, abi.ErrorCode) {
	p, ok := b.payloads[plain]
	if !ok || p.kind != kindPlain {
		return 0, b.fail(codeInvalidHandle, "encrypt: not a plaintext handle: %d", plain)
	}

	h := b.alloc()
	b.payloads[h] = &payload{kind: kindCipher, packs: clonePacks(p.packs)}

	return h, codeOK
}

func (b *Backend) load(benchH abi.Handle, locals []abi.Handle) (abi.Handle, abi.ErrorCode) {
	merged := &payload{kind: kindLoaded}

	for _, lh := range locals {
		p, ok := b.payloads[lh]
		if !ok {
			return 0, b.fail(codeInvalidHandle, "load: unknown local handle %d", lh)
		}
		merged.packs = append(merged.packs, clonePacks(p.packs)...)
	}

	h := b.alloc()
	b.payloads[h] = merged

	return h, codeOK
}

func (b *Backend) store(benchH, remote abi.Handle) (abi.Handle, abi.ErrorCode) {
	p, ok := b.payloads[remote]
	if !ok {
		return 0, b.fail(codeInvalidHandle, "store: unknown remote handle %d", remote)
	}

	h := b.alloc()
	b.payloads[h] = &payload{kind: p.kind, packs: clonePacks(p.packs)}

	return h, codeOK
}

func (b *Backend) decrypt(benchH, cipher abi.Handle) (abi.Handle, abi.ErrorCode) {
	p, ok := b.payloads[cipher]
	if !ok {
		return 0, b.fail(codeInvalidHandle, "decrypt: unknown cipher handle %d", cipher)
	}

	h := b.alloc()
	b.payloads[h] = &payload{kind: kindPlain, packs: clonePacks(p.packs)}

	return h, codeOK
}

func (b *Backend) decode(benchH, plain abi.Handle, out []datapack.DataPack) abi.ErrorCode {
	p, ok := b.payloads[plain]
	if !ok {
		return b.fail(codeInvalidHandle, "decode: unknown plaintext handle %d", plain)
	}

	if len(p.packs) != len(out) {
		return b.fail(codeInvalidArgs,
			"decode: have %d result packs, caller wants %d", len(p.packs), len(out))
	}

	for i, pack := range p.packs {
		if len(pack.bufs) != len(out[i].Buffers) {
			return b.fail(codeInvalidArgs,
				"decode: result pack %d holds %d buffers, caller wants %d",
				i, len(pack.bufs), len(out[i].Buffers))
		}
		for j, buf := range pack.bufs {
			copy(out[i].Buffers[j].Data, buf)
		}
	}

	return codeOK
}

func (b *Backend) destroyHandle(h abi.Handle) abi.ErrorCode {
	delete(b.payloads, h)
	delete(b.benches, h)
	delete(b.descs, h)

	return codeOK
}

func (b *Backend) schemeName(engine abi.Handle, scheme uint32) (string, abi.ErrorCode) {
	return "Plain", codeOK
}

func (b *Backend) securityName(engine abi.Handle, scheme, security uint32) (string, abi.ErrorCode) {
	return "None", codeOK
}

func (b *Backend) extraDescription(engine, desc abi.Handle, params []workload.Param) (string, abi.ErrorCode) {
	return "", codeOK
}

func clonePacks(packs []clearPack) []clearPack {
	cp := make([]clearPack, len(packs))
	for i, pack := range packs {
		bufs := make([][]byte, len(pack.bufs))
		for j, buf := range pack.bufs {
			bufs[j] = append([]byte(nil), buf...)
		}
		cp[i] = clearPack{pos: pack.pos, bufs: bufs}
	}

	return cp
}

// dims extracts the operand dimensioning an operate call needs.
func (s *benchState) dims() []uint64 {
	dims := make([]uint64, len(s.params))
	for i, p := range s.params {
		dims[i] = p.U
	}

	return dims
}

func (b *Backend) operate(benchH, remote abi.Handle, indexers []abi.ParamIndexer) (abi.Handle, abi.ErrorCode) {
	state, ok := b.benches[benchH]
	if !ok {
		return 0, b.fail(codeInvalidHandle, "operate: unknown benchmark handle %d", benchH)
	}

	p, ok := b.payloads[remote]
	if !ok || p.kind != kindLoaded {
		return 0, b.fail(codeInvalidHandle, "operate: not a loaded handle: %d", remote)
	}

	opParams := opParamCountFor(state.desc.Workload)
	if len(indexers) != opParams {
		return 0, b.fail(codeInvalidArgs,
			"operate: workload %s takes %d parameters, got %d indexers",
			state.desc.Workload, opParams, len(indexers))
	}

	// Reassemble the parameter batches by declared position.
	byPos := make([][][]byte, opParams)
	for _, pack := range p.packs {
		if pack.pos < 0 || pack.pos >= opParams {
			return 0, b.fail(codeInvalidArgs,
				"operate: parameter position %d out of range", pack.pos)
		}
		byPos[pack.pos] = pack.bufs
	}
	for pos, bufs := range byPos {
		if bufs == nil {
			return 0, b.fail(codeInvalidArgs,
				"operate: missing samples for parameter %d", pos)
		}
	}

	total := uint64(1)
	for _, ix := range indexers {
		total *= ix.BatchSize
	}

	results := make([][]byte, total)

	args := make([][]byte, opParams)
	multi := make([]uint64, opParams)

	for flat := uint64(0); flat < total; flat++ {
		rem := flat
		for k, ix := range indexers {
			multi[k] = rem % ix.BatchSize
			rem /= ix.BatchSize
		}

		for k, ix := range indexers {
			sample := ix.ValueIndex + multi[k]
			if sample >= uint64(len(byPos[k])) {
				return 0, b.fail(codeInvalidArgs,
					"operate: sample %d out of range for parameter %d", sample, k)
			}
			args[k] = byPos[k][sample]
		}

		result, code := b.compute(state, args)
		if code != codeOK {
			return 0, code
		}
		results[flat] = result
	}

	h := b.alloc()
	b.payloads[h] = &payload{
		kind:  kindLoaded,
		packs: []clearPack{{pos: opParams, bufs: results}},
	}

	return h, codeOK
}

// compute runs one workload application over a single sample tuple.
func (b *Backend) compute(state *benchState, args [][]byte) ([]byte, abi.ErrorCode) {
	dt := state.desc.DataType
	dims := state.dims()

	switch state.desc.Workload {
	case workload.EltwiseAdd:
		return applyBinary(dt, args[0], args[1], dims[0], dims[0], binAdd), codeOK

	case workload.EltwiseMult:
		return applyBinary(dt, args[0], args[1], dims[0], dims[0], binMul), codeOK

	case workload.DotProduct:
		return applyBinary(dt, args[0], args[1], dims[0], 1, binDot), codeOK

	case workload.MatrixMultiply:
		return applyMatMul(dt, args[0], args[1], dims[0], dims[1], dims[2]), codeOK

	case workload.LogisticRegression, workload.LogisticRegressionPolyD3,
		workload.LogisticRegressionPolyD5, workload.LogisticRegressionPolyD7:
		out, err := applyLogReg(state.desc.Workload, dt, args[0], args[1], args[2], dims[0])
		if err != nil {
			return nil, b.fail(codeError, "logistic regression: %v", err)
		}

		return out, codeOK

	default:
		return nil, b.fail(codeInvalidArgs,
			"unsupported workload %s", state.desc.Workload)
	}
}
