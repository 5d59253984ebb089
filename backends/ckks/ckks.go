// Package ckks is an in-process backend built on the lattigo CKKS
// scheme. It offers element-wise addition and multiplication over
// encrypted Float64 vectors in the Latency category, driving a real
// encode, encrypt, evaluate, decrypt, decode pipeline.
package ckks

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v4/ckks"
	"github.com/tuneinsight/lattigo/v4/rlwe"

	"github.com/weiihann/hebench/abi"
	"github.com/weiihann/hebench/datagen"
	"github.com/weiihann/hebench/datapack"
	"github.com/weiihann/hebench/workload"
)

const (
	codeOK abi.ErrorCode = iota
	codeError
	codeInvalidHandle
	codeInvalidArgs
)

const (
	schemeCKKS  = 1
	security128 = 128
)

type hePack struct {
	pos int
	pts []*rlwe.Plaintext
	cts []*rlwe.Ciphertext
}

type payload struct {
	packs []hePack
}

type benchState struct {
	desc       workload.BenchmarkDescriptor
	vectorSize uint64
}

// Backend holds the CKKS context and all handle-mapped state.
type Backend struct {
	params    ckks.Parameters
	encoder   ckks.Encoder
	encryptor rlwe.Encryptor
	decryptor rlwe.Decryptor
	evaluator ckks.Evaluator

	next     abi.Handle
	engines  map[abi.Handle]bool
	catalog  []workload.BenchmarkDescriptor
	descs    map[abi.Handle]int
	benches  map[abi.Handle]*benchState
	payloads map[abi.Handle]*payload
	lastErr  string
}

// New creates a CKKS backend. Keys and evaluator are generated once
// per backend, on each call to New.
func New() (*Backend, error) {
	params, err := ckks.NewParametersFromLiteral(ckks.PN12QP109)
	if err != nil {
		return nil, fmt.Errorf("ckks parameters: %w", err)
	}

	kgen := ckks.NewKeyGenerator(params)
	sk, pk := kgen.GenKeyPair()
	rlk := kgen.GenRelinearizationKey(sk, 1)

	latency := workload.CategoryParams{
		Latency: workload.LatencyParams{WarmupIterations: 1, MinTestTimeMS: 0},
	}

	catalog := []workload.BenchmarkDescriptor{
		{
			Workload:        workload.EltwiseAdd,
			Category:        workload.Latency,
			DataType:        workload.Float64,
			CipherParamMask: 0b11,
			Scheme:          schemeCKKS,
			Security:        security128,
			CatParams:       latency,
		},
		{
			Workload:        workload.EltwiseMult,
			Category:        workload.Latency,
			DataType:        workload.Float64,
			CipherParamMask: 0b11,
			Scheme:          schemeCKKS,
			Security:        security128,
			CatParams:       latency,
		},
	}

	return &Backend{
		params:    params,
		encoder:   ckks.NewEncoder(params),
		encryptor: ckks.NewEncryptor(params, pk),
		decryptor: ckks.NewDecryptor(params, sk),
		evaluator: ckks.NewEvaluator(params, rlwe.EvaluationKey{Rlk: rlk}),
		engines:   make(map[abi.Handle]bool),
		catalog:   catalog,
		descs:     make(map[abi.Handle]int),
		benches:   make(map[abi.Handle]*benchState),
		payloads:  make(map[abi.Handle]*payload),
	}, nil
}

func (b *Backend) fail(code abi.ErrorCode, format string, args ...any) abi.ErrorCode {
	b.lastErr = fmt.Sprintf(format, args...)

	return code
}

func (b *Backend) alloc() abi.Handle {
	b.next++

	return b.next
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
	if _, ok := b.descs[desc]; !ok {
		return 0, 0, b.fail(codeInvalidHandle, "unknown descriptor handle %d", desc)
	}

	return 1, 0, codeOK
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
	if len(params) != 1 || params[0].Type != workload.ParamUInt64 || params[0].U == 0 {
		return 0, b.fail(codeInvalidArgs, "expected one positive u64 vector size")
	}

	slots := uint64(b.params.Slots())
	if params[0].U > slots {
		return 0, b.fail(codeInvalidArgs,
			"vector size %d exceeds slot count %d", params[0].U, slots)
	}

	h := b.alloc()
	b.benches[h] = &benchState{
		desc:       b.catalog[idx],
		vectorSize: params[0].U,
	}

	return h, codeOK
}

func (b *Backend) encode(benchH abi.Handle, packs []datapack.DataPack) (abi.Handle, abi.ErrorCode) {
	state, ok := b.benches[benchH]
	if !ok {
		return 0, b.fail(codeInvalidHandle, "unknown benchmark handle %d", benchH)
	}

	encoded := make([]hePack, len(packs))

	for i, pack := range packs {
		pts := make([]*rlwe.Plaintext, len(pack.Buffers))

		for j, buf := range pack.Buffers {
			values := make([]float64, state.vectorSize)
			for k := range values {
				values[k] = datagen.Elem[float64](buf.Data, uint64(k))
			}

			pts[j] = b.encoder.EncodeNew(values, b.params.MaxLevel(),
				b.params.DefaultScale(), b.params.LogSlots())
		}

		encoded[i] = hePack{pos: pack.ParamPosition, pts: pts}
	}

	h := b.alloc()
	b.payloads[h] = &payload{packs: encoded}

	return h, codeOK
}

func (b *Backend) encrypt(benchH, plain abi.Handle) (abi.Handle, abi.ErrorCode) {
	p, ok := b.payloads[plain]
	if !ok {
		return 0, b.fail(codeInvalidHandle, "encrypt: unknown plaintext handle %d", plain)
	}

	encrypted := make([]hePack, len(p.packs))

	for i, pack := range p.packs {
		cts := make([]*rlwe.Ciphertext, len(pack.pts))
		for j, pt := range pack.pts {
			cts[j] = b.encryptor.EncryptNew(pt)
		}
		encrypted[i] = hePack{pos: pack.pos, cts: cts}
	}

	h := b.alloc()
	b.payloads[h] = &payload{packs: encrypted}

	return h, codeOK
}

func (b *Backend) load(benchH abi.Handle, locals []abi.Handle) (abi.Handle, abi.ErrorCode) {
	merged := &payload{}

	for _, lh := range locals {
		p, ok := b.payloads[lh]
		if !ok {
			return 0, b.fail(codeInvalidHandle, "load: unknown local handle %d", lh)
		}
		merged.packs = append(merged.packs, p.packs...)
	}

	h := b.alloc()
	b.payloads[h] = merged

	return h, codeOK
}

func (b *Backend) operate(benchH, remote abi.Handle, indexers []abi.ParamIndexer) (abi.Handle, abi.ErrorCode) {
	state, ok := b.benches[benchH]
	if !ok {
		return 0, b.fail(codeInvalidHandle, "operate: unknown benchmark handle %d", benchH)
	}

	p, ok := b.payloads[remote]
	if !ok {
		return 0, b.fail(codeInvalidHandle, "operate: unknown remote handle %d", remote)
	}
	if len(indexers) != 2 {
		return 0, b.fail(codeInvalidArgs, "operate: expected 2 parameter indexers")
	}

	byPos := make([][]*rlwe.Ciphertext, 2)
	for _, pack := range p.packs {
		if pack.pos < 0 || pack.pos >= 2 || pack.cts == nil {
			return 0, b.fail(codeInvalidArgs,
				"operate: both parameters must be ciphertext")
		}
		byPos[pack.pos] = pack.cts
	}
	if byPos[0] == nil || byPos[1] == nil {
		return 0, b.fail(codeInvalidArgs, "operate: missing ciphertext parameter")
	}

	total := indexers[0].BatchSize * indexers[1].BatchSize
	results := make([]*rlwe.Ciphertext, 0, total)

	for flat := uint64(0); flat < total; flat++ {
		i0 := indexers[0].ValueIndex + flat%indexers[0].BatchSize
		i1 := indexers[1].ValueIndex + flat/indexers[0].BatchSize

		if i0 >= uint64(len(byPos[0])) || i1 >= uint64(len(byPos[1])) {
			return 0, b.fail(codeInvalidArgs, "operate: sample index out of range")
		}

		var ct *rlwe.Ciphertext
		switch state.desc.Workload {
		case workload.EltwiseAdd:
			ct = b.evaluator.AddNew(byPos[0][i0], byPos[1][i1])
		case workload.EltwiseMult:
			ct = b.evaluator.MulRelinNew(byPos[0][i0], byPos[1][i1])
			if err := b.evaluator.Rescale(ct, b.params.DefaultScale(), ct); err != nil {
				return 0, b.fail(codeError, "rescale: %v", err)
			}
		default:
			return 0, b.fail(codeInvalidArgs,
				"unsupported workload %s", state.desc.Workload)
		}

		results = append(results, ct)
	}

	h := b.alloc()
	b.payloads[h] = &payload{packs: []hePack{{pos: 2, cts: results}}}

	return h, codeOK
}

func (b *Backend) store(benchH, remote abi.Handle) (abi.Handle, abi.ErrorCode) {
	p, ok := b.payloads[remote]
	if !ok {
		return 0, b.fail(codeInvalidHandle, "store: unknown remote handle %d", remote)
	}

	h := b.alloc()
	b.payloads[h] = &payload{packs: p.packs}

	return h, codeOK
}

func (b *Backend) decrypt(benchH, cipher abi.Handle) (abi.Handle, abi.ErrorCode) {
	p, ok := b.payloads[cipher]
	if !ok {
		return 0, b.fail(codeInvalidHandle, "decrypt: unknown cipher handle %d", cipher)
	}

	decrypted := make([]hePack, len(p.packs))

	for i, pack := range p.packs {
		pts := make([]*rlwe.Plaintext, len(pack.cts))
		for j, ct := range pack.cts {
			pts[j] = b.decryptor.DecryptNew(ct)
		}
		decrypted[i] = hePack{pos: pack.pos, pts: pts}
	}

	h := b.alloc()
	b.payloads[h] = &payload{packs: decrypted}

	return h, codeOK
}

func (b *Backend) decode(benchH, plain abi.Handle, out []datapack.DataPack) abi.ErrorCode {
	state, ok := b.benches[benchH]
	if !ok {
		return b.fail(codeInvalidHandle, "decode: unknown benchmark handle %d", benchH)
	}

	p, ok := b.payloads[plain]
	if !ok {
		return b.fail(codeInvalidHandle, "decode: unknown plaintext handle %d", plain)
	}
	if len(p.packs) != len(out) {
		return b.fail(codeInvalidArgs,
			"decode: have %d result packs, caller wants %d", len(p.packs), len(out))
	}

	for i, pack := range p.packs {
		if len(pack.pts) != len(out[i].Buffers) {
			return b.fail(codeInvalidArgs,
				"decode: result pack %d holds %d buffers, caller wants %d",
				i, len(pack.pts), len(out[i].Buffers))
		}

		for j, pt := range pack.pts {
			values := b.encoder.Decode(pt, b.params.LogSlots())
			for k := uint64(0); k < state.vectorSize; k++ {
				datagen.PutElem(out[i].Buffers[j].Data, k, real(values[k]))
			}
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
	return "CKKS", codeOK
}

func (b *Backend) securityName(engine abi.Handle, scheme, security uint32) (string, abi.ErrorCode) {
	return fmt.Sprintf("%d bits", security), codeOK
}

func (b *Backend) extraDescription(engine, desc abi.Handle, params []workload.Param) (string, abi.ErrorCode) {
	return fmt.Sprintf(", , LogN, %d\n, , LogSlots, %d\n",
		b.params.LogN(), b.params.LogSlots()), codeOK
}
