package bench

import (
	"context"
	"fmt"

	"github.com/weiihann/hebench/abi"
	"github.com/weiihann/hebench/datapack"
	"github.com/weiihann/hebench/report"
	"github.com/weiihann/hebench/workload"
)

// Pipeline step labels, in pipeline order.
const (
	labelEncoding   = "Encoding"
	labelEncryption = "Encryption"
	labelLoading    = "Loading"
	labelOperation  = "Operation"
	labelStore      = "Store"
	labelDecryption = "Decryption"
	labelDecoding   = "Decoding"
)

// pipeline executes the fixed encode, encrypt, load, operate, store,
// decrypt, decode sequence for one workload unit and emits one timing
// event per step.
type pipeline struct {
	pb   *PartialBenchmark
	sink report.Sink
}

// run drives one full pass. inputs holds one pack view per operation
// parameter, indexers the batch slice each parameter contributes,
// opIterations the value recorded on the operate event, and out the
// harness-owned buffers the decoded results land in. When emit is
// false the pass runs untimed (warmup).
func (p *pipeline) run(ctx context.Context, inputs []datapack.DataPack,
	indexers []abi.ParamIndexer, opIterations uint64,
	emit bool, out []datapack.DataPack,
) error {
	if err := p.pb.checkInitialized(); err != nil {
		return err
	}

	adapter := p.pb.host.Adapter()
	benchHandle := p.pb.handle
	mask := p.pb.descriptor.CipherParamMask

	// Transient backend handles are released when the pass ends,
	// successful or not.
	var transient []abi.Handle
	defer func() {
		for _, h := range transient {
			_ = adapter.DestroyHandle(h)
		}
	}()

	// Split the op parameters into plaintext and ciphertext groups.
	// Mask bits beyond the parameter count are ignored.
	cipherPositions := workload.CipherParamPositions(mask)

	var plainPacks, cipherPacks []datapack.DataPack
	for i, pack := range inputs {
		if cipherPositions[i] {
			cipherPacks = append(cipherPacks, pack)
		} else {
			plainPacks = append(plainPacks, pack)
		}
	}

	resultIsCipher := len(cipherPacks) > 0

	// Encode.
	if err := checkCancelled(ctx); err != nil {
		return err
	}

	var hPlain, hCipherPlain abi.Handle

	timer := startTimer()

	if len(plainPacks) > 0 {
		h, err := adapter.Encode(benchHandle, plainPacks)
		if err != nil {
			return err
		}
		hPlain = h
		transient = append(transient, h)
	}
	if len(cipherPacks) > 0 {
		h, err := adapter.Encode(benchHandle, cipherPacks)
		if err != nil {
			return err
		}
		hCipherPlain = h
		transient = append(transient, h)
	}

	p.emit(timer, labelEncoding, 1, emit)

	// Encrypt only the masked positions.
	var hCipher abi.Handle

	if resultIsCipher {
		if err := checkCancelled(ctx); err != nil {
			return err
		}

		timer = startTimer()

		h, err := adapter.Encrypt(benchHandle, hCipherPlain)
		if err != nil {
			return err
		}
		hCipher = h
		transient = append(transient, h)

		p.emit(timer, labelEncryption, 1, emit)
	}

	// Load onto the backend's target device.
	if err := checkCancelled(ctx); err != nil {
		return err
	}

	locals := make([]abi.Handle, 0, 2)
	if hCipher != 0 {
		locals = append(locals, hCipher)
	}
	if hPlain != 0 {
		locals = append(locals, hPlain)
	}

	timer = startTimer()

	hRemote, err := adapter.Load(benchHandle, locals)
	if err != nil {
		return err
	}
	transient = append(transient, hRemote)

	p.emit(timer, labelLoading, 1, emit)

	// Operate: the measured step.
	if err := checkCancelled(ctx); err != nil {
		return err
	}

	timer = startTimer()

	hRemoteResult, err := adapter.Operate(benchHandle, hRemote, indexers)
	if err != nil {
		return err
	}
	transient = append(transient, hRemoteResult)

	p.emit(timer, labelOperation, opIterations, emit)

	// Store back to the host.
	if err := checkCancelled(ctx); err != nil {
		return err
	}

	timer = startTimer()

	hLocalResult, err := adapter.Store(benchHandle, hRemoteResult)
	if err != nil {
		return err
	}
	transient = append(transient, hLocalResult)

	p.emit(timer, labelStore, 1, emit)

	// Decrypt when the result is ciphertext.
	if resultIsCipher {
		if err := checkCancelled(ctx); err != nil {
			return err
		}

		timer = startTimer()

		h, err := adapter.Decrypt(benchHandle, hLocalResult)
		if err != nil {
			return err
		}
		hLocalResult = h
		transient = append(transient, h)

		p.emit(timer, labelDecryption, 1, emit)
	}

	// Decode into harness buffers.
	if err := checkCancelled(ctx); err != nil {
		return err
	}

	timer = startTimer()

	if err := adapter.Decode(benchHandle, hLocalResult, out); err != nil {
		return err
	}

	p.emit(timer, labelDecoding, 1, emit)

	return nil
}

func (p *pipeline) emit(t eventTimer, label string, iterations uint64, emit bool) {
	if !emit {
		return
	}

	wall, cpu := t.stop()

	p.sink.AddEvent(report.TimingEvent{
		ID:         p.pb.nextEventID(),
		Wall:       wall,
		CPU:        cpu,
		Iterations: iterations,
		Label:      label,
	})
}

func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCancelled, err)
	}

	return nil
}

// actualResultPacks allocates fresh output buffers shaped like the
// loader's expected results, for the backend to decode into.
func actualResultPacks(loader *datapack.Loader) []datapack.DataPack {
	packs := make([]datapack.DataPack, loader.ResultCount())

	for r := range packs {
		expected := loader.ResultPack(r)
		buffers := make([]datapack.NativeDataBuffer, len(expected.Buffers))

		for i := range buffers {
			buffers[i] = datapack.NativeDataBuffer{
				Data: make([]byte, expected.Buffers[i].Size()),
				Tag:  expected.Buffers[i].Tag,
			}
		}

		packs[r] = datapack.DataPack{
			Buffers:       buffers,
			ParamPosition: expected.ParamPosition,
		}
	}

	return packs
}
