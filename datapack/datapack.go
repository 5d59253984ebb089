// Package datapack models the multi-dimensional sample space of a
// benchmark: per-parameter batches of typed buffers, the arena that
// backs them, and the row-major index arithmetic that maps input
// coordinates to result positions.
package datapack

import (
	"errors"
	"fmt"
	"unsafe"
)

// bufferAlign is the minimum alignment of every allocated buffer
// within the arena.
const bufferAlign = 64

// ErrResource indicates a buffer allocation or sizing failure.
var ErrResource = errors.New("resource allocation failed")

// NativeDataBuffer is one sample's backing storage plus an opaque tag a
// backend may use to reference the buffer later.
type NativeDataBuffer struct {
	Data []byte
	Tag  uint64
}

// Size returns the buffer size in bytes.
func (b NativeDataBuffer) Size() uint64 {
	return uint64(len(b.Data))
}

// DataPack is an ordered batch of buffers all holding samples of the
// same operation parameter slot.
type DataPack struct {
	Buffers       []NativeDataBuffer
	ParamPosition int
}

// Loader owns the input and expected-output packs of one benchmark and
// the arena backing them. Backends only ever receive views into it.
type Loader struct {
	inputBatch []uint64
	packs      []DataPack
	arena      []byte
	allocated  bool
}

// Init prepares a loader for a workload with the given per-parameter
// input batch sizes and result count. Every result pack gets a batch
// size equal to the Cartesian product of the input batch sizes.
func (l *Loader) Init(inputBatchSizes []uint64, outputCount int) error {
	if len(inputBatchSizes) == 0 {
		return fmt.Errorf("%w: no input parameters", ErrResource)
	}
	if outputCount <= 0 {
		return fmt.Errorf("%w: no output results", ErrResource)
	}

	resultBatch := uint64(1)
	for i, n := range inputBatchSizes {
		if n == 0 {
			return fmt.Errorf("%w: zero batch size for parameter %d", ErrResource, i)
		}
		resultBatch *= n
	}

	l.inputBatch = append([]uint64(nil), inputBatchSizes...)
	l.packs = make([]DataPack, len(inputBatchSizes)+outputCount)

	for i := range l.packs {
		batch := resultBatch
		if i < len(inputBatchSizes) {
			batch = inputBatchSizes[i]
		}

		l.packs[i] = DataPack{
			Buffers:       make([]NativeDataBuffer, batch),
			ParamPosition: i,
		}
	}

	return nil
}

// Allocate carves every buffer out of a single arena. inSizes and
// outSizes give the per-sample byte size of each input and output
// pack respectively; each must be nonzero.
func (l *Loader) Allocate(inSizes, outSizes []uint64) error {
	if len(l.packs) == 0 {
		return fmt.Errorf("%w: loader not initialized", ErrResource)
	}
	if len(inSizes) != len(l.inputBatch) {
		return fmt.Errorf("%w: got %d input sizes, want %d",
			ErrResource, len(inSizes), len(l.inputBatch))
	}
	if len(outSizes) != len(l.packs)-len(l.inputBatch) {
		return fmt.Errorf("%w: got %d output sizes, want %d",
			ErrResource, len(outSizes), len(l.packs)-len(l.inputBatch))
	}
	if l.allocated {
		return fmt.Errorf("%w: loader already allocated", ErrResource)
	}

	sizes := make([]uint64, 0, len(inSizes)+len(outSizes))
	sizes = append(sizes, inSizes...)
	sizes = append(sizes, outSizes...)

	total := uint64(0)
	for i, size := range sizes {
		if size == 0 {
			return fmt.Errorf("%w: zero buffer size for pack %d", ErrResource, i)
		}
		total += alignUp(size) * uint64(len(l.packs[i].Buffers))
	}

	l.arena = make([]byte, total+bufferAlign)

	offset := alignOffset(l.arena)
	tag := uint64(0)

	for i := range l.packs {
		size := sizes[i]
		stride := alignUp(size)

		for j := range l.packs[i].Buffers {
			l.packs[i].Buffers[j] = NativeDataBuffer{
				Data: l.arena[offset : offset+size : offset+size],
				Tag:  tag,
			}
			offset += stride
			tag++
		}
	}

	l.allocated = true

	return nil
}

// InputParamCount returns the number of input parameter packs.
func (l *Loader) InputParamCount() int {
	return len(l.inputBatch)
}

// ResultCount returns the number of output result packs.
func (l *Loader) ResultCount() int {
	return len(l.packs) - len(l.inputBatch)
}

// InputBatchSizes returns the per-parameter input batch sizes.
func (l *Loader) InputBatchSizes() []uint64 {
	return l.inputBatch
}

// ResultBatchSize returns the Cartesian product of the input batch
// sizes, the batch size of every result pack.
func (l *Loader) ResultBatchSize() uint64 {
	n := uint64(1)
	for _, b := range l.inputBatch {
		n *= b
	}

	return n
}

// ParameterPack returns the input pack for parameter position i.
func (l *Loader) ParameterPack(i int) *DataPack {
	return &l.packs[i]
}

// ResultPack returns the output pack for result index r.
func (l *Loader) ResultPack(r int) *DataPack {
	return &l.packs[len(l.inputBatch)+r]
}

// ResultIndex maps the multi-index of input sample choices to the flat
// result position: sum of i_k times the product of all batch sizes of
// parameters before k.
func (l *Loader) ResultIndex(multi []uint64) (uint64, error) {
	if len(multi) != len(l.inputBatch) {
		return 0, fmt.Errorf("multi-index has %d coordinates, want %d",
			len(multi), len(l.inputBatch))
	}

	flat := uint64(0)
	stride := uint64(1)

	for k, i := range multi {
		if i >= l.inputBatch[k] {
			return 0, fmt.Errorf("coordinate %d out of range: %d >= %d",
				k, i, l.inputBatch[k])
		}
		flat += i * stride
		stride *= l.inputBatch[k]
	}

	return flat, nil
}

// MultiIndex is the inverse of ResultIndex.
func (l *Loader) MultiIndex(flat uint64) ([]uint64, error) {
	if flat >= l.ResultBatchSize() {
		return nil, fmt.Errorf("flat index out of range: %d >= %d",
			flat, l.ResultBatchSize())
	}

	multi := make([]uint64, len(l.inputBatch))
	for k, b := range l.inputBatch {
		multi[k] = flat % b
		flat /= b
	}

	return multi, nil
}

func alignUp(n uint64) uint64 {
	return (n + bufferAlign - 1) &^ uint64(bufferAlign-1)
}

// alignOffset returns the first offset into buf aligned to bufferAlign.
func alignOffset(buf []byte) uint64 {
	// The Go allocator aligns large slices well past 64 bytes already;
	// computing from the slice header keeps the invariant explicit.
	addr := uint64(uintptr(unsafe.Pointer(unsafe.SliceData(buf))))

	return (bufferAlign - addr%bufferAlign) % bufferAlign
}
