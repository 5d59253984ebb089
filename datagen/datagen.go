// Package datagen produces deterministic benchmark inputs and their
// cleartext ground-truth outputs for every supported workload. All
// randomness flows through a single process-wide seeded generator, so a
// given (seed, workload, parameters, data type) always reproduces the
// same bytes.
package datagen

import (
	"encoding/binary"
	"fmt"
	"math"
	mrand "math/rand"

	"github.com/weiihann/hebench/datapack"
	"github.com/weiihann/hebench/workload"
)

// rng is the process-wide generator. It is mutated only during data
// generation, which happens before any benchmark pipeline runs.
var rng = mrand.New(mrand.NewSource(1))

// Seed reseeds the process-wide generator.
func Seed(seed uint64) {
	rng = mrand.New(mrand.NewSource(int64(seed)))
}

// truncNorm draws from a normal distribution with the given mean and
// standard deviation, truncated to mean plus or minus three standard
// deviations.
func truncNorm(mean, stddev float64) float64 {
	for {
		v := rng.NormFloat64()
		if math.Abs(v) <= 3 {
			return mean + stddev*v
		}
	}
}

// arith is the element type constraint shared by every kernel.
type arith interface {
	~int32 | ~int64 | ~float32 | ~float64
}

// fillRandom writes count random elements of dt into buf, drawn from a
// truncated normal with the given mean and standard deviation.
func fillRandom(dt workload.DataType, buf []byte, count uint64, mean, stddev float64) {
	switch dt {
	case workload.Int32:
		for i := uint64(0); i < count; i++ {
			putElem[int32](buf, i, int32(truncNorm(mean, stddev)))
		}
	case workload.Int64:
		for i := uint64(0); i < count; i++ {
			putElem[int64](buf, i, int64(truncNorm(mean, stddev)))
		}
	case workload.Float32:
		for i := uint64(0); i < count; i++ {
			putElem[float32](buf, i, float32(truncNorm(mean, stddev)))
		}
	case workload.Float64:
		for i := uint64(0); i < count; i++ {
			putElem[float64](buf, i, truncNorm(mean, stddev))
		}
	}
}

// Elem reads element i of a raw little-endian buffer.
func Elem[T arith](buf []byte, i uint64) T {
	var v T
	switch any(v).(type) {
	case int32:
		v = any(int32(binary.LittleEndian.Uint32(buf[i*4:]))).(T)
	case int64:
		v = any(int64(binary.LittleEndian.Uint64(buf[i*8:]))).(T)
	case float32:
		v = any(math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))).(T)
	case float64:
		v = any(math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))).(T)
	}

	return v
}

func putElem[T arith](buf []byte, i uint64, v T) {
	switch x := any(v).(type) {
	case int32:
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(x))
	case int64:
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(x))
	case float32:
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	case float64:
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(x))
	}
}

// PutElem writes element i of a raw little-endian buffer. It is the
// write-side counterpart of Elem for backends and tests that need to
// fill typed buffers.
func PutElem[T arith](buf []byte, i uint64, v T) {
	putElem(buf, i, v)
}

// newLoader builds and allocates a loader for the given batch and
// per-sample buffer sizes.
func newLoader(inputBatch []uint64, inSizes, outSizes []uint64) (*datapack.Loader, error) {
	var loader datapack.Loader
	if err := loader.Init(inputBatch, len(outSizes)); err != nil {
		return nil, fmt.Errorf("init data packs: %w", err)
	}
	if err := loader.Allocate(inSizes, outSizes); err != nil {
		return nil, fmt.Errorf("allocate data packs: %w", err)
	}

	return &loader, nil
}
