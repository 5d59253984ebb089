package datagen

import (
	"fmt"

	"github.com/weiihann/hebench/datapack"
	"github.com/weiihann/hebench/workload"
)

// dotKernel accumulates left to right in T; overflow and rounding are
// the type's native behavior.
func dotKernel[T arith](dst, a, b []byte, n uint64) {
	var acc T
	for i := uint64(0); i < n; i++ {
		acc += Elem[T](a, i) * Elem[T](b, i)
	}
	putElem(dst, 0, acc)
}

func dotProductKernel(dt workload.DataType) (func(dst, a, b []byte, n uint64), error) {
	switch dt {
	case workload.Int32:
		return dotKernel[int32], nil
	case workload.Int64:
		return dotKernel[int64], nil
	case workload.Float32:
		return dotKernel[float32], nil
	case workload.Float64:
		return dotKernel[float64], nil
	default:
		return nil, fmt.Errorf("unsupported data type %s", dt)
	}
}

// NewDotProduct generates inputs and ground truth for the inner product
// of vectors with vectorSize elements. The result buffer holds a single
// component.
func NewDotProduct(vectorSize, batchA, batchB uint64, dt workload.DataType) (*datapack.Loader, error) {
	kernel, err := dotProductKernel(dt)
	if err != nil {
		return nil, err
	}

	vecBytes := vectorSize * dt.Size()

	loader, err := newLoader(
		[]uint64{batchA, batchB},
		[]uint64{vecBytes, vecBytes},
		[]uint64{dt.Size()},
	)
	if err != nil {
		return nil, err
	}

	for p := 0; p < loader.InputParamCount(); p++ {
		pack := loader.ParameterPack(p)
		for i := range pack.Buffers {
			fillRandom(dt, pack.Buffers[i].Data, vectorSize, 0, 10)
		}
	}

	packA := loader.ParameterPack(0)
	packB := loader.ParameterPack(1)
	out := loader.ResultPack(0)

	for ai := uint64(0); ai < batchA; ai++ {
		for bi := uint64(0); bi < batchB; bi++ {
			ri, err := loader.ResultIndex([]uint64{ai, bi})
			if err != nil {
				return nil, err
			}
			kernel(out.Buffers[ri].Data,
				packA.Buffers[ai].Data, packB.Buffers[bi].Data, vectorSize)
		}
	}

	return loader, nil
}
