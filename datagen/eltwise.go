package datagen

import (
	"fmt"

	"github.com/weiihann/hebench/datapack"
	"github.com/weiihann/hebench/workload"
)

// Componentwise kernels over equal-length vectors.
func eltwiseAddKernel[T arith](dst, a, b []byte, n uint64) {
	for i := uint64(0); i < n; i++ {
		putElem(dst, i, Elem[T](a, i)+Elem[T](b, i))
	}
}

func eltwiseMultKernel[T arith](dst, a, b []byte, n uint64) {
	for i := uint64(0); i < n; i++ {
		putElem(dst, i, Elem[T](a, i)*Elem[T](b, i))
	}
}

func eltwiseKernel(w workload.Workload, dt workload.DataType) (func(dst, a, b []byte, n uint64), error) {
	mult := w == workload.EltwiseMult

	switch dt {
	case workload.Int32:
		if mult {
			return eltwiseMultKernel[int32], nil
		}
		return eltwiseAddKernel[int32], nil
	case workload.Int64:
		if mult {
			return eltwiseMultKernel[int64], nil
		}
		return eltwiseAddKernel[int64], nil
	case workload.Float32:
		if mult {
			return eltwiseMultKernel[float32], nil
		}
		return eltwiseAddKernel[float32], nil
	case workload.Float64:
		if mult {
			return eltwiseMultKernel[float64], nil
		}
		return eltwiseAddKernel[float64], nil
	default:
		return nil, fmt.Errorf("unsupported data type %s", dt)
	}
}

// NewEltwise generates inputs and ground truth for element-wise add or
// multiply over vectors of vectorSize elements, with batchA samples of
// the first operand and batchB of the second.
func NewEltwise(w workload.Workload, vectorSize, batchA, batchB uint64,
	dt workload.DataType,
) (*datapack.Loader, error) {
	if w != workload.EltwiseAdd && w != workload.EltwiseMult {
		return nil, fmt.Errorf("not an element-wise workload: %s", w)
	}

	kernel, err := eltwiseKernel(w, dt)
	if err != nil {
		return nil, err
	}

	vecBytes := vectorSize * dt.Size()

	loader, err := newLoader(
		[]uint64{batchA, batchB},
		[]uint64{vecBytes, vecBytes},
		[]uint64{vecBytes},
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
