package datagen

import (
	"fmt"

	"github.com/weiihann/hebench/datapack"
	"github.com/weiihann/hebench/workload"
)

// matMulKernel is the naive triple loop over row-major matrices,
// accumulating in T.
func matMulKernel[T arith](dst, a, b []byte, rowsA, colsA, colsB uint64) {
	for i := uint64(0); i < rowsA; i++ {
		for j := uint64(0); j < colsB; j++ {
			var acc T
			for k := uint64(0); k < colsA; k++ {
				acc += Elem[T](a, i*colsA+k) * Elem[T](b, k*colsB+j)
			}
			putElem(dst, i*colsB+j, acc)
		}
	}
}

func matrixKernel(dt workload.DataType) (func(dst, a, b []byte, rowsA, colsA, colsB uint64), error) {
	switch dt {
	case workload.Int32:
		return matMulKernel[int32], nil
	case workload.Int64:
		return matMulKernel[int64], nil
	case workload.Float32:
		return matMulKernel[float32], nil
	case workload.Float64:
		return matMulKernel[float64], nil
	default:
		return nil, fmt.Errorf("unsupported data type %s", dt)
	}
}

// NewMatrixMultiply generates inputs and ground truth for the product
// of rowsA-by-colsA and colsA-by-colsB row-major matrices.
func NewMatrixMultiply(rowsA, colsA, colsB, batchA, batchB uint64,
	dt workload.DataType,
) (*datapack.Loader, error) {
	kernel, err := matrixKernel(dt)
	if err != nil {
		return nil, err
	}

	loader, err := newLoader(
		[]uint64{batchA, batchB},
		[]uint64{rowsA * colsA * dt.Size(), colsA * colsB * dt.Size()},
		[]uint64{rowsA * colsB * dt.Size()},
	)
	if err != nil {
		return nil, err
	}

	packA := loader.ParameterPack(0)
	for i := range packA.Buffers {
		fillRandom(dt, packA.Buffers[i].Data, rowsA*colsA, 0, 10)
	}

	packB := loader.ParameterPack(1)
	for i := range packB.Buffers {
		fillRandom(dt, packB.Buffers[i].Data, colsA*colsB, 0, 10)
	}

	out := loader.ResultPack(0)

	for ai := uint64(0); ai < batchA; ai++ {
		for bi := uint64(0); bi < batchB; bi++ {
			ri, err := loader.ResultIndex([]uint64{ai, bi})
			if err != nil {
				return nil, err
			}
			kernel(out.Buffers[ri].Data,
				packA.Buffers[ai].Data, packB.Buffers[bi].Data,
				rowsA, colsA, colsB)
		}
	}

	return loader, nil
}
