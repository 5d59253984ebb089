package cleartext

import (
	"github.com/weiihann/hebench/datagen"
	"github.com/weiihann/hebench/workload"
)

type binOp int

const (
	binAdd binOp = iota
	binMul
	binDot
)

// applyBinary computes an element-wise or reducing binary op over n
// input elements, producing outN output elements.
func applyBinary(dt workload.DataType, a, b []byte, n, outN uint64, op binOp) []byte {
	out := make([]byte, outN*dt.Size())

	switch dt {
	case workload.Int32:
		binaryKernel[int32](out, a, b, n, op)
	case workload.Int64:
		binaryKernel[int64](out, a, b, n, op)
	case workload.Float32:
		binaryKernel[float32](out, a, b, n, op)
	case workload.Float64:
		binaryKernel[float64](out, a, b, n, op)
	}

	return out
}

func binaryKernel[T ~int32 | ~int64 | ~float32 | ~float64](out, a, b []byte, n uint64, op binOp) {
	switch op {
	case binAdd:
		for i := uint64(0); i < n; i++ {
			datagen.PutElem(out, i, datagen.Elem[T](a, i)+datagen.Elem[T](b, i))
		}
	case binMul:
		for i := uint64(0); i < n; i++ {
			datagen.PutElem(out, i, datagen.Elem[T](a, i)*datagen.Elem[T](b, i))
		}
	case binDot:
		var acc T
		for i := uint64(0); i < n; i++ {
			acc += datagen.Elem[T](a, i) * datagen.Elem[T](b, i)
		}
		datagen.PutElem(out, 0, acc)
	}
}

// applyMatMul multiplies row-major matrices of the given dimensions.
func applyMatMul(dt workload.DataType, a, b []byte, rowsA, colsA, colsB uint64) []byte {
	out := make([]byte, rowsA*colsB*dt.Size())

	switch dt {
	case workload.Int32:
		matMulKernel[int32](out, a, b, rowsA, colsA, colsB)
	case workload.Int64:
		matMulKernel[int64](out, a, b, rowsA, colsA, colsB)
	case workload.Float32:
		matMulKernel[float32](out, a, b, rowsA, colsA, colsB)
	case workload.Float64:
		matMulKernel[float64](out, a, b, rowsA, colsA, colsB)
	}

	return out
}

func matMulKernel[T ~int32 | ~int64 | ~float32 | ~float64](out, a, b []byte, rowsA, colsA, colsB uint64) {
	for i := uint64(0); i < rowsA; i++ {
		for j := uint64(0); j < colsB; j++ {
			var acc T
			for k := uint64(0); k < colsA; k++ {
				acc += datagen.Elem[T](a, i*colsA+k) * datagen.Elem[T](b, k*colsB+j)
			}
			datagen.PutElem(out, i*colsB+j, acc)
		}
	}
}

// applyLogReg computes sigmoid(w.x + b) for one input sample.
func applyLogReg(w workload.Workload, dt workload.DataType,
	wBuf, bBuf, xBuf []byte, features uint64,
) ([]byte, error) {
	out := make([]byte, dt.Size())

	if dt == workload.Float32 {
		var acc float32
		for i := uint64(0); i < features; i++ {
			acc += datagen.Elem[float32](wBuf, i) * datagen.Elem[float32](xBuf, i)
		}
		acc += datagen.Elem[float32](bBuf, 0)

		y, err := datagen.Sigmoid(w, float64(acc))
		if err != nil {
			return nil, err
		}
		datagen.PutElem(out, 0, float32(y))

		return out, nil
	}

	var acc float64
	for i := uint64(0); i < features; i++ {
		acc += datagen.Elem[float64](wBuf, i) * datagen.Elem[float64](xBuf, i)
	}
	acc += datagen.Elem[float64](bBuf, 0)

	y, err := datagen.Sigmoid(w, acc)
	if err != nil {
		return nil, err
	}
	datagen.PutElem(out, 0, y)

	return out, nil
}
