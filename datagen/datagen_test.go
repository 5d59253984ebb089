package datagen

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/hebench/datapack"
	"github.com/weiihann/hebench/workload"
)

// collectBytes concatenates every buffer of every pack for bitwise
// comparison.
func collectBytes(l *datapack.Loader) []byte {
	var all []byte

	for p := 0; p < l.InputParamCount(); p++ {
		for _, buf := range l.ParameterPack(p).Buffers {
			all = append(all, buf.Data...)
		}
	}
	for r := 0; r < l.ResultCount(); r++ {
		for _, buf := range l.ResultPack(r).Buffers {
			all = append(all, buf.Data...)
		}
	}

	return all
}

func TestGeneratorsDeterministic(t *testing.T) {
	type genFunc func() (*datapack.Loader, error)

	tests := []struct {
		name string
		gen  genFunc
	}{
		{"eltwise add f64", func() (*datapack.Loader, error) {
			return NewEltwise(workload.EltwiseAdd, 16, 2, 3, workload.Float64)
		}},
		{"eltwise mult i32", func() (*datapack.Loader, error) {
			return NewEltwise(workload.EltwiseMult, 16, 2, 2, workload.Int32)
		}},
		{"dot product f32", func() (*datapack.Loader, error) {
			return NewDotProduct(8, 3, 2, workload.Float32)
		}},
		{"matmul i64", func() (*datapack.Loader, error) {
			return NewMatrixMultiply(4, 5, 6, 2, 2, workload.Int64)
		}},
		{"logreg poly d5 f64", func() (*datapack.Loader, error) {
			return NewLogisticRegression(workload.LogisticRegressionPolyD5,
				8, 4, workload.Float64)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Seed(42)
			l1, err := tt.gen()
			require.NoError(t, err)

			Seed(42)
			l2, err := tt.gen()
			require.NoError(t, err)

			if !bytes.Equal(collectBytes(l1), collectBytes(l2)) {
				t.Error("same seed produced different data")
			}
		})
	}
}

func TestGeneratorsSeedSensitive(t *testing.T) {
	Seed(1)
	l1, err := NewEltwise(workload.EltwiseAdd, 64, 1, 1, workload.Float64)
	require.NoError(t, err)

	Seed(2)
	l2, err := NewEltwise(workload.EltwiseAdd, 64, 1, 1, workload.Float64)
	require.NoError(t, err)

	if bytes.Equal(collectBytes(l1), collectBytes(l2)) {
		t.Error("different seeds produced identical data")
	}
}

func TestDotKernel(t *testing.T) {
	a := make([]byte, 4*8)
	b := make([]byte, 4*8)
	out := make([]byte, 8)

	for i, v := range []float64{1, 2, 3, 4} {
		putElem(a, uint64(i), v)
	}
	for i, v := range []float64{5, 6, 7, 8} {
		putElem(b, uint64(i), v)
	}

	dotKernel[float64](out, a, b, 4)

	assert.Equal(t, 70.0, Elem[float64](out, 0))
}

func TestMatMulKernel(t *testing.T) {
	// A is 2x3, B is 3x2; expected product [[4 2] [10 5]].
	a := make([]byte, 6*4)
	b := make([]byte, 6*4)
	out := make([]byte, 4*4)

	for i, v := range []float32{1, 2, 3, 4, 5, 6} {
		putElem(a, uint64(i), v)
	}
	for i, v := range []float32{1, 0, 0, 1, 1, 0} {
		putElem(b, uint64(i), v)
	}

	matMulKernel[float32](out, a, b, 2, 3, 2)

	want := []float32{4, 2, 10, 5}
	for i, w := range want {
		assert.Equal(t, w, Elem[float32](out, uint64(i)), "element %d", i)
	}
}

func TestSigmoid(t *testing.T) {
	// Horner evaluation at zero yields the constant term exactly.
	for _, w := range []workload.Workload{
		workload.LogisticRegression,
		workload.LogisticRegressionPolyD3,
		workload.LogisticRegressionPolyD5,
		workload.LogisticRegressionPolyD7,
	} {
		y, err := Sigmoid(w, 0)
		require.NoError(t, err)
		assert.Equal(t, 0.5, y, "sigmoid variant %s at 0", w)
	}

	// Degree-3 approximation at x = 2.
	y, err := Sigmoid(workload.LogisticRegressionPolyD3, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.7874959375, y, 1e-10)

	// True sigmoid saturates.
	y, err = Sigmoid(workload.LogisticRegression, 100)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, y, 1e-9)

	_, err = Sigmoid(workload.DotProduct, 0)
	assert.Error(t, err)
}

func TestLogRegGroundTruth(t *testing.T) {
	// w = [1 1], b = 0, x = [1 1]: the linear part is 2.
	wBuf := make([]byte, 2*8)
	bBuf := make([]byte, 8)
	xBuf := make([]byte, 2*8)
	out := make([]byte, 8)

	putElem(wBuf, 0, 1.0)
	putElem(wBuf, 1, 1.0)
	putElem(xBuf, 0, 1.0)
	putElem(xBuf, 1, 1.0)

	err := logRegInfer[float64](workload.LogisticRegressionPolyD3,
		out, wBuf, bBuf, xBuf, 2)
	require.NoError(t, err)

	assert.InDelta(t, 0.7874959375, Elem[float64](out, 0), 1e-10)
}

func TestLogRegRejectsIntegers(t *testing.T) {
	_, err := NewLogisticRegression(workload.LogisticRegression, 4, 1, workload.Int32)
	assert.Error(t, err)
}

func TestEltwiseExpectedOutputs(t *testing.T) {
	Seed(7)

	l, err := NewEltwise(workload.EltwiseAdd, 8, 2, 3, workload.Float64)
	require.NoError(t, err)

	packA := l.ParameterPack(0)
	packB := l.ParameterPack(1)
	out := l.ResultPack(0)

	for ai := uint64(0); ai < 2; ai++ {
		for bi := uint64(0); bi < 3; bi++ {
			flat, err := l.ResultIndex([]uint64{ai, bi})
			require.NoError(t, err)

			for i := uint64(0); i < 8; i++ {
				want := Elem[float64](packA.Buffers[ai].Data, i) +
					Elem[float64](packB.Buffers[bi].Data, i)
				got := Elem[float64](out.Buffers[flat].Data, i)
				assert.Equal(t, want, got)
			}
		}
	}
}

func TestTruncNormBounded(t *testing.T) {
	Seed(9)

	for i := 0; i < 10000; i++ {
		v := truncNorm(0, 10)
		if math.Abs(v) > 30 {
			t.Fatalf("draw %d outside three standard deviations: %v", i, v)
		}
	}
}
