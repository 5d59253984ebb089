package datagen

import (
	"fmt"
	"math"

	"github.com/weiihann/hebench/datapack"
	"github.com/weiihann/hebench/workload"
)

// Polynomial sigmoid approximations in ascending powers, evaluated by
// Horner's rule.
var (
	sigmoidPolyD3 = []float64{0.5, 0.15012, 0, -0.0015930078125}
	sigmoidPolyD5 = []float64{0.5, 0.19131, 0, -0.0045963, 0,
		0.0000412332000732421875}
	sigmoidPolyD7 = []float64{0.5, 0.21687, 0, -0.00819154296875, 0,
		0.0001658331298828125, 0, -0.00000119561672210693359375}
)

// evalPolynomial applies Horner's rule to coefficients given in
// ascending powers.
func evalPolynomial(x float64, coeff []float64) float64 {
	acc := coeff[len(coeff)-1]
	for i := len(coeff) - 2; i >= 0; i-- {
		acc = acc*x + coeff[i]
	}

	return acc
}

// Sigmoid evaluates the activation used as ground truth for the given
// logistic regression workload variant.
func Sigmoid(w workload.Workload, x float64) (float64, error) {
	switch w {
	case workload.LogisticRegression:
		return 1 / (1 + math.Exp(-x)), nil
	case workload.LogisticRegressionPolyD3:
		return evalPolynomial(x, sigmoidPolyD3), nil
	case workload.LogisticRegressionPolyD5:
		return evalPolynomial(x, sigmoidPolyD5), nil
	case workload.LogisticRegressionPolyD7:
		return evalPolynomial(x, sigmoidPolyD7), nil
	default:
		return 0, fmt.Errorf("not a logistic regression workload: %s", w)
	}
}

func logRegInfer[T ~float32 | ~float64](w workload.Workload, dst, wBuf, bBuf, xBuf []byte,
	features uint64,
) error {
	var acc T
	for i := uint64(0); i < features; i++ {
		acc += Elem[T](wBuf, i) * Elem[T](xBuf, i)
	}
	acc += Elem[T](bBuf, 0)

	y, err := Sigmoid(w, float64(acc))
	if err != nil {
		return err
	}

	putElem(dst, 0, T(y))

	return nil
}

// NewLogisticRegression generates inputs and ground truth for logistic
// regression inference y = sigmoid(w.x + b). The weight vector and bias
// have a single sample each; the input pack holds batchX samples.
// Unused result coordinates for W and b are fixed at zero.
func NewLogisticRegression(w workload.Workload, features, batchX uint64,
	dt workload.DataType,
) (*datapack.Loader, error) {
	if !dt.IsFloat() {
		return nil, fmt.Errorf("unsupported data type %s for logistic regression", dt)
	}
	if _, err := Sigmoid(w, 0); err != nil {
		return nil, err
	}

	vecBytes := features * dt.Size()

	loader, err := newLoader(
		[]uint64{1, 1, batchX},
		[]uint64{vecBytes, dt.Size(), vecBytes},
		[]uint64{dt.Size()},
	)
	if err != nil {
		return nil, err
	}

	counts := []uint64{features, 1, features}
	for p := 0; p < loader.InputParamCount(); p++ {
		pack := loader.ParameterPack(p)
		for i := range pack.Buffers {
			fillRandom(dt, pack.Buffers[i].Data, counts[p], 0, 1)
		}
	}

	wPack := loader.ParameterPack(0)
	bPack := loader.ParameterPack(1)
	xPack := loader.ParameterPack(2)
	out := loader.ResultPack(0)

	for xi := uint64(0); xi < batchX; xi++ {
		ri, err := loader.ResultIndex([]uint64{0, 0, xi})
		if err != nil {
			return nil, err
		}

		dst := out.Buffers[ri].Data
		if dt == workload.Float32 {
			err = logRegInfer[float32](w, dst,
				wPack.Buffers[0].Data, bPack.Buffers[0].Data,
				xPack.Buffers[xi].Data, features)
		} else {
			err = logRegInfer[float64](w, dst,
				wPack.Buffers[0].Data, bPack.Buffers[0].Data,
				xPack.Buffers[xi].Data, features)
		}
		if err != nil {
			return nil, err
		}
	}

	return loader, nil
}
