// Package validate compares backend-produced result buffers against
// cleartext ground truth. Integer types must match exactly; floating
// types pass under a relative tolerance with a small absolute floor so
// that expected values near zero do not demand infinite precision.
package validate

import (
	"fmt"
	"math"

	"github.com/weiihann/hebench/datagen"
	"github.com/weiihann/hebench/workload"
)

// Default tolerances and type floors.
const (
	DefaultTolerance = 0.01
	Float32Floor     = 1e-7
	Float64Floor     = 1e-10
)

// Tolerance holds the relative tolerances for the floating data types.
type Tolerance struct {
	F32Rel float64
	F64Rel float64
}

// DefaultTolerances returns the stock tolerance configuration.
func DefaultTolerances() Tolerance {
	return Tolerance{F32Rel: DefaultTolerance, F64Rel: DefaultTolerance}
}

// Error reports the first numerical mismatch in a result buffer.
type Error struct {
	FlatIndex  uint64
	MultiIndex []uint64
	Offset     uint64
	Expected   float64
	Actual     float64
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf(
		"result %d (multi-index %v), element %d: expected %v, got %v",
		e.FlatIndex, e.MultiIndex, e.Offset, e.Expected, e.Actual)
}

// Result compares one expected/actual buffer pair holding elements of
// dt. flat and multi identify the result position for error reporting.
func Result(dt workload.DataType, expected, actual []byte,
	flat uint64, multi []uint64, tol Tolerance,
) error {
	count := uint64(len(expected)) / dt.Size()
	if uint64(len(actual)) < uint64(len(expected)) {
		return fmt.Errorf("result %d: actual buffer holds %d bytes, want %d",
			flat, len(actual), len(expected))
	}

	switch dt {
	case workload.Int32:
		return compareExact[int32](expected, actual, count, flat, multi)
	case workload.Int64:
		return compareExact[int64](expected, actual, count, flat, multi)
	case workload.Float32:
		return compareFloat[float32](expected, actual, count, flat, multi,
			tol.F32Rel, Float32Floor)
	case workload.Float64:
		return compareFloat[float64](expected, actual, count, flat, multi,
			tol.F64Rel, Float64Floor)
	default:
		return fmt.Errorf("unsupported data type %s", dt)
	}
}

func compareExact[T ~int32 | ~int64](expected, actual []byte,
	count, flat uint64, multi []uint64,
) error {
	for i := uint64(0); i < count; i++ {
		e := datagen.Elem[T](expected, i)
		a := datagen.Elem[T](actual, i)
		if e != a {
			return &Error{
				FlatIndex:  flat,
				MultiIndex: multi,
				Offset:     i,
				Expected:   float64(e),
				Actual:     float64(a),
			}
		}
	}

	return nil
}

func compareFloat[T ~float32 | ~float64](expected, actual []byte,
	count, flat uint64, multi []uint64, tol, floor float64,
) error {
	for i := uint64(0); i < count; i++ {
		e := float64(datagen.Elem[T](expected, i))
		a := float64(datagen.Elem[T](actual, i))
		if math.Abs(a-e) <= tol*math.Max(math.Abs(e), floor) {
			continue
		}

		return &Error{
			FlatIndex:  flat,
			MultiIndex: multi,
			Offset:     i,
			Expected:   e,
			Actual:     a,
		}
	}

	return nil
}
