package validate

import (
	"errors"
	"testing"

	"github.com/weiihann/hebench/datagen"
	"github.com/weiihann/hebench/workload"
)

func f64Buf(values ...float64) []byte {
	buf := make([]byte, len(values)*8)
	for i, v := range values {
		datagen.PutElem(buf, uint64(i), v)
	}

	return buf
}

func i32Buf(values ...int32) []byte {
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		datagen.PutElem(buf, uint64(i), v)
	}

	return buf
}

func TestIdenticalBuffersPass(t *testing.T) {
	tols := []Tolerance{
		{},
		DefaultTolerances(),
		{F32Rel: 1, F64Rel: 1},
	}

	for _, tol := range tols {
		buf := f64Buf(0, 1, -2.5, 1e300)
		if err := Result(workload.Float64, buf, buf, 0, nil, tol); err != nil {
			t.Errorf("identical f64 buffers failed with tol %+v: %v", tol, err)
		}

		ints := i32Buf(0, -7, 42)
		if err := Result(workload.Int32, ints, ints, 0, nil, tol); err != nil {
			t.Errorf("identical i32 buffers failed with tol %+v: %v", tol, err)
		}
	}
}

func TestFloatTolerance(t *testing.T) {
	tol := DefaultTolerances()

	tests := []struct {
		name     string
		expected float64
		actual   float64
		wantPass bool
	}{
		{"exact", 70, 70, true},
		{"one percent over", 70, 70.8, false},
		{"within", 70, 70.5, true},
		{"near zero floor", 0, 1e-12, true},
		{"two percent", 1.0, 1.02, false},
		{"half percent", 1.0, 1.005, true},
		{"negative within", -10, -10.05, true},
		{"negative outside", -10, -10.2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Result(workload.Float64,
				f64Buf(tt.expected), f64Buf(tt.actual), 0, nil, tol)

			if tt.wantPass && err != nil {
				t.Errorf("expected pass, got %v", err)
			}
			if !tt.wantPass && err == nil {
				t.Error("expected failure, got pass")
			}
		})
	}
}

func TestIntegerExact(t *testing.T) {
	tol := DefaultTolerances()

	if err := Result(workload.Int32, i32Buf(5), i32Buf(5), 0, nil, tol); err != nil {
		t.Errorf("equal integers failed: %v", err)
	}

	err := Result(workload.Int32, i32Buf(5), i32Buf(6), 0, nil, tol)
	if err == nil {
		t.Fatal("differing integers passed")
	}

	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("error is %T, want *Error", err)
	}
	if verr.Expected != 5 || verr.Actual != 6 {
		t.Errorf("error values = (%v, %v), want (5, 6)", verr.Expected, verr.Actual)
	}
}

func TestMismatchReportsOffsets(t *testing.T) {
	expected := f64Buf(1, 2, 3)
	actual := f64Buf(1, 2, 9)

	err := Result(workload.Float64, expected, actual, 7, []uint64{1, 3}, DefaultTolerances())
	if err == nil {
		t.Fatal("expected mismatch")
	}

	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("error is %T, want *Error", err)
	}

	if verr.FlatIndex != 7 {
		t.Errorf("flat index = %d, want 7", verr.FlatIndex)
	}
	if len(verr.MultiIndex) != 2 || verr.MultiIndex[0] != 1 || verr.MultiIndex[1] != 3 {
		t.Errorf("multi index = %v, want [1 3]", verr.MultiIndex)
	}
	if verr.Offset != 2 {
		t.Errorf("offset = %d, want 2", verr.Offset)
	}
}

func TestShortActualBuffer(t *testing.T) {
	err := Result(workload.Float64, f64Buf(1, 2), f64Buf(1), 0, nil, DefaultTolerances())
	if err == nil {
		t.Error("expected error for short actual buffer")
	}
}
