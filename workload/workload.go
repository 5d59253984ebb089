// Package workload defines the benchmark vocabulary shared between the
// harness and its backends: workload and category enumerations, data
// types, workload parameters, and the benchmark descriptor a backend
// publishes for each variant it supports.
package workload

import "fmt"

// Workload identifies a benchmarkable operation.
type Workload uint32

// Supported workloads.
const (
	EltwiseAdd Workload = iota
	EltwiseMult
	DotProduct
	MatrixMultiply
	LogisticRegression
	LogisticRegressionPolyD3
	LogisticRegressionPolyD5
	LogisticRegressionPolyD7
)

// String returns a human-readable workload name.
func (w Workload) String() string {
	switch w {
	case EltwiseAdd:
		return "EltwiseAdd"
	case EltwiseMult:
		return "EltwiseMult"
	case DotProduct:
		return "DotProduct"
	case MatrixMultiply:
		return "MatrixMultiply"
	case LogisticRegression:
		return "LogisticRegression"
	case LogisticRegressionPolyD3:
		return "LogisticRegressionPolyD3"
	case LogisticRegressionPolyD5:
		return "LogisticRegressionPolyD5"
	case LogisticRegressionPolyD7:
		return "LogisticRegressionPolyD7"
	default:
		return fmt.Sprintf("Workload(%d)", uint32(w))
	}
}

// Category selects how a benchmark is scheduled and timed.
type Category uint32

// Supported categories.
const (
	Latency Category = iota
	Offline
)

// String returns the category name used in report paths.
func (c Category) String() string {
	switch c {
	case Latency:
		return "Latency"
	case Offline:
		return "Offline"
	default:
		return fmt.Sprintf("Category(%d)", uint32(c))
	}
}

// DataType is the runtime element type of benchmark buffers.
type DataType uint32

// Supported data types.
const (
	Int32 DataType = iota
	Int64
	Float32
	Float64
)

// Size returns the byte size of one element of the data type.
func (dt DataType) Size() uint64 {
	switch dt {
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	default:
		panic(fmt.Sprintf("unknown data type %d", uint32(dt)))
	}
}

// String returns the data type name used in report paths.
func (dt DataType) String() string {
	switch dt {
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	default:
		return fmt.Sprintf("DataType(%d)", uint32(dt))
	}
}

// Valid reports whether dt is one of the supported data types.
func (dt DataType) Valid() bool {
	return dt <= Float64
}

// IsFloat reports whether dt is a floating-point type.
func (dt DataType) IsFloat() bool {
	return dt == Float32 || dt == Float64
}

// ParamType tags the scalar kind held by a workload parameter.
type ParamType uint32

// Workload parameter scalar kinds.
const (
	ParamUInt64 ParamType = iota
	ParamInt64
	ParamFloat64
)

// String returns a short tag name for the parameter type.
func (pt ParamType) String() string {
	switch pt {
	case ParamUInt64:
		return "u64"
	case ParamInt64:
		return "i64"
	case ParamFloat64:
		return "f64"
	default:
		return fmt.Sprintf("ParamType(%d)", uint32(pt))
	}
}

// Param is a tagged workload parameter scalar. Only the field selected
// by Type is meaningful.
type Param struct {
	Type ParamType
	U    uint64
	I    int64
	F    float64
}

// UInt64Param returns a u64-tagged parameter.
func UInt64Param(v uint64) Param {
	return Param{Type: ParamUInt64, U: v}
}

// Int64Param returns an i64-tagged parameter.
func Int64Param(v int64) Param {
	return Param{Type: ParamInt64, I: v}
}

// Float64Param returns an f64-tagged parameter.
func Float64Param(v float64) Param {
	return Param{Type: ParamFloat64, F: v}
}

// String formats the tagged value the way report paths expect it.
func (p Param) String() string {
	switch p.Type {
	case ParamUInt64:
		return fmt.Sprintf("%d", p.U)
	case ParamFloat64:
		return fmt.Sprintf("%v", p.F)
	default:
		return fmt.Sprintf("%d", p.I)
	}
}
