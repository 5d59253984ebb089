package bench

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/weiihann/hebench/datagen"
	"github.com/weiihann/hebench/datapack"
	"github.com/weiihann/hebench/workload"
)

// identity provides the seal identity shared by every matcher kind.
type identity struct {
	id uuid.UUID
}

func newIdentity() identity {
	return identity{id: uuid.New()}
}

// ID returns the matcher's seal identity.
func (m identity) ID() uuid.UUID {
	return m.id
}

// fetchUInt64Params validates that params holds exactly want positive
// u64 scalars and returns their values.
func fetchUInt64Params(params []workload.Param, want int) ([]uint64, error) {
	if len(params) != want {
		return nil, fmt.Errorf(
			"%w: expected %d workload parameters, got %d",
			ErrMismatch, want, len(params))
	}

	values := make([]uint64, len(params))
	for i, p := range params {
		if p.Type != workload.ParamUInt64 {
			return nil, fmt.Errorf(
				"%w: workload parameter %d: expected %s, got %s",
				ErrMismatch, i, workload.ParamUInt64, p.Type)
		}
		if p.U == 0 {
			return nil, fmt.Errorf(
				"%w: workload parameter %d: expected positive integer, got 0",
				ErrMismatch, i)
		}
		values[i] = p.U
	}

	return values, nil
}

// EltwiseMatcher matches element-wise add or multiply benchmarks. The
// single workload parameter is the vector size.
type EltwiseMatcher struct {
	identity
	op workload.Workload
}

// NewEltwiseMatcher creates a matcher for EltwiseAdd or EltwiseMult.
func NewEltwiseMatcher(op workload.Workload) *EltwiseMatcher {
	return &EltwiseMatcher{identity: newIdentity(), op: op}
}

// Family implements Matcher.
func (m *EltwiseMatcher) Family() string {
	return m.op.String()
}

// Match implements Matcher.
func (m *EltwiseMatcher) Match(desc workload.BenchmarkDescriptor,
	params []workload.Param,
) (string, error) {
	if desc.Workload != m.op {
		return "", fmt.Errorf("%w: workload %s is not %s", ErrMismatch, desc.Workload, m.op)
	}

	sizes, err := fetchUInt64Params(params, 1)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s %d", m.op, sizes[0]), nil
}

// NewData implements Matcher.
func (m *EltwiseMatcher) NewData(desc workload.BenchmarkDescriptor,
	params []workload.Param, cfg Config,
) (*datapack.Loader, error) {
	sizes, err := fetchUInt64Params(params, 1)
	if err != nil {
		return nil, err
	}

	batches := sampleSizes(desc, 2, cfg)

	return datagen.NewEltwise(m.op, sizes[0], batches[0], batches[1], desc.DataType)
}

// DotProductMatcher matches dot product benchmarks. The single
// workload parameter is the vector size.
type DotProductMatcher struct {
	identity
}

// NewDotProductMatcher creates a dot product matcher.
func NewDotProductMatcher() *DotProductMatcher {
	return &DotProductMatcher{identity: newIdentity()}
}

// Family implements Matcher.
func (m *DotProductMatcher) Family() string {
	return workload.DotProduct.String()
}

// Match implements Matcher.
func (m *DotProductMatcher) Match(desc workload.BenchmarkDescriptor,
	params []workload.Param,
) (string, error) {
	if desc.Workload != workload.DotProduct {
		return "", fmt.Errorf("%w: workload %s is not DotProduct", ErrMismatch, desc.Workload)
	}

	sizes, err := fetchUInt64Params(params, 1)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("DotProduct %d", sizes[0]), nil
}

// NewData implements Matcher.
func (m *DotProductMatcher) NewData(desc workload.BenchmarkDescriptor,
	params []workload.Param, cfg Config,
) (*datapack.Loader, error) {
	sizes, err := fetchUInt64Params(params, 1)
	if err != nil {
		return nil, err
	}

	batches := sampleSizes(desc, 2, cfg)

	return datagen.NewDotProduct(sizes[0], batches[0], batches[1], desc.DataType)
}

// MatMulMatcher matches matrix multiply benchmarks. The three workload
// parameters are the dimensions rows_a, cols_a, cols_b; the shared
// inner dimension keeps the operand shapes consistent.
type MatMulMatcher struct {
	identity
}

// NewMatMulMatcher creates a matrix multiply matcher.
func NewMatMulMatcher() *MatMulMatcher {
	return &MatMulMatcher{identity: newIdentity()}
}

// Family implements Matcher.
func (m *MatMulMatcher) Family() string {
	return workload.MatrixMultiply.String()
}

// Match implements Matcher.
func (m *MatMulMatcher) Match(desc workload.BenchmarkDescriptor,
	params []workload.Param,
) (string, error) {
	if desc.Workload != workload.MatrixMultiply {
		return "", fmt.Errorf("%w: workload %s is not MatrixMultiply", ErrMismatch, desc.Workload)
	}

	dims, err := fetchUInt64Params(params, 3)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("MatMul (%dx%d) x (%dx%d)",
		dims[0], dims[1], dims[1], dims[2]), nil
}

// NewData implements Matcher.
func (m *MatMulMatcher) NewData(desc workload.BenchmarkDescriptor,
	params []workload.Param, cfg Config,
) (*datapack.Loader, error) {
	dims, err := fetchUInt64Params(params, 3)
	if err != nil {
		return nil, err
	}

	batches := sampleSizes(desc, 2, cfg)

	return datagen.NewMatrixMultiply(dims[0], dims[1], dims[2],
		batches[0], batches[1], desc.DataType)
}

// LogRegMatcher matches logistic regression inference benchmarks,
// including the polynomial sigmoid approximation variants. The single
// workload parameter is the feature count.
type LogRegMatcher struct {
	identity
}

// NewLogRegMatcher creates a logistic regression matcher.
func NewLogRegMatcher() *LogRegMatcher {
	return &LogRegMatcher{identity: newIdentity()}
}

// Family implements Matcher.
func (m *LogRegMatcher) Family() string {
	return workload.LogisticRegression.String()
}

// Match implements Matcher.
func (m *LogRegMatcher) Match(desc workload.BenchmarkDescriptor,
	params []workload.Param,
) (string, error) {
	variant := ""

	switch desc.Workload {
	case workload.LogisticRegression:
	case workload.LogisticRegressionPolyD3:
		variant = "PolyD3 "
	case workload.LogisticRegressionPolyD5:
		variant = "PolyD5 "
	case workload.LogisticRegressionPolyD7:
		variant = "PolyD7 "
	default:
		return "", fmt.Errorf("%w: workload %s is not LogisticRegression",
			ErrMismatch, desc.Workload)
	}

	if !desc.DataType.IsFloat() {
		return "", fmt.Errorf("%w: logistic regression requires a floating data type, got %s",
			ErrMismatch, desc.DataType)
	}

	sizes, err := fetchUInt64Params(params, 1)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("LogReg %s%d features", variant, sizes[0]), nil
}

// NewData implements Matcher.
func (m *LogRegMatcher) NewData(desc workload.BenchmarkDescriptor,
	params []workload.Param, cfg Config,
) (*datapack.Loader, error) {
	sizes, err := fetchUInt64Params(params, 1)
	if err != nil {
		return nil, err
	}

	batches := sampleSizes(desc, 3, cfg)

	return datagen.NewLogisticRegression(desc.Workload, sizes[0],
		batches[2], desc.DataType)
}

// DefaultMatchers returns one matcher per supported workload family in
// registration order.
func DefaultMatchers() []Matcher {
	return []Matcher{
		NewEltwiseMatcher(workload.EltwiseAdd),
		NewEltwiseMatcher(workload.EltwiseMult),
		NewDotProductMatcher(),
		NewMatMulMatcher(),
		NewLogRegMatcher(),
	}
}
