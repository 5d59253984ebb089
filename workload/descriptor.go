package workload

// MaxOpParams is the maximum number of operation parameters a backend
// may declare for one workload.
const MaxOpParams = 32

// MaxCategoryParams is the number of raw words in the category
// parameter union.
const MaxCategoryParams = 32

// LatencyParams configures a Latency-category benchmark.
type LatencyParams struct {
	WarmupIterations uint64
	MinTestTimeMS    uint64
}

// OfflineParams configures an Offline-category benchmark. A zero
// sample count for a parameter means "use the harness default".
type OfflineParams struct {
	DataCount [MaxOpParams]uint64
}

// CategoryParams is the category parameter union. Only the member
// selected by the descriptor's Category is meaningful, but the raw
// word view is preserved because report paths derive a digest from it.
type CategoryParams struct {
	Latency LatencyParams
	Offline OfflineParams
}

// Words returns the union's raw word view: the category fields laid
// out in declaration order, zero-padded to MaxCategoryParams.
func (cp CategoryParams) Words(cat Category) [MaxCategoryParams]uint64 {
	var words [MaxCategoryParams]uint64
	switch cat {
	case Latency:
		words[0] = cp.Latency.WarmupIterations
		words[1] = cp.Latency.MinTestTimeMS
	case Offline:
		copy(words[:], cp.Offline.DataCount[:])
	}

	return words
}

// BenchmarkDescriptor is a backend's self-description of one benchmark
// variant.
type BenchmarkDescriptor struct {
	Workload        Workload
	Category        Category
	DataType        DataType
	CipherParamMask uint32
	Scheme          uint32
	Security        uint32
	Other           uint64
	CatParams       CategoryParams
}

// CipherParamPositions returns the set of op-parameter positions whose
// bit is set in mask, as a position-indexed boolean slice of length 32.
func CipherParamPositions(mask uint32) []bool {
	positions := make([]bool, 32)
	for i := range positions {
		positions[i] = mask&(1<<uint(i)) != 0
	}

	return positions
}
