// Package bench turns matched backend descriptors into runnable
// benchmarks: it owns descriptor matching and token issuance, the
// backend-side benchmark handle lifecycle, and the Latency and Offline
// category drivers that schedule, time, and validate the pipeline.
package bench

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/weiihann/hebench/abi"
	"github.com/weiihann/hebench/datapack"
	"github.com/weiihann/hebench/validate"
	"github.com/weiihann/hebench/workload"
)

// ErrMismatch reports that a descriptor or its workload parameters are
// not supported by a matcher.
var ErrMismatch = errors.New("descriptor mismatch")

// ErrPrecondition reports a harness sequencing bug: a pipeline call
// before initialization completed, or a token consumed by the wrong
// benchmark class.
var ErrPrecondition = errors.New("precondition failed")

// ErrCancelled reports that the run was interrupted.
var ErrCancelled = errors.New("cancelled")

// Config carries the harness options a benchmark needs at run time.
type Config struct {
	DefaultSampleSize uint64
	MinTestTimeMS     uint64
	Tolerance         validate.Tolerance
}

// Host is the engine-side surface a benchmark needs: the ABI adapter
// and the backend engine handle.
type Host interface {
	Adapter() *abi.Adapter
	Handle() abi.Handle
}

// Matcher decides whether a backend descriptor plus workload parameter
// vector names a benchmark this harness can drive, and knows how to
// generate that benchmark's data.
type Matcher interface {
	// Family names the workload family for logs.
	Family() string

	// ID is the matcher's seal identity. Tokens issued by this matcher
	// can only be opened by callers presenting the same identity.
	ID() uuid.UUID

	// Match returns the human-readable workload name when the
	// descriptor is supported, or an error wrapping ErrMismatch.
	Match(desc workload.BenchmarkDescriptor, params []workload.Param) (string, error)

	// NewData builds the populated data loader for a matched
	// benchmark. Batch sizes follow the descriptor's category.
	NewData(desc workload.BenchmarkDescriptor, params []workload.Param,
		cfg Config) (*datapack.Loader, error)
}

// DescriptionToken seals the result of a successful match: the matcher
// identity, descriptor handle, descriptor, workload parameters, and
// benchmark configuration, plus the derived workload name, report
// header, and canonical output path.
type DescriptionToken struct {
	sealerID   uuid.UUID
	descHandle abi.Handle
	descriptor workload.BenchmarkDescriptor
	params     []workload.Param
	config     Config

	workloadName string
	header       string
	path         string
}

// WorkloadName returns the matched human-readable workload name.
func (t *DescriptionToken) WorkloadName() string {
	return t.workloadName
}

// Header returns the CSV-style report header text.
func (t *DescriptionToken) Header() string {
	return t.header
}

// Path returns the canonical, slash-separated report directory path.
func (t *DescriptionToken) Path() string {
	return t.path
}

// Descriptor returns the sealed descriptor. Reading it does not
// require the seal identity; only benchmark construction does.
func (t *DescriptionToken) Descriptor() workload.BenchmarkDescriptor {
	return t.descriptor
}

// Params returns the sealed workload parameter vector.
func (t *DescriptionToken) Params() []workload.Param {
	return t.params
}

// open yields the sealed contents to a caller presenting the sealing
// matcher's identity.
func (t *DescriptionToken) open(caller uuid.UUID) error {
	if caller != t.sealerID {
		return fmt.Errorf("%w: token sealed by another matcher", ErrPrecondition)
	}

	return nil
}

// MatchDescriptor asks a matcher whether the backend descriptor behind
// h supports the given workload parameters, and on success issues the
// sealed token with its derived description.
func MatchDescriptor(host Host, m Matcher, cfg Config,
	h abi.Handle, params []workload.Param,
) (*DescriptionToken, error) {
	adapter := host.Adapter()

	count, _, err := adapter.WorkloadParamsDetails(host.Handle(), h)
	if err != nil {
		return nil, err
	}
	if count != uint64(len(params)) {
		return nil, fmt.Errorf(
			"%w: backend expects %d workload parameters, harness proposed %d",
			ErrMismatch, count, len(params))
	}

	desc, err := adapter.DescribeBenchmark(host.Handle(), h)
	if err != nil {
		return nil, err
	}

	name, err := m.Match(desc, params)
	if err != nil {
		return nil, err
	}

	token := &DescriptionToken{
		sealerID:     m.ID(),
		descHandle:   h,
		descriptor:   desc,
		params:       append([]workload.Param(nil), params...),
		config:       cfg,
		workloadName: name,
	}

	if err := describe(host, token); err != nil {
		return nil, err
	}

	return token, nil
}

// describe fills in the token's report header and canonical path.
func describe(host Host, token *DescriptionToken) error {
	adapter := host.Adapter()
	desc := token.descriptor

	schemeName, err := adapter.SchemeName(host.Handle(), desc.Scheme)
	if err != nil {
		return err
	}

	securityName, err := adapter.SecurityName(host.Handle(), desc.Scheme, desc.Security)
	if err != nil {
		return err
	}

	extra, err := adapter.ExtraDescription(host.Handle(), token.descHandle, token.params)
	if err != nil {
		return err
	}

	token.path = canonicalPath(token, schemeName, securityName)
	token.header = headerText(token, schemeName, securityName, extra)

	return nil
}

// canonicalPath derives the deterministic report directory for a
// matched benchmark. Every segment is sanitized; the whole path is
// stable across runs for the same descriptor and parameters.
func canonicalPath(token *DescriptionToken, schemeName, securityName string) string {
	desc := token.descriptor

	segments := make([]string, 0, 9)

	segments = append(segments, workload.Sanitize(
		fmt.Sprintf("%s_%d", token.workloadName, uint32(desc.Workload))))

	wp := make([]string, 0, len(token.params)+1)
	wp = append(wp, "wp")
	for _, p := range token.params {
		wp = append(wp, p.String())
	}
	segments = append(segments, workload.Sanitize(strings.Join(wp, "_")))

	segments = append(segments,
		workload.Sanitize(desc.Category.String()),
		workload.Sanitize(desc.DataType.String()),
		catParamsDigest(desc),
		cipherMaskSegment(desc.CipherParamMask),
		workload.Sanitize(schemeName),
		workload.Sanitize(securityName),
		fmt.Sprintf("%d", desc.Other),
	)

	return strings.Join(segments, "/")
}

// catParamsDigest concatenates the nonzero prefix of the category
// parameter union's raw words, or "default" when all are zero. The
// raw-word form is preserved verbatim for path stability.
func catParamsDigest(desc workload.BenchmarkDescriptor) string {
	words := desc.CatParams.Words(desc.Category)

	end := len(words)
	for end > 0 && words[end-1] == 0 {
		end--
	}

	if end == 0 {
		return "default"
	}

	var b strings.Builder
	for _, w := range words[:end] {
		fmt.Fprintf(&b, "%d", w)
	}

	return b.String()
}

// cipherMaskSegment renders the cipher parameter mask: all_plain for
// zero, all_cipher when every bit is set, otherwise a c/p string up to
// the highest set bit.
func cipherMaskSegment(mask uint32) string {
	positions := workload.CipherParamPositions(mask)

	set := 0
	highest := -1
	for i, on := range positions {
		if on {
			set++
			highest = i
		}
	}

	switch {
	case set == 0:
		return "all_plain"
	case set >= len(positions):
		return "all_cipher"
	}

	var b strings.Builder
	for i := 0; i <= highest; i++ {
		if positions[i] {
			b.WriteByte('c')
		} else {
			b.WriteByte('p')
		}
	}

	return b.String()
}

// headerText builds the CSV-style specification header for the report.
func headerText(token *DescriptionToken, schemeName, securityName, extra string) string {
	desc := token.descriptor

	var b strings.Builder

	fmt.Fprintf(&b, "Specifications,\n")
	fmt.Fprintf(&b, ", Encryption, \n")
	fmt.Fprintf(&b, ", , Scheme, %s\n", schemeName)
	fmt.Fprintf(&b, ", , Security, %s\n", securityName)
	fmt.Fprintf(&b, ", Extra, %d\n", desc.Other)

	if extra != "" {
		b.WriteString(extra)
	}

	fmt.Fprintf(&b, "\n\n, Category, %s\n", desc.Category)

	switch desc.Category {
	case workload.Latency:
		fmt.Fprintf(&b, ", , Warmup iterations, %d\n",
			desc.CatParams.Latency.WarmupIterations)
		fmt.Fprintf(&b, ", , Minimum test time requested (ms), %d\n",
			desc.CatParams.Latency.MinTestTimeMS)

	case workload.Offline:
		fmt.Fprintf(&b, ", , Parameter, Samples requested\n")

		allZero := true
		for i, n := range desc.CatParams.Offline.DataCount {
			if n != 0 {
				allZero = false
				fmt.Fprintf(&b, ", , %d, %d\n", i, n)
			}
		}
		if allZero {
			fmt.Fprintf(&b, ", , All, 0\n")
		}
	}

	fmt.Fprintf(&b, "\n, Workload, %s\n", token.workloadName)
	fmt.Fprintf(&b, ", , Data type, %s\n", desc.DataType)
	fmt.Fprintf(&b, ", , Encrypted op parameters (index)")

	positions := workload.CipherParamPositions(desc.CipherParamMask)

	set := 0
	for _, on := range positions {
		if on {
			set++
		}
	}

	switch {
	case set == 0:
		fmt.Fprintf(&b, ", None\n")
	case set >= len(positions):
		fmt.Fprintf(&b, ", All\n")
	default:
		for i, on := range positions {
			if on {
				fmt.Fprintf(&b, ", %d", i)
			}
		}
		fmt.Fprintf(&b, "\n")
	}

	return b.String()
}

// sampleSizes resolves the per-parameter sample counts for a
// descriptor: one sample per parameter for Latency, and the backend's
// requested counts (or the harness default) for Offline.
func sampleSizes(desc workload.BenchmarkDescriptor, paramCount int, cfg Config) []uint64 {
	sizes := make([]uint64, paramCount)

	for i := range sizes {
		switch desc.Category {
		case workload.Offline:
			sizes[i] = desc.CatParams.Offline.DataCount[i]
			if sizes[i] == 0 {
				sizes[i] = cfg.DefaultSampleSize
			}
		default:
			sizes[i] = 1
		}
	}

	return sizes
}
