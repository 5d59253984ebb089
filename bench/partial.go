package bench

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/weiihann/hebench/abi"
	"github.com/weiihann/hebench/report"
	"github.com/weiihann/hebench/workload"
)

// Event id layout: initialization uses the low ids, then each category
// driver restarts the counter at its own offset.
const (
	initEventIDStart    = 0
	latencyEventIDStart = 1000
	offlineEventIDStart = 2000
)

// PartialBenchmark owns the backend-side benchmark handle and the
// three-phase initialization that every category driver builds on:
// construction unseals the token, InitBackend creates the backend
// handle, and PostInit arms the pipeline. Pipeline calls before
// PostInit fail with ErrPrecondition.
type PartialBenchmark struct {
	host   Host
	config Config

	descHandle abi.Handle
	descriptor workload.BenchmarkDescriptor
	params     []workload.Param

	handle      abi.Handle
	eventID     uint32
	initialized bool
	closed      bool
}

// NewPartialBenchmark unseals token with the caller's matcher identity
// and caches the sealed descriptor state. The backend handle is not
// created until InitBackend.
func NewPartialBenchmark(host Host, caller uuid.UUID,
	token *DescriptionToken,
) (*PartialBenchmark, error) {
	if host == nil {
		return nil, fmt.Errorf("%w: nil host", ErrPrecondition)
	}
	if err := token.open(caller); err != nil {
		return nil, err
	}

	return &PartialBenchmark{
		host:       host,
		config:     token.config,
		descHandle: token.descHandle,
		descriptor: token.descriptor,
		params:     token.params,
		eventID:    initEventIDStart,
	}, nil
}

// Descriptor returns the cached benchmark descriptor.
func (pb *PartialBenchmark) Descriptor() workload.BenchmarkDescriptor {
	return pb.descriptor
}

// Params returns the cached workload parameter vector.
func (pb *PartialBenchmark) Params() []workload.Param {
	return pb.params
}

// Config returns the benchmark configuration.
func (pb *PartialBenchmark) Config() Config {
	return pb.config
}

// InitBackend creates the backend benchmark handle, timing the call as
// the "Initialization" event.
func (pb *PartialBenchmark) InitBackend(sink report.Sink) error {
	timer := startTimer()

	h, err := pb.host.Adapter().InitBenchmark(
		pb.host.Handle(), pb.descHandle, pb.params)

	wall, cpu := timer.stop()

	if err != nil {
		return err
	}

	pb.handle = h

	sink.AddEvent(report.TimingEvent{
		ID:         pb.nextEventID(),
		Wall:       wall,
		CPU:        cpu,
		Iterations: 1,
		Label:      "Initialization",
	})

	return nil
}

// PostInit completes initialization: the event counter jumps to the
// category's offset and the pipeline becomes callable.
func (pb *PartialBenchmark) PostInit() {
	switch pb.descriptor.Category {
	case workload.Offline:
		pb.eventID = offlineEventIDStart
	default:
		pb.eventID = latencyEventIDStart
	}

	pb.initialized = true
}

// checkInitialized guards every pipeline call.
func (pb *PartialBenchmark) checkInitialized() error {
	if !pb.initialized {
		return fmt.Errorf(
			"%w: pipeline called before initialization completed", ErrPrecondition)
	}

	return nil
}

// nextEventID allocates the next monotonically increasing event id.
func (pb *PartialBenchmark) nextEventID() uint32 {
	pb.eventID++

	return pb.eventID
}

// Close destroys the backend benchmark handle. It is safe to call on
// every construction failure path; the handle is destroyed at most
// once.
func (pb *PartialBenchmark) Close() error {
	if pb.closed {
		return nil
	}
	pb.closed = true

	handle := pb.handle
	pb.handle = 0

	return pb.host.Adapter().DestroyHandle(handle)
}
