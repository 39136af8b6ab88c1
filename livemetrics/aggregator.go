// Package livemetrics maintains the process-wide live-metrics
// counters and the ping/post control-protocol loop that streams them
// to the secondary endpoint while a subscriber is attached.
package livemetrics

import (
	"log/slog"
	"sync/atomic"

	"github.com/monitoragent/telemetry-pipeline/envelope"
)

// Counter packing: count occupies the top 20 bits, duration-ms the
// bottom 44 bits of a single int64 word, updated via CAS so a
// snapshot is always a consistent atomic swap.
const (
	durationBits = 44
	durationMask = (int64(1) << durationBits) - 1
	maxCount     = (int64(1) << 20) - 1
	maxDuration  = durationMask
)

func encode(count, durationMs int64) int64 {
	return (count << durationBits) | (durationMs & durationMask)
}

func decode(word int64) (count, durationMs int64) {
	return int64(uint64(word) >> durationBits), word & durationMask
}

// Counters is the live mutable aggregate; Aggregator holds one instance per
// interval and swaps it out wholesale on GetAndRestart.
type Counters struct {
	exceptions               atomic.Int32
	requests                 atomic.Int64
	unsuccessfulRequests     atomic.Int32
	dependencies              atomic.Int64
	unsuccessfulDependencies atomic.Int32
}

// FinalCounters is a decoded, read-only snapshot of Counters, safe to
// read without further synchronization once returned from
// GetAndRestart.
type FinalCounters struct {
	Requests                   int64
	RequestsDurationMs         int64
	UnsuccessfulRequests       int32
	Dependencies               int64
	DependenciesDurationMs     int64
	UnsuccessfulDependencies   int32
	Exceptions                 int32
}

func (c *Counters) snapshot() FinalCounters {
	reqCount, reqDur := decode(c.requests.Load())
	depCount, depDur := decode(c.dependencies.Load())
	return FinalCounters{
		Requests:                 reqCount,
		RequestsDurationMs:       reqDur,
		UnsuccessfulRequests:     c.unsuccessfulRequests.Load(),
		Dependencies:             depCount,
		DependenciesDurationMs:   depDur,
		UnsuccessfulDependencies: c.unsuccessfulDependencies.Load(),
		Exceptions:               c.exceptions.Load(),
	}
}

func addCountAndDuration(word *atomic.Int64, durationMs int64) {
	for {
		old := word.Load()
		count, dur := decode(old)
		count++
		dur += durationMs
		next := int64(0)
		if count <= maxCount && dur <= maxDuration {
			next = encode(count, dur)
		}
		if word.CompareAndSwap(old, next) {
			return
		}
	}
}

// State is the aggregator's activation state machine.
type State int32

const (
	Disabled State = iota
	PingPending
	Streaming
)

func (s State) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case PingPending:
		return "ping_pending"
	case Streaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// Aggregator is the process-wide live-metrics singleton: lock-free
// counter updates from mapper/pipeline goroutines, plus an
// independently scheduled ping/post control loop (see control.go).
type Aggregator struct {
	ikey    atomic.Pointer[string]
	current atomic.Pointer[Counters]
	state   atomic.Int32

	logger *slog.Logger
}

// New constructs an Aggregator configured for the given tenant key.
func New(ikey string, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Aggregator{logger: logger}
	a.ikey.Store(&ikey)
	a.current.Store(&Counters{})
	a.state.Store(int32(Disabled))
	return a
}

// SetIKey swaps the tenant key the aggregator filters envelopes
// against. Swaps are last-writer-wins and do not reset counters.
func (a *Aggregator) SetIKey(ikey string) {
	a.ikey.Store(&ikey)
}

func (a *Aggregator) ikeyValue() string {
	return *a.ikey.Load()
}

// State reports the aggregator's current activation state.
func (a *Aggregator) State() State {
	return State(a.state.Load())
}

func (a *Aggregator) setState(s State) {
	a.state.Store(int32(s))
}

// Add observes one envelope, updating the relevant packed counters.
// Envelopes whose iKey does not match the aggregator's configured
// tenant key are ignored.
func (a *Aggregator) Add(e *envelope.Envelope) {
	if e == nil || e.IKey != a.ikeyValue() {
		return
	}

	counters := a.current.Load()

	switch d := e.Data.(type) {
	case envelope.RequestData:
		durationMs := parseDurationMs(d.Duration)
		addCountAndDuration(&counters.requests, durationMs)
		if !d.Success {
			counters.unsuccessfulRequests.Add(1)
		}
	case envelope.RemoteDependencyData:
		durationMs := parseDurationMs(d.Duration)
		addCountAndDuration(&counters.dependencies, durationMs)
		if !d.Success {
			counters.unsuccessfulDependencies.Add(1)
		}
	case envelope.ExceptionData:
		counters.exceptions.Add(1)
	}
}

// GetAndRestart atomically swaps in a fresh zeroed Counters instance
// and returns a decoded snapshot of the one it replaced. An envelope
// whose Add call returned before the swap is reflected in the
// returned snapshot; one whose Add returns after is reflected in the
// next snapshot — never both, never neither.
func (a *Aggregator) GetAndRestart() FinalCounters {
	old := a.current.Swap(&Counters{})
	return old.snapshot()
}
