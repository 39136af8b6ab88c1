package livemetrics

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/monitoragent/telemetry-pipeline/envelope"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	count, dur := decode(encode(5, 1234))
	if count != 5 || dur != 1234 {
		t.Errorf("decode(encode(5, 1234)) = (%d, %d)", count, dur)
	}
}

func TestAddCountAndDuration(t *testing.T) {
	agg := New("ikey", nil)
	for i := 0; i < 10; i++ {
		e := envelope.NewEnvelope("ikey", envelope.RequestData{Duration: "00.00:00:00.001000", Success: true})
		agg.Add(e)
	}
	snap := agg.GetAndRestart()
	if snap.Requests != 10 {
		t.Errorf("Requests = %d, want 10", snap.Requests)
	}
	if snap.RequestsDurationMs != 10 {
		t.Errorf("RequestsDurationMs = %d, want 10", snap.RequestsDurationMs)
	}
}

func TestAddIgnoresOtherIKey(t *testing.T) {
	agg := New("ikey", nil)
	e := envelope.NewEnvelope("other", envelope.RequestData{Duration: "0.00:00:00.0010000", Success: true})
	agg.Add(e)
	snap := agg.GetAndRestart()
	if snap.Requests != 0 {
		t.Errorf("Requests = %d, want 0 for mismatched ikey", snap.Requests)
	}
}

func TestUnsuccessfulCounters(t *testing.T) {
	agg := New("ikey", nil)
	agg.Add(envelope.NewEnvelope("ikey", envelope.RequestData{Duration: "0.00:00:00.0010000", Success: false}))
	agg.Add(envelope.NewEnvelope("ikey", envelope.RemoteDependencyData{Duration: "0.00:00:00.0010000", Success: false}))
	agg.Add(envelope.NewEnvelope("ikey", envelope.ExceptionData{}))
	snap := agg.GetAndRestart()
	if snap.UnsuccessfulRequests != 1 {
		t.Errorf("UnsuccessfulRequests = %d, want 1", snap.UnsuccessfulRequests)
	}
	if snap.UnsuccessfulDependencies != 1 {
		t.Errorf("UnsuccessfulDependencies = %d, want 1", snap.UnsuccessfulDependencies)
	}
	if snap.Exceptions != 1 {
		t.Errorf("Exceptions = %d, want 1", snap.Exceptions)
	}
}

func TestOverflowResetsWord(t *testing.T) {
	var word atomic.Int64
	word.Store(encode(maxCount, 0))
	addCountAndDuration(&word, 1)
	if got := word.Load(); got != 0 {
		count, dur := decode(got)
		t.Errorf("expected reset to 0 on count overflow, got count=%d dur=%d", count, dur)
	}
}

func TestGetAndRestartIsAtomicSwap(t *testing.T) {
	agg := New("ikey", nil)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg.Add(envelope.NewEnvelope("ikey", envelope.RequestData{Duration: "0.00:00:00.0010000", Success: true}))
		}()
	}
	wg.Wait()

	snap := agg.GetAndRestart()
	if snap.Requests != 100 {
		t.Errorf("Requests = %d, want 100", snap.Requests)
	}
	again := agg.GetAndRestart()
	if again.Requests != 0 {
		t.Errorf("second GetAndRestart should see a fresh zeroed Counters, got Requests=%d", again.Requests)
	}
}

func TestStateDefaultsDisabled(t *testing.T) {
	agg := New("ikey", nil)
	if agg.State() != Disabled {
		t.Errorf("State() = %v, want Disabled", agg.State())
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{Disabled: "disabled", PingPending: "ping_pending", Streaming: "streaming", State(99): "unknown"}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
