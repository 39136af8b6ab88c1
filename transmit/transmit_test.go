package transmit

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/monitoragent/telemetry-pipeline/envelope"
)

type scriptedDoer struct {
	mu        sync.Mutex
	responses []int
	calls     int
}

func (d *scriptedDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := d.calls
	if idx >= len(d.responses) {
		idx = len(d.responses) - 1
	}
	status := d.responses[idx]
	d.calls++
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func newEnvelopes(n int) []*envelope.Envelope {
	out := make([]*envelope.Envelope, n)
	for i := range out {
		out[i] = envelope.NewEnvelope("ikey", envelope.RequestData{Duration: "0.00:00:00.0010000", Success: true})
	}
	return out
}

func TestDeliverRetriesThenSucceeds(t *testing.T) {
	doer := &scriptedDoer{responses: []int{503, 503, 503, 200}}
	tx := New(Config{Endpoint: "http://example.com/ingest", BatchSize: 10, BatchInterval: time.Hour, MaxRetries: 3}, doer, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx.deliver(ctx, newEnvelopes(10))

	if doer.calls != 4 {
		t.Errorf("calls = %d, want 4 (3 failures + 1 success)", doer.calls)
	}
	if tx.deliveredBatches != 1 {
		t.Errorf("deliveredBatches = %d, want 1", tx.deliveredBatches)
	}
	if tx.spooledBatches != 0 {
		t.Errorf("spooledBatches = %d, want 0", tx.spooledBatches)
	}
}

func TestDeliverSpoolsAfterExhaustingRetries(t *testing.T) {
	dir := t.TempDir()
	spool, err := NewSpool(dir, 0, nil)
	if err != nil {
		t.Fatalf("NewSpool: %v", err)
	}
	doer := &scriptedDoer{responses: []int{503, 503, 503, 503}}
	tx := New(Config{Endpoint: "http://example.com/ingest", MaxRetries: 3}, doer, spool, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx.deliver(ctx, newEnvelopes(3))

	if tx.spooledBatches != 1 {
		t.Errorf("spooledBatches = %d, want 1", tx.spooledBatches)
	}
	paths, err := spool.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected 1 spooled file, got %d", len(paths))
	}
}

func TestDeliverDropsOnPermanentStatus(t *testing.T) {
	doer := &scriptedDoer{responses: []int{400}}
	tx := New(Config{Endpoint: "http://example.com/ingest", MaxRetries: 3}, doer, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx.deliver(ctx, newEnvelopes(1))

	if doer.calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on permanent 400)", doer.calls)
	}
	if tx.droppedBatches != 1 {
		t.Errorf("droppedBatches = %d, want 1", tx.droppedBatches)
	}
}

func TestEnqueueReturnsFullErrorWhenSaturated(t *testing.T) {
	tx := New(Config{QueueCap: 1}, &scriptedDoer{responses: []int{200}}, nil, nil)
	if err := tx.Enqueue(newEnvelopes(1)[0]); err != nil {
		t.Fatalf("first enqueue should succeed: %v", err)
	}
	if err := tx.Enqueue(newEnvelopes(1)[0]); err == nil {
		t.Errorf("expected Full error on saturated queue")
	}
}

func TestRunBatchesBySizeAndFlushesOnShutdown(t *testing.T) {
	doer := &scriptedDoer{responses: []int{200}}
	tx := New(Config{Endpoint: "http://example.com/ingest", BatchSize: 1000, BatchInterval: time.Hour}, doer, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go tx.Run(ctx)

	for _, e := range newEnvelopes(5) {
		if err := tx.Enqueue(e); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()
	if err := tx.Flush(shutdownCtx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	cancel()

	if doer.calls != 1 {
		t.Errorf("calls = %d, want 1 flushed batch", doer.calls)
	}
}

func TestSpoolEvictsOldestWhenOverCap(t *testing.T) {
	dir := t.TempDir()
	// Cap sized to hold one header+body record (~61 bytes for an
	// 8-byte body) but not two, so the second write forces the first
	// to be evicted.
	spool, err := NewSpool(dir, 100, nil)
	if err != nil {
		t.Fatalf("NewSpool: %v", err)
	}
	if _, err := spool.Write(bytes.Repeat([]byte("a"), 8), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := spool.Write(bytes.Repeat([]byte("b"), 8), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}

	paths, err := spool.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected eviction to leave 1 file, got %d", len(paths))
	}
	data, err := spool.Read(paths[0])
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != strings.Repeat("b", 8) {
		t.Errorf("expected newest file to survive eviction, got %q", data)
	}
}

func TestSpoolRemove(t *testing.T) {
	dir := t.TempDir()
	spool, err := NewSpool(dir, 0, nil)
	if err != nil {
		t.Fatalf("NewSpool: %v", err)
	}
	path, err := spool.Write([]byte("x"), 0)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := spool.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected file removed, stat err = %v", err)
	}
}
