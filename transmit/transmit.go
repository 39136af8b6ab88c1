// Package transmit batches mapped envelopes, delivers them to the
// ingestion endpoint with bounded retry, and falls back to a local
// disk spool when delivery cannot succeed.
package transmit

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/monitoragent/telemetry-pipeline/envelope"
	"github.com/monitoragent/telemetry-pipeline/errs"
)

const (
	DefaultBatchSize     = 500
	DefaultBatchInterval = 2 * time.Second
	DefaultMaxRetries    = 3
	DefaultQueueCap      = 4096
)

// HTTPDoer is satisfied by *http.Client and by test doubles.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Transmitter.
type Config struct {
	Endpoint      string
	BatchSize     int
	BatchInterval time.Duration
	MaxRetries    uint64
	QueueCap      int
	SpoolDir      string
	SpoolCapBytes int64
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BatchInterval <= 0 {
		c.BatchInterval = DefaultBatchInterval
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.QueueCap <= 0 {
		c.QueueCap = DefaultQueueCap
	}
	return c
}

// Transmitter owns one background goroutine (started by Run) that
// accumulates envelopes into batches of BatchSize or BatchInterval,
// whichever comes first, and delivers each batch with bounded retry.
type Transmitter struct {
	cfg    Config
	client HTTPDoer
	spool  *Spool
	logger *slog.Logger

	queue    chan *envelope.Envelope
	flushReq chan chan struct{}
	stopped  chan struct{}

	mu       sync.Mutex
	deliveredBatches int64
	spooledBatches   int64
	droppedBatches   int64
}

// New constructs a Transmitter. spool may be nil to disable the
// on-disk fallback (undelivered batches are dropped and logged).
func New(cfg Config, client HTTPDoer, spool *Spool, logger *slog.Logger) *Transmitter {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Transmitter{
		cfg:      cfg,
		client:   client,
		spool:    spool,
		logger:   logger,
		queue:    make(chan *envelope.Envelope, cfg.QueueCap),
		flushReq: make(chan chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Enqueue adds an envelope to the pending batch. It returns a Full
// error immediately if the internal queue is saturated rather than
// blocking the caller (the mapper/pipeline goroutine).
func (t *Transmitter) Enqueue(e *envelope.Envelope) error {
	select {
	case t.queue <- e:
		return nil
	default:
		return errs.FullError("transmitter queue is full")
	}
}

// Run drives the batching loop until ctx is cancelled. Callers
// typically run it in its own goroutine.
func (t *Transmitter) Run(ctx context.Context) {
	defer close(t.stopped)

	timer := time.NewTimer(t.cfg.BatchInterval)
	defer timer.Stop()

	var pending []*envelope.Envelope

	flush := func() {
		if len(pending) == 0 {
			return
		}
		t.deliver(ctx, pending)
		pending = nil
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case e := <-t.queue:
			pending = append(pending, e)
			if len(pending) >= t.cfg.BatchSize {
				flush()
				timer.Reset(t.cfg.BatchInterval)
			}

		case <-timer.C:
			flush()
			timer.Reset(t.cfg.BatchInterval)

		case req := <-t.flushReq:
		drain:
			for {
				select {
				case e := <-t.queue:
					pending = append(pending, e)
					if len(pending) >= t.cfg.BatchSize {
						flush()
					}
				default:
					break drain
				}
			}
			flush()
			close(req)
			timer.Reset(t.cfg.BatchInterval)
		}
	}
}

// Flush forces delivery of whatever is currently pending, including
// envelopes still waiting in the queue, blocking
// until the running loop has processed the request or ctx expires.
func (t *Transmitter) Flush(ctx context.Context) error {
	req := make(chan struct{})
	select {
	case t.flushReq <- req:
	case <-ctx.Done():
		return errs.New(errs.Shutdown, "flush request timed out")
	case <-t.stopped:
		return nil
	}
	select {
	case <-req:
		return nil
	case <-ctx.Done():
		return errs.New(errs.Shutdown, "flush timed out waiting for batch delivery")
	}
}

// Shutdown flushes any pending batch, returning once the flush is done
// or ctx expires. It does not stop the Run loop itself: callers cancel
// the Run loop's context after Shutdown returns.
func (t *Transmitter) Shutdown(ctx context.Context) error {
	return t.Flush(ctx)
}

// deliver encodes and sends one batch, retrying transient failures
// with backoff and falling back to the disk spool if retries are
// exhausted.
func (t *Transmitter) deliver(ctx context.Context, batch []*envelope.Envelope) {
	body, err := encodeBatch(batch)
	if err != nil {
		t.logger.Error("failed to encode batch, dropping", "error", err, "count", len(batch))
		t.mu.Lock()
		t.droppedBatches++
		t.mu.Unlock()
		return
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), t.cfg.MaxRetries), ctx)

	retries := 0
	err = backoff.Retry(func() error {
		if retries > 0 {
			t.logger.Warn("retrying batch delivery", "attempt", retries, "count", len(batch))
		}
		sendErr := t.send(ctx, body)
		if sendErr != nil {
			retries++
		}
		return sendErr
	}, policy)

	if err == nil {
		t.mu.Lock()
		t.deliveredBatches++
		t.mu.Unlock()
		return
	}

	if errs.IsPermanent(err) {
		t.logger.Error("batch rejected by endpoint, dropping", "error", err, "count", len(batch))
		t.mu.Lock()
		t.droppedBatches++
		t.mu.Unlock()
		return
	}

	t.logger.Warn("batch delivery exhausted retries, spooling", "error", err, "count", len(batch), "retries", retries)
	t.mu.Lock()
	t.spooledBatches++
	t.mu.Unlock()

	if t.spool == nil {
		t.logger.Error("no spool configured, batch dropped", "count", len(batch))
		return
	}
	if _, spoolErr := t.spool.Write(body, retries); spoolErr != nil {
		t.logger.Error("failed to spool undelivered batch", "error", spoolErr, "count", len(batch))
	}
}

// send performs one HTTP delivery attempt. 2xx is success; 408/500/503
// and network errors are transient (retryable); all other 4xx are
// permanent (not retried, the batch is dropped after this call).
func (t *Transmitter) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(errs.Wrap(err, errs.Permanent, "build transmit request"))
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	req.Header.Set("Content-Encoding", "gzip")

	resp, err := t.client.Do(req)
	if err != nil {
		return errs.Wrap(err, errs.Transient, "send batch")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusInternalServerError,
		resp.StatusCode == http.StatusServiceUnavailable:
		return errs.New(errs.Transient, "endpoint returned retryable status %s", http.StatusText(resp.StatusCode))
	default:
		return backoff.Permanent(errs.New(errs.Permanent, "endpoint rejected batch with status %s", http.StatusText(resp.StatusCode)))
	}
}

// ReplaySpool attempts to redeliver every spooled batch, oldest
// first, removing each file on successful delivery and stopping at
// the first failure (the spool's ordering must be preserved so a
// later, larger gap in telemetry is never delivered ahead of an
// earlier one).
func (t *Transmitter) ReplaySpool(ctx context.Context) error {
	if t.spool == nil {
		return nil
	}
	paths, err := t.spool.List()
	if err != nil {
		return err
	}
	for _, path := range paths {
		data, header, err := t.spool.ReadRecord(path)
		if err != nil {
			return err
		}
		t.logger.Info("replaying spooled batch", "file", path, "retryCount", header.RetryCount)
		if err := t.send(ctx, data); err != nil {
			return err
		}
		if err := t.spool.Remove(path); err != nil {
			return err
		}
	}
	return nil
}
