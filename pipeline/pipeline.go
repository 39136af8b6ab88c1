// Package pipeline wires the span mapper into the live-metrics
// aggregator and the transmitter, and exposes the whole thing as an
// OpenTelemetry SDK SpanExporter so it can be registered directly
// with a TracerProvider's batch span processor.
package pipeline

import (
	"context"
	"log/slog"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/monitoragent/telemetry-pipeline/envelope"
	"github.com/monitoragent/telemetry-pipeline/errs"
	"github.com/monitoragent/telemetry-pipeline/mapper"
	"github.com/monitoragent/telemetry-pipeline/spanmodel"
)

// Aggregator is the subset of *livemetrics.Aggregator the pipeline
// depends on, kept as an interface so tests can stub it.
type Aggregator interface {
	Add(e *envelope.Envelope)
}

// Transmitter is the subset of *transmit.Transmitter the pipeline
// depends on.
type Transmitter interface {
	Enqueue(e *envelope.Envelope) error
}

// Coordinator is the exported SpanExporter: every ReadOnlySpan that
// reaches ExportSpans is converted to spanmodel.Span, mapped to zero
// or more envelopes, stamped with its trace-state sampling rate, fed
// to the live-metrics aggregator (if enabled), and enqueued for
// transmission.
type Coordinator struct {
	mapper      *mapper.Mapper
	aggregator  Aggregator
	transmitter Transmitter
	logger      *slog.Logger
}

// New constructs a Coordinator. aggregator may be nil to disable
// live-metrics observation.
func New(m *mapper.Mapper, aggregator Aggregator, transmitter Transmitter, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{mapper: m, aggregator: aggregator, transmitter: transmitter, logger: logger}
}

var _ sdktrace.SpanExporter = (*Coordinator)(nil)

// ExportSpans implements sdktrace.SpanExporter. It never returns an
// error for a single bad span — mapping failures are logged and
// skipped so one malformed span cannot stall the whole batch.
func (c *Coordinator) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, sp := range spans {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.exportOne(sp)
	}
	return nil
}

func (c *Coordinator) exportOne(sp sdktrace.ReadOnlySpan) {
	span := spanmodel.FromReadOnlySpan(sp)

	envs, err := c.mapper.Map(span)
	if err != nil {
		if errs.Is(err, errs.UnsupportedKind) {
			c.logger.Debug("skipping span with unsupported kind", "name", span.Name, "kind", span.Kind)
			return
		}
		c.logger.Warn("failed to map span", "name", span.Name, "error", err)
		return
	}

	sampleRate := spanmodel.ParseSampleRate(span.TraceState)
	for _, e := range envs {
		e.SampleRate = sampleRate
		if err := envelope.Validate(e); err != nil {
			c.logger.Warn("dropping invalid envelope", "name", span.Name, "error", err)
			continue
		}
		c.observe(e)
		c.transmit(e)
	}
}

func (c *Coordinator) observe(e *envelope.Envelope) {
	if c.aggregator == nil {
		return
	}
	c.aggregator.Add(e)
}

func (c *Coordinator) transmit(e *envelope.Envelope) {
	if c.transmitter == nil {
		return
	}
	if err := c.transmitter.Enqueue(e); err != nil {
		c.logger.Warn("dropped envelope, transmit queue full", "error", err)
	}
}

// Shutdown implements sdktrace.SpanExporter. Actual flush/shutdown
// ordering (drain the transmitter, then stop the aggregator's
// control loop) is driven by the caller that owns those components'
// lifecycles; the Coordinator itself holds no resources to release.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	return nil
}
