// Package mapper implements the span-to-envelope classification and
// translation at the heart of the telemetry pipeline: given a finished
// span, it decides which wire-schema variant(s) describe it and builds
// the corresponding envelope(s).
package mapper

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/monitoragent/telemetry-pipeline/correlation"
	"github.com/monitoragent/telemetry-pipeline/envelope"
	"github.com/monitoragent/telemetry-pipeline/errs"
	"github.com/monitoragent/telemetry-pipeline/sanitize"
	"github.com/monitoragent/telemetry-pipeline/spanmodel"
	"github.com/monitoragent/telemetry-pipeline/wiretime"
)

const internalLogAttr = "applicationinsights.internal.log"

// Mapper classifies spans and builds envelopes. A Mapper is safe for
// concurrent use: it holds no mutable state beyond a diagnostic
// instrumentation-name tally.
type Mapper struct {
	ikey      string
	selfAppID string
	logger    *slog.Logger

	seen seenInstrumentations
}

// New constructs a Mapper. ikey is the tenant key stamped on every
// envelope it builds; selfAppID is compared against
// ai.span.target.app_id / ai.span.source.app_id to detect
// cross-component telemetry.
func New(ikey, selfAppID string, logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{ikey: ikey, selfAppID: selfAppID, logger: logger}
}

// Map classifies span and returns the envelope(s) it produces. No
// error from this function, nor any panic within it, is allowed to
// propagate to the instrumented application: a panic is recovered and
// converted into an UnsupportedKind error, mirroring the "no error
// escapes the mapper" requirement.
func (m *Mapper) Map(span spanmodel.Span) (envs []*envelope.Envelope, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("panic recovered in mapper",
				"span", span.Name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			envs = nil
			err = errs.UnsupportedKindError(fmt.Sprintf("panic: %v", r))
		}
	}()

	m.seen.record(span.InstrumentationName)

	if isLogPath(span) {
		return m.mapLogPath(span)
	}

	var main *envelope.Envelope
	switch {
	case isRequestPath(span):
		main, err = m.mapRequest(span)
	case isDependencyPath(span):
		main, err = m.mapDependency(span)
	default:
		return nil, errs.UnsupportedKindError(span.Kind.String())
	}
	if err != nil {
		return nil, err
	}

	envs = append(envs, main)
	envs = append(envs, m.mapEvents(span)...)
	return envs, nil
}

// InstrumentationsSeen returns the distinct instrumentation-library
// names the mapper has observed, for diagnostic display only (never
// transmitted).
func (m *Mapper) InstrumentationsSeen() []string {
	return m.seen.names()
}

func isLogPath(span spanmodel.Span) bool {
	return span.Attributes.GetBool(internalLogAttr) && span.Kind == spanmodel.KindInternal
}

func isRequestPath(span spanmodel.Span) bool {
	if span.Kind == spanmodel.KindServer {
		return true
	}
	if span.Kind == spanmodel.KindConsumer && span.ParentIsRemote &&
		span.Name != "EventHubs.process" && span.Name != "ServiceBus.process" {
		return true
	}
	if span.Kind == spanmodel.KindInternal &&
		strings.Contains(span.InstrumentationName, "spring-scheduling") &&
		!correlation.SpanIDIsValid(span.ParentSpanID) {
		return true
	}
	return false
}

func isDependencyPath(span spanmodel.Span) bool {
	switch span.Kind {
	case spanmodel.KindClient, spanmodel.KindProducer:
		return true
	case spanmodel.KindConsumer:
		return true
	case spanmodel.KindInternal:
		return true
	default:
		return false
	}
}

func (m *Mapper) newEnvelope(data envelope.Data, span spanmodel.Span) *envelope.Envelope {
	e := envelope.NewEnvelope(m.ikey, data)
	e.Time = wiretime.FormatInstant(span.StartEpochNanos)
	e.SetOperationID(span.TraceID)
	m.setOperationParent(e, span)
	return e
}

// spanDuration renders a span's wall-clock duration in the wire
// format, falling back to the zero duration if the span's end time
// somehow precedes its start (FormatDuration rejects negatives).
func spanDuration(span spanmodel.Span) string {
	d, err := wiretime.FormatDuration(span.DurationNanos())
	if err != nil {
		return "00.00:00:00.000000"
	}
	return d
}

func (m *Mapper) setOperationParent(e *envelope.Envelope, span spanmodel.Span) {
	if legacy, ok := span.Attributes.GetString("legacy_parent_id"); ok && legacy != "" {
		e.SetOperationParentID(legacy)
	} else if correlation.SpanIDIsValid(span.ParentSpanID) {
		e.SetOperationParentID(span.ParentSpanID)
	}
	if root, ok := span.Attributes.GetString("legacy_root_id"); ok && root != "" {
		e.Tags[correlation.TagLegacyRootID] = root
	}
}

func success(span spanmodel.Span) bool {
	return span.Status != spanmodel.StatusError
}

func responseCodeOf(span spanmodel.Span) string {
	if code, ok := span.Attributes.GetInt("http.status_code"); ok {
		return strconv.FormatInt(code, 10)
	}
	return "200"
}

// copyAttributes builds a sanitized property map of every span
// attribute that is not claimed by a reserved semantic-convention
// prefix, the internal-log marker namespace, or a specially-mapped
// key, and applies any specially-mapped keys directly onto tags/envelope.
func (m *Mapper) copyAttributes(e *envelope.Envelope, span spanmodel.Span) map[string]string {
	raw := map[string]string{}
	for k, v := range span.Attributes {
		if applySpecialKey(e, k, v) {
			continue
		}
		if hasReservedPrefix(k) || strings.HasPrefix(k, "applicationinsights.internal.") {
			continue
		}
		raw[k] = v.AsString()
	}
	return sanitize.Properties(raw)
}

var reservedPrefixes = []string{
	"http", "db", "message", "messaging", "rpc", "enduser", "net", "peer", "exception", "thread", "faas",
}

func hasReservedPrefix(key string) bool {
	for _, p := range reservedPrefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// applySpecialKey maps a handful of attributes onto tags/iKey instead
// of the generic property bag, returning true if it claimed the key.
func applySpecialKey(e *envelope.Envelope, key string, v spanmodel.AttrValue) bool {
	switch {
	case key == "enduser.id":
		e.Tags[correlation.TagUserID] = v.AsString()
		return true
	case key == "http.user_agent":
		e.Tags["ai.user.userAgent"] = v.AsString()
		return true
	case strings.HasPrefix(key, "ai.preview."):
		// Legacy bridge attributes: route the iKey override and any
		// other ai.preview.* field onto the matching tag/iKey slot.
		if key == "ai.preview.instrumentation_key" {
			e.IKey = v.AsString()
		} else {
			tag := "ai." + strings.TrimPrefix(key, "ai.preview.")
			e.Tags[tag] = v.AsString()
		}
		return true
	default:
		return false
	}
}

// addLinks sets the _MS.links property from span.Links, matching the
// exact no-whitespace JSON-array-of-objects shape the wire schema
// expects.
func addLinks(props map[string]string, span spanmodel.Span) {
	if len(span.Links) == 0 {
		return
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, l := range span.Links {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(`{"operation_Id":"`)
		b.WriteString(l.TraceID)
		b.WriteString(`","id":"`)
		b.WriteString(l.SpanID)
		b.WriteString(`"}`)
	}
	b.WriteByte(']')
	props["_MS.links"] = b.String()
}
