package mapper

import (
	"strings"

	"github.com/monitoragent/telemetry-pipeline/correlation"
	"github.com/monitoragent/telemetry-pipeline/envelope"
	"github.com/monitoragent/telemetry-pipeline/spanmodel"
)

func (m *Mapper) mapRequest(span spanmodel.Span) (*envelope.Envelope, error) {
	e := m.newEnvelope(envelope.RequestData{}, span)
	props := m.copyAttributes(e, span)
	addLinks(props, span)

	method, hasMethod := span.Attributes.GetString("http.method")
	name := span.Name
	if hasMethod && strings.HasPrefix(span.Name, "/") {
		name = method + " " + span.Name
	}

	source := resolveSource(span, m.selfAppID)

	url, _ := span.Attributes.GetString("http.url")
	ip, ok := span.Attributes.GetString("http.client_ip")
	if !ok {
		ip, _ = span.Attributes.GetString("net.peer.ip")
	}
	if ip != "" {
		e.Tags[correlation.TagLocationIP] = ip
	}

	e.Data = envelope.RequestData{
		ID:           span.SpanID,
		Name:         name,
		Duration:     spanDuration(span),
		ResponseCode: responseCodeOf(span),
		Success:      success(span),
		Source:       source,
		URL:          url,
		Properties:   props,
	}

	return e, nil
}

// resolveSource implements the request-path source resolution order:
// a legacy-bridge-aware app-id comparison, a messaging target fallback,
// and finally the raw legacy attribute.
func resolveSource(span spanmodel.Span, selfAppID string) string {
	if appID, ok := span.Attributes.GetString("ai.span.source.app_id"); ok && appID != "" && appID != selfAppID {
		return appID
	}
	if sys, ok := span.Attributes.GetString("messaging.system"); ok && sys != "" {
		if dest, ok := span.Attributes.GetString("messaging.destination"); ok && dest != "" {
			return sys + "/" + dest
		}
		return sys
	}
	if legacy, ok := span.Attributes.GetString("ai.span.source"); ok {
		return legacy
	}
	return ""
}
