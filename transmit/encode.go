package transmit

import (
	"bytes"
	"encoding/json"

	"github.com/klauspost/compress/gzip"
	"github.com/monitoragent/telemetry-pipeline/envelope"
	"github.com/monitoragent/telemetry-pipeline/errs"
)

// wireEnvelope is the gzip+NDJSON body shape the ingestion endpoint
// expects: one JSON object per line, each wrapping a typed baseData
// payload under a baseType discriminator.
type wireEnvelope struct {
	Name       string            `json:"name"`
	Time       string            `json:"time"`
	IKey       string            `json:"iKey"`
	SampleRate float64           `json:"sampleRate"`
	Tags       map[string]string `json:"tags,omitempty"`
	Data       wireData          `json:"data"`
}

type wireData struct {
	BaseType string `json:"baseType"`
	BaseData any    `json:"baseData"`
}

func telemetryName(k envelope.Kind) string {
	switch k {
	case envelope.KindRequest:
		return "Microsoft.ApplicationInsights.Request"
	case envelope.KindRemoteDependency:
		return "Microsoft.ApplicationInsights.RemoteDependency"
	case envelope.KindMessage:
		return "Microsoft.ApplicationInsights.Message"
	case envelope.KindException:
		return "Microsoft.ApplicationInsights.Exception"
	case envelope.KindEvent:
		return "Microsoft.ApplicationInsights.Event"
	default:
		return "Microsoft.ApplicationInsights.Unknown"
	}
}

func baseType(k envelope.Kind) string {
	switch k {
	case envelope.KindRequest:
		return "RequestData"
	case envelope.KindRemoteDependency:
		return "RemoteDependencyData"
	case envelope.KindMessage:
		return "MessageData"
	case envelope.KindException:
		return "ExceptionData"
	case envelope.KindEvent:
		return "EventData"
	default:
		return "Unknown"
	}
}

func toWireEnvelope(e *envelope.Envelope) wireEnvelope {
	return wireEnvelope{
		Name:       telemetryName(e.Data.Kind()),
		Time:       e.Time,
		IKey:       e.IKey,
		SampleRate: e.SampleRate,
		Tags:       e.Tags,
		Data: wireData{
			BaseType: baseType(e.Data.Kind()),
			BaseData: e.Data,
		},
	}
}

// encodeBatch renders envs as gzip-compressed newline-delimited JSON.
func encodeBatch(envs []*envelope.Envelope) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := json.NewEncoder(gz)
	for _, e := range envs {
		if err := enc.Encode(toWireEnvelope(e)); err != nil {
			gz.Close()
			return nil, errs.Wrap(err, errs.InvalidInput, "encode envelope")
		}
	}
	if err := gz.Close(); err != nil {
		return nil, errs.Wrap(err, errs.InvalidInput, "close gzip writer")
	}
	return buf.Bytes(), nil
}
