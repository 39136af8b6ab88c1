package mapper

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/monitoragent/telemetry-pipeline/envelope"
	"github.com/monitoragent/telemetry-pipeline/spanmodel"
)

var sqlSystems = map[string]bool{
	"db2": true, "derby": true, "mariadb": true, "mssql": true, "mysql": true,
	"oracle": true, "postgresql": true, "sqlite": true, "other_sql": true,
	"hsqldb": true, "h2": true,
}

var defaultPorts = map[string]int{
	"mongodb": 27017, "cassandra": 9042, "redis": 6379,
	"mariadb": 3306, "mysql": 3306, "mssql": 1433, "db2": 50000,
	"oracle": 1521, "h2": 8082, "derby": 1527, "postgresql": 5432,
}

func (m *Mapper) mapDependency(span spanmodel.Span) (*envelope.Envelope, error) {
	e := m.newEnvelope(envelope.RemoteDependencyData{}, span)
	props := m.copyAttributes(e, span)
	addLinks(props, span)

	depType, name, target := m.classifyDependency(span)
	if name == "" {
		name = span.Name
	}

	var data string
	if httpURL, ok := span.Attributes.GetString("http.url"); ok {
		data = httpURL
	} else if stmt, ok := span.Attributes.GetString("db.statement"); ok {
		data = stmt
	}

	e.Data = envelope.RemoteDependencyData{
		ID:         span.SpanID,
		Name:       name,
		Duration:   spanDuration(span),
		ResultCode: responseCodeOf(span),
		Success:    success(span),
		Data:       data,
		Target:     target,
		Type:       depType,
		Properties: props,
	}
	return e, nil
}

// classifyDependency implements the dependency subtyping precedence
// table: the first matching attribute family wins.
func (m *Mapper) classifyDependency(span spanmodel.Span) (depType, name, target string) {
	attrs := span.Attributes

	if _, ok := attrs.GetString("http.method"); ok {
		depType = "Http"
		if appID, ok := attrs.GetString("ai.span.target.app_id"); ok && appID != "" && appID != m.selfAppID {
			depType = "Http (tracked component)"
		}
		return depType, "", httpTarget(attrs)
	}

	if sys, ok := attrs.GetString("rpc.system"); ok && sys != "" {
		if t := peerTarget(attrs, 0); t != "" {
			return sys, "", t
		}
		return sys, "", sys
	}

	if sys, ok := attrs.GetString("db.system"); ok && sys != "" {
		depType := sys
		if sqlSystems[sys] {
			depType = "SQL"
			if stmt, ok := attrs.GetString("db.statement"); ok {
				name = stmt
			}
		}
		return depType, name, dbTarget(attrs, sys)
	}

	if sys, ok := attrs.GetString("messaging.system"); ok && sys != "" {
		depType := sys
		if span.Kind == spanmodel.KindProducer {
			depType = "Queue Message | " + sys
		}
		target = sys
		if dest, ok := attrs.GetString("messaging.destination"); ok && dest != "" {
			target = dest
		}
		return depType, "", target
	}

	if span.Name == "EventHubs.send" || span.Name == "EventHubs.message" {
		return "Microsoft.EventHub", "", messageBusTarget(attrs)
	}

	if span.Name == "ServiceBus.message" || span.Name == "ServiceBus.process" {
		return "AZURE SERVICE BUS", "", messageBusTarget(attrs)
	}

	if span.Kind == spanmodel.KindInternal {
		return "InProc", "", ""
	}

	if t := peerTarget(attrs, 0); t != "" {
		return "", "", t
	}
	return "InProc", "", ""
}

func messageBusTarget(attrs spanmodel.AttrMap) string {
	addr, _ := attrs.GetString("peer.address")
	dest, _ := attrs.GetString("message_bus.destination")
	if addr == "" {
		return dest
	}
	return addr + "/" + dest
}

func dbTarget(attrs spanmodel.AttrMap, system string) string {
	port := defaultPorts[system]
	peer := peerTarget(attrs, port)
	name, _ := attrs.GetString("db.name")
	if name == "" {
		return peer
	}
	return peer + "/" + name
}

func httpTarget(attrs spanmodel.AttrMap) string {
	scheme := "http"
	if raw, ok := attrs.GetString("http.url"); ok && raw != "" {
		if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
			scheme = u.Scheme
		}
	}

	if name, ok := attrs.GetString("net.peer.name"); ok && name != "" {
		return withPort(name, portOf(attrs, "net.peer.port"), httpIsDefaultPort(scheme))
	}
	if host, ok := attrs.GetString("http.host"); ok && host != "" {
		return trimDefaultHTTPPort(host, scheme)
	}
	if raw, ok := attrs.GetString("http.url"); ok && raw != "" {
		if u, err := url.Parse(raw); err == nil {
			return trimDefaultHTTPPort(u.Host, u.Scheme)
		}
	}
	return ""
}

// httpIsDefaultPort returns a port-omission predicate for the given
// scheme: port 80 for http, 443 for https, or -1 (the semantic
// convention's sentinel for "no port") are always omitted.
func httpIsDefaultPort(scheme string) func(port int) bool {
	return func(port int) bool {
		if port == -1 {
			return true
		}
		switch scheme {
		case "https":
			return port == 443
		default:
			return port == 80
		}
	}
}

// trimDefaultHTTPPort strips a trailing ":80"/":443" (scheme-appropriate)
// from a "host:port" string already assembled by a caller (e.g. http.host
// or a parsed URL's Host), leaving other ports untouched.
func trimDefaultHTTPPort(hostport, scheme string) string {
	host, portStr, found := strings.Cut(hostport, ":")
	if !found {
		return hostport
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return hostport
	}
	if httpIsDefaultPort(scheme)(port) {
		return host
	}
	return hostport
}

func peerTarget(attrs spanmodel.AttrMap, defaultPort int) string {
	name, ok := attrs.GetString("net.peer.name")
	if !ok || name == "" {
		name, ok = attrs.GetString("peer.hostname")
	}
	if !ok || name == "" {
		name, ok = attrs.GetString("peer.address")
	}
	if !ok || name == "" {
		return ""
	}
	port := portOf(attrs, "net.peer.port")
	if port == 0 {
		port = defaultPort
	}
	return withPort(name, port, func(p int) bool { return p == defaultPort || p == -1 || p == 0 })
}

func portOf(attrs spanmodel.AttrMap, key string) int {
	v, ok := attrs.GetInt(key)
	if !ok {
		return 0
	}
	return int(v)
}

func withPort(host string, port int, omit func(port int) bool) string {
	if port == 0 || omit(port) {
		return host
	}
	return host + ":" + strconv.Itoa(port)
}
