package livemetrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/monitoragent/telemetry-pipeline/errs"
)

// ticksAtEpoch is the .NET epoch offset (0001-01-01) expressed in
// 100ns "ticks", used to encode the control protocol's
// transmission-time header.
const ticksAtEpoch = 621355968000000000

const invariantVersion = "1"

const (
	headerTransmissionTime   = "x-ms-qps-transmission-time"
	headerStreamID           = "x-ms-qps-stream-id"
	headerMachineName        = "x-ms-qps-machine-name"
	headerRoleName           = "x-ms-qps-role-name"
	headerInstanceName       = "x-ms-qps-instance-name"
	headerInvariantVersion   = "x-ms-qps-invariant-version"
	headerSubscribed         = "x-ms-qps-subscribed"
	headerPollingIntervalHint = "x-ms-qps-service-polling-interval-hint"
	headerEndpointRedirect   = "x-ms-qps-service-endpoint-redirect"
)

// HTTPDoer is satisfied by *http.Client and by test doubles.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures the ping/post control loop.
type Config struct {
	IKey         string
	RoleName     string
	RoleInstance string
	MachineName  string
	StreamID     string
	LiveEndpoint string
	PingInterval time.Duration
	PostInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.PingInterval <= 0 {
		c.PingInterval = 5 * time.Second
	}
	if c.PostInterval <= 0 {
		c.PostInterval = time.Second
	}
	return c
}

// Controller runs the independent ping/post loop against the
// live-metrics endpoint, driving the Aggregator's activation state.
type Controller struct {
	agg    *Aggregator
	cfg    Config
	client HTTPDoer
	logger *slog.Logger

	endpoint     atomic.Pointer[string]
	pingInterval atomic.Int64
}

// NewController constructs a Controller bound to agg.
func NewController(agg *Aggregator, cfg Config, client HTTPDoer, logger *slog.Logger) *Controller {
	cfg = cfg.withDefaults()
	if cfg.StreamID == "" {
		cfg.StreamID = uuid.NewString()
	}
	if cfg.MachineName == "" {
		if host, err := os.Hostname(); err == nil {
			cfg.MachineName = host
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{agg: agg, cfg: cfg, client: client, logger: logger}
	endpoint := cfg.LiveEndpoint
	c.endpoint.Store(&endpoint)
	c.pingInterval.Store(int64(cfg.PingInterval))
	return c
}

// Run drives the control loop until ctx is cancelled: ping every
// PingInterval while Disabled/PingPending, post every PostInterval
// while Streaming.
func (c *Controller) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		var next time.Duration
		if c.agg.State() == Streaming {
			c.post(ctx)
			next = c.cfg.PostInterval
		} else {
			c.ping(ctx)
			next = time.Duration(c.pingInterval.Load())
		}

		select {
		case <-ctx.Done():
			return
		default:
			timer.Reset(next)
		}
	}
}

func (c *Controller) currentEndpoint() string {
	return *c.endpoint.Load()
}

// Ping sends exactly one ping request synchronously, applying
// whatever state transition and redirect/hint the response carries.
// Exported for one-shot callers (agentctl ping) that don't want the
// full Run loop.
func (c *Controller) Ping(ctx context.Context) {
	c.ping(ctx)
}

func (c *Controller) ping(ctx context.Context) {
	url := c.currentEndpoint() + "/QuickPulseService.svc/ping?ikey=" + c.cfg.IKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte("{}")))
	if err != nil {
		c.logger.Error("failed to build live-metrics ping request", "error", err)
		return
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("live-metrics ping failed", "error", err)
		c.agg.setState(PingPending)
		return
	}
	defer resp.Body.Close()

	info, err := headerInfoFrom(resp)
	if err != nil {
		c.logger.Warn("live-metrics ping returned malformed headers", "error", err)
		c.agg.setState(PingPending)
		return
	}
	c.applyHeaderInfo(info, resp.StatusCode)
}

func (c *Controller) post(ctx context.Context) {
	snapshot := c.agg.GetAndRestart()
	body, err := json.Marshal(postBody{
		Timestamp:                dotNetTicks(time.Now()),
		Requests:                 snapshot.Requests,
		RequestsDurationMs:       snapshot.RequestsDurationMs,
		UnsuccessfulRequests:     snapshot.UnsuccessfulRequests,
		Dependencies:             snapshot.Dependencies,
		DependenciesDurationMs:   snapshot.DependenciesDurationMs,
		UnsuccessfulDependencies: snapshot.UnsuccessfulDependencies,
		Exceptions:               snapshot.Exceptions,
	})
	if err != nil {
		c.logger.Error("failed to encode live-metrics snapshot", "error", err)
		return
	}

	url := c.currentEndpoint() + "/QuickPulseService.svc/post?ikey=" + c.cfg.IKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("failed to build live-metrics post request", "error", err)
		return
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("live-metrics post failed", "error", err)
		c.agg.setState(PingPending)
		return
	}
	defer resp.Body.Close()

	info, err := headerInfoFrom(resp)
	if err != nil {
		c.logger.Warn("live-metrics post returned malformed headers", "error", err)
		c.agg.setState(PingPending)
		return
	}
	c.applyHeaderInfo(info, resp.StatusCode)
}

type postBody struct {
	Timestamp                int64 `json:"Timestamp"`
	Requests                 int64 `json:"Requests"`
	RequestsDurationMs       int64 `json:"RequestsDurationMs"`
	UnsuccessfulRequests     int32 `json:"UnsuccessfulRequests"`
	Dependencies             int64 `json:"Dependencies"`
	DependenciesDurationMs   int64 `json:"DependenciesDurationMs"`
	UnsuccessfulDependencies int32 `json:"UnsuccessfulDependencies"`
	Exceptions               int32 `json:"Exceptions"`
}

func (c *Controller) setHeaders(req *http.Request) {
	req.Header.Set(headerTransmissionTime, strconv.FormatInt(dotNetTicks(time.Now()), 10))
	req.Header.Set(headerStreamID, c.cfg.StreamID)
	req.Header.Set(headerMachineName, c.cfg.MachineName)
	req.Header.Set(headerRoleName, c.cfg.RoleName)
	req.Header.Set(headerInstanceName, c.cfg.RoleInstance)
	req.Header.Set(headerInvariantVersion, invariantVersion)
	req.Header.Set("Content-Type", "application/json")
}

// dotNetTicks renders t as 100ns ticks since the .NET epoch
// (0001-01-01), exactly the formula the control protocol's
// transmission-time header requires.
func dotNetTicks(t time.Time) int64 {
	return t.UnixMilli()*10000 + ticksAtEpoch
}

// headerInfo is the decoded set of control-protocol response headers.
type headerInfo struct {
	subscribed       bool
	endpointRedirect string
	pollingHint      time.Duration
}

// headerInfoFrom scans resp's headers case-insensitively (net/http
// already canonicalizes header names, but the scan mirrors the
// original protocol helper's explicit case-insensitive lookup) and
// decodes the three control headers the ping/post loop reacts to.
func headerInfoFrom(resp *http.Response) (headerInfo, error) {
	var info headerInfo

	if v := resp.Header.Get(headerSubscribed); v != "" {
		b, err := strconv.ParseBool(strings.ToLower(v))
		if err != nil {
			return headerInfo{}, errs.ProtocolMismatchError(fmt.Sprintf("invalid %s header: %q", headerSubscribed, v))
		}
		info.subscribed = b
	}

	info.endpointRedirect = resp.Header.Get(headerEndpointRedirect)

	if v := resp.Header.Get(headerPollingIntervalHint); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return headerInfo{}, errs.ProtocolMismatchError(fmt.Sprintf("invalid %s header: %q", headerPollingIntervalHint, v))
		}
		info.pollingHint = time.Duration(ms) * time.Millisecond
	}

	return info, nil
}

// applyHeaderInfo transitions the aggregator's state and this
// controller's endpoint/interval per the decoded response headers. A
// redirect takes effect immediately, without waiting for the next
// scheduled ping.
func (c *Controller) applyHeaderInfo(info headerInfo, statusCode int) {
	if info.endpointRedirect != "" {
		c.endpoint.Store(&info.endpointRedirect)
	}
	if info.pollingHint > 0 {
		c.pingInterval.Store(int64(info.pollingHint))
	}

	if statusCode != http.StatusOK || !info.subscribed {
		c.agg.setState(PingPending)
		return
	}
	c.agg.setState(Streaming)
}
