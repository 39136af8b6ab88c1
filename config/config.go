// Package config loads agent configuration from environment
// variables, the vendor connection string, and an optional YAML
// override file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/monitoragent/telemetry-pipeline/errs"
)

const defaultIngestionEndpoint = "https://dc.services.visualstudio.com"
const defaultLiveEndpoint = "https://rt.services.visualstudio.com"

// Config is the agent's full runtime configuration.
type Config struct {
	InstrumentationKey string
	IngestionEndpoint  string
	LiveEndpoint       string

	RoleName     string
	RoleInstance string

	LogLevel  string
	LogFormat string

	BatchSize     int
	BatchInterval time.Duration
	MaxRetries    int
	QueueCap      int

	SpoolDir      string
	SpoolCapBytes int64

	LiveMetricsEnabled bool
	SelfAppID          string
}

// Load builds a Config from environment variables, applying an
// optional YAML override file named by overridePath (ignored if
// empty or absent).
func Load(overridePath string) (*Config, error) {
	cfg := &Config{
		RoleName:     getEnv("APPLICATIONINSIGHTS_ROLE_NAME", ""),
		RoleInstance: getEnv("APPLICATIONINSIGHTS_ROLE_INSTANCE", ""),

		LogLevel:  getEnv("AGENTCTL_LOG_LEVEL", "info"),
		LogFormat: getEnv("AGENTCTL_LOG_FORMAT", "json"),

		BatchSize:     getEnvInt("AGENTCTL_BATCH_SIZE", 500),
		BatchInterval: getEnvDuration("AGENTCTL_BATCH_INTERVAL", 2*time.Second),
		MaxRetries:    getEnvInt("AGENTCTL_MAX_RETRIES", 3),
		QueueCap:      getEnvInt("AGENTCTL_QUEUE_CAP", 4096),

		SpoolDir:      getEnv("AGENTCTL_SPOOL_DIR", defaultSpoolDir()),
		SpoolCapBytes: int64(getEnvInt("AGENTCTL_SPOOL_CAP_BYTES", 50*1024*1024)),

		LiveMetricsEnabled: getEnvBool("AGENTCTL_LIVE_METRICS_ENABLED", true),
		SelfAppID:          getEnv("AGENTCTL_SELF_APP_ID", ""),
	}

	conn := getEnv("APPLICATIONINSIGHTS_CONNECTION_STRING", "")
	if conn != "" {
		parsed, err := ParseConnectionString(conn)
		if err != nil {
			return nil, err
		}
		cfg.InstrumentationKey = parsed.InstrumentationKey
		cfg.IngestionEndpoint = parsed.IngestionEndpoint
		cfg.LiveEndpoint = parsed.LiveEndpoint
	} else {
		cfg.InstrumentationKey = getEnv("APPINSIGHTS_INSTRUMENTATIONKEY", "")
		cfg.IngestionEndpoint = defaultIngestionEndpoint
		cfg.LiveEndpoint = defaultLiveEndpoint
	}

	if overridePath != "" {
		if err := applyYAMLOverride(cfg, overridePath); err != nil {
			return nil, err
		}
	}

	if cfg.InstrumentationKey == "" {
		return nil, errs.InvalidInputError("instrumentation_key", "not configured: set APPLICATIONINSIGHTS_CONNECTION_STRING or APPINSIGHTS_INSTRUMENTATIONKEY")
	}

	return cfg, nil
}

// ConnectionString is the parsed form of a semicolon-separated
// "Key=Value;..." vendor connection string.
type ConnectionString struct {
	InstrumentationKey string
	IngestionEndpoint  string
	LiveEndpoint       string
}

// ParseConnectionString parses the semicolon-separated connection
// string format. A bare instrumentation key with no "Key=Value"
// pairs is accepted for legacy compatibility.
func ParseConnectionString(s string) (ConnectionString, error) {
	cs := ConnectionString{
		IngestionEndpoint: defaultIngestionEndpoint,
		LiveEndpoint:      defaultLiveEndpoint,
	}

	if !strings.Contains(s, "=") {
		cs.InstrumentationKey = strings.TrimSpace(s)
		return cs, nil
	}

	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return ConnectionString{}, errs.InvalidInputError("connection_string", fmt.Sprintf("malformed segment %q", part))
		}
		key, value := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		switch strings.ToLower(key) {
		case "instrumentationkey":
			cs.InstrumentationKey = value
		case "ingestionendpoint":
			cs.IngestionEndpoint = strings.TrimRight(value, "/")
		case "liveendpoint":
			cs.LiveEndpoint = strings.TrimRight(value, "/")
		}
	}

	if cs.InstrumentationKey == "" {
		return ConnectionString{}, errs.InvalidInputError("connection_string", "missing InstrumentationKey")
	}
	return cs, nil
}

// overrideFile mirrors Config's YAML-overridable fields. Fields left
// zero/absent in the file do not override the environment-derived
// value.
type overrideFile struct {
	RoleName      string `yaml:"roleName"`
	RoleInstance  string `yaml:"roleInstance"`
	LogLevel      string `yaml:"logLevel"`
	LogFormat     string `yaml:"logFormat"`
	BatchSize     int    `yaml:"batchSize"`
	BatchInterval string `yaml:"batchInterval"`
	MaxRetries    int    `yaml:"maxRetries"`
	SpoolDir      string `yaml:"spoolDir"`
	SelfAppID     string `yaml:"selfAppId"`
}

// applyYAMLOverride layers the override file underneath whatever the
// environment already set: env vars take precedence per SPEC_FULL.md
// §9.2, so a field is only taken from the file when its matching env
// var was left unset.
func applyYAMLOverride(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.Wrap(err, errs.InvalidInput, "read config override file")
	}

	var override overrideFile
	if err := yaml.Unmarshal(data, &override); err != nil {
		return errs.Wrap(err, errs.InvalidInput, "parse config override file")
	}

	if override.RoleName != "" && envUnset("APPLICATIONINSIGHTS_ROLE_NAME") {
		cfg.RoleName = override.RoleName
	}
	if override.RoleInstance != "" && envUnset("APPLICATIONINSIGHTS_ROLE_INSTANCE") {
		cfg.RoleInstance = override.RoleInstance
	}
	if override.LogLevel != "" && envUnset("AGENTCTL_LOG_LEVEL") {
		cfg.LogLevel = override.LogLevel
	}
	if override.LogFormat != "" && envUnset("AGENTCTL_LOG_FORMAT") {
		cfg.LogFormat = override.LogFormat
	}
	if override.BatchSize > 0 && envUnset("AGENTCTL_BATCH_SIZE") {
		cfg.BatchSize = override.BatchSize
	}
	if override.BatchInterval != "" && envUnset("AGENTCTL_BATCH_INTERVAL") {
		d, err := time.ParseDuration(override.BatchInterval)
		if err != nil {
			return errs.Wrap(err, errs.InvalidInput, "parse batchInterval override")
		}
		cfg.BatchInterval = d
	}
	if override.MaxRetries > 0 && envUnset("AGENTCTL_MAX_RETRIES") {
		cfg.MaxRetries = override.MaxRetries
	}
	if override.SpoolDir != "" && envUnset("AGENTCTL_SPOOL_DIR") {
		cfg.SpoolDir = override.SpoolDir
	}
	if override.SelfAppID != "" && envUnset("AGENTCTL_SELF_APP_ID") {
		cfg.SelfAppID = override.SelfAppID
	}
	return nil
}

func envUnset(key string) bool {
	return os.Getenv(key) == ""
}

func defaultSpoolDir() string {
	dir := os.TempDir()
	return dir + "/agentctl/transmission"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
