// Package config loads provider and runtime settings from a .env file, an
// optional YAML file and the process environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/domcheck"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultEndpointPath          = "/api/v1"
	DefaultMethod                = "GET"
	DefaultRateLimitPerMinute    = 50
	DefaultRatePeriodSeconds     = 60
	DefaultMaxAttempts           = 5
	DefaultBackoffBaseSeconds    = 1.0
	DefaultBackoffCapSeconds     = 60.0
	DefaultBackoffFactor         = 2.0
	DefaultRequestTimeoutSeconds = 10
)

// Config holds everything needed to talk to a provider.
type Config struct {
	APIKey  string `yaml:"apiKey"`
	APIHost string `yaml:"apiHost"`

	// BaseURL defaults to https://<APIHost>.
	BaseURL      string `yaml:"baseURL"`
	EndpointPath string `yaml:"endpointPath"`

	// EndpointTemplate, when set, replaces BaseURL and EndpointPath.
	// It may contain {domain}, {name} and {tld}.
	EndpointTemplate string `yaml:"endpointTemplate"`

	Method     string `yaml:"method"`
	Body       string `yaml:"body"`
	KeyHeader  string `yaml:"keyHeader"`
	HostHeader string `yaml:"hostHeader"`

	RateLimitPerMinute int     `yaml:"rateLimitPerMinute"`
	RatePeriodSeconds  int     `yaml:"ratePeriodSeconds"`
	MinIntervalSeconds float64 `yaml:"minIntervalSeconds"`

	MaxAttempts        int     `yaml:"maxAttempts"`
	BackoffBaseSeconds float64 `yaml:"backoffBaseSeconds"`
	BackoffCapSeconds  float64 `yaml:"backoffCapSeconds"`
	BackoffFactor      float64 `yaml:"backoffFactor"`
	Jitter             bool    `yaml:"jitter"`

	RequestTimeoutSeconds int `yaml:"requestTimeoutSeconds"`

	ResponseShapes []domcheck.ResponseShape `yaml:"responseShapes"`
}

// Default returns a Config with every optional field at its default.
func Default() *Config {
	return &Config{
		EndpointPath:          DefaultEndpointPath,
		Method:                DefaultMethod,
		RateLimitPerMinute:    DefaultRateLimitPerMinute,
		RatePeriodSeconds:     DefaultRatePeriodSeconds,
		MaxAttempts:           DefaultMaxAttempts,
		BackoffBaseSeconds:    DefaultBackoffBaseSeconds,
		BackoffCapSeconds:     DefaultBackoffCapSeconds,
		BackoffFactor:         DefaultBackoffFactor,
		RequestTimeoutSeconds: DefaultRequestTimeoutSeconds,
	}
}

// Endpoint returns the request URL template. Without an explicit template
// and without a request body the domain is sent as the "domain" query
// parameter.
func (c *Config) Endpoint() string {
	if c.EndpointTemplate != "" {
		return c.EndpointTemplate
	}
	base := c.BaseURL
	if base == "" && c.APIHost != "" {
		base = "https://" + c.APIHost
	}
	u := strings.TrimRight(base, "/") + c.EndpointPath
	if c.Body != "" || strings.Contains(u, "{") {
		return u
	}
	if strings.Contains(u, "?") {
		return u + "&domain={domain}"
	}
	return u + "?domain={domain}"
}

// RatePeriod returns the sliding-window period.
func (c *Config) RatePeriod() time.Duration {
	return time.Duration(c.RatePeriodSeconds) * time.Second
}

// MinInterval returns the minimum spacing between requests, zero if unset.
func (c *Config) MinInterval() time.Duration {
	return seconds(c.MinIntervalSeconds)
}

// BackoffBase returns the first retry delay.
func (c *Config) BackoffBase() time.Duration {
	return seconds(c.BackoffBaseSeconds)
}

// BackoffCap returns the largest computed retry delay.
func (c *Config) BackoffCap() time.Duration {
	return seconds(c.BackoffCapSeconds)
}

// RequestTimeout returns the per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Validate returns an EINVALID error describing the first problem found.
func (c *Config) Validate() error {
	switch {
	case c.APIKey == "":
		return domcheck.Errorf(domcheck.EINVALID, "API key required (set DOMCHECK_API_KEY or RAPIDAPI_KEY)")
	case c.APIHost == "":
		return domcheck.Errorf(domcheck.EINVALID, "API host required (set DOMCHECK_API_HOST or RAPIDAPI_HOST)")
	case c.RateLimitPerMinute <= 0:
		return domcheck.Errorf(domcheck.EINVALID, "rateLimitPerMinute must be positive, got %d", c.RateLimitPerMinute)
	case c.RatePeriodSeconds <= 0:
		return domcheck.Errorf(domcheck.EINVALID, "ratePeriodSeconds must be positive, got %d", c.RatePeriodSeconds)
	case c.MinIntervalSeconds < 0:
		return domcheck.Errorf(domcheck.EINVALID, "minIntervalSeconds must not be negative")
	case c.MaxAttempts < 1:
		return domcheck.Errorf(domcheck.EINVALID, "maxAttempts must be at least 1, got %d", c.MaxAttempts)
	case c.BackoffBaseSeconds < 0 || c.BackoffCapSeconds < 0:
		return domcheck.Errorf(domcheck.EINVALID, "backoff delays must not be negative")
	case c.BackoffCapSeconds < c.BackoffBaseSeconds:
		return domcheck.Errorf(domcheck.EINVALID, "backoffCapSeconds must not be below backoffBaseSeconds")
	case c.BackoffFactor < 1:
		return domcheck.Errorf(domcheck.EINVALID, "backoffFactor must be at least 1, got %g", c.BackoffFactor)
	case c.RequestTimeoutSeconds <= 0:
		return domcheck.Errorf(domcheck.EINVALID, "requestTimeoutSeconds must be positive, got %d", c.RequestTimeoutSeconds)
	}

	switch strings.ToUpper(c.Method) {
	case "GET", "POST":
	default:
		return domcheck.Errorf(domcheck.EINVALID, "unsupported method %q", c.Method)
	}
	switch c.Body {
	case "", "domain", "name_tld":
	default:
		return domcheck.Errorf(domcheck.EINVALID, "unsupported body %q (want domain or name_tld)", c.Body)
	}
	for i, s := range c.ResponseShapes {
		if err := s.Validate(); err != nil {
			return domcheck.Errorf(domcheck.EINVALID, "responseShapes[%d]: %s", i, domcheck.ErrorMessage(err))
		}
	}
	return nil
}

// Loader reads configuration. The zero value reads ".env" from the working
// directory and the process environment.
type Loader struct {
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)

	// DotEnv lists .env files to read. Missing files are ignored.
	// Process environment variables take precedence over their values.
	DotEnv []string

	// Logger receives warnings about ignored values. Defaults to slog.Default().
	Logger *slog.Logger
}

// Load reads configuration with the zero Loader.
func Load(path string) (*Config, error) {
	return (&Loader{}).Load(path)
}

// Load builds a Config from defaults, then the YAML file at path (if
// non-empty), then environment variables.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := readYAML(path, cfg); err != nil {
			return nil, err
		}
	}

	lookup, err := l.lookup()
	if err != nil {
		return nil, err
	}
	e := &env{lookup: lookup, logger: l.logger()}
	e.apply(cfg)
	return cfg, nil
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

func (l *Loader) lookup() (func(string) (string, bool), error) {
	processEnv := l.LookupEnv
	if processEnv == nil {
		processEnv = os.LookupEnv
	}

	files := l.DotEnv
	if files == nil {
		files = []string{".env"}
	}
	dotenv := make(map[string]string)
	for _, f := range files {
		vals, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
		for k, v := range vals {
			if _, ok := dotenv[k]; !ok {
				dotenv[k] = v
			}
		}
	}

	return func(key string) (string, bool) {
		if v, ok := processEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}, nil
}

func readYAML(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return domcheck.Errorf(domcheck.EINVALID, "invalid config %s: %v", path, err)
	}
	return nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// env applies environment variables. Each setting is read from its
// DOMCHECK_ name first and its legacy name second.
type env struct {
	lookup func(string) (string, bool)
	logger *slog.Logger
}

func (e *env) apply(cfg *Config) {
	e.setString(&cfg.APIKey, "DOMCHECK_API_KEY", "RAPIDAPI_KEY")
	e.setString(&cfg.APIHost, "DOMCHECK_API_HOST", "RAPIDAPI_HOST")
	e.setString(&cfg.BaseURL, "DOMCHECK_BASE_URL", "RAPIDAPI_BASE_URL")
	e.setString(&cfg.EndpointPath, "DOMCHECK_ENDPOINT_PATH", "RAPIDAPI_ENDPOINT_PATH")
	e.setString(&cfg.EndpointTemplate, "DOMCHECK_ENDPOINT")
	e.setString(&cfg.Method, "DOMCHECK_METHOD")
	e.setString(&cfg.Body, "DOMCHECK_BODY")
	e.setString(&cfg.KeyHeader, "DOMCHECK_KEY_HEADER")
	e.setString(&cfg.HostHeader, "DOMCHECK_HOST_HEADER")
	e.setInt(&cfg.RateLimitPerMinute, "DOMCHECK_RATE_LIMIT", "RATE_LIMIT_PER_MINUTE")
	e.setInt(&cfg.RatePeriodSeconds, "DOMCHECK_RATE_PERIOD", "RATE_LIMIT_PERIOD_SECONDS")
	e.setFloat(&cfg.MinIntervalSeconds, "DOMCHECK_MIN_INTERVAL")
	e.setInt(&cfg.MaxAttempts, "DOMCHECK_MAX_ATTEMPTS", "MAX_RETRIES")
	e.setFloat(&cfg.BackoffBaseSeconds, "DOMCHECK_BACKOFF_BASE")
	e.setFloat(&cfg.BackoffCapSeconds, "DOMCHECK_BACKOFF_CAP")
	e.setFloat(&cfg.BackoffFactor, "DOMCHECK_BACKOFF_FACTOR", "BACKOFF_FACTOR")
	e.setBool(&cfg.Jitter, "DOMCHECK_JITTER")
	e.setInt(&cfg.RequestTimeoutSeconds, "DOMCHECK_TIMEOUT", "REQUEST_TIMEOUT_SECONDS")
}

func (e *env) get(names ...string) (name, value string, ok bool) {
	for _, n := range names {
		if v, ok := e.lookup(n); ok && strings.TrimSpace(v) != "" {
			return n, strings.TrimSpace(v), true
		}
	}
	return "", "", false
}

func (e *env) setString(dst *string, names ...string) {
	if _, v, ok := e.get(names...); ok {
		*dst = v
	}
}

func (e *env) setInt(dst *int, names ...string) {
	name, v, ok := e.get(names...)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.logger.Warn("invalid integer, using default", "name", name, "value", v, "default", *dst)
		return
	}
	*dst = n
}

func (e *env) setFloat(dst *float64, names ...string) {
	name, v, ok := e.get(names...)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		e.logger.Warn("invalid number, using default", "name", name, "value", v, "default", *dst)
		return
	}
	*dst = f
}

func (e *env) setBool(dst *bool, names ...string) {
	name, v, ok := e.get(names...)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.logger.Warn("invalid boolean, using default", "name", name, "value", v, "default", *dst)
		return
	}
	*dst = b
}
