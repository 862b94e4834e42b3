package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL    = "https://api.cognitedata.com"
	DefaultApiVersion = "v1"
	DefaultClientName = "go-cdf-client"
)

// Config represents the configuration required to create a platform session.
type Config struct {
	BaseURL        string             // Base URL of the platform, e.g. https://api.cognitedata.com
	Project        string             // Project name. Required.
	ApiKey         string             // API key sent in the api-key header.
	TokenSource    oauth2.TokenSource // Optional OAuth2 token source (alternative to ApiKey).
	ClientName     string             // Reported in the x-cdp-app header.
	ApiVersion     string             // "v1", "v2", ... or "playground".
	Timeout        *time.Duration     // HTTP client timeout. If nil, a default is applied by validators.
	MaxWorkers     int                // Upper bound on concurrent requests issued by chunked operations.
	MaxConnections int                // Maximum number of concurrent HTTP connections per host.
	PageSize       int                // Default page size for iterators.
	DisableGzip    bool               // Send request bodies uncompressed.

	// Logger receives request/response logs. Defaults to a no-op logger unless CDF_LOG is set.
	Logger *zap.Logger

	// MetricsRegisterer enables request metrics when set.
	MetricsRegisterer prometheus.Registerer

	// Context is an optional external context for controlling HTTP request lifecycle.
	// When provided, it will be used as the parent context for all HTTP requests made by the client.
	Context context.Context

	// BeforeRequestFn is an optional function hook executed before an API request is sent.
	// Any error returned aborts the request.
	BeforeRequestFn func(ctx context.Context, r *http.Request, verb, url string, body io.Reader) error

	// AfterRequestFn is an optional function hook executed after receiving an API response.
	// It may return a modified Renderable.
	AfterRequestFn func(ctx context.Context, response Renderable) (Renderable, error)

	// FillFn optionally overrides the default function used to populate structs
	// from generic Record maps.
	FillFn func(r Record, container any) error
}

// ConfigFunc defines a function that can modify or validate a Config.
type ConfigFunc func(*Config) error

// Validate applies the given ConfigFunc validators to the config and stops at the first error.
func (config *Config) Validate(validators ...ConfigFunc) error {
	for _, fn := range validators {
		if err := fn(config); err != nil {
			return err
		}
	}
	return nil
}

// DefaultValidators returns the validator chain applied when a client is constructed.
func DefaultValidators() []ConfigFunc {
	return []ConfigFunc{
		WithBaseURL(DefaultBaseURL),
		WithProject,
		WithAuth,
		WithClientName,
		WithApiVersion(DefaultApiVersion),
		WithTimeout(30 * time.Second),
		WithMaxWorkers(10),
		WithMaxConnections(50),
		WithPageSize(MaxPageSize),
		WithLogger,
		WithFillFn,
	}
}

// WithBaseURL sets a default base URL, honouring COGNITE_BASE_URL.
func WithBaseURL(defaultURL string) ConfigFunc {
	return func(config *Config) error {
		if config.BaseURL == "" {
			config.BaseURL = os.Getenv("COGNITE_BASE_URL")
		}
		if config.BaseURL == "" {
			config.BaseURL = defaultURL
		}
		config.BaseURL = strings.TrimRight(config.BaseURL, "/")
		return nil
	}
}

// WithProject validates that a project is set, falling back to COGNITE_PROJECT.
func WithProject(config *Config) error {
	if config.Project == "" {
		config.Project = os.Getenv("COGNITE_PROJECT")
	}
	if config.Project == "" {
		return errors.New("project cannot be empty string")
	}
	return nil
}

// WithAuth validates that either an API key or a token source is provided.
// COGNITE_API_KEY is used when neither is set.
func WithAuth(config *Config) error {
	if config.ApiKey == "" && config.TokenSource == nil {
		config.ApiKey = os.Getenv("COGNITE_API_KEY")
	}
	if config.ApiKey == "" && config.TokenSource == nil {
		return errors.New("either api key or token source must be provided")
	}
	return nil
}

// WithClientName sets the x-cdp-app value, honouring COGNITE_CLIENT_NAME.
func WithClientName(config *Config) error {
	if config.ClientName == "" {
		config.ClientName = os.Getenv("COGNITE_CLIENT_NAME")
	}
	if config.ClientName == "" {
		config.ClientName = DefaultClientName
	}
	return nil
}

// WithApiVersion sets a default API version and checks that the configured one parses.
func WithApiVersion(defaultVer string) ConfigFunc {
	return func(config *Config) error {
		if config.ApiVersion == "" {
			config.ApiVersion = defaultVer
		}
		if _, err := ParseApiVersion(config.ApiVersion); err != nil {
			return err
		}
		return nil
	}
}

// WithTimeout returns a ConfigFunc that sets a default timeout if none is provided.
func WithTimeout(timeout time.Duration) ConfigFunc {
	return func(config *Config) error {
		if config.Timeout == nil {
			config.Timeout = &timeout
		}
		return nil
	}
}

func WithMaxWorkers(maxWorkers int) ConfigFunc {
	return func(config *Config) error {
		if config.MaxWorkers <= 0 {
			config.MaxWorkers = maxWorkers
		}
		return nil
	}
}

// WithMaxConnections returns a ConfigFunc that sets the maximum number of connections
// if not explicitly provided.
func WithMaxConnections(maxConnections int) ConfigFunc {
	return func(config *Config) error {
		if config.MaxConnections <= 0 {
			config.MaxConnections = maxConnections
		}
		return nil
	}
}

// WithPageSize sets the default iterator page size and caps it at MaxPageSize.
func WithPageSize(pageSize int) ConfigFunc {
	return func(config *Config) error {
		if config.PageSize <= 0 {
			config.PageSize = pageSize
		}
		if config.PageSize > MaxPageSize {
			return fmt.Errorf("page size %d exceeds maximum of %d", config.PageSize, MaxPageSize)
		}
		return nil
	}
}

// WithLogger installs a logger when none is configured.
// A development logger is used when CDF_LOG is set to 1, true or debug.
func WithLogger(config *Config) error {
	if config.Logger != nil {
		return nil
	}
	switch strings.ToLower(os.Getenv("CDF_LOG")) {
	case "1", "true", "debug":
		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		config.Logger = logger.Named("cdf")
	default:
		config.Logger = zap.NewNop()
	}
	return nil
}

// WithFillFn installs a custom FillFn into the global fillFunc used by Record.Fill.
func WithFillFn(config *Config) error {
	if config.FillFn != nil {
		fillFunc = config.FillFn
	}
	return nil
}
