package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cogdata/go-cdf-client/core"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	DefaultOutput   = "table"
	DefaultLogLevel = "warn"
)

// Config is the layered cdfctl configuration.
// Precedence (highest to lowest): flags > CDF_* env > config file > defaults.
type Config struct {
	Project      string   `koanf:"project"`
	BaseURL      string   `koanf:"base_url"`
	ApiKey       string   `koanf:"api_key"`
	ApiVersion   string   `koanf:"api_version"`
	ClientID     string   `koanf:"client_id"`
	ClientSecret string   `koanf:"client_secret"`
	TokenURL     string   `koanf:"token_url"`
	Scopes       []string `koanf:"scopes"`
	Timeout      string   `koanf:"timeout"`
	MaxWorkers   int      `koanf:"max_workers"`
	Output       string   `koanf:"output"`
	LogLevel     string   `koanf:"log_level"`
}

// LoadConfig merges defaults, the optional YAML file at cfgFile, CDF_* environment variables
// and the explicitly set flags.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"base_url":    core.DefaultBaseURL,
		"api_version": core.DefaultApiVersion,
		"output":      DefaultOutput,
		"log_level":   DefaultLogLevel,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	if err := k.Load(env.Provider(core.EnvPrefix, ".", core.EnvKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	switch cfg.Output {
	case "table", "json", "yaml":
	default:
		return nil, fmt.Errorf("unknown output format %q (expected table, json or yaml)", cfg.Output)
	}
	return &cfg, nil
}

// ClientConfig converts the CLI configuration into a client config. When a client id is set the
// OAuth2 client credentials flow replaces the API key.
func (c *Config) ClientConfig(ctx context.Context, logger *zap.Logger) (*core.Config, error) {
	config := &core.Config{
		BaseURL:    c.BaseURL,
		Project:    c.Project,
		ApiKey:     c.ApiKey,
		ApiVersion: c.ApiVersion,
		ClientName: "cdfctl",
		MaxWorkers: c.MaxWorkers,
		Logger:     logger,
		Context:    ctx,
	}
	if c.Timeout != "" {
		timeout, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
		}
		config.Timeout = &timeout
	}
	if c.ClientID != "" {
		if c.TokenURL == "" {
			return nil, errors.New("token_url is required with client_id")
		}
		cc := clientcredentials.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			TokenURL:     c.TokenURL,
			Scopes:       c.Scopes,
		}
		config.ApiKey = ""
		config.TokenSource = cc.TokenSource(ctx)
	}
	return config, nil
}
