package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables overlaying a config file.
const EnvPrefix = "CDF_"

// FileConfig is the on-disk representation of Config.
//
//	base_url: https://api.cognitedata.com
//	project: my-project
//	api_key: ...
//	api_version: v1
//	timeout: 30s
//	max_workers: 10
type FileConfig struct {
	BaseURL        string `koanf:"base_url"`
	Project        string `koanf:"project"`
	ApiKey         string `koanf:"api_key"`
	ClientName     string `koanf:"client_name"`
	ApiVersion     string `koanf:"api_version"`
	Timeout        string `koanf:"timeout"`
	MaxWorkers     int    `koanf:"max_workers"`
	MaxConnections int    `koanf:"max_connections"`
	PageSize       int    `koanf:"page_size"`
	DisableGzip    bool   `koanf:"disable_gzip"`
}

// ToConfig converts the file representation into a Config. Validators are not applied.
func (fc *FileConfig) ToConfig() (*Config, error) {
	config := &Config{
		BaseURL:        fc.BaseURL,
		Project:        fc.Project,
		ApiKey:         fc.ApiKey,
		ClientName:     fc.ClientName,
		ApiVersion:     fc.ApiVersion,
		MaxWorkers:     fc.MaxWorkers,
		MaxConnections: fc.MaxConnections,
		PageSize:       fc.PageSize,
		DisableGzip:    fc.DisableGzip,
	}
	if fc.Timeout != "" {
		timeout, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", fc.Timeout, err)
		}
		config.Timeout = &timeout
	}
	return config, nil
}

// EnvKey maps CDF_BASE_URL style variables onto config keys.
func EnvKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// LoadConfigFile reads a YAML config file and overlays CDF_* environment variables.
// An empty path loads from the environment only.
func LoadConfigFile(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", EnvKey), nil); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}
	return UnmarshalConfig(k)
}

// UnmarshalConfig converts a loaded koanf instance into a Config.
func UnmarshalConfig(k *koanf.Koanf) (*Config, error) {
	var fc FileConfig
	if err := k.Unmarshal("", &fc); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return fc.ToConfig()
}
