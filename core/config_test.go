package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DefaultValidators(t *testing.T) {
	config := &Config{Project: "p", ApiKey: "k"}
	require.NoError(t, config.Validate(DefaultValidators()...))

	assert.Equal(t, DefaultBaseURL, config.BaseURL)
	assert.Equal(t, DefaultApiVersion, config.ApiVersion)
	assert.Equal(t, DefaultClientName, config.ClientName)
	require.NotNil(t, config.Timeout)
	assert.Equal(t, 30*time.Second, *config.Timeout)
	assert.Equal(t, 10, config.MaxWorkers)
	assert.Equal(t, 50, config.MaxConnections)
	assert.Equal(t, MaxPageSize, config.PageSize)
	assert.NotNil(t, config.Logger)
}

func TestConfig_Validators(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		env     map[string]string
		wantErr string
		check   func(t *testing.T, c *Config)
	}{
		{
			name:    "missing project",
			config:  Config{ApiKey: "k"},
			wantErr: "project cannot be empty",
		},
		{
			name:    "missing credentials",
			config:  Config{Project: "p"},
			wantErr: "either api key or token source",
		},
		{
			name:   "environment fallbacks",
			config: Config{},
			env: map[string]string{
				"COGNITE_PROJECT":     "env-project",
				"COGNITE_API_KEY":     "env-key",
				"COGNITE_BASE_URL":    "https://greenfield.cognitedata.com/",
				"COGNITE_CLIENT_NAME": "pump-monitor",
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "env-project", c.Project)
				assert.Equal(t, "env-key", c.ApiKey)
				assert.Equal(t, "https://greenfield.cognitedata.com", c.BaseURL)
				assert.Equal(t, "pump-monitor", c.ClientName)
			},
		},
		{
			name:    "invalid api version",
			config:  Config{Project: "p", ApiKey: "k", ApiVersion: "one"},
			wantErr: "invalid api version",
		},
		{
			name:   "playground api version",
			config: Config{Project: "p", ApiKey: "k", ApiVersion: "playground"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "playground", c.ApiVersion)
			},
		},
		{
			name:    "page size above maximum",
			config:  Config{Project: "p", ApiKey: "k", PageSize: 5000},
			wantErr: "exceeds maximum",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"COGNITE_PROJECT", "COGNITE_API_KEY", "COGNITE_BASE_URL", "COGNITE_CLIENT_NAME"} {
				t.Setenv(key, tt.env[key])
			}
			config := tt.config
			err := config.Validate(DefaultValidators()...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, &config)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cdf.yaml")
	content := []byte("project: from-file\napi_key: file-key\ntimeout: 5s\nmax_workers: 3\napi_version: playground\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CDF_PROJECT", "from-env")

	config, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", config.Project)
	assert.Equal(t, "file-key", config.ApiKey)
	assert.Equal(t, "playground", config.ApiVersion)
	assert.Equal(t, 3, config.MaxWorkers)
	require.NotNil(t, config.Timeout)
	assert.Equal(t, 5*time.Second, *config.Timeout)
}

func TestLoadConfigFile_BadTimeout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cdf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: soon\n"), 0o600))

	_, err := LoadConfigFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timeout")
}

func TestApiVersion(t *testing.T) {
	tests := []struct {
		version     string
		requirement string
		want        bool
	}{
		{"v1", "", true},
		{"v1", ">= 1", true},
		{"v1", ">= 2", false},
		{"v1", "playground", false},
		{"playground", "playground", true},
		{"playground", ">= 1", true},
		{"v2", ">= 1, < 3", true},
	}
	for _, tt := range tests {
		t.Run(tt.version+"/"+tt.requirement, func(t *testing.T) {
			v, err := ParseApiVersion(tt.version)
			require.NoError(t, err)
			ok, err := v.Satisfies(tt.requirement)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	_, err := ParseApiVersion("1")
	assert.Error(t, err)
	v, err := ParseApiVersion("v1")
	require.NoError(t, err)
	_, err = v.Satisfies("not a constraint")
	assert.Error(t, err)
}
