package cdf_client

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientVersion(t *testing.T) {
	version := ClientVersion()

	assert.NotEmpty(t, version)
	assert.False(t, strings.ContainsAny(version, "\r\n"), "version should be trimmed")
	assert.GreaterOrEqual(t, len(version), 3)
}

func TestNewCogniteClient(t *testing.T) {
	client, err := NewCogniteClient(&Config{Project: "publicdata", ApiKey: "secret", BaseURL: "https://example.invalid/"})
	require.NoError(t, err)
	assert.NotNil(t, client.Assets)
	assert.NotNil(t, client.Sequences.Data)
	assert.Equal(t, "https://example.invalid", client.Session.GetConfig().BaseURL)

	_, err = NewCogniteClient(nil)
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cdf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project: from-file\napi_key: k\ntimeout: 5s\n"), 0o600))
	t.Setenv("CDF_PROJECT", "from-env")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", config.Project)
	assert.Equal(t, "k", config.ApiKey)
	require.NotNil(t, config.Timeout)
	assert.Equal(t, "5s", config.Timeout.String())
}

func TestIdentifiers(t *testing.T) {
	assert.Equal(t, Params{"id": int64(7)}, ById(7).Params())
	assert.Equal(t, Params{"externalId": "x"}, ByExternalId("x").Params())
}
