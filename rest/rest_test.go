package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cogdata/go-cdf-client/core"
	"github.com/cogdata/go-cdf-client/resources"
	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCogniteRest_NilConfig(t *testing.T) {
	_, err := NewCogniteRest(nil)
	assert.Error(t, err)
}

func TestNewCogniteRest_InvalidConfig(t *testing.T) {
	t.Setenv("COGNITE_PROJECT", "")
	_, err := NewCogniteRest(&core.Config{ApiKey: "secret"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid client config")
	assert.Contains(t, err.Error(), "project")
}

func TestNewCogniteRest_RegistersResources(t *testing.T) {
	rest, err := NewCogniteRest(&core.Config{BaseURL: "http://localhost:1", Project: "p", ApiKey: "secret"})
	require.NoError(t, err)

	for _, rt := range []string{
		resources.AssetResourceType,
		resources.EventResourceType,
		resources.SequenceResourceType,
		resources.SequenceDataResourceType,
		resources.TypeResourceType,
		resources.FileResourceType,
	} {
		r, ok := rest.Resource(rt)
		assert.True(t, ok, rt)
		assert.Equal(t, rt, r.GetResourceType())
	}
	_, ok := rest.Resource("Unknown")
	assert.False(t, ok)

	assert.NotNil(t, rest.Sequences.Data)
	assert.Equal(t, context.Background(), rest.GetCtx())
	assert.Same(t, rest.Session, rest.GetSession())
}

func TestNewCogniteRest_UsesConfigContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	rest, err := NewCogniteRest(&core.Config{BaseURL: "http://localhost:1", Project: "p", ApiKey: "secret", Context: ctx})
	require.NoError(t, err)
	assert.Equal(t, "v", rest.GetCtx().Value(key{}))
}

func TestCogniteRest_SequenceDataRoundTrip(t *testing.T) {
	var bodies []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get(core.HeaderApiKey))
		var reader io.Reader = r.Body
		if r.Header.Get(core.HeaderContentEncoding) == core.ContentEncodingGzip {
			zr, err := gzip.NewReader(r.Body)
			if !assert.NoError(t, err) {
				return
			}
			reader = zr
		}
		var body map[string]any
		assert.NoError(t, json.NewDecoder(reader).Decode(&body))
		bodies = append(bodies, body)

		w.Header().Set(core.HeaderContentType, core.ContentTypeJSON)
		assert.Equal(t, "/api/v1/projects/p/sequences/data/list", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"externalId": "pump-1",
			"columns": [{"externalId": "flow"}],
			"rows": [{"rowNumber": 0, "values": [1.5]}, {"rowNumber": 1, "values": [2]}]
		}`))
	}))
	defer server.Close()

	rest, err := NewCogniteRest(&core.Config{BaseURL: server.URL, Project: "p", ApiKey: "secret"})
	require.NoError(t, err)

	data, err := rest.Sequences.Data.Retrieve(context.Background(), core.ByExternalId("pump-1"), resources.SequenceDataQuery{Start: 0, End: 10})
	require.NoError(t, err)
	assert.Equal(t, "pump-1", data.ExternalID)
	assert.Equal(t, []int64{0, 1}, data.RowNumbers())
	assert.Equal(t, [][]any{{1.5}, {int64(2)}}, data.Values())

	require.Len(t, bodies, 1)
	item := bodies[0]["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "pump-1", item["externalId"])
	assert.Equal(t, float64(10), item["end"])
}
