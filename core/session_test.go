package core

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestSession_RequestHeadersAndGzipBody(t *testing.T) {
	fp := newFakePlatform(t, func(req recordedRequest) (int, any) {
		return http.StatusOK, map[string]any{"items": []any{map[string]any{"id": 7}}}
	})
	rest := newTestRest(t, newTestConfig(fp.server.URL))

	_, err := rest.GetSession().Post(context.Background(), "sequences/byids", Params{"items": []Params{{"id": 7}}}, nil)
	require.NoError(t, err)

	calls := fp.calls()
	require.Len(t, calls, 1)
	call := calls[0]
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/api/v1/projects/test-project/sequences/byids", call.Path)
	assert.Equal(t, "secret", call.Header.Get(HeaderApiKey))
	assert.Equal(t, ContentEncodingGzip, call.Header.Get(HeaderContentEncoding))
	assert.Equal(t, SdkIdentifier(), call.Header.Get(HeaderSdk))
	assert.Equal(t, DefaultClientName, call.Header.Get(HeaderApp))
	assert.NotEmpty(t, call.Header.Get(HeaderRequestID))
	assert.Equal(t, []any{map[string]any{"id": json.Number("7")}}, itemsOf(call.Body))
}

func TestSession_DisableGzip(t *testing.T) {
	fp := newFakePlatform(t, func(req recordedRequest) (int, any) {
		return http.StatusOK, map[string]any{}
	})
	config := newTestConfig(fp.server.URL)
	config.DisableGzip = true
	rest := newTestRest(t, config)

	_, err := rest.GetSession().Post(context.Background(), "events/delete", Params{"items": []Params{{"id": 1}}}, nil)
	require.NoError(t, err)
	call := fp.calls()[0]
	assert.Empty(t, call.Header.Get(HeaderContentEncoding))
	assert.Len(t, itemsOf(call.Body), 1)
}

func TestSession_GetWithQueryParams(t *testing.T) {
	fp := newFakePlatform(t, func(req recordedRequest) (int, any) {
		return http.StatusOK, map[string]any{"items": []any{}}
	})
	rest := newTestRest(t, newTestConfig(fp.server.URL))

	result, err := rest.GetSession().Get(context.Background(), "/assets", Params{"limit": 5, "name": "pump"}, nil)
	require.NoError(t, err)
	assert.IsType(t, Record{}, result)

	call := fp.calls()[0]
	assert.Equal(t, http.MethodGet, call.Method)
	assert.Equal(t, "limit=5&name=pump", call.Query)
}

func TestSession_TokenAuthenticator(t *testing.T) {
	fp := newFakePlatform(t, func(req recordedRequest) (int, any) {
		return http.StatusOK, map[string]any{}
	})
	config := newTestConfig(fp.server.URL)
	config.ApiKey = ""
	config.TokenSource = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "abc"})
	rest := newTestRest(t, config)

	_, err := rest.GetSession().Get(context.Background(), "/assets", nil, nil)
	require.NoError(t, err)
	call := fp.calls()[0]
	assert.Equal(t, "Bearer abc", call.Header.Get(HeaderAuthorization))
	assert.Empty(t, call.Header.Get(HeaderApiKey))
}

func TestSession_ApiErrorParsing(t *testing.T) {
	fp := newFakePlatform(t, func(req recordedRequest) (int, any) {
		return http.StatusBadRequest, map[string]any{
			"error": map[string]any{
				"code":    400,
				"message": "Ids not found",
				"missing": []any{map[string]any{"id": 42}},
			},
		}
	})
	rest := newTestRest(t, newTestConfig(fp.server.URL))

	_, err := rest.GetSession().Post(context.Background(), "sequences/byids", Params{"items": []Params{{"id": 42}}}, nil)
	require.Error(t, err)

	apiErr, ok := AsApiError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Ids not found", apiErr.Message)
	require.Len(t, apiErr.Missing, 1)
	assert.NotEmpty(t, apiErr.RequestID)
	assert.True(t, IsNotFoundErr(err))
	assert.True(t, ExpectStatusCodes(err, http.StatusBadRequest))
	assert.NoError(t, IgnoreStatusCodes(err, http.StatusBadRequest))
	assert.Contains(t, err.Error(), "Ids not found")
}

func TestSession_Stream(t *testing.T) {
	fp := newFakePlatform(t, func(req recordedRequest) (int, any) {
		return http.StatusOK, "file-content"
	})
	rest := newTestRest(t, newTestConfig(fp.server.URL))

	resp, err := rest.GetSession().Stream(
		context.Background(), http.MethodPut, fp.server.URL+"/upload?sig=1",
		strings.NewReader("payload"),
		[]http.Header{{HeaderUploadContentType: []string{"text/plain"}}},
	)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Contains(t, string(body), "file-content")

	call := fp.calls()[0]
	assert.Equal(t, "/upload", call.Path)
	assert.Equal(t, "text/plain", call.Header.Get(HeaderUploadContentType))
	assert.Empty(t, call.Header.Get(HeaderApiKey), "signed urls must not receive credentials")
}

func TestSession_Metrics(t *testing.T) {
	fp := newFakePlatform(t, func(req recordedRequest) (int, any) {
		return http.StatusOK, map[string]any{}
	})
	registry := prometheus.NewRegistry()
	config := newTestConfig(fp.server.URL)
	config.MetricsRegisterer = registry
	rest := newTestRest(t, config)

	// A second session on the same registry reuses the collectors.
	other := newTestConfig(fp.server.URL)
	other.MetricsRegisterer = registry
	newTestRest(t, other)

	_, err := rest.GetSession().Get(context.Background(), "/assets", nil, nil)
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(registry, "cdf_client_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBuildUrl(t *testing.T) {
	rest := newTestRest(t, newTestConfig("https://api.cognitedata.com/"))
	url, err := buildUrl(rest.GetSession(), "/sequences/data/list", "")
	require.NoError(t, err)
	assert.Equal(t, "https://api.cognitedata.com/api/v1/projects/test-project/sequences/data/list", url)

	url, err = pathToUrl(rest.GetSession(), "files?overwrite=true")
	require.NoError(t, err)
	assert.Equal(t, "https://api.cognitedata.com/api/v1/projects/test-project/files?overwrite=true", url)

	url, err = pathToUrl(rest.GetSession(), "https://storage.example.com/upload")
	require.NoError(t, err)
	assert.Equal(t, "https://storage.example.com/upload", url)
}
