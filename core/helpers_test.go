package core

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   map[string]any
}

// fakePlatform answers requests with canned JSON per "METHOD path" and records what it received.
type fakePlatform struct {
	t        *testing.T
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(req recordedRequest) (int, any)
	server   *httptest.Server
}

func newFakePlatform(t *testing.T, handler func(req recordedRequest) (int, any)) *fakePlatform {
	t.Helper()
	fp := &fakePlatform{t: t, handler: handler}
	fp.server = httptest.NewServer(http.HandlerFunc(fp.serve))
	t.Cleanup(fp.server.Close)
	return fp
}

func (fp *fakePlatform) serve(w http.ResponseWriter, r *http.Request) {
	var reader io.Reader = r.Body
	if r.Header.Get(HeaderContentEncoding) == ContentEncodingGzip {
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer zr.Close()
		reader = zr
	}
	raw, _ := io.ReadAll(reader)
	rec := recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
	}
	if len(raw) > 0 {
		dec := json.NewDecoder(strings.NewReader(string(raw)))
		dec.UseNumber()
		_ = dec.Decode(&rec.Body)
	}
	fp.mu.Lock()
	fp.requests = append(fp.requests, rec)
	fp.mu.Unlock()

	status, body := fp.handler(rec)
	w.Header().Set(HeaderContentType, ContentTypeJSON)
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func (fp *fakePlatform) calls() []recordedRequest {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	out := make([]recordedRequest, len(fp.requests))
	copy(out, fp.requests)
	return out
}

// testRest is a minimal CogniteRest used by core tests.
type testRest struct {
	ctx         context.Context
	session     RESTSession
	resourceMap map[string]InterceptableCogniteResourceAPI
}

func (r *testRest) GetSession() RESTSession { return r.session }
func (r *testRest) GetResourceMap() map[string]InterceptableCogniteResourceAPI {
	return r.resourceMap
}
func (r *testRest) GetCtx() context.Context     { return r.ctx }
func (r *testRest) SetCtx(ctx context.Context) { r.ctx = ctx }

func newTestConfig(baseURL string) *Config {
	return &Config{
		BaseURL:    baseURL,
		Project:    "test-project",
		ApiKey:     "secret",
		MaxWorkers: 4,
	}
}

func newTestRest(t *testing.T, config *Config) *testRest {
	t.Helper()
	require.NoError(t, config.Validate(DefaultValidators()...))
	session, err := NewCogniteSession(config)
	require.NoError(t, err)
	return &testRest{
		ctx:         context.Background(),
		session:     session,
		resourceMap: map[string]InterceptableCogniteResourceAPI{},
	}
}

func (r *testRest) register(resource InterceptableCogniteResourceAPI) {
	r.resourceMap[resource.GetResourceType()] = resource
}

func newTestResource(t *testing.T, fp *fakePlatform, path, resourceType string, ops ResourceOps) (*CogniteResource, *testRest) {
	t.Helper()
	rest := newTestRest(t, newTestConfig(fp.server.URL))
	resource := NewCogniteResource(path, resourceType, rest, ops, "")
	rest.register(resource)
	return resource, rest
}

func itemsOf(body map[string]any) []any {
	items, _ := body["items"].([]any)
	return items
}
