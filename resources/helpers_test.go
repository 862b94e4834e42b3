package resources

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/cogdata/go-cdf-client/core"
	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

const apiPrefix = "/api/v1/projects/test-project"

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Raw    []byte
	Body   map[string]any
}

type fakeHandler func(req recordedRequest) (int, any)

// fakePlatform records every request and answers with the handler's JSON, or raw bytes for []byte bodies.
type fakePlatform struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  fakeHandler
	server   *httptest.Server
}

func newFakePlatform(t *testing.T, handler fakeHandler) *fakePlatform {
	t.Helper()
	fp := &fakePlatform{handler: handler}
	fp.server = httptest.NewServer(http.HandlerFunc(fp.serve))
	t.Cleanup(fp.server.Close)
	return fp
}

func (fp *fakePlatform) serve(w http.ResponseWriter, r *http.Request) {
	var reader io.Reader = r.Body
	if r.Header.Get(core.HeaderContentEncoding) == core.ContentEncodingGzip {
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
		Raw:    raw,
	}
	if len(raw) > 0 && r.Header.Get(core.HeaderContentType) == core.ContentTypeJSON {
		dec := json.NewDecoder(strings.NewReader(string(raw)))
		dec.UseNumber()
		_ = dec.Decode(&rec.Body)
	}
	fp.mu.Lock()
	fp.requests = append(fp.requests, rec)
	fp.mu.Unlock()

	status, body := fp.handler(rec)
	if b, ok := body.([]byte); ok {
		w.Header().Set(core.HeaderContentType, core.ContentTypeOctetStream)
		w.WriteHeader(status)
		_, _ = w.Write(b)
		return
	}
	w.Header().Set(core.HeaderContentType, core.ContentTypeJSON)
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

func (fp *fakePlatform) callsTo(path string) []recordedRequest {
	var out []recordedRequest
	for _, c := range fp.calls() {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

type testRest struct {
	ctx         context.Context
	session     core.RESTSession
	resourceMap map[string]core.InterceptableCogniteResourceAPI
}

func (r *testRest) GetSession() core.RESTSession { return r.session }
func (r *testRest) GetResourceMap() map[string]core.InterceptableCogniteResourceAPI {
	return r.resourceMap
}
func (r *testRest) GetCtx() context.Context     { return r.ctx }
func (r *testRest) SetCtx(ctx context.Context) { r.ctx = ctx }

func newTestRest(t *testing.T, fp *fakePlatform, configure ...func(*core.Config)) *testRest {
	t.Helper()
	config := &core.Config{
		BaseURL:    fp.server.URL,
		Project:    "test-project",
		ApiKey:     "secret",
		MaxWorkers: 4,
	}
	for _, fn := range configure {
		fn(config)
	}
	require.NoError(t, config.Validate(core.DefaultValidators()...))
	session, err := core.NewCogniteSession(config)
	require.NoError(t, err)
	return &testRest{
		ctx:         context.Background(),
		session:     session,
		resourceMap: map[string]core.InterceptableCogniteResourceAPI{},
	}
}

func itemsOf(body map[string]any) []any {
	items, _ := body["items"].([]any)
	return items
}

func firstItem(body map[string]any) map[string]any {
	items := itemsOf(body)
	if len(items) == 0 {
		return nil
	}
	item, _ := items[0].(map[string]any)
	return item
}

func echoItems(req recordedRequest) (int, any) {
	return http.StatusOK, map[string]any{"items": itemsOf(req.Body)}
}

// num is how the fake decodes JSON numbers.
func num(s string) json.Number {
	return json.Number(s)
}
