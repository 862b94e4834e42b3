package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	caller contextKey = "@caller" // CogniteResource Caller object key
)

type RESTSession interface {
	Get(context.Context, string, Params, []http.Header) (Renderable, error)
	Post(context.Context, string, Params, []http.Header) (Renderable, error)
	Put(context.Context, string, Params, []http.Header) (Renderable, error)
	// Stream performs an unauthenticated request against an absolute (signed) URL
	// and hands back the raw response. The caller closes the body.
	Stream(context.Context, string, string, io.Reader, []http.Header) (*http.Response, error)
	GetConfig() *Config
	GetAuthenticator() Authenticator
}

type CogniteSession struct {
	config  *Config
	client  *http.Client
	auth    Authenticator
	metrics *clientMetrics
}

type CogniteSessionMethod func(context.Context, string, Params, []http.Header) (Renderable, error)

func NewCogniteSession(config *Config) (*CogniteSession, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxConnsPerHost = config.MaxConnections
	transport.MaxIdleConnsPerHost = config.MaxConnections
	client := &http.Client{Transport: transport}
	if config.Timeout != nil {
		client.Timeout = *config.Timeout
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	authenticator, err := createAuthenticator(config)
	if err != nil {
		return nil, err
	}
	metrics, err := newClientMetrics(config.MetricsRegisterer)
	if err != nil {
		return nil, err
	}
	return &CogniteSession{
		config:  config,
		client:  client,
		auth:    authenticator,
		metrics: metrics,
	}, nil
}

func Request[T RecordUnion](
	ctx context.Context,
	r CogniteResourceAPI,
	verb, path string,
	params, body Params,
) (T, error) {
	return RequestWithHeaders[T](ctx, r, verb, path, params, body, nil)
}

func RequestWithHeaders[T RecordUnion](
	ctx context.Context,
	r CogniteResourceAPI,
	verb, path string,
	params, body Params,
	headers []http.Header,
) (T, error) {
	var (
		sessionMethod CogniteSessionMethod
		query         string
	)
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, caller, r)
	verb = strings.ToUpper(verb)
	session := r.Session()

	switch verb {
	case http.MethodGet:
		sessionMethod = session.Get
	case http.MethodPost:
		sessionMethod = session.Post
	case http.MethodPut:
		sessionMethod = session.Put
	default:
		return nil, fmt.Errorf("unknown verb: %s", verb)
	}
	if params != nil {
		query = params.ToQuery()
	}
	url, err := buildUrl(session, path, query)
	if err != nil {
		return nil, err
	}

	response, err := sessionMethod(ctx, url, body, headers)
	if err != nil {
		return nil, err
	}

	var zero T
	if record, ok := response.(Record); ok && typeMatch[RecordSet](Renderable(zero)) {
		// List-like endpoints wrap results as {"items": [...]}; single objects are promoted to a set.
		if items, hasItems := record["items"]; hasItems {
			recordSet, err := recordSetFromAny(items)
			if err != nil {
				return nil, fmt.Errorf("failed to read items from %s response: %w", url, err)
			}
			if rt := r.GetResourceType(); rt != dummyResourceType {
				if err = setResourceKey(recordSet, rt); err != nil {
					return nil, err
				}
			}
			response = recordSet
		} else if !record.Empty() {
			response = RecordSet{record}
		} else {
			response = RecordSet{}
		}
	}

	resultVal, ok := response.(T)
	if !ok {
		return nil, fmt.Errorf(
			"unexpected response type for request to %s: got %T, expected %T: "+
				"consider converting the response to the expected type inside the AfterRequest interceptor",
			url,
			response,
			zero,
		)
	}
	return resultVal, nil
}

func (s *CogniteSession) Get(ctx context.Context, url string, params Params, headers []http.Header) (Renderable, error) {
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + params.ToQuery()
	}
	return doRequest(ctx, s, http.MethodGet, url, nil, headers)
}

func (s *CogniteSession) Post(ctx context.Context, url string, body Params, headers []http.Header) (Renderable, error) {
	return doRequest(ctx, s, http.MethodPost, url, body, headers)
}

func (s *CogniteSession) Put(ctx context.Context, url string, body Params, headers []http.Header) (Renderable, error) {
	return doRequest(ctx, s, http.MethodPut, url, body, headers)
}

func (s *CogniteSession) Stream(ctx context.Context, verb, url string, body io.Reader, headers []http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(verb), url, body)
	if err != nil {
		return nil, err
	}
	for _, header := range headers {
		for key, values := range header {
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}
	}
	start := time.Now()
	response, err := s.client.Do(req)
	if err != nil {
		s.metrics.observe(req.Method, "Stream", 0, time.Since(start))
		return nil, fmt.Errorf("failed to perform %s request to %s: %w", req.Method, redactURL(url), err)
	}
	s.metrics.observe(req.Method, "Stream", response.StatusCode, time.Since(start))
	s.config.Logger.Debug("stream request done",
		zap.String("method", req.Method),
		zap.String("url", redactURL(url)),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	if err = validateResponse(response); err != nil {
		return nil, err
	}
	return response, nil
}

func (s *CogniteSession) GetConfig() *Config {
	return s.config
}

func (s *CogniteSession) GetAuthenticator() Authenticator {
	return s.auth
}

func consolidateHeaders(s RESTSession, customHeaders []http.Header) http.Header {
	finalHeaders := make(http.Header)
	config := s.GetConfig()

	// Apply custom headers first
	for _, header := range customHeaders {
		for key, values := range header {
			for _, value := range values {
				finalHeaders.Add(key, value)
			}
		}
	}

	// Set default headers only if not already provided
	if finalHeaders.Get(HeaderAccept) == "" {
		finalHeaders.Set(HeaderAccept, ContentTypeJSON)
	}
	if finalHeaders.Get(HeaderContentType) == "" {
		finalHeaders.Set(HeaderContentType, ContentTypeJSON)
	}
	if finalHeaders.Get(HeaderSdk) == "" {
		finalHeaders.Set(HeaderSdk, SdkIdentifier())
	}
	if finalHeaders.Get(HeaderApp) == "" {
		finalHeaders.Set(HeaderApp, config.ClientName)
	}
	if finalHeaders.Get(HeaderUserAgent) == "" {
		finalHeaders.Set(HeaderUserAgent, fmt.Sprintf("%s/%s", DefaultClientName, ClientVersion()))
	}
	if finalHeaders.Get(HeaderRequestID) == "" {
		finalHeaders.Set(HeaderRequestID, uuid.NewString())
	}
	return finalHeaders
}

func setupHeaders(s RESTSession, r *http.Request, headers http.Header) error {
	if err := s.GetAuthenticator().setAuthHeader(&r.Header); err != nil {
		return err
	}
	for key, values := range headers {
		for _, value := range values {
			r.Header.Add(key, value)
		}
	}
	return nil
}

// doRequest Create and process the new HTTP request using the context
func doRequest(ctx context.Context, s *CogniteSession, verb, url string, body Params, headers []http.Header) (Renderable, error) {
	var (
		config         = s.GetConfig()
		resourceCaller InterceptableCogniteResourceAPI
		payload        []byte
		err            error
	)
	if originResource, ok := ctx.Value(caller).(InterceptableCogniteResourceAPI); ok {
		resourceCaller = originResource
	} else {
		resourceCaller = NewDummy(ctx, s)
	}
	if url, err = pathToUrl(s, url); err != nil {
		return nil, err
	}
	finalHeaders := consolidateHeaders(s, headers)

	requestData := io.Reader(bytes.NewReader(nil))
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		if config.DisableGzip {
			requestData = bytes.NewReader(payload)
		} else {
			compressed, err := gzipPayload(payload)
			if err != nil {
				return nil, err
			}
			requestData = compressed
			finalHeaders.Set(HeaderContentEncoding, ContentEncodingGzip)
		}
	}
	req, err := http.NewRequestWithContext(ctx, verb, url, requestData)
	if err != nil {
		return nil, err
	}
	if err = setupHeaders(s, req, finalHeaders); err != nil {
		return nil, err
	}

	var beforeRequestData io.Reader
	if payload != nil {
		beforeRequestData = bytes.NewReader(payload)
	}
	if err = resourceCaller.doBeforeRequest(ctx, req, verb, url, beforeRequestData); err != nil {
		return nil, err
	}

	start := time.Now()
	response, responseErr := s.client.Do(req)
	if responseErr != nil {
		s.metrics.observe(verb, resourceCaller.GetResourceType(), 0, time.Since(start))
		return nil, fmt.Errorf("failed to perform %s request to %s: %w", verb, url, responseErr)
	}
	s.metrics.observe(verb, resourceCaller.GetResourceType(), response.StatusCode, time.Since(start))
	config.Logger.Debug("http request done",
		zap.String("method", verb),
		zap.String("url", url),
		zap.String("requestId", finalHeaders.Get(HeaderRequestID)),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	if err = validateResponse(response); err != nil {
		return nil, err
	}
	result, err := unmarshalToRecordUnion(response)
	if err != nil {
		return nil, err
	}
	return resourceCaller.doAfterRequest(ctx, result)
}
