package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// maxLoggedBody bounds request/response previews written at debug level.
const maxLoggedBody = 2048

// ######################################################
//
//	REQUEST/RESPONSE INTERCEPTORS
//
// ######################################################

// BeforeRequest No op in current implementation. Shadow this method on a type embedding
// *CogniteResource to customise requests for that resource.
func (e *CogniteResource) BeforeRequest(_ context.Context, r *http.Request, verb, url string, body io.Reader) error {
	return nil
}

// AfterRequest No op in current implementation. Shadow this method on a type embedding
// *CogniteResource to reshape responses for that resource.
func (e *CogniteResource) AfterRequest(_ context.Context, response Renderable) (Renderable, error) {
	return response, nil
}

// doBeforeRequest Do not override this method in resource implementations. For internal use only
func (e *CogniteResource) doBeforeRequest(ctx context.Context, r *http.Request, verb, url string, body io.Reader) error {
	config := e.Session().GetConfig()
	resourceCaller, err := e.resolveCaller()
	if err != nil {
		return err
	}
	beforeRequestLog(config.Logger, e.resourceType, r, verb, url, body)
	if err = resourceCaller.BeforeRequest(ctx, r, verb, url, body); err != nil {
		return err
	}
	// User-defined callback
	if config.BeforeRequestFn != nil {
		return config.BeforeRequestFn(ctx, r, verb, url, body)
	}
	return nil
}

// doAfterRequest Do not override this method in resource implementations. For internal use only
func (e *CogniteResource) doAfterRequest(ctx context.Context, response Renderable) (Renderable, error) {
	config := e.Session().GetConfig()
	resourceCaller, err := e.resolveCaller()
	if err != nil {
		return nil, err
	}
	afterRequestLog(config.Logger, e.resourceType, response)
	if response, err = resourceCaller.AfterRequest(ctx, response); err != nil {
		return nil, err
	}
	// User-defined callback
	if config.AfterRequestFn != nil {
		if response, err = config.AfterRequestFn(ctx, response); err != nil {
			return nil, err
		}
	}
	if e.resourceType != dummyResourceType {
		if err = setResourceKey(response, e.resourceType); err != nil {
			return nil, err
		}
	}
	return response, nil
}

// resolveCaller finds the registered resource for this type so that shadowed interceptors run.
func (e *CogniteResource) resolveCaller() (RequestInterceptor, error) {
	resourceCaller, ok := e.Rest.GetResourceMap()[e.resourceType]
	if !ok {
		return nil, fmt.Errorf("resource not found in resourceMap for %s", e.resourceType)
	}
	return resourceCaller, nil
}

// ######################################################
//
//	REQUEST/RESPONSE LOGGING
//
// ######################################################

func beforeRequestLog(logger *zap.Logger, resourceType string, r *http.Request, verb, url string, body io.Reader) {
	if !logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	fields := []zap.Field{
		zap.String("resource", resourceType),
		zap.String("method", verb),
		zap.String("url", url),
		zap.String("requestId", r.Header.Get(HeaderRequestID)),
	}
	if body != nil {
		bodyBytes, err := io.ReadAll(body)
		if err != nil {
			logger.Warn("failed to read request body for logging", zap.Error(err))
		} else if preview := compactPreview(bodyBytes); preview != "" {
			fields = append(fields, zap.String("body", preview))
		}
	}
	logger.Debug("http request start", fields...)
}

func afterRequestLog(logger *zap.Logger, resourceType string, response Renderable) {
	if !logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	fields := []zap.Field{zap.String("resource", resourceType)}
	switch resp := response.(type) {
	case Record:
		if items, ok := resp["items"].([]any); ok {
			fields = append(fields, zap.Int("items", len(items)))
		}
		if _, ok := resp["nextCursor"]; ok {
			fields = append(fields, zap.Bool("hasNextCursor", true))
		}
	case RecordSet:
		fields = append(fields, zap.Int("records", len(resp)))
	}
	fields = append(fields, zap.String("body", truncate(response.PrettyJson())))
	logger.Debug("http response", fields...)
}

func compactPreview(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err == nil {
		return truncate(compact.String())
	}
	return truncate(string(trimmed))
}

func truncate(s string) string {
	if len(s) <= maxLoggedBody {
		return s
	}
	return s[:maxLoggedBody] + "...(truncated)"
}
