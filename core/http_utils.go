package core

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

// errorEnvelope is the platform error body: {"error": {"code": 400, "message": "...", "missing": [...]}}
type errorEnvelope struct {
	Error struct {
		Code       int              `json:"code"`
		Message    string           `json:"message"`
		Missing    []map[string]any `json:"missing"`
		Duplicated []map[string]any `json:"duplicated"`
	} `json:"error"`
}

// validateResponse checks the response for valid HTTP status codes (specifically for 2xx codes).
// Non-2xx responses are converted into *ApiError; the body is consumed in that case.
func validateResponse(response *http.Response) error {
	requestURL := "<unknown URL>"
	method := "<unknown method>"
	if response == nil {
		return &ApiError{
			Method: method,
			URL:    requestURL,
			Body:   "server unreachable: verify the base url is correct and the network is accessible",
		}
	}
	if response.StatusCode >= 200 && response.StatusCode <= 299 {
		return nil
	}
	defer response.Body.Close()
	requestID := response.Header.Get(HeaderRequestID)
	if response.Request != nil {
		if response.Request.URL != nil {
			requestURL = redactURL(response.Request.URL.String())
		}
		method = response.Request.Method
		if requestID == "" {
			requestID = response.Request.Header.Get(HeaderRequestID)
		}
	}
	body, _ := io.ReadAll(response.Body)
	apiErr := &ApiError{
		Method:     method,
		URL:        requestURL,
		StatusCode: response.StatusCode,
		RequestID:  requestID,
		Body:       prettyBody(body),
	}
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		apiErr.Message = envelope.Error.Message
		apiErr.Missing = envelope.Error.Missing
		apiErr.Duplicated = envelope.Error.Duplicated
	}
	return apiErr
}

// pathToUrl returns a full URI string based on the provided input.
// Full URIs are returned unchanged, anything else is resolved against the project base path.
func pathToUrl(s RESTSession, input string) (string, error) {
	parsedURL, parseErr := urlpkg.Parse(input)
	if parseErr == nil && parsedURL.Scheme != "" {
		return input, nil
	}
	if !strings.HasPrefix(input, "/") {
		input = "/" + input
	}
	pathAndQuery, err := urlpkg.ParseRequestURI(input)
	if err != nil {
		return "", fmt.Errorf("invalid relative URL: %w", err)
	}
	return buildUrl(s, pathAndQuery.Path, pathAndQuery.RawQuery)
}

// buildUrl joins base url, api version, project and resource path:
// {BaseURL}/api/{ApiVersion}/projects/{Project}/{path}
func buildUrl(s RESTSession, path, query string) (string, error) {
	config := s.GetConfig()
	base, err := urlpkg.Parse(config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", config.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("invalid base url %q: scheme and host are required", config.BaseURL)
	}
	joined, err := urlpkg.JoinPath(
		base.String(), "api", config.ApiVersion, "projects", config.Project, strings.Trim(path, "/"),
	)
	if err != nil {
		return "", err
	}
	url := strings.TrimSuffix(joined, "/")
	if query != "" {
		url += "?" + query
	}
	return url, nil
}

// convertMapToQuery converts Params to a URL query string with keys in stable order.
// Values are stringified using fmt.Sprint.
func convertMapToQuery(params Params) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := urlpkg.Values{}
	for _, k := range keys {
		values.Set(k, fmt.Sprint(params[k]))
	}
	return values.Encode()
}

// prettyBody returns an indented version of a JSON body, or the raw body otherwise.
func prettyBody(body []byte) string {
	var b bytes.Buffer
	if err := json.Indent(&b, body, "", "  "); err == nil {
		return b.String()
	}
	return string(body)
}

func gzipPayload(payload []byte) (*bytes.Reader, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to compress request body: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress request body: %w", err)
	}
	return bytes.NewReader(buf.Bytes()), nil
}

// redactURL drops the query string, which carries signatures on upload/download urls.
func redactURL(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i]
	}
	return raw
}
