package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ApiError represents an error returned from an API request.
type ApiError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
	Missing    []map[string]any // identifiers reported as unknown by the platform
	Duplicated []map[string]any // identifiers reported as duplicated by the platform
	RequestID  string
	Body       string
}

// Error implements the error interface.
func (e *ApiError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("response body: %s", e.Body)
	}
	msg := e.Message
	if msg == "" {
		msg = e.Body
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s request to %s returned status code %d: %s", e.Method, e.URL, e.StatusCode, msg)
	if e.RequestID != "" {
		fmt.Fprintf(&sb, " (request id %s)", e.RequestID)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&sb, "\nmissing: %v", e.Missing)
	}
	if len(e.Duplicated) > 0 {
		fmt.Fprintf(&sb, "\nduplicated: %v", e.Duplicated)
	}
	return sb.String()
}

func IsApiError(err error) bool {
	var apiErr *ApiError
	return errors.As(err, &apiErr)
}

// AsApiError unwraps err into an *ApiError.
func AsApiError(err error) (*ApiError, bool) {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func IgnoreStatusCodes(err error, codes ...int) error {
	apiErr, ok := AsApiError(err)
	if !ok {
		return err
	}
	for _, code := range codes {
		if apiErr.StatusCode == code {
			return nil
		}
	}
	return err
}

func ExpectStatusCodes(err error, codes ...int) bool {
	apiErr, ok := AsApiError(err)
	if !ok {
		return false
	}
	for _, code := range codes {
		if apiErr.StatusCode == code {
			return true
		}
	}
	return false
}

type NotFoundError struct {
	Resource string
	Query    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource '%s' not found for '%s'", e.Resource, e.Query)
}

type TooManyItemsError struct {
	ResourcePath string
	Query        string
}

func (e *TooManyItemsError) Error() string {
	return fmt.Sprintf("too many items found for resource '%s' with '%s'", e.ResourcePath, e.Query)
}

// IsNotFoundErr matches *NotFoundError, 404 responses and 400 responses listing missing identifiers.
func IsNotFoundErr(err error) bool {
	var nfErr *NotFoundError
	if errors.As(err, &nfErr) {
		return true
	}
	apiErr, ok := AsApiError(err)
	if !ok {
		return false
	}
	return apiErr.StatusCode == http.StatusNotFound ||
		(apiErr.StatusCode == http.StatusBadRequest && len(apiErr.Missing) > 0)
}

func IgnoreNotFound[T any](val T, err error) (T, error) {
	if IsNotFoundErr(err) {
		return val, nil
	}
	return val, err
}

func IsTooManyItemsErr(err error) bool {
	var tooManyErr *TooManyItemsError
	return errors.As(err, &tooManyErr)
}

// CompoundError is returned when some tasks of a chunked operation failed.
// Succeeded holds the results of tasks that completed, Failed the inputs of those that did not.
type CompoundError struct {
	Succeeded []any
	Failed    []any
	Errs      []error
}

func (e *CompoundError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf(
		"%d of %d tasks failed: %s",
		len(e.Failed), len(e.Failed)+len(e.Succeeded), strings.Join(msgs, "; "),
	)
}

func (e *CompoundError) Unwrap() []error {
	return e.Errs
}

func IsCompoundErr(err error) bool {
	var cErr *CompoundError
	return errors.As(err, &cErr)
}

// UnsupportedApiVersionError is returned before any I/O when a resource needs another API version.
type UnsupportedApiVersionError struct {
	Resource string
	Required string
	Actual   string
}

func (e *UnsupportedApiVersionError) Error() string {
	return fmt.Sprintf("resource %q requires api version %q, client is configured with %q", e.Resource, e.Required, e.Actual)
}

// UnsupportedOperationError is returned when a resource does not allow the requested operation.
type UnsupportedOperationError struct {
	Resource  string
	Operation ResourceOps
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("operation %s is not supported by resource %q", e.Operation, e.Resource)
}
