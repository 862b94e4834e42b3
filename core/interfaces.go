package core

import (
	"context"
	"io"
	"net/http"
)

// CogniteResourceAPI defines the interface for standard operations on a platform resource.
type CogniteResourceAPI interface {
	Session() RESTSession
	GetResourceType() string
	GetResourcePath() string // normalized path, e.g. "/sequences"

	Create([]Params) (RecordSet, error)
	Retrieve(Identifier) (Record, error)
	RetrieveMultiple(*IdentifierSequence, bool) (RecordSet, error)
	List(Params, int) (RecordSet, error)
	Update([]Params) (RecordSet, error)
	Delete(*IdentifierSequence, Params) error
	Search(Params, Params, int) (RecordSet, error)
	GetIterator(Params, int) Iterator
	// Resource-level mutex lock for concurrent access control
	Lock(...any) func()
}

type CogniteResourceAPIWithContext interface {
	CogniteResourceAPI
	CreateWithContext(context.Context, []Params) (RecordSet, error)
	RetrieveWithContext(context.Context, Identifier) (Record, error)
	RetrieveMultipleWithContext(context.Context, *IdentifierSequence, bool) (RecordSet, error)
	ListWithContext(context.Context, Params, int) (RecordSet, error)
	UpdateWithContext(context.Context, []Params) (RecordSet, error)
	DeleteWithContext(context.Context, *IdentifierSequence, Params) error
	SearchWithContext(context.Context, Params, Params, int) (RecordSet, error)
	GetIteratorWithContext(context.Context, Params, int) Iterator
}

// InterceptableCogniteResourceAPI combines request interception with resource behavior.
type InterceptableCogniteResourceAPI interface {
	RequestInterceptor
	CogniteResourceAPIWithContext
}

// RequestInterceptor defines a middleware-style interface for intercepting API requests
// and responses. Resources shadow BeforeRequest/AfterRequest to customise a single endpoint.
type RequestInterceptor interface {
	// BeforeRequest is invoked prior to sending the API request.
	// body carries the uncompressed JSON payload.
	BeforeRequest(context.Context, *http.Request, string, string, io.Reader) error

	// AfterRequest is invoked after the API response is decoded into a Record or RecordSet.
	AfterRequest(context.Context, Renderable) (Renderable, error)

	// doBeforeRequest No need to implement on resources. For internal usage only
	doBeforeRequest(context.Context, *http.Request, string, string, io.Reader) error

	// doAfterRequest No need to implement on resources. For internal usage only
	doAfterRequest(context.Context, Renderable) (Renderable, error)
}

type CogniteRest interface {
	GetSession() RESTSession
	GetResourceMap() map[string]InterceptableCogniteResourceAPI
	GetCtx() context.Context
	SetCtx(context.Context)
}
