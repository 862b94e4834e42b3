package core

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const dummyResourceType = "Dummy"

// Dummy resource is used to support Request interceptors for "low level" session methods like GET, POST etc.
type Dummy struct {
	*CogniteResource
}

type DummyRest struct {
	ctx         context.Context
	Session     RESTSession
	resourceMap map[string]InterceptableCogniteResourceAPI
}

func (rest *DummyRest) GetSession() RESTSession {
	return rest.Session
}

func (rest *DummyRest) GetResourceMap() map[string]InterceptableCogniteResourceAPI {
	return rest.resourceMap
}

func (rest *DummyRest) GetCtx() context.Context {
	return rest.ctx
}

func (rest *DummyRest) SetCtx(ctx context.Context) {
	rest.ctx = ctx
}

func NewDummy(ctx context.Context, session RESTSession) *Dummy {
	dummy := &Dummy{
		CogniteResource: &CogniteResource{
			resourceType: dummyResourceType,
			mu:           NewKeyLocker(),
		},
	}
	rest := &DummyRest{
		ctx:         ctx,
		Session:     session,
		resourceMap: map[string]InterceptableCogniteResourceAPI{dummyResourceType: dummy},
	}
	dummy.Rest = rest
	return dummy
}

//  ######################################################
//              RESOURCE BASE OPS
//  ######################################################

// CogniteResource implements CogniteResourceAPIWithContext on top of the platform's
// items-envelope endpoints: POST {path}, /byids, /list, /update, /delete and /search.
type CogniteResource struct {
	resourcePath       string
	resourceType       string
	Rest               CogniteRest
	mu                 *KeyLocker
	resourceOps        ResourceOps
	requiredApiVersion string // "" (any), "playground" or a go-version constraint
}

func NewCogniteResource(resourcePath, resourceType string, rest CogniteRest, resourceOps ResourceOps, requiredApiVersion string) *CogniteResource {
	return &CogniteResource{
		resourcePath:       resourcePath,
		resourceType:       resourceType,
		Rest:               rest,
		mu:                 NewKeyLocker(),
		resourceOps:        resourceOps,
		requiredApiVersion: requiredApiVersion,
	}
}

// Session returns the current session associated with the resource.
func (e *CogniteResource) Session() RESTSession {
	return e.Rest.GetSession()
}

func (e *CogniteResource) GetResourceType() string {
	return e.resourceType
}

func (e *CogniteResource) GetResourcePath() string {
	return "/" + strings.Trim(e.resourcePath, "/")
}

// Ops returns the operations allowed on this resource.
func (e *CogniteResource) Ops() ResourceOps {
	return e.resourceOps
}

// SubPath joins segments onto the resource path, e.g. SubPath("data", "list").
func (e *CogniteResource) SubPath(segments ...string) string {
	return strings.Join(append([]string{e.GetResourcePath()}, segments...), "/")
}

// Check validates that op is allowed and that the configured API version satisfies the resource.
// No request is sent when it fails.
func (e *CogniteResource) Check(op ResourceOps) error {
	if !e.resourceOps.has(op) {
		return &UnsupportedOperationError{Resource: e.resourceType, Operation: op}
	}
	return checkApiVersionCompat(e)
}

func (e *CogniteResource) maxWorkers() int {
	return e.Session().GetConfig().MaxWorkers
}

// CreateWithContext creates items in chunks of CreateChunkSize, issuing chunks concurrently.
// Results keep input order.
func (e *CogniteResource) CreateWithContext(ctx context.Context, items []Params) (RecordSet, error) {
	if err := e.Check(C); err != nil {
		return nil, err
	}
	return e.PostChunked(ctx, e.GetResourcePath(), items, CreateChunkSize, nil)
}

// PostChunked posts {"items": chunk, ...extra} for each chunk concurrently and concatenates the results.
func (e *CogniteResource) PostChunked(ctx context.Context, path string, items []Params, chunkSize int, extra Params) (RecordSet, error) {
	chunks := Chunk(items, chunkSize)
	tasks := make([]Task[RecordSet], 0, len(chunks))
	for _, chunk := range chunks {
		tasks = append(tasks, Task[RecordSet]{
			Input: chunk,
			Run: func(ctx context.Context) (RecordSet, error) {
				body := Params{"items": chunk}
				body.Update(extra, false)
				return Request[RecordSet](ctx, e, http.MethodPost, path, nil, body)
			},
		})
	}
	summary := ExecuteTasks(ctx, e.maxWorkers(), tasks)
	if err := summary.Err(); err != nil {
		return nil, err
	}
	result := RecordSet{}
	for _, rs := range summary.Results {
		result = append(result, rs...)
	}
	return result, nil
}

// RetrieveWithContext retrieves a single item. A missing item yields *NotFoundError.
func (e *CogniteResource) RetrieveWithContext(ctx context.Context, id Identifier) (Record, error) {
	if err := e.Check(R); err != nil {
		return nil, err
	}
	result, err := Request[RecordSet](ctx, e, http.MethodPost, e.SubPath("byids"), nil, Params{
		"items": []Params{id.Params()},
	})
	if err != nil {
		if IsNotFoundErr(err) {
			return nil, &NotFoundError{Resource: e.resourceType, Query: id.String()}
		}
		return nil, err
	}
	switch len(result) {
	case 0:
		return nil, &NotFoundError{Resource: e.resourceType, Query: id.String()}
	case 1:
		return result[0], nil
	}
	return nil, &TooManyItemsError{ResourcePath: e.GetResourcePath(), Query: id.String()}
}

// RetrieveMultipleWithContext retrieves items by id/external id. With ignoreUnknown unknown identifiers
// are skipped, otherwise the platform rejects the request.
func (e *CogniteResource) RetrieveMultipleWithContext(ctx context.Context, ids *IdentifierSequence, ignoreUnknown bool) (RecordSet, error) {
	if err := e.Check(R); err != nil {
		return nil, err
	}
	if ids == nil || ids.Len() == 0 {
		return RecordSet{}, nil
	}
	return e.PostChunked(ctx, e.SubPath("byids"), ids.AsItems(), RetrieveChunkSize, Params{"ignoreUnknownIds": ignoreUnknown})
}

// ListWithContext lists items matching filter. limit 0 means DefaultLimit, a negative limit means all.
func (e *CogniteResource) ListWithContext(ctx context.Context, filter Params, limit int) (RecordSet, error) {
	if err := e.Check(L); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	pageSize := e.Session().GetConfig().PageSize
	if limit > 0 && limit < pageSize {
		pageSize = limit
	}
	iter := e.GetIteratorWithContext(ctx, filter, pageSize)
	result := RecordSet{}
	for iter.HasNext() {
		page, err := iter.Next()
		if err != nil {
			return nil, err
		}
		result = append(result, page...)
		if limit > 0 && len(result) >= limit {
			return result[:limit], nil
		}
	}
	return result, nil
}

// UpdateWithContext sends update objects ({"id"|"externalId", "update": {...}}) in chunks.
func (e *CogniteResource) UpdateWithContext(ctx context.Context, items []Params) (RecordSet, error) {
	if err := e.Check(U); err != nil {
		return nil, err
	}
	return e.PostChunked(ctx, e.SubPath("update"), items, UpdateChunkSize, nil)
}

// DeleteWithContext deletes items in chunks. extra is merged into every request body
// (e.g. {"recursive": true} for assets).
func (e *CogniteResource) DeleteWithContext(ctx context.Context, ids *IdentifierSequence, extra Params) error {
	if err := e.Check(D); err != nil {
		return err
	}
	if ids == nil || ids.Len() == 0 {
		return nil
	}
	_, err := e.PostChunked(ctx, e.SubPath("delete"), ids.AsItems(), DeleteChunkSize, extra)
	return err
}

// SearchWithContext posts {"search": search, "filter": filter, "limit": limit} to /search.
func (e *CogniteResource) SearchWithContext(ctx context.Context, search, filter Params, limit int) (RecordSet, error) {
	if err := e.Check(S); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if search == nil {
		search = Params{}
	}
	body := Params{"search": search, "limit": limit}
	if filter != nil {
		body["filter"] = filter
	}
	return Request[RecordSet](ctx, e, http.MethodPost, e.SubPath("search"), nil, body)
}

// GetIteratorWithContext creates a cursor iterator over /list using the provided context.
// If pageSize <= 0 the session's configured PageSize is used.
func (e *CogniteResource) GetIteratorWithContext(ctx context.Context, filter Params, pageSize int) Iterator {
	return NewResourceIterator(ctx, e, filter, pageSize)
}

func (e *CogniteResource) Create(items []Params) (RecordSet, error) {
	return e.CreateWithContext(e.Rest.GetCtx(), items)
}

func (e *CogniteResource) Retrieve(id Identifier) (Record, error) {
	return e.RetrieveWithContext(e.Rest.GetCtx(), id)
}

func (e *CogniteResource) RetrieveMultiple(ids *IdentifierSequence, ignoreUnknown bool) (RecordSet, error) {
	return e.RetrieveMultipleWithContext(e.Rest.GetCtx(), ids, ignoreUnknown)
}

func (e *CogniteResource) List(filter Params, limit int) (RecordSet, error) {
	return e.ListWithContext(e.Rest.GetCtx(), filter, limit)
}

func (e *CogniteResource) Update(items []Params) (RecordSet, error) {
	return e.UpdateWithContext(e.Rest.GetCtx(), items)
}

func (e *CogniteResource) Delete(ids *IdentifierSequence, extra Params) error {
	return e.DeleteWithContext(e.Rest.GetCtx(), ids, extra)
}

func (e *CogniteResource) Search(search, filter Params, limit int) (RecordSet, error) {
	return e.SearchWithContext(e.Rest.GetCtx(), search, filter, limit)
}

func (e *CogniteResource) GetIterator(filter Params, pageSize int) Iterator {
	return e.GetIteratorWithContext(e.Rest.GetCtx(), filter, pageSize)
}

// Lock acquires the resource-level mutex for keys and returns a function to release it.
//
//	defer resource.Lock(id)()
func (e *CogniteResource) Lock(keys ...any) func() {
	return e.mu.Lock(keys...)
}

func (e *CogniteResource) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("| %s [%s] %s\n", e.resourceType, e.resourceOps, e.GetResourcePath()))
	if e.requiredApiVersion != "" {
		sb.WriteString(fmt.Sprintf("| requires api version: %s\n", e.requiredApiVersion))
	}
	return sb.String()
}

//  ######################################################
//              OPERATION FLAGS
//  ######################################################

// ResourceOps is a bitmask representing which operations are supported by a given resource.
type ResourceOps int

const (
	C ResourceOps = 1 << iota // Create
	L                         // List (cursor pagination)
	R                         // Retrieve by ids
	U                         // Update
	D                         // Delete
	S                         // Search
)

// NewResourceOps creates a new bitmask from the provided flags.
// Example: NewResourceOps(R, U) -> Retrieve+Update.
func NewResourceOps(flags ...ResourceOps) ResourceOps {
	var f ResourceOps
	for _, fl := range flags {
		f |= fl
	}
	return f
}

// has reports whether all given flags are present in the bitmask.
func (ops ResourceOps) has(flag ResourceOps) bool {
	return ops&flag == flag
}

// Has reports whether all given flags are present in the bitmask.
func (ops ResourceOps) Has(flag ResourceOps) bool {
	return ops.has(flag)
}

// String returns a compact string representation of the active flags.
// Example: "CLRUDS", "LR", or "-" if no flags are set.
func (ops ResourceOps) String() string {
	if ops == ResourceOps(0) {
		return "-"
	}
	var b strings.Builder
	for _, f := range []struct {
		flag ResourceOps
		char byte
	}{{C, 'C'}, {L, 'L'}, {R, 'R'}, {U, 'U'}, {D, 'D'}, {S, 'S'}} {
		if ops&f.flag != 0 {
			b.WriteByte(f.char)
		}
	}
	return b.String()
}
