package core

import (
	"context"
	"fmt"
	"net/http"
)

// ######################################################
//              ITERATOR INTERFACES
// ######################################################

// Iterator walks the pages of a cursor-paginated list endpoint.
// The platform only hands out forward cursors, so there is no way back except Reset.
type Iterator interface {
	// Next advances to the next page and returns the records and any error.
	// Returns empty RecordSet when there are no more pages.
	Next() (RecordSet, error)

	// HasNext returns true if there is a next page available.
	HasNext() bool

	// Count returns the number of items fetched so far.
	Count() int

	// PageSize returns the current page size.
	PageSize() int

	// Reset restarts from the first page and returns the first page records.
	Reset() (RecordSet, error)

	// All fetches all remaining pages and returns all records as a single RecordSet.
	// This should be used with caution for large datasets.
	All() (RecordSet, error)
}

// ######################################################
//              RESOURCE ITERATOR IMPLEMENTATION
// ######################################################

// ResourceIterator implements Iterator over POST {path}/list with
// {"filter": ..., "limit": ..., "cursor": ...} bodies.
type ResourceIterator struct {
	resource CogniteResourceAPI
	ctx      context.Context
	filter   Params
	pageSize int

	current     RecordSet
	cursor      *string
	fetched     int
	initialized bool
}

// NewResourceIterator creates a cursor iterator. If pageSize is 0 or negative the session's PageSize is used.
func NewResourceIterator(ctx context.Context, resource CogniteResourceAPI, filter Params, pageSize int) Iterator {
	if pageSize <= 0 {
		pageSize = resource.Session().GetConfig().PageSize
	}
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return &ResourceIterator{
		resource: resource,
		ctx:      ctx,
		filter:   filter,
		pageSize: pageSize,
	}
}

// fetchPage requests one page and stores items and the next cursor.
func (it *ResourceIterator) fetchPage() error {
	body := Params{"limit": it.pageSize}
	if len(it.filter) > 0 {
		body["filter"] = it.filter
	}
	if it.cursor != nil {
		body["cursor"] = *it.cursor
	}
	path := it.resource.GetResourcePath() + "/list"
	envelope, err := Request[Record](it.ctx, it.resource, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	items, err := recordSetFromAny(envelope["items"])
	if err != nil {
		return fmt.Errorf("failed to read page items: %w", err)
	}
	if rt := it.resource.GetResourceType(); rt != dummyResourceType {
		if err = setResourceKey(items, rt); err != nil {
			return err
		}
	}
	it.current = items
	it.fetched += len(items)
	it.cursor = nil
	if next, ok := envelope["nextCursor"].(string); ok && next != "" {
		it.cursor = &next
	}
	it.initialized = true
	return nil
}

func (it *ResourceIterator) Next() (RecordSet, error) {
	if !it.HasNext() {
		return RecordSet{}, nil
	}
	if err := it.fetchPage(); err != nil {
		return nil, err
	}
	return it.current, nil
}

func (it *ResourceIterator) HasNext() bool {
	return !it.initialized || it.cursor != nil
}

func (it *ResourceIterator) Count() int {
	return it.fetched
}

func (it *ResourceIterator) PageSize() int {
	return it.pageSize
}

func (it *ResourceIterator) Reset() (RecordSet, error) {
	it.current = nil
	it.cursor = nil
	it.fetched = 0
	it.initialized = false
	return it.Next()
}

func (it *ResourceIterator) All() (RecordSet, error) {
	all := RecordSet{}
	for it.HasNext() {
		page, err := it.Next()
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
	}
	return all, nil
}
