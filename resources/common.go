// Package resources holds the typed resource clients of the platform API.
//
// Every client wraps a *core.CogniteResource (exposed as Untyped) and converts
// between the platform's JSON records and Go structs.
package resources

import (
	"context"
	"iter"

	"github.com/cogdata/go-cdf-client/core"
)

// TimestampRange filters on a millisecond timestamp field. Bounds are inclusive.
type TimestampRange struct {
	Min *int64 `json:"min,omitempty"`
	Max *int64 `json:"max,omitempty"`
}

// Between returns the range [from, to].
func Between(from, to int64) *TimestampRange {
	return &TimestampRange{Min: &from, Max: &to}
}

// newResource creates a resource and registers it in the rest resource map so its interceptors run.
func newResource(rest core.CogniteRest, resourcePath, resourceType string, ops core.ResourceOps, requiredApiVersion string) *core.CogniteResource {
	resource := core.NewCogniteResource(resourcePath, resourceType, rest, ops, requiredApiVersion)
	rest.GetResourceMap()[resourceType] = resource
	return resource
}

// typedResource converts the untyped record operations of a resource to and from T.
type typedResource[T any] struct {
	Untyped *core.CogniteResource
}

func fillSlice[T any](rs core.RecordSet) ([]T, error) {
	out := make([]T, 0, len(rs))
	if err := rs.Fill(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func toParamsList[T any](items []T, prepare func(core.Params)) ([]core.Params, error) {
	params := make([]core.Params, 0, len(items))
	for _, item := range items {
		p, err := core.NewParamsFromStruct(item)
		if err != nil {
			return nil, err
		}
		if prepare != nil {
			prepare(p)
		}
		params = append(params, p)
	}
	return params, nil
}

func (r typedResource[T]) create(ctx context.Context, items []T, prepare func(core.Params)) ([]T, error) {
	params, err := toParamsList(items, prepare)
	if err != nil {
		return nil, err
	}
	result, err := r.Untyped.CreateWithContext(ctx, params)
	if err != nil {
		return nil, err
	}
	return fillSlice[T](result)
}

func (r typedResource[T]) retrieve(ctx context.Context, id core.Identifier) (*T, error) {
	record, err := r.Untyped.RetrieveWithContext(ctx, id)
	if err != nil {
		return nil, err
	}
	var out T
	if err = record.Fill(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r typedResource[T]) retrieveMultiple(ctx context.Context, ids *core.IdentifierSequence, ignoreUnknown bool) ([]T, error) {
	result, err := r.Untyped.RetrieveMultipleWithContext(ctx, ids, ignoreUnknown)
	if err != nil {
		return nil, err
	}
	return fillSlice[T](result)
}

func (r typedResource[T]) list(ctx context.Context, filter any, limit int) ([]T, error) {
	params, err := core.NewParamsFromStruct(filter)
	if err != nil {
		return nil, err
	}
	result, err := r.Untyped.ListWithContext(ctx, params, limit)
	if err != nil {
		return nil, err
	}
	return fillSlice[T](result)
}

// pages walks the list endpoint one page at a time. Iteration stops at the first error.
func (r typedResource[T]) pages(ctx context.Context, filter any, pageSize int) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		params, err := core.NewParamsFromStruct(filter)
		if err != nil {
			yield(nil, err)
			return
		}
		it := r.Untyped.GetIteratorWithContext(ctx, params, pageSize)
		for it.HasNext() {
			page, err := it.Next()
			if err != nil {
				yield(nil, err)
				return
			}
			items, err := fillSlice[T](page)
			if !yield(items, err) || err != nil {
				return
			}
		}
	}
}

func (r typedResource[T]) update(ctx context.Context, items []core.UpdateItem) ([]T, error) {
	params := make([]core.Params, 0, len(items))
	for _, item := range items {
		p, err := item.DumpUpdate()
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	result, err := r.Untyped.UpdateWithContext(ctx, params)
	if err != nil {
		return nil, err
	}
	return fillSlice[T](result)
}

func (r typedResource[T]) delete(ctx context.Context, ids *core.IdentifierSequence, extra core.Params) error {
	return r.Untyped.DeleteWithContext(ctx, ids, extra)
}

func (r typedResource[T]) search(ctx context.Context, search any, filter any, limit int) ([]T, error) {
	searchParams, err := core.NewParamsFromStruct(search)
	if err != nil {
		return nil, err
	}
	var filterParams core.Params
	if filter != nil {
		if filterParams, err = core.NewParamsFromStruct(filter); err != nil {
			return nil, err
		}
		if len(filterParams) == 0 {
			filterParams = nil
		}
	}
	result, err := r.Untyped.SearchWithContext(ctx, searchParams, filterParams, limit)
	if err != nil {
		return nil, err
	}
	return fillSlice[T](result)
}
