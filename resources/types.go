package resources

import (
	"context"
	"iter"

	"github.com/cogdata/go-cdf-client/core"
)

const TypeResourceType = "Type"

// TypeProperty is one typed property declared on a Type.
type TypeProperty struct {
	PropertyID string `json:"propertyId"`
	Name       string `json:"name,omitempty"`
	Type       string `json:"type"`
}

type TypeParent struct {
	ID      int64 `json:"id,omitempty"`
	Version int   `json:"version,omitempty"`
}

// Type is a template for the properties of other resources. Types live in the playground API.
type Type struct {
	ID              int64          `json:"id,omitempty"`
	ExternalID      string         `json:"externalId,omitempty"`
	Name            string         `json:"name,omitempty"`
	Description     string         `json:"description,omitempty"`
	Properties      []TypeProperty `json:"properties,omitempty"`
	ParentType      *TypeParent    `json:"parentType,omitempty"`
	CreatedTime     int64          `json:"createdTime,omitempty"`
	LastUpdatedTime int64          `json:"lastUpdatedTime,omitempty"`
}

func (t Type) DumpUpdate() (core.Params, error) {
	return core.ObjectToUpdate(t, "createdTime", "lastUpdatedTime", "properties", "parentType")
}

type TypeFilter struct {
	Name             string          `json:"name,omitempty"`
	ExternalIDPrefix string          `json:"externalIdPrefix,omitempty"`
	CreatedTime      *TimestampRange `json:"createdTime,omitempty"`
	LastUpdatedTime  *TimestampRange `json:"lastUpdatedTime,omitempty"`
}

type TypeUpdate struct {
	*core.UpdateBuilder
}

func NewTypeUpdate(id core.Identifier) *TypeUpdate {
	return &TypeUpdate{UpdateBuilder: core.NewUpdateBuilder(id)}
}

func (u *TypeUpdate) ExternalID() core.PrimitiveUpdate[string, *TypeUpdate] {
	return core.NewPrimitiveUpdate[string](u, u.UpdateBuilder, "externalId")
}

func (u *TypeUpdate) Name() core.PrimitiveUpdate[string, *TypeUpdate] {
	return core.NewPrimitiveUpdate[string](u, u.UpdateBuilder, "name")
}

func (u *TypeUpdate) Description() core.PrimitiveUpdate[string, *TypeUpdate] {
	return core.NewPrimitiveUpdate[string](u, u.UpdateBuilder, "description")
}

// TypesAPI manages types. Every call requires the playground API version.
type TypesAPI struct {
	typedResource[Type]
}

func NewTypesAPI(rest core.CogniteRest) *TypesAPI {
	return &TypesAPI{typedResource: typedResource[Type]{
		Untyped: newResource(rest, "/types", TypeResourceType, core.NewResourceOps(core.C, core.L, core.R, core.U, core.D), core.PlaygroundVersion),
	}}
}

func (a *TypesAPI) Create(ctx context.Context, types ...Type) ([]Type, error) {
	return a.create(ctx, types, nil)
}

func (a *TypesAPI) Retrieve(ctx context.Context, id core.Identifier) (*Type, error) {
	return a.retrieve(ctx, id)
}

func (a *TypesAPI) RetrieveMultiple(ctx context.Context, ids *core.IdentifierSequence, ignoreUnknown bool) ([]Type, error) {
	return a.retrieveMultiple(ctx, ids, ignoreUnknown)
}

// List fetches up to limit types, in pages of the configured page size.
func (a *TypesAPI) List(ctx context.Context, filter *TypeFilter, limit int) ([]Type, error) {
	return a.list(ctx, filter, limit)
}

func (a *TypesAPI) Pages(ctx context.Context, filter *TypeFilter, pageSize int) iter.Seq2[[]Type, error] {
	return a.pages(ctx, filter, pageSize)
}

func (a *TypesAPI) Update(ctx context.Context, updates ...core.UpdateItem) ([]Type, error) {
	return a.update(ctx, updates)
}

func (a *TypesAPI) Delete(ctx context.Context, ids *core.IdentifierSequence) error {
	return a.delete(ctx, ids, nil)
}
