package resources

import (
	"context"
	"iter"

	"github.com/cogdata/go-cdf-client/core"
)

const AssetResourceType = "Asset"

type Asset struct {
	ID               int64             `json:"id,omitempty"`
	ExternalID       string            `json:"externalId,omitempty"`
	Name             string            `json:"name,omitempty"`
	ParentID         int64             `json:"parentId,omitempty"`
	ParentExternalID string            `json:"parentExternalId,omitempty"`
	Description      string            `json:"description,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	Source           string            `json:"source,omitempty"`
	RootID           int64             `json:"rootId,omitempty"`
	CreatedTime      int64             `json:"createdTime,omitempty"`
	LastUpdatedTime  int64             `json:"lastUpdatedTime,omitempty"`
}

// DumpUpdate makes a full Asset usable as an update that sets every non-empty field.
func (a Asset) DumpUpdate() (core.Params, error) {
	return core.ObjectToUpdate(a, "createdTime", "lastUpdatedTime", "rootId", "parentExternalId")
}

type AssetFilter struct {
	Name             string            `json:"name,omitempty"`
	ParentIDs        []int64           `json:"parentIds,omitempty"`
	RootIDs          []core.Identifier `json:"rootIds,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	Source           string            `json:"source,omitempty"`
	CreatedTime      *TimestampRange   `json:"createdTime,omitempty"`
	LastUpdatedTime  *TimestampRange   `json:"lastUpdatedTime,omitempty"`
	Root             *bool             `json:"root,omitempty"`
	ExternalIDPrefix string            `json:"externalIdPrefix,omitempty"`
}

// AssetSearch holds the fuzzy search terms of /assets/search.
type AssetSearch struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Query       string `json:"query,omitempty"`
}

type AssetUpdate struct {
	*core.UpdateBuilder
}

func NewAssetUpdate(id core.Identifier) *AssetUpdate {
	return &AssetUpdate{UpdateBuilder: core.NewUpdateBuilder(id)}
}

func (u *AssetUpdate) ExternalID() core.PrimitiveUpdate[string, *AssetUpdate] {
	return core.NewPrimitiveUpdate[string](u, u.UpdateBuilder, "externalId")
}

func (u *AssetUpdate) Name() core.PrimitiveUpdate[string, *AssetUpdate] {
	return core.NewPrimitiveUpdate[string](u, u.UpdateBuilder, "name")
}

func (u *AssetUpdate) Description() core.PrimitiveUpdate[string, *AssetUpdate] {
	return core.NewPrimitiveUpdate[string](u, u.UpdateBuilder, "description")
}

func (u *AssetUpdate) Source() core.PrimitiveUpdate[string, *AssetUpdate] {
	return core.NewPrimitiveUpdate[string](u, u.UpdateBuilder, "source")
}

func (u *AssetUpdate) ParentID() core.PrimitiveUpdate[int64, *AssetUpdate] {
	return core.NewPrimitiveUpdate[int64](u, u.UpdateBuilder, "parentId")
}

func (u *AssetUpdate) Metadata() core.ObjectUpdate[string, *AssetUpdate] {
	return core.NewObjectUpdate[string](u, u.UpdateBuilder, "metadata")
}

// AssetsAPI manages assets, the nodes of the asset hierarchy.
type AssetsAPI struct {
	typedResource[Asset]
}

func NewAssetsAPI(rest core.CogniteRest) *AssetsAPI {
	return &AssetsAPI{typedResource[Asset]{
		Untyped: newResource(rest, "/assets", AssetResourceType, core.NewResourceOps(core.C, core.L, core.R, core.U, core.D, core.S), ""),
	}}
}

func (a *AssetsAPI) Create(ctx context.Context, assets ...Asset) ([]Asset, error) {
	return a.create(ctx, assets, nil)
}

func (a *AssetsAPI) Retrieve(ctx context.Context, id core.Identifier) (*Asset, error) {
	return a.retrieve(ctx, id)
}

func (a *AssetsAPI) RetrieveMultiple(ctx context.Context, ids *core.IdentifierSequence, ignoreUnknown bool) ([]Asset, error) {
	return a.retrieveMultiple(ctx, ids, ignoreUnknown)
}

func (a *AssetsAPI) List(ctx context.Context, filter *AssetFilter, limit int) ([]Asset, error) {
	return a.list(ctx, filter, limit)
}

func (a *AssetsAPI) Pages(ctx context.Context, filter *AssetFilter, pageSize int) iter.Seq2[[]Asset, error] {
	return a.pages(ctx, filter, pageSize)
}

func (a *AssetsAPI) Update(ctx context.Context, updates ...core.UpdateItem) ([]Asset, error) {
	return a.update(ctx, updates)
}

// Delete removes assets. With recursive the whole subtree under each asset is removed.
func (a *AssetsAPI) Delete(ctx context.Context, ids *core.IdentifierSequence, recursive bool) error {
	var extra core.Params
	if recursive {
		extra = core.Params{"recursive": true}
	}
	return a.delete(ctx, ids, extra)
}

func (a *AssetsAPI) Search(ctx context.Context, search AssetSearch, filter *AssetFilter, limit int) ([]Asset, error) {
	return a.search(ctx, search, filter, limit)
}
