package resources

import (
	"context"
	"iter"

	"github.com/cogdata/go-cdf-client/core"
)

const EventResourceType = "Event"

type Event struct {
	ID              int64             `json:"id,omitempty"`
	ExternalID      string            `json:"externalId,omitempty"`
	StartTime       int64             `json:"startTime,omitempty"`
	EndTime         int64             `json:"endTime,omitempty"`
	Type            string            `json:"type,omitempty"`
	Subtype         string            `json:"subtype,omitempty"`
	Description     string            `json:"description,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	AssetIDs        []int64           `json:"assetIds,omitempty"`
	Source          string            `json:"source,omitempty"`
	CreatedTime     int64             `json:"createdTime,omitempty"`
	LastUpdatedTime int64             `json:"lastUpdatedTime,omitempty"`
}

func (e Event) DumpUpdate() (core.Params, error) {
	return core.ObjectToUpdate(e, "createdTime", "lastUpdatedTime")
}

type EventFilter struct {
	StartTime        *TimestampRange   `json:"startTime,omitempty"`
	EndTime          *TimestampRange   `json:"endTime,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	AssetIDs         []int64           `json:"assetIds,omitempty"`
	RootAssetIDs     []core.Identifier `json:"rootAssetIds,omitempty"`
	Source           string            `json:"source,omitempty"`
	Type             string            `json:"type,omitempty"`
	Subtype          string            `json:"subtype,omitempty"`
	CreatedTime      *TimestampRange   `json:"createdTime,omitempty"`
	LastUpdatedTime  *TimestampRange   `json:"lastUpdatedTime,omitempty"`
	ExternalIDPrefix string            `json:"externalIdPrefix,omitempty"`
}

type EventSearch struct {
	Description string `json:"description,omitempty"`
}

type EventUpdate struct {
	*core.UpdateBuilder
}

func NewEventUpdate(id core.Identifier) *EventUpdate {
	return &EventUpdate{UpdateBuilder: core.NewUpdateBuilder(id)}
}

func (u *EventUpdate) ExternalID() core.PrimitiveUpdate[string, *EventUpdate] {
	return core.NewPrimitiveUpdate[string](u, u.UpdateBuilder, "externalId")
}

func (u *EventUpdate) StartTime() core.PrimitiveUpdate[int64, *EventUpdate] {
	return core.NewPrimitiveUpdate[int64](u, u.UpdateBuilder, "startTime")
}

func (u *EventUpdate) EndTime() core.PrimitiveUpdate[int64, *EventUpdate] {
	return core.NewPrimitiveUpdate[int64](u, u.UpdateBuilder, "endTime")
}

func (u *EventUpdate) Description() core.PrimitiveUpdate[string, *EventUpdate] {
	return core.NewPrimitiveUpdate[string](u, u.UpdateBuilder, "description")
}

func (u *EventUpdate) Type() core.PrimitiveUpdate[string, *EventUpdate] {
	return core.NewPrimitiveUpdate[string](u, u.UpdateBuilder, "type")
}

func (u *EventUpdate) Subtype() core.PrimitiveUpdate[string, *EventUpdate] {
	return core.NewPrimitiveUpdate[string](u, u.UpdateBuilder, "subtype")
}

func (u *EventUpdate) Source() core.PrimitiveUpdate[string, *EventUpdate] {
	return core.NewPrimitiveUpdate[string](u, u.UpdateBuilder, "source")
}

func (u *EventUpdate) Metadata() core.ObjectUpdate[string, *EventUpdate] {
	return core.NewObjectUpdate[string](u, u.UpdateBuilder, "metadata")
}

func (u *EventUpdate) AssetIDs() core.ListUpdate[int64, *EventUpdate] {
	return core.NewListUpdate[int64](u, u.UpdateBuilder, "assetIds")
}

type EventsAPI struct {
	typedResource[Event]
}

func NewEventsAPI(rest core.CogniteRest) *EventsAPI {
	return &EventsAPI{typedResource[Event]{
		Untyped: newResource(rest, "/events", EventResourceType, core.NewResourceOps(core.C, core.L, core.R, core.U, core.D, core.S), ""),
	}}
}

func (a *EventsAPI) Create(ctx context.Context, events ...Event) ([]Event, error) {
	return a.create(ctx, events, nil)
}

func (a *EventsAPI) Retrieve(ctx context.Context, id core.Identifier) (*Event, error) {
	return a.retrieve(ctx, id)
}

func (a *EventsAPI) RetrieveMultiple(ctx context.Context, ids *core.IdentifierSequence, ignoreUnknown bool) ([]Event, error) {
	return a.retrieveMultiple(ctx, ids, ignoreUnknown)
}

func (a *EventsAPI) List(ctx context.Context, filter *EventFilter, limit int) ([]Event, error) {
	return a.list(ctx, filter, limit)
}

func (a *EventsAPI) Pages(ctx context.Context, filter *EventFilter, pageSize int) iter.Seq2[[]Event, error] {
	return a.pages(ctx, filter, pageSize)
}

func (a *EventsAPI) Update(ctx context.Context, updates ...core.UpdateItem) ([]Event, error) {
	return a.update(ctx, updates)
}

func (a *EventsAPI) Delete(ctx context.Context, ids *core.IdentifierSequence) error {
	return a.delete(ctx, ids, nil)
}

// Search runs a fuzzy description search, optionally narrowed by filter.
func (a *EventsAPI) Search(ctx context.Context, description string, filter *EventFilter, limit int) ([]Event, error) {
	return a.search(ctx, EventSearch{Description: description}, filter, limit)
}
