package resources

import (
	"context"
	"errors"
	"iter"

	"github.com/cogdata/go-cdf-client/core"
)

const SequenceResourceType = "Sequence"

// ValueType is the declared type of a sequence column.
type ValueType string

const (
	ValueTypeString ValueType = "STRING"
	ValueTypeDouble ValueType = "DOUBLE"
	ValueTypeLong   ValueType = "LONG"
)

type SequenceColumn struct {
	ID              int64             `json:"id,omitempty"`
	ExternalID      string            `json:"externalId,omitempty"`
	Name            string            `json:"name,omitempty"`
	Description     string            `json:"description,omitempty"`
	ValueType       ValueType         `json:"valueType,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedTime     int64             `json:"createdTime,omitempty"`
	LastUpdatedTime int64             `json:"lastUpdatedTime,omitempty"`
}

type Sequence struct {
	ID              int64             `json:"id,omitempty"`
	ExternalID      string            `json:"externalId,omitempty"`
	Name            string            `json:"name,omitempty"`
	Description     string            `json:"description,omitempty"`
	AssetID         int64             `json:"assetId,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	Columns         []SequenceColumn  `json:"columns,omitempty"`
	CreatedTime     int64             `json:"createdTime,omitempty"`
	LastUpdatedTime int64             `json:"lastUpdatedTime,omitempty"`

	data *SequencesDataAPI
}

// ColumnIDs returns the column ids in column order.
func (s *Sequence) ColumnIDs() []int64 {
	ids := make([]int64, len(s.Columns))
	for i, c := range s.Columns {
		ids[i] = c.ID
	}
	return ids
}

// ColumnExternalIDs returns the column external ids in column order, "" where a column has none.
func (s *Sequence) ColumnExternalIDs() []string {
	xids := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		xids[i] = c.ExternalID
	}
	return xids
}

func (s *Sequence) ColumnValueTypes() []ValueType {
	types := make([]ValueType, len(s.Columns))
	for i, c := range s.Columns {
		types[i] = c.ValueType
	}
	return types
}

// Identifier prefers the id and falls back to the external id.
func (s *Sequence) Identifier() core.Identifier {
	if s.ID != 0 {
		return core.ById(s.ID)
	}
	if s.ExternalID != "" {
		return core.ByExternalId(s.ExternalID)
	}
	return core.Identifier{}
}

// Rows retrieves the rows in [start, end) of all columns. end <= 0 means up to the last row.
// Only sequences returned by SequencesAPI can fetch their rows.
func (s *Sequence) Rows(ctx context.Context, start, end int64) (*SequenceData, error) {
	if s.data == nil {
		return nil, errors.New("sequence is not bound to a client: retrieve it through SequencesAPI first")
	}
	return s.data.Retrieve(ctx, s.Identifier(), SequenceDataQuery{Start: start, End: end})
}

func (s Sequence) DumpUpdate() (core.Params, error) {
	return core.ObjectToUpdate(s, "createdTime", "lastUpdatedTime", "columns")
}

type SequenceFilter struct {
	Name             string            `json:"name,omitempty"`
	ExternalIDPrefix string            `json:"externalIdPrefix,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	AssetIDs         []int64           `json:"assetIds,omitempty"`
	RootAssetIDs     []int64           `json:"rootAssetIds,omitempty"`
	CreatedTime      *TimestampRange   `json:"createdTime,omitempty"`
	LastUpdatedTime  *TimestampRange   `json:"lastUpdatedTime,omitempty"`
}

type SequenceSearch struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Query       string `json:"query,omitempty"`
}

type SequenceUpdate struct {
	*core.UpdateBuilder
}

func NewSequenceUpdate(id core.Identifier) *SequenceUpdate {
	return &SequenceUpdate{UpdateBuilder: core.NewUpdateBuilder(id)}
}

func (u *SequenceUpdate) AssetID() core.PrimitiveUpdate[int64, *SequenceUpdate] {
	return core.NewPrimitiveUpdate[int64](u, u.UpdateBuilder, "assetId")
}

func (u *SequenceUpdate) Description() core.PrimitiveUpdate[string, *SequenceUpdate] {
	return core.NewPrimitiveUpdate[string](u, u.UpdateBuilder, "description")
}

func (u *SequenceUpdate) ExternalID() core.PrimitiveUpdate[string, *SequenceUpdate] {
	return core.NewPrimitiveUpdate[string](u, u.UpdateBuilder, "externalId")
}

func (u *SequenceUpdate) Name() core.PrimitiveUpdate[string, *SequenceUpdate] {
	return core.NewPrimitiveUpdate[string](u, u.UpdateBuilder, "name")
}

func (u *SequenceUpdate) Metadata() core.ObjectUpdate[string, *SequenceUpdate] {
	return core.NewObjectUpdate[string](u, u.UpdateBuilder, "metadata")
}

// SequencesAPI manages sequences. Row data lives under Data.
type SequencesAPI struct {
	typedResource[Sequence]
	Data *SequencesDataAPI
}

func NewSequencesAPI(rest core.CogniteRest) *SequencesAPI {
	api := &SequencesAPI{typedResource: typedResource[Sequence]{
		Untyped: newResource(rest, "/sequences", SequenceResourceType, core.NewResourceOps(core.C, core.L, core.R, core.U, core.D, core.S), ""),
	}}
	api.Data = newSequencesDataAPI(rest, api)
	return api
}

func (a *SequencesAPI) bind(seqs []Sequence) []Sequence {
	for i := range seqs {
		seqs[i].data = a.Data
	}
	return seqs
}

// stripColumnServerFields drops the column fields the platform assigns itself.
func stripColumnServerFields(p core.Params) {
	columns, ok := p["columns"].([]any)
	if !ok {
		return
	}
	for _, column := range columns {
		if c, ok := column.(map[string]any); ok {
			delete(c, "id")
			delete(c, "createdTime")
			delete(c, "lastUpdatedTime")
		}
	}
}

// Create creates sequences. Column ids and timestamps are assigned by the platform and never sent.
func (a *SequencesAPI) Create(ctx context.Context, sequences ...Sequence) ([]Sequence, error) {
	created, err := a.create(ctx, sequences, stripColumnServerFields)
	return a.bind(created), err
}

func (a *SequencesAPI) Retrieve(ctx context.Context, id core.Identifier) (*Sequence, error) {
	seq, err := a.retrieve(ctx, id)
	if err != nil {
		return nil, err
	}
	seq.data = a.Data
	return seq, nil
}

func (a *SequencesAPI) RetrieveMultiple(ctx context.Context, ids *core.IdentifierSequence, ignoreUnknown bool) ([]Sequence, error) {
	seqs, err := a.retrieveMultiple(ctx, ids, ignoreUnknown)
	return a.bind(seqs), err
}

func (a *SequencesAPI) List(ctx context.Context, filter *SequenceFilter, limit int) ([]Sequence, error) {
	seqs, err := a.list(ctx, filter, limit)
	return a.bind(seqs), err
}

func (a *SequencesAPI) Pages(ctx context.Context, filter *SequenceFilter, pageSize int) iter.Seq2[[]Sequence, error] {
	return func(yield func([]Sequence, error) bool) {
		for page, err := range a.pages(ctx, filter, pageSize) {
			if !yield(a.bind(page), err) {
				return
			}
		}
	}
}

func (a *SequencesAPI) Update(ctx context.Context, updates ...core.UpdateItem) ([]Sequence, error) {
	seqs, err := a.update(ctx, updates)
	return a.bind(seqs), err
}

func (a *SequencesAPI) Delete(ctx context.Context, ids *core.IdentifierSequence) error {
	return a.delete(ctx, ids, nil)
}

func (a *SequencesAPI) Search(ctx context.Context, search SequenceSearch, filter *SequenceFilter, limit int) ([]Sequence, error) {
	seqs, err := a.search(ctx, search, filter, limit)
	return a.bind(seqs), err
}
