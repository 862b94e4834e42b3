package resources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cogdata/go-cdf-client/core"
	"github.com/goccy/go-json"
)

const SequenceDataResourceType = "SequenceData"

// Row limits of the sequence data endpoints.
const (
	MaxRowsPerRequest   = 10000
	MaxValuesPerRequest = 100000
	MaxRowsPerPage      = 10000
)

// sequenceRowsResource reshapes /sequences/data/list responses. The platform answers with a
// flat {"id", "columns", "rows", "nextCursor"} object, which is moved under "items".
type sequenceRowsResource struct {
	*core.CogniteResource
}

func (r *sequenceRowsResource) AfterRequest(_ context.Context, response core.Renderable) (core.Renderable, error) {
	rec, ok := response.(core.Record)
	if !ok {
		return response, nil
	}
	if _, hasItems := rec["items"]; hasItems {
		return response, nil
	}
	if _, hasRows := rec["rows"]; !hasRows {
		return response, nil
	}
	item := map[string]any{}
	for k, v := range rec {
		if k != "nextCursor" {
			item[k] = v
		}
	}
	out := core.Record{"items": []any{item}}
	if cursor, ok := rec["nextCursor"]; ok {
		out["nextCursor"] = cursor
	}
	return out, nil
}

// ColumnSelection picks sequence columns either by id or by external id, never both.
type ColumnSelection struct {
	IDs         []int64
	ExternalIDs []string
}

func ColumnsByID(ids ...int64) ColumnSelection {
	return ColumnSelection{IDs: ids}
}

func ColumnsByExternalID(externalIDs ...string) ColumnSelection {
	return ColumnSelection{ExternalIDs: externalIDs}
}

func (c ColumnSelection) Len() int {
	return len(c.IDs) + len(c.ExternalIDs)
}

func (c ColumnSelection) items() ([]core.Params, error) {
	if len(c.IDs) > 0 && len(c.ExternalIDs) > 0 {
		return nil, errors.New("columns must be selected either by id or by external id")
	}
	out := make([]core.Params, 0, c.Len())
	for _, id := range c.IDs {
		out = append(out, core.Params{"id": id})
	}
	for _, xid := range c.ExternalIDs {
		if xid == "" {
			return nil, errors.New("column external ids must not be empty: select the columns by id instead")
		}
		out = append(out, core.Params{"externalId": xid})
	}
	return out, nil
}

// SequenceDataQuery bounds a row retrieval. Start is inclusive and End exclusive; End <= 0 reads to the
// last row. Columns are external ids (all columns when empty). Limit <= 0 fetches every row in range.
type SequenceDataQuery struct {
	Start   int64
	End     int64
	Columns []string
	Limit   int
}

// SequencesDataAPI reads and writes sequence rows.
type SequencesDataAPI struct {
	Untyped   *core.CogniteResource
	sequences *SequencesAPI
}

func newSequencesDataAPI(rest core.CogniteRest, sequences *SequencesAPI) *SequencesDataAPI {
	resource := core.NewCogniteResource("/sequences/data", SequenceDataResourceType, rest, core.NewResourceOps(core.C, core.L, core.D), "")
	rest.GetResourceMap()[SequenceDataResourceType] = &sequenceRowsResource{CogniteResource: resource}
	return &SequencesDataAPI{Untyped: resource, sequences: sequences}
}

func (a *SequencesDataAPI) post(ctx context.Context, path string, body core.Params) (core.Record, error) {
	return core.Request[core.Record](ctx, a.Untyped, http.MethodPost, path, nil, body)
}

// RowsFromMap turns a rowNumber -> values map into rows sorted by row number.
func RowsFromMap(values map[int64][]any) []SequenceRow {
	rows := make([]SequenceRow, 0, len(values))
	for n, v := range values {
		rows = append(rows, SequenceRow{RowNumber: n, Values: v})
	}
	slices.SortFunc(rows, func(a, b SequenceRow) int {
		switch {
		case a.RowNumber < b.RowNumber:
			return -1
		case a.RowNumber > b.RowNumber:
			return 1
		}
		return 0
	})
	return rows
}

// rowsPerChunk keeps every request under both the row and the value limit.
func rowsPerChunk(columns int) int {
	if columns <= 0 {
		return MaxRowsPerRequest
	}
	return max(1, min(MaxRowsPerRequest, MaxValuesPerRequest/columns))
}

// Insert writes rows into the target sequence. Each row holds one value per selected column.
// An empty selection writes to every column of the sequence, in column order.
// Concurrent inserts into the same sequence are serialized; chunks of one insert run concurrently.
func (a *SequencesDataAPI) Insert(ctx context.Context, target core.Identifier, columns ColumnSelection, rows []SequenceRow) error {
	if err := a.Untyped.Check(core.C); err != nil {
		return err
	}
	if target.IsZero() {
		return errors.New("insert needs a sequence id or external id")
	}
	if columns.Len() == 0 {
		seq, err := a.sequences.Retrieve(ctx, target)
		if err != nil {
			return fmt.Errorf("failed to look up columns of sequence %s: %w", target, err)
		}
		columns = ColumnsByID(seq.ColumnIDs()...)
	}
	columnItems, err := columns.items()
	if err != nil {
		return err
	}
	for _, row := range rows {
		if len(row.Values) != len(columnItems) {
			return fmt.Errorf("row %d has %d values, expected %d (one per column)", row.RowNumber, len(row.Values), len(columnItems))
		}
	}
	if len(rows) == 0 {
		return nil
	}

	defer a.Untyped.Lock("insert", target.String())()

	chunks := core.Chunk(rows, rowsPerChunk(len(columnItems)))
	tasks := make([]core.Task[core.Record], 0, len(chunks))
	for _, chunk := range chunks {
		item := target.Params()
		item["columns"] = columnItems
		item["rows"] = chunk
		tasks = append(tasks, core.Task[core.Record]{
			Input: fmt.Sprintf("rows %d..%d", chunk[0].RowNumber, chunk[len(chunk)-1].RowNumber),
			Run: func(ctx context.Context) (core.Record, error) {
				return a.post(ctx, a.Untyped.GetResourcePath(), core.Params{"items": []core.Params{item}})
			},
		})
	}
	return core.ExecuteTasks(ctx, a.Untyped.Session().GetConfig().MaxWorkers, tasks).Err()
}

// InsertData writes a SequenceData table. Columns are addressed by id when every column has one,
// otherwise by external id.
func (a *SequencesDataAPI) InsertData(ctx context.Context, target core.Identifier, data *SequenceData) error {
	selection, err := selectionOf(data.Columns)
	if err != nil {
		return err
	}
	return a.Insert(ctx, target, selection, data.Rows())
}

func selectionOf(columns []DataColumn) (ColumnSelection, error) {
	byID := len(columns) > 0
	for _, c := range columns {
		if c.ID == nil {
			byID = false
			break
		}
	}
	if byID {
		ids := make([]int64, len(columns))
		for i, c := range columns {
			ids[i] = *c.ID
		}
		return ColumnsByID(ids...), nil
	}
	xids := make([]string, len(columns))
	for i, c := range columns {
		if c.ExternalID == "" {
			return ColumnSelection{}, fmt.Errorf("column %d has neither an id nor an external id", i)
		}
		xids[i] = c.ExternalID
	}
	return ColumnsByExternalID(xids...), nil
}

// InsertArrow writes an Arrow record with a rowNumber field. Other field names are column
// external ids when externalIDHeaders is set and column ids otherwise.
func (a *SequencesDataAPI) InsertArrow(ctx context.Context, target core.Identifier, rec arrow.Record, externalIDHeaders bool) error {
	data, err := SequenceDataFromArrow(rec, externalIDHeaders)
	if err != nil {
		return err
	}
	selection := ColumnSelection{}
	if externalIDHeaders {
		selection.ExternalIDs = data.ColumnExternalIDs()
	} else {
		selection.IDs = data.ColumnIDs()
	}
	return a.Insert(ctx, target, selection, data.Rows())
}

// Retrieve reads the rows of the target sequence in query range, following cursors until the range
// or the limit is exhausted. Rows keep the order the platform returns them in.
func (a *SequencesDataAPI) Retrieve(ctx context.Context, target core.Identifier, query SequenceDataQuery) (*SequenceData, error) {
	if err := a.Untyped.Check(core.L); err != nil {
		return nil, err
	}
	if target.IsZero() {
		return nil, errors.New("retrieve needs a sequence id or external id")
	}
	var (
		result *SequenceData
		rows   []SequenceRow
		cursor string
	)
	for {
		pageLimit := MaxRowsPerPage
		if query.Limit > 0 {
			pageLimit = min(pageLimit, query.Limit-len(rows))
		}
		item := target.Params()
		item["start"] = query.Start
		item["limit"] = pageLimit
		if query.End > 0 {
			item["end"] = query.End
		}
		if len(query.Columns) > 0 {
			item["columns"] = query.Columns
		}
		if cursor != "" {
			item["cursor"] = cursor
		}
		record, err := a.post(ctx, a.Untyped.SubPath("list"), core.Params{"items": []core.Params{item}})
		if err != nil {
			return nil, err
		}
		page, next, err := decodeDataPage(record)
		if err != nil {
			return nil, err
		}
		if result == nil {
			result = page
		}
		rows = append(rows, page.Rows()...)
		if next == "" || (query.Limit > 0 && len(rows) >= query.Limit) {
			break
		}
		cursor = next
	}
	if query.Limit > 0 && len(rows) > query.Limit {
		rows = rows[:query.Limit]
	}
	if err := result.setRows(rows); err != nil {
		return nil, err
	}
	return result, nil
}

func decodeDataPage(record core.Record) (*SequenceData, string, error) {
	items, ok := record["items"].([]any)
	if !ok || len(items) == 0 {
		return nil, "", errors.New("sequence data response holds no items")
	}
	raw, err := json.Marshal(items[0])
	if err != nil {
		return nil, "", err
	}
	page := &SequenceData{}
	if err = page.UnmarshalJSON(raw); err != nil {
		return nil, "", fmt.Errorf("failed to decode sequence data: %w", err)
	}
	next, _ := record["nextCursor"].(string)
	return page, next, nil
}

// RetrieveArrow is Retrieve followed by ToArrow. The caller releases the record.
func (a *SequencesDataAPI) RetrieveArrow(ctx context.Context, target core.Identifier, query SequenceDataQuery, mem memory.Allocator, naming ColumnNaming) (arrow.Record, error) {
	data, err := a.Retrieve(ctx, target, query)
	if err != nil {
		return nil, err
	}
	return data.ToArrow(mem, naming)
}

// Delete removes the given rows from the target sequence.
func (a *SequencesDataAPI) Delete(ctx context.Context, target core.Identifier, rowNumbers []int64) error {
	if err := a.Untyped.Check(core.D); err != nil {
		return err
	}
	if target.IsZero() {
		return errors.New("delete needs a sequence id or external id")
	}
	if len(rowNumbers) == 0 {
		return nil
	}
	chunks := core.Chunk(rowNumbers, MaxRowsPerRequest)
	tasks := make([]core.Task[core.Record], 0, len(chunks))
	for _, chunk := range chunks {
		item := target.Params()
		item["rows"] = chunk
		tasks = append(tasks, core.Task[core.Record]{
			Input: chunk,
			Run: func(ctx context.Context) (core.Record, error) {
				return a.post(ctx, a.Untyped.SubPath("delete"), core.Params{"items": []core.Params{item}})
			},
		})
	}
	return core.ExecuteTasks(ctx, a.Untyped.Session().GetConfig().MaxWorkers, tasks).Err()
}

// DeleteRange removes every row in [start, end). Only the first column is read to find the rows.
func (a *SequencesDataAPI) DeleteRange(ctx context.Context, target core.Identifier, start, end int64) error {
	seq, err := a.sequences.Retrieve(ctx, target)
	if err != nil {
		return err
	}
	query := SequenceDataQuery{Start: start, End: end}
	if len(seq.Columns) > 0 && seq.Columns[0].ExternalID != "" {
		query.Columns = []string{seq.Columns[0].ExternalID}
	}
	data, err := a.Retrieve(ctx, target, query)
	if err != nil {
		return err
	}
	return a.Delete(ctx, target, data.RowNumbers())
}
