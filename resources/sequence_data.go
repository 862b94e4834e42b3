package resources

import (
	"bytes"
	"fmt"
	"iter"
	"reflect"
	"strconv"
	"strings"

	"github.com/bndr/gotabulate"
	"github.com/cogdata/go-cdf-client/core"
	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// DataColumn identifies one column of sequence data. Either ID or ExternalID may be unset.
// A nil ID is unset; 0 is a valid id.
type DataColumn struct {
	ID         *int64    `json:"id,omitempty" msgpack:"id,omitempty"`
	ExternalID string    `json:"externalId,omitempty" msgpack:"externalId,omitempty"`
	ValueType  ValueType `json:"valueType,omitempty" msgpack:"valueType,omitempty"`
}

// SequenceRow is one row of a sequence: a row number and one value per column.
// Values are int64, float64, string or nil.
type SequenceRow struct {
	RowNumber int64 `json:"rowNumber" msgpack:"rowNumber"`
	Values    []any `json:"values" msgpack:"values"`
}

// ColumnNaming selects how columns are named when the data is turned into a table.
type ColumnNaming string

const (
	// NamingExternalIDIfExists uses external ids when every column has one and ids otherwise.
	NamingExternalIDIfExists ColumnNaming = "externalIdIfExists"
	NamingExternalID         ColumnNaming = "externalId"
	NamingID                 ColumnNaming = "id"
)

// ColumnNotFoundError is returned when a column lookup on SequenceData misses.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %s not found in sequence data", e.Column)
}

// SequenceData is an in-memory table of sequence rows. Row order is kept as given.
type SequenceData struct {
	ID         *int64
	ExternalID string
	Columns    []DataColumn

	rows  []SequenceRow
	index map[int64]int
}

type sequenceDataWire struct {
	ID         *int64        `json:"id,omitempty" msgpack:"id,omitempty"`
	ExternalID string        `json:"externalId,omitempty" msgpack:"externalId,omitempty"`
	Columns    []DataColumn  `json:"columns" msgpack:"columns"`
	Rows       []SequenceRow `json:"rows" msgpack:"rows"`
}

// NewSequenceData builds a table from columns and rows. Every row must hold one value per column.
// Integer and float cells are stored as int64 and float64; rows are copied.
func NewSequenceData(columns []DataColumn, rows []SequenceRow) (*SequenceData, error) {
	sd := &SequenceData{Columns: columns}
	if err := sd.setRows(rows); err != nil {
		return nil, err
	}
	return sd, nil
}

func (sd *SequenceData) setRows(rows []SequenceRow) error {
	index := make(map[int64]int, len(rows))
	out := make([]SequenceRow, len(rows))
	for i, row := range rows {
		if len(row.Values) != len(sd.Columns) {
			return fmt.Errorf("row %d has %d values, expected %d (one per column)", row.RowNumber, len(row.Values), len(sd.Columns))
		}
		values := make([]any, len(row.Values))
		for j, v := range row.Values {
			values[j] = normalizeCell(v)
		}
		out[i] = SequenceRow{RowNumber: row.RowNumber, Values: values}
		index[row.RowNumber] = i
	}
	sd.rows = out
	sd.index = index
	return nil
}

func (sd *SequenceData) wire() sequenceDataWire {
	rows := sd.rows
	if rows == nil {
		rows = []SequenceRow{}
	}
	columns := sd.Columns
	if columns == nil {
		columns = []DataColumn{}
	}
	return sequenceDataWire{ID: sd.ID, ExternalID: sd.ExternalID, Columns: columns, Rows: rows}
}

func (sd *SequenceData) fromWire(w sequenceDataWire) error {
	sd.ID = w.ID
	sd.ExternalID = w.ExternalID
	sd.Columns = w.Columns
	return sd.setRows(w.Rows)
}

// normalizeCell maps decoded numbers onto int64 or float64.
func normalizeCell(v any) any {
	switch n := v.(type) {
	case json.Number:
		return core.NormalizeValue(n)
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case float32:
		return float64(n)
	}
	return v
}

func (sd *SequenceData) MarshalJSON() ([]byte, error) {
	return json.Marshal(sd.wire())
}

// UnmarshalJSON reads the platform wire form. Integral numbers become int64, others float64.
func (sd *SequenceData) UnmarshalJSON(b []byte) error {
	var w sequenceDataWire
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&w); err != nil {
		return err
	}
	return sd.fromWire(w)
}

// MarshalMsgpack encodes the data as a compact msgpack snapshot.
func (sd *SequenceData) MarshalMsgpack() ([]byte, error) {
	return msgpack.Marshal(sd.wire())
}

func (sd *SequenceData) UnmarshalMsgpack(b []byte) error {
	var w sequenceDataWire
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.UseLooseInterfaceDecoding(true)
	if err := dec.Decode(&w); err != nil {
		return err
	}
	return sd.fromWire(w)
}

// UnmarshalSequenceDataMsgpack decodes a snapshot written by MarshalMsgpack.
func UnmarshalSequenceDataMsgpack(b []byte) (*SequenceData, error) {
	sd := &SequenceData{}
	if err := sd.UnmarshalMsgpack(b); err != nil {
		return nil, err
	}
	return sd, nil
}

func (sd *SequenceData) Len() int {
	return len(sd.rows)
}

// Rows returns the rows in order. The slice is shared with sd.
func (sd *SequenceData) Rows() []SequenceRow {
	return sd.rows
}

func (sd *SequenceData) RowNumbers() []int64 {
	out := make([]int64, len(sd.rows))
	for i, row := range sd.rows {
		out[i] = row.RowNumber
	}
	return out
}

func (sd *SequenceData) Values() [][]any {
	out := make([][]any, len(sd.rows))
	for i, row := range sd.rows {
		out[i] = row.Values
	}
	return out
}

// Row returns the values stored under rowNumber.
func (sd *SequenceData) Row(rowNumber int64) ([]any, bool) {
	i, ok := sd.index[rowNumber]
	if !ok {
		return nil, false
	}
	return sd.rows[i].Values, true
}

// All yields (rowNumber, values) pairs in row order.
func (sd *SequenceData) All() iter.Seq2[int64, []any] {
	return func(yield func(int64, []any) bool) {
		for _, row := range sd.rows {
			if !yield(row.RowNumber, row.Values) {
				return
			}
		}
	}
}

// ColumnIDs returns the column ids in order. Columns without an id report 0.
func (sd *SequenceData) ColumnIDs() []int64 {
	out := make([]int64, len(sd.Columns))
	for i, c := range sd.Columns {
		if c.ID != nil {
			out[i] = *c.ID
		}
	}
	return out
}

func (sd *SequenceData) ColumnExternalIDs() []string {
	out := make([]string, len(sd.Columns))
	for i, c := range sd.Columns {
		out[i] = c.ExternalID
	}
	return out
}

func (sd *SequenceData) column(pos int) []any {
	out := make([]any, len(sd.rows))
	for i, row := range sd.rows {
		out[i] = row.Values[pos]
	}
	return out
}

// GetColumn returns the values of the column with the given external id, in row order.
func (sd *SequenceData) GetColumn(externalID string) ([]any, error) {
	for i, c := range sd.Columns {
		if c.ExternalID != "" && c.ExternalID == externalID {
			return sd.column(i), nil
		}
	}
	return nil, &ColumnNotFoundError{Column: strconv.Quote(externalID)}
}

func (sd *SequenceData) GetColumnByID(id int64) ([]any, error) {
	for i, c := range sd.Columns {
		if c.ID != nil && *c.ID == id {
			return sd.column(i), nil
		}
	}
	return nil, &ColumnNotFoundError{Column: strconv.FormatInt(id, 10)}
}

// ColumnHeaders names the columns according to naming.
func (sd *SequenceData) ColumnHeaders(naming ColumnNaming) ([]string, error) {
	if naming == "" {
		naming = NamingExternalIDIfExists
	}
	headers := make([]string, len(sd.Columns))
	switch naming {
	case NamingExternalIDIfExists:
		for _, c := range sd.Columns {
			if c.ExternalID == "" {
				return sd.ColumnHeaders(NamingID)
			}
		}
		return sd.ColumnHeaders(NamingExternalID)
	case NamingExternalID:
		for i, c := range sd.Columns {
			headers[i] = c.ExternalID
		}
	case NamingID:
		for i, c := range sd.Columns {
			headers[i] = formatID(c.ID)
		}
	default:
		return nil, fmt.Errorf("invalid column naming %q: expected one of %s, %s, %s",
			naming, NamingExternalIDIfExists, NamingExternalID, NamingID)
	}
	return headers, nil
}

func (sd *SequenceData) Equal(other *SequenceData) bool {
	if sd == nil || other == nil {
		return sd == other
	}
	return reflect.DeepEqual(sd.wire(), other.wire())
}

// Dump returns the wire form as Params, with numbers as int64/float64.
func (sd *SequenceData) Dump() core.Params {
	b, err := json.Marshal(sd.wire())
	if err != nil {
		return core.Params{}
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw map[string]any
	if err = dec.Decode(&raw); err != nil {
		return core.Params{}
	}
	return core.Params(core.NormalizeValue(raw).(map[string]any))
}

// PrettyTable renders rows as a grid headed by rowNumber and the column names.
func (sd *SequenceData) PrettyTable() string {
	headers, _ := sd.ColumnHeaders(NamingExternalIDIfExists)
	headers = append([]string{"rowNumber"}, headers...)
	if len(sd.rows) == 0 {
		return fmt.Sprintf("%s\n<no rows>", strings.Join(headers, " | "))
	}
	rows := make([][]any, 0, len(sd.rows))
	for _, row := range sd.rows {
		cells := make([]any, 0, len(row.Values)+1)
		cells = append(cells, strconv.FormatInt(row.RowNumber, 10))
		for _, v := range row.Values {
			if v == nil {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, fmt.Sprintf("%v", v))
		}
		rows = append(rows, cells)
	}
	t := gotabulate.Create(rows)
	t.SetHeaders(headers)
	t.SetAlign("right")
	t.SetMaxCellSize(40)
	return t.Render("grid")
}

func (sd *SequenceData) PrettyJson(indent ...string) string {
	var (
		b   []byte
		err error
	)
	if len(indent) > 0 {
		b, err = json.MarshalIndent(sd.wire(), "", indent[0])
	} else {
		b, err = json.Marshal(sd.wire())
	}
	if err != nil {
		return fmt.Sprintf("failed to marshal JSON: %v", err)
	}
	return string(b)
}

func (sd *SequenceData) PrettyYaml() string {
	b, err := yaml.Marshal(map[string]any(sd.Dump()))
	if err != nil {
		return fmt.Sprintf("failed to marshal YAML: %v", err)
	}
	return string(b)
}

func (sd *SequenceData) String() string {
	return sd.PrettyTable()
}
