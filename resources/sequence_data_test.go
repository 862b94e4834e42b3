package resources

import (
	"testing"

	"github.com/cogdata/go-cdf-client/core"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleData(t *testing.T) *SequenceData {
	t.Helper()
	data, err := NewSequenceData(
		[]DataColumn{
			{ID: core.Ptr[int64](3), ExternalID: "temp", ValueType: ValueTypeDouble},
			{ID: core.Ptr[int64](4), ExternalID: "count", ValueType: ValueTypeLong},
			{ID: core.Ptr[int64](5), ExternalID: "state", ValueType: ValueTypeString},
		},
		[]SequenceRow{
			{RowNumber: 10, Values: []any{1.5, int64(7), "on"}},
			{RowNumber: 2, Values: []any{nil, int64(8), "off"}},
			{RowNumber: 30, Values: []any{2.25, nil, nil}},
		},
	)
	require.NoError(t, err)
	data.ID = core.Ptr[int64](42)
	data.ExternalID = "pump-1"
	return data
}

func TestNewSequenceData_RowLengthMismatch(t *testing.T) {
	_, err := NewSequenceData(
		[]DataColumn{{ID: core.Ptr[int64](1)}, {ID: core.Ptr[int64](2)}},
		[]SequenceRow{{RowNumber: 1, Values: []any{int64(1)}}},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1 has 1 values, expected 2")
}

func TestSequenceData_Accessors(t *testing.T) {
	data := sampleData(t)

	assert.Equal(t, 3, data.Len())
	assert.Equal(t, []int64{10, 2, 30}, data.RowNumbers(), "row order is kept as given")
	assert.Equal(t, []int64{3, 4, 5}, data.ColumnIDs())
	assert.Equal(t, []string{"temp", "count", "state"}, data.ColumnExternalIDs())
	assert.Equal(t, [][]any{{1.5, int64(7), "on"}, {nil, int64(8), "off"}, {2.25, nil, nil}}, data.Values())

	row, ok := data.Row(2)
	require.True(t, ok)
	assert.Equal(t, []any{nil, int64(8), "off"}, row)
	_, ok = data.Row(99)
	assert.False(t, ok)

	var seen []int64
	for rowNumber, values := range data.All() {
		seen = append(seen, rowNumber)
		assert.Len(t, values, 3)
	}
	assert.Equal(t, []int64{10, 2, 30}, seen)

	for rowNumber := range data.All() {
		assert.Equal(t, int64(10), rowNumber)
		break
	}
}

func TestSequenceData_GetColumn(t *testing.T) {
	data := sampleData(t)

	values, err := data.GetColumn("count")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(7), int64(8), nil}, values)

	values, err = data.GetColumnByID(3)
	require.NoError(t, err)
	assert.Equal(t, []any{1.5, nil, 2.25}, values)

	_, err = data.GetColumn("missing")
	var notFound *ColumnNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, `"missing"`, notFound.Column)

	_, err = data.GetColumnByID(77)
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "77", notFound.Column)
}

func TestSequenceData_ColumnHeaders(t *testing.T) {
	data := sampleData(t)
	partial, err := NewSequenceData([]DataColumn{{ID: core.Ptr[int64](1), ExternalID: "a"}, {ID: core.Ptr[int64](2)}}, nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		data    *SequenceData
		naming  ColumnNaming
		want    []string
		wantErr bool
	}{
		{"default uses external ids", data, "", []string{"temp", "count", "state"}, false},
		{"external id if exists", data, NamingExternalIDIfExists, []string{"temp", "count", "state"}, false},
		{"ids", data, NamingID, []string{"3", "4", "5"}, false},
		{"fallback to ids when an external id is missing", partial, NamingExternalIDIfExists, []string{"1", "2"}, false},
		{"external ids with a missing one", partial, NamingExternalID, []string{"a", ""}, false},
		{"invalid naming", data, "name", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers, err := tt.data.ColumnHeaders(tt.naming)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid column naming")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, headers)
		})
	}
}

func TestSequenceData_UnmarshalJSON(t *testing.T) {
	raw := `{
		"id": 42,
		"externalId": "pump-1",
		"columns": [{"id": 3, "externalId": "temp"}, {"externalId": "count", "valueType": "LONG"}],
		"rows": [
			{"rowNumber": 1, "values": [1.5, 7]},
			{"rowNumber": 2, "values": [3, null]}
		]
	}`
	var data SequenceData
	require.NoError(t, json.Unmarshal([]byte(raw), &data))

	require.NotNil(t, data.ID)
	assert.Equal(t, int64(42), *data.ID)
	assert.Equal(t, "pump-1", data.ExternalID)
	assert.Equal(t, []DataColumn{{ID: core.Ptr[int64](3), ExternalID: "temp"}, {ExternalID: "count", ValueType: ValueTypeLong}}, data.Columns)
	assert.Equal(t, [][]any{{1.5, int64(7)}, {int64(3), nil}}, data.Values())

	bad := `{"columns": [{"id": 1}], "rows": [{"rowNumber": 1, "values": [1, 2]}]}`
	assert.Error(t, json.Unmarshal([]byte(bad), &SequenceData{}))
}

func TestSequenceData_MarshalJSON(t *testing.T) {
	data, err := NewSequenceData([]DataColumn{{ID: core.Ptr[int64](3)}}, []SequenceRow{{RowNumber: 1, Values: []any{int64(5)}}})
	require.NoError(t, err)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"columns":[{"id":3}],"rows":[{"rowNumber":1,"values":[5]}]}`, string(b))

	empty := &SequenceData{}
	assert.JSONEq(t, `{"columns":[],"rows":[]}`, empty.PrettyJson())
}

func TestSequenceData_Msgpack(t *testing.T) {
	data := sampleData(t)

	b, err := data.MarshalMsgpack()
	require.NoError(t, err)
	decoded, err := UnmarshalSequenceDataMsgpack(b)
	require.NoError(t, err)

	assert.True(t, data.Equal(decoded))
	assert.Equal(t, [][]any{{1.5, int64(7), "on"}, {nil, int64(8), "off"}, {2.25, nil, nil}}, decoded.Values())
	row, ok := decoded.Row(30)
	require.True(t, ok)
	assert.Equal(t, 2.25, row[0])

	_, err = UnmarshalSequenceDataMsgpack([]byte{0xc1})
	assert.Error(t, err)
}

func TestSequenceData_Equal(t *testing.T) {
	a := sampleData(t)
	b := sampleData(t)
	assert.True(t, a.Equal(b))

	b.Columns[0].ExternalID = "other"
	assert.False(t, a.Equal(b))

	var nilData *SequenceData
	assert.True(t, nilData.Equal(nil))
	assert.False(t, a.Equal(nil))
}

func TestNewSequenceData_NormalizesCells(t *testing.T) {
	values := []any{1, float32(0.5), int32(3), "x", nil}
	built, err := NewSequenceData(
		[]DataColumn{{ID: core.Ptr[int64](1)}, {ID: core.Ptr[int64](2)}, {ID: core.Ptr[int64](3)}, {ID: core.Ptr[int64](4)}, {ID: core.Ptr[int64](5)}},
		[]SequenceRow{{RowNumber: 1, Values: values}},
	)
	require.NoError(t, err)

	var decoded SequenceData
	raw := `{"columns":[{"id":1},{"id":2},{"id":3},{"id":4},{"id":5}],"rows":[{"rowNumber":1,"values":[1,0.5,3,"x",null]}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))

	assert.True(t, built.Equal(&decoded))
	assert.Equal(t, [][]any{{int64(1), 0.5, int64(3), "x", nil}}, built.Values())
	assert.Equal(t, 1, values[0], "input rows are not modified")
}

func TestSequenceData_ZeroIDs(t *testing.T) {
	raw := `{"id":0,"externalId":"eid","columns":[{"id":0,"externalId":"ceid"}],"rows":[{"rowNumber":0,"values":[1]}]}`
	var data SequenceData
	require.NoError(t, json.Unmarshal([]byte(raw), &data))

	require.NotNil(t, data.ID)
	assert.Equal(t, int64(0), *data.ID)

	dump := data.Dump()
	assert.Equal(t, int64(0), dump["id"])
	columns := dump["columns"].([]any)
	require.Len(t, columns, 1)
	assert.Equal(t, map[string]any{"id": int64(0), "externalId": "ceid"}, columns[0])

	b, err := json.Marshal(&data)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(b))

	headers, err := data.ColumnHeaders(NamingID)
	require.NoError(t, err)
	assert.Equal(t, []string{"0"}, headers)
	col, err := data.GetColumnByID(0)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1)}, col)

	selection, err := selectionOf(data.Columns)
	require.NoError(t, err)
	assert.Equal(t, ColumnsByID(0), selection)

	unset, err := NewSequenceData([]DataColumn{{ExternalID: "ceid"}}, nil)
	require.NoError(t, err)
	_, hasID := unset.Dump()["id"]
	assert.False(t, hasID)
	selection, err = selectionOf(unset.Columns)
	require.NoError(t, err)
	assert.Equal(t, ColumnsByExternalID("ceid"), selection)
}

func TestSequenceData_Rendering(t *testing.T) {
	data := sampleData(t)

	table := data.PrettyTable()
	assert.Contains(t, table, "rowNumber")
	assert.Contains(t, table, "temp")
	assert.Contains(t, table, "2.25")
	assert.Contains(t, table, "off")

	dump := data.Dump()
	assert.Equal(t, int64(42), dump["id"])
	rows := dump["rows"].([]any)
	assert.Len(t, rows, 3)
	first := rows[0].(map[string]any)
	assert.Equal(t, int64(10), first["rowNumber"])

	assert.Contains(t, data.PrettyYaml(), "externalId: pump-1")
	assert.Contains(t, data.PrettyJson("  "), "\n  \"externalId\": \"pump-1\"")

	empty, err := NewSequenceData([]DataColumn{{ID: core.Ptr[int64](1), ExternalID: "a"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "rowNumber | a\n<no rows>", empty.PrettyTable())
}
