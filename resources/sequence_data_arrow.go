package resources

import (
	"fmt"
	"math"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/goccy/go-json"
)

// RowNumberField is the name of the index field of an Arrow record holding sequence data.
const RowNumberField = "rowNumber"

// Metadata keys stored on Arrow schemas and fields.
const (
	MetaSequenceID         = "cdf.sequence.id"
	MetaSequenceExternalID = "cdf.sequence.externalId"
	MetaColumnID           = "cdf.column.id"
	MetaColumnExternalID   = "cdf.column.externalId"
	MetaColumnValueType    = "cdf.column.valueType"
)

// arrowTypeOf maps a column value type onto an Arrow type. Without a value type the
// type is inferred from all non-nil values: any string gives utf8, any float gives
// float64 and integers alone give int64.
func arrowTypeOf(valueType ValueType, values []any) (arrow.DataType, error) {
	switch valueType {
	case ValueTypeLong:
		return arrow.PrimitiveTypes.Int64, nil
	case ValueTypeDouble:
		return arrow.PrimitiveTypes.Float64, nil
	case ValueTypeString:
		return arrow.BinaryTypes.String, nil
	case "":
	default:
		return nil, fmt.Errorf("unsupported column value type %q", valueType)
	}
	var ints, floats bool
	for _, v := range values {
		switch v.(type) {
		case nil:
		case int64, int, int32:
			ints = true
		case float64, float32:
			floats = true
		default:
			return arrow.BinaryTypes.String, nil
		}
	}
	switch {
	case floats:
		return arrow.PrimitiveTypes.Float64, nil
	case ints:
		return arrow.PrimitiveTypes.Int64, nil
	}
	return arrow.BinaryTypes.String, nil
}

func metadataFor(keys []string, values []string) arrow.Metadata {
	var k, v []string
	for i := range keys {
		if values[i] != "" {
			k = append(k, keys[i])
			v = append(v, values[i])
		}
	}
	return arrow.NewMetadata(k, v)
}

func formatID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

// ToArrow converts the data into an Arrow record: a non-null rowNumber field followed by one
// nullable field per column, named according to naming. The caller releases the record.
func (sd *SequenceData) ToArrow(mem memory.Allocator, naming ColumnNaming) (arrow.Record, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	headers, err := sd.ColumnHeaders(naming)
	if err != nil {
		return nil, err
	}

	fields := make([]arrow.Field, 0, len(sd.Columns)+1)
	fields = append(fields, arrow.Field{Name: RowNumberField, Type: arrow.PrimitiveTypes.Int64})
	for i, c := range sd.Columns {
		dt, err := arrowTypeOf(c.ValueType, sd.column(i))
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", headers[i], err)
		}
		fields = append(fields, arrow.Field{
			Name:     headers[i],
			Type:     dt,
			Nullable: true,
			Metadata: metadataFor(
				[]string{MetaColumnID, MetaColumnExternalID, MetaColumnValueType},
				[]string{formatID(c.ID), c.ExternalID, string(c.ValueType)},
			),
		})
	}
	md := metadataFor(
		[]string{MetaSequenceID, MetaSequenceExternalID},
		[]string{formatID(sd.ID), sd.ExternalID},
	)
	schema := arrow.NewSchema(fields, &md)

	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()

	builder.Field(0).(*array.Int64Builder).AppendValues(sd.RowNumbers(), nil)
	for i := range sd.Columns {
		fb := builder.Field(i + 1)
		for _, row := range sd.rows {
			if err := appendArrowValue(fb, row.Values[i]); err != nil {
				return nil, fmt.Errorf("column %s, row %d: %w", headers[i], row.RowNumber, err)
			}
		}
	}
	return builder.NewRecord(), nil
}

func appendArrowValue(b array.Builder, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	switch fb := b.(type) {
	case *array.Int64Builder:
		n, err := asInt64(v)
		if err != nil {
			return err
		}
		fb.Append(n)
	case *array.Float64Builder:
		f, err := asFloat64(v)
		if err != nil {
			return err
		}
		fb.Append(f)
	case *array.StringBuilder:
		if s, ok := v.(string); ok {
			fb.Append(s)
		} else {
			fb.Append(fmt.Sprint(v))
		}
	default:
		return fmt.Errorf("unsupported builder %T", b)
	}
	return nil
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("value %v is not an integer", n)
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	}
	return 0, fmt.Errorf("value %v (%T) is not an integer", v, v)
}

func asFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	}
	return 0, fmt.Errorf("value %v (%T) is not a number", v, v)
}

func lookupMeta(md arrow.Metadata, key string) string {
	if i := md.FindKey(key); i >= 0 {
		return md.Values()[i]
	}
	return ""
}

func valueTypeOf(dt arrow.DataType) (ValueType, error) {
	switch dt.ID() {
	case arrow.INT64, arrow.INT32, arrow.INT16, arrow.INT8:
		return ValueTypeLong, nil
	case arrow.FLOAT64, arrow.FLOAT32:
		return ValueTypeDouble, nil
	case arrow.STRING, arrow.LARGE_STRING:
		return ValueTypeString, nil
	}
	return "", fmt.Errorf("unsupported arrow type %s", dt)
}

func arrowValue(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Int64:
		return a.Value(i)
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.Float32:
		return float64(a.Value(i))
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	}
	return nil
}

// SequenceDataFromArrow converts a record produced by ToArrow (or any record with an int64 rowNumber
// field) back into SequenceData. With externalIDHeaders the field names are column external ids,
// otherwise they must be numeric column ids unless the field carries column id metadata.
func SequenceDataFromArrow(rec arrow.Record, externalIDHeaders bool) (*SequenceData, error) {
	schema := rec.Schema()
	indices := schema.FieldIndices(RowNumberField)
	if len(indices) != 1 {
		return nil, fmt.Errorf("record needs exactly one %q field, found %d", RowNumberField, len(indices))
	}
	rowIdx := indices[0]
	rowNumbers, ok := rec.Column(rowIdx).(*array.Int64)
	if !ok {
		return nil, fmt.Errorf("field %q must be int64, got %s", RowNumberField, schema.Field(rowIdx).Type)
	}

	sd := &SequenceData{}
	if schema.HasMetadata() {
		md := schema.Metadata()
		sd.ExternalID = lookupMeta(md, MetaSequenceExternalID)
		if s := lookupMeta(md, MetaSequenceID); s != "" {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s metadata %q: %w", MetaSequenceID, s, err)
			}
			sd.ID = &id
		}
	}

	var positions []int
	for i, field := range schema.Fields() {
		if i == rowIdx {
			continue
		}
		vt, err := valueTypeOf(field.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field.Name, err)
		}
		column := DataColumn{ValueType: vt}
		if externalIDHeaders {
			column.ExternalID = field.Name
		} else {
			idText := field.Name
			if s := lookupMeta(field.Metadata, MetaColumnID); s != "" {
				idText = s
			}
			id, err := strconv.ParseInt(idText, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("field %q is not a column id: use external id headers for named columns", field.Name)
			}
			column.ID = &id
			column.ExternalID = lookupMeta(field.Metadata, MetaColumnExternalID)
		}
		sd.Columns = append(sd.Columns, column)
		positions = append(positions, i)
	}

	n := int(rec.NumRows())
	rows := make([]SequenceRow, n)
	for r := 0; r < n; r++ {
		if rowNumbers.IsNull(r) {
			return nil, fmt.Errorf("row %d has a null %s", r, RowNumberField)
		}
		values := make([]any, len(positions))
		for j, pos := range positions {
			values[j] = arrowValue(rec.Column(pos), r)
		}
		rows[r] = SequenceRow{RowNumber: rowNumbers.Value(r), Values: values}
	}
	if err := sd.setRows(rows); err != nil {
		return nil, err
	}
	return sd, nil
}
