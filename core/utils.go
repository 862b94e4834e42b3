package core

import (
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

func toInt(val any) (int64, error) {
	switch v := val.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("value %v is not an integer", v)
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected type for integer field: %T", v)
	}
}

// normalizeNumber converts a json.Number into int64 when it is an integral literal, float64 otherwise.
func normalizeNumber(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// NormalizeValue recursively replaces json.Number leaves with int64/float64.
func NormalizeValue(v any) any {
	return normalizeForYaml(v)
}

func ToRecord(m map[string]any) Record {
	converted := Record{}
	for k, v := range m {
		converted[k] = v
	}
	return converted
}

func ToRecordSet(list []map[string]any) RecordSet {
	records := make(RecordSet, 0, len(list))
	for _, item := range list {
		records = append(records, ToRecord(item))
	}
	return records
}

// contains checks if a string is present in a slice
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		if len(items) == 0 {
			return nil
		}
		return [][]T{items}
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

func Must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("must: %v", err))
	}
	return v
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
