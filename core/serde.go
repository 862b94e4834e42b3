package core

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/bndr/gotabulate"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

const (
	ResourceTypeKey = "@resourceType"
	customRawKey    = "@raw" // used to store raw non-object values in Record
)

var empty = struct{}{}
var printableAttrs = map[string]struct{}{
	"id":          empty,
	"externalId":  empty,
	"name":        empty,
	"description": empty,
	"type":        empty,
	"subtype":     empty,
	"source":      empty,
	"assetId":     empty,
	"parentId":    empty,
	"mimeType":    empty,
	"startTime":   empty,
	"endTime":     empty,
}

type FillFunc func(Record, any) error

var fillFunc FillFunc = func(r Record, container any) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, container)
}

//  ######################################################
//              FUNCTION PARAMS
//  ######################################################

// Params represents a generic set of key-value parameters,
// used for constructing query strings or request bodies.
type Params map[string]any

// ToQuery serializes the Params into a URL-encoded query string.
func (pr *Params) ToQuery() string {
	return convertMapToQuery(*pr)
}

// ToBody serializes the Params into a JSON-encoded io.Reader.
func (pr *Params) ToBody() (io.Reader, error) {
	buffer, err := json.Marshal(*pr)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(buffer), nil
}

// Update merges another Params map into the original Params.
// Existing keys are kept when override is false.
func (pr *Params) Update(other Params, override bool) {
	for key, value := range other {
		if _, exists := (*pr)[key]; exists && !override {
			continue
		}
		(*pr)[key] = value
	}
}

// Without removes the specified keys from the Params map.
func (pr *Params) Without(keys ...string) {
	for _, key := range keys {
		delete(*pr, key)
	}
}

// NewParamsFromStruct creates a new Params map from any struct, respecting json tags
// (including omitempty and custom MarshalJSON implementations).
//
// Numbers are kept as json.Number so 64-bit ids survive the round trip:
//
//	type SequenceFilter struct {
//	    Name             string `json:"name,omitempty"`
//	    ExternalIDPrefix string `json:"externalIdPrefix,omitempty"`
//	}
//	params, err := NewParamsFromStruct(SequenceFilter{Name: "pump"})
//	// params contains: {"name": "pump"}
func NewParamsFromStruct(obj any) (Params, error) {
	params := make(Params)
	if obj == nil {
		return params, nil
	}
	val := reflect.ValueOf(obj)
	if val.Kind() == reflect.Ptr && val.IsNil() {
		return params, nil
	}
	if p, ok := obj.(Params); ok {
		return p, nil
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err = dec.Decode(&params); err != nil {
		return nil, fmt.Errorf("%T does not serialize to a JSON object: %w", obj, err)
	}
	return params, nil
}

//  ######################################################
//              RETURN TYPES
//  ######################################################

// getPrintableAttrs returns a slice of keys to be printed from the Record
func getPrintableAttrs(r Record) []string {
	var attrs []string
	for key := range r {
		if _, ok := printableAttrs[key]; ok {
			attrs = append(attrs, key)
		}
	}
	sort.Strings(attrs)
	return attrs
}

// Renderable is an interface implemented by types that can render themselves
// into a human-readable string format, typically for CLI display or logging.
type Renderable interface {
	PrettyTable() string
	PrettyJson(indent ...string) string
	PrettyYaml() string
}

// Filler is a generic interface for filling a struct or slice of structs.
type Filler interface {
	// Fill populates the given container with data from the implementing type.
	// The container can be a pointer to a struct (for Record),
	// or a pointer to a slice of structs (for RecordSet).
	Fill(container any) error
}

// DisplayableRecord combines rendering and data population capabilities.
// It is implemented by Record and RecordSet.
type DisplayableRecord interface {
	Renderable
	Filler
}

// Record represents a single generic data object as a key-value map.
// When a response is empty, an empty Record{} is returned.
type Record map[string]any

// RecordSet represents a list of Record objects.
type RecordSet []Record

// RecordUnion defines a union of supported record types for generic operations.
type RecordUnion interface {
	Record | RecordSet
}

// Fill populates the exported fields of the given struct pointer using values
// from the Record, matching keys to `json` tags.
//
// Returns an error if the container is not a pointer to a struct or if serialization fails.
func (r Record) Fill(container any) error {
	val := reflect.ValueOf(container)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("container must be a non-nil pointer to a struct")
	}
	val = val.Elem()
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("container must point to a struct")
	}
	return fillFunc(r, container)
}

// SetMissingValue If the key is not present in the Record, set it to the provided value
func (r Record) SetMissingValue(key string, value any) {
	if _, exists := r[key]; !exists {
		r[key] = value
	}
}

// PrettyTable prints a single Record as a table
func (r Record) PrettyTable() string {
	headers := []string{"attr", "value"}
	var rows [][]any
	var name string
	if resourceTyp, ok := r[ResourceTypeKey].(string); ok {
		name = resourceTyp
	}
	if len(r) == 0 {
		return "<>"
	}
	for _, key := range getPrintableAttrs(r) {
		if val, ok := r[key]; ok && val != nil {
			rows = append(rows, []any{key, fmt.Sprintf("%v", val)})
		}
	}
	remainingAttrs := make(map[string]any)
	for key, value := range r {
		if _, ok := printableAttrs[key]; !ok {
			if key == ResourceTypeKey || value == nil {
				continue
			}
			remainingAttrs[key] = value
		}
	}
	if len(remainingAttrs) > 0 {
		remainingJSON, _ := json.Marshal(remainingAttrs)
		rows = append(rows, []any{"<<remaining attrs>>", string(remainingJSON)})
	}
	t := gotabulate.Create(rows)
	t.SetHeaders(headers)
	t.SetAlign("left")
	t.SetWrapStrings(true)
	t.SetMaxCellSize(85)
	if name != "" {
		return fmt.Sprintf("%s:\n%s", name, t.Render("grid"))
	}
	return fmt.Sprintf("\n%s", t.Render("grid"))
}

// PrettyJson prints the Record as JSON, optionally indented
func (r Record) PrettyJson(indent ...string) string {
	return marshalJson(r.withoutMeta(), indent...)
}

// PrettyYaml prints the Record as YAML
func (r Record) PrettyYaml() string {
	return marshalYaml(normalizeForYaml(r.withoutMeta()))
}

func (r Record) Empty() bool {
	return len(r) == 0
}

func (r Record) String() string {
	return r.PrettyTable()
}

func (r Record) withoutMeta() Record {
	if _, ok := r[ResourceTypeKey]; !ok {
		return r
	}
	out := make(Record, len(r))
	for k, v := range r {
		if k != ResourceTypeKey {
			out[k] = v
		}
	}
	return out
}

// Fill populates the provided container slice with data from the RecordSet.
// The container must be a non-nil pointer to a slice of structs (e.g., *[]T or *[]*T).
func (rs RecordSet) Fill(container any) error {
	val := reflect.ValueOf(container)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("container must be a non-nil pointer to a slice")
	}
	sliceVal := val.Elem()
	if sliceVal.Kind() != reflect.Slice {
		return fmt.Errorf("container must point to a slice")
	}
	elemType := sliceVal.Type().Elem()
	isPtrElem := elemType.Kind() == reflect.Ptr

	var targetType reflect.Type
	if isPtrElem {
		if elemType.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("slice element must be pointer to a struct")
		}
		targetType = elemType.Elem()
	} else {
		if elemType.Kind() != reflect.Struct {
			return fmt.Errorf("slice element must be a struct")
		}
		targetType = elemType
	}

	for _, record := range rs {
		elemPtr := reflect.New(targetType)
		if err := record.Fill(elemPtr.Interface()); err != nil {
			return err
		}
		if isPtrElem {
			sliceVal.Set(reflect.Append(sliceVal, elemPtr))
		} else {
			sliceVal.Set(reflect.Append(sliceVal, elemPtr.Elem()))
		}
	}
	return nil
}

// PrettyTable prints the full RecordSet by rendering each individual Record
func (rs RecordSet) PrettyTable() string {
	if len(rs) == 0 {
		return "[]"
	}
	var out strings.Builder
	out.WriteString("[\n")
	for i, record := range rs {
		out.WriteString(record.PrettyTable())
		if i < len(rs)-1 {
			out.WriteString("\n\n")
		}
	}
	out.WriteString("\n]")
	return out.String()
}

func (rs RecordSet) Empty() bool {
	return len(rs) == 0
}

// PrettyJson prints the RecordSet as JSON, optionally indented
func (rs RecordSet) PrettyJson(indent ...string) string {
	return marshalJson(rs.withoutMeta(), indent...)
}

// PrettyYaml prints the RecordSet as YAML
func (rs RecordSet) PrettyYaml() string {
	return marshalYaml(normalizeForYaml(rs.withoutMeta()))
}

func (rs RecordSet) withoutMeta() []Record {
	out := make([]Record, len(rs))
	for i, r := range rs {
		out[i] = r.withoutMeta()
	}
	return out
}

func marshalJson(v any, indent ...string) string {
	var (
		b   []byte
		err error
	)
	if len(indent) > 0 {
		b, err = json.MarshalIndent(v, "", indent[0])
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Sprintf("failed to marshal JSON: %v", err)
	}
	return string(b)
}

func marshalYaml(v any) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("failed to marshal YAML: %v", err)
	}
	return string(b)
}

// normalizeForYaml turns json.Number leaves into int64/float64 so YAML renders them unquoted.
func normalizeForYaml(v any) any {
	switch typed := v.(type) {
	case json.Number:
		return normalizeNumber(typed)
	case Record:
		return normalizeForYaml(map[string]any(typed))
	case []Record:
		out := make([]any, len(typed))
		for i, r := range typed {
			out[i] = normalizeForYaml(r)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, val := range typed {
			out[k] = normalizeForYaml(val)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, val := range typed {
			out[i] = normalizeForYaml(val)
		}
		return out
	}
	return v
}

// unmarshalToRecordUnion parses an HTTP response body into a Record (JSON object)
// or RecordSet (JSON array). Numbers are decoded as json.Number.
func unmarshalToRecordUnion(response *http.Response) (Renderable, error) {
	defer response.Body.Close()

	if response.ContentLength == 0 || response.StatusCode == http.StatusNoContent {
		return Record{}, nil
	}
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Record{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	switch trimmed[0] {
	case '{':
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, err
		}
		return rec, nil
	case '[':
		var anySlice []any
		if err := dec.Decode(&anySlice); err != nil {
			return nil, err
		}
		recordSet := make(RecordSet, len(anySlice))
		for i, item := range anySlice {
			if m, ok := item.(map[string]any); ok {
				recordSet[i] = m
			} else {
				recordSet[i] = Record{customRawKey: item}
			}
		}
		return recordSet, nil
	case '"':
		return Record{customRawKey: string(trimmed)}, nil
	default:
		return nil, fmt.Errorf("unsupported JSON format: must be object or array")
	}
}

// typeMatch checks whether the dynamic type of given Renderable value
// matches the generic type T at runtime.
func typeMatch[T RecordUnion](val Renderable) bool {
	var zero T
	return reflect.TypeOf(val) == reflect.TypeOf(zero)
}

// setResourceKey sets resource type key for tabular formatting (only if not already set).
func setResourceKey(result Renderable, resourceType string) error {
	switch v := result.(type) {
	case Record:
		if _, ok := v[ResourceTypeKey]; !ok && len(v) > 0 {
			v[ResourceTypeKey] = resourceType
		}
		return nil
	case RecordSet:
		for _, rec := range v {
			if _, ok := rec[ResourceTypeKey]; !ok && len(rec) > 0 {
				rec[ResourceTypeKey] = resourceType
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported type %T", result)
	}
}

// recordSetFromAny converts a decoded JSON array of objects into a RecordSet.
func recordSetFromAny(v any) (RecordSet, error) {
	switch typed := v.(type) {
	case nil:
		return RecordSet{}, nil
	case RecordSet:
		return typed, nil
	case []Record:
		return RecordSet(typed), nil
	case []map[string]any:
		return ToRecordSet(typed), nil
	case []any:
		out := make(RecordSet, 0, len(typed))
		for _, item := range typed {
			switch m := item.(type) {
			case map[string]any:
				out = append(out, m)
			case Record:
				out = append(out, m)
			default:
				return nil, fmt.Errorf("unexpected item type %T", item)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected list of objects, got %T", v)
}
