package core

import (
	"fmt"
	"reflect"
)

// UpdateItem is anything that can be sent to a resource's /update endpoint.
type UpdateItem interface {
	DumpUpdate() (Params, error)
}

// UpdateBuilder accumulates field operations for one resource:
//
//	{"id": 1, "update": {"description": {"set": "x"}, "metadata": {"add": {"k": "v"}}}}
type UpdateBuilder struct {
	identifier Identifier
	fields     Params
}

func NewUpdateBuilder(identifier Identifier) *UpdateBuilder {
	return &UpdateBuilder{identifier: identifier, fields: Params{}}
}

func (u *UpdateBuilder) Identifier() Identifier {
	return u.identifier
}

func (u *UpdateBuilder) setOp(field, op string, value any) {
	if op == "set" || op == "setNull" {
		u.fields[field] = Params{op: value}
		return
	}
	existing, ok := u.fields[field].(Params)
	if !ok {
		existing = Params{}
	}
	delete(existing, "set")
	delete(existing, "setNull")
	existing[op] = value
	u.fields[field] = existing
}

func (u *UpdateBuilder) DumpUpdate() (Params, error) {
	if u.identifier.IsZero() {
		return nil, fmt.Errorf("update requires an id or external id")
	}
	body := u.identifier.Params()
	update := Params{}
	for k, v := range u.fields {
		update[k] = v
	}
	body["update"] = update
	return body, nil
}

// PrimitiveUpdate sets or clears a scalar field and returns the owning update for chaining.
type PrimitiveUpdate[T any, U any] struct {
	owner   U
	builder *UpdateBuilder
	field   string
}

func NewPrimitiveUpdate[T any, U any](owner U, builder *UpdateBuilder, field string) PrimitiveUpdate[T, U] {
	return PrimitiveUpdate[T, U]{owner: owner, builder: builder, field: field}
}

// Set assigns value. A nil pointer or interface clears the field like SetNull.
func (p PrimitiveUpdate[T, U]) Set(value T) U {
	if isNilValue(value) {
		return p.SetNull()
	}
	p.builder.setOp(p.field, "set", value)
	return p.owner
}

func (p PrimitiveUpdate[T, U]) SetNull() U {
	p.builder.setOp(p.field, "setNull", true)
	return p.owner
}

// ObjectUpdate manipulates a map-valued field such as metadata.
type ObjectUpdate[T any, U any] struct {
	owner   U
	builder *UpdateBuilder
	field   string
}

func NewObjectUpdate[T any, U any](owner U, builder *UpdateBuilder, field string) ObjectUpdate[T, U] {
	return ObjectUpdate[T, U]{owner: owner, builder: builder, field: field}
}

func (o ObjectUpdate[T, U]) Set(value map[string]T) U {
	if value == nil {
		value = map[string]T{}
	}
	o.builder.setOp(o.field, "set", value)
	return o.owner
}

func (o ObjectUpdate[T, U]) Add(value map[string]T) U {
	if value == nil {
		value = map[string]T{}
	}
	o.builder.setOp(o.field, "add", value)
	return o.owner
}

func (o ObjectUpdate[T, U]) Remove(keys []string) U {
	if keys == nil {
		keys = []string{}
	}
	o.builder.setOp(o.field, "remove", keys)
	return o.owner
}

// ListUpdate manipulates a list-valued field such as assetIds.
type ListUpdate[T any, U any] struct {
	owner   U
	builder *UpdateBuilder
	field   string
}

func NewListUpdate[T any, U any](owner U, builder *UpdateBuilder, field string) ListUpdate[T, U] {
	return ListUpdate[T, U]{owner: owner, builder: builder, field: field}
}

func (l ListUpdate[T, U]) Set(values []T) U {
	if values == nil {
		values = []T{}
	}
	l.builder.setOp(l.field, "set", values)
	return l.owner
}

func (l ListUpdate[T, U]) Add(values []T) U {
	if values == nil {
		values = []T{}
	}
	l.builder.setOp(l.field, "add", values)
	return l.owner
}

func (l ListUpdate[T, U]) Remove(values []T) U {
	if values == nil {
		values = []T{}
	}
	l.builder.setOp(l.field, "remove", values)
	return l.owner
}

// ObjectToUpdate turns a full resource object into an update that sets every non-empty field.
// Fields listed in readOnly are skipped.
func ObjectToUpdate(obj any, readOnly ...string) (Params, error) {
	params, err := NewParamsFromStruct(obj)
	if err != nil {
		return nil, err
	}
	var identifier Identifier
	if rawID, ok := params["id"]; ok {
		id, err := toInt(rawID)
		if err != nil {
			return nil, fmt.Errorf("invalid id: %w", err)
		}
		identifier = ById(id)
	} else if xid, ok := params["externalId"].(string); ok && xid != "" {
		identifier = ByExternalId(xid)
	}
	builder := NewUpdateBuilder(identifier)
	for key, value := range params {
		if key == "id" || contains(readOnly, key) {
			continue
		}
		if key == "externalId" {
			if _, byID := identifier.ID(); !byID {
				continue
			}
		}
		builder.setOp(key, "set", value)
	}
	return builder.DumpUpdate()
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
