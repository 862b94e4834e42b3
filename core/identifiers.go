package core

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// Identifier addresses a single resource either by its numeric id or by its external id.
type Identifier struct {
	id         *int64
	externalID *string
}

func ById(id int64) Identifier {
	return Identifier{id: &id}
}

func ByExternalId(externalID string) Identifier {
	return Identifier{externalID: &externalID}
}

// NewIdentifier accepts exactly one of id and externalID.
func NewIdentifier(id *int64, externalID *string) (Identifier, error) {
	switch {
	case id != nil && externalID != nil:
		return Identifier{}, errors.New("exactly one of id and external id must be specified, got both")
	case id != nil:
		return ById(*id), nil
	case externalID != nil:
		return ByExternalId(*externalID), nil
	}
	return Identifier{}, errors.New("exactly one of id and external id must be specified, got none")
}

// ParseIdentifier treats numeric input as an id and anything else as an external id.
func ParseIdentifier(s string) Identifier {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ById(id)
	}
	return ByExternalId(s)
}

func (i Identifier) ID() (int64, bool) {
	if i.id == nil {
		return 0, false
	}
	return *i.id, true
}

func (i Identifier) ExternalID() (string, bool) {
	if i.externalID == nil {
		return "", false
	}
	return *i.externalID, true
}

func (i Identifier) IsZero() bool {
	return i.id == nil && i.externalID == nil
}

// Params renders the identifier as {"id": ...} or {"externalId": ...}.
func (i Identifier) Params() Params {
	if i.id != nil {
		return Params{"id": *i.id}
	}
	if i.externalID != nil {
		return Params{"externalId": *i.externalID}
	}
	return Params{}
}

func (i Identifier) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(i.Params()))
}

func (i *Identifier) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID         *int64  `json:"id"`
		ExternalID *string `json:"externalId"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := NewIdentifier(raw.ID, raw.ExternalID)
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func (i Identifier) String() string {
	if i.id != nil {
		return fmt.Sprintf("id=%d", *i.id)
	}
	if i.externalID != nil {
		return fmt.Sprintf("externalId=%q", *i.externalID)
	}
	return "<empty identifier>"
}

// IdentifierSequence is an ordered list of identifiers. It remembers whether it was
// built from a single identifier so callers can unwrap single results.
type IdentifierSequence struct {
	items  []Identifier
	single bool
}

// NewIdentifierSequence builds a sequence from ids followed by external ids.
func NewIdentifierSequence(ids []int64, externalIDs []string) (*IdentifierSequence, error) {
	if len(ids) == 0 && len(externalIDs) == 0 {
		return nil, errors.New("no ids or external ids specified")
	}
	items := make([]Identifier, 0, len(ids)+len(externalIDs))
	for _, id := range ids {
		items = append(items, ById(id))
	}
	for _, xid := range externalIDs {
		items = append(items, ByExternalId(xid))
	}
	return &IdentifierSequence{items: items}, nil
}

// Of builds a sequence from already constructed identifiers.
func Of(identifiers ...Identifier) *IdentifierSequence {
	return &IdentifierSequence{items: identifiers, single: len(identifiers) == 1}
}

func (s *IdentifierSequence) Len() int {
	return len(s.items)
}

func (s *IdentifierSequence) IsSingle() bool {
	return s.single
}

func (s *IdentifierSequence) Identifiers() []Identifier {
	return s.items
}

// AsItems renders the identifiers as request items.
func (s *IdentifierSequence) AsItems() []Params {
	out := make([]Params, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item.Params())
	}
	return out
}
