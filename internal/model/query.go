package model

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// SortField names a sortable task column.
type SortField string

const (
	SortCreatedAt   SortField = "created_at"
	SortUpdatedAt   SortField = "updated_at"
	SortDueAt       SortField = "due_at"
	SortCompletedAt SortField = "completed_at"
	SortTitle       SortField = "title"
	SortPriority    SortField = "priority"
	SortStatus      SortField = "status"
)

// DefaultSortField is used when the requested field is unknown.
const DefaultSortField = SortUpdatedAt

// ValidSortFields returns all sortable fields.
func ValidSortFields() []SortField {
	return []SortField{SortCreatedAt, SortUpdatedAt, SortDueAt, SortCompletedAt, SortTitle, SortPriority, SortStatus}
}

// ParseSortField never fails: unknown names fall back to DefaultSortField.
func ParseSortField(raw string) SortField {
	f := SortField(strings.ToLower(strings.TrimSpace(raw)))
	for _, valid := range ValidSortFields() {
		if f == valid {
			return f
		}
	}
	return DefaultSortField
}

// Column returns the database column backing the field.
func (f SortField) Column() string {
	return string(f)
}

// IsTime reports whether the field holds a timestamp.
func (f SortField) IsTime() bool {
	switch f {
	case SortCreatedAt, SortUpdatedAt, SortDueAt, SortCompletedAt:
		return true
	default:
		return false
	}
}

// ValueOf returns the field of t as it is kept in a cursor, nil for NULL.
func (f SortField) ValueOf(t Task) *string {
	timeValue := func(v time.Time) *string {
		s := v.UTC().Format(time.RFC3339Nano)
		return &s
	}
	switch f {
	case SortCreatedAt:
		return timeValue(t.CreatedAt)
	case SortDueAt:
		if t.DueAt == nil {
			return nil
		}
		return timeValue(*t.DueAt)
	case SortCompletedAt:
		if t.CompletedAt == nil {
			return nil
		}
		return timeValue(*t.CompletedAt)
	case SortTitle:
		return &t.Title
	case SortPriority:
		s := string(t.Priority)
		return &s
	case SortStatus:
		s := string(t.Status)
		return &s
	default:
		return timeValue(t.UpdatedAt)
	}
}

// SortOrder is the direction of a sort.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ParseSortOrder accepts asc or desc in any case; empty means desc.
func ParseSortOrder(raw string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(raw))); o {
	case "":
		return OrderDesc, nil
	case OrderAsc, OrderDesc:
		return o, nil
	default:
		return "", fmt.Errorf("invalid sort order %q", raw)
	}
}

// TaskQuery is a parsed list request. Zero-valued filters are not applied.
type TaskQuery struct {
	Statuses     []Status
	Context      Context
	Tags         []string
	MinPriority  Priority
	DueBefore    *time.Time
	DueAfter     *time.Time
	UpdatedSince *time.Time

	Sort  SortField
	Order SortOrder
	Limit int
	After *Cursor
}

// Cursor marks the last row of a page. Rows are ordered by (sort value, id).
type Cursor struct {
	Sort  SortField `json:"s"`
	Order SortOrder `json:"o"`
	Value *string   `json:"v,omitempty"`
	ID    string    `json:"id"`
}

// NewCursor builds the cursor that resumes right after t.
func NewCursor(t Task, sort SortField, order SortOrder) Cursor {
	return Cursor{
		Sort:  sort,
		Order: order,
		Value: sort.ValueOf(t),
		ID:    t.ID,
	}
}

// Encode returns the opaque token handed to clients.
func (c Cursor) Encode() string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor parses a token produced by Encode.
func DecodeCursor(token string) (Cursor, error) {
	var c Cursor
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if c.ID == "" || ParseSortField(string(c.Sort)) != c.Sort {
		return c, ErrInvalidCursor
	}
	if c.Order != OrderAsc && c.Order != OrderDesc {
		return c, ErrInvalidCursor
	}
	if c.Value != nil {
		if c.Sort.IsTime() {
			if _, err := time.Parse(time.RFC3339Nano, *c.Value); err != nil {
				return c, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
			}
		}
		if c.Sort == SortPriority {
			if _, err := ParsePriority(*c.Value); err != nil {
				return c, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
			}
		}
	}
	return c, nil
}
