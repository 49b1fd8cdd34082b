package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Task is the single entity tracked by the service.
type Task struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description *string    `gorm:"type:text" json:"description"`
	Status      Status     `gorm:"size:16;not null;default:todo;index:ix_tasks_status" json:"status"`
	Priority    Priority   `gorm:"type:integer;not null;default:1;index:ix_tasks_priority" json:"priority"`
	DueAt       *time.Time `gorm:"index:ix_tasks_due_at" json:"due_at"`
	Tags        []string   `gorm:"type:text;serializer:json" json:"tags"`
	Context     Context    `gorm:"size:16;not null;default:personal;index:ix_tasks_context" json:"context"`
	Workspace   *string    `gorm:"size:100" json:"workspace"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime:false;index:ix_tasks_created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime:false;index:ix_tasks_updated_at" json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// TableName pins the table name to "tasks".
func (Task) TableName() string {
	return "tasks"
}

// Clone returns a deep copy so lifecycle rules never mutate the stored value.
func (t Task) Clone() Task {
	c := t
	c.Description = clonePtr(t.Description)
	c.DueAt = clonePtr(t.DueAt)
	c.Workspace = clonePtr(t.Workspace)
	c.CompletedAt = clonePtr(t.CompletedAt)
	c.Tags = append([]string{}, t.Tags...)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusTodo     Status = "todo"
	StatusDoing    Status = "doing"
	StatusBlocked  Status = "blocked"
	StatusDone     Status = "done"
	StatusArchived Status = "archived"
)

// ValidStatuses returns all valid status values.
func ValidStatuses() []Status {
	return []Status{StatusTodo, StatusDoing, StatusBlocked, StatusDone, StatusArchived}
}

// IsValid returns true if the status is a known value.
func (s Status) IsValid() bool {
	for _, valid := range ValidStatuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusArchived
}

// ParseStatus converts a wire value into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// Priority is ordered low < medium < high < urgent.
//
// It travels as its name and is stored as its rank, so range filters and sorting
// are integer comparisons in the database.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriorities returns all priorities in ascending order.
func ValidPriorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

// Rank returns the ordinal of p, or -1 for an unknown priority.
func (p Priority) Rank() int {
	for i, valid := range ValidPriorities() {
		if p == valid {
			return i
		}
	}
	return -1
}

// IsValid returns true if the priority is a known value.
func (p Priority) IsValid() bool {
	return p.Rank() >= 0
}

// ParsePriority converts a wire value into a Priority.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(raw)
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, raw)
	}
	return p, nil
}

// PriorityFromRank is the inverse of Rank.
func PriorityFromRank(rank int64) (Priority, error) {
	all := ValidPriorities()
	if rank < 0 || rank >= int64(len(all)) {
		return "", fmt.Errorf("%w: rank %d", ErrInvalidPriority, rank)
	}
	return all[rank], nil
}

// Value implements driver.Valuer.
func (p Priority) Value() (driver.Value, error) {
	rank := p.Rank()
	if rank < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, string(p))
	}
	return int64(rank), nil
}

// Scan implements sql.Scanner.
func (p *Priority) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		parsed, err := PriorityFromRank(v)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	case []byte:
		return p.Scan(string(v))
	case string:
		parsed, err := ParsePriority(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidPriority, src)
	}
}

// Context tells which part of life a task belongs to.
type Context string

const (
	ContextPersonal     Context = "personal"
	ContextProfessional Context = "professional"
	ContextMixed        Context = "mixed"
)

// ValidContexts returns all valid context values.
func ValidContexts() []Context {
	return []Context{ContextPersonal, ContextProfessional, ContextMixed}
}

// IsValid returns true if the context is a known value.
func (c Context) IsValid() bool {
	for _, valid := range ValidContexts() {
		if c == valid {
			return true
		}
	}
	return false
}

// ParseContext converts a wire value into a Context.
func ParseContext(raw string) (Context, error) {
	c := Context(raw)
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidContext, raw)
	}
	return c, nil
}

// Field limits.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	MaxTagLength         = 50
	MaxWorkspaceLength   = 100
)
