package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tick-task/internal/model"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field a request got wrong.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// err returns nil when nothing was recorded.
func (e *ValidationError) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	sort.SliceStable(e.Fields, func(i, j int) bool { return e.Fields[i].Field < e.Fields[j].Field })
	return e
}

// TaskInput is a normalized create request.
type TaskInput struct {
	Title       string         `json:"title" validate:"required,max=200"`
	Description *string        `json:"description" validate:"omitnil,max=2000"`
	Status      model.Status   `json:"status"`
	Priority    model.Priority `json:"priority"`
	DueAt       *time.Time     `json:"due_at"`
	Tags        []string       `json:"tags" validate:"dive,required,max=50"`
	Context     model.Context  `json:"context"`
	Workspace   *string        `json:"workspace" validate:"omitnil,max=100"`
}

// TaskPatch is a normalized update request. Only keys present in the payload
// are applied; for nullable fields a present key with a nil value clears it.
type TaskPatch struct {
	Title       *string         `json:"title" validate:"omitnil,min=1,max=200"`
	Description *string         `json:"description" validate:"omitnil,max=2000"`
	Status      *model.Status   `json:"status"`
	Priority    *model.Priority `json:"priority"`
	DueAt       *time.Time      `json:"due_at"`
	Tags        []string        `json:"tags" validate:"dive,required,max=50"`
	Context     *model.Context  `json:"context"`
	Workspace   *string         `json:"workspace" validate:"omitnil,max=100"`

	present map[string]bool
}

// Has reports whether the payload carried key.
func (p TaskPatch) Has(key string) bool {
	return p.present[key]
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseCreate decodes and validates a create payload, applying defaults.
func ParseCreate(body []byte) (TaskInput, error) {
	in := TaskInput{
		Status:   model.StatusTodo,
		Priority: model.PriorityMedium,
		Context:  model.ContextPersonal,
		Tags:     []string{},
	}
	verr := &ValidationError{}

	raw, ok := decodeObject(body, verr)
	if !ok {
		return in, verr.err()
	}

	if _, ok := raw["title"]; !ok {
		verr.add("title", "field required")
	}
	d := fieldDecoder{raw: raw, errs: verr}
	if v, ok := d.requiredString("title"); ok {
		in.Title = strings.TrimSpace(v)
	}
	if v, ok := d.nullableString("description"); ok {
		in.Description = v
	}
	if v, ok := d.status(); ok {
		in.Status = v
	}
	if v, ok := d.priority(); ok {
		in.Priority = v
	}
	if v, ok := d.nullableTime("due_at"); ok {
		in.DueAt = v
	}
	if v, ok := d.tags(); ok {
		in.Tags = v
	}
	if v, ok := d.context(); ok {
		in.Context = v
	}
	if v, ok := d.nullableString("workspace"); ok {
		in.Workspace = v
	}

	checkConstraints(in, verr)
	return in, verr.err()
}

// ParseUpdate decodes and validates a partial update payload.
func ParseUpdate(body []byte) (TaskPatch, error) {
	p := TaskPatch{present: map[string]bool{}}
	verr := &ValidationError{}

	raw, ok := decodeObject(body, verr)
	if !ok {
		return p, verr.err()
	}

	d := fieldDecoder{raw: raw, errs: verr}
	if v, ok := d.requiredString("title"); ok {
		v = strings.TrimSpace(v)
		p.Title = &v
		p.present["title"] = true
	}
	if v, ok := d.nullableString("description"); ok {
		p.Description = v
		p.present["description"] = true
	}
	if v, ok := d.status(); ok {
		p.Status = &v
		p.present["status"] = true
	}
	if v, ok := d.priority(); ok {
		p.Priority = &v
		p.present["priority"] = true
	}
	if v, ok := d.nullableTime("due_at"); ok {
		p.DueAt = v
		p.present["due_at"] = true
	}
	if v, ok := d.tags(); ok {
		p.Tags = v
		p.present["tags"] = true
	}
	if v, ok := d.context(); ok {
		p.Context = &v
		p.present["context"] = true
	}
	if v, ok := d.nullableString("workspace"); ok {
		p.Workspace = v
		p.present["workspace"] = true
	}

	checkConstraints(p, verr)
	return p, verr.err()
}

// ParseID validates a task id taken from the request path.
func ParseID(raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		verr := &ValidationError{}
		verr.add("id", "must be a valid UUID")
		return "", verr
	}
	return id.String(), nil
}

// NormalizeTag trims a tag and lowercases it.
func NormalizeTag(tag string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(tag))
}

func decodeObject(body []byte, verr *ValidationError) (map[string]json.RawMessage, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		verr.add("body", "must be a JSON object")
		return nil, false
	}
	return raw, true
}

func checkConstraints(v any, verr *ValidationError) {
	err := validate.Struct(v)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.add("body", "%v", err)
		return
	}
	for _, fe := range fieldErrs {
		// a field that failed decoding already has its error
		if verr.has(fe.Field()) {
			continue
		}
		switch fe.Tag() {
		case "required", "min":
			verr.add(fe.Field(), "must not be blank")
		case "max":
			verr.add(fe.Field(), "must be at most %s characters", fe.Param())
		default:
			verr.add(fe.Field(), "failed %s check", fe.Tag())
		}
	}
}

// fieldDecoder pulls typed values out of a raw JSON object, recording type
// errors per field. Each getter returns ok only for a usable value.
type fieldDecoder struct {
	raw  map[string]json.RawMessage
	errs *ValidationError
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (d fieldDecoder) requiredString(key string) (string, bool) {
	raw, ok := d.raw[key]
	if !ok {
		return "", false
	}
	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		d.errs.add(key, "must be a string")
		return "", false
	}
	return s, true
}

func (d fieldDecoder) nullableString(key string) (*string, bool) {
	raw, ok := d.raw[key]
	if !ok {
		return nil, false
	}
	if isNull(raw) {
		return nil, true
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		d.errs.add(key, "must be a string or null")
		return nil, false
	}
	return &s, true
}

func (d fieldDecoder) nullableTime(key string) (*time.Time, bool) {
	raw, ok := d.raw[key]
	if !ok {
		return nil, false
	}
	if isNull(raw) {
		return nil, true
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		d.errs.add(key, "must be a datetime string or null")
		return nil, false
	}
	t, err := ParseTime(s)
	if err != nil {
		d.errs.add(key, "must be a valid datetime")
		return nil, false
	}
	return &t, true
}

func (d fieldDecoder) tags() ([]string, bool) {
	raw, ok := d.raw["tags"]
	if !ok {
		return nil, false
	}
	if isNull(raw) {
		return []string{}, true
	}
	var list []string
	if json.Unmarshal(raw, &list) != nil {
		d.errs.add("tags", "must be a list of strings")
		return nil, false
	}
	out := make([]string, len(list))
	for i, tag := range list {
		out[i] = NormalizeTag(tag)
	}
	return out, true
}

func (d fieldDecoder) enum(key string, allowed []string) (string, bool) {
	s, ok := d.requiredString(key)
	if !ok {
		return "", false
	}
	for _, a := range allowed {
		if s == a {
			return s, true
		}
	}
	d.errs.add(key, "must be one of %s", strings.Join(allowed, ", "))
	return "", false
}

func (d fieldDecoder) status() (model.Status, bool) {
	s, ok := d.enum("status", statusNames())
	return model.Status(s), ok
}

func (d fieldDecoder) priority() (model.Priority, bool) {
	s, ok := d.enum("priority", priorityNames())
	return model.Priority(s), ok
}

func (d fieldDecoder) context() (model.Context, bool) {
	s, ok := d.enum("context", contextNames())
	return model.Context(s), ok
}

func statusNames() []string {
	return names(model.ValidStatuses())
}

func priorityNames() []string {
	return names(model.ValidPriorities())
}

func contextNames() []string {
	return names(model.ValidContexts())
}

func names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 timestamps, naive date-times and plain dates.
// Values without a zone are read as UTC. The result is always UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", s)
}
