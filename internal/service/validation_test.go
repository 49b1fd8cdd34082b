package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tick-task/internal/model"
)

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	out := make([]string, len(verr.Fields))
	for i, f := range verr.Fields {
		out[i] = f.Field
	}
	return out
}

func TestParseCreateDefaults(t *testing.T) {
	in, err := ParseCreate([]byte(`{"title":"  New Task  "}`))
	require.NoError(t, err)
	assert.Equal(t, "New Task", in.Title)
	assert.Equal(t, model.StatusTodo, in.Status)
	assert.Equal(t, model.PriorityMedium, in.Priority)
	assert.Equal(t, model.ContextPersonal, in.Context)
	assert.Equal(t, []string{}, in.Tags)
	assert.Nil(t, in.Description)
	assert.Nil(t, in.DueAt)
	assert.Nil(t, in.Workspace)
}

func TestParseCreateAllFields(t *testing.T) {
	body := `{
		"id": "ignored",
		"created_at": "ignored",
		"title": "Ship",
		"description": "release notes",
		"status": "doing",
		"priority": "urgent",
		"due_at": "2025-06-01T12:30:00+02:00",
		"tags": ["  Work ", "ÄRGER", "work"],
		"context": "mixed",
		"workspace": "core",
		"unknown": 42
	}`
	in, err := ParseCreate([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "Ship", in.Title)
	assert.Equal(t, "release notes", *in.Description)
	assert.Equal(t, model.StatusDoing, in.Status)
	assert.Equal(t, model.PriorityUrgent, in.Priority)
	assert.True(t, time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC).Equal(*in.DueAt))
	assert.Equal(t, []string{"work", "ärger", "work"}, in.Tags)
	assert.Equal(t, model.ContextMixed, in.Context)
	assert.Equal(t, "core", *in.Workspace)
}

func TestParseCreateTitleBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		title string
		ok    bool
	}{
		{"200 chars", strings.Repeat("a", 200), true},
		{"200 multibyte chars", strings.Repeat("é", 200), true},
		{"201 chars", strings.Repeat("a", 201), false},
		{"whitespace only", `   \t `, false},
		{"empty", "", false},
		{"padded 200", "  " + strings.Repeat("b", 200) + "  ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCreate([]byte(`{"title":"` + tt.title + `"}`))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, []string{"title"}, fieldNames(t, err))
		})
	}
}

func TestParseCreateReportsEveryField(t *testing.T) {
	body := `{
		"description": "` + strings.Repeat("d", 2001) + `",
		"status": "finished",
		"priority": 3,
		"due_at": "tomorrow",
		"tags": ["ok", " ", "` + strings.Repeat("t", 51) + `"],
		"context": "work",
		"workspace": "` + strings.Repeat("w", 101) + `"
	}`
	_, err := ParseCreate([]byte(body))
	assert.Equal(t, []string{
		"context", "description", "due_at", "priority", "status",
		"tags[1]", "tags[2]", "title", "workspace",
	}, fieldNames(t, err))
}

func TestParseCreateRejectsNonObjects(t *testing.T) {
	for _, body := range []string{``, `null`, `[]`, `"title"`, `{"title":`} {
		t.Run(body, func(t *testing.T) {
			_, err := ParseCreate([]byte(body))
			assert.Equal(t, []string{"body"}, fieldNames(t, err))
		})
	}
}

func TestParseCreateNulls(t *testing.T) {
	in, err := ParseCreate([]byte(`{"title":"x","description":null,"due_at":null,"tags":null,"workspace":null}`))
	require.NoError(t, err)
	assert.Nil(t, in.Description)
	assert.Equal(t, []string{}, in.Tags)

	_, err = ParseCreate([]byte(`{"title":null,"status":null}`))
	assert.Equal(t, []string{"status", "title"}, fieldNames(t, err))
}

func TestParseUpdatePresence(t *testing.T) {
	p, err := ParseUpdate([]byte(`{"status":"done","description":null,"tags":["A"]}`))
	require.NoError(t, err)

	assert.True(t, p.Has("status"))
	assert.Equal(t, model.StatusDone, *p.Status)
	assert.True(t, p.Has("description"))
	assert.Nil(t, p.Description)
	assert.Equal(t, []string{"a"}, p.Tags)

	assert.False(t, p.Has("title"))
	assert.False(t, p.Has("due_at"))
	assert.False(t, p.Has("priority"))
}

func TestParseUpdateEmptyObject(t *testing.T) {
	p, err := ParseUpdate([]byte(`{}`))
	require.NoError(t, err)
	for _, key := range []string{"title", "description", "status", "priority", "due_at", "tags", "context", "workspace"} {
		assert.False(t, p.Has(key), key)
	}
}

func TestParseUpdateErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"blank title", `{"title":"  "}`, []string{"title"}},
		{"empty title", `{"title":""}`, []string{"title"}},
		{"null title", `{"title":null}`, []string{"title"}},
		{"null enums", `{"status":null,"priority":null,"context":null}`, []string{"context", "priority", "status"}},
		{"long title", `{"title":"` + strings.Repeat("x", 201) + `"}`, []string{"title"}},
		{"bad due", `{"due_at":"31/12/2025"}`, []string{"due_at"}},
		{"tags not a list", `{"tags":"work"}`, []string{"tags"}},
		{"not an object", `[1]`, []string{"body"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseUpdate([]byte(tt.body))
			assert.Equal(t, tt.want, fieldNames(t, err))
		})
	}
}

func TestParseID(t *testing.T) {
	id, err := ParseID("6F9619FF-8B86-D011-B42D-00CF4FC964FF")
	require.NoError(t, err)
	assert.Equal(t, "6f9619ff-8b86-d011-b42d-00cf4fc964ff", id)

	_, err = ParseID("not-a-uuid")
	assert.Equal(t, []string{"id"}, fieldNames(t, err))
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-01-02T03:04:05Z", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2025-01-02T03:04:05.123456+01:00", time.Date(2025, 1, 2, 2, 4, 5, 123456000, time.UTC)},
		{"2025-01-02T03:04:05", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2025-01-02 03:04:05", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2025-01-02T03:04", time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC)},
		{"2025-01-02", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTime(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	for _, bad := range []string{"", "yesterday", "2025-13-01", "2025-01-02T25:00:00Z"} {
		_, err := ParseTime(bad)
		assert.Error(t, err, bad)
	}
}

func TestNormalizeTag(t *testing.T) {
	assert.Equal(t, "backend", NormalizeTag("  BackEnd "))
	assert.Equal(t, "straße", NormalizeTag("STRAßE"))
	assert.Equal(t, "", NormalizeTag("   "))
}
