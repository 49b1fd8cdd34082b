package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tick-task/internal/model"
)

var t0 = time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)

func mustPatch(t *testing.T, body string) TaskPatch {
	t.Helper()
	p, err := ParseUpdate([]byte(body))
	require.NoError(t, err)
	return p
}

func TestNewTaskCompletedOnlyWhenDone(t *testing.T) {
	todo := newTask("id-1", TaskInput{Title: "a", Status: model.StatusTodo}, t0)
	assert.Nil(t, todo.CompletedAt)
	assert.Equal(t, t0, todo.CreatedAt)
	assert.Equal(t, t0, todo.UpdatedAt)
	assert.Equal(t, []string{}, todo.Tags)

	done := newTask("id-2", TaskInput{Title: "b", Status: model.StatusDone}, t0)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, t0, *done.CompletedAt)
}

func TestApplyPatchCompletedAt(t *testing.T) {
	current := newTask("id", TaskInput{Title: "a", Status: model.StatusDoing}, t0)

	done, err := applyPatch(current, mustPatch(t, `{"status":"done"}`), t0.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, t0.Add(time.Hour), *done.CompletedAt)

	// already done: completion time is kept
	retitled, err := applyPatch(done, mustPatch(t, `{"title":"renamed"}`), t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Hour), *retitled.CompletedAt)
	assert.Equal(t, t0.Add(2*time.Hour), retitled.UpdatedAt)

	reopened, err := applyPatch(retitled, mustPatch(t, `{"status":"blocked"}`), t0.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, reopened.CompletedAt)

	// input is not mutated
	assert.NotNil(t, retitled.CompletedAt)
}

func TestApplyPatchClearsCompletedAtEvenWithoutStatusChange(t *testing.T) {
	current := newTask("id", TaskInput{Title: "a", Status: model.StatusTodo}, t0)
	stale := t0
	current.CompletedAt = &stale

	next, err := applyPatch(current, mustPatch(t, `{"priority":"high"}`), t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Nil(t, next.CompletedAt)
	assert.Equal(t, model.PriorityHigh, next.Priority)
}

func TestApplyPatchOnlyTouchesPresentFields(t *testing.T) {
	desc := "keep me"
	ws := "ops"
	due := t0.Add(24 * time.Hour)
	current := newTask("id", TaskInput{
		Title:       "orig",
		Description: &desc,
		Status:      model.StatusTodo,
		Priority:    model.PriorityLow,
		DueAt:       &due,
		Tags:        []string{"x"},
		Context:     model.ContextMixed,
		Workspace:   &ws,
	}, t0)

	next, err := applyPatch(current, mustPatch(t, `{"workspace":null,"tags":null}`), t0.Add(time.Second))
	require.NoError(t, err)
	assert.Nil(t, next.Workspace)
	assert.Equal(t, []string{}, next.Tags)
	assert.Equal(t, "orig", next.Title)
	assert.Equal(t, "keep me", *next.Description)
	assert.Equal(t, model.PriorityLow, next.Priority)
	assert.Equal(t, due, *next.DueAt)
	assert.Equal(t, model.ContextMixed, next.Context)
	assert.Equal(t, t0, next.CreatedAt)
}

func TestApplyPatchArchivedIsTerminal(t *testing.T) {
	current := newTask("id", TaskInput{Title: "a", Status: model.StatusArchived}, t0)
	next, err := applyPatch(current, mustPatch(t, `{"title":"b"}`), t0.Add(time.Hour))
	assert.True(t, errors.Is(err, model.ErrTaskArchived))
	assert.Equal(t, current, next)
}

func TestArchiveTask(t *testing.T) {
	current := newTask("id", TaskInput{Title: "a", Status: model.StatusDone}, t0)

	archived, err := archiveTask(current, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.StatusArchived, archived.Status)
	assert.Equal(t, t0.Add(time.Hour), archived.UpdatedAt)
	require.NotNil(t, archived.CompletedAt)
	assert.Equal(t, t0, *archived.CompletedAt)

	_, err = archiveTask(archived, t0.Add(2*time.Hour))
	assert.True(t, errors.Is(err, model.ErrTaskAlreadyArchived))
}

func TestUpdatedAtNeverMovesBackwards(t *testing.T) {
	current := newTask("id", TaskInput{Title: "a", Status: model.StatusTodo}, t0)

	next, err := applyPatch(current, mustPatch(t, `{"title":"b"}`), t0.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, t0, next.UpdatedAt)

	archived, err := archiveTask(current, t0.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, t0, archived.UpdatedAt)
}
