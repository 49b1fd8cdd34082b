package service

import (
	"time"

	"tick-task/internal/model"
)

// newTask builds the first persisted state of a task.
func newTask(id string, in TaskInput, now time.Time) model.Task {
	now = now.UTC()
	task := model.Task{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueAt:       in.DueAt,
		Tags:        append([]string{}, in.Tags...),
		Context:     in.Context,
		Workspace:   in.Workspace,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.Status == model.StatusDone {
		task.CompletedAt = &now
	}
	return task
}

// applyPatch returns the state that results from applying p to current.
// Archived tasks are read-only.
func applyPatch(current model.Task, p TaskPatch, now time.Time) (model.Task, error) {
	if current.Status.IsTerminal() {
		return current, model.ErrTaskArchived
	}

	next := current.Clone()
	if p.Has("title") {
		next.Title = *p.Title
	}
	if p.Has("description") {
		next.Description = p.Description
	}
	if p.Has("status") {
		next.Status = *p.Status
	}
	if p.Has("priority") {
		next.Priority = *p.Priority
	}
	if p.Has("due_at") {
		next.DueAt = p.DueAt
	}
	if p.Has("tags") {
		next.Tags = append([]string{}, p.Tags...)
	}
	if p.Has("context") {
		next.Context = *p.Context
	}
	if p.Has("workspace") {
		next.Workspace = p.Workspace
	}

	now = touch(current.UpdatedAt, now)
	switch {
	case next.Status != model.StatusDone:
		next.CompletedAt = nil
	case next.CompletedAt == nil:
		next.CompletedAt = &now
	}
	next.UpdatedAt = now
	return next, nil
}

// archiveTask soft-deletes current. completed_at is kept as is.
func archiveTask(current model.Task, now time.Time) (model.Task, error) {
	if current.Status == model.StatusArchived {
		return current, model.ErrTaskAlreadyArchived
	}
	next := current.Clone()
	next.Status = model.StatusArchived
	next.UpdatedAt = touch(current.UpdatedAt, now)
	return next, nil
}

// touch keeps updated_at from moving backwards when the clock does.
func touch(last, now time.Time) time.Time {
	now = now.UTC()
	if now.Before(last) {
		return last.UTC()
	}
	return now
}
