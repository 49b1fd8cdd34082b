package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tick-task/internal/model"
)

// TaskRepository handles persistence of tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Transaction runs fn against a repository bound to a single transaction.
// The transaction is rolled back if fn returns an error.
func (r *TaskRepository) Transaction(ctx context.Context, fn func(repo *TaskRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TaskRepository{db: tx})
	})
}

func (r *TaskRepository) Insert(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Get(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&task).Error
	switch {
	case err == nil:
		normalize(&task)
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, model.ErrTaskNotFound
	default:
		return nil, fmt.Errorf("get task: %w", err)
	}
}

// Update overwrites every mutable column of the stored task.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	res := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("id = ?", task.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(task)
	if res.Error != nil {
		return fmt.Errorf("update task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrTaskNotFound
	}
	return nil
}

// List returns tasks matching q, ordered by (sort column, id).
func (r *TaskRepository) List(ctx context.Context, q model.TaskQuery) ([]model.Task, error) {
	sort := q.Sort
	if sort == "" {
		sort = model.DefaultSortField
	}
	order := q.Order
	if order == "" {
		order = model.OrderDesc
	}

	db := applyFilters(r.db.WithContext(ctx).Model(&model.Task{}), q)

	if q.After != nil {
		var err error
		if db, err = applyCursor(db, sort, order, *q.After); err != nil {
			return nil, err
		}
	}

	desc := order == model.OrderDesc
	db = db.
		Order(clause.OrderByColumn{Column: clause.Column{Name: sort.Column()}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc})
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}

	var tasks []model.Task
	if err := db.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	for i := range tasks {
		normalize(&tasks[i])
	}
	return tasks, nil
}

// Ping checks that the database answers queries.
func (r *TaskRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return err
	}
	var one int
	return r.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error
}

func applyFilters(db *gorm.DB, q model.TaskQuery) *gorm.DB {
	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, s := range q.Statuses {
			statuses[i] = string(s)
		}
		db = db.Where("status IN ?", statuses)
	}
	if q.Context != "" {
		db = db.Where("context = ?", string(q.Context))
	}
	if q.MinPriority != "" {
		db = db.Where("priority >= ?", q.MinPriority.Rank())
	}
	if len(q.Tags) > 0 {
		db = db.Where("EXISTS (SELECT 1 FROM json_each(tasks.tags) WHERE json_each.value IN ?)", q.Tags)
	}
	// NULL due_at never satisfies a comparison, so undated tasks drop out here.
	if q.DueBefore != nil {
		db = db.Where("due_at < ?", q.DueBefore.UTC())
	}
	if q.DueAfter != nil {
		db = db.Where("due_at > ?", q.DueAfter.UTC())
	}
	if q.UpdatedSince != nil {
		db = db.Where("updated_at > ?", q.UpdatedSince.UTC())
	}
	return db
}

// applyCursor keeps rows strictly after c in (column, id) order. SQLite puts
// NULLs first when ascending and last when descending.
func applyCursor(db *gorm.DB, sort model.SortField, order model.SortOrder, c model.Cursor) (*gorm.DB, error) {
	if c.Sort != sort || c.Order != order {
		return nil, model.ErrInvalidCursor
	}
	col := sort.Column()
	asc := order == model.OrderAsc

	if c.Value == nil {
		if asc {
			return db.Where(fmt.Sprintf("((%[1]s IS NULL AND id > ?) OR %[1]s IS NOT NULL)", col), c.ID), nil
		}
		return db.Where(fmt.Sprintf("(%s IS NULL AND id < ?)", col), c.ID), nil
	}

	v, err := cursorArg(sort, *c.Value)
	if err != nil {
		return nil, err
	}
	if asc {
		return db.Where(fmt.Sprintf("(%[1]s > ? OR (%[1]s = ? AND id > ?))", col), v, v, c.ID), nil
	}
	return db.Where(fmt.Sprintf("(%[1]s < ? OR (%[1]s = ? AND id < ?) OR %[1]s IS NULL)", col), v, v, c.ID), nil
}

// cursorArg converts a cursor value into the form the column is stored in.
func cursorArg(sort model.SortField, value string) (any, error) {
	switch {
	case sort.IsTime():
		t, err := time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrInvalidCursor, err)
		}
		return t.UTC(), nil
	case sort == model.SortPriority:
		p, err := model.ParsePriority(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrInvalidCursor, err)
		}
		return p.Rank(), nil
	default:
		return value, nil
	}
}

func normalize(t *model.Task) {
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	if t.DueAt != nil {
		due := t.DueAt.UTC()
		t.DueAt = &due
	}
	if t.CompletedAt != nil {
		done := t.CompletedAt.UTC()
		t.CompletedAt = &done
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
}
