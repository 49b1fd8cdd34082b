package service

import (
	"context"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"

	"tick-task/internal/model"
	"tick-task/internal/repository"
	"tick-task/internal/version"
)

// TaskPage is one page of a task listing.
type TaskPage struct {
	Tasks      []model.Task
	HasMore    bool
	NextCursor string
	TotalCount int
}

// Health reports service liveness and store connectivity.
type Health struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskService wraps task-related business logic.
type TaskService struct {
	repo   *repository.TaskRepository
	logger lgr.L
	now    func() time.Time
	newID  func() string
}

func NewTaskService(repo *repository.TaskRepository, logger lgr.L) *TaskService {
	if logger == nil {
		logger = lgr.NoOp
	}
	return &TaskService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

func (s *TaskService) Create(ctx context.Context, in TaskInput) (*model.Task, error) {
	task := newTask(s.newID(), in, s.now())
	if err := s.repo.Insert(ctx, &task); err != nil {
		return nil, err
	}
	s.logger.Logf("DEBUG created task %s status=%s", task.ID, task.Status)
	return &task, nil
}

func (s *TaskService) Get(ctx context.Context, id string) (*model.Task, error) {
	return s.repo.Get(ctx, id)
}

// Update applies p to the stored task inside one transaction.
func (s *TaskService) Update(ctx context.Context, id string, p TaskPatch) (*model.Task, error) {
	var updated model.Task
	err := s.repo.Transaction(ctx, func(repo *repository.TaskRepository) error {
		current, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		next, err := applyPatch(*current, p, s.now())
		if err != nil {
			return err
		}
		if err := repo.Update(ctx, &next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Logf("DEBUG updated task %s status=%s", updated.ID, updated.Status)
	return &updated, nil
}

// Archive soft-deletes the task. The record stays readable.
func (s *TaskService) Archive(ctx context.Context, id string) (*model.Task, error) {
	var archived model.Task
	err := s.repo.Transaction(ctx, func(repo *repository.TaskRepository) error {
		current, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		next, err := archiveTask(*current, s.now())
		if err != nil {
			return err
		}
		if err := repo.Update(ctx, &next); err != nil {
			return err
		}
		archived = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Logf("DEBUG archived task %s", archived.ID)
	return &archived, nil
}

// List returns one page of tasks. has_more is set when the page is full.
func (s *TaskService) List(ctx context.Context, q model.TaskQuery) (TaskPage, error) {
	if q.Sort == "" {
		q.Sort = model.DefaultSortField
	}
	if q.Order == "" {
		q.Order = model.OrderDesc
	}
	if q.Limit <= 0 {
		q.Limit = model.DefaultListLimit
	}

	tasks, err := s.repo.List(ctx, q)
	if err != nil {
		return TaskPage{}, err
	}

	page := TaskPage{
		Tasks:      tasks,
		HasMore:    len(tasks) == q.Limit,
		TotalCount: len(tasks),
	}
	if page.HasMore {
		page.NextCursor = model.NewCursor(tasks[len(tasks)-1], q.Sort, q.Order).Encode()
	}
	return page, nil
}

// Health never fails; a broken store shows up as database "disconnected".
func (s *TaskService) Health(ctx context.Context) Health {
	h := Health{
		Status:    "healthy",
		Version:   version.Version,
		Database:  "connected",
		Timestamp: s.now(),
	}
	if err := s.repo.Ping(ctx); err != nil {
		s.logger.Logf("WARN health check: database unreachable: %v", err)
		h.Database = "disconnected"
	}
	return h
}
