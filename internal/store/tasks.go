package store

import (
	"context"

	"lifeplanner/internal/model"
)

func taskRowID(t *model.Task) string { return t.ID }

// CreateTask inserts a task owned by the signed-in identity. Priority
// defaults to medium and status to not_started.
func (s *Store) CreateTask(ctx context.Context, task model.Task) (model.Task, error) {
	return insertRow(ctx, s, "create task", s.backend.Tasks(), task, &s.tasks, taskRowID)
}

func (s *Store) UpdateTask(ctx context.Context, id string, p model.TaskPatch) error {
	return updateRow[model.Task](ctx, s, "update task", s.backend.Tasks(), id, p, &s.tasks, taskRowID)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return deleteRow(ctx, s, "delete task", s.backend.Tasks(), id, &s.tasks, taskRowID)
}

// AdvanceTask moves a task to its next status (not_started, in_progress,
// completed, then back to not_started).
func (s *Store) AdvanceTask(ctx context.Context, id string) (model.TaskStatus, error) {
	task, ok := s.task(id)
	if !ok {
		return "", ErrNotFound
	}
	next := task.Status.Next()
	if err := s.UpdateTask(ctx, id, model.TaskPatch{Status: &next}); err != nil {
		return "", err
	}
	return next, nil
}

func (s *Store) task(id string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}
