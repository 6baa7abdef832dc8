package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Load fetches every collection of the signed-in identity concurrently and
// replaces each one that was fetched successfully. A failed fetch is logged
// and leaves its collection as it was; the joined errors are returned.
//
// Goal steps are fetched with an explicit scope of the identity's goal ids,
// so they depend on the goals fetch and are skipped if it fails.
func (s *Store) Load(ctx context.Context) error {
	s.mu.RLock()
	identity := s.identity
	sessionID := s.sessionID
	s.mu.RUnlock()
	if identity == nil {
		return ErrNotAuthenticated
	}

	var (
		g    errgroup.Group
		errs [5]error
	)

	g.Go(func() error {
		tasks, err := s.backend.Tasks().Select(ctx)
		if err != nil {
			errs[0] = fmt.Errorf("load tasks: %w", err)
			return nil
		}
		s.apply(sessionID, func() { s.tasks = nonNil(tasks) })
		return nil
	})
	g.Go(func() error {
		habits, err := s.backend.Habits().Select(ctx)
		if err != nil {
			errs[1] = fmt.Errorf("load habits: %w", err)
			return nil
		}
		s.apply(sessionID, func() { s.habits = nonNil(habits) })
		return nil
	})
	g.Go(func() error {
		goals, err := s.backend.Goals().Select(ctx)
		if err != nil {
			errs[2] = fmt.Errorf("load goals: %w", err)
			errs[3] = fmt.Errorf("load goal steps: skipped: %w", err)
			return nil
		}
		s.apply(sessionID, func() { s.goals = nonNil(goals) })

		ids := make([]string, 0, len(goals))
		for _, goal := range goals {
			ids = append(ids, goal.ID)
		}
		steps, err := s.backend.GoalSteps().Select(ctx, ids)
		if err != nil {
			errs[3] = fmt.Errorf("load goal steps: %w", err)
			return nil
		}
		s.apply(sessionID, func() { s.steps = nonNil(steps) })
		return nil
	})
	g.Go(func() error {
		items, err := s.backend.VisionBoard().Select(ctx)
		if err != nil {
			errs[4] = fmt.Errorf("load vision board: %w", err)
			return nil
		}
		s.apply(sessionID, func() { s.vision = nonNil(items) })
		return nil
	})
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			s.log.Warn("collection not loaded", zap.String("user", identity.ID), zap.Error(err))
		}
	}

	s.mu.RLock()
	s.log.Info("user data loaded",
		zap.String("user", identity.ID),
		zap.Int("tasks", len(s.tasks)),
		zap.Int("habits", len(s.habits)),
		zap.Int("goals", len(s.goals)),
		zap.Int("steps", len(s.steps)),
		zap.Int("vision", len(s.vision)),
	)
	s.mu.RUnlock()

	return errors.Join(errs[:]...)
}

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}

