package store

import (
	"context"

	"lifeplanner/internal/model"
)

func goalRowID(g *model.Goal) string { return g.ID }

func stepRowID(st *model.GoalStep) string { return st.ID }

// CreateGoal inserts a goal with zero progress.
func (s *Store) CreateGoal(ctx context.Context, goal model.Goal) (model.Goal, error) {
	goal.Progress = 0
	return insertRow(ctx, s, "create goal", s.backend.Goals(), goal, &s.goals, goalRowID)
}

func (s *Store) UpdateGoal(ctx context.Context, id string, p model.GoalPatch) error {
	return updateRow[model.Goal](ctx, s, "update goal", s.backend.Goals(), id, p, &s.goals, goalRowID)
}

// DeleteGoal removes the goal and drops its steps from the mirror.
func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	sessionID, err := s.session()
	if err != nil {
		return err
	}
	if err := s.backend.Goals().Delete(ctx, id); err != nil {
		return s.failed("delete goal", err)
	}
	s.apply(sessionID, func() {
		s.goals = filterOut(s.goals, func(g *model.Goal) bool { return g.ID == id })
		s.steps = filterOut(s.steps, func(st *model.GoalStep) bool { return st.GoalID == id })
	})
	return nil
}

// CreateGoalStep adds a step to one of the identity's goals.
func (s *Store) CreateGoalStep(ctx context.Context, goalID, title string) (model.GoalStep, error) {
	sessionID, err := s.session()
	if err != nil {
		return model.GoalStep{}, err
	}
	step, err := s.backend.GoalSteps().Insert(ctx, model.GoalStep{GoalID: goalID, Title: title})
	if err != nil {
		return model.GoalStep{}, s.failed("create goal step", err)
	}
	s.apply(sessionID, func() { s.steps = upsert(s.steps, step, stepRowID) })
	return step, nil
}

func (s *Store) UpdateGoalStep(ctx context.Context, id string, p model.GoalStepPatch) error {
	sessionID, err := s.session()
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return s.failed("update goal step", err)
	}
	if err := s.backend.GoalSteps().Update(ctx, id, p.Fields()); err != nil {
		return s.failed("update goal step", err)
	}
	s.apply(sessionID, func() {
		for i := range s.steps {
			if s.steps[i].ID == id {
				p.Apply(&s.steps[i])
			}
		}
	})
	return nil
}

func (s *Store) DeleteGoalStep(ctx context.Context, id string) error {
	sessionID, err := s.session()
	if err != nil {
		return err
	}
	if err := s.backend.GoalSteps().Delete(ctx, id); err != nil {
		return s.failed("delete goal step", err)
	}
	s.apply(sessionID, func() {
		s.steps = filterOut(s.steps, func(st *model.GoalStep) bool { return stepRowID(st) == id })
	})
	return nil
}
