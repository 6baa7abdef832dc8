package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"lifeplanner/internal/model"
)

// GoalRepository handles goals and their steps. Steps carry no owner column;
// they are visible through the goal they belong to.
type GoalRepository struct {
	db *gorm.DB
}

func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

func (r *GoalRepository) Create(ctx context.Context, goal *model.Goal) error {
	if goal.ID == "" {
		goal.ID = newID()
	}
	if err := r.db.WithContext(ctx).Create(goal).Error; err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (r *GoalRepository) ListByUser(ctx context.Context, userID string) ([]model.Goal, error) {
	var goals []model.Goal
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *GoalRepository) FindByID(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	var goal model.Goal
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, goalID).First(&goal).Error; err != nil {
		return nil, err
	}
	return &goal, nil
}

func (r *GoalRepository) Update(ctx context.Context, userID, goalID string, fields map[string]any) error {
	scope := r.db.WithContext(ctx).Model(&model.Goal{}).Where("user_id = ?", userID)
	if err := scopedUpdate(scope, goalID, fields); err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return nil
}

// Delete removes the goal and its steps in one transaction.
func (r *GoalRepository) Delete(ctx context.Context, userID, goalID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND id = ?", userID, goalID).Delete(&model.Goal{})
		if err := checkDeleted(res); err != nil {
			return fmt.Errorf("delete goal: %w", err)
		}
		if err := tx.Where("goal_id = ?", goalID).Delete(&model.GoalStep{}).Error; err != nil {
			return fmt.Errorf("delete goal steps: %w", err)
		}
		return nil
	})
}

// ownedGoals is the subquery of goal ids visible to userID.
func (r *GoalRepository) ownedGoals(db *gorm.DB, userID string) *gorm.DB {
	return db.Model(&model.Goal{}).Select("id").Where("user_id = ?", userID)
}

// ListSteps returns steps of goals owned by userID. When goalIDs is not nil
// the result is further restricted to those goals.
func (r *GoalRepository) ListSteps(ctx context.Context, userID string, goalIDs []string) ([]model.GoalStep, error) {
	if goalIDs != nil && len(goalIDs) == 0 {
		return []model.GoalStep{}, nil
	}
	db := r.db.WithContext(ctx)
	query := db.Where("goal_id IN (?)", r.ownedGoals(db, userID))
	if goalIDs != nil {
		query = query.Where("goal_id IN ?", goalIDs)
	}
	var steps []model.GoalStep
	if err := query.Order("created_at ASC").Find(&steps).Error; err != nil {
		return nil, err
	}
	return steps, nil
}

// CreateStep adds a step to a goal owned by userID.
func (r *GoalRepository) CreateStep(ctx context.Context, userID string, step *model.GoalStep) error {
	if _, err := r.FindByID(ctx, userID, step.GoalID); err != nil {
		return fmt.Errorf("find goal %s: %w", step.GoalID, err)
	}
	if step.ID == "" {
		step.ID = newID()
	}
	if err := r.db.WithContext(ctx).Create(step).Error; err != nil {
		return fmt.Errorf("create goal step: %w", err)
	}
	return nil
}

func (r *GoalRepository) UpdateStep(ctx context.Context, userID, stepID string, fields map[string]any) error {
	db := r.db.WithContext(ctx)
	scope := db.Model(&model.GoalStep{}).Where("goal_id IN (?)", r.ownedGoals(db, userID))
	if err := scopedUpdate(scope, stepID, fields); err != nil {
		return fmt.Errorf("update goal step: %w", err)
	}
	return nil
}

func (r *GoalRepository) DeleteStep(ctx context.Context, userID, stepID string) error {
	db := r.db.WithContext(ctx)
	res := db.Where("id = ? AND goal_id IN (?)", stepID, r.ownedGoals(db, userID)).Delete(&model.GoalStep{})
	if err := checkDeleted(res); err != nil {
		return fmt.Errorf("delete goal step: %w", err)
	}
	return nil
}
