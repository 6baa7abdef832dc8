package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"lifeplanner/internal/model"
)

// HabitRepository handles CRUD for habits.
type HabitRepository struct {
	db *gorm.DB
}

func NewHabitRepository(db *gorm.DB) *HabitRepository {
	return &HabitRepository{db: db}
}

func (r *HabitRepository) Create(ctx context.Context, habit *model.Habit) error {
	if habit.ID == "" {
		habit.ID = newID()
	}
	if err := r.db.WithContext(ctx).Create(habit).Error; err != nil {
		return fmt.Errorf("create habit: %w", err)
	}
	return nil
}

func (r *HabitRepository) ListByUser(ctx context.Context, userID string) ([]model.Habit, error) {
	var habits []model.Habit
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&habits).Error; err != nil {
		return nil, err
	}
	return habits, nil
}

func (r *HabitRepository) FindByID(ctx context.Context, userID, habitID string) (*model.Habit, error) {
	var habit model.Habit
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, habitID).First(&habit).Error; err != nil {
		return nil, err
	}
	return &habit, nil
}

func (r *HabitRepository) Update(ctx context.Context, userID, habitID string, fields map[string]any) error {
	scope := r.db.WithContext(ctx).Model(&model.Habit{}).Where("user_id = ?", userID)
	if err := scopedUpdate(scope, habitID, fields); err != nil {
		return fmt.Errorf("update habit: %w", err)
	}
	return nil
}

func (r *HabitRepository) Delete(ctx context.Context, userID, habitID string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, habitID).Delete(&model.Habit{})
	if err := checkDeleted(res); err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	return nil
}
