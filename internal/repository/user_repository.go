package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lifeplanner/internal/model"
)

// UserRepository handles accounts and their profiles.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user together with an initial profile row.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	user.Email = normalizeEmail(user.Email)
	if user.ID == "" {
		user.ID = newID()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		profile := model.Profile{ID: user.ID}
		if user.FullName != "" {
			name := user.FullName
			profile.FullName = &name
		}
		if err := tx.Create(&profile).Error; err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		return nil
	})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Verify confirms the account owning token and burns the token.
func (r *UserRepository) Verify(ctx context.Context, token string, at time.Time) (*model.User, error) {
	var user model.User
	db := r.db.WithContext(ctx)
	if err := db.Where("verification_token = ?", token).First(&user).Error; err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"verified_at":        at,
		"verification_token": nil,
	}
	if err := db.Model(&user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("verify user: %w", err)
	}
	user.VerifiedAt = &at
	user.VerificationToken = nil
	return &user, nil
}

// GetProfile returns the profile of userID.
func (r *UserRepository) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpsertProfile creates or replaces the profile of profile.ID.
// UpsertProfile saves the profile row. A non-empty full name is copied to
// the user so sessions resolved later carry it.
func (r *UserRepository) UpsertProfile(ctx context.Context, profile *model.Profile) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"full_name", "avatar_url"}),
		}).Create(profile).Error
		if err != nil {
			return err
		}
		if profile.FullName == nil || *profile.FullName == "" {
			return nil
		}
		return tx.Model(&model.User{}).Where("id = ?", profile.ID).Update("full_name", *profile.FullName).Error
	})
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
