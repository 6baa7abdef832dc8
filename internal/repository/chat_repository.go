package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lifeplanner/internal/model"
)

// ChatRepository maps Telegram chats to session tokens.
type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Save(ctx context.Context, chatID int64, token string) error {
	link := model.ChatLink{ChatID: chatID, Token: token}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
	}).Create(&link).Error
	if err != nil {
		return fmt.Errorf("save chat link: %w", err)
	}
	return nil
}

func (r *ChatRepository) Find(ctx context.Context, chatID int64) (*model.ChatLink, error) {
	var link model.ChatLink
	if err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *ChatRepository) Delete(ctx context.Context, chatID int64) error {
	if err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).Delete(&model.ChatLink{}).Error; err != nil {
		return fmt.Errorf("delete chat link: %w", err)
	}
	return nil
}

func (r *ChatRepository) ListAll(ctx context.Context) ([]model.ChatLink, error) {
	var links []model.ChatLink
	if err := r.db.WithContext(ctx).Order("chat_id ASC").Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}
