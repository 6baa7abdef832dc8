package model

import (
	"strings"
	"time"
)

// VisionItem is a quote or picture pinned to the vision board.
type VisionItem struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	UserID    string    `gorm:"index;not null" json:"user_id"`
	ImageURL  *string   `json:"image_url,omitempty"`
	Quote     *string   `json:"quote,omitempty"`
	PositionX int       `gorm:"not null;default:0" json:"position_x"`
	PositionY int       `gorm:"not null;default:0" json:"position_y"`
	CreatedAt time.Time `json:"created_at"`
}

func (VisionItem) TableName() string {
	return "vision_board"
}

type VisionItemPatch struct {
	ImageURL  *string
	Quote     *string
	PositionX *int
	PositionY *int
}

// Validate rejects a patch that blanks both the quote and the image.
func (p VisionItemPatch) Validate() error {
	if p.ImageURL != nil && p.Quote != nil && trimmedPtr(*p.ImageURL) == nil && trimmedPtr(*p.Quote) == nil {
		return ValidationError{Field: "quote", Reason: "a quote or an image URL is required"}
	}
	return nil
}

func (p VisionItemPatch) Fields() map[string]any {
	fields := make(map[string]any)
	if p.ImageURL != nil {
		fields["image_url"] = blankToNil(*p.ImageURL)
	}
	if p.Quote != nil {
		fields["quote"] = blankToNil(*p.Quote)
	}
	if p.PositionX != nil {
		fields["position_x"] = *p.PositionX
	}
	if p.PositionY != nil {
		fields["position_y"] = *p.PositionY
	}
	return fields
}

func (p VisionItemPatch) Apply(v *VisionItem) {
	if p.ImageURL != nil {
		v.ImageURL = trimmedPtr(*p.ImageURL)
	}
	if p.Quote != nil {
		v.Quote = trimmedPtr(*p.Quote)
	}
	if p.PositionX != nil {
		v.PositionX = *p.PositionX
	}
	if p.PositionY != nil {
		v.PositionY = *p.PositionY
	}
}

// Validate requires a quote or an image and normalizes blanks to nil.
func (v *VisionItem) Validate() error {
	if v.ImageURL != nil {
		v.ImageURL = trimmedPtr(*v.ImageURL)
	}
	if v.Quote != nil {
		v.Quote = trimmedPtr(*v.Quote)
	}
	if v.ImageURL == nil && v.Quote == nil {
		return ValidationError{Field: "quote", Reason: "a quote or an image URL is required"}
	}
	return nil
}

func trimmedPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func blankToNil(s string) any {
	if p := trimmedPtr(s); p != nil {
		return *p
	}
	return nil
}
