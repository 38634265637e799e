package gift

import (
	"io"
	"time"
)

type Gift struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:50;not null" json:"giftName"`
	Image     string    `gorm:"size:255" json:"giftImage"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Gift) TableName() string {
	return "gifts"
}

// CreateGiftInput carries the multipart form of a new gift.
type CreateGiftInput struct {
	Name  string `json:"giftName" validate:"required,min=3,max=50"`
	Image io.Reader
}

// UpdateGiftInput replaces the name and/or image. Nil fields are kept.
type UpdateGiftInput struct {
	Name  *string `json:"giftName" validate:"omitempty,min=3,max=50"`
	Image io.Reader
}
