package guest

import (
	"time"

	"github.com/sharath018/event-gift-backend/internal/gift"
)

const (
	StatusClaimed    = "Claimed"
	StatusNotClaimed = "Not Claimed"

	DateFieldCreatedAt  = "createdAt"
	DateFieldVerifiedAt = "verifiedAt"

	displayLayout = "2006-01-02 15:04:05"
)

// Guest is a registration against one event. A guest is either registered
// (code issued) or redeemed; redemption is terminal.
type Guest struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"size:100;not null" json:"name"`
	Mobile        string     `gorm:"size:20;not null;uniqueIndex:idx_guest_event_mobile,priority:2" json:"mobile"`
	GiftID        uint       `gorm:"not null;index" json:"giftId"`
	Gift          *gift.Gift `gorm:"foreignKey:GiftID" json:"gift,omitempty"`
	CustomMessage string     `gorm:"size:50" json:"customMessage"`
	Code          string     `gorm:"size:6;not null;uniqueIndex:idx_guest_event_code,priority:2" json:"code"`
	EventID       uint       `gorm:"not null;uniqueIndex:idx_guest_event_mobile,priority:1;uniqueIndex:idx_guest_event_code,priority:1" json:"eventId"`
	Redeemed      bool       `gorm:"not null;default:false;index" json:"redeemed"`
	RegisteredBy  *uint      `gorm:"index" json:"registeredBy"`
	VerifiedBy    *uint      `gorm:"index" json:"verifiedBy"`
	VerifiedAt    *time.Time `json:"verifiedAt"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Guest) TableName() string {
	return "guests"
}

func (g *Guest) Status() string {
	if g.Redeemed {
		return StatusClaimed
	}
	return StatusNotClaimed
}

// RegisteredGuest is the public answer to a registration.
type RegisteredGuest struct {
	ID            uint      `json:"id"`
	EventID       uint      `json:"eventId"`
	Name          string    `json:"name"`
	Mobile        string    `json:"mobile"`
	GiftID        uint      `json:"giftId"`
	CustomMessage string    `json:"customMessage"`
	Code          string    `json:"code,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func publicGuest(g *Guest, withCode bool) RegisteredGuest {
	out := RegisteredGuest{
		ID:            g.ID,
		EventID:       g.EventID,
		Name:          g.Name,
		Mobile:        g.Mobile,
		GiftID:        g.GiftID,
		CustomMessage: g.CustomMessage,
		CreatedAt:     g.CreatedAt,
	}
	if withCode {
		out.Code = g.Code
	}
	return out
}

// ============================
// Inputs

type RegisterInput struct {
	EventID       uint   `json:"eventId" validate:"required"`
	Name          string `json:"name" validate:"required,min=3,max=100"`
	Mobile        string `json:"mobile" validate:"required,mobile"`
	GiftID        uint   `json:"giftId" validate:"required"`
	CustomMessage string `json:"customMessage" validate:"max=50"`
	AgentID       *uint  `json:"agentId"`
}

type RedeemInput struct {
	Code    string `json:"code" validate:"required,otp"`
	EventID uint   `json:"eventId" validate:"required"`
}

// UpdateInput edits registration details only. Redemption state is not editable.
type UpdateInput struct {
	Name          *string `json:"name" validate:"omitempty,min=3,max=100"`
	Mobile        *string `json:"mobile" validate:"omitempty,mobile"`
	GiftID        *uint   `json:"giftId" validate:"omitempty,min=1"`
	CustomMessage *string `json:"customMessage" validate:"omitempty,max=50"`
}

// ListQuery is the raw list filter as it arrives on the query string.
type ListQuery struct {
	EventID   string
	Redeemed  string
	DateField string
	DateRange string
	StartDate string
	EndDate   string
}

type Filter struct {
	EventID   *uint
	Redeemed  *bool
	DateField string
	From      *time.Time
	To        *time.Time
}

// ============================
// Results

type Redemption struct {
	Guest         *Guest `json:"guest"`
	RedeemedCount int64  `json:"redeemedCount"`
}

// Row is a guest as shown in admin lists and reports.
type Row struct {
	ID               uint    `json:"id"`
	Name             string  `json:"name"`
	Mobile           string  `json:"mobile"`
	GiftID           uint    `json:"giftId"`
	GiftName         string  `json:"giftName"`
	GiftImage        string  `json:"giftImage"`
	CustomMessage    string  `json:"customMessage"`
	Code             string  `json:"code"`
	EventID          uint    `json:"eventId"`
	EventName        string  `json:"eventName"`
	Redeemed         bool    `json:"redeemed"`
	Status           string  `json:"status"`
	RegisteredBy     *uint   `json:"registeredBy"`
	RegisteredByName string  `json:"registeredByName"`
	VerifiedBy       *uint   `json:"verifiedBy"`
	VerifiedByName   string  `json:"verifiedByName"`
	VerifiedAt       *string `json:"verifiedAt"`
	CreatedAt        string  `json:"createdAt"`
	UpdatedAt        string  `json:"updatedAt"`
}

type rowRecord struct {
	ID               uint
	Name             string
	Mobile           string
	GiftID           uint
	GiftName         *string
	GiftImage        *string
	CustomMessage    string
	Code             string
	EventID          uint
	EventName        *string
	Redeemed         bool
	RegisteredBy     *uint
	RegisteredByName *string
	VerifiedBy       *uint
	VerifiedByName   *string
	VerifiedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
