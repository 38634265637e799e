package event

import (
	"io"
	"time"

	"github.com/sharath018/event-gift-backend/internal/gift"
)

const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusActive || s == StatusCompleted
}

// ============================
// GORM models

type Event struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	EventName       string      `gorm:"size:255;not null" json:"eventName"`
	ContactPerson   string      `gorm:"size:255;not null" json:"contactPerson"`
	ContactNo       string      `gorm:"size:30;not null" json:"contactNo"`
	FunctionName    string      `gorm:"size:255;not null" json:"functionName"`
	FunctionType    string      `gorm:"size:100;not null" json:"functionType"`
	RelationEnabled bool        `gorm:"not null;default:false" json:"relationEnabled"`
	BrideName       string      `gorm:"size:255" json:"brideName"`
	GroomName       string      `gorm:"size:255" json:"groomName"`
	AgentID         uint        `gorm:"not null;index:idx_event_agent_status,priority:1" json:"agentId"`
	Agent           *Agent      `gorm:"foreignKey:AgentID" json:"agent"`
	Gifts           []gift.Gift `gorm:"many2many:event_gifts" json:"gifts"`
	WelcomeImage    string      `gorm:"size:255" json:"welcomeImage"`
	GuestFormURL    string      `gorm:"size:512" json:"guestFormUrl"`
	EventDate       time.Time   `gorm:"not null;index" json:"eventDate"`
	Status          string      `gorm:"size:20;not null;default:pending;index:idx_event_agent_status,priority:2" json:"status"`
	CreatedAt       time.Time   `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time   `gorm:"autoUpdateTime" json:"updatedAt"`

	RedeemedCount int64 `gorm:"-" json:"redeemedCount"`
}

func (Event) TableName() string {
	return "events"
}

func (e *Event) HasGift(giftID uint) bool {
	for _, g := range e.Gifts {
		if g.ID == giftID {
			return true
		}
	}
	return false
}

// Agent is the read-only view of the assigned user. A deleted agent leaves the
// reference dangling and Agent nil.
type Agent struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

func (Agent) TableName() string {
	return "users"
}

type eventGift struct {
	EventID uint `gorm:"primaryKey"`
	GiftID  uint `gorm:"primaryKey"`
}

func (eventGift) TableName() string {
	return "event_gifts"
}

// ============================
// Inputs

type CreateEventInput struct {
	EventName       string `json:"eventName" validate:"required,min=3,max=255"`
	ContactPerson   string `json:"contactPerson" validate:"required,min=3,max=255"`
	ContactNo       string `json:"contactNo" validate:"required,min=3,max=30"`
	FunctionName    string `json:"functionName" validate:"required,min=3,max=255"`
	FunctionType    string `json:"functionType" validate:"required,min=3,max=100"`
	RelationEnabled bool   `json:"relationEnabled"`
	BrideName       string `json:"brideName" validate:"max=255"`
	GroomName       string `json:"groomName" validate:"max=255"`
	AgentID         uint   `json:"agentId" validate:"required"`
	EventDate       string `json:"eventDate" validate:"required"`
	GiftIDs         []uint `json:"gifts"`
	WelcomeImage    io.Reader
}

// UpdateEventInput changes only the fields that are set. Status is managed by
// SetStatus and cannot be changed here.
type UpdateEventInput struct {
	EventName       *string `json:"eventName" validate:"omitempty,min=3,max=255"`
	ContactPerson   *string `json:"contactPerson" validate:"omitempty,min=3,max=255"`
	ContactNo       *string `json:"contactNo" validate:"omitempty,min=3,max=30"`
	FunctionName    *string `json:"functionName" validate:"omitempty,min=3,max=255"`
	FunctionType    *string `json:"functionType" validate:"omitempty,min=3,max=100"`
	RelationEnabled *bool   `json:"relationEnabled"`
	BrideName       *string `json:"brideName" validate:"omitempty,max=255"`
	GroomName       *string `json:"groomName" validate:"omitempty,max=255"`
	AgentID         *uint   `json:"agentId" validate:"omitempty,min=1"`
	EventDate       *string `json:"eventDate"`
	GiftIDs         []uint  `json:"gifts"`
	ReplaceGifts    bool    `json:"-"`
	WelcomeImage    io.Reader
}

// ============================
// Projections

// PublicEvent is what an unauthenticated guest may see.
type PublicEvent struct {
	ID           uint        `json:"id"`
	EventName    string      `json:"eventName"`
	EventDate    time.Time   `json:"eventDate"`
	Gifts        []gift.Gift `json:"gifts"`
	AgentName    string      `json:"agentName"`
	Status       string      `json:"status"`
	WelcomeImage string      `json:"welcomeImage"`
	Completed    bool        `json:"completed"`
	Message      string      `json:"message,omitempty"`
}

type ActiveEvent struct {
	ID        uint      `json:"id"`
	EventName string    `json:"eventName"`
	EventDate time.Time `json:"eventDate"`
}
