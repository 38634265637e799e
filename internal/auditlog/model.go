package auditlog

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

const (
	ActionLogin              = "LOGIN"
	ActionEventCreated       = "EVENT_CREATED"
	ActionEventUpdated       = "EVENT_UPDATED"
	ActionEventDeleted       = "EVENT_DELETED"
	ActionEventStatusChanged = "EVENT_STATUS_CHANGED"
	ActionGiftCreated        = "GIFT_CREATED"
	ActionGiftUpdated        = "GIFT_UPDATED"
	ActionGiftDeleted        = "GIFT_DELETED"
	ActionAgentCreated       = "AGENT_CREATED"
	ActionAgentUpdated       = "AGENT_UPDATED"
	ActionAgentDeleted       = "AGENT_DELETED"
	ActionGuestUpdated       = "GUEST_UPDATED"
	ActionGuestDeleted       = "GUEST_DELETED"
	ActionGuestRedeemed      = "GUEST_REDEEMED"
)

// AuditLog represents the audit_logs table
type AuditLog struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *uint          `gorm:"index" json:"userId"`  // nullable (e.g. failed login)
	EventID   *uint          `gorm:"index" json:"eventId"` // nullable
	Action    string         `gorm:"size:100;not null;index" json:"action"`
	Details   datatypes.JSON `json:"details"`
	IPAddress string         `gorm:"size:45" json:"ipAddress"`
	Status    string         `gorm:"size:20;not null;index" json:"status"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// AuditLogResponse is an audit row joined with the user and event names.
type AuditLogResponse struct {
	ID        uint           `json:"id"`
	UserID    *uint          `json:"userId"`
	EventID   *uint          `json:"eventId"`
	Action    string         `json:"action"`
	Details   datatypes.JSON `json:"details"`
	IPAddress string         `json:"ipAddress"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	UserName  *string        `json:"userName,omitempty"`
	EventName *string        `json:"eventName,omitempty"`
}

type AuditLogFilter struct {
	UserID   *uint
	EventID  *uint
	Action   string
	Status   string
	FromDate *time.Time
	ToDate   *time.Time
	Page     int
	Limit    int
}

type PaginatedAuditLogs struct {
	Data       []AuditLogResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"totalPages"`
}

// Actor identifies who performed an audited operation and from where.
type Actor struct {
	UserID *uint
	IP     string
}
