package user

import (
	"time"

	"github.com/sharath018/event-gift-backend/internal/auth"
)

type CreateAgentInput struct {
	Name     string `json:"name" validate:"required,min=3,max=100"`
	Username string `json:"username" validate:"required,min=3,max=20,username"`
	Password string `json:"password" validate:"required,min=6,max=72,hasdigit"`
}

// UpdateAgentInput changes only the fields that are set. A blank password keeps
// the current one.
type UpdateAgentInput struct {
	Name     *string `json:"name" validate:"omitempty,min=3,max=100"`
	Username *string `json:"username" validate:"omitempty,min=3,max=20,username"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72,hasdigit"`
}

// Profile is a user without credentials.
type Profile struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToProfile(u *auth.User) Profile {
	name := u.Name
	if name == "" {
		name = u.Username
	}
	return Profile{ID: u.ID, Name: name, Username: u.Username, Role: u.Role, CreatedAt: u.CreatedAt}
}

type AgentPage struct {
	Users       []Profile `json:"users"`
	Total       int64     `json:"total"`
	TotalPages  int       `json:"totalPages"`
	CurrentPage int       `json:"currentPage"`
}
