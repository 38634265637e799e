package user

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/sharath018/event-gift-backend/internal/apperr"
	"github.com/sharath018/event-gift-backend/internal/auditlog"
	"github.com/sharath018/event-gift-backend/internal/auth"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound          = apperr.New(apperr.ErrNotFound, "user_not_found", "User not found")
	ErrDuplicateUsername     = apperr.New(apperr.ErrConflict, "duplicate_username", "Username already exists")
	ErrForbiddenRoleDeletion = apperr.New(apperr.ErrForbidden, "forbidden_role_deletion", "Cannot delete admin users")
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type Service interface {
	ListAgents(ctx context.Context, page, limit int) (*AgentPage, error)
	CreateAgent(ctx context.Context, in CreateAgentInput, actor auditlog.Actor) (*auth.User, error)
	UpdateAgent(ctx context.Context, id uint, in UpdateAgentInput, actor auditlog.Actor) (*auth.User, error)
	DeleteAgent(ctx context.Context, id uint, actor auditlog.Actor) error
	Get(ctx context.Context, id uint) (*auth.User, error)
}

type service struct {
	repo     Repository
	auditSvc auditlog.Service
}

func NewService(repo Repository, auditSvc auditlog.Service) Service {
	return &service{repo: repo, auditSvc: auditSvc}
}

func (s *service) ListAgents(ctx context.Context, page, limit int) (*AgentPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	users, total, err := s.repo.ListByRole(ctx, auth.RoleAgent, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	profiles := make([]Profile, 0, len(users))
	for i := range users {
		profiles = append(profiles, ToProfile(&users[i]))
	}
	return &AgentPage{
		Users:       profiles,
		Total:       total,
		TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
		CurrentPage: page,
	}, nil
}

func (s *service) Get(ctx context.Context, id uint) (*auth.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *service) CreateAgent(ctx context.Context, in CreateAgentInput, actor auditlog.Actor) (*auth.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	if err := apperr.Struct(in); err != nil {
		return nil, err
	}

	taken, err := s.repo.UsernameTaken(ctx, in.Username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateUsername
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	agent := &auth.User{Name: in.Name, Username: in.Username, PasswordHash: hash, Role: auth.RoleAgent}
	if err := s.repo.Create(ctx, agent); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}

	_ = s.auditSvc.LogAction(ctx, actor.UserID, nil, auditlog.ActionAgentCreated,
		map[string]interface{}{"agentId": agent.ID, "username": agent.Username}, actor.IP, auditlog.StatusSuccess)
	return agent, nil
}

func (s *service) UpdateAgent(ctx context.Context, id uint, in UpdateAgentInput, actor auditlog.Actor) (*auth.User, error) {
	in.Name = trimmed(in.Name)
	in.Username = trimmed(in.Username)
	if in.Password != nil && strings.TrimSpace(*in.Password) == "" {
		in.Password = nil
	}
	if err := apperr.Struct(in); err != nil {
		return nil, err
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Username != nil && *in.Username != u.Username {
		taken, err := s.repo.UsernameTaken(ctx, *in.Username, u.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrDuplicateUsername
		}
		u.Username = *in.Username
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}

	_ = s.auditSvc.LogAction(ctx, actor.UserID, nil, auditlog.ActionAgentUpdated,
		map[string]interface{}{"agentId": u.ID, "username": u.Username, "passwordChanged": in.Password != nil},
		actor.IP, auditlog.StatusSuccess)
	return u, nil
}

func (s *service) DeleteAgent(ctx context.Context, id uint, actor auditlog.Actor) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if u.IsAdmin() {
		_ = s.auditSvc.LogAction(ctx, actor.UserID, nil, auditlog.ActionAgentDeleted,
			map[string]interface{}{"agentId": u.ID, "error": "admin deletion refused"}, actor.IP, auditlog.StatusFailure)
		return ErrForbiddenRoleDeletion
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	_ = s.auditSvc.LogAction(ctx, actor.UserID, nil, auditlog.ActionAgentDeleted,
		map[string]interface{}{"agentId": u.ID, "username": u.Username}, actor.IP, auditlog.StatusSuccess)
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
