package gift

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sharath018/event-gift-backend/internal/apperr"
	"github.com/sharath018/event-gift-backend/internal/auditlog"
	"github.com/sharath018/event-gift-backend/internal/media"
	"gorm.io/gorm"
)

var (
	ErrGiftNotFound = apperr.New(apperr.ErrNotFound, "gift_not_found", "Gift not found")
	ErrGiftInUse    = apperr.New(apperr.ErrConflict, "gift_in_use", "Gift is assigned to an event or a guest and cannot be deleted")
)

type Service interface {
	Create(ctx context.Context, in CreateGiftInput, actor auditlog.Actor) (*Gift, error)
	List(ctx context.Context) ([]Gift, error)
	GetByID(ctx context.Context, id uint) (*Gift, error)
	Update(ctx context.Context, id uint, in UpdateGiftInput, actor auditlog.Actor) (*Gift, error)
	Delete(ctx context.Context, id uint, actor auditlog.Actor) error
}

type service struct {
	repo     Repository
	images   media.Store
	auditSvc auditlog.Service
	logger   zerolog.Logger
}

func NewService(repo Repository, images media.Store, auditSvc auditlog.Service) Service {
	return &service{
		repo:     repo,
		images:   images,
		auditSvc: auditSvc,
		logger:   log.With().Str("component", "gift").Logger(),
	}
}

func (s *service) Create(ctx context.Context, in CreateGiftInput, actor auditlog.Actor) (*Gift, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := apperr.Struct(in); err != nil {
		return nil, err
	}
	if in.Image == nil {
		return nil, apperr.Invalid("giftImage", "is required")
	}

	image, err := s.images.Save(media.KindGifts, in.Image)
	if err != nil {
		return nil, err
	}

	g := &Gift{Name: in.Name, Image: image}
	if err := s.repo.Create(ctx, g); err != nil {
		s.discard(image)
		return nil, err
	}

	_ = s.auditSvc.LogAction(ctx, actor.UserID, nil, auditlog.ActionGiftCreated,
		map[string]interface{}{"giftId": g.ID, "giftName": g.Name}, actor.IP, auditlog.StatusSuccess)
	return g, nil
}

func (s *service) List(ctx context.Context) ([]Gift, error) {
	return s.repo.List(ctx)
}

func (s *service) GetByID(ctx context.Context, id uint) (*Gift, error) {
	g, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGiftNotFound
	}
	return g, err
}

// Update writes the new image before touching the row and removes the old image
// only after the row points at the new one.
func (s *service) Update(ctx context.Context, id uint, in UpdateGiftInput, actor auditlog.Actor) (*Gift, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			in.Name = nil
		} else {
			in.Name = &name
		}
	}
	if err := apperr.Struct(in); err != nil {
		return nil, err
	}

	g, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldImage := ""
	if in.Image != nil {
		image, err := s.images.Save(media.KindGifts, in.Image)
		if err != nil {
			return nil, err
		}
		oldImage = g.Image
		g.Image = image
	}
	if in.Name != nil {
		g.Name = *in.Name
	}

	if err := s.repo.Update(ctx, g); err != nil {
		if oldImage != "" {
			s.discard(g.Image)
		}
		return nil, err
	}
	if oldImage != "" {
		s.discard(oldImage)
	}

	_ = s.auditSvc.LogAction(ctx, actor.UserID, nil, auditlog.ActionGiftUpdated,
		map[string]interface{}{"giftId": g.ID, "giftName": g.Name, "imageReplaced": oldImage != ""},
		actor.IP, auditlog.StatusSuccess)
	return g, nil
}

func (s *service) Delete(ctx context.Context, id uint, actor auditlog.Actor) error {
	g, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteUnreferenced(ctx, id); err != nil {
		switch {
		case errors.Is(err, ErrReferenced):
			_ = s.auditSvc.LogAction(ctx, actor.UserID, nil, auditlog.ActionGiftDeleted,
				map[string]interface{}{"giftId": id, "error": "gift in use"}, actor.IP, auditlog.StatusFailure)
			return ErrGiftInUse
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrGiftNotFound
		}
		return err
	}
	s.discard(g.Image)

	_ = s.auditSvc.LogAction(ctx, actor.UserID, nil, auditlog.ActionGiftDeleted,
		map[string]interface{}{"giftId": id, "giftName": g.Name}, actor.IP, auditlog.StatusSuccess)
	return nil
}

func (s *service) discard(image string) {
	if err := s.images.Delete(image); err != nil {
		s.logger.Warn().Err(err).Str("image", image).Msg("remove gift image")
	}
}
