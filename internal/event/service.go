package event

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sharath018/event-gift-backend/internal/apperr"
	"github.com/sharath018/event-gift-backend/internal/auditlog"
	"github.com/sharath018/event-gift-backend/internal/auth"
	"github.com/sharath018/event-gift-backend/internal/gift"
	"github.com/sharath018/event-gift-backend/internal/media"
	"gorm.io/gorm"
)

const (
	completedMessage     = "Gift selection completed"
	relationNameMinChars = 3
)

var (
	ErrEventNotFound    = apperr.New(apperr.ErrNotFound, "event_not_found", "Event not found")
	ErrEventNotActive   = apperr.New(apperr.ErrForbidden, "event_not_active", "Event is not active yet")
	ErrInvalidStatus    = apperr.New(apperr.ErrValidation, "invalid_status", "Invalid status value")
	ErrNoGiftsAssigned  = apperr.New(apperr.ErrValidation, "no_gifts_assigned", "Assign at least one gift before activating the event")
	ErrAgentScope       = apperr.New(apperr.ErrForbidden, "forbidden", "Agents can only view their own events")
	errUnknownAgent     = apperr.Invalid("agentId", "must reference an existing agent")
	errUnknownGift      = apperr.Invalid("gifts", "contains an unknown gift")
	errInvalidEventDate = apperr.Invalid("eventDate", "must be a date (YYYY-MM-DD or RFC 3339)")
)

// GiftFinder resolves gift ids. gift.Repository satisfies it.
type GiftFinder interface {
	FindByIDs(ctx context.Context, ids []uint) ([]gift.Gift, error)
}

type Service interface {
	Create(ctx context.Context, in CreateEventInput, actor auditlog.Actor) (*Event, error)
	List(ctx context.Context) ([]Event, error)
	GetByID(ctx context.Context, id uint) (*Event, error)
	GetPublic(ctx context.Context, id uint) (*PublicEvent, error)
	Update(ctx context.Context, id uint, in UpdateEventInput, actor auditlog.Actor) (*Event, error)
	Delete(ctx context.Context, id uint, actor auditlog.Actor) error
	SetStatus(ctx context.Context, id uint, status string, actor auditlog.Actor) (*Event, error)
	ListActiveForAgent(ctx context.Context, agentID uint, caller auth.Principal) ([]ActiveEvent, error)
}

type service struct {
	repo        Repository
	gifts       GiftFinder
	images      media.Store
	auditSvc    auditlog.Service
	frontendURL string
	logger      zerolog.Logger
}

func NewService(repo Repository, gifts GiftFinder, images media.Store, auditSvc auditlog.Service, frontendURL string) Service {
	return &service{
		repo:        repo,
		gifts:       gifts,
		images:      images,
		auditSvc:    auditSvc,
		frontendURL: frontendURL,
		logger:      log.With().Str("component", "event").Logger(),
	}
}

// ParseDate accepts a calendar date or a full RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errInvalidEventDate
	}
	return t.UTC(), nil
}

func withField(err error, field, msg string) error {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		ve.Fields[field] = msg
		return ve
	}
	if err != nil {
		return err
	}
	return apperr.Invalid(field, msg)
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *service) checkGifts(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.gifts.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(found) != len(ids) {
		return errUnknownGift
	}
	return nil
}

func (s *service) checkAgent(ctx context.Context, id uint) error {
	ok, err := s.repo.AgentExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return errUnknownAgent
	}
	return nil
}

// ============================
// Create

func (s *service) Create(ctx context.Context, in CreateEventInput, actor auditlog.Actor) (*Event, error) {
	in.EventName = strings.TrimSpace(in.EventName)
	in.ContactPerson = strings.TrimSpace(in.ContactPerson)
	in.ContactNo = strings.TrimSpace(in.ContactNo)
	in.FunctionName = strings.TrimSpace(in.FunctionName)
	in.FunctionType = strings.TrimSpace(in.FunctionType)
	in.BrideName = strings.TrimSpace(in.BrideName)
	in.GroomName = strings.TrimSpace(in.GroomName)

	err := apperr.Struct(in)
	if in.RelationEnabled {
		if utf8.RuneCountInString(in.BrideName) < relationNameMinChars {
			err = withField(err, "brideName", "must be at least 3 characters")
		}
		if utf8.RuneCountInString(in.GroomName) < relationNameMinChars {
			err = withField(err, "groomName", "must be at least 3 characters")
		}
	} else {
		in.BrideName, in.GroomName = "", ""
	}
	if err != nil {
		return nil, err
	}

	date, err := ParseDate(in.EventDate)
	if err != nil {
		return nil, err
	}
	if err := s.checkAgent(ctx, in.AgentID); err != nil {
		return nil, err
	}
	giftIDs := dedupe(in.GiftIDs)
	if err := s.checkGifts(ctx, giftIDs); err != nil {
		return nil, err
	}

	e := &Event{
		EventName:       in.EventName,
		ContactPerson:   in.ContactPerson,
		ContactNo:       in.ContactNo,
		FunctionName:    in.FunctionName,
		FunctionType:    in.FunctionType,
		RelationEnabled: in.RelationEnabled,
		BrideName:       in.BrideName,
		GroomName:       in.GroomName,
		AgentID:         in.AgentID,
		EventDate:       date,
		Status:          StatusPending,
	}

	if in.WelcomeImage != nil {
		image, err := s.images.Save(media.KindEvents, in.WelcomeImage)
		if err != nil {
			return nil, err
		}
		e.WelcomeImage = image
	}

	if err := s.repo.Create(ctx, e, giftIDs, s.frontendURL); err != nil {
		s.discard(e.WelcomeImage)
		_ = s.auditSvc.LogAction(ctx, actor.UserID, nil, auditlog.ActionEventCreated,
			map[string]interface{}{"eventName": in.EventName, "error": err.Error()}, actor.IP, auditlog.StatusFailure)
		return nil, err
	}

	_ = s.auditSvc.LogAction(ctx, actor.UserID, &e.ID, auditlog.ActionEventCreated,
		map[string]interface{}{"eventName": e.EventName, "agentId": e.AgentID, "gifts": giftIDs}, actor.IP, auditlog.StatusSuccess)
	return s.GetByID(ctx, e.ID)
}

// ============================
// Reads

func (s *service) List(ctx context.Context) ([]Event, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(events))
	for i := range events {
		ids[i] = events[i].ID
	}
	counts, err := s.repo.RedeemedCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].RedeemedCount = counts[events[i].ID]
	}
	return events, nil
}

func (s *service) GetByID(ctx context.Context, id uint) (*Event, error) {
	e, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.RedeemedCounts(ctx, []uint{id})
	if err != nil {
		return nil, err
	}
	e.RedeemedCount = counts[id]
	return e, nil
}

// GetPublic returns the guest-facing projection. Contact details never leave
// the admin surface.
func (s *service) GetPublic(ctx context.Context, id uint) (*PublicEvent, error) {
	e, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	if e.Status == StatusPending {
		return nil, ErrEventNotActive
	}

	pub := &PublicEvent{
		ID:           e.ID,
		EventName:    e.EventName,
		EventDate:    e.EventDate,
		Gifts:        e.Gifts,
		Status:       e.Status,
		WelcomeImage: e.WelcomeImage,
	}
	if pub.Gifts == nil {
		pub.Gifts = []gift.Gift{}
	}
	if e.Agent != nil {
		pub.AgentName = e.Agent.Name
	}
	if e.Status == StatusCompleted {
		pub.Completed = true
		pub.Message = completedMessage
	}
	return pub, nil
}

func (s *service) ListActiveForAgent(ctx context.Context, agentID uint, caller auth.Principal) ([]ActiveEvent, error) {
	if !caller.IsAdmin() && caller.UserID != agentID {
		return nil, ErrAgentScope
	}
	return s.repo.ListActiveByAgent(ctx, agentID)
}

// ============================
// Update

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

// Update applies the set fields. Disabling the relation clears both names and
// a new welcome image replaces the old one only after the row is updated.
func (s *service) Update(ctx context.Context, id uint, in UpdateEventInput, actor auditlog.Actor) (*Event, error) {
	in.EventName = trimPtr(in.EventName)
	in.ContactPerson = trimPtr(in.ContactPerson)
	in.ContactNo = trimPtr(in.ContactNo)
	in.FunctionName = trimPtr(in.FunctionName)
	in.FunctionType = trimPtr(in.FunctionType)
	in.BrideName = trimPtr(in.BrideName)
	in.GroomName = trimPtr(in.GroomName)
	verr := apperr.Struct(in)

	e, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	set := func(col string, v *string) {
		if v != nil {
			changes[col] = *v
		}
	}
	set("event_name", in.EventName)
	set("contact_person", in.ContactPerson)
	set("contact_no", in.ContactNo)
	set("function_name", in.FunctionName)
	set("function_type", in.FunctionType)

	relation := e.RelationEnabled
	if in.RelationEnabled != nil {
		relation = *in.RelationEnabled
		changes["relation_enabled"] = relation
	}
	if relation {
		bride, groom := e.BrideName, e.GroomName
		if in.BrideName != nil {
			bride = *in.BrideName
		}
		if in.GroomName != nil {
			groom = *in.GroomName
		}
		if utf8.RuneCountInString(bride) < relationNameMinChars {
			verr = withField(verr, "brideName", "must be at least 3 characters")
		}
		if utf8.RuneCountInString(groom) < relationNameMinChars {
			verr = withField(verr, "groomName", "must be at least 3 characters")
		}
		changes["bride_name"], changes["groom_name"] = bride, groom
	} else {
		changes["bride_name"], changes["groom_name"] = "", ""
	}
	if verr != nil {
		return nil, verr
	}

	if in.EventDate != nil {
		date, err := ParseDate(*in.EventDate)
		if err != nil {
			return nil, err
		}
		changes["event_date"] = date
	}
	if in.AgentID != nil && *in.AgentID != e.AgentID {
		if err := s.checkAgent(ctx, *in.AgentID); err != nil {
			return nil, err
		}
		changes["agent_id"] = *in.AgentID
	}

	var giftIDs []uint
	if in.ReplaceGifts {
		giftIDs = dedupe(in.GiftIDs)
		if len(giftIDs) == 0 && e.Status == StatusActive {
			return nil, ErrNoGiftsAssigned
		}
		if err := s.checkGifts(ctx, giftIDs); err != nil {
			return nil, err
		}
	}

	newImage := ""
	if in.WelcomeImage != nil {
		newImage, err = s.images.Save(media.KindEvents, in.WelcomeImage)
		if err != nil {
			return nil, err
		}
		changes["welcome_image"] = newImage
	}

	if err := s.repo.Update(ctx, id, changes, giftIDs, in.ReplaceGifts); err != nil {
		s.discard(newImage)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if newImage != "" {
		s.discard(e.WelcomeImage)
	}

	details := map[string]interface{}{"eventName": e.EventName, "giftsReplaced": in.ReplaceGifts, "imageReplaced": newImage != ""}
	_ = s.auditSvc.LogAction(ctx, actor.UserID, &e.ID, auditlog.ActionEventUpdated, details, actor.IP, auditlog.StatusSuccess)
	return s.GetByID(ctx, id)
}

// ============================
// Delete / status

func (s *service) Delete(ctx context.Context, id uint, actor auditlog.Actor) error {
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		return err
	}
	s.discard(e.WelcomeImage)

	// The event row is gone, so the entry carries the id only in its details.
	_ = s.auditSvc.LogAction(ctx, actor.UserID, nil, auditlog.ActionEventDeleted,
		map[string]interface{}{"eventId": id, "eventName": e.EventName}, actor.IP, auditlog.StatusSuccess)
	return nil
}

func (s *service) SetStatus(ctx context.Context, id uint, status string, actor auditlog.Actor) (*Event, error) {
	status = strings.TrimSpace(status)
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrEventNotFound
		case errors.Is(err, ErrNoGiftsAssigned):
			_ = s.auditSvc.LogAction(ctx, actor.UserID, &e.ID, auditlog.ActionEventStatusChanged,
				map[string]interface{}{"from": e.Status, "to": status, "error": "no gifts assigned"}, actor.IP, auditlog.StatusFailure)
		}
		return nil, err
	}

	_ = s.auditSvc.LogAction(ctx, actor.UserID, &e.ID, auditlog.ActionEventStatusChanged,
		map[string]interface{}{"from": e.Status, "to": status}, actor.IP, auditlog.StatusSuccess)
	return s.GetByID(ctx, id)
}

func (s *service) discard(image string) {
	if image == "" {
		return
	}
	if err := s.images.Delete(image); err != nil {
		s.logger.Warn().Err(err).Str("image", image).Msg("remove welcome image")
	}
}
