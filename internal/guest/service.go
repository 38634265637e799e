package guest

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sharath018/event-gift-backend/internal/apperr"
	"github.com/sharath018/event-gift-backend/internal/auditlog"
	"github.com/sharath018/event-gift-backend/internal/auth"
	"github.com/sharath018/event-gift-backend/internal/event"
	"github.com/sharath018/event-gift-backend/internal/metrics"
	"github.com/sharath018/event-gift-backend/internal/notification"
	"github.com/sharath018/event-gift-backend/internal/reports"
	"gorm.io/gorm"
)

const maxCodeAttempts = 5

var (
	ErrGuestNotFound         = apperr.New(apperr.ErrNotFound, "guest_not_found", "Guest not found")
	ErrGiftNotOffered        = apperr.New(apperr.ErrValidation, "gift_not_offered", "Selected gift is not offered for this event")
	ErrDuplicateRegistration = apperr.New(apperr.ErrConflict, "duplicate_registration", "Guest already registered for this event")
	ErrCodeSpaceExhausted    = apperr.New(apperr.ErrUnavailable, "code_space_exhausted", "Could not issue a code, please try again")
	ErrInvalidCode           = apperr.New(apperr.ErrNotFound, "invalid_code", "Invalid code")
	ErrAlreadyRedeemed       = apperr.New(apperr.ErrConflict, "already_redeemed", "Code already redeemed")
	ErrNotAssignedAgent      = apperr.New(apperr.ErrForbidden, "not_assigned_agent", "You are not assigned to this event")
	errAgentNotOnEvent       = apperr.Invalid("agentId", "must be the agent assigned to the event")
	errBadDateField          = apperr.Invalid("dateField", "must be createdAt or verifiedAt")
)

// EventReader loads an event with its gift set. event.Service satisfies it.
type EventReader interface {
	GetByID(ctx context.Context, id uint) (*event.Event, error)
}

// Metrics receives registration and redemption outcomes.
type Metrics interface {
	GuestRegistered()
	Redemption(result string)
}

type Service interface {
	Register(ctx context.Context, in RegisterInput) (*Guest, error)
	Redeem(ctx context.Context, in RedeemInput, caller auth.Principal, actor auditlog.Actor) (*Redemption, error)
	ParseFilter(q ListQuery) (Filter, error)
	List(ctx context.Context, f Filter) ([]Row, error)
	ListRedeemed(ctx context.Context, eventID *uint) ([]Row, error)
	GetByID(ctx context.Context, id uint) (*Guest, error)
	Update(ctx context.Context, id uint, in UpdateInput, actor auditlog.Actor) (*Guest, error)
	Delete(ctx context.Context, id uint, actor auditlog.Actor) error
	Export(ctx context.Context, f Filter, format string) ([]byte, string, string, error)
}

type Options struct {
	Location *time.Location
	Exporter reports.Exporter
}

type service struct {
	repo      Repository
	events    EventReader
	publisher notification.Publisher
	metrics   Metrics
	auditSvc  auditlog.Service
	exporter  reports.Exporter
	loc       *time.Location
	logger    zerolog.Logger

	newCode func() (string, error)
	now     func() time.Time
}

func NewService(repo Repository, events EventReader, publisher notification.Publisher, m Metrics, auditSvc auditlog.Service, opts Options) Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Exporter == nil {
		opts.Exporter = reports.NewExporter()
	}
	return &service{
		repo:      repo,
		events:    events,
		publisher: publisher,
		metrics:   m,
		auditSvc:  auditSvc,
		exporter:  opts.Exporter,
		loc:       opts.Location,
		logger:    log.With().Str("component", "guest").Logger(),
		newCode:   GenerateCode,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GenerateCode draws a code uniformly from [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

func (s *service) activeEvent(ctx context.Context, id uint) (*event.Event, error) {
	ev, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev.Status != event.StatusActive {
		return nil, event.ErrEventNotActive
	}
	return ev, nil
}

// ============================
// Register

func (s *service) Register(ctx context.Context, in RegisterInput) (*Guest, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Mobile = strings.TrimSpace(in.Mobile)
	in.CustomMessage = strings.TrimSpace(in.CustomMessage)
	if err := apperr.Struct(in); err != nil {
		return nil, err
	}
	in.Mobile = apperr.NormalizeMobile(in.Mobile)

	ev, err := s.activeEvent(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	if !ev.HasGift(in.GiftID) {
		return nil, ErrGiftNotOffered
	}
	if in.AgentID != nil && *in.AgentID != ev.AgentID {
		return nil, errAgentNotOnEvent
	}

	taken, err := s.repo.MobileTaken(ctx, ev.ID, in.Mobile, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateRegistration
	}

	g := &Guest{
		Name:          in.Name,
		Mobile:        in.Mobile,
		GiftID:        in.GiftID,
		CustomMessage: in.CustomMessage,
		EventID:       ev.ID,
		RegisteredBy:  in.AgentID,
	}
	if err := s.insertWithCode(ctx, g); err != nil {
		return nil, err
	}

	for i := range ev.Gifts {
		if ev.Gifts[i].ID == g.GiftID {
			g.Gift = &ev.Gifts[i]
			break
		}
	}

	s.metrics.GuestRegistered()
	s.publish(ctx, notification.TypeCodeIssued, g, ev.EventName, true)
	return g, nil
}

// insertWithCode relies on the unique indexes: a clash on (event, mobile) is a
// concurrent duplicate registration, a clash on (event, code) draws a new code.
func (s *service) insertWithCode(ctx context.Context, g *Guest) error {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return err
		}
		g.ID = 0
		g.Code = code

		err = s.repo.Create(ctx, g)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}

		taken, lookupErr := s.repo.MobileTaken(ctx, g.EventID, g.Mobile, 0)
		if lookupErr != nil {
			return lookupErr
		}
		if taken {
			return ErrDuplicateRegistration
		}
		s.logger.Debug().Uint("event_id", g.EventID).Int("attempt", attempt).Msg("code collision, drawing again")
	}

	s.logger.Error().Uint("event_id", g.EventID).Msg("no free code after retries")
	return ErrCodeSpaceExhausted
}

// ============================
// Redeem

func (s *service) Redeem(ctx context.Context, in RedeemInput, caller auth.Principal, actor auditlog.Actor) (*Redemption, error) {
	in.Code = strings.TrimSpace(in.Code)
	if err := apperr.Struct(in); err != nil {
		return nil, err
	}

	fail := func(result string, eventID *uint, err error) (*Redemption, error) {
		s.metrics.Redemption(result)
		_ = s.auditSvc.LogAction(ctx, actor.UserID, eventID, auditlog.ActionGuestRedeemed,
			map[string]interface{}{"eventId": in.EventID, "error": err.Error()}, actor.IP, auditlog.StatusFailure)
		return nil, err
	}

	g, err := s.repo.FindByCode(ctx, in.EventID, in.Code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(metrics.ResultInvalidCode, nil, ErrInvalidCode)
	}
	if err != nil {
		s.metrics.Redemption(metrics.ResultError)
		return nil, err
	}

	ev, err := s.activeEvent(ctx, g.EventID)
	if err != nil {
		if errors.Is(err, apperr.ErrForbidden) || errors.Is(err, apperr.ErrNotFound) {
			return fail(metrics.ResultRejected, nil, err)
		}
		s.metrics.Redemption(metrics.ResultError)
		return nil, err
	}
	// a consumed code reports AlreadyRedeemed to every caller
	if g.Redeemed {
		return fail(metrics.ResultAlreadyRedeemed, &ev.ID, ErrAlreadyRedeemed)
	}
	if !caller.IsAdmin() && caller.UserID != ev.AgentID {
		return fail(metrics.ResultRejected, &ev.ID, ErrNotAssignedAgent)
	}

	won, err := s.repo.MarkRedeemed(ctx, g.ID, caller.UserID, s.now())
	if err != nil {
		s.metrics.Redemption(metrics.ResultError)
		return nil, err
	}
	if !won {
		return fail(metrics.ResultAlreadyRedeemed, &ev.ID, ErrAlreadyRedeemed)
	}

	// The redemption is committed from here on; reads below only shape the answer.
	s.metrics.Redemption(metrics.ResultSuccess)
	_ = s.auditSvc.LogAction(ctx, actor.UserID, &ev.ID, auditlog.ActionGuestRedeemed,
		map[string]interface{}{"guestId": g.ID, "giftId": g.GiftID}, actor.IP, auditlog.StatusSuccess)

	redeemed, err := s.repo.FindByID(ctx, g.ID)
	if err != nil {
		s.logger.Error().Err(err).Uint("guest_id", g.ID).Uint("event_id", ev.ID).Msg("redeemed guest could not be reloaded")
		return nil, err
	}
	count, err := s.repo.CountRedeemed(ctx, ev.ID)
	if err != nil {
		s.logger.Error().Err(err).Uint("guest_id", g.ID).Uint("event_id", ev.ID).Msg("redeemed count unavailable")
		return nil, err
	}

	s.publish(ctx, notification.TypeRedeemed, redeemed, ev.EventName, false)

	return &Redemption{Guest: redeemed, RedeemedCount: count}, nil
}

func (s *service) publish(ctx context.Context, kind string, g *Guest, eventName string, withCode bool) {
	msg := notification.Message{
		Type:      kind,
		GuestID:   g.ID,
		EventID:   g.EventID,
		EventName: eventName,
		Name:      g.Name,
		Mobile:    g.Mobile,
		AgentID:   g.VerifiedBy,
		At:        s.now(),
	}
	if withCode {
		msg.Code = g.Code
	}
	if g.Gift != nil {
		msg.GiftName = g.Gift.Name
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Error().Err(err).Str("type", kind).Uint("guest_id", g.ID).Msg("dispatch guest message")
	}
}

// ============================
// Listing

func (s *service) ParseFilter(q ListQuery) (Filter, error) {
	var f Filter

	if v := strings.TrimSpace(q.EventID); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil || id == 0 {
			return Filter{}, apperr.Invalid("eventId", "must be a positive integer")
		}
		eventID := uint(id)
		f.EventID = &eventID
	}

	switch strings.TrimSpace(q.Redeemed) {
	case "":
	case "true":
		v := true
		f.Redeemed = &v
	case "false":
		v := false
		f.Redeemed = &v
	default:
		return Filter{}, apperr.Invalid("redeemed", "must be true or false")
	}

	switch q.DateField {
	case "", DateFieldCreatedAt:
		f.DateField = DateFieldCreatedAt
	case DateFieldVerifiedAt:
		f.DateField = DateFieldVerifiedAt
	default:
		return Filter{}, errBadDateField
	}

	r, err := reports.GetDateRange(q.DateRange, q.StartDate, q.EndDate, s.now().In(s.loc))
	if err != nil {
		return Filter{}, err
	}
	f.From, f.To = r.From, r.To
	return f, nil
}

func (s *service) List(ctx context.Context, f Filter) ([]Row, error) {
	records, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, s.toRow(rec))
	}
	return rows, nil
}

func (s *service) ListRedeemed(ctx context.Context, eventID *uint) ([]Row, error) {
	redeemed := true
	return s.List(ctx, Filter{EventID: eventID, Redeemed: &redeemed, DateField: DateFieldCreatedAt})
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func (s *service) toRow(rec rowRecord) Row {
	row := Row{
		ID:               rec.ID,
		Name:             rec.Name,
		Mobile:           rec.Mobile,
		GiftID:           rec.GiftID,
		GiftName:         str(rec.GiftName),
		GiftImage:        str(rec.GiftImage),
		CustomMessage:    rec.CustomMessage,
		Code:             rec.Code,
		EventID:          rec.EventID,
		EventName:        str(rec.EventName),
		Redeemed:         rec.Redeemed,
		Status:           StatusNotClaimed,
		RegisteredBy:     rec.RegisteredBy,
		RegisteredByName: str(rec.RegisteredByName),
		VerifiedBy:       rec.VerifiedBy,
		VerifiedByName:   str(rec.VerifiedByName),
		CreatedAt:        rec.CreatedAt.In(s.loc).Format(displayLayout),
		UpdatedAt:        rec.UpdatedAt.In(s.loc).Format(displayLayout),
	}
	if rec.Redeemed {
		row.Status = StatusClaimed
	}
	if rec.VerifiedAt != nil {
		v := rec.VerifiedAt.In(s.loc).Format(displayLayout)
		row.VerifiedAt = &v
	}
	return row
}

func (s *service) Export(ctx context.Context, f Filter, format string) ([]byte, string, string, error) {
	rows, err := s.List(ctx, f)
	if err != nil {
		return nil, "", "", err
	}
	out := make([]reports.GuestRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, reports.GuestRow{
			ID:            r.ID,
			Name:          r.Name,
			Mobile:        r.Mobile,
			EventName:     r.EventName,
			GiftName:      r.GiftName,
			CustomMessage: r.CustomMessage,
			Code:          r.Code,
			Status:        r.Status,
			RegisteredBy:  r.RegisteredByName,
			VerifiedBy:    r.VerifiedByName,
			CreatedAt:     r.CreatedAt,
			VerifiedAt:    str(r.VerifiedAt),
		})
	}
	return s.exporter.Export(format, out)
}

// ============================
// Update / delete

func (s *service) GetByID(ctx context.Context, id uint) (*Guest, error) {
	g, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGuestNotFound
	}
	return g, err
}

func (s *service) Update(ctx context.Context, id uint, in UpdateInput, actor auditlog.Actor) (*Guest, error) {
	for _, p := range []*string{in.Name, in.Mobile, in.CustomMessage} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	if err := apperr.Struct(in); err != nil {
		return nil, err
	}
	if in.Mobile != nil {
		normalized := apperr.NormalizeMobile(*in.Mobile)
		in.Mobile = &normalized
	}

	g, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.GiftID != nil && *in.GiftID != g.GiftID {
		ev, err := s.events.GetByID(ctx, g.EventID)
		if err != nil {
			return nil, err
		}
		if !ev.HasGift(*in.GiftID) {
			return nil, ErrGiftNotOffered
		}
		g.GiftID = *in.GiftID
		g.Gift = nil
	}
	if in.Mobile != nil && *in.Mobile != g.Mobile {
		taken, err := s.repo.MobileTaken(ctx, g.EventID, *in.Mobile, g.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrDuplicateRegistration
		}
		g.Mobile = *in.Mobile
	}
	if in.Name != nil {
		g.Name = *in.Name
	}
	if in.CustomMessage != nil {
		g.CustomMessage = *in.CustomMessage
	}

	if err := s.repo.Update(ctx, g); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateRegistration
		}
		return nil, err
	}

	_ = s.auditSvc.LogAction(ctx, actor.UserID, &g.EventID, auditlog.ActionGuestUpdated,
		map[string]interface{}{"guestId": g.ID}, actor.IP, auditlog.StatusSuccess)
	return s.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uint, actor auditlog.Actor) error {
	g, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrGuestNotFound
	}

	_ = s.auditSvc.LogAction(ctx, actor.UserID, &g.EventID, auditlog.ActionGuestDeleted,
		map[string]interface{}{"guestId": g.ID, "name": g.Name}, actor.IP, auditlog.StatusSuccess)
	return nil
}
