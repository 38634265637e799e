package event

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sharath018/event-gift-backend/internal/apperr"
	"github.com/sharath018/event-gift-backend/internal/auditlog"
	"github.com/sharath018/event-gift-backend/internal/auth"
	"github.com/sharath018/event-gift-backend/internal/gift"
	"github.com/sharath018/event-gift-backend/internal/media"
	"github.com/sharath018/event-gift-backend/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func png() io.Reader { return bytes.NewReader(pngBytes) }

type guestRow struct {
	ID       uint
	EventID  uint
	GiftID   uint
	Redeemed bool
}

func (guestRow) TableName() string { return "guests" }

type fixture struct {
	svc    Service
	db     *gorm.DB
	images *media.DiskStore
	admin  auth.User
	agent  auth.User
	other  auth.User
	gifts  []gift.Gift
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t, &auth.User{}, &gift.Gift{}, &Event{}, &guestRow{}, &auditlog.AuditLog{})
	images, err := media.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	f := &fixture{db: db, images: images}
	f.admin = auth.User{Name: "Admin", Username: "admin", PasswordHash: "x", Role: auth.RoleAdmin}
	f.agent = auth.User{Name: "Ravi", Username: "ravi", PasswordHash: "x", Role: auth.RoleAgent}
	f.other = auth.User{Name: "Meena", Username: "meena", PasswordHash: "x", Role: auth.RoleAgent}
	for _, u := range []*auth.User{&f.admin, &f.agent, &f.other} {
		require.NoError(t, db.Create(u).Error)
	}
	for _, name := range []string{"Silver Coin", "Sweet Box", "Photo Frame"} {
		g := gift.Gift{Name: name, Image: "/uploads/gifts/x.png"}
		require.NoError(t, db.Create(&g).Error)
		f.gifts = append(f.gifts, g)
	}

	giftRepo := gift.NewRepository(db)
	f.svc = NewService(NewRepository(db), giftRepo, images, auditlog.NewService(auditlog.NewRepository(db)), "https://gifts.example.com/")
	return f
}

func (f *fixture) input() CreateEventInput {
	return CreateEventInput{
		EventName:     "Sharma Wedding",
		ContactPerson: "Anil Sharma",
		ContactNo:     "9876543210",
		FunctionName:  "Reception",
		FunctionType:  "Wedding",
		AgentID:       f.agent.ID,
		EventDate:     "2026-12-05",
		GiftIDs:       []uint{f.gifts[0].ID, f.gifts[1].ID, f.gifts[0].ID},
	}
}

func (f *fixture) create(t *testing.T, mutate func(*CreateEventInput)) *Event {
	t.Helper()
	in := f.input()
	if mutate != nil {
		mutate(&in)
	}
	e, err := f.svc.Create(context.Background(), in, auditlog.Actor{UserID: &f.admin.ID})
	require.NoError(t, err)
	return e
}

func (f *fixture) imageExists(t *testing.T, public string) bool {
	t.Helper()
	_, err := os.Stat(filepath.Join(f.images.Root(), media.KindEvents, filepath.Base(public)))
	return err == nil
}

func TestCreateEvent(t *testing.T) {
	f := newFixture(t)
	e := f.create(t, func(in *CreateEventInput) {
		in.BrideName = "Priya"
		in.WelcomeImage = png()
	})

	assert.Equal(t, StatusPending, e.Status)
	assert.Equal(t, "2026-12-05", e.EventDate.Format("2006-01-02"))
	assert.Equal(t, fmt.Sprintf("https://gifts.example.com/guest_form/%d", e.ID), e.GuestFormURL)
	assert.Len(t, e.Gifts, 2, "duplicate gift ids collapse")
	require.NotNil(t, e.Agent)
	assert.Equal(t, "Ravi", e.Agent.Name)
	assert.Empty(t, e.BrideName, "names are dropped while the relation is disabled")
	assert.True(t, f.imageExists(t, e.WelcomeImage))

	var logged int64
	require.NoError(t, f.db.Model(&auditlog.AuditLog{}).Where("action = ?", auditlog.ActionEventCreated).Count(&logged).Error)
	assert.EqualValues(t, 1, logged)
}

func TestCreateEventRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateEventInput)
		field  string
	}{
		{"missing name", func(in *CreateEventInput) { in.EventName = "  " }, "eventName"},
		{"short function type", func(in *CreateEventInput) { in.FunctionType = "ab" }, "functionType"},
		{"relation without bride", func(in *CreateEventInput) { in.RelationEnabled = true; in.GroomName = "Rahul" }, "brideName"},
		{"relation without groom", func(in *CreateEventInput) { in.RelationEnabled = true; in.BrideName = "Priya" }, "groomName"},
		{"one letter bride in Devanagari", func(in *CreateEventInput) {
			in.RelationEnabled = true
			in.BrideName, in.GroomName = "मा", "Rahul"
		}, "brideName"},
		{"one letter groom in Tamil", func(in *CreateEventInput) {
			in.RelationEnabled = true
			in.BrideName, in.GroomName = "Priya", "ரா"
		}, "groomName"},
		{"missing agent", func(in *CreateEventInput) { in.AgentID = 0 }, "agentId"},
		{"admin is not an agent", func(in *CreateEventInput) { in.AgentID = f.admin.ID }, "agentId"},
		{"bad date", func(in *CreateEventInput) { in.EventDate = "05/12/2026" }, "eventDate"},
		{"unknown gift", func(in *CreateEventInput) { in.GiftIDs = []uint{f.gifts[0].ID, 999} }, "gifts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.input()
			tt.mutate(&in)
			_, err := f.svc.Create(ctx, in, auditlog.Actor{})
			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}

	events, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)

	e, err := f.svc.Create(ctx, func() CreateEventInput {
		in := f.input()
		in.RelationEnabled = true
		in.BrideName, in.GroomName = "प्रिया", "ராமு"
		return in
	}(), auditlog.Actor{})
	require.NoError(t, err, "names are measured in characters")
	assert.Equal(t, "प्रिया", e.BrideName)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-01-31")
	require.NoError(t, err)
	assert.Equal(t, 31, d.Day())

	d, err = ParseDate("2026-01-31T18:30:00+05:30")
	require.NoError(t, err)
	assert.Equal(t, 13, d.Hour())

	_, err = ParseDate("tomorrow")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSetStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	withGifts := f.create(t, nil)
	noGifts := f.create(t, func(in *CreateEventInput) { in.GiftIDs = nil })

	_, err := f.svc.SetStatus(ctx, withGifts.ID, "archived", auditlog.Actor{})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.svc.SetStatus(ctx, noGifts.ID, StatusActive, auditlog.Actor{})
	assert.ErrorIs(t, err, ErrNoGiftsAssigned)

	_, err = f.svc.SetStatus(ctx, 999, StatusActive, auditlog.Actor{})
	assert.ErrorIs(t, err, ErrEventNotFound)

	e, err := f.svc.SetStatus(ctx, withGifts.ID, StatusActive, auditlog.Actor{})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, e.Status)

	e, err = f.svc.SetStatus(ctx, withGifts.ID, StatusActive, auditlog.Actor{})
	require.NoError(t, err, "activating twice is a no-op")
	assert.Equal(t, StatusActive, e.Status)

	e, err = f.svc.SetStatus(ctx, noGifts.ID, StatusCompleted, auditlog.Actor{})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, e.Status)
}

// hookRepo runs a callback once before the wrapped write, standing in for a
// request that lands between the service's read and its write.
type hookRepo struct {
	Repository
	beforeStatus func()
	beforeUpdate func()
}

func (r *hookRepo) UpdateStatus(ctx context.Context, id uint, status string) error {
	if fn := r.beforeStatus; fn != nil {
		r.beforeStatus = nil
		fn()
	}
	return r.Repository.UpdateStatus(ctx, id, status)
}

func (r *hookRepo) Update(ctx context.Context, id uint, changes map[string]interface{}, giftIDs []uint, replaceGifts bool) error {
	if fn := r.beforeUpdate; fn != nil {
		r.beforeUpdate = nil
		fn()
	}
	return r.Repository.Update(ctx, id, changes, giftIDs, replaceGifts)
}

func (f *fixture) hooked() (*hookRepo, Service) {
	repo := &hookRepo{Repository: NewRepository(f.db)}
	svc := NewService(repo, gift.NewRepository(f.db), f.images, auditlog.NewService(auditlog.NewRepository(f.db)), "https://gifts.example.com/")
	return repo, svc
}

func (f *fixture) giftCount(t *testing.T, eventID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&eventGift{}).Where("event_id = ?", eventID).Count(&n).Error)
	return n
}

func TestActivationNeverLeavesEventWithoutGifts(t *testing.T) {
	ctx := context.Background()

	t.Run("gifts cleared before activation", func(t *testing.T) {
		f := newFixture(t)
		e := f.create(t, nil)
		repo, svc := f.hooked()
		repo.beforeStatus = func() {
			_, err := svc.Update(ctx, e.ID, UpdateEventInput{ReplaceGifts: true}, auditlog.Actor{})
			require.NoError(t, err, "a pending event may drop its gifts")
		}

		_, err := svc.SetStatus(ctx, e.ID, StatusActive, auditlog.Actor{})
		assert.ErrorIs(t, err, ErrNoGiftsAssigned)

		got, err := f.svc.GetByID(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, got.Status)
		assert.Empty(t, got.Gifts)
	})

	t.Run("activated before gifts cleared", func(t *testing.T) {
		f := newFixture(t)
		e := f.create(t, nil)
		repo, svc := f.hooked()
		repo.beforeUpdate = func() {
			_, err := svc.SetStatus(ctx, e.ID, StatusActive, auditlog.Actor{})
			require.NoError(t, err)
		}

		_, err := svc.Update(ctx, e.ID, UpdateEventInput{ReplaceGifts: true}, auditlog.Actor{})
		assert.ErrorIs(t, err, ErrNoGiftsAssigned)

		got, err := f.svc.GetByID(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusActive, got.Status)
		assert.EqualValues(t, 2, f.giftCount(t, e.ID))
	})
}

func TestEventWriteRejectsGiftDeletedMidway(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.create(t, nil)

	repo, svc := f.hooked()
	repo.beforeUpdate = func() {
		require.NoError(t, f.db.Delete(&gift.Gift{}, f.gifts[2].ID).Error)
	}
	_, err := svc.Update(ctx, e.ID, UpdateEventInput{ReplaceGifts: true, GiftIDs: []uint{f.gifts[2].ID}}, auditlog.Actor{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.EqualValues(t, 2, f.giftCount(t, e.ID), "the gift set is untouched")
}

func TestGetPublic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.create(t, nil)

	_, err := f.svc.GetPublic(ctx, e.ID)
	assert.ErrorIs(t, err, ErrEventNotActive)

	_, err = f.svc.SetStatus(ctx, e.ID, StatusActive, auditlog.Actor{})
	require.NoError(t, err)
	pub, err := f.svc.GetPublic(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, pub.Completed)
	assert.Equal(t, "Ravi", pub.AgentName)
	assert.Len(t, pub.Gifts, 2)

	_, err = f.svc.SetStatus(ctx, e.ID, StatusCompleted, auditlog.Actor{})
	require.NoError(t, err)
	pub, err = f.svc.GetPublic(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, pub.Completed)
	assert.Equal(t, "Gift selection completed", pub.Message)

	_, err = f.svc.GetPublic(ctx, 999)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestUpdateEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.create(t, func(in *CreateEventInput) { in.WelcomeImage = png() })
	oldImage := e.WelcomeImage

	enabled := true
	bride, groom := "Priya", "Rahul"
	date := "2027-01-10"
	updated, err := f.svc.Update(ctx, e.ID, UpdateEventInput{
		RelationEnabled: &enabled,
		BrideName:       &bride,
		GroomName:       &groom,
		EventDate:       &date,
		AgentID:         &f.other.ID,
		GiftIDs:         []uint{f.gifts[2].ID},
		ReplaceGifts:    true,
		WelcomeImage:    png(),
	}, auditlog.Actor{})
	require.NoError(t, err)
	assert.Equal(t, "Priya", updated.BrideName)
	assert.Equal(t, "2027-01-10", updated.EventDate.Format("2006-01-02"))
	assert.Equal(t, f.other.ID, updated.AgentID)
	require.Len(t, updated.Gifts, 1)
	assert.Equal(t, "Photo Frame", updated.Gifts[0].Name)
	assert.Equal(t, StatusPending, updated.Status)
	assert.True(t, f.imageExists(t, updated.WelcomeImage))
	assert.False(t, f.imageExists(t, oldImage))

	disabled := false
	updated, err = f.svc.Update(ctx, e.ID, UpdateEventInput{RelationEnabled: &disabled}, auditlog.Actor{})
	require.NoError(t, err)
	assert.Empty(t, updated.BrideName)
	assert.Empty(t, updated.GroomName)
	assert.Len(t, updated.Gifts, 1, "gift set is untouched unless replaced")

	short := "ab"
	_, err = f.svc.Update(ctx, e.ID, UpdateEventInput{EventName: &short}, auditlog.Actor{})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.SetStatus(ctx, e.ID, StatusActive, auditlog.Actor{})
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, e.ID, UpdateEventInput{ReplaceGifts: true}, auditlog.Actor{})
	assert.ErrorIs(t, err, ErrNoGiftsAssigned)

	_, err = f.svc.Update(ctx, 999, UpdateEventInput{EventName: &bride}, auditlog.Actor{})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestDeleteEventCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.create(t, func(in *CreateEventInput) { in.WelcomeImage = png() })
	keep := f.create(t, nil)

	require.NoError(t, f.db.Create(&guestRow{EventID: e.ID, GiftID: f.gifts[0].ID}).Error)
	require.NoError(t, f.db.Create(&guestRow{EventID: keep.ID, GiftID: f.gifts[0].ID}).Error)

	require.NoError(t, f.svc.Delete(ctx, e.ID, auditlog.Actor{}))
	assert.False(t, f.imageExists(t, e.WelcomeImage))

	var guests, links int64
	require.NoError(t, f.db.Model(&guestRow{}).Where("event_id = ?", e.ID).Count(&guests).Error)
	require.NoError(t, f.db.Model(&eventGift{}).Where("event_id = ?", e.ID).Count(&links).Error)
	assert.Zero(t, guests)
	assert.Zero(t, links)

	require.NoError(t, f.db.Model(&guestRow{}).Where("event_id = ?", keep.ID).Count(&guests).Error)
	assert.EqualValues(t, 1, guests)

	assert.ErrorIs(t, f.svc.Delete(ctx, e.ID, auditlog.Actor{}), ErrEventNotFound)
}

func TestListOrderAndRedeemedCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	early := f.create(t, func(in *CreateEventInput) { in.EventDate = "2026-01-01" })
	late := f.create(t, func(in *CreateEventInput) { in.EventDate = "2026-06-01" })

	for _, redeemed := range []bool{true, true, false} {
		require.NoError(t, f.db.Create(&guestRow{EventID: early.ID, GiftID: f.gifts[0].ID, Redeemed: redeemed}).Error)
	}

	events, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, late.ID, events[0].ID)
	assert.EqualValues(t, 0, events[0].RedeemedCount)
	assert.EqualValues(t, 2, events[1].RedeemedCount)
}

func TestListActiveForAgent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	active := f.create(t, nil)
	f.create(t, nil)
	_, err := f.svc.SetStatus(ctx, active.ID, StatusActive, auditlog.Actor{})
	require.NoError(t, err)

	agent := auth.Principal{UserID: f.agent.ID, Role: auth.RoleAgent}
	events, err := f.svc.ListActiveForAgent(ctx, f.agent.ID, agent)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Sharma Wedding", events[0].EventName)

	_, err = f.svc.ListActiveForAgent(ctx, f.agent.ID, auth.Principal{UserID: f.other.ID, Role: auth.RoleAgent})
	assert.ErrorIs(t, err, ErrAgentScope)

	events, err = f.svc.ListActiveForAgent(ctx, f.other.ID, auth.Principal{UserID: f.admin.ID, Role: auth.RoleAdmin})
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}
