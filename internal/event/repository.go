package event

import (
	"context"
	"fmt"
	"strings"

	"github.com/sharath018/event-gift-backend/internal/auth"
	"github.com/sharath018/event-gift-backend/internal/gift"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Create(ctx context.Context, e *Event, giftIDs []uint, frontendURL string) error
	List(ctx context.Context) ([]Event, error)
	FindByID(ctx context.Context, id uint) (*Event, error)
	Update(ctx context.Context, id uint, changes map[string]interface{}, giftIDs []uint, replaceGifts bool) error
	Delete(ctx context.Context, id uint) error
	UpdateStatus(ctx context.Context, id uint, status string) error
	ListActiveByAgent(ctx context.Context, agentID uint) ([]ActiveEvent, error)
	AgentExists(ctx context.Context, id uint) (bool, error)
	RedeemedCounts(ctx context.Context, eventIDs []uint) (map[uint]int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Gifts", func(db *gorm.DB) *gorm.DB { return db.Order("gifts.id ASC") }).
		Preload("Agent", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "username") })
}

// Create inserts the event and its gift set, then stamps the guest form URL
// that depends on the generated id. All of it commits or none of it does.
func (r *repository) Create(ctx context.Context, e *Event, giftIDs []uint, frontendURL string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Gifts", "Agent").Create(e).Error; err != nil {
			return err
		}
		if err := insertGifts(tx, e.ID, giftIDs); err != nil {
			return err
		}
		e.GuestFormURL = fmt.Sprintf("%s/guest_form/%d", strings.TrimRight(frontendURL, "/"), e.ID)
		return tx.Model(&Event{}).Where("id = ?", e.ID).Update("guest_form_url", e.GuestFormURL).Error
	})
}

// insertGifts share-locks the gifts before linking them, so a concurrent gift
// delete either finishes first (and the event write fails) or sees the link.
func insertGifts(tx *gorm.DB, eventID uint, giftIDs []uint) error {
	if len(giftIDs) == 0 {
		return nil
	}
	var present []uint
	err := tx.Model(&gift.Gift{}).Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id IN ?", giftIDs).Pluck("id", &present).Error
	if err != nil {
		return err
	}
	if len(present) != len(giftIDs) {
		return errUnknownGift
	}
	rows := make([]eventGift, 0, len(giftIDs))
	for _, id := range giftIDs {
		rows = append(rows, eventGift{EventID: eventID, GiftID: id})
	}
	return tx.Create(&rows).Error
}

func (r *repository) List(ctx context.Context) ([]Event, error) {
	events := []Event{}
	err := r.withRelations(ctx).Order("event_date DESC, id DESC").Find(&events).Error
	return events, err
}

func (r *repository) FindByID(ctx context.Context, id uint) (*Event, error) {
	var e Event
	if err := r.withRelations(ctx).First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// lockEvent reads the event status under a row lock. Status changes and gift
// set edits both take it, so an active event never ends up without gifts.
func lockEvent(tx *gorm.DB, id uint) (*Event, error) {
	var e Event
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id", "status").First(&e, id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func countGifts(tx *gorm.DB, eventID uint) (int64, error) {
	var n int64
	err := tx.Model(&eventGift{}).Where("event_id = ?", eventID).Count(&n).Error
	return n, err
}

// Update writes the column changes and, when replaceGifts is set, swaps the
// gift set. Emptying the gift set of an active event is refused.
func (r *repository) Update(ctx context.Context, id uint, changes map[string]interface{}, giftIDs []uint, replaceGifts bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockEvent(tx, id)
		if err != nil {
			return err
		}
		if replaceGifts && len(giftIDs) == 0 && current.Status == StatusActive {
			return ErrNoGiftsAssigned
		}
		if len(changes) > 0 {
			if err := tx.Model(&Event{}).Where("id = ?", id).Updates(changes).Error; err != nil {
				return err
			}
		}
		if !replaceGifts {
			return nil
		}
		if err := tx.Where("event_id = ?", id).Delete(&eventGift{}).Error; err != nil {
			return err
		}
		return insertGifts(tx, id, giftIDs)
	})
}

// Delete removes the event together with its guests and gift set.
func (r *repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM guests WHERE event_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&eventGift{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&Event{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// UpdateStatus sets the status. Activation requires at least one gift, counted
// under the same row lock that gift set edits take.
func (r *repository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockEvent(tx, id); err != nil {
			return err
		}
		if status == StatusActive {
			n, err := countGifts(tx, id)
			if err != nil {
				return err
			}
			if n == 0 {
				return ErrNoGiftsAssigned
			}
		}
		return tx.Model(&Event{}).Where("id = ?", id).Update("status", status).Error
	})
}

func (r *repository) ListActiveByAgent(ctx context.Context, agentID uint) ([]ActiveEvent, error) {
	events := []ActiveEvent{}
	err := r.db.WithContext(ctx).Model(&Event{}).
		Select("id", "event_name", "event_date").
		Where("agent_id = ? AND status = ?", agentID, StatusActive).
		Order("event_date DESC, id DESC").
		Scan(&events).Error
	return events, err
}

func (r *repository) AgentExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("users").
		Where("id = ? AND role = ?", id, auth.RoleAgent).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) RedeemedCounts(ctx context.Context, eventIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		EventID uint
		Total   int64
	}
	err := r.db.WithContext(ctx).Table("guests").
		Select("event_id, COUNT(*) AS total").
		Where("event_id IN ? AND redeemed = ?", eventIDs, true).
		Group("event_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.EventID] = row.Total
	}
	return counts, nil
}
