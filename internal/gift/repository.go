package gift

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrReferenced is returned by DeleteUnreferenced when an event gift set or a
// guest still points at the gift.
var ErrReferenced = errors.New("gift is referenced")

type Repository interface {
	Create(ctx context.Context, g *Gift) error
	List(ctx context.Context) ([]Gift, error)
	FindByID(ctx context.Context, id uint) (*Gift, error)
	FindByIDs(ctx context.Context, ids []uint) ([]Gift, error)
	Update(ctx context.Context, g *Gift) error
	DeleteUnreferenced(ctx context.Context, id uint) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, g *Gift) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *repository) List(ctx context.Context) ([]Gift, error) {
	gifts := []Gift{}
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&gifts).Error
	return gifts, err
}

func (r *repository) FindByID(ctx context.Context, id uint) (*Gift, error) {
	var g Gift
	if err := r.db.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uint) ([]Gift, error) {
	gifts := []Gift{}
	if len(ids) == 0 {
		return gifts, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&gifts).Error
	return gifts, err
}

func (r *repository) Update(ctx context.Context, g *Gift) error {
	return r.db.WithContext(ctx).Model(g).Select("name", "image").Updates(g).Error
}

// DeleteUnreferenced removes the gift only while nothing points at it. The row
// lock makes a concurrent event write that share-locks the gift finish first,
// so the reference check sees its gift set.
func (r *repository) DeleteUnreferenced(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g Gift
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&g, id).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).
			Where("NOT EXISTS (SELECT 1 FROM event_gifts WHERE event_gifts.gift_id = gifts.id)").
			Where("NOT EXISTS (SELECT 1 FROM guests WHERE guests.gift_id = gifts.id)").
			Delete(&Gift{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrReferenced
		}
		return nil
	})
}
