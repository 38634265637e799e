package guest

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, g *Guest) error
	MobileTaken(ctx context.Context, eventID uint, mobile string, exceptID uint) (bool, error)
	FindByCode(ctx context.Context, eventID uint, code string) (*Guest, error)
	FindByID(ctx context.Context, id uint) (*Guest, error)
	MarkRedeemed(ctx context.Context, id, agentID uint, at time.Time) (bool, error)
	CountRedeemed(ctx context.Context, eventID uint) (int64, error)
	List(ctx context.Context, f Filter) ([]rowRecord, error)
	Update(ctx context.Context, g *Guest) error
	Delete(ctx context.Context, id uint) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, g *Guest) error {
	return r.db.WithContext(ctx).Omit("Gift").Create(g).Error
}

func (r *repository) MobileTaken(ctx context.Context, eventID uint, mobile string, exceptID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&Guest{}).Where("event_id = ? AND mobile = ?", eventID, mobile)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

// FindByCode matches on the (event, code) pair only, so a code issued for a
// different event is indistinguishable from an unknown one.
func (r *repository) FindByCode(ctx context.Context, eventID uint, code string) (*Guest, error) {
	var g Guest
	err := r.db.WithContext(ctx).Where("event_id = ? AND code = ?", eventID, code).First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *repository) FindByID(ctx context.Context, id uint) (*Guest, error) {
	var g Guest
	if err := r.db.WithContext(ctx).Preload("Gift").First(&g, id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// MarkRedeemed flips the redemption flag in a single conditional UPDATE and
// reports whether this call won.
func (r *repository) MarkRedeemed(ctx context.Context, id, agentID uint, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Guest{}).
		Where("id = ? AND redeemed = ?", id, false).
		Updates(map[string]interface{}{
			"redeemed":    true,
			"verified_by": agentID,
			"verified_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CountRedeemed(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Guest{}).
		Where("event_id = ? AND redeemed = ?", eventID, true).
		Count(&count).Error
	return count, err
}

func (r *repository) List(ctx context.Context, f Filter) ([]rowRecord, error) {
	q := r.db.WithContext(ctx).Table("guests AS g").
		Select(`g.id, g.name, g.mobile, g.gift_id, g.custom_message, g.code, g.event_id, g.redeemed,
			g.registered_by, g.verified_by, g.verified_at, g.created_at, g.updated_at,
			gf.name AS gift_name, gf.image AS gift_image, e.event_name,
			ru.name AS registered_by_name, vu.name AS verified_by_name`).
		Joins("LEFT JOIN gifts gf ON gf.id = g.gift_id").
		Joins("LEFT JOIN events e ON e.id = g.event_id").
		Joins("LEFT JOIN users ru ON ru.id = g.registered_by").
		Joins("LEFT JOIN users vu ON vu.id = g.verified_by")

	if f.EventID != nil {
		q = q.Where("g.event_id = ?", *f.EventID)
	}
	if f.Redeemed != nil {
		q = q.Where("g.redeemed = ?", *f.Redeemed)
	}
	col := "g.created_at"
	if f.DateField == DateFieldVerifiedAt {
		col = "g.verified_at"
	}
	if f.From != nil {
		q = q.Where(col+" >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where(col+" <= ?", f.To.UTC())
	}

	records := []rowRecord{}
	err := q.Order("g.created_at DESC, g.id DESC").Scan(&records).Error
	return records, err
}

func (r *repository) Update(ctx context.Context, g *Guest) error {
	return r.db.WithContext(ctx).Model(g).
		Select("name", "mobile", "gift_id", "custom_message").
		Updates(g).Error
}

func (r *repository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&Guest{}, id)
	return res.RowsAffected > 0, res.Error
}
