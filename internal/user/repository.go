package user

import (
	"context"

	"github.com/sharath018/event-gift-backend/internal/auth"
	"gorm.io/gorm"
)

type Repository interface {
	ListByRole(ctx context.Context, role string, offset, limit int) ([]auth.User, int64, error)
	FindByID(ctx context.Context, id uint) (*auth.User, error)
	UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error)
	Create(ctx context.Context, u *auth.User) error
	Update(ctx context.Context, u *auth.User) error
	Delete(ctx context.Context, id uint) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListByRole(ctx context.Context, role string, offset, limit int) ([]auth.User, int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&auth.User{}).Where("role = ?", role)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []auth.User
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&users).Error
	return users, total, err
}

func (r *repository) FindByID(ctx context.Context, id uint) (*auth.User, error) {
	var u auth.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&auth.User{}).
		Where("username = ? AND id <> ?", username, exceptID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) Create(ctx context.Context, u *auth.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *repository) Update(ctx context.Context, u *auth.User) error {
	return r.db.WithContext(ctx).Model(u).Select("name", "username", "password_hash").Updates(u).Error
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&auth.User{}, id).Error
}
