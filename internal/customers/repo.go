package customers

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/orderbot-backend/pkg/db/models"
)

// Repository persists customers and administrators.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByChatID(ctx context.Context, chatID int64) (*models.Customer, error)
	Create(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	FindAdminByChatID(ctx context.Context, chatID int64) (*models.Admin, error)
	CountAdmins(ctx context.Context) (int64, error)
	CreateAdmin(ctx context.Context, admin *models.Admin) (*models.Admin, error)
	UpdateAdminPasswordHash(ctx context.Context, adminID int64, hash string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an identity repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByChatID(ctx context.Context, chatID int64) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) Create(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func (r *repository) FindAdminByChatID(ctx context.Context, chatID int64) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *repository) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Admin{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CreateAdmin(ctx context.Context, admin *models.Admin) (*models.Admin, error) {
	if err := r.db.WithContext(ctx).Create(admin).Error; err != nil {
		return nil, err
	}
	return admin, nil
}

func (r *repository) UpdateAdminPasswordHash(ctx context.Context, adminID int64, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.Admin{}).
		Where("id = ?", adminID).
		Update("password_hash", hash).Error
}
