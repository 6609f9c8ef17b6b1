package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/orderbot-backend/pkg/db/models"
)

// Repository reads and curates the menu.
type Repository interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	FindCategory(ctx context.Context, id int64) (*models.Category, error)
	ListAvailableProducts(ctx context.Context, categoryID int64) ([]models.Product, error)
	FindProduct(ctx context.Context, id int64, includeDeleted bool) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	SoftDeleteProduct(ctx context.Context, id int64) error
	ListDeliveryTypes(ctx context.Context) ([]models.DeliveryType, error)
	FindDeliveryType(ctx context.Context, id int64) (*models.DeliveryType, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repository) FindCategory(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) ListAvailableProducts(ctx context.Context, categoryID int64) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND is_deleted = ?", categoryID, false).
		Order("id ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) FindProduct(ctx context.Context, id int64, includeDeleted bool) (*models.Product, error) {
	query := r.db.WithContext(ctx).Where("id = ?", id)
	if !includeDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	var product models.Product
	if err := query.First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// SoftDeleteProduct hides the product from browsing. Repeated calls succeed.
func (r *repository) SoftDeleteProduct(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("is_deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ListDeliveryTypes(ctx context.Context) ([]models.DeliveryType, error) {
	var types []models.DeliveryType
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

func (r *repository) FindDeliveryType(ctx context.Context, id int64) (*models.DeliveryType, error) {
	var deliveryType models.DeliveryType
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&deliveryType).Error; err != nil {
		return nil, err
	}
	return &deliveryType, nil
}
