package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderbot-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderbot-backend/pkg/errors"
	"github.com/angelmondragon/orderbot-backend/pkg/logger"
)

const (
	maxProductNameLength        = 128
	maxProductDescriptionLength = 1024
)

// maxProductPrice is the largest value a numeric(12,2) column holds.
var maxProductPrice = decimal.RequireFromString("9999999999.99")

// Service exposes menu browsing and administrator curation.
type Service interface {
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	ListAvailableProducts(ctx context.Context, categoryID int64) ([]ProductDTO, error)
	GetAvailableProduct(ctx context.Context, productID int64) (*models.Product, error)
	AddProduct(ctx context.Context, input AddProductInput) (*ProductDTO, error)
	SoftDeleteProduct(ctx context.Context, productID int64) error
	ListDeliveryTypes(ctx context.Context) ([]DeliveryTypeDTO, error)
	GetDeliveryType(ctx context.Context, deliveryTypeID int64) (*models.DeliveryType, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the catalog service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(categories))
	for _, category := range categories {
		out = append(out, toCategoryDTO(category))
	}
	return out, nil
}

func (s *service) ListAvailableProducts(ctx context.Context, categoryID int64) ([]ProductDTO, error) {
	if categoryID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id required")
	}
	if _, err := s.repo.FindCategory(ctx, categoryID); err != nil {
		return nil, mapNotFound(err, pkgerrors.CodeNotFound, "category not found", "load category")
	}
	products, err := s.repo.ListAvailableProducts(ctx, categoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(products))
	for _, product := range products {
		out = append(out, toProductDTO(product))
	}
	return out, nil
}

// GetAvailableProduct resolves a product that can still be ordered.
func (s *service) GetAvailableProduct(ctx context.Context, productID int64) (*models.Product, error) {
	if productID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
	}
	product, err := s.repo.FindProduct(ctx, productID, false)
	if err != nil {
		return nil, mapNotFound(err, pkgerrors.CodeProductNotFound, "product not found", "load product")
	}
	return product, nil
}

func (s *service) AddProduct(ctx context.Context, input AddProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if utf8.RuneCountInString(name) > maxProductNameLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is too long")
	}
	description := strings.TrimSpace(input.Description)
	if utf8.RuneCountInString(description) > maxProductDescriptionLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is too long")
	}
	if !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	}
	if input.Price.Exponent() < -2 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price supports at most two decimal places")
	}
	if input.Price.GreaterThan(maxProductPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price is too large").
			WithDetails(map[string]any{"max_price": maxProductPrice.String()})
	}
	if _, err := s.repo.FindCategory(ctx, input.CategoryID); err != nil {
		return nil, mapNotFound(err, pkgerrors.CodeNotFound, "category not found", "load category")
	}

	product := &models.Product{
		CategoryID:  input.CategoryID,
		Name:        name,
		Description: description,
		Price:       input.Price,
		ImageRef:    input.ImageRef,
	}
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"product_id":  created.ID,
		"category_id": created.CategoryID,
	})
	s.logg.Info(logCtx, "product added")
	dto := toProductDTO(*created)
	return &dto, nil
}

// SoftDeleteProduct hides a product from browsing while keeping it
// resolvable for order history.
func (s *service) SoftDeleteProduct(ctx context.Context, productID int64) error {
	if err := s.repo.SoftDeleteProduct(ctx, productID); err != nil {
		return mapNotFound(err, pkgerrors.CodeProductNotFound, "product not found", "delete product")
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", productID), "product soft-deleted")
	return nil
}

func (s *service) ListDeliveryTypes(ctx context.Context) ([]DeliveryTypeDTO, error) {
	types, err := s.repo.ListDeliveryTypes(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list delivery types")
	}
	out := make([]DeliveryTypeDTO, 0, len(types))
	for _, deliveryType := range types {
		out = append(out, ToDeliveryTypeDTO(deliveryType))
	}
	return out, nil
}

func (s *service) GetDeliveryType(ctx context.Context, deliveryTypeID int64) (*models.DeliveryType, error) {
	if deliveryTypeID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery type id required")
	}
	deliveryType, err := s.repo.FindDeliveryType(ctx, deliveryTypeID)
	if err != nil {
		return nil, mapNotFound(err, pkgerrors.CodeNotFound, "delivery type not found", "load delivery type")
	}
	return deliveryType, nil
}

func mapNotFound(err error, code pkgerrors.Code, notFoundMsg, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(code, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
