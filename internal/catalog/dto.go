package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderbot-backend/pkg/db/models"
)

// CategoryDTO is a menu section.
type CategoryDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductDTO is a menu item as exposed to the chat transport.
type ProductDTO struct {
	ID          int64           `json:"id"`
	CategoryID  int64           `json:"category_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageRef    *string         `json:"image_ref,omitempty"`
}

// DeliveryTypeDTO is a fulfilment option with its flat fee.
type DeliveryTypeDTO struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Fee             decimal.Decimal `json:"fee"`
	RequiresAddress bool            `json:"requires_address"`
}

// AddProductInput holds the validated payload to create a menu item.
type AddProductInput struct {
	CategoryID  int64
	Name        string
	Description string
	Price       decimal.Decimal
	ImageRef    *string
}

func toCategoryDTO(category models.Category) CategoryDTO {
	return CategoryDTO{ID: category.ID, Name: category.Name}
}

func toProductDTO(product models.Product) ProductDTO {
	return ProductDTO{
		ID:          product.ID,
		CategoryID:  product.CategoryID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		ImageRef:    product.ImageRef,
	}
}

// ToDeliveryTypeDTO maps the stored delivery type.
func ToDeliveryTypeDTO(deliveryType models.DeliveryType) DeliveryTypeDTO {
	return DeliveryTypeDTO{
		ID:              deliveryType.ID,
		Name:            deliveryType.Name,
		Fee:             deliveryType.Fee,
		RequiresAddress: deliveryType.RequiresAddress,
	}
}
