package customers

import (
	"time"

	"github.com/angelmondragon/orderbot-backend/pkg/db/models"
)

// RegisterInput carries the contact details a customer shares on sign-up.
type RegisterInput struct {
	ChatID int64
	Name   string
	Phone  string
}

// CustomerDTO is the customer profile returned to the transport.
type CustomerDTO struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminRegisterInput carries a password-gated administrator sign-up.
type AdminRegisterInput struct {
	ChatID               int64
	RegistrationPassword string
	Password             string
	Name                 *string
	Phone                *string
}

// AdminDTO is the administrator record without its credential.
type AdminDTO struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	Name      *string   `json:"name,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FromModel maps a stored customer.
func FromModel(customer *models.Customer) *CustomerDTO {
	if customer == nil {
		return nil
	}
	return &CustomerDTO{
		ID:        customer.ID,
		ChatID:    customer.ChatID,
		Name:      customer.Name,
		Phone:     customer.Phone,
		CreatedAt: customer.CreatedAt,
	}
}

func adminFromModel(admin *models.Admin) *AdminDTO {
	return &AdminDTO{
		ID:        admin.ID,
		ChatID:    admin.ChatID,
		Name:      admin.Name,
		Phone:     admin.Phone,
		CreatedAt: admin.CreatedAt,
	}
}
