package controllers

import (
	"net/http"

	"github.com/angelmondragon/orderbot-backend/api/middleware"
	"github.com/angelmondragon/orderbot-backend/api/responses"
	"github.com/angelmondragon/orderbot-backend/api/validators"
	"github.com/angelmondragon/orderbot-backend/internal/customers"
	"github.com/angelmondragon/orderbot-backend/pkg/logger"
)

type registerCustomerRequest struct {
	Name  string `json:"name" validate:"required,max=128"`
	Phone string `json:"phone" validate:"required,max=32"`
}

// RegisterCustomer stores the contact details shared by the chat user.
func RegisterCustomer(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerCustomerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.Register(r.Context(), customers.RegisterInput{
			ChatID: middleware.ChatIDFromContext(r.Context()),
			Name:   validators.SanitizeString(req.Name),
			Phone:  validators.SanitizeString(req.Phone),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// CurrentCustomer returns the caller's profile.
func CurrentCustomer(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customer, err := svc.Get(r.Context(), middleware.ChatIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customers.FromModel(customer))
	}
}
