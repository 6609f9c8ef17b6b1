package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderbot-backend/api/middleware"
	"github.com/angelmondragon/orderbot-backend/api/responses"
	"github.com/angelmondragon/orderbot-backend/api/validators"
	"github.com/angelmondragon/orderbot-backend/internal/catalog"
	"github.com/angelmondragon/orderbot-backend/internal/customers"
	"github.com/angelmondragon/orderbot-backend/internal/orders"
	"github.com/angelmondragon/orderbot-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderbot-backend/pkg/errors"
	"github.com/angelmondragon/orderbot-backend/pkg/logger"
)

const adminRole = "admin"

type adminRegisterRequest struct {
	RegistrationPassword string  `json:"registration_password" validate:"required"`
	Password             string  `json:"password" validate:"required,min=6,max=128"`
	Name                 *string `json:"name" validate:"omitempty,max=128"`
	Phone                *string `json:"phone" validate:"omitempty,max=32"`
}

type adminLoginRequest struct {
	Password string `json:"password" validate:"required,max=128"`
}

type addProductRequest struct {
	CategoryID  int64           `json:"category_id" validate:"required,gt=0"`
	Name        string          `json:"name" validate:"required,max=128"`
	Description string          `json:"description" validate:"max=1024"`
	Price       decimal.Decimal `json:"price"`
	ImageRef    *string         `json:"image_ref" validate:"omitempty,max=512"`
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminRegister performs the password-gated first administrator sign-up.
func AdminRegister(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req adminRegisterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		admin, err := svc.RegisterAdmin(r.Context(), customers.AdminRegisterInput{
			ChatID:               middleware.ChatIDFromContext(r.Context()),
			RegistrationPassword: req.RegistrationPassword,
			Password:             req.Password,
			Name:                 req.Name,
			Phone:                req.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, admin)
	}
}

// AdminLogin checks the caller's administrator password.
func AdminLogin(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req adminLoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		chatID := middleware.ChatIDFromContext(r.Context())
		if err := svc.VerifyAdminPassword(r.Context(), chatID, req.Password); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"chat_id": chatID, "verified": true})
	}
}

func AdminAddProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.AddProduct(r.Context(), catalog.AddProductInput{
			CategoryID:  req.CategoryID,
			Name:        validators.SanitizeString(req.Name),
			Description: validators.SanitizeString(req.Description),
			Price:       req.Price,
			ImageRef:    req.ImageRef,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminDeleteProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SoftDeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func AdminTodaysOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		today, err := svc.TodaysOrders(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, today)
	}
}

// AdminSetOrderStatus overwrites an order's status. Unusual transitions are
// applied and reported through the anomalous flag.
func AdminSetOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req setStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		result, err := svc.SetStatus(r.Context(), orders.StatusChangeInput{
			OrderID: orderID,
			Status:  status,
			Actor:   orders.Actor{ChatID: middleware.ChatIDFromContext(r.Context()), Role: adminRole},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminCancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Cancel(r.Context(), orderID, orders.Actor{
			ChatID: middleware.ChatIDFromContext(r.Context()),
			Role:   adminRole,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
