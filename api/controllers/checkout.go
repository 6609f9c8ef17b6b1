package controllers

import (
	"net/http"

	"github.com/angelmondragon/orderbot-backend/api/middleware"
	"github.com/angelmondragon/orderbot-backend/api/responses"
	"github.com/angelmondragon/orderbot-backend/api/validators"
	"github.com/angelmondragon/orderbot-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/orderbot-backend/pkg/errors"
	"github.com/angelmondragon/orderbot-backend/pkg/logger"
)

type checkoutDraftRequest struct {
	DeliveryTypeID *int64  `json:"delivery_type_id" validate:"omitempty,gt=0"`
	Address        *string `json:"address" validate:"omitempty,max=255"`
	Time           *string `json:"time" validate:"omitempty,hhmm_or_asap"`
	Consent        *bool   `json:"consent"`
}

type checkoutSubmitRequest struct {
	DeliveryTypeID int64   `json:"delivery_type_id" validate:"required,gt=0"`
	Address        *string `json:"address" validate:"omitempty,max=255"`
	Time           string  `json:"time" validate:"required,hhmm_or_asap"`
	Consent        bool    `json:"consent"`
}

func CheckoutDraftFetch(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.GetDraft(r.Context(), middleware.ChatIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CheckoutDraftUpdate validates and stores one or more wizard answers.
func CheckoutDraftUpdate(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutDraftRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		patch := checkout.DraftPatch{
			DeliveryTypeID: req.DeliveryTypeID,
			Address:        req.Address,
			Time:           req.Time,
			Consent:        req.Consent,
		}
		if patch.IsEmpty() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "no checkout answer supplied"))
			return
		}
		view, err := svc.UpdateDraft(r.Context(), middleware.ChatIDFromContext(r.Context()), patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CheckoutDraftClear(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.ClearDraft(r.Context(), middleware.ChatIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func CheckoutDraftSubmit(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		confirmation, err := svc.SubmitDraft(r.Context(), middleware.ChatIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, confirmation)
	}
}

// CheckoutSubmit places an order from a fully assembled submission.
func CheckoutSubmit(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutSubmitRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		confirmation, err := svc.SubmitOrder(r.Context(), middleware.ChatIDFromContext(r.Context()), checkout.Submission{
			DeliveryTypeID: req.DeliveryTypeID,
			Address:        req.Address,
			Time:           req.Time,
			Consent:        req.Consent,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, confirmation)
	}
}
