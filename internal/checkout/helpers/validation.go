package helpers

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/orderbot-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderbot-backend/pkg/errors"
	"github.com/angelmondragon/orderbot-backend/pkg/types"
)

// MaxAddressLength bounds the free-text delivery address.
const MaxAddressLength = 255

// ValidateDeliveryTime parses the wizard time answer against the local clock.
func ValidateDeliveryTime(raw string, now time.Time) (types.DeliveryTime, error) {
	if strings.TrimSpace(raw) == "" {
		return types.DeliveryTime{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery time is required")
	}
	value, err := types.ParseDeliveryTime(raw, now)
	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, types.ErrDeliveryTimeInPast):
		return types.DeliveryTime{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery time cannot be earlier than now").
			WithDetails(map[string]any{"time": raw})
	default:
		return types.DeliveryTime{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery time must be ASAP or HH:MM").
			WithDetails(map[string]any{"time": raw})
	}
}

// ValidateAddress enforces that an address is given exactly when the delivery
// type needs one. The normalized address is nil for types without one.
func ValidateAddress(deliveryType *models.DeliveryType, address *string) (*string, error) {
	if deliveryType == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery type is required")
	}
	value := ""
	if address != nil {
		value = strings.TrimSpace(*address)
	}
	if !deliveryType.RequiresAddress {
		if value != "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is not accepted for this delivery type")
		}
		return nil, nil
	}
	if value == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is required for this delivery type")
	}
	if utf8.RuneCountInString(value) > MaxAddressLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is too long")
	}
	return &value, nil
}

// ValidateConsent requires the explicit confirmation step.
func ValidateConsent(consent bool) error {
	if !consent {
		return pkgerrors.New(pkgerrors.CodeValidation, "order confirmation is required")
	}
	return nil
}
