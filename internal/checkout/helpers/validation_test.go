package helpers

import (
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/orderbot-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderbot-backend/pkg/errors"
)

func TestValidateDeliveryTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	value, err := ValidateDeliveryTime("ASAP", now)
	if err != nil || !value.ASAP {
		t.Fatalf("expected ASAP, got %+v err=%v", value, err)
	}
	value, err = ValidateDeliveryTime("13:30", now)
	if err != nil || value.ASAP || value.At.Hour() != 13 {
		t.Fatalf("expected scheduled time, got %+v err=%v", value, err)
	}
	for _, raw := range []string{"", "11:59", "noon"} {
		if _, err := ValidateDeliveryTime(raw, now); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %q, got %v", raw, err)
		}
	}
}

func TestValidateAddress(t *testing.T) {
	delivery := &models.DeliveryType{Name: "Delivery", RequiresAddress: true}
	pickup := &models.DeliveryType{Name: "Pickup"}
	addr := "  Lenina 1  "
	blank := "   "
	long := strings.Repeat("a", MaxAddressLength+1)

	got, err := ValidateAddress(delivery, &addr)
	if err != nil || got == nil || *got != "Lenina 1" {
		t.Fatalf("expected trimmed address, got %v err=%v", got, err)
	}
	if _, err := ValidateAddress(delivery, nil); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected missing address error, got %v", err)
	}
	if _, err := ValidateAddress(delivery, &blank); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected blank address error, got %v", err)
	}
	if _, err := ValidateAddress(delivery, &long); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected long address error, got %v", err)
	}

	got, err = ValidateAddress(pickup, &blank)
	if err != nil || got != nil {
		t.Fatalf("pickup with blank address should pass without address, got %v err=%v", got, err)
	}
	if _, err := ValidateAddress(pickup, &addr); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected pickup address rejection, got %v", err)
	}
	if _, err := ValidateAddress(nil, &addr); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected missing delivery type error, got %v", err)
	}
}

func TestValidateConsent(t *testing.T) {
	if err := ValidateConsent(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateConsent(false); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
