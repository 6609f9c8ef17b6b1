package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DeliveryTimeASAP is the wire value for immediate dispatch.
const DeliveryTimeASAP = "ASAP"

const clockLayout = "15:04"

var (
	// ErrInvalidDeliveryTime signals input that is neither ASAP nor HH:MM.
	ErrInvalidDeliveryTime = errors.New("delivery time must be ASAP or HH:MM")
	// ErrDeliveryTimeInPast signals a clock time earlier than now on the same day.
	ErrDeliveryTimeInPast = errors.New("delivery time is earlier than now")
)

// DeliveryTime is either immediate dispatch or a clock time on the current local day.
type DeliveryTime struct {
	ASAP bool
	At   time.Time
}

// ParseDeliveryTime accepts "ASAP" or "HH:MM". Clock times are placed on the
// local day of now and must not be earlier than now's minute.
func ParseDeliveryTime(raw string, now time.Time) (DeliveryTime, error) {
	value := strings.TrimSpace(raw)
	if strings.EqualFold(value, DeliveryTimeASAP) {
		return DeliveryTime{ASAP: true}, nil
	}
	clock, err := time.Parse(clockLayout, value)
	if err != nil {
		return DeliveryTime{}, ErrInvalidDeliveryTime
	}
	at := time.Date(now.Year(), now.Month(), now.Day(), clock.Hour(), clock.Minute(), 0, 0, now.Location())
	if at.Before(now.Truncate(time.Minute)) {
		return DeliveryTime{}, ErrDeliveryTimeInPast
	}
	return DeliveryTime{At: at}, nil
}

// Resolve returns the moment to store for the order. ASAP resolves to placedAt.
func (d DeliveryTime) Resolve(placedAt time.Time) time.Time {
	if d.ASAP {
		return placedAt
	}
	return d.At
}

func (d DeliveryTime) String() string {
	if d.ASAP {
		return DeliveryTimeASAP
	}
	if d.At.IsZero() {
		return ""
	}
	return d.At.Format(clockLayout)
}

func (d DeliveryTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON keeps the clock value without day context; callers
// re-anchor it with ParseDeliveryTime before use.
func (d *DeliveryTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("delivery time: %w", err)
	}
	if raw == "" {
		*d = DeliveryTime{}
		return nil
	}
	if strings.EqualFold(raw, DeliveryTimeASAP) {
		*d = DeliveryTime{ASAP: true}
		return nil
	}
	clock, err := time.Parse(clockLayout, raw)
	if err != nil {
		return ErrInvalidDeliveryTime
	}
	*d = DeliveryTime{At: clock}
	return nil
}
