package types

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseDeliveryTime(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	now := time.Date(2026, 5, 4, 14, 30, 45, 0, loc)

	cases := []struct {
		name    string
		raw     string
		wantErr error
		want    string
		asap    bool
	}{
		{name: "asap", raw: "ASAP", asap: true, want: "ASAP"},
		{name: "asap lowercase", raw: " asap ", asap: true, want: "ASAP"},
		{name: "later today", raw: "18:15", want: "18:15"},
		{name: "same minute", raw: "14:30", want: "14:30"},
		{name: "earlier today", raw: "14:29", wantErr: ErrDeliveryTimeInPast},
		{name: "garbage", raw: "soon", wantErr: ErrInvalidDeliveryTime},
		{name: "out of range", raw: "25:00", wantErr: ErrInvalidDeliveryTime},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDeliveryTime(tc.raw, now)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ASAP != tc.asap || got.String() != tc.want {
				t.Fatalf("unexpected value %+v (%s)", got, got)
			}
			if !got.ASAP && got.At.Location() != loc {
				t.Fatalf("expected local zone, got %s", got.At.Location())
			}
		})
	}
}

func TestDeliveryTimeResolveAndJSON(t *testing.T) {
	placed := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	asap := DeliveryTime{ASAP: true}
	if !asap.Resolve(placed).Equal(placed) {
		t.Fatalf("ASAP should resolve to placement time")
	}

	raw, err := json.Marshal(struct {
		Time DeliveryTime `json:"time"`
	}{Time: asap})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"time":"ASAP"}` {
		t.Fatalf("unexpected json %s", raw)
	}

	var decoded DeliveryTime
	if err := json.Unmarshal([]byte(`"09:45"`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.ASAP || decoded.String() != "09:45" {
		t.Fatalf("unexpected decoded value %+v", decoded)
	}
	if err := json.Unmarshal([]byte(`"nine"`), &decoded); !errors.Is(err, ErrInvalidDeliveryTime) {
		t.Fatalf("expected invalid time error, got %v", err)
	}
}
