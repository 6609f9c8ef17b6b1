package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	got, err := ParseOrderStatus(" preparing ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != OrderStatusPreparing {
		t.Fatalf("expected PREPARING, got %s", got)
	}
	if _, err := ParseOrderStatus("SHIPPED"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestIsExpectedTransition(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPlaced, OrderStatusPreparing, true},
		{OrderStatusPreparing, OrderStatusOutForDelivery, true},
		{OrderStatusPreparing, OrderStatusReady, true},
		{OrderStatusReady, OrderStatusCompleted, true},
		{OrderStatusPlaced, OrderStatusCompleted, true},
		{OrderStatusPreparing, OrderStatusCancelled, true},
		{OrderStatusPlaced, OrderStatusPlaced, true},
		{OrderStatusCompleted, OrderStatusPlaced, false},
		{OrderStatusCancelled, OrderStatusPreparing, false},
		{OrderStatusOutForDelivery, OrderStatusPreparing, false},
		{OrderStatusReady, OrderStatusOutForDelivery, false},
		{OrderStatusPlaced, OrderStatusCart, false},
	}
	for _, tc := range cases {
		if got := IsExpectedTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if !OrderStatusCompleted.IsTerminal() || !OrderStatusCancelled.IsTerminal() {
		t.Fatal("completed and cancelled are terminal")
	}
	if OrderStatusPlaced.IsTerminal() || OrderStatusCart.IsTerminal() {
		t.Fatal("placed and cart are not terminal")
	}
}
