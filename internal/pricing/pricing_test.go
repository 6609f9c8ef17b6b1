package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestLineSubtotal(t *testing.T) {
	assert.True(t, d("900").Equal(LineSubtotal(2, d("450"))))
	assert.True(t, d("0.30").Equal(LineSubtotal(3, d("0.10"))))
}

func TestCartTotal(t *testing.T) {
	total := CartTotal([]Line{
		{Quantity: 2, UnitPrice: d("450")},
		{Quantity: 1, UnitPrice: d("120.50")},
	})
	assert.True(t, d("1020.50").Equal(total), "got %s", total)
	assert.True(t, decimal.Zero.Equal(CartTotal(nil)))
	assert.True(t, d("15").Equal(SumSubtotals([]decimal.Decimal{d("10"), d("5")})))
}

func TestDeliveryFeeWaiver(t *testing.T) {
	threshold := d("1000")

	cases := []struct {
		name  string
		total string
		want  string
	}{
		{name: "below threshold", total: "900", want: "150"},
		{name: "exactly threshold still pays", total: "1000", want: "150"},
		{name: "above threshold waived", total: "1000.01", want: "0"},
		{name: "well above", total: "1200", want: "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeliveryFee(d("150"), d(tc.total), threshold)
			assert.True(t, d(tc.want).Equal(got), "got %s", got)
		})
	}
}

func TestGrandTotalExamples(t *testing.T) {
	// 2 x 450 with a 150 fee
	cart := CartTotal([]Line{{Quantity: 2, UnitPrice: d("450")}})
	fee := DeliveryFee(d("150"), cart, DefaultFreeDeliveryThreshold)
	assert.True(t, d("1050").Equal(GrandTotal(cart, fee)))

	// 1200 waives the fee
	cart = d("1200")
	fee = DeliveryFee(d("150"), cart, DefaultFreeDeliveryThreshold)
	assert.True(t, d("1200").Equal(GrandTotal(cart, fee)))
}

func TestResolver(t *testing.T) {
	r, err := NewResolver("")
	require.NoError(t, err)
	assert.True(t, DefaultFreeDeliveryThreshold.Equal(r.Threshold()))

	r, err = NewResolver("500")
	require.NoError(t, err)

	q := r.Quote(d("600"), d("150"))
	assert.True(t, q.FeeWaived)
	assert.True(t, d("600").Equal(q.GrandTotal))

	q = r.Quote(d("400"), d("150"))
	assert.False(t, q.FeeWaived)
	assert.True(t, d("550").Equal(q.GrandTotal))

	q = r.Quote(d("600"), decimal.Zero)
	assert.False(t, q.FeeWaived, "free options are never reported as waived")

	_, err = NewResolver("lots")
	require.Error(t, err)
}
