package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceOrder_OnlinePayment(t *testing.T) {
	lines := []PricedLine{
		{ProductID: 1, UnitPrice: 150000, Quantity: 1},
		{ProductID: 2, UnitPrice: 25000, Quantity: 2},
	}

	q, err := PriceOrder(lines, "payos")
	require.NoError(t, err)

	assert.Equal(t, int64(200000), q.Subtotal)
	assert.Equal(t, int64(20000), q.Tax)
	assert.Equal(t, int64(0), q.ShippingCost)
	assert.Equal(t, int64(0), q.Discount)
	assert.Equal(t, int64(220000), q.Total)
}

func TestPriceOrder_CODAddsShipping(t *testing.T) {
	lines := []PricedLine{
		{ProductID: 1, UnitPrice: 200000, Quantity: 1},
	}

	q, err := PriceOrder(lines, PaymentMethodCOD)
	require.NoError(t, err)

	assert.Equal(t, int64(200000), q.Subtotal)
	assert.Equal(t, int64(20000), q.Tax)
	assert.Equal(t, int64(30000), q.ShippingCost)
	assert.Equal(t, int64(250000), q.Total)
}

func TestPriceOrder_TaxRoundsHalfUp(t *testing.T) {
	cases := []struct {
		name     string
		subtotal int64
		wantTax  int64
	}{
		{"half rounds up", 15, 2},       // 1.5 -> 2
		{"below half rounds down", 14, 1}, // 1.4 -> 1
		{"above half rounds up", 16, 2},   // 1.6 -> 2
		{"exact", 200000, 20000},
		{"zero", 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := PriceOrder([]PricedLine{{ProductID: 1, UnitPrice: tc.subtotal, Quantity: 1}}, "payos")
			require.NoError(t, err)
			assert.Equal(t, tc.wantTax, q.Tax)
		})
	}
}

func TestPriceOrder_EmptyLines(t *testing.T) {
	q, err := PriceOrder(nil, "payos")
	require.NoError(t, err)
	assert.Equal(t, int64(0), q.Total)
}

func TestPriceOrder_MultipliesQuantity(t *testing.T) {
	q, err := PriceOrder([]PricedLine{{ProductID: 1, UnitPrice: 10000, Quantity: 3}}, "payos")
	require.NoError(t, err)
	assert.Equal(t, int64(30000), q.Subtotal)
}
