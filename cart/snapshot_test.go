package cart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSnapshot_RoundTrip verifies restored totals match the original cart (discount aside).
func TestSnapshot_RoundTrip(t *testing.T) {
	t.Parallel()

	original := ReduceAll(Empty(),
		AddItem{Product: product("A", "4.50")},
		AddItem{Product: promoProduct("B", "3.20", "2.50")},
		AddItem{Product: promoProduct("B", "3.20", "2.50")},
		AddItem{Product: product("C", "26.00")},
		ApplyDiscount{Amount: money("4")},
	)

	data, err := EncodeSnapshot(original.Lines)
	require.NoError(t, err)

	restored := Reduce(Empty(), InitializeFromSnapshot{Lines: DecodeSnapshot(data)})
	require.Len(t, restored.Lines, 3)
	assertMoney(t, original.Subtotal.String(), restored.Subtotal, "subtotal")
	assertMoney(t, original.ShippingFee.String(), restored.ShippingFee, "shippingFee")
	assertMoney(t, "35.50", restored.Total, "total")
	assertMoney(t, "0", restored.Discount, "discount")
}

func TestEncodeSnapshot_OnlyLines(t *testing.T) {
	t.Parallel()

	data, err := EncodeSnapshot([]Line{{Product: product("A", "4.50"), Quantity: 2}})
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "A", raw[0]["id"])
	assert.EqualValues(t, 2, raw[0]["quantity"])
	assert.NotContains(t, raw[0], "subtotal")
	assert.NotContains(t, raw[0], "promoPrice")

	empty, err := EncodeSnapshot(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestDecodeSnapshot_AcceptsNumbersAndStrings(t *testing.T) {
	t.Parallel()

	lines := DecodeSnapshot([]byte(`[
		{"id":"A","name":"Pain de Campagne","basePrice":4.5,"onPromotion":false,"quantity":2},
		{"id":"B","basePrice":"3.20","promoPrice":"2.50","onPromotion":true,"quantity":1}
	]`))
	require.Len(t, lines, 2)
	assertMoney(t, "4.50", lines[0].BasePrice, "basePrice")
	assertMoney(t, "2.50", lines[1].UnitPrice(), "unitPrice")
}

func TestSnapshot_ZeroPromoPriceFallsBackToBase(t *testing.T) {
	t.Parallel()

	lines := DecodeSnapshot([]byte(`[{"id":"A","basePrice":"4.50","promoPrice":0,"onPromotion":true,"quantity":2}]`))
	require.Len(t, lines, 1)

	state := Reduce(Empty(), InitializeFromSnapshot{Lines: lines})
	assertTotals(t, state, "9.00", "3.50", "12.50")
}

func TestDecodeSnapshot_Malformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		``,
		`null`,
		`{"id":"A"}`,
		`"panier"`,
		`[{"id":"A","basePrice":"abc","quantity":1}]`,
		`[{"id":"A","basePrice":1,"quantity":0}]`,
		`[{"basePrice":1,"quantity":1}]`,
		`[{"id":"A",`,
	} {
		assert.Nil(t, DecodeSnapshot([]byte(raw)), "input %q", raw)
	}
}
