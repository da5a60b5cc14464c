package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestShippingFee_Threshold(t *testing.T) {
	t.Parallel()

	r := Default()
	assert.True(t, r.ShippingFee(d("29.99")).Equal(d("3.50")))
	assert.True(t, r.ShippingFee(d("30.00")).IsZero())
	assert.True(t, r.ShippingFee(d("45")).IsZero())
	assert.True(t, r.ShippingFee(decimal.Zero).Equal(d("3.50")))
}

func TestTotal_ClampsDiscount(t *testing.T) {
	t.Parallel()

	assert.True(t, Total(d("30.50"), d("5.00"), decimal.Zero).Equal(d("25.50")))
	assert.True(t, Total(d("10"), d("25"), d("3.50")).Equal(d("3.50")))
}

func TestEffectiveUnitPrice(t *testing.T) {
	t.Parallel()

	promo := d("2.00")
	assert.True(t, EffectiveUnitPrice(d("2.50"), &promo, true).Equal(promo))
	assert.True(t, EffectiveUnitPrice(d("2.50"), &promo, false).Equal(d("2.50")))
	assert.True(t, EffectiveUnitPrice(d("2.50"), nil, true).Equal(d("2.50")))

	zero := decimal.Zero
	assert.True(t, EffectiveUnitPrice(d("2.50"), &zero, true).Equal(d("2.50")))
	negative := d("-1")
	assert.True(t, EffectiveUnitPrice(d("2.50"), &negative, true).Equal(d("2.50")))
}

func TestValidatePromotion(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidatePromotion(d("4.50"), nil))

	ok := d("4.00")
	require.NoError(t, ValidatePromotion(d("4.50"), &ok))

	tooHigh := d("4.50")
	assert.Error(t, ValidatePromotion(d("4.50"), &tooHigh))

	zero := decimal.Zero
	assert.Error(t, ValidatePromotion(d("4.50"), &zero))

	assert.Error(t, ValidatePromotion(d("-1"), nil))
}
