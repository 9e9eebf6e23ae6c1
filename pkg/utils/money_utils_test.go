package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToPaisa(t *testing.T) {
	assert.Equal(t, int64(125000), ToPaisa(decimal.RequireFromString("1250.00")))
	assert.Equal(t, int64(50), ToPaisa(decimal.RequireFromString("0.50")))
	// Half a paisa rounds up.
	assert.Equal(t, int64(101), ToPaisa(decimal.RequireFromString("1.005")))
}

func TestFromPaisa(t *testing.T) {
	assert.True(t, FromPaisa(125000).Equal(decimal.RequireFromString("1250.00")))
	assert.True(t, FromPaisa(-50).Equal(decimal.RequireFromString("-0.50")))
}

func TestFormatPaisa(t *testing.T) {
	assert.Equal(t, "Rs. 1,250.00", FormatPaisa(125000))
	assert.Equal(t, "Rs. 0.05", FormatPaisa(5))
	assert.Equal(t, "Rs. 1,234,567.89", FormatPaisa(123456789))
}
