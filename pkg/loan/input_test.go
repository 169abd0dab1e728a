package loan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"65000", 65000},
		{" 65,000.50 ", 65000.5},
		{"$2,000", 2000},
		{"20%", 20},
		{"-20", -20},
		{"1e3", 1000},
		{"", 0},
		{"abc", 0},
		{"NaN", 0},
		{"Inf", 0},
		{"-Inf", 0},
		{"1.2.3", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseNumber(tt.in), "input=%q", tt.in)
	}
}

func TestParseNonNegativeAndPercent(t *testing.T) {
	assert.Equal(t, 0.0, ParseNonNegative("-5"))
	assert.Equal(t, 5.0, ParseNonNegative("5"))
	assert.InDelta(t, -0.2, ParsePercent("-20%"), eps)
	assert.InDelta(t, 0.05, ParsePercent("5"), eps)
}

func TestParseInput_AmountMode(t *testing.T) {
	pos, th, err := ParseInput(RawInput{
		CollateralMode:     CollateralByAmount,
		CollateralAmount:   "0.05",
		AssetPrice:         "65000",
		LoanAmount:         "2000",
		AnnualInterestRate: "5",
		TargetLTV:          "50",
		MarginCallLTV:      "70",
		LiquidationLTV:     "80",
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.05, pos.CollateralAmount, eps)
	assert.InDelta(t, 3250, pos.CollateralValue(), eps)
	assert.InDelta(t, 0.05, pos.AnnualInterestRate, eps)
	assert.Equal(t, DefaultThresholds(), th)
}

func TestParseInput_ValueMode(t *testing.T) {
	// 按价值输入 3250 USD，价格 65000 → 0.05 BTC
	pos, _, err := ParseInput(RawInput{
		CollateralMode:  CollateralByValue,
		CollateralValue: "3250",
		AssetPrice:      "65000",
		LoanAmount:      "2000",
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.05, pos.CollateralAmount, eps)

	// 价格为 0 时数量归零
	pos, _, err = ParseInput(RawInput{
		CollateralMode:  CollateralByValue,
		CollateralValue: "3250",
		AssetPrice:      "0",
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, pos.CollateralAmount)
}

func TestParseInput_GarbageNeverErrors(t *testing.T) {
	pos, th, err := ParseInput(RawInput{
		CollateralAmount:   "lots",
		AssetPrice:         "-65000",
		LoanAmount:         "NaN",
		AnnualInterestRate: "",
	})
	require.NoError(t, err)
	assert.Equal(t, Position{}, pos)
	assert.Equal(t, DefaultThresholds(), th)
}

func TestParseInput_InvalidThresholds(t *testing.T) {
	_, _, err := ParseInput(RawInput{TargetLTV: "75", MarginCallLTV: "70", LiquidationLTV: "80"})
	assert.True(t, errors.Is(err, ErrThresholdOrder))

	_, _, err = ParseInput(RawInput{TargetLTV: "abc"})
	assert.True(t, errors.Is(err, ErrThresholdRange))
}
