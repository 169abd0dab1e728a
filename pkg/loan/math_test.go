package loan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const eps = 1e-6

func TestLTV_ZeroDenominators(t *testing.T) {
	// 没有贷款或没有抵押品时 LTV 都是 0，不能出现 Inf / NaN
	assert.Equal(t, 0.0, LTV(0, 3250))
	assert.Equal(t, 0.0, LTV(2000, 0))
	assert.Equal(t, 0.0, LTV(0, 0))
	assert.InDelta(t, 0.6154, LTV(2000, 3250), 1e-4)
}

func TestLiquidationPrice(t *testing.T) {
	// 0.05 BTC，贷款 2000，强平 LTV 80%
	// P = 2000 / (0.05 * 0.8) = 50000
	assert.InDelta(t, 50000, LiquidationPrice(2000, 0.05, 0.8), eps)

	// 退化输入全部返回 0
	assert.Equal(t, 0.0, LiquidationPrice(0, 0.05, 0.8))
	assert.Equal(t, 0.0, LiquidationPrice(2000, 0, 0.8))
	assert.Equal(t, 0.0, LiquidationPrice(2000, 0.05, 0))
}

// 在强平价格处重新计算 LTV，应该正好等于强平阈值
func TestLiquidationPrice_RoundTrip(t *testing.T) {
	cases := []struct {
		loan, amount, liq float64
	}{
		{2000, 0.05, 0.8},
		{25000, 1.2, 0.75},
		{1, 10, 0.5},
		{123456.78, 3.3, 0.9},
	}
	for _, c := range cases {
		p := LiquidationPrice(c.loan, c.amount, c.liq)
		ltv := LTV(c.loan, CollateralValue(c.amount, p))
		assert.InDelta(t, c.liq, ltv, eps, "loan=%v amount=%v", c.loan, c.amount)
	}
}

func TestBuffer(t *testing.T) {
	t.Run("above threshold price", func(t *testing.T) {
		// priceAtT(0.7) = 2000 / (0.05 * 0.7) = 57142.857
		usd, pct := Buffer(65000, 2000, 0.05, 0.7)
		assert.InDelta(t, 65000-57142.857142, usd, 1e-3)
		assert.InDelta(t, usd/65000, pct, eps)
	})

	t.Run("already breached", func(t *testing.T) {
		usd, pct := Buffer(52000, 2000, 0.05, 0.7)
		assert.Equal(t, 0.0, usd)
		assert.Equal(t, 0.0, pct)
	})

	t.Run("no loan", func(t *testing.T) {
		usd, pct := Buffer(65000, 0, 0.05, 0.7)
		assert.Equal(t, 0.0, usd)
		assert.Equal(t, 0.0, pct)
	})

	t.Run("never negative", func(t *testing.T) {
		for price := 0.0; price <= 100000; price += 2500 {
			usd, pct := Buffer(price, 2000, 0.05, 0.8)
			assert.GreaterOrEqual(t, usd, 0.0)
			assert.GreaterOrEqual(t, pct, 0.0)
			assert.False(t, math.IsNaN(pct) || math.IsInf(pct, 0))
		}
	})
}

func TestInterest(t *testing.T) {
	// 2000 * 5% / 365
	daily := DailyInterest(2000, 0.05)
	assert.InDelta(t, 0.273972, daily, eps)
	assert.InDelta(t, daily*30, MonthlyInterest(2000, 0.05), eps)
	assert.Equal(t, 0.0, DailyInterest(0, 0.05))
}

func TestBorrowCapacity(t *testing.T) {
	t.Run("below target", func(t *testing.T) {
		// cv 3250 * 0.5 = 1625，贷款 1000，还能借 625
		available, withdrawable := BorrowCapacity(3250, 1000, 0.5)
		assert.InDelta(t, 625, available, eps)
		assert.Equal(t, 0.0, withdrawable)
	})

	t.Run("above target", func(t *testing.T) {
		// minCollateral = 2000 / 0.5 = 4000 > 3250，没有多余抵押品
		available, withdrawable := BorrowCapacity(3250, 2000, 0.5)
		assert.Equal(t, 0.0, available)
		assert.Equal(t, 0.0, withdrawable)
	})

	t.Run("exactly at target", func(t *testing.T) {
		available, withdrawable := BorrowCapacity(4000, 2000, 0.5)
		assert.Equal(t, 0.0, available)
		assert.Equal(t, 0.0, withdrawable)
	})

	t.Run("zero target keeps loan as min collateral", func(t *testing.T) {
		available, withdrawable := BorrowCapacity(3250, 2000, 0)
		assert.Equal(t, 0.0, available)
		assert.InDelta(t, 1250, withdrawable, eps)
	})

	t.Run("never both positive", func(t *testing.T) {
		for cv := 0.0; cv <= 10000; cv += 250 {
			for loan := 0.0; loan <= 6000; loan += 250 {
				a, w := BorrowCapacity(cv, loan, 0.5)
				assert.False(t, a > 0 && w > 0, "cv=%v loan=%v", cv, loan)
			}
		}
	})
}

func TestCollateralShortfall(t *testing.T) {
	assert.InDelta(t, 750, CollateralShortfall(3250, 2000, 0.5), eps)
	assert.Equal(t, 0.0, CollateralShortfall(5000, 2000, 0.5))
	assert.Equal(t, 0.0, CollateralShortfall(3250, 0, 0.5))
	assert.Equal(t, 0.0, CollateralShortfall(3250, 2000, 0))
}

func TestToAssetAmount(t *testing.T) {
	assert.InDelta(t, 0.05, ToAssetAmount(3250, 65000), eps)
	assert.Equal(t, 0.0, ToAssetAmount(3250, 0))
	assert.Equal(t, 0.0, ToAssetAmount(-10, 65000))
}

// 基准测试：单次快照计算
func BenchmarkComputeSnapshot(b *testing.B) {
	pos := Position{CollateralAmount: 0.05, AssetPrice: 65000, LoanAmount: 2000, AnnualInterestRate: 0.05}
	th := DefaultThresholds()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ComputeSnapshot(pos, th)
	}
}
