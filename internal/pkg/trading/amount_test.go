package trading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "0.00", FormatMoney(0))
	assert.Equal(t, "1,234.50", FormatMoney(1234.5))
	assert.Equal(t, "1,000,000.00", FormatMoney(1e6))
	assert.Equal(t, "-98,765.43", FormatMoney(-98765.432))
	assert.Equal(t, "999.99", FormatMoney(999.99))
	// 非有限值按 0 处理
	assert.Equal(t, "0.00", FormatMoney(math.NaN()))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "12.34%", FormatPercent(12.337))
	assert.Equal(t, "-40.00%", FormatPercent(-40))
	assert.Equal(t, "0.00%", FormatPercent(0))
}

func TestRoundMoney(t *testing.T) {
	assert.InDelta(t, 1.23, RoundMoney(1.2345), 1e-12)
	assert.InDelta(t, -1.24, RoundMoney(-1.235), 1e-12)
}

func TestLotFloor(t *testing.T) {
	assert.Equal(t, int64(900), LotFloor(950, 100))
	assert.Equal(t, int64(950), LotFloor(950, 1))
	assert.Equal(t, int64(0), LotFloor(50, 100))
	assert.Equal(t, int64(0), LotFloor(-5, 100))
	assert.Equal(t, int64(7), LotFloor(7, 0))
}
