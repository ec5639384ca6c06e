package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func buyOrder(seq int64, d time.Time, price float64, qty int64) Order {
	return Order{Seq: seq, ID: FormatOrderID(seq), Date: d, Side: SideBuy, Price: price, Quantity: qty}
}

func sellOrder(seq int64, d time.Time, price float64, qty int64) Order {
	return Order{Seq: seq, ID: FormatOrderID(seq), Date: d, Side: SideSell, Price: price, Quantity: qty,
		LinkedOrderID: FormatOrderID(seq - 1)}
}

func TestAnalyzeEmptyLedger(t *testing.T) {
	report := Analyze(nil, 1000)
	assert.True(t, report.Empty())
	assert.Zero(t, report.TradeCount)
	assert.Empty(t, report.Trades)
}

func TestAnalyzePairsBuyThenSell(t *testing.T) {
	orders := []Order{
		buyOrder(1, day(0), 10, 5),
		sellOrder(2, day(2), 12, 5),
	}
	report := Analyze(orders, 100)

	assert.Equal(t, 2, report.TradeCount)
	require.Len(t, report.Trades, 1)
	trade := report.Trades[0]
	assert.Equal(t, day(0), trade.EntryDate)
	assert.Equal(t, day(2), trade.ExitDate)
	assert.InDelta(t, 10, trade.EntryPrice, 1e-9)
	assert.InDelta(t, 12, trade.ExitPrice, 1e-9)
	assert.InDelta(t, 10, trade.Profit, 1e-9) // (12-10)*5
	assert.InDelta(t, 20, trade.ProfitPct, 1e-9)
	assert.Zero(t, report.OpenOrders)
}

func TestAnalyzeBuyBuySellPairsLatestEntry(t *testing.T) {
	// 后一笔买入覆盖前一笔的入场价：卖单只与第二笔买入配对
	orders := []Order{
		buyOrder(1, day(0), 10, 5),
		buyOrder(2, day(1), 20, 5),
		sellOrder(3, day(2), 25, 10),
	}
	report := Analyze(orders, 1000)

	require.Len(t, report.Trades, 1)
	assert.InDelta(t, 20, report.Trades[0].EntryPrice, 1e-9)
	assert.Equal(t, day(1), report.Trades[0].EntryDate, "entry_date 取紧邻上一笔订单")
	assert.InDelta(t, (25-20)*10, report.Trades[0].Profit, 1e-9)
	assert.Equal(t, 1, report.OpenOrders)
}

func TestAnalyzeOrphanSellIgnored(t *testing.T) {
	orders := []Order{
		buyOrder(1, day(0), 10, 5),
		sellOrder(2, day(1), 11, 5),
		sellOrder(3, day(2), 12, 5), // 无在手仓位，配对时忽略
	}
	report := Analyze(orders, 100)

	assert.Equal(t, 3, report.TradeCount, "原始流水里的孤儿卖单仍计入订单数")
	require.Len(t, report.Trades, 1)
	assert.Equal(t, 1, report.OpenOrders)
}

func TestAnalyzeAggregateMetrics(t *testing.T) {
	orders := []Order{
		buyOrder(1, day(0), 10, 10),
		sellOrder(2, day(1), 11, 10), // +10, +10%
		buyOrder(3, day(2), 15, 7),
		sellOrder(4, day(3), 9, 7), // -42, -40%
	}
	report := Analyze(orders, 100)

	assert.Equal(t, 4, report.TradeCount)
	assert.InDelta(t, -32, report.TotalProfit, 1e-9)
	assert.InDelta(t, -32, report.TotalProfitPct, 1e-9)
	assert.InDelta(t, -16, report.AvgProfit, 1e-9)
	// 逐笔收益率的平均值，不等于总收益相对初始资金的比率
	assert.InDelta(t, -15, report.AvgProfitPct, 1e-9)
	assert.InDelta(t, 50, report.WinRate, 1e-9)
	assert.Equal(t, 1, report.Wins)
	assert.Equal(t, 1, report.Losses)
	assert.Equal(t, 0, report.Ties)
	assert.InDelta(t, 10, report.MaxSingleProfit, 1e-9)
	assert.InDelta(t, -42, report.MaxSingleLoss, 1e-9)
	// 总体标准差：|10-(-16)| = |-42-(-16)| = 26
	assert.InDelta(t, 26, report.ProfitStdDev, 1e-9)
	// 年化波动率 = 收益率总体标准差 25 * sqrt(252)
	assert.InDelta(t, 25*math.Sqrt(252), report.AnnualVolatility, 1e-9)
	expectedSharpe := (-32.0 - 2.5) / (25 * math.Sqrt(252))
	assert.InDelta(t, expectedSharpe, report.SharpeRatio, 1e-9)
	assert.InDelta(t, report.TotalProfitPct, report.AnnualReturnPct, 1e-9)
}

func TestAnalyzeZeroVolatilitySharpe(t *testing.T) {
	// 两笔收益率完全一致 → 波动率为 0 → 夏普按 0 报告而非除零
	orders := []Order{
		buyOrder(1, day(0), 10, 1),
		sellOrder(2, day(1), 11, 1),
		buyOrder(3, day(2), 20, 1),
		sellOrder(4, day(3), 22, 1),
	}
	report := Analyze(orders, 100)

	assert.InDelta(t, 0, report.AnnualVolatility, 1e-9)
	assert.Zero(t, report.SharpeRatio)
}

func TestAnalyzeWinRateBounds(t *testing.T) {
	cases := []struct {
		name   string
		exits  []float64
		expect float64
	}{
		{"all wins", []float64{11, 12, 13}, 100},
		{"all losses", []float64{9, 8, 7}, 0},
		{"mixed", []float64{11, 9, 10}, 100.0 / 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var orders []Order
			seq := int64(1)
			for i, exit := range tc.exits {
				orders = append(orders, buyOrder(seq, day(i*2), 10, 1))
				seq++
				orders = append(orders, sellOrder(seq, day(i*2+1), exit, 1))
				seq++
			}
			report := Analyze(orders, 100)
			assert.InDelta(t, tc.expect, report.WinRate, 1e-9)
			assert.GreaterOrEqual(t, report.WinRate, 0.0)
			assert.LessOrEqual(t, report.WinRate, 100.0)
			assert.LessOrEqual(t, len(report.Trades)*2, report.TradeCount)
		})
	}
}

func TestAnalyzeTies(t *testing.T) {
	orders := []Order{
		buyOrder(1, day(0), 10, 1),
		sellOrder(2, day(1), 10, 1),
	}
	report := Analyze(orders, 100)
	assert.Equal(t, 1, report.Ties)
	assert.Zero(t, report.WinRate)
}

func TestAnalyzeZeroCapitalGuarded(t *testing.T) {
	// 初始资金为 0 时收益率指标按 0 处理，不中断报告
	orders := []Order{
		buyOrder(1, day(0), 10, 1),
		sellOrder(2, day(1), 12, 1),
	}
	report := Analyze(orders, 0)
	assert.Zero(t, report.TotalProfitPct)
	assert.InDelta(t, 2, report.TotalProfit, 1e-9)
}
