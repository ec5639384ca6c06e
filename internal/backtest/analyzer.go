package backtest

import (
	"math"

	"tauro/internal/logger"
)

// 夏普比率用的无风险利率，与 TotalProfitPct 同为百分数口径。
const riskFreeRatePct = 2.5

// tradingDaysPerYear 用于把逐笔收益率波动放大为年化波动率。
const tradingDaysPerYear = 252

// Analyze 把订单流水配对成完整回合并计算绩效统计。
// 订单为空时返回空报告。统计阶段的除零等异常一律按零处理，
// 宁可给出残缺指标也不让整份报告失败。
//
// 配对采用"单一在手"口径：只跟踪一个布尔的持仓标记，不看数量。
// 买单覆盖上一个未平仓的入场价（buy-buy-sell 只把卖单配给第二笔买入），
// 没有在手仓位时出现的卖单不产生回合、直接忽略。
func Analyze(orders []Order, initialCapital float64) Report {
	report := Report{TradeCount: len(orders)}
	if len(orders) == 0 {
		return report
	}

	var (
		hasOpenEntry bool
		entryPrice   float64
		trades       []CompletedTrade
	)
	for i, order := range orders {
		switch order.Side {
		case SideBuy:
			entryPrice = order.Price
			hasOpenEntry = true
		case SideSell:
			if !hasOpenEntry {
				continue
			}
			// 盈亏按卖出数量加权；收益率只看价格比例
			profit := (order.Price - entryPrice) * float64(order.Quantity)
			profitPct := 0.0
			if entryPrice != 0 {
				profitPct = (order.Price - entryPrice) / entryPrice * 100
			} else {
				logger.Warnf("[analyze] 入场价为 0，收益率按 0 处理（订单 %s）", order.ID)
			}
			// entry_date 取紧邻的上一笔订单时间（原始口径，i>0 必然成立）
			entryDate := orders[i].Date
			if i > 0 {
				entryDate = orders[i-1].Date
			}
			trades = append(trades, CompletedTrade{
				EntryDate:  entryDate,
				ExitDate:   order.Date,
				EntryPrice: entryPrice,
				ExitPrice:  order.Price,
				Profit:     profit,
				ProfitPct:  profitPct,
			})
			hasOpenEntry = false
		}
	}

	report.Trades = trades
	report.OpenOrders = len(orders) - len(trades)*2
	if len(trades) == 0 {
		return report
	}

	profits := make([]float64, len(trades))
	pcts := make([]float64, len(trades))
	totalProfit := 0.0
	maxProfit := math.Inf(-1)
	minProfit := math.Inf(1)
	for i, t := range trades {
		profits[i] = t.Profit
		pcts[i] = t.ProfitPct
		totalProfit += t.Profit
		if t.Profit > maxProfit {
			maxProfit = t.Profit
		}
		if t.Profit < minProfit {
			minProfit = t.Profit
		}
		switch {
		case t.Profit > 0:
			report.Wins++
		case t.Profit < 0:
			report.Losses++
		default:
			report.Ties++
		}
	}

	report.TotalProfit = totalProfit
	if initialCapital > 0 {
		report.TotalProfitPct = totalProfit / initialCapital * 100
	}
	report.AvgProfit = mean(profits)
	report.AvgProfitPct = mean(pcts)
	report.WinRate = float64(report.Wins) / float64(len(trades)) * 100
	report.MaxSingleProfit = maxProfit
	report.MaxSingleLoss = minProfit
	report.ProfitStdDev = stddevPop(profits)

	// 年化口径沿用原始实现：总收益率直接当年化收益，逐笔收益率
	// 标准差乘 sqrt(252) 当年化波动。两者在数学上并不严格自洽，
	// 但对比指标的相对含义一致，保持原样。
	report.AnnualReturnPct = report.TotalProfitPct
	report.AnnualVolatility = stddevPop(pcts) * math.Sqrt(tradingDaysPerYear)
	if report.AnnualVolatility != 0 {
		report.SharpeRatio = (report.TotalProfitPct - riskFreeRatePct) / report.AnnualVolatility
	}
	return report
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// stddevPop 计算总体标准差（除以 N）。
func stddevPop(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m := mean(vals)
	varSum := 0.0
	for _, v := range vals {
		d := v - m
		varSum += d * d
	}
	return math.Sqrt(varSum / float64(len(vals)))
}
