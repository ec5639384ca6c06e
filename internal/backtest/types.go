package backtest

import (
	"fmt"
	"time"
)

const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Order 记录一次成交。由模拟器创建并追加，此后只读。
type Order struct {
	Seq            int64     `json:"seq"`      // 从 1 起连续递增
	ID             string    `json:"order_id"` // 零填充序号，如 ORDER_0001
	Date           time.Time `json:"date"`
	Side           string    `json:"side"`
	Price          float64   `json:"price"`
	Quantity       int64     `json:"quantity"`
	SignalStrength float64   `json:"signal_strength"`
	// CashDelta 买入为 -cost（含手续费），卖出为 +revenue（扣手续费）。
	CashDelta     float64 `json:"cash_delta"`
	PositionDelta int64   `json:"position_delta"`
	// LinkedOrderID 仅卖单填写，取"上一个分配的订单号"。多笔买入后
	// 一笔卖出时该关联必然指错（见 Analyzer 的配对口径），按原始口径保留。
	LinkedOrderID string `json:"linked_order_id,omitempty"`
}

// CapitalSnapshot 在每笔成交后记录账户构成，与订单一一对应。
type CapitalSnapshot struct {
	Date             time.Time `json:"date"`
	OrderID          string    `json:"order_id"`
	AvailableCash    float64   `json:"available_cash"`
	PositionValue    float64   `json:"position_value"`
	TotalValue       float64   `json:"total_value"`
	PositionQuantity int64     `json:"position_quantity"`
}

// CompletedTrade 是 Analyzer 按"单一在手"口径配出的一组买卖回合。
type CompletedTrade struct {
	EntryDate  time.Time `json:"entry_date"`
	ExitDate   time.Time `json:"exit_date"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Profit     float64   `json:"profit"`
	ProfitPct  float64   `json:"profit_pct"`
}

// Report 汇总一次回测的绩效统计。
type Report struct {
	TradeCount     int     `json:"trade_count"` // 订单总数（买+卖）
	TotalProfit    float64 `json:"total_profit"`
	TotalProfitPct float64 `json:"total_profit_pct"` // 相对初始资金
	AvgProfit      float64 `json:"avg_profit"`
	// AvgProfitPct 是逐笔收益率的平均值，与 TotalProfitPct 口径不同，
	// 两者并非同一度量，分开保留。
	AvgProfitPct     float64          `json:"avg_profit_pct"`
	WinRate          float64          `json:"win_rate"` // 百分数 [0,100]
	Wins             int              `json:"wins"`
	Losses           int              `json:"losses"`
	Ties             int              `json:"ties"`
	MaxSingleProfit  float64          `json:"max_single_profit"`
	MaxSingleLoss    float64          `json:"max_single_loss"`
	ProfitStdDev     float64          `json:"profit_stddev"` // 总体标准差（除以 N）
	AnnualReturnPct  float64          `json:"annual_return_pct"`
	AnnualVolatility float64          `json:"annual_volatility"`
	SharpeRatio      float64          `json:"sharpe_ratio"`
	OpenOrders       int              `json:"open_orders"` // 未配对的订单数
	Trades           []CompletedTrade `json:"trades"`
}

// Empty 表示没有任何订单，无指标可报。
func (r Report) Empty() bool { return r.TradeCount == 0 }

// FormatOrderID 渲染零填充订单号。
func FormatOrderID(seq int64) string {
	return fmt.Sprintf("ORDER_%04d", seq)
}
