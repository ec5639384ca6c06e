package model

import (
	"gorm.io/datatypes"
)

// RunStatus 标记一次回测运行的最终状态。
type RunStatus int

const (
	RunStatusOK     RunStatus = 0
	RunStatusFailed RunStatus = 1
)

// RunModel 是一次回测运行的汇总行，绩效明细整体存 JSON，
// 常用对比指标冗余成列便于排序与筛选。
type RunModel struct {
	ID             int64          `gorm:"column:id;primaryKey"`
	RunID          string         `gorm:"column:run_id;uniqueIndex"`
	Strategy       string         `gorm:"column:strategy;index"`
	Symbol         string         `gorm:"column:symbol"`
	InitialCapital float64        `gorm:"column:initial_capital"`
	OrderCount     int            `gorm:"column:order_count"`
	TradeCount     int            `gorm:"column:trade_count"`
	TotalProfit    float64        `gorm:"column:total_profit"`
	TotalProfitPct float64        `gorm:"column:total_profit_pct"`
	WinRate        float64        `gorm:"column:win_rate"`
	SharpeRatio    float64        `gorm:"column:sharpe_ratio"`
	ReportJSON     datatypes.JSON `gorm:"column:report_json;type:TEXT"`
	Status         RunStatus      `gorm:"column:status"`
	ErrorMsg       string         `gorm:"column:error_msg"`
	StartedAtUnix  int64          `gorm:"column:started_at"`
	FinishedAtUnix int64          `gorm:"column:finished_at"`
	CreatedAtUnix  int64          `gorm:"column:created_at"`
}

func (RunModel) TableName() string { return "backtest_runs" }

// OrderModel 是订单流水行，一行对应一笔模拟成交。
type OrderModel struct {
	ID             int64   `gorm:"column:id;primaryKey"`
	RunID          string  `gorm:"column:run_id;index:idx_order_run,priority:1"`
	Seq            int64   `gorm:"column:seq;index:idx_order_run,priority:2"`
	OrderID        string  `gorm:"column:order_id"`
	DateUnix       int64   `gorm:"column:date"`
	Side           string  `gorm:"column:side"`
	Price          float64 `gorm:"column:price"`
	Quantity       int64   `gorm:"column:quantity"`
	SignalStrength float64 `gorm:"column:signal_strength"`
	CashDelta      float64 `gorm:"column:cash_delta"`
	PositionDelta  int64   `gorm:"column:position_delta"`
	LinkedOrderID  string  `gorm:"column:linked_order_id"`
}

func (OrderModel) TableName() string { return "backtest_orders" }

// SnapshotModel 是每笔订单成交后的资金快照行。
type SnapshotModel struct {
	ID               int64   `gorm:"column:id;primaryKey"`
	RunID            string  `gorm:"column:run_id;index"`
	OrderID          string  `gorm:"column:order_id"`
	DateUnix         int64   `gorm:"column:date"`
	AvailableCash    float64 `gorm:"column:available_cash"`
	PositionValue    float64 `gorm:"column:position_value"`
	TotalValue       float64 `gorm:"column:total_value"`
	PositionQuantity int64   `gorm:"column:position_quantity"`
}

func (SnapshotModel) TableName() string { return "backtest_snapshots" }

// TradeModel 是配对后的完整买卖回合行。
type TradeModel struct {
	ID            int64   `gorm:"column:id;primaryKey"`
	RunID         string  `gorm:"column:run_id;index"`
	EntryDateUnix int64   `gorm:"column:entry_date"`
	ExitDateUnix  int64   `gorm:"column:exit_date"`
	EntryPrice    float64 `gorm:"column:entry_price"`
	ExitPrice     float64 `gorm:"column:exit_price"`
	Profit        float64 `gorm:"column:profit"`
	ProfitPct     float64 `gorm:"column:profit_pct"`
}

func (TradeModel) TableName() string { return "backtest_trades" }
