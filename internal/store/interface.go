package store

import (
	"context"
	"time"

	"tauro/internal/backtest"
)

// RunSummary 是运行列表里的一行，只带对比用的汇总指标。
type RunSummary struct {
	RunID          string    `json:"run_id"`
	Strategy       string    `json:"strategy"`
	Symbol         string    `json:"symbol"`
	InitialCapital float64   `json:"initial_capital"`
	OrderCount     int       `json:"order_count"`
	TradeCount     int       `json:"trade_count"`
	TotalProfit    float64   `json:"total_profit"`
	TotalProfitPct float64   `json:"total_profit_pct"`
	WinRate        float64   `json:"win_rate"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
	Failed         bool      `json:"failed"`
	ErrorMsg       string    `json:"error_msg,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// ResultReader 是查询侧的只读接口，HTTP 服务只依赖它。
type ResultReader interface {
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	GetRun(ctx context.Context, runID string) (*RunSummary, error)
	GetReport(ctx context.Context, runID string) (*backtest.Report, error)
	ListOrders(ctx context.Context, runID string) ([]backtest.Order, error)
	ListSnapshots(ctx context.Context, runID string) ([]backtest.CapitalSnapshot, error)
}

// ResultWriter 是写入侧接口，回测 Runner 通过 sink 调用。
type ResultWriter interface {
	SaveRun(ctx context.Context, res backtest.RunResult) error
}

// ResultStore 聚合读写两侧。
type ResultStore interface {
	ResultReader
	ResultWriter
	Close() error
}
