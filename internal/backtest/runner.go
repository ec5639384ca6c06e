package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tauro/internal/logger"
	"tauro/internal/market"
	"tauro/internal/strategy"
)

// RunResult 是一次策略回测的全部产物。
type RunResult struct {
	RunID          string
	Strategy       string
	InitialCapital float64
	Orders         []Order
	Snapshots      []CapitalSnapshot
	Report         Report
	Series         *market.Series
	Err            error
	StartedAt      time.Time
	FinishedAt     time.Time
}

// RunSink 消费一次运行的产物（入库、写报告、渲染图表）。
// Sink 失败只记日志，不影响运行结果，也不阻塞其他策略。
type RunSink interface {
	Name() string
	Publish(ctx context.Context, res RunResult) error
}

// RunnerConfig 控制批量回测的资金与并发。
type RunnerConfig struct {
	InitialCapital float64
	MaxConcurrent  int
}

// Runner 对同一价格序列批量执行多个策略。
// 每个策略独享一份 accountState/流水与序列副本，策略之间无共享
// 可变状态，因此可以安全并发。
type Runner struct {
	cfg   RunnerConfig
	sinks []RunSink
}

func NewRunner(cfg RunnerConfig, sinks ...RunSink) (*Runner, error) {
	if cfg.InitialCapital <= 0 {
		return nil, fmt.Errorf("initial capital %f 必须为正", cfg.InitialCapital)
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	return &Runner{cfg: cfg, sinks: sinks}, nil
}

// RunAll 依次（或受限并发）执行所有策略，返回与入参同序的结果。
// 单个策略失败记录在其 RunResult.Err 中，不中断其余策略。
func (r *Runner) RunAll(ctx context.Context, series *market.Series, strategies []strategy.Strategy) ([]RunResult, error) {
	if series == nil || series.Len() == 0 {
		return nil, market.NewDataError("price series is empty")
	}
	results := make([]RunResult, len(strategies))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(r.cfg.MaxConcurrent)
	for i, strat := range strategies {
		group.Go(func() error {
			results[i] = r.RunOne(ctx, series, strat)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// RunOne 执行单个策略：生成信号、模拟成交、统计绩效，最后把产物
// 交给各 sink。失败的运行同样发布，入库侧会留下错误记录。
func (r *Runner) RunOne(ctx context.Context, series *market.Series, strat strategy.Strategy) (res RunResult) {
	res = RunResult{
		RunID:          uuid.NewString(),
		Strategy:       strat.Name(),
		InitialCapital: r.cfg.InitialCapital,
		StartedAt:      time.Now(),
	}
	defer func() {
		res.FinishedAt = time.Now()
		r.publish(ctx, res)
	}()

	// 策略可能在副本上派生工作列，正本保持只读
	working := series.Clone()
	res.Series = working

	signals, err := strat.GenerateSignals(working)
	if err != nil {
		res.Err = fmt.Errorf("策略 %s 信号生成失败: %w", strat.Name(), err)
		logger.Warnf("[runner] %v", res.Err)
		return res
	}
	sim, err := NewSimulator(SimulatorConfig{
		UnitSize:       strat.UnitSize(),
		CommissionRate: strat.CommissionRate(),
		InitialCapital: r.cfg.InitialCapital,
	})
	if err != nil {
		res.Err = err
		return res
	}
	orders, snapshots, err := sim.Run(working, signals, strat)
	if err != nil {
		res.Err = fmt.Errorf("策略 %s 模拟失败: %w", strat.Name(), err)
		logger.Warnf("[runner] %v", res.Err)
		return res
	}
	res.Orders = orders
	res.Snapshots = snapshots
	res.Report = Analyze(orders, r.cfg.InitialCapital)
	logger.Infof("[runner] 策略 %s 完成：订单 %d 笔，完整回合 %d 个，总收益 %.2f",
		strat.Name(), len(orders), len(res.Report.Trades), res.Report.TotalProfit)
	return res
}

func (r *Runner) publish(ctx context.Context, res RunResult) {
	for _, sink := range r.sinks {
		if err := sink.Publish(ctx, res); err != nil {
			// 报表/入库失败不应拖垮批量回测
			logger.Errorf("[runner] sink %s 处理策略 %s 失败: %v", sink.Name(), res.Strategy, err)
		}
	}
}
