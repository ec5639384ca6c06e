package app

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"tauro/internal/backtest"
	tauroCfg "tauro/internal/config"
	"tauro/internal/logger"
	"tauro/internal/market"
	"tauro/internal/pkg/trading"
	"tauro/internal/report"
	"tauro/internal/store/gormstore"
	"tauro/internal/strategy"
	resulthttp "tauro/internal/transport/http"
)

// App 负责应用级编排：加载配置→初始化依赖→批量回测→可选的结果查询服务。
type App struct {
	cfg          *tauroCfg.Config
	series       *market.Series
	strategies   []strategy.Strategy
	runner       *backtest.Runner
	resultStore  *gormstore.Store
	reportWriter *report.Writer
	httpSrv      *resulthttp.Server
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *tauroCfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run 执行批量回测并写出对比报告。启用查询服务时继续阻塞服务 HTTP，
// 直到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.resultStore.Close()

	group, ctx := errgroup.WithContext(ctx)
	if a.httpSrv != nil {
		group.Go(func() error {
			if err := a.httpSrv.Start(ctx); err != nil {
				return fmt.Errorf("result http server error: %w", err)
			}
			return nil
		})
	}

	results, err := a.runner.RunAll(ctx, a.series, a.strategies)
	if err != nil {
		return err
	}
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	logger.Infof("✓ 批量回测完成：%d 个策略，%d 个失败", len(results), failed)
	logger.InfoBlock(summaryBlock(results))
	if _, err := a.reportWriter.WriteComparison(results); err != nil {
		logger.Errorf("写对比报告失败: %v", err)
	}

	if a.httpSrv == nil {
		return nil
	}
	logger.Infof("结果查询服务运行中（%s），Ctrl+C 退出", a.cfg.Server.Addr)
	return group.Wait()
}

// summaryBlock 汇总各策略的核心指标，逐行对齐输出。
func summaryBlock(results []backtest.RunResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %12s %10s %8s %8s\n", "策略", "总收益", "收益率", "胜率", "交易数")
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(&b, "%-20s %12s\n", res.Strategy, "失败")
			continue
		}
		fmt.Fprintf(&b, "%-20s %12s %10s %8s %8d\n",
			res.Strategy,
			trading.FormatMoney(res.Report.TotalProfit),
			trading.FormatPercent(res.Report.TotalProfitPct),
			trading.FormatPercent(res.Report.WinRate),
			res.Report.TradeCount,
		)
	}
	return b.String()
}
