package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"tauro/internal/backtest"
	"tauro/internal/logger"
	"tauro/internal/pkg/trading"
)

// Config 控制报表输出位置与图表开关。
type Config struct {
	Dir       string // 输出目录，默认 reports
	Charts    bool   // 生成交互式 HTML 图表
	RenderPNG bool   // 在 HTML 之外用无头浏览器截一张 PNG
}

// Writer 把一次回测运行渲染成 Markdown 报告（可选附图表），
// 并实现 backtest.RunSink。渲染失败只记日志，不影响回测本身。
type Writer struct {
	cfg Config
}

var _ backtest.RunSink = (*Writer)(nil)

func NewWriter(cfg Config) (*Writer, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		cfg.Dir = "reports"
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建报告目录失败: %w", err)
	}
	return &Writer{cfg: cfg}, nil
}

// Name 实现 backtest.RunSink。
func (w *Writer) Name() string { return "report" }

// Publish 实现 backtest.RunSink：写单策略报告，按需渲染图表。
func (w *Writer) Publish(ctx context.Context, res backtest.RunResult) error {
	if res.Err != nil {
		logger.Warnf("[report] 策略 %s 运行失败，跳过报告: %v", res.Strategy, res.Err)
		return nil
	}
	path, err := w.WriteRun(res)
	if err != nil {
		return err
	}
	logger.Infof("[report] 策略 %s 报告已写入 %s", res.Strategy, path)
	if w.cfg.Charts {
		if err := w.renderChart(ctx, res, strings.TrimSuffix(path, ".md")); err != nil {
			// 图表属于锦上添花，渲染环境缺 Chrome 时报告照常产出
			logger.Warnf("[report] 策略 %s 图表渲染失败: %v", res.Strategy, err)
		}
	}
	return nil
}

// WriteRun 渲染单策略 Markdown 报告并返回文件路径。
func (w *Writer) WriteRun(res backtest.RunResult) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# 回测报告：%s\n\n", res.Strategy)

	b.WriteString("## 基本信息\n\n")
	b.WriteString("| 项目 | 值 |\n|---|---|\n")
	symbol := ""
	if res.Series != nil {
		symbol = res.Series.Name
	}
	fmt.Fprintf(&b, "| 标的 | %s |\n", symbol)
	fmt.Fprintf(&b, "| 运行编号 | %s |\n", res.RunID)
	fmt.Fprintf(&b, "| 初始资金 | %s |\n", trading.FormatMoney(res.InitialCapital))
	fmt.Fprintf(&b, "| 订单数 | %d |\n", len(res.Orders))
	fmt.Fprintf(&b, "| 完整回合 | %d |\n", len(res.Report.Trades))
	fmt.Fprintf(&b, "| 运行时间 | %s |\n\n", res.FinishedAt.Format("2006-01-02 15:04:05"))

	if res.Report.Empty() {
		b.WriteString("本次回测没有产生任何交易。\n")
		return w.writeFile(res, b.String())
	}

	b.WriteString("## 绩效指标\n\n")
	b.WriteString("| 指标 | 值 |\n|---|---|\n")
	r := res.Report
	fmt.Fprintf(&b, "| 总盈亏 | %s |\n", trading.FormatMoney(r.TotalProfit))
	fmt.Fprintf(&b, "| 总收益率 | %s |\n", trading.FormatPercent(r.TotalProfitPct))
	fmt.Fprintf(&b, "| 平均单笔盈亏 | %s |\n", trading.FormatMoney(r.AvgProfit))
	fmt.Fprintf(&b, "| 平均单笔收益率 | %s |\n", trading.FormatPercent(r.AvgProfitPct))
	fmt.Fprintf(&b, "| 胜率 | %s（胜 %d / 负 %d / 平 %d） |\n", trading.FormatPercent(r.WinRate), r.Wins, r.Losses, r.Ties)
	fmt.Fprintf(&b, "| 最大单笔盈利 | %s |\n", trading.FormatMoney(r.MaxSingleProfit))
	fmt.Fprintf(&b, "| 最大单笔亏损 | %s |\n", trading.FormatMoney(r.MaxSingleLoss))
	fmt.Fprintf(&b, "| 盈亏标准差 | %s |\n", trading.FormatMoney(r.ProfitStdDev))
	fmt.Fprintf(&b, "| 年化收益率 | %s |\n", trading.FormatPercent(r.AnnualReturnPct))
	fmt.Fprintf(&b, "| 年化波动率 | %s |\n", trading.FormatPercent(r.AnnualVolatility))
	fmt.Fprintf(&b, "| 夏普比率 | %.4f |\n", r.SharpeRatio)
	fmt.Fprintf(&b, "| 未配对订单 | %d |\n\n", r.OpenOrders)

	if len(r.Trades) > 0 {
		b.WriteString("## 完整回合\n\n")
		b.WriteString("| # | 入场日期 | 出场日期 | 入场价 | 出场价 | 盈亏 | 收益率 |\n|---|---|---|---|---|---|---|\n")
		for i, t := range r.Trades {
			fmt.Fprintf(&b, "| %d | %s | %s | %.4f | %.4f | %s | %s |\n",
				i+1,
				t.EntryDate.Format("2006-01-02"),
				t.ExitDate.Format("2006-01-02"),
				t.EntryPrice, t.ExitPrice,
				trading.FormatMoney(t.Profit),
				trading.FormatPercent(t.ProfitPct))
		}
		b.WriteString("\n")
	}

	if len(res.Snapshots) > 0 {
		b.WriteString("## 资金状况\n\n")
		b.WriteString("| 日期 | 订单 | 可用资金 | 持仓市值 | 总资产 | 持仓数量 |\n|---|---|---|---|---|---|\n")
		for _, c := range res.Snapshots {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %d |\n",
				c.Date.Format("2006-01-02"),
				c.OrderID,
				trading.FormatMoney(c.AvailableCash),
				trading.FormatMoney(c.PositionValue),
				trading.FormatMoney(c.TotalValue),
				c.PositionQuantity)
		}
		b.WriteString("\n")
	}

	b.WriteString("## 订单流水\n\n")
	b.WriteString("| 订单号 | 日期 | 方向 | 价格 | 数量 | 信号强度 | 资金变动 | 关联订单 |\n|---|---|---|---|---|---|---|---|\n")
	for _, o := range res.Orders {
		fmt.Fprintf(&b, "| %s | %s | %s | %.4f | %d | %.4f | %s | %s |\n",
			o.ID,
			o.Date.Format("2006-01-02"),
			sideLabel(o.Side),
			o.Price, o.Quantity, o.SignalStrength,
			trading.FormatMoney(o.CashDelta),
			o.LinkedOrderID)
	}

	return w.writeFile(res, b.String())
}

// WriteComparison 把一批运行按总盈亏降序汇总成对比表。
// 失败的运行也占一行，标明错误。
func (w *Writer) WriteComparison(results []backtest.RunResult) (string, error) {
	if len(results) == 0 {
		return "", fmt.Errorf("没有可对比的运行结果")
	}
	sorted := make([]backtest.RunResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Report.TotalProfit > sorted[j].Report.TotalProfit
	})

	var b strings.Builder
	b.WriteString("# 策略对比\n\n")
	b.WriteString("| 策略 | 订单数 | 完整回合 | 总盈亏 | 总收益率 | 胜率 | 夏普比率 | 备注 |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, res := range sorted {
		if res.Err != nil {
			fmt.Fprintf(&b, "| %s | - | - | - | - | - | - | 失败：%v |\n", res.Strategy, res.Err)
			continue
		}
		r := res.Report
		fmt.Fprintf(&b, "| %s | %d | %d | %s | %s | %s | %.4f | |\n",
			res.Strategy, len(res.Orders), len(r.Trades),
			trading.FormatMoney(r.TotalProfit),
			trading.FormatPercent(r.TotalProfitPct),
			trading.FormatPercent(r.WinRate),
			r.SharpeRatio)
	}

	name := fmt.Sprintf("comparison_%s.md", time.Now().Format("20060102_150405"))
	path := filepath.Join(w.cfg.Dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("写对比报告失败: %w", err)
	}
	logger.Infof("[report] 策略对比已写入 %s", path)
	return path, nil
}

func (w *Writer) writeFile(res backtest.RunResult, content string) (string, error) {
	name := fmt.Sprintf("%s_%s.md", sanitizeName(res.Strategy), res.FinishedAt.Format("20060102_150405"))
	path := filepath.Join(w.cfg.Dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("写报告失败: %w", err)
	}
	return path, nil
}

func sideLabel(side string) string {
	switch side {
	case backtest.SideBuy:
		return "买入"
	case backtest.SideSell:
		return "卖出"
	default:
		return side
	}
}

// sanitizeName 把策略名压成适合做文件名的形式。
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "strategy"
	}
	var out []rune
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
