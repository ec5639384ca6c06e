package report

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"tauro/internal/backtest"
)

const (
	colorBackground    = "#060c1b"
	colorTextPrimary   = "#eceff4"
	colorTextSecondary = "#9ca3af"
	colorPrice         = "#3b82f6"
	colorBuy           = "#34d399"
	colorSell          = "#f87171"

	chartWidthPx  = 1600
	chartHeightPx = 700
)

// renderChart 在 base.html 写交互式图表，按需再截一张 base.png。
func (w *Writer) renderChart(ctx context.Context, res backtest.RunResult, base string) error {
	html, err := buildRunChartHTML(res)
	if err != nil {
		return err
	}
	htmlPath := base + ".html"
	if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
		return fmt.Errorf("写图表 HTML 失败: %w", err)
	}
	if !w.cfg.RenderPNG {
		return nil
	}
	png, err := renderHTMLToPNG(ctx, html, chartWidthPx, chartHeightPx+80)
	if err != nil {
		return fmt.Errorf("无头浏览器截图失败: %w", err)
	}
	return os.WriteFile(base+".png", png, 0o644)
}

// buildRunChartHTML 画收盘价折线，并把买卖点以散点叠在价格线上，
// 点旁标注成交数量。
func buildRunChartHTML(res backtest.RunResult) ([]byte, error) {
	if res.Series == nil || res.Series.Len() == 0 {
		return nil, fmt.Errorf("没有价格序列可画")
	}
	bars := res.Series.Bars

	xAxis := make([]string, len(bars))
	priceData := make([]opts.LineData, len(bars))
	dateIndex := make(map[string]int, len(bars))
	for i, bar := range bars {
		key := bar.Date.Format("2006-01-02")
		xAxis[i] = key
		dateIndex[key] = i
		priceData[i] = opts.LineData{Value: bar.Close}
	}

	buys := make([]opts.ScatterData, len(bars))
	sells := make([]opts.ScatterData, len(bars))
	for _, o := range res.Orders {
		i, ok := dateIndex[o.Date.Format("2006-01-02")]
		if !ok {
			continue
		}
		point := opts.ScatterData{
			Name:       fmt.Sprintf("%d", o.Quantity),
			Value:      o.Price,
			SymbolSize: 14,
		}
		if o.Side == backtest.SideBuy {
			point.Symbol = "triangle"
			buys[i] = point
		} else {
			point.Symbol = "pin"
			sells[i] = point
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", chartHeightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:         fmt.Sprintf("%s 回测", res.Strategy),
			Subtitle:      fmt.Sprintf("%s | 订单 %d 笔 | 总盈亏 %.2f", res.Series.Name, len(res.Orders), res.Report.TotalProfit),
			Left:          "left",
			Top:           "10",
			TitleStyle:    &opts.TextStyle{Color: colorTextPrimary, FontSize: 18},
			SubtitleStyle: &opts.TextStyle{Color: colorTextSecondary},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), TextStyle: &opts.TextStyle{Color: colorTextPrimary}}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(false)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.2)}},
		}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries("收盘价", priceData,
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorPrice, Width: 2}),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)

	scatter := charts.NewScatter()
	scatter.SetXAxis(xAxis)
	scatter.AddSeries("买入", buys,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorBuy}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}", Color: colorTextPrimary, Position: "top"}),
	)
	scatter.AddSeries("卖出", sells,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorSell}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}", Color: colorTextPrimary, Position: "bottom"}),
	)
	line.Overlap(scatter)

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(line)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderHTMLToPNG(ctx context.Context, html []byte, width, height int) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	parent, cancel := chromedp.NewContext(ctx)
	defer cancel()

	timeoutCtx, cancelTimeout := context.WithTimeout(parent, 20*time.Second)
	defer cancelTimeout()

	dataURI := "data:text/html;base64," + base64.StdEncoding.EncodeToString(html)
	var screenshot []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate(dataURI),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(1500 * time.Millisecond),
		chromedp.FullScreenshot(&screenshot, 0),
	}
	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		return nil, err
	}
	return screenshot, nil
}
