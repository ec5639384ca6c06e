package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tauro/internal/backtest"
	tauroCfg "tauro/internal/config"
	"tauro/internal/logger"
	"tauro/internal/market"
	"tauro/internal/profile"
	"tauro/internal/report"
	"tauro/internal/store/gormstore"
	"tauro/internal/strategy"
	resulthttp "tauro/internal/transport/http"
)

// AppBuilder 按配置逐层搭建应用依赖。各构建函数可在测试中替换。
type AppBuilder struct {
	cfg *tauroCfg.Config

	seriesFn     func(context.Context, tauroCfg.DataConfig) (*market.Series, error)
	strategiesFn func(tauroCfg.Config) ([]strategy.Strategy, error)
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *tauroCfg.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:          cfg,
		seriesFn:     loadSeries,
		strategiesFn: loadStrategies,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// WithSeriesSource 替换价格序列来源（测试用）。
func WithSeriesSource(fn func(context.Context, tauroCfg.DataConfig) (*market.Series, error)) AppBuilderOption {
	return func(b *AppBuilder) { b.seriesFn = fn }
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)

	series, err := b.seriesFn(ctx, cfg.Data)
	if err != nil {
		return nil, fmt.Errorf("加载价格序列失败: %w", err)
	}
	logger.Infof("✓ 价格序列就绪：%s，%d 根日线", series.Name, series.Len())

	strategies, err := b.strategiesFn(*cfg)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(strategies))
	for _, s := range strategies {
		names = append(names, s.Name())
	}
	logger.Infof("✓ 已加载 %d 个策略: %s", len(strategies), strings.Join(names, ", "))

	resultStore, err := gormstore.NewStore(cfg.Store.ResultsDB)
	if err != nil {
		return nil, fmt.Errorf("初始化结果库失败: %w", err)
	}
	reportWriter, err := report.NewWriter(report.Config{
		Dir:       cfg.Report.Dir,
		Charts:    cfg.Report.Charts,
		RenderPNG: cfg.Report.RenderPNG,
	})
	if err != nil {
		resultStore.Close()
		return nil, err
	}

	runner, err := backtest.NewRunner(backtest.RunnerConfig{
		InitialCapital: cfg.Trading.InitialCapital,
		MaxConcurrent:  cfg.Runner.MaxConcurrent,
	}, resultStore, reportWriter)
	if err != nil {
		resultStore.Close()
		return nil, err
	}

	var httpSrv *resulthttp.Server
	if cfg.Server.Enabled {
		httpSrv, err = resulthttp.NewServer(resulthttp.Config{
			Addr:    cfg.Server.Addr,
			Results: resultStore,
		})
		if err != nil {
			resultStore.Close()
			return nil, err
		}
	}

	return &App{
		cfg:          cfg,
		series:       series,
		strategies:   strategies,
		runner:       runner,
		resultStore:  resultStore,
		reportWriter: reportWriter,
		httpSrv:      httpSrv,
	}, nil
}

// loadSeries 按配置选择数据来源：本地文件或 Binance 日线（带 SQLite 缓存）。
func loadSeries(ctx context.Context, cfg tauroCfg.DataConfig) (*market.Series, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Source)) {
	case "file":
		loader := market.Loader{
			DateColumn:  cfg.DateColumn,
			CloseColumn: cfg.CloseColumn,
		}
		return loader.Load(cfg.Path)
	case "binance":
		start, err := time.Parse("2006-01-02", cfg.Start)
		if err != nil {
			return nil, fmt.Errorf("data.start 非法: %w", err)
		}
		end, err := time.Parse("2006-01-02", cfg.End)
		if err != nil {
			return nil, fmt.Errorf("data.end 非法: %w", err)
		}
		cache, err := market.NewBarStore(cfg.CacheDB)
		if err != nil {
			return nil, err
		}
		source := market.NewBinanceSource(cache)
		return source.Daily(ctx, cfg.Symbol, start, end)
	default:
		return nil, fmt.Errorf("未知数据来源 %q", cfg.Source)
	}
}

func loadStrategies(cfg tauroCfg.Config) ([]strategy.Strategy, error) {
	loader, err := profile.NewLoader(cfg.Profiles.Path)
	if err != nil {
		return nil, fmt.Errorf("加载策略档案失败: %w", err)
	}
	base := strategy.Params{
		InitialCapital: cfg.Trading.InitialCapital,
		Leverage:       cfg.Trading.Leverage,
		Commission:     cfg.Trading.Commission,
		Unit:           cfg.Trading.Unit,
		MaxPosition:    cfg.Trading.MaxPosition,
	}
	return profile.BuildStrategies(loader.Snapshot(), base)
}
