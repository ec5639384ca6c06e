package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"tauro/internal/backtest"
	"tauro/internal/store"
	storemodel "tauro/internal/store/model"
)

type runModel = storemodel.RunModel
type orderModel = storemodel.OrderModel
type snapshotModel = storemodel.SnapshotModel
type tradeModel = storemodel.TradeModel

// Store 用 Gorm + SQLite 落地回测结果。
type Store struct {
	db *gorm.DB
}

var (
	_ store.ResultStore = (*Store)(nil)
	_ backtest.RunSink  = (*Store)(nil)
)

// NewStore 打开（必要时创建）结果库并完成建表迁移。
func NewStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: 结果库路径不能为空")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&runModel{}, &orderModel{}, &snapshotModel{}, &tradeModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL：写入是批量回测的串行尾声，读取来自 HTTP 查询，
	// 少量并行连接就够了
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Name 实现 backtest.RunSink。
func (s *Store) Name() string { return "gormstore" }

// Publish 实现 backtest.RunSink，把一次运行的全部产物写库。
func (s *Store) Publish(ctx context.Context, res backtest.RunResult) error {
	return s.SaveRun(ctx, res)
}

// SaveRun 在单个事务里写入运行汇总、订单流水、资金快照与完整回合。
// 同一 run_id 重复写入时覆盖旧数据（先清明细再重插）。
// 失败的运行只留汇总行与错误信息，没有明细。
func (s *Store) SaveRun(ctx context.Context, res backtest.RunResult) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store 未初始化")
	}
	if strings.TrimSpace(res.RunID) == "" {
		return fmt.Errorf("run_id 不能为空")
	}

	run := runModel{
		RunID:          res.RunID,
		Strategy:       res.Strategy,
		InitialCapital: res.InitialCapital,
		OrderCount:     len(res.Orders),
		TradeCount:     res.Report.TradeCount,
		TotalProfit:    res.Report.TotalProfit,
		TotalProfitPct: res.Report.TotalProfitPct,
		WinRate:        res.Report.WinRate,
		SharpeRatio:    res.Report.SharpeRatio,
		StartedAtUnix:  res.StartedAt.Unix(),
		FinishedAtUnix: res.FinishedAt.Unix(),
		CreatedAtUnix:  time.Now().Unix(),
	}
	if res.Series != nil {
		run.Symbol = res.Series.Name
	}
	if res.Err != nil {
		run.Status = storemodel.RunStatusFailed
		run.ErrorMsg = res.Err.Error()
	}
	reportJSON, err := json.Marshal(res.Report)
	if err != nil {
		return fmt.Errorf("序列化绩效报告失败: %w", err)
	}
	run.ReportJSON = datatypes.JSON(reportJSON)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "run_id"}},
			UpdateAll: true,
		}).Create(&run).Error; err != nil {
			return err
		}
		for _, m := range []interface{}{&orderModel{}, &snapshotModel{}, &tradeModel{}} {
			if err := tx.Where("run_id = ?", res.RunID).Delete(m).Error; err != nil {
				return err
			}
		}
		if res.Err != nil {
			return nil
		}

		if len(res.Orders) > 0 {
			orders := make([]orderModel, 0, len(res.Orders))
			for _, o := range res.Orders {
				orders = append(orders, orderModel{
					RunID:          res.RunID,
					Seq:            o.Seq,
					OrderID:        o.ID,
					DateUnix:       o.Date.Unix(),
					Side:           o.Side,
					Price:          o.Price,
					Quantity:       o.Quantity,
					SignalStrength: o.SignalStrength,
					CashDelta:      o.CashDelta,
					PositionDelta:  o.PositionDelta,
					LinkedOrderID:  o.LinkedOrderID,
				})
			}
			if err := tx.CreateInBatches(&orders, 200).Error; err != nil {
				return err
			}
		}
		if len(res.Snapshots) > 0 {
			snaps := make([]snapshotModel, 0, len(res.Snapshots))
			for _, c := range res.Snapshots {
				snaps = append(snaps, snapshotModel{
					RunID:            res.RunID,
					OrderID:          c.OrderID,
					DateUnix:         c.Date.Unix(),
					AvailableCash:    c.AvailableCash,
					PositionValue:    c.PositionValue,
					TotalValue:       c.TotalValue,
					PositionQuantity: c.PositionQuantity,
				})
			}
			if err := tx.CreateInBatches(&snaps, 200).Error; err != nil {
				return err
			}
		}
		if len(res.Report.Trades) > 0 {
			trades := make([]tradeModel, 0, len(res.Report.Trades))
			for _, t := range res.Report.Trades {
				trades = append(trades, tradeModel{
					RunID:         res.RunID,
					EntryDateUnix: t.EntryDate.Unix(),
					ExitDateUnix:  t.ExitDate.Unix(),
					EntryPrice:    t.EntryPrice,
					ExitPrice:     t.ExitPrice,
					Profit:        t.Profit,
					ProfitPct:     t.ProfitPct,
				})
			}
			if err := tx.CreateInBatches(&trades, 200).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListRuns 按入库时间倒序返回最近的运行汇总。limit <= 0 表示默认 50 条。
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.RunSummary, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store 未初始化")
	}
	if limit <= 0 {
		limit = 50
	}
	var models []runModel
	if err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]store.RunSummary, 0, len(models))
	for _, m := range models {
		out = append(out, runSummaryFromModel(m))
	}
	return out, nil
}

// GetRun 按 run_id 取单条运行汇总，不存在时返回 nil。
func (s *Store) GetRun(ctx context.Context, runID string) (*store.RunSummary, error) {
	m, err := s.findRun(ctx, runID)
	if err != nil || m == nil {
		return nil, err
	}
	summary := runSummaryFromModel(*m)
	return &summary, nil
}

// GetReport 反序列化指定运行的完整绩效报告。
func (s *Store) GetReport(ctx context.Context, runID string) (*backtest.Report, error) {
	m, err := s.findRun(ctx, runID)
	if err != nil || m == nil {
		return nil, err
	}
	var report backtest.Report
	if len(m.ReportJSON) > 0 {
		if err := json.Unmarshal(m.ReportJSON, &report); err != nil {
			return nil, fmt.Errorf("解析绩效报告失败: %w", err)
		}
	}
	return &report, nil
}

// ListOrders 按序号升序返回一次运行的订单流水。
func (s *Store) ListOrders(ctx context.Context, runID string) ([]backtest.Order, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store 未初始化")
	}
	var models []orderModel
	if err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("seq ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]backtest.Order, 0, len(models))
	for _, m := range models {
		out = append(out, backtest.Order{
			Seq:            m.Seq,
			ID:             m.OrderID,
			Date:           time.Unix(m.DateUnix, 0).UTC(),
			Side:           m.Side,
			Price:          m.Price,
			Quantity:       m.Quantity,
			SignalStrength: m.SignalStrength,
			CashDelta:      m.CashDelta,
			PositionDelta:  m.PositionDelta,
			LinkedOrderID:  m.LinkedOrderID,
		})
	}
	return out, nil
}

// ListSnapshots 按时间升序返回一次运行的资金快照。
func (s *Store) ListSnapshots(ctx context.Context, runID string) ([]backtest.CapitalSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store 未初始化")
	}
	var models []snapshotModel
	if err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]backtest.CapitalSnapshot, 0, len(models))
	for _, m := range models {
		out = append(out, backtest.CapitalSnapshot{
			Date:             time.Unix(m.DateUnix, 0).UTC(),
			OrderID:          m.OrderID,
			AvailableCash:    m.AvailableCash,
			PositionValue:    m.PositionValue,
			TotalValue:       m.TotalValue,
			PositionQuantity: m.PositionQuantity,
		})
	}
	return out, nil
}

func (s *Store) findRun(ctx context.Context, runID string) (*runModel, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store 未初始化")
	}
	var m runModel
	err := s.db.WithContext(ctx).Where("run_id = ?", runID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func runSummaryFromModel(m runModel) store.RunSummary {
	return store.RunSummary{
		RunID:          m.RunID,
		Strategy:       m.Strategy,
		Symbol:         m.Symbol,
		InitialCapital: m.InitialCapital,
		OrderCount:     m.OrderCount,
		TradeCount:     m.TradeCount,
		TotalProfit:    m.TotalProfit,
		TotalProfitPct: m.TotalProfitPct,
		WinRate:        m.WinRate,
		SharpeRatio:    m.SharpeRatio,
		Failed:         m.Status == storemodel.RunStatusFailed,
		ErrorMsg:       m.ErrorMsg,
		StartedAt:      time.Unix(m.StartedAtUnix, 0).UTC(),
		FinishedAt:     time.Unix(m.FinishedAtUnix, 0).UTC(),
	}
}
