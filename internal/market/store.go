package market

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// BarStore 缓存远端拉取的日线收盘价，每个 symbol 一张表。
// 重复抓取同一区间时直接命中本地缓存，避免反复请求交易所。
type BarStore struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

func NewBarStore(path string) (*BarStore, error) {
	if path == "" {
		return nil, fmt.Errorf("bar store path 不能为空")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := ensureBarSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BarStore{path: path, db: db}, nil
}

func ensureBarSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS bars (
		symbol TEXT NOT NULL,
		ts INTEGER NOT NULL,
		close REAL NOT NULL,
		PRIMARY KEY(symbol, ts)
	);`)
	return err
}

func (s *BarStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Upsert 批量写入（重复日期覆盖）。
func (s *BarStore) Upsert(ctx context.Context, symbol string, bars []Bar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	symbol = strings.ToUpper(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return 0, fmt.Errorf("bar store 已关闭")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bars (symbol, ts, close) VALUES (?, ?, ?)
		ON CONFLICT(symbol, ts) DO UPDATE SET close=excluded.close`)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	defer stmt.Close()
	count := 0
	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, symbol, b.Date.UnixMilli(), b.Close); err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		count++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// Range 读取 [start, end] 区间内的缓存记录，按时间升序。
func (s *BarStore) Range(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	symbol = strings.ToUpper(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, fmt.Errorf("bar store 已关闭")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, close FROM bars WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts ASC`,
		symbol, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Bar
	for rows.Next() {
		var ts int64
		var close float64
		if err := rows.Scan(&ts, &close); err != nil {
			return nil, err
		}
		out = append(out, Bar{Date: time.UnixMilli(ts).UTC(), Close: close})
	}
	return out, rows.Err()
}

// Count 返回某个 symbol 的缓存条数。
func (s *BarStore) Count(ctx context.Context, symbol string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return 0, fmt.Errorf("bar store 已关闭")
	}
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bars WHERE symbol = ?`, strings.ToUpper(symbol)).Scan(&n)
	return n, err
}
