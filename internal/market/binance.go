package market

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"

	"tauro/internal/logger"
)

const maxKlineLimit = 1000

// BinanceSource 基于 go-binance SDK 拉取现货日线收盘价。
// 回测只关心 close，其余字段丢弃；未收盘的最后一根 K 线不纳入。
type BinanceSource struct {
	client *binance.Client
	store  *BarStore
}

func NewBinanceSource(store *BarStore) *BinanceSource {
	return &BinanceSource{
		client: binance.NewClient("", ""),
		store:  store,
	}
}

func (s *BinanceSource) Name() string { return "binance" }

// Daily 拉取 [start, end] 区间的日线序列；优先命中本地缓存。
func (s *BinanceSource) Daily(ctx context.Context, symbol string, start, end time.Time) (*Series, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol 不能为空")
	}
	if !end.After(start) {
		return nil, fmt.Errorf("时间区间非法: %s ~ %s", start, end)
	}
	expected := int64(end.Sub(start)/(24*time.Hour)) + 1
	if s.store != nil {
		cached, err := s.store.Range(ctx, symbol, start, end)
		if err != nil {
			logger.Warnf("[market] 读取缓存失败: %v", err)
		} else if int64(len(cached)) >= expected {
			logger.Debugf("[market] %s 日线命中缓存 %d 条", symbol, len(cached))
			return &Series{Name: symbol, Bars: cached}, nil
		}
	}

	var bars []Bar
	cursor := start
	for cursor.Before(end) {
		kls, err := s.client.NewKlinesService().
			Symbol(symbol).
			Interval("1d").
			StartTime(cursor.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(maxKlineLimit).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("拉取 %s 日线失败: %w", symbol, err)
		}
		if len(kls) == 0 {
			break
		}
		now := time.Now().UnixMilli()
		for _, kl := range kls {
			if kl == nil || kl.CloseTime > now {
				continue
			}
			close, err := strconv.ParseFloat(kl.Close, 64)
			if err != nil {
				return nil, NewDataError("binance close %q: %v", kl.Close, err)
			}
			bars = append(bars, Bar{Date: time.UnixMilli(kl.OpenTime).UTC(), Close: close})
		}
		next := time.UnixMilli(kls[len(kls)-1].CloseTime + 1)
		if !next.After(cursor) {
			break
		}
		cursor = next
	}
	if len(bars) == 0 {
		return nil, NewDataError("binance 未返回 %s 区间内的日线", symbol)
	}
	if s.store != nil {
		if n, err := s.store.Upsert(ctx, symbol, bars); err != nil {
			logger.Warnf("[market] 写入缓存失败: %v", err)
		} else {
			logger.Debugf("[market] %s 缓存写入 %d 条", symbol, n)
		}
	}
	series := &Series{Name: symbol, Bars: bars}
	series.Normalize()
	return series, nil
}
