package strategy

import (
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"

	"tauro/internal/market"
)

// RSIConfig 控制 RSI 策略参数。
type RSIConfig struct {
	Params
	Period     int
	Overbought float64
	Oversold   float64
}

// RSI 为超买超卖反转策略：RSI 低于超卖线时按偏离程度买入，
// 高于超买线时清仓。买入强度 = (oversold - RSI) / oversold，截断到 [0,1]。
type RSI struct {
	cfg RSIConfig
}

func NewRSI(cfg RSIConfig) (*RSI, error) {
	if cfg.Period <= 0 {
		cfg.Period = 14
	}
	if cfg.Overbought <= 0 {
		cfg.Overbought = 80
	}
	if cfg.Oversold <= 0 {
		cfg.Oversold = 20
	}
	if cfg.Oversold >= cfg.Overbought {
		return nil, fmt.Errorf("oversold %.1f 必须小于 overbought %.1f", cfg.Oversold, cfg.Overbought)
	}
	return &RSI{cfg: cfg}, nil
}

func (s *RSI) Name() string { return "RSI" }

func (s *RSI) UnitSize() int64         { return s.cfg.UnitSize() }
func (s *RSI) CommissionRate() float64 { return s.cfg.CommissionRate() }
func (s *RSI) MaxPositionSize() int64  { return s.cfg.MaxPositionSize() }
func (s *RSI) BuyQuantity(p, st float64) int64 {
	return s.cfg.BuyQuantity(p, st)
}

func (s *RSI) GenerateSignals(series *market.Series) ([]float64, error) {
	if series.Len() <= s.cfg.Period {
		return nil, fmt.Errorf("序列长度 %d 不足以计算 RSI(%d)", series.Len(), s.cfg.Period)
	}
	closes := series.Clone().Closes()
	rsi := talib.Rsi(closes, s.cfg.Period)

	signals := make([]float64, len(closes))
	for i := range closes {
		if i < s.cfg.Period || math.IsNaN(rsi[i]) || rsi[i] == 0 {
			continue
		}
		switch {
		case rsi[i] > s.cfg.Overbought:
			signals[i] = -1
		case rsi[i] < s.cfg.Oversold:
			strength := (s.cfg.Oversold - rsi[i]) / s.cfg.Oversold
			if strength > 1 {
				strength = 1
			}
			if strength > 0 {
				signals[i] = strength
			}
		}
	}
	return signals, nil
}
