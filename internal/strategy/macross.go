package strategy

import (
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"

	"tauro/internal/market"
)

// MACrossConfig 控制双均线策略参数。
type MACrossConfig struct {
	Params
	ShortWindow int
	LongWindow  int
}

// MACross 为改进版双均线策略：短均线上穿且动量为正时买入，
// 下穿或波动率异常放大时清仓。信号强度取均线间距占长均线的比例，
// 在全序列内归一化到 (0,1]。
type MACross struct {
	cfg MACrossConfig
}

func NewMACross(cfg MACrossConfig) (*MACross, error) {
	if cfg.ShortWindow <= 0 {
		cfg.ShortWindow = 5
	}
	if cfg.LongWindow <= 0 {
		cfg.LongWindow = 20
	}
	if cfg.ShortWindow >= cfg.LongWindow {
		return nil, fmt.Errorf("short window %d 必须小于 long window %d", cfg.ShortWindow, cfg.LongWindow)
	}
	return &MACross{cfg: cfg}, nil
}

func (s *MACross) Name() string { return "MA" }

func (s *MACross) UnitSize() int64         { return s.cfg.UnitSize() }
func (s *MACross) CommissionRate() float64 { return s.cfg.CommissionRate() }
func (s *MACross) MaxPositionSize() int64  { return s.cfg.MaxPositionSize() }
func (s *MACross) BuyQuantity(p, st float64) int64 {
	return s.cfg.BuyQuantity(p, st)
}

func (s *MACross) GenerateSignals(series *market.Series) ([]float64, error) {
	if series.Len() < s.cfg.LongWindow+1 {
		return nil, fmt.Errorf("序列长度 %d 不足以计算 %d 日均线", series.Len(), s.cfg.LongWindow)
	}
	closes := series.Clone().Closes() // 派生列基于工作副本，正本只读

	smaShort := talib.Sma(closes, s.cfg.ShortWindow)
	smaLong := talib.Sma(closes, s.cfg.LongWindow)
	momentum := pctChange(closes, s.cfg.ShortWindow)
	volatility := rollingVolatility(closes, s.cfg.ShortWindow)

	// 信号强度：均线间距 / 长均线，全序列归一化。
	strength := make([]float64, len(closes))
	maxStrength := 0.0
	for i := range closes {
		if i < s.cfg.LongWindow-1 || smaLong[i] == 0 {
			strength[i] = math.NaN()
			continue
		}
		strength[i] = math.Abs(smaShort[i]-smaLong[i]) / smaLong[i]
		if strength[i] > maxStrength {
			maxStrength = strength[i]
		}
	}

	volMean := nanMean(volatility)
	signals := make([]float64, len(closes))
	for i := range closes {
		if i < s.cfg.LongWindow-1 {
			continue
		}
		buy := smaShort[i] > smaLong[i] && !math.IsNaN(momentum[i]) && momentum[i] > 0
		sell := smaShort[i] < smaLong[i] ||
			(!math.IsNaN(volatility[i]) && volatility[i] > volMean*2)
		// 卖出条件优先于买入（与条件重叠时按清仓处理）
		switch {
		case sell:
			signals[i] = -1
		case buy && maxStrength > 0 && !math.IsNaN(strength[i]):
			signals[i] = strength[i] / maxStrength
		}
	}
	return signals, nil
}

// pctChange 返回 closes[i] 相对 closes[i-period] 的涨跌幅，前 period 位为 NaN。
func pctChange(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		if i < period || closes[i-period] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (closes[i] - closes[i-period]) / closes[i-period]
	}
	return out
}

// rollingVolatility 返回日收益率在 window 内的滚动样本标准差。
func rollingVolatility(closes []float64, window int) []float64 {
	returns := pctChange(closes, 1)
	out := make([]float64, len(closes))
	for i := range out {
		if i < window || window < 2 {
			out[i] = math.NaN()
			continue
		}
		sum, valid := 0.0, true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(returns[j]) {
				valid = false
				break
			}
			sum += returns[j]
		}
		if !valid {
			out[i] = math.NaN()
			continue
		}
		mean := sum / float64(window)
		varSum := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := returns[j] - mean
			varSum += d * d
		}
		out[i] = math.Sqrt(varSum / float64(window-1))
	}
	return out
}

func nanMean(vals []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
