package strategy

import (
	"math"

	"tauro/internal/market"
)

// Sizer 暴露下单数量与费率约束，模拟器通过它决定买入数量。
type Sizer interface {
	UnitSize() int64
	CommissionRate() float64
	MaxPositionSize() int64
	// BuyQuantity 根据价格与信号强度给出期望买入数量（已按交易单位取整）。
	// 返回 0 表示本次不买。
	BuyQuantity(price, strength float64) int64
}

// Strategy 按价格序列生成逐日信号：
// >0 为买入（幅度 (0,1] 表示仓位强度），<0 为清仓卖出，0 不动作。
type Strategy interface {
	Sizer
	Name() string
	GenerateSignals(series *market.Series) ([]float64, error)
}

// Params 是各策略共享的资金与交易约束。Leverage 仅透传，当前不参与计算。
type Params struct {
	InitialCapital float64
	Leverage       float64
	Commission     float64
	Unit           int64
	MaxPosition    int64 // 0 表示不限制
}

func (p Params) UnitSize() int64 {
	if p.Unit < 1 {
		return 1
	}
	return p.Unit
}

func (p Params) CommissionRate() float64 { return p.Commission }

func (p Params) MaxPositionSize() int64 { return p.MaxPosition }

// BuyQuantity 先按初始资金估算可买上限，再乘信号强度，
// 向下取整到交易单位的整数倍，并套用最大持仓约束。
func (p Params) BuyQuantity(price, strength float64) int64 {
	if price <= 0 || strength <= 0 {
		return 0
	}
	if strength > 1 {
		strength = 1
	}
	unit := p.UnitSize()
	base := p.InitialCapital / (price * (1 + p.Commission))
	target := int64(math.Floor(base * strength))
	adjusted := target / unit * unit
	if p.MaxPosition > 0 && adjusted > p.MaxPosition {
		adjusted = p.MaxPosition / unit * unit
	}
	if adjusted < unit {
		return 0
	}
	return adjusted
}
