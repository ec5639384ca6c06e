package backtest

import (
	"fmt"
	"math"

	"tauro/internal/market"
	"tauro/internal/strategy"
)

// SimulatorConfig 是一次模拟的参数快照（不可变，见 config 传递约定）。
type SimulatorConfig struct {
	UnitSize       int64
	CommissionRate float64
	InitialCapital float64
}

// Simulator 将逐日信号流推演为订单流水与资金快照。
// 严格按时间单遍扫描，不允许乱序：每一步的可买数量取决于之前
// 所有步骤留下的资金/持仓状态。资金不足导致跳单不是错误。
type Simulator struct {
	cfg SimulatorConfig
}

// accountState 是模拟器私有的运行状态，单次 Run 内有效。
// 不变量：cash >= 0，position >= 0。资金钳制可能留下不足一个
// 交易单位的零头持仓，position 不保证是 UnitSize 的整数倍。
type accountState struct {
	cash     float64
	position int64
}

func NewSimulator(cfg SimulatorConfig) (*Simulator, error) {
	if cfg.UnitSize < 1 {
		return nil, fmt.Errorf("unit size %d 非法，至少为 1", cfg.UnitSize)
	}
	if cfg.CommissionRate < 0 {
		return nil, fmt.Errorf("commission rate %f 不能为负", cfg.CommissionRate)
	}
	if cfg.InitialCapital < 0 {
		return nil, fmt.Errorf("initial capital %f 不能为负", cfg.InitialCapital)
	}
	return &Simulator{cfg: cfg}, nil
}

// Run 执行模拟。signals 与 series 必须等长且按索引对齐。
// 任一步的价格/信号不可解释为有限数值时整个模拟终止（不保留部分结果）。
func (s *Simulator) Run(series *market.Series, signals []float64, sizer strategy.Sizer) ([]Order, []CapitalSnapshot, error) {
	if series == nil || series.Len() == 0 {
		return nil, nil, market.NewDataError("price series is empty")
	}
	if len(signals) != series.Len() {
		return nil, nil, fmt.Errorf("signal/price 长度不一致: %d vs %d", len(signals), series.Len())
	}
	if sizer == nil {
		return nil, nil, fmt.Errorf("sizer 不能为空")
	}

	state := accountState{cash: s.cfg.InitialCapital}
	commission := s.cfg.CommissionRate
	unit := s.cfg.UnitSize
	var (
		orders    []Order
		snapshots []CapitalSnapshot
		nextSeq   int64 = 1
	)

	for i, bar := range series.Bars {
		price := bar.Close
		sig := signals[i]
		if math.IsNaN(price) || math.IsInf(price, 0) {
			return nil, nil, &market.DataError{Row: i + 1, Reason: fmt.Sprintf("price %v is not finite", price)}
		}
		if math.IsNaN(sig) || math.IsInf(sig, 0) {
			return nil, nil, &market.DataError{Row: i + 1, Reason: fmt.Sprintf("signal %v is not finite", sig)}
		}

		switch {
		case sig > 0 && state.cash > 0:
			quantity := sizer.BuyQuantity(price, sig)
			if quantity <= 0 {
				continue
			}
			cost := price * float64(quantity) * (1 + commission)
			if cost > state.cash {
				// 资金钳制：先压到可负担数量，此处刻意不再按交易单位取整
				quantity = int64(state.cash / (price * (1 + commission)))
			}
			if quantity < unit {
				continue // 凑不满一个交易单位，跳过本次买入
			}
			cost = price * float64(quantity) * (1 + commission)
			state.cash -= cost
			state.position += quantity
			order := Order{
				Seq:            nextSeq,
				ID:             FormatOrderID(nextSeq),
				Date:           bar.Date,
				Side:           SideBuy,
				Price:          price,
				Quantity:       quantity,
				SignalStrength: sig,
				CashDelta:      -cost,
				PositionDelta:  quantity,
			}
			orders = append(orders, order)
			snapshots = append(snapshots, s.snapshot(order, state, price))
			nextSeq++

		case sig < 0 && state.position > 0:
			// 只能按整数倍交易单位清仓，凑不满一单位的零头留在持仓里
			quantity := state.position / unit * unit
			if quantity == 0 {
				continue
			}
			revenue := price * float64(quantity) * (1 - commission)
			state.cash += revenue
			state.position -= quantity
			order := Order{
				Seq:            nextSeq,
				ID:             FormatOrderID(nextSeq),
				Date:           bar.Date,
				Side:           SideSell,
				Price:          price,
				Quantity:       quantity,
				SignalStrength: sig,
				CashDelta:      revenue,
				PositionDelta:  -quantity,
				LinkedOrderID:  FormatOrderID(nextSeq - 1),
			}
			orders = append(orders, order)
			snapshots = append(snapshots, s.snapshot(order, state, price))
			nextSeq++
		}
	}
	return orders, snapshots, nil
}

func (s *Simulator) snapshot(order Order, state accountState, price float64) CapitalSnapshot {
	positionValue := float64(state.position) * price
	return CapitalSnapshot{
		Date:             order.Date,
		OrderID:          order.ID,
		AvailableCash:    state.cash,
		PositionValue:    positionValue,
		TotalValue:       state.cash + positionValue,
		PositionQuantity: state.position,
	}
}
