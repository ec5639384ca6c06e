package trading

import (
	"math"

	"github.com/shopspring/decimal"
)

var decZero = decimal.Zero

func decFromFloat(val float64) decimal.Decimal {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return decZero
	}
	return decimal.NewFromFloat(val)
}

// RoundMoney 将金额归整到两位小数，报表展示用，避免 float64 尾差。
func RoundMoney(val float64) float64 {
	f, _ := decFromFloat(val).Round(2).Float64()
	return f
}

// FormatMoney 输出带千分位的金额字符串（两位小数）。
func FormatMoney(val float64) string {
	d := decFromFloat(val).Round(2)
	neg := d.IsNegative()
	if neg {
		d = d.Neg()
	}
	s := d.StringFixed(2)
	intPart := s[:len(s)-3]
	frac := s[len(s)-3:]
	var out []byte
	for i, c := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out) + frac
	}
	return string(out) + frac
}

// FormatPercent 输出百分比字符串，如 12.34%。
func FormatPercent(val float64) string {
	return decFromFloat(val).Round(2).StringFixed(2) + "%"
}

// LotFloor 将数量向下取整到 unit 的整数倍。
func LotFloor(quantity, unit int64) int64 {
	if unit <= 0 {
		return quantity
	}
	if quantity < 0 {
		return 0
	}
	return quantity / unit * unit
}
