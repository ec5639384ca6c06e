package market

import (
	"fmt"
	"sort"
	"time"

	"tauro/internal/logger"
)

// Bar 表示单个交易日的收盘记录。
type Bar struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Series 是按时间正序排列的收盘价序列。
// 模拟器要求严格升序且无重复日期；Normalize 负责兜底整理。
type Series struct {
	Name string
	Bars []Bar
}

// DataError 表示输入数据本身不可用（缺字段、非数值、时间错乱等）。
type DataError struct {
	Reason string
	Row    int
}

func (e *DataError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("data error at row %d: %s", e.Row, e.Reason)
	}
	return "data error: " + e.Reason
}

// NewDataError 构造一个不带行号的 DataError。
func NewDataError(format string, v ...any) *DataError {
	return &DataError{Reason: fmt.Sprintf(format, v...)}
}

// Len 返回序列长度。
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Closes 返回收盘价数组，供指标计算使用。
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Dates 返回日期数组，与 Closes 一一对应。
func (s *Series) Dates() []time.Time {
	out := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Date
	}
	return out
}

// Clone 返回深拷贝。策略可能派生工作列，模拟器持有的正本保持只读。
func (s *Series) Clone() *Series {
	if s == nil {
		return nil
	}
	bars := make([]Bar, len(s.Bars))
	copy(bars, s.Bars)
	return &Series{Name: s.Name, Bars: bars}
}

// Normalize 确保时间升序且无重复日期。乱序/重复属于可恢复的数据问题：
// 排序去重并告警，而不是中断（重复日期保留后出现的一条）。
func (s *Series) Normalize() {
	if s == nil || len(s.Bars) == 0 {
		return
	}
	sorted := sort.SliceIsSorted(s.Bars, func(i, j int) bool {
		return s.Bars[i].Date.Before(s.Bars[j].Date)
	})
	if !sorted {
		logger.Warnf("[market] 序列 %s 未按时间正序排列，已自动排序", s.Name)
		sort.SliceStable(s.Bars, func(i, j int) bool {
			return s.Bars[i].Date.Before(s.Bars[j].Date)
		})
	}
	deduped := s.Bars[:0]
	for _, b := range s.Bars {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(b.Date) {
			logger.Warnf("[market] 序列 %s 重复日期 %s，保留最后一条", s.Name, b.Date.Format("2006-01-02"))
			deduped[n-1] = b
			continue
		}
		deduped = append(deduped, b)
	}
	s.Bars = deduped
}

// Validate 检查序列是否满足模拟器前置条件。
func (s *Series) Validate() error {
	if s == nil || len(s.Bars) == 0 {
		return NewDataError("empty series")
	}
	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i].Date.After(s.Bars[i-1].Date) {
			return &DataError{Row: i + 1, Reason: fmt.Sprintf("timestamp %s not after %s",
				s.Bars[i].Date.Format("2006-01-02"), s.Bars[i-1].Date.Format("2006-01-02"))}
		}
	}
	return nil
}
