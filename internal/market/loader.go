package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"

	"tauro/internal/logger"
	"tauro/internal/pkg/convert"
)

// Loader 从本地文件加载价格序列。支持 csv/xlsx/json，按扩展名分派。
type Loader struct {
	DateColumn  string // 默认 "date"
	CloseColumn string // 默认 "close"
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Load 读取文件并返回整理后的序列（已排序去重）。
func (l *Loader) Load(path string) (*Series, error) {
	var (
		series *Series
		err    error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		series, err = l.loadCSV(path)
	case ".xlsx", ".xls":
		series, err = l.loadExcel(path)
	case ".json":
		series, err = l.loadJSON(path)
	default:
		return nil, NewDataError("unsupported data file %s", path)
	}
	if err != nil {
		return nil, err
	}
	series.Normalize()
	if err := series.Validate(); err != nil {
		return nil, err
	}
	logger.Infof("[market] 加载 %s：%d 条记录（%s ~ %s）", filepath.Base(path), series.Len(),
		series.Bars[0].Date.Format("2006-01-02"), series.Bars[series.Len()-1].Date.Format("2006-01-02"))
	return series, nil
}

func (l *Loader) dateCol() string {
	if l.DateColumn != "" {
		return strings.ToLower(l.DateColumn)
	}
	return "date"
}

func (l *Loader) closeCol() string {
	if l.CloseColumn != "" {
		return strings.ToLower(l.CloseColumn)
	}
	return "close"
}

func (l *Loader) loadCSV(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return nil, NewDataError("read csv header: %v", err)
	}
	dateIdx, closeIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case l.dateCol():
			dateIdx = i
		case l.closeCol():
			closeIdx = i
		}
	}
	if dateIdx < 0 || closeIdx < 0 {
		return nil, NewDataError("csv missing %s/%s columns", l.dateCol(), l.closeCol())
	}
	series := &Series{Name: filepath.Base(path)}
	row := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &DataError{Row: row + 1, Reason: err.Error()}
		}
		row++
		if len(rec) <= dateIdx || len(rec) <= closeIdx {
			continue
		}
		bar, keep, err := parseBar(rec[dateIdx], rec[closeIdx], row)
		if err != nil {
			return nil, err
		}
		if keep {
			series.Bars = append(series.Bars, bar)
		}
	}
	return series, nil
}

func (l *Loader) loadExcel(path string) (*Series, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewDataError("workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, NewDataError("workbook %s has no data rows", path)
	}
	dateIdx, closeIdx := -1, -1
	for i, col := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case l.dateCol():
			dateIdx = i
		// 原始数据表使用 RMB_price 作为收盘列名
		case l.closeCol(), "rmb_price":
			closeIdx = i
		}
	}
	if dateIdx < 0 || closeIdx < 0 {
		return nil, NewDataError("sheet %s missing %s/%s columns", sheets[0], l.dateCol(), l.closeCol())
	}
	series := &Series{Name: filepath.Base(path)}
	for i, rec := range rows[1:] {
		if len(rec) <= dateIdx || len(rec) <= closeIdx {
			continue
		}
		bar, keep, err := parseBar(rec[dateIdx], rec[closeIdx], i+2)
		if err != nil {
			return nil, err
		}
		if keep {
			series.Bars = append(series.Bars, bar)
		}
	}
	return series, nil
}

// loadJSON 接受 [{"date":"2024-01-02","close":123.4}, ...] 形式的数组。
func (l *Loader) loadJSON(path string) (*Series, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsArray() {
		return nil, NewDataError("json document %s is not an array", path)
	}
	series := &Series{Name: filepath.Base(path)}
	var loadErr error
	idx := 0
	parsed.ForEach(func(_, item gjson.Result) bool {
		idx++
		bar, keep, err := parseBar(item.Get(l.dateCol()).String(), item.Get(l.closeCol()).Value(), idx)
		if err != nil {
			loadErr = err
			return false
		}
		if keep {
			series.Bars = append(series.Bars, bar)
		}
		return true
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return series, nil
}

// parseBar 解析一行。空行跳过（keep=false），非法值返回 DataError。
func parseBar(dateCell string, closeCell any, row int) (Bar, bool, error) {
	dateStr := strings.TrimSpace(dateCell)
	closeEmpty := closeCell == nil
	if s, ok := closeCell.(string); ok {
		closeEmpty = strings.TrimSpace(s) == ""
	}
	if dateStr == "" && closeEmpty {
		return Bar{}, false, nil
	}
	date, err := parseDate(dateStr)
	if err != nil {
		return Bar{}, false, &DataError{Row: row, Reason: err.Error()}
	}
	price, err := convert.Float64(closeCell)
	if err != nil {
		return Bar{}, false, &DataError{Row: row, Reason: fmt.Sprintf("close: %v", err)}
	}
	return Bar{Date: date, Close: price}, true, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
