package config

import (
	"fmt"
	"strings"
	"time"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Data.validate(); err != nil {
		return err
	}
	if err := c.Trading.validate(); err != nil {
		return err
	}
	return nil
}

func (d *DataConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(d.Source)) {
	case "file":
		if strings.TrimSpace(d.Path) == "" {
			return fmt.Errorf("data.path 必填（source=file）")
		}
	case "binance":
		if strings.TrimSpace(d.Symbol) == "" {
			return fmt.Errorf("data.symbol 必填（source=binance）")
		}
		for _, pair := range []struct{ key, val string }{
			{"data.start", d.Start},
			{"data.end", d.End},
		} {
			if strings.TrimSpace(pair.val) == "" {
				return fmt.Errorf("%s 必填（source=binance）", pair.key)
			}
			if _, err := time.Parse("2006-01-02", pair.val); err != nil {
				return fmt.Errorf("%s 格式应为 2006-01-02: %w", pair.key, err)
			}
		}
	default:
		return fmt.Errorf("data.source 只支持 file/binance，收到 %q", d.Source)
	}
	return nil
}

func (t *TradingConfig) validate() error {
	if t.Commission < 0 {
		return fmt.Errorf("trading.commission must be >= 0")
	}
	if t.MaxPosition < 0 {
		return fmt.Errorf("trading.max_position must be >= 0")
	}
	if t.Leverage < 0 {
		return fmt.Errorf("trading.leverage must be >= 0")
	}
	return nil
}
