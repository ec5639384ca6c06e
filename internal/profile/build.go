package profile

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"tauro/internal/logger"
	"tauro/internal/strategy"
)

const (
	TypeMACross = "ma_cross"
	TypeRSI     = "rsi"
)

// 各策略类型的参数 Schema。加载时即校验，避免把配置错误拖到回测中途。
var paramSchemas = map[string]map[string]interface{}{
	TypeMACross: {
		"type": "object",
		"properties": map[string]interface{}{
			"short_window": map[string]interface{}{"type": "integer", "minimum": 1},
			"long_window":  map[string]interface{}{"type": "integer", "minimum": 2},
			"commission":   map[string]interface{}{"type": "number", "minimum": 0},
			"unit":         map[string]interface{}{"type": "integer", "minimum": 1},
			"max_position": map[string]interface{}{"type": "integer", "minimum": 0},
			"leverage":     map[string]interface{}{"type": "number", "minimum": 0},
		},
	},
	TypeRSI: {
		"type": "object",
		"properties": map[string]interface{}{
			"period":       map[string]interface{}{"type": "integer", "minimum": 2},
			"overbought":   map[string]interface{}{"type": "number", "minimum": 0, "maximum": 100},
			"oversold":     map[string]interface{}{"type": "number", "minimum": 0, "maximum": 100},
			"commission":   map[string]interface{}{"type": "number", "minimum": 0},
			"unit":         map[string]interface{}{"type": "integer", "minimum": 1},
			"max_position": map[string]interface{}{"type": "integer", "minimum": 0},
			"leverage":     map[string]interface{}{"type": "number", "minimum": 0},
		},
	},
}

var compiledSchemas = map[string]*jsonschema.Schema{}

func init() {
	for typ, data := range paramSchemas {
		compiled, err := compileSchema(data)
		if err != nil {
			panic(fmt.Sprintf("profile schema %s 编译失败: %v", typ, err))
		}
		compiledSchemas[typ] = compiled
	}
}

func compileSchema(data map[string]interface{}) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

func validateParams(typ string, params map[string]interface{}) error {
	schema, ok := compiledSchemas[typ]
	if !ok {
		return fmt.Errorf("未知策略类型 %q", typ)
	}
	if len(params) == 0 {
		return nil
	}
	// jsonschema 只认 json.Unmarshal 产出的值类型，YAML 解码出的
	// int 等类型先过一遍 JSON 往返
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return schema.Validate(doc)
}

// sharedParams 是各策略都认的资金约束覆盖项，缺省时沿用全局配置。
type sharedParams struct {
	Commission  *float64 `mapstructure:"commission"`
	Unit        *int64   `mapstructure:"unit"`
	MaxPosition *int64   `mapstructure:"max_position"`
	Leverage    *float64 `mapstructure:"leverage"`
}

func (s sharedParams) apply(base strategy.Params) strategy.Params {
	if s.Commission != nil {
		base.Commission = *s.Commission
	}
	if s.Unit != nil {
		base.Unit = *s.Unit
	}
	if s.MaxPosition != nil {
		base.MaxPosition = *s.MaxPosition
	}
	if s.Leverage != nil {
		base.Leverage = *s.Leverage
	}
	return base
}

type maCrossParams struct {
	sharedParams `mapstructure:",squash"`
	ShortWindow  int `mapstructure:"short_window"`
	LongWindow   int `mapstructure:"long_window"`
}

type rsiParams struct {
	sharedParams `mapstructure:",squash"`
	Period       int     `mapstructure:"period"`
	Overbought   float64 `mapstructure:"overbought"`
	Oversold     float64 `mapstructure:"oversold"`
}

// BuildStrategies 把一份档案快照实例化成策略列表，按档案名排序保证
// 批量回测顺序稳定。单个档案实例化失败跳过并记日志。
func BuildStrategies(snap Snapshot, base strategy.Params) ([]strategy.Strategy, error) {
	names := make([]string, 0, len(snap.Profiles))
	for name := range snap.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]strategy.Strategy, 0, len(names))
	for _, name := range names {
		def := snap.Profiles[name]
		if def.Disabled {
			logger.Infof("策略档案 %s 已禁用，跳过", name)
			continue
		}
		strat, err := buildOne(def, base)
		if err != nil {
			logger.Errorf("策略档案 %s 实例化失败，跳过: %v", name, err)
			continue
		}
		// 报表与入库用档案名区分同类型的多个实例
		out = append(out, named{Strategy: strat, name: def.Name})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("没有可用的策略档案")
	}
	return out, nil
}

type named struct {
	strategy.Strategy
	name string
}

func (n named) Name() string { return n.name }

func buildOne(def Definition, base strategy.Params) (strategy.Strategy, error) {
	switch def.Type {
	case TypeMACross:
		var p maCrossParams
		if err := decodeParams(def.Params, &p); err != nil {
			return nil, err
		}
		return strategy.NewMACross(strategy.MACrossConfig{
			Params:      p.apply(base),
			ShortWindow: p.ShortWindow,
			LongWindow:  p.LongWindow,
		})
	case TypeRSI:
		var p rsiParams
		if err := decodeParams(def.Params, &p); err != nil {
			return nil, err
		}
		return strategy.NewRSI(strategy.RSIConfig{
			Params:     p.apply(base),
			Period:     p.Period,
			Overbought: p.Overbought,
			Oversold:   p.Oversold,
		})
	default:
		return nil, fmt.Errorf("未知策略类型 %q", def.Type)
	}
}

func decodeParams(params map[string]interface{}, target interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(params)
}
