package profile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"tauro/internal/logger"
)

// Definition 描述单个策略档案：策略类型加一组自由参数。
// 参数在加载时按类型对应的 JSON Schema 校验，非法档案整体跳过。
type Definition struct {
	Name     string                 `mapstructure:"-"`
	Type     string                 `mapstructure:"type"`
	Disabled bool                   `mapstructure:"disabled"`
	Params   map[string]interface{} `mapstructure:"params"`
}

// FileConfig 是完整的策略档案文件结构。
type FileConfig struct {
	Strategies map[string]Definition `mapstructure:"strategies"`
}

// Snapshot 对外暴露的只读快照。
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Profiles map[string]Definition
}

// ChangeListener 在档案变更时被调用。
type ChangeListener func(Snapshot)

// Loader 从 YAML/JSON 文件加载策略档案，并监听热更新。
type Loader struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
}

// NewLoader 读取档案文件并开始监听 FS 事件。
func NewLoader(path string) (*Loader, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("profile loader 需要文件路径")
	}
	if err := sniffFile(path); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取策略档案失败: %w", err)
	}
	loader := &Loader{path: path, v: v}
	if err := loader.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := loader.reload(); err != nil {
			logger.Errorf("策略档案热更新失败 (%s): %v", evt.Name, err)
			return
		}
		loader.notify()
	})
	v.WatchConfig()
	return loader, nil
}

// sniffFile 对档案文件先做一次语法预检，错误定位比 viper 的解析报错友好。
func sniffFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取策略档案失败: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if !gjson.ValidBytes(raw) {
			return fmt.Errorf("策略档案 %s 不是合法 JSON", filepath.Base(path))
		}
	case ".yaml", ".yml":
		var doc map[string]interface{}
		if err := yaml.NewDecoder(bytes.NewReader(raw)).Decode(&doc); err != nil {
			return fmt.Errorf("策略档案 %s 不是合法 YAML: %w", filepath.Base(path), err)
		}
	}
	return nil
}

// Snapshot 返回当前档案快照（浅拷贝，Definition 按值复制）。
func (l *Loader) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneSnapshot(l.snapshot)
}

// Subscribe 注册监听器，并立即异步收到一次完整快照。
func (l *Loader) Subscribe(fn ChangeListener) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	snap := cloneSnapshot(l.snapshot)
	l.mu.Unlock()
	go func() {
		defer safeRecover("profile listener")
		fn(snap)
	}()
}

func (l *Loader) notify() {
	l.mu.RLock()
	snap := cloneSnapshot(l.snapshot)
	listeners := append([]ChangeListener(nil), l.listeners...)
	l.mu.RUnlock()
	for _, fn := range listeners {
		if fn == nil {
			continue
		}
		go func(cb ChangeListener) {
			defer safeRecover("profile listener")
			cb(snap)
		}(fn)
	}
}

func (l *Loader) reload() error {
	var fileCfg FileConfig
	if err := l.v.Unmarshal(&fileCfg); err != nil {
		return fmt.Errorf("解析策略档案失败: %w", err)
	}
	normalized := make(map[string]Definition, len(fileCfg.Strategies))
	for name, def := range fileCfg.Strategies {
		norm, err := normalizeDefinition(name, def)
		if err != nil {
			// 单个档案非法不拖垮整个文件，跳过并继续
			logger.Errorf("策略档案 %s 非法，已跳过: %v", name, err)
			continue
		}
		normalized[name] = norm
	}
	l.mu.Lock()
	l.snapshot = Snapshot{
		Version:  l.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Profiles: normalized,
	}
	l.mu.Unlock()
	logger.Infof("策略档案重载完成：%d 个（来自 %s）", len(normalized), filepath.Base(l.path))
	return nil
}

func normalizeDefinition(name string, def Definition) (Definition, error) {
	def.Name = strings.TrimSpace(name)
	def.Type = strings.ToLower(strings.TrimSpace(def.Type))
	if def.Type == "" {
		return def, fmt.Errorf("缺少策略类型")
	}
	if err := validateParams(def.Type, def.Params); err != nil {
		return def, err
	}
	return def, nil
}

func cloneSnapshot(src Snapshot) Snapshot {
	dst := Snapshot{
		Version:  src.Version,
		LoadedAt: src.LoadedAt,
		Profiles: make(map[string]Definition, len(src.Profiles)),
	}
	for name, def := range src.Profiles {
		dst.Profiles[name] = def
	}
	return dst
}

func safeRecover(tag string) {
	if r := recover(); r != nil {
		logger.Errorf("%s panic: %v", tag, r)
	}
}
