package config

// Config 是 Tauro 的主配置载体。
type Config struct {
	App      AppConfig      `toml:"app"`
	Data     DataConfig     `toml:"data"`
	Trading  TradingConfig  `toml:"trading"`
	Profiles ProfilesConfig `toml:"profiles"`
	Runner   RunnerConfig   `toml:"runner"`
	Report   ReportConfig   `toml:"report"`
	Store    StoreConfig    `toml:"store"`
	Server   ServerConfig   `toml:"server"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
}

// DataConfig 描述价格序列来源：本地文件或 Binance 日线。
type DataConfig struct {
	Source      string `toml:"source"` // file | binance
	Path        string `toml:"path"`
	DateColumn  string `toml:"date_column"`
	CloseColumn string `toml:"close_column"`
	Symbol      string `toml:"symbol"`
	Start       string `toml:"start"` // 2006-01-02
	End         string `toml:"end"`
	CacheDB     string `toml:"cache_db"`
}

// TradingConfig 是策略共享的资金与交易约束。
type TradingConfig struct {
	InitialCapital float64 `toml:"initial_capital"`
	Commission     float64 `toml:"commission"`
	Unit           int64   `toml:"unit"`
	MaxPosition    int64   `toml:"max_position"`
	Leverage       float64 `toml:"leverage"`
}

type ProfilesConfig struct {
	Path string `toml:"path"`
}

type RunnerConfig struct {
	MaxConcurrent int `toml:"max_concurrent"`
}

type ReportConfig struct {
	Dir       string `toml:"dir"`
	Charts    bool   `toml:"charts"`
	RenderPNG bool   `toml:"render_png"`
}

type StoreConfig struct {
	ResultsDB string `toml:"results_db"`
}

// ServerConfig 控制结果查询 HTTP 服务。
type ServerConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}
