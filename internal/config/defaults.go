package config

// 默认值常量
const (
	defaultAppEnv         = "dev"
	defaultAppLogLevel    = "info"
	defaultAppLogPath     = "logs/tauro.log"
	defaultDataSource     = "file"
	defaultDateColumn     = "date"
	defaultCloseColumn    = "close"
	defaultCacheDB        = "data/bars.db"
	defaultInitialCapital = 100000
	defaultUnit           = 100
	defaultMaxConcurrent  = 4
	defaultProfilesPath   = "configs/strategies.yaml"
	defaultReportDir      = "reports"
	defaultResultsDB      = "data/results.db"
	defaultHTTPAddr       = ":9991"
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = defaultAppEnv
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = defaultAppLogLevel
	}
	if c.App.LogPath == "" {
		c.App.LogPath = defaultAppLogPath
	}
	if c.Data.Source == "" {
		c.Data.Source = defaultDataSource
	}
	if c.Data.DateColumn == "" {
		c.Data.DateColumn = defaultDateColumn
	}
	if c.Data.CloseColumn == "" {
		c.Data.CloseColumn = defaultCloseColumn
	}
	if c.Data.CacheDB == "" {
		c.Data.CacheDB = defaultCacheDB
	}
	if c.Trading.InitialCapital <= 0 {
		c.Trading.InitialCapital = defaultInitialCapital
	}
	if c.Trading.Unit <= 0 {
		c.Trading.Unit = defaultUnit
	}
	if c.Runner.MaxConcurrent <= 0 {
		c.Runner.MaxConcurrent = defaultMaxConcurrent
	}
	if c.Profiles.Path == "" {
		c.Profiles.Path = defaultProfilesPath
	}
	if c.Report.Dir == "" {
		c.Report.Dir = defaultReportDir
	}
	if c.Store.ResultsDB == "" {
		c.Store.ResultsDB = defaultResultsDB
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultHTTPAddr
	}
}
