package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// VenueConfig 交易所接入配置
type VenueConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
}

// RiskConfig 风险与仓位参数
type RiskConfig struct {
	MaxLossPerPosition     float64 // 单仓最大亏损占组合比例，例如 0.02
	ExchangeInvestmentRate float64 // 现货模式资金使用率（<=1）
	MarginInvestmentRate   float64 // 保证金模式资金使用率（可>1，即杠杆）
	PriceTolerance         float64 // 价格容差，默认 0.005
	InvestedThreshold      float64 // 持仓判定阈值，默认 0.002
}

// Config 应用配置
type Config struct {
	Venue        VenueConfig
	Risk         RiskConfig
	AccountID    string        // 快照归属的账户标识
	TradingMode  string        // exchange / margin
	TargetsFile  string        // 策略目标文件路径
	SyncInterval time.Duration // 同步周期间隔
	DBPath       string        // sqlite 数据库路径
	ServerAddr   string        // 控制面监听地址
	DryRun       bool          // 纸交易模式：只打印订单动作，不触碰交易所
	LogLevel     string
	LogFile      string
}

var globalConfig *Config

// ConfigFile 配置文件结构（YAML 解析用）
type ConfigFile struct {
	Venue struct {
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
	} `yaml:"venue"`
	Risk struct {
		MaxLossPerPosition     float64 `yaml:"max_loss_per_position"`
		ExchangeInvestmentRate float64 `yaml:"exchange_investment_rate"`
		MarginInvestmentRate   float64 `yaml:"margin_investment_rate"`
		PriceTolerance         float64 `yaml:"price_tolerance"`
		InvestedThreshold      float64 `yaml:"invested_threshold"`
	} `yaml:"risk"`
	AccountID    string `yaml:"account_id"`
	TradingMode  string `yaml:"trading_mode"`
	TargetsFile  string `yaml:"targets_file"`
	SyncInterval string `yaml:"sync_interval"`
	DBPath       string `yaml:"db_path"`
	ServerAddr   string `yaml:"server_addr"`
	DryRun       bool   `yaml:"dry_run"`
	LogLevel     string `yaml:"log_level"`
	LogFile      string `yaml:"log_file"`
}

// Load 从文件 + 环境变量加载配置（环境变量覆盖文件，缺省用默认值）
func Load(filePath string) (*Config, error) {
	var file ConfigFile
	if filePath != "" {
		raw, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", filePath, err)
		}
	}

	cfg := &Config{
		Venue: VenueConfig{
			BaseURL:   getEnv("VENUE_BASE_URL", file.Venue.BaseURL),
			APIKey:    getEnv("VENUE_API_KEY", file.Venue.APIKey),
			APISecret: getEnv("VENUE_API_SECRET", file.Venue.APISecret),
		},
		Risk: RiskConfig{
			MaxLossPerPosition:     getEnvFloat("MAX_LOSS_PER_POSITION", defaultFloat(file.Risk.MaxLossPerPosition, 0.02)),
			ExchangeInvestmentRate: getEnvFloat("EXCHANGE_INVESTMENT_RATE", defaultFloat(file.Risk.ExchangeInvestmentRate, 0.9)),
			MarginInvestmentRate:   getEnvFloat("MARGIN_INVESTMENT_RATE", defaultFloat(file.Risk.MarginInvestmentRate, 1.8)),
			PriceTolerance:         getEnvFloat("PRICE_TOLERANCE", defaultFloat(file.Risk.PriceTolerance, 0.005)),
			InvestedThreshold:      getEnvFloat("INVESTED_THRESHOLD", defaultFloat(file.Risk.InvestedThreshold, 0.002)),
		},
		AccountID:   getEnv("ACCOUNT_ID", defaultString(file.AccountID, "default")),
		TradingMode: getEnv("TRADING_MODE", defaultString(file.TradingMode, "exchange")),
		TargetsFile: getEnv("TARGETS_FILE", defaultString(file.TargetsFile, "targets.yaml")),
		DBPath:      getEnv("DB_PATH", defaultString(file.DBPath, "data/portfolio.db")),
		ServerAddr:  getEnv("SERVER_ADDR", defaultString(file.ServerAddr, ":8082")),
		DryRun:      getEnvBool("DRY_RUN", file.DryRun),
		LogLevel:    getEnv("LOG_LEVEL", defaultString(file.LogLevel, "info")),
		LogFile:     getEnv("LOG_FILE", defaultString(file.LogFile, "logs/finbot.log")),
	}

	interval := getEnv("SYNC_INTERVAL", defaultString(file.SyncInterval, "1m"))
	d, err := time.ParseDuration(interval)
	if err != nil {
		return nil, fmt.Errorf("invalid sync_interval %q: %w", interval, err)
	}
	cfg.SyncInterval = d

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

// Validate 校验配置的完整性
func (c *Config) Validate() error {
	if !c.DryRun && (c.Venue.APIKey == "" || c.Venue.APISecret == "") {
		return fmt.Errorf("venue api_key/api_secret are required unless dry_run is enabled")
	}
	if c.TradingMode != "exchange" && c.TradingMode != "margin" {
		return fmt.Errorf("trading_mode must be exchange or margin, got %q", c.TradingMode)
	}
	if c.Risk.MaxLossPerPosition <= 0 || c.Risk.MaxLossPerPosition >= 1 {
		return fmt.Errorf("max_loss_per_position must be in (0, 1), got %v", c.Risk.MaxLossPerPosition)
	}
	if c.Risk.ExchangeInvestmentRate <= 0 || c.Risk.ExchangeInvestmentRate > 1 {
		return fmt.Errorf("exchange_investment_rate must be in (0, 1], got %v", c.Risk.ExchangeInvestmentRate)
	}
	if c.Risk.MarginInvestmentRate <= 0 {
		return fmt.Errorf("margin_investment_rate must be positive, got %v", c.Risk.MarginInvestmentRate)
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync_interval must be positive")
	}
	return nil
}

// Get 获取全局配置（必须先 Load）
func Get() *Config {
	return globalConfig
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func defaultString(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func defaultFloat(v, fallback float64) float64 {
	if v != 0 {
		return v
	}
	return fallback
}
