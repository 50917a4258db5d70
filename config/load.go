package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"shadow-mm/infrastructure/logger"
	"shadow-mm/inventory"
	"shadow-mm/logs"
	"shadow-mm/strategy"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env         string                   `yaml:"env"`
	Strategy    string                   `yaml:"strategy"`
	MaxPosition int                      `yaml:"maxPosition"`
	WindowSize  int                      `yaml:"windowSize"`
	SelfID      string                   `yaml:"selfId"`
	Products    map[string]ProductConfig `yaml:"products"`
	Diagnostics DiagnosticsConfig        `yaml:"diagnostics"`
	Logging     logger.Config            `yaml:"logging"`
	Server      ServerConfig             `yaml:"server"`
	Metrics     MetricsConfig            `yaml:"metrics"`
}

// ProductConfig 单个产品的种子与混合系数。
type ProductConfig struct {
	Seed  float64 `yaml:"seed"`
	Blend float64 `yaml:"blend"`
}

type DiagnosticsConfig struct {
	MaxLength  int    `yaml:"maxLength"`  // 单条诊断记录字符上限
	Output     string `yaml:"output"`     // stdout, stderr, discard 或文件路径
	MaxSize    int    `yaml:"maxSize"`    // 文件输出时单文件 MB
	MaxBackups int    `yaml:"maxBackups"` // 文件输出时保留份数
	MaxAge     int    `yaml:"maxAge"`     // 文件输出时保留天数
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// Default 返回内置配置。
func Default() AppConfig {
	params := strategy.DefaultParams()
	products := make(map[string]ProductConfig, len(params.Products))
	for name, pp := range params.Products {
		products[name] = ProductConfig{Seed: pp.Seed, Blend: pp.Blend}
	}
	return AppConfig{
		Env:         "dev",
		Strategy:    string(strategy.KindMovingAverage),
		MaxPosition: params.MaxPosition,
		WindowSize:  params.WindowSize,
		SelfID:      inventory.DefaultSelfID,
		Products:    products,
		Diagnostics: DiagnosticsConfig{
			MaxLength:  logs.DefaultMaxLength,
			Output:     "stdout",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
		},
		Logging: logger.DefaultConfig(),
		Server:  ServerConfig{Addr: ":8090"},
		Metrics: MetricsConfig{Namespace: "shadow"},
	}
}

// Load reads YAML config from path on top of the defaults and applies validation.
// 空路径直接返回默认配置。文件中给出 products 时整体替换默认产品表。
func Load(path string) (AppConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, Validate(cfg)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	defaults := cfg.Products
	cfg.Products = nil
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if len(cfg.Products) == 0 {
		cfg.Products = defaults
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("SHADOW_STRATEGY"); v != "" {
		cfg.Strategy = v
	}
	if v := os.Getenv("SHADOW_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SHADOW_LISTEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SHADOW_DIAGNOSTICS_OUTPUT"); v != "" {
		cfg.Diagnostics.Output = v
	}
	return cfg, Validate(cfg)
}

// Validate ensures required fields are present.
func Validate(cfg AppConfig) error {
	switch strategy.Kind(cfg.Strategy) {
	case strategy.KindMovingAverage, strategy.KindThreshold:
	default:
		return fmt.Errorf("unknown strategy %q", cfg.Strategy)
	}
	if cfg.MaxPosition <= 0 {
		return errors.New("maxPosition must be > 0")
	}
	if cfg.WindowSize <= 0 {
		return errors.New("windowSize must be > 0")
	}
	if cfg.SelfID == "" {
		return errors.New("selfId is required")
	}
	if len(cfg.Products) == 0 {
		return errors.New("products config is required")
	}
	for name, pc := range cfg.Products {
		if pc.Blend < 0 || pc.Blend > 1 {
			return fmt.Errorf("product %s blend must be within [0,1]", name)
		}
		if pc.Seed <= 0 {
			return fmt.Errorf("product %s seed must be > 0", name)
		}
	}
	if cfg.Diagnostics.MaxLength <= 0 {
		return errors.New("diagnostics.maxLength must be > 0")
	}
	return nil
}

// StrategyParams 转换为策略层参数。
func (c AppConfig) StrategyParams() strategy.Params {
	products := make(map[string]strategy.ProductParams, len(c.Products))
	for name, pc := range c.Products {
		products[name] = strategy.ProductParams{Seed: pc.Seed, Blend: pc.Blend}
	}
	return strategy.Params{
		MaxPosition: c.MaxPosition,
		WindowSize:  c.WindowSize,
		Products:    products,
	}
}

// Sink 返回诊断输出配置。
func (c AppConfig) Sink() logs.SinkConfig {
	return logs.SinkConfig{
		Output:     c.Diagnostics.Output,
		MaxSize:    c.Diagnostics.MaxSize,
		MaxBackups: c.Diagnostics.MaxBackups,
		MaxAge:     c.Diagnostics.MaxAge,
	}
}
