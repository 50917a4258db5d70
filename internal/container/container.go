package container

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"shadow-mm/config"
	"shadow-mm/infrastructure/logger"
	"shadow-mm/internal/engine"
	"shadow-mm/logs"
	"shadow-mm/monitor"
	"shadow-mm/strategy"
)

// Container 依赖注入容器，按配置组装日志、指标、诊断输出与引擎
type Container struct {
	// 配置，热加载与读取并发时由 mu 保护
	mu  sync.RWMutex
	cfg config.AppConfig

	// 基础设施
	logger  *logger.Logger
	monitor *monitor.Monitor
	sink    io.WriteCloser

	// 核心服务
	diag   *logs.Logger
	engine *engine.Engine
}

// New 加载配置文件（含环境变量覆盖）并构建所有组件
func New(configPath string) (*Container, error) {
	cfg, err := config.LoadWithEnvOverrides(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return NewFromConfig(cfg)
}

// NewFromConfig 使用已加载的配置构建所有组件
func NewFromConfig(cfg config.AppConfig) (*Container, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	c := &Container{cfg: cfg}
	if err := c.buildInfrastructure(); err != nil {
		return nil, fmt.Errorf("build infrastructure failed: %w", err)
	}
	if err := c.buildCoreServices(); err != nil {
		c.Close()
		return nil, fmt.Errorf("build core services failed: %w", err)
	}
	c.logger.Info("container built",
		zap.String("env", cfg.Env),
		zap.String("strategy", cfg.Strategy),
		zap.String("diagnostics", cfg.Diagnostics.Output))
	return c, nil
}

func (c *Container) buildInfrastructure() error {
	var err error
	c.logger, err = logger.New(c.cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger failed: %w", err)
	}

	monitorCfg := monitor.DefaultConfig()
	if c.cfg.Metrics.Namespace != "" {
		monitorCfg.Namespace = c.cfg.Metrics.Namespace
	}
	c.monitor = monitor.New(monitorCfg)

	c.sink = logs.OpenSink(c.cfg.Sink())
	c.diag = logs.New(c.sink, c.cfg.Diagnostics.MaxLength)
	return nil
}

func (c *Container) buildCoreServices() error {
	params := c.cfg.StrategyParams()
	strat, err := strategy.NewFactory(params).Create(c.cfg.Strategy)
	if err != nil {
		return err
	}
	c.engine, err = engine.New(engine.Config{Params: params, SelfID: c.cfg.SelfID}, engine.Components{
		Strategy:    strat,
		Diagnostics: c.diag,
		Logger:      c.logger,
		Recorder:    c.monitor,
	})
	if err != nil {
		return fmt.Errorf("create engine failed: %w", err)
	}
	return nil
}

// Apply 在两个 tick 之间应用新配置。诊断输出、日志与监听地址需要重启才生效。
func (c *Container) Apply(cfg config.AppConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	params := cfg.StrategyParams()
	strat, err := strategy.NewFactory(params).Create(cfg.Strategy)
	if err != nil {
		return err
	}
	if err := c.engine.Reconfigure(engine.Config{Params: params, SelfID: cfg.SelfID}, strat); err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// WatchConfig 监听配置文件变化并热加载，阻塞直到 ctx 取消
func (c *Container) WatchConfig(ctx context.Context, path string) error {
	w := config.Watcher{
		Path: path,
		OnError: func(err error) {
			c.logger.LogError(err, map[string]interface{}{"component": "config_watcher"})
		},
	}
	return w.Start(ctx, func(cfg config.AppConfig) {
		if err := c.Apply(cfg); err != nil {
			c.logger.LogError(err, map[string]interface{}{"component": "config_reload"})
			return
		}
		c.logger.Info("config reloaded", zap.String("path", path), zap.String("strategy", cfg.Strategy))
	})
}

// Config 返回当前生效的配置，可与 Apply 并发调用
func (c *Container) Config() config.AppConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

func (c *Container) Logger() *logger.Logger { return c.logger }

func (c *Container) Monitor() *monitor.Monitor { return c.monitor }

func (c *Container) Engine() *engine.Engine { return c.engine }

// Close 关闭诊断输出并刷新日志
func (c *Container) Close() error {
	var firstErr error
	if c.sink != nil {
		if err := c.sink.Close(); err != nil {
			firstErr = err
		}
	}
	if c.logger != nil {
		// stderr 上 Sync 可能返回 EINVAL，忽略
		_ = c.logger.Close()
	}
	return firstErr
}
