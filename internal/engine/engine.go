// Package engine 是每个 tick 的决策入口：解码持久化状态，逐产品报价并更新窗口，
// 编码新状态，输出一条诊断记录。
package engine

import (
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"shadow-mm/infrastructure/logger"
	"shadow-mm/inventory"
	"shadow-mm/logs"
	"shadow-mm/market"
	"shadow-mm/monitor"
	"shadow-mm/order"
	"shadow-mm/state"
	"shadow-mm/strategy"
)

// Recorder 接收引擎指标，monitor.Monitor 实现了该接口。
type Recorder interface {
	RecordTick()
	RecordStateReset()
	RecordRecordLength(chars int)
	RecordOrder(product, side string)
	RecordSkip(reason string)
	RecordCrossedQuote(product string)
	RecordAnomalousTrades(product string, n int)
	UpdateProduct(product string, fair, mid float64, position int)
}

// Config 引擎配置
type Config struct {
	Params strategy.Params
	SelfID string // 自身成交的对手方 ID
}

// Components 引擎依赖组件
type Components struct {
	Strategy    strategy.Strategy
	Diagnostics *logs.Logger
	Logger      *logger.Logger
	Recorder    Recorder
}

// Result 是单个 tick 交还撮合环境的内容。
type Result struct {
	Orders      map[string][]order.Order `json:"orders"`
	Conversions int                      `json:"conversions"`
	TraderData  string                   `json:"traderData"`
}

// Engine 每个 tick 调用一次 Run。mu 只用于串行化 Run 与 Reconfigure。
type Engine struct {
	mu sync.Mutex

	config   Config
	strategy strategy.Strategy
	diag     *logs.Logger
	logger   *logger.Logger
	recorder Recorder

	// Record 为最近一次输出的诊断记录
	record string
}

// New 创建引擎
func New(cfg Config, components Components) (*Engine, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if components.Strategy == nil {
		return nil, errors.New("strategy is required")
	}
	if cfg.SelfID == "" {
		cfg.SelfID = inventory.DefaultSelfID
	}
	if components.Diagnostics == nil {
		components.Diagnostics = logs.New(nil, logs.DefaultMaxLength)
	}
	if components.Logger == nil {
		components.Logger = logger.NewNop()
	}
	if components.Recorder == nil {
		components.Recorder = nopRecorder{}
	}
	return &Engine{
		config:   cfg,
		strategy: components.Strategy,
		diag:     components.Diagnostics,
		logger:   components.Logger,
		recorder: components.Recorder,
	}, nil
}

func validateConfig(cfg Config) error {
	if cfg.Params.MaxPosition <= 0 {
		return errors.New("max position must be > 0")
	}
	if cfg.Params.WindowSize <= 0 {
		return errors.New("window size must be > 0")
	}
	if len(cfg.Params.Products) == 0 {
		return errors.New("no products configured")
	}
	return nil
}

// Reconfigure 在两个 tick 之间替换参数与策略。
func (e *Engine) Reconfigure(cfg Config, strat strategy.Strategy) error {
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if strat == nil {
		return errors.New("strategy is required")
	}
	if cfg.SelfID == "" {
		cfg.SelfID = inventory.DefaultSelfID
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.config = cfg
	e.strategy = strat
	e.logger.Info("engine reconfigured",
		zap.String("strategy", strat.Name()),
		zap.Int("max_position", cfg.Params.MaxPosition),
		zap.Int("window_size", cfg.Params.WindowSize),
		zap.Int("products", len(cfg.Params.Products)))
	return nil
}

// StrategyName 返回当前策略名
func (e *Engine) StrategyName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.strategy.Name()
}

// LastRecord 返回最近一次诊断记录
func (e *Engine) LastRecord() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.record
}

// Run 处理一个 tick。
// 只有持久化状态编码失败才返回错误；诊断写出失败仅记录日志。
func (e *Engine) Run(snap *market.Snapshot) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if snap == nil {
		snap = &market.Snapshot{}
	}
	params := e.config.Params
	e.recorder.RecordTick()

	// 1. 解码持久化状态
	st, err := state.Decode(snap.TraderData, params.WindowSize, params.Seeds())
	if err != nil {
		e.logger.Warn("persisted state reset",
			zap.Int64("timestamp", snap.Timestamp),
			zap.Error(err))
		e.diag.Print("STATE RESET", err)
		e.recorder.RecordStateReset()
	}
	estimator := strategy.NewEstimator(st)

	// 2. 逐产品报价
	orders := make(map[string][]order.Order)
	for _, product := range snap.Products() {
		quote, ok := e.quoteProduct(snap, product, estimator)
		if !ok {
			continue
		}
		orders[product] = quote.Orders()
	}

	// 3. 编码状态并输出诊断记录
	traderData, err := st.Encode()
	if err != nil {
		e.logger.LogError(err, map[string]interface{}{"timestamp": snap.Timestamp})
		return Result{}, err
	}
	res := Result{Orders: orders, Conversions: 0, TraderData: traderData}

	record, err := e.diag.Flush(snap, orders, res.Conversions, traderData)
	if err != nil {
		e.logger.LogError(err, map[string]interface{}{
			"timestamp": snap.Timestamp,
			"stage":     "diagnostics",
		})
	}
	e.record = record
	recordLen := utf8.RuneCountInString(record)
	e.recorder.RecordRecordLength(recordLen)
	e.logger.LogTick(snap.Timestamp, len(orders), len(order.Flatten(orders)), recordLen)

	return res, nil
}

// quoteProduct 对单个产品完成 仓位 -> 成交分类 -> 公允价 -> 报价 -> 窗口更新。
func (e *Engine) quoteProduct(snap *market.Snapshot, product string, estimator *strategy.Estimator) (strategy.Quote, bool) {
	if _, ok := e.config.Params.Products[product]; !ok {
		e.skip(product, monitor.SkipUnconfigured, strategy.ErrUnknownProduct)
		return strategy.Quote{}, false
	}
	depth := snap.OrderDepths[product]
	if _, _, ok := depth.Best(); !ok {
		e.skip(product, monitor.SkipEmptyBook, strategy.ErrEmptyBook)
		return strategy.Quote{}, false
	}

	position := inventory.PositionOf(snap.Position, product)
	fills := inventory.ClassifyFills(product, snap.OwnTrades, e.config.SelfID)
	for _, tr := range fills.Anomalous {
		e.diag.Print("ANOMALOUS TRADE", product, tr.Price, tr.Quantity, tr.Buyer, tr.Seller)
	}
	if n := len(fills.Anomalous); n > 0 {
		e.recorder.RecordAnomalousTrades(product, n)
	}

	// 公允价取本 tick 中间价写入之前的窗口均值
	fair, _ := estimator.Average(product)
	quote, err := e.strategy.Quote(strategy.Input{
		Product:   product,
		Depth:     depth,
		Position:  position,
		FairValue: fair,
	})
	if errors.Is(err, strategy.ErrNotQuoted) {
		e.skip(product, monitor.SkipNotQuoted, err)
		return strategy.Quote{}, false
	}
	if err != nil {
		e.logger.LogError(err, map[string]interface{}{"product": product})
		e.diag.Print("SKIP", product, err)
		return strategy.Quote{}, false
	}

	e.diag.Print(product, "MID", fair)
	e.diag.Printf("BUY %dx %d", quote.Bid.Quantity, quote.Bid.Price)
	e.diag.Printf("SELL %dx %d", quote.Ask.Quantity, quote.Ask.Price)
	if quote.Crossed() || quote.Locked() {
		e.diag.Print("INVERTED QUOTE", product, quote.Bid.Price, quote.Ask.Price)
		e.recorder.RecordCrossedQuote(product)
	}

	estimator.Update(product, quote.Mid)

	e.recorder.UpdateProduct(product, fair, quote.Mid, position)
	e.recorder.RecordOrder(product, quote.Bid.Side())
	e.recorder.RecordOrder(product, quote.Ask.Side())
	e.logger.LogQuote(product, map[string]interface{}{
		"fair":     fair,
		"mid":      quote.Mid,
		"position": position,
		"net_fill": fills.Net(),
		"bid":      quote.Bid.Price,
		"bid_qty":  quote.Bid.Quantity,
		"ask":      quote.Ask.Price,
		"ask_qty":  quote.Ask.Quantity,
	})
	return quote, true
}

func (e *Engine) skip(product, reason string, err error) {
	e.diag.Print("SKIP", product, reason)
	e.recorder.RecordSkip(reason)
	e.logger.Debug("quote skipped",
		zap.String("product", product),
		zap.String("reason", reason),
		zap.Error(err))
}

type nopRecorder struct{}

func (nopRecorder) RecordTick() {}
func (nopRecorder) RecordStateReset() {}
func (nopRecorder) RecordRecordLength(int) {}
func (nopRecorder) RecordOrder(string, string) {}
func (nopRecorder) RecordSkip(string) {}
func (nopRecorder) RecordCrossedQuote(string) {}
func (nopRecorder) RecordAnomalousTrades(string, int) {}
func (nopRecorder) UpdateProduct(string, float64, float64, int) {}
