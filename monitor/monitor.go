package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 跳过报价的原因标签
const (
	SkipUnconfigured = "unconfigured"
	SkipEmptyBook    = "empty_book"
	SkipNotQuoted    = "not_quoted" // 策略不交易该产品
)

// Monitor Prometheus监控指标收集器
type Monitor struct {
	registry *prometheus.Registry

	// tick 指标
	ticks       prometheus.Counter
	stateResets prometheus.Counter
	recordChars prometheus.Histogram

	// 报价指标
	orders         *prometheus.CounterVec
	quotesSkipped  *prometheus.CounterVec
	crossedQuotes  *prometheus.CounterVec
	anomalousFills *prometheus.CounterVec

	// 产品指标
	fairValue *prometheus.GaugeVec
	midPrice  *prometheus.GaugeVec
	position  *prometheus.GaugeVec
}

// Config 监控配置
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "shadow",
		Subsystem: "engine",
	}
}

// New 创建新的Monitor实例，使用独立 registry，可多次创建互不冲突
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Monitor{
		registry: reg,

		ticks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "ticks_total",
			Help:      "处理的 tick 总数",
		}),
		stateResets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "state_resets_total",
			Help:      "持久化状态无法解析而重置的次数",
		}),
		recordChars: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "diagnostic_record_chars",
			Help:      "诊断记录长度分布（字符）",
			Buckets:   []float64{250, 500, 1000, 2000, 3000, 3500, 3750, 5000},
		}),
		orders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "orders_total",
			Help:      "按产品和方向统计的输出订单数",
		}, []string{"product", "side"}),
		quotesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "quotes_skipped_total",
			Help:      "跳过报价的次数",
		}, []string{"reason"}),
		crossedQuotes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "crossed_quotes_total",
			Help:      "买价不低于卖价的报价次数",
		}, []string{"product"}),
		anomalousFills: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "anomalous_trades_total",
			Help:      "买卖双方都不是自己的 own trade 数",
		}, []string{"product"}),
		fairValue: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "fair_value",
			Help:      "窗口均值",
		}, []string{"product"}),
		midPrice: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "mid_price",
			Help:      "当前中间价",
		}, []string{"product"}),
		position: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "position",
			Help:      "当前仓位",
		}, []string{"product"}),
	}
}

func (m *Monitor) RecordTick() {
	m.ticks.Inc()
}

func (m *Monitor) RecordStateReset() {
	m.stateResets.Inc()
}

func (m *Monitor) RecordRecordLength(chars int) {
	m.recordChars.Observe(float64(chars))
}

// RecordOrder side 为 BUY / SELL
func (m *Monitor) RecordOrder(product, side string) {
	m.orders.WithLabelValues(product, side).Inc()
}

func (m *Monitor) RecordSkip(reason string) {
	m.quotesSkipped.WithLabelValues(reason).Inc()
}

func (m *Monitor) RecordCrossedQuote(product string) {
	m.crossedQuotes.WithLabelValues(product).Inc()
}

func (m *Monitor) RecordAnomalousTrades(product string, n int) {
	m.anomalousFills.WithLabelValues(product).Add(float64(n))
}

// UpdateProduct 更新单个产品的行情与仓位
func (m *Monitor) UpdateProduct(product string, fair, mid float64, position int) {
	m.fairValue.WithLabelValues(product).Set(fair)
	m.midPrice.WithLabelValues(product).Set(mid)
	m.position.WithLabelValues(product).Set(float64(position))
}

// Handler 返回HTTP handler用于暴露指标
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
