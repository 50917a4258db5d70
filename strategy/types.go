package strategy

import (
	"errors"

	"shadow-mm/market"
	"shadow-mm/order"
)

var (
	ErrEmptyBook       = errors.New("order book side empty")
	ErrUnknownProduct  = errors.New("product not configured")
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrNotQuoted       = errors.New("product not quoted by strategy")
)

// ProductParams 是单个产品的编译期常量：窗口种子与混合系数。
type ProductParams struct {
	Seed  float64 // 窗口初始值，同时作为 threshold 策略的公允价
	Blend float64 // 报价向最优价倾斜的比例，[0,1]
}

// Params 控制仓位上限、窗口长度与产品注册表。
type Params struct {
	MaxPosition int
	WindowSize  int
	Products    map[string]ProductParams
}

// DefaultParams 返回内置配置。
func DefaultParams() Params {
	return Params{
		MaxPosition: 50,
		WindowSize:  100,
		Products: map[string]ProductParams{
			"KELP":             {Seed: 2025, Blend: 0.75},
			"RAINFOREST_RESIN": {Seed: 10000, Blend: 0.75},
		},
	}
}

// Seeds 返回 product -> seed，用于初始化持久化窗口。
func (p Params) Seeds() map[string]float64 {
	res := make(map[string]float64, len(p.Products))
	for name, pp := range p.Products {
		res[name] = pp.Seed
	}
	return res
}

// Input 是单个产品单个 tick 的报价输入。
type Input struct {
	Product   string
	Depth     *market.OrderDepth
	Position  int
	FairValue float64 // 窗口均值（本 tick 中间价尚未写入）
}

// Quote represents a bid/ask decision for one product.
type Quote struct {
	Product   string
	BestBid   int
	BestAsk   int
	Mid       float64
	FairValue float64
	Bid       order.Order
	Ask       order.Order
}

// Orders 返回 [bid, ask]，不做任何过滤。
func (q Quote) Orders() []order.Order {
	return []order.Order{q.Bid, q.Ask}
}

// Crossed 表示买价高于卖价。
func (q Quote) Crossed() bool { return q.Bid.Price > q.Ask.Price }

// Locked 表示买卖同价。
func (q Quote) Locked() bool { return q.Bid.Price == q.Ask.Price }

// Strategy 根据单产品输入生成一组双边报价。
type Strategy interface {
	Name() string
	Quote(in Input) (Quote, error)
}
