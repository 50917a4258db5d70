// Package sim 离线回放快照序列：串接 traderData，用同一快照的盘口和市场成交模拟撮合，
// 生成的自身成交在下一个 tick 作为 own_trades 回传，仓位与现金由 inventory.Ledger 记账。
package sim

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"shadow-mm/internal/engine"
	"shadow-mm/inventory"
	"shadow-mm/market"
	"shadow-mm/order"
)

// MarketID 是模拟成交中对手方的名称。
const MarketID = "MARKET"

// TickRunner 是回放所需的引擎能力。
type TickRunner interface {
	Run(snap *market.Snapshot) (engine.Result, error)
}

// Config 回放配置
type Config struct {
	MaxPosition int    // 仓位上限，超限时该产品本 tick 所有订单被拒
	SelfID      string // 自身成交标记
}

// Runner 将 快照 -> 引擎 -> 撮合 -> 记账 串起来。
type Runner struct {
	engine TickRunner
	cfg    Config

	ledgers    map[string]*inventory.Ledger
	lastMid    map[string]float64
	pending    map[string][]market.Trade
	traderData string

	ticks    int
	rejected int
}

// NewRunner 创建回放器
func NewRunner(eng TickRunner, cfg Config) (*Runner, error) {
	if eng == nil {
		return nil, errors.New("engine is required")
	}
	if cfg.MaxPosition <= 0 {
		return nil, errors.New("max position must be > 0")
	}
	if cfg.SelfID == "" {
		cfg.SelfID = inventory.DefaultSelfID
	}
	return &Runner{
		engine:  eng,
		cfg:     cfg,
		ledgers: make(map[string]*inventory.Ledger),
		lastMid: make(map[string]float64),
		pending: make(map[string][]market.Trade),
	}, nil
}

// Step 回放一个快照，返回引擎输出与本 tick 的模拟成交。
// 输入快照的 traderData、position、own_trades 会被回放状态覆盖。
func (r *Runner) Step(snap market.Snapshot) (engine.Result, []market.Trade, error) {
	snap.TraderData = r.traderData
	snap.Position = r.positions()
	snap.OwnTrades = r.pending

	res, err := r.engine.Run(&snap)
	if err != nil {
		return engine.Result{}, nil, fmt.Errorf("tick %d: %w", snap.Timestamp, err)
	}
	r.traderData = res.TraderData
	r.ticks++

	for _, product := range snap.Products() {
		if mid, ok := snap.OrderDepths[product].Mid(); ok {
			r.lastMid[product] = mid
		}
	}

	products := make([]string, 0, len(res.Orders))
	for p := range res.Orders {
		products = append(products, p)
	}
	sort.Strings(products)

	pending := make(map[string][]market.Trade)
	var fills []market.Trade
	for _, product := range products {
		trades, ok := r.match(product, res.Orders[product], &snap)
		if !ok {
			r.rejected++
			continue
		}
		if len(trades) == 0 {
			continue
		}
		ledger := r.ledger(product)
		for _, tr := range trades {
			qty := tr.Quantity
			if tr.Seller == r.cfg.SelfID {
				qty = -qty
			}
			ledger.Update(qty, tr.Price)
		}
		pending[product] = trades
		fills = append(fills, trades...)
	}
	r.pending = pending
	return res, fills, nil
}

// Run 依次回放全部快照并返回报告
func (r *Runner) Run(snaps []market.Snapshot) (Report, error) {
	for _, snap := range snaps {
		if _, _, err := r.Step(snap); err != nil {
			return r.Report(), err
		}
	}
	return r.Report(), nil
}

// TraderData 返回最近一次引擎输出的持久化状态
func (r *Runner) TraderData() string { return r.traderData }

// Position 返回产品当前仓位
func (r *Runner) Position(product string) int {
	if l, ok := r.ledgers[product]; ok {
		return l.NetExposure()
	}
	return 0
}

func (r *Runner) positions() map[string]int {
	res := make(map[string]int, len(r.ledgers))
	for p, l := range r.ledgers {
		res[p] = l.NetExposure()
	}
	return res
}

func (r *Runner) ledger(product string) *inventory.Ledger {
	l, ok := r.ledgers[product]
	if !ok {
		l = &inventory.Ledger{}
		r.ledgers[product] = l
	}
	return l
}

// match 模拟单个产品的撮合：先吃穿价的盘口档位，再与价格穿过报价的市场成交撮合。
// 若全部买单或全部卖单成交后会超出仓位上限，该产品订单全部被拒，返回 false。
func (r *Runner) match(product string, orders []order.Order, snap *market.Snapshot) ([]market.Trade, bool) {
	position := r.Position(product)
	buyTotal, sellTotal := 0, 0
	for _, o := range orders {
		if o.Quantity > 0 {
			buyTotal += o.Quantity
		} else {
			sellTotal += o.Quantity
		}
	}
	if position+buyTotal > r.cfg.MaxPosition || position+sellTotal < -r.cfg.MaxPosition {
		return nil, false
	}

	var buys, sells map[int]int
	if depth := snap.OrderDepths[product]; depth != nil {
		buys = copyLevels(depth.BuyOrders)
		sells = copyLevels(depth.SellOrders)
	}
	marketLeft := make([]int, len(snap.MarketTrades[product]))
	for i, tr := range snap.MarketTrades[product] {
		marketLeft[i] = tr.Quantity
	}

	var trades []market.Trade
	fill := func(price, qty int, buy bool) {
		tr := market.Trade{Symbol: product, Price: price, Quantity: qty, Timestamp: snap.Timestamp}
		if buy {
			tr.Buyer, tr.Seller = r.cfg.SelfID, MarketID
		} else {
			tr.Buyer, tr.Seller = MarketID, r.cfg.SelfID
		}
		trades = append(trades, tr)
	}

	for _, o := range orders {
		switch {
		case o.Quantity > 0:
			remaining := o.Quantity
			for _, price := range sortedPrices(sells, false) {
				if remaining == 0 || price > o.Price {
					break
				}
				qty := min(remaining, -sells[price])
				if qty <= 0 {
					continue
				}
				sells[price] += qty
				remaining -= qty
				fill(price, qty, true)
			}
			for i, tr := range snap.MarketTrades[product] {
				if remaining == 0 {
					break
				}
				if tr.Price > o.Price || marketLeft[i] <= 0 {
					continue
				}
				qty := min(remaining, marketLeft[i])
				marketLeft[i] -= qty
				remaining -= qty
				fill(o.Price, qty, true)
			}
		case o.Quantity < 0:
			remaining := -o.Quantity
			for _, price := range sortedPrices(buys, true) {
				if remaining == 0 || price < o.Price {
					break
				}
				qty := min(remaining, buys[price])
				if qty <= 0 {
					continue
				}
				buys[price] -= qty
				remaining -= qty
				fill(price, qty, false)
			}
			for i, tr := range snap.MarketTrades[product] {
				if remaining == 0 {
					break
				}
				if tr.Price < o.Price || marketLeft[i] <= 0 {
					continue
				}
				qty := min(remaining, marketLeft[i])
				marketLeft[i] -= qty
				remaining -= qty
				fill(o.Price, qty, false)
			}
		}
	}
	return trades, true
}

func copyLevels(levels map[int]int) map[int]int {
	res := make(map[int]int, len(levels))
	for p, v := range levels {
		res[p] = v
	}
	return res
}

func sortedPrices(levels map[int]int, desc bool) []int {
	prices := make([]int, 0, len(levels))
	for p := range levels {
		prices = append(prices, p)
	}
	if desc {
		sort.Sort(sort.Reverse(sort.IntSlice(prices)))
	} else {
		sort.Ints(prices)
	}
	return prices
}

// ProductReport 单个产品的回放结果
type ProductReport struct {
	Product  string          `json:"product"`
	Fills    int             `json:"fills"`
	Position int             `json:"position"`
	Cash     decimal.Decimal `json:"cash"`
	AvgCost  decimal.Decimal `json:"avgCost"`
	LastMid  float64         `json:"lastMid"`
	PnL      decimal.Decimal `json:"pnl"` // 现金 + 仓位按最后 mid 盯市
}

// Report 回放汇总
type Report struct {
	Ticks    int             `json:"ticks"`
	Rejected int             `json:"rejected"`
	Products []ProductReport `json:"products"`
	TotalPnL decimal.Decimal `json:"totalPnl"`
}

// Report 生成当前回放报告，产品按名称排序
func (r *Runner) Report() Report {
	rep := Report{Ticks: r.ticks, Rejected: r.rejected, TotalPnL: decimal.Zero}
	products := make([]string, 0, len(r.ledgers))
	for p := range r.ledgers {
		products = append(products, p)
	}
	sort.Strings(products)
	for _, p := range products {
		l := r.ledgers[p]
		pnl := l.Valuation(r.lastMid[p])
		rep.Products = append(rep.Products, ProductReport{
			Product:  p,
			Fills:    l.Fills(),
			Position: l.NetExposure(),
			Cash:     l.Cash(),
			AvgCost:  l.AvgCost(),
			LastMid:  r.lastMid[p],
			PnL:      pnl,
		})
		rep.TotalPnL = rep.TotalPnL.Add(pnl)
	}
	return rep
}
