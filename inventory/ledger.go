package inventory

import "github.com/shopspring/decimal"

// Ledger 维护单个产品的净仓位、现金与加权平均成本（用于回放模拟）。
type Ledger struct {
	net   int
	cash  decimal.Decimal
	cost  decimal.Decimal
	fills int
}

// Update 根据成交数量调整仓位；qty 为正买入，为负卖出。
func (l *Ledger) Update(qty int, price int) {
	if qty == 0 {
		return
	}
	p := decimal.NewFromInt(int64(price))
	q := decimal.NewFromInt(int64(qty))
	l.cash = l.cash.Sub(p.Mul(q))
	l.fills++

	prev := l.net
	l.net += qty
	switch {
	case l.net == 0:
		l.cost = decimal.Zero
	case prev == 0 || (prev > 0) != (l.net > 0):
		// 开仓或反手：成本重置为成交价
		l.cost = p
	case (prev > 0) == (qty > 0):
		// 加仓：加权平均
		total := l.cost.Mul(decimal.NewFromInt(int64(prev))).Add(p.Mul(q))
		l.cost = total.Div(decimal.NewFromInt(int64(l.net)))
	}
}

func (l *Ledger) NetExposure() int { return l.net }

func (l *Ledger) Cash() decimal.Decimal { return l.cash }

func (l *Ledger) AvgCost() decimal.Decimal { return l.cost }

func (l *Ledger) Fills() int { return l.fills }

// Valuation 以 mid 盯市：返回 现金 + 仓位*mid。
func (l *Ledger) Valuation(mid float64) decimal.Decimal {
	return l.cash.Add(decimal.NewFromFloat(mid).Mul(decimal.NewFromInt(int64(l.net))))
}
