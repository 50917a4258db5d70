package inventory

import "shadow-mm/market"

// DefaultSelfID 是撮合环境标记自身成交的对手方 ID。
const DefaultSelfID = "SUBMISSION"

// Fills 汇总本 tick 自身成交。
type Fills struct {
	Bought    int
	Sold      int
	Anomalous []market.Trade // 买卖双方都不是自己
}

// Net 返回本 tick 成交带来的净仓位变化。
func (f Fills) Net() int { return f.Bought - f.Sold }

// ClassifyFills 按对手方划分自身成交。异常成交只收集，不报错。
func ClassifyFills(product string, ownTrades map[string][]market.Trade, selfID string) Fills {
	var f Fills
	for _, tr := range ownTrades[product] {
		switch {
		case tr.Buyer == selfID:
			f.Bought += tr.Quantity
		case tr.Seller == selfID:
			f.Sold += tr.Quantity
		default:
			f.Anomalous = append(f.Anomalous, tr)
		}
	}
	return f
}

// PositionOf 返回产品仓位，缺失视为 0。
func PositionOf(positions map[string]int, product string) int {
	return positions[product]
}
