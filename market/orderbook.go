package market

// OrderDepth 是单个产品的挂单深度：价格 -> 数量。
// 交易所约定卖方数量为负，策略只读取价格。
type OrderDepth struct {
	BuyOrders  map[int]int `json:"buy_orders"`
	SellOrders map[int]int `json:"sell_orders"`
}

// Best 返回最好买/卖价；任一侧为空时 ok=false。
func (d *OrderDepth) Best() (bestBid int, bestAsk int, ok bool) {
	if d == nil || len(d.BuyOrders) == 0 || len(d.SellOrders) == 0 {
		return 0, 0, false
	}
	first := true
	for p := range d.BuyOrders {
		if first || p > bestBid {
			bestBid = p
			first = false
		}
	}
	first = true
	for p := range d.SellOrders {
		if first || p < bestAsk {
			bestAsk = p
			first = false
		}
	}
	return bestBid, bestAsk, true
}

// Mid 返回中间价；若缺失任一侧 ok=false。
func (d *OrderDepth) Mid() (float64, bool) {
	bid, ask, ok := d.Best()
	if !ok {
		return 0, false
	}
	return float64(bid+ask) / 2, true
}
