package order

import (
	"fmt"
	"sort"
)

// Order 是发往撮合环境的限价单；Quantity 为正表示买，为负表示卖。
type Order struct {
	Symbol   string `json:"symbol"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
}

// Side 返回 BUY/SELL；数量为 0 时返回 NONE。
func (o Order) Side() string {
	switch {
	case o.Quantity > 0:
		return "BUY"
	case o.Quantity < 0:
		return "SELL"
	default:
		return "NONE"
	}
}

func (o Order) String() string {
	return fmt.Sprintf("(%s, %d, %d)", o.Symbol, o.Price, o.Quantity)
}

// Flatten 按产品名排序展开订单，组内保持原顺序。
func Flatten(orders map[string][]Order) []Order {
	products := make([]string, 0, len(orders))
	for p := range orders {
		products = append(products, p)
	}
	sort.Strings(products)
	var res []Order
	for _, p := range products {
		res = append(res, orders[p]...)
	}
	return res
}
