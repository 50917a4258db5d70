package logs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"shadow-mm/market"
	"shadow-mm/order"
)

// 以下函数把领域对象压缩成诊断记录约定的元组格式，与决策逻辑无关。
// map 按 key 排序遍历，保证同一输入得到同一记录。

// CompressState -> [timestamp, traderData, listings, order_depths, own_trades, market_trades, position, observations]
func CompressState(snap *market.Snapshot, traderData string) []any {
	position := snap.Position
	if position == nil {
		position = map[string]int{}
	}
	return []any{
		snap.Timestamp,
		traderData,
		CompressListings(snap.Listings),
		CompressOrderDepths(snap.OrderDepths),
		CompressTrades(snap.OwnTrades),
		CompressTrades(snap.MarketTrades),
		position,
		CompressObservations(snap.Observations),
	}
}

// CompressListings -> [[symbol, product, denomination], ...]
func CompressListings(listings map[string]market.Listing) [][]any {
	res := make([][]any, 0, len(listings))
	for _, k := range sortedKeys(listings) {
		l := listings[k]
		res = append(res, []any{l.Symbol, l.Product, l.Denomination})
	}
	return res
}

// CompressOrderDepths -> {symbol: [buy_orders, sell_orders]}
func CompressOrderDepths(depths map[string]*market.OrderDepth) map[string][]any {
	res := make(map[string][]any, len(depths))
	for symbol, d := range depths {
		buy, sell := map[int]int{}, map[int]int{}
		if d != nil {
			if d.BuyOrders != nil {
				buy = d.BuyOrders
			}
			if d.SellOrders != nil {
				sell = d.SellOrders
			}
		}
		res[symbol] = []any{buy, sell}
	}
	return res
}

// CompressTrades -> [[symbol, price, quantity, buyer, seller, timestamp], ...]
func CompressTrades(trades map[string][]market.Trade) [][]any {
	res := make([][]any, 0)
	for _, k := range sortedKeys(trades) {
		for _, tr := range trades[k] {
			res = append(res, []any{tr.Symbol, tr.Price, tr.Quantity, tr.Buyer, tr.Seller, tr.Timestamp})
		}
	}
	return res
}

// CompressObservations -> [plainValueObservations, {product: [bid, ask, transport, export, import, sugar, sunlight]}]
func CompressObservations(obs market.Observation) []any {
	plain := obs.PlainValueObservations
	if plain == nil {
		plain = map[string]float64{}
	}
	conv := make(map[string][]float64, len(obs.ConversionObservations))
	for product, o := range obs.ConversionObservations {
		conv[product] = []float64{
			o.BidPrice,
			o.AskPrice,
			o.TransportFees,
			o.ExportTariff,
			o.ImportTariff,
			o.SugarPrice,
			o.SunlightIndex,
		}
	}
	return []any{plain, conv}
}

// CompressOrders -> [[symbol, price, quantity], ...]
func CompressOrders(orders map[string][]order.Order) [][]any {
	res := make([][]any, 0)
	for _, o := range order.Flatten(orders) {
		res = append(res, []any{o.Symbol, o.Price, o.Quantity})
	}
	return res
}

// toJSON 使用紧凑分隔符且不转义 HTML 字符。
func toJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode diagnostic record: %w", err)
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
