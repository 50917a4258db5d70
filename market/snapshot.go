package market

import "sort"

// Listing 描述一个可交易标的。
type Listing struct {
	Symbol       string `json:"symbol"`
	Product      string `json:"product"`
	Denomination string `json:"denomination"`
}

// ConversionObservation 是跨市场转换相关的外部观测值，策略不读取。
type ConversionObservation struct {
	BidPrice      float64 `json:"bidPrice"`
	AskPrice      float64 `json:"askPrice"`
	TransportFees float64 `json:"transportFees"`
	ExportTariff  float64 `json:"exportTariff"`
	ImportTariff  float64 `json:"importTariff"`
	SugarPrice    float64 `json:"sugarPrice"`
	SunlightIndex float64 `json:"sunlightIndex"`
}

type Observation struct {
	PlainValueObservations map[string]float64               `json:"plainValueObservations"`
	ConversionObservations map[string]ConversionObservation `json:"conversionObservations"`
}

// Snapshot 是单个 tick 的全部输入，由撮合环境构造，只读。
type Snapshot struct {
	Timestamp    int64                  `json:"timestamp"`
	TraderData   string                 `json:"traderData"`
	Listings     map[string]Listing     `json:"listings"`
	OrderDepths  map[string]*OrderDepth `json:"order_depths"`
	OwnTrades    map[string][]Trade     `json:"own_trades"`
	MarketTrades map[string][]Trade     `json:"market_trades"`
	Position     map[string]int         `json:"position"`
	Observations Observation            `json:"observations"`
}

// Products 返回有深度数据的产品，按名称排序。
func (s *Snapshot) Products() []string {
	products := make([]string, 0, len(s.OrderDepths))
	for p := range s.OrderDepths {
		products = append(products, p)
	}
	sort.Strings(products)
	return products
}
