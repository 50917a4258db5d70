package market

// Trade represents one executed trade as reported by the exchange.
type Trade struct {
	Symbol    string `json:"symbol"`
	Price     int    `json:"price"`
	Quantity  int    `json:"quantity"`
	Buyer     string `json:"buyer"`
	Seller    string `json:"seller"`
	Timestamp int64  `json:"timestamp"`
}
