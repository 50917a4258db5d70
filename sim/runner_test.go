package sim

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadow-mm/internal/engine"
	"shadow-mm/market"
	"shadow-mm/order"
	"shadow-mm/strategy"
)

// capture 记录引擎实际收到的快照
type capture struct {
	eng  *engine.Engine
	seen []market.Snapshot
}

func (c *capture) Run(snap *market.Snapshot) (engine.Result, error) {
	c.seen = append(c.seen, *snap)
	return c.eng.Run(snap)
}

func newRunner(t *testing.T) (*Runner, *capture) {
	t.Helper()
	params := strategy.DefaultParams()
	eng, err := engine.New(engine.Config{Params: params}, engine.Components{
		Strategy: strategy.NewMovingAverage(params),
	})
	require.NoError(t, err)
	c := &capture{eng: eng}
	r, err := NewRunner(c, Config{MaxPosition: params.MaxPosition})
	require.NoError(t, err)
	return r, c
}

func resinBook(buy, sell map[int]int) map[string]*market.OrderDepth {
	return map[string]*market.OrderDepth{
		"RAINFOREST_RESIN": {BuyOrders: buy, SellOrders: sell},
	}
}

func TestNewRunnerValidates(t *testing.T) {
	_, err := NewRunner(nil, Config{MaxPosition: 50})
	assert.Error(t, err)
	r, _ := newRunner(t)
	_, err = NewRunner(r.engine, Config{})
	assert.Error(t, err)
}

func TestStepFillsCrossedBook(t *testing.T) {
	r, _ := newRunner(t)
	res, fills, err := r.Step(market.Snapshot{
		Timestamp:   0,
		OrderDepths: resinBook(map[int]int{10004: 5}, map[int]int{9996: -5}),
	})
	require.NoError(t, err)
	// 交叉盘口下报价锁定在 10000
	assert.Equal(t, []order.Order{
		{Symbol: "RAINFOREST_RESIN", Price: 10000, Quantity: 50},
		{Symbol: "RAINFOREST_RESIN", Price: 10000, Quantity: -50},
	}, res.Orders["RAINFOREST_RESIN"])

	require.Len(t, fills, 2)
	assert.Equal(t, market.Trade{Symbol: "RAINFOREST_RESIN", Price: 9996, Quantity: 5, Buyer: "SUBMISSION", Seller: MarketID}, fills[0])
	assert.Equal(t, market.Trade{Symbol: "RAINFOREST_RESIN", Price: 10004, Quantity: 5, Buyer: MarketID, Seller: "SUBMISSION"}, fills[1])

	rep := r.Report()
	require.Len(t, rep.Products, 1)
	p := rep.Products[0]
	assert.Equal(t, 0, p.Position)
	assert.Equal(t, 2, p.Fills)
	assert.True(t, p.Cash.Equal(decimal.NewFromInt(40)))
	assert.True(t, rep.TotalPnL.Equal(decimal.NewFromInt(40)))
}

func TestStepMatchesMarketTradesAndChains(t *testing.T) {
	r, c := newRunner(t)
	book := resinBook(map[int]int{9998: 5}, map[int]int{10002: -5})

	first, fills, err := r.Step(market.Snapshot{
		Timestamp:   0,
		OrderDepths: book,
		MarketTrades: map[string][]market.Trade{
			"RAINFOREST_RESIN": {
				{Symbol: "RAINFOREST_RESIN", Price: 9997, Quantity: 3, Buyer: "A", Seller: "B"},
				{Symbol: "RAINFOREST_RESIN", Price: 10003, Quantity: 2, Buyer: "C", Seller: "D"},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, fills, 2)
	assert.Equal(t, 9998, fills[0].Price)
	assert.Equal(t, 3, fills[0].Quantity)
	assert.Equal(t, 10002, fills[1].Price)
	assert.Equal(t, 2, fills[1].Quantity)
	assert.Equal(t, 1, r.Position("RAINFOREST_RESIN"))
	assert.Equal(t, first.TraderData, r.TraderData())

	second, fills, err := r.Step(market.Snapshot{Timestamp: 100, OrderDepths: book})
	require.NoError(t, err)
	assert.Empty(t, fills)

	// 第二个 tick 看到串接的状态、仓位和上一 tick 的自身成交
	require.Len(t, c.seen, 2)
	assert.Equal(t, first.TraderData, c.seen[1].TraderData)
	assert.Equal(t, 1, c.seen[1].Position["RAINFOREST_RESIN"])
	assert.Len(t, c.seen[1].OwnTrades["RAINFOREST_RESIN"], 2)
	assert.Equal(t, 49, second.Orders["RAINFOREST_RESIN"][0].Quantity)
	assert.Equal(t, -51, second.Orders["RAINFOREST_RESIN"][1].Quantity)

	rep := r.Report()
	assert.Equal(t, 2, rep.Ticks)
	p := rep.Products[0]
	assert.True(t, p.Cash.Equal(decimal.NewFromInt(-9990)))
	assert.Equal(t, 10000.0, p.LastMid)
	assert.True(t, p.PnL.Equal(decimal.NewFromInt(10)))
}

func TestMatchRejectsOverLimit(t *testing.T) {
	r, _ := newRunner(t)
	r.ledger("RAINFOREST_RESIN").Update(-50, 10000)

	snap := &market.Snapshot{OrderDepths: resinBook(map[int]int{9996: 5}, map[int]int{10004: -5})}
	_, ok := r.match("RAINFOREST_RESIN", []order.Order{
		{Symbol: "RAINFOREST_RESIN", Price: 9997, Quantity: 105},
		{Symbol: "RAINFOREST_RESIN", Price: 10003, Quantity: 0},
	}, snap)
	assert.False(t, ok)

	trades, ok := r.match("RAINFOREST_RESIN", []order.Order{
		{Symbol: "RAINFOREST_RESIN", Price: 10004, Quantity: 100},
	}, snap)
	assert.True(t, ok)
	require.Len(t, trades, 1)
	assert.Equal(t, 5, trades[0].Quantity)
	// 盘口档位是拷贝，原快照不变
	assert.Equal(t, -5, snap.OrderDepths["RAINFOREST_RESIN"].SellOrders[10004])
}

func TestRunReplaysAll(t *testing.T) {
	r, _ := newRunner(t)
	input := `{"timestamp":0,"traderData":"","order_depths":{"KELP":{"buy_orders":{"2020":5},"sell_orders":{"2024":-5}}}}
{"timestamp":100,"traderData":"","order_depths":{"KELP":{"buy_orders":{"2021":5},"sell_orders":{"2025":-5}}}}
`
	snaps, err := ReadSnapshots(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, -5, snaps[0].OrderDepths["KELP"].SellOrders[2024])

	rep, err := r.Run(snaps)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Ticks)
	assert.Empty(t, rep.Products)
	assert.True(t, rep.TotalPnL.IsZero())
}

func TestReadSnapshotsError(t *testing.T) {
	snaps, err := ReadSnapshots(strings.NewReader(`{"timestamp":0}` + "\n{bad"))
	assert.Error(t, err)
	assert.Len(t, snaps, 1)
}
