package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderSide(t *testing.T) {
	assert.Equal(t, "BUY", Order{Quantity: 3}.Side())
	assert.Equal(t, "SELL", Order{Quantity: -3}.Side())
	assert.Equal(t, "NONE", Order{}.Side())
}

func TestFlattenIsSortedByProduct(t *testing.T) {
	orders := map[string][]Order{
		"RAINFOREST_RESIN": {{Symbol: "RAINFOREST_RESIN", Price: 9998, Quantity: 50}, {Symbol: "RAINFOREST_RESIN", Price: 10002, Quantity: -50}},
		"KELP":             {{Symbol: "KELP", Price: 2020, Quantity: 10}},
	}
	flat := Flatten(orders)
	assert.Len(t, flat, 3)
	assert.Equal(t, "KELP", flat[0].Symbol)
	assert.Equal(t, 9998, flat[1].Price)
	assert.Equal(t, 10002, flat[2].Price)
	assert.Empty(t, Flatten(nil))
}
