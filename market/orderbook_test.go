package market

import "testing"

func TestOrderDepthBestAndMid(t *testing.T) {
	d := &OrderDepth{
		BuyOrders:  map[int]int{100: 1, 99: 2},
		SellOrders: map[int]int{101: -1, 102: -3},
	}
	bid, ask, ok := d.Best()
	if !ok || bid != 100 || ask != 101 {
		t.Fatalf("unexpected best bid/ask: %d/%d ok=%v", bid, ask, ok)
	}
	if mid, _ := d.Mid(); mid != 100.5 {
		t.Fatalf("unexpected mid %f", mid)
	}
}

func TestOrderDepthOneSided(t *testing.T) {
	d := &OrderDepth{BuyOrders: map[int]int{100: 1}, SellOrders: map[int]int{}}
	if _, _, ok := d.Best(); ok {
		t.Fatalf("expected empty sell side to be reported")
	}
	if _, ok := d.Mid(); ok {
		t.Fatalf("expected no mid for one-sided book")
	}
	var nilDepth *OrderDepth
	if _, _, ok := nilDepth.Best(); ok {
		t.Fatalf("nil depth must not report a best price")
	}
}

func TestOrderDepthNegativePrices(t *testing.T) {
	d := &OrderDepth{
		BuyOrders:  map[int]int{-5: 1, -3: 2},
		SellOrders: map[int]int{-1: -1, 4: -2},
	}
	bid, ask, ok := d.Best()
	if !ok || bid != -3 || ask != -1 {
		t.Fatalf("unexpected best bid/ask: %d/%d", bid, ask)
	}
}
