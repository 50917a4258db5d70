package strategy

import (
	"fmt"
	"math"

	"shadow-mm/order"
)

// MovingAverage 以窗口均值为公允价锚点：
// 先把报价从 mid 向最优价按 Blend 倾斜，再保证买价不高于、卖价不低于公允价。
// 数量按仓位上限一次补足，不做过滤。
type MovingAverage struct {
	params Params
}

func NewMovingAverage(params Params) *MovingAverage {
	return &MovingAverage{params: params}
}

func (s *MovingAverage) Name() string { return string(KindMovingAverage) }

func (s *MovingAverage) Quote(in Input) (Quote, error) {
	pp, ok := s.params.Products[in.Product]
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ErrUnknownProduct, in.Product)
	}
	bestBid, bestAsk, ok := in.Depth.Best()
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ErrEmptyBook, in.Product)
	}
	mid := float64(bestBid+bestAsk) / 2

	rawBid := float64(bestBid)*pp.Blend + mid*(1-pp.Blend)
	rawAsk := float64(bestAsk)*pp.Blend + mid*(1-pp.Blend)

	// round half to even
	bid := int(math.RoundToEven(math.Min(rawBid, in.FairValue)))
	ask := int(math.RoundToEven(math.Max(rawAsk, in.FairValue)))

	maxPos := s.params.MaxPosition
	return Quote{
		Product:   in.Product,
		BestBid:   bestBid,
		BestAsk:   bestAsk,
		Mid:       mid,
		FairValue: in.FairValue,
		Bid:       order.Order{Symbol: in.Product, Price: bid, Quantity: maxPos - in.Position},
		Ask:       order.Order{Symbol: in.Product, Price: ask, Quantity: -maxPos - in.Position},
	}, nil
}
