package strategy

import (
	"fmt"
	"math"

	"shadow-mm/order"
)

// Threshold 是固定公允价的早期版本：盘口越过公允价时直接吃单，否则在最优价内侧各挂一档。
// 公允价取产品种子值，数量 = SpreadConstant - Alpha*pos，单边截断为 0。
// 只交易 Quoted 中的产品（默认仅 RAINFOREST_RESIN），其余返回 ErrNotQuoted。
type Threshold struct {
	params         Params
	SpreadConstant float64
	Alpha          float64
	Quoted         map[string]bool
}

func NewThreshold(params Params) *Threshold {
	return &Threshold{
		params:         params,
		SpreadConstant: 30,
		Alpha:          1.5,
		Quoted:         map[string]bool{"RAINFOREST_RESIN": true},
	}
}

func (s *Threshold) Name() string { return string(KindThreshold) }

func (s *Threshold) Quote(in Input) (Quote, error) {
	pp, ok := s.params.Products[in.Product]
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ErrUnknownProduct, in.Product)
	}
	if !s.Quoted[in.Product] {
		return Quote{}, fmt.Errorf("%w: %s", ErrNotQuoted, in.Product)
	}
	bestBid, bestAsk, ok := in.Depth.Best()
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ErrEmptyBook, in.Product)
	}
	fair := pp.Seed

	var bid, ask int
	switch {
	case float64(bestBid) > fair:
		ask = bestBid
		bid = 0
	case float64(bestAsk) < fair:
		bid = bestAsk
		ask = bestAsk * 2
	default:
		bid = bestBid + 1
		ask = bestAsk - 1
	}

	pos := float64(in.Position)
	bidVol := int(math.Max(s.SpreadConstant-s.Alpha*pos, 0))
	askVol := int(math.Min(-s.SpreadConstant-s.Alpha*pos, 0))

	return Quote{
		Product:   in.Product,
		BestBid:   bestBid,
		BestAsk:   bestAsk,
		Mid:       float64(bestBid+bestAsk) / 2,
		FairValue: fair,
		Bid:       order.Order{Symbol: in.Product, Price: bid, Quantity: bidVol},
		Ask:       order.Order{Symbol: in.Product, Price: ask, Quantity: askVol},
	}, nil
}
