package strategy

import "fmt"

// Kind 是可选策略名。
type Kind string

const (
	KindMovingAverage Kind = "moving_average"
	KindThreshold     Kind = "threshold"
)

// Factory creates strategy instances based on configuration.
type Factory struct {
	params Params
}

// NewFactory creates a new Factory.
func NewFactory(params Params) *Factory {
	return &Factory{params: params}
}

// Create 按名称创建策略；空名称使用 moving_average。
func (f *Factory) Create(name string) (Strategy, error) {
	switch Kind(name) {
	case KindMovingAverage, "":
		return NewMovingAverage(f.params), nil
	case KindThreshold:
		return NewThreshold(f.params), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
	}
}
