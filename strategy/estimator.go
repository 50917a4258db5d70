package strategy

import "shadow-mm/state"

// Estimator 在持久化窗口上计算定长 FIFO 移动平均。
type Estimator struct {
	st *state.State
}

func NewEstimator(st *state.State) *Estimator {
	return &Estimator{st: st}
}

// Average 返回当前窗口均值，不修改窗口。
func (e *Estimator) Average(product string) (float64, bool) {
	w, ok := e.st.Window(product)
	if !ok {
		return 0, false
	}
	return w.Mean(), true
}

// Update 丢弃最旧样本并写入 mid。
func (e *Estimator) Update(product string, mid float64) bool {
	w, ok := e.st.Window(product)
	if !ok {
		return false
	}
	w.Push(mid)
	return true
}

// UpdateAndAverage 写入 mid 后返回新窗口均值。
func (e *Estimator) UpdateAndAverage(product string, mid float64) (float64, bool) {
	if !e.Update(product, mid) {
		return 0, false
	}
	return e.Average(product)
}
