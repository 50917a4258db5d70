package state

// Window 是定长环形缓冲区，保存最近 N 个中间价，始终是满的（首次使用时以种子值填充）。
// sum 为运行和，每绕一圈重新求和一次以消除浮点累积误差。
type Window struct {
	samples []float64
	head    int // 最旧样本的位置
	sum     float64
}

// NewWindow 创建以 seed 填满的窗口。
func NewWindow(size int, seed float64) *Window {
	if size < 1 {
		size = 1
	}
	samples := make([]float64, size)
	for i := range samples {
		samples[i] = seed
	}
	w := &Window{samples: samples}
	w.resum()
	return w
}

// windowFrom 从旧到新的序列恢复窗口；过长时保留最新的 size 个，过短时在前端用 pad 补齐。
func windowFrom(values []float64, size int, pad float64) *Window {
	w := NewWindow(size, pad)
	if len(values) > size {
		values = values[len(values)-size:]
	}
	copy(w.samples[size-len(values):], values)
	w.resum()
	return w
}

// Push 丢弃最旧样本并追加 v。
func (w *Window) Push(v float64) {
	w.sum += v - w.samples[w.head]
	w.samples[w.head] = v
	w.head = (w.head + 1) % len(w.samples)
	if w.head == 0 {
		w.resum()
	}
}

// Mean 返回窗口算术平均。
func (w *Window) Mean() float64 {
	return w.sum / float64(len(w.samples))
}

func (w *Window) resum() {
	var sum float64
	for _, v := range w.samples {
		sum += v
	}
	w.sum = sum
}

// Values 从旧到新返回样本拷贝。
func (w *Window) Values() []float64 {
	n := len(w.samples)
	res := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		res = append(res, w.samples[(w.head+i)%n])
	}
	return res
}
