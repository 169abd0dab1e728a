package simulation

// History 定长 FIFO 环形缓冲
//
// 容量满了之后新点覆盖最老的点，Append 是 O(1)。
// 自身不加锁，由 Clock 的锁保护。
type History struct {
	buf   []Sample
	start int // 最老元素的下标
	n     int
}

// NewHistory 创建容量为 limit 的历史缓冲，limit <= 0 时使用默认值
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{buf: make([]Sample, limit)}
}

// Append 追加一个点，满了就淘汰最老的
func (h *History) Append(s Sample) {
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = s
		h.n++
		return
	}
	h.buf[h.start] = s
	h.start = (h.start + 1) % len(h.buf)
}

// Samples 按时间顺序（旧 → 新）返回副本
func (h *History) Samples() []Sample {
	out := make([]Sample, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

// Values 只返回数值部分
func (h *History) Values() []float64 {
	out := make([]float64, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)].Value
	}
	return out
}

func (h *History) Len() int { return h.n }
func (h *History) Cap() int { return len(h.buf) }

// Last 最新的点
func (h *History) Last() (Sample, bool) {
	if h.n == 0 {
		return Sample{}, false
	}
	return h.buf[(h.start+h.n-1)%len(h.buf)], true
}

// Reset 清空，然后写入 seed（通常是一个种子点）
func (h *History) Reset(seed ...Sample) {
	h.start, h.n = 0, 0
	for _, s := range seed {
		h.Append(s)
	}
}
