package simulation

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Ticker 用墙上时间驱动 Clock
//
// Clock 本身不关心时间从哪来；生产环境用 Ticker 每隔 Interval 调一次 Tick，
// 测试直接同步调用 Clock.Tick。
type Ticker struct {
	clock    *Clock
	Interval time.Duration

	// close(stopChan) 广播停止信号
	stopChan chan struct{}
	stopOnce sync.Once

	// 带缓冲，下游短暂卡顿时不阻塞 tick
	outChan chan TickReport

	dropped atomic.Uint64
	logger  *zap.Logger
}

// NewTicker interval <= 0 时使用 DefaultTickInterval
func NewTicker(clock *Clock, interval time.Duration, logger *zap.Logger) *Ticker {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ticker{
		clock:    clock,
		Interval: interval,
		stopChan: make(chan struct{}),
		outChan:  make(chan TickReport, 16),
		logger:   logger,
	}
}

// Start 启动后台循环，返回只读的 tick 结果通道
func (t *Ticker) Start() <-chan TickReport {
	go t.loop()
	return t.outChan
}

// Stop 停止循环，随后 Start 返回的通道会被关闭；可以重复调用
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stopChan) })
}

// Dropped 因为下游太慢被丢弃的 tick 数
func (t *Ticker) Dropped() uint64 {
	return t.dropped.Load()
}

func (t *Ticker) loop() {
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	defer close(t.outChan)

	for {
		select {
		case <-t.stopChan:
			return
		case <-ticker.C:
			report := t.clock.Tick()

			// 非阻塞发送：旧的 tick 没有价值，满了就丢
			select {
			case t.outChan <- report:
			default:
				t.dropped.Add(1)
				t.logger.Warn("tick dropped, consumer too slow", zap.Int64("seq", report.Seq))
			}
		}
	}
}
