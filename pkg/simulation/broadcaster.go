package simulation

import "sync"

// Broadcaster 把 TickReport 扇出给多个订阅者（指标、告警、事件）
//
// 某个订阅者处理慢时直接丢弃它的消息，不影响其他订阅者。
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers []chan TickReport
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make([]chan TickReport, 0),
	}
}

// Subscribe 订阅，buffer <= 0 时使用 64
func (b *Broadcaster) Subscribe(buffer int) <-chan TickReport {
	if buffer <= 0 {
		buffer = 64
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan TickReport, buffer)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Broadcast 发送给所有订阅者，返回被丢弃的份数
func (b *Broadcaster) Broadcast(r TickReport) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	dropped := 0
	for _, ch := range b.subscribers {
		select {
		case ch <- r:
		default:
			dropped++
		}
	}
	return dropped
}

// Close 关闭所有订阅者的通道
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
}
