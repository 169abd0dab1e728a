package alert

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryManager 内存版预警管理器
type MemoryManager struct {
	mu       sync.Mutex
	rules    map[string]AlertRule // key: AlertID
	cooldown time.Duration
	now      func() time.Time
}

func NewMemoryManager() *MemoryManager {
	return &MemoryManager{
		rules:    make(map[string]AlertRule),
		cooldown: DefaultCooldown,
		now:      time.Now,
	}
}

// SetCooldown 设置 AlertAlways 的冷却时间，0 表示不冷却，负数恢复 DefaultCooldown
func (m *MemoryManager) SetCooldown(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cooldown = normalizeCooldown(d)
}

// Subscribe 订阅预警
func (m *MemoryManager) Subscribe(_ context.Context, rule AlertRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if rule.CreatedAt == 0 {
		rule.CreatedAt = m.now().Unix()
	}
	m.rules[rule.AlertID] = rule
	return nil
}

// Unsubscribe 取消订阅
func (m *MemoryManager) Unsubscribe(_ context.Context, alertID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rules, alertID)
	return nil
}

// Rules 当前所有规则，按 AlertID 排序
func (m *MemoryManager) Rules() []AlertRule {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]AlertRule, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AlertID < out[j].AlertID })
	return out
}

// Triggered 获取触发的预警
// 涉及更新 LastTriggeredAt 和删除 AlertOnce，所以整个过程持有写锁
func (m *MemoryManager) Triggered(_ context.Context, metric Metric, value float64) ([]AlertRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var triggered []AlertRule
	now := m.now()

	for id, rule := range m.rules {
		// 1. 指标匹配 + 条件判断
		if rule.Metric != metric || !rule.Matches(value) {
			continue
		}

		// 2. 频率控制
		shouldTrigger := false
		switch rule.Type {
		case AlertOnce:
			shouldTrigger = true
			delete(m.rules, id)

		case AlertDaily:
			last := time.Unix(rule.LastTriggeredAt, 0)
			if rule.LastTriggeredAt == 0 || !isSameDay(last, now) {
				shouldTrigger = true
				rule.LastTriggeredAt = now.Unix()
				m.rules[id] = rule
			}

		case AlertAlways:
			last := time.Unix(rule.LastTriggeredAt, 0)
			if rule.LastTriggeredAt == 0 || now.Sub(last) >= m.cooldown {
				shouldTrigger = true
				rule.LastTriggeredAt = now.Unix()
				m.rules[id] = rule
			}
		}

		if shouldTrigger {
			triggered = append(triggered, rule)
		}
	}

	// map 遍历无序，排序后输出稳定
	sort.Slice(triggered, func(i, j int) bool { return triggered[i].AlertID < triggered[j].AlertID })
	return triggered, nil
}

// isSameDay 判断两个时间是否是同一天
func isSameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
