package alert

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// AlertType 定义预警的生命周期类型
type AlertType string

const (
	AlertOnce   AlertType = "once"   // 触发一次后自动删除
	AlertDaily  AlertType = "daily"  // 每天最多触发一次
	AlertAlways AlertType = "always" // 满足条件就触发，带冷却时间
)

// Metric 预警监控的指标
type Metric string

const (
	MetricLTV   Metric = "ltv"   // 贷款价值比
	MetricPrice Metric = "price" // 抵押资产价格
)

// Direction 触发方向
type Direction string

const (
	DirectionHigh Direction = "high" // value >= threshold
	DirectionLow  Direction = "low"  // value <= threshold
)

// DefaultCooldown AlertAlways 的默认冷却时间
const DefaultCooldown = 60 * time.Second

// normalizeCooldown 两种 Manager 共用：0 表示不冷却，负数表示使用默认值
func normalizeCooldown(d time.Duration) time.Duration {
	if d < 0 {
		return DefaultCooldown
	}
	return d
}

var (
	ErrAlertIDRequired = errors.New("alert_id is required")
	ErrInvalidRule     = errors.New("invalid alert rule")
)

// AlertRule 预警规则
// 对应 Redis 中的详情数据
type AlertRule struct {
	AlertID   string    `json:"alert_id"`
	Metric    Metric    `json:"metric"`
	Direction Direction `json:"direction"`
	Threshold float64   `json:"threshold"`
	Type      AlertType `json:"type"`
	Message   string    `json:"message,omitempty"`

	// 状态字段
	LastTriggeredAt int64 `json:"last_triggered_at"` // 上次触发时间戳 (秒)
	CreatedAt       int64 `json:"created_at"`
}

// Validate 校验规则
func (r AlertRule) Validate() error {
	if r.AlertID == "" {
		return ErrAlertIDRequired
	}
	if r.Metric != MetricLTV && r.Metric != MetricPrice {
		return fmt.Errorf("metric %q: %w", r.Metric, ErrInvalidRule)
	}
	if r.Direction != DirectionHigh && r.Direction != DirectionLow {
		return fmt.Errorf("direction %q: %w", r.Direction, ErrInvalidRule)
	}
	switch r.Type {
	case AlertOnce, AlertDaily, AlertAlways:
	default:
		return fmt.Errorf("type %q: %w", r.Type, ErrInvalidRule)
	}
	return nil
}

// Matches 当前值是否满足触发条件
func (r AlertRule) Matches(value float64) bool {
	switch r.Direction {
	case DirectionHigh:
		return value >= r.Threshold
	case DirectionLow:
		return value <= r.Threshold
	}
	return false
}

// Manager 预警订阅管理器
// 内存版用于单机和测试，Redis 版用于多实例共享
type Manager interface {
	// Subscribe 创建或覆盖一个预警
	Subscribe(ctx context.Context, rule AlertRule) error

	// Unsubscribe 取消预警
	Unsubscribe(ctx context.Context, alertID string) error

	// Triggered 返回当前值触发的所有预警，并按类型处理生命周期
	Triggered(ctx context.Context, metric Metric, value float64) ([]AlertRule, error)
}
