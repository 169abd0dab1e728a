// 文件: pkg/events/model.go
// 模拟贷款事件定义
//
// 事件通过 Kafka 或 NATS 发出，下游（报表、通知）按 RunID 归并

package events

import (
	"encoding/json"
	"strconv"
	"time"

	"loanlab.com/pkg/loan"
)

// Kafka Topic / NATS Subject 前缀
const (
	TopicLoanEvents   = "loan_sim_events"
	SubjectPrefix     = "loan.sim."
	SubjectWildcard   = SubjectPrefix + ">"
	DefaultConsumerID = "loan-event-tail"
)

// EventType 事件类型
type EventType string

const (
	EventTick     EventType = "tick"     // 每次 tick
	EventReborrow EventType = "reborrow" // 自动加借生效
	EventReset    EventType = "reset"    // 新贷款 / 参数重置
	EventEnded    EventType = "ended"    // 贷款到期
	EventAlert    EventType = "alert"    // 预警触发
)

// LoanEvent 模拟贷款事件
type LoanEvent struct {
	// ===== 唯一标识 =====
	EventID int64  `json:"event_id,string"` // 雪花 ID，幂等键
	RunID   string `json:"run_id"`          // 一次模拟运行
	Seq     int64  `json:"seq"`             // tick 序号

	Type EventType `json:"type"`

	// ===== 状态 =====
	Price           float64   `json:"price"`
	Loan            float64   `json:"loan"`
	LTV             float64   `json:"ltv"`
	ElapsedDays     float64   `json:"elapsed_days"`
	InterestAccrued float64   `json:"interest_accrued"`
	Zone            loan.Zone `json:"zone"`

	// Delta：reborrow 为加借金额，tick 为本次利息
	Delta float64 `json:"delta,omitempty"`

	// AlertID：仅 alert 事件
	AlertID string `json:"alert_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// =============================================================================
// LoanEvent 实现 kafka.Message 接口
// =============================================================================

// Topic 默认 Kafka topic；KafkaPublisher 会使用配置的 topic
func (e *LoanEvent) Topic() string {
	return TopicLoanEvents
}

// Key 按 RunID 分区，保证同一次运行的事件有序
func (e *LoanEvent) Key() string {
	if e.RunID == "" {
		return strconv.FormatInt(e.EventID, 10)
	}
	return e.RunID
}

// Value 返回序列化后的消息体
func (e *LoanEvent) Value() ([]byte, error) {
	return json.Marshal(e)
}

// Subject 返回 NATS subject，如 loan.sim.reborrow
func (e *LoanEvent) Subject() string {
	return SubjectPrefix + string(e.Type)
}

// Decode 反序列化事件
func Decode(data []byte) (*LoanEvent, error) {
	var e LoanEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
