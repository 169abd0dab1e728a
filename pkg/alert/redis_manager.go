package alert

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis Key 布局
//
//	loan:alert:detail:{id}              规则详情 (JSON)
//	loan:alerts:{metric}:{direction}    ZSET，score = threshold，member = "{id}:{type}"
//	loan:alert:cooldown:{id}            AlertAlways 冷却
//	loan:alert:daily:{id}:{yyyymmdd}    AlertDaily 当日已触发标记
const (
	keyDetail   = "loan:alert:detail:"
	keyIndex    = "loan:alerts:"
	keyCooldown = "loan:alert:cooldown:"
	keyDaily    = "loan:alert:daily:"
)

type RedisManager struct {
	client   *redis.Client
	cooldown time.Duration
	now      func() time.Time
}

// NewRedisManager cooldown 语义同 normalizeCooldown：0 不冷却，负数用 DefaultCooldown
func NewRedisManager(client *redis.Client, cooldown time.Duration) *RedisManager {
	return &RedisManager{client: client, cooldown: normalizeCooldown(cooldown), now: time.Now}
}

func indexKey(metric Metric, direction Direction) string {
	return keyIndex + string(metric) + ":" + string(direction)
}

// luaSubscribe 订阅脚本
// KEYS[1]: detailKey
// KEYS[2]: indexKey
// ARGV[1]: alertID
// ARGV[2]: score (threshold)
// ARGV[3]: ruleJSON
// ARGV[4]: alertType
const luaSubscribe = `
	redis.call('SET', KEYS[1], ARGV[3])
	-- Member: ID:Type，查询时无需反序列化
	local member = ARGV[1] .. ":" .. ARGV[4]
	redis.call('ZADD', KEYS[2], ARGV[2], member)
	return 1
`

// Subscribe 订阅预警
func (m *RedisManager) Subscribe(ctx context.Context, rule AlertRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if rule.CreatedAt == 0 {
		rule.CreatedAt = m.now().Unix()
	}
	data, err := json.Marshal(rule)
	if err != nil {
		return err
	}

	// 同一个 ID 重复订阅时先清掉旧索引（方向或类型可能变了）
	if err := m.Unsubscribe(ctx, rule.AlertID); err != nil {
		return err
	}

	detailKey := keyDetail + rule.AlertID
	return m.client.Eval(ctx, luaSubscribe,
		[]string{detailKey, indexKey(rule.Metric, rule.Direction)},
		rule.AlertID, rule.Threshold, data, string(rule.Type)).Err()
}

// luaUnsubscribe 取消订阅脚本
// KEYS[1]: detailKey
// ARGV[1]: alertID
// ARGV[2]: index key 前缀
const luaUnsubscribe = `
	local data = redis.call('GET', KEYS[1])
	if not data then return 0 end

	local rule = cjson.decode(data)
	local indexKey = ARGV[2] .. rule["metric"] .. ":" .. rule["direction"]
	local member = ARGV[1] .. ":" .. rule["type"]

	redis.call('ZREM', indexKey, member)
	redis.call('DEL', KEYS[1])
	return 1
`

// Unsubscribe 取消订阅
func (m *RedisManager) Unsubscribe(ctx context.Context, alertID string) error {
	detailKey := keyDetail + alertID
	return m.client.Eval(ctx, luaUnsubscribe, []string{detailKey}, alertID, keyIndex).Err()
}

// Triggered 获取触发的预警
//
// high 规则：threshold <= value，查 [-inf, value]
// low  规则：threshold >= value，查 [value, +inf]
func (m *RedisManager) Triggered(ctx context.Context, metric Metric, value float64) ([]AlertRule, error) {
	v := strconv.FormatFloat(value, 'f', -1, 64)

	high, err := m.scan(ctx, metric, DirectionHigh, "-inf", v)
	if err != nil {
		return nil, err
	}
	low, err := m.scan(ctx, metric, DirectionLow, v, "+inf")
	if err != nil {
		return nil, err
	}
	return append(high, low...), nil
}

// scan 分页扫描一个方向的索引
func (m *RedisManager) scan(ctx context.Context, metric Metric, direction Direction, min, max string) ([]AlertRule, error) {
	key := indexKey(metric, direction)
	triggered := make([]AlertRule, 0, 8)
	now := m.now()

	const batchSize = 100
	offset := 0
	for {
		zs, err := m.client.ZRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
			Min:    min,
			Max:    max,
			Offset: int64(offset),
			Count:  batchSize,
		}).Result()
		if err != nil {
			return nil, err
		}
		if len(zs) == 0 {
			break
		}

		membersToRemove := make([]interface{}, 0, len(zs))
		for _, z := range zs {
			member, ok := z.Member.(string)
			if !ok {
				continue
			}
			alertID, typeStr, found := strings.Cut(member, ":")
			if !found {
				continue
			}
			alertType := AlertType(typeStr)

			switch alertType {
			case AlertAlways:
				if m.cooldown == 0 {
					break
				}
				// SetNX 成功才触发，冷却期内跳过
				allowed, err := m.client.SetNX(ctx, keyCooldown+alertID, "1", m.cooldown).Result()
				if err != nil {
					return nil, err
				}
				if !allowed {
					continue
				}
			case AlertDaily:
				dayKey := keyDaily + alertID + ":" + now.Format("20060102")
				allowed, err := m.client.SetNX(ctx, dayKey, "1", 24*time.Hour).Result()
				if err != nil {
					return nil, err
				}
				if !allowed {
					continue
				}
			case AlertOnce:
				membersToRemove = append(membersToRemove, member)
			}

			triggered = append(triggered, AlertRule{
				AlertID:         alertID,
				Metric:          metric,
				Direction:       direction,
				Threshold:       z.Score,
				Type:            alertType,
				LastTriggeredAt: now.Unix(),
			})
		}

		// 批量删除 AlertOnce 的索引，详情保留
		if len(membersToRemove) > 0 {
			if err := m.client.ZRem(ctx, key, membersToRemove...).Err(); err != nil {
				return nil, err
			}
			// 删除之后后面的元素会前移
			offset -= len(membersToRemove)
		}
		if len(zs) < batchSize {
			break
		}
		offset += batchSize
	}
	if err := m.fillDetails(ctx, triggered); err != nil {
		return nil, err
	}
	return triggered, nil
}

// fillDetails 从详情 key 补齐 Message 和 CreatedAt，一次 MGET
func (m *RedisManager) fillDetails(ctx context.Context, rules []AlertRule) error {
	if len(rules) == 0 {
		return nil
	}
	keys := make([]string, len(rules))
	for i, r := range rules {
		keys[i] = keyDetail + r.AlertID
	}
	vals, err := m.client.MGet(ctx, keys...).Result()
	if err != nil {
		return err
	}
	for i, v := range vals {
		data, ok := v.(string)
		if !ok {
			// 详情已被删除（并发取消订阅）
			continue
		}
		var detail AlertRule
		if err := json.Unmarshal([]byte(data), &detail); err != nil {
			return err
		}
		rules[i].Message = detail.Message
		rules[i].CreatedAt = detail.CreatedAt
	}
	return nil
}
