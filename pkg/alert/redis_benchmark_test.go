package alert

import (
	"context"
	"fmt"
	"testing"
)

// BenchmarkSubscribe 测试订阅性能
func BenchmarkSubscribe(b *testing.B) {
	manager := setupRedis(b)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rule := AlertRule{
			AlertID:   fmt.Sprintf("bench_%d", i),
			Metric:    MetricLTV,
			Direction: DirectionHigh,
			Threshold: 0.7,
			Type:      AlertOnce,
		}
		manager.Subscribe(ctx, rule)
	}
}

// BenchmarkTriggered 大量规则同时落在同一个阈值上
func BenchmarkTriggered(b *testing.B) {
	manager := setupRedis(b)
	ctx := context.Background()

	for i := 0; i < 10000; i++ {
		manager.Subscribe(ctx, AlertRule{
			AlertID:   fmt.Sprintf("herd_%d", i),
			Metric:    MetricLTV,
			Direction: DirectionHigh,
			Threshold: 0.7,
			Type:      AlertDaily,
		})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		manager.Triggered(ctx, MetricLTV, 0.75)
	}
}
