package simulation

import (
	"math/rand"
	"time"
)

// RandomSource 价格扰动使用的随机源，返回 [0, 1) 的均匀分布
//
// 测试中注入固定序列，即可得到确定性的价格路径。
type RandomSource interface {
	Float64() float64
}

// NewSeededSource 固定种子的随机源
//
// 每个 Clock 使用独立的 *rand.Rand，不共享全局 rand 的锁。
func NewSeededSource(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}

// newTimeSource 以当前时间为种子
func newTimeSource() RandomSource {
	return NewSeededSource(time.Now().UnixNano())
}
