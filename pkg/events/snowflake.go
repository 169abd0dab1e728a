// 文件: pkg/events/snowflake.go
// 雪花算法 ID 生成器
// 使用开源库: github.com/bwmarrin/snowflake

package events

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node     *snowflake.Node
	initOnce sync.Once
	initErr  error
)

// InitSnowflake 初始化雪花算法
// nodeID: 节点ID (0-1023)，多实例部署时每个实例不同
func InitSnowflake(nodeID int64) error {
	initOnce.Do(func() {
		node, initErr = snowflake.NewNode(nodeID)
	})
	return initErr
}

// NextID 生成事件 ID
func NextID() int64 {
	if node == nil {
		// 未初始化则使用默认节点0
		if err := InitSnowflake(0); err != nil {
			return 0
		}
	}
	return node.Generate().Int64()
}

// NewRunID 生成一次模拟运行的 ID（base36 字符串，便于阅读）
func NewRunID() string {
	if node == nil {
		if err := InitSnowflake(0); err != nil {
			return ""
		}
	}
	return node.Generate().Base36()
}
