// 文件: pkg/logger/logger.go
// zap 日志初始化

package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 按环境和级别创建 logger
//
// production 输出 JSON，其他环境输出带颜色的控制台格式。
// 级别解析失败时回退到 info。
func New(level, env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))

	return cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}

// ParseLevel 解析日志级别，非法值返回 info
func ParseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// Must 创建失败时 panic，只在 main 里用
func Must(level, env string) *zap.Logger {
	l, err := New(level, env)
	if err != nil {
		panic(err)
	}
	return l
}
