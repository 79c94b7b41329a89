package service

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 是全局日志接口
// 在其他模块中使用：service.Logger.Info("Swaps admitted", zap.Int("count", n))
var Logger *zap.Logger

// NewLogger 按给定级别构建 Zap 日志 (debug/info/warn/error)
func NewLogger(level string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()

	// 格式化时间
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.TimeKey = "time"

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		config.Level = zap.NewAtomicLevelAt(lvl)
	}

	return config.Build()
}

// InitLogger 初始化全局 Logger，失败直接退出
func InitLogger(level string) {
	var err error
	Logger, err = NewLogger(level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
}
