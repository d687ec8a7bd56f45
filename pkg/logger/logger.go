// Package logger 提供全局结构化日志（zap）
//
// 默认是 no-op 日志器：测试和库使用方不需要任何初始化。
// 桌面端在启动时调用 Init，按 --verbose 选择开发模式（控制台、Debug 级别）
// 或生产模式（JSON、Info 级别）。
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	global = zap.NewNop()
)

// Init 构建并安装全局日志器
func Init(verbose bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	encoding := "json"
	encoderConfig := zap.NewProductionEncoderConfig()
	if verbose {
		level = zapcore.DebugLevel
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(level),
		Development: verbose,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}

	l, err := config.Build()
	if err != nil {
		return nil, err
	}
	Set(l)
	return l, nil
}

// Set 替换全局日志器（测试中可注入 zaptest/observer）
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	global = l
	mu.Unlock()
}

// L 返回全局日志器
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Named 返回带组件名的子日志器，如 Named("GrabSystem")
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Sync 刷新缓冲区，退出前调用
func Sync() {
	_ = L().Sync()
}
