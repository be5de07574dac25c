package rxotel

import (
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/xinjiayu/rxflow"
)

// SlogBridgeLogger 基于log/slog实现rxflow.Logger
type SlogBridgeLogger struct {
	logger *slog.Logger
}

// NewSlogBridgeLogger 通过otelslog桥接到全局LoggerProvider
func NewSlogBridgeLogger(name string) *SlogBridgeLogger {
	return &SlogBridgeLogger{logger: otelslog.NewLogger(name)}
}

// NewSlogBridgeLoggerWithHandler 直接使用给定的handler，不经过OpenTelemetry
func NewSlogBridgeLoggerWithHandler(handler slog.Handler) *SlogBridgeLogger {
	return &SlogBridgeLogger{logger: slog.New(handler)}
}

func (l *SlogBridgeLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *SlogBridgeLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogBridgeLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogBridgeLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// Options 返回安装日志、指标与追踪的rxflow配置项，nil参数会被跳过
func Options(l *SlogBridgeLogger, collector *MetricsCollector, tracing *TracingCollector) []rxflow.Option {
	var opts []rxflow.Option
	if l != nil {
		opts = append(opts, rxflow.WithLogger(l))
	}
	if collector != nil {
		opts = append(opts, rxflow.WithMetrics(collector))
	}
	if tracing != nil {
		opts = append(opts, rxflow.WithTracing(tracing))
	}
	return opts
}

var _ rxflow.Logger = (*SlogBridgeLogger)(nil)
