// Configuration for rxflow
// 全局配置：日志、指标、追踪与未处理错误处理器
package rxflow

import (
	"sync/atomic"
)

// ============================================================================
// 配置选项
// ============================================================================

// Option 配置选项接口
type Option interface {
	Apply(config *Config)
}

// optionFunc 函数形式的配置选项
type optionFunc func(config *Config)

// Apply 实现Option接口
func (f optionFunc) Apply(config *Config) {
	f(config)
}

// UnhandledErrorHandler 处理没有观察者接收的错误
type UnhandledErrorHandler func(err error)

// Config 配置结构
type Config struct {
	Logger           Logger
	Metrics          MetricsCollector
	Tracing          TracingCollector
	OnUnhandledError UnhandledErrorHandler
}

// DefaultConfig 默认配置：不记录日志、不采集指标、不追踪，未处理错误直接panic
func DefaultConfig() *Config {
	return &Config{
		Logger:           noopLogger{},
		Metrics:          noopMetrics{},
		Tracing:          noopTracing{},
		OnUnhandledError: panicOnUnhandledError,
	}
}

func panicOnUnhandledError(err error) {
	panic(err)
}

var currentConfig atomic.Pointer[Config]

func init() {
	currentConfig.Store(DefaultConfig())
}

// Configure 在当前配置基础上应用选项
func Configure(options ...Option) {
	next := *CurrentConfig()
	for _, opt := range options {
		opt.Apply(&next)
	}
	currentConfig.Store(&next)
}

// CurrentConfig 返回当前配置的快照
func CurrentConfig() *Config {
	return currentConfig.Load()
}

// ResetConfig 恢复默认配置
func ResetConfig() {
	currentConfig.Store(DefaultConfig())
}

// WithLogger 设置日志记录器，nil表示不记录
func WithLogger(logger Logger) Option {
	return optionFunc(func(config *Config) {
		if logger == nil {
			logger = noopLogger{}
		}
		config.Logger = logger
	})
}

// WithMetrics 设置指标采集器，nil表示不采集
func WithMetrics(collector MetricsCollector) Option {
	return optionFunc(func(config *Config) {
		if collector == nil {
			collector = noopMetrics{}
		}
		config.Metrics = collector
	})
}

// WithTracing 设置追踪采集器，nil表示不追踪
func WithTracing(collector TracingCollector) Option {
	return optionFunc(func(config *Config) {
		if collector == nil {
			collector = noopTracing{}
		}
		config.Tracing = collector
	})
}

// WithUnhandledErrorHandler 设置未处理错误的处理器
func WithUnhandledErrorHandler(handler UnhandledErrorHandler) Option {
	return optionFunc(func(config *Config) {
		if handler == nil {
			handler = panicOnUnhandledError
		}
		config.OnUnhandledError = handler
	})
}

// reportUnhandledError 记录并交给未处理错误处理器
func reportUnhandledError(err error) {
	cfg := CurrentConfig()
	cfg.Logger.Error("unhandled error", "error", err)
	cfg.Metrics.IncrementCounter(MetricUnhandledErrors, nil)
	cfg.OnUnhandledError(err)
}
