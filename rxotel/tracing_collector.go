package rxotel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xinjiayu/rxflow"
)

// TracingCollector 基于OpenTelemetry tracing API实现rxflow.TracingCollector
//
// 每个根订阅对应一个span，从订阅开始到释放结束。
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector 创建使用tracer创建span的收集器
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan 开始span
//
// rxflow的订阅不携带context，span总是从context.Background()开始。
func (t *TracingCollector) StartSpan(name string, attrs map[string]string) rxflow.SpanContext {
	_, span := t.tracer.Start(context.Background(), name, trace.WithAttributes(attributes(attrs)...))
	return &Span{span: span}
}

// FinishSpan 写入最终属性与状态后结束span；不是本收集器创建的span被忽略
func (t *TracingCollector) FinishSpan(spanCtx rxflow.SpanContext, status string, attrs map[string]string) {
	span, ok := spanCtx.(*Span)
	if !ok {
		return
	}
	span.span.SetAttributes(attributes(attrs)...)
	span.SetStatus(status)
	span.span.End()
}

var _ rxflow.TracingCollector = (*TracingCollector)(nil)

// Span 包装OpenTelemetry span的rxflow.SpanContext
type Span struct {
	span trace.Span
}

// SetStatus 把rxflow的状态映射为span状态码
//
// 取消订阅在响应式序列中是正常结束，只记录为属性，不标记为错误。
func (s *Span) SetStatus(status string) {
	switch status {
	case rxflow.SpanStatusCompleted:
		s.span.SetStatus(codes.Ok, "")
	case rxflow.SpanStatusError:
		s.span.SetStatus(codes.Error, "subscription terminated with an error")
	default:
		s.span.SetAttributes(attribute.String("rxflow.status", status))
	}
}

// AddAttribute 添加字符串属性
func (s *Span) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

var _ rxflow.SpanContext = (*Span)(nil)
