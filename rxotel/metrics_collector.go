// OpenTelemetry adapters for rxflow
// 把rxflow的Logger、MetricsCollector与TracingCollector接到OpenTelemetry上
package rxotel

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xinjiayu/rxflow"
)

// MetricsCollector 基于OpenTelemetry metrics API实现rxflow.MetricsCollector
//   - IncrementCounter -> Int64Counter
//   - RecordDuration -> Float64Histogram（单位秒）
//
// 仪表在首次使用时创建并按名称缓存。
type MetricsCollector struct {
	meter metric.Meter

	mu         sync.Mutex
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
}

// NewMetricsCollector 创建使用meter构建仪表的收集器
func NewMetricsCollector(meter metric.Meter) *MetricsCollector {
	return &MetricsCollector{
		meter:      meter,
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
	}
}

// IncrementCounter 计数器加一
func (m *MetricsCollector) IncrementCounter(metricName string, labels map[string]string) {
	counter := m.counter(metricName)
	if counter == nil {
		return
	}
	counter.Add(context.TODO(), 1, metric.WithAttributes(attributes(labels)...))
}

// RecordDuration 以秒为单位记录耗时
func (m *MetricsCollector) RecordDuration(metricName string, duration time.Duration, labels map[string]string) {
	histogram := m.histogram(metricName)
	if histogram == nil {
		return
	}
	histogram.Record(context.TODO(), duration.Seconds(), metric.WithAttributes(attributes(labels)...))
}

func (m *MetricsCollector) counter(name string) metric.Int64Counter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if counter, ok := m.counters[name]; ok {
		return counter
	}
	counter, err := m.meter.Int64Counter(name, metric.WithDescription("rxflow event counter"))
	if err != nil {
		return nil
	}
	m.counters[name] = counter
	return counter
}

func (m *MetricsCollector) histogram(name string) metric.Float64Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()

	if histogram, ok := m.histograms[name]; ok {
		return histogram
	}
	histogram, err := m.meter.Float64Histogram(
		name,
		metric.WithDescription("rxflow duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil
	}
	m.histograms[name] = histogram
	return histogram
}

func attributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for key, value := range labels {
		attrs = append(attrs, attribute.String(key, value))
	}
	return attrs
}

var _ rxflow.MetricsCollector = (*MetricsCollector)(nil)
