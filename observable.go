// Observable implementation for rxflow
// Observable核心实现：延迟执行的生产者函数与操作符提升
package rxflow

import (
	"time"
)

// ============================================================================
// Observable 核心实现
// ============================================================================

// Producer 生产者函数，向订阅者推送通知，返回的资源会在订阅释放时一并释放
type Producer[T any] func(subscriber *Subscriber[T]) Unsubscribable

// Observable 可观察序列
//
// Observable本身不可变、无状态；每次订阅都会独立地重新执行生产者函数。
type Observable[T any] struct {
	producer Producer[T]
}

// NewObservable 创建新的Observable
func NewObservable[T any](producer Producer[T]) *Observable[T] {
	return &Observable[T]{producer: producer}
}

// Subscribe 订阅观察者，返回的订阅者可以当作Subscription使用
func (o *Observable[T]) Subscribe(observer Observer[T]) *Subscriber[T] {
	subscriber := NewSubscriber(observer)
	trackSubscription(subscriber)
	return o.subscribe(subscriber)
}

// SubscribeWithCallbacks 使用回调函数订阅，任意回调都可以为nil
func (o *Observable[T]) SubscribeWithCallbacks(onNext func(T), onError func(error), onComplete func()) *Subscriber[T] {
	return o.Subscribe(Observer[T]{
		Next:     onNext,
		Error:    onError,
		Complete: onComplete,
	})
}

// SubscribeSubscriber 直接使用已有的订阅者订阅
func (o *Observable[T]) SubscribeSubscriber(subscriber *Subscriber[T]) *Subscriber[T] {
	return o.subscribe(subscriber)
}

// subscribe 同步执行生产者函数
//
// 生产者panic时，如果订阅者还没有终止就转换为Error通知；否则继续向上抛出。
func (o *Observable[T]) subscribe(subscriber *Subscriber[T]) (result *Subscriber[T]) {
	result = subscriber
	defer func() {
		if r := recover(); r != nil {
			if subscriber.IsStopped() {
				panic(r)
			}
			subscriber.Error(errorFromPanic(r))
		}
	}()

	subscriber.Add(o.producer(subscriber))
	return subscriber
}

// Lift 以相同的元素类型应用操作符
func (o *Observable[T]) Lift(operator Operator[T, T]) *Observable[T] {
	return Lift(o, operator)
}

// ============================================================================
// 操作符提升
// ============================================================================

// Lift 把操作符应用到source上，得到新的Observable
//
// 每次订阅时用operator.Call包装下游订阅者得到上游订阅者，再用它执行source的生产者。
func Lift[T, R any](source *Observable[T], operator Operator[T, R]) *Observable[R] {
	return NewObservable(func(destination *Subscriber[R]) Unsubscribable {
		upstream := operator.Call(destination)
		return source.subscribe(upstream)
	})
}

// trackSubscription 记录根订阅的日志、指标与追踪span
func trackSubscription[T any](subscriber *Subscriber[T]) {
	cfg := CurrentConfig()
	_, quietLogger := cfg.Logger.(noopLogger)
	_, quietMetrics := cfg.Metrics.(noopMetrics)
	_, quietTracing := cfg.Tracing.(noopTracing)
	if quietLogger && quietMetrics && quietTracing {
		return
	}

	id := subscriber.ID().String()
	start := time.Now()
	cfg.Logger.Debug("subscribed", "subscription_id", id)
	cfg.Metrics.IncrementCounter(MetricSubscriptionsOpened, nil)
	span := cfg.Tracing.StartSpan(SpanSubscription, map[string]string{"subscription_id": id})

	subscriber.AddFunc(func() {
		status := subscriber.spanStatus()
		cfg.Logger.Debug("unsubscribed", "subscription_id", id, "status", status)
		cfg.Metrics.IncrementCounter(MetricSubscriptionsClosed, nil)
		cfg.Metrics.RecordDuration(MetricSubscriptionLifetime, time.Since(start), nil)
		cfg.Tracing.FinishSpan(span, status, nil)
	})
}
