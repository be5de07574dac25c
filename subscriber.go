// Subscriber implementation for rxflow
// 订阅者：值、错误、完成信号向下游传递的唯一通道，并保证终止状态只出现一次
package rxflow

import (
	"sync/atomic"
)

// ============================================================================
// Subscriber
// ============================================================================

// Subscriber 订阅者，同时也是一个Subscription
//
// 通过组合实现：内嵌的*Subscription提供释放能力，解析后的处理函数提供观察者能力。
// Error或Complete送达一次之后，后续的Next/Error/Complete都会被忽略。
type Subscriber[T any] struct {
	*Subscription

	stopped  atomic.Bool
	terminal atomic.Int32
	next     func(value T)
	err      func(err error)
	complete func()

	// root 为true时处理函数属于最终消费者，处理函数panic会先停止并释放订阅再继续向上抛出
	root bool
}

// 终止方式
const (
	terminalNone int32 = iota
	terminalError
	terminalComplete
)

// NewSubscriber 用部分观察者创建根订阅者
func NewSubscriber[T any](observer Observer[T]) *Subscriber[T] {
	s := newSubscriber(observer)
	s.root = true
	return s
}

// NewOperatorSubscriber 创建操作符内部使用的上游订阅者
//
// 省略的Error/Complete直接转发给destination；新订阅者会作为destination的子资源，
// 因此释放下游会一并释放上游。
func NewOperatorSubscriber[T, R any](destination *Subscriber[R], observer Observer[T]) *Subscriber[T] {
	if observer.Error == nil {
		observer.Error = destination.Error
	}
	if observer.Complete == nil {
		observer.Complete = destination.Complete
	}

	s := newSubscriber(observer)
	destination.Add(s)
	return s
}

// newSubscriber 创建不挂在任何父节点上的订阅者，生命周期由调用方管理
func newSubscriber[T any](observer Observer[T]) *Subscriber[T] {
	s := &Subscriber[T]{
		Subscription: NewSubscription(nil),
		next:         observer.Next,
		err:          observer.Error,
		complete:     observer.Complete,
	}
	if s.next == nil {
		s.next = func(T) {}
	}
	if s.err == nil {
		s.err = reportUnhandledError
	}
	if s.complete == nil {
		s.complete = func() {}
	}
	return s
}

// IsStopped 是否已经进入终止状态
func (s *Subscriber[T]) IsStopped() bool {
	return s.stopped.Load()
}

// Next 发送下一个值
func (s *Subscriber[T]) Next(value T) {
	if s.stopped.Load() {
		return
	}
	if s.root {
		s.guard(func() { s.next(value) })
		return
	}
	s.next(value)
}

// Error 发送错误并终止
func (s *Subscriber[T]) Error(err error) {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	s.terminal.Store(terminalError)
	defer s.disposeAfterTerminal()

	if s.root {
		s.guard(func() { s.err(err) })
		return
	}
	s.err(err)
}

// Complete 发送完成信号并终止
func (s *Subscriber[T]) Complete() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	s.terminal.Store(terminalComplete)
	defer s.disposeAfterTerminal()

	if s.root {
		s.guard(s.complete)
		return
	}
	s.complete()
}

// Unsubscribe 停止接收通知并释放全部子资源
func (s *Subscriber[T]) Unsubscribe() error {
	s.stopped.Store(true)
	return s.Subscription.Unsubscribe()
}

// spanStatus 按终止方式给出追踪状态，没有终止就被释放的视为取消
func (s *Subscriber[T]) spanStatus() string {
	switch s.terminal.Load() {
	case terminalComplete:
		return SpanStatusCompleted
	case terminalError:
		return SpanStatusError
	default:
		return SpanStatusCancelled
	}
}

// disposeAfterTerminal 终止后的自我释放，失败没有调用方接收，只能上报
func (s *Subscriber[T]) disposeAfterTerminal() {
	if err := s.Unsubscribe(); err != nil {
		reportTeardownError(s.Subscription, err)
	}
}

// guard 消费者处理函数panic时先停止并释放订阅，再把原值继续抛出
//
// 停止之后，外层subscribe看到订阅者已终止，就不会把这个panic转换成Error通知。
func (s *Subscriber[T]) guard(handler func()) {
	defer func() {
		if r := recover(); r != nil {
			s.stopped.Store(true)
			if err := s.Subscription.Unsubscribe(); err != nil {
				cfg := CurrentConfig()
				cfg.Logger.Warn("teardown failed while handler panicked", "subscription_id", s.ID().String(), "error", err)
				cfg.Metrics.IncrementCounter(MetricTeardownFailures, nil)
			}
			panic(r)
		}
	}()

	handler()
}
