// Factory functions for rxflow
// 创建Observable的工厂函数
package rxflow

import (
	"sync"
	"time"
)

// ============================================================================
// 基础创建函数
// ============================================================================

// Just 依次发射给定的值后完成
func Just[T any](values ...T) *Observable[T] {
	return FromSlice(values)
}

// FromSlice 依次发射切片中的值后完成
func FromSlice[T any](values []T) *Observable[T] {
	return NewObservable(func(subscriber *Subscriber[T]) Unsubscribable {
		for _, value := range values {
			if subscriber.IsStopped() {
				return nil
			}
			subscriber.Next(value)
		}
		subscriber.Complete()
		return nil
	})
}

// Range 发射从start开始的count个连续整数
func Range(start, count int) *Observable[int] {
	return NewObservable(func(subscriber *Subscriber[int]) Unsubscribable {
		for i := 0; i < count; i++ {
			if subscriber.IsStopped() {
				return nil
			}
			subscriber.Next(start + i)
		}
		subscriber.Complete()
		return nil
	})
}

// Empty 立即完成
func Empty[T any]() *Observable[T] {
	return NewObservable(func(subscriber *Subscriber[T]) Unsubscribable {
		subscriber.Complete()
		return nil
	})
}

// Never 永不发射、永不终止
func Never[T any]() *Observable[T] {
	return NewObservable(func(*Subscriber[T]) Unsubscribable {
		return nil
	})
}

// Throw 立即以err终止
func Throw[T any](err error) *Observable[T] {
	return NewObservable(func(subscriber *Subscriber[T]) Unsubscribable {
		subscriber.Error(err)
		return nil
	})
}

// Defer 每次订阅时才调用factory创建真正的Observable
func Defer[T any](factory func() (*Observable[T], error)) *Observable[T] {
	return NewObservable(func(subscriber *Subscriber[T]) Unsubscribable {
		source, err := factory()
		if err != nil {
			subscriber.Error(err)
			return nil
		}
		if source == nil {
			subscriber.Error(ErrNilProjection)
			return nil
		}
		return source.subscribe(subscriber)
	})
}

// ============================================================================
// 时间相关
// ============================================================================

// Timer 延迟delay后发射0并完成
func Timer(delay time.Duration, scheduler Scheduler) *Observable[int] {
	return NewObservable(func(subscriber *Subscriber[int]) Unsubscribable {
		return scheduler.ScheduleWithDelay(func() {
			subscriber.Next(0)
			subscriber.Complete()
		}, delay)
	})
}

// Interval 每隔period发射一个递增整数，从0开始
func Interval(period time.Duration, scheduler Scheduler) *Observable[int] {
	return NewObservable(func(subscriber *Subscriber[int]) Unsubscribable {
		var (
			mu      sync.Mutex
			pending *Subscription
			count   int
			tick    func()
		)

		tick = func() {
			mu.Lock()
			value := count
			count++
			mu.Unlock()

			subscriber.Next(value)
			if subscriber.IsStopped() {
				return
			}

			next := scheduler.ScheduleWithDelay(tick, period)
			mu.Lock()
			pending = next
			mu.Unlock()
			if subscriber.IsStopped() {
				_ = next.Unsubscribe()
			}
		}

		first := scheduler.ScheduleWithDelay(tick, period)
		mu.Lock()
		if pending == nil {
			pending = first
		}
		mu.Unlock()

		return NewSubscription(func() {
			mu.Lock()
			current := pending
			mu.Unlock()
			if current != nil {
				_ = current.Unsubscribe()
			}
		})
	})
}
