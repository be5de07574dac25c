// Blocking operators for rxflow
// 阻塞操作符：在异步调度器上等待序列结束
package rxflow

import (
	"context"
	"sync"
)

// ============================================================================
// 阻塞操作符实现
// ============================================================================

// BlockingSubscribe 阻塞订阅，直到序列终止或ctx结束
//
// ctx结束时取消订阅并返回ctx.Err()。
func BlockingSubscribe[T any](ctx context.Context, source *Observable[T], onNext func(T)) error {
	var (
		once   sync.Once
		result error
	)
	done := make(chan struct{})
	finish := func(err error) {
		once.Do(func() {
			result = err
			close(done)
		})
	}

	subscription := source.Subscribe(Observer[T]{
		Next:     onNext,
		Error:    finish,
		Complete: func() { finish(nil) },
	})
	defer func() { _ = subscription.Unsubscribe() }()

	select {
	case <-done:
	case <-ctx.Done():
		finish(ctx.Err())
	}

	<-done
	return result
}

// ToSlice 阻塞收集全部值；出错时同时返回已经收到的值
func ToSlice[T any](ctx context.Context, source *Observable[T]) ([]T, error) {
	var (
		mu     sync.Mutex
		values []T
	)

	err := BlockingSubscribe(ctx, source, func(value T) {
		mu.Lock()
		values = append(values, value)
		mu.Unlock()
	})

	mu.Lock()
	defer mu.Unlock()
	return values, err
}
