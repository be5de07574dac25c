// Lifecycle operators for rxflow
// 生命周期操作符：TakeUntil与Finally
package rxflow

// ============================================================================
// TakeUntil
// ============================================================================

// Notifier 可以作为TakeUntil通知源的序列，任意元素类型的*Observable都满足
type Notifier interface {
	subscribeSignal(onSignal func(), onError func(error)) Unsubscribable
}

// subscribeSignal 只关心是否发射过值，完成信号被忽略
func (o *Observable[T]) subscribeSignal(onSignal func(), onError func(error)) Unsubscribable {
	subscriber := newSubscriber(Observer[T]{
		Next:     func(T) { onSignal() },
		Error:    onError,
		Complete: func() {},
	})
	return o.subscribe(subscriber)
}

// TakeUntil 转发源序列的值，直到notifier发射第一个值
func (o *Observable[T]) TakeUntil(notifier Notifier) *Observable[T] {
	return TakeUntil(o, notifier)
}

// TakeUntil notifier发射第一个值时完成下游；notifier出错则转发错误；
// notifier只完成不发射值时不影响源序列。
func TakeUntil[T any](source *Observable[T], notifier Notifier) *Observable[T] {
	return Lift(source, Operator[T, T](OperatorFunc[T, T](func(destination *Subscriber[T]) *Subscriber[T] {
		var notification Unsubscribable
		stopNotifier := func() {
			if notification != nil {
				_ = notification.Unsubscribe()
			}
		}

		main := NewOperatorSubscriber(destination, Observer[T]{
			Next: destination.Next,
			Complete: func() {
				destination.Complete()
				stopNotifier()
			},
		})

		notification = notifier.subscribeSignal(func() {
			destination.Complete()
			stopNotifier()
		}, destination.Error)
		main.Add(notification)
		return main
	})))
}

// ============================================================================
// Finally
// ============================================================================

// Finally 订阅结束时执行action，恰好一次
func (o *Observable[T]) Finally(action func()) *Observable[T] {
	return Finally(o, action)
}

// Finally action作为teardown挂在操作符订阅者上，完成、错误、取消订阅哪条路径先到就由哪条触发；
// 下游处理函数panic时同样会执行。
//
// 需要绑定接收者时直接传入方法值，例如 source.Finally(wg.Done)。
func Finally[T any](source *Observable[T], action func()) *Observable[T] {
	return Lift(source, Operator[T, T](OperatorFunc[T, T](func(destination *Subscriber[T]) *Subscriber[T] {
		subscriber := NewOperatorSubscriber(destination, Observer[T]{
			Next: destination.Next,
		})
		subscriber.AddFunc(action)
		return subscriber
	})))
}
