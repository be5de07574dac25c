// Transformation operators for rxflow
// 转换操作符：Map与Filter
package rxflow

// Map 转换操作符，transformer返回错误时以该错误终止
func Map[T, R any](source *Observable[T], transformer func(value T) (R, error)) *Observable[R] {
	return Lift(source, Operator[T, R](OperatorFunc[T, R](func(destination *Subscriber[R]) *Subscriber[T] {
		return NewOperatorSubscriber(destination, Observer[T]{
			Next: func(value T) {
				result, err := transformer(value)
				if err != nil {
					destination.Error(err)
					return
				}
				destination.Next(result)
			},
		})
	})))
}

// Filter 过滤操作符
func (o *Observable[T]) Filter(predicate func(value T) bool) *Observable[T] {
	return o.Lift(OperatorFunc[T, T](func(destination *Subscriber[T]) *Subscriber[T] {
		return NewOperatorSubscriber(destination, Observer[T]{
			Next: func(value T) {
				if predicate(value) {
					destination.Next(value)
				}
			},
		})
	}))
}
