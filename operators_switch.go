// Switch-first operators for rxflow
// SwitchFirst / SwitchMapFirst：同一时刻最多一个活动的内部序列，活动期间到达的外部值被丢弃
package rxflow

import (
	"sync"
)

// ============================================================================
// 公开操作符
// ============================================================================

// SwitchFirst 展平Observable序列，内部序列活动期间到达的Observable被丢弃
func SwitchFirst[T any](source *Observable[*Observable[T]]) *Observable[T] {
	return Lift(source, Operator[*Observable[T], T](&switchFirstOperator[*Observable[T], T, T]{
		name: "switchFirst",
		project: func(inner *Observable[T], _ int) (*Observable[T], error) {
			return inner, nil
		},
		selector: selectInner[*Observable[T], T],
	}))
}

// SwitchMapFirst 把每个被接纳的外部值投影为内部Observable并转发其值
//
// index只对被接纳的外部值递增。
func SwitchMapFirst[T, R any](source *Observable[T], project func(value T, index int) (*Observable[R], error)) *Observable[R] {
	return Lift(source, Operator[T, R](&switchFirstOperator[T, R, R]{
		name:     "switchMapFirst",
		project:  project,
		selector: selectInner[T, R],
	}))
}

// SwitchMapFirstWithSelector 与SwitchMapFirst相同，但用selector组合外部值与内部值
//
// innerIndex在每个内部序列中从0开始计数。
func SwitchMapFirstWithSelector[T, I, R any](
	source *Observable[T],
	project func(value T, index int) (*Observable[I], error),
	selector func(outer T, inner I, outerIndex, innerIndex int) (R, error),
) *Observable[R] {
	return Lift(source, Operator[T, R](&switchFirstOperator[T, I, R]{
		name:     "switchMapFirst",
		project:  project,
		selector: selector,
	}))
}

func selectInner[T, R any](_ T, inner R, _, _ int) (R, error) {
	return inner, nil
}

// ============================================================================
// 操作符实现
// ============================================================================

type switchFirstOperator[T, I, R any] struct {
	name     string
	project  func(value T, index int) (*Observable[I], error)
	selector func(outer T, inner I, outerIndex, innerIndex int) (R, error)
}

// Call 为每次订阅创建独立的协调状态
func (op *switchFirstOperator[T, I, R]) Call(destination *Subscriber[R]) *Subscriber[T] {
	state := &switchFirstState[T, I, R]{
		op:          op,
		destination: destination,
		labels:      map[string]string{"operator": op.name},
	}
	// 外部错误使用默认行为：直接转发给下游，下游终止时释放活动的内部订阅
	state.outer = NewOperatorSubscriber(destination, Observer[T]{
		Next:     state.outerNext,
		Complete: state.outerComplete,
	})
	return state.outer
}

// switchFirstState 单次订阅的协调状态
//
// 所有状态修改都在调用下游之前完成，下游同步重入时看到的总是最新状态。
type switchFirstState[T, I, R any] struct {
	op          *switchFirstOperator[T, I, R]
	destination *Subscriber[R]
	outer       *Subscriber[T]
	labels      map[string]string

	mu             sync.Mutex
	outerIndex     int
	hasActiveInner bool
	outerCompleted bool
	inner          *Subscriber[I]
}

func (s *switchFirstState[T, I, R]) outerNext(value T) {
	s.mu.Lock()
	if s.hasActiveInner {
		s.mu.Unlock()
		CurrentConfig().Metrics.IncrementCounter(MetricSwitchFirstDropped, s.labels)
		return
	}
	outerIndex := s.outerIndex
	s.outerIndex++
	s.hasActiveInner = true
	s.mu.Unlock()

	source, err := s.project(value, outerIndex)
	if err != nil {
		s.destination.Error(err)
		return
	}

	CurrentConfig().Metrics.IncrementCounter(MetricSwitchFirstAdmitted, s.labels)
	s.subscribeInner(source, value, outerIndex)
}

func (s *switchFirstState[T, I, R]) subscribeInner(source *Observable[I], outerValue T, outerIndex int) {
	innerIndex := 0
	var inner *Subscriber[I]
	inner = newSubscriber(Observer[I]{
		Next: func(value I) {
			index := innerIndex
			innerIndex++

			result, err := s.selectResult(outerValue, value, outerIndex, index)
			if err != nil {
				s.destination.Error(err)
				return
			}
			s.destination.Next(result)
		},
		Error: s.destination.Error,
		Complete: func() {
			s.innerComplete(inner)
		},
	})

	s.mu.Lock()
	s.inner = inner
	s.mu.Unlock()

	// 内部订阅登记在下游的释放图上，外部序列完成后的自我释放不会波及它
	s.destination.Add(inner)
	source.subscribe(inner)
}

func (s *switchFirstState[T, I, R]) innerComplete(inner *Subscriber[I]) {
	s.mu.Lock()
	if s.inner == inner {
		s.inner = nil
	}
	s.hasActiveInner = false
	completeNow := s.outerCompleted
	s.mu.Unlock()

	s.destination.Remove(inner)
	if completeNow {
		s.destination.Complete()
	}
}

func (s *switchFirstState[T, I, R]) outerComplete() {
	s.mu.Lock()
	s.outerCompleted = true
	active := s.hasActiveInner
	s.mu.Unlock()

	if !active {
		s.destination.Complete()
		return
	}
	// 等待内部序列期间，已完成的外部订阅者不再留在下游的释放图上
	s.destination.Remove(s.outer)
}

// project 调用投影函数，panic与nil结果都转换为错误
func (s *switchFirstState[T, I, R]) project(value T, index int) (source *Observable[I], err error) {
	defer func() {
		if r := recover(); r != nil {
			source, err = nil, errorFromPanic(r)
		}
	}()

	source, err = s.op.project(value, index)
	if err == nil && source == nil {
		err = ErrNilProjection
	}
	return source, err
}

// selectResult 调用结果选择函数，panic转换为错误
func (s *switchFirstState[T, I, R]) selectResult(outer T, inner I, outerIndex, innerIndex int) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero R
			result, err = zero, errorFromPanic(r)
		}
	}()

	return s.op.selector(outer, inner, outerIndex, innerIndex)
}
