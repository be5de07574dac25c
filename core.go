// Package rxflow provides reactive stream composition primitives for Go
// 基于订阅/释放图和操作符提升(lift)协议的响应式流组合库
package rxflow

import (
	"context"
	"time"
)

// ============================================================================
// 核心类型定义
// ============================================================================

// Observer 部分观察者，任意字段都可以省略
//
// 缺省的Next和Complete视为空操作；缺省的Error会把错误交给未处理错误处理器，
// 而不是静默丢弃。
type Observer[T any] struct {
	Next     func(value T)
	Error    func(err error)
	Complete func()
}

// Unsubscribable 可取消订阅的资源
//
// 存入Subscription的值需要是可比较的（通常是指针），这样Remove才能找到它。
type Unsubscribable interface {
	Unsubscribe() error
}

// Operator 操作符：给定下游订阅者，返回消费源类型的上游订阅者
type Operator[T, R any] interface {
	Call(destination *Subscriber[R]) *Subscriber[T]
}

// OperatorFunc 函数形式的操作符
type OperatorFunc[T, R any] func(destination *Subscriber[R]) *Subscriber[T]

// Call 实现Operator接口
func (f OperatorFunc[T, R]) Call(destination *Subscriber[R]) *Subscriber[T] {
	return f(destination)
}

// ============================================================================
// 调度器接口
// ============================================================================

// Scheduler 调度器接口，控制任务执行时机和方式
//
// 返回的Subscription在任务执行前取消即可阻止任务运行。
type Scheduler interface {
	// Now 调度器的当前时间（测试调度器为虚拟时间）
	Now() time.Time
	// Schedule 调度一个任务
	Schedule(action func()) *Subscription
	// ScheduleWithDelay 延迟调度一个任务
	ScheduleWithDelay(action func(), delay time.Duration) *Subscription
	// ScheduleWithContext 带上下文的调度
	ScheduleWithContext(ctx context.Context, action func()) *Subscription
}
