// Scheduler implementations for rxflow
// 实现调度器系统，支持不同的执行策略
package rxflow

import (
	"context"
	"sync"
	"time"
)

// ============================================================================
// 立即调度器 - Immediate Scheduler
// ============================================================================

// immediateScheduler 立即在当前goroutine中执行任务
type immediateScheduler struct{}

// NewImmediateScheduler 创建立即调度器
func NewImmediateScheduler() Scheduler {
	return immediateScheduler{}
}

// Now 当前时间
func (immediateScheduler) Now() time.Time {
	return time.Now()
}

// Schedule 立即执行任务
func (immediateScheduler) Schedule(action func()) *Subscription {
	action()
	return NewSubscription(nil)
}

// ScheduleWithDelay 延迟执行任务，delay<=0时立即执行
func (s immediateScheduler) ScheduleWithDelay(action func(), delay time.Duration) *Subscription {
	if delay <= 0 {
		return s.Schedule(action)
	}
	return scheduleTimer(action, delay)
}

// ScheduleWithContext 带上下文执行任务
func (s immediateScheduler) ScheduleWithContext(ctx context.Context, action func()) *Subscription {
	if ctx.Err() != nil {
		return NewSubscription(nil)
	}
	return s.Schedule(action)
}

// ============================================================================
// 队列调度器 - Queue Scheduler
// ============================================================================

// queueScheduler 蹦床式调度：最外层调用负责依次执行，嵌套调度只入队
//
// 同步递归很深的链路可以借此把递归展开为循环，执行顺序保持不变。
type queueScheduler struct {
	mu         sync.Mutex
	queue      []queuedAction
	processing bool
}

type queuedAction struct {
	action       func()
	subscription *Subscription
}

// NewQueueScheduler 创建队列调度器
func NewQueueScheduler() Scheduler {
	return &queueScheduler{}
}

// Now 当前时间
func (s *queueScheduler) Now() time.Time {
	return time.Now()
}

// Schedule 入队；如果没有正在处理的队列，就在当前调用中处理
func (s *queueScheduler) Schedule(action func()) *Subscription {
	subscription := NewSubscription(nil)

	s.mu.Lock()
	s.queue = append(s.queue, queuedAction{action: action, subscription: subscription})
	if s.processing {
		s.mu.Unlock()
		return subscription
	}
	s.processing = true
	s.mu.Unlock()

	s.drain()
	return subscription
}

// ScheduleWithDelay 延迟到期后再入队
func (s *queueScheduler) ScheduleWithDelay(action func(), delay time.Duration) *Subscription {
	if delay <= 0 {
		return s.Schedule(action)
	}

	subscription := NewSubscription(nil)
	subscription.Add(scheduleTimer(func() {
		subscription.Add(s.Schedule(action))
	}, delay))
	return subscription
}

// ScheduleWithContext 带上下文调度任务
func (s *queueScheduler) ScheduleWithContext(ctx context.Context, action func()) *Subscription {
	return s.Schedule(func() {
		if ctx.Err() == nil {
			action()
		}
	})
}

// drain 依次执行队列中的任务，已取消的任务被跳过
//
// 某个任务panic时，排在它后面的任务全部取消，不会在之后无关的Schedule调用中执行。
func (s *queueScheduler) drain() {
	drained := false
	defer func() {
		s.mu.Lock()
		s.processing = false
		var abandoned []queuedAction
		if !drained {
			abandoned, s.queue = s.queue, nil
		}
		s.mu.Unlock()

		for _, queued := range abandoned {
			_ = queued.subscription.Unsubscribe()
		}
	}()

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			drained = true
			s.mu.Unlock()
			return
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if !next.subscription.Closed() {
			next.action()
		}
	}
}

// ============================================================================
// 新线程调度器 - New Thread Scheduler
// ============================================================================

// newThreadScheduler 为每个任务创建新的goroutine
type newThreadScheduler struct{}

// NewNewThreadScheduler 创建新线程调度器
func NewNewThreadScheduler() Scheduler {
	return newThreadScheduler{}
}

// Now 当前时间
func (newThreadScheduler) Now() time.Time {
	return time.Now()
}

// Schedule 在新goroutine中执行任务
func (s newThreadScheduler) Schedule(action func()) *Subscription {
	return s.ScheduleWithContext(context.Background(), action)
}

// ScheduleWithDelay 延迟在新goroutine中执行任务
func (newThreadScheduler) ScheduleWithDelay(action func(), delay time.Duration) *Subscription {
	return scheduleTimer(action, delay)
}

// ScheduleWithContext 带上下文在新goroutine中执行任务
func (newThreadScheduler) ScheduleWithContext(ctx context.Context, action func()) *Subscription {
	childCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer cancel()
		if childCtx.Err() != nil {
			return
		}
		action()
	}()

	return NewSubscription(cancel)
}

// scheduleTimer 到期后在timer的goroutine中执行，取消即停止timer
func scheduleTimer(action func(), delay time.Duration) *Subscription {
	subscription := NewSubscription(nil)
	timer := time.AfterFunc(delay, func() {
		if !subscription.Closed() {
			action()
		}
	})
	subscription.AddFunc(func() {
		timer.Stop()
	})
	return subscription
}

// ============================================================================
// 默认调度器
// ============================================================================

var (
	// ImmediateScheduler 立即调度器实例
	ImmediateScheduler Scheduler = NewImmediateScheduler()

	// NewThreadScheduler 新线程调度器实例
	NewThreadScheduler Scheduler = NewNewThreadScheduler()

	// DefaultScheduler 默认调度器
	DefaultScheduler = NewThreadScheduler
)
