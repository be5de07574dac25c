// Package rxtest provides virtual-time testing tools for rxflow
// 虚拟时间调度器、弹珠图解析以及冷/热测试Observable
package rxtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xinjiayu/rxflow"
)

// Frame 弹珠图中一个字符对应的虚拟时长
const Frame = time.Millisecond

// DefaultMaxFrames Flush默认推进到的最大帧数，防止无限序列让Flush不返回
const DefaultMaxFrames = 750

// ============================================================================
// 测试调度器 - Test Scheduler
// ============================================================================

// TestScheduler 用于测试的调度器，可以手动控制虚拟时间
//
// 同一时刻的任务按调度顺序执行；任务执行期间新调度的同一时刻任务排在后面。
type TestScheduler struct {
	mu        sync.Mutex
	epoch     time.Time
	clock     time.Duration
	seq       int
	queue     []*scheduledAction
	MaxFrames int
}

// scheduledAction 调度的动作
type scheduledAction struct {
	at           time.Duration
	seq          int
	action       func()
	subscription *rxflow.Subscription
}

// NewTestScheduler 创建测试调度器
func NewTestScheduler() *TestScheduler {
	return &TestScheduler{
		epoch:     time.Unix(0, 0).UTC(),
		MaxFrames: DefaultMaxFrames,
	}
}

// Now 虚拟时间
func (s *TestScheduler) Now() time.Time {
	return s.epoch.Add(s.Clock())
}

// Clock 从虚拟时间起点开始经过的时长
func (s *TestScheduler) Clock() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

// CurrentFrame 当前虚拟时间对应的帧号
func (s *TestScheduler) CurrentFrame() int {
	return int(s.Clock() / Frame)
}

// Schedule 在当前虚拟时刻调度任务
func (s *TestScheduler) Schedule(action func()) *rxflow.Subscription {
	return s.ScheduleWithDelay(action, 0)
}

// ScheduleWithDelay 延迟调度任务
func (s *TestScheduler) ScheduleWithDelay(action func(), delay time.Duration) *rxflow.Subscription {
	if delay < 0 {
		delay = 0
	}
	return s.ScheduleAt(s.Clock()+delay, action)
}

// ScheduleWithContext 带上下文调度任务，执行时ctx已结束则跳过
func (s *TestScheduler) ScheduleWithContext(ctx context.Context, action func()) *rxflow.Subscription {
	return s.Schedule(func() {
		if ctx.Err() == nil {
			action()
		}
	})
}

// ScheduleAt 在指定虚拟时刻调度任务
func (s *TestScheduler) ScheduleAt(at time.Duration, action func()) *rxflow.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := &scheduledAction{at: at, seq: s.seq, action: action}
	s.seq++
	entry.subscription = rxflow.NewSubscription(func() {
		s.remove(entry)
	})

	i := sort.Search(len(s.queue), func(i int) bool {
		queued := s.queue[i]
		return queued.at > at || (queued.at == at && queued.seq > entry.seq)
	})
	s.queue = append(s.queue, nil)
	copy(s.queue[i+1:], s.queue[i:])
	s.queue[i] = entry
	return entry.subscription
}

// AdvanceBy 推进时间
func (s *TestScheduler) AdvanceBy(d time.Duration) {
	s.AdvanceTo(s.Clock() + d)
}

// AdvanceTo 推进时间到指定时刻，执行期间到期的任务
func (s *TestScheduler) AdvanceTo(at time.Duration) {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 || s.queue[0].at > at {
			if at > s.clock {
				s.clock = at
			}
			s.mu.Unlock()
			return
		}

		next := s.queue[0]
		s.queue = s.queue[1:]
		if next.at > s.clock {
			s.clock = next.at
		}
		s.mu.Unlock()

		// 解锁以允许action执行时调度新任务
		next.action()
	}
}

// Flush 执行全部任务，最多推进到MaxFrames帧
func (s *TestScheduler) Flush() {
	s.AdvanceTo(time.Duration(s.MaxFrames) * Frame)
}

// Pending 尚未执行的任务数量
func (s *TestScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// remove 取消尚未执行的任务；由任务的Subscription在释放时调用
func (s *TestScheduler) remove(entry *scheduledAction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, queued := range s.queue {
		if queued == entry {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}

var _ rxflow.Scheduler = (*TestScheduler)(nil)
