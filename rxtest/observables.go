package rxtest

import (
	"sync"
	"time"

	"github.com/xinjiayu/rxflow"
)

// subscriptionLogger 记录测试Observable被订阅与取消订阅的帧
type subscriptionLogger struct {
	mu   sync.Mutex
	logs []SubscriptionLog
}

func (l *subscriptionLogger) logSubscribed(frame int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, SubscriptionLog{Subscribed: frame, Unsubscribed: NeverUnsubscribed})
	return len(l.logs) - 1
}

func (l *subscriptionLogger) logUnsubscribed(index, frame int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs[index].Unsubscribed = frame
}

// Subscriptions 返回全部订阅记录的副本
func (l *subscriptionLogger) Subscriptions() []SubscriptionLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]SubscriptionLog(nil), l.logs...)
}

// ============================================================================
// 冷Observable
// ============================================================================

// ColdObservable 每次订阅都从订阅时刻起重放弹珠图
type ColdObservable[T any] struct {
	subscriptionLogger
	scheduler  *TestScheduler
	messages   []Recorded[T]
	observable *rxflow.Observable[T]
}

// Cold 创建冷Observable，values与err的含义同ParseMarbles
func Cold[T any](scheduler *TestScheduler, marbles string, values map[string]T, err error) *ColdObservable[T] {
	c := &ColdObservable[T]{
		scheduler: scheduler,
		messages:  MustParseMarbles(marbles, values, err),
	}
	c.observable = rxflow.NewObservable(c.produce)
	return c
}

// Observable 作为rxflow.Observable使用
func (c *ColdObservable[T]) Observable() *rxflow.Observable[T] {
	return c.observable
}

func (c *ColdObservable[T]) produce(subscriber *rxflow.Subscriber[T]) rxflow.Unsubscribable {
	index := c.logSubscribed(c.scheduler.CurrentFrame())
	subscription := rxflow.NewSubscription(func() {
		c.logUnsubscribed(index, c.scheduler.CurrentFrame())
	})

	for _, message := range c.messages {
		notification := message.Notification
		subscription.Add(c.scheduler.ScheduleWithDelay(func() {
			notification.Deliver(subscriber)
		}, time.Duration(message.Frame)*Frame))
	}
	return subscription
}

// ============================================================================
// 热Observable
// ============================================================================

// HotObservable 按绝对帧发射，订阅者只能收到订阅之后的通知
type HotObservable[T any] struct {
	subscriptionLogger
	scheduler  *TestScheduler
	observable *rxflow.Observable[T]

	mu          sync.Mutex
	subscribers []*rxflow.Subscriber[T]
}

// Hot 创建热Observable；'^'所在位置为帧0，之前的通知发生在负帧
func Hot[T any](scheduler *TestScheduler, marbles string, values map[string]T, err error) *HotObservable[T] {
	h := &HotObservable[T]{scheduler: scheduler}
	for _, message := range MustParseMarbles(marbles, values, err) {
		notification := message.Notification
		scheduler.ScheduleAt(time.Duration(message.Frame)*Frame, func() {
			h.emit(notification)
		})
	}
	h.observable = rxflow.NewObservable(h.produce)
	return h
}

// Observable 作为rxflow.Observable使用
func (h *HotObservable[T]) Observable() *rxflow.Observable[T] {
	return h.observable
}

func (h *HotObservable[T]) produce(subscriber *rxflow.Subscriber[T]) rxflow.Unsubscribable {
	index := h.logSubscribed(h.scheduler.CurrentFrame())

	h.mu.Lock()
	h.subscribers = append(h.subscribers, subscriber)
	h.mu.Unlock()

	return rxflow.NewSubscription(func() {
		h.mu.Lock()
		for i, s := range h.subscribers {
			if s == subscriber {
				h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
				break
			}
		}
		h.mu.Unlock()
		h.logUnsubscribed(index, h.scheduler.CurrentFrame())
	})
}

func (h *HotObservable[T]) emit(notification Notification[T]) {
	h.mu.Lock()
	subscribers := append([]*rxflow.Subscriber[T](nil), h.subscribers...)
	h.mu.Unlock()

	for _, subscriber := range subscribers {
		notification.Deliver(subscriber)
	}
}
