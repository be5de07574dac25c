package rxtest

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xinjiayu/rxflow"
)

// ============================================================================
// 通知记录器
// ============================================================================

// Recorder 在虚拟时间里订阅Observable并记录每条通知所在的帧
type Recorder[T any] struct {
	scheduler *TestScheduler

	mu           sync.Mutex
	messages     []Recorded[T]
	subscription *rxflow.Subscriber[T]
}

// Record 在帧0订阅source；unsubscription中'!'所在的帧会主动取消订阅，空字符串表示不取消
func Record[T any](scheduler *TestScheduler, source *rxflow.Observable[T], unsubscription string) *Recorder[T] {
	r := &Recorder[T]{scheduler: scheduler}

	scheduler.ScheduleAt(0, func() {
		subscription := source.Subscribe(rxflow.Observer[T]{
			Next:     func(value T) { r.record(Next(value)) },
			Error:    func(err error) { r.record(Error[T](err)) },
			Complete: func() { r.record(Complete[T]()) },
		})
		r.mu.Lock()
		r.subscription = subscription
		r.mu.Unlock()
	})

	frame, ok, err := unsubscriptionFrame(unsubscription)
	if err != nil {
		panic(err)
	}
	if ok {
		scheduler.ScheduleAt(time.Duration(frame)*Frame, func() {
			r.mu.Lock()
			subscription := r.subscription
			r.mu.Unlock()
			if subscription != nil {
				_ = subscription.Unsubscribe()
			}
		})
	}
	return r
}

func (r *Recorder[T]) record(notification Notification[T]) {
	frame := r.scheduler.CurrentFrame()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Recorded[T]{Frame: frame, Notification: notification})
}

// Messages 已记录的通知
func (r *Recorder[T]) Messages() []Recorded[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded[T](nil), r.messages...)
}

// Subscription 记录器持有的订阅，帧0之前为nil
func (r *Recorder[T]) Subscription() *rxflow.Subscriber[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subscription
}

// ============================================================================
// 断言
// ============================================================================

// AssertMarbles 断言记录的通知与期望弹珠图一致
func AssertMarbles[T any](t testing.TB, recorder *Recorder[T], expected string, values map[string]T, err error) bool {
	t.Helper()

	want, parseErr := ParseMarbles(expected, values, err)
	if !assert.NoError(t, parseErr, "invalid expected marbles") {
		return false
	}
	got := recorder.Messages()
	if len(want) == 0 && len(got) == 0 {
		return true
	}
	return assert.Equal(t, want, got, "marbles %q", expected)
}

// AssertSubscriptions 断言订阅记录与期望的订阅弹珠图一一对应；不传弹珠图表示从未被订阅
func AssertSubscriptions(t testing.TB, logs []SubscriptionLog, expected ...string) bool {
	t.Helper()

	want := make([]SubscriptionLog, 0, len(expected))
	for _, marbles := range expected {
		log, err := ParseSubscriptionMarbles(marbles)
		if !assert.NoError(t, err, "invalid subscription marbles") {
			return false
		}
		want = append(want, log)
	}
	if logs == nil {
		logs = []SubscriptionLog{}
	}
	return assert.Equal(t, want, logs)
}
