package rxflow_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xinjiayu/rxflow"
)

// ============================================================================
// 调度器测试
// ============================================================================

// TestImmediateScheduler 测试立即在当前goroutine执行
func TestImmediateScheduler(t *testing.T) {
	ran := false
	subscription := rxflow.ImmediateScheduler.Schedule(func() { ran = true })

	assert.True(t, ran)
	require.NoError(t, subscription.Unsubscribe())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	skipped := true
	rxflow.ImmediateScheduler.ScheduleWithContext(ctx, func() { skipped = false })
	assert.True(t, skipped)
}

// TestQueueSchedulerTrampoline 测试嵌套调度被展开为循环且保持顺序
func TestQueueSchedulerTrampoline(t *testing.T) {
	scheduler := rxflow.NewQueueScheduler()
	var order []string

	scheduler.Schedule(func() {
		order = append(order, "outer start")
		scheduler.Schedule(func() { order = append(order, "first nested") })
		scheduler.Schedule(func() { order = append(order, "second nested") })
		order = append(order, "outer end")
	})

	assert.Equal(t, []string{"outer start", "outer end", "first nested", "second nested"}, order)
}

// TestQueueSchedulerCancelledAction 测试入队后取消的任务不会执行
func TestQueueSchedulerCancelledAction(t *testing.T) {
	scheduler := rxflow.NewQueueScheduler()
	ran := false

	scheduler.Schedule(func() {
		pending := scheduler.Schedule(func() { ran = true })
		require.NoError(t, pending.Unsubscribe())
	})

	assert.False(t, ran)
}

// TestQueueSchedulerPanicCancelsQueuedActions 测试任务panic后排在后面的任务被取消
func TestQueueSchedulerPanicCancelsQueuedActions(t *testing.T) {
	scheduler := rxflow.NewQueueScheduler()
	var (
		ran    []string
		behind *rxflow.Subscription
	)

	assert.PanicsWithValue(t, "boom", func() {
		scheduler.Schedule(func() {
			behind = scheduler.Schedule(func() { ran = append(ran, "queued behind panic") })
			panic("boom")
		})
	})
	require.NotNil(t, behind)
	assert.True(t, behind.Closed())

	scheduler.Schedule(func() { ran = append(ran, "unrelated") })
	assert.Equal(t, []string{"unrelated"}, ran)
}

// TestNewThreadScheduler 测试在其他goroutine执行
func TestNewThreadScheduler(t *testing.T) {
	done := make(chan struct{})
	rxflow.NewThreadScheduler.Schedule(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduled action did not run")
	}
}

// TestScheduleWithDelayCancelled 测试延迟任务在到期前取消
func TestScheduleWithDelayCancelled(t *testing.T) {
	schedulers := map[string]rxflow.Scheduler{
		"immediate":  rxflow.ImmediateScheduler,
		"queue":      rxflow.NewQueueScheduler(),
		"new thread": rxflow.NewThreadScheduler,
	}

	for name, scheduler := range schedulers {
		t.Run(name, func(t *testing.T) {
			var ran atomic.Bool
			subscription := scheduler.ScheduleWithDelay(func() { ran.Store(true) }, 20*time.Millisecond)
			require.NoError(t, subscription.Unsubscribe())

			time.Sleep(50 * time.Millisecond)
			assert.False(t, ran.Load())
		})
	}
}

// TestScheduleWithDelayRuns 测试延迟任务到期执行
func TestScheduleWithDelayRuns(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	start := time.Now()
	rxflow.NewQueueScheduler().ScheduleWithDelay(wg.Done, 10*time.Millisecond)
	wg.Wait()

	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

// ============================================================================
// 阻塞操作符测试
// ============================================================================

// TestBlockingSubscribe 测试等待异步序列结束
func TestBlockingSubscribe(t *testing.T) {
	var sum int
	err := rxflow.BlockingSubscribe(context.Background(), rxflow.Range(1, 4).Finally(func() {}), func(value int) {
		sum += value
	})

	require.NoError(t, err)
	assert.Equal(t, 10, sum)
}

// TestBlockingSubscribeError 测试返回序列的错误以及出错前收到的值
func TestBlockingSubscribeError(t *testing.T) {
	boom := errors.New("boom")
	source := rxflow.Map(rxflow.Range(1, 5), func(value int) (int, error) {
		if value == 3 {
			return 0, boom
		}
		return value, nil
	})

	values, err := rxflow.ToSlice(context.Background(), source)

	assert.Same(t, boom, err)
	assert.Equal(t, []int{1, 2}, values)
}

// TestBlockingSubscribeContextCancel 测试ctx结束时取消订阅并返回ctx错误
func TestBlockingSubscribeContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	released := make(chan struct{})
	source := rxflow.Never[int]().Finally(func() { close(released) })

	err := rxflow.BlockingSubscribe(ctx, source, func(int) {})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("subscription was not released")
	}
}

// TestBlockingSubscribeAsync 测试在新线程调度器上发射的序列
func TestBlockingSubscribeAsync(t *testing.T) {
	source := rxflow.NewObservable(func(subscriber *rxflow.Subscriber[int]) rxflow.Unsubscribable {
		return rxflow.NewThreadScheduler.Schedule(func() {
			for i := 0; i < 5; i++ {
				subscriber.Next(i)
			}
			subscriber.Complete()
		})
	})

	values, err := rxflow.ToSlice(context.Background(), source)

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, values)
}
