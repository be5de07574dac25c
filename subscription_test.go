// Subscription tests for rxflow
// Subscription释放图测试
package rxflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingTeardown 释放时返回固定错误
type failingTeardown struct {
	err   error
	calls int
}

func (f *failingTeardown) Unsubscribe() error {
	f.calls++
	return f.err
}

// captureUnhandledErrors 在测试期间收集未处理错误，结束时恢复默认配置
func captureUnhandledErrors(t *testing.T) *[]error {
	t.Helper()
	var errs []error
	Configure(WithUnhandledErrorHandler(func(err error) { errs = append(errs, err) }))
	t.Cleanup(ResetConfig)
	return &errs
}

// TestSubscriptionUnsubscribeIdempotent 测试重复释放只执行一次
func TestSubscriptionUnsubscribeIdempotent(t *testing.T) {
	calls := 0
	s := NewSubscription(func() { calls++ })

	assert.False(t, s.Closed())
	require.NoError(t, s.Unsubscribe())
	require.NoError(t, s.Unsubscribe())

	assert.True(t, s.Closed())
	assert.Equal(t, 1, calls)
}

// TestSubscriptionTeardownOrder 测试先执行初始动作再按添加顺序释放子资源
func TestSubscriptionTeardownOrder(t *testing.T) {
	var order []string
	s := NewSubscription(func() { order = append(order, "action") })
	s.AddFunc(func() { order = append(order, "first") })
	s.AddFunc(func() { order = append(order, "second") })
	s.Add(NewSubscription(func() { order = append(order, "third") }))

	require.NoError(t, s.Unsubscribe())
	assert.Equal(t, []string{"action", "first", "second", "third"}, order)
}

// TestSubscriptionAddAfterClose 测试释放后添加的子资源立即被释放
func TestSubscriptionAddAfterClose(t *testing.T) {
	s := NewSubscription(nil)
	require.NoError(t, s.Unsubscribe())

	child := NewSubscription(nil)
	s.Add(child)

	assert.True(t, child.Closed())
	assert.Equal(t, 0, s.size())
}

// TestSubscriptionAddIgnoresSelfNilAndClosed 测试忽略nil、自身和已释放的子资源
func TestSubscriptionAddIgnoresSelfNilAndClosed(t *testing.T) {
	s := NewSubscription(nil)

	var nilSubscription *Subscription
	s.Add(nil)
	s.Add(nilSubscription)
	s.Add(s)

	closed := NewSubscription(nil)
	require.NoError(t, closed.Unsubscribe())
	s.Add(closed)

	assert.Equal(t, 0, s.size())
}

// TestSubscriptionAddDuplicate 测试同一子资源只持有一次
func TestSubscriptionAddDuplicate(t *testing.T) {
	s := NewSubscription(nil)
	child := NewSubscription(nil)

	s.Add(child)
	s.Add(child)

	assert.Equal(t, 1, s.size())
}

// TestSubscriptionRemove 测试摘除的子资源不会被释放
func TestSubscriptionRemove(t *testing.T) {
	s := NewSubscription(nil)
	kept := NewSubscription(nil)
	removed := NewSubscription(nil)
	s.Add(kept)
	s.Add(removed)

	s.Remove(removed)
	s.Remove(NewSubscription(nil))
	assert.Equal(t, 1, s.size())

	require.NoError(t, s.Unsubscribe())
	assert.True(t, kept.Closed())
	assert.False(t, removed.Closed())
}

// TestSubscriptionSingleTeardownError 测试单个失败原样返回
func TestSubscriptionSingleTeardownError(t *testing.T) {
	boom := errors.New("boom")
	s := NewSubscription(nil)
	failing := &failingTeardown{err: boom}
	s.Add(failing)

	after := NewSubscription(nil)
	s.Add(after)

	err := s.Unsubscribe()
	assert.Same(t, boom, err)
	assert.True(t, after.Closed(), "later teardowns still run")
	assert.Equal(t, 1, failing.calls)
}

// TestSubscriptionAggregatesTeardownErrors 测试多个失败被聚合并展开嵌套
func TestSubscriptionAggregatesTeardownErrors(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	third := errors.New("third")

	nested := NewSubscription(nil)
	nested.Add(&failingTeardown{err: second})
	nested.Add(&failingTeardown{err: third})

	s := NewSubscription(nil)
	s.Add(&failingTeardown{err: first})
	s.Add(nested)

	err := s.Unsubscribe()

	var aggregate *UnsubscriptionError
	require.ErrorAs(t, err, &aggregate)
	assert.Equal(t, []error{first, second, third}, aggregate.Errors)
	assert.ErrorIs(t, err, second)
	assert.Contains(t, err.Error(), "3 errors occurred")
}

// TestSubscriptionTeardownPanic 测试teardown中的panic转换为PanicError且不影响其余teardown
func TestSubscriptionTeardownPanic(t *testing.T) {
	ran := false
	s := NewSubscription(func() { panic("action exploded") })
	s.AddFunc(func() { ran = true })

	err := s.Unsubscribe()

	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "action exploded", panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)
	assert.True(t, ran)
}

// TestSubscriptionAddAfterCloseReportsError 测试释放后添加且释放失败时上报未处理错误
func TestSubscriptionAddAfterCloseReportsError(t *testing.T) {
	unhandled := captureUnhandledErrors(t)
	boom := errors.New("late teardown failed")

	s := NewSubscription(nil)
	require.NoError(t, s.Unsubscribe())
	s.Add(&failingTeardown{err: boom})

	assert.Equal(t, []error{boom}, *unhandled)
}

// TestSubscriptionID 测试ID稳定且互不相同
func TestSubscriptionID(t *testing.T) {
	a := NewSubscription(nil)
	b := NewSubscription(nil)

	assert.Equal(t, a.ID(), a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 7, int(a.ID().Version()))
}
