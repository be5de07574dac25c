// Subscription implementation for rxflow
// 可组合、幂等的释放句柄，所有需要清理的资源都挂在Subscription上
package rxflow

import (
	"reflect"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// ============================================================================
// Subscription
// ============================================================================

// Subscription 订阅句柄，按添加顺序持有子资源
//
// 子资源从不反向引用父Subscription；父节点在子资源提前结束时通过Remove将其摘除。
type Subscription struct {
	mu        sync.Mutex
	closed    bool
	action    func()
	teardowns []Unsubscribable

	idOnce sync.Once
	id     uuid.UUID
}

// NewSubscription 创建订阅，action在释放时最先执行（可以为nil）
func NewSubscription(action func()) *Subscription {
	return &Subscription{action: action}
}

// subscription 返回自身，嵌入Subscription的类型也因此获得该方法
func (s *Subscription) subscription() *Subscription {
	return s
}

// ID 订阅的唯一标识，用于日志与指标关联
func (s *Subscription) ID() uuid.UUID {
	s.idOnce.Do(func() {
		id, err := uuid.NewV7()
		if err != nil {
			id = uuid.New()
		}
		s.id = id
	})
	return s.id
}

// Closed 检查是否已释放
func (s *Subscription) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Add 添加子资源；如果已经释放，子资源会立即被释放
func (s *Subscription) Add(teardown Unsubscribable) {
	if isNilTeardown(teardown) {
		return
	}
	if holder, ok := teardown.(interface{ subscription() *Subscription }); ok {
		child := holder.subscription()
		if child == s || child.Closed() {
			return
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		if err := runTeardown(teardown); err != nil {
			reportTeardownError(s, err)
		}
		return
	}

	for _, existing := range s.teardowns {
		if sameTeardown(existing, teardown) {
			s.mu.Unlock()
			return
		}
	}
	s.teardowns = append(s.teardowns, teardown)
	s.mu.Unlock()
}

// AddFunc 把函数包装成子Subscription添加，返回值可用于Remove
func (s *Subscription) AddFunc(action func()) *Subscription {
	child := NewSubscription(action)
	s.Add(child)
	return child
}

// Remove 摘除子资源但不执行它
func (s *Subscription) Remove(teardown Unsubscribable) {
	if isNilTeardown(teardown) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.teardowns {
		if sameTeardown(existing, teardown) {
			s.teardowns = slices.Delete(s.teardowns, i, i+1)
			return
		}
	}
}

// Unsubscribe 释放自身及全部子资源
//
// 重复调用是空操作。任何teardown失败都不会阻止其余teardown执行；
// 失败会被收集，单个直接返回，多个聚合为UnsubscriptionError。
func (s *Subscription) Unsubscribe() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	action, teardowns := s.action, s.teardowns
	s.action, s.teardowns = nil, nil
	s.mu.Unlock()

	var errs []error
	if action != nil {
		if err := runAction(action); err != nil {
			errs = append(errs, err)
		}
	}
	for _, teardown := range teardowns {
		if err := runTeardown(teardown); err != nil {
			errs = appendTeardownError(errs, err)
		}
	}
	return joinTeardownErrors(errs)
}

// size 当前持有的子资源数量
func (s *Subscription) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.teardowns)
}

// ============================================================================
// 工具函数
// ============================================================================

func runAction(action func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()

	action()
	return nil
}

func runTeardown(teardown Unsubscribable) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()

	return teardown.Unsubscribe()
}

// reportTeardownError 没有调用方可以接收的释放错误
func reportTeardownError(s *Subscription, err error) {
	cfg := CurrentConfig()
	cfg.Logger.Warn("teardown failed", "subscription_id", s.ID().String(), "error", err)
	cfg.Metrics.IncrementCounter(MetricTeardownFailures, nil)
	reportUnhandledError(err)
}

func isNilTeardown(teardown Unsubscribable) bool {
	if teardown == nil {
		return true
	}
	v := reflect.ValueOf(teardown)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// sameTeardown 只比较可比较的动态类型，避免对func等类型做==时panic
func sameTeardown(a, b Unsubscribable) bool {
	if !reflect.TypeOf(a).Comparable() {
		return false
	}
	return a == b
}
