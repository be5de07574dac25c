package rxtest

import (
	"fmt"
	"math"

	"github.com/xinjiayu/rxflow"
)

// NotificationKind 通知类型
type NotificationKind int

const (
	// NextKind 下一个值
	NextKind NotificationKind = iota
	// ErrorKind 错误
	ErrorKind
	// CompleteKind 完成
	CompleteKind
)

func (k NotificationKind) String() string {
	switch k {
	case NextKind:
		return "next"
	case ErrorKind:
		return "error"
	case CompleteKind:
		return "complete"
	default:
		return fmt.Sprintf("NotificationKind(%d)", int(k))
	}
}

// Notification 一条具体化的通知
type Notification[T any] struct {
	Kind  NotificationKind
	Value T
	Err   error
}

// Next 创建值通知
func Next[T any](value T) Notification[T] {
	return Notification[T]{Kind: NextKind, Value: value}
}

// Error 创建错误通知
func Error[T any](err error) Notification[T] {
	return Notification[T]{Kind: ErrorKind, Err: err}
}

// Complete 创建完成通知
func Complete[T any]() Notification[T] {
	return Notification[T]{Kind: CompleteKind}
}

// Deliver 把通知发送给订阅者
func (n Notification[T]) Deliver(subscriber *rxflow.Subscriber[T]) {
	switch n.Kind {
	case NextKind:
		subscriber.Next(n.Value)
	case ErrorKind:
		subscriber.Error(n.Err)
	case CompleteKind:
		subscriber.Complete()
	}
}

func (n Notification[T]) String() string {
	switch n.Kind {
	case NextKind:
		return fmt.Sprintf("next(%v)", n.Value)
	case ErrorKind:
		return fmt.Sprintf("error(%v)", n.Err)
	default:
		return "complete"
	}
}

// Recorded 带帧号的通知
type Recorded[T any] struct {
	Frame        int
	Notification Notification[T]
}

func (r Recorded[T]) String() string {
	return fmt.Sprintf("%d:%v", r.Frame, r.Notification)
}

// NeverUnsubscribed 从未取消订阅时SubscriptionLog.Unsubscribed的取值
const NeverUnsubscribed = math.MaxInt

// SubscriptionLog 一次订阅的开始与结束帧
type SubscriptionLog struct {
	Subscribed   int
	Unsubscribed int
}

func (l SubscriptionLog) String() string {
	if l.Unsubscribed == NeverUnsubscribed {
		return fmt.Sprintf("^%d", l.Subscribed)
	}
	return fmt.Sprintf("^%d!%d", l.Subscribed, l.Unsubscribed)
}
