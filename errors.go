// Error types for rxflow
// 错误类型定义：panic包装、释放错误聚合
package rxflow

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrNilProjection 投影函数返回了nil Observable
var ErrNilProjection = errors.New("rxflow: projection returned a nil observable")

// ============================================================================
// PanicError
// ============================================================================

// PanicError 包装recover得到的panic值以及当时的调用栈
type PanicError struct {
	// Value 传给panic()的原始值
	Value any

	// Stack panic发生处的goroutine调用栈
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", e.Value, e.Stack)
}

// Unwrap 如果panic值本身是error则返回它
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func newPanicError(v any) *PanicError {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &PanicError{
		Value: v,
		Stack: string(buf[:n]),
	}
}

// errorFromPanic 把recover的值转换为error，error类型的值原样返回
func errorFromPanic(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return newPanicError(v)
}

// ============================================================================
// UnsubscriptionError
// ============================================================================

// UnsubscriptionError 一次释放过程中多个teardown失败时的聚合错误
type UnsubscriptionError struct {
	Errors []error
}

func (e *UnsubscriptionError) Error() string {
	if len(e.Errors) == 0 {
		return "unsubscription error with no errors"
	}

	parts := make([]string, 0, len(e.Errors))
	for i, err := range e.Errors {
		parts = append(parts, fmt.Sprintf("%d) %v", i+1, err))
	}
	return fmt.Sprintf("%d errors occurred during unsubscription:\n%s", len(e.Errors), strings.Join(parts, "\n"))
}

// Unwrap 支持errors.Is / errors.As遍历所有子错误
func (e *UnsubscriptionError) Unwrap() []error {
	return e.Errors
}

// appendTeardownError 追加错误，嵌套的UnsubscriptionError会被展开
func appendTeardownError(errs []error, err error) []error {
	if nested, ok := err.(*UnsubscriptionError); ok {
		return append(errs, nested.Errors...)
	}
	return append(errs, err)
}

// joinTeardownErrors 没有错误返回nil，单个错误原样返回，多个错误聚合
func joinTeardownErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &UnsubscriptionError{Errors: errs}
	}
}
