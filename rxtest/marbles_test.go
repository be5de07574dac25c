package rxtest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseMarbles 测试帧号、分组与终止符号
func TestParseMarbles(t *testing.T) {
	boom := errors.New("boom")

	messages, err := ParseMarbles[string]("-a-(bc)-|", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []Recorded[string]{
		{Frame: 1, Notification: Next("a")},
		{Frame: 3, Notification: Next("b")},
		{Frame: 3, Notification: Next("c")},
		{Frame: 8, Notification: Complete[string]()},
	}, messages)

	intMessages, err := ParseMarbles("--x#", map[string]int{"x": 42}, boom)
	require.NoError(t, err)
	assert.Equal(t, []Recorded[int]{
		{Frame: 2, Notification: Next(42)},
		{Frame: 3, Notification: Error[int](boom)},
	}, intMessages)
}

// TestParseMarblesDefaultError 测试没有指定错误时使用ErrMarble
func TestParseMarblesDefaultError(t *testing.T) {
	messages, err := ParseMarbles[string]("#", nil, nil)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Same(t, ErrMarble, messages[0].Notification.Err)
}

// TestParseMarblesHotOffset 测试'^'之前的通知落在负帧
func TestParseMarblesHotOffset(t *testing.T) {
	messages, err := ParseMarbles[string]("a-^-b|", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []Recorded[string]{
		{Frame: -2, Notification: Next("a")},
		{Frame: 2, Notification: Next("b")},
		{Frame: 3, Notification: Complete[string]()},
	}, messages)
}

// TestParseMarblesInvalid 测试非法弹珠图
func TestParseMarblesInvalid(t *testing.T) {
	tests := map[string]string{
		"unsubscription marker":   "-a-!",
		"two subscription points": "^-^",
		"nested group":            "((a))",
		"unbalanced group":        "a)",
		"unterminated group":      "(ab",
		"missing value":           "-q-",
	}

	for name, marbles := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseMarbles(marbles, map[string]string{"a": "a", "b": "b"}, nil)
			assert.Error(t, err)
		})
	}

	_, err := ParseMarbles[int]("-1-", nil, nil)
	assert.Error(t, err, "non-string values need a map")

	assert.Panics(t, func() { MustParseMarbles[string]("(", nil, nil) })
}

// TestParseSubscriptionMarbles 测试订阅弹珠图
func TestParseSubscriptionMarbles(t *testing.T) {
	tests := []struct {
		marbles string
		want    SubscriptionLog
	}{
		{"^", SubscriptionLog{Subscribed: 0, Unsubscribed: NeverUnsubscribed}},
		{"--^--!", SubscriptionLog{Subscribed: 2, Unsubscribed: 5}},
		{"   (^!)", SubscriptionLog{Subscribed: 3, Unsubscribed: 3}},
		{"-^-(!)", SubscriptionLog{Subscribed: 1, Unsubscribed: 3}},
	}

	for _, tt := range tests {
		got, err := ParseSubscriptionMarbles(tt.marbles)
		require.NoError(t, err, tt.marbles)
		assert.Equal(t, tt.want, got, tt.marbles)
	}

	for _, invalid := range []string{"---", "^^", "^-!-!", "a^", "!^"} {
		_, err := ParseSubscriptionMarbles(invalid)
		assert.Error(t, err, invalid)
	}
}

// TestUnsubscriptionFrame 测试Record使用的取消订阅帧
func TestUnsubscriptionFrame(t *testing.T) {
	frame, ok, err := unsubscriptionFrame("   ")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, frame)

	frame, ok, err = unsubscriptionFrame("-----!")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, frame)

	frame, ok, err = unsubscriptionFrame("--^--!")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, frame)

	_, _, err = unsubscriptionFrame("-----")
	assert.Error(t, err)
}

// TestNotificationString 测试通知的文本形式
func TestNotificationString(t *testing.T) {
	assert.Equal(t, "next(a)", Next("a").String())
	assert.Equal(t, "complete", Complete[string]().String())
	assert.Equal(t, "error(boom)", Error[string](errors.New("boom")).String())
	assert.Equal(t, "3:next(a)", Recorded[string]{Frame: 3, Notification: Next("a")}.String())
	assert.Equal(t, "^2!5", SubscriptionLog{Subscribed: 2, Unsubscribed: 5}.String())
	assert.Equal(t, "^2", SubscriptionLog{Subscribed: 2, Unsubscribed: NeverUnsubscribed}.String())
}
