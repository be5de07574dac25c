package rxtest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMarble 弹珠图中'#'在没有指定错误时使用的错误
var ErrMarble = errors.New("error")

// ============================================================================
// 弹珠图解析
// ============================================================================

// ParseMarbles 解析弹珠图
//
// 每个字符占一帧：'-'和空格表示时间流逝，'|'完成，'#'错误，'^'热序列的订阅点（帧0），
// '(...)'中的通知都落在'('所在的帧，其余字符通过values查找值；values为nil时T必须是string，
// 值就是字符本身。
func ParseMarbles[T any](marbles string, values map[string]T, err error) ([]Recorded[T], error) {
	if strings.ContainsRune(marbles, '!') {
		return nil, fmt.Errorf("rxtest: marble diagram %q cannot contain the unsubscription marker '!'", marbles)
	}
	if strings.Count(marbles, "^") > 1 {
		return nil, fmt.Errorf("rxtest: marble diagram %q has more than one subscription point", marbles)
	}
	if err == nil {
		err = ErrMarble
	}

	offset := strings.IndexRune(marbles, '^')
	if offset < 0 {
		offset = 0
	}

	var (
		messages   []Recorded[T]
		inGroup    bool
		groupFrame int
	)
	for i, c := range []rune(marbles) {
		frame := i - offset

		var (
			notification Notification[T]
			emit         bool
		)
		switch c {
		case '-', ' ', '^':
		case '(':
			if inGroup {
				return nil, fmt.Errorf("rxtest: nested group in marble diagram %q", marbles)
			}
			inGroup, groupFrame = true, frame
		case ')':
			if !inGroup {
				return nil, fmt.Errorf("rxtest: unbalanced group in marble diagram %q", marbles)
			}
			inGroup = false
		case '|':
			notification, emit = Complete[T](), true
		case '#':
			notification, emit = Error[T](err), true
		default:
			value, lookupErr := lookupValue(string(c), values)
			if lookupErr != nil {
				return nil, lookupErr
			}
			notification, emit = Next(value), true
		}

		if emit {
			if inGroup {
				frame = groupFrame
			}
			messages = append(messages, Recorded[T]{Frame: frame, Notification: notification})
		}
	}
	if inGroup {
		return nil, fmt.Errorf("rxtest: unterminated group in marble diagram %q", marbles)
	}

	return messages, nil
}

// MustParseMarbles 与ParseMarbles相同，解析失败时panic
func MustParseMarbles[T any](marbles string, values map[string]T, err error) []Recorded[T] {
	messages, parseErr := ParseMarbles(marbles, values, err)
	if parseErr != nil {
		panic(parseErr)
	}
	return messages
}

// ParseSubscriptionMarbles 解析订阅弹珠图：'^'订阅帧，'!'取消订阅帧
func ParseSubscriptionMarbles(marbles string) (SubscriptionLog, error) {
	log := SubscriptionLog{Subscribed: -1, Unsubscribed: NeverUnsubscribed}
	groupFrame := -1

	for i, c := range []rune(marbles) {
		frame := i
		if groupFrame >= 0 {
			frame = groupFrame
		}

		switch c {
		case '-', ' ':
		case '(':
			groupFrame = i
		case ')':
			groupFrame = -1
		case '^':
			if log.Subscribed >= 0 {
				return log, fmt.Errorf("rxtest: subscription marbles %q have more than one '^'", marbles)
			}
			log.Subscribed = frame
		case '!':
			if log.Unsubscribed != NeverUnsubscribed {
				return log, fmt.Errorf("rxtest: subscription marbles %q have more than one '!'", marbles)
			}
			log.Unsubscribed = frame
		default:
			return log, fmt.Errorf("rxtest: unexpected %q in subscription marbles %q", c, marbles)
		}
	}

	if log.Subscribed < 0 {
		return log, fmt.Errorf("rxtest: subscription marbles %q have no subscription point", marbles)
	}
	if log.Unsubscribed < log.Subscribed {
		return log, fmt.Errorf("rxtest: subscription marbles %q unsubscribe before subscribing", marbles)
	}
	return log, nil
}

// unsubscriptionFrame 解析Record使用的取消订阅弹珠图，只关心'!'
func unsubscriptionFrame(marbles string) (int, bool, error) {
	if strings.TrimSpace(marbles) == "" {
		return 0, false, nil
	}

	frame := strings.IndexRune(marbles, '!')
	if frame < 0 {
		return 0, false, fmt.Errorf("rxtest: unsubscription marbles %q have no '!'", marbles)
	}
	if offset := strings.IndexRune(marbles, '^'); offset >= 0 {
		frame -= offset
	}
	return frame, true, nil
}

func lookupValue[T any](key string, values map[string]T) (T, error) {
	if values != nil {
		value, ok := values[key]
		if !ok {
			var zero T
			return zero, fmt.Errorf("rxtest: no value for marble %q", key)
		}
		return value, nil
	}

	value, ok := any(key).(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("rxtest: marble %q needs a values map for %T", key, zero)
	}
	return value, nil
}
