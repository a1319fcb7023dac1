package xhs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyMessages(t *testing.T) {
	c := NewClassifier(nil)

	table := []struct {
		name     string
		err      error
		expected Category
	}{
		{name: "login expired", err: errors.New("登录已过期，请重新登录"), expected: CategorySessionExpired},
		{name: "captcha", err: errors.New("请输入验证码"), expected: CategoryChallengeRequired},
		{name: "english captcha", err: errors.New("Captcha required"), expected: CategoryChallengeRequired},
		{name: "rate limited", err: errors.New("访问频率过快，请稍后再试"), expected: CategoryChallengeRequired},
		{name: "code in text", err: errors.New("api error: code -100"), expected: CategorySessionExpired},
		{name: "json code in text", err: errors.New(`{"code":124,"msg":""}`), expected: CategoryChallengeRequired},
		{name: "single quoted code", err: errors.New("{'code': -100, 'success': False, 'msg': ''}"), expected: CategorySessionExpired},
		{name: "single quoted challenge code", err: errors.New("{'code': 124, 'success': False}"), expected: CategoryChallengeRequired},
		{name: "code inside a word", err: errors.New("qrcode 124 scanned"), expected: CategoryUnknown},
		{name: "code suffix of a word", err: errors.New("barcode: 124"), expected: CategoryUnknown},
		{name: "connection refused text", err: errors.New("dial tcp 1.2.3.4:443: connect: connection refused"), expected: CategoryTransport},
		{name: "unrelated", err: errors.New("something odd happened"), expected: CategoryUnknown},
		{name: "nil", err: nil, expected: CategoryUnknown},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			require.Equal(t, row.expected, c.Classify(row.err))
		})
	}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o wait exceeded" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

func TestClassifyTransportErrors(t *testing.T) {
	c := NewClassifier(nil)

	require.Equal(t, CategoryTransport, c.Classify(fmt.Errorf("post: %w", context.DeadlineExceeded)))
	require.Equal(t, CategoryTransport, c.Classify(fmt.Errorf("post: %w", timeoutError{})))
	require.Equal(t, CategoryTransport, c.Classify(&net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}))
	require.Equal(t, CategoryTransport, c.Classify(fmt.Errorf("read: %w", syscall.ECONNRESET)))
}

func TestClassifyPlatformErrors(t *testing.T) {
	c := NewClassifier(nil)

	require.Equal(t, CategorySessionExpired, c.Classify(&PlatformError{Status: 200, Code: -100, Message: "登录已过期"}))
	require.Equal(t, CategorySessionExpired, c.Classify(&PlatformError{Status: 200, Code: -101, Message: "无登录信息"}))
	require.Equal(t, CategoryChallengeRequired, c.Classify(&PlatformError{Status: 461, Message: "http error"}))
	require.Equal(t, CategoryChallengeRequired, c.Classify(&PlatformError{Status: 200, Code: 300012}))
	require.Equal(t, CategoryChallengeRequired, c.Classify(
		fmt.Errorf("search: %w", &PlatformError{Status: 200, Message: "err", Body: `{"msg":"安全验证"}`}),
	))
	require.Equal(t, CategoryUnknown, c.Classify(&PlatformError{Status: 500, Message: "http error"}))
}

func TestClassifyPriority(t *testing.T) {
	c := NewClassifier(nil)
	// both markers present, session expiry wins
	require.Equal(t, CategorySessionExpired, c.Classify(errors.New("未登录 验证码")))
	// challenge beats transport
	require.Equal(t, CategoryChallengeRequired, c.Classify(fmt.Errorf("验证码: %w", context.DeadlineExceeded)))
}

func TestClassifyResponse(t *testing.T) {
	c := NewClassifier(nil)
	require.Equal(t, CategorySessionExpired, c.ClassifyResponse(200, `{"success":false,"code":-100,"msg":"登录已过期"}`))
	require.Equal(t, CategoryChallengeRequired, c.ClassifyResponse(471, ``))
	require.Equal(t, CategoryUnknown, c.ClassifyResponse(500, `oops`))
}

func TestClassifierOverrides(t *testing.T) {
	rules := DefaultRules().With(RuleOverrides{
		SessionExpired: RuleSet{Markers: []string{"SESSION GONE"}},
		Challenge:      RuleSet{Codes: []int{999}},
	})
	c := NewClassifier(rules)
	require.Equal(t, CategorySessionExpired, c.Classify(errors.New("session gone")))
	require.Equal(t, CategoryChallengeRequired, c.Classify(&PlatformError{Code: 999}))

	// defaults are untouched
	require.Equal(t, CategoryUnknown, NewClassifier(nil).Classify(errors.New("session gone")))
}

func TestRemediation(t *testing.T) {
	for _, c := range []Category{CategorySessionExpired, CategoryChallengeRequired, CategoryTransport, CategoryUnknown} {
		require.NotEmpty(t, Remediation(c))
	}
	require.True(t, CategoryTransport.Retryable())
	require.False(t, CategorySessionExpired.Retryable())
	require.False(t, CategoryChallengeRequired.Retryable())
}
