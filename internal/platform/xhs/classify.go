package xhs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"syscall"
)

type Category string

const (
	CategorySessionExpired    Category = "sessionExpired"
	CategoryChallengeRequired Category = "challengeRequired"
	CategoryTransport         Category = "transportError"
	CategoryUnknown           Category = "unknownError"
)

// Retryable reports whether retrying without human intervention can help.
func (c Category) Retryable() bool {
	return c == CategoryTransport
}

var remediation = map[Category]string{
	CategorySessionExpired: "The platform session has expired or is not logged in. " +
		"Log in to xiaohongshu.com in a browser, copy the full cookie and submit it with UpdateSession.",
	CategoryChallengeRequired: "The platform requires a verification challenge (captcha or rate limit). " +
		"Open xiaohongshu.com in a browser with the same account, complete the challenge and wait before retrying; " +
		"automatic retries will not succeed.",
	CategoryTransport: "The platform could not be reached. Retry later with backoff.",
	CategoryUnknown:   "The platform returned an unrecognized error. Check the service logs.",
}

// Remediation is the guidance shown to the caller for a failure category.
func Remediation(c Category) string {
	return remediation[c]
}

// RuleSet lists the markers (matched case-insensitively against error text and body), platform
// codes and http statuses that map to one category.
type RuleSet struct {
	Markers  []string `json:"markers"`
	Codes    []int    `json:"codes"`
	Statuses []int    `json:"statuses"`
}

type Rule struct {
	Category Category
	RuleSet
}

// Rules are evaluated in order, the first rule that matches wins.
type Rules []Rule

// RuleOverrides extends the default rules from configuration.
type RuleOverrides struct {
	SessionExpired RuleSet `json:"session_expired"`
	Challenge      RuleSet `json:"challenge"`
	Transport      RuleSet `json:"transport"`
}

func DefaultRules() Rules {
	return Rules{
		{
			Category: CategorySessionExpired,
			RuleSet: RuleSet{
				Markers: []string{"登录已过期", "登录过期", "请登录", "未登录", "login required", "login expired"},
				Codes:   []int{-100, -101},
			},
		},
		{
			Category: CategoryChallengeRequired,
			RuleSet: RuleSet{
				Markers:  []string{"验证码", "安全验证", "captcha", "verification", "访问频率过快", "账号异常", "异常访问"},
				Codes:    []int{124, 300012, 300013},
				Statuses: []int{461, 471},
			},
		},
		{
			Category: CategoryTransport,
			RuleSet: RuleSet{
				Markers: []string{"connection refused", "connection reset", "no such host", "timeout", "timed out"},
			},
		},
	}
}

func merge(set RuleSet, extra RuleSet) RuleSet {
	return RuleSet{
		Markers:  append(slices.Clone(set.Markers), extra.Markers...),
		Codes:    append(slices.Clone(set.Codes), extra.Codes...),
		Statuses: append(slices.Clone(set.Statuses), extra.Statuses...),
	}
}

// With returns a copy of the rules with the overrides appended to each category.
func (r Rules) With(o RuleOverrides) Rules {
	out := make(Rules, len(r))
	for i, rule := range r {
		extra := RuleSet{}
		switch rule.Category {
		case CategorySessionExpired:
			extra = o.SessionExpired
		case CategoryChallengeRequired:
			extra = o.Challenge
		case CategoryTransport:
			extra = o.Transport
		}
		out[i] = Rule{Category: rule.Category, RuleSet: merge(rule.RuleSet, extra)}
	}
	return out
}

// Classifier assigns a failure category to an error. It is pure. The zero value classifies with
// DefaultRules.
type Classifier struct {
	rules Rules
}

func NewClassifier(rules Rules) Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return Classifier{rules: rules}
}

var codePattern = regexp.MustCompile(`(?i)\b["']?code["']?\s*[:=]?\s*(-?\d+)`)

type evidence struct {
	text      string
	codes     []int
	status    int
	transport bool
}

func (e evidence) matches(rule Rule) bool {
	if rule.Category == CategoryTransport && e.transport {
		return true
	}
	for _, marker := range rule.Markers {
		if marker != "" && strings.Contains(e.text, strings.ToLower(marker)) {
			return true
		}
	}
	for _, code := range e.codes {
		if slices.Contains(rule.Codes, code) {
			return true
		}
	}
	return e.status != 0 && slices.Contains(rule.Statuses, e.status)
}

func (c Classifier) classify(e evidence) Category {
	rules := c.rules
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	for _, rule := range rules {
		if e.matches(rule) {
			return rule.Category
		}
	}
	return CategoryUnknown
}

func codesIn(text string) []int {
	var codes []int
	for _, match := range codePattern.FindAllStringSubmatch(text, -1) {
		code, err := strconv.Atoi(match[1])
		if err == nil {
			codes = append(codes, code)
		}
	}
	return codes
}

func isTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Classify labels a failed call. A nil error is unknownError.
func (c Classifier) Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	text := err.Error()
	e := evidence{transport: isTransport(err)}

	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		e.status = platformErr.Status
		if platformErr.Code != 0 {
			e.codes = append(e.codes, platformErr.Code)
		}
		text = fmt.Sprintf("%s\n%s", text, platformErr.Body)
	}

	e.text = strings.ToLower(text)
	e.codes = append(e.codes, codesIn(text)...)
	return c.classify(e)
}

// ClassifyResponse labels a raw http answer.
func (c Classifier) ClassifyResponse(status int, body string) Category {
	return c.classify(evidence{
		text:   strings.ToLower(body),
		codes:  codesIn(body),
		status: status,
	})
}
