package service

import (
	"sync"
	"time"
	"xhsbridge/internal/components/chrono"
	"xhsbridge/internal/platform/xhs"
)

type RiskConfig struct {
	MaxConsecutiveFailures int `json:"max_consecutive_failures"`
	CooldownMinutes        int `json:"cooldown_minutes"`
	// ChallengeMultiplier scales the cooldown after the platform shows a challenge.
	ChallengeMultiplier int `json:"challenge_multiplier"`
}

func (c RiskConfig) withDefaults() RiskConfig {
	if c.MaxConsecutiveFailures <= 0 {
		c.MaxConsecutiveFailures = 3
	}
	if c.CooldownMinutes <= 0 {
		c.CooldownMinutes = 30
	}
	if c.ChallengeMultiplier <= 0 {
		c.ChallengeMultiplier = 4
	}
	return c
}

func (c RiskConfig) cooldown() time.Duration {
	return time.Duration(c.CooldownMinutes) * time.Minute
}

type RiskSnapshot struct {
	TotalRequests       int64        `json:"totalRequests"`
	TotalFailures       int64        `json:"totalFailures"`
	ConsecutiveFailures int          `json:"consecutiveFailures"`
	LastFailure         xhs.Category `json:"lastFailure,omitempty"`
	CooldownUntil       time.Time    `json:"cooldownUntil"`
	CooldownCategory    xhs.Category `json:"cooldownCategory,omitempty"`
}

// RiskMonitor keeps the service from hammering the platform after it starts refusing requests.
// A challenge puts the session into an extended cooldown straight away, any other failure only
// does once it has happened MaxConsecutiveFailures times in a row.
type RiskMonitor struct {
	config RiskConfig
	time   chrono.TimeAPI

	mutex sync.Mutex
	state RiskSnapshot
}

func NewRiskMonitor(config RiskConfig, time chrono.TimeAPI) *RiskMonitor {
	return &RiskMonitor{
		config: config.withDefaults(),
		time:   time,
	}
}

// Blocked returns the category that started the active cooldown, if there is one.
func (r *RiskMonitor) Blocked() (xhs.Category, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.state.CooldownUntil.IsZero() || !r.time.Now().Before(r.state.CooldownUntil) {
		return "", false
	}
	return r.state.CooldownCategory, true
}

func (r *RiskMonitor) RecordSuccess() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.state.TotalRequests++
	r.state.ConsecutiveFailures = 0
}

// RecordFailure registers a failed platform call and reports whether it started a cooldown.
func (r *RiskMonitor) RecordFailure(category xhs.Category) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.state.TotalRequests++
	r.state.TotalFailures++
	r.state.ConsecutiveFailures++
	r.state.LastFailure = category

	switch {
	case category == xhs.CategoryChallengeRequired:
		r.startCooldown(category, r.config.cooldown()*time.Duration(r.config.ChallengeMultiplier))
		return true
	case category == xhs.CategorySessionExpired:
		// an expired session is tracked by the session state, waiting will not fix it
		return false
	case r.state.ConsecutiveFailures >= r.config.MaxConsecutiveFailures:
		r.startCooldown(category, r.config.cooldown())
		return true
	}
	return false
}

func (r *RiskMonitor) startCooldown(category xhs.Category, duration time.Duration) {
	r.state.CooldownUntil = r.time.Now().Add(duration)
	r.state.CooldownCategory = category
	r.state.ConsecutiveFailures = 0
}

// Reset clears the cooldown and failure streak, totals are kept.
func (r *RiskMonitor) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.state.ConsecutiveFailures = 0
	r.state.LastFailure = ""
	r.state.CooldownUntil = time.Time{}
	r.state.CooldownCategory = ""
}

func (r *RiskMonitor) Snapshot() RiskSnapshot {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.state
}
