package service

import (
	"testing"
	"time"
	"xhsbridge/internal/components/chrono"
	"xhsbridge/internal/platform/xhs"

	"github.com/stretchr/testify/require"
)

func TestRiskMonitor(t *testing.T) {
	clock := chrono.NewFixedTime(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	risk := NewRiskMonitor(RiskConfig{MaxConsecutiveFailures: 2, CooldownMinutes: 10}, clock)

	require.False(t, risk.RecordFailure(xhs.CategoryUnknown))
	risk.RecordSuccess()
	require.False(t, risk.RecordFailure(xhs.CategoryUnknown))
	require.True(t, risk.RecordFailure(xhs.CategoryTransport))

	category, blocked := risk.Blocked()
	require.True(t, blocked)
	require.Equal(t, xhs.CategoryTransport, category)

	clock.Advance(10 * time.Minute)
	_, blocked = risk.Blocked()
	require.False(t, blocked)

	snapshot := risk.Snapshot()
	require.Equal(t, int64(4), snapshot.TotalRequests)
	require.Equal(t, int64(3), snapshot.TotalFailures)
	require.Equal(t, 0, snapshot.ConsecutiveFailures)
}

func TestRiskMonitorChallenge(t *testing.T) {
	clock := chrono.NewFixedTime(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	risk := NewRiskMonitor(RiskConfig{}, clock)

	require.True(t, risk.RecordFailure(xhs.CategoryChallengeRequired))
	require.Equal(t, clock.Now().Add(120*time.Minute), risk.Snapshot().CooldownUntil)

	clock.Advance(119 * time.Minute)
	category, blocked := risk.Blocked()
	require.True(t, blocked)
	require.Equal(t, xhs.CategoryChallengeRequired, category)

	risk.Reset()
	_, blocked = risk.Blocked()
	require.False(t, blocked)
}

func TestRiskMonitorIgnoresExpiredSessions(t *testing.T) {
	clock := chrono.NewFixedTime(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	risk := NewRiskMonitor(RiskConfig{MaxConsecutiveFailures: 1}, clock)

	require.False(t, risk.RecordFailure(xhs.CategorySessionExpired))
	_, blocked := risk.Blocked()
	require.False(t, blocked)
	require.Equal(t, xhs.CategorySessionExpired, risk.Snapshot().LastFailure)
}
