package chrono

import (
	"errors"
	"testing"
	"time"
	"xhsbridge/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestCronLoggerFormatsPairs(t *testing.T) {
	tel := &telemetry.RecorderAPI{}
	l := cronLogger{tel: tel}

	l.Info("schedule", "entry", 1, "next", "soon")
	l.Error(errors.New("boom"), "run", "entry", 1)

	debug := tel.Reports("debug")
	require.Len(t, debug, 1)
	require.Equal(t, "cron: schedule", debug[0].ID)
	require.Equal(t, []any{"entry: 1", "next: soon"}, debug[0].Params)

	broken := tel.Reports("broken")
	require.Len(t, broken, 1)
	require.Equal(t, "cron", broken[0].ID)
	require.ErrorContains(t, broken[0].Params[0].(error), "run: boom")
}

func TestCronRejectsBadSpec(t *testing.T) {
	c := NewStandardCron(telemetry.NoopAPI{})
	defer c.Stop()

	require.Error(t, c.Cron("not a spec", func() {}))
	require.NoError(t, c.Cron("*/5 * * * *", func() {}))
}

func TestFixedTime(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, Shanghai())
	clock := NewFixedTime(start)
	require.Equal(t, start, clock.Now())

	clock.Advance(time.Minute)
	require.Equal(t, start.Add(time.Minute), clock.Now())
}
