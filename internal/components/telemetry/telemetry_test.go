package telemetry

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPINamespaces(t *testing.T) {
	rec := &RecorderAPI{}
	scoped := NewScopedAPI("service", NewScopedAPI("client", rec))

	scoped.ReportBroken("search", errors.New("boom"))
	scoped.ReportWarning("detail")
	scoped.ReportDebug("hello", 1)
	scoped.ReportCount("notes", 3)

	reports := rec.Reports("")
	require.Len(t, reports, 4)
	require.Equal(t, "client: service: search", reports[0].ID)
	require.Equal(t, "warning", reports[1].Level)
	require.Equal(t, "client: service: hello", reports[2].ID)
	require.Equal(t, []any{int64(3)}, reports[3].Params)
}

func TestFormatHeadersRedactsCredentials(t *testing.T) {
	headers := http.Header{}
	headers.Set("Cookie", "a1=abc; web_session=xyz")
	headers.Set("X-s", "XYW_signature")
	headers.Set("User-Agent", "test-agent")

	out := formatHeaders(headers)
	require.NotContains(t, out, "web_session")
	require.NotContains(t, out, "XYW_signature")
	require.Contains(t, out, "User-Agent: test-agent")

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[0], "Cookie: <redacted"))
}
