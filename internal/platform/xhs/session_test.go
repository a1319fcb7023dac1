package xhs

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSessionParsesCookie(t *testing.T) {
	s, err := NewSession(" a1=18f0aa; webId=abc; web_session=0400698; gid=yYd ", "", nil)
	require.NoError(t, err)
	require.Equal(t, "18f0aa", s.A1())
	require.Equal(t, "0400698", s.WebSession())
	require.True(t, s.HasLogin())
	require.Equal(t, DefaultUserAgent, s.UserAgent())
	require.Equal(t, "a1=18f0aa; webId=abc; web_session=0400698; gid=yYd", s.Cookie())
	require.Len(t, s.Fingerprint(), 8)
	require.Nil(t, s.Sign("/api", nil))
}

func TestNewSessionEmpty(t *testing.T) {
	_, err := NewSession("  ", "ua", nil)
	require.ErrorIs(t, err, ErrEmptyCredential)
}

func TestSessionSignPassesCredentials(t *testing.T) {
	var got []string
	s, err := NewSession("a1=A; web_session=W", "ua", func(uri string, payload []byte, a1, webSession string) map[string]string {
		got = []string{uri, string(payload), a1, webSession}
		return map[string]string{"x-s": "sig"}
	})
	require.NoError(t, err)

	headers := s.Sign("/api/sns/web/v1/search/notes", []byte(`{}`))
	require.Equal(t, map[string]string{"x-s": "sig"}, headers)
	require.Equal(t, []string{"/api/sns/web/v1/search/notes", "{}", "A", "W"}, got)
}

func TestSessionCellSwap(t *testing.T) {
	var cell SessionCell
	require.Nil(t, cell.Load())

	first, _ := NewSession("a1=1", "", nil)
	second, _ := NewSession("a1=2", "", nil)

	require.Nil(t, cell.Replace(first))
	held := cell.Load()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NotNil(t, cell.Load())
		}()
	}
	require.Equal(t, first, cell.Replace(second))
	wg.Wait()

	require.Equal(t, "1", held.A1())
	require.Equal(t, "2", cell.Load().A1())
}
