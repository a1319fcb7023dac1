package xhs

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
)

var ErrEmptyCredential = errors.New("credential is empty")

// DefaultUserAgent is a desktop browser user agent, the web api rejects obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// Session is an authenticated context for platform calls. It is read-only after construction so
// a single Session may be shared by any number of concurrent calls.
type Session struct {
	cookie     string
	userAgent  string
	a1         string
	webSession string
	signer     SignFunc
}

// NewSession parses a browser cookie header ("a1=...; web_session=...") into a Session. A nil
// signer means requests go out unsigned.
func NewSession(cookie, userAgent string, signer SignFunc) (*Session, error) {
	cookie = strings.TrimSpace(cookie)
	if cookie == "" {
		return nil, ErrEmptyCredential
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	s := &Session{
		cookie:    cookie,
		userAgent: userAgent,
		signer:    signer,
	}
	for _, c := range parseCookies(cookie) {
		switch c.Name {
		case "a1":
			s.a1 = c.Value
		case "web_session":
			s.webSession = c.Value
		}
	}
	return s, nil
}

func parseCookies(header string) []*http.Cookie {
	req := http.Request{Header: http.Header{"Cookie": []string{header}}}
	return req.Cookies()
}

func (s *Session) Cookie() string     { return s.cookie }
func (s *Session) UserAgent() string  { return s.userAgent }
func (s *Session) A1() string         { return s.a1 }
func (s *Session) WebSession() string { return s.webSession }

// HasLogin reports whether the cookie carries a logged in web session, without one the platform
// answers search with a login error.
func (s *Session) HasLogin() bool {
	return s.webSession != ""
}

// Sign returns the signature headers for a request, nil means send unsigned.
func (s *Session) Sign(uri string, payload []byte) map[string]string {
	if s.signer == nil {
		return nil
	}
	return s.signer(uri, payload, s.a1, s.webSession)
}

// Fingerprint identifies the credential in logs without revealing it.
func (s *Session) Fingerprint() string {
	sum := sha256.Sum256([]byte(s.cookie))
	return hex.EncodeToString(sum[:4])
}

// SessionCell holds the process-wide session. Replacing it never affects calls that already
// loaded the previous session.
type SessionCell struct {
	current atomic.Pointer[Session]
}

// Load returns the current session or nil.
func (c *SessionCell) Load() *Session {
	return c.current.Load()
}

// Replace swaps in a new session (nil clears it) and returns the previous one.
func (c *SessionCell) Replace(s *Session) *Session {
	return c.current.Swap(s)
}
