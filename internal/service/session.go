package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"xhsbridge/internal/notes"
	"xhsbridge/internal/platform/xhs"
)

// sessionState remembers what the last check or real call said about the session in the cell.
type sessionState struct {
	cell xhs.SessionCell

	mutex     sync.Mutex
	checked   *xhs.Session
	valid     bool
	category  xhs.Category
	reason    string
	checkedAt time.Time
}

type validity struct {
	known    bool
	valid    bool
	category xhs.Category
	reason   string
}

func (s *sessionState) validity(session *xhs.Session) validity {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if session == nil || s.checked != session {
		return validity{}
	}
	return validity{
		known:    true,
		valid:    s.valid,
		category: s.category,
		reason:   s.reason,
	}
}

// mark records a verdict for the session and returns true if a previously valid (or not yet
// checked) session just became invalid. Verdicts about a session that has since been replaced
// are dropped.
func (s *sessionState) mark(session *xhs.Session, valid bool, category xhs.Category, reason string, now time.Time) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if session == nil || s.cell.Load() != session {
		return false
	}
	wasValid := s.checked != session || s.valid

	s.checked = session
	s.valid = valid
	s.category = category
	s.reason = reason
	s.checkedAt = now

	return wasValid && !valid
}

type UpdateSessionRequest struct {
	Credential string `json:"credential"`
	UserAgent  string `json:"userAgent,omitempty"`
}

type UpdateSessionResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

type SessionStatusRequest struct{}

type SessionStatusResponse struct {
	Present     bool         `json:"present"`
	Valid       bool         `json:"valid"`
	Reason      string       `json:"reason,omitempty"`
	Fingerprint string       `json:"fingerprint,omitempty"`
	Risk        RiskSnapshot `json:"risk"`
}

type checkResult struct {
	valid bool
	// definitive is false when the check failed for reasons that say nothing about the session.
	definitive bool
	category   xhs.Category
	reason     string
}

func (s *NoteService) checkSession(ctx context.Context, session *xhs.Session) checkResult {
	query := notes.SearchQuery{
		Keyword:  s.config.CheckKeyword,
		Page:     1,
		PageSize: 1,
		SortMode: notes.SortGeneral,
	}
	items, err := s.platform.Search(ctx, session, query)
	if err != nil {
		category := s.classifier.Classify(err)
		return checkResult{
			definitive: category == xhs.CategorySessionExpired || category == xhs.CategoryChallengeRequired,
			category:   category,
			reason:     fmt.Sprintf("%s: %s", category, err.Error()),
		}
	}
	if len(notes.Normalize(items, query)) == 0 {
		return checkResult{
			category: xhs.CategoryUnknown,
			reason:   "check search returned no notes",
		}
	}
	return checkResult{valid: true, definitive: true}
}

// LoadCredential installs the stored credential as the process session without validating it.
func (s *NoteService) LoadCredential(ctx context.Context) error {
	credential, err := s.credentials.Load()
	if err != nil {
		s.tel.ReportBroken(report_credential_load, err)
		return err
	}
	if credential.Cookie == "" {
		s.tel.ReportDebug("no stored credential")
		return nil
	}
	userAgent := credential.UserAgent
	if userAgent == "" {
		userAgent = s.config.UserAgent
	}

	session, err := xhs.NewSession(credential.Cookie, userAgent, s.signer)
	if err != nil {
		s.tel.ReportWarning(report_credential_load, err)
		return err
	}
	s.session.cell.Replace(session)
	s.tel.ReportDebug("loaded stored credential", session.Fingerprint())
	return nil
}

// UpdateSession validates a new credential with a check search and only installs it when the
// check returns real notes. The previous session stays active when the credential is rejected.
func (s *NoteService) UpdateSession(ctx context.Context, req UpdateSessionRequest) (UpdateSessionResponse, error) {
	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = s.config.UserAgent
	}

	session, err := xhs.NewSession(req.Credential, userAgent, s.signer)
	if errors.Is(err, xhs.ErrEmptyCredential) {
		return UpdateSessionResponse{Accepted: false, Reason: err.Error()}, nil
	}
	if err != nil {
		return UpdateSessionResponse{}, err
	}
	if !session.HasLogin() {
		s.tel.ReportDebug("credential has no web_session cookie", session.Fingerprint())
	}

	result := s.checkSession(ctx, session)
	if !result.valid {
		s.tel.ReportWarning(report_update_session, result.reason, session.Fingerprint())
		return UpdateSessionResponse{
			Accepted: false,
			Reason:   result.reason,
		}, nil
	}

	s.session.cell.Replace(session)
	s.session.mark(session, true, "", "", s.time.Now())
	s.risk.Reset()
	s.tel.ReportDebug("session replaced", session.Fingerprint())

	err = s.credentials.Save(StoredCredential{
		Cookie:    strings.TrimSpace(req.Credential),
		UserAgent: req.UserAgent,
	})
	if err != nil {
		s.tel.ReportBroken(report_credential_save, err)
		return UpdateSessionResponse{
			Accepted: true,
			Reason:   "session is active but could not be persisted, it will be lost on restart",
		}, nil
	}

	return UpdateSessionResponse{Accepted: true}, nil
}

// SessionStatus reports on the process session, probing it first if nothing is known about it.
func (s *NoteService) SessionStatus(ctx context.Context) SessionStatusResponse {
	session := s.session.cell.Load()
	if session == nil {
		return SessionStatusResponse{
			Reason: "no session configured",
			Risk:   s.risk.Snapshot(),
		}
	}

	state := s.session.validity(session)
	if !state.known {
		s.applyCheck(ctx, session, s.checkSession(ctx, session))
		state = s.session.validity(session)
	}

	res := SessionStatusResponse{
		Present:     true,
		Valid:       state.valid,
		Reason:      state.reason,
		Fingerprint: session.Fingerprint(),
		Risk:        s.risk.Snapshot(),
	}
	if !state.known {
		res.Reason = "session could not be validated, the platform did not give a clear answer"
	}
	return res
}

// HealthCheck checks the process session and notifies the operator when it stops working.
//
// note: cron job point
func (s *NoteService) HealthCheck(ctx context.Context) {
	session := s.session.cell.Load()
	if session == nil {
		return
	}
	if category, blocked := s.risk.Blocked(); blocked {
		s.tel.ReportDebug("health check skipped during cooldown", category)
		return
	}

	result := s.checkSession(ctx, session)
	if result.valid {
		s.risk.RecordSuccess()
	} else {
		s.risk.RecordFailure(result.category)
	}
	if !result.valid && !result.definitive {
		s.tel.ReportWarning(report_health_check, result.reason)
	}
	s.applyCheck(ctx, session, result)
}

func (s *NoteService) applyCheck(ctx context.Context, session *xhs.Session, result checkResult) {
	if !result.definitive {
		return
	}
	s.markSession(ctx, session, result.valid, result.category, result.reason)
}

// markSession records a verdict about a session and notifies the operator when it turns invalid.
func (s *NoteService) markSession(ctx context.Context, session *xhs.Session, valid bool, category xhs.Category, reason string) {
	becameInvalid := s.session.mark(session, valid, category, reason, s.time.Now())
	if !becameInvalid {
		return
	}

	s.tel.ReportWarning(report_session_transition, category, session.Fingerprint())
	err := s.notify.Notify(
		ctx,
		fmt.Sprintf("xhsbridge: session is no longer usable (%s)", category),
		fmt.Sprintf(
			"Session %s stopped working at %s.\n\n%s\n\n%s",
			session.Fingerprint(),
			s.time.Now().Format(time.RFC3339),
			reason,
			xhs.Remediation(category),
		),
	)
	if err != nil {
		s.tel.ReportBroken(report_notify, err)
	}
}
