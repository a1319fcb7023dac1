package service

import (
	"context"
	"fmt"
	"xhsbridge/internal/components/telemetry"
	"xhsbridge/internal/notes"
	"xhsbridge/internal/platform/xhs"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("xhsbridge.service")

type SearchRequest struct {
	Keyword  string `json:"keyword"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"pageSize,omitempty"`
	Sort     string `json:"sort,omitempty"`
	// Cookie overrides the process session for this request only.
	Cookie   string `json:"cookie,omitempty"`
	FailFast bool   `json:"failFast,omitempty"`
	Enrich   bool   `json:"enrich,omitempty"`
}

type SearchResponse struct {
	Notes           []notes.CanonicalNote `json:"notes"`
	IsSynthetic     bool                  `json:"isSynthetic"`
	FailureCategory xhs.Category          `json:"failureCategory,omitempty"`
	Remediation     string                `json:"remediation,omitempty"`
	Message         string                `json:"message,omitempty"`
}

// FailureError is returned instead of synthetic data when the caller asked to fail fast.
type FailureError struct {
	Category    xhs.Category
	Remediation string
	Err         error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("%s: %s", e.Category, e.Err.Error())
}

func (e *FailureError) Unwrap() error {
	return e.Err
}

func (s *NoteService) searchQuery(req SearchRequest) (notes.SearchQuery, error) {
	query := notes.SearchQuery{
		Keyword:  req.Keyword,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if query.Page == 0 {
		query.Page = 1
	}
	if query.PageSize == 0 {
		query.PageSize = s.config.DefaultPageSize
	}
	if query.PageSize > s.config.MaxPageSize {
		return notes.SearchQuery{}, fmt.Errorf(
			"%w: page size must be <= %d, got %d",
			notes.ErrValidation, s.config.MaxPageSize, query.PageSize,
		)
	}

	query.SortMode = notes.SortGeneral
	if req.Sort != "" {
		sortMode, err := notes.ParseSortMode(req.Sort)
		if err != nil {
			return notes.SearchQuery{}, err
		}
		query.SortMode = sortMode
	}

	err := query.Validate()
	if err != nil {
		return notes.SearchQuery{}, err
	}
	return query, nil
}

// resolveSession picks the session a request runs with: the cookie it carries, then the
// process session. The second result is true when the process session was picked.
func (s *NoteService) resolveSession(cookie string) (*xhs.Session, bool) {
	if cookie != "" {
		session, err := xhs.NewSession(cookie, s.config.UserAgent, s.signer)
		if err == nil {
			return session, false
		}
	}
	session := s.session.cell.Load()
	return session, session != nil
}

// precheck reports a failure category when a call with the process session should not reach
// the platform at all.
func (s *NoteService) precheck(session *xhs.Session, process bool) (xhs.Category, bool) {
	if !process {
		return "", false
	}
	state := s.session.validity(session)
	if state.known && !state.valid && state.category == xhs.CategorySessionExpired {
		return xhs.CategorySessionExpired, true
	}
	return s.risk.Blocked()
}

// recordOutcome feeds the result of a platform call with the process session into the risk
// monitor and the session state.
func (s *NoteService) recordOutcome(ctx context.Context, session *xhs.Session, process bool, category xhs.Category, err error) {
	if !process {
		return
	}
	if err == nil {
		s.risk.RecordSuccess()
		s.markSession(ctx, session, true, "", "")
		return
	}

	if s.risk.RecordFailure(category) {
		snapshot := s.risk.Snapshot()
		s.tel.ReportWarning(report_risk_cooldown, err, category, snapshot.CooldownUntil)
	}
	if category == xhs.CategorySessionExpired || category == xhs.CategoryChallengeRequired {
		s.markSession(ctx, session, false, category, err.Error())
	}
}

func synthetic(query notes.SearchQuery, category xhs.Category, message string) SearchResponse {
	res := SearchResponse{
		Notes:           notes.Generate(query),
		IsSynthetic:     true,
		FailureCategory: category,
		Message:         message,
	}
	if category != "" {
		res.Remediation = xhs.Remediation(category)
	}
	return res
}

// Search returns up to pageSize notes for a keyword. Unless FailFast is set, platform failures
// never surface as errors, the response carries synthetic notes and the failure category
// instead. Only invalid requests are errors.
func (s *NoteService) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()

	query, err := s.searchQuery(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return SearchResponse{}, err
	}
	span.SetAttributes(
		attribute.String("keyword", query.Keyword),
		attribute.Int("page", query.Page),
		attribute.Int("page_size", query.PageSize),
		attribute.String("sort", string(query.SortMode)),
	)

	res, err := s.search(ctx, query, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return SearchResponse{}, err
	}
	span.SetAttributes(
		attribute.Bool("synthetic", res.IsSynthetic),
		attribute.Int("result_count", len(res.Notes)),
	)

	s.persistSearch(ctx, query, res)
	return res, nil
}

func (s *NoteService) search(ctx context.Context, query notes.SearchQuery, req SearchRequest) (SearchResponse, error) {
	session, process := s.resolveSession(req.Cookie)
	if session == nil {
		s.tel.ReportCount(report_search_synthetic, 1)
		return synthetic(query, "", "no session configured, showing example notes"), nil
	}

	if category, blocked := s.precheck(session, process); blocked {
		err := fmt.Errorf("platform calls are paused (%s)", category)
		if req.FailFast {
			return SearchResponse{}, &FailureError{
				Category:    category,
				Remediation: xhs.Remediation(category),
				Err:         err,
			}
		}
		s.tel.ReportCount(report_search_synthetic, 1)
		return synthetic(query, category, err.Error()), nil
	}

	items, err := s.platform.Search(ctx, session, query)
	if err != nil {
		category := s.classifier.Classify(err)
		s.recordOutcome(ctx, session, process, category, err)
		s.tel.ReportWarning(report_search, err, category, query.Keyword)

		if req.FailFast {
			return SearchResponse{}, &FailureError{
				Category:    category,
				Remediation: xhs.Remediation(category),
				Err:         err,
			}
		}
		s.tel.ReportCount(report_search_synthetic, 1)
		return synthetic(
			query,
			category,
			fmt.Sprintf("the platform request failed, showing example notes: %s", err.Error()),
		), nil
	}
	s.recordOutcome(ctx, session, process, "", nil)

	entries := notes.NormalizeEntries(items, query)
	if len(entries) == 0 {
		s.tel.ReportDebug("search returned no notes", query.Keyword, len(items))
		if req.FailFast {
			return SearchResponse{Notes: []notes.CanonicalNote{}}, nil
		}
		return synthetic(
			query,
			xhs.CategoryUnknown,
			fmt.Sprintf("no notes found for %q, showing example notes", query.Keyword),
		), nil
	}

	if req.Enrich && s.config.Enrich.Enabled {
		s.enrich(ctx, session, process, entries)
	}

	result := make([]notes.CanonicalNote, len(entries))
	for i, entry := range entries {
		result[i] = entry.Note
	}
	return SearchResponse{Notes: result}, nil
}
