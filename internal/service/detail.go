package service

import (
	"context"
	"fmt"
	"strings"
	"xhsbridge/internal/notes"
	"xhsbridge/internal/platform/xhs"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type DetailRequest struct {
	NoteID      string `json:"noteId"`
	AccessToken string `json:"accessToken,omitempty"`
	Cookie      string `json:"cookie,omitempty"`
	FailFast    bool   `json:"failFast,omitempty"`
}

type DetailResponse struct {
	Note            notes.CanonicalNote `json:"note"`
	IsSynthetic     bool                `json:"isSynthetic"`
	FailureCategory xhs.Category        `json:"failureCategory,omitempty"`
	Remediation     string              `json:"remediation,omitempty"`
}

// fetchDetail resolves a single note, first from the cache, then the feed api and finally the
// note's web page when the api fails for an unrecognized reason.
func (s *NoteService) fetchDetail(ctx context.Context, session *xhs.Session, noteID, accessToken string) (notes.CanonicalNote, xhs.Category, error) {
	cached, ok := s.details.Get(noteID)
	if ok {
		return cached, "", nil
	}

	item, err := s.platform.GetDetail(ctx, session, noteID, accessToken)
	if err != nil {
		category := s.classifier.Classify(err)
		if category != xhs.CategoryUnknown {
			return notes.CanonicalNote{}, category, err
		}

		s.tel.ReportDebug("detail api failed, trying the note page", noteID, err.Error())
		var pageErr error
		item, pageErr = s.platform.GetDetailFromPage(ctx, session, noteID, accessToken)
		if pageErr != nil {
			pageCategory := s.classifier.Classify(pageErr)
			if pageCategory != xhs.CategoryUnknown {
				return notes.CanonicalNote{}, pageCategory, pageErr
			}
			return notes.CanonicalNote{}, category, fmt.Errorf("%w (page: %s)", err, pageErr.Error())
		}
	}

	note := notes.Extract(item)
	if note.ID == "unknown" {
		note.ID = noteID
		note.SourceURL = notes.SourceURL(noteID)
	}
	s.details.Add(noteID, note)
	return note, "", nil
}

// GetDetail returns one note. Like Search it answers with a synthetic note instead of an error
// unless FailFast is set.
func (s *NoteService) GetDetail(ctx context.Context, req DetailRequest) (DetailResponse, error) {
	ctx, span := tracer.Start(ctx, "GetDetail")
	defer span.End()

	noteID := strings.TrimSpace(req.NoteID)
	if noteID == "" {
		err := fmt.Errorf("%w: note id must not be empty", notes.ErrValidation)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return DetailResponse{}, err
	}
	span.SetAttributes(attribute.String("note_id", noteID))

	res, err := s.detail(ctx, noteID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return DetailResponse{}, err
	}
	span.SetAttributes(attribute.Bool("synthetic", res.IsSynthetic))

	if !res.IsSynthetic {
		s.persistNotes(ctx, "", []notes.CanonicalNote{res.Note})
	}
	return res, nil
}

func syntheticDetail(noteID string, category xhs.Category) DetailResponse {
	res := DetailResponse{
		Note:            notes.GenerateDetail(noteID),
		IsSynthetic:     true,
		FailureCategory: category,
	}
	if category != "" {
		res.Remediation = xhs.Remediation(category)
	}
	return res
}

func (s *NoteService) detail(ctx context.Context, noteID string, req DetailRequest) (DetailResponse, error) {
	session, process := s.resolveSession(req.Cookie)
	if session == nil {
		return syntheticDetail(noteID, ""), nil
	}

	if category, blocked := s.precheck(session, process); blocked {
		if req.FailFast {
			return DetailResponse{}, &FailureError{
				Category:    category,
				Remediation: xhs.Remediation(category),
				Err:         fmt.Errorf("platform calls are paused (%s)", category),
			}
		}
		return syntheticDetail(noteID, category), nil
	}

	note, category, err := s.fetchDetail(ctx, session, noteID, req.AccessToken)
	if err != nil {
		s.recordOutcome(ctx, session, process, category, err)
		s.tel.ReportWarning(report_detail, err, category, noteID)
		if req.FailFast {
			return DetailResponse{}, &FailureError{
				Category:    category,
				Remediation: xhs.Remediation(category),
				Err:         err,
			}
		}
		return syntheticDetail(noteID, category), nil
	}
	s.recordOutcome(ctx, session, process, "", nil)

	return DetailResponse{Note: note}, nil
}
