package service

import (
	"context"
	"fmt"
	"strings"
	"xhsbridge/internal/db"
	"xhsbridge/internal/notes"
)

const topNoteCount = 5

// persistSearch records the search in the log and, for real results, caches the notes. Storage
// failures are reported but never fail the search.
func (s *NoteService) persistSearch(ctx context.Context, query notes.SearchQuery, res SearchResponse) {
	if !res.IsSynthetic {
		s.persistNotes(ctx, query.Keyword, res.Notes)
	}

	top := make([]string, 0, topNoteCount)
	for _, note := range res.Notes {
		if len(top) == topNoteCount {
			break
		}
		top = append(top, note.ID)
	}

	err := s.db.InsertSearchLog(ctx, db.InsertSearchLogParams{
		Keyword:         query.Keyword,
		SortMode:        string(query.SortMode),
		Page:            int64(query.Page),
		PageSize:        int64(query.PageSize),
		ResultCount:     int64(len(res.Notes)),
		IsSynthetic:     res.IsSynthetic,
		FailureCategory: string(res.FailureCategory),
		TopNoteIds:      strings.Join(top, ","),
		CreatedAt:       s.time.Now().Unix(),
	})
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("InsertSearchLog: %w", err), query.Keyword)
	}
}

// persistNotes upserts real notes and raises a like alert the first time a note reaches the
// configured like count.
func (s *NoteService) persistNotes(ctx context.Context, keyword string, result []notes.CanonicalNote) {
	if len(result) == 0 {
		return
	}
	now := s.time.Now().Unix()

	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("begin tx: %w", err))
		return
	}
	defer discard()

	var alerts []notes.CanonicalNote
	for _, note := range result {
		err = tx.UpsertNote(ctx, db.UpsertNoteParams{
			ID:             note.ID,
			Keyword:        keyword,
			Title:          note.Title,
			Description:    note.Description,
			Kind:           string(note.Kind),
			Nickname:       note.Author.Nickname,
			UserID:         note.Author.UserID,
			LikedCount:     note.Engagement.LikedCount,
			CommentCount:   note.Engagement.CommentCount,
			CollectedCount: note.Engagement.CollectedCount,
			CoverUrl:       note.CoverURL,
			SourceUrl:      note.SourceURL,
			SeenAt:         now,
		})
		if err != nil {
			s.tel.ReportBroken(report_db_query, fmt.Errorf("UpsertNote: %w", err), note.ID)
			return
		}

		likes := notes.ParseCount(note.Engagement.LikedCount)
		if likes < s.config.LikeAlertThreshold {
			continue
		}
		inserted, err := tx.InsertLikeAlert(ctx, db.InsertLikeAlertParams{
			NoteID:     note.ID,
			LikedCount: likes,
			CreatedAt:  now,
		})
		if err != nil {
			s.tel.ReportBroken(report_db_query, fmt.Errorf("InsertLikeAlert: %w", err), note.ID)
			return
		}
		if inserted > 0 {
			alerts = append(alerts, note)
		}
	}

	err = commit()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("commit: %w", err))
		return
	}

	for _, note := range alerts {
		s.tel.ReportDebug("like milestone reached", note.ID, note.Engagement.LikedCount)
	}
	if len(alerts) > 0 {
		s.tel.ReportCount(report_like_alert, int64(len(alerts)))
	}
}
