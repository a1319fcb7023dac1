package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"xhsbridge/internal/components/chrono"
	"xhsbridge/internal/db"
	"xhsbridge/internal/notes"
	"xhsbridge/internal/platform/xhs"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

func historyLimit(limit int) int64 {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return int64(limit)
}

func unixTime(seconds int64) time.Time {
	return time.Unix(seconds, 0).In(chrono.Shanghai())
}

type RecentSearchesRequest struct {
	Limit int `json:"limit,omitempty"`
}

type SearchLogEntry struct {
	Keyword         string       `json:"keyword"`
	Sort            string       `json:"sort"`
	Page            int          `json:"page"`
	PageSize        int          `json:"pageSize"`
	ResultCount     int          `json:"resultCount"`
	IsSynthetic     bool         `json:"isSynthetic"`
	FailureCategory xhs.Category `json:"failureCategory,omitempty"`
	TopNoteIDs      []string     `json:"topNoteIds"`
	CreatedAt       time.Time    `json:"createdAt"`
}

type RecentSearchesResponse struct {
	Searches []SearchLogEntry `json:"searches"`
}

// RecentSearches lists the latest searches, newest first.
func (s *NoteService) RecentSearches(ctx context.Context, req RecentSearchesRequest) (RecentSearchesResponse, error) {
	logs, err := s.db.ListSearchLogs(ctx, historyLimit(req.Limit))
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("ListSearchLogs: %w", err))
		return RecentSearchesResponse{}, err
	}

	out := make([]SearchLogEntry, len(logs))
	for i, log := range logs {
		top := []string{}
		if log.TopNoteIds != "" {
			top = strings.Split(log.TopNoteIds, ",")
		}
		out[i] = SearchLogEntry{
			Keyword:         log.Keyword,
			Sort:            log.SortMode,
			Page:            int(log.Page),
			PageSize:        int(log.PageSize),
			ResultCount:     int(log.ResultCount),
			IsSynthetic:     log.IsSynthetic,
			FailureCategory: xhs.Category(log.FailureCategory),
			TopNoteIDs:      top,
			CreatedAt:       unixTime(log.CreatedAt),
		}
	}
	return RecentSearchesResponse{Searches: out}, nil
}

type LikeAlertsRequest struct{}

type LikeAlertEntry struct {
	NoteID     string    `json:"noteId"`
	Title      string    `json:"title"`
	LikedCount int64     `json:"likedCount"`
	SourceURL  string    `json:"sourceUrl"`
	CreatedAt  time.Time `json:"createdAt"`
}

type LikeAlertsResponse struct {
	Alerts []LikeAlertEntry `json:"alerts"`
}

// LikeAlerts lists every note that crossed the like alert threshold, newest first.
func (s *NoteService) LikeAlerts(ctx context.Context, req LikeAlertsRequest) (LikeAlertsResponse, error) {
	alerts, err := s.db.ListLikeAlerts(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("ListLikeAlerts: %w", err))
		return LikeAlertsResponse{}, err
	}

	out := make([]LikeAlertEntry, len(alerts))
	for i, alert := range alerts {
		entry := LikeAlertEntry{
			NoteID:     alert.NoteID,
			LikedCount: alert.LikedCount,
			SourceURL:  notes.SourceURL(alert.NoteID),
			CreatedAt:  unixTime(alert.CreatedAt),
		}

		note, err := s.db.GetNote(ctx, alert.NoteID)
		switch {
		case err == nil:
			entry.Title = note.Title
		case !errors.Is(err, sql.ErrNoRows):
			s.tel.ReportBroken(report_db_query, fmt.Errorf("GetNote: %w", err), alert.NoteID)
		}
		out[i] = entry
	}
	return LikeAlertsResponse{Alerts: out}, nil
}

type CachedNotesRequest struct {
	Keyword string `json:"keyword"`
	Limit   int    `json:"limit,omitempty"`
}

type CachedNotesResponse struct {
	Notes []notes.CanonicalNote `json:"notes"`
}

// CachedNotes answers from the notes cache only, it never calls the platform.
func (s *NoteService) CachedNotes(ctx context.Context, req CachedNotesRequest) (CachedNotesResponse, error) {
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		return CachedNotesResponse{}, fmt.Errorf("%w: keyword must not be empty", notes.ErrValidation)
	}

	rows, err := s.db.ListNotesByKeyword(ctx, db.ListNotesByKeywordParams{
		Keyword: keyword,
		Limit:   historyLimit(req.Limit),
	})
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("ListNotesByKeyword: %w", err), keyword)
		return CachedNotesResponse{}, err
	}

	out := make([]notes.CanonicalNote, len(rows))
	for i, row := range rows {
		out[i] = notes.CanonicalNote{
			ID:          row.ID,
			Title:       row.Title,
			Description: row.Description,
			Kind:        notes.Kind(row.Kind),
			Author: notes.Author{
				Nickname: row.Nickname,
				UserID:   row.UserID,
			},
			Engagement: notes.Engagement{
				LikedCount:     row.LikedCount,
				CommentCount:   row.CommentCount,
				CollectedCount: row.CollectedCount,
			},
			CoverURL:  row.CoverUrl,
			SourceURL: row.SourceUrl,
		}
	}
	return CachedNotesResponse{Notes: out}, nil
}
