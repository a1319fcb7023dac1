package db

import (
	"context"
)

const insertSearchLog = `-- name: InsertSearchLog :exec
insert into search_logs (
    keyword, sort_mode, page, page_size, result_count,
    is_synthetic, failure_category, top_note_ids, created_at
) values (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertSearchLogParams struct {
	Keyword         string
	SortMode        string
	Page            int64
	PageSize        int64
	ResultCount     int64
	IsSynthetic     bool
	FailureCategory string
	TopNoteIds      string
	CreatedAt       int64
}

func (q *Queries) InsertSearchLog(ctx context.Context, arg InsertSearchLogParams) error {
	_, err := q.db.ExecContext(ctx, insertSearchLog,
		arg.Keyword,
		arg.SortMode,
		arg.Page,
		arg.PageSize,
		arg.ResultCount,
		arg.IsSynthetic,
		arg.FailureCategory,
		arg.TopNoteIds,
		arg.CreatedAt,
	)
	return err
}

const listSearchLogs = `-- name: ListSearchLogs :many
select id, keyword, sort_mode, page, page_size, result_count,
    is_synthetic, failure_category, top_note_ids, created_at
from search_logs
order by id desc
limit ?
`

func (q *Queries) ListSearchLogs(ctx context.Context, limit int64) ([]SearchLog, error) {
	rows, err := q.db.QueryContext(ctx, listSearchLogs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SearchLog
	for rows.Next() {
		var i SearchLog
		if err := rows.Scan(
			&i.ID,
			&i.Keyword,
			&i.SortMode,
			&i.Page,
			&i.PageSize,
			&i.ResultCount,
			&i.IsSynthetic,
			&i.FailureCategory,
			&i.TopNoteIds,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertLikeAlert = `-- name: InsertLikeAlert :execrows
insert into like_alerts (note_id, liked_count, created_at)
values (?, ?, ?)
on conflict (note_id) do nothing
`

type InsertLikeAlertParams struct {
	NoteID     string
	LikedCount int64
	CreatedAt  int64
}

// InsertLikeAlert returns 0 when the note already had an alert.
func (q *Queries) InsertLikeAlert(ctx context.Context, arg InsertLikeAlertParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertLikeAlert, arg.NoteID, arg.LikedCount, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listLikeAlerts = `-- name: ListLikeAlerts :many
select note_id, liked_count, created_at
from like_alerts
order by created_at desc, note_id asc
`

func (q *Queries) ListLikeAlerts(ctx context.Context) ([]LikeAlert, error) {
	rows, err := q.db.QueryContext(ctx, listLikeAlerts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LikeAlert
	for rows.Next() {
		var i LikeAlert
		if err := rows.Scan(&i.NoteID, &i.LikedCount, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
