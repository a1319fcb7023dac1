package db

import (
	"context"
)

const upsertNote = `-- name: UpsertNote :exec
insert into notes (
    id, keyword, title, description, kind, nickname, user_id,
    liked_count, comment_count, collected_count, cover_url, source_url,
    first_seen_at, last_seen_at
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
on conflict (id) do update set
    keyword = case when excluded.keyword = '' then notes.keyword else excluded.keyword end,
    title = excluded.title,
    description = excluded.description,
    kind = excluded.kind,
    nickname = excluded.nickname,
    user_id = excluded.user_id,
    liked_count = excluded.liked_count,
    comment_count = excluded.comment_count,
    collected_count = excluded.collected_count,
    cover_url = excluded.cover_url,
    source_url = excluded.source_url,
    last_seen_at = excluded.last_seen_at
`

type UpsertNoteParams struct {
	ID             string
	Keyword        string
	Title          string
	Description    string
	Kind           string
	Nickname       string
	UserID         string
	LikedCount     string
	CommentCount   string
	CollectedCount string
	CoverUrl       string
	SourceUrl      string
	SeenAt         int64
}

// UpsertNote keeps first_seen_at of an existing row, an empty keyword keeps the stored keyword.
func (q *Queries) UpsertNote(ctx context.Context, arg UpsertNoteParams) error {
	_, err := q.db.ExecContext(ctx, upsertNote,
		arg.ID,
		arg.Keyword,
		arg.Title,
		arg.Description,
		arg.Kind,
		arg.Nickname,
		arg.UserID,
		arg.LikedCount,
		arg.CommentCount,
		arg.CollectedCount,
		arg.CoverUrl,
		arg.SourceUrl,
		arg.SeenAt,
		arg.SeenAt,
	)
	return err
}

const getNote = `-- name: GetNote :one
select id, keyword, title, description, kind, nickname, user_id,
    liked_count, comment_count, collected_count, cover_url, source_url,
    first_seen_at, last_seen_at
from notes
where id = ?
`

func scanNote(row interface{ Scan(...any) error }) (Note, error) {
	var i Note
	err := row.Scan(
		&i.ID,
		&i.Keyword,
		&i.Title,
		&i.Description,
		&i.Kind,
		&i.Nickname,
		&i.UserID,
		&i.LikedCount,
		&i.CommentCount,
		&i.CollectedCount,
		&i.CoverUrl,
		&i.SourceUrl,
		&i.FirstSeenAt,
		&i.LastSeenAt,
	)
	return i, err
}

func (q *Queries) GetNote(ctx context.Context, id string) (Note, error) {
	row := q.db.QueryRowContext(ctx, getNote, id)
	return scanNote(row)
}

const listNotesByKeyword = `-- name: ListNotesByKeyword :many
select id, keyword, title, description, kind, nickname, user_id,
    liked_count, comment_count, collected_count, cover_url, source_url,
    first_seen_at, last_seen_at
from notes
where keyword = ?
order by last_seen_at desc, id asc
limit ?
`

type ListNotesByKeywordParams struct {
	Keyword string
	Limit   int64
}

func (q *Queries) ListNotesByKeyword(ctx context.Context, arg ListNotesByKeywordParams) ([]Note, error) {
	rows, err := q.db.QueryContext(ctx, listNotesByKeyword, arg.Keyword, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Note
	for rows.Next() {
		i, err := scanNote(rows)
		if err != nil {
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
