package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Config{File: ":memory:"}.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestUpsertNote(t *testing.T) {
	ctx := context.Background()
	qry := New(openMemory(t))

	err := qry.UpsertNote(ctx, UpsertNoteParams{
		ID:         "n1",
		Keyword:    "美食",
		Title:      "first",
		LikedCount: "10",
		SeenAt:     100,
	})
	require.NoError(t, err)
	err = qry.UpsertNote(ctx, UpsertNoteParams{
		ID:         "n1",
		Keyword:    "火锅",
		Title:      "second",
		LikedCount: "1.2万",
		SeenAt:     200,
	})
	require.NoError(t, err)

	note, err := qry.GetNote(ctx, "n1")
	require.NoError(t, err)
	require.Equal(t, "second", note.Title)
	require.Equal(t, "火锅", note.Keyword)
	require.Equal(t, "1.2万", note.LikedCount)
	require.Equal(t, int64(100), note.FirstSeenAt)
	require.Equal(t, int64(200), note.LastSeenAt)

	_, err = qry.GetNote(ctx, "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)

	notes, err := qry.ListNotesByKeyword(ctx, ListNotesByKeywordParams{Keyword: "火锅", Limit: 10})
	require.NoError(t, err)
	require.Len(t, notes, 1)

	// detail lookups carry no keyword
	err = qry.UpsertNote(ctx, UpsertNoteParams{ID: "n1", Title: "third", SeenAt: 300})
	require.NoError(t, err)
	note, err = qry.GetNote(ctx, "n1")
	require.NoError(t, err)
	require.Equal(t, "火锅", note.Keyword)
	require.Equal(t, "third", note.Title)
}

func TestSearchLogs(t *testing.T) {
	ctx := context.Background()
	qry := New(openMemory(t))

	for i, keyword := range []string{"a", "b", "c"} {
		err := qry.InsertSearchLog(ctx, InsertSearchLogParams{
			Keyword:         keyword,
			SortMode:        "general",
			Page:            1,
			PageSize:        3,
			ResultCount:     int64(i),
			IsSynthetic:     i == 1,
			FailureCategory: "",
			TopNoteIds:      `["x"]`,
			CreatedAt:       int64(i),
		})
		require.NoError(t, err)
	}

	logs, err := qry.ListSearchLogs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, "c", logs[0].Keyword)
	require.Equal(t, "b", logs[1].Keyword)
	require.True(t, logs[1].IsSynthetic)
	require.Equal(t, `["x"]`, logs[1].TopNoteIds)
}

func TestLikeAlertsOnlyOnce(t *testing.T) {
	ctx := context.Background()
	qry := New(openMemory(t))

	n, err := qry.InsertLikeAlert(ctx, InsertLikeAlertParams{NoteID: "n1", LikedCount: 12, CreatedAt: 1})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = qry.InsertLikeAlert(ctx, InsertLikeAlertParams{NoteID: "n1", LikedCount: 40, CreatedAt: 2})
	require.NoError(t, err)
	require.Equal(t, int64(0), n)

	alerts, err := qry.ListLikeAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, int64(12), alerts[0].LikedCount)
}

func TestMakeTx(t *testing.T) {
	ctx := context.Background()
	database := openMemory(t)
	makeTx := NewMakeTx(database)

	tx, discard, _, err := makeTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpsertNote(ctx, UpsertNoteParams{ID: "rolled-back", SeenAt: 1}))
	require.NoError(t, discard())

	tx, _, commit, err := makeTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpsertNote(ctx, UpsertNoteParams{ID: "kept", SeenAt: 1}))
	require.NoError(t, commit())

	qry := New(database)
	_, err = qry.GetNote(ctx, "rolled-back")
	require.ErrorIs(t, err, sql.ErrNoRows)
	_, err = qry.GetNote(ctx, "kept")
	require.NoError(t, err)
}

func TestOpenWithoutTarget(t *testing.T) {
	_, err := Config{}.Open(context.Background())
	require.Error(t, err)
}
