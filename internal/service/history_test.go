package service

import (
	"context"
	"testing"
	"xhsbridge/internal/notes"
	"xhsbridge/internal/platform/xhs"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/require"
)

func TestHistoryAfterSearch(t *testing.T) {
	env := newTestEnv(t, Config{}).withSession(t)
	ctx := context.Background()

	env.platform.searchItems = []notes.RawItem{
		noteItem("n1", "火锅推荐", "1.2k"),
		noteItem("n2", "奶茶测评", "5"),
	}
	_, err := env.svc.Search(ctx, SearchRequest{Keyword: "美食", PageSize: 10, Sort: "likes"})
	require.NoError(t, err)

	env.platform.searchErr = &xhs.PlatformError{Status: 461, Message: "安全验证"}
	_, err = env.svc.Search(ctx, SearchRequest{Keyword: "旅行", PageSize: 2})
	require.NoError(t, err)

	searches, err := env.svc.RecentSearches(ctx, RecentSearchesRequest{})
	require.NoError(t, err)
	require.Len(t, searches.Searches, 2)

	require.Equal(t, "旅行", searches.Searches[0].Keyword)
	require.Equal(t, xhs.CategoryChallengeRequired, searches.Searches[0].FailureCategory)

	food := searches.Searches[1]
	require.Equal(t, "美食", food.Keyword)
	require.Equal(t, "likes", food.Sort)
	require.Equal(t, 2, food.ResultCount)
	require.False(t, food.IsSynthetic)
	require.Equal(t, []string{"n1", "n2"}, food.TopNoteIDs)
	require.True(t, food.CreatedAt.Equal(env.clock.Now()))

	limited, err := env.svc.RecentSearches(ctx, RecentSearchesRequest{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited.Searches, 1)

	alerts, err := env.svc.LikeAlerts(ctx, LikeAlertsRequest{})
	require.NoError(t, err)
	require.Len(t, alerts.Alerts, 1)
	require.Equal(t, "n1", alerts.Alerts[0].NoteID)
	require.Equal(t, "火锅推荐", alerts.Alerts[0].Title)
	require.Equal(t, int64(1200), alerts.Alerts[0].LikedCount)
	require.Equal(t, notes.SourceURL("n1"), alerts.Alerts[0].SourceURL)

	cached, err := env.svc.CachedNotes(ctx, CachedNotesRequest{Keyword: "美食"})
	require.NoError(t, err)
	require.Len(t, cached.Notes, 2)
	require.Equal(t, "n1", cached.Notes[0].ID)
	require.Equal(t, "author-n1", cached.Notes[0].Author.Nickname)
	require.Equal(t, "1.2k", cached.Notes[0].Engagement.LikedCount)

	// cached lookups never reach the platform
	search, _, _ := env.platform.calls()
	_, err = env.svc.CachedNotes(ctx, CachedNotesRequest{Keyword: "旅行"})
	require.NoError(t, err)
	searchAfter, _, _ := env.platform.calls()
	require.Equal(t, search, searchAfter)

	_, err = env.svc.CachedNotes(ctx, CachedNotesRequest{Keyword: " "})
	require.ErrorIs(t, err, notes.ErrValidation)
}

func TestHistoryLimit(t *testing.T) {
	require.Equal(t, int64(defaultHistoryLimit), historyLimit(0))
	require.Equal(t, int64(defaultHistoryLimit), historyLimit(-3))
	require.Equal(t, int64(7), historyLimit(7))
	require.Equal(t, int64(maxHistoryLimit), historyLimit(maxHistoryLimit+1))
}

func TestConnectHistory(t *testing.T) {
	env := newTestEnv(t, Config{})
	server := newTestServer(t, env, "")
	client := NewNoteServiceClient(server.Client(), server.URL)
	ctx := context.Background()

	_, err := client.Search(ctx, connect.NewRequest(&SearchRequest{Keyword: "美食", PageSize: 3}))
	require.NoError(t, err)

	searches, err := client.RecentSearches(ctx, connect.NewRequest(&RecentSearchesRequest{}))
	require.NoError(t, err)
	require.Len(t, searches.Msg.Searches, 1)
	require.True(t, searches.Msg.Searches[0].IsSynthetic)

	alerts, err := client.LikeAlerts(ctx, connect.NewRequest(&LikeAlertsRequest{}))
	require.NoError(t, err)
	require.Empty(t, alerts.Msg.Alerts)

	_, err = client.CachedNotes(ctx, connect.NewRequest(&CachedNotesRequest{}))
	require.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}
