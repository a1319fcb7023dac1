package notes

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestGenerateDeterministic(t *testing.T) {
	query := SearchQuery{Keyword: "food", Page: 1, PageSize: 5, SortMode: SortGeneral}
	first := Generate(query)
	second := Generate(query)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatal(diff)
	}
}

func TestGenerateLength(t *testing.T) {
	for _, size := range []int{1, 5, 20} {
		for _, mode := range []SortMode{SortGeneral, SortTime, SortLikes} {
			result := Generate(SearchQuery{Keyword: "food", Page: 1, PageSize: size, SortMode: mode})
			require.Len(t, result, size)

			seen := map[string]bool{}
			for _, note := range result {
				require.False(t, seen[note.ID], "duplicate id %s", note.ID)
				seen[note.ID] = true
				require.NotEmpty(t, note.Title)
				require.NotEmpty(t, note.Description)
				require.NotEmpty(t, note.Author.Nickname)
				require.NotEmpty(t, note.CoverURL)
				require.True(t, strings.HasSuffix(note.SourceURL, note.ID))
			}
		}
	}
}

func TestGenerateCapsPageSize(t *testing.T) {
	result := Generate(SearchQuery{Keyword: "food", Page: 1, PageSize: 1 << 36, SortMode: SortGeneral})
	require.Len(t, result, MaxPageSize)
}

func TestGenerateCyclesTemplates(t *testing.T) {
	result := Generate(SearchQuery{Keyword: "food", Page: 1, PageSize: 12, SortMode: SortGeneral})
	require.Contains(t, result[0].Title, "food")
	require.NotContains(t, result[0].Title, "(")
	require.Equal(t, result[0].Title+" (2)", result[5].Title)
	require.Equal(t, result[0].Title+" (3)", result[10].Title)
}

func TestGenerateLikesSortedDescending(t *testing.T) {
	result := Generate(SearchQuery{Keyword: "food", Page: 1, PageSize: 20, SortMode: SortLikes})
	for i := 1; i < len(result); i++ {
		require.GreaterOrEqual(
			t,
			ParseCount(result[i-1].Engagement.LikedCount),
			ParseCount(result[i].Engagement.LikedCount),
		)
	}
}

func TestGenerateTimeLabels(t *testing.T) {
	result := Generate(SearchQuery{Keyword: "food", Page: 1, PageSize: 12, SortMode: SortTime})
	require.True(t, strings.HasPrefix(result[0].Title, "[刚刚] "))
	require.True(t, strings.HasPrefix(result[1].Title, "[10分钟前] "))
	require.True(t, strings.HasPrefix(result[10].Title, "[3周前] "))
	require.True(t, strings.HasPrefix(result[11].Title, "[4周前] "))
}

func TestGenerateDependsOnKeyword(t *testing.T) {
	a := Generate(SearchQuery{Keyword: "美食", Page: 1, PageSize: 3, SortMode: SortGeneral})
	b := Generate(SearchQuery{Keyword: "旅行", Page: 1, PageSize: 3, SortMode: SortGeneral})
	require.NotEqual(t, a[0].ID, b[0].ID)
	require.Contains(t, a[0].Title, "美食")
}

func TestGenerateDetail(t *testing.T) {
	note := GenerateDetail("abc")
	require.Equal(t, "abc", note.ID)
	require.Equal(t, "https://www.xiaohongshu.com/explore/abc", note.SourceURL)
	if diff := cmp.Diff(note, GenerateDetail("abc")); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, "unknown", GenerateDetail("").ID)
}
