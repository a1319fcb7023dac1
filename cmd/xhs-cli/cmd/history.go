package cmd

import (
	"strings"
	"xhsbridge/internal/service"

	"connectrpc.com/connect"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04:05"

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show.")
	cachedCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of notes to show.")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(alertsCmd)
	rootCmd.AddCommand(cachedCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Lists the latest searches the service answered.",
	Run: func(cmd *cobra.Command, args []string) {
		res, err := client.RecentSearches(cmd.Context(), connect.NewRequest(&service.RecentSearchesRequest{
			Limit: historyLimit,
		}))
		if err != nil {
			fail(err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Time", "Keyword", "Sort", "Page", "Results", "Synthetic", "Failure", "Top notes"})
		for _, entry := range res.Msg.Searches {
			t.AppendRow(table.Row{
				entry.CreatedAt.Format(timeLayout),
				entry.Keyword,
				entry.Sort,
				entry.Page,
				entry.ResultCount,
				entry.IsSynthetic,
				entry.FailureCategory,
				strings.Join(entry.TopNoteIDs, ", "),
			})
		}
		t.Render()
	},
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Lists the notes that crossed the like alert threshold.",
	Run: func(cmd *cobra.Command, args []string) {
		res, err := client.LikeAlerts(cmd.Context(), connect.NewRequest(&service.LikeAlertsRequest{}))
		if err != nil {
			fail(err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Time", "ID", "Title", "Likes", "Link"})
		for _, alert := range res.Msg.Alerts {
			t.AppendRow(table.Row{
				alert.CreatedAt.Format(timeLayout),
				alert.NoteID,
				alert.Title,
				alert.LikedCount,
				alert.SourceURL,
			})
		}
		t.Render()
	},
}

var cachedCmd = &cobra.Command{
	Use:   "cached <keyword>",
	Short: "Prints the notes stored for a keyword without calling the platform.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		res, err := client.CachedNotes(cmd.Context(), connect.NewRequest(&service.CachedNotesRequest{
			Keyword: args[0],
			Limit:   historyLimit,
		}))
		if err != nil {
			fail(err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"ID", "Title", "Author", "Likes", "Comments", "Collects"})
		for _, note := range res.Msg.Notes {
			t.AppendRow(table.Row{
				note.ID,
				note.Title,
				note.Author.Nickname,
				note.Engagement.LikedCount,
				note.Engagement.CommentCount,
				note.Engagement.CollectedCount,
			})
		}
		t.Render()
	},
}
