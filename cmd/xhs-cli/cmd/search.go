package cmd

import (
	"fmt"
	"xhsbridge/internal/service"

	"connectrpc.com/connect"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var searchFlags struct {
	page     int
	pageSize int
	sort     string
	cookie   string
	failFast bool
	enrich   bool
}

func init() {
	searchCmd.Flags().IntVarP(&searchFlags.page, "page", "p", 1, "Page number, starting at 1.")
	searchCmd.Flags().IntVarP(&searchFlags.pageSize, "size", "n", 10, "Number of notes per page.")
	searchCmd.Flags().StringVarP(&searchFlags.sort, "sort", "s", "general", "One of general, time or likes.")
	searchCmd.Flags().StringVar(&searchFlags.cookie, "cookie", "", "Use this cookie instead of the service's session.")
	searchCmd.Flags().BoolVar(&searchFlags.failFast, "fail-fast", false, "Return an error instead of example notes when the platform fails.")
	searchCmd.Flags().BoolVar(&searchFlags.enrich, "enrich", false, "Fetch the full description of every note.")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Searches notes by keyword.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		res, err := client.Search(cmd.Context(), connect.NewRequest(&service.SearchRequest{
			Keyword:  args[0],
			Page:     searchFlags.page,
			PageSize: searchFlags.pageSize,
			Sort:     searchFlags.sort,
			Cookie:   searchFlags.cookie,
			FailFast: searchFlags.failFast,
			Enrich:   searchFlags.enrich,
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
		if res.Msg.IsSynthetic {
			t.SetCaption("example notes: %s", res.Msg.Message)
		}
		t.Render()

		if res.Msg.FailureCategory != "" {
			fmt.Printf("\n%s: %s\n", res.Msg.FailureCategory, res.Msg.Remediation)
		}
	},
}
