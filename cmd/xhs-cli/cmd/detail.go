package cmd

import (
	"fmt"
	"xhsbridge/internal/service"

	"connectrpc.com/connect"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var detailFlags struct {
	accessToken string
	cookie      string
	failFast    bool
}

func init() {
	detailCmd.Flags().StringVarP(&detailFlags.accessToken, "token", "t", "", "The xsec_token that came with the note in search results.")
	detailCmd.Flags().StringVar(&detailFlags.cookie, "cookie", "", "Use this cookie instead of the service's session.")
	detailCmd.Flags().BoolVar(&detailFlags.failFast, "fail-fast", false, "Return an error instead of an example note when the platform fails.")
	rootCmd.AddCommand(detailCmd)
}

var detailCmd = &cobra.Command{
	Use:   "detail <note id>",
	Short: "Prints a single note.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		res, err := client.GetDetail(cmd.Context(), connect.NewRequest(&service.DetailRequest{
			NoteID:      args[0],
			AccessToken: detailFlags.accessToken,
			Cookie:      detailFlags.cookie,
			FailFast:    detailFlags.failFast,
		}))
		if err != nil {
			fail(err)
		}
		note := res.Msg.Note

		t := newTable()
		t.AppendRows([]table.Row{
			{"ID", note.ID},
			{"Title", note.Title},
			{"Kind", note.Kind},
			{"Author", fmt.Sprintf("%s (%s)", note.Author.Nickname, note.Author.UserID)},
			{"Likes", note.Engagement.LikedCount},
			{"Comments", note.Engagement.CommentCount},
			{"Collects", note.Engagement.CollectedCount},
			{"Cover", note.CoverURL},
			{"Link", note.SourceURL},
			{"Synthetic", res.Msg.IsSynthetic},
		})
		t.Render()

		fmt.Printf("\n%s\n", note.Description)
		if res.Msg.FailureCategory != "" {
			fmt.Printf("\n%s: %s\n", res.Msg.FailureCategory, res.Msg.Remediation)
		}
	},
}
