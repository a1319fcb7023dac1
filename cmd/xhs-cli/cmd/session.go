package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"xhsbridge/internal/service"

	"connectrpc.com/connect"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	sessionCmd.AddCommand(sessionSetCmd)
	sessionCmd.AddCommand(sessionStatusCmd)
	rootCmd.AddCommand(sessionCmd)
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "The 'session' subcommand manages the cookie the service runs with.",
}

var sessionSetCmd = &cobra.Command{
	Use:   "set [cookie]",
	Short: "Replaces the service's cookie, it is read from stdin when not given.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var credential string
		if len(args) == 1 {
			credential = args[0]
		} else {
			reader := bufio.NewReader(os.Stdin)
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				fail(err)
			}
			credential = strings.TrimSpace(line)
		}

		res, err := client.UpdateSession(cmd.Context(), connect.NewRequest(&service.UpdateSessionRequest{
			Credential: credential,
		}))
		if err != nil {
			fail(err)
		}
		if !res.Msg.Accepted {
			fmt.Fprintf(os.Stderr, "rejected: %s\n", res.Msg.Reason)
			os.Exit(1)
		}
		fmt.Println("accepted")
		if res.Msg.Reason != "" {
			fmt.Println(res.Msg.Reason)
		}
	},
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Prints whether the service has a working session.",
	Run: func(cmd *cobra.Command, args []string) {
		res, err := client.SessionStatus(cmd.Context(), connect.NewRequest(&service.SessionStatusRequest{}))
		if err != nil {
			fail(err)
		}
		status := res.Msg

		cooldown := "-"
		if !status.Risk.CooldownUntil.IsZero() {
			cooldown = fmt.Sprintf("%s (%s)", status.Risk.CooldownUntil.Format("2006-01-02 15:04:05"), status.Risk.CooldownCategory)
		}

		t := newTable()
		t.AppendRows([]table.Row{
			{"Present", status.Present},
			{"Valid", status.Valid},
			{"Reason", status.Reason},
			{"Fingerprint", status.Fingerprint},
			{"Requests", status.Risk.TotalRequests},
			{"Failures", status.Risk.TotalFailures},
			{"Failure streak", status.Risk.ConsecutiveFailures},
			{"Cooldown until", cooldown},
		})
		t.Render()
	},
}
