package cmd

import (
	"fmt"
	"net/http"
	"os"
	"xhsbridge/internal/components/serviceutil"
	"xhsbridge/internal/platform/xhs"
	"xhsbridge/internal/service"

	"connectrpc.com/connect"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var BaseUrl string
var AdminToken string

var client service.NoteServiceClient

var rootCmd = &cobra.Command{
	Use:   "xhs-cli",
	Short: "xhs-cli is a CLI interface for the xhsbridge note service.",
}

func Execute() {
	client = service.NewNoteServiceClient(
		http.DefaultClient,
		BaseUrl,
		connect.WithInterceptors(serviceutil.ProvideAccessTokenInterceptor(AdminToken)),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

// fail prints err, with remediation when the service classified it, and exits.
func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	if category, ok := service.FailureCategory(err); ok {
		fmt.Fprintf(os.Stderr, "\n%s\n", xhs.Remediation(category))
	}
	os.Exit(1)
}
