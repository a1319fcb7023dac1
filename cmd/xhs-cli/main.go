package main

import (
	"os"
	"xhsbridge/cmd/xhs-cli/cmd"
)

func main() {
	baseUrl, ok := os.LookupEnv("XHSBRIDGE_BASE_URL")
	if !ok {
		baseUrl = "http://localhost:8002"
	}
	cmd.BaseUrl = baseUrl
	cmd.AdminToken = os.Getenv("XHSBRIDGE_ADMIN_TOKEN")

	cmd.Execute()
}
