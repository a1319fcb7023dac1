package xhs

import (
	"fmt"
	"strings"
)

const maxErrorBody = 512

// PlatformError is an anomalous answer from the platform: an http error status, an envelope
// with success == false or a non-zero code, or a page that could not be read.
type PlatformError struct {
	Status  int
	Code    int
	Message string
	Body    string
}

func (e *PlatformError) Error() string {
	var b strings.Builder
	b.WriteString("xhs")
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Code != 0 {
		fmt.Fprintf(&b, ": code %d", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	return b.String()
}

func truncateBody(body []byte) string {
	if len(body) <= maxErrorBody {
		return string(body)
	}
	return string(body[:maxErrorBody])
}
