package signer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ysmood/gson"
)

func TestSignatureHeaders(t *testing.T) {
	table := []struct {
		name     string
		value    string
		expected map[string]string
	}{
		{
			name:     "numeric timestamp",
			value:    `{"X-s":"XYW_abc","X-t":1716000000123}`,
			expected: map[string]string{"x-s": "XYW_abc", "x-t": "1716000000123"},
		},
		{
			name:     "string timestamp",
			value:    `{"X-s":"XYW_abc","X-t":"1716000000123"}`,
			expected: map[string]string{"x-s": "XYW_abc", "x-t": "1716000000123"},
		},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			headers, err := signatureHeaders(gson.NewFrom(row.value))
			require.NoError(t, err)
			require.Equal(t, row.expected, headers)
		})
	}
}

func TestSignatureHeadersRejectsIncompleteResults(t *testing.T) {
	for _, value := range []string{
		`{"X-t":1716000000123}`,
		`{"X-s":"","X-t":1716000000123}`,
		`{"X-s":"XYW_abc"}`,
		`{"X-s":"XYW_abc","X-t":""}`,
		`null`,
	} {
		_, err := signatureHeaders(gson.NewFrom(value))
		require.Error(t, err, value)
	}
}
