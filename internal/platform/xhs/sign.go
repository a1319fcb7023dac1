package xhs

import (
	"fmt"
	"xhsbridge/internal/components/telemetry"
)

const report_signer_adapter = "signer.adapter"

// ExternalSigner computes signature headers (x-s, x-t, x-s-common) for a request from its uri,
// its json payload (nil for GET) and the a1 cookie.
type ExternalSigner func(uri string, payload []byte, a1 string) (map[string]string, error)

// SignFunc is the signer shape the client calls with. A nil result means the request is sent
// unsigned.
type SignFunc func(uri string, payload []byte, a1, webSession string) map[string]string

// Adapt turns an ExternalSigner into a SignFunc. Signer failures, including panics, are reported
// and turned into "send unsigned" so the request can still fail at the platform and be
// classified there.
func Adapt(external ExternalSigner, tel telemetry.API) SignFunc {
	if tel == nil {
		tel = telemetry.NoopAPI{}
	}
	if external == nil {
		return func(string, []byte, string, string) map[string]string {
			return nil
		}
	}

	return func(uri string, payload []byte, a1, _ string) (headers map[string]string) {
		defer func() {
			if r := recover(); r != nil {
				tel.ReportWarning(report_signer_adapter, fmt.Errorf("signer panicked: %v", r), uri)
				headers = nil
			}
		}()

		headers, err := external(uri, payload, a1)
		if err != nil {
			tel.ReportWarning(report_signer_adapter, fmt.Errorf("sign %s: %w", uri, err))
			return nil
		}
		if len(headers) == 0 {
			return nil
		}
		return headers
	}
}
