package signer

import (
	"errors"
	"fmt"
	"time"
	"xhsbridge/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const report_remote_sign = "remote.sign"

// Remote asks a signing sidecar over http. The sidecar receives
// {"uri", "data", "a1"} and answers with the header map to attach.
type Remote struct {
	http *resty.Client
	url  string
	tel  telemetry.API
}

func NewRemote(url string, timeout time.Duration, tel telemetry.API) Remote {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	tel = telemetry.NewScopedAPI("signer", tel)
	client := resty.New().SetTimeout(timeout)
	telemetry.InstrumentResty(client, tel)
	return Remote{http: client, url: url, tel: tel}
}

type remoteRequest struct {
	URI  string `json:"uri"`
	Data string `json:"data,omitempty"`
	A1   string `json:"a1"`
}

// Sign implements xhs.ExternalSigner.
func (r Remote) Sign(uri string, payload []byte, a1 string) (map[string]string, error) {
	var out map[string]any
	res, err := r.http.R().
		SetBody(remoteRequest{URI: uri, Data: string(payload), A1: a1}).
		SetResult(&out).
		Post(r.url)
	if err != nil {
		r.tel.ReportWarning(report_remote_sign, err)
		return nil, fmt.Errorf("remote sign: %w", err)
	}
	if res.IsError() {
		err := fmt.Errorf("remote sign: status %d", res.StatusCode())
		r.tel.ReportWarning(report_remote_sign, err)
		return nil, err
	}

	headers := make(map[string]string, len(out))
	for key, value := range out {
		switch v := value.(type) {
		case string:
			headers[key] = v
		case float64:
			headers[key] = fmt.Sprintf("%.0f", v)
		}
	}
	if len(headers) == 0 {
		return nil, errors.New("remote sign: empty response")
	}
	return headers, nil
}
