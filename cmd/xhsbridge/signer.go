package main

import (
	"context"
	"fmt"
	"time"
	"xhsbridge/internal/components/telemetry"
	"xhsbridge/internal/platform/xhs"
	"xhsbridge/internal/signer"
)

// InitSigner builds the signer named in the config, the returned func releases its resources.
func InitSigner(ctx context.Context, cfg SignerConfig, tel telemetry.API) (xhs.SignFunc, func(), error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	switch cfg.Kind {
	case "none":
		tel.ReportWarning("signer", "no signer configured, requests will be sent unsigned")
		return xhs.Adapt(nil, tel), func() {}, nil
	case "remote":
		if cfg.RemoteURL == "" {
			return nil, nil, fmt.Errorf("signer kind 'remote' requires remote_url")
		}
		remote := signer.NewRemote(cfg.RemoteURL, timeout, tel)
		return xhs.Adapt(remote.Sign, tel), func() {}, nil
	case "browser":
		browser, err := signer.NewBrowser(ctx, signer.BrowserConfig{
			ControlURL: cfg.ControlURL,
			Headless:   cfg.Headless,
			Timeout:    timeout,
		}, tel)
		if err != nil {
			return nil, nil, err
		}
		return xhs.Adapt(browser.Sign, tel), browser.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown signer kind '%s'", cfg.Kind)
}
