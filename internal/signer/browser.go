// Package signer provides ExternalSigner implementations for the xhs client.
package signer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
	"xhsbridge/internal/components/telemetry"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

const (
	report_browser_launch = "browser.launch"
	report_browser_sign   = "browser.sign"
)

var ErrSignerClosed = errors.New("signer is closed")

type BrowserConfig struct {
	// ControlURL connects to an already running chrome instead of launching one.
	ControlURL string
	Headless   bool
	HomeURL    string
	Timeout    time.Duration
}

// Browser signs requests by calling the platform's own page-side signing function inside a
// stealth headless chrome. A page is single threaded, so calls are serialized.
type Browser struct {
	config BrowserConfig
	tel    telemetry.API

	mutex    sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	a1       string
	closed   bool
}

func NewBrowser(ctx context.Context, config BrowserConfig, tel telemetry.API) (*Browser, error) {
	if config.HomeURL == "" {
		config.HomeURL = "https://www.xiaohongshu.com"
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	b := &Browser{
		config: config,
		tel:    telemetry.NewScopedAPI("signer", tel),
	}

	controlURL := config.ControlURL
	if controlURL == "" {
		l := launcher.New().
			Headless(config.Headless).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			b.tel.ReportBroken(report_browser_launch, err)
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		b.launcher = l
		controlURL = u
	}

	b.browser = rod.New().ControlURL(controlURL)
	err := b.browser.Connect()
	if err != nil {
		b.cleanup()
		return nil, fmt.Errorf("connect chrome: %w", err)
	}

	b.page, err = stealth.Page(b.browser)
	if err != nil {
		b.cleanup()
		return nil, fmt.Errorf("create page: %w", err)
	}

	err = b.load(ctx)
	if err != nil {
		b.cleanup()
		return nil, err
	}
	return b, nil
}

func (b *Browser) load(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	page := b.page.Context(ctx)
	err := page.Navigate(b.config.HomeURL)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", b.config.HomeURL, err)
	}
	err = page.WaitLoad()
	if err != nil {
		b.tel.ReportWarning(report_browser_launch, fmt.Errorf("wait load: %w", err))
	}
	return nil
}

// useA1 makes the page's cookie jar carry a1, the signature is bound to it.
func (b *Browser) useA1(ctx context.Context, a1 string) error {
	if a1 == b.a1 {
		return nil
	}
	err := b.browser.SetCookies([]*proto.NetworkCookieParam{{
		Name:   "a1",
		Value:  a1,
		Domain: ".xiaohongshu.com",
		Path:   "/",
	}})
	if err != nil {
		return fmt.Errorf("set a1 cookie: %w", err)
	}
	err = b.load(ctx)
	if err != nil {
		return err
	}
	b.a1 = a1
	return nil
}

const signScript = `(uri, body) => {
	if (typeof window._webmsxyw !== "function") {
		throw new Error("signing function is not available on the page");
	}
	return window._webmsxyw(uri, body ? JSON.parse(body) : undefined);
}`

// Sign implements xhs.ExternalSigner.
func (b *Browser) Sign(uri string, payload []byte, a1 string) (map[string]string, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.closed {
		return nil, ErrSignerClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.config.Timeout)
	defer cancel()

	if a1 != "" {
		err := b.useA1(ctx, a1)
		if err != nil {
			b.tel.ReportWarning(report_browser_sign, err)
			return nil, err
		}
	}

	var body any
	if len(payload) > 0 {
		body = string(payload)
	}
	res, err := b.page.Context(ctx).Eval(signScript, uri, body)
	if err != nil {
		b.tel.ReportWarning(report_browser_sign, err, uri)
		return nil, fmt.Errorf("eval sign: %w", err)
	}

	headers, err := signatureHeaders(res.Value)
	if err != nil {
		return nil, fmt.Errorf("eval sign %s: %w", uri, err)
	}
	return headers, nil
}

// signatureHeaders turns the page's {"X-s", "X-t"} result into request headers. X-t comes back
// as a millisecond number and is sent as an integer.
func signatureHeaders(value gson.JSON) (map[string]string, error) {
	xs, ok := value.Get("X-s").Val().(string)
	if !ok || xs == "" {
		return nil, errors.New("empty signature")
	}

	var ts string
	xt := value.Get("X-t")
	switch v := xt.Val().(type) {
	case nil:
		return nil, errors.New("missing signature timestamp")
	case string:
		ts = v
	case bool:
		return nil, fmt.Errorf("malformed signature timestamp %v", v)
	default:
		ts = strconv.FormatInt(int64(xt.Num()), 10)
	}
	if ts == "" {
		return nil, errors.New("missing signature timestamp")
	}

	return map[string]string{
		"x-s": xs,
		"x-t": ts,
	}, nil
}

func (b *Browser) cleanup() {
	if b.browser != nil {
		err := b.browser.Close()
		if err != nil {
			b.tel.ReportWarning(report_browser_launch, fmt.Errorf("close chrome: %w", err))
		}
	}
	if b.launcher != nil {
		b.launcher.Cleanup()
	}
}

func (b *Browser) Close() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.cleanup()
}
