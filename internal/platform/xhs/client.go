package xhs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"xhsbridge/internal/components/telemetry"
	"xhsbridge/internal/notes"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/mazen160/go-random"
	"golang.org/x/time/rate"
)

const (
	report_client_search      = "client.search"
	report_client_get_detail  = "client.get-detail"
	report_client_detail_page = "client.get-detail-from-page"
)

const (
	searchURI = "/api/sns/web/v1/search/notes"
	feedURI   = "/api/sns/web/v1/feed"
)

type Config struct {
	APIBaseURL        string
	WebBaseURL        string
	Timeout           time.Duration
	RequestsPerMinute int
	Burst             int
	// TLSBypass swaps the transport for one with a browser-like TLS fingerprint.
	TLSBypass bool
}

func (c Config) withDefaults() Config {
	if c.APIBaseURL == "" {
		c.APIBaseURL = "https://edith.xiaohongshu.com"
	}
	if c.WebBaseURL == "" {
		c.WebBaseURL = "https://www.xiaohongshu.com"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = 30
	}
	if c.Burst <= 0 {
		c.Burst = 2
	}
	c.APIBaseURL = strings.TrimSuffix(c.APIBaseURL, "/")
	c.WebBaseURL = strings.TrimSuffix(c.WebBaseURL, "/")
	return c
}

// Client issues signed requests to the platform. It holds no per-session state, the Session is
// passed to every call.
type Client struct {
	http   *resty.Client
	config Config
	tel    telemetry.API
}

func NewClient(config Config, tel telemetry.API) *Client {
	config = config.withDefaults()
	tel = telemetry.NewScopedAPI("xhs", tel)

	httpClient := resty.New()
	httpClient.SetTimeout(config.Timeout)
	if config.TLSBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	limiter := rate.NewLimiter(rate.Limit(float64(config.RequestsPerMinute)/60), config.Burst)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})
	telemetry.InstrumentResty(httpClient, tel)

	return &Client{http: httpClient, config: config, tel: tel}
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

type itemsData struct {
	HasMore bool            `json:"has_more"`
	Items   []notes.RawItem `json:"items"`
}

func decodeJSON(data []byte, out any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	return decoder.Decode(out)
}

func (c *Client) request(ctx context.Context, session *Session, referer string) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetHeader("user-agent", session.UserAgent()).
		SetHeader("cookie", session.Cookie()).
		SetHeader("origin", c.config.WebBaseURL).
		SetHeader("referer", referer)
}

// post sends a signed json request and unwraps the response envelope.
func (c *Client) post(ctx context.Context, session *Session, uri string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}

	req := c.request(ctx, session, c.config.WebBaseURL+"/").
		SetHeader("content-type", "application/json;charset=UTF-8").
		SetBody(body)
	for key, value := range session.Sign(uri, body) {
		req.SetHeader(key, value)
	}

	res, err := req.Post(c.config.APIBaseURL + uri)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", uri, err)
	}
	return unwrap(res.StatusCode(), res.Body())
}

func unwrap(status int, body []byte) (json.RawMessage, error) {
	if status >= 400 {
		return nil, &PlatformError{
			Status:  status,
			Message: "http error",
			Body:    truncateBody(body),
		}
	}

	var env envelope
	err := json.Unmarshal(body, &env)
	if err != nil {
		return nil, &PlatformError{
			Status:  status,
			Message: fmt.Sprintf("malformed response: %s", err.Error()),
			Body:    truncateBody(body),
		}
	}
	if !env.Success || env.Code != 0 {
		return nil, &PlatformError{
			Status:  status,
			Code:    env.Code,
			Message: env.Msg,
			Body:    truncateBody(body),
		}
	}
	return env.Data, nil
}

type searchPayload struct {
	Keyword  string `json:"keyword"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	SearchID string `json:"search_id"`
	Sort     string `json:"sort"`
	NoteType int    `json:"note_type"`
}

// Search fetches exactly one page of search results.
func (c *Client) Search(ctx context.Context, session *Session, query notes.SearchQuery) ([]notes.RawItem, error) {
	if session == nil {
		return nil, ErrNoSession
	}

	searchID, err := random.String(32)
	if err != nil {
		c.tel.ReportBroken(report_client_search, fmt.Errorf("generate search id: %w", err))
		return nil, err
	}

	data, err := c.post(ctx, session, searchURI, searchPayload{
		Keyword:  query.Keyword,
		Page:     query.Page,
		PageSize: query.PageSize,
		SearchID: searchID,
		Sort:     query.SortMode.WireValue(),
		NoteType: 0,
	})
	if err != nil {
		c.tel.ReportWarning(report_client_search, err, session.Fingerprint())
		return nil, err
	}

	var result itemsData
	if len(data) > 0 {
		err = decodeJSON(data, &result)
		if err != nil {
			c.tel.ReportBroken(report_client_search, fmt.Errorf("decode items: %w", err))
			return nil, &PlatformError{Message: fmt.Sprintf("malformed search data: %s", err.Error())}
		}
	}
	c.tel.ReportDebug(report_client_search, query.Keyword, len(result.Items), result.HasMore)
	return result.Items, nil
}

type feedPayload struct {
	SourceNoteID string         `json:"source_note_id"`
	ImageFormats []string       `json:"image_formats"`
	Extra        map[string]any `json:"extra"`
	XsecSource   string         `json:"xsec_source"`
	XsecToken    string         `json:"xsec_token"`
}

// ErrNoSession is returned when a call that needs credentials is made without a Session.
var ErrNoSession = errors.New("no session")

// GetDetail fetches a single note through the feed endpoint, accessToken is the xsec_token the
// note carried in search results. The returned record holds the note under `note_card`.
func (c *Client) GetDetail(ctx context.Context, session *Session, itemID, accessToken string) (notes.RawItem, error) {
	if session == nil {
		return nil, ErrNoSession
	}

	data, err := c.post(ctx, session, feedURI, feedPayload{
		SourceNoteID: itemID,
		ImageFormats: []string{"jpg", "webp", "avif"},
		Extra:        map[string]any{"need_body_topic": "1"},
		XsecSource:   "pc_search",
		XsecToken:    accessToken,
	})
	if err != nil {
		c.tel.ReportWarning(report_client_get_detail, err, itemID)
		return nil, err
	}

	var result itemsData
	if len(data) > 0 {
		err = decodeJSON(data, &result)
		if err != nil {
			c.tel.ReportBroken(report_client_get_detail, fmt.Errorf("decode items: %w", err))
			return nil, &PlatformError{Message: fmt.Sprintf("malformed feed data: %s", err.Error())}
		}
	}
	if len(result.Items) == 0 || result.Items[0] == nil {
		return nil, &PlatformError{Message: fmt.Sprintf("note %s not found in feed", itemID)}
	}
	return result.Items[0], nil
}
