package xhs

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"xhsbridge/internal/notes"

	"github.com/PuerkitoBio/goquery"
)

const initialStatePrefix = "window.__INITIAL_STATE__"

// shown on the login wall the web page falls back to without a valid session
var loginPageMarkers = []string{"扫码", "二维码", "qrcode", "登录", "login"}

// the page state is a js literal, not json
var undefinedPattern = regexp.MustCompile(`\bundefined\b`)

// GetDetailFromPage reads a note from its public web page, it is the fallback for when the feed
// endpoint refuses the request. The returned record uses the same snake_case keys as the api.
func (c *Client) GetDetailFromPage(ctx context.Context, session *Session, itemID, accessToken string) (notes.RawItem, error) {
	if session == nil {
		return nil, ErrNoSession
	}

	pageURL := fmt.Sprintf("%s/explore/%s", c.config.WebBaseURL, url.PathEscape(itemID))
	req := c.request(ctx, session, c.config.WebBaseURL+"/").
		SetHeader("accept", "text/html,application/xhtml+xml")
	if accessToken != "" {
		req.SetQueryParam("xsec_token", accessToken).
			SetQueryParam("xsec_source", "pc_search")
	}

	res, err := req.Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", pageURL, err)
	}
	if res.StatusCode() >= 400 {
		err := &PlatformError{
			Status:  res.StatusCode(),
			Message: "http error",
			Body:    truncateBody(res.Body()),
		}
		c.tel.ReportWarning(report_client_detail_page, err, itemID)
		return nil, err
	}

	item, err := parseDetailPage(res.Body(), itemID)
	if err != nil {
		c.tel.ReportWarning(report_client_detail_page, err, itemID)
		return nil, err
	}
	return item, nil
}

func parseDetailPage(body []byte, itemID string) (notes.RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &PlatformError{Message: fmt.Sprintf("parse html: %s", err.Error())}
	}

	var state string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if !strings.HasPrefix(text, initialStatePrefix) {
			return true
		}
		state = strings.TrimSpace(strings.TrimPrefix(text, initialStatePrefix))
		state = strings.TrimSpace(strings.TrimPrefix(state, "="))
		state = strings.TrimSuffix(state, ";")
		return false
	})

	if state == "" {
		pageText := strings.ToLower(doc.Text())
		var found []string
		for _, marker := range loginPageMarkers {
			if strings.Contains(pageText, marker) {
				found = append(found, marker)
			}
		}
		if len(found) > 0 {
			return nil, &PlatformError{
				Message: fmt.Sprintf("login required (page shows %s)", strings.Join(found, ", ")),
			}
		}
		return nil, &PlatformError{Message: "page has no initial state"}
	}

	var root map[string]any
	err = decodeJSON([]byte(undefinedPattern.ReplaceAllString(state, "null")), &root)
	if err != nil {
		return nil, &PlatformError{Message: fmt.Sprintf("decode initial state: %s", err.Error())}
	}

	detailMap, _ := dig(root, "note", "noteDetailMap").(map[string]any)
	entry, _ := detailMap[itemID].(map[string]any)
	note, _ := entry["note"].(map[string]any)
	if len(note) == 0 {
		return nil, &PlatformError{Message: fmt.Sprintf("note %s not in page state", itemID)}
	}

	return snakeKeys(note).(map[string]any), nil
}

func dig(value any, keys ...string) any {
	for _, key := range keys {
		m, ok := value.(map[string]any)
		if !ok {
			return nil
		}
		value = m[key]
	}
	return value
}

func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// snakeKeys rewrites the web page's camelCase keys (imageList, interactInfo) into the api's
// snake_case keys (image_list, interact_info).
func snakeKeys(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, inner := range v {
			out[snakeCase(key)] = snakeKeys(inner)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, inner := range v {
			out[i] = snakeKeys(inner)
		}
		return out
	}
	return value
}
