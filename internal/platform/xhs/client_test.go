package xhs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"xhsbridge/internal/components/telemetry"
	"xhsbridge/internal/notes"

	"github.com/stretchr/testify/require"
)

type fakePlatform struct {
	requests []*http.Request
	bodies   [][]byte
	handler  func(w http.ResponseWriter, r *http.Request, body []byte)
}

func newFakePlatform(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body []byte)) (*fakePlatform, *Client) {
	f := &fakePlatform{handler: handler}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		f.requests = append(f.requests, r)
		f.bodies = append(f.bodies, body)
		f.handler(w, r, body)
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{
		APIBaseURL:        server.URL,
		WebBaseURL:        server.URL,
		Timeout:           5 * time.Second,
		RequestsPerMinute: 6000,
		Burst:             100,
	}, telemetry.NoopAPI{})
	return f, client
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func testSession(t *testing.T) *Session {
	s, err := NewSession("a1=A1VALUE; web_session=WS", "test-agent", func(uri string, payload []byte, a1, _ string) map[string]string {
		return map[string]string{"X-s": "XYW_" + a1, "X-t": "1717000000000"}
	})
	require.NoError(t, err)
	return s
}

func TestSearchSendsSignedRequest(t *testing.T) {
	f, client := newFakePlatform(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		writeJSON(w, 200, map[string]any{
			"success": true,
			"code":    0,
			"msg":     "成功",
			"data": map[string]any{
				"has_more": true,
				"items": []any{
					map[string]any{"id": "n1", "model_type": "note", "note_card": map[string]any{"display_title": "A"}},
					map[string]any{"id": "n2", "model_type": "note", "note_card": map[string]any{"display_title": "B"}},
				},
			},
		})
	})

	items, err := client.Search(context.Background(), testSession(t), notes.SearchQuery{
		Keyword:  "美食",
		Page:     2,
		PageSize: 20,
		SortMode: notes.SortLikes,
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "A", notes.Resolve(items[0], notes.FieldTitle))

	require.Len(t, f.requests, 1)
	req := f.requests[0]
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, searchURI, req.URL.Path)
	require.Equal(t, "a1=A1VALUE; web_session=WS", req.Header.Get("Cookie"))
	require.Equal(t, "test-agent", req.Header.Get("User-Agent"))
	require.Equal(t, "XYW_A1VALUE", req.Header.Get("X-S"))
	require.Equal(t, "1717000000000", req.Header.Get("X-T"))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(f.bodies[0], &payload))
	require.Equal(t, "美食", payload["keyword"])
	require.Equal(t, float64(2), payload["page"])
	require.Equal(t, float64(20), payload["page_size"])
	require.Equal(t, "popularity_descending", payload["sort"])
	require.Equal(t, float64(0), payload["note_type"])
	require.Len(t, payload["search_id"], 32)
}

func TestSearchUnsignedWhenSignerFails(t *testing.T) {
	f, client := newFakePlatform(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		writeJSON(w, 200, map[string]any{"success": true, "code": 0, "data": map[string]any{"items": []any{}}})
	})
	session, err := NewSession("a1=x", "", Adapt(func(string, []byte, string) (map[string]string, error) {
		return nil, errors.New("no browser")
	}, telemetry.NoopAPI{}))
	require.NoError(t, err)

	items, err := client.Search(context.Background(), session, notes.SearchQuery{Keyword: "k", Page: 1, PageSize: 1, SortMode: notes.SortGeneral})
	require.NoError(t, err)
	require.Empty(t, items)
	require.Empty(t, f.requests[0].Header.Get("X-S"))
}

func TestSearchMapsEnvelopeErrors(t *testing.T) {
	_, client := newFakePlatform(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		writeJSON(w, 200, map[string]any{"success": false, "code": -100, "msg": "登录已过期"})
	})

	_, err := client.Search(context.Background(), testSession(t), notes.SearchQuery{Keyword: "k", Page: 1, PageSize: 1, SortMode: notes.SortGeneral})
	var platformErr *PlatformError
	require.ErrorAs(t, err, &platformErr)
	require.Equal(t, -100, platformErr.Code)
	require.Equal(t, "登录已过期", platformErr.Message)
	require.Equal(t, CategorySessionExpired, NewClassifier(nil).Classify(err))
}

func TestSearchMapsHTTPErrors(t *testing.T) {
	_, client := newFakePlatform(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		w.WriteHeader(461)
		_, _ = w.Write([]byte(`{"code":300011,"msg":"当前账号存在异常"}`))
	})

	_, err := client.Search(context.Background(), testSession(t), notes.SearchQuery{Keyword: "k", Page: 1, PageSize: 1, SortMode: notes.SortGeneral})
	var platformErr *PlatformError
	require.ErrorAs(t, err, &platformErr)
	require.Equal(t, 461, platformErr.Status)
	require.Equal(t, CategoryChallengeRequired, NewClassifier(nil).Classify(err))
}

func TestSearchMalformedBody(t *testing.T) {
	_, client := newFakePlatform(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	})

	_, err := client.Search(context.Background(), testSession(t), notes.SearchQuery{Keyword: "k", Page: 1, PageSize: 1, SortMode: notes.SortGeneral})
	var platformErr *PlatformError
	require.ErrorAs(t, err, &platformErr)
	require.Contains(t, platformErr.Message, "malformed response")
}

func TestSearchTransportError(t *testing.T) {
	client := NewClient(Config{APIBaseURL: "http://127.0.0.1:1", Timeout: time.Second}, telemetry.NoopAPI{})
	_, err := client.Search(context.Background(), testSession(t), notes.SearchQuery{Keyword: "k", Page: 1, PageSize: 1, SortMode: notes.SortGeneral})
	require.Error(t, err)
	require.Equal(t, CategoryTransport, NewClassifier(nil).Classify(err))
}

func TestSearchWithoutSession(t *testing.T) {
	client := NewClient(Config{}, telemetry.NoopAPI{})
	_, err := client.Search(context.Background(), nil, notes.SearchQuery{Keyword: "k", Page: 1, PageSize: 1, SortMode: notes.SortGeneral})
	require.ErrorIs(t, err, ErrNoSession)
}

func TestGetDetail(t *testing.T) {
	f, client := newFakePlatform(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		writeJSON(w, 200, map[string]any{
			"success": true,
			"code":    0,
			"data": map[string]any{
				"items": []any{
					map[string]any{
						"id":         "n1",
						"model_type": "note",
						"note_card": map[string]any{
							"note_id": "n1",
							"title":   "标题",
							"desc":    "完整描述",
						},
					},
				},
			},
		})
	})

	item, err := client.GetDetail(context.Background(), testSession(t), "n1", "tok=")
	require.NoError(t, err)
	require.Equal(t, "完整描述", notes.Resolve(item, notes.FieldDescription))

	require.Equal(t, feedURI, f.requests[0].URL.Path)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(f.bodies[0], &payload))
	require.Equal(t, "n1", payload["source_note_id"])
	require.Equal(t, "tok=", payload["xsec_token"])
	require.Equal(t, "pc_search", payload["xsec_source"])
}

func TestGetDetailEmpty(t *testing.T) {
	_, client := newFakePlatform(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		writeJSON(w, 200, map[string]any{"success": true, "code": 0, "data": map[string]any{"items": []any{}}})
	})

	_, err := client.GetDetail(context.Background(), testSession(t), "n1", "")
	var platformErr *PlatformError
	require.ErrorAs(t, err, &platformErr)
	require.Equal(t, CategoryUnknown, NewClassifier(nil).Classify(err))
}
