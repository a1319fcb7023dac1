package xhs

import (
	"context"
	"net/http"
	"testing"
	"xhsbridge/internal/notes"

	"github.com/stretchr/testify/require"
)

const detailPage = `<!doctype html>
<html><head><title>小红书</title></head>
<body>
<div id="app"></div>
<script>window.__SETUP_SERVER_STATE__={}</script>
<script>window.__INITIAL_STATE__={"global":{"appSettings":{"notificationInterval":undefined}},"note":{"noteDetailMap":{"n1":{"comments":{},"note":{"noteId":"n1","type":"video","title":"页面标题","desc":"页面描述","user":{"nickname":"作者","userId":"u1"},"interactInfo":{"likedCount":"1.2万","commentCount":"30","collectedCount":"5"},"imageList":[{"urlDefault":"https://img/default.jpg"}],"time":1717000000000,"xsecToken":"pagetok"}}}}}</script>
</body></html>`

const loginPage = `<html><body><div class="login-container">手机号登录 / 扫码登录</div><canvas class="qrcode-img"></canvas></body></html>`

func TestParseDetailPage(t *testing.T) {
	item, err := parseDetailPage([]byte(detailPage), "n1")
	require.NoError(t, err)

	note := notes.Extract(item)
	require.Equal(t, "n1", note.ID)
	require.Equal(t, "页面标题", note.Title)
	require.Equal(t, "页面描述", note.Description)
	require.Equal(t, notes.KindVideo, note.Kind)
	require.Equal(t, "作者", note.Author.Nickname)
	require.Equal(t, "u1", note.Author.UserID)
	require.Equal(t, "1.2万", note.Engagement.LikedCount)
	require.Equal(t, "https://img/default.jpg", note.CoverURL)
	require.Equal(t, "pagetok", notes.Resolve(item, notes.FieldAccessToken))

	ts, ok := notes.Timestamp(item)
	require.True(t, ok)
	require.Equal(t, int64(1717000000000), ts)
}

func TestParseDetailPageMissingNote(t *testing.T) {
	_, err := parseDetailPage([]byte(detailPage), "other")
	var platformErr *PlatformError
	require.ErrorAs(t, err, &platformErr)
	require.Equal(t, CategoryUnknown, NewClassifier(nil).Classify(err))
}

func TestParseDetailPageLoginWall(t *testing.T) {
	_, err := parseDetailPage([]byte(loginPage), "n1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "扫码")
	require.Equal(t, CategorySessionExpired, NewClassifier(nil).Classify(err))
}

func TestSnakeCase(t *testing.T) {
	require.Equal(t, "note_id", snakeCase("noteId"))
	require.Equal(t, "url_default", snakeCase("urlDefault"))
	require.Equal(t, "title", snakeCase("title"))
	require.Equal(t, "last_update_time", snakeCase("lastUpdateTime"))
}

func TestGetDetailFromPage(t *testing.T) {
	f, client := newFakePlatform(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		w.Header().Set("content-type", "text/html")
		_, _ = w.Write([]byte(detailPage))
	})

	item, err := client.GetDetailFromPage(context.Background(), testSession(t), "n1", "tok")
	require.NoError(t, err)
	require.Equal(t, "页面标题", notes.Resolve(item, notes.FieldTitle))

	req := f.requests[0]
	require.Equal(t, http.MethodGet, req.Method)
	require.Equal(t, "/explore/n1", req.URL.Path)
	require.Equal(t, "tok", req.URL.Query().Get("xsec_token"))
	require.Equal(t, "a1=A1VALUE; web_session=WS", req.Header.Get("Cookie"))
}
