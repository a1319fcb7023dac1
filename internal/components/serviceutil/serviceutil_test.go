package serviceutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/require"
)

type pingRequest struct {
	Text string `json:"text"`
}

type pingResponse struct {
	Text string `json:"text"`
}

func newPingServer(t *testing.T, token string) *httptest.Server {
	mux := http.NewServeMux()
	mux.Handle("/test.v1.PingService/Ping", connect.NewUnaryHandler(
		"/test.v1.PingService/Ping",
		func(ctx context.Context, req *connect.Request[pingRequest]) (*connect.Response[pingResponse], error) {
			return connect.NewResponse(&pingResponse{Text: req.Msg.Text}), nil
		},
		connect.WithCodec(JSONCodec{}),
		connect.WithInterceptors(VerifyAccessTokenInterceptor(token)),
	))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func ping(t *testing.T, server *httptest.Server, token string) (*connect.Response[pingResponse], error) {
	client := connect.NewClient[pingRequest, pingResponse](
		server.Client(),
		server.URL+"/test.v1.PingService/Ping",
		connect.WithCodec(JSONCodec{}),
		connect.WithInterceptors(ProvideAccessTokenInterceptor(token)),
	)
	return client.CallUnary(context.Background(), connect.NewRequest(&pingRequest{Text: "hi"}))
}

func TestJSONCodecRoundTrip(t *testing.T) {
	server := newPingServer(t, "")
	res, err := ping(t, server, "")
	require.NoError(t, err)
	require.Equal(t, "hi", res.Msg.Text)
}

func TestVerifyAccessToken(t *testing.T) {
	server := newPingServer(t, "secret")

	_, err := ping(t, server, "")
	require.Error(t, err)
	require.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	_, err = ping(t, server, "wrong")
	require.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	res, err := ping(t, server, "secret")
	require.NoError(t, err)
	require.Equal(t, "hi", res.Msg.Text)
}
