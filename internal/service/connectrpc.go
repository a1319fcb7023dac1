package service

import (
	"context"
	"errors"
	"net/http"
	"xhsbridge/internal/components/serviceutil"
	"xhsbridge/internal/notes"
	"xhsbridge/internal/platform/xhs"

	"connectrpc.com/connect"
)

const NoteServiceName = "xhsbridge.v1.NoteService"

const (
	NoteServiceSearchProcedure        = "/xhsbridge.v1.NoteService/Search"
	NoteServiceGetDetailProcedure     = "/xhsbridge.v1.NoteService/GetDetail"
	NoteServiceUpdateSessionProcedure = "/xhsbridge.v1.NoteService/UpdateSession"
	NoteServiceSessionStatusProcedure = "/xhsbridge.v1.NoteService/SessionStatus"
	NoteServiceRecentSearchesProcedure = "/xhsbridge.v1.NoteService/RecentSearches"
	NoteServiceLikeAlertsProcedure     = "/xhsbridge.v1.NoteService/LikeAlerts"
	NoteServiceCachedNotesProcedure    = "/xhsbridge.v1.NoteService/CachedNotes"
)

// failureCategoryHeader carries the failure category of fail-fast errors to connect clients.
const failureCategoryHeader = "Xhs-Failure-Category"

func connectCode(category xhs.Category) connect.Code {
	switch category {
	case xhs.CategorySessionExpired:
		return connect.CodeUnauthenticated
	case xhs.CategoryChallengeRequired:
		return connect.CodeFailedPrecondition
	case xhs.CategoryTransport:
		return connect.CodeUnavailable
	default:
		return connect.CodeUnknown
	}
}

func toConnectError(err error) error {
	if errors.Is(err, notes.ErrValidation) {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	var failure *FailureError
	if errors.As(err, &failure) {
		cerr := connect.NewError(connectCode(failure.Category), err)
		cerr.Meta().Set(failureCategoryHeader, string(failure.Category))
		return cerr
	}
	return err
}

// FailureCategory extracts the failure category from an error returned by NoteServiceClient.
func FailureCategory(err error) (xhs.Category, bool) {
	var cerr *connect.Error
	if !errors.As(err, &cerr) {
		return "", false
	}
	category := cerr.Meta().Get(failureCategoryHeader)
	return xhs.Category(category), category != ""
}

type noteServiceHandler struct {
	svc *NoteService
}

func (h noteServiceHandler) Search(ctx context.Context, req *connect.Request[SearchRequest]) (*connect.Response[SearchResponse], error) {
	res, err := h.svc.Search(ctx, *req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&res), nil
}

func (h noteServiceHandler) GetDetail(ctx context.Context, req *connect.Request[DetailRequest]) (*connect.Response[DetailResponse], error) {
	res, err := h.svc.GetDetail(ctx, *req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&res), nil
}

func (h noteServiceHandler) UpdateSession(ctx context.Context, req *connect.Request[UpdateSessionRequest]) (*connect.Response[UpdateSessionResponse], error) {
	res, err := h.svc.UpdateSession(ctx, *req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&res), nil
}

func (h noteServiceHandler) SessionStatus(ctx context.Context, req *connect.Request[SessionStatusRequest]) (*connect.Response[SessionStatusResponse], error) {
	res := h.svc.SessionStatus(ctx)
	return connect.NewResponse(&res), nil
}

func (h noteServiceHandler) RecentSearches(ctx context.Context, req *connect.Request[RecentSearchesRequest]) (*connect.Response[RecentSearchesResponse], error) {
	res, err := h.svc.RecentSearches(ctx, *req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&res), nil
}

func (h noteServiceHandler) LikeAlerts(ctx context.Context, req *connect.Request[LikeAlertsRequest]) (*connect.Response[LikeAlertsResponse], error) {
	res, err := h.svc.LikeAlerts(ctx, *req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&res), nil
}

func (h noteServiceHandler) CachedNotes(ctx context.Context, req *connect.Request[CachedNotesRequest]) (*connect.Response[CachedNotesResponse], error) {
	res, err := h.svc.CachedNotes(ctx, *req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&res), nil
}

// NewNoteServiceHandler builds an HTTP handler for the service, it returns the path on which to
// mount the handler and the handler itself. UpdateSession additionally requires adminToken as a
// bearer token when it is not empty.
func NewNoteServiceHandler(svc *NoteService, adminToken string, opts ...connect.HandlerOption) (string, http.Handler) {
	h := noteServiceHandler{svc: svc}

	options := append([]connect.HandlerOption{connect.WithCodec(serviceutil.JSONCodec{})}, opts...)
	adminOptions := append(
		append([]connect.HandlerOption{}, options...),
		connect.WithInterceptors(serviceutil.VerifyAccessTokenInterceptor(adminToken)),
	)

	searchHandler := connect.NewUnaryHandler(NoteServiceSearchProcedure, h.Search, options...)
	getDetailHandler := connect.NewUnaryHandler(NoteServiceGetDetailProcedure, h.GetDetail, options...)
	updateSessionHandler := connect.NewUnaryHandler(NoteServiceUpdateSessionProcedure, h.UpdateSession, adminOptions...)
	sessionStatusHandler := connect.NewUnaryHandler(NoteServiceSessionStatusProcedure, h.SessionStatus, options...)
	recentSearchesHandler := connect.NewUnaryHandler(NoteServiceRecentSearchesProcedure, h.RecentSearches, options...)
	likeAlertsHandler := connect.NewUnaryHandler(NoteServiceLikeAlertsProcedure, h.LikeAlerts, options...)
	cachedNotesHandler := connect.NewUnaryHandler(NoteServiceCachedNotesProcedure, h.CachedNotes, options...)

	return "/" + NoteServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case NoteServiceSearchProcedure:
			searchHandler.ServeHTTP(w, r)
		case NoteServiceGetDetailProcedure:
			getDetailHandler.ServeHTTP(w, r)
		case NoteServiceUpdateSessionProcedure:
			updateSessionHandler.ServeHTTP(w, r)
		case NoteServiceSessionStatusProcedure:
			sessionStatusHandler.ServeHTTP(w, r)
		case NoteServiceRecentSearchesProcedure:
			recentSearchesHandler.ServeHTTP(w, r)
		case NoteServiceLikeAlertsProcedure:
			likeAlertsHandler.ServeHTTP(w, r)
		case NoteServiceCachedNotesProcedure:
			cachedNotesHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// NoteServiceClient is a client for the xhsbridge.v1.NoteService service.
type NoteServiceClient interface {
	Search(context.Context, *connect.Request[SearchRequest]) (*connect.Response[SearchResponse], error)
	GetDetail(context.Context, *connect.Request[DetailRequest]) (*connect.Response[DetailResponse], error)
	UpdateSession(context.Context, *connect.Request[UpdateSessionRequest]) (*connect.Response[UpdateSessionResponse], error)
	SessionStatus(context.Context, *connect.Request[SessionStatusRequest]) (*connect.Response[SessionStatusResponse], error)
	RecentSearches(context.Context, *connect.Request[RecentSearchesRequest]) (*connect.Response[RecentSearchesResponse], error)
	LikeAlerts(context.Context, *connect.Request[LikeAlertsRequest]) (*connect.Response[LikeAlertsResponse], error)
	CachedNotes(context.Context, *connect.Request[CachedNotesRequest]) (*connect.Response[CachedNotesResponse], error)
}

type noteServiceClient struct {
	search        *connect.Client[SearchRequest, SearchResponse]
	getDetail     *connect.Client[DetailRequest, DetailResponse]
	updateSession *connect.Client[UpdateSessionRequest, UpdateSessionResponse]
	sessionStatus *connect.Client[SessionStatusRequest, SessionStatusResponse]
	recentSearches *connect.Client[RecentSearchesRequest, RecentSearchesResponse]
	likeAlerts     *connect.Client[LikeAlertsRequest, LikeAlertsResponse]
	cachedNotes    *connect.Client[CachedNotesRequest, CachedNotesResponse]
}

// NewNoteServiceClient constructs a client for the xhsbridge.v1.NoteService service, baseURL is
// the service's root without a trailing slash (ex. http://localhost:8002).
func NewNoteServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) NoteServiceClient {
	options := append([]connect.ClientOption{connect.WithCodec(serviceutil.JSONCodec{})}, opts...)
	return noteServiceClient{
		search:        connect.NewClient[SearchRequest, SearchResponse](httpClient, baseURL+NoteServiceSearchProcedure, options...),
		getDetail:     connect.NewClient[DetailRequest, DetailResponse](httpClient, baseURL+NoteServiceGetDetailProcedure, options...),
		updateSession: connect.NewClient[UpdateSessionRequest, UpdateSessionResponse](httpClient, baseURL+NoteServiceUpdateSessionProcedure, options...),
		sessionStatus: connect.NewClient[SessionStatusRequest, SessionStatusResponse](httpClient, baseURL+NoteServiceSessionStatusProcedure, options...),
		recentSearches: connect.NewClient[RecentSearchesRequest, RecentSearchesResponse](httpClient, baseURL+NoteServiceRecentSearchesProcedure, options...),
		likeAlerts:     connect.NewClient[LikeAlertsRequest, LikeAlertsResponse](httpClient, baseURL+NoteServiceLikeAlertsProcedure, options...),
		cachedNotes:    connect.NewClient[CachedNotesRequest, CachedNotesResponse](httpClient, baseURL+NoteServiceCachedNotesProcedure, options...),
	}
}

func (c noteServiceClient) Search(ctx context.Context, req *connect.Request[SearchRequest]) (*connect.Response[SearchResponse], error) {
	return c.search.CallUnary(ctx, req)
}

func (c noteServiceClient) GetDetail(ctx context.Context, req *connect.Request[DetailRequest]) (*connect.Response[DetailResponse], error) {
	return c.getDetail.CallUnary(ctx, req)
}

func (c noteServiceClient) UpdateSession(ctx context.Context, req *connect.Request[UpdateSessionRequest]) (*connect.Response[UpdateSessionResponse], error) {
	return c.updateSession.CallUnary(ctx, req)
}

func (c noteServiceClient) SessionStatus(ctx context.Context, req *connect.Request[SessionStatusRequest]) (*connect.Response[SessionStatusResponse], error) {
	return c.sessionStatus.CallUnary(ctx, req)
}

func (c noteServiceClient) RecentSearches(ctx context.Context, req *connect.Request[RecentSearchesRequest]) (*connect.Response[RecentSearchesResponse], error) {
	return c.recentSearches.CallUnary(ctx, req)
}

func (c noteServiceClient) LikeAlerts(ctx context.Context, req *connect.Request[LikeAlertsRequest]) (*connect.Response[LikeAlertsResponse], error) {
	return c.likeAlerts.CallUnary(ctx, req)
}

func (c noteServiceClient) CachedNotes(ctx context.Context, req *connect.Request[CachedNotesRequest]) (*connect.Response[CachedNotesResponse], error) {
	return c.cachedNotes.CallUnary(ctx, req)
}
