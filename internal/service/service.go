package service

import (
	"context"
	"time"
	"xhsbridge/internal/components/assert"
	"xhsbridge/internal/components/chrono"
	"xhsbridge/internal/components/notify"
	"xhsbridge/internal/components/telemetry"
	"xhsbridge/internal/db"
	"xhsbridge/internal/notes"
	"xhsbridge/internal/platform/xhs"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	report_search             = "search"
	report_search_synthetic   = "search.synthetic"
	report_detail             = "detail"
	report_enrich             = "enrich"
	report_update_session     = "session.update"
	report_session_transition = "session.transition"
	report_health_check       = "session.health-check"
	report_credential_load    = "credential.load"
	report_credential_save    = "credential.save"
	report_notify             = "notify"
	report_like_alert         = "like-alert"
	report_risk_cooldown      = "risk.cooldown"

	report_db_query = "db.query"
)

// PlatformAPI is everything the service needs from the platform client.
//
// note: fault injection point
type PlatformAPI interface {
	Search(ctx context.Context, session *xhs.Session, query notes.SearchQuery) ([]notes.RawItem, error)
	GetDetail(ctx context.Context, session *xhs.Session, itemID, accessToken string) (notes.RawItem, error)
	GetDetailFromPage(ctx context.Context, session *xhs.Session, itemID, accessToken string) (notes.RawItem, error)
}

var _ PlatformAPI = (*xhs.Client)(nil)

type coreAPIs struct {
	db     *db.Queries
	makeTx db.MakeTx
	time   chrono.TimeAPI
	notify notify.API
	tel    telemetry.API
}

// NewCoreAPIs initializes a collection of common APIs all services need to run.
func NewCoreAPIs(queries *db.Queries, makeTx db.MakeTx, options ...CoreAPIsOption) coreAPIs {
	assert.NotNil(queries, "db")
	assert.NotNil(makeTx, "makeTx")

	cfg := coreAPIsConfig{}
	for _, opt := range options {
		opt(&cfg)
	}

	apis := coreAPIs{
		db:     queries,
		makeTx: makeTx,
		time:   chrono.NewStandardTime(),
		notify: notify.NoopAPI{},
		tel:    telemetry.SlogAPI{},
	}
	if cfg.time != nil {
		apis.time = cfg.time
	}
	if cfg.notify != nil {
		apis.notify = cfg.notify
	}
	if cfg.tel != nil {
		apis.tel = cfg.tel
	}

	apis.tel = telemetry.NewScopedAPI("service", apis.tel)

	return apis
}

type coreAPIsConfig struct {
	time   chrono.TimeAPI
	notify notify.API
	tel    telemetry.API
}

type CoreAPIsOption func(cfg *coreAPIsConfig)

func WithCustomTimeAPI(time chrono.TimeAPI) CoreAPIsOption {
	return func(cfg *coreAPIsConfig) {
		cfg.time = time
	}
}

func WithCustomNotifyAPI(notify notify.API) CoreAPIsOption {
	return func(cfg *coreAPIsConfig) {
		cfg.notify = notify
	}
}

func WithCustomTelemetryAPI(tel telemetry.API) CoreAPIsOption {
	return func(cfg *coreAPIsConfig) {
		cfg.tel = tel
	}
}

type EnrichConfig struct {
	Enabled     bool `json:"enabled"`
	Concurrency int  `json:"concurrency"`
}

type Config struct {
	UserAgent       string `json:"user_agent"`
	DefaultPageSize int    `json:"default_page_size"`
	// MaxPageSize bounds the pageSize of a request, larger requests are rejected.
	MaxPageSize int `json:"max_page_size"`
	// CheckKeyword is searched when a session needs to be validated.
	CheckKeyword       string        `json:"check_keyword"`
	LikeAlertThreshold int64         `json:"like_alert_threshold"`
	DetailCacheSize    int           `json:"detail_cache_size"`
	DetailCacheTTL     time.Duration `json:"-"`
	Enrich             EnrichConfig  `json:"enrich"`
	Risk               RiskConfig    `json:"risk"`
}

func (c Config) withDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = xhs.DefaultUserAgent
	}
	if c.MaxPageSize <= 0 || c.MaxPageSize > notes.MaxPageSize {
		c.MaxPageSize = 50
	}
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 20
	}
	if c.DefaultPageSize > c.MaxPageSize {
		c.DefaultPageSize = c.MaxPageSize
	}
	if c.CheckKeyword == "" {
		c.CheckKeyword = "美食"
	}
	if c.LikeAlertThreshold <= 0 {
		c.LikeAlertThreshold = 10
	}
	if c.DetailCacheSize <= 0 {
		c.DetailCacheSize = 256
	}
	if c.DetailCacheTTL <= 0 {
		c.DetailCacheTTL = 10 * time.Minute
	}
	if c.Enrich.Concurrency <= 0 {
		c.Enrich.Concurrency = 3
	}
	c.Risk = c.Risk.withDefaults()
	return c
}

// Dependencies are the collaborators of NoteService that are not shared with other services.
type Dependencies struct {
	Platform    PlatformAPI
	Classifier  xhs.Classifier
	Signer      xhs.SignFunc
	Credentials CredentialStore
}

// NoteService implements xhsbridge.v1.NoteService
type NoteService struct {
	coreAPIs

	config      Config
	platform    PlatformAPI
	classifier  xhs.Classifier
	signer      xhs.SignFunc
	credentials CredentialStore

	session sessionState
	risk    *RiskMonitor
	details *expirable.LRU[string, notes.CanonicalNote]
}

// NewNoteService creates a NoteService
func NewNoteService(coreAPIs coreAPIs, config Config, deps Dependencies) *NoteService {
	assert.NotNil(deps.Platform, "platform API implementation")

	config = config.withDefaults()
	credentials := deps.Credentials
	if credentials == nil {
		credentials = NewFileCredentials("")
	}

	return &NoteService{
		coreAPIs:    coreAPIs,
		config:      config,
		platform:    deps.Platform,
		classifier:  deps.Classifier,
		signer:      deps.Signer,
		credentials: credentials,
		risk:        NewRiskMonitor(config.Risk, coreAPIs.time),
		details: expirable.NewLRU[string, notes.CanonicalNote](
			config.DetailCacheSize,
			nil,
			config.DetailCacheTTL,
		),
	}
}

// Risk exposes the risk monitor's current state.
func (s *NoteService) Risk() RiskSnapshot {
	return s.risk.Snapshot()
}
