package main

import (
	"time"
	"xhsbridge/internal/components/notify"
	"xhsbridge/internal/db"
	"xhsbridge/internal/platform/xhs"
	"xhsbridge/internal/service"
)

type PlatformConfig struct {
	APIBaseURL        string `json:"api_base_url"`
	WebBaseURL        string `json:"web_base_url"`
	TimeoutSeconds    int    `json:"timeout_seconds"`
	RequestsPerMinute int    `json:"requests_per_minute"`
	Burst             int    `json:"burst"`
	TLSBypass         bool   `json:"tls_bypass"`
}

func (c PlatformConfig) client() xhs.Config {
	return xhs.Config{
		APIBaseURL:        c.APIBaseURL,
		WebBaseURL:        c.WebBaseURL,
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
		RequestsPerMinute: c.RequestsPerMinute,
		Burst:             c.Burst,
		TLSBypass:         c.TLSBypass,
	}
}

type SignerConfig struct {
	// Kind is one of "none", "remote" or "browser".
	Kind           string `json:"kind"`
	RemoteURL      string `json:"remote_url"`
	ControlURL     string `json:"control_url"`
	Headless       bool   `json:"headless"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type Config struct {
	ListenPort int    `json:"listen_port"`
	AdminToken string `json:"admin_token"`
	// CredentialFile holds the cookie string, it may start with <state>.
	CredentialFile  string `json:"credential_file"`
	HealthCheckCron string `json:"health_check_cron"`

	Platform              PlatformConfig    `json:"platform"`
	Signer                SignerConfig      `json:"signer"`
	Store                 db.Config         `json:"store"`
	Service               service.Config    `json:"service"`
	DetailCacheTTLSeconds int               `json:"detail_cache_ttl_seconds"`
	Classifier            xhs.RuleOverrides `json:"classifier"`
	Smtp                  notify.SmtpConfig `json:"smtp"`
}

func (c Config) withDefaults() Config {
	if c.ListenPort == 0 {
		c.ListenPort = 8002
	}
	if c.CredentialFile == "" {
		c.CredentialFile = "<state>/credential.txt"
	}
	if c.HealthCheckCron == "" {
		c.HealthCheckCron = "*/30 * * * *"
	}
	if c.Store.File == "" && c.Store.Url == "" {
		c.Store.File = "<state>/xhsbridge.db"
	}
	if c.Signer.Kind == "" {
		c.Signer.Kind = "none"
	}
	if c.DetailCacheTTLSeconds > 0 {
		c.Service.DetailCacheTTL = time.Duration(c.DetailCacheTTLSeconds) * time.Second
	}
	return c
}
