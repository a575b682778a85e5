package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Moderation policies controlling who may resolve reports.
const (
	ModerationAdminOnly        = "admin_only"
	ModerationAdminOrModerator = "admin_or_moderator"
)

// Renderer backends for document generation.
const (
	RendererDocker = "docker"
	RendererChrome = "chrome"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	SessionSecret     string
	SessionTTL        time.Duration
	OAuthClientID     string
	OAuthClientSecret string
	OAuthRedirectURL  string
	OAuthTenant       string
	ArchiveCloudName  string
	ArchiveAPIKey     string
	ArchiveAPISecret  string
	ArchiveFolder     string
	Renderer          string
	RendererImage     string
	RenderTimeout     time.Duration
	DockerHost        string
	ModerationPolicy  string
	SummaryCacheTTL   time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// ModeratorsMayResolve reports whether the configured moderation policy
// allows moderators to resolve reports.
func (c Config) ModeratorsMayResolve() bool {
	return c.ModerationPolicy == ModerationAdminOrModerator
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("REGISTRAR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Registrar API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("session.ttl", "12h")
	v.SetDefault("oauth.tenant", "common")
	v.SetDefault("archive.folder", "registrar/documents")
	v.SetDefault("renderer.backend", RendererDocker)
	v.SetDefault("renderer.image", "ghcr.io/moosefactory/typeset:latest")
	v.SetDefault("renderer.timeout_ms", 15000)
	v.SetDefault("moderation.policy", ModerationAdminOrModerator)
	v.SetDefault("summary.cache_ttl", "1m")

	sessionTTL, err := time.ParseDuration(v.GetString("session.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid session ttl: %w", err)
	}

	summaryTTL, err := time.ParseDuration(v.GetString("summary.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid summary cache ttl: %w", err)
	}

	timeoutMs := v.GetInt("renderer.timeout_ms")
	if timeoutMs <= 0 {
		timeoutMs = 15000
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		SessionSecret:     v.GetString("session.secret"),
		SessionTTL:        sessionTTL,
		OAuthClientID:     v.GetString("oauth.client_id"),
		OAuthClientSecret: v.GetString("oauth.client_secret"),
		OAuthRedirectURL:  v.GetString("oauth.redirect_url"),
		OAuthTenant:       v.GetString("oauth.tenant"),
		ArchiveCloudName:  v.GetString("archive.cloud_name"),
		ArchiveAPIKey:     v.GetString("archive.api_key"),
		ArchiveAPISecret:  v.GetString("archive.api_secret"),
		ArchiveFolder:     v.GetString("archive.folder"),
		Renderer:          strings.ToLower(v.GetString("renderer.backend")),
		RendererImage:     v.GetString("renderer.image"),
		RenderTimeout:     time.Duration(timeoutMs) * time.Millisecond,
		DockerHost:        v.GetString("docker_host"),
		ModerationPolicy:  strings.ToLower(v.GetString("moderation.policy")),
		SummaryCacheTTL:   summaryTTL,
	}

	if cfg.SessionSecret == "" {
		return Config{}, fmt.Errorf("session secret must be provided")
	}

	switch cfg.ModerationPolicy {
	case ModerationAdminOnly, ModerationAdminOrModerator:
	default:
		return Config{}, fmt.Errorf("unknown moderation policy %q", cfg.ModerationPolicy)
	}

	switch cfg.Renderer {
	case RendererDocker, RendererChrome:
	default:
		return Config{}, fmt.Errorf("unknown renderer backend %q", cfg.Renderer)
	}

	return cfg, nil
}
