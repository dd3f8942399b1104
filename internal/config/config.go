package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App             App             `mapstructure:",squash"`
	Server          Server          `mapstructure:",squash"`
	Database        Database        `mapstructure:",squash"`
	Meta            Meta            `mapstructure:",squash"`
	Sync            Sync            `mapstructure:",squash"`
	IncrementalSync Job             `mapstructure:"-"`
	BulkSync        Job             `mapstructure:"-"`
	DailySummary    Job             `mapstructure:"-"`
	Jobs            jobs            `mapstructure:",squash"`
	Notification    Notification    `mapstructure:",squash"`
	Auth            Auth            `mapstructure:",squash"`
	Breaker         NotifierBreaker `mapstructure:",squash"`
}

type App struct {
	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	LogMaxAgeDays int    `mapstructure:"log_max_age_days"`
}

type Server struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type Database struct {
	DSN      string `mapstructure:"-"`
	Driver   string `mapstructure:"database_driver" validate:"required"`
	Password string `mapstructure:"database_password"`
	URL      string `mapstructure:"database_url" validate:"required"`
	User     string `mapstructure:"database_user" validate:"required"`
}

type Meta struct {
	BaseURL           string `mapstructure:"meta_base_url" validate:"required,url"`
	URL               string `mapstructure:"-"`
	Version           string `mapstructure:"meta_version" validate:"required"`
	AccessToken       string `mapstructure:"meta_access_token" validate:"required"`
	AdAccountID       string `mapstructure:"meta_ad_account_id" validate:"required"`
	AdAccountName     string `mapstructure:"meta_ad_account_name"`
	HTTPTimeoutSecs   int    `mapstructure:"meta_http_timeout_seconds" validate:"gte=1"`
	RequestIntervalMS int    `mapstructure:"meta_request_interval_ms" validate:"gte=0"`
	PageLimit         int    `mapstructure:"meta_page_limit" validate:"gte=1,lte=500"`
}

// Sync holds the tunables of the sync state machine
type Sync struct {
	WatermarkLookbackDays  int    `mapstructure:"sync_watermark_lookback_days" validate:"gte=0"`
	WatermarkFallbackDays  int    `mapstructure:"sync_watermark_fallback_days" validate:"gte=1"`
	DailyMetricsLookback   int    `mapstructure:"sync_daily_metrics_lookback_days" validate:"gte=1"`
	LiveWindowMinutes      int    `mapstructure:"sync_live_window_minutes" validate:"gte=1"`
	RetryBaseDelaySeconds  int    `mapstructure:"sync_retry_base_delay_seconds" validate:"gte=0"`
	RetryMaxRetries        int    `mapstructure:"sync_retry_max_retries" validate:"gte=0"`
	BulkInsightsSince      string `mapstructure:"sync_bulk_insights_since"`
	SummaryTimezone        string `mapstructure:"sync_summary_timezone"`
	SummaryDashboardPath   string `mapstructure:"sync_summary_dashboard_path"`
	SummaryAllowedFromHour int    `mapstructure:"sync_summary_allowed_from_hour" validate:"gte=0,lte=23"`
}

// Job is the scheduling config of one cron job
type Job struct {
	CronSchedule string
	Enabled      bool
}

type jobs struct {
	IncrementalCron    string `mapstructure:"incremental_sync_cron"`
	IncrementalEnabled bool   `mapstructure:"incremental_sync_enabled"`
	BulkCron           string `mapstructure:"bulk_sync_cron"`
	BulkEnabled        bool   `mapstructure:"bulk_sync_enabled"`
	SummaryCron        string `mapstructure:"daily_summary_cron"`
	SummaryEnabled     bool   `mapstructure:"daily_summary_enabled"`
}

type Notification struct {
	LineChannelAccessToken string `mapstructure:"line_channel_access_token"`
	LineGroupID            string `mapstructure:"line_group_id"`
	LineAPIURL             string `mapstructure:"line_api_url" validate:"required,url"`
	DiscordWebhookURL      string `mapstructure:"discord_webhook_url" validate:"omitempty,url"`
	CRMBaseURL             string `mapstructure:"crm_base_url"`
	TimeoutSeconds         int    `mapstructure:"notification_timeout_seconds" validate:"gte=1"`
}

// NotifierBreaker configures the per-channel circuit breaker
type NotifierBreaker struct {
	MaxFailures        uint32 `mapstructure:"notifier_breaker_max_failures" validate:"gte=1"`
	OpenTimeoutSeconds int    `mapstructure:"notifier_breaker_open_timeout_seconds" validate:"gte=1"`
}

// Auth protects the ops API. Login is disabled while Secret or
// AdminPasswordHash is empty.
type Auth struct {
	Secret            string `mapstructure:"auth_secret"`
	AdminUsername     string `mapstructure:"admin_username"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
	TokenTTLMinutes   int    `mapstructure:"auth_token_ttl_minutes" validate:"gte=1"`
}

func SetDefaults() {
	viper.SetDefault("HOST", "0.0.0.0")
	viper.SetDefault("PORT", 8000)

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("LOG_FILE", "")
	viper.SetDefault("LOG_MAX_SIZE_MB", 50)
	viper.SetDefault("LOG_MAX_BACKUPS", 5)
	viper.SetDefault("LOG_MAX_AGE_DAYS", 14)

	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_URL", "localhost:5432/ads?sslmode=disable")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "postgres")

	viper.SetDefault("META_BASE_URL", "https://graph.facebook.com")
	viper.SetDefault("META_VERSION", "v19.0")
	viper.SetDefault("META_ACCESS_TOKEN", "")
	viper.SetDefault("META_AD_ACCOUNT_ID", "")
	viper.SetDefault("META_AD_ACCOUNT_NAME", "")
	viper.SetDefault("META_HTTP_TIMEOUT_SECONDS", 30)
	viper.SetDefault("META_REQUEST_INTERVAL_MS", 200) // pacing between Graph calls
	viper.SetDefault("META_PAGE_LIMIT", 100)

	viper.SetDefault("SYNC_WATERMARK_LOOKBACK_DAYS", 3)
	viper.SetDefault("SYNC_WATERMARK_FALLBACK_DAYS", 30)
	viper.SetDefault("SYNC_DAILY_METRICS_LOOKBACK_DAYS", 30)
	viper.SetDefault("SYNC_LIVE_WINDOW_MINUTES", 120)
	viper.SetDefault("SYNC_RETRY_BASE_DELAY_SECONDS", 30)
	viper.SetDefault("SYNC_RETRY_MAX_RETRIES", 5)
	viper.SetDefault("SYNC_BULK_INSIGHTS_SINCE", "") // empty: Jan 1 of the current year
	viper.SetDefault("SYNC_SUMMARY_TIMEZONE", "Asia/Bangkok")
	viper.SetDefault("SYNC_SUMMARY_DASHBOARD_PATH", "/marketing/tracking")
	viper.SetDefault("SYNC_SUMMARY_ALLOWED_FROM_HOUR", 9)

	viper.SetDefault("INCREMENTAL_SYNC_CRON", "*/30 * * * *") // every 30 minutes
	viper.SetDefault("INCREMENTAL_SYNC_ENABLED", true)
	viper.SetDefault("BULK_SYNC_CRON", "0 2 * * *") // every day at 2am
	viper.SetDefault("BULK_SYNC_ENABLED", false)
	viper.SetDefault("DAILY_SUMMARY_CRON", "0 9 * * *") // every day at 9am
	viper.SetDefault("DAILY_SUMMARY_ENABLED", false)

	viper.SetDefault("LINE_CHANNEL_ACCESS_TOKEN", "")
	viper.SetDefault("LINE_GROUP_ID", "")
	viper.SetDefault("LINE_API_URL", "https://api.line.me")
	viper.SetDefault("DISCORD_WEBHOOK_URL", "")
	viper.SetDefault("CRM_BASE_URL", "http://localhost:3000")
	viper.SetDefault("NOTIFICATION_TIMEOUT_SECONDS", 10)

	viper.SetDefault("NOTIFIER_BREAKER_MAX_FAILURES", 3)
	viper.SetDefault("NOTIFIER_BREAKER_OPEN_TIMEOUT_SECONDS", 300)

	viper.SetDefault("AUTH_SECRET", "")
	viper.SetDefault("ADMIN_USERNAME", "admin")
	viper.SetDefault("ADMIN_PASSWORD_HASH", "") // bcrypt hash
	viper.SetDefault("AUTH_TOKEN_TTL_MINUTES", 60)
}

// NewConfig loads .env (if any), environment variables and defaults, then
// validates the result. A validation failure must abort the process before
// anything talks to the Graph API.
func NewConfig() (*Config, error) {
	loadEnvFile()

	SetDefaults()

	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Debug("no .env read by viper, using environment: ", err)
	}

	config, err := Decode(viper.AllSettings())
	if err != nil {
		return nil, err
	}

	return config, nil
}

// Decode builds a Config from a flat key/value map (as produced by viper),
// derives computed fields and validates it.
func Decode(settings map[string]any) (*Config, error) {
	config := &Config{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           config,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, errors.Wrap(err, "building config decoder")
	}

	if err := decoder.Decode(lowerKeys(settings)); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}

	config.Meta.URL = fmt.Sprintf("%s/%s", strings.TrimRight(config.Meta.BaseURL, "/"), config.Meta.Version)
	config.Meta.AdAccountID = strings.TrimPrefix(config.Meta.AdAccountID, "act_")

	config.Database.DSN = fmt.Sprintf(
		"%s://%s:%s@%s",
		config.Database.Driver,
		config.Database.User,
		config.Database.Password,
		config.Database.URL,
	)

	config.IncrementalSync = Job{CronSchedule: config.Jobs.IncrementalCron, Enabled: config.Jobs.IncrementalEnabled}
	config.BulkSync = Job{CronSchedule: config.Jobs.BulkCron, Enabled: config.Jobs.BulkEnabled}
	config.DailySummary = Job{CronSchedule: config.Jobs.SummaryCron, Enabled: config.Jobs.SummaryEnabled}

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks required credentials and value ranges
func Validate(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			fields := make([]string, 0, len(invalid))
			for _, fe := range invalid {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return errors.Wrap(err, "validating config")
	}

	if config.Sync.BulkInsightsSince != "" {
		if _, err := time.Parse(time.DateOnly, config.Sync.BulkInsightsSince); err != nil {
			return fmt.Errorf("invalid configuration: SYNC_BULK_INSIGHTS_SINCE must be YYYY-MM-DD: %w", err)
		}
	}

	if _, err := time.LoadLocation(config.Sync.SummaryTimezone); err != nil {
		return fmt.Errorf("invalid configuration: SYNC_SUMMARY_TIMEZONE: %w", err)
	}

	return nil
}

// WatermarkLookback is the safety window subtracted from the newest stored row
func (s Sync) WatermarkLookback() time.Duration {
	return time.Duration(s.WatermarkLookbackDays) * 24 * time.Hour
}

// WatermarkFallback is used when a table has no rows yet
func (s Sync) WatermarkFallback() time.Duration {
	return time.Duration(s.WatermarkFallbackDays) * 24 * time.Hour
}

func (s Sync) LiveWindow() time.Duration {
	return time.Duration(s.LiveWindowMinutes) * time.Minute
}

func (s Sync) RetryBaseDelay() time.Duration {
	return time.Duration(s.RetryBaseDelaySeconds) * time.Second
}

// BulkSince returns the first day of the bulk insights range
func (s Sync) BulkSince(now time.Time) time.Time {
	if s.BulkInsightsSince != "" {
		if t, err := time.Parse(time.DateOnly, s.BulkInsightsSince); err == nil {
			return t
		}
	}
	return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
}

func (s Sync) SummaryLocation() *time.Location {
	loc, err := time.LoadLocation(s.SummaryTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func lowerKeys(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[strings.ToLower(k)] = v
	}
	return out
}

func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("could not resolve working directory: ", err)
		return
	}

	locations := []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(filepath.Dir(cwd), ".env"),
		filepath.Join(cwd, "../../.env"),
	}

	for _, location := range locations {
		if err := godotenv.Load(location); err == nil {
			logrus.Debug(".env loaded from: ", location)
			return
		}
	}
}
