package config

import (
	"github.com/inboxpilot/mailsync/internal/logger"
	"github.com/inboxpilot/mailsync/internal/tracing"
)

type AppConfig struct {
	APIPort     string `env:"PORT" envDefault:"12333"`
	APIKey      string `env:"API_KEY,required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
	Logger      *logger.Config
	Tracing     *tracing.JaegerConfig
}

type DatabaseConfig struct {
	Host            string `env:"MAILSYNC_POSTGRES_HOST,required"`
	Port            string `env:"MAILSYNC_POSTGRES_PORT,required"`
	User            string `env:"MAILSYNC_POSTGRES_USER,required"`
	DBName          string `env:"MAILSYNC_POSTGRES_DB_NAME,required"`
	Password        string `env:"MAILSYNC_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"MAILSYNC_POSTGRES_DB_MAX_CONN"`
	MaxIdleConn     int    `env:"MAILSYNC_POSTGRES_DB_MAX_IDLE_CONN"`
	ConnMaxLifetime int    `env:"MAILSYNC_POSTGRES_DB_CONN_MAX_LIFETIME"`
	LogLevel        string `env:"MAILSYNC_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"MAILSYNC_POSTGRES_SSL_MODE" envDefault:"disable"`
}

type SyncConfig struct {
	// CronScheduleSync drives the poll cycle; seconds field enabled.
	CronScheduleSync string `env:"CRON_SCHEDULE_SYNC" envDefault:"*/10 * * * * *"`
	// SentWindowDays is the trailing window for the sent-folder pass.
	SentWindowDays int `env:"SYNC_SENT_WINDOW_DAYS" envDefault:"7"`
	// SubjectThreading enables the subject-based thread fallback. It can
	// merge unrelated conversations that share a generic subject; disable it
	// to thread on reference headers only.
	SubjectThreading bool `env:"SYNC_SUBJECT_THREADING" envDefault:"true"`
	// LegacySentFallback makes the sent-folder resolver return the literal
	// "Sent" when neither special-use attributes nor candidate names match.
	// Off by default: an unresolved sent folder disables sent-folder
	// operations for the account instead of guessing a path.
	LegacySentFallback bool `env:"SYNC_LEGACY_SENT_FALLBACK" envDefault:"false"`
}

type CompletionConfig struct {
	Url            string `env:"COMPLETION_API_URL,required"`
	ApiKey         string `env:"COMPLETION_API_KEY"`
	TimeoutSeconds int    `env:"COMPLETION_TIMEOUT_SECONDS" envDefault:"60"`
}
