package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Files
		Tasks
		Counters
		Metrics
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Database struct {
		Path string
	}

	Files struct {
		Dir string // Directory holding downloadable book files
	}

	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}

	Counters struct {
		ReconcileEnabled     bool
		ReconcileSchedule    string // Cron format: "0 2 * * *" = nightly at 02:00
		MonthlyResetEnabled  bool
		MonthlyResetSchedule string // Cron format: "5 0 1 * *" = first of month, 00:05
	}

	Metrics struct {
		Enabled bool
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("files_dir", DefaultFilesDir)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Counter maintenance defaults
	v.SetDefault("counters_reconcile_enabled", false)
	v.SetDefault("counters_reconcile_schedule", "0 2 * * *") // Nightly at 02:00
	v.SetDefault("counters_monthly_reset_enabled", true)
	v.SetDefault("counters_monthly_reset_schedule", "5 0 1 * *") // First of the month

	// Metrics defaults
	v.SetDefault("metrics_enabled", true)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Files: Files{
			Dir: v.GetString("FILES_DIR"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Counters: Counters{
			ReconcileEnabled:     v.GetBool("COUNTERS_RECONCILE_ENABLED"),
			ReconcileSchedule:    v.GetString("COUNTERS_RECONCILE_SCHEDULE"),
			MonthlyResetEnabled:  v.GetBool("COUNTERS_MONTHLY_RESET_ENABLED"),
			MonthlyResetSchedule: v.GetString("COUNTERS_MONTHLY_RESET_SCHEDULE"),
		},
		Metrics: Metrics{
			Enabled: v.GetBool("METRICS_ENABLED"),
		},
	}
}
