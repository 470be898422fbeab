package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/NxTech4021/dl-backend-sub000/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the engine.
type Config struct {
	AppEnv      string
	ServiceName string
	DBURL       string
	LogLevel    logging.Level

	InviteExpiry         time.Duration
	LateCancelWindow     time.Duration
	ConflictWindowCreate time.Duration
	ConflictWindowAccept time.Duration
	RequiresConfirmation bool

	DisputeEscalateAfter time.Duration
	StaleResultAfter     time.Duration
	SweepInterval        time.Duration
	SweepWorkers         int

	NotifyEnabled               bool
	NotifyBaseURL               string
	NotifyToken                 string
	NotifyTimeout               time.Duration
	NotifyCircuitEnabled        bool
	NotifyCircuitFailureCount   int
	NotifyCircuitOpenTimeout    time.Duration
	NotifyCircuitHalfOpenMaxReq int
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	logLevel, err := logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_LOG_LEVEL: %w", err)
	}

	inviteExpiry, err := getEnvAsDuration("INVITE_EXPIRY", 48*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("parse INVITE_EXPIRY: %w", err)
	}
	lateCancelWindow, err := getEnvAsDuration("LATE_CANCEL_WINDOW", 24*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("parse LATE_CANCEL_WINDOW: %w", err)
	}
	conflictWindowCreate, err := getEnvAsDuration("CONFLICT_WINDOW_CREATE", 2*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("parse CONFLICT_WINDOW_CREATE: %w", err)
	}
	conflictWindowAccept, err := getEnvAsDuration("CONFLICT_WINDOW_ACCEPT", 3*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("parse CONFLICT_WINDOW_ACCEPT: %w", err)
	}
	requiresConfirmation, err := strconv.ParseBool(getEnv("RESULT_REQUIRES_CONFIRMATION", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse RESULT_REQUIRES_CONFIRMATION: %w", err)
	}

	disputeEscalateAfter, err := getEnvAsDuration("DISPUTE_ESCALATE_AFTER", 72*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("parse DISPUTE_ESCALATE_AFTER: %w", err)
	}
	staleResultAfter, err := getEnvAsDuration("STALE_RESULT_AFTER", 72*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("parse STALE_RESULT_AFTER: %w", err)
	}
	sweepInterval, err := getEnvAsDuration("SWEEP_INTERVAL", 10*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("parse SWEEP_INTERVAL: %w", err)
	}
	sweepWorkers, err := getEnvAsInt("SWEEP_WORKERS", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse SWEEP_WORKERS: %w", err)
	}

	notifyEnabled, err := strconv.ParseBool(getEnv("NOTIFY_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFY_ENABLED: %w", err)
	}
	notifyBaseURL := strings.TrimSpace(getEnv("NOTIFY_BASE_URL", ""))
	if notifyEnabled && notifyBaseURL == "" {
		return Config{}, fmt.Errorf("NOTIFY_BASE_URL is required when NOTIFY_ENABLED=true")
	}
	notifyTimeout, err := getEnvAsDuration("NOTIFY_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFY_TIMEOUT: %w", err)
	}
	notifyCircuitEnabled, err := strconv.ParseBool(getEnv("NOTIFY_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFY_CIRCUIT_ENABLED: %w", err)
	}
	notifyCircuitFailureCount, err := getEnvAsInt("NOTIFY_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFY_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	notifyCircuitOpenTimeout, err := getEnvAsDuration("NOTIFY_CIRCUIT_OPEN_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFY_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	notifyCircuitHalfOpenMaxReq, err := getEnvAsInt("NOTIFY_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFY_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}

	return Config{
		AppEnv:      appEnv,
		ServiceName: getEnv("APP_SERVICE_NAME", "dl-backend"),
		DBURL:       getEnv("DB_URL", ""),
		LogLevel:    logLevel,

		InviteExpiry:         inviteExpiry,
		LateCancelWindow:     lateCancelWindow,
		ConflictWindowCreate: conflictWindowCreate,
		ConflictWindowAccept: conflictWindowAccept,
		RequiresConfirmation: requiresConfirmation,

		DisputeEscalateAfter: disputeEscalateAfter,
		StaleResultAfter:     staleResultAfter,
		SweepInterval:        sweepInterval,
		SweepWorkers:         sweepWorkers,

		NotifyEnabled:               notifyEnabled,
		NotifyBaseURL:               notifyBaseURL,
		NotifyToken:                 getEnv("NOTIFY_TOKEN", ""),
		NotifyTimeout:               notifyTimeout,
		NotifyCircuitEnabled:        notifyCircuitEnabled,
		NotifyCircuitFailureCount:   notifyCircuitFailureCount,
		NotifyCircuitOpenTimeout:    notifyCircuitOpenTimeout,
		NotifyCircuitHalfOpenMaxReq: notifyCircuitHalfOpenMaxReq,
	}, nil
}

func parseAppEnv(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case EnvDev, EnvStage, EnvProd:
		return v, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}
