package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL   string
	MigrationsDir string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ServerAddr    string

	JWTSecret []byte
	TokenTTL  time.Duration

	OTPTTL         time.Duration
	OTPMaxAttempts int
	OTPLockFor     time.Duration

	OfferExpiry        time.Duration
	SweepInterval      time.Duration
	CheckInRadiusM     float64
	VisitNoShowGrace   time.Duration
	CommissionBps      int64
	AgentShareBps      int64
	PlatformFeeBps     int64
	AuditSigningKeyHex string
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "estate_hub")
		pass := getenv("POSTGRES_PASSWORD", "estate_hub_pass")
		db := getenv("POSTGRES_DB", "estate_hub")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		DatabaseURL:        dsn,
		MigrationsDir:      getenv("MIGRATIONS_DIR", "internal/migrations"),
		RedisAddr:          getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            parseInt(getenv("REDIS_DB", "0"), 0),
		ServerAddr:         getenv("SERVER_ADDR", "0.0.0.0:8080"),
		JWTSecret:          []byte(secret),
		TokenTTL:           parseDuration(getenv("TOKEN_TTL", "24h"), 24*time.Hour),
		OTPTTL:             parseDuration(getenv("OTP_TTL", "10m"), 10*time.Minute),
		OTPMaxAttempts:     parseInt(getenv("OTP_MAX_ATTEMPTS", "5"), 5),
		OTPLockFor:         parseDuration(getenv("OTP_LOCK_FOR", "30m"), 30*time.Minute),
		OfferExpiry:        parseDuration(getenv("OFFER_EXPIRY", "48h"), 48*time.Hour),
		SweepInterval:      parseDuration(getenv("SWEEP_INTERVAL", "1m"), time.Minute),
		CheckInRadiusM:     parseFloat(getenv("CHECKIN_RADIUS_METERS", "500"), 500),
		VisitNoShowGrace:   parseDuration(getenv("VISIT_NO_SHOW_GRACE", "24h"), 24*time.Hour),
		CommissionBps:      int64(parseInt(getenv("COMMISSION_BPS", "200"), 200)),
		AgentShareBps:      int64(parseInt(getenv("AGENT_SHARE_BPS", "6000"), 6000)),
		PlatformFeeBps:     int64(parseInt(getenv("PLATFORM_FEE_BPS", "100"), 100)),
		AuditSigningKeyHex: os.Getenv("AUDIT_SIGNING_KEY"),
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return n
}

func parseFloat(val string, def float64) float64 {
	if val == "" {
		return def
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return def
	}
	return f
}
