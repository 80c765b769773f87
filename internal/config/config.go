package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName  string
	AppEnv   string
	AppPort  string
	AppURL   string
	TimeZone string

	// Database
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUsername        string
	DBPassword        string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBAutoMigrate     bool

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret       string
	JWTAccessExpire time.Duration

	// Upload
	UploadMaxSize int
	UploadPath    string

	// Evidence storage
	StorageDriver      string // oss | local
	OSSEndpoint        string
	OSSAccessKeyID     string
	OSSAccessKeySecret string
	OSSBucketPrefix    string
	StoragePublicURL   string

	// Workflow
	SubmitGuardTTL    time.Duration
	TrendMonthsBack   int
	WorkerConcurrency int
	CleanupDelay      time.Duration

	// Asynq
	AsynqRedisAddr     string
	AsynqRedisPassword string
	AsynqRedisDB       int

	// First admin_pusat, created at startup when the email is not taken
	BootstrapAdminName     string
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()
	_ = godotenv.Load("../../.env") // For when running from cmd/web or cmd/worker

	cfg := &Config{
		AppName:  getEnv("APP_NAME", "Pondok Keuangan"),
		AppEnv:   getEnv("APP_ENV", "development"),
		AppPort:  getEnv("APP_PORT", "8080"),
		AppURL:   getEnv("APP_URL", "http://localhost:8080"),
		TimeZone: getEnv("APP_TIMEZONE", "Asia/Jakarta"),

		DBHost:            getEnv("DB_HOST", "127.0.0.1"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBDatabase:        getEnv("DB_DATABASE", "pondok_keuangan"),
		DBUsername:        getEnv("DB_USERNAME", "root"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBMaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		DBAutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JWTSecret:       getEnv("JWT_SECRET", "change-this-secret-key"),
		JWTAccessExpire: getEnvAsDuration("JWT_ACCESS_EXPIRE", 24*time.Hour),

		UploadMaxSize: getEnvAsInt("UPLOAD_MAX_SIZE", 10485760), // 10MB
		UploadPath:    getEnv("UPLOAD_PATH", "./storage/bukti"),

		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
		OSSEndpoint:        getEnv("OSS_ENDPOINT", "oss-ap-southeast-5.aliyuncs.com"),
		OSSAccessKeyID:     getEnv("OSS_ACCESS_KEY_ID", ""),
		OSSAccessKeySecret: getEnv("OSS_ACCESS_KEY_SECRET", ""),
		OSSBucketPrefix:    getEnv("OSS_BUCKET_PREFIX", ""),
		StoragePublicURL:   getEnv("STORAGE_PUBLIC_URL", "http://localhost:8080/files"),

		SubmitGuardTTL:    getEnvAsDuration("SUBMIT_GUARD_TTL", 2*time.Minute),
		TrendMonthsBack:   getEnvAsInt("TREND_MONTHS_BACK", 6),
		WorkerConcurrency: getEnvAsInt("WORKER_CONCURRENCY", 4),
		CleanupDelay:      getEnvAsDuration("EVIDENCE_CLEANUP_DELAY", time.Minute),

		AsynqRedisAddr:     getEnv("ASYNQ_REDIS_ADDR", "127.0.0.1:6379"),
		AsynqRedisPassword: getEnv("ASYNQ_REDIS_PASSWORD", ""),
		AsynqRedisDB:       getEnvAsInt("ASYNQ_REDIS_DB", 0),

		BootstrapAdminName:     getEnv("BOOTSTRAP_ADMIN_NAME", "Admin Pusat"),
		BootstrapAdminEmail:    getEnv("BOOTSTRAP_ADMIN_EMAIL", ""),
		BootstrapAdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
	}

	if cfg.StorageDriver != "oss" && cfg.StorageDriver != "local" {
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.StorageDriver == "oss" && (cfg.OSSAccessKeyID == "" || cfg.OSSAccessKeySecret == "") {
		return nil, fmt.Errorf("STORAGE_DRIVER=oss requires OSS_ACCESS_KEY_ID and OSS_ACCESS_KEY_SECRET")
	}
	if cfg.BootstrapAdminEmail != "" && cfg.BootstrapAdminPassword == "" {
		return nil, fmt.Errorf("BOOTSTRAP_ADMIN_EMAIL requires BOOTSTRAP_ADMIN_PASSWORD")
	}

	return cfg, nil
}

// IsDevelopment reports whether APP_ENV allows the in-memory fallbacks used
// when MySQL is unreachable.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "development")
}

// GetDSN stores and reads every timestamp in UTC; window evaluation converts explicitly.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC",
		c.DBUsername,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBDatabase,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// Location falls back to a fixed UTC+7 zone when tzdata is missing on the host.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
