package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DBDriver     string // postgres, mysql or sqlite
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSqlitePath string

	JWTAdminKey string
	JWTUserKey  string
	SaltRound   int

	AllowedOrigins []string
	BodyLimitMB    int

	MediaDriver       string // minio or local
	MinioEndpoint     string
	MinioAccessKey    string
	MinioSecretKey    string
	MinioBucket       string
	MinioUseSSL       bool
	MediaPublicURL    string
	MediaLocalDir     string
	UploadConcurrency int
	CoverMaxDimension int

	MidtransServerKey  string
	MidtransProduction bool
	PaymentCurrency    string
	PaymentIntentTTL   time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	SendGridAPIKey string
	EmailSender    string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:     getEnv("PORT", "5000"),
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver:     strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBUser:       getEnv("DB_USER", "postgres"),
		DBPassword:   getEnv("DB_PASSWORD", ""),
		DBName:       getEnv("DB_NAME", "coursehub"),
		DBSqlitePath: getEnv("DB_SQLITE_PATH", "coursehub.db"),

		JWTAdminKey: getEnv("JWT_ADMIN_SECRET", "defaultAdminSecret"),
		JWTUserKey:  getEnv("JWT_USER_SECRET", "defaultUserSecret"),
		SaltRound:   getEnvInt("SALT_ROUND", 10),

		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		BodyLimitMB:    getEnvInt("BODY_LIMIT_MB", 1100),

		MediaDriver:       strings.ToLower(getEnv("MEDIA_DRIVER", "minio")),
		MinioEndpoint:     getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:    getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:    getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:       getEnv("MINIO_BUCKET", "coursehub"),
		MinioUseSSL:       getEnvBool("MINIO_USE_SSL", false),
		MediaPublicURL:    getEnv("MEDIA_PUBLIC_URL", ""),
		MediaLocalDir:     getEnv("MEDIA_LOCAL_DIR", "./uploads"),
		UploadConcurrency: getEnvInt("UPLOAD_CONCURRENCY", 3),
		CoverMaxDimension: getEnvInt("COVER_MAX_DIMENSION", 1600),

		MidtransServerKey:  getEnv("MIDTRANS_SERVER_KEY", ""),
		MidtransProduction: getEnvBool("MIDTRANS_PRODUCTION", false),
		PaymentCurrency:    strings.ToUpper(getEnv("PAYMENT_CURRENCY", "IDR")),
		PaymentIntentTTL:   time.Duration(getEnvInt("PAYMENT_INTENT_TTL_MINUTES", 1440)) * time.Minute,

		KafkaBrokers: getEnvList("KAFKA_BROKERS", nil),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "coursehub.events"),

		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailSender:    getEnv("EMAIL_SENDER", "no-reply@coursehub.local"),
	}

	// Validate critical configuration
	if AppConfig.JWTAdminKey == "defaultAdminSecret" || AppConfig.JWTUserKey == "defaultUserSecret" {
		log.Println("Warning: Using default JWT secrets. Update JWT_ADMIN_SECRET and JWT_USER_SECRET in your environment.")
	}
	if AppConfig.MidtransServerKey == "" {
		log.Println("Warning: MIDTRANS_SERVER_KEY is empty. Course purchases will fail.")
	}

	return AppConfig
}

// IsProduction reports whether the service runs in a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return b
}

// getEnvList splits a comma separated variable, dropping blanks
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
