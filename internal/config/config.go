package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Gateway  GatewayConfig
	Storage  StorageConfig
	Credits  CreditConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
	RefinementStateTTL time.Duration
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

// GatewayConfig points at the external summarize/goals/visualize service.
type GatewayConfig struct {
	BaseURL string
	ApiKey  string
	Timeout time.Duration
}

type StorageConfig struct {
	ProjectId         string
	BucketName        string
	CredentialsPath   string
	DatasetURLExpiry  time.Duration
	ArtifactURLExpiry time.Duration
	ArchiveTopic      string
}

type CreditConfig struct {
	SessionCost          int
	VisualizationCost    int
	LowCreditThreshold   int
	MaxGoalRegenerations int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			RefinementStateTTL: getEnvAsDuration("REFINEMENT_STATE_TTL", time.Hour),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "DataViz"),
		},
		Gateway: GatewayConfig{
			BaseURL: getEnv("FLASK_API_SERVER", "http://localhost:5001"),
			ApiKey:  getEnv("API_KEY", ""),
			Timeout: getEnvAsDuration("GATEWAY_TIMEOUT", 300*time.Second),
		},
		Storage: StorageConfig{
			ProjectId:         getEnv("GOOGLE_CLOUD_PROJECT_ID", ""),
			BucketName:        getEnv("GCS_BUCKET_NAME", ""),
			CredentialsPath:   getEnv("GCS_CREDENTIALS_PATH", ""),
			DatasetURLExpiry:  getEnvAsDuration("DATASET_URL_EXPIRY", time.Hour),
			ArtifactURLExpiry: getEnvAsDuration("ARTIFACT_URL_EXPIRY", 7*24*time.Hour),
			ArchiveTopic:      getEnv("ARCHIVE_VISUALIZATION_TOPIC_NAME", "ARCHIVE_VISUALIZATION"),
		},
		Credits: CreditConfig{
			SessionCost:          getEnvAsInt("SESSION_CREDIT_COST", 5),
			VisualizationCost:    getEnvAsInt("VISUALIZATION_CREDIT_COST", 1),
			LowCreditThreshold:   getEnvAsInt("LOW_CREDIT_THRESHOLD", 5),
			MaxGoalRegenerations: getEnvAsInt("MAX_GOAL_REGENERATIONS", 5),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
