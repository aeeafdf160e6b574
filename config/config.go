package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Secrets for the machine-facing entry points.
	StripeKey           string `mapstructure:"STRIPE_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	CronSecret          string `mapstructure:"CRON_SECRET"`
	AdminToken          string `mapstructure:"ADMIN_TOKEN"`

	FirebaseCredentialsPath string `mapstructure:"FIREBASE_CREDENTIALS_PATH"`
	OperatorUserID          string `mapstructure:"OPERATOR_USER_ID"`

	// Fees and payout policy.
	PayoutCurrency           string  `mapstructure:"PAYOUT_CURRENCY"`
	PlatformFeeRate          float64 `mapstructure:"PLATFORM_FEE_RATE"`
	ProcessorPercentRate     float64 `mapstructure:"PROCESSOR_PERCENT_RATE"`
	ProcessorFixedFee        float64 `mapstructure:"PROCESSOR_FIXED_FEE"`
	MinBookingSubtotal       float64 `mapstructure:"MIN_BOOKING_SUBTOTAL"`
	ProofApprovalWindowHours int     `mapstructure:"PROOF_APPROVAL_WINDOW_HOURS"`
	MaxPayoutAttempts        int     `mapstructure:"MAX_PAYOUT_ATTEMPTS"`
	DisconnectWarningDays    int     `mapstructure:"DISCONNECT_WARNING_DAYS"`
	DisconnectSuspendDays    int     `mapstructure:"DISCONNECT_SUSPEND_DAYS"`
	WebhookDedupeTTLHours    int     `mapstructure:"WEBHOOK_DEDUPE_TTL_HOURS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "adspace")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	viper.SetDefault("CRON_SECRET", "")
	viper.SetDefault("ADMIN_TOKEN", "")
	viper.SetDefault("FIREBASE_CREDENTIALS_PATH", "")
	viper.SetDefault("OPERATOR_USER_ID", "")

	viper.SetDefault("PAYOUT_CURRENCY", "usd")
	viper.SetDefault("PLATFORM_FEE_RATE", 0.10)
	viper.SetDefault("PROCESSOR_PERCENT_RATE", 0.029)
	viper.SetDefault("PROCESSOR_FIXED_FEE", 0.30)
	viper.SetDefault("MIN_BOOKING_SUBTOTAL", 10.0)
	viper.SetDefault("PROOF_APPROVAL_WINDOW_HOURS", 48)
	viper.SetDefault("MAX_PAYOUT_ATTEMPTS", 10)
	viper.SetDefault("DISCONNECT_WARNING_DAYS", 5)
	viper.SetDefault("DISCONNECT_SUSPEND_DAYS", 7)
	viper.SetDefault("WEBHOOK_DEDUPE_TTL_HOURS", 72)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
