package config

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	NotifierNats = "nats"
	NotifierSmtp = "smtp"
	NotifierLog  = "log"
)

type Config struct {
	Port               string        `mapstructure:"PORT" validate:"required"`
	InternalAuthHeader string        `mapstructure:"INTERNAL_AUTH_HEADER" validate:"required"`
	StorageDriver      string        `mapstructure:"STORAGE_DRIVER" validate:"required,oneof=postgres memory"`
	Notifier           string        `mapstructure:"NOTIFIER" validate:"required,oneof=nats smtp log"`
	Db                 DbConfig      `mapstructure:",squash" validate:"-"`
	Jwt                JwtConfig     `mapstructure:",squash"`
	Nats               NatsConfig    `mapstructure:",squash"`
	Redis              RedisConfig   `mapstructure:",squash"`
	Smtp               SmtpConfig    `mapstructure:",squash" validate:"-"`
	Order              OrderConfig   `mapstructure:",squash"`
	Pricing            PricingConfig `mapstructure:",squash"`
}

type DbConfig struct {
	Host     string `mapstructure:"DB_HOST" validate:"required"`
	Port     string `mapstructure:"DB_PORT" validate:"required"`
	Username string `mapstructure:"DB_USERNAME" validate:"required"`
	Password string `mapstructure:"DB_PASSWORD" validate:"required"`
	DbName   string `mapstructure:"DB_DBNAME" validate:"required"`
	SSLMode  string `mapstructure:"DB_SSLMODE"`
}

type JwtConfig struct {
	SecretKey string `mapstructure:"JWT_SECRETKEY" validate:"required"`
	Expire    int64  `mapstructure:"JWT_EXPIRE" validate:"required"`
}

type NatsConfig struct {
	Url        string `mapstructure:"NATS_URL"`
	StreamName string `mapstructure:"NATS_STREAMNAME" validate:"required"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"REDIS_ADDR"`
	LockTTLMs int64  `mapstructure:"LOCK_TTL_MS" validate:"gt=0"`
}

type SmtpConfig struct {
	Host     string `mapstructure:"SMTP_HOST" validate:"required"`
	Port     string `mapstructure:"SMTP_PORT" validate:"required"`
	User     string `mapstructure:"SMTP_USER"`
	Password string `mapstructure:"SMTP_PASS"`
	From     string `mapstructure:"SMTP_FROM" validate:"required"`
}

type OrderConfig struct {
	RevertRestock bool `mapstructure:"REVERT_RESTOCK"`
}

type PricingConfig struct {
	FreeShippingThreshold string `mapstructure:"FREE_SHIPPING_THRESHOLD" validate:"required,numeric"`
	ShippingFee           string `mapstructure:"SHIPPING_FEE" validate:"required,numeric"`
	// TaxRate is a fraction, 0.08 for 8%.
	TaxRate string `mapstructure:"TAX_RATE" validate:"required,numeric"`
}

var defaults = map[string]any{
	"PORT":                          "8080",
	"STORAGE_DRIVER":                StorageDriverPostgres,
	"NOTIFIER":                      NotifierLog,
	"DB_SSLMODE":                    "disable",
	"JWT_EXPIRE":                    3600,
	"NATS_STREAMNAME":               "storefront",
	"LOCK_TTL_MS":                   5000,
	"SMTP_PORT":                     "587",
	"SMTP_FROM":                     "noreply@storefront.local",
	"REVERT_RESTOCK":                false,
	"FREE_SHIPPING_THRESHOLD":       "100.00",
	"SHIPPING_FEE":                  "10.00",
	"TAX_RATE":                      "0.08",
}

func InitConfig(ctx context.Context) (*Config, error) {
	var cfg Config

	// Reset viper to avoid any previous configuration
	viper.Reset()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetConfigType("env")

	// Try to load from .env file if it exists
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}

	_, err := os.Stat(envFile)
	if !os.IsNotExist(err) {
		viper.SetConfigFile(envFile)

		if err := viper.ReadInConfig(); err != nil {
			slog.WarnContext(ctx, "[InitConfig] ReadInConfig warning, continuing with env vars only", "error", err)
		} else {
			slog.InfoContext(ctx, "[InitConfig] Successfully loaded config file", "file", envFile)
		}
	} else {
		slog.InfoContext(ctx, "[InitConfig] No config file found, using environment variables")
	}

	viper.AutomaticEnv()

	for key, value := range defaults {
		viper.SetDefault(key, value)
	}

	envVars := []string{
		"PORT",
		"INTERNAL_AUTH_HEADER",
		"STORAGE_DRIVER",
		"NOTIFIER",
		"DB_HOST",
		"DB_PORT",
		"DB_USERNAME",
		"DB_PASSWORD",
		"DB_DBNAME",
		"DB_SSLMODE",
		"JWT_SECRETKEY",
		"JWT_EXPIRE",
		"NATS_URL",
		"NATS_STREAMNAME",
		"REDIS_ADDR",
		"LOCK_TTL_MS",
		"SMTP_HOST",
		"SMTP_PORT",
		"SMTP_USER",
		"SMTP_PASS",
		"SMTP_FROM",
		"REVERT_RESTOCK",
		"FREE_SHIPPING_THRESHOLD",
		"SHIPPING_FEE",
		"TAX_RATE",
	}

	// Bind environment variables explicitly so Unmarshal sees keys without defaults
	for _, key := range envVars {
		if err := viper.BindEnv(key); err != nil {
			slog.WarnContext(ctx, "[InitConfig] BindEnv", "key", key, "error", err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		slog.ErrorContext(ctx, "[InitConfig] Unmarshal", "failed bind config", err)
		return nil, err
	}

	slog.InfoContext(ctx, "[InitConfig] Configuration after binding",
		"PORT", cfg.Port,
		"STORAGE_DRIVER", cfg.StorageDriver,
		"NOTIFIER", cfg.Notifier,
		"DB_HOST", cfg.Db.Host,
		"DB_PORT", cfg.Db.Port,
		"DB_DBNAME", cfg.Db.DbName,
		"NATS_URL", cfg.Nats.Url,
		"REDIS_ADDR", cfg.Redis.Addr,
		"REVERT_RESTOCK", cfg.Order.RevertRestock)

	validate := validator.New()
	targets := []any{cfg}
	if cfg.StorageDriver == StorageDriverPostgres {
		targets = append(targets, cfg.Db)
	}
	if cfg.Notifier == NotifierSmtp {
		targets = append(targets, cfg.Smtp)
	}
	for _, target := range targets {
		if err := validate.Struct(target); err != nil {
			logValidationError(ctx, err)
			return nil, err
		}
	}

	slog.InfoContext(ctx, "[InitConfig] Config loaded successfully")
	return &cfg, nil
}

func logValidationError(ctx context.Context, err error) {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		slog.ErrorContext(ctx, "[InitConfig] Validation", "error", err)
		return
	}
	for _, validationErr := range validationErrs {
		slog.ErrorContext(ctx, "[InitConfig] Validation error",
			"field", validationErr.Field(),
			"namespace", validationErr.Namespace(),
			"tag", validationErr.Tag(),
			"value", validationErr.Value())
	}
}
