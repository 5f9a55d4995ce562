package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	S3            S3Config           `mapstructure:"s3"`
	JWT           JWTConfig          `mapstructure:"jwt"`
	Redis         RedisConfig        `mapstructure:"redis"`
	Email         EmailConfig        `mapstructure:"email"`
	Plans         PlansConfig        `mapstructure:"plans"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Admin         AdminConfig        `mapstructure:"admin"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	// ReportPrefix is prepended to every exported report key.
	ReportPrefix string `mapstructure:"report_prefix"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// RedisConfig configures the facility catalog cache. An empty address
// disables caching.
type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// EmailConfig configures the optional email mirror. An empty API key
// disables it.
type EmailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
}

type PlansConfig struct {
	// GeneralPlanRoles lists the roles allowed to create general plans.
	GeneralPlanRoles []string `mapstructure:"general_plan_roles"`
}

type NotificationConfig struct {
	DispatchTimeout time.Duration `mapstructure:"dispatch_timeout"`
	// ExpiryReminderDays is how far ahead the expiry sweep looks.
	ExpiryReminderDays int `mapstructure:"expiry_reminder_days"`
}

// AdminConfig seeds the first admin account on startup when Email is set.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// LoadConfig reads configuration from file or environment variables.
// A .env file in path (or the working directory) is loaded first so its
// values are visible to AutomaticEnv.
func LoadConfig(path string) (config Config, err error) {
	loadDotEnv(path)

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, jwt.expiration -> JWT_EXPIRATION
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		// Env vars and defaults are enough to run
		err = nil
	} else if err != nil {
		return
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}

	// AutomaticEnv hands list values through as a single string
	config.Plans.GeneralPlanRoles = splitList(config.Plans.GeneralPlanRoles)

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.uri", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("database.name", "gym_membership")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.report_prefix", "reports")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "10m")
	v.SetDefault("email.resend_api_key", "")
	v.SetDefault("email.from", "")
	v.SetDefault("plans.general_plan_roles", []string{"trainer"})
	v.SetDefault("notifications.dispatch_timeout", "10s")
	v.SetDefault("notifications.expiry_reminder_days", 14)
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.name", "Administrator")
}

func loadDotEnv(path string) {
	for _, candidate := range []string{path + "/.env", ".env"} {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if err := godotenv.Load(candidate); err != nil {
			log.Printf("WARN: Failed to load %s: %v", candidate, err)
		}
		return
	}
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, part)
		}
	}
	return out
}
