// Package config reads process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Verification providers accepted by VERIFY_PROVIDER.
const (
	ProviderNone   = "none"
	ProviderStatic = "static"
	ProviderTwilio = "twilio"
)

type Config struct {
	HTTPAddr string
	LogEnv   string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string

	ReceiptSecret string
	AdminPassword string

	VerifyProvider   string
	VerifyRequired   bool
	VerifyCooldown   time.Duration
	VerifyStaticCode string
	Twilio           Twilio

	NATS NATS

	DeliveryTablePath  string
	ClipboardEnabled   bool
	DefaultCountryCode string
}

type Twilio struct {
	AccountSID string
	AuthToken  string
	ServiceSID string
}

type NATS struct {
	URL       string
	ClusterID string
	ClientID  string
	Subject   string
}

// Enabled reports whether a handoff feed is configured.
func (n NATS) Enabled() bool { return n.URL != "" }

// Load reads an optional .env file and then the environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	c := Config{
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		LogEnv:             getEnv("LOG_ENV", "development"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		ReceiptSecret:      os.Getenv("RECEIPT_SECRET"),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
		VerifyProvider:     getEnv("VERIFY_PROVIDER", ProviderNone),
		VerifyStaticCode:   os.Getenv("VERIFY_STATIC_CODE"),
		DeliveryTablePath:  os.Getenv("DELIVERY_TABLE_PATH"),
		DefaultCountryCode: getEnv("DEFAULT_COUNTRY_CODE", "971"),
		Twilio: Twilio{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			ServiceSID: os.Getenv("TWILIO_VERIFY_SERVICE_SID"),
		},
		NATS: NATS{
			URL:       os.Getenv("NATS_URL"),
			ClusterID: getEnv("STAN_CLUSTER_ID", "zari-cluster"),
			ClientID:  os.Getenv("STAN_CLIENT_ID"),
			Subject:   getEnv("STAN_SUBJECT", "receipts"),
		},
	}

	var err error
	if c.VerifyRequired, err = getBool("VERIFY_REQUIRED", false); err != nil {
		return Config{}, err
	}
	if c.ClipboardEnabled, err = getBool("CLIPBOARD_ENABLED", false); err != nil {
		return Config{}, err
	}
	if c.VerifyCooldown, err = getDuration("VERIFY_COOLDOWN", 120*time.Second); err != nil {
		return Config{}, err
	}
	return c, c.validate()
}

func (c Config) validate() error {
	switch c.VerifyProvider {
	case ProviderNone:
		if c.VerifyRequired {
			return errors.New("VERIFY_REQUIRED needs a VERIFY_PROVIDER")
		}
	case ProviderStatic:
		if c.VerifyStaticCode == "" {
			return errors.New("VERIFY_PROVIDER=static needs VERIFY_STATIC_CODE")
		}
	case ProviderTwilio:
		if c.Twilio.AccountSID == "" || c.Twilio.AuthToken == "" || c.Twilio.ServiceSID == "" {
			return errors.New("VERIFY_PROVIDER=twilio needs TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_VERIFY_SERVICE_SID")
		}
	default:
		return fmt.Errorf("unknown VERIFY_PROVIDER %q", c.VerifyProvider)
	}
	if c.VerifyCooldown <= 0 {
		return errors.New("VERIFY_COOLDOWN must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
