package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr    string
	DataDir string

	TokenTTL time.Duration

	StripeAPIKey  string
	MailgunAPIKey string
	MailgunDomain string
	MailSender    string

	// GatewayTimeout bounds every external payment and mail call; a
	// timed-out capture counts as a payment failure.
	GatewayTimeout time.Duration
}

// Load reads configuration from the environment, with a .env file as an
// optional local override.
func Load() (Config, error) {
	// Missing .env is fine in production, everything comes from the
	// environment there.
	_ = godotenv.Load()

	ttlMinutes, err := getInt("AUTH_TOKEN_TTL_MINUTES", 60)
	if err != nil {
		return Config{}, err
	}
	timeoutSeconds, err := getInt("GATEWAY_TIMEOUT_SECONDS", 10)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Addr:           getString("ADDR", ":3000"),
		DataDir:        getString("DATA_DIR", ".data"),
		TokenTTL:       time.Duration(ttlMinutes) * time.Minute,
		StripeAPIKey:   os.Getenv("STRIPE_API_KEY"),
		MailgunAPIKey:  os.Getenv("MAILGUN_API_KEY"),
		MailgunDomain:  os.Getenv("MAILGUN_DOMAIN"),
		MailSender:     getString("MAIL_SENDER", "Pizza Pizza <no-reply@pizzapizza.example>"),
		GatewayTimeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}
