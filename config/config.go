package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"checkout-flow-api/utils"
)

type Config struct {
	Env      string
	Checkout CheckoutConfig
	Server   ServerConfig
	Session  SessionConfig
	Redis    RedisConfig
	Commerce CommerceConfig
}

type CheckoutConfig struct {
	SecretKey           string
	ProcessingChannelID string
	Environment         string
	BaseURL             string
}

type ServerConfig struct {
	Port      string
	PublicURL string
}

type SessionConfig struct {
	Secret string
	MaxAge int
	Secure bool
}

type RedisConfig struct {
	URL string
}

// CommerceConfig holds the session-fixed commerce attributes sent with every
// payment. Amounts are in minor units.
type CommerceConfig struct {
	CardAmount              int64
	CardCurrency            string
	CardPaymentType         string
	DescriptorName          string
	DescriptorCity          string
	ChallengeIndicator      string
	ContextCurrency         string
	ContextCountry          string
	ContextLocale           string
	BasketItemName          string
	BasketItemReference     string
	BasketItemPrice         int64
	RedirectAmount          int64
	RedirectCurrency        string
	RedirectDescription     string
	RedirectLanguage        string
	RedirectReferencePrefix string
}

func DefaultCommerce() CommerceConfig {
	return CommerceConfig{
		CardAmount:              3250,
		CardCurrency:            "GBP",
		CardPaymentType:         "Recurring",
		DescriptorName:          "ASOC.COM",
		DescriptorCity:          "London",
		ChallengeIndicator:      "challenge_requested_mandate",
		ContextCurrency:         "EUR",
		ContextCountry:          "DE",
		ContextLocale:           "en-GB",
		BasketItemName:          "ASOS DESIGN oversized sweatshirt",
		BasketItemReference:     "ASOC-001",
		BasketItemPrice:         3250,
		RedirectAmount:          2000,
		RedirectCurrency:        "EUR",
		RedirectDescription:     "ORD50234E89",
		RedirectLanguage:        "nl",
		RedirectReferencePrefix: "iDEAL",
	}
}

// SuccessURL is the processor callback for completed payments.
func (s ServerConfig) SuccessURL() string { return s.PublicURL + "/success" }

// FailureURL is the processor callback for failed payments.
func (s ServerConfig) FailureURL() string { return s.PublicURL + "/failure" }

func (s ServerConfig) Addr() string { return ":" + s.Port }

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	port := getEnv("SERVER_PORT", "8000")

	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Checkout: CheckoutConfig{
			SecretKey:           os.Getenv("CKO_SECRET_KEY"),
			ProcessingChannelID: os.Getenv("CKO_PROCESSING_CHANNEL_ID"),
			Environment:         getEnv("CKO_ENVIRONMENT", "sandbox"),
			BaseURL:             os.Getenv("CKO_BASE_URL"),
		},
		Server: ServerConfig{
			Port:      port,
			PublicURL: strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:"+port), "/"),
		},
		Session: SessionConfig{
			Secret: os.Getenv("SESSION_SECRET"),
			MaxAge: getEnvInt("SESSION_MAX_AGE", 3600),
			Secure: getEnvBool("SESSION_SECURE", false),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Commerce: loadCommerce(),
	}

	if cfg.Session.Secret == "" {
		// Sessions will not survive a restart.
		secret, err := utils.GenerateRandomString(32)
		if err != nil {
			log.Fatalf("Failed to generate session secret: %v", err)
		}
		cfg.Session.Secret = secret
		log.Printf("Warning: SESSION_SECRET not set, using a random per-process secret")
	}

	return cfg
}

func loadCommerce() CommerceConfig {
	c := DefaultCommerce()
	c.CardAmount = getEnvInt64("CARD_AMOUNT", c.CardAmount)
	c.CardCurrency = getEnv("CARD_CURRENCY", c.CardCurrency)
	c.ContextCurrency = getEnv("CONTEXT_CURRENCY", c.ContextCurrency)
	c.BasketItemPrice = getEnvInt64("BASKET_ITEM_PRICE", c.BasketItemPrice)
	c.RedirectAmount = getEnvInt64("REDIRECT_AMOUNT", c.RedirectAmount)
	c.RedirectCurrency = getEnv("REDIRECT_CURRENCY", c.RedirectCurrency)
	return c
}

// Validate reports the required inputs that are missing.
func (c *Config) Validate() error {
	var errs []error
	if c.Checkout.SecretKey == "" {
		errs = append(errs, errors.New("CKO_SECRET_KEY is required"))
	}
	if c.Checkout.ProcessingChannelID == "" {
		errs = append(errs, errors.New("CKO_PROCESSING_CHANNEL_ID is required"))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid %s %q, defaulting to %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvInt64(key string, fallback int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("Warning: invalid %s %q, defaulting to %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Warning: invalid %s %q, defaulting to %t", key, v, fallback)
		return fallback
	}
	return b
}
