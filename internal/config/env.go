package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/aw226929-cmd/iturnin-backend/internal/utils"
)

type Env struct {
	Server  ServerConfig
	Stripe  StripeConfig
	Maps    MapsConfig
	Mail    MailConfig
	Storage StorageConfig
	Admin   AdminConfig
	Pricing PricingConfig
}

type ServerConfig struct {
	Port               int           `env:"PORT"                  env-default:"4000"  validate:"min=1,max=65535"`
	GinMode            string        `env:"GIN_MODE"              env-default:"debug" validate:"oneof=debug release test"`
	LogLevel           string        `env:"LOG_LEVEL"             env-default:"info"  validate:"oneof=debug info warn error"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS"  env-separator:","`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" env-default:"30"    validate:"min=0"`
	ReadTimeout        time.Duration `env:"SERVER_READ_TIMEOUT"   env-default:"20s"   validate:"gt=0"`
	WriteTimeout       time.Duration `env:"SERVER_WRITE_TIMEOUT"  env-default:"20s"   validate:"gt=0"`
	IdleTimeout        time.Duration `env:"SERVER_IDLE_TIMEOUT"   env-default:"60s"   validate:"gt=0"`
}

type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"     validate:"required"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	Currency      string `env:"CURRENCY"              env-default:"usd" validate:"len=3"`
}

type MapsConfig struct {
	APIKey        string `env:"GOOGLE_MAPS_API_KEY"`
	OriginAddress string `env:"BUSINESS_ORIGIN_ADDRESS" env-default:"1 Ferry Building, San Francisco, CA 94111" validate:"required"`
}

type MailConfig struct {
	Host       string `env:"SMTP_HOST"`
	Port       int    `env:"SMTP_PORT"   env-default:"587" validate:"min=1,max=65535"`
	User       string `env:"SMTP_USER"`
	Password   string `env:"SMTP_PASS"`
	From       string `env:"MAIL_FROM"   validate:"omitempty,email"`
	AdminEmail string `env:"ADMIN_EMAIL" validate:"omitempty,email"`
}

type StorageConfig struct {
	DataFile   string `env:"DATA_FILE"   env-default:"data/bookings.json"      validate:"required"`
	EventsFile string `env:"EVENTS_FILE" env-default:"data/stripe_events.json" validate:"required"`
	MySQLDSN   string `env:"MYSQL_DSN"`
}

type AdminConfig struct {
	JWTSecret    string        `env:"ADMIN_JWT_SECRET"`
	PasswordHash string        `env:"ADMIN_PASSWORD_HASH"`
	TokenTTL     time.Duration `env:"ADMIN_TOKEN_TTL" env-default:"12h" validate:"gt=0"`
}

type PricingConfig struct {
	BaseCents     int64   `env:"PRICE_BASE_CENTS"     env-default:"1000" validate:"min=0"`
	IncludedMiles float64 `env:"PRICE_INCLUDED_MILES" env-default:"5"    validate:"min=0"`
	PerMileCents  int64   `env:"PRICE_PER_MILE_CENTS" env-default:"100"  validate:"min=0"`
	BoxCents      int64   `env:"PRICE_BOX_CENTS"      env-default:"300"  validate:"min=0"`
	MailerCents   int64   `env:"PRICE_MAILER_CENTS"   env-default:"150"  validate:"min=0"`
	TapeCents     int64   `env:"PRICE_TAPE_CENTS"     env-default:"200"  validate:"min=0"`
	LabelCents    int64   `env:"PRICE_LABEL_CENTS"    env-default:"100"  validate:"min=0"`
}

// LoadEnv reads an optional .env file, binds the environment and validates it.
func LoadEnv() (Env, error) {
	// missing .env is normal outside local development
	_ = godotenv.Load()

	var env Env
	if err := cleanenv.ReadEnv(&env); err != nil {
		return Env{}, fmt.Errorf("read env: %w", err)
	}
	env.normalize()

	if err := validator.New().Struct(env); err != nil {
		return Env{}, fmt.Errorf("validate env: %w", err)
	}
	return env, nil
}

func (e *Env) normalize() {
	e.Stripe.Currency = strings.ToLower(strings.TrimSpace(e.Stripe.Currency))
	e.Maps.OriginAddress = utils.NormalizeSpace(e.Maps.OriginAddress)

	origins := make([]string, 0, len(e.Server.CORSAllowedOrigins))
	for _, o := range e.Server.CORSAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	e.Server.CORSAllowedOrigins = origins

	if e.Mail.From == "" {
		e.Mail.From = e.Mail.User
		if !strings.Contains(e.Mail.From, "@") {
			e.Mail.From = ""
		}
	}
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// MailEnabled reports whether outbound mail is configured.
func (m MailConfig) MailEnabled() bool {
	return strings.TrimSpace(m.Host) != "" && strings.TrimSpace(m.From) != ""
}

// Enabled reports whether admin login and the bearer guard are active.
func (a AdminConfig) Enabled() bool {
	return a.JWTSecret != "" && a.PasswordHash != ""
}

func (p PricingConfig) Table() utils.PriceTable {
	return utils.PriceTable{
		BaseCents:     p.BaseCents,
		IncludedMiles: p.IncludedMiles,
		PerMileCents:  p.PerMileCents,
		BoxCents:      p.BoxCents,
		MailerCents:   p.MailerCents,
		TapeCents:     p.TapeCents,
		LabelCents:    p.LabelCents,
	}
}
