package config

import "time"

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	ClientURL   string `yaml:"client_url"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Output      string `yaml:"output"`
	Development bool   `yaml:"development"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RateLimitConfig struct {
	// MaxAttempts per window for the payment endpoint, keyed by user id.
	MaxAttempts int           `yaml:"max_attempts"`
	Window      time.Duration `yaml:"window"`
}

type SweeperConfig struct {
	Interval      time.Duration `yaml:"interval"`
	MaxPendingAge time.Duration `yaml:"max_pending_age"`
}

type CancellationConfig struct {
	RefundWindowDays int `yaml:"refund_window_days"`
}

type GatewaysConfig struct {
	Midtrans MidtransConfig `yaml:"midtrans"`
	Stripe   StripeConfig   `yaml:"stripe"`
}

type MidtransConfig struct {
	ServerKey string `yaml:"server_key"`
	BaseURL   string `yaml:"base_url"`
	// Methods lists the payment methods this gateway serves.
	Methods []string `yaml:"methods"`
}

type StripeConfig struct {
	SecretKey string   `yaml:"secret_key"`
	Methods   []string `yaml:"methods"`
}

type EmailConfig struct {
	BrevoAPIKey string `yaml:"brevo_api_key"`
	FromEmail   string `yaml:"from_email"`
	FromName    string `yaml:"from_name"`
}
