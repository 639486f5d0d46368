package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Beneficiary identity
	BankCode     string `env:"BOLETO_BANK_CODE" envDefault:"341"`
	Agency       string `env:"BOLETO_AGENCY" envDefault:"0001"`
	Account      string `env:"BOLETO_ACCOUNT" envDefault:"12345678"`
	MerchantName string `env:"MERCHANT_NAME" envDefault:"VIDAPLAN SAUDE"`
	MerchantCity string `env:"MERCHANT_CITY" envDefault:"SAO PAULO"`
	PixKey       string `env:"PIX_KEY,required"`

	// Instrument windows
	BoletoDueDays time.Duration `env:"BOLETO_DUE_DAYS" envDefault:"72h"`
	PixExpiry     time.Duration `env:"PIX_EXPIRY" envDefault:"30m"`

	// Settlement gateway
	GatewayURL    string `env:"GATEWAY_API_URL" envDefault:"https://api.mercadopago.com"`
	GatewayAPIKey string `env:"GATEWAY_API_KEY,required"`

	// QR rendering service; empty disables image rendering
	QRRenderURL string `env:"QR_RENDER_URL"`

	// Resilience
	RetryAttempts    int           `env:"GATEWAY_RETRY_ATTEMPTS" envDefault:"3"`
	RetryBaseDelay   time.Duration `env:"GATEWAY_RETRY_BASE_DELAY" envDefault:"200ms"`
	BreakerWindow    int           `env:"GATEWAY_BREAKER_WINDOW" envDefault:"10"`
	BreakerThreshold float64       `env:"GATEWAY_BREAKER_THRESHOLD" envDefault:"0.5"`
	BreakerCooldown  time.Duration `env:"GATEWAY_BREAKER_COOLDOWN" envDefault:"45s"`
	RegisterTimeout  time.Duration `env:"GATEWAY_REGISTER_TIMEOUT" envDefault:"3s"`
	StatusTimeout    time.Duration `env:"GATEWAY_STATUS_TIMEOUT" envDefault:"5s"`

	// Persistence; empty keeps the engine memory-only
	DatabaseURL string `env:"DATABASE_URL"`

	// Background overdue sweep; zero relies on lazy expiry alone
	OverdueSweepInterval time.Duration `env:"OVERDUE_SWEEP_INTERVAL" envDefault:"0"`

	// Server
	Port int `env:"PORT" envDefault:"8080"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
