package config

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the API service.
type Config struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	DatabaseURL    string        `envconfig:"DB_CONNECTION_STRING" required:"true"`
	RedisAddress   string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD"`
	PrivateKeyPath string        `envconfig:"PRIVATE_KEY_PATH" default:"/etc/certs/private.pem"`
	PublicKeyPath  string        `envconfig:"PUBLIC_KEY_PATH" default:"/etc/certs/public.pem"`
	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"8h"`
	RecoveryTTL    time.Duration `envconfig:"RECOVERY_TOKEN_TTL" default:"1h"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS" default:"*"`
	LogFormat      string        `envconfig:"LOG_FORMAT" default:"text"`

	JWTPrivateKey *rsa.PrivateKey `ignored:"true"`
	JWTPublicKey  *rsa.PublicKey  `ignored:"true"`
}

// Load reads configuration from environment variables and loads the
// token signing keypair.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	privateKey, err := loadPrivateKey(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}
	publicKey, err := loadPublicKey(cfg.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load public key: %w", err)
	}

	cfg.JWTPrivateKey = privateKey
	cfg.JWTPublicKey = publicKey
	return &cfg, nil
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	keyData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return jwt.ParseRSAPrivateKeyFromPEM(keyData)
}

func loadPublicKey(path string) (*rsa.PublicKey, error) {
	keyData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return jwt.ParseRSAPublicKeyFromPEM(keyData)
}
