package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del tracker.
type Config struct {
	Tracker TrackerConfig `yaml:"tracker"`
	API     APIConfig     `yaml:"api"`
	Kalshi  KalshiConfig  `yaml:"kalshi"`
	Matcher MatcherConfig `yaml:"matcher"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// TrackerConfig controla el ciclo de simulación y la política de staking.
type TrackerConfig struct {
	IntervalSeconds  int     `yaml:"interval_seconds" validate:"gte=0"`
	StartingBankroll float64 `yaml:"starting_bankroll" validate:"gte=0"`
	BetSize          float64 `yaml:"bet_size" validate:"gte=0"`
	MinReserve       float64 `yaml:"min_reserve" validate:"gte=0"`
	MaxPrice         float64 `yaml:"max_price" validate:"gte=0,lte=1"`
	LiveTrading      bool    `yaml:"live_trading"`
	RecencyMinutes   int     `yaml:"recency_minutes" validate:"gte=0"` // ventana para órdenes reales
}

// APIConfig contiene los base URLs de las APIs externas.
type APIConfig struct {
	KalshiBase string `yaml:"kalshi_base"`
	GammaBase  string `yaml:"gamma_base"`
	OllamaBase string `yaml:"ollama_base"`
}

// KalshiConfig son las credenciales de firma del venue de ejecución.
type KalshiConfig struct {
	KeyID          string `yaml:"key_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
}

// MatcherConfig controla el matching cross-venue.
type MatcherConfig struct {
	Model          string  `yaml:"model"`
	CatalogTTLMins int     `yaml:"catalog_ttl_minutes" validate:"gte=0"`
	MinConfidence  float64 `yaml:"min_confidence" validate:"gte=0,lte=1"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Las variables de entorno sobreescriben el YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: validate: %w", err)
	}

	return &cfg, nil
}

// Interval devuelve el intervalo entre ciclos como time.Duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Tracker.IntervalSeconds) * time.Second
}

// CatalogTTL devuelve el TTL del catálogo de mercados.
func (c *Config) CatalogTTL() time.Duration {
	return time.Duration(c.Matcher.CatalogTTLMins) * time.Minute
}

// RecencyWindow devuelve la ventana de frescura para ejecución real.
func (c *Config) RecencyWindow() time.Duration {
	return time.Duration(c.Tracker.RecencyMinutes) * time.Minute
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están
// presentes. Mismas keys que usaba el tracker original.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KALSHI_API_KEY_ID"); v != "" {
		cfg.Kalshi.KeyID = v
	}
	if v := os.Getenv("KALSHI_PRIVATE_KEY_PATH"); v != "" {
		cfg.Kalshi.PrivateKeyPath = v
	}
	if v := os.Getenv("KALSHI_API_HOST"); v != "" {
		cfg.API.KalshiBase = v
	}
	if v := os.Getenv("GAMMA_API_BASE"); v != "" {
		cfg.API.GammaBase = v
	}
	if v := os.Getenv("OLLAMA_API_BASE"); v != "" {
		cfg.API.OllamaBase = v
	}
	if v, ok := envFloat("STARTING_BANKROLL"); ok {
		cfg.Tracker.StartingBankroll = v
	}
	if v, ok := envFloat("BET_SIZE"); ok {
		cfg.Tracker.BetSize = v
	}
	if v, ok := envFloat("MIN_RESERVE"); ok {
		cfg.Tracker.MinReserve = v
	}
	if v, ok := envFloat("MAX_PRICE"); ok {
		cfg.Tracker.MaxPrice = v
	}
	if v := os.Getenv("LIVE_TRADING_ENABLED"); v != "" {
		cfg.Tracker.LiveTrading = v == "true" || v == "1"
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Tracker.IntervalSeconds <= 0 {
		cfg.Tracker.IntervalSeconds = 30
	}
	if cfg.Tracker.StartingBankroll <= 0 {
		cfg.Tracker.StartingBankroll = 67.22
	}
	if cfg.Tracker.BetSize <= 0 {
		cfg.Tracker.BetSize = 5.0
	}
	if cfg.Tracker.MinReserve <= 0 {
		cfg.Tracker.MinReserve = 10.0
	}
	if cfg.Tracker.MaxPrice <= 0 {
		cfg.Tracker.MaxPrice = 0.97
	}
	if cfg.Tracker.RecencyMinutes <= 0 {
		cfg.Tracker.RecencyMinutes = 15
	}
	if cfg.API.KalshiBase == "" {
		cfg.API.KalshiBase = "https://api.elections.kalshi.com/trade-api/v2"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.OllamaBase == "" {
		cfg.API.OllamaBase = "http://localhost:11434"
	}
	if cfg.Matcher.Model == "" {
		cfg.Matcher.Model = "llama3"
	}
	if cfg.Matcher.CatalogTTLMins <= 0 {
		cfg.Matcher.CatalogTTLMins = 60
	}
	if cfg.Matcher.MinConfidence <= 0 {
		cfg.Matcher.MinConfidence = 0.8
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "whale_alerts.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
