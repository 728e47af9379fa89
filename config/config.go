package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Modos de ventana aceptados en window.mode.
const (
	WindowRange   = "range"
	WindowHorizon = "horizon"
	WindowAll     = "all"
)

// Config es la configuración completa del trader.
type Config struct {
	Trader  TraderConfig  `yaml:"trader"`
	Window  WindowConfig  `yaml:"window"`
	Wallet  WalletConfig  `yaml:"wallet"`
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Notify  NotifyConfig  `yaml:"notify"`
	Log     LogConfig     `yaml:"log"`
}

// TraderConfig controla la clasificación y la ejecución.
type TraderConfig struct {
	IntervalSeconds         int     `yaml:"interval_seconds"`
	AutoTrade               bool    `yaml:"auto_trade"`
	TestOnly                bool    `yaml:"test_only"`
	TradeAmount             float64 `yaml:"trade_amount"` // USDC por trade
	MinPrice                float64 `yaml:"min_price"`
	MaxPrice                float64 `yaml:"max_price"`
	MinTimeRemainingMinutes float64 `yaml:"min_time_remaining_minutes"`
	Slippage                float64 `yaml:"slippage"`
	MaxRetries              *int    `yaml:"max_retries"` // nil = default; 0 = un solo intento
	RetryDelaySeconds       float64 `yaml:"retry_delay_seconds"`
	MaxTrades               int     `yaml:"max_trades"`
	MinOrderSize            float64 `yaml:"min_order_size"`
	MaxOrderSize            float64 `yaml:"max_order_size"`
	MaxConcurrentMarkets    int     `yaml:"max_concurrent_markets"` // 0 = NumCPU*2
}

// WindowConfig define qué mercados entran en un ciclo según su tiempo restante.
type WindowConfig struct {
	Mode         string  `yaml:"mode"` // range | horizon | all
	StartMinutes float64 `yaml:"start_minutes"`
	EndMinutes   float64 `yaml:"end_minutes"`
	Hours        float64 `yaml:"hours"` // solo modo horizon
}

// WalletConfig contiene la cuenta que firma las órdenes.
// La clave privada solo se lee del entorno (POLY_PRIVATE_KEY).
type WalletConfig struct {
	PrivateKey    string   `yaml:"-"`
	Funder        string   `yaml:"funder"`
	SignatureType int      `yaml:"signature_type"` // 0 EOA, 1 POLY_PROXY, 2 POLY_GNOSIS_SAFE
	RPCURLs       []string `yaml:"rpc_urls"`
}

// APIConfig contiene los base URLs de las APIs.
type APIConfig struct {
	CLOBBase       string `yaml:"clob_base"`
	GammaBase      string `yaml:"gamma_base"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"; "-" desactiva el journal
}

// NotifyConfig controla el reporte por consola.
type NotifyConfig struct {
	Table   bool `yaml:"table"`
	MaxRows int  `yaml:"max_rows"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben los valores del YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse construye la configuración a partir de YAML ya leído.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Validate comprueba los valores que no tienen un default razonable.
func (c *Config) Validate() error {
	switch c.Window.Mode {
	case WindowRange, WindowHorizon, WindowAll:
	default:
		return fmt.Errorf("window.mode %q: want range, horizon or all", c.Window.Mode)
	}
	if c.Window.StartMinutes < 0 || c.Window.EndMinutes < 0 || c.Window.Hours < 0 {
		return fmt.Errorf("window bounds must not be negative")
	}
	if c.Wallet.SignatureType < 0 || c.Wallet.SignatureType > 2 {
		return fmt.Errorf("wallet.signature_type %d: want 0, 1 or 2", c.Wallet.SignatureType)
	}
	if c.Trader.Slippage < 0 || c.Trader.Slippage >= 1 {
		return fmt.Errorf("trader.slippage %.4f outside [0, 1)", c.Trader.Slippage)
	}
	if c.Trader.MinOrderSize > c.Trader.MaxOrderSize {
		return fmt.Errorf("trader.min_order_size %.2f > max_order_size %.2f",
			c.Trader.MinOrderSize, c.Trader.MaxOrderSize)
	}
	return nil
}

// ScanInterval devuelve el intervalo entre ciclos como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Trader.IntervalSeconds) * time.Second
}

// RetryDelay devuelve la espera entre reintentos de una orden.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Trader.RetryDelaySeconds * float64(time.Second))
}

// HTTPTimeout devuelve el timeout por llamada HTTP.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// Retries devuelve el número de reintentos tras el primer envío.
func (c *Config) Retries() int {
	if c.Trader.MaxRetries == nil {
		return defaultMaxRetries
	}
	return *c.Trader.MaxRetries
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("POLY_PRIVATE_KEY"); v != "" {
		cfg.Wallet.PrivateKey = v
	}
	if v := os.Getenv("FUNDER"); v != "" {
		cfg.Wallet.Funder = v
	}
	if v := os.Getenv("POLYGON_RPC_URL"); v != "" {
		// el endpoint del entorno va primero; los del YAML quedan de fallback
		cfg.Wallet.RPCURLs = append([]string{v}, cfg.Wallet.RPCURLs...)
	}

	var err error
	set := func(key string, fn func(string) error) {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" || err != nil {
			return
		}
		if e := fn(v); e != nil {
			err = fmt.Errorf("env %s=%q: %w", key, v, e)
		}
	}
	setFloat := func(key string, dst *float64) {
		set(key, func(v string) error {
			f, e := strconv.ParseFloat(v, 64)
			if e == nil {
				*dst = f
			}
			return e
		})
	}

	set("AUTO_TRADE_ENABLED", func(v string) error {
		b, e := strconv.ParseBool(v)
		if e == nil {
			cfg.Trader.AutoTrade = b
		}
		return e
	})
	set("SIGNATURE_TYPE", func(v string) error {
		n, e := strconv.Atoi(v)
		if e == nil {
			cfg.Wallet.SignatureType = n
		}
		return e
	})
	setFloat("TRADE_AMOUNT", &cfg.Trader.TradeAmount)
	setFloat("MIN_PRICE_RANGE", &cfg.Trader.MinPrice)
	setFloat("MAX_PRICE_RANGE", &cfg.Trader.MaxPrice)
	setFloat("MIN_TIME_REMAINING_MINUTES", &cfg.Trader.MinTimeRemainingMinutes)
	setFloat("DEFAULT_SLIPPAGE", &cfg.Trader.Slippage)
	setFloat("MIN_ORDER_SIZE", &cfg.Trader.MinOrderSize)
	setFloat("MAX_ORDER_SIZE", &cfg.Trader.MaxOrderSize)
	return err
}

const defaultMaxRetries = 2

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	t := &cfg.Trader
	if t.IntervalSeconds <= 0 {
		t.IntervalSeconds = 300
	}
	if t.TradeAmount <= 0 {
		t.TradeAmount = 1.0
	}
	if t.MinPrice <= 0 && t.MaxPrice <= 0 {
		t.MinPrice, t.MaxPrice = 0.90, 0.98
	}
	if t.MinTimeRemainingMinutes <= 0 {
		t.MinTimeRemainingMinutes = 1
	}
	if t.Slippage == 0 {
		t.Slippage = 0.01
	}
	if t.RetryDelaySeconds <= 0 {
		t.RetryDelaySeconds = 2
	}
	if t.MaxTrades == 0 {
		t.MaxTrades = 1
	}
	if t.MinOrderSize <= 0 {
		t.MinOrderSize = 1.0
	}
	if t.MaxOrderSize <= 0 {
		t.MaxOrderSize = max(1.0, t.TradeAmount)
	}

	if cfg.Window.Mode == "" {
		cfg.Window.Mode = WindowRange
	}
	if cfg.Window.StartMinutes == 0 && cfg.Window.EndMinutes == 0 {
		cfg.Window.StartMinutes, cfg.Window.EndMinutes = 1, 6
	}
	if cfg.Window.Mode == WindowHorizon && cfg.Window.Hours == 0 {
		cfg.Window.Hours = 1
	}

	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = 10
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "polyexpiry.db"
	}
	if cfg.Notify.MaxRows <= 0 {
		cfg.Notify.MaxRows = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
