package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log      LoggingConfig  `yaml:"log"`
	REST     RESTConfig     `yaml:"rest"`
	WS       WSConfig       `yaml:"ws"`
	State    StateConfig    `yaml:"state"`
	Strategy StrategyConfig `yaml:"strategy"`
	Risk     RiskConfig     `yaml:"risk"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Telegram TelegramConfig `yaml:"telegram"`
	Journal  JournalConfig  `yaml:"journal"`

	Credentials Credentials `yaml:"-"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type RESTConfig struct {
	BaseURL string        `yaml:"base_url"`
	Prefix  string        `yaml:"prefix"`
	Timeout time.Duration `yaml:"timeout"`
}

type WSConfig struct {
	URL            string        `yaml:"url"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	PingInterval   time.Duration `yaml:"ping_interval"`
}

type StateConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type StrategyConfig struct {
	FundingAsset    string        `yaml:"funding_asset"`
	HedgeAsset      string        `yaml:"hedge_asset"`
	Settle          string        `yaml:"settle"`
	Contract        string        `yaml:"contract"`
	HedgeMultiplier float64       `yaml:"hedge_multiplier"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	PollBackoffMax  time.Duration `yaml:"poll_backoff_max"`
	SettleTimeout   time.Duration `yaml:"settle_timeout"`
}

type RiskConfig struct {
	MaxNotionalUSD float64 `yaml:"max_notional_usd"`
	MinAPY         float64 `yaml:"min_apy"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Path    string `yaml:"path"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  string `yaml:"chat_id"`
}

type JournalConfig struct {
	Enabled   bool   `yaml:"enabled"`
	DSN       string `yaml:"dsn"`
	Schema    string `yaml:"schema"`
	QueueSize int    `yaml:"queue_size"`
}

// Credentials are never read from the config file. They come from
// GATE_API_KEY and GATE_API_SECRET so the file can be checked in.
type Credentials struct {
	APIKey    string
	APISecret string
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, validate(&cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.REST.BaseURL == "" {
		cfg.REST.BaseURL = "https://api.gateio.ws"
	}
	if cfg.REST.Prefix == "" {
		cfg.REST.Prefix = "/api/v4"
	}
	if cfg.REST.Timeout == 0 {
		cfg.REST.Timeout = 10 * time.Second
	}
	if cfg.WS.URL == "" {
		cfg.WS.URL = "wss://fx-ws.gateio.ws/v4/ws/" + settleOrDefault(cfg)
	}
	if cfg.WS.ReconnectDelay == 0 {
		cfg.WS.ReconnectDelay = 3 * time.Second
	}
	if cfg.WS.PingInterval == 0 {
		cfg.WS.PingInterval = 15 * time.Second
	}
	if cfg.State.SQLitePath == "" {
		cfg.State.SQLitePath = "data/gate-dual-hedge.db"
	}
	if cfg.Strategy.FundingAsset == "" {
		cfg.Strategy.FundingAsset = "USDT"
	}
	if cfg.Strategy.HedgeAsset == "" {
		cfg.Strategy.HedgeAsset = "ETH"
	}
	if cfg.Strategy.Settle == "" {
		cfg.Strategy.Settle = "usdt"
	}
	if cfg.Strategy.Contract == "" {
		cfg.Strategy.Contract = cfg.Strategy.HedgeAsset + "_" + cfg.Strategy.FundingAsset
	}
	if cfg.Strategy.HedgeMultiplier == 0 {
		cfg.Strategy.HedgeMultiplier = 1.0
	}
	if cfg.Strategy.PollInterval == 0 {
		cfg.Strategy.PollInterval = 60 * time.Second
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = "127.0.0.1:9001"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Journal.Schema == "" {
		cfg.Journal.Schema = "public"
	}
}

func applyEnvOverrides(cfg *Config) {
	if key := strings.TrimSpace(os.Getenv("GATE_API_KEY")); key != "" {
		cfg.Credentials.APIKey = key
	}
	if secret := strings.TrimSpace(os.Getenv("GATE_API_SECRET")); secret != "" {
		cfg.Credentials.APISecret = secret
	}
	if token := strings.TrimSpace(os.Getenv("GATE_TELEGRAM_TOKEN")); token != "" {
		cfg.Telegram.Token = token
	}
	if chatID := strings.TrimSpace(os.Getenv("GATE_TELEGRAM_CHAT_ID")); chatID != "" {
		cfg.Telegram.ChatID = chatID
	}
}

func validate(cfg *Config) error {
	if cfg.Strategy.HedgeMultiplier < 0 {
		return errors.New("strategy.hedge_multiplier must be >= 0")
	}
	if cfg.Strategy.PollInterval < 0 {
		return errors.New("strategy.poll_interval must be >= 0")
	}
	if cfg.Strategy.PollBackoffMax < 0 {
		return errors.New("strategy.poll_backoff_max must be >= 0")
	}
	if cfg.Strategy.SettleTimeout < 0 {
		return errors.New("strategy.settle_timeout must be >= 0")
	}
	if cfg.Risk.MaxNotionalUSD < 0 {
		return errors.New("risk.max_notional_usd must be >= 0")
	}
	if cfg.Risk.MinAPY < 0 {
		return errors.New("risk.min_apy must be >= 0")
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	if cfg.Telegram.Enabled && (cfg.Telegram.Token == "" || cfg.Telegram.ChatID == "") {
		return errors.New("telegram.token and telegram.chat_id are required when telegram is enabled")
	}
	if cfg.Journal.Enabled && strings.TrimSpace(cfg.Journal.DSN) == "" {
		return errors.New("journal.dsn is required when journal is enabled")
	}
	return nil
}

// RequireCredentials is called by flows that place authenticated requests.
// The verify tool reads public endpoints only and skips it.
func (c *Config) RequireCredentials() error {
	if c.Credentials.APIKey == "" {
		return errors.New("GATE_API_KEY is required")
	}
	if c.Credentials.APISecret == "" {
		return errors.New("GATE_API_SECRET is required")
	}
	return nil
}

func settleOrDefault(cfg *Config) string {
	if cfg.Strategy.Settle != "" {
		return cfg.Strategy.Settle
	}
	return "usdt"
}
