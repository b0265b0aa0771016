package ops

import (
	"os"
	"time"

	"github.com/bytedance/sonic"

	"main/internal/feed"
	"main/pkg/backoff"
	"main/pkg/conn"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Listen  string        `json:"listen"`
	Feed    FeedConfig    `json:"feed"`
	Order   OrderConfig   `json:"order"`
	Journal JournalConfig `json:"journal"`
}

// FeedConfig tunes upstream connections and the simulation fallback.
type FeedConfig struct {
	// Disabled skips the real upstream entirely; every market simulates.
	Disabled         bool          `json:"disabled"`
	UpstreamURL      string        `json:"upstreamUrl"`
	KlineInterval    string        `json:"klineInterval"`
	ConnectTimeoutMS int           `json:"connectTimeoutMs"`
	MaxRetries       int           `json:"maxRetries"`
	TickIntervalMS   int           `json:"tickIntervalMs"`
	CandleIntervalMS int           `json:"candleIntervalMs"`
	MaxStepPct       float64       `json:"maxStepPct"`
	Backoff          BackoffConfig `json:"backoff"`
}

// BackoffConfig mirrors backoff.Policy in JSON-friendly units.
type BackoffConfig struct {
	MinMS  int     `json:"minMs"`
	MaxMS  int     `json:"maxMs"`
	Factor float64 `json:"factor"`
	Jitter float64 `json:"jitter"`
}

// OrderConfig holds exchange endpoint overrides; credentials come from env.
type OrderConfig struct {
	BaseURL string `json:"baseUrl"`
}

// JournalConfig holds the trade-journal database target. An empty config
// disables journaling.
type JournalConfig struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	User       string `json:"user"`
	Password   string `json:"password"`
	Database   string `json:"database"`
	SSLMode    string `json:"sslMode"`
	ConnString string `json:"connString"`
}

// Default returns the configuration used when no file is given.
func Default() FileConfig {
	return FileConfig{
		Listen: ":8080",
		Feed: FeedConfig{
			KlineInterval:    "1m",
			ConnectTimeoutMS: 10_000,
			MaxRetries:       2,
			TickIntervalMS:   1_000,
			CandleIntervalMS: 60_000,
			MaxStepPct:       0.2,
		},
	}
}

// Load reads the JSON config at path, applying defaults for absent fields.
func Load(path string) (FileConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, err
	}
	if err := sonic.ConfigFastest.Unmarshal(raw, &cfg); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}

// SupervisorConfig resolves the feed section into the hub's runtime policy.
func (f FeedConfig) SupervisorConfig() feed.SupervisorConfig {
	cfg := feed.SupervisorConfig{
		MaxRetries: f.MaxRetries,
		Sim: feed.SimulatorConfig{
			TickInterval:   time.Duration(f.TickIntervalMS) * time.Millisecond,
			CandleInterval: time.Duration(f.CandleIntervalMS) * time.Millisecond,
			MaxStepPct:     f.MaxStepPct,
		},
		Backoff: backoff.Policy{
			Min:    time.Duration(f.Backoff.MinMS) * time.Millisecond,
			Max:    time.Duration(f.Backoff.MaxMS) * time.Millisecond,
			Factor: f.Backoff.Factor,
			Jitter: f.Backoff.Jitter,
		},
	}
	if !f.Disabled {
		cfg.Adapter = feed.NewBinance(feed.BinanceConfig{
			URL:            f.UpstreamURL,
			Interval:       f.KlineInterval,
			ConnectTimeout: time.Duration(f.ConnectTimeoutMS) * time.Millisecond,
		})
	}
	return cfg
}

// ConnOption resolves the journal section into connection options.
func (j JournalConfig) ConnOption() conn.Option {
	return conn.Option{
		Host:       j.Host,
		Port:       j.Port,
		User:       j.User,
		Password:   j.Password,
		Database:   j.Database,
		SSLMode:    j.SSLMode,
		ConnString: j.ConnString,
	}
}

// Enabled reports whether a journal target is configured at all.
func (j JournalConfig) Enabled() bool {
	return j.ConnString != "" || j.Database != ""
}

// Credentials toggle the real exchange adapter; their absence is the
// documented trigger for simulation mode, not an error.
type Credentials struct {
	Key    string
	Secret string
}

func LoadCredentials() Credentials {
	return Credentials{
		Key:    os.Getenv("BINANCE_API_KEY"),
		Secret: os.Getenv("BINANCE_API_SECRET"),
	}
}

func (c Credentials) Configured() bool {
	return c.Key != "" && c.Secret != ""
}
