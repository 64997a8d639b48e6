// Package config loads dashboard settings from a yaml file or CLI flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tradeboard/internal/domain"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Pair            domain.Pair
	APIBase         string
	WSURL           string
	FeeRate         decimal.Decimal
	MinTradeSize    decimal.Decimal
	MaxTradeSize    decimal.Decimal
	Cooldown        time.Duration
	Timeframe       string
	PollInterval    time.Duration
	WebAddr         string
	TLSDomains      []string
	CertCache       string
	BinanceFallback bool
	CopilotMode     string
	CopilotInterval time.Duration
	CopilotAmount   decimal.Decimal
}

type configTmp struct {
	Pair            string        `yaml:"pair"`
	APIBase         string        `yaml:"api_base"`
	WSURL           string        `yaml:"ws_url"`
	FeeRate         string        `yaml:"fee_rate,omitempty"`
	MinTradeSize    string        `yaml:"min_trade_size,omitempty"`
	MaxTradeSize    string        `yaml:"max_trade_size,omitempty"`
	Cooldown        time.Duration `yaml:"cooldown,omitempty"`
	Timeframe       string        `yaml:"timeframe,omitempty"`
	PollInterval    time.Duration `yaml:"poll_interval,omitempty"`
	WebAddr         string        `yaml:"web_addr,omitempty"`
	TLSDomains      []string      `yaml:"tls_domains,omitempty"`
	CertCache       string        `yaml:"cert_cache,omitempty"`
	BinanceFallback bool          `yaml:"binance_fallback,omitempty"`
	CopilotMode     string        `yaml:"copilot_mode,omitempty"`
	CopilotInterval time.Duration `yaml:"copilot_interval,omitempty"`
	CopilotAmount   string        `yaml:"copilot_amount,omitempty"`
}

func defaults() Config {
	return Config{
		Pair:            domain.Pair{From: "BTC", To: "USDT"},
		APIBase:         "http://localhost:8002",
		WSURL:           "ws://localhost:8002/ws",
		FeeRate:         decimal.NewFromFloat(0.001),
		MinTradeSize:    decimal.NewFromFloat(0.001),
		MaxTradeSize:    decimal.NewFromFloat(0.1),
		Cooldown:        5 * time.Second,
		Timeframe:       "1h",
		PollInterval:    5 * time.Second,
		WebAddr:         ":8003",
		CopilotMode:     "opinion",
		CopilotInterval: 30 * time.Minute,
		CopilotAmount:   decimal.NewFromFloat(0.001),
	}
}

// Get parses configuration: the -config flag selects a yaml file, otherwise
// CLI flags with defaults apply.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	pairFlag := flag.String("pair", "BTC_USDT", "trade pair, example: BTC_USDT")
	apiBase := flag.String("apibase", "http://localhost:8002", "bot server REST base URL")
	wsURL := flag.String("wsurl", "ws://localhost:8002/ws", "bot server websocket URL")
	webAddr := flag.String("webaddr", ":8003", "address of the SSE/metrics web server")
	tlsDomains := flag.String("tlsdomains", "", "comma-separated domains for automatic TLS certificates; empty serves plain HTTP")
	certCache := flag.String("certcache", "", "directory for cached TLS certificates")
	timeframe := flag.String("timeframe", "1h", "chart timeframe, example: 1h")
	binanceFallback := flag.Bool("binancefallback", false, "fetch candle history from Binance when the bot server has none")
	copilotMode := flag.String("copilotmode", "opinion", "AI copilot mode: opinion, suggest or copilot")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	cfg := defaults()

	pair, err := pairFromString(*pairFlag)
	if err != nil {
		return Config{}, fmt.Errorf("invalid --pair provided, --pair=%s", *pairFlag)
	}
	cfg.Pair = pair
	cfg.APIBase = *apiBase
	cfg.WSURL = *wsURL
	cfg.WebAddr = *webAddr
	if *tlsDomains != "" {
		cfg.TLSDomains = strings.Split(*tlsDomains, ",")
	}
	cfg.CertCache = *certCache
	cfg.Timeframe = *timeframe
	cfg.BinanceFallback = *binanceFallback
	cfg.CopilotMode = *copilotMode

	return cfg, nil
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	return fromTmp(tmp)
}

func fromTmp(tmp configTmp) (Config, error) {
	cfg := defaults()

	if tmp.Pair != "" {
		pair, err := pairFromString(tmp.Pair)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'pair' param in yaml config: %s, error: %w", tmp.Pair, err)
		}
		cfg.Pair = pair
	}
	if tmp.APIBase != "" {
		cfg.APIBase = tmp.APIBase
	}
	if tmp.WSURL != "" {
		cfg.WSURL = tmp.WSURL
	}
	if tmp.FeeRate != "" {
		feeRate, err := decimal.NewFromString(tmp.FeeRate)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'fee_rate' param in yaml config (must be a decimal), error: %w", err)
		}
		cfg.FeeRate = feeRate
	}
	if tmp.MinTradeSize != "" {
		minSize, err := decimal.NewFromString(tmp.MinTradeSize)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'min_trade_size' param in yaml config (must be a decimal), error: %w", err)
		}
		cfg.MinTradeSize = minSize
	}
	if tmp.MaxTradeSize != "" {
		maxSize, err := decimal.NewFromString(tmp.MaxTradeSize)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'max_trade_size' param in yaml config (must be a decimal), error: %w", err)
		}
		cfg.MaxTradeSize = maxSize
	}
	if tmp.Cooldown > 0 {
		cfg.Cooldown = tmp.Cooldown
	}
	if tmp.Timeframe != "" {
		cfg.Timeframe = tmp.Timeframe
	}
	if tmp.PollInterval > 0 {
		cfg.PollInterval = tmp.PollInterval
	}
	if tmp.WebAddr != "" {
		cfg.WebAddr = tmp.WebAddr
	}
	if len(tmp.TLSDomains) > 0 {
		cfg.TLSDomains = tmp.TLSDomains
	}
	if tmp.CertCache != "" {
		cfg.CertCache = tmp.CertCache
	}
	cfg.BinanceFallback = tmp.BinanceFallback
	if tmp.CopilotMode != "" {
		cfg.CopilotMode = tmp.CopilotMode
	}
	if tmp.CopilotInterval > 0 {
		cfg.CopilotInterval = tmp.CopilotInterval
	}
	if tmp.CopilotAmount != "" {
		amount, err := decimal.NewFromString(tmp.CopilotAmount)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'copilot_amount' param in yaml config (must be a decimal), error: %w", err)
		}
		cfg.CopilotAmount = amount
	}

	if cfg.MinTradeSize.GreaterThan(cfg.MaxTradeSize) {
		return Config{}, fmt.Errorf("min_trade_size %s exceeds max_trade_size %s",
			cfg.MinTradeSize.String(), cfg.MaxTradeSize.String())
	}

	return cfg, nil
}

func pairFromString(pairStr string) (domain.Pair, error) {
	pairElements := strings.Split(pairStr, "_")
	if len(pairElements) != 2 {
		return domain.Pair{}, fmt.Errorf("pair must be in FROM_TO format, got %s", pairStr)
	}
	return domain.Pair{From: pairElements[0], To: pairElements[1]}, nil
}
