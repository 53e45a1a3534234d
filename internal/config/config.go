package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"twstock-advisor/internal/analysis"
)

type Config struct {
	TelegramBotToken string
	DatabaseURL      string
	RedisURL         string
	HTTPPort         int

	MCPTransport          string
	MCPHTTPEnabled        bool
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int
	MCPMaxBodyBytes       int64

	Providers           []string
	TWSEBaseURL         string
	YahooBaseURL        string
	ProviderTimeoutSecs int
	ProviderRetryCount  int
	TWSERequestsPerMin  int
	YahooRequestsPerMin int
	PriceLoadTimeoutSec int
	CacheTTLSecs        int
	CatalogPath         string
	Timezone            string

	Watchlist     []string
	WatchlistCron string

	DefaultMonths    int
	MaxMonths        int
	MaxBatch         int
	BatchConcurrency int

	RSIOverbought       float64
	RSIOversold         float64
	VolumeSurgeFactor   float64
	VolatilityThreshold float64
	SignalBonus         int
	ConflictPenalty     int

	SSHHost        string
	SSHPort        int
	SSHHostKeyPath string
	SSHOpenAccess  bool
}

var supportedProviders = map[string]struct{}{"twse": {}, "yahoo": {}}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		MCPAuthToken:     os.Getenv("MCP_AUTH_TOKEN"),
		CatalogPath:      strings.TrimSpace(os.Getenv("CATALOG_PATH")),
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, bot will be disabled")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, price archive will be disabled")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, using in-process series cache")
	}

	cfg.HTTPPort = positiveInt("PORT", 8080)

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPEnabled = boolean("MCP_HTTP_ENABLED", false)

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}

	cfg.MCPHTTPPort = positiveInt("MCP_HTTP_PORT", 8090)
	cfg.MCPRequestTimeoutSecs = positiveInt("MCP_REQUEST_TIMEOUT_SECS", 30)
	cfg.MCPRateLimitPerMin = positiveInt("MCP_RATE_LIMIT_PER_MIN", 60)
	cfg.MCPMaxBodyBytes = int64(positiveInt("MCP_MAX_BODY_BYTES", 1<<20))

	cfg.Providers = parseProviders(os.Getenv("PRICE_PROVIDERS"))
	cfg.TWSEBaseURL = strings.TrimSpace(os.Getenv("TWSE_BASE_URL"))
	cfg.YahooBaseURL = strings.TrimSpace(os.Getenv("YAHOO_BASE_URL"))
	cfg.ProviderTimeoutSecs = positiveInt("PROVIDER_TIMEOUT_SECS", 10)
	cfg.ProviderRetryCount = nonNegativeInt("PROVIDER_RETRY_COUNT", 2)
	cfg.TWSERequestsPerMin = positiveInt("TWSE_REQUESTS_PER_MIN", 20)
	cfg.YahooRequestsPerMin = positiveInt("YAHOO_REQUESTS_PER_MIN", 60)
	cfg.PriceLoadTimeoutSec = positiveInt("PRICE_LOAD_TIMEOUT_SECS", 120)
	cfg.CacheTTLSecs = positiveInt("CACHE_TTL_SECS", 900)

	cfg.Timezone = strings.TrimSpace(os.Getenv("TIMEZONE"))
	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Taipei"
	}

	cfg.Watchlist = parseCodes(os.Getenv("WATCHLIST"))
	cfg.WatchlistCron = strings.TrimSpace(os.Getenv("WATCHLIST_CRON"))
	if cfg.WatchlistCron == "" {
		// 13:45 on weekdays, after the Taiwan close.
		cfg.WatchlistCron = "0 45 13 * * 1-5"
	}

	cfg.DefaultMonths = positiveInt("DEFAULT_MONTHS", 3)
	cfg.MaxMonths = positiveInt("MAX_MONTHS", 24)
	if cfg.DefaultMonths > cfg.MaxMonths {
		log.Printf("Warning: DEFAULT_MONTHS=%d exceeds MAX_MONTHS=%d, clamping", cfg.DefaultMonths, cfg.MaxMonths)
		cfg.DefaultMonths = cfg.MaxMonths
	}
	cfg.MaxBatch = positiveInt("MAX_BATCH", 50)
	cfg.BatchConcurrency = positiveInt("BATCH_CONCURRENCY", 5)

	defaults := analysis.DefaultConfig()
	cfg.RSIOverbought = boundedFloat("RSI_OVERBOUGHT", defaults.Thresholds.Overbought, 0, 100)
	cfg.RSIOversold = boundedFloat("RSI_OVERSOLD", defaults.Thresholds.Oversold, 0, 100)
	if cfg.RSIOversold >= cfg.RSIOverbought {
		log.Printf("Warning: RSI_OVERSOLD=%.1f must be below RSI_OVERBOUGHT=%.1f, using defaults", cfg.RSIOversold, cfg.RSIOverbought)
		cfg.RSIOverbought = defaults.Thresholds.Overbought
		cfg.RSIOversold = defaults.Thresholds.Oversold
	}
	cfg.VolumeSurgeFactor = boundedFloat("VOLUME_SURGE_FACTOR", defaults.Thresholds.VolumeSurgeFactor, 1, 100)
	cfg.VolatilityThreshold = boundedFloat("VOLATILITY_THRESHOLD", defaults.Weights.VolatilityThreshold, 0.01, 100)
	cfg.SignalBonus = nonNegativeInt("SIGNAL_BONUS", defaults.Weights.SignalBonus)
	cfg.ConflictPenalty = nonNegativeInt("CONFLICT_PENALTY", defaults.Weights.ConflictPenalty)

	cfg.SSHHost = strings.TrimSpace(os.Getenv("SSH_HOST"))
	if cfg.SSHHost == "" {
		cfg.SSHHost = "0.0.0.0"
	}
	cfg.SSHPort = positiveInt("SSH_PORT", 2222)
	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/twstock_ed25519"
	}
	cfg.SSHOpenAccess = boolean("SSH_OPEN_ACCESS", false)

	return cfg
}

// AnalysisConfig overlays the configured thresholds and weights on the engine defaults.
func (c *Config) AnalysisConfig() analysis.Config {
	out := analysis.DefaultConfig()
	if c.RSIOverbought > 0 {
		out.Thresholds.Overbought = c.RSIOverbought
	}
	if c.RSIOversold > 0 {
		out.Thresholds.Oversold = c.RSIOversold
	}
	if c.VolumeSurgeFactor > 0 {
		out.Thresholds.VolumeSurgeFactor = c.VolumeSurgeFactor
	}
	if c.VolatilityThreshold > 0 {
		out.Weights.VolatilityThreshold = c.VolatilityThreshold
	}
	if c.SignalBonus > 0 {
		out.Weights.SignalBonus = c.SignalBonus
	}
	if c.ConflictPenalty > 0 {
		out.Weights.ConflictPenalty = c.ConflictPenalty
	}
	return out
}

func positiveInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, defaulting to %d", key, v, fallback)
		return fallback
	}
	return n
}

func nonNegativeInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Printf("Warning: invalid %s=%q, defaulting to %d", key, v, fallback)
		return fallback
	}
	return n
}

func boundedFloat(key string, fallback, lo, hi float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || n < lo || n > hi {
		log.Printf("Warning: invalid %s=%q, defaulting to %g", key, v, fallback)
		return fallback
	}
	return n
}

func boolean(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	switch {
	case strings.EqualFold(v, "true"):
		return true
	case strings.EqualFold(v, "false"):
		return false
	default:
		return fallback
	}
}

func parseProviders(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{"twse", "yahoo"}
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if _, ok := supportedProviders[name]; !ok {
			log.Printf("Warning: ignoring unknown price provider %q", name)
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(out) == 0 {
		return []string{"twse", "yahoo"}
	}
	return out
}

func parseCodes(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if code := strings.TrimSpace(part); code != "" {
			out = append(out, code)
		}
	}
	return out
}
