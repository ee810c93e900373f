package model

import "time"

// Config holds every tunable for the CLI and the HTTP server.
// Values are layered: defaults, then ~/.selah/config.yaml, then SELAH_*
// environment variables, then command-line flags.
type Config struct {
	Corpus       CorpusConfig       `yaml:"corpus" mapstructure:"corpus"`
	Lyrics       LyricsConfig       `yaml:"lyrics" mapstructure:"lyrics"`
	Matcher      MatcherConfig      `yaml:"matcher" mapstructure:"matcher"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// CorpusConfig locates the verse corpus and describes its layout.
type CorpusConfig struct {
	Path        string `yaml:"path" mapstructure:"path"` // local file, used when URL is empty
	URL         string `yaml:"url" mapstructure:"url"`
	HeaderLines int    `yaml:"header_lines" mapstructure:"header_lines"`
	Separator   string `yaml:"separator" mapstructure:"separator"`
	StripMarkup bool   `yaml:"strip_markup" mapstructure:"strip_markup"`
	Watch       bool   `yaml:"watch" mapstructure:"watch"` // reload on file change (serve only)

	WatchDebounce time.Duration `yaml:"watch_debounce" mapstructure:"watch_debounce"`
}

// LyricsConfig locates the song library.
type LyricsConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// MatcherConfig selects and configures the song matcher.
type MatcherConfig struct {
	Provider  string        `yaml:"provider" mapstructure:"provider"` // lexical, openai, anthropic, ollama, space
	Model     string        `yaml:"model" mapstructure:"model"`
	APIKey    string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Strict    bool          `yaml:"strict" mapstructure:"strict"` // reject matches naming unknown songs
	Limit     int           `yaml:"limit" mapstructure:"limit"`   // 0 returns every song
}

// HTTPConfig holds outbound HTTP client configuration
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig holds caching configuration
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir" mapstructure:"dir"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ConcurrencyConfig holds concurrency settings
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig holds rate limiting settings
type RateLimitingConfig struct {
	Enabled bool    `yaml:"enabled" mapstructure:"enabled"`
	Rate    float64 `yaml:"rate" mapstructure:"rate"` // requests per second per key
	Burst   int     `yaml:"burst" mapstructure:"burst"`
}

// ServerConfig configures `selah serve`.
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	CORSOrigin      string        `yaml:"cors_origin" mapstructure:"cors_origin"`
	RateLimit       float64       `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second per client, 0 disables
	RateBurst       int           `yaml:"rate_burst" mapstructure:"rate_burst"`
	TrustProxy      bool          `yaml:"trust_proxy" mapstructure:"trust_proxy"` // key clients by X-Forwarded-For / X-Real-IP
}

// LogConfig configures diagnostics output.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Path:          "bible.txt",
			HeaderLines:   3,
			Separator:     "\t",
			WatchDebounce: 500 * time.Millisecond,
		},
		Lyrics: LyricsConfig{
			Dir: "lyrics",
		},
		Matcher: MatcherConfig{
			Provider:  "lexical",
			Timeout:   60 * time.Second,
			MaxTokens: 1000,
			Strict:    true,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Selah/0.1 (+https://github.com/ppiankov/selah)",
			MaxBodyBytes:  16 << 20,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "~/.selah/cache",
			TTL:     24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			Enabled: true,
			Rate:    2.0,
			Burst:   5,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigin:      "*",
			RateLimit:       10,
			RateBurst:       20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
