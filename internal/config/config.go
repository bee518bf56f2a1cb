package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreFile     = "file"
	StoreBadger   = "badger"
	StorePostgres = "postgres"

	defaultReputationTimeout = 15 * time.Second
)

type Config struct {
	Env        string
	ListenAddr string
	LogLevel   string
	LogFormat  string

	StoreBackend    string
	AnalysisLogPath string
	BadgerPath      string
	DatabaseURL     string
	RecorderWorkers int
	RecorderQueue   int

	RateLimit  int
	RateWindow time.Duration
	TrustProxy bool

	ContentTimeout     time.Duration
	ReputationTimeout  time.Duration
	ResolverTimeout    time.Duration
	ThreatIntelTimeout time.Duration

	APIVoidKey     string
	TIPKey         string
	BuiltWithKey   string
	WhoisEnabled   bool
	WhoisServer    string
	TrustedDomains string // path to a YAML trusted-domain list

	VirusTotal VirusTotal
}

type VirusTotal struct {
	APIKey               string
	Enabled              bool
	MaxRequestsPerMinute int
	Timeout              time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load reads the environment. A non-nil error is a warning the caller may
// choose to treat as fatal; the returned Config is always usable.
func Load() (Config, error) {
	cfg := Config{
		Env:        getenv("APP_ENV", "development"),
		ListenAddr: getenv("LISTEN_ADDR", ":8080"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogFormat:  getenv("LOG_FORMAT", "json"),

		StoreBackend:    strings.ToLower(getenv("STORE_BACKEND", StoreFile)),
		AnalysisLogPath: getenv("ANALYSIS_LOG_PATH", "data/analyses.jsonl"),
		BadgerPath:      getenv("BADGER_PATH", "data/badger"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RecorderWorkers: getenvInt("RECORDER_WORKERS", 2),
		RecorderQueue:   getenvInt("RECORDER_QUEUE_SIZE", 256),

		RateLimit:  getenvInt("RATE_LIMIT_REQUESTS", 50),
		RateWindow: getenvDuration("RATE_LIMIT_WINDOW", 60*time.Second),
		TrustProxy: getenvBool("TRUST_PROXY", false),

		ContentTimeout:     getenvDuration("CONTENT_TIMEOUT", 10*time.Second),
		ReputationTimeout:  getenvDuration("REPUTATION_TIMEOUT", defaultReputationTimeout),
		ResolverTimeout:    getenvDuration("RESOLVER_TIMEOUT", 12*time.Second),
		ThreatIntelTimeout: getenvDuration("THREAT_INTEL_TIMEOUT", 15*time.Second),

		APIVoidKey:     os.Getenv("APIVOID_API_KEY"),
		TIPKey:         os.Getenv("THREAT_INTELLIGENCE_API_KEY"),
		BuiltWithKey:   os.Getenv("BUILTWITH_API_KEY"),
		WhoisEnabled:   getenvBool("WHOIS_ENABLED", true),
		WhoisServer:    os.Getenv("WHOIS_SERVER"),
		TrustedDomains: os.Getenv("TRUSTED_DOMAINS_FILE"),

		VirusTotal: VirusTotal{
			APIKey:               os.Getenv("VIRUSTOTAL_API_KEY"),
			Enabled:              getenvBool("VIRUSTOTAL_ENABLED", true),
			MaxRequestsPerMinute: getenvInt("VIRUSTOTAL_MAX_REQUESTS_PER_MINUTE", 4),
			Timeout:              getenvDuration("VIRUSTOTAL_TIMEOUT", 15*time.Second),
		},
	}

	var warnings []error
	switch cfg.StoreBackend {
	case StoreFile, StoreBadger:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			warnings = append(warnings, errors.New("DATABASE_URL not set"))
		}
	default:
		warnings = append(warnings, fmt.Errorf("unknown STORE_BACKEND %q, using %s", cfg.StoreBackend, StoreFile))
		cfg.StoreBackend = StoreFile
	}
	if d := cfg.ResolverDeadline(); d != cfg.ResolverTimeout {
		warnings = append(warnings, fmt.Errorf("RESOLVER_TIMEOUT %s is not below REPUTATION_TIMEOUT %s, using %s",
			cfg.ResolverTimeout, cfg.ReputationTimeout, d))
	}
	if cfg.VirusTotal.Enabled && cfg.VirusTotal.APIKey == "" {
		warnings = append(warnings, errors.New("VIRUSTOTAL_API_KEY not set, threat intelligence disabled"))
	}
	return cfg, errors.Join(warnings...)
}

// ResolverDeadline is ResolverTimeout kept strictly below the domain
// reputation budget, so slow providers end in the trusted-list fallback.
func (c Config) ResolverDeadline() time.Duration {
	budget := c.ReputationTimeout
	if budget <= 0 {
		budget = defaultReputationTimeout
	}
	if c.ResolverTimeout > 0 && c.ResolverTimeout < budget {
		return c.ResolverTimeout
	}
	return budget * 4 / 5
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var out int
		_, err := fmt.Sscanf(v, "%d", &out)
		if err == nil {
			return out
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

type trustedFile struct {
	TrustedDomains []string `yaml:"trusted_domains"`
}

// LoadTrustedDomains reads a YAML document of the form
//
//	trusted_domains:
//	  - example.com
func LoadTrustedDomains(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trusted domains: %w", err)
	}
	var f trustedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse trusted domains: %w", err)
	}
	if len(f.TrustedDomains) == 0 {
		return nil, fmt.Errorf("%s: no trusted_domains entries", path)
	}
	return f.TrustedDomains, nil
}
