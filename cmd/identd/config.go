package main

import (
	"flag"
	"os"
	"strconv"
	"strings"
)

// Config holds runtime settings for the identd server.
//
// Fields:
//   - ListenAddr: bind address for the HTTP endpoint.
//   - DatabaseDSN: sqlite DSN (sqliteshim driver).
//   - SigningKey: HMAC secret for signing JWTs (HS256). Do not use test
//     defaults in prod.
//   - TokenExpirationHours: bearer token validity window.
//   - Issuer / Audience: iss and aud claims stamped on every token.
type Config struct {
	ListenAddr           string
	DatabaseDSN          string
	SigningKey           string
	TokenExpirationHours int
	Issuer               string
	Audience             []string
	Debug                bool
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":8080"
	c.DatabaseDSN = "file:identd.db?cache=shared&_pragma=foreign_keys(1)"
	c.SigningKey = "dev-signing-key"
	c.TokenExpirationHours = 24
	c.Issuer = "identd"
	c.Audience = []string{"identd-clients"}
	c.Debug = false
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from the environment and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

func parseEnv(cfg *Config) {
	stringFromEnv("IDENTD_LISTEN_ADDR", &cfg.ListenAddr)
	stringFromEnv("IDENTD_DATABASE_DSN", &cfg.DatabaseDSN)
	stringFromEnv("IDENTD_SIGNING_KEY", &cfg.SigningKey)
	intFromEnv("IDENTD_TOKEN_EXPIRATION_HOURS", &cfg.TokenExpirationHours)
	stringFromEnv("IDENTD_ISSUER", &cfg.Issuer)
	listFromEnv("IDENTD_AUDIENCE", &cfg.Audience)
	boolFromEnv("IDENTD_DEBUG", &cfg.Debug)
}

func parseFlags(cfg *Config) {
	audience := strings.Join(cfg.Audience, ",")

	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "HTTP listen address")
	flag.StringVar(&cfg.DatabaseDSN, "dsn", cfg.DatabaseDSN, "database DSN")
	flag.StringVar(&cfg.SigningKey, "signing-key", cfg.SigningKey, "JWT signing secret")
	flag.IntVar(&cfg.TokenExpirationHours, "token-expiration", cfg.TokenExpirationHours, "token validity in hours")
	flag.StringVar(&cfg.Issuer, "issuer", cfg.Issuer, "token issuer claim")
	flag.StringVar(&audience, "audience", audience, "comma separated token audience claims")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable request payload debugging")
	flag.Parse()

	cfg.Audience = splitList(audience)
}

func (c *Config) GetSigningKey() string {
	return c.SigningKey
}

func (c *Config) GetTokenExpiration() int {
	return c.TokenExpirationHours
}

func (c *Config) GetIssuer() string {
	return c.Issuer
}

func (c *Config) GetAudience() []string {
	return c.Audience
}

func stringFromEnv(key string, target *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*target = v
	}
}

func intFromEnv(key string, target *int) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

func boolFromEnv(key string, target *bool) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}

func listFromEnv(key string, target *[]string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*target = splitList(v)
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
