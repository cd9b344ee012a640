// Package config handles configuration for the tradeauth processes,
// including defaults, JSON overlay, environment variables and command-line
// flags (applied in that order, later sources winning).
package config

import "time"

// Config holds runtime settings shared by the server and the CLI.
//
// Fields:
//   - HTTPAddr: bind address for the dashboard HTTP API.
//   - DatabaseDSN: SQLite path or postgres:// DSN of the credential store.
//   - UpstoxClientID / UpstoxClientSecret / UpstoxRedirectURI: OAuth app
//     registration with the brokerage.
//   - UpstoxAuthURL / UpstoxTokenURL: authorization server endpoints,
//     overridable for staging/tests.
//   - EncryptionPassphrase / EncryptionSalt: external secret the AES key is
//     derived from. The passphrase must come from the environment in prod.
//   - SessionSecret / SessionValidityDuration: HMAC secret and lifetime for
//     dashboard session JWTs.
//   - SafetyMargin: how long before real expiry a token is already treated
//     as expired.
//   - UpstreamTimeout: outbound timeout for authorization-server calls.
type Config struct {
	HTTPAddr                string
	DatabaseDSN             string
	UpstoxClientID          string
	UpstoxClientSecret      string
	UpstoxRedirectURI       string
	UpstoxAuthURL           string
	UpstoxTokenURL          string
	EncryptionPassphrase    string
	EncryptionSalt          string
	SessionSecret           string
	SessionValidityDuration time.Duration
	SafetyMargin            time.Duration
	UpstreamTimeout         time.Duration
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secrets here are placeholders and must be overridden.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.DatabaseDSN = "tradeauth.db"
	c.UpstoxRedirectURI = "http://localhost:8080/auth/callback"
	c.EncryptionSalt = "tradeauth-v1"
	c.SessionSecret = "secretKey"
	c.SessionValidityDuration = 12 * time.Hour
	c.SafetyMargin = 60 * time.Second
	c.UpstreamTimeout = 10 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
