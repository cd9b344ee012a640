package config

import (
	"encoding/json"
	"os"

	"github.com/saurabhpnd/tradeauth/internal/flagx"
	"github.com/saurabhpnd/tradeauth/internal/timex"
)

// jsonConfig is the DTO for the optional JSON config file. Durations accept
// both "90s"-style strings and integer nanoseconds (timex.Duration). Only
// fields present in the file override the running config.
type jsonConfig struct {
	HTTPAddr                *string         `json:"http_addr"`
	DatabaseDSN             *string         `json:"database_dsn"`
	UpstoxClientID          *string         `json:"upstox_client_id"`
	UpstoxClientSecret      *string         `json:"upstox_client_secret"`
	UpstoxRedirectURI       *string         `json:"upstox_redirect_uri"`
	UpstoxAuthURL           *string         `json:"upstox_auth_url"`
	UpstoxTokenURL          *string         `json:"upstox_token_url"`
	EncryptionSalt          *string         `json:"encryption_salt"`
	SessionSecret           *string         `json:"session_secret"`
	SessionValidityDuration *timex.Duration `json:"session_validity_duration"`
	SafetyMargin            *timex.Duration `json:"safety_margin"`
	UpstreamTimeout         *timex.Duration `json:"upstream_timeout"`
}

// parseJSON loads values from the file named by -c/-config, if any.
// A missing flag means no file is loaded; an unreadable or invalid file is a
// startup failure and panics, matching the flag-parsing behavior.
//
// Note the passphrase is deliberately not a JSON field: it may only arrive
// via the environment or an interactive prompt.
func parseJSON(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &jsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.UpstoxClientID, c.UpstoxClientID)
	setString(&config.UpstoxClientSecret, c.UpstoxClientSecret)
	setString(&config.UpstoxRedirectURI, c.UpstoxRedirectURI)
	setString(&config.UpstoxAuthURL, c.UpstoxAuthURL)
	setString(&config.UpstoxTokenURL, c.UpstoxTokenURL)
	setString(&config.EncryptionSalt, c.EncryptionSalt)
	setString(&config.SessionSecret, c.SessionSecret)
	if c.SessionValidityDuration != nil {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	if c.SafetyMargin != nil {
		config.SafetyMargin = c.SafetyMargin.Duration
	}
	if c.UpstreamTimeout != nil {
		config.UpstreamTimeout = c.UpstreamTimeout.Duration
	}
}
