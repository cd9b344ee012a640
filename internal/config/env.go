package config

import "os"

// parseEnv overlays values from the environment. The hosting process (or a
// .env file loaded by main via godotenv) is where the real secrets live:
// client credentials and the encryption passphrase never go on the command
// line or into JSON.
func parseEnv(config *Config) {
	set := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	set(&config.HTTPAddr, "TRADEAUTH_HTTP_ADDR")
	set(&config.DatabaseDSN, "TRADEAUTH_DSN")
	set(&config.EncryptionPassphrase, "TRADEAUTH_PASSPHRASE")
	set(&config.EncryptionSalt, "TRADEAUTH_SALT")
	set(&config.SessionSecret, "TRADEAUTH_SESSION_SECRET")
	set(&config.UpstoxClientID, "UPSTOX_CLIENT_ID")
	set(&config.UpstoxClientSecret, "UPSTOX_CLIENT_SECRET")
	set(&config.UpstoxRedirectURI, "UPSTOX_REDIRECT_URI")
	set(&config.UpstoxAuthURL, "UPSTOX_AUTH_URL")
	set(&config.UpstoxTokenURL, "UPSTOX_TOKEN_URL")
}
