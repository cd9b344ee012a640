package config

import (
	"flag"
	"os"
	"time"

	"github.com/saurabhpnd/tradeauth/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   credential store DSN (SQLite path or postgres:// URL)
//	-i string   Upstox client id
//	-r string   Upstox redirect URI
//	-m int      safety margin, seconds
//
// The function filters os.Args to the flags it recognizes via
// flagx.FilterArgs, so it coexists with the -c/-config flag and with
// subcommand arguments. Secrets have no flags on purpose.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-i", "-r", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "credential store DSN")
	fs.StringVar(&config.UpstoxClientID, "i", config.UpstoxClientID, "Upstox client id")
	fs.StringVar(&config.UpstoxRedirectURI, "r", config.UpstoxRedirectURI, "Upstox redirect URI")

	safetyMargin := fs.Int("m", int(config.SafetyMargin.Seconds()), "token safety margin (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SafetyMargin = time.Duration(*safetyMargin) * time.Second
}
