package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/saurabhpnd/tradeauth/internal/cli"
	"github.com/saurabhpnd/tradeauth/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadConfig()
	app := cli.NewApp(cfg)

	if err := app.Run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
