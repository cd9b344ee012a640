package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/saurabhpnd/tradeauth/internal/config"
	"github.com/saurabhpnd/tradeauth/internal/server"
)

func main() {
	// Local development keeps secrets in a .env file; absence is fine.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
