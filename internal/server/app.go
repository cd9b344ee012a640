// Package server wires the token store and its HTTP surface into a runnable
// application: storage bootstrap, key derivation, signal handling and
// graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/saurabhpnd/tradeauth/internal/common"
	"github.com/saurabhpnd/tradeauth/internal/config"
	"github.com/saurabhpnd/tradeauth/internal/credentials"
	"github.com/saurabhpnd/tradeauth/internal/cryptox"
	"github.com/saurabhpnd/tradeauth/internal/logging"
	"github.com/saurabhpnd/tradeauth/internal/server/httpapi"
	"github.com/saurabhpnd/tradeauth/internal/tokenstore"
	"github.com/saurabhpnd/tradeauth/internal/upstox"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	store  *tokenstore.Store
	api    *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewDefault()

	if cfg.EncryptionPassphrase == "" {
		return nil, errors.New("encryption passphrase is not configured (TRADEAUTH_PASSPHRASE)")
	}

	db, repo, err := credentials.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	key := cryptox.DeriveKey([]byte(cfg.EncryptionPassphrase), []byte(cfg.EncryptionSalt))
	cipher, err := cryptox.NewAESGCM(key)
	common.WipeByteArray(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init error: %w", err)
	}

	oauth := upstox.NewOAuthClient(
		cfg.UpstoxClientID, cfg.UpstoxClientSecret, cfg.UpstoxRedirectURI,
		upstox.ClientOptions(cfg.UpstreamTimeout, cfg.UpstoxAuthURL, cfg.UpstoxTokenURL)...,
	)

	store := tokenstore.New(repo, cipher, oauth,
		tokenstore.WithLogger(logger),
		tokenstore.WithSafetyMargin(cfg.SafetyMargin),
	)

	api := httpapi.NewServer(cfg.HTTPAddr, logger, store, oauth,
		cfg.SessionSecret, cfg.SessionValidityDuration)

	return &App{config: cfg, logger: logger, db: db, store: store, api: api}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.HTTPAddr)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.api.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing credential store", "error", err.Error())
	}
}
