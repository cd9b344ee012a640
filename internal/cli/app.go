// Package cli implements the operator command line: the same token store the
// server uses, pointed at the same credential database, so scripts can fetch
// valid tokens without going through the dashboard.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/saurabhpnd/tradeauth/internal/common"
	"github.com/saurabhpnd/tradeauth/internal/config"
	"github.com/saurabhpnd/tradeauth/internal/credentials"
	"github.com/saurabhpnd/tradeauth/internal/cryptox"
	"github.com/saurabhpnd/tradeauth/internal/flagx"
	"github.com/saurabhpnd/tradeauth/internal/tokenstore"
	"github.com/saurabhpnd/tradeauth/internal/upstox"
	"golang.org/x/term"
)

const usage = `usage: tradeauth <command> [-user id]

commands:
  login    start an interactive login and exchange the pasted code
  token    print a currently valid access token
  status   show authentication state and remaining token lifetime
  revoke   log the identity out (soft revoke)
`

type App struct {
	cfg *config.Config
	out io.Writer
	in  *bufio.Reader
}

func NewApp(cfg *config.Config) *App {
	return &App{cfg: cfg, out: os.Stdout, in: bufio.NewReader(os.Stdin)}
}

func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return errors.New("missing command")
	}
	command := args[0]

	userID := "default"
	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	fs.StringVar(&userID, "user", userID, "identity to operate on")
	if err := fs.Parse(flagx.FilterArgs(args[1:], []string{"-user"})); err != nil {
		return err
	}

	store, oauth, closeFn, err := a.buildStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	switch command {
	case "login":
		return a.login(ctx, store, oauth, userID)
	case "token":
		return a.token(ctx, store, userID)
	case "status":
		return a.status(ctx, store, userID)
	case "revoke":
		return a.revoke(ctx, store, userID)
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *App) buildStore(ctx context.Context) (*tokenstore.Store, *upstox.OAuthClient, func(), error) {
	passphrase := []byte(a.cfg.EncryptionPassphrase)
	if len(passphrase) == 0 {
		var err error
		if passphrase, err = a.promptPassphrase(); err != nil {
			return nil, nil, nil, err
		}
	}

	key := cryptox.DeriveKey(passphrase, []byte(a.cfg.EncryptionSalt))
	common.WipeByteArray(passphrase)
	cipher, err := cryptox.NewAESGCM(key)
	common.WipeByteArray(key)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("cipher init error: %w", err)
	}

	db, repo, err := credentials.Open(ctx, a.cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("db init error: %w", err)
	}

	oauth := upstox.NewOAuthClient(
		a.cfg.UpstoxClientID, a.cfg.UpstoxClientSecret, a.cfg.UpstoxRedirectURI,
		upstox.ClientOptions(a.cfg.UpstreamTimeout, a.cfg.UpstoxAuthURL, a.cfg.UpstoxTokenURL)...,
	)

	store := tokenstore.New(repo, cipher, oauth,
		tokenstore.WithSafetyMargin(a.cfg.SafetyMargin))

	return store, oauth, func() { _ = db.Close() }, nil
}

func (a *App) promptPassphrase() ([]byte, error) {
	fmt.Fprint(a.out, "Encryption passphrase: ")
	passphrase, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(a.out)
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	return passphrase, nil
}

func (a *App) login(ctx context.Context, store *tokenstore.Store, oauth *upstox.OAuthClient, userID string) error {
	state, err := common.MakeRandHexString(16)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Open this URL in a browser and complete the login:")
	fmt.Fprintln(a.out, oauth.AuthCodeURL(state))
	fmt.Fprint(a.out, "Paste the \"code\" query parameter from the redirect URL: ")

	line, err := a.in.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading code: %w", err)
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return errors.New("empty authorization code")
	}

	rec, err := store.ExchangeCode(ctx, code, userID)
	if err != nil {
		if errors.Is(err, common.ErrAuthExchange) {
			return errors.New("authorization code rejected, start the login again")
		}
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %q, token valid until %s\n", userID, rec.ExpiresAt.Local())
	return nil
}

func (a *App) token(ctx context.Context, store *tokenstore.Store, userID string) error {
	token, err := store.GetValidToken(ctx, userID)
	if errors.Is(err, common.ErrNotAuthenticated) {
		return fmt.Errorf("%q is not authenticated, run login first", userID)
	}
	if err != nil {
		return err
	}

	// Bare token on stdout, for piping into curl and friends.
	fmt.Fprintln(a.out, token)
	return nil
}

func (a *App) status(ctx context.Context, store *tokenstore.Store, userID string) error {
	st, err := store.GetStatus(ctx, userID)
	if err != nil {
		return err
	}

	if !st.Authenticated {
		fmt.Fprintf(a.out, "%q: not authenticated\n", userID)
		return nil
	}
	fmt.Fprintf(a.out, "%q: authenticated, token expires in %s\n", userID, st.ExpiresIn.Round(time.Second))
	return nil
}

func (a *App) revoke(ctx context.Context, store *tokenstore.Store, userID string) error {
	revoked, err := store.Revoke(ctx, userID)
	if err != nil {
		return err
	}

	if revoked {
		fmt.Fprintf(a.out, "%q: credentials revoked\n", userID)
	} else {
		fmt.Fprintf(a.out, "%q: nothing to revoke\n", userID)
	}
	return nil
}
