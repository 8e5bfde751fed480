package passflow

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/passflow/passflow/authapi"
	"github.com/passflow/passflow/internal/platform/otel"
	"github.com/passflow/passflow/session"
	"github.com/passflow/passflow/session/sqlite"
	"github.com/passflow/passflow/signin"
	"github.com/passflow/passflow/user"
)

// Config holds passflow command configuration.
type Config struct {
	SessionDB string
	Email     string
}

// EnvLookup returns the value for a key when present.
type EnvLookup func(string) (string, bool)

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string, lookup EnvLookup) (Config, error) {
	cfg := Config{
		SessionDB: envOrDefault(lookup, []string{"PASSFLOW_SESSION_DB"}, ""),
	}

	fs.StringVar(&cfg.SessionDB, "session-db", cfg.SessionDB, "Path to the session database (empty keeps the session in memory)")
	fs.StringVar(&cfg.Email, "email", cfg.Email, "Email to sign in with (prompts when empty)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run drives one interactive sign-in from stdin. Terminals have no WebAuthn
// surface, so passkeys are forced off and the flow uses email codes.
func Run(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	shutdown, err := otel.Setup(ctx, "passflow")
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	signinCfg, err := signin.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	signinCfg.PasskeysEnabled = false
	signinCfg.CodeAuthEnabled = true

	client, err := authapi.NewHTTPClient(authapi.LoadHTTPConfigFromEnv())
	if err != nil {
		return fmt.Errorf("auth client: %w", err)
	}

	var sessions session.Store = session.NewMemoryStore()
	if cfg.SessionDB != "" {
		db, err := sqlite.Open(cfg.SessionDB)
		if err != nil {
			return fmt.Errorf("open session db: %w", err)
		}
		defer db.Close()
		sessions = db
	}

	store, err := signin.New(signin.Options{
		Config:   signinCfg,
		Client:   client,
		Sessions: sessions,
	})
	if err != nil {
		return fmt.Errorf("sign-in store: %w", err)
	}

	if ok, err := store.Restore(ctx); err != nil {
		fmt.Fprintf(out, "Stored session unusable: %v\n", err)
	} else if ok {
		snap := store.Snapshot()
		fmt.Fprintf(out, "Signed in as %s from a stored session.\n", snap.Context.User.Email)
		return nil
	}

	return signInWithCode(ctx, cfg, store, bufio.NewScanner(in), out)
}

func signInWithCode(ctx context.Context, cfg Config, store *signin.Store, scanner *bufio.Scanner, out io.Writer) error {
	email := cfg.Email
	for {
		if email == "" {
			fmt.Fprint(out, "Email: ")
			var ok bool
			if email, ok = readLine(scanner); !ok {
				return fmt.Errorf("input closed before an email was entered")
			}
		}
		store.SetEmail(email)
		if user.ValidEmail(email) {
			break
		}
		fmt.Fprintln(out, "That doesn't look like an email address.")
		email = ""
	}

	res, err := store.CheckUser(ctx, email)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !res.Exists {
		return fmt.Errorf("no account for %s", email)
	}

	if err := store.SendEmailCode(ctx, email); err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	fmt.Fprintf(out, "We emailed a code to %s.\n", email)

	for store.State() == signin.StatePinEntry {
		fmt.Fprint(out, "Code: ")
		code, ok := readLine(scanner)
		if !ok {
			return fmt.Errorf("input closed before a code was entered")
		}
		if err := store.VerifyEmailCode(ctx, code); err != nil {
			fmt.Fprintf(out, "Code rejected: %v\n", err)
		}
	}

	snap := store.Snapshot()
	if snap.State != signin.StateSignedIn {
		return fmt.Errorf("sign-in did not complete (state %s)", snap.State)
	}
	fmt.Fprintf(out, "Signed in as %s.\n", snap.Context.User.Email)
	return nil
}

func readLine(scanner *bufio.Scanner) (string, bool) {
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}

func envOrDefault(lookup EnvLookup, keys []string, fallback string) string {
	for _, key := range keys {
		if lookup == nil {
			break
		}
		value, ok := lookup(key)
		if ok {
			trimmed := strings.TrimSpace(value)
			if trimmed != "" {
				return trimmed
			}
		}
	}
	return fallback
}
