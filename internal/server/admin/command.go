package admin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/bookkeeper/internal/server"
	"github.com/dmitrijs2005/bookkeeper/internal/server/config"
	"github.com/dmitrijs2005/bookkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/bookkeeper/internal/server/passwords"
)

const usage = `usage: accountctl [-d dsn] [-k cost] <command> -email <address>

commands:
  set-password     prompt for a new password and revoke all sessions
  revoke-sessions  revoke all sessions
`

var errUsage = errors.New("invalid usage")

// openStorage is a test seam for server.OpenStorage.
var openStorage = server.OpenStorage

// Run parses args and executes one accountctl command.
func Run(ctx context.Context, args []string, out io.Writer) error {
	var defaults config.Config
	defaults.LoadDefaults()
	if v, ok := os.LookupEnv("DATABASE_DSN"); ok {
		defaults.DatabaseDSN = v
	}

	fs := flag.NewFlagSet("accountctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	dsn := fs.String("d", defaults.DatabaseDSN, "database DSN")
	cost := fs.Int("k", defaults.BcryptCost, "bcrypt cost")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(out, usage)
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprint(out, usage)
		return errUsage
	}
	name := rest[0]
	if name != "set-password" && name != "revoke-sessions" {
		fmt.Fprint(out, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}

	sub := flag.NewFlagSet(name, flag.ContinueOnError)
	sub.SetOutput(io.Discard)
	email := sub.String("email", "", "account email")
	if err := sub.Parse(rest[1:]); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *email == "" {
		fmt.Fprint(out, usage)
		return fmt.Errorf("%w: -email is required", errUsage)
	}

	st, err := openStorage(ctx, *dsn)
	if err != nil {
		return err
	}
	if st.DB != nil {
		defer st.DB.Close()
	}

	a := New(credentials.NewStore(st.Repos, st.Tx, passwords.NewHasher(*cost)), out)

	switch name {
	case "set-password":
		pw, err := PromptNewPassword(out)
		if err != nil {
			return err
		}
		return a.SetPassword(ctx, *email, pw)
	default:
		_, err := a.RevokeSessions(ctx, *email)
		return err
	}
}
