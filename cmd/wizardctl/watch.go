package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/google/uuid"

	"stockwizard/internal/domain"
)

type watchCmd struct {
	email  string
	add    string
	remove string
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "add or remove watchlist symbols of a user" }
func (*watchCmd) Usage() string {
	return `wizardctl watch -user <email> [-add SYM,SYM] [-remove SYM,SYM]

  Edits the stored watchlist with atomic array updates and prints the result.
  Signed-in sessions pick the change up when they next load.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "user", "", "email of the account")
	f.StringVar(&c.add, "add", "", "comma separated symbols to track")
	f.StringVar(&c.remove, "remove", "", "comma separated symbols to untrack")
}

func (c *watchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	u, err := e.user(ctx, c.email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	symbols, err := editWatchlist(ctx, e.users, u.UID, splitSymbols(c.add), splitSymbols(c.remove))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s watchlist: %s\n", u.Email, strings.Join(symbols, ", "))
	return subcommands.ExitSuccess
}

// editWatchlist applies array-union adds then array-remove removals and
// returns the stored list
func editWatchlist(ctx context.Context, users domain.UserRepository, uid uuid.UUID, add, remove []string) ([]string, error) {
	for _, s := range add {
		if err := users.AddToWatchlist(ctx, uid, s); err != nil {
			return nil, err
		}
	}
	for _, s := range remove {
		if err := users.RemoveFromWatchlist(ctx, uid, s); err != nil {
			return nil, err
		}
	}

	u, err := users.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return domain.NormalizeSymbols(u.Watchlist), nil
}

func splitSymbols(s string) []string {
	return domain.NormalizeSymbols(strings.Split(s, ","))
}
