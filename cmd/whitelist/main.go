// Package main manages the trusted-token whitelist: add, remove, show
// and list entries.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/realgrapedrop/xrp-watchdog/internal/config"
	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage/migrations"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage/postgres"
	"github.com/realgrapedrop/xrp-watchdog/internal/xrpl"
)

const usage = `Usage: whitelist [-config FILE] COMMAND

Commands:
  add    -code CODE -issuer ADDR -category CAT [-name NAME] [-reason TEXT] [-by WHO]
  remove -code CODE -issuer ADDR
  show   -code CODE -issuer ADDR
  list

Categories: stablecoin, major_token, exchange_token, verified
`

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("load config: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		fatalf("postgres connect: %v", err)
	}
	defer pool.Close()
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		fatalf("postgres migrations: %v", err)
	}

	store := postgres.NewWhitelistStore(pool)

	switch command {
	case "add":
		runAdd(ctx, store, flag.Args()[1:])
	case "remove":
		runRemove(ctx, store, flag.Args()[1:])
	case "show":
		runShow(ctx, store, flag.Args()[1:])
	case "list":
		runList(ctx, store)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runAdd(ctx context.Context, store storage.WhitelistStore, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	code := fs.String("code", "", "Token currency code")
	issuer := fs.String("issuer", "", "Token issuer address")
	name := fs.String("name", "", "Human-readable token name")
	category := fs.String("category", "", "Whitelist category")
	reason := fs.String("reason", "", "Why the token is trusted")
	by := fs.String("by", "", "Who added the entry")
	fs.Parse(args)

	if *code == "" || *issuer == "" || *category == "" {
		fatalf("add requires -code, -issuer and -category")
	}
	if err := checkIssuer(*issuer); err != nil {
		fatalf("%v", err)
	}

	entry := &domain.WhitelistEntry{
		TokenCode:   *code,
		TokenIssuer: *issuer,
		TokenName:   *name,
		Category:    domain.WhitelistCategory(*category),
		Reason:      *reason,
		AddedDate:   time.Now().UTC(),
		AddedBy:     *by,
	}
	if entry.TokenName == "" {
		entry.TokenName = *code
	}

	switch err := store.Insert(ctx, entry); {
	case errors.Is(err, storage.ErrDuplicateKey):
		fatalf("%s/%s is already whitelisted", *code, *issuer)
	case errors.Is(err, storage.ErrInvalidInput):
		fatalf("unknown category %q", *category)
	case err != nil:
		fatalf("add entry: %v", err)
	}
	fmt.Printf("added %s/%s (%s)\n", *code, *issuer, *category)
}

func runRemove(ctx context.Context, store storage.WhitelistStore, args []string) {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	code := fs.String("code", "", "Token currency code")
	issuer := fs.String("issuer", "", "Token issuer address")
	fs.Parse(args)

	if *code == "" || *issuer == "" {
		fatalf("remove requires -code and -issuer")
	}

	switch err := store.Delete(ctx, *code, *issuer); {
	case errors.Is(err, storage.ErrNotFound):
		fatalf("%s/%s is not whitelisted", *code, *issuer)
	case err != nil:
		fatalf("remove entry: %v", err)
	}
	fmt.Printf("removed %s/%s\n", *code, *issuer)
}

func runShow(ctx context.Context, store storage.WhitelistStore, args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	code := fs.String("code", "", "Token currency code")
	issuer := fs.String("issuer", "", "Token issuer address")
	fs.Parse(args)

	if *code == "" || *issuer == "" {
		fatalf("show requires -code and -issuer")
	}

	entry, err := store.Get(ctx, *code, *issuer)
	if errors.Is(err, storage.ErrNotFound) {
		fatalf("%s/%s is not whitelisted", *code, *issuer)
	}
	if err != nil {
		fatalf("show entry: %v", err)
	}

	fmt.Printf("Token:    %s (%s)\n", entry.TokenName, entry.TokenCode)
	fmt.Printf("Issuer:   %s\n", entry.TokenIssuer)
	fmt.Printf("Category: %s\n", entry.Category)
	fmt.Printf("Reason:   %s\n", entry.Reason)
	fmt.Printf("Added:    %s by %s\n", entry.AddedDate.Format(time.DateOnly), entry.AddedBy)
}

func runList(ctx context.Context, store storage.WhitelistStore) {
	entries, err := store.GetAll(ctx)
	if err != nil {
		fatalf("list entries: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("whitelist is empty")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Code", "Issuer", "Name", "Category", "Added", "By")
	for _, e := range entries {
		table.Append(
			e.TokenCode, e.TokenIssuer, e.TokenName, string(e.Category),
			e.AddedDate.Format(time.DateOnly), e.AddedBy,
		)
	}
	table.Render()
}

// checkIssuer rejects issuers that are not classic account addresses
// before they reach the store.
func checkIssuer(issuer string) error {
	if !xrpl.IsValidAddress(issuer) {
		return fmt.Errorf("%q is not a valid account address", issuer)
	}
	return nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
