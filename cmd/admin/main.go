package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"finlink/internal/domain/account"
	"finlink/internal/domain/aggregator"
	"finlink/internal/domain/consent"
	"finlink/internal/domain/notification"
	"finlink/internal/domain/transaction"
	"finlink/internal/infrastructure/firebase"
	"finlink/internal/infrastructure/postgres"
	"finlink/internal/infrastructure/setu"
	"finlink/internal/interfaces/scheduler"
	"finlink/internal/shared/config"
	"finlink/internal/shared/messages"
)

const usage = `Finlink Admin CLI - Management commands for the Finlink API

Usage:
  admin <command> [options]

Commands:
  migrate          Apply, roll back or inspect database migrations
  resync           Re-fetch provider data for linked accounts
  consent-status   Show a consent as the provider and the database see it

Examples:
  # Apply every pending migration
  admin migrate up

  # Resync specific accounts
  admin resync --account-id=5f0c...,9a1e...

  # Resync every linked account with 8 workers
  admin resync --all --workers=8 --timeout=1h

  # Inspect a consent
  admin consent-status --consent-id=a1b2c3
`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "migrate":
		runMigrate(os.Args[2:])
	case "resync":
		runResync(os.Args[2:])
	case "consent-status":
		runConsentStatus(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Println(usage)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

func openDB(cfg *config.Config) *postgres.DB {
	db, err := postgres.New(cfg.Database.ConnectionString(), postgres.PoolConfig{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")
	return db
}

func newConsentClient(cfg *config.Config) consent.Client {
	p := cfg.Provider
	client, err := setu.NewClient(setu.Config{
		Mode: p.Mode,
		Credentials: setu.Credentials{
			ClientID:          p.ClientID,
			ClientSecret:      p.ClientSecret,
			ProductInstanceID: p.ProductInstanceID,
			Environment:       p.Environment,
			BaseURL:           p.BaseURL,
		},
		RelayURL:     p.RelayURL,
		Timeout:      p.Timeout,
		PollAttempts: cfg.Poller.MaxAttempts,
		PollInterval: cfg.Poller.Interval,
	})
	if err != nil {
		log.Fatalf("Failed to create provider client: %v", err)
	}
	return client
}

func runMigrate(args []string) {
	fs := pflag.NewFlagSet("migrate", pflag.ExitOnError)
	fs.Usage = func() {
		fmt.Println("Usage: admin migrate up|down|version")
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	db := openDB(cfg)
	defer db.Close()

	switch fs.Arg(0) {
	case "up":
		err = db.MigrateUp()
	case "down":
		err = db.MigrateDown()
		if err == nil {
			log.Println("Rolled back one migration")
		}
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = db.MigrationVersion()
		if err == nil {
			fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		}
	default:
		fs.Usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
}

func runResync(args []string) {
	fs := pflag.NewFlagSet("resync", pflag.ExitOnError)

	accountIDs := fs.StringSlice("account-id", nil, "Account ID(s) to resync (comma-separated for multiple)")
	all := fs.Bool("all", false, "Resync every linked account")
	workers := fs.Int("workers", 0, "Number of concurrent workers (default from SCHEDULER_WORKERS)")
	timeout := fs.Duration("timeout", 30*time.Minute, "Timeout for the whole run (e.g., 5m, 1h)")
	notify := fs.Bool("notify", false, "Send push notifications for imported transactions")

	fs.Usage = func() {
		fmt.Println("Usage: admin resync [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Println("  admin resync --account-id=5f0c...")
		fmt.Println("  admin resync --all --workers=8 --timeout=1h")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if len(*accountIDs) == 0 && !*all {
		fmt.Println("Error: must specify --account-id or --all")
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *workers < 1 {
		*workers = cfg.Scheduler.WorkerCount
	}

	db := openDB(cfg)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	accountRepo := postgres.NewAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)

	var notifier aggregator.Notifier
	if *notify {
		notifier = newNotifier(ctx, cfg.Firebase)
	}
	syncService := aggregator.NewSyncService(newConsentClient(cfg), accountRepo, transaction.NewImporter(transactionRepo), notifier)

	var accounts []*account.Account
	if *all {
		accounts, err = accountRepo.ListLinked(ctx)
		if err != nil {
			log.Fatalf("Failed to list linked accounts: %v", err)
		}
	} else {
		for _, id := range *accountIDs {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			acc, err := accountRepo.GetByID(ctx, id)
			if err != nil {
				log.Fatalf("Failed to load account %s: %v", id, err)
			}
			accounts = append(accounts, acc)
		}
	}

	siblings := map[string]int{}
	for _, acc := range accounts {
		if acc.ConsentID == "" {
			continue
		}
		if _, ok := siblings[acc.ConsentID]; ok {
			continue
		}
		members, err := accountRepo.ListByConsentID(ctx, acc.ConsentID)
		if err != nil {
			log.Fatalf("Failed to list accounts for consent %s: %v", acc.ConsentID, err)
		}
		siblings[acc.ConsentID] = len(members)
	}

	jobs := scheduler.ResyncJobs(accounts, siblings, syncService)
	if len(jobs) == 0 {
		log.Println("No linked accounts to resync")
		return
	}

	log.Printf("Starting resync of %d consent(s) with %d worker(s)", len(jobs), *workers)
	startTime := time.Now()

	pool := scheduler.NewWorkerPool(ctx, scheduler.PoolConfig{
		Workers:   *workers,
		QueueSize: len(jobs),
		JobDelay:  cfg.Scheduler.JobDelay,
	})
	pool.Start()
	pool.SubmitBatch(jobs)
	results := pool.Wait()

	failed := 0
	fmt.Println()
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
			failed++
		}
		fmt.Printf("  consent %-40s %8s  %s\n", r.Key, r.Duration.Round(time.Millisecond), status)
	}

	log.Printf("Resync completed in %v: %d succeeded, %d failed", time.Since(startTime), len(results)-failed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func newNotifier(ctx context.Context, cfg config.FirebaseConfig) aggregator.Notifier {
	texts, err := messages.Load(cfg.MessagesFile)
	if err != nil {
		log.Fatalf("Failed to load notification messages: %v", err)
	}
	if cfg.CredentialsFile == "" {
		log.Fatal("--notify requires FIREBASE_CREDENTIALS_FILE")
	}
	fcm, err := firebase.NewClient(ctx, cfg.CredentialsFile)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}
	return notification.NewService(fcm, texts)
}

func runConsentStatus(args []string) {
	fs := pflag.NewFlagSet("consent-status", pflag.ExitOnError)
	consentID := fs.String("consent-id", "", "Consent ID to inspect")
	timeout := fs.Duration("timeout", time.Minute, "Timeout for the provider call")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *consentID == "" {
		fmt.Println("Error: must specify --consent-id")
		fs.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	db := openDB(cfg)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	details, err := newConsentClient(cfg).GetConsentStatus(ctx, *consentID)
	if err != nil {
		log.Fatalf("Failed to get consent status: %v", err)
	}

	fmt.Printf("\n=== Consent %s ===\n", *consentID)
	fmt.Printf("  Provider status: %s\n", details.Status)
	fmt.Printf("  Data range:      %s .. %s\n", details.FIDataRange.From, details.FIDataRange.To)
	fmt.Printf("  Accounts:        %d\n", len(details.Accounts))
	for _, la := range details.Accounts {
		fmt.Printf("    - %s %s (%s)\n", la.FipID, la.MaskedAccNumber, la.AccType)
	}

	local, err := postgres.NewAccountRepository(db).ListByConsentID(ctx, *consentID)
	if err != nil {
		log.Fatalf("Failed to list local accounts: %v", err)
	}
	fmt.Printf("\n  Local accounts:  %d\n", len(local))
	for _, acc := range local {
		synced := "never"
		if acc.LastSyncedAt != nil {
			synced = acc.LastSyncedAt.Format(time.RFC3339)
		}
		fmt.Printf("    - %s %q linked=%t consent=%s sync=%s last=%s\n",
			acc.ID, acc.Name, acc.IsLinked, acc.ConsentStatus, acc.SyncStatus, synced)
	}
}
