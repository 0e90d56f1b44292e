package main

import (
	"context"
	"log"

	"finlink/internal/domain/account"
	"finlink/internal/domain/aggregator"
	"finlink/internal/domain/consent"
	"finlink/internal/domain/notification"
	"finlink/internal/domain/transaction"
	"finlink/internal/infrastructure/firebase"
	"finlink/internal/infrastructure/postgres"
	"finlink/internal/infrastructure/setu"
	httphandlers "finlink/internal/interfaces/http"
	"finlink/internal/shared/auth"
	"finlink/internal/shared/config"
	"finlink/internal/shared/messages"
	"finlink/internal/shared/telemetry"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	ConsentHandler *httphandlers.ConsentHandler
	AccountHandler *httphandlers.AccountHandler
	WebhookHandler *httphandlers.WebhookHandler
	HealthHandler  *httphandlers.HealthHandler

	// Auth
	JWT *auth.JWT

	// Provider client, shared by the handlers and the sync pipeline
	Consent consent.Client
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	db, err := postgres.New(cfg.Database.ConnectionString(), postgres.PoolConfig{})
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}

	accountRepo := postgres.NewAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)

	client, err := newConsentClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	notifier := newNotificationService(ctx, cfg.Firebase)
	metrics := telemetry.NewPipeline()

	importer := transaction.NewImporter(transactionRepo)
	syncService := aggregator.NewSyncService(client, accountRepo, importer, notifier)
	linkService := aggregator.NewLinkService(client, accountRepo, syncService)
	unlinkService := aggregator.NewUnlinkService(client, accountRepo, transactionRepo)
	accountService := account.NewService(accountRepo)

	return &Dependencies{
		DB:             db,
		ConsentHandler: httphandlers.NewConsentHandler(client, linkService, syncService, unlinkService, cfg.Server.AppURL, metrics),
		AccountHandler: httphandlers.NewAccountHandler(accountService),
		WebhookHandler: httphandlers.NewWebhookHandler(accountService, metrics),
		HealthHandler:  httphandlers.NewHealthHandler(db),
		JWT:            auth.NewJWT(cfg.JWT.Secret),
		Consent:        client,
	}, nil
}

func newConsentClient(cfg *config.Config) (consent.Client, error) {
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
		return nil, err
	}

	if p.Mode == config.ProviderModeRelay {
		log.Printf("Provider calls go through relay %s", p.RelayURL)
	} else {
		if !p.HasCredentials() {
			log.Println("Warning: provider credentials are not set, consent calls will fail")
		}
		log.Printf("Provider calls go direct (%s)", p.Environment)
	}
	return client, nil
}

// newNotificationService wires FCM when credentials are configured. Without
// them pushes are logged and dropped.
func newNotificationService(ctx context.Context, cfg config.FirebaseConfig) *notification.Service {
	texts, err := messages.Load(cfg.MessagesFile)
	if err != nil {
		log.Printf("Warning: failed to load notification messages, using defaults: %v", err)
		texts = messages.Default()
	}

	if cfg.CredentialsFile == "" {
		log.Println("Push notifications disabled (FIREBASE_CREDENTIALS_FILE not set)")
		return notification.NewService(nil, texts)
	}

	fcm, err := firebase.NewClient(ctx, cfg.CredentialsFile)
	if err != nil {
		log.Printf("Warning: failed to initialize Firebase, push notifications disabled: %v", err)
		return notification.NewService(nil, texts)
	}
	log.Println("Push notifications enabled")
	return notification.NewService(fcm, texts)
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
