package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"finlink/internal/domain/consent"
	"finlink/internal/infrastructure/setu"
	"finlink/internal/interfaces/relay"
	"finlink/internal/shared/config"
	"finlink/internal/shared/telemetry"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Relay error: %v", err)
	}
}

func run() error {
	cfg, err := config.LoadRelay()
	if err != nil {
		return err
	}

	flagSet := pflag.NewFlagSet("relay", pflag.ContinueOnError)
	port := flagSet.StringP("port", "p", cfg.Relay.Port, "port to listen on")
	region := flagSet.String("region", cfg.Relay.Region, "region reported by the info and health endpoints")
	backendURL := flagSet.String("backend-url", cfg.Relay.BackendURL, "API origin that receives forwarded webhooks")
	origins := flagSet.StringSlice("allowed-origin", nil, "extra browser origin (scheme://host[:port]) allowed to call the relay (repeatable)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	ctx := context.Background()
	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		ServiceName:  cfg.Telemetry.ServiceName,
		Environment:  cfg.Telemetry.Environment,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		MetricsPort:  cfg.Telemetry.MetricsPort,
	})
	if err != nil {
		return err
	}

	creds := setu.Credentials{
		ClientID:          cfg.Provider.ClientID,
		ClientSecret:      cfg.Provider.ClientSecret,
		ProductInstanceID: cfg.Provider.ProductInstanceID,
		Environment:       cfg.Provider.Environment,
		BaseURL:           cfg.Provider.BaseURL,
	}
	if err := creds.Validate(); err != nil {
		log.Printf("Warning: %v", err)
	}

	provider := setu.NewDirectClient(creds,
		setu.WithTimeout(cfg.Provider.Timeout),
		setu.WithPoller(consent.NewPoller(cfg.Poller.MaxAttempts, cfg.Poller.Interval)),
	)

	forwarder := relay.NewForwarder(*backendURL, cfg.Relay.InternalAPIKey, nil)
	if !forwarder.Configured() {
		log.Println("Webhook forwarding disabled (RENDER_BACKEND_URL or INTERNAL_API_KEY not set)")
	}

	allowed := []string{"http://localhost:3000", "http://localhost:3001"}
	if *backendURL != "" {
		allowed = append(allowed, *backendURL)
	}
	allowed = append(allowed, *origins...)

	server := relay.NewServer(provider, forwarder, relay.Config{
		Region:         *region,
		Credentials:    creds,
		AllowedOrigins: allowed,
		PollAttempts:   cfg.Poller.MaxAttempts,
		PollInterval:   cfg.Poller.Interval,
	}, telemetry.NewPipeline())

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, *port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     server.Handler(),
		ReadTimeout: 15 * time.Second,
		// Poll requests may wait up to 30 attempts of 10s each.
		WriteTimeout: 6 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Relay starting on %s (region %s, %s)", addr, *region, creds.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Relay server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Relay shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down relay: %v", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Printf("Error shutting down telemetry: %v", err)
	}
	log.Println("Relay stopped")
	return nil
}
