package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blogicum/internal/access"
	"blogicum/internal/auth"
	"blogicum/internal/config"
	"blogicum/internal/db"
	"blogicum/internal/events"
	"blogicum/internal/handlers"
	"blogicum/internal/media"
	"blogicum/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	dbc, err := db.Open(cfg.Driver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer dbc.Close()

	if err := db.Migrate(context.Background(), dbc, cfg.Driver); err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(cfg.MediaDir, 0755); err != nil {
		log.Fatal(err)
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		p, err := events.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatal("Failed to connect to NATS:", err)
		}
		publisher = p
	}
	defer publisher.Close()

	sessions := auth.NewManager(dbc, cfg.Driver, cfg.SessionTTL)
	sessions.Secure = cfg.SecureCookies

	h, err := handlers.New(handlers.Deps{
		Store:         store.New(dbc, cfg.Driver),
		Sessions:      sessions,
		Tokens:        auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		Events:        publisher,
		Media:         media.Storage{Root: cfg.MediaDir},
		Policy:        access.NewPolicy(),
		PageSize:      cfg.PageSize,
		CSRFKey:       cfg.CSRFKey,
		SecureCookies: cfg.SecureCookies,
	})
	if err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.WithLogging(handlers.WithRecover(h.Router(), h.ServerError)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("listening on %s (%s)", srv.Addr, cfg.Driver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
