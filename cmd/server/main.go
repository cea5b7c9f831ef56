package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/fairshare/fairshare/internal/ledger"
	"github.com/fairshare/fairshare/internal/server"
	"github.com/fairshare/fairshare/internal/storage"
	"github.com/fairshare/fairshare/internal/storage/postgres"
	"github.com/fairshare/fairshare/internal/storage/sqlite"
	"github.com/fairshare/fairshare/pkg/logging"
)

func main() {
	// Optional .env file for local development.
	_ = godotenv.Load()

	fs := ff.NewFlagSet("fairshare")
	var (
		port      = fs.IntLong("port", 8080, "HTTP server port")
		storeKind = fs.StringLong("store", "sqlite", "Storage backend: 'sqlite' or 'postgres'")
		dbPath    = fs.StringLong("db", "./data/fairshare.db", "SQLite database file path")
		dsn       = fs.StringLong("dsn", "", "PostgreSQL connection string (required with --store postgres)")
		logLevel  = fs.StringLong("log-level", "info", "Log level: debug, info, warn, error")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("FAIRSHARE"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Setup(*logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var (
		store storage.Store
		err   error
	)
	switch *storeKind {
	case "sqlite":
		store, err = sqlite.New(*dbPath)
	case "postgres":
		if *dsn == "" {
			slog.Error("A connection string is required. Set --dsn or FAIRSHARE_DSN")
			os.Exit(1)
		}
		store, err = postgres.New(*dsn)
	default:
		slog.Error("Invalid store", "store", *storeKind, "valid", "sqlite or postgres")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "store", *storeKind)

	handler := server.New(ledger.New(store))

	// h2c allows HTTP/2 without TLS behind a local proxy.
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}

	go func() {
		slog.Info("Server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
}
