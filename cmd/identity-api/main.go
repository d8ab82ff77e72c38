package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	identity "github.com/perical/identity-postgres"
	"github.com/perical/identity-postgres/pkg/database"
	"github.com/perical/identity-postgres/pkg/hasher"
	"github.com/perical/identity-postgres/pkg/utilities"
	"github.com/perical/identity-postgres/repo"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting identity-api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// init db and stores
	cfg := database.ConfigFromEnv()
	stores, db, err := identity.Open[string](ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	if err := repo.EnsureSchema(ctx, db); err != nil {
		sugar.Fatalf("ensure schema: %v", err)
	}

	h := newHandler(stores, hasher.Bcrypt{Cost: 12}, sugar)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /identity/register", h.Register)
	mux.HandleFunc("POST /identity/login", h.Login)
	mux.HandleFunc("POST /identity/recovery-codes", h.GenerateRecoveryCodes)
	mux.HandleFunc("POST /identity/recovery-codes/redeem", h.RedeemRecoveryCode)

	srv := &http.Server{
		Addr:    "0.0.0.0:8431",
		Handler: loggingMiddleware(sugar)(mux),
	}

	// run server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	sugar.Info("identity-api is running; press Ctrl+C to stop")

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
