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

	"github.com/joho/godotenv"

	"github.com/draana/whatsbot/internal/config"
	"github.com/draana/whatsbot/internal/handler"
	"github.com/draana/whatsbot/internal/history"
	"github.com/draana/whatsbot/internal/service/ai"
	"github.com/draana/whatsbot/internal/service/relay"
	"github.com/draana/whatsbot/internal/service/zapi"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store := newStore(ctx, cfg.Database)

	aiService, err := ai.NewService(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("failed to initialize AI service: %v", err)
	}

	dispatcher := zapi.NewClient(cfg.ZAPI)
	relayService := relay.NewService(store, aiService, dispatcher, cfg.History.Limit)

	router := handler.NewRouter(relayService)

	startServer(ctx, cfg.Server, router)
}

// newStore prefers Postgres and falls back to process memory so local runs
// work without a database.
func newStore(ctx context.Context, cfg config.DatabaseConfig) history.Store {
	if cfg.URL == "" {
		log.Println("DATABASE_URL not set, conversation history will not survive restarts")
		return history.NewMemoryStore()
	}

	store, err := history.NewPostgresStore(ctx, cfg.URL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := store.InitSchema(ctx); err != nil {
		log.Fatalf("failed to initialize database schema: %v", err)
	}
	log.Println("database ready")
	return store
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("webhook relay listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
