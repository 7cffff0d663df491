/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the till engine server: configuration, store,
  till service, HTTP router, graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional) and parse command-line flags
  2. Open the SQLite store
  3. Build the till service (persisted drawer wins over -float)
  4. Configure the HTTP router
  5. Start the server with graceful shutdown

COMMAND-LINE FLAGS / ENVIRONMENT:
  -port  / TILL_PORT   HTTP server port (default: 8080)
  -db    / TILL_DB     SQLite database path (default: till.db,
                       ":memory:" for in-memory)
  -cache / TILL_CACHE  Optional device-cache JSON blob path
  -float / TILL_FLOAT  Opening float amount used to seed an empty
                       drawer (canonical breakdown)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait up to 30s for
  active requests, close the database, exit.

SEE ALSO:
  - api/server.go: Router configuration
  - till/service.go: Orchestration
  - store/sqlite/sqlite.go: Persistence
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/warp/till-engine/api"
	"github.com/warp/till-engine/cash"
	"github.com/warp/till-engine/store/kvfile"
	"github.com/warp/till-engine/store/sqlite"
	"github.com/warp/till-engine/till"
)

func main() {
	// .env is optional; flags fall back to env values when set.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("TILL_PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("TILL_DB", "till.db"), "SQLite database path")
	cachePath := flag.String("cache", envStr("TILL_CACHE", ""), "device cache JSON blob path (optional)")
	floatAmount := flag.Int64("float", envInt64("TILL_FLOAT", 0), "opening float for an empty drawer")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	currency := cash.DefaultCurrency()

	var initial []cash.DrawerLine
	if *floatAmount > 0 {
		breakdown, err := currency.Breakdown(*floatAmount)
		if err != nil {
			log.WithError(err).Fatal("invalid opening float")
		}
		for _, line := range breakdown {
			initial = append(initial, cash.DrawerLine{Denomination: line.Denomination, Quantity: line.Quantity})
		}
	}

	cfg := till.Config{
		Currency: currency,
		Store:    store,
		Initial:  initial,
		Logger:   log,
	}
	if *cachePath != "" {
		cfg.Cache = kvfile.New(*cachePath)
	}

	service, err := till.New(context.Background(), cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to build till service")
	}

	router := api.NewRouter(api.NewHandler(service))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("till engine server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}
	log.Info("server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
