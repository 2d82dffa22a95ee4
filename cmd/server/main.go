package main

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/tanda/internal/auth"
	"github.com/mmynk/tanda/internal/middleware"
	"github.com/mmynk/tanda/internal/registry"
	"github.com/mmynk/tanda/internal/service"
	"github.com/mmynk/tanda/internal/storage/sqlite"
	"github.com/mmynk/tanda/internal/token"
	"github.com/mmynk/tanda/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	addr := getEnv("TANDA_ADDR", ":8080")
	dbPath := getEnv("DB_PATH", "./data/tanda.db")
	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	startingBalance, err := strconv.ParseUint(getEnv("TANDA_STARTING_BALANCE", "0"), 10, 64)
	if err != nil {
		slog.Error("Invalid TANDA_STARTING_BALANCE", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	ledger := token.NewLedger()
	reg := registry.New(ledger)
	jwtManager := auth.NewJWTManager(jwtSecret, 24*time.Hour)
	svc := service.New(store, reg, ledger, jwtManager, startingBalance)

	mux := http.NewServeMux()
	svc.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Add logging and CORS middleware
	handler := middleware.Logging(middleware.CORS(mux))

	// Wrap with h2c for HTTP/2 without TLS
	h2cHandler := h2c.NewHandler(handler, &http2.Server{})

	slog.Info("Tanda server starting", "address", addr)
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
