package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	h "github.com/brunorcoelho/storefront/internal/http"
	"github.com/brunorcoelho/storefront/internal/logger"
	"github.com/brunorcoelho/storefront/internal/stub"
)

// The stub answers both contracts on both ports so the storefront defaults
// (orders on 8080, inventory on 8081) work unchanged.
func main() {
	ordersPort := getEnv("ORDERS_PORT", "8080")
	inventoryPort := getEnv("INVENTORY_PORT", "8081")

	log := logger.New(getEnv("LOG_LEVEL", "info"), os.Stdout)
	slog.SetDefault(log)

	inventory := stub.NewInventory(stub.SeedProducts())
	defer inventory.Close()

	handler := stub.NewHandler(inventory, stub.NewOrders(inventory), log)
	handler.SetOrdersDown(getBool("ORDERS_DOWN"))
	handler.SetInventoryDown(getBool("INVENTORY_DOWN"))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.RequestLogger(log))
	r.Use(middleware.Recoverer)
	handler.Routes(r)

	servers := []*http.Server{newServer(ordersPort, r)}
	if inventoryPort != ordersPort {
		servers = append(servers, newServer(inventoryPort, r))
	}

	for _, srv := range servers {
		go func(srv *http.Server) {
			log.Info("collaborator stub listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("server error", "addr", srv.Addr, "error", err)
				os.Exit(1)
			}
		}(srv)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down collaborator stub...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var g errgroup.Group
	for _, srv := range servers {
		g.Go(func() error { return srv.Shutdown(ctx) })
	}
	if err := g.Wait(); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("collaborator stub stopped")
}

func newServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}
