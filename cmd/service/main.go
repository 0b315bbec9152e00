package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/dirk.krummacker/contacts-directory/internal/config"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/metrics"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/service"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Usage example on the command line:
// > PORT=8080 DBUSER=dirk DBPWD=bullo92 GIN_MODE=release GIN_LOGGING=OFF go run main.go
// > DBDRIVER=mongo MONGO_URI=mongodb://localhost:27017 DBNAME=contacts go run main.go
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("could not load configuration", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Println("could not create logger", err)
		os.Exit(1)
	}
	defer log.Sync()

	contacts, err := service.OpenStore(cfg, log)
	if err != nil {
		log.Fatal("could not open database", "driver", cfg.Driver, "error", err)
	}
	defer contacts.Close()

	svc := service.New(contacts,
		service.WithLogger(log),
		service.WithMetrics(metrics.New()),
		service.WithRequestLogging(cfg.RequestLogging),
		service.WithAllowedOrigins(cfg.AllowedOrigins),
		service.WithBackfillWorkers(cfg.BackfillWorkers),
	)
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           svc.SetupHttpRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting contacts directory", "addr", cfg.Addr(), "driver", cfg.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("http server stopped", "error", err)
	}
}
