// Reference Site
//
// This server mimics the login flow of the reference client site so the
// login check can run without network access:
//
//	go run ./cmd/reference-site --addr :8080
//	go run ./cmd/logincheck --url http://localhost:8080/ --runs 10
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/thesyncim/logincheck/cmd/reference-site/server"
)

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	cfg := server.DefaultConfig()
	cfg.Addr = *addr
	cfg.Logger = logger
	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Fatal("failed to create server", zap.Error(err))
	}

	if _, err := srv.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	fmt.Printf(`
Reference Site
==============
Open %s and use "Client Login".
Accepted accounts: the valid records of the default catalog.

`, srv.URL())
	logger.Info("listening", zap.String("addr", srv.Addr()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.Stringer("signal", sig))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
