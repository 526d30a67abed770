// Package main runs the in-memory task gateway used for local development.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tasksync/internal/logger"
	"tasksync/internal/stubserver"
)

const shutdownTimeout = 15 * time.Second

func main() {
	addr := flag.String("addr", ":5286", "listen address")
	prefix := flag.String("prefix", "/api", "path the API is mounted under")
	secret := flag.String("secret", os.Getenv("TASKSYNC_STUB_SECRET"), "HS256 signing secret; empty disables auth")
	dev := flag.Bool("dev", false, "human-readable logs")
	flag.Parse()

	log, err := logger.NewServer(*dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	stub := stubserver.New(stubserver.Options{
		Prefix: *prefix,
		Secret: []byte(*secret),
		Logger: log,
	})
	server := &http.Server{
		Addr:              *addr,
		Handler:           stub,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("task gateway listening",
			zap.String("addr", *addr),
			zap.String("prefix", *prefix),
			zap.Bool("auth", *secret != ""))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
	log.Info("stopped")
}
