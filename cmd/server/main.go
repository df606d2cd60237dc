package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-upload-web/internal/config"
	"github.com/jrsteele09/go-upload-web/internal/logging"
	"github.com/jrsteele09/go-upload-web/server"
	"github.com/jrsteele09/go-upload-web/storage"
	"github.com/rs/zerolog/log"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("Error running server")
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	envErr := config.LoadDotEnv()
	c := config.New()
	logging.Setup(c.GetEnv(), c.GetLogLevel())
	if envErr != nil {
		log.Debug().Err(envErr).Msg(".env file not found, using process environment")
	}
	displayAppname(c.GetAppName())

	store, err := storage.New(storageConfig(c), storage.Dependencies{})
	if err != nil {
		return fmt.Errorf("storage.New: %w", err)
	}
	defer closeStorage(store)

	handler, err := server.New(c, store)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

func storageConfig(c config.StorageConfig) storage.Config {
	return storage.Config{
		Driver: c.GetStorageDriver(),
		File:   &storage.FileConfig{Path: c.GetStorageFile()},
		Redis: &storage.RedisConfig{
			Addr:     c.GetRedisAddr(),
			Username: c.GetRedisUsername(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
			Prefix:   c.GetRedisPrefix(),
		},
		SQLite: &storage.SQLiteConfig{DSN: c.GetSQLiteDSN()},
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func closeStorage(store storage.Storage) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Close(ctx); err != nil {
		log.Err(err).Msg("Failed to close storage")
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
