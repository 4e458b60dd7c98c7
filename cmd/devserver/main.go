// Package main starts the storefront demo backend: an in-memory catalog,
// accounts and orders served over HTTP or HTTPS.
package main

import (
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/common-nighthawk/go-figure"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/storefront/internal/config"
	"github.com/atinyakov/storefront/internal/logger"
	"github.com/atinyakov/storefront/internal/server"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	options, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.Logging.Level, options.Logging.Format); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	zapLogger := log.Log

	displayAppname("storefront devserver")

	if options.Server.JWTSecret == "" {
		zapLogger.Warn("server.jwt_secret is empty, tokens will not survive a restart")
	}
	handler, err := server.NewHandler(options.Server, bcrypt.DefaultCost, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot build handler", zap.Error(err))
	}

	srv := &nethttp.Server{
		Addr:              options.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("shutdown failed", zap.Error(err))
		}
	}()

	if options.Server.CertFile != "" {
		if srv.TLSConfig, err = server.TLSConfig(options.Server); err != nil {
			zapLogger.Fatal("cannot configure TLS", zap.Error(err))
		}
		zapLogger.Info("starting HTTPS server", zap.String("addr", srv.Addr))
		err = srv.ListenAndServeTLS("", "")
	} else {
		zapLogger.Info("starting HTTP server", zap.String("addr", srv.Addr))
		err = srv.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("server failed", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
