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

	accounts "github.com/GugaValenca/user-management-system"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("app"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(goerrors.ToSlogAttributes),
	)

	if err := run(lgr); err != nil {
		lgr.GetLogger("main").Error("accounts stopped", "error", err)
		os.Exit(1)
	}
}

func run(lgr *glog.BaseLogger) error {
	logger := lgr.GetLogger("main")

	cfg, err := accounts.LoadConfig()
	if err != nil {
		return err
	}

	if cfg.Debug {
		fmt.Println("============")
		fmt.Println(print.MaybePrettyJSON(cfg.Masked()))
		fmt.Println("============")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := accounts.NewPersistence(ctx, cfg.Persistence())
	if err != nil {
		return err
	}
	client.SetLogger(lgr.GetLogger("persistence"))

	db := client.DB()
	defer db.Close()

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	if report := client.Report(); report != nil && !report.IsZero() {
		logger.Info("schema migrated", "report", report.String())
	} else {
		logger.Info("schema up to date")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	metrics, err := accounts.NewMetrics(registry)
	if err != nil {
		return err
	}

	repo := accounts.NewRepositoryManager(db,
		accounts.WithHashidUserIDs(cfg.HashidUserIDs),
	)

	hasher := accounts.NewBcryptHasher(cfg.PasswordHashCost)
	provider := accounts.NewUserProvider(repo.Users(), hasher).
		WithLogger(lgr.GetLogger("provider"))

	tokenOpts := append(cfg.TokenOptions(),
		accounts.WithIdentityResolver(provider),
		accounts.WithTokenLogger(lgr.GetLogger("tokens")),
	)

	tokens, err := accounts.NewTokenService([]byte(cfg.GetSigningKey()), repo.TokenBlacklist(), tokenOpts...)
	if err != nil {
		return err
	}

	svc, err := accounts.NewService(repo, tokens,
		accounts.WithPasswordHasher(hasher),
		accounts.WithPasswordPolicy(accounts.NewPasswordPolicy(
			accounts.WithPasswordMinLength(cfg.PasswordMinLength),
		)),
		accounts.WithPhoneRegion(cfg.PhoneRegion),
		accounts.WithMetrics(metrics),
		accounts.WithLogger(lgr.GetLogger("accounts")),
	)
	if err != nil {
		return err
	}

	directory := accounts.NewDirectory(repo.Users(), lgr.GetLogger("directory"), metrics)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: cfg.Debug,
			StrictRouting:     false,
		}))
	})

	srv.Router().WithLogger(lgr.GetLogger("router"))

	controller := accounts.NewAuthController(svc, directory,
		accounts.WithControllerLogger(lgr.GetLogger("http")),
		accounts.WithControllerDebug(cfg.Debug),
	)
	accounts.RegisterAccountRoutes(srv.Router().Group("/api/auth"), controller)

	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics listening", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	go func() {
		logger.Info("accounts listening", "addr", cfg.ListenAddr)
		if err := srv.Serve(cfg.ListenAddr); err != nil {
			logger.Error("http server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}

	return metricsSrv.Shutdown(shutdownCtx)
}
