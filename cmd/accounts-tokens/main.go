package main

import (
	"context"
	"flag"
	"os"
	"time"

	accounts "github.com/GugaValenca/user-management-system"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
)

func main() {
	timeout := flag.Duration("timeout", time.Minute, "maximum time spent purging")
	flag.Parse()

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("accounts-tokens"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(goerrors.ToSlogAttributes),
	)
	logger := lgr.GetLogger("purge")

	cfg, err := accounts.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := accounts.NewPersistence(ctx, cfg.Persistence())
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	client.SetLogger(lgr.GetLogger("persistence"))

	db := client.DB()
	defer db.Close()

	if err := client.Migrate(ctx); err != nil {
		logger.Error("migrate", "error", err)
		os.Exit(1)
	}

	repo := accounts.NewRepositoryManager(db)

	tokens, err := accounts.NewTokenService([]byte(cfg.GetSigningKey()), repo.TokenBlacklist(),
		append(cfg.TokenOptions(), accounts.WithTokenLogger(logger))...)
	if err != nil {
		logger.Error("token service", "error", err)
		os.Exit(1)
	}

	removed, err := tokens.PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		logger.Error("purge expired tokens", "error", err)
		os.Exit(1)
	}

	logger.Info("purged expired blacklist entries", "removed", removed)
}
