package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/totegamma/craft-nft/internal/config"
	"github.com/totegamma/craft-nft/internal/infra/database"
	"github.com/totegamma/craft-nft/internal/infra/gateway"
	"github.com/totegamma/craft-nft/internal/infra/repository"
	"github.com/totegamma/craft-nft/internal/infra/tracing"
	"github.com/totegamma/craft-nft/internal/present/rest"
	"github.com/totegamma/craft-nft/internal/service"
	"github.com/totegamma/craft-nft/internal/usecase"
)

const serviceName = "craftnft"

func main() {
	configPath := flag.String("config", os.Getenv("CRAFTNFT_CONFIG"), "path to the YAML config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var level slog.Level
	if conf.Server.LogLevel != "" {
		if err := level.UnmarshalText([]byte(conf.Server.LogLevel)); err != nil {
			slog.Warn("unknown log level", slog.String("level", conf.Server.LogLevel))
		}
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, serviceName, conf.Server.TraceEndpoint, conf.Server.EnableTrace)
	if err != nil {
		slog.Error("failed to setup tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	payment, err := conf.Payment.Resolve()
	if err != nil {
		slog.Error("invalid payment config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := payment.Ready(); err != nil {
		// keep serving; purchases answer with a configuration error
		slog.Warn("payment is not configured", slog.String("error", err.Error()), slog.String("module", "main"))
	}

	db, err := database.Open(conf.Server.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	err = database.Migrate(db)
	if err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var (
		publisher usecase.EventPublisher
		guard     usecase.InflightGuard
		realtime  rest.RealtimeSource
	)
	if conf.Server.RedisAddr != "" {
		rdb := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
		err := database.Ping(ctx, rdb, 3*time.Second)
		if err != nil {
			slog.Warn(
				"redis unreachable, realtime feed and inflight lock disabled",
				slog.String("error", err.Error()),
				slog.String("module", "main"),
			)
		} else {
			signals := service.NewSignalService(rdb)
			publisher = signals
			realtime = signals
			guard = service.NewInflightLock(rdb)
		}
	}

	var mc *memcache.Client
	if conf.Server.MemcachedAddr != "" {
		mc = database.NewMemcached(conf.Server.MemcachedAddr)
	}
	ledger := gateway.NewCachedLedger(
		gateway.NewSolanaLedger(conf.Ledger.RPCURL, conf.Ledger.Commitment, conf.Ledger.Timeout),
		mc,
	)

	store := gateway.NewIPFSStore(conf.Content.APIURL, conf.Content.Timeout)
	mailer := gateway.NewSMTPMailer(conf.Mail.SMTPHost, conf.Mail.SMTPPort, conf.Mail.Address, conf.Mail.Password, conf.Mail.Timeout)
	notifier := service.NewMailNotifier(mailer, conf.Mail.Address, conf.Mail.Password)

	repo := repository.NewOwnershipRepository(db)
	purchase := usecase.NewPurchaseUsecase(
		payment,
		usecase.NewTransferValidator(ledger, payment),
		usecase.NewCollectibleGenerator(store, conf.Content.GatewayURL),
		repo,
		notifier,
		publisher,
		guard,
	)
	collection := usecase.NewCollectionUsecase(repo)

	go func() {
		for err := range purchase.NotifyErrors() {
			slog.Debug("background dispatch error", slog.String("error", err.Error()), slog.String("module", "main"))
		}
	}()

	handler := rest.NewHandler(purchase, collection, realtime)

	e := echo.New()
	e.HideBanner = true
	e.Use(otelecho.Middleware(serviceName))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	handler.RegisterRoutes(e)

	go func() {
		slog.Info("server started", slog.String("listen", conf.Server.Listen), slog.String("module", "main"))
		if err := e.Start(conf.Server.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	purchase.Wait()
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("failed to shutdown tracing", slog.String("error", err.Error()))
	}
}
