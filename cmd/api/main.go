package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ArowuTest/jackpot-backend/api/routes"
	"github.com/ArowuTest/jackpot-backend/internal/config"
	cronrunner "github.com/ArowuTest/jackpot-backend/internal/cron"
	"github.com/ArowuTest/jackpot-backend/internal/events"
	"github.com/ArowuTest/jackpot-backend/internal/handlers"
	"github.com/ArowuTest/jackpot-backend/internal/logger"
	"github.com/ArowuTest/jackpot-backend/internal/metrics"
	"github.com/ArowuTest/jackpot-backend/internal/middleware"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
	"github.com/ArowuTest/jackpot-backend/internal/repositories/memory"
	mongorepo "github.com/ArowuTest/jackpot-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/jackpot-backend/internal/services"
	"github.com/ArowuTest/jackpot-backend/pkg/jwt"
	mongodb "github.com/ArowuTest/jackpot-backend/pkg/mongodb"
)

// memoryURI selects the in-process repositories instead of MongoDB.
const memoryURI = "memory://"

type stores struct {
	accounts repositories.AccountRepository
	rounds   repositories.RoundRepository
	history  repositories.HistoryRepository
	bets     repositories.BetHistoryRepository
	journal  repositories.LedgerEntryRepository
	promos   repositories.PromoCodeRepository
	admins   repositories.AdminUserRepository
	settings repositories.SettingRepository
	ping     func(context.Context) error
	close    func(context.Context) error
}

func main() {
	// A missing .env is fine; the environment and config file still apply.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to read .env: %v", err)
	}

	cfg, err := config.Load(config.GetEnv("JACKPOT_CONFIG_PATH", "."))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if config.GetEnvAsBool("JACKPOT_GIN_RELEASE", true) {
		gin.SetMode(gin.ReleaseMode)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(rootCtx, cfg.MongoDB, zlog)
	if err != nil {
		zlog.Fatal("Failed to open storage", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := st.close(ctx); err != nil {
			zlog.Warn("Error closing storage", zap.Error(err))
		}
	}()

	// Events: the websocket hub always, Redis when enabled.
	hub := events.NewHub(zlog)
	var publisher events.Publisher = hub
	if cfg.Redis.Enabled {
		rp := events.NewRedisPublisher(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Redis.Channel, zlog)
		pingCtx, cancel := context.WithTimeout(rootCtx, 5*time.Second)
		err := rp.Ping(pingCtx)
		cancel()
		if err != nil {
			zlog.Fatal("Failed to reach redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		go rp.Run(rootCtx)
		defer func() { _ = rp.Close() }()
		publisher = events.Multi{hub, rp}
		zlog.Info("Mirroring events to redis", zap.String("channel", cfg.Redis.Channel))
	}

	m := metrics.New()
	clock := services.SystemClock()
	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpiresIn)

	// Services
	ledger := services.NewLedger(st.accounts, st.journal, publisher, clock, zlog.Named("ledger"))
	history := services.NewHistoryService(st.history, st.bets, cfg.Game.HistoryLimit)
	overrides := services.NewRigOverride(st.settings, clock, zlog.Named("rig"))
	settler := services.NewSettlementService(
		ledger,
		services.NewDrawer(services.CryptoRandom()),
		overrides,
		history,
		st.bets,
		services.RetryPolicyFromConfig(cfg.Settlement),
		m,
		clock,
		zlog.Named("settlement"),
	)
	scheduler := services.NewRoundScheduler(services.RoundSchedulerDeps{
		Config:     cfg.Game,
		Settlement: cfg.Settlement,
		Ledger:     ledger,
		Settler:    settler,
		History:    history,
		Rounds:     st.rounds,
		Bets:       st.bets,
		Publisher:  publisher,
		Metrics:    m,
		Clock:      clock,
		Logger:     zlog.Named("scheduler"),
	})
	presence := services.NewPresence(cfg.Game.PresenceTTL, clock)
	accountService := services.NewAccountService(
		st.accounts,
		ledger,
		history,
		presence,
		decimal.NewFromFloat(cfg.Game.StartingBalance),
		clock,
		zlog.Named("accounts"),
	)
	authService := services.NewAuthService(st.admins, accountService, tokens, cfg.Auth, clock, zlog.Named("auth"))
	promoService := services.NewPromoService(st.promos, ledger, m, cfg.Game.AmountPrecision, clock, zlog.Named("promo"))

	startCtx, cancel := context.WithTimeout(rootCtx, config.GetEnvAsDuration("JACKPOT_STARTUP_TIMEOUT", 30*time.Second))
	if err := overrides.Load(startCtx); err != nil {
		zlog.Fatal("Failed to load rig override", zap.Error(err))
	}
	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if err := authService.SeedAdmin(startCtx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			zlog.Fatal("Failed to seed admin user", zap.Error(err))
		}
	}
	if cfg.Promo.SeedDefaults {
		if err := promoService.SeedDefaults(startCtx); err != nil {
			zlog.Warn("Failed to seed default promo codes", zap.Error(err))
		}
	}
	if err := scheduler.Start(startCtx); err != nil {
		zlog.Fatal("Failed to start round scheduler", zap.Error(err))
	}
	cancel()

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, zlog)

	// Periodic jobs
	jobs := cronrunner.New(zlog.Named("cron"), rootCtx)
	mustAdd := func(name, spec string, job func(context.Context) error) {
		if _, err := jobs.Add(name, spec, job); err != nil {
			zlog.Fatal("Invalid cron spec", zap.String("job", name), zap.String("spec", spec), zap.Error(err))
		}
	}
	mustAdd("pot-audit", cfg.Cron.AuditSpec, func(ctx context.Context) error {
		_, err := scheduler.AuditLiveRound(ctx)
		return err
	})
	mustAdd("presence-sweep", cfg.Cron.PresenceSpec, func(context.Context) error {
		if n := presence.Sweep(); n > 0 {
			zlog.Debug("Expired presence entries", zap.Int("count", n))
		}
		return nil
	})
	mustAdd("limiter-cleanup", cfg.Cron.LimiterSpec, func(context.Context) error {
		limiter.Cleanup(30 * time.Minute)
		return nil
	})
	jobs.Start()

	router := routes.SetupRouter(routes.HandlerDependencies{
		Config:         cfg,
		Logger:         zlog.Named("http"),
		Tokens:         tokens,
		Metrics:        m,
		RateLimiter:    limiter,
		AuthHandler:    handlers.NewAuthHandler(authService, zlog),
		GameHandler:    handlers.NewGameHandler(scheduler, history, accountService, zlog),
		AccountHandler: handlers.NewAccountHandler(accountService, history, zlog),
		PromoHandler:   handlers.NewPromoHandler(promoService, zlog),
		AdminHandler:   handlers.NewAdminHandler(accountService, scheduler, overrides, zlog),
		WSHandler:      handlers.NewWSHandler(hub, scheduler, accountService, tokens, cfg.Server.AllowedHosts, zlog),
		Health:         st.ping,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.RequestTimeout,
	}

	go func() {
		zlog.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("listen", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	zlog.Info("Shutting down server...")

	scheduler.Stop()
	jobs.Stop()

	ctx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}

	zlog.Info("Server exiting")
}

func openStores(ctx context.Context, cfg config.MongoDBConfig, zlog *zap.Logger) (*stores, error) {
	if cfg.URI == memoryURI {
		zlog.Warn("Using in-memory storage; state is lost on exit")
		return &stores{
			accounts: memory.NewAccountRepository(),
			rounds:   memory.NewRoundRepository(),
			history:  memory.NewHistoryRepository(),
			bets:     memory.NewBetHistoryRepository(),
			journal:  memory.NewLedgerEntryRepository(),
			promos:   memory.NewPromoCodeRepository(),
			admins:   memory.NewAdminUserRepository(),
			settings: memory.NewSettingRepository(),
			close:    func(context.Context) error { return nil },
		}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongodb.NewClient(connectCtx, cfg.URI)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.Database)
	if err := mongorepo.EnsureIndexes(connectCtx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	zlog.Info("Connected to MongoDB", zap.String("database", cfg.Database))

	return &stores{
		accounts: mongorepo.NewAccountRepository(db),
		rounds:   mongorepo.NewRoundRepository(db),
		history:  mongorepo.NewHistoryRepository(db),
		bets:     mongorepo.NewBetHistoryRepository(db),
		journal:  mongorepo.NewLedgerEntryRepository(db),
		promos:   mongorepo.NewPromoCodeRepository(db),
		admins:   mongorepo.NewAdminUserRepository(db),
		settings: mongorepo.NewSettingRepository(db),
		ping:     client.Ping,
		close:    client.Disconnect,
	}, nil
}
