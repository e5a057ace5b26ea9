package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"rewards_academy/internal/api"
	"rewards_academy/internal/cache"
	"rewards_academy/internal/middleware"
	"rewards_academy/internal/notifier"
	"rewards_academy/internal/repository"
	"rewards_academy/internal/service"
	"rewards_academy/internal/wallet"
	"rewards_academy/pkg/auth"
	"rewards_academy/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	defaultPayoutTimeout  = 10 * time.Second
	defaultPayoutInterval = time.Minute
	shutdownTimeout       = 10 * time.Second
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	rewards, err := cfg.ServiceRewards()
	if err != nil {
		zapLogger.Fatal("Invalid rewards configuration", zap.Error(err))
	}

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := repo.InitSchema(ctx); err != nil {
		zapLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var leaderboard *cache.LeaderboardCache
	if cfg.Redis.Enabled {
		leaderboard, err = cache.NewLeaderboardCache(cfg.CacheConfig())
		if err != nil {
			zapLogger.Fatal("Failed to connect to redis", zap.Error(err))
		}
	}

	var adminNotifier *notifier.TelegramNotifier
	if cfg.Notifier.Enabled {
		adminNotifier, err = notifier.NewTelegramNotifier(cfg.NotifierConfig())
		if err != nil {
			zapLogger.Fatal("Failed to initialize telegram notifier", zap.Error(err))
		}
	}

	payoutTimeout := cfg.Payout.RequestTimeout
	if payoutTimeout <= 0 {
		payoutTimeout = defaultPayoutTimeout
	}
	payoutInterval := cfg.Payout.RetryInterval
	if payoutInterval <= 0 {
		payoutInterval = defaultPayoutInterval
	}

	walletClient := wallet.NewClient(cfg.WalletConfig())
	dispatcher := service.NewPayoutDispatcher(repo, walletClient, payoutNotifier(adminNotifier), payoutTimeout, payoutInterval)
	go dispatcher.Run(ctx)

	userService := service.NewUserService(repo)
	taskService := service.NewTaskService(repo, submissionNotifier(adminNotifier), dispatcher)
	ledgerService := service.NewLedgerService(repo)
	bonusService := service.NewBonusService(repo, rewards)
	statsService := service.NewStatsService(repo, leaderboard)

	telegramAuth := auth.NewTelegramAuth(cfg.TelegramAuth.TelegramBotToken, cfg.TelegramAuth.DebugMode)
	adminOnly := middleware.NewAuthorization(userService)

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	corsConfig.AllowHeaders = []string{"*"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	a := router.Group("/api/v1")
	api.NewUserRoutes(a, userService, bonusService, telegramAuth)
	api.NewTaskRoutes(a, taskService, telegramAuth, adminOnly)
	api.NewLedgerRoutes(a, ledgerService, statsService, telegramAuth, adminOnly)
	api.NewRewardRoutes(a, bonusService, telegramAuth)
	api.NewStatsRoutes(a, statsService, telegramAuth, adminOnly)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		zapLogger.Info("Starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown failed", zap.Error(err))
	}

	select {
	case <-dispatcher.Done():
	case <-shutdownCtx.Done():
		zapLogger.Warn("Payout dispatcher did not stop in time")
	}
}

// payoutNotifier and submissionNotifier keep the typed-nil pitfall out of the
// service constructors: a disabled notifier must arrive as a nil interface,
// not as a nil *TelegramNotifier.
func payoutNotifier(n *notifier.TelegramNotifier) service.PayoutNotifier {
	if n == nil {
		return nil
	}
	return n
}

func submissionNotifier(n *notifier.TelegramNotifier) service.SubmissionNotifier {
	if n == nil {
		return nil
	}
	return n
}
