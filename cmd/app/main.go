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

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"copydesk/configs"
	"copydesk/internal/adapter/telegram"
	"copydesk/internal/audit"
	"copydesk/internal/database"
	delivery "copydesk/internal/delivery/http"
	"copydesk/internal/delivery/ops"
	"copydesk/internal/domain"
	"copydesk/internal/infra"
	"copydesk/internal/lock"
	"copydesk/internal/middleware"
	"copydesk/internal/repository"
	"copydesk/internal/usecase"
	"copydesk/internal/utils"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Load configuration
	cfg := configs.Load()
	if err := utils.SetLocation(cfg.Timezone); err != nil {
		log.Printf("[WARN] Unknown timezone %q, keeping %s: %v", cfg.Timezone, utils.GetLocation(), err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Println("[WARN] JWT_SECRET is not set, using the development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := infra.NewDatabase(ctx, cfg.Database.URL, infra.PoolOptions{
		MaxConns: int32(cfg.Database.MaxConns),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	healthChecks := infra.HealthChecks{
		"database": db.Ping,
	}

	// Initialize lock table
	var (
		locker      domain.Locker
		redisClient *redis.Client
	)
	if cfg.Redis.URL != "" {
		redisClient, err = infra.NewRedis(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()

		locker = lock.NewRedis(redisClient, lock.RedisOptions{})
		healthChecks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
		log.Println("[OK] Using Redis lock table")
	} else {
		locker = lock.NewKeyed()
		log.Println("[OK] Using in-process lock table (single instance)")
	}

	// Initialize repositories
	masterRepo := repository.NewMasterRepository(db)
	slaveRepo := repository.NewSlaveRepository(db)
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	tradingAcctRepo := repository.NewTradingAccountRepository(db)
	intentRepo := repository.NewIntentRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Alerts
	alerter := telegram.NewNotificationService(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if !alerter.Enabled() {
		log.Println("[WARN] Telegram alerts disabled (TELEGRAM_BOT_TOKEN / TELEGRAM_CHAT_ID not set)")
	}

	// Audit delivery
	sinks := audit.MultiSink{audit.NewRepositorySink(auditRepo)}
	var kafkaSink *audit.KafkaSink
	if len(cfg.Audit.KafkaBrokers) > 0 {
		kafkaSink = audit.NewKafkaSink(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic)
		sinks = append(sinks, kafkaSink)
		log.Printf("[OK] Publishing audit events to Kafka topic %s", cfg.Audit.KafkaTopic)
	}
	dispatcher := audit.NewDispatcher(sinks, alerter, audit.Options{QueueSize: cfg.Audit.QueueSize})

	// Initialize usecases
	validator := usecase.NewCapacityValidator(masterRepo, slaveRepo, userRepo)
	allocator := usecase.NewHandleAllocator(slaveRepo)
	provisioning := usecase.NewProvisioningService(
		validator,
		allocator,
		slaveRepo,
		locker,
		dispatcher,
		cfg.Provision.HandleRetries,
	)
	accounts := usecase.NewAccountAdminService(masterRepo, slaveRepo, dispatcher)
	memberships := usecase.NewMembershipService(
		userRepo,
		groupRepo,
		membershipRepo,
		tradingAcctRepo,
		intentRepo,
		locker,
		dispatcher,
	)
	reconciler := usecase.NewReconciler(
		intentRepo,
		memberships,
		alerter,
		cfg.Reconcile.Grace,
		cfg.Reconcile.MaxAttempts,
	)

	// Initialize reconcile scheduler
	scheduler := infra.NewScheduler(reconciler, cfg.Reconcile.Schedule)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start reconcile scheduler: %v", err)
	}

	// Initialize HTTP API
	e := echo.New()
	e.HideBanner = true
	delivery.SetupRoutes(e, &delivery.RouterConfig{
		AuthHandler:       delivery.NewAuthHandler(userRepo),
		AccountHandler:    delivery.NewAccountHandler(provisioning, accounts),
		MembershipHandler: delivery.NewMembershipHandler(memberships),
		AdminHandler:      delivery.NewAdminHandler(db, healthChecks, dispatcher),
		AllowedIPs:        middleware.ParseAllowedIPs(cfg.Auth.RestrictedIPs),
	})

	apiSrv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	opsSrv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.OpsPort),
		Handler:      ops.NewRouter(healthChecks, scheduler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("🚀 Copydesk API starting on %s (ops on %s)", apiSrv.Addr, opsSrv.Addr)
	log.Printf("📊 Environment: %s", cfg.Server.Env)
	log.Printf("🕒 Timezone: %s", utils.GetLocation())
	log.Println("========================================")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serve(apiSrv) })
	g.Go(func() error { return serve(opsSrv) })
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down servers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return errors.Join(apiSrv.Shutdown(shutdownCtx), opsSrv.Shutdown(shutdownCtx))
	})

	if err := g.Wait(); err != nil {
		log.Printf("ERROR: Server stopped with error: %v", err)
	}

	scheduler.Stop()

	drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := dispatcher.Close(drainCtx); err != nil {
		log.Printf("[WARN] %v", err)
	}
	if kafkaSink != nil {
		if err := kafkaSink.Close(); err != nil {
			log.Printf("[WARN] Failed to close Kafka writer: %v", err)
		}
	}

	stats := dispatcher.Stats()
	log.Printf("[OK] Audit delivered=%d failed=%d dropped=%d", stats.Delivered, stats.Failed, stats.Dropped)
	log.Println("✓ Server exited gracefully")
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve %s: %w", srv.Addr, err)
	}
	return nil
}
