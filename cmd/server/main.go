// Package main is the entry point for the ActiveBreak companion service.
//
// The service runs next to the desktop shell: it receives pose frames over
// a local REST API, tracks posture sessions, scores completed breaks, and
// serves statistics, challenges, and the office leaderboard.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: pure business logic without external dependencies
// - Application: use case orchestration (Commands/Queries/Event handlers)
// - Infrastructure: repositories, cache, scheduler, session runtime
// - Interface: the REST API the shell talks to
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/activebreak/activebreak/config"
	"github.com/activebreak/activebreak/internal/application/command"
	"github.com/activebreak/activebreak/internal/application/eventhandler"
	"github.com/activebreak/activebreak/internal/application/query"
	"github.com/activebreak/activebreak/internal/domain/leaderboard"
	"github.com/activebreak/activebreak/internal/domain/notification"
	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/internal/infrastructure/messaging"
	"github.com/activebreak/activebreak/internal/infrastructure/persistence/redis"
	"github.com/activebreak/activebreak/internal/infrastructure/persistence/sqlite"
	"github.com/activebreak/activebreak/internal/infrastructure/scheduler"
	"github.com/activebreak/activebreak/internal/infrastructure/scheduler/jobs"
	"github.com/activebreak/activebreak/internal/infrastructure/service"
	httpserver "github.com/activebreak/activebreak/internal/interface/http"
	"github.com/activebreak/activebreak/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	})
	log.Info("starting ActiveBreak service",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (SQLite)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("opening database", logger.String("path", cfg.Database.Path))

	dbCfg := sqlite.DefaultConfig(cfg.Database.Path)
	dbCfg.BusyTimeout = cfg.Database.BusyTimeout
	dbCfg.MaxOpenConns = cfg.Database.MaxOpenConns
	dbCfg.MaxIdleConns = cfg.Database.MaxIdleConns

	conn, err := sqlite.NewConnection(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		_ = conn.Close()
	}()

	migrator := sqlite.NewMigrator(conn, log)
	if err := migrator.Run(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	userRepo := sqlite.NewUserRepository(conn)
	settingsRepo := sqlite.NewSettingsRepository(conn)
	eventRepo := sqlite.NewEventRepository(conn)
	statsRepo := sqlite.NewStatsRepository(conn)
	gameRepo := sqlite.NewGameRepository(conn)
	leaderboardRepo := sqlite.NewLeaderboardRepository(conn)
	challengeRepo := sqlite.NewChallengeRepository(conn)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional leaderboard cache)
	// ─────────────────────────────────────────────────────────────────────────
	var leaderboardCache leaderboard.Cache
	var redisCache *redis.Cache

	useCache := !cfg.Redis.Disabled && cfg.Features.IsEnabled(config.FeatureLeaderboardCache, nil)
	if useCache {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("redis unavailable, leaderboard cache disabled", logger.Err(err))
		} else {
			defer redisCache.Close()
			leaderboardCache = redis.NewLeaderboardCache(redisCache)
			log.Info("redis leaderboard cache enabled", logger.String("addr", redisCfg.Addr()))
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultConfig()
	busCfg.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busCfg)
	defer func() {
		log.Info("closing event bus")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. RUNTIME SERVICES
	// ─────────────────────────────────────────────────────────────────────────
	notifications := service.NewNotificationQueue(log)

	var trackerNotifier notification.Notifier
	if cfg.Features.IsEnabled(config.FeatureNotifyPosture, nil) {
		trackerNotifier = notifications
	}

	sessions := service.NewSessionRuntime(service.RuntimeOptions{
		Events:       eventRepo,
		Stats:        statsRepo,
		Settings:     settingsRepo,
		Notifier:     trackerNotifier,
		Publisher:    eventBus,
		Logger:       log,
		TickInterval: cfg.Tracking.TickInterval,
	})
	defer func() {
		log.Info("ending active sessions")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		if err := sessions.Close(shutdownCtx); err != nil {
			log.Warn("session runtime shutdown incomplete", logger.Err(err))
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	registerUser := command.NewRegisterUserHandler(userRepo, settingsRepo, eventBus, log)
	authenticateUser := command.NewAuthenticateUserHandler(userRepo, log)
	saveSettings := command.NewSaveSettingsHandler(userRepo, settingsRepo, log)
	completeBreak := command.NewCompleteBreakHandler(gameRepo, leaderboardCache, eventBus, log)
	deleteUser := command.NewDeleteUserHandler(userRepo, eventBus, log)

	getLeaderboard := query.NewGetLeaderboardHandler(leaderboardRepo, leaderboardCache, log)
	getStatistics := query.NewGetStatisticsHandler(eventRepo, log)
	getSettings := query.NewGetSettingsHandler(settingsRepo, log)
	getProgress := query.NewGetProgressHandler(gameRepo, log)
	getChallenges := query.NewGetActiveChallengesHandler(challengeRepo, gameRepo, log)
	listUsers := query.NewListUsersHandler(userRepo, log)
	exportEvents := query.NewExportEventsHandler(eventRepo, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. EVENT SUBSCRIBERS
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Features.IsEnabled(config.FeatureNotifyWelcome, nil) {
		welcome := eventhandler.NewOnUserRegistered(notifications, log)
		if err := eventBus.Subscribe(shared.EventUserRegistered, welcome.Handler()); err != nil {
			return fmt.Errorf("failed to subscribe welcome handler: %w", err)
		}
	}
	if cfg.Features.IsEnabled(config.FeatureNotifyCelebrations, nil) {
		celebrations := eventhandler.NewOnBreakCompleted(gameRepo, challengeRepo, notifications, log)
		if err := eventBus.Subscribe(shared.EventBreakCompleted, celebrations.Handler()); err != nil {
			return fmt.Errorf("failed to subscribe celebration handler: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Scheduler.Enabled {
		slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		sched := scheduler.New(scheduler.Config{
			Logger:   slogger,
			Timezone: cfg.App.Location,
		})

		if cfg.Features.IsEnabled(config.FeaturePruneEvents, nil) {
			prune := jobs.NewPruneEvents(eventRepo, cfg.Scheduler.EventRetentionDays, slogger)
			daily := scheduler.NewDailySchedule(cfg.Scheduler.PruneHour, cfg.Scheduler.PruneMinute)
			if err := sched.Register(prune, daily); err != nil {
				return fmt.Errorf("failed to register prune job: %w", err)
			}
		}

		if leaderboardCache != nil && cfg.Features.IsEnabled(config.FeatureLeaderboardRefresh, nil) {
			refresh := jobs.NewRefreshLeaderboardCache(leaderboardRepo, leaderboardCache, slogger)
			interval := scheduler.NewIntervalSchedule(cfg.Scheduler.LeaderboardRefreshInterval)
			if err := sched.Register(refresh, interval); err != nil {
				return fmt.Errorf("failed to register leaderboard refresh job: %w", err)
			}
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler")
			_ = sched.Stop()
		}()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	httpCfg.EnableCORS = cfg.HTTP.EnableCORS
	httpCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute

	server := httpserver.NewServer(httpCfg, httpserver.Dependencies{
		RegisterUser:     registerUser,
		AuthenticateUser: authenticateUser,
		SaveSettings:     saveSettings,
		CompleteBreak:    completeBreak,
		DeleteUser:       deleteUser,

		GetLeaderboard:      getLeaderboard,
		GetStatistics:       getStatistics,
		GetSettings:         getSettings,
		GetProgress:         getProgress,
		GetActiveChallenges: getChallenges,
		ListUsers:           listUsers,
		ExportEvents:        exportEvents,

		Sessions:      sessions,
		Notifications: notifications,
		HealthChecker: conn,
		Logger:        log,
	})

	errCh := server.StartAsync()
	log.Info("ActiveBreak service is running", logger.String("address", httpCfg.Address()))

	// ─────────────────────────────────────────────────────────────────────────
	// 12. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}
