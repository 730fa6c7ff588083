package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"follownet/backend/internal/api"
	"follownet/backend/internal/graph"
	"follownet/backend/internal/notify"
	"follownet/backend/internal/notifylog"
	"follownet/backend/internal/relationship"
	"follownet/backend/pkg/config"
	"follownet/backend/pkg/logger"
)

func main() {
	// Load configuration first so the logger knows the environment
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting relationship server...")

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify Neo4j connection
	if err := driver.VerifyConnectivity(context.Background()); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	// Open the notification log; it lives in its own store, outside any
	// graph transaction
	notificationLog, err := notifylog.Open(cfg.NotificationsDB)
	if err != nil {
		log.Fatal("Failed to open notification log", zap.Error(err))
	}
	defer notificationLog.Close()

	// Pick the emitter: HTTP to a remote notification deployment when
	// configured, otherwise straight into the local log
	var emitter notify.Emitter
	if cfg.NotificationsURL != "" {
		emitter = notify.NewHTTPEmitter(cfg.NotificationsURL)
		log.Info("Using remote notification API", zap.String("url", cfg.NotificationsURL))
	} else {
		emitter = notify.NewLogEmitter(notificationLog)
	}

	graphRepo := graph.NewRepository(driver)
	if err := graphRepo.EnsureSchema(context.Background()); err != nil {
		log.Fatal("Failed to ensure graph schema", zap.Error(err))
	}

	service := relationship.NewService(graphRepo, emitter)
	server := api.NewServer(service, notificationLog, cfg.RetentionDays)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Retention sweeper: periodically prunes read notifications past the
	// retention threshold
	if cfg.SweepIntervalHrs > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(time.Duration(cfg.SweepIntervalHrs) * time.Hour)
			defer ticker.Stop()

			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					deleted, err := notificationLog.Prune(gctx, cfg.RetentionDays)
					if err != nil {
						log.Error("Retention sweep failed", zap.Error(err))
						continue
					}
					log.Info("Retention sweep complete", zap.Int64("deleted", deleted))
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatal("Server exited with error", zap.Error(err))
	}

	log.Info("Server exited")
}
