package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/huyvu-developer/chat-app-BE/api/handlers"
	"github.com/huyvu-developer/chat-app-BE/api/middleware"
	"github.com/huyvu-developer/chat-app-BE/api/routes"
	"github.com/huyvu-developer/chat-app-BE/config"
	"github.com/huyvu-developer/chat-app-BE/db"
	"github.com/huyvu-developer/chat-app-BE/logger"
	"github.com/huyvu-developer/chat-app-BE/repository"
	"github.com/huyvu-developer/chat-app-BE/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config/app.yaml", "Path to the configuration file")
	flag.Parse()

	if err := config.LoadConfig(configPath); err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	conf := config.AppConfig

	log, err := logger.Init(conf.Logs.Level, conf.Logs.Service)
	if err != nil {
		panic("Failed to init logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orm, err := db.ConnectDB(conf)
	if err != nil {
		log.Fatal("failed to connect to the database", zap.Error(err))
	}
	if sqlDB, err := orm.DB(); err == nil {
		defer sqlDB.Close()
	}

	var redisClient *redis.Client
	if conf.NeedsRedis() {
		redisClient, err = services.NewRedisClient(ctx, conf.Redis)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
	}

	messageRepo := repository.NewGormMessageRepository(orm)
	conversationRepo := repository.NewGormConversationRepository(orm)

	var relationRepo repository.RelationRepository = repository.NewGormRelationRepository(orm)
	if conf.Relations.Backend == config.BackendRedis {
		relationRepo = repository.NewRedisRelationRepository(redisClient)
	}
	var sequencer repository.Sequencer = repository.NewGormSequencer(orm)
	if conf.Messages.Sequencer == config.BackendRedis {
		sequencer = repository.NewRedisSequencer(redisClient, messageRepo.MaxOrder)
	}

	var events services.EventPublisher = services.NopPublisher{}
	if conf.RabbitMQ.URL != "" {
		publisher, err := services.NewRabbitPublisher(conf.RabbitMQ.URL, conf.RabbitMQ.Exchange)
		if err != nil {
			log.Warn("event publishing disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			events = publisher
		}
	}

	var (
		repairs     services.Repairer
		repairQueue *services.RepairQueue
	)
	if conf.Repair.Enabled {
		repairQueue = services.NewRepairQueue(redisClient, relationRepo, messageRepo, conversationRepo,
			conf.Repair.Workers, conf.Repair.MaxAttempts, log)
		repairQueue.StartWorkers(ctx)
		repairs = repairQueue
	}

	receipts := services.NewReadReceiptService(messageRepo, events, log)
	h := handlers.New(
		services.NewFriendService(relationRepo, events, repairs, log),
		services.NewMessageLedger(messageRepo, conversationRepo, sequencer, events, repairs, log),
		receipts,
		services.NewConversationDirectory(conversationRepo, receipts, conf.Directory.UnreadConcurrency, log),
		log,
	)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestMetrics(conf.Logs.Service))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	routes.PublicApi(router, h)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", conf.Backend.Host, conf.Backend.Port),
		Handler: router,
	}
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	if repairQueue != nil {
		repairQueue.Wait()
	}
}
