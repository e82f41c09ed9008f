package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"realtime-service/internal/auth"
	"realtime-service/internal/config"
	"realtime-service/internal/db"
	"realtime-service/internal/handlers"
	"realtime-service/internal/logging"
	"realtime-service/internal/middleware"
	"realtime-service/internal/observability"
	"realtime-service/internal/rabbitmq"
	"realtime-service/internal/relay"
	"realtime-service/internal/repositories"
	"realtime-service/internal/telemetry"
	"realtime-service/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	ctx := context.Background()
	shutdownTracing, err := observability.SetupTracing(ctx, "realtime-service", cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing(ctx)

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		slog.Error("failed to connect to db", "error", err)
		os.Exit(1)
	}

	if cfg.AMQPURL != "" {
		eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			slog.Warn("event publisher disabled", "error", err)
		} else {
			observability.SetPublisher(eventPublisher)
			defer eventPublisher.Close()
		}
	}

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, "audit.realtime", "realtime-service", cfg.Environment)

	userRepo := repositories.NewUserRepo(database)
	conversationRepo := repositories.NewConversationRepo(database, userRepo, cfg.StrictParticipants)

	authenticator := auth.New(cfg.JWTSecret, userRepo)
	hub := ws.NewHub()
	eventRelay := relay.New(hub, conversationRepo)

	chatWS := ws.NewChatSocketHandler(hub, authenticator, auditEmitter, eventRelay, cfg.SendBuffer)
	announcementsWS := ws.NewAnnouncementSocketHandler(hub, authenticator, auditEmitter, cfg.SendBuffer)
	userWS := ws.NewUserSocketHandler(hub, authenticator, auditEmitter, cfg.SendBuffer)

	relayHandler := handlers.NewRelayHandler(eventRelay, auditEmitter)
	healthHandler := handlers.NewHealthHandler(database)

	if cfg.Environment != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("realtime-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(authenticator)

	router.GET("/ws/chat/:counterpart_id", chatWS.Handle)
	router.GET("/ws/announcements", announcementsWS.Handle)
	router.GET("/ws/user", userWS.Handle)

	router.POST("/internal/announcements/broadcast", authMiddleware, relayHandler.BroadcastAnnouncement)
	router.POST("/internal/competitions/notify", authMiddleware, relayHandler.NotifyCompetition)

	router.GET("/healthz", healthHandler.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.DebugRoutes)

	slog.Info("realtime service listening", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
