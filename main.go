package main

import (
	"context"
	"math/rand"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"whisper-service/internal/config"
	"whisper-service/internal/demo"
	"whisper-service/internal/handlers"
	"whisper-service/internal/middleware"
	"whisper-service/internal/models"
	"whisper-service/internal/observability"
	"whisper-service/internal/rabbitmq"
	"whisper-service/internal/session"
	"whisper-service/internal/store"
	"whisper-service/internal/telemetry"
	"whisper-service/internal/ws"
)

const serviceName = "whisper-service"

func main() {
	cfg := config.Load()
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", serviceName).Logger()

	ctx := context.Background()
	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init tracing")
	}
	defer shutdownTracer(ctx)

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
	defer publisher.Close()
	log.Info().Str("mode", rabbitmq.Mode(publisher)).Msg("event publisher ready")
	observability.SetEventSink(publisher)

	audit := telemetry.NewAuditEmitter(publisher, cfg.AuditRoutingKey, serviceName, cfg.Environment, log)

	hub := ws.NewHub(log)

	localUser := models.User{ID: cfg.UserID, Username: cfg.Username, Presence: models.PresenceOnline}
	clk := clock.New()
	conversations := store.New(localUser, store.Options{
		Clock:        clk,
		DeliverAfter: cfg.DeliverAfter,
		ReadAfter:    cfg.ReadAfter,
		OnStatusChange: func(chatID string, msg models.Message) {
			observability.IncStatusTransition(string(msg.Status))
			hub.BroadcastStatus(chatID, msg)
		},
		Logger: log,
	})
	defer conversations.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	if cfg.DemoChats > 0 {
		if err := demo.Seed(conversations, rng, cfg.DemoChats); err != nil {
			log.Warn().Err(err).Msg("demo seed failed")
		} else {
			log.Info().Int("chats", cfg.DemoChats).Msg("demo data seeded")
		}
	}

	var responder handlers.Responder
	if cfg.DemoReplies {
		responder = demo.NewResponder(func(chatID, content string) {
			msg, err := conversations.Receive(chatID, content, nil)
			if err != nil {
				log.Warn().Err(err).Str("chat_id", chatID).Msg("demo reply failed")
				return
			}
			observability.IncMessage("received")
			hub.BroadcastMessage(chatID, msg)
		}, rng, 2*time.Second, 0.6, func(d time.Duration, f func()) { clk.AfterFunc(d, f) })
	}

	sessions := session.NewStaticProvider()
	sessions.Register(cfg.SessionToken, session.Identity{UserID: cfg.UserID, Username: cfg.Username})

	conversationHandler := handlers.NewConversationHandler(conversations, hub, audit, responder)
	chatWS := ws.NewChatWebSocketHandler(hub, conversations, sessions)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	sessionMiddleware := middleware.SessionMiddleware(sessions)

	router.GET("/chats", sessionMiddleware, conversationHandler.ListChats)
	router.POST("/chats", sessionMiddleware, conversationHandler.CreateChat)
	router.POST("/chats/:chat_id/select", sessionMiddleware, conversationHandler.SelectChat)
	router.GET("/chats/:chat_id/messages", sessionMiddleware, conversationHandler.GetChatMessages)
	router.POST("/chats/:chat_id/messages", sessionMiddleware, conversationHandler.PostChatMessage)
	router.POST("/chats/:chat_id/inbound", sessionMiddleware, conversationHandler.PostInboundMessage)
	router.DELETE("/chats/:chat_id/messages/:message_id", sessionMiddleware, conversationHandler.DeleteMessage)
	router.POST("/chats/:chat_id/messages/:message_id/reactions", sessionMiddleware, conversationHandler.ReactToMessage)
	router.POST("/messages/:message_id/forward", sessionMiddleware, conversationHandler.ForwardMessage)
	router.POST("/messages/:message_id/status", sessionMiddleware, conversationHandler.AdvanceMessageStatus)

	router.GET("/ws/chats/:chat_id", chatWS.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	log.Info().Str("port", cfg.Port).Msg("listening")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
