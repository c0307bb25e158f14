package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/thuan734655/DACS3-Server/internal/config"
	"github.com/thuan734655/DACS3-Server/internal/infrastructure/dynamo"
	jwtinfra "github.com/thuan734655/DACS3-Server/internal/infrastructure/jwt"
	natsrelay "github.com/thuan734655/DACS3-Server/internal/infrastructure/nats"
	"github.com/thuan734655/DACS3-Server/internal/realtime/fanout"
	"github.com/thuan734655/DACS3-Server/internal/realtime/registry"
	transporthttp "github.com/thuan734655/DACS3-Server/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	logger := newLogger(cfg.AppEnv)
	slog.SetDefault(logger)

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(context.Background(), cfg)
	if err != nil {
		log.Fatalf("DynamoDB client: %v", err)
	}
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// Every socket handshake and API call is token-authenticated, so the keys are required.
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider not available: %v", err)
	}

	reg := registry.New()
	engine := fanout.New(reg, fanout.WithLogger(logger))

	// Cluster relay (optional, only when NATS_URL is set).
	var relay *natsrelay.Relay
	if cfg.NATSURL != "" {
		relay, err = natsrelay.Connect(cfg.NATSURL, cfg.NATSSubject, logger)
		if err != nil {
			log.Fatalf("NATS relay: %v", err)
		}
		engine.SetRelay(relay)
		if err := relay.Subscribe(engine); err != nil {
			log.Fatalf("NATS relay: %v", err)
		}
		log.Printf("Cluster relay on %s (node=%s)", cfg.NATSSubject, relay.NodeID())
	}

	deps := &transporthttp.Deps{
		UserRepo:         dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		WorkspaceRepo:    dynamo.NewWorkspaceRepo(dynamoClient, cfg.DynamoTables.Workspaces),
		ChannelRepo:      dynamo.NewChannelRepo(dynamoClient, cfg.DynamoTables.Channels),
		MessageRepo:      dynamo.NewMessageRepo(dynamoClient, cfg.DynamoTables.Messages),
		MembershipRepo:   dynamo.NewMembershipRepo(dynamoClient, cfg.DynamoTables.Memberships),
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		JWTProvider:      jwtProvider,
		Registry:         reg,
		Engine:           engine,
		Logger:           logger,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	if relay != nil {
		if err := relay.Close(); err != nil {
			log.Printf("NATS drain: %v", err)
		}
	}
	log.Printf("Server stopped (%d websocket connections dropped)", reg.Len())
}

func newLogger(env string) *slog.Logger {
	if env == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
