package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"jobboard/internal/ai"
	"jobboard/internal/api"
	"jobboard/internal/auth"
	"jobboard/internal/chat"
	"jobboard/internal/config"
	"jobboard/internal/database"
	"jobboard/internal/files"
	"jobboard/internal/notify"
	"jobboard/internal/storage"
	"jobboard/internal/workflow"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}
	logger.Info("database ready")

	authService, err := auth.NewAuthService(
		[]byte(cfg.Auth.PrivateKeyPEM),
		[]byte(cfg.Auth.PublicKeyPEM),
		cfg.Auth.AccessTTL(),
		cfg.Auth.RefreshTTL(),
	)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	logger.Info("storage ready", slog.String("bucket", cfg.MinIO.Bucket))

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	defer asynqClient.Close()

	aiClient, err := ai.NewClient(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		log.Fatalf("init ai client: %v", err)
	}

	notifyService := notify.NewService(db, redisClient, logger)
	applicationService := workflow.NewApplicationService(db, notifyService, aiClient, logger)
	interviewService := workflow.NewInterviewService(db, applicationService, notifyService, logger)
	filesService := files.NewService(db, storageClient, asynqClient, aiClient, logger)
	chatService := chat.NewService(db, notifyService, logger)

	router := api.NewRouter(logger)
	api.RegisterRoutes(router, api.Dependencies{
		DB:            db,
		AuthService:   authService,
		RedisClient:   redisClient,
		Logger:        logger,
		Applications:  applicationService,
		Interviews:    interviewService,
		Files:         filesService,
		Chat:          chatService,
		Notifications: notifyService,
		Advisor:       aiClient,
		ClamdAddr:     cfg.Clamd.Addr,
	})

	address := fmt.Sprintf(":%d", cfg.API.Port)
	logger.Info("api listening", slog.String("address", address))
	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}
