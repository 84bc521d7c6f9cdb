package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/DevRickLin/support-desk/internal/api"
	"github.com/DevRickLin/support-desk/internal/biz"
	"github.com/DevRickLin/support-desk/internal/conf"
	"github.com/DevRickLin/support-desk/internal/data"
	"github.com/DevRickLin/support-desk/internal/infra/feishu"
	"github.com/DevRickLin/support-desk/internal/infra/genai"
	"github.com/DevRickLin/support-desk/internal/infra/logger"
	"github.com/DevRickLin/support-desk/internal/service"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := conf.LoadFromEnv()

	lg, err := logger.New(cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer lg.Sync()

	if err := cfg.Validate(); err != nil {
		lg.Fatal("invalid config", zap.Error(err))
	}
	for _, w := range cfg.Warnings() {
		lg.Warn(w)
	}
	if cfg.Prompts.LoadError != nil {
		lg.Warn("prompts file unusable, using defaults", zap.Error(cfg.Prompts.LoadError))
	} else if cfg.Prompts.Source != "" {
		lg.Info("loaded prompts", zap.String("path", cfg.Prompts.Source))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients
	genaiClient := genai.NewClient(cfg.GenAI.APIKey, cfg.GenAI.BaseURL, cfg.GenAI.Model)
	lg.Info("generative API configured", zap.String("model", genaiClient.Model()))

	opts := data.Options{
		SeedPath:     cfg.Seed.Path,
		KnowledgeDSN: cfg.Knowledge.DBPath,
		SuccessRate:  cfg.Desk.SuccessRate,
	}
	if cfg.Feishu.Enabled() {
		feishuClient := feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret)
		info, err := data.CheckFeishuChat(ctx, feishuClient, cfg.Feishu.ChatID)
		if err != nil {
			lg.Fatal("feishu relay chat unavailable", zap.Error(err))
		}
		lg.Info("relaying agent messages to feishu", zap.String("chat", info.Name))
		opts.Feishu = feishuClient
		opts.FeishuChatID = cfg.Feishu.ChatID
	}

	// Initialize repository layer
	repos, err := data.NewRepositories(ctx, genaiClient, opts, lg)
	if err != nil {
		lg.Fatal("failed to create repositories", zap.Error(err))
	}
	defer repos.Close()

	// Initialize usecase layer
	ucs := biz.NewUsecases(repos.Knowledge, repos.Assist, repos.Directory, cfg.ToPromptConfig(), lg)

	// Initialize service layer
	conversations, err := repos.Directory.Conversations(ctx)
	if err != nil {
		lg.Fatal("failed to load conversations", zap.Error(err))
	}
	desk, err := service.NewDeskService(
		conversations,
		ucs.Insight,
		ucs.Customer,
		repos.Delivery,
		service.SystemClock(),
		cfg.ToDeskConfig(),
		lg.Named("desk"),
	)
	if err != nil {
		lg.Fatal("failed to create desk", zap.Error(err))
	}
	desk.StartEventLoop(ctx)

	// Initialize HTTP API server
	apiServer := api.NewServer(desk, ucs.Knowledge, ucs.Customer, ucs.Analytics, cfg.Server.Addr, cfg.Server.AllowedOrigins, lg.Named("api"))
	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		lg.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			lg.Error("API server error", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		lg.Warn("API server shutdown", zap.Error(err))
	}
	cancel()
	<-desk.Done()
}
