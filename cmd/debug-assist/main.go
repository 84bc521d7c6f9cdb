// debug-assist runs one insight invocation against the generative API for a
// seeded conversation, or for a single message given on the command line.
//
// Usage:
//
//	debug-assist [-conversation conv1] [-message "What is the battery life?"]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/DevRickLin/support-desk/internal/biz"
	"github.com/DevRickLin/support-desk/internal/biz/domain"
	"github.com/DevRickLin/support-desk/internal/conf"
	"github.com/DevRickLin/support-desk/internal/data"
	"github.com/DevRickLin/support-desk/internal/infra/genai"
	"github.com/DevRickLin/support-desk/internal/infra/logger"
)

func main() {
	conversationID := flag.String("conversation", "conv1", "seeded conversation to analyse")
	message := flag.String("message", "", "analyse this single customer message instead")
	timeout := flag.Duration("timeout", 60*time.Second, "overall timeout")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := conf.LoadFromEnv()
	lg, err := logger.New(true)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer lg.Sync()

	if cfg.GenAI.APIKey == "" {
		lg.Fatal("GENAI_API_KEY must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	genaiClient := genai.NewClient(cfg.GenAI.APIKey, cfg.GenAI.BaseURL, cfg.GenAI.Model)
	repos, err := data.NewRepositories(ctx, genaiClient, data.Options{
		SeedPath:     cfg.Seed.Path,
		KnowledgeDSN: cfg.Knowledge.DBPath,
	}, lg)
	if err != nil {
		lg.Fatal("failed to create repositories", zap.Error(err))
	}
	defer repos.Close()

	ucs := biz.NewUsecases(repos.Knowledge, repos.Assist, repos.Directory, cfg.ToPromptConfig(), lg)

	var history []domain.Message
	if *message != "" {
		history = []domain.Message{domain.NewMessage(domain.RoleUser, *message, time.Now())}
	} else {
		conversations, err := repos.Directory.Conversations(ctx)
		if err != nil {
			lg.Fatal("failed to load conversations", zap.Error(err))
		}
		for _, c := range conversations {
			if c.ID == *conversationID {
				history = c.History()
			}
		}
		if history == nil {
			lg.Fatal("unknown conversation", zap.String("id", *conversationID))
		}
	}

	fmt.Printf("Model: %s\n", genaiClient.Model())
	fmt.Printf("History: %d messages\n\n", len(history))

	start := time.Now()
	for update := range ucs.Insight.Stream(ctx, history) {
		out, _ := json.MarshalIndent(update, "", "  ")
		fmt.Printf("[%s] %s\n", time.Since(start).Round(time.Millisecond), out)
	}

	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "timed out")
		os.Exit(1)
	}
}
