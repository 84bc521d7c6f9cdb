// Knowledge MCP server: exposes the desk's knowledge base and the active
// conversation's insights to external agents over stdio.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/DevRickLin/support-desk/internal/conf"
	"github.com/DevRickLin/support-desk/internal/infra/logger"
	"github.com/DevRickLin/support-desk/internal/mcp"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := conf.LoadFromEnv()

	lg, err := logger.New(cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := mcp.NewClient(cfg.MCP.DeskURL)
	if err := client.Health(ctx); err != nil {
		lg.Warn("desk API not reachable yet", zap.String("url", cfg.MCP.DeskURL), zap.Error(err))
	}

	server := mcp.NewServer(mcp.NewHandler(client))
	lg.Info("serving MCP over stdio", zap.String("desk", cfg.MCP.DeskURL))
	if err := server.Run(ctx, &sdk.StdioTransport{}); err != nil && ctx.Err() == nil {
		lg.Fatal("MCP server error", zap.Error(err))
	}
}
