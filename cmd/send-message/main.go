// send-message posts one agent message into the Feishu relay chat, the same
// way the desk does when FEISHU_* is configured.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/DevRickLin/support-desk/internal/biz/domain"
	"github.com/DevRickLin/support-desk/internal/conf"
	"github.com/DevRickLin/support-desk/internal/data"
	"github.com/DevRickLin/support-desk/internal/infra/feishu"
	"github.com/DevRickLin/support-desk/internal/infra/logger"
)

func main() {
	godotenv.Load()

	cfg := conf.LoadFromEnv()
	if !cfg.Feishu.Enabled() {
		fmt.Println("Error: FEISHU_APP_ID, FEISHU_APP_SECRET and FEISHU_CHAT_ID must be set")
		os.Exit(1)
	}

	if len(os.Args) < 3 {
		fmt.Println("Usage: send-message <conversation_id> <message>")
		os.Exit(1)
	}

	conversationID := os.Args[1]
	message := strings.Join(os.Args[2:], " ")

	lg, err := logger.New(cfg.Debug)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret)
	info, err := data.CheckFeishuChat(ctx, client, cfg.Feishu.ChatID)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	delivery := data.NewFeishuDelivery(client, cfg.Feishu.ChatID, lg)
	msg := domain.NewMessage(domain.RoleAgent, message, time.Now())
	if err := delivery.Deliver(ctx, conversationID, msg); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Message sent to %s!\n", info.Name)
}
