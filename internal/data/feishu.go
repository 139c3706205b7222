package data

import (
	"context"
	"fmt"

	"github.com/DevRickLin/wingman/internal/biz/domain"
	"github.com/DevRickLin/wingman/internal/biz/repo"
	"github.com/DevRickLin/wingman/internal/infra/feishu"
)

// richTextSender is the subset of the Feishu client the notifier needs
type richTextSender interface {
	SendRichText(ctx context.Context, chatID, title string, content [][]map[string]interface{}) error
}

// feishuNotifier posts pending drafts to an operator chat
type feishuNotifier struct {
	client       richTextSender
	chatID       string
	dashboardURL string
}

// NewFeishuNotifier creates a notifier. Without credentials or a chat it returns a no-op notifier.
func NewFeishuNotifier(appID, appSecret, chatID, dashboardURL string) repo.Notifier {
	if appID == "" || appSecret == "" || chatID == "" {
		return noopNotifier{}
	}
	return &feishuNotifier{
		client:       feishu.NewClient(appID, appSecret),
		chatID:       chatID,
		dashboardURL: dashboardURL,
	}
}

// NotifyPending posts the draft with its ID so it can be approved from the dashboard or MCP tools
func (n *feishuNotifier) NotifyPending(ctx context.Context, p *domain.PendingReply) error {
	text := func(s string) map[string]interface{} {
		return map[string]interface{}{"tag": "text", "text": s}
	}
	content := [][]map[string]interface{}{
		{text(fmt.Sprintf("%s wrote: %s", p.DisplayName, p.InboundText))},
		{text(fmt.Sprintf("Draft (%s): %s", p.Personality, p.Reply))},
		{text("ID: " + p.ID)},
	}
	if n.dashboardURL != "" {
		content = append(content, []map[string]interface{}{
			{"tag": "a", "text": "Review pending replies", "href": n.dashboardURL + "/api/pending"},
		})
	}

	if err := n.client.SendRichText(ctx, n.chatID, "Reply awaiting approval", content); err != nil {
		return fmt.Errorf("notify pending %s: %w", p.ID, err)
	}
	return nil
}

type noopNotifier struct{}

func (noopNotifier) NotifyPending(ctx context.Context, p *domain.PendingReply) error {
	return nil
}
