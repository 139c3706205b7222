package feishu

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"
)

// Client is the Feishu API client used for operator notifications and commands
type Client struct {
	appID     string
	appSecret string
	larkCli   *lark.Client
}

// Message is an inbound text message
type Message struct {
	ChatID   string
	MsgID    string
	SenderID string
	Text     string
}

// NewClient creates a new Feishu client
func NewClient(appID, appSecret string) *Client {
	return &Client{
		appID:     appID,
		appSecret: appSecret,
		larkCli:   lark.NewClient(appID, appSecret),
	}
}

// Listen receives text messages over the event WebSocket until ctx is done.
// The SDK's Start never returns after a successful connect, so it is left
// running in its own goroutine.
func (c *Client) Listen(ctx context.Context, onMessage func(ctx context.Context, msg Message)) error {
	handler := dispatcher.NewEventDispatcher("", "").
		OnP2MessageReceiveV1(func(ctx context.Context, event *larkim.P2MessageReceiveV1) error {
			if msg, ok := textMessage(event); ok {
				onMessage(ctx, msg)
			}
			return nil
		})

	ws := larkws.NewClient(c.appID, c.appSecret,
		larkws.WithEventHandler(handler),
		larkws.WithLogLevel(larkcore.LogLevelWarn),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- ws.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("feishu websocket: %w", err)
		}
		return nil
	}
}

func textMessage(event *larkim.P2MessageReceiveV1) (Message, bool) {
	if event == nil || event.Event == nil || event.Event.Message == nil {
		return Message{}, false
	}
	msg := event.Event.Message
	if msg.MessageType == nil || *msg.MessageType != larkim.MsgTypeText || msg.Content == nil {
		return Message{}, false
	}

	var content struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(*msg.Content), &content); err != nil {
		return Message{}, false
	}

	out := Message{Text: content.Text}
	if msg.ChatId != nil {
		out.ChatID = *msg.ChatId
	}
	if msg.MessageId != nil {
		out.MsgID = *msg.MessageId
	}
	if s := event.Event.Sender; s != nil && s.SenderId != nil && s.SenderId.OpenId != nil {
		out.SenderID = *s.SenderId.OpenId
	}
	return out, true
}

// SendText sends a text message to a chat
func (c *Client) SendText(ctx context.Context, chatID, text string) error {
	content := map[string]string{"text": text}
	contentJSON, _ := json.Marshal(content)
	return c.create(ctx, chatID, larkim.MsgTypeText, string(contentJSON))
}

// SendRichText sends a rich text (post) message to a chat.
// Each inner slice of content is one paragraph of post elements.
func (c *Client) SendRichText(ctx context.Context, chatID, title string, content [][]map[string]interface{}) error {
	post := map[string]interface{}{
		"en_us": map[string]interface{}{
			"title":   title,
			"content": content,
		},
	}
	contentJSON, _ := json.Marshal(post)
	return c.create(ctx, chatID, larkim.MsgTypePost, string(contentJSON))
}

func (c *Client) create(ctx context.Context, chatID, msgType, content string) error {
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(msgType).
			Content(content).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("send message failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("send message error: %s", resp.Msg)
	}
	return nil
}
