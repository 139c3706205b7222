package data

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevRickLin/wingman/internal/biz/domain"
)

type fakeRichTextSender struct {
	chatID  string
	title   string
	content [][]map[string]interface{}
	err     error
}

func (f *fakeRichTextSender) SendRichText(ctx context.Context, chatID, title string, content [][]map[string]interface{}) error {
	f.chatID, f.title, f.content = chatID, title, content
	return f.err
}

func TestFeishuNotifier_NotifyPending(t *testing.T) {
	sender := &fakeRichTextSender{}
	n := &feishuNotifier{client: sender, chatID: "oc_ops", dashboardURL: "http://127.0.0.1:8765"}

	err := n.NotifyPending(context.Background(), &domain.PendingReply{
		ID: "p1", DisplayName: "Sam", InboundText: "hi", Reply: "Hey Sam!", Personality: "default",
	})
	require.NoError(t, err)

	assert.Equal(t, "oc_ops", sender.chatID)
	assert.Equal(t, "Reply awaiting approval", sender.title)
	require.Len(t, sender.content, 4)
	assert.Equal(t, "Sam wrote: hi", sender.content[0][0]["text"])
	assert.Equal(t, "ID: p1", sender.content[2][0]["text"])
	assert.Equal(t, "http://127.0.0.1:8765/api/pending", sender.content[3][0]["href"])
}

func TestFeishuNotifier_Error(t *testing.T) {
	n := &feishuNotifier{client: &fakeRichTextSender{err: errors.New("down")}, chatID: "oc"}
	err := n.NotifyPending(context.Background(), &domain.PendingReply{ID: "p1"})
	assert.ErrorContains(t, err, "notify pending p1")
}

func TestNewFeishuNotifier_NoopWithoutConfig(t *testing.T) {
	n := NewFeishuNotifier("", "", "", "")
	_, isNoop := n.(noopNotifier)
	assert.True(t, isNoop)
	assert.NoError(t, n.NotifyPending(context.Background(), &domain.PendingReply{}))
}
