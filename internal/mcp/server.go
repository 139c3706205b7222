package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DevRickLin/wingman/internal/api"
	"github.com/DevRickLin/wingman/internal/biz/domain"
	"github.com/DevRickLin/wingman/internal/service"
)

// Dashboard is the dashboard surface the tools operate on
type Dashboard interface {
	Status(ctx context.Context) (*api.StatusResponse, error)
	Settings(ctx context.Context) (*domain.Settings, error)
	UpdateSettings(ctx context.Context, patch api.SettingsPatch) (*domain.Settings, error)
	Personalities(ctx context.Context) ([]string, string, error)
	Stats(ctx context.Context) (map[string]int64, error)
	Usage(ctx context.Context) (*domain.UsageRecord, error)
	Decisions(ctx context.Context, limit int) ([]domain.Decision, error)
	Pending(ctx context.Context) ([]*domain.PendingReply, error)
	Approve(ctx context.Context, id, text string) error
	Discard(ctx context.Context, id string) error
	Rejected(ctx context.Context) ([]string, error)
	Reject(ctx context.Context, conversationID string) error
	Unreject(ctx context.Context, conversationID string) error
	RunPass(ctx context.Context) (*service.PassResult, error)
	RunOutreach(ctx context.Context, count int) (*service.OutreachResult, error)
	Swipe(ctx context.Context, count int) (*domain.SwipeResult, error)
}

// Server exposes the dashboard as MCP tools over stdio
type Server struct {
	server *mcp.Server
	dash   Dashboard
}

// NewServer creates the MCP server and registers its tools
func NewServer(dash Dashboard, version string) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{Name: "wingman", Version: version}, nil),
		dash:   dash,
	}
	s.registerTools()
	return s
}

// Run serves MCP over stdin/stdout until ctx is done
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// NoInput is the argument type of tools without parameters
type NoInput struct{}

// IDInput addresses a pending draft
type IDInput struct {
	ID string `json:"id" jsonschema:"The pending draft ID"`
}

// ApproveInput approves a draft, optionally with edited text
type ApproveInput struct {
	ID   string `json:"id" jsonschema:"The pending draft ID"`
	Text string `json:"text,omitempty" jsonschema:"Replacement text to send instead of the draft"`
}

// ConversationInput addresses a conversation
type ConversationInput struct {
	ConversationID string `json:"conversation_id" jsonschema:"The conversation ID"`
}

// CountInput sizes a run
type CountInput struct {
	Count int `json:"count,omitempty" jsonschema:"How many to process, 0 uses the configured default"`
}

// LimitInput bounds a listing
type LimitInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of records (default 20)"`
}

// SettingsInput changes runtime settings; omitted fields are kept
type SettingsInput struct {
	BotEnabled      *bool    `json:"bot_enabled,omitempty" jsonschema:"Run scheduled passes"`
	AutoApprove     *bool    `json:"auto_approve,omitempty" jsonschema:"Send replies without operator approval"`
	AutoSwipe       *bool    `json:"auto_swipe,omitempty" jsonschema:"Run a swipe session after each scheduled pass"`
	Personality     *string  `json:"personality,omitempty" jsonschema:"Personality name"`
	MatchLimit      *int     `json:"match_limit,omitempty" jsonschema:"Maximum conversations fetched per pass"`
	MaxTokens       *int     `json:"max_tokens,omitempty" jsonschema:"Reply length budget in tokens"`
	Temperature     *float32 `json:"temperature,omitempty" jsonschema:"Sampling temperature between 0 and 2"`
	MessageDelayMin *int     `json:"message_delay_min,omitempty" jsonschema:"Minimum seconds between sends"`
	MessageDelayMax *int     `json:"message_delay_max,omitempty" jsonschema:"Maximum seconds between sends"`
	OutreachCount   *int     `json:"outreach_count,omitempty" jsonschema:"Default openers per outreach run"`
	SwipeLimit      *int     `json:"swipe_limit,omitempty" jsonschema:"Default profiles per swipe session"`
}

func (in SettingsInput) patch() api.SettingsPatch {
	return api.SettingsPatch{
		BotEnabled:      in.BotEnabled,
		AutoApprove:     in.AutoApprove,
		AutoSwipe:       in.AutoSwipe,
		Personality:     in.Personality,
		MatchLimit:      in.MatchLimit,
		MaxTokens:       in.MaxTokens,
		Temperature:     in.Temperature,
		MessageDelayMin: in.MessageDelayMin,
		MessageDelayMax: in.MessageDelayMax,
		OutreachCount:   in.OutreachCount,
		SwipeLimit:      in.SwipeLimit,
	}
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "wingman_status",
		Description: "Show whether the bot is enabled, the approval mode, the last pass result and queue sizes.",
	}, s.handleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "wingman_get_settings",
		Description: "Show the current runtime settings.",
	}, s.handleGetSettings)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "wingman_update_settings",
		Description: "Change runtime settings such as enabling the bot, approval mode or personality. Only the given fields change.",
	}, s.handleUpdateSettings)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "wingman_list_personalities",
		Description: "List the selectable reply personalities and the one in use.",
	}, s.handlePersonalities)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "wingman_stats",
		Description: "Show reply, approval, outreach and swipe counters together with token usage.",
	}, s.handleStats)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "wingman_recent_decisions",
		Description: "Show the most recent reply decisions: what was received, what was sent or queued, and why.",
	}, s.handleDecisions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "wingman_list_pending",
		Description: "List drafted replies waiting for approval.",
	}, s.handleListPending)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "wingman_approve",
		Description: "Send a pending draft. Pass text to send an edited version instead.",
	}, s.handleApprove)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "wingman_discard",
		Description: "Drop a pending draft without sending. The message will not be answered automatically.",
	}, s.handleDiscard)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "wingman_list_rejected",
		Description: "List conversations excluded from automatic replies.",
	}, s.handleListRejected)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "wingman_reject",
		Description: "Exclude a conversation from automatic replies and outreach.",
	}, s.handleReject)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "wingman_unreject",
		Description: "Allow automatic replies for a previously rejected conversation.",
	}, s.handleUnreject)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "wingman_run_pass",
		Description: "Run one reply pass now and report what was sent, queued or skipped.",
	}, s.handleRunPass)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "wingman_run_outreach",
		Description: "Send opening messages to matches that have never been messaged.",
	}, s.handleRunOutreach)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "wingman_swipe",
		Description: "Run a swipe session and report likes, passes and new matches.",
	}, s.handleSwipe)
}

func (s *Server) handleStatus(ctx context.Context, req *mcp.CallToolRequest, in NoInput) (*mcp.CallToolResult, any, error) {
	status, err := s.dash.Status(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(status)
}

func (s *Server) handleGetSettings(ctx context.Context, req *mcp.CallToolRequest, in NoInput) (*mcp.CallToolResult, any, error) {
	settings, err := s.dash.Settings(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(settings)
}

func (s *Server) handleUpdateSettings(ctx context.Context, req *mcp.CallToolRequest, in SettingsInput) (*mcp.CallToolResult, any, error) {
	settings, err := s.dash.UpdateSettings(ctx, in.patch())
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(settings)
}

func (s *Server) handlePersonalities(ctx context.Context, req *mcp.CallToolRequest, in NoInput) (*mcp.CallToolResult, any, error) {
	names, current, err := s.dash.Personalities(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(map[string]interface{}{"personalities": names, "current": current})
}

func (s *Server) handleStats(ctx context.Context, req *mcp.CallToolRequest, in NoInput) (*mcp.CallToolResult, any, error) {
	stats, err := s.dash.Stats(ctx)
	if err != nil {
		return nil, nil, err
	}
	usage, err := s.dash.Usage(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(map[string]interface{}{"stats": stats, "usage": usage})
}

func (s *Server) handleDecisions(ctx context.Context, req *mcp.CallToolRequest, in LimitInput) (*mcp.CallToolResult, any, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = 20
	}
	recs, err := s.dash.Decisions(ctx, limit)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(map[string]interface{}{"decisions": recs})
}

func (s *Server) handleListPending(ctx context.Context, req *mcp.CallToolRequest, in NoInput) (*mcp.CallToolResult, any, error) {
	drafts, err := s.dash.Pending(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(drafts) == 0 {
		return textResult("No drafts waiting for approval."), nil, nil
	}
	return jsonResult(map[string]interface{}{"pending": drafts})
}

func (s *Server) handleApprove(ctx context.Context, req *mcp.CallToolRequest, in ApproveInput) (*mcp.CallToolResult, any, error) {
	if in.ID == "" {
		return nil, nil, fmt.Errorf("id is required")
	}
	if err := s.dash.Approve(ctx, in.ID, in.Text); err != nil {
		return nil, nil, err
	}
	return textResult(fmt.Sprintf("Draft %s sent.", in.ID)), nil, nil
}

func (s *Server) handleDiscard(ctx context.Context, req *mcp.CallToolRequest, in IDInput) (*mcp.CallToolResult, any, error) {
	if in.ID == "" {
		return nil, nil, fmt.Errorf("id is required")
	}
	if err := s.dash.Discard(ctx, in.ID); err != nil {
		return nil, nil, err
	}
	return textResult(fmt.Sprintf("Draft %s discarded.", in.ID)), nil, nil
}

func (s *Server) handleListRejected(ctx context.Context, req *mcp.CallToolRequest, in NoInput) (*mcp.CallToolResult, any, error) {
	ids, err := s.dash.Rejected(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(map[string]interface{}{"rejected": ids})
}

func (s *Server) handleReject(ctx context.Context, req *mcp.CallToolRequest, in ConversationInput) (*mcp.CallToolResult, any, error) {
	if in.ConversationID == "" {
		return nil, nil, fmt.Errorf("conversation_id is required")
	}
	if err := s.dash.Reject(ctx, in.ConversationID); err != nil {
		return nil, nil, err
	}
	return textResult(fmt.Sprintf("Conversation %s rejected.", in.ConversationID)), nil, nil
}

func (s *Server) handleUnreject(ctx context.Context, req *mcp.CallToolRequest, in ConversationInput) (*mcp.CallToolResult, any, error) {
	if in.ConversationID == "" {
		return nil, nil, fmt.Errorf("conversation_id is required")
	}
	if err := s.dash.Unreject(ctx, in.ConversationID); err != nil {
		return nil, nil, err
	}
	return textResult(fmt.Sprintf("Conversation %s is eligible for replies again.", in.ConversationID)), nil, nil
}

func (s *Server) handleRunPass(ctx context.Context, req *mcp.CallToolRequest, in NoInput) (*mcp.CallToolResult, any, error) {
	res, err := s.dash.RunPass(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(res)
}

func (s *Server) handleRunOutreach(ctx context.Context, req *mcp.CallToolRequest, in CountInput) (*mcp.CallToolResult, any, error) {
	res, err := s.dash.RunOutreach(ctx, in.Count)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(res)
}

func (s *Server) handleSwipe(ctx context.Context, req *mcp.CallToolRequest, in CountInput) (*mcp.CallToolResult, any, error) {
	res, err := s.dash.Swipe(ctx, in.Count)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(res)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func jsonResult(v interface{}) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return textResult(string(data)), nil, nil
}
