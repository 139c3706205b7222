package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DevRickLin/wingman/internal/biz/domain"
	"github.com/DevRickLin/wingman/internal/infra/metrics"
	"github.com/DevRickLin/wingman/internal/service"
)

const defaultDecisionLimit = 50

// StatusResponse is the dashboard overview
type StatusResponse struct {
	BotEnabled    bool           `json:"bot_enabled"`
	AutoApprove   bool           `json:"auto_approve"`
	AutoSwipe     bool           `json:"auto_swipe"`
	Personality   string         `json:"personality"`
	Pipeline      service.Status `json:"pipeline"`
	RepliedCount  int            `json:"replied_count"`
	PendingCount  int            `json:"pending_count"`
	RejectedCount int            `json:"rejected_count"`
}

// SettingsPatch carries the settings fields to change; nil fields are kept
type SettingsPatch struct {
	BotEnabled      *bool    `json:"bot_enabled"`
	AutoApprove     *bool    `json:"auto_approve"`
	AutoSwipe       *bool    `json:"auto_swipe"`
	Personality     *string  `json:"personality"`
	MatchLimit      *int     `json:"match_limit"`
	TypingDelay     *float64 `json:"typing_delay"`
	MaxTokens       *int     `json:"max_tokens"`
	Temperature     *float32 `json:"temperature"`
	MessageDelayMin *int     `json:"message_delay_min"`
	MessageDelayMax *int     `json:"message_delay_max"`
	OutreachCount   *int     `json:"outreach_count"`
	SwipeLimit      *int     `json:"swipe_limit"`
}

// Apply copies the set fields onto s
func (p SettingsPatch) Apply(s *domain.Settings) {
	if p.BotEnabled != nil {
		s.BotEnabled = *p.BotEnabled
	}
	if p.AutoApprove != nil {
		s.AutoApprove = *p.AutoApprove
	}
	if p.AutoSwipe != nil {
		s.AutoSwipe = *p.AutoSwipe
	}
	if p.Personality != nil {
		s.Personality = strings.ToLower(strings.TrimSpace(*p.Personality))
	}
	if p.MatchLimit != nil {
		s.MatchLimit = *p.MatchLimit
	}
	if p.TypingDelay != nil {
		s.TypingDelay = *p.TypingDelay
	}
	if p.MaxTokens != nil {
		s.MaxTokens = *p.MaxTokens
	}
	if p.Temperature != nil {
		s.Temperature = *p.Temperature
	}
	if p.MessageDelayMin != nil {
		s.MessageDelayMin = *p.MessageDelayMin
	}
	if p.MessageDelayMax != nil {
		s.MessageDelayMax = *p.MessageDelayMax
	}
	if p.OutreachCount != nil {
		s.OutreachCount = *p.OutreachCount
	}
	if p.SwipeLimit != nil {
		s.SwipeLimit = *p.SwipeLimit
	}
}

// ApproveRequest optionally replaces the drafted text
type ApproveRequest struct {
	Text string `json:"text"`
}

// RejectRequest adds a conversation to the rejected set
type RejectRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
}

// RunRequest sizes a manual outreach or swipe run
type RunRequest struct {
	Count int `json:"count"`
}

func (s *Server) handleStatus(c *gin.Context) {
	ctx := c.Request.Context()
	settings := s.deps.Settings.Get()

	pending, err := s.deps.Ops.ListPending(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		BotEnabled:    settings.BotEnabled,
		AutoApprove:   settings.AutoApprove,
		AutoSwipe:     settings.AutoSwipe,
		Personality:   settings.Personality,
		Pipeline:      s.deps.Ops.Status(),
		RepliedCount:  s.deps.Ledger.RepliedCount(ctx),
		PendingCount:  len(pending),
		RejectedCount: len(s.deps.Ledger.Rejected(ctx)),
	})
}

func (s *Server) handleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Settings.Get())
}

func (s *Server) handleUpdateSettings(c *gin.Context) {
	var patch SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if patch.Personality != nil && !s.deps.Personalities.Has(*patch.Personality) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown personality: " + *patch.Personality})
		return
	}

	updated, err := s.deps.Settings.Update(patch.Apply)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.log.Info().Interface("settings", updated).Msg("Settings updated")
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handlePersonalities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"personalities": s.deps.Personalities.Names(),
		"current":       s.deps.Settings.Get().Personality,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.deps.Stats.All(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleUsage(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Usage.Totals(c.Request.Context()))
}

func (s *Server) handleDecisions(c *gin.Context) {
	limit := defaultDecisionLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	recs, err := s.deps.Decisions.Recent(limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if recs == nil {
		recs = []domain.Decision{}
	}
	c.JSON(http.StatusOK, recs)
}

func (s *Server) handleListPending(c *gin.Context) {
	drafts, err := s.deps.Ops.ListPending(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	if drafts == nil {
		drafts = []*domain.PendingReply{}
	}
	c.JSON(http.StatusOK, drafts)
}

func (s *Server) handleApprove(c *gin.Context) {
	var req ApproveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	draft, err := s.deps.Ops.Approve(c.Request.Context(), c.Param("id"), req.Text)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent", "pending": draft})
}

func (s *Server) handleDiscard(c *gin.Context) {
	draft, err := s.deps.Ops.Discard(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "discarded", "pending": draft})
}

func (s *Server) handleListRejected(c *gin.Context) {
	ids := s.deps.Ledger.Rejected(c.Request.Context())
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, ids)
}

func (s *Server) handleAddRejected(c *gin.Context) {
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.deps.Ledger.MarkRejected(c.Request.Context(), req.ConversationID); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected", "conversation_id": req.ConversationID})
}

func (s *Server) handleRemoveRejected(c *gin.Context) {
	id := c.Param("id")
	if err := s.deps.Ledger.UnmarkRejected(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unrejected", "conversation_id": id})
}

// handlePass starts a pass in the background, or runs it inline with ?wait=true
func (s *Server) handlePass(c *gin.Context) {
	if s.deps.Ops.Status().Running {
		s.writeError(c, domain.ErrPassInProgress)
		return
	}
	if wait(c) {
		res, err := s.deps.Ops.RunPass(c.Request.Context(), "manual")
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
		return
	}

	s.background("pass", func(ctx context.Context) error {
		_, err := s.deps.Ops.RunPass(ctx, "manual")
		return err
	})
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

func (s *Server) handleOutreach(c *gin.Context) {
	req, ok := s.bindRun(c)
	if !ok {
		return
	}
	if wait(c) {
		res, err := s.deps.Ops.RunOutreach(c.Request.Context(), req.Count)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
		return
	}

	s.background("outreach", func(ctx context.Context) error {
		_, err := s.deps.Ops.RunOutreach(ctx, req.Count)
		return err
	})
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

func (s *Server) handleSwipe(c *gin.Context) {
	req, ok := s.bindRun(c)
	if !ok {
		return
	}
	if wait(c) {
		res, err := s.deps.Ops.SwipeSession(c.Request.Context(), req.Count)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
		return
	}

	s.background("swipe", func(ctx context.Context) error {
		_, err := s.deps.Ops.SwipeSession(ctx, req.Count)
		return err
	})
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

func (s *Server) bindRun(c *gin.Context) (RunRequest, bool) {
	var req RunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return req, false
		}
	}
	if req.Count < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count must not be negative"})
		return req, false
	}
	return req, true
}

func wait(c *gin.Context) bool {
	v, _ := strconv.ParseBool(c.Query("wait"))
	return v
}

// writeError maps domain errors onto HTTP statuses
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrPendingNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrPassInProgress), errors.Is(err, domain.ErrAlreadyReplied):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrSendRejected):
		status = http.StatusBadGateway
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func metricsRecord(method, route string, status int) {
	metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
