package usecase

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/DevRickLin/wingman/internal/biz/domain"
	"github.com/DevRickLin/wingman/internal/biz/repo"
	"github.com/DevRickLin/wingman/internal/infra/metrics"
)

// UsageRecorder receives token usage for accepted generations
type UsageRecorder interface {
	Record(ctx context.Context, model string, tokens int64)
}

// GeneratorConfig contains reply generator configuration
type GeneratorConfig struct {
	Prompt         PromptConfig
	Retry          RetryPolicy
	CallTimeout    time.Duration // Per backend call
	AltPersonality string        // Used once when the first completion is a refusal
	MaxTokens      int
	Temperature    float32
}

// DefaultGeneratorConfig returns the default generator configuration
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Prompt:         DefaultPromptConfig,
		Retry:          DefaultRetryPolicy(),
		CallTimeout:    15 * time.Second,
		AltPersonality: "playful",
		MaxTokens:      300,
		Temperature:    0.8,
	}
}

// ReplyGenerator turns conversation context into a reply text.
// It never fails: every error path ends in a fallback template.
type ReplyGenerator struct {
	backend  repo.CompletionRepo
	personas PersonalityResolver
	usage    UsageRecorder
	cfg      GeneratorConfig
	log      zerolog.Logger

	now   func() time.Time
	sleep sleepFunc
	pick  func(n int) int
}

// NewReplyGenerator creates a reply generator
func NewReplyGenerator(backend repo.CompletionRepo, personas PersonalityResolver, usage UsageRecorder, cfg GeneratorConfig, log zerolog.Logger) *ReplyGenerator {
	if cfg.Prompt.Location == nil {
		cfg.Prompt.Location = time.UTC
	}
	return &ReplyGenerator{
		backend:  backend,
		personas: personas,
		usage:    usage,
		cfg:      cfg,
		log:      log.With().Str("component", "generator").Logger(),
		now:      time.Now,
		sleep:    sleepCtx,
		pick:     rand.Intn,
	}
}

// Generate produces a reply for the request
func (g *ReplyGenerator) Generate(ctx context.Context, req domain.ReplyRequest) domain.Reply {
	profile := g.personas.Resolve(req.Personality)

	reply, outcome := g.attempt(ctx, profile, req)
	if outcome == domain.OutcomeRefusal && g.cfg.AltPersonality != "" {
		g.log.Warn().Str("personality", profile.Name).Str("alternate", g.cfg.AltPersonality).Msg("Completion refused, retrying with alternate personality")
		profile = g.personas.Resolve(g.cfg.AltPersonality)
		reply, outcome = g.attempt(ctx, profile, req)
	}

	if outcome == domain.OutcomeOK {
		if g.usage != nil {
			g.usage.Record(ctx, reply.Model, int64(reply.Tokens))
		}
		metrics.GenerationsTotal.WithLabelValues(string(domain.OutcomeOK)).Inc()
		return reply
	}

	metrics.GenerationsTotal.WithLabelValues(string(outcome)).Inc()
	g.log.Warn().Str("outcome", string(outcome)).Str("name", req.Name).Msg("Using fallback reply")
	return domain.Reply{
		Text:        g.Fallback(req.Name),
		Personality: profile.Name,
		Fallback:    true,
		Outcome:     outcome,
	}
}

// Fallback returns a uniformly chosen fallback reply for name
func (g *ReplyGenerator) Fallback(name string) string {
	return renderFallback(fallbackTemplates[g.pick(len(fallbackTemplates))], name)
}

// attempt runs one profile through the retry loop and classifies the result
func (g *ReplyGenerator) attempt(ctx context.Context, profile domain.Profile, req domain.ReplyRequest) (domain.Reply, domain.Outcome) {
	now := g.now().In(g.cfg.Prompt.Location)
	creq := domain.CompletionRequest{
		System:      RenderSystemPrompt(profile, req.Name, now),
		Turns:       BuildTurns(g.cfg.Prompt, req.Name, req.Biography, req.History),
		MaxTokens:   firstPositive(req.MaxTokens, g.cfg.MaxTokens),
		Temperature: req.Temperature,
	}
	if creq.Temperature <= 0 {
		creq.Temperature = g.cfg.Temperature
	}

	var completion *domain.Completion
	err := g.cfg.Retry.execute(ctx, g.sleep, domain.IsTransient, func(ctx context.Context, attempt int) error {
		callCtx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
		defer cancel()

		c, err := g.backend.Complete(callCtx, creq)
		if err != nil {
			metrics.BackendCallsTotal.WithLabelValues("error").Inc()
			g.log.Warn().Err(err).Int("attempt", attempt+1).Msg("Completion attempt failed")
			return err
		}
		metrics.BackendCallsTotal.WithLabelValues("ok").Inc()
		completion = c
		return nil
	})
	if err != nil {
		if domain.IsTransient(err) {
			return domain.Reply{}, domain.OutcomeTransient
		}
		return domain.Reply{}, domain.OutcomeFatal
	}

	if IsRefusal(completion.Text) {
		return domain.Reply{}, domain.OutcomeRefusal
	}

	text := Sanitize(completion.Text)
	if text == "" {
		return domain.Reply{}, domain.OutcomeFatal
	}

	tokens := completion.Tokens
	if tokens <= 0 {
		tokens = len(strings.Fields(completion.Text))
	}
	model := completion.Model
	if model == "" {
		model = g.backend.Model()
	}

	return domain.Reply{
		Text:        text,
		Personality: profile.Name,
		Model:       model,
		Tokens:      tokens,
		Outcome:     domain.OutcomeOK,
	}, domain.OutcomeOK
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
