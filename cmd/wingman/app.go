package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/DevRickLin/wingman/internal/biz/usecase"
	"github.com/DevRickLin/wingman/internal/conf"
	"github.com/DevRickLin/wingman/internal/data"
	"github.com/DevRickLin/wingman/internal/infra/logger"
	"github.com/DevRickLin/wingman/internal/service"
)

// app holds the wired components shared by every command
type app struct {
	cfg      *conf.Config
	log      zerolog.Logger
	repos    *data.Repositories
	settings *conf.SettingsStore
	personas *usecase.PersonalityRegistry
	ledger   *usecase.Ledger
	usage    *usecase.UsageTracker
	pipeline *service.Pipeline
}

// newApp wires repositories, use cases and the pipeline. withBackend also
// creates the completion backend, which only reply generation needs.
func newApp(flags *RootFlags, withBackend bool) (*app, error) {
	cfg, err := flags.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New("wingman", cfg.LogLevel, cfg.LogFormat)

	repos, err := data.NewRepositories(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}

	settings, err := conf.LoadSettings(cfg.SettingsPath(), cfg.Defaults.ToSettings())
	if err != nil {
		repos.Close()
		return nil, err
	}

	catalog, err := conf.LoadPersonalities(cfg.PersonalitiesPath)
	if err != nil {
		repos.Close()
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		repos:    repos,
		settings: settings,
		personas: usecase.NewPersonalityRegistry(catalog),
		ledger:   usecase.NewLedger(repos.Ledger, log),
		usage:    usecase.NewUsageTracker(repos.Usage, log),
	}

	client, err := data.NewClient(cfg.Client.Kind, cfg.Client.InboxPath, cfg.Client.OutboxPath, cfg.Client.MatchRate, a.typingDelay)
	if err != nil {
		repos.Close()
		return nil, err
	}

	var writer service.ReplyWriter
	if withBackend {
		if err := cfg.ValidateBackend(); err != nil {
			repos.Close()
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		backend, err := data.NewCompletionRepo(cfg.LLM.Provider, cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Timeout)
		if err != nil {
			repos.Close()
			return nil, err
		}
		writer = usecase.NewReplyGenerator(backend, a.personas, a.usage, cfg.ToGeneratorConfig(), log)
	}

	notifier := data.NewFeishuNotifier(cfg.Feishu.AppID, cfg.Feishu.AppSecret, cfg.Feishu.ApprovalChatID, "http://"+cfg.DashboardAddr)

	a.pipeline = service.NewPipeline(service.PipelineDeps{
		Client:    client,
		Writer:    writer,
		Openers:   usecase.NewOpenerWriter(),
		Ledger:    a.ledger,
		Pending:   repos.Pending,
		Outreach:  repos.Outreach,
		Stats:     repos.Stats,
		Decisions: repos.Decisions,
		Notifier:  notifier,
		Settings:  settings,
	}, service.PipelineConfig{
		PassTimeout:      cfg.Pipeline.PassTimeout,
		Concurrency:      cfg.Pipeline.Concurrency,
		OutreachDelayMin: cfg.Pipeline.OutreachDelayMin,
		OutreachDelayMax: cfg.Pipeline.OutreachDelayMax,
	}, log)

	return a, nil
}

// typingDelay is the per-send typing pause taken from live settings
func (a *app) typingDelay() time.Duration {
	return a.settings.Get().TypingPause()
}

func (a *app) Close() {
	if err := a.repos.Close(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to close repositories")
	}
}
