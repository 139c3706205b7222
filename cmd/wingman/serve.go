package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/DevRickLin/wingman/internal/api"
	"github.com/DevRickLin/wingman/internal/biz/domain"
	"github.com/DevRickLin/wingman/internal/conf"
	"github.com/DevRickLin/wingman/internal/infra/feishu"
	"github.com/DevRickLin/wingman/internal/server"
	"github.com/DevRickLin/wingman/internal/service"
)

// ServeFlags configure the long-running process
type ServeFlags struct {
	Addr      string
	RunOnBoot bool
}

// BindFlags registers the serve flags
func (f *ServeFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.Addr, "addr", "", "Dashboard listen address (overrides DASHBOARD_ADDR)")
	fs.BoolVar(&f.RunOnBoot, "run-now", false, "Run one pass immediately instead of waiting for the first tick")
}

// NewServeCommand runs the scheduler and the dashboard until interrupted
func NewServeCommand(root *RootFlags) *cobra.Command {
	flags := &ServeFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the operator dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, true)
			if err != nil {
				return err
			}
			defer a.Close()

			addr := a.cfg.DashboardAddr
			if flags.Addr != "" {
				addr = flags.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			dashboard := api.NewServer(api.Deps{
				Ops:           a.pipeline,
				Settings:      a.settings,
				Personalities: a.personas,
				Ledger:        a.ledger,
				Usage:         a.usage,
				Stats:         a.repos.Stats,
				Decisions:     a.repos.Decisions,
			}, addr, a.log)

			scheduler := service.NewScheduler(a.pipeline, a.settings, a.cfg.Pipeline.PollInterval, a.cfg.Pipeline.PendingRetention, a.log)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return dashboard.Run(gctx)
			})
			g.Go(func() error {
				scheduler.Start(gctx)
				<-gctx.Done()
				scheduler.Stop()
				return nil
			})
			if a.cfg.PersonalitiesPath != "" {
				g.Go(func() error {
					return conf.WatchPersonalities(gctx, a.cfg.PersonalitiesPath, a.personas.Replace, a.log)
				})
			}
			if fc := a.cfg.Feishu; fc.Enabled() && fc.Commands {
				client := feishu.NewClient(fc.AppID, fc.AppSecret)
				commands := server.NewFeishuServer(client, client, a.pipeline, a.ledger, fc.ApprovalChatID, a.log)
				g.Go(func() error {
					// Notifications and the dashboard keep working without the listener
					if err := commands.Run(gctx); err != nil {
						a.log.Error().Err(err).Msg("Approval chat listener stopped")
					}
					return nil
				})
			}
			if flags.RunOnBoot {
				g.Go(func() error {
					if _, err := a.pipeline.RunPass(gctx, "startup"); err != nil && !errors.Is(err, domain.ErrPassInProgress) {
						a.log.Error().Err(err).Msg("Startup pass failed")
					}
					return nil
				})
			}

			settings := a.settings.Get()
			a.log.Info().
				Str("addr", addr).
				Str("version", version).
				Bool("bot_enabled", settings.BotEnabled).
				Bool("auto_approve", settings.AutoApprove).
				Str("personality", settings.Personality).
				Dur("poll_interval", a.cfg.Pipeline.PollInterval).
				Msg("wingman started")

			err = g.Wait()
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			a.log.Info().Msg("wingman stopped")
			return nil
		},
	}
	flags.BindFlags(cmd.Flags())
	return cmd
}
