package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"
	"github.com/tartampluch/go-schoolmenu/internal/card"
	"github.com/tartampluch/go-schoolmenu/internal/config"
	"github.com/tartampluch/go-schoolmenu/internal/engine"
	"github.com/tartampluch/go-schoolmenu/internal/host"
	"github.com/tartampluch/go-schoolmenu/internal/server"
	"github.com/tartampluch/go-schoolmenu/internal/ui"
)

func newGUICmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdGUI,
		Short: config.CmdShortGUI,
		Args:  cobra.NoArgs,
		RunE:  c.runGUI,
	}
}

// runGUI initializes the Fyne application, wires dependencies, and starts the UI loop.
func (c *cli) runGUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a := app.NewWithID(config.AppID)

	// Record the version for potential migration logic in future updates.
	a.Preferences().SetString(config.PrefLastRun, config.Version)

	// Saved GUI preferences win over config.yaml.
	port := a.Preferences().StringWithFallback(config.PrefServerPort, c.settings.Server.Port)
	srv := server.NewFeedServer(port)

	hs := c.settings.Host
	gui := ui.NewSchoolMenuApp(a, ctx, srv, c.registry, ui.Defaults{
		Card: c.settings.Card,
		Host: host.Options{
			Mode:         hs.Mode,
			URL:          hs.URL,
			StateFile:    hs.StateFile,
			PollInterval: hs.PollInterval,
		},
		Language: c.settings.Language,
	})
	gui.Clock = c.clock

	// Lifecycle Bridge:
	// Watch for context cancellation to quit the UI gracefully.
	go func() {
		<-ctx.Done()
		slog.Info(config.MsgCtxCancel, config.LogKeyComponent, config.CompMain)
		a.Quit()
	}()

	// Blocks until the application quits.
	gui.Run()

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return nil
}

func newShowCmd(c *cli) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   config.CmdShow,
		Short: config.CmdShortShow,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			h, mc, err := c.connect()
			if err != nil {
				return err
			}
			if date != "" {
				if err := mc.Goto(ctx, date); err != nil {
					return err
				}
			}
			return c.print(cmd, mc.Refresh(ctx, h))
		},
	}
	cmd.Flags().StringVar(&date, config.FlagDate, "", config.FlagDescDate)
	return cmd
}

// navStep maps a nav argument to the card command.
func navStep(target string) (func(*card.Card, context.Context) error, error) {
	switch strings.ToLower(target) {
	case config.NavPrev:
		return (*card.Card).Previous, nil
	case config.NavNext:
		return (*card.Card).Next, nil
	case config.NavToday:
		return (*card.Card).Today, nil
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrNavTarget, target)
	}
}

func newNavCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:       config.CmdUseNav,
		Short:     config.CmdShortNav,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{config.NavPrev, config.NavNext, config.NavToday},
		RunE: func(cmd *cobra.Command, args []string) error {
			step, err := navStep(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			h, mc, err := c.connect()
			if err != nil {
				return err
			}

			// Steps are relative to the date the entity shows now.
			mc.Refresh(ctx, h)
			if err := step(mc, ctx); err != nil {
				return err
			}
			return c.print(cmd, mc.Refresh(ctx, h))
		},
	}
}

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdServe,
		Short: config.CmdShortServe,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, mc, err := c.connect()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), h, mc, server.NewFeedServer(c.settings.Server.Port), c.clock)
		},
	}
}

// serve publishes the card and the feed on every host push until ctx is
// cancelled or the server fails.
func serve(ctx context.Context, h host.Host, mc *card.Card, srv *server.FeedServer, clock engine.Clock) error {
	log := slog.With(config.LogKeyComponent, config.CompWorker)

	events, err := h.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrWatch, err)
	}

	publish := func() {
		view, attrs := mc.Pull(ctx, h)
		if err := srv.Publish(view, attrs, mc.Config(), clock); err != nil {
			log.Error(config.ErrCardEncode, config.LogKeyError, err)
		}
	}
	publish()

	serverErr := make(chan error, config.ChannelBufferSize)
	go func() { serverErr <- srv.Start(ctx) }()

	log.Info(config.MsgServeReady,
		config.LogKeyPort, srv.Port,
		config.LogKeyEntity, mc.Config().Entity)

	for {
		select {
		case err := <-serverErr:
			// Start returns nil after a clean shutdown on cancellation.
			return err
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			publish()
		}
	}
}

// newCardsCmd lists the registered card types, as the dashboard's card picker
// would show them.
func newCardsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdCards,
		Short: config.CmdShortCards,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.printer().PrintDescriptors(cmd.OutOrStdout(), c.registry.Descriptors())
		},
	}
}
