package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tartampluch/go-schoolmenu/internal/card"
	"github.com/tartampluch/go-schoolmenu/internal/config"
	"github.com/tartampluch/go-schoolmenu/internal/engine"
	"github.com/tartampluch/go-schoolmenu/internal/host"
)

// cli carries the flags and the state shared by every subcommand.
type cli struct {
	debug     bool
	configDir string
	noColor   bool

	settings Settings
	registry *card.Registry
	clock    engine.Clock

	logCloser io.Closer
}

func newCLI() *cli {
	return &cli{
		registry: card.NewRegistry(),
		clock:    engine.RealClock{},
	}
}

func (c *cli) close() {
	if c.logCloser != nil {
		_ = c.logCloser.Close() // Best effort close
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:               config.BinaryName,
		Short:             config.CmdShortRoot,
		Version:           config.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		RunE:              c.runGUI,
	}

	root.SetVersionTemplate(fmt.Sprintf(config.MsgVersionOutput,
		config.AppName, config.Version, runtime.GOOS, runtime.GOARCH))

	pf := root.PersistentFlags()
	pf.BoolVar(&c.debug, config.FlagDebug, false, config.FlagDescDebug)
	pf.StringVar(&c.configDir, config.FlagConfigDir, "", config.FlagDescConfigDir)
	pf.BoolVar(&c.noColor, config.FlagNoColor, false, config.FlagDescNoColor)

	root.AddCommand(
		newGUICmd(c),
		newShowCmd(c),
		newNavCmd(c),
		newServeCmd(c),
		newCardsCmd(c),
		newVersionCmd(),
	)
	return root
}

// setup runs before every subcommand: logging first, to capture startup
// issues, then config.yaml.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	switch cmd.Name() {
	case config.CmdVersion, config.CmdCards:
		return nil
	}

	c.logCloser = setupLogging(c.debug, c.console(cmd))
	logStartupInfo(cmd.Name())

	s, err := loadSettings(c.configDir)
	if err != nil {
		return err
	}
	c.settings = s
	return nil
}

// console is where log lines go. Commands printing a card keep stdout for it.
func (c *cli) console(cmd *cobra.Command) io.Writer {
	switch cmd.Name() {
	case config.CmdShow, config.CmdNav:
		return cmd.ErrOrStderr()
	default:
		return os.Stdout
	}
}

// cardConfig applies the demo entity when the demo host runs unconfigured.
func (c *cli) cardConfig() engine.CardConfig {
	cfg := c.settings.Card
	cfg.Categories = append([]string(nil), cfg.Categories...)
	if cfg.Entity == "" && c.hostMode() == config.HostModeDemo {
		cfg.Entity = config.DemoEntity
	}
	return cfg
}

func (c *cli) hostMode() string {
	if c.settings.Host.Mode == "" {
		return config.HostModeDemo
	}
	return strings.ToLower(c.settings.Host.Mode)
}

// hostOptions maps the settings to host options, taking the REST token from
// the keyring.
func (c *cli) hostOptions() host.Options {
	hs := c.settings.Host
	opts := host.Options{
		Mode:         c.hostMode(),
		URL:          hs.URL,
		StateFile:    hs.StateFile,
		PollInterval: hs.PollInterval,
		Clock:        c.clock,
	}

	if opts.Mode == config.HostModeREST {
		token, err := host.LoadToken(opts.URL)
		if err != nil {
			slog.Warn(config.ErrTokenLoad,
				config.LogKeyComponent, config.CompMain,
				config.LogKeyURL, opts.URL,
				config.LogKeyError, err)
		}
		opts.Token = token
	}
	return opts
}

// connect builds the host and a configured card bound to it.
func (c *cli) connect() (host.Host, *card.Card, error) {
	h, err := host.New(c.hostOptions())
	if err != nil {
		return nil, nil, err
	}

	tr := card.NewTranslator(c.settings.Language)
	mc, err := c.registry.Create(config.CardType, card.Deps{
		Clock:      c.clock,
		Dispatcher: h,
		Translator: tr,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := mc.SetConfig(c.cardConfig()); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", config.ErrNotConfigured, err)
	}
	return h, mc, nil
}

// printer drops colors on request and when the output is not a terminal.
func (c *cli) printer() card.TextPrinter {
	return card.TextPrinter{NoColor: c.noColor || color.NoColor}
}

// print renders the view to the command output.
func (c *cli) print(cmd *cobra.Command, v card.View) error {
	return c.printer().Print(cmd.OutOrStdout(), v)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdVersion,
		Short: config.CmdShortVersion,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}
