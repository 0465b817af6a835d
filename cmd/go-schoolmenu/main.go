package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/tartampluch/go-schoolmenu/internal/card"
	"github.com/tartampluch/go-schoolmenu/internal/config"
)

// main only converts the result of runMain into an exit code, so that the
// deferred log file close in runMain still runs.
func main() {
	os.Exit(runMain())
}

// runMain registers the card types and executes the command line under a
// context cancelled by SIGINT or SIGTERM.
func runMain() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := newCLI()
	defer c.close()

	// Card types are registered once, before any command can create one.
	if err := card.Register(c.registry); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return config.ExitCodeError
	}

	if err := newRootCmd(c).ExecuteContext(ctx); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		fmt.Fprintln(os.Stderr, err)
		return config.ExitCodeError
	}
	return config.ExitCodeSuccess
}

// printVersion outputs the build information.
func printVersion(w io.Writer) {
	fmt.Fprintf(w, config.MsgVersionOutput, config.AppName, config.Version, runtime.GOOS, runtime.GOARCH)
}

// logStartupInfo records the build, the environment and the command being run.
func logStartupInfo(command string) {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		config.LogKeySubcommand, command,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging installs a JSON slog handler writing to console and, when it
// can be opened, to the log file. The returned closer is nil without a file.
func setupLogging(debug bool, console io.Writer) io.Closer {
	out := console
	f, err := openLogFile()
	if err != nil {
		fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, config.LogFileName, err)
	} else {
		out = io.MultiWriter(console, f)
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})))

	if f == nil {
		return nil
	}
	return f
}

// openLogFile truncates the log file in the user cache directory, so every
// run starts a fresh log.
func openLogFile() (*os.File, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, config.AppID)
	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}

	return os.OpenFile(filepath.Join(appDir, config.LogFileName), os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
}
