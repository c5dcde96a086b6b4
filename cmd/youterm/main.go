// Package main provides the CLI entry point for youterm.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/youterm/pkg/adapters/ffmpegsource"
	"github.com/user/youterm/pkg/adapters/filesink"
	"github.com/user/youterm/pkg/adapters/logger"
	"github.com/user/youterm/pkg/adapters/nullsink"
	"github.com/user/youterm/pkg/adapters/osfilesystem"
	"github.com/user/youterm/pkg/adapters/sixelencoder"
	"github.com/user/youterm/pkg/adapters/termrenderer"
	"github.com/user/youterm/pkg/adapters/ytdlp"
	"github.com/user/youterm/pkg/config"
	"github.com/user/youterm/pkg/contentcache"
	"github.com/user/youterm/pkg/orchestrator"
	"github.com/user/youterm/pkg/ports"
	"github.com/user/youterm/pkg/stages/playback"
	"github.com/user/youterm/pkg/stages/retrieve"
	"github.com/user/youterm/pkg/workspace"
)

var version = "dev"

// testRequestID is played by the test command.
const testRequestID = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func init() {
	// -v is taken by --verbose.
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version",
		Usage: l10n.T("Print the version"),
	}
}

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "youterm",
		Usage:     l10n.T("Play online videos in the terminal as sixel graphics"),
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:     "verbose",
				Aliases:  []string{"v"},
				Usage:    l10n.T("Enable debug logging"),
				Category: l10n.T("Logging"),
			},
			&cli.StringFlag{
				Name:     "log-level",
				Aliases:  []string{"l"},
				Usage:    l10n.T("Log level (debug, info, warn, error)"),
				Category: l10n.T("Logging"),
			},
			&cli.BoolFlag{
				Name:     "quiet",
				Aliases:  []string{"Q"},
				Usage:    l10n.T("Suppress all log output"),
				Category: l10n.T("Logging"),
			},
			&cli.StringFlag{
				Name:     "data-dir",
				Usage:    l10n.T("Data directory (default: $YOUTERM_DATA_DIR or the user data directory)"),
				Category: l10n.T("Storage"),
			},
			&cli.StringFlag{
				Name:     "config",
				Usage:    l10n.T("Configuration file (default: <data-dir>/config.yaml)"),
				Category: l10n.T("Storage"),
			},
			&cli.BoolFlag{
				Name:     "debug",
				Aliases:  []string{"d"},
				Usage:    l10n.T("Save stream info and scaled frames to <data-dir>/debug"),
				Category: l10n.T("Debug"),
			},
		},
		Commands: []*cli.Command{
			playCommand(),
			testCommand(),
			cacheCommand(),
			versionCommand(),
		},
	}
}

func noCacheFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "no-cache",
		Usage: l10n.T("Download again even when the media is cached"),
	}
}

func playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     l10n.T("Play a video"),
		ArgsUsage: "<request-identifier>",
		Flags: []cli.Flag{
			noCacheFlag(),
			&cli.IntFlag{
				Name:     "width",
				Aliases:  []string{"W"},
				Usage:    l10n.T("Output width in pixels (keeps aspect ratio when height is unset)"),
				Category: l10n.T("Output"),
			},
			&cli.IntFlag{
				Name:     "height",
				Aliases:  []string{"H"},
				Usage:    l10n.T("Output height in pixels (keeps aspect ratio when width is unset)"),
				Category: l10n.T("Output"),
			},
			&cli.Float64Flag{
				Name:     "scale",
				Aliases:  []string{"s"},
				Usage:    l10n.T("Divide the native size by this factor (>= 1)"),
				Category: l10n.T("Output"),
			},
			&cli.IntFlag{
				Name:     "workers",
				Aliases:  []string{"j"},
				Usage:    l10n.T("Number of encode workers (default: number of CPUs)"),
				Category: l10n.T("Performance"),
			},
			&cli.BoolFlag{
				Name:     "unordered",
				Usage:    l10n.T("Render frames as soon as they are encoded"),
				Category: l10n.T("Performance"),
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit(l10n.T("Exactly one request identifier is required"), 1)
			}
			return play(c, c.Args().First(), !c.Bool("no-cache"))
		},
	}
}

func testCommand() *cli.Command {
	return &cli.Command{
		Name:  "test",
		Usage: l10n.F("Play %s", testRequestID),
		Flags: []cli.Flag{noCacheFlag()},
		Action: func(c *cli.Context) error {
			return play(c, testRequestID, !c.Bool("no-cache"))
		},
	}
}

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: l10n.T("Inspect the content cache"),
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  l10n.T("List cached media"),
				Action: listCache,
			},
			{
				Name:      "remove",
				Usage:     l10n.T("Forget a cached request (the file is kept)"),
				ArgsUsage: "<request-identifier>",
				Action:    removeCache,
			},
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: l10n.T("Show version information"),
		Action: func(c *cli.Context) error {
			fmt.Fprintln(c.App.Writer, l10n.F("youterm version %s", version))
			return nil
		},
	}
}

// session holds what every command resolves from the global flags.
type session struct {
	cfg config.Config
	ws  *workspace.Workspace
	fs  ports.FileSystem
	log ports.Logger
}

func newSession(c *cli.Context) (*session, error) {
	root := c.String("data-dir")
	if root == "" {
		root = workspace.DefaultRoot()
	}
	ws := workspace.New(root)

	cfgPath := c.String("config")
	if cfgPath == "" {
		cfgPath = ws.ConfigPath()
	}
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyLogLevel(c.String("log-level"))
	if c.Bool("verbose") {
		cfg.ApplyLogLevel(ports.LevelDebug.String())
	}

	var log ports.Logger
	switch {
	case c.Bool("quiet"):
		log = logger.NewNoop()
	case c.App.ErrWriter == os.Stderr:
		log = logger.NewConsole(cfg.Level())
	default:
		log = logger.NewWriter(cfg.Level(), c.App.ErrWriter)
	}

	fs := osfilesystem.New()
	if err := ws.Ensure(fs); err != nil {
		return nil, err
	}

	return &session{cfg: cfg, ws: ws, fs: fs, log: log}, nil
}

func (s *session) cache() *contentcache.Cache {
	return contentcache.New(s.fs, s.ws.CachePath(), s.ws.OutDir(), contentcache.Options{
		VerifyAssets: s.cfg.VerifyCache,
	})
}

func play(c *cli.Context, requestID string, useCache bool) error {
	s, err := newSession(c)
	if err != nil {
		return cli.Exit(err, 1)
	}

	cfg := s.cfg
	cfg.ApplySize(c.Int("width"), c.Int("height"), c.Float64("scale"))
	cfg.ApplyWorkers(c.Int("workers"))
	cfg.ApplyUnordered(c.Bool("unordered"))
	if err := cfg.Validate(); err != nil {
		return cli.Exit(err, 1)
	}

	canonical, err := contentcache.Canonicalize(requestID)
	if err != nil {
		return cli.Exit(err, 1)
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			s.log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	var sink ports.DebugSink
	if c.Bool("debug") {
		sink = filesink.New(s.ws.DebugDir(), s.fs)
	} else {
		sink = nullsink.New()
	}

	renderer := termrenderer.New(c.App.Writer)
	defer renderer.Close()

	retrieveStage := retrieve.New(s.cache(), ytdlp.New(cfg.FetcherOptions(s.ws.BinDir()), s.log), s.fs, s.log)
	playbackStage := playback.New(
		ffmpegsource.New(cfg.DecoderOptions(s.ws.BinDir())),
		sixelencoder.New(),
		renderer,
		sink,
		s.log,
		cfg.PlaybackOptions(),
	)

	runConfig := cfg.ToOrchestratorConfig(canonical, useCache)
	if cfg.FitTerminal {
		if f, ok := c.App.Writer.(*os.File); ok {
			if w, h, ok := termrenderer.PixelSize(f); ok {
				s.log.Debug("Terminal area is %dx%d pixels", w, h)
				runConfig.MaxWidth, runConfig.MaxHeight = w, h
			}
		}
	}

	orch := orchestrator.New(retrieveStage, playbackStage, s.log)
	if _, err := orch.Run(ctx, runConfig); err != nil {
		// already logged by the orchestrator
		return cli.Exit("", 1)
	}
	return nil
}

func listCache(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return cli.Exit(err, 1)
	}

	cache := s.cache()
	if err := cache.Initialize(); err != nil {
		return cli.Exit(err, 1)
	}
	records, err := cache.Records()
	if err != nil {
		return cli.Exit(err, 1)
	}

	if len(records) == 0 {
		s.log.Info("Cache is empty")
		return nil
	}
	for _, rec := range records {
		fmt.Fprintf(c.App.Writer, "%s\t%s\n", rec.RequestID, rec.AssetName)
	}
	return nil
}

func removeCache(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit(l10n.T("Exactly one request identifier is required"), 1)
	}

	s, err := newSession(c)
	if err != nil {
		return cli.Exit(err, 1)
	}

	requestID, err := contentcache.Canonicalize(c.Args().First())
	if err != nil {
		return cli.Exit(err, 1)
	}

	cache := s.cache()
	if err := cache.Initialize(); err != nil {
		return cli.Exit(err, 1)
	}
	if err := cache.Remove(requestID); err != nil {
		return cli.Exit(err, 1)
	}
	s.log.Info("Removed %s from the cache", requestID)
	return nil
}
