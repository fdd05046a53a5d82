package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/unapt/internal/binary"
	"github.com/ZebulonRouseFrantzich/unapt/internal/config"
	"github.com/ZebulonRouseFrantzich/unapt/internal/github"
	"github.com/ZebulonRouseFrantzich/unapt/internal/history"
	"github.com/ZebulonRouseFrantzich/unapt/internal/logger"
	"github.com/ZebulonRouseFrantzich/unapt/internal/platform"
	"github.com/ZebulonRouseFrantzich/unapt/internal/service"
)

// journalDirName holds failed transaction records, next to the history log.
const journalDirName = "txn"

// app is the resolved runtime shared by the package commands.
type app struct {
	cfg    *config.Config
	info   *platform.Info
	layout *platform.Layout
	log    *logger.Logger
}

// setup resolves the platform first, so an unsupported platform stops the
// command before anything else runs, then loads the configuration.
func setup(ctx context.Context, cmd *cobra.Command, opts *rootOptions, d *deps) (*app, error) {
	info, err := d.detector.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect platform: %w", err)
	}

	layout, err := platform.ResolveLayout(info)
	if err != nil {
		return nil, err
	}

	var overrides *config.Config
	if opts.Verbose {
		overrides = &config.Config{LogLevel: "debug"}
	}

	cfg, err := config.Load(ctx, config.LoadOptions{
		Path:      opts.ConfigPath,
		Platform:  info,
		Layout:    layout,
		Overrides: overrides,
	})
	if err != nil {
		return nil, err
	}

	log := logger.New(cmd.ErrOrStderr(), cfg.LogLevel)
	log.Debug().
		Str("os", info.OS).
		Str("arch", info.Arch).
		Bool("termux", info.IsTermux()).
		Str("bin_dir", cfg.BinDir).
		Str("history", cfg.HistoryFile).
		Msg("resolved configuration")

	return &app{cfg: cfg, info: info, layout: layout, log: log}, nil
}

func (a *app) userAgent() string {
	return "unapt/" + Version
}

func (a *app) packageService() (*service.PackageService, error) {
	files, err := binary.NewManager(a.cfg.BinDir)
	if err != nil {
		return nil, err
	}

	fetcher := binary.NewDownloader(binary.DownloaderConfig{
		BaseURL:   a.cfg.FileHost,
		Timeout:   a.cfg.Timeout,
		Retries:   a.cfg.Retries,
		UserAgent: a.userAgent(),
	}, a.log)

	hist := history.New(a.cfg.HistoryFile, a.log)
	journal := filepath.Join(filepath.Dir(a.cfg.HistoryFile), journalDirName)

	return service.NewPackageService(fetcher, files, hist, service.SystemClock, journal, a.log), nil
}

func (a *app) uploadService(token string) *service.UploadService {
	client := github.NewClient(github.Config{
		APIURL:    a.cfg.Source.API,
		Token:     token,
		Timeout:   a.cfg.Timeout,
		UserAgent: a.userAgent(),
	}, a.log)
	return service.NewUploadService(client, a.cfg.Source.Dir, a.cfg.Source.Base, a.log)
}
