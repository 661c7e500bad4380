package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/visitor-sync/internal/cli"
	"github.com/Veraticus/visitor-sync/internal/config"
	"github.com/Veraticus/visitor-sync/internal/engine"
	"github.com/Veraticus/visitor-sync/internal/model"
	"github.com/Veraticus/visitor-sync/internal/panel"
	"github.com/Veraticus/visitor-sync/internal/transfer"
	"github.com/Veraticus/visitor-sync/internal/workspace"
)

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	panelCreds := model.Credentials{Username: args[0], Password: args[1]}
	sftpCreds := model.Credentials{Username: args[2], Password: args[3]}

	var progress io.Writer
	if cfg.ShowProgress {
		progress = os.Stderr
	}

	panelClient := panel.NewClient(cfg.PanelURL, cfg.Timeout)
	fetcher := transfer.NewFetcher(transfer.Config{
		Host:           cfg.SFTPHost,
		Port:           cfg.SFTPPort,
		KnownHostsPath: cfg.KnownHostsPath,
		Timeout:        cfg.Timeout,
		Progress:       progress,
	})

	eng := engine.New(engine.Deps{
		Sessions: func() (engine.PanelSession, error) {
			return panelClient.NewSession()
		},
		Fetcher:   fetcher,
		Workspace: workspace.NewManager(cfg.TempDir),
		Output:    cmd.OutOrStdout(),
	}, engine.Config{
		PanelCredentials: panelCreds,
		SFTPCredentials:  sftpCreds,
		PanelURL:         panelClient.BaseURL(),
		Interval:         cfg.Interval,
		KeepFailed:       cfg.KeepFailed,
		Once:             cfg.Once,
	})

	slog.Info("Starting visitor sync",
		"panel", panelClient.BaseURL(),
		"panel_user", panelCreds.Username,
		"sftp", fetcher.Address(),
		"sftp_user", sftpCreds.Username,
		"interval", cfg.Interval,
		"once", cfg.Once)
	cmd.Println(cli.FormatTitle("Visitor sync started"))

	return eng.Run(ctx)
}
