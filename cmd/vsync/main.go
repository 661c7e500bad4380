package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/visitor-sync/internal/cli"
	"github.com/Veraticus/visitor-sync/internal/common"
	"github.com/Veraticus/visitor-sync/internal/config"
)

const usage = "vsync [flags] [--] <panel-user> <panel-password> <sftp-user> <sftp-password>"

var (
	cfgFile string
	version = "dev"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   usage,
		Short: "Sync daily visitor counts from SFTP into the admin panel",
		Long: `vsync logs into the visitor admin panel, downloads today's
Current_<date>.csv export from the SFTP server, maps each row to its panel
location and submits the counts. It repeats on a fixed interval until
stopped; any failed cycle ends the process with an error.

Flags go before the credentials. Everything after the first credential is
taken verbatim, so passwords may start with "-". Use "--" when the panel
user itself starts with "-" or is named "version".`,
		Args:              validateArgs,
		PersistentPreRunE: initConfig,
		RunE:              runSync,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	// Credentials are positional and may look like flags.
	cmd.Flags().SetInterspersed(false)

	// Global flags
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/vsync/config.yaml)")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	// Sync flags
	cmd.Flags().String("panel-url", config.DefaultPanelURL, "admin panel base URL")
	cmd.Flags().String("sftp-host", config.DefaultSFTPHost, "SFTP server host")
	cmd.Flags().Int("sftp-port", config.DefaultSFTPPort, "SFTP server port")
	cmd.Flags().String("known-hosts", "", "known_hosts file used to verify the SFTP host key")
	cmd.Flags().Duration("interval", config.DefaultInterval, "pause between sync cycles")
	cmd.Flags().Duration("timeout", config.DefaultTimeout, "timeout for panel requests and SFTP connects")
	cmd.Flags().String("temp-dir", "", "directory for per-cycle download folders (default: system temp)")
	cmd.Flags().Bool("keep-failed", false, "keep the download folder of a failed cycle")
	cmd.Flags().Bool("once", false, "run a single cycle and exit")
	cmd.Flags().Bool("progress", false, "show a download progress bar")

	// Bind flags to viper
	_ = viper.BindPFlag(config.KeyLogLevel, cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyLogFormat, cmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag(config.KeyPanelURL, cmd.Flags().Lookup("panel-url"))
	_ = viper.BindPFlag(config.KeySFTPHost, cmd.Flags().Lookup("sftp-host"))
	_ = viper.BindPFlag(config.KeySFTPPort, cmd.Flags().Lookup("sftp-port"))
	_ = viper.BindPFlag(config.KeyKnownHosts, cmd.Flags().Lookup("known-hosts"))
	_ = viper.BindPFlag(config.KeyInterval, cmd.Flags().Lookup("interval"))
	_ = viper.BindPFlag(config.KeyTimeout, cmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag(config.KeyTempDir, cmd.Flags().Lookup("temp-dir"))
	_ = viper.BindPFlag(config.KeyKeepFailed, cmd.Flags().Lookup("keep-failed"))
	_ = viper.BindPFlag(config.KeyOnce, cmd.Flags().Lookup("once"))
	_ = viper.BindPFlag(config.KeyProgress, cmd.Flags().Lookup("progress"))

	cmd.AddCommand(versionCmd())

	return cmd
}

func main() {
	interrupts := cli.NewInterruptHandler(os.Stderr)
	ctx, stop := interrupts.HandleInterrupts(context.Background())

	err := newRootCmd().ExecuteContext(ctx)
	stop() // Always cleanup

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		os.Exit(1)
	}
}

func validateArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(4)(cmd, args); err != nil {
		return common.NewUserError(
			fmt.Sprintf("You need to run %s", usage),
			fmt.Errorf("%w: %v", common.ErrInvalidArguments, err),
		)
	}
	return nil
}

func initConfig(_ *cobra.Command, _ []string) error {
	// Set up config file
	if cfgFile != "" {
		viper.SetConfigFile(config.ExpandPath(cfgFile))
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		// Search for config in standard locations
		viper.AddConfigPath(fmt.Sprintf("%s/.config/vsync", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("VSYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	if err := common.SetupLogger(viper.GetString(config.KeyLogLevel), viper.GetString(config.KeyLogFormat)); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println("vsync version " + version)
		},
	}
}
