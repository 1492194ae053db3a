package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/LanDrop/backend/internal/client"
	"github.com/GriffinCanCode/LanDrop/backend/internal/infrastructure/logging"
)

const (
	flagServer   = "server"
	flagVerbose  = "verbose"
	flagSettings = "settings"
)

// env is the state shared by every command.
type env struct {
	logger   *logging.Logger
	settings *client.Settings
	client   *client.Client
}

func RootCmd() *cobra.Command {
	e := &env{}

	r := &cobra.Command{
		Use:           "landrop",
		Short:         "Share files with a LanDrop server on the local network.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
	}

	r.PersistentFlags().String(flagServer, "", "server address for this run (default: saved setting, $"+client.ServerEnv+", "+client.DefaultServerURL+")")
	r.PersistentFlags().BoolP(flagVerbose, "v", false, "debug logging on stderr")
	r.PersistentFlags().String(flagSettings, "", "settings file (default: <user config dir>/landrop/settings.toml)")

	r.AddCommand(
		lsCmd(e),
		uploadCmd(e),
		getCmd(e),
		rmCmd(e),
		checkCmd(e),
		infoCmd(e),
		serverCmd(e),
	)
	return r
}

func (e *env) init(cmd *cobra.Command) error {
	verbose, err := cmd.Flags().GetBool(flagVerbose)
	if err != nil {
		return err
	}
	e.logger, err = logging.New(logging.CLIConfig(verbose))
	if err != nil {
		return err
	}

	path, err := cmd.Flags().GetString(flagSettings)
	if err != nil {
		return err
	}
	if path == "" {
		if path, err = client.DefaultSettingsPath(); err != nil {
			return err
		}
	}
	e.settings, err = client.NewSettings(&client.FileStore{Path: path}, e.logger.Logger)
	if err != nil {
		return err
	}

	base := e.settings.Current()
	override, err := cmd.Flags().GetString(flagServer)
	if err != nil {
		return err
	}
	if override != "" {
		base = override
	}

	cfg := client.DefaultConfig(base)
	cfg.Logger = e.logger.Logger
	e.client, err = client.New(cfg)
	if err != nil {
		return err
	}
	e.logger.Debug("Using server", zap.String("url", e.client.BaseURL()), zap.String("settings", path))
	return nil
}

// confirm asks a yes/no question; anything but y/yes is no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
