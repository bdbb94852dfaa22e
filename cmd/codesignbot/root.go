package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/HowardHan99/codesignbot-sub000/internal/config"
)

// app holds what every subcommand shares once the config is resolved.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
	logger  *log.Logger
}

// newRootCmd builds the command tree. Each call returns a fresh tree so
// tests can run commands in isolation.
func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:          "codesignbot",
		Short:        "Design critique MCP server for whiteboard boards",
		Long:         longRoot,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.codesignbot/config.yml)")
	flags.String("data-dir", "", "directory holding boards.db")
	flags.String("log-level", "", "debug, info, warn or error")
	_ = a.v.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = a.v.BindPFlag("log_level", flags.Lookup("log-level"))

	root.AddCommand(
		newServeCmd(a),
		newMergeCmd(a),
		newTreeCmd(a),
		newVersionCmd(),
	)
	return root
}

// load resolves the configuration and the logger. Logs always go to stderr
// so the MCP stdio transport keeps stdout to itself.
func (a *app) load(cmd *cobra.Command) error {
	if err := config.Init(a.v, a.cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = log.NewWithOptions(os.Stderr, log.Options{
		Level:           cfg.Level(),
		ReportTimestamp: true,
		Prefix:          "codesignbot",
	})
	log.SetDefault(a.logger)
	a.logger.Debug("config loaded", "data_dir", cfg.DataDir, "provider", cfg.Critic.Provider, "file", a.v.ConfigFileUsed())
	return nil
}

var longRoot = `
codesignbot keeps a copy of a whiteboard's design decisions (sticky notes in
frames, and the connectors between them), turns them into a decision forest,
and collapses near-duplicate critique points.

Run "codesignbot serve" from an MCP host. Configuration comes from flags,
CODESIGNBOT_* environment variables, and an optional config.yml.
`
