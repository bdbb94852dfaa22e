package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	cdserver "github.com/HowardHan99/codesignbot-sub000/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	_ = a.v.BindPFlag("metrics_addr", cmd.Flags().Lookup("metrics-addr"))
	return cmd
}

func (a *app) serve(parent context.Context) error {
	s, cleanup, err := cdserver.New(a.cfg, cdserver.Options{Logger: a.logger})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("serving MCP on stdio", "version", cdserver.Version, "data_dir", a.cfg.DataDir)

	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(a.logger.StandardLog())
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
