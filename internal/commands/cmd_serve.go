package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/dayboard/internal/board"
	"github.com/colonyops/dayboard/internal/profiler"
	"github.com/colonyops/dayboard/internal/web"
)

// ServeCmd runs the HTTP API.
type ServeCmd struct {
	flags *Flags
	app   *board.App

	addr      string
	pprofAddr string
}

// NewServeCmd creates a new serve command.
func NewServeCmd(flags *Flags, app *board.App) *ServeCmd {
	return &ServeCmd{flags: flags, app: app}
}

// Register adds the serve command to the application.
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Serve the board over HTTP",
		UsageText: "dayboard serve [--addr <host:port>]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address, overrides server.addr",
				Sources:     cli.EnvVars("DAYBOARD_ADDR"),
				Destination: &cmd.addr,
			},
			&cli.StringFlag{
				Name:        "pprof-addr",
				Usage:       "serve net/http/pprof on this address (disabled when empty)",
				Sources:     cli.EnvVars("DAYBOARD_PPROF_ADDR"),
				Destination: &cmd.pprofAddr,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ServeCmd) run(ctx context.Context, _ *cli.Command) error {
	if cmd.addr != "" {
		cmd.app.Config.Server.Addr = cmd.addr
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.pprofAddr != "" {
		prof := profiler.New(cmd.pprofAddr, log.Logger)
		if err := prof.Start(ctx); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cmd.app.Config.Server.ShutdownTimeout)
			defer cancel()
			_ = prof.Shutdown(shutdownCtx)
		}()
	}

	return web.NewServer(cmd.app, log.Logger).Run(ctx)
}
