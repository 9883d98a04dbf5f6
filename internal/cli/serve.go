package cli

import (
	"github.com/spf13/cobra"

	derrors "github.com/docyard/docyard/pkg/errors"
	"github.com/docyard/docyard/pkg/queue"
	"github.com/docyard/docyard/pkg/server"
	"github.com/docyard/docyard/pkg/store"
)

// newServeCmd creates the serve command for the read API.
func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve crate metadata over HTTP",
		Long: `Serve the read API backed by the metadata database.

Endpoints:
  GET /healthz
  GET /api/crates/{name}
  GET /api/crates/{name}/releases/{version}
  GET /api/queue

Requires DOCYARD_DATABASE_URL. The queue endpoint is mounted only when
DOCYARD_REDIS_ADDR is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	return cmd
}

func runServe(cmd *cobra.Command, addr string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	dsn := envOr("DATABASE_URL", "")
	if dsn == "" {
		return derrors.New(derrors.ErrCodeInvalidInput, "serve needs a database (set DOCYARD_DATABASE_URL)")
	}
	st, err := store.Open(dsn)
	if err != nil {
		return err
	}
	defer st.Close()

	var q queue.Queue
	if raddr := envOr("REDIS_ADDR", ""); raddr != "" {
		rq, err := openQueue(ctx, raddr)
		if err != nil {
			return err
		}
		defer rq.Close()
		q = rq
	}

	srv := server.New(server.Options{
		Store:  st,
		Queue:  q,
		Logger: logger.Infof,
	})
	logger.Infof("listening on %s", addr)
	return srv.Run(ctx, addr)
}
