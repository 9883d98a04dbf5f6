package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	derrors "github.com/docyard/docyard/pkg/errors"
	"github.com/docyard/docyard/pkg/queue"
	"github.com/docyard/docyard/pkg/store"
)

// popTimeout bounds each blocking pop so the worker notices context
// cancellation between jobs.
const popTimeout = 2 * time.Second

// newQueueCmd creates the queue command group.
func newQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Manage the build queue",
		Long: `Manage the Redis-backed build queue.

Jobs name a crate and an optional version; workers pop them and run the full
build pipeline. All subcommands read the Redis address from --redis or
DOCYARD_REDIS_ADDR.`,
	}

	cmd.AddCommand(newQueueAddCmd())
	cmd.AddCommand(newQueueWorkCmd())
	cmd.AddCommand(newQueueWatchCmd())

	return cmd
}

// openQueue connects to the Redis build queue. A bare host:port is accepted
// and treated as a redis:// URL.
func openQueue(ctx context.Context, addr string) (*queue.Redis, error) {
	if addr == "" {
		addr = envOr("REDIS_ADDR", "")
	}
	if addr == "" {
		return nil, derrors.New(derrors.ErrCodeInvalidInput,
			"queue commands need a Redis address (set --redis or DOCYARD_REDIS_ADDR)")
	}
	if !strings.Contains(addr, "://") {
		addr = "redis://" + addr
	}
	return queue.NewRedis(ctx, addr, "")
}

// jobLabel names a job for log and status lines.
func jobLabel(job queue.Job) string {
	if job.Version == "" {
		return job.Name
	}
	return job.Name + "-" + job.Version
}

func newQueueAddCmd() *cobra.Command {
	var redisAddr string

	cmd := &cobra.Command{
		Use:   "add <crate> [version]",
		Short: "Enqueue a build job",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			version := ""
			if len(args) == 2 {
				version = args[1]
			}

			q, err := openQueue(ctx, redisAddr)
			if err != nil {
				return err
			}
			defer q.Close()

			job := queue.NewJob(args[0], version)
			if err := q.Push(ctx, job); err != nil {
				return err
			}
			printSuccess("Queued %s", jobLabel(job))
			if n, err := q.Len(ctx); err == nil {
				printDetail("%d job(s) waiting", n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address (default $DOCYARD_REDIS_ADDR)")

	return cmd
}

func newQueueWorkCmd() *cobra.Command {
	var (
		redisAddr    string
		skipExisting bool
		noCache      bool
	)

	cmd := &cobra.Command{
		Use:   "work",
		Short: "Process build jobs until interrupted",
		Long: `Pop jobs from the build queue and run the build pipeline for each.

A job that fails is logged and dropped; the worker moves on to the next one.
Stop the worker with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWork(cmd, redisAddr, skipExisting, noCache)
		},
	}

	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address (default $DOCYARD_REDIS_ADDR)")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "skip jobs whose documentation already exists")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the archive download cache")

	return cmd
}

func runWork(cmd *cobra.Command, redisAddr string, skipExisting, noCache bool) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	q, err := openQueue(ctx, redisAddr)
	if err != nil {
		return err
	}
	defer q.Close()

	deps, err := newBuildDeps(cmd, skipExisting, noCache, logger.Infof)
	if err != nil {
		return err
	}
	defer deps.close()

	logger.Info("worker started")
	for {
		job, err := q.Pop(ctx, popTimeout)
		if err == queue.ErrEmpty {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("worker stopping")
				return nil
			}
			return err
		}

		prog := newProgress(logger)
		logger.Infof("job %s: building %s", job.ID, jobLabel(job))
		if err := workJob(ctx, deps, job); err != nil {
			logger.Errorf("job %s: %s failed: %v", job.ID, jobLabel(job), err)
			continue
		}
		prog.done(fmt.Sprintf("job %s: %s done", job.ID, jobLabel(job)))
	}
}

// workJob runs one job end to end: resolve the version, build, and ingest.
func workJob(ctx context.Context, deps *buildDeps, job queue.Job) error {
	version, err := resolveVersion(deps.paths.Index, job.Name, job.Version)
	if err != nil {
		return err
	}
	if err := deps.builder.BuildPackage(ctx, job.Name, version); err != nil {
		return err
	}
	return deps.builder.Ingest(ctx, job.Name, version)
}

func newQueueWatchCmd() *cobra.Command {
	var redisAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live view of the queue and recent releases",
		Long: `Show a live view of the build queue length and the most recently ingested
releases. The release feed needs DOCYARD_DATABASE_URL; without it only the
queue length is shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			q, err := openQueue(ctx, redisAddr)
			if err != nil {
				return err
			}
			defer q.Close()

			var st *store.Store
			if dsn := envOr("DATABASE_URL", ""); dsn != "" {
				if st, err = store.Open(dsn); err != nil {
					return err
				}
				defer st.Close()
			}

			_, err = tea.NewProgram(newWatchModel(q, st), tea.WithContext(ctx)).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address (default $DOCYARD_REDIS_ADDR)")

	return cmd
}
