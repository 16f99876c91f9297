package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/debanirmalya/hirebuddy/config"
	"github.com/debanirmalya/hirebuddy/internal/api/handlers"
	"github.com/debanirmalya/hirebuddy/internal/api/middleware"
	"github.com/debanirmalya/hirebuddy/internal/api/routes"
	"github.com/debanirmalya/hirebuddy/internal/logger"
	"github.com/debanirmalya/hirebuddy/internal/queue"
	"github.com/debanirmalya/hirebuddy/internal/services"
	"github.com/debanirmalya/hirebuddy/internal/workers"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveWithWorkers bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the candidate API",
	Long: `Start the HTTP API. With QUEUE_BACKEND=memory the pipeline workers always
run inside this process; with redis they run here only when --with-workers is set.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveWithWorkers, "with-workers", false, "also consume the Redis task stream in this process")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer d.Close()

	g, gctx := errgroup.WithContext(ctx)

	var tasks queue.Enqueuer
	var local *queue.ChannelQueue
	var pool *workers.PipelineWorkerPool
	switch cfg.QueueBackend {
	case "memory":
		local = queue.NewChannelQueue(d.jobs, log,
			queue.WithWorkers(cfg.WorkerCount),
			queue.WithQueueSize(cfg.QueueSize),
			queue.WithTaskTimeout(cfg.TaskTimeout),
		)
		local.Start(context.WithoutCancel(gctx))
		tasks = local
	default:
		tasks = queue.NewRedisStream(d.redis, cfg.QueueStream, cfg.QueueMaxLen)
		if serveWithWorkers {
			pool = newWorkerPool(d)
			if err := pool.Start(gctx); err != nil {
				return err
			}
		}
	}

	var audits services.AuditService
	if d.audits != nil {
		audits = services.NewAuditService(d.repo, d.audits)
	}
	svc := services.NewCandidateService(d.repo, d.store, tasks, log)

	if cfg.LogLevel != "debug" && cfg.LogLevel != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(middleware.RequestLogger(log), middleware.Recovery(log))
	routes.RegisterRoutes(r, routes.Deps{
		Candidate: handlers.NewCandidateHandler(svc, audits, cfg.MaxUploadBytes),
		Files:     d.files,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.WithField("port", cfg.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("http shutdown incomplete")
		}
		if local != nil {
			if err := local.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("task queue did not drain")
			}
		}
		if pool != nil {
			pool.Wait()
		}
		return nil
	})

	return g.Wait()
}

func newWorkerPool(d *deps) *workers.PipelineWorkerPool {
	return &workers.PipelineWorkerPool{
		Redis:          d.redis,
		Handler:        d.jobs,
		NumWorkers:     d.cfg.WorkerCount,
		Logger:         d.log,
		Stream:         d.cfg.QueueStream,
		Group:          d.cfg.QueueGroup,
		ConsumerPrefix: d.cfg.ConsumerName,
		TaskTimeout:    d.cfg.TaskTimeout,
	}
}
