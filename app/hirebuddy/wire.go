package main

import (
	"context"
	"fmt"
	"time"

	"github.com/debanirmalya/hirebuddy/config"
	"github.com/debanirmalya/hirebuddy/internal/api/handlers"
	"github.com/debanirmalya/hirebuddy/internal/cache"
	"github.com/debanirmalya/hirebuddy/internal/extraction"
	"github.com/debanirmalya/hirebuddy/internal/messaging"
	"github.com/debanirmalya/hirebuddy/internal/providers/llm"
	"github.com/debanirmalya/hirebuddy/internal/providers/textextract"
	"github.com/debanirmalya/hirebuddy/internal/repositories"
	"github.com/debanirmalya/hirebuddy/internal/repositories/cached"
	"github.com/debanirmalya/hirebuddy/internal/repositories/memory"
	mongorepo "github.com/debanirmalya/hirebuddy/internal/repositories/mongo"
	pgrepo "github.com/debanirmalya/hirebuddy/internal/repositories/postgres"
	"github.com/debanirmalya/hirebuddy/internal/services"
	"github.com/debanirmalya/hirebuddy/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

// deps holds every long-lived component of the process.
type deps struct {
	cfg *config.Config
	log *logrus.Logger

	db      *gorm.DB
	redis   *redis.Client
	repo    repositories.CandidateRepository
	store   storage.Store
	files   *handlers.FilesHandler
	audits  mongorepo.AuditRepository
	jobs    *services.PipelineJobs
	closers []func() error
}

func buildDeps(ctx context.Context, cfg *config.Config, log *logrus.Logger) (_ *deps, err error) {
	d := &deps{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			d.Close()
		}
	}()

	if cfg.RedisURL != "" {
		d.redis, err = config.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		d.closers = append(d.closers, d.redis.Close)
		log.Info("redis connected")
	}

	switch cfg.StoreBackend {
	case "postgres":
		d.db, err = config.NewPostgres(cfg.PostgresURI)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		db := d.db
		d.closers = append(d.closers, func() error { return config.ClosePostgres(db) })
		d.repo = pgrepo.NewCandidateRepo(d.db)
		log.Info("postgres connected")
	default:
		d.repo = memory.NewCandidateRepo()
		log.Warn("using in-memory candidate store, data is lost on restart")
	}
	if d.redis != nil {
		d.repo = cached.NewCandidateRepo(d.repo, cache.NewRedisCache(d.redis, "hirebuddy"), cfg.CacheTTL, log)
	}

	if cfg.AuditEnabled() {
		client, err := config.NewMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		d.closers = append(d.closers, func() error {
			cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(cctx)
		})
		d.audits = mongorepo.NewAuditRepo(client.Database(cfg.MongoDB), cfg.AuditRetention)
		log.Info("mongo connected")
	}

	if err := d.buildStorage(ctx); err != nil {
		return nil, err
	}

	model, err := d.buildModel(ctx)
	if err != nil {
		return nil, err
	}

	extractCfg := extraction.DefaultConfig()
	extractCfg.MinTextLength = cfg.MinTextLength
	extractCfg.Timeout = cfg.ExtractionTimeout

	d.jobs = services.NewPipelineJobs(services.PipelineDeps{
		Repo:   d.repo,
		Text:   textextract.New(d.store),
		Fields: extraction.NewEngine(model, extractCfg, log),
		Messages: messaging.NewGenerator(model, messaging.Config{
			SenderEmail: cfg.SenderEmail,
			SenderName:  cfg.SenderName,
			Timeout:     cfg.GenerationTimeout,
		}, log),
		Audits: d.audits,
		Logger: log,
	})
	return d, nil
}

func (d *deps) googleOptions() []option.ClientOption {
	if d.cfg.GoogleCredentials == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(d.cfg.GoogleCredentials)}
}

func (d *deps) buildStorage(ctx context.Context) error {
	switch d.cfg.StorageBackend {
	case "gcs":
		s, err := storage.NewGCSStore(ctx, d.cfg.GCSBucket, d.googleOptions()...)
		if err != nil {
			return fmt.Errorf("gcs: %w", err)
		}
		d.closers = append(d.closers, s.Close)
		d.store = s
		d.files = handlers.NewSignedFilesHandler(s, d.cfg.SignedURLTTL)
	default:
		s, err := storage.NewLocalStore(d.cfg.UploadDir)
		if err != nil {
			return fmt.Errorf("upload dir: %w", err)
		}
		d.store = s
		d.files = handlers.NewLocalFilesHandler(s.Root())
	}
	return nil
}

// buildModel returns nil for LLM_PROVIDER=none; extraction and messaging
// then run on heuristics and templates only.
func (d *deps) buildModel(ctx context.Context) (llm.Provider, error) {
	switch d.cfg.LLMProvider {
	case "vertex":
		m, err := llm.NewVertexGemini(ctx, d.cfg.VertexProject, d.cfg.VertexLocation, d.cfg.VertexModel, d.googleOptions()...)
		if err != nil {
			return nil, fmt.Errorf("vertex: %w", err)
		}
		d.closers = append(d.closers, m.Close)
		return m, nil
	case "none":
		return nil, nil
	default:
		m := llm.NewOllama(d.cfg.OllamaURL, d.cfg.OllamaModel, maxDuration(d.cfg.ExtractionTimeout, d.cfg.GenerationTimeout))
		d.closers = append(d.closers, m.Close)
		return m, nil
	}
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.log.WithError(err).Warn("close failed")
		}
	}
	d.closers = nil
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
