package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/paperbox-app/paperbox/internal/config"
	"github.com/paperbox-app/paperbox/internal/core/ports"
	"github.com/paperbox-app/paperbox/internal/core/usecase"
	"github.com/paperbox-app/paperbox/internal/infrastructure/extractor"
	"github.com/paperbox-app/paperbox/internal/infrastructure/extractor/convert"
	"github.com/paperbox-app/paperbox/internal/infrastructure/extractor/ocr"
	"github.com/paperbox-app/paperbox/internal/infrastructure/queue/nats"
	"github.com/paperbox-app/paperbox/internal/infrastructure/repository/postgres"
	"github.com/paperbox-app/paperbox/internal/infrastructure/resilience"
	"github.com/paperbox-app/paperbox/internal/infrastructure/storage/localfs"
	"github.com/paperbox-app/paperbox/internal/infrastructure/storage/s3"
	"github.com/paperbox-app/paperbox/internal/infrastructure/tokenizer"
)

type App struct {
	Config config.Config

	Repo       ports.DocumentRepository
	Queue      ports.TaskQueue
	UploadUC   ports.DocumentUploader
	DispatchUC ports.IngestDispatcher

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := newObjectStorage(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var queue *nats.Queue
	if !cfg.IngestSync {
		queue, err = nats.New(cfg.NATSURL, nats.Options{
			Stream:             cfg.NATSStream,
			Subject:            cfg.NATSSubject,
			Durable:            cfg.NATSDurable,
			TaskTimeout:        time.Duration(cfg.TaskTimeoutSeconds) * time.Second,
			RetryDelay:         time.Duration(cfg.RetryDelaySeconds) * time.Second,
			CatchUp:            cfg.QueueCatchUp,
			ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init task queue: %w", err)
		}
	}

	tokens, err := tokenizer.NewCounter(cfg.TokenizerEncoding)
	if err != nil {
		if queue != nil {
			queue.Close()
		}
		_ = db.Close()
		return nil, fmt.Errorf("init tokenizer: %w", err)
	}

	extractors := map[extractor.Strategy]ports.TextExtractor{
		extractor.StrategyOCR: ocr.NewExtractor(
			ocr.NewTesseractEngine(cfg.OCRLanguage),
			ocr.NewPopplerRasterizer(cfg.PdftoppmBinary, cfg.OCRDPI, cfg.OCRMaxPages),
		),
		extractor.StrategyConvert: convert.NewExtractor(),
	}

	dispatchUC := usecase.NewDispatchUseCase(repo, storage, extractors, tokens)

	var taskQueue ports.TaskQueue
	if queue != nil {
		taskQueue = queue
	}
	uploadUC := usecase.NewUploadUseCase(repo, storage, taskQueue, dispatchUC, cfg.IngestSync)

	return &App{
		Config: cfg,

		Repo:       repo,
		Queue:      taskQueue,
		UploadUC:   uploadUC,
		DispatchUC: dispatchUC,

		closeFn: func() {
			if queue != nil {
				queue.Close()
			}
			_ = db.Close()
		},
	}, nil
}

func newObjectStorage(ctx context.Context, cfg config.Config) (ports.ObjectStorage, error) {
	switch cfg.StorageBackend {
	case "s3":
		storage, err := s3.New(ctx, s3.Options{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("init s3 storage: %w", err)
		}
		return storage, nil
	case "local", "":
		storage, err := localfs.New(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("init local storage: %w", err)
		}
		return storage, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
