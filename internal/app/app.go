package app

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/pawprintclub/pawfeed/internal/config"
	"github.com/pawprintclub/pawfeed/internal/db"
	"github.com/pawprintclub/pawfeed/internal/repository"
	"github.com/pawprintclub/pawfeed/internal/service"
	"github.com/pawprintclub/pawfeed/internal/storage"
)

type App struct {
	Cfg          *config.Config
	DB           *sqlx.DB // nil for the flat-file backend
	Storage      storage.Storage
	PostService  *service.PostService
	EmailService *service.EmailService

	postRepo repository.PostRepository
}

func New(cfg *config.Config) (*App, error) {
	a := &App{Cfg: cfg}

	// Post store: hosted database or flat JSON document
	switch cfg.StoreBackend {
	case config.StoreBackendFile:
		repo, err := repository.NewFilePostRepository(filepath.Join(cfg.DataDir, "posts.json"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize flat-file store: %v", err)
		}
		a.postRepo = repo

	default:
		database, err := db.Connect(cfg.DBDriver, cfg.DBConnection)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %v", err)
		}

		err = db.RunMigrations(database.DB, cfg.DBDriver)
		if err != nil {
			return nil, fmt.Errorf("failed to run migrations: %v", err)
		}

		a.DB = database
		a.postRepo = repository.NewSQLPostRepository(database)
	}

	// Blob storage
	switch cfg.StorageDriver {
	case config.StorageDriverS3:
		s3Storage, err := storage.NewS3Storage(storage.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %v", err)
		}
		a.Storage = s3Storage

	default:
		localStorage, err := storage.NewLocalStorage(filepath.Join(cfg.DataDir, "uploads"), cfg.PublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %v", err)
		}
		a.Storage = localStorage
	}

	a.PostService = service.NewPostService(a.postRepo, a.Storage)
	a.EmailService = service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.ResendAudienceID,
		cfg.IsDevelopment(),
	)

	return a, nil
}

func (a *App) Close() error {
	if closer, ok := a.postRepo.(io.Closer); ok {
		err := closer.Close()
		if err != nil {
			return err
		}
	}
	return db.Close(a.DB)
}
