package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"student-records/internal/config"
	"student-records/internal/logging"
	"student-records/internal/repository"
	"student-records/internal/repository/postgres"
	"student-records/internal/repository/sqlite"
	"student-records/internal/storage"
)

// stores is the set of repositories backed by the configured database.
type stores struct {
	users    repository.UserRepository
	students repository.StudentRepository
	close    func()
}

func loadConfig(flags *pflag.FlagSet) (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("setup logger: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, logger, nil
}

// openStores connects to the configured database and brings its schema up
// to date.
func openStores(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*stores, error) {
	switch cfg.Database.Driver {
	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.Database.DSN, logger)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("using postgres credential store")
		return postgresStores(pool), nil
	default:
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		s := sqliteStores(db)
		if err := s.users.Init(ctx); err != nil {
			s.close()
			return nil, fmt.Errorf("init user repository: %w", err)
		}
		if err := s.students.Init(ctx); err != nil {
			s.close()
			return nil, fmt.Errorf("init student repository: %w", err)
		}
		logger.Infof("using sqlite credential store at %s", cfg.Database.Path)
		return s, nil
	}
}

func sqliteStores(db *sql.DB) *stores {
	return &stores{
		users:    sqlite.NewUserRepository(db),
		students: sqlite.NewStudentRepository(db),
		close:    func() { _ = db.Close() },
	}
}

func postgresStores(pool *pgxpool.Pool) *stores {
	return &stores{
		users:    postgres.NewUserRepository(pool),
		students: postgres.NewStudentRepository(pool),
		close:    pool.Close,
	}
}

// buildStorage returns the picture store and, for the local backend, the
// directory to serve under /uploads.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, string, error) {
	if cfg.Storage.Backend != "s3" {
		local, err := storage.NewLocalService(cfg.Storage.Dir, "/uploads")
		if err != nil {
			return nil, "", err
		}
		logger.Infof("storing pictures in %s", local.Root())
		return local, local.Root(), nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, "", fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	svc, err := storage.NewS3Service(client, cfg.Storage.Bucket, cfg.Storage.KeyPrefix)
	if err != nil {
		return nil, "", err
	}
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return svc, "", nil
}
