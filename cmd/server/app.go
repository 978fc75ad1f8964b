package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/studydeck-api/internal/config"
	"github.com/phrazzld/studydeck-api/internal/domain/srs"
	"github.com/phrazzld/studydeck-api/internal/events"
	redisstore "github.com/phrazzld/studydeck-api/internal/platform/redis"
	"github.com/phrazzld/studydeck-api/internal/service/auth"
	"github.com/phrazzld/studydeck-api/internal/service/study"
	"github.com/phrazzld/studydeck-api/internal/stats"
	"github.com/phrazzld/studydeck-api/internal/store"
	goredis "github.com/redis/go-redis/v9"
)

// application holds the shared dependencies of the server and ensures they
// are released on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *goredis.Client

	cardStore   store.CardStore
	reviewStore store.ReviewStore

	jwtService   auth.JWTService
	counter      stats.Counter
	eventEmitter *events.InMemoryEventEmitter
	studyService study.StudyService
}

// newApplication wires every dependency over an open database.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.cardStore, app.reviewStore = newStores(cfg.Database.Driver, db, logger)

	if cfg.Redis.Addr != "" {
		app.redis, err = redisstore.Dial(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.counter = redisstore.NewCounter(app.redis, cfg.Redis.KeyPrefix, logger)
		logger.Info("review statistics kept in redis")
	} else {
		app.counter = stats.NewInMemoryCounter()
		logger.Info("review statistics kept in memory")
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(stats.NewEventHandler(app.counter))

	app.studyService, err = newStudyService(cfg, logger, db, app.cardStore, app.reviewStore, app.eventEmitter)
	if err != nil {
		return nil, err
	}

	logger.Info("application initialized")
	return app, nil
}

// newStudyService builds the study service from configuration. emitter may be nil.
func newStudyService(
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	cards store.CardStore,
	reviews store.ReviewStore,
	emitter events.EventEmitter,
) (study.StudyService, error) {
	scheduler, err := srs.NewServiceWithParams(srs.NewParams(srs.ParamsConfig{
		MaxInterval: cfg.Study.MaxIntervalDays,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create SRS service: %w", err)
	}

	retries := cfg.Study.MaxConflictRetries
	if retries == 0 {
		// Options treats zero as "use the default".
		retries = -1
	}

	return study.NewStudyService(db, cards, reviews, scheduler, study.Options{
		DefaultLimit:       cfg.Study.DefaultLimit,
		MaxLimit:           cfg.Study.MaxLimit,
		MaxConflictRetries: retries,
		Emitter:            emitter,
	}, logger), nil
}

// cleanup releases external connections.
func (app *application) cleanup() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis connection", slog.String("error", err.Error()))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}
	app.logger.Info("application shutdown completed")
}
