package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/wordindex/internal/adapter/search"
	"github.com/eslsoft/wordindex/internal/infrastructure/cache"
	"github.com/eslsoft/wordindex/internal/infrastructure/config"
	"github.com/eslsoft/wordindex/internal/infrastructure/database"
	"github.com/eslsoft/wordindex/internal/repository"
	"github.com/eslsoft/wordindex/internal/usecase"
	"github.com/eslsoft/wordindex/internal/usecase/activity"
	"github.com/eslsoft/wordindex/internal/usecase/importer"
)

// ProvideDatabase opens the configured store and brings its schema up to date.
func ProvideDatabase(cfg *config.Config, logger logrus.FieldLogger) (*database.DB, func(), error) {
	db, cleanup, err := database.NewConnection(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(context.Background(), db, logger); err != nil {
		cleanup()
		return nil, nil, err
	}
	return db, cleanup, nil
}

// ProvideBackends selects the search backend. The bleve index falls back to
// the store while it is unavailable.
func ProvideBackends(cfg *config.Config, repo repository.WordEntryRepository, logger logrus.FieldLogger) (usecase.Backends, func(), error) {
	store := search.NewStoreBackend(repo)
	switch strings.ToLower(strings.TrimSpace(cfg.Search.Backend)) {
	case "", search.StoreBackendName:
		return usecase.Backends{Primary: store}, func() {}, nil
	case search.BleveBackendName:
		idx, err := search.OpenBleveBackend(cfg.Search.IndexPath)
		if err != nil {
			return usecase.Backends{}, nil, fmt.Errorf("open search index: %w", err)
		}
		logger.WithField("path", cfg.Search.IndexPath).Info("bleve search index opened")
		cleanup := func() {
			if err := idx.Close(); err != nil {
				logger.WithError(err).Warn("close search index")
			}
		}
		return usecase.Backends{Primary: idx, Fallback: store}, cleanup, nil
	default:
		return usecase.Backends{}, nil, fmt.Errorf("unsupported search backend %q", cfg.Search.Backend)
	}
}

func ProvideTracker(cfg *config.Config, logger logrus.FieldLogger) *activity.Tracker {
	return activity.NewTracker(cfg.Activity, logger)
}

func ProvideSearchUsecase(cfg *config.Config, backends usecase.Backends, tracker *activity.Tracker, resultCache cache.Cache, logger logrus.FieldLogger) usecase.SearchUsecase {
	return usecase.NewSearchUsecase(backends, tracker, resultCache, usecase.SearchOptions{
		ResultLimit:           cfg.Search.ResultLimit,
		AutocompleteMinLength: cfg.Search.AutocompleteMinLength,
	}, logger)
}

func ProvideIndexUsecase(cfg *config.Config, backends usecase.Backends, repo repository.WordEntryRepository, tracker *activity.Tracker, resultCache cache.Cache, logger logrus.FieldLogger) usecase.IndexUsecase {
	return usecase.NewIndexUsecase(backends, repo, tracker, resultCache, cfg.Search.BatchSize, logger)
}

func ProvideImporter(cfg *config.Config, repo repository.WordEntryRepository, logger logrus.FieldLogger) (*importer.Service, func(), error) {
	return importer.NewService(cfg.Import, repo, logger)
}
