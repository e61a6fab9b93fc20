//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/wordindex/internal/adapter/repository"
	"github.com/eslsoft/wordindex/internal/adapter/rest"
	"github.com/eslsoft/wordindex/internal/infrastructure/cache"
	"github.com/eslsoft/wordindex/internal/infrastructure/config"
	"github.com/eslsoft/wordindex/internal/infrastructure/scheduler"
	"github.com/eslsoft/wordindex/internal/infrastructure/server"
	"github.com/eslsoft/wordindex/internal/infrastructure/snapshot"
	"github.com/eslsoft/wordindex/internal/usecase"
	"github.com/eslsoft/wordindex/internal/usecase/activity"
	"github.com/eslsoft/wordindex/internal/usecase/importer"
)

var configSet = wire.NewSet(
	config.Load,
	server.NewLogger,
	wire.Bind(new(logrus.FieldLogger), new(*logrus.Logger)),
)

var storeSet = wire.NewSet(
	ProvideDatabase,
	repository.NewWordEntryRepository,
	ProvideBackends,
	cache.New,
)

var usecaseSet = wire.NewSet(
	ProvideTracker,
	wire.Bind(new(rest.ActivityReader), new(*activity.Tracker)),
	ProvideSearchUsecase,
	ProvideIndexUsecase,
	usecase.NewWordEntryUsecase,
	ProvideImporter,
	wire.Bind(new(rest.Importer), new(*importer.Service)),
)

var serverSet = wire.NewSet(
	rest.NewSearchHandler,
	rest.NewWordHandler,
	server.NewServer,
	snapshot.NewStore,
	scheduler.New,
)

// Initialize builds the application container using Wire.
func Initialize() (*Container, func(), error) {
	wire.Build(
		configSet,
		storeSet,
		usecaseSet,
		serverSet,
		wire.Struct(new(Container), "*"),
	)
	return nil, nil, nil
}

// InitializeToolbox builds the dependencies of the maintenance commands.
func InitializeToolbox() (*Toolbox, func(), error) {
	wire.Build(
		configSet,
		storeSet,
		ProvideTracker,
		ProvideIndexUsecase,
		ProvideImporter,
		wire.Struct(new(Toolbox), "*"),
	)
	return nil, nil, nil
}
