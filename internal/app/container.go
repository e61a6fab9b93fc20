package app

import (
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/wordindex/internal/infrastructure/config"
	"github.com/eslsoft/wordindex/internal/infrastructure/scheduler"
	"github.com/eslsoft/wordindex/internal/infrastructure/server"
	"github.com/eslsoft/wordindex/internal/infrastructure/snapshot"
	"github.com/eslsoft/wordindex/internal/repository"
	"github.com/eslsoft/wordindex/internal/usecase"
	"github.com/eslsoft/wordindex/internal/usecase/activity"
	"github.com/eslsoft/wordindex/internal/usecase/importer"
)

// Container aggregates the application dependencies produced by Wire.
type Container struct {
	Config    *config.Config
	Logger    *logrus.Logger
	Server    *server.Server
	Tracker   *activity.Tracker
	Snapshots *snapshot.Store
	Scheduler *scheduler.Scheduler
	Index     usecase.IndexUsecase
}

// Toolbox is the subset used by the one-shot maintenance commands.
type Toolbox struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Repo     repository.WordEntryRepository
	Index    usecase.IndexUsecase
	Importer *importer.Service
}
