//go:build wireinject
// +build wireinject

package di

import (
	"FinPrep/pkg/config"
	"FinPrep/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideBarStore,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,
		ProvideRedisClient,
		ProvideRedisQueue,

		// Ingest path
		ProvideBarBatcher,
		ProvideKafkaBarsHandler,

		// Preparation path
		ProvideDatasetPublisher,
		ProvidePipeline,
		ProvideDatasetService,
		ProvideDatasetJobs,
		ProvideDatasetJob,

		// HTTP surface
		ProvideDatasetsHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
