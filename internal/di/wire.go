//go:build wireinject
// +build wireinject

package di

import (
	"StockGate/pkg/config"
	"StockGate/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Pipeline stages
		ProvideResolver,
		ProvideMarketData,
		ProvideQuoteCache,
		ProvideQuotes,
		ProvideReasoner,

		// Shared state
		ProvideResultCache,
		ProvideAuditBackend,

		// Orchestration
		ProvidePipeline,
		ProvideWarmer,

		// Protocol adapters and server
		ProvideHandlers,
		ProvideApp,
	)
	return &server.App{}, nil
}
