package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/lk2023060901/app-idea-analyzer/internal/conf"
	"github.com/lk2023060901/app-idea-analyzer/internal/data"
	globebiz "github.com/lk2023060901/app-idea-analyzer/internal/globe/biz"
	globeservice "github.com/lk2023060901/app-idea-analyzer/internal/globe/service"
	ideabiz "github.com/lk2023060901/app-idea-analyzer/internal/idea/biz"
	ideaservice "github.com/lk2023060901/app-idea-analyzer/internal/idea/service"
	"github.com/lk2023060901/app-idea-analyzer/internal/llm"
	marketbiz "github.com/lk2023060901/app-idea-analyzer/internal/market/biz"
	marketservice "github.com/lk2023060901/app-idea-analyzer/internal/market/service"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/logger"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/tracing"
	"github.com/lk2023060901/app-idea-analyzer/internal/server"
	"github.com/lk2023060901/app-idea-analyzer/internal/websearch/provider"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "config file path")
)

func main() {
	flag.Parse()

	// Load configuration
	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&config.Log)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("config loaded successfully",
		zap.String("store_driver", config.Store.Driver),
		zap.String("llm_model", config.LLM.Model),
	)

	shutdownTracing, err := tracing.Setup(context.Background(), &config.Tracing, log)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}

	// Initialize data layer
	d, cleanup, err := data.NewData(config, log)
	if err != nil {
		log.Fatal("failed to initialize data layer", zap.Error(err))
	}
	defer cleanup()

	completer, err := llm.New(&config.LLM, log)
	if err != nil {
		log.Fatal("failed to initialize llm client", zap.Error(err))
	}

	// Initialize search providers in merge order
	factory := provider.NewFactory()
	var registrations []marketbiz.Registration
	for _, pc := range config.Search.ProviderConfigs() {
		p, err := factory.Create(pc)
		if err != nil {
			log.Fatal("failed to create search provider", zap.String("provider", string(pc.ID)), zap.Error(err))
		}
		registrations = append(registrations, marketbiz.Registration{
			Provider:   p,
			Policy:     pc.FailurePolicy,
			Timeout:    pc.Timeout,
			MaxResults: pc.MaxResults,
		})
		log.Info("search provider registered",
			zap.String("provider", string(pc.ID)),
			zap.String("failure_policy", string(pc.FailurePolicy)),
		)
	}

	countries, err := globebiz.LoadCountryTable(config.Globe.CountriesFile)
	if err != nil {
		log.Fatal("failed to load country table", zap.Error(err))
	}

	// Initialize use cases
	retries := config.LLM.DecodeRetries
	searchUseCase := marketbiz.NewSearchUseCase(
		marketbiz.NewQueryPlanner(completer, retries),
		marketbiz.NewAnalysisGenerator(completer, retries),
		registrations,
		log,
	)
	ideaUseCase := ideabiz.NewIdeaUseCase(d.IdeaRepo, ideabiz.NewIdeaDetailsGenerator(completer, retries), log)

	// Initialize services
	searchService := marketservice.NewSearchService(searchUseCase, log)
	ideaService := ideaservice.NewIdeaService(ideaUseCase, log)
	globeService := globeservice.NewGlobeService(
		globebiz.NewClassifier(completer, retries),
		globebiz.NewRenderer(countries),
		log,
	)

	httpServer := server.NewHTTPServer(config, log, searchService, ideaService, globeService)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	log.Info("server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Warn("failed to flush traces", zap.Error(err))
	}

	log.Info("server exited")
}
