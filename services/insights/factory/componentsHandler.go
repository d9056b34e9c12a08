package factory

import (
	"github.com/denster32/health-insights/services/insights/api"
	"github.com/denster32/health-insights/services/insights/config"
	"github.com/denster32/health-insights/services/insights/engine"
	"github.com/denster32/health-insights/services/insights/importer"
	"github.com/denster32/health-insights/services/insights/storage"
)

type componentsHandler struct {
	store    engine.SampleStore
	engine   api.Engine
	importer api.Importer
	server   Server
	closers  []func() error
}

// NewComponentsHandler creates a new components handler
func NewComponentsHandler(
	serviceKeyApi string,
	cfg config.Config,
) (*componentsHandler, error) {
	store, err := storage.NewSQLiteSampleStore(cfg.DatabasePath, cfg.RetentionSeconds)
	if err != nil {
		return nil, err
	}

	eng, err := engine.NewInsightsEngine(engine.ArgsInsightsEngine{
		Store:                     store,
		Metrics:                   cfg.Metrics,
		PointBudget:               cfg.PointBudget,
		MinimumBucketWidthSeconds: cfg.MinimumBucketWidthSeconds,
		CacheCapacity:             cfg.CacheCapacity,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	imp, err := importer.NewJSONImporter(store, cfg.Import)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	serverArgs := api.ArgsWebServer{
		ServiceKeyApi:  serviceKeyApi,
		ListenAddress:  cfg.ListenAddress,
		Engine:         eng,
		Writer:         store,
		Importer:       imp,
		GeneralHandler: api.CORSMiddleware,
	}

	server, err := api.NewServer(serverArgs)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &componentsHandler{
		store:    store,
		engine:   eng,
		importer: imp,
		server:   server,
		closers:  []func() error{server.Close, store.Close},
	}, nil
}

// GetStore returns the sample store component
func (ch *componentsHandler) GetStore() engine.SampleStore {
	return ch.store
}

// GetEngine returns the aggregation engine component
func (ch *componentsHandler) GetEngine() api.Engine {
	return ch.engine
}

// GetImporter returns the importer component
func (ch *componentsHandler) GetImporter() api.Importer {
	return ch.importer
}

// GetServer returns the server component
func (ch *componentsHandler) GetServer() Server {
	return ch.server
}

// Start starts the inner components
func (ch *componentsHandler) Start() {
	ch.server.Start()
}

// Close closes the inner components
func (ch *componentsHandler) Close() {
	for _, closeFunc := range ch.closers {
		_ = closeFunc()
	}
}
