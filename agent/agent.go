package agent

import (
	"fmt"
	"sync"

	"github.com/flowsmith/engine/analytics"
	"github.com/flowsmith/engine/bus"
	"github.com/flowsmith/engine/config"
	"github.com/flowsmith/engine/engine"
	"github.com/flowsmith/engine/executor"
	"github.com/flowsmith/engine/logger"
	"github.com/flowsmith/engine/persistence"
	"github.com/flowsmith/engine/registry"
	"github.com/flowsmith/engine/rest"
	"github.com/flowsmith/engine/store"
	"github.com/flowsmith/engine/task"
	"github.com/flowsmith/engine/trigger"
	"github.com/flowsmith/engine/warehouse"
	"go.uber.org/zap"
)

const inMemBusCapacity = 1024

type Agent struct {
	Config          config.Config
	warehouse       *warehouse.SQLWarehouse
	objectStore     store.ObjectStore
	taskRegistry    *task.Registry
	eventBus        bus.EventBus
	runStorage      persistence.RunStorage
	registryService registry.Service
	flowEngine      *engine.FlowEngine
	scheduler       *trigger.Scheduler
	httpServer      *rest.Server
	shutdown        bool
	shutdowns       chan struct{}
	shutdownLock    sync.Mutex
	wg              sync.WaitGroup
}

func New(config config.Config) (*Agent, error) {
	a := &Agent{
		Config:    config,
		shutdowns: make(chan struct{}),
	}
	setup := []func() error{
		a.setupAnalytics,
		a.setupWarehouse,
		a.setupObjectStore,
		a.setupTaskRegistry,
		a.setupEventBus,
		a.setupRunStorage,
		a.setupRegistryService,
		a.setupFlowEngine,
		a.setupScheduler,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupAnalytics() error {
	conf := analytics.DataCollectorConfig{CollectorType: analytics.NOOP_DATA_COLLECTOR}
	if a.Config.AnalyticsFile != "" {
		conf = analytics.DataCollectorConfig{
			CollectorType: analytics.LOG_FILE_DATA_COLLECTOR,
			FileName:      a.Config.AnalyticsFile,
		}
	}
	return analytics.InitDataCollector(conf)
}

func (a *Agent) setupWarehouse() error {
	var err error
	switch a.Config.WarehouseConfig.Driver {
	case warehouse.DRIVER_MYSQL:
		a.warehouse, err = warehouse.NewMySQL(a.Config.WarehouseConfig.DSN)
	case warehouse.DRIVER_SQLITE:
		a.warehouse, err = warehouse.NewSQLite(a.Config.WarehouseConfig.DSN)
	default:
		err = fmt.Errorf("unsupported warehouse driver %s", a.Config.WarehouseConfig.Driver)
	}
	return err
}

func (a *Agent) setupObjectStore() error {
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_REDIS:
		a.objectStore = store.NewRedisObjectStore(a.Config.RedisConfig)
	case config.STORAGE_TYPE_INMEM:
		a.objectStore = store.NewInMemObjectStore()
	default:
		return fmt.Errorf("unsupported storage type %s", a.Config.StorageType)
	}
	return nil
}

func (a *Agent) setupTaskRegistry() error {
	a.taskRegistry = task.NewRegistry()
	return task.RegisterBuiltins(a.taskRegistry)
}

func (a *Agent) setupEventBus() error {
	switch a.Config.BusType {
	case config.BUS_TYPE_REDIS:
		a.eventBus = bus.NewRedisEventBus(a.Config.RedisConfig, &a.wg)
	case config.BUS_TYPE_MEMORY:
		a.eventBus = bus.NewInMemEventBus(&a.wg, inMemBusCapacity)
	default:
		return fmt.Errorf("unsupported bus type %s", a.Config.BusType)
	}
	return nil
}

func (a *Agent) setupRunStorage() error {
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_REDIS:
		a.runStorage = persistence.NewRedisRunStorage(a.Config.RedisConfig, a.Config.RunStorePartitions)
	case config.STORAGE_TYPE_INMEM:
		a.runStorage = persistence.NewInMemRunStorage()
	default:
		return fmt.Errorf("unsupported storage type %s", a.Config.StorageType)
	}
	return nil
}

func (a *Agent) setupRegistryService() error {
	var storage registry.Storage
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_REDIS:
		storage = registry.NewRedisStorage(a.Config.RedisConfig)
	case config.STORAGE_TYPE_INMEM:
		storage = registry.NewInMemStorage()
	default:
		return fmt.Errorf("unsupported storage type %s", a.Config.StorageType)
	}
	a.registryService = registry.NewService(storage, a.taskRegistry)
	return nil
}

func (a *Agent) setupFlowEngine() error {
	ec := task.ExecutionContext{
		Warehouse: a.warehouse,
		Objects:   a.objectStore,
		Logger:    zap.L(),
	}
	runExecutor := executor.NewRunExecutor(ec)
	a.flowEngine = engine.NewFlowEngine(a.registryService, runExecutor, a.eventBus,
		a.runStorage, a.Config.OverlapPolicy, a.Config.DefaultBus, &a.wg)
	return nil
}

func (a *Agent) setupScheduler() error {
	a.scheduler = trigger.NewScheduler(a.eventBus, a.flowEngine, &a.wg)
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.registryService, a.flowEngine,
		a.scheduler, a.eventBus, a.Config.DefaultBus)
	return err
}

// bindStoredFlows rebinds triggers for every definition already in storage so
// a restart picks up where the previous process left off.
func (a *Agent) bindStoredFlows() error {
	defs, err := a.registryService.All()
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := a.scheduler.Bind(def); err != nil {
			logger.Error("error binding stored flow", zap.String("flow", def.Name), zap.Error(err))
			return err
		}
	}
	return nil
}

func (a *Agent) Start() error {
	a.eventBus.Start()
	if err := a.bindStoredFlows(); err != nil {
		return err
	}
	a.scheduler.Start()
	go func() {
		if err := a.httpServer.Start(); err != nil {
			_ = a.Shutdown()
			panic(err)
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down server")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true
	close(a.shutdowns)

	shutdown := []func() error{
		a.httpServer.Stop,
		func() error {
			a.scheduler.Stop()
			return nil
		},
		func() error {
			a.eventBus.Stop()
			return nil
		},
		a.warehouse.Close,
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	logger.Info("waiting for all services to shutdown...")
	a.wg.Wait()
	return nil
}
