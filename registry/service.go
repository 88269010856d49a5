package registry

import (
	"fmt"

	"github.com/flowsmith/engine/flow"
	"github.com/flowsmith/engine/logger"
	"github.com/flowsmith/engine/model"
	"github.com/flowsmith/engine/task"
	"github.com/flowsmith/engine/trigger"
	c "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Service validates and stores flow definitions and hands out compiled
// graphs. Definitions are static once registered.
type Service interface {
	Register(def model.FlowDefinition) error
	Get(name string) (*model.FlowDefinition, error)
	GetGraph(name string) (*flow.Graph, error)
	All() ([]model.FlowDefinition, error)
	GetStorage() Storage
}

type ServiceImpl struct {
	storage  Storage
	handlers *task.Registry
	graphs   *c.Cache
}

var _ Service = new(ServiceImpl)

func NewService(storage Storage, handlers *task.Registry) Service {
	return &ServiceImpl{
		storage:  storage,
		handlers: handlers,
		graphs:   c.New(c.NoExpiration, 0),
	}
}

// Register rejects a definition whose triggers or graph are invalid; an
// invalid flow is never stored, so the scheduler can trust everything it
// reads back.
func (s *ServiceImpl) Register(def model.FlowDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("flow name can not be empty")
	}
	if def.Domain == "" {
		return fmt.Errorf("flow %s: domain can not be empty", def.Name)
	}
	if err := trigger.Validate(def); err != nil {
		return err
	}
	compiled, err := flow.Compile(def, s.handlers)
	if err != nil {
		return err
	}
	if err := s.storage.SaveDefinition(def); err != nil {
		return err
	}
	s.graphs.Set(def.Name, compiled, c.NoExpiration)
	logger.Info("registered flow", zap.String("flow", def.Name), zap.String("domain", def.Domain))
	return nil
}

func (s *ServiceImpl) Get(name string) (*model.FlowDefinition, error) {
	return s.storage.GetDefinition(name)
}

func (s *ServiceImpl) GetGraph(name string) (*flow.Graph, error) {
	if cached, found := s.graphs.Get(name); found {
		return cached.(*flow.Graph), nil
	}
	def, err := s.storage.GetDefinition(name)
	if err != nil {
		return nil, err
	}
	compiled, err := flow.Compile(*def, s.handlers)
	if err != nil {
		return nil, err
	}
	s.graphs.Set(name, compiled, c.NoExpiration)
	return compiled, nil
}

func (s *ServiceImpl) All() ([]model.FlowDefinition, error) {
	return s.storage.GetAllDefinitions()
}

func (s *ServiceImpl) GetStorage() Storage {
	return s.storage
}
