package trigger

import (
	"sync"

	"github.com/flowsmith/engine/bus"
	"github.com/flowsmith/engine/logger"
	"github.com/flowsmith/engine/model"
	"github.com/flowsmith/engine/util"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Activator is the engine surface a trigger fires into. Every activation
// spawns one independent run; the scheduler never de-duplicates matches.
type Activator interface {
	ActivateScheduled(flowName string)
	ActivateEvent(flowName string, event model.Event)
}

// Scheduler owns the background clock for cron and rate bindings and wires
// event bindings onto the bus. Bindings are registered at process start and
// never mutated.
type Scheduler struct {
	cron        *cron.Cron
	eventBus    bus.EventBus
	activator   Activator
	tickWorkers []*util.TickWorker
	wg          *sync.WaitGroup
}

func NewScheduler(eventBus bus.EventBus, activator Activator, wg *sync.WaitGroup) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		eventBus:  eventBus,
		activator: activator,
		wg:        wg,
	}
}

// Bind attaches all of a definition's triggers. The definition must already
// have passed Validate; Bind re-parses defensively and reports any error.
func (s *Scheduler) Bind(def model.FlowDefinition) error {
	flowName := def.Name
	if def.Cron != "" {
		normalized, err := NormalizeCron(def.Cron)
		if err != nil {
			return err
		}
		_, err = s.cron.AddFunc(normalized, func() {
			s.activator.ActivateScheduled(flowName)
		})
		if err != nil {
			return err
		}
		logger.Info("bound cron trigger", zap.String("flow", flowName), zap.String("cron", normalized))
	}
	if def.Rate != "" {
		interval, err := ParseRate(def.Rate)
		if err != nil {
			return err
		}
		tw := util.NewTickWorker("rate-"+flowName, interval, func() {
			s.activator.ActivateScheduled(flowName)
		}, s.wg)
		s.tickWorkers = append(s.tickWorkers, tw)
		logger.Info("bound rate trigger", zap.String("flow", flowName), zap.Duration("interval", interval))
	}
	if def.Event != nil {
		err := s.eventBus.Subscribe(*def.Event, func(event model.Event) {
			s.activator.ActivateEvent(flowName, event)
		})
		if err != nil {
			return err
		}
		logger.Info("bound event trigger", zap.String("flow", flowName), zap.String("bus", def.Event.Bus))
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	for _, tw := range s.tickWorkers {
		tw.Start()
	}
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	for _, tw := range s.tickWorkers {
		if tw.IsRunning() {
			tw.Stop()
		}
	}
}
