package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flowsmith/engine/analytics"
	"github.com/flowsmith/engine/bus"
	"github.com/flowsmith/engine/config"
	"github.com/flowsmith/engine/executor"
	"github.com/flowsmith/engine/logger"
	"github.com/flowsmith/engine/model"
	"github.com/flowsmith/engine/persistence"
	"github.com/flowsmith/engine/registry"
	"github.com/google/uuid"
	c "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// FlowEngine turns trigger activations into runs. Every activation spawns an
// independent run; overlapping runs of the same flow are permitted unless the
// skip policy is configured, in which case an in-flight arena keyed by flow
// name suppresses the new activation.
type FlowEngine struct {
	registry   registry.Service
	executor   *executor.RunExecutor
	eventBus   bus.EventBus
	runStorage persistence.RunStorage
	inflight   *c.Cache
	policy     config.OverlapPolicy
	defaultBus string
	wg         *sync.WaitGroup
}

func NewFlowEngine(registryService registry.Service, runExecutor *executor.RunExecutor,
	eventBus bus.EventBus, runStorage persistence.RunStorage,
	policy config.OverlapPolicy, defaultBus string, wg *sync.WaitGroup) *FlowEngine {
	if policy == "" {
		policy = config.OVERLAP_POLICY_ALLOW
	}
	if defaultBus == "" {
		defaultBus = model.DEFAULT_BUS
	}
	return &FlowEngine{
		registry:   registryService,
		executor:   runExecutor,
		eventBus:   eventBus,
		runStorage: runStorage,
		inflight:   c.New(c.NoExpiration, 10*time.Minute),
		policy:     policy,
		defaultBus: defaultBus,
		wg:         wg,
	}
}

// ActivateScheduled starts a run from a cron or rate tick with empty input.
func (f *FlowEngine) ActivateScheduled(flowName string) {
	f.activate(flowName, map[string]any{})
}

// ActivateEvent starts a run carrying the matched event's detail as input.
func (f *FlowEngine) ActivateEvent(flowName string, event model.Event) {
	f.activate(flowName, event.Detail)
}

// StartFlow is the manual trigger surface. It returns the run id immediately;
// the run itself executes asynchronously.
func (f *FlowEngine) StartFlow(flowName string, input map[string]any) (string, error) {
	def, err := f.registry.Get(flowName)
	if err != nil {
		return "", err
	}
	return f.spawn(*def, input)
}

func (f *FlowEngine) activate(flowName string, input map[string]any) {
	def, err := f.registry.Get(flowName)
	if err != nil {
		logger.Error("activation for unknown flow", zap.String("flow", flowName), zap.Error(err))
		return
	}
	if _, err := f.spawn(*def, input); err != nil {
		logger.Error("error activating flow", zap.String("flow", flowName), zap.Error(err))
	}
}

func (f *FlowEngine) spawn(def model.FlowDefinition, input map[string]any) (string, error) {
	graph, err := f.registry.GetGraph(def.Name)
	if err != nil {
		return "", err
	}
	if f.policy == config.OVERLAP_POLICY_SKIP {
		// go-cache Add fails when the key exists, which is exactly the
		// compare-and-set the arena needs.
		if err := f.inflight.Add(def.Name, struct{}{}, c.NoExpiration); err != nil {
			logger.Info("skipping activation, flow already running", zap.String("flow", def.Name))
			return "", fmt.Errorf("flow %s already running", def.Name)
		}
	}
	runId := uuid.New().String()
	pending := &model.Run{
		Id:           runId,
		FlowName:     def.Name,
		StartedAt:    time.Now(),
		State:        model.RUN_STATE_RUNNING,
		CurrentState: def.StartAt,
		FailedBranch: -1,
		Input:        input,
	}
	if err := f.runStorage.Save(pending); err != nil {
		logger.Error("error saving pending run", zap.String("flow", def.Name), zap.String("runId", runId), zap.Error(err))
	}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		if f.policy == config.OVERLAP_POLICY_SKIP {
			defer f.inflight.Delete(def.Name)
		}
		run := f.executor.Execute(context.Background(), runId, graph, input)
		if run.State == model.RUN_STATE_SUCCEEDED && def.PublishCompletion {
			f.publishCompletion(def, run)
		}
		if err := f.runStorage.Save(run); err != nil {
			logger.Error("error saving run", zap.String("flow", def.Name), zap.String("runId", runId), zap.Error(err))
		}
	}()
	return runId, nil
}

// publishCompletion announces a successful run on the shared bus. This is
// fire and forget: a publish failure is recorded on the run and in analytics
// but never flips the run's status, so downstream flows simply miss a cycle.
func (f *FlowEngine) publishCompletion(def model.FlowDefinition, run *model.Run) {
	completion := model.CompletionEvent{
		Domain:    def.Domain,
		FlowName:  def.Name,
		EmittedAt: time.Now(),
	}
	event := model.Event{
		Bus:        f.defaultBus,
		Source:     completion.Domain,
		DetailType: model.CompletionDetailType(completion.FlowName),
		Detail: map[string]any{
			"domain":    completion.Domain,
			"flowName":  completion.FlowName,
			"emittedAt": completion.EmittedAt.Format(time.RFC3339),
		},
	}
	if err := f.eventBus.Publish(event); err != nil {
		run.PublishError = err.Error()
		analytics.RecordPublishFailure(def.Name, run.Id, err.Error())
		logger.Error("error publishing completion event", zap.String("flow", def.Name), zap.String("runId", run.Id), zap.Error(err))
		return
	}
	logger.Info("published completion event", zap.String("domain", completion.Domain), zap.String("flow", completion.FlowName))
}

func (f *FlowEngine) GetRun(runId string) (*model.Run, error) {
	return f.runStorage.Get(runId)
}
