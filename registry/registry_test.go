package registry

import (
	"context"
	"testing"

	"github.com/flowsmith/engine/model"
	"github.com/flowsmith/engine/task"
	"github.com/stretchr/testify/require"
)

type passTask struct {
	name string
}

func (t *passTask) GetName() string { return t.name }
func (t *passTask) Execute(ctx context.Context, ec task.ExecutionContext, input map[string]any) (map[string]any, error) {
	return input, nil
}

func newTestService(t *testing.T) Service {
	handlers := task.NewRegistry()
	err := handlers.Register("noop", func(name string, params map[string]any) (task.Task, error) {
		return &passTask{name: name}, nil
	})
	require.NoError(t, err)
	return NewService(NewInMemStorage(), handlers)
}

func validDefinition(name string) model.FlowDefinition {
	return model.FlowDefinition{
		Name:    name,
		Domain:  "sales",
		StartAt: "load",
		States: map[string]model.StateDefinition{
			"load": {Type: "task", Handler: "noop", Next: "done"},
			"done": {Type: "succeed"},
		},
	}
}

func TestRegistryService(t *testing.T) {
	for scenario, fn := range map[string]func(
		t *testing.T, service Service,
	){
		"test register and get":             testRegisterAndGet,
		"test register compiles graph":      testRegisterCompilesGraph,
		"test all returns registered flows": testAllReturnsFlows,
		"test missing name rejected":        testMissingNameRejected,
		"test missing domain rejected":      testMissingDomainRejected,
		"test invalid trigger not stored":   testInvalidTriggerNotStored,
		"test invalid graph not stored":     testInvalidGraphNotStored,
		"test get unknown flow":             testGetUnknownFlow,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, newTestService(t))
		})
	}
}

func testRegisterAndGet(t *testing.T, service Service) {
	def := validDefinition("orders-daily")
	require.NoError(t, service.Register(def))

	stored, err := service.Get("orders-daily")
	require.NoError(t, err)
	require.Equal(t, "orders-daily", stored.Name)
	require.Equal(t, "sales", stored.Domain)
}

func testRegisterCompilesGraph(t *testing.T, service Service) {
	require.NoError(t, service.Register(validDefinition("orders-daily")))

	g, err := service.GetGraph("orders-daily")
	require.NoError(t, err)
	require.Equal(t, "load", g.StartAt)
	require.Len(t, g.Nodes, 2)
}

func testAllReturnsFlows(t *testing.T, service Service) {
	require.NoError(t, service.Register(validDefinition("orders-daily")))
	require.NoError(t, service.Register(validDefinition("refunds-daily")))

	defs, err := service.All()
	require.NoError(t, err)
	require.Len(t, defs, 2)
}

func testMissingNameRejected(t *testing.T, service Service) {
	def := validDefinition("")
	require.Error(t, service.Register(def))
}

func testMissingDomainRejected(t *testing.T, service Service) {
	def := validDefinition("orders-daily")
	def.Domain = ""
	require.Error(t, service.Register(def))
}

func testInvalidTriggerNotStored(t *testing.T, service Service) {
	def := validDefinition("orders-daily")
	def.Cron = "not a cron"
	require.Error(t, service.Register(def))

	_, err := service.Get("orders-daily")
	require.Error(t, err)
}

func testInvalidGraphNotStored(t *testing.T, service Service) {
	def := validDefinition("orders-daily")
	def.States["load"] = model.StateDefinition{Type: "task", Handler: "noop", Next: "missing"}
	require.Error(t, service.Register(def))

	_, err := service.Get("orders-daily")
	require.Error(t, err)
}

func testGetUnknownFlow(t *testing.T, service Service) {
	_, err := service.Get("no-such-flow")
	require.Error(t, err)

	_, err = service.GetGraph("no-such-flow")
	require.Error(t, err)
}
