package persistence

import (
	"fmt"

	"github.com/flowsmith/engine/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("error in underlying storage layer: %s", e.Message)
}

type RunNotFoundError struct {
	RunId string
}

func (e RunNotFoundError) Error() string {
	return fmt.Sprintf("run %s not found", e.RunId)
}

// RunStorage retains run records for audit and observability. The engine
// saves a run when it starts and again at every terminal transition.
type RunStorage interface {
	Save(run *model.Run) error
	Get(runId string) (*model.Run, error)
	GetByFlow(flowName string) ([]*model.Run, error)
}
