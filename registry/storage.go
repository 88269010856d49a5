package registry

import (
	"fmt"

	"github.com/flowsmith/engine/model"
)

type FlowNotFoundError struct {
	Name string
}

func (e FlowNotFoundError) Error() string {
	return fmt.Sprintf("flow %s not found", e.Name)
}

type Storage interface {
	SaveDefinition(def model.FlowDefinition) error
	GetDefinition(name string) (*model.FlowDefinition, error)
	GetAllDefinitions() ([]model.FlowDefinition, error)
	DeleteDefinition(name string) error
}
