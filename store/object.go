package store

import (
	"context"
	"fmt"
)

type ObjectNotFoundError struct {
	Key string
}

func (e ObjectNotFoundError) Error() string {
	return fmt.Sprintf("object %s not found", e.Key)
}

// ObjectStore loads opaque objects by key. Task units use it for file style
// inputs that feed warehouse loads.
type ObjectStore interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, data []byte) error
}
