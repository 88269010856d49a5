package bus

import (
	"fmt"

	"github.com/flowsmith/engine/model"
	"github.com/oliveagle/jsonpath"
)

// Handler receives every published event whose filter matched.
type Handler func(event model.Event)

// EventBus is the shared announcement channel between flows. Publish is
// fire and forget from the caller's point of view; delivery to subscribers
// is asynchronous.
type EventBus interface {
	Publish(event model.Event) error
	Subscribe(filter model.EventFilter, handler Handler) error
	Start()
	Stop()
}

// ValidateFilter rejects filters that can never match. Detected at
// registration time, before the owning flow is accepted.
func ValidateFilter(filter model.EventFilter) error {
	if filter.Bus == "" {
		return fmt.Errorf("event filter requires a bus name")
	}
	if len(filter.Sources) == 0 {
		return fmt.Errorf("event filter requires at least one source")
	}
	if len(filter.DetailTypes) == 0 {
		return fmt.Errorf("event filter requires at least one detail type")
	}
	for expr := range filter.DetailMatch {
		if _, err := jsonpath.Compile(expr); err != nil {
			return fmt.Errorf("detail match %q is not a valid jsonpath expression", expr)
		}
	}
	return nil
}

// Matches reports whether an inbound event activates the given filter. The
// (bus, source, detailType) triplet must be accepted and every detail match
// expression must resolve to its expected value.
func Matches(filter model.EventFilter, event model.Event) bool {
	if filter.Bus != event.Bus {
		return false
	}
	if !contains(filter.Sources, event.Source) {
		return false
	}
	if !contains(filter.DetailTypes, event.DetailType) {
		return false
	}
	for expr, expected := range filter.DetailMatch {
		value, err := jsonpath.JsonPathLookup(event.Detail, expr)
		if err != nil {
			return false
		}
		if fmt.Sprintf("%v", value) != fmt.Sprintf("%v", expected) {
			return false
		}
	}
	return true
}

func contains(set []string, value string) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}
