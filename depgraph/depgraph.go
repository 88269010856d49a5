package depgraph

import (
	"fmt"
	"sort"
	"time"

	"github.com/flowsmith/engine/bus"
	"github.com/flowsmith/engine/model"
)

// Edge records that To's event trigger matches From's completion event.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the cross-flow dependency relation made explicit. Historically
// this ordering lived only in comments next to the flow definitions; building
// it from the registered definitions lets it be validated instead of trusted.
type Graph struct {
	Flows []string `json:"flows"`
	Edges []Edge   `json:"edges"`
}

// Build derives the dependency graph from registered definitions. For every
// publisher its synthetic completion event is matched against every other
// flow's event filter, exactly the way the bus would match it at runtime.
func Build(defs []model.FlowDefinition, defaultBus string) *Graph {
	if defaultBus == "" {
		defaultBus = model.DEFAULT_BUS
	}
	g := &Graph{}
	for _, def := range defs {
		g.Flows = append(g.Flows, def.Name)
	}
	sort.Strings(g.Flows)
	for _, publisher := range defs {
		if !publisher.PublishCompletion {
			continue
		}
		completion := completionEvent(publisher, defaultBus)
		for _, subscriber := range defs {
			if subscriber.Event == nil || subscriber.Name == publisher.Name {
				continue
			}
			if bus.Matches(*subscriber.Event, completion) {
				g.Edges = append(g.Edges, Edge{From: publisher.Name, To: subscriber.Name})
			}
		}
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].From != g.Edges[j].From {
			return g.Edges[i].From < g.Edges[j].From
		}
		return g.Edges[i].To < g.Edges[j].To
	})
	return g
}

func completionEvent(def model.FlowDefinition, defaultBus string) model.Event {
	return model.Event{
		Bus:        defaultBus,
		Source:     def.Domain,
		DetailType: model.CompletionDetailType(def.Name),
		Detail: map[string]any{
			"domain":    def.Domain,
			"flowName":  def.Name,
			"emittedAt": time.Now().Format(time.RFC3339),
		},
	}
}

// Validate rejects dependency cycles. A cycle would make a set of flows wait
// on each other's completion events forever.
func (g *Graph) Validate() error {
	adjacency := make(map[string][]string)
	for _, e := range g.Edges {
		adjacency[e.From] = append(adjacency[e.From], e.To)
	}
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	colors := make(map[string]int)
	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		colors[name] = visiting
		// fresh slice per frame, sibling descents must not share a backing array
		trail := make([]string, len(path)+1)
		copy(trail, path)
		trail[len(path)] = name
		for _, next := range adjacency[name] {
			switch colors[next] {
			case visiting:
				return fmt.Errorf("dependency cycle: %v -> %s", trail, next)
			case unvisited:
				if err := visit(next, trail); err != nil {
					return err
				}
			}
		}
		colors[name] = done
		return nil
	}
	for _, name := range g.Flows {
		if colors[name] == unvisited {
			if err := visit(name, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// MissingPublishers lists flows that wait on a completion detail type no
// registered flow announces. These subscriptions can never fire.
func MissingPublishers(defs []model.FlowDefinition) []string {
	published := make(map[string]bool)
	for _, def := range defs {
		if def.PublishCompletion {
			published[model.CompletionDetailType(def.Name)] = true
		}
	}
	var missing []string
	for _, def := range defs {
		if def.Event == nil {
			continue
		}
		for _, detailType := range def.Event.DetailTypes {
			if isCompletionDetailType(detailType) && !published[detailType] {
				missing = append(missing, fmt.Sprintf("%s waits on %s", def.Name, detailType))
			}
		}
	}
	sort.Strings(missing)
	return missing
}

func isCompletionDetailType(detailType string) bool {
	return len(detailType) > len(".completed") &&
		detailType[len(detailType)-len(".completed"):] == ".completed"
}
