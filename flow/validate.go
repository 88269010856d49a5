package flow

import "fmt"

// validate walks the graph from its start state. Every next target reachable
// from the start must resolve to a defined node and the next chain must
// terminate, otherwise the graph is rejected at load time.
func validate(g *Graph) error {
	if _, ok := g.Nodes[g.StartAt]; !ok {
		return fmt.Errorf("startAt %q is not a defined state", g.StartAt)
	}
	visited := make(map[string]bool)
	current := g.StartAt
	for current != "" {
		if visited[current] {
			return fmt.Errorf("next chain cycles back to state %q", current)
		}
		visited[current] = true
		node, ok := g.Nodes[current]
		if !ok {
			return fmt.Errorf("next target %q is not a defined state", current)
		}
		current = node.GetNext()
	}
	for name := range g.Nodes {
		if !visited[name] {
			return fmt.Errorf("state %q is not reachable from startAt", name)
		}
	}
	return nil
}
