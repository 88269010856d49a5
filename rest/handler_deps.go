package rest

import (
	"net/http"

	"github.com/flowsmith/engine/depgraph"
)

// HandleDependencies exposes the cross-flow dependency relation derived from
// the registered definitions, with cycle and missing-publisher findings.
func (s *Server) HandleDependencies(w http.ResponseWriter, r *http.Request) {
	defs, err := s.registryService.All()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "error loading flow definitions")
		return
	}
	graph := depgraph.Build(defs, s.defaultBus)
	response := map[string]any{
		"flows": graph.Flows,
		"edges": graph.Edges,
	}
	if err := graph.Validate(); err != nil {
		response["cycle"] = err.Error()
	}
	if missing := depgraph.MissingPublishers(defs); len(missing) > 0 {
		response["missingPublishers"] = missing
	}
	respondWithJSON(w, http.StatusOK, response)
}
