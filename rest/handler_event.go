package rest

import (
	"encoding/json"
	"net/http"

	"github.com/flowsmith/engine/logger"
	"github.com/flowsmith/engine/model"
	"go.uber.org/zap"
)

// HandleEvent injects an external event onto the shared bus. Matching trigger
// bindings each spawn their own run.
func (s *Server) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var event model.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid event")
		return
	}
	defer r.Body.Close()
	if event.Bus == "" {
		event.Bus = s.defaultBus
	}
	if err := s.eventBus.Publish(event); err != nil {
		logger.Error("error publishing event", zap.String("bus", event.Bus), zap.String("detailType", event.DetailType), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error publishing event")
		return
	}
	respondOKWithoutBody(w)
}
