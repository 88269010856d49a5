package rest

import (
	"encoding/json"
	"net/http"

	"github.com/flowsmith/engine/logger"
	"github.com/flowsmith/engine/model"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func (s *Server) HandleRunFlow(w http.ResponseWriter, r *http.Request) {
	var runReq model.FlowRunRequest
	if err := json.NewDecoder(r.Body).Decode(&runReq); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid run request")
		return
	}
	defer r.Body.Close()
	runId, err := s.flowEngine.StartFlow(runReq.Name, runReq.Input)
	if err != nil {
		logger.Error("error running flow", zap.String("flow", runReq.Name), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, "error running flow")
		return
	}
	respondOK(w, map[string]any{"runId": runId})
}

func (s *Server) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	runId, ok := vars["id"]
	if !ok {
		respondWithError(w, http.StatusBadRequest, "run id required")
		return
	}
	run, err := s.flowEngine.GetRun(runId)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "run not found")
		return
	}
	respondWithJSON(w, http.StatusOK, run)
}
