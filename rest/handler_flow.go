package rest

import (
	"encoding/json"
	"net/http"

	"github.com/flowsmith/engine/logger"
	"github.com/flowsmith/engine/model"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func (s *Server) HandleRegisterFlow(w http.ResponseWriter, r *http.Request) {
	var def model.FlowDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid flow definition")
		return
	}
	defer r.Body.Close()
	if err := s.registryService.Register(def); err != nil {
		logger.Error("error registering flow", zap.String("flow", def.Name), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.scheduler.Bind(def); err != nil {
		logger.Error("error binding flow triggers", zap.String("flow", def.Name), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondOKWithoutBody(w)
}

func (s *Server) HandleGetFlow(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name, ok := vars["name"]
	if !ok {
		respondWithError(w, http.StatusBadRequest, "flow name required")
		return
	}
	def, err := s.registryService.Get(name)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "flow not found")
		return
	}
	respondWithJSON(w, http.StatusOK, def)
}
