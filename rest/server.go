package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/flowsmith/engine/bus"
	"github.com/flowsmith/engine/engine"
	"github.com/flowsmith/engine/logger"
	"github.com/flowsmith/engine/registry"
	"github.com/flowsmith/engine/trigger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Server struct {
	http.Server
	Port            int
	registryService registry.Service
	flowEngine      *engine.FlowEngine
	scheduler       *trigger.Scheduler
	eventBus        bus.EventBus
	defaultBus      string
}

func NewServer(httpPort int, registryService registry.Service, flowEngine *engine.FlowEngine,
	scheduler *trigger.Scheduler, eventBus bus.EventBus, defaultBus string) (*Server, error) {
	s := &Server{
		Server: http.Server{
			Addr:        fmt.Sprintf(":%d", httpPort),
			IdleTimeout: 2 * time.Second,
		},
		Port:            httpPort,
		registryService: registryService,
		flowEngine:      flowEngine,
		scheduler:       scheduler,
		eventBus:        eventBus,
		defaultBus:      defaultBus,
	}

	router := mux.NewRouter()
	router.HandleFunc("/metadata/flow", s.HandleRegisterFlow).Methods(http.MethodPost)
	router.HandleFunc("/metadata/flow/{name}", s.HandleGetFlow).Methods(http.MethodGet)

	router.HandleFunc("/execution", s.HandleRunFlow).Methods(http.MethodPost)
	router.HandleFunc("/execution/{id}", s.HandleGetRun).Methods(http.MethodGet)

	router.HandleFunc("/event", s.HandleEvent).Methods(http.MethodPost)
	router.HandleFunc("/dependencies", s.HandleDependencies).Methods(http.MethodGet)

	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.Shutdown(ctx)
	if err != nil {
		logger.Error("error shutting down http server")
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.RequestURI)
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondOK(w http.ResponseWriter, message map[string]any) {
	respondWithJSON(w, http.StatusOK, message)
}

func respondOKWithoutBody(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
