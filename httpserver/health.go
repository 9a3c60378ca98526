package httpserver

import (
	"context"

	"moviedb/pipeline"
)

type healthStatus struct {
	Status string `json:"status"`
}

func (s *Server) RegisterHealthRoutes() {
	s.Router.GET("/healthcheck", pipeline.Handle(pipeline.NoParams, s.healthCheck))
}

// healthCheck godoc
// @Summary Health Check
// @Description Check if server is alive
// @Tags health
// @Success 200 {object} healthStatus
// @Router /healthcheck [get]
func (s *Server) healthCheck(context.Context, struct{}) (healthStatus, error) {
	return healthStatus{Status: "OK"}, nil
}
