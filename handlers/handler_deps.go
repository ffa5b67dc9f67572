package handlers

import (
	"github.com/sirupsen/logrus"

	"speakerscope/config"
	"speakerscope/internal/jobs"
	"speakerscope/internal/session"
)

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Logger   *logrus.Logger
	Jobs     *jobs.Manager
	Sessions session.Store
	Config   config.Config
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(logger *logrus.Logger, manager *jobs.Manager, store session.Store, cfg config.Config) *ApplicationHandler {
	return &ApplicationHandler{
		Logger:   logger,
		Jobs:     manager,
		Sessions: store,
		Config:   cfg,
	}
}
