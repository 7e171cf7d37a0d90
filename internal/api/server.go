// Package api exposes the planner over a JSON HTTP API.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"time-planner/internal/service"
)

// Services groups the business services the handlers call into.
type Services struct {
	Accounts   *service.AccountService
	Categories *service.CategoryService
	Templates  *service.TemplateService
	Tasks      *service.TaskService
	Agenda     *service.AgendaService
	Stats      *service.StatsService
}

// Server is the planner HTTP API.
type Server struct {
	svc    Services
	loc    *time.Location
	log    zerolog.Logger
	router *gin.Engine
}

// NewServer wires routes. Calendar days in query parameters are interpreted in loc.
func NewServer(svc Services, loc *time.Location, log zerolog.Logger) *Server {
	if loc == nil {
		loc = time.Local
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	s := &Server{svc: svc, loc: loc, log: log, router: router}

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/register", s.handleRegister)
		auth.POST("/login", s.handleLogin)

		private := api.Group("", s.authRequired)
		private.GET("/categories", s.handleListCategories)
		private.POST("/categories", s.handleCreateCategory)
		private.PUT("/categories/:id", s.handleUpdateCategory)
		private.DELETE("/categories/:id", s.handleDeleteCategory)

		private.GET("/templates", s.handleListTemplates)
		private.POST("/templates", s.handleCreateTemplate)
		private.PUT("/templates/:id", s.handleUpdateTemplate)
		private.DELETE("/templates/:id", s.handleDeleteTemplate)

		private.GET("/tasks", s.handleListTasks)
		private.POST("/tasks", s.handleCreateTask)
		private.POST("/tasks/from-template", s.handleCreateTaskFromTemplate)
		private.PUT("/tasks/:id", s.handleUpdateTask)
		private.DELETE("/tasks/:id", s.handleDeleteTask)

		private.GET("/stats", s.handleStats)
	}

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
