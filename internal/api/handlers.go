package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"time-planner/internal/model"
	"time-planner/internal/service"
)

const dateLayout = "2006-01-02"

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "body", err)
		return
	}
	session, err := s.svc.Accounts.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Bundle:   req.MigrationData,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{
		AccountID: session.Account.ID,
		Token:     session.Token,
		Migration: session.Migration,
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "body", err)
		return
	}
	session, err := s.svc.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{AccountID: session.Account.ID, Token: session.Token})
}

func (s *Server) handleListCategories(c *gin.Context) {
	categories, err := s.svc.Categories.List(c.Request.Context(), accountID(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	out := make([]categoryResponse, len(categories))
	for i, cat := range categories {
		out[i] = toCategory(cat)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "body", err)
		return
	}
	category, err := s.svc.Categories.Create(c.Request.Context(), accountID(c), service.CategoryInput{Name: req.Name, Color: req.Color})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCategory(*category))
}

func (s *Server) handleUpdateCategory(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "body", err)
		return
	}
	category, err := s.svc.Categories.Update(c.Request.Context(), accountID(c), id, service.CategoryInput{Name: req.Name, Color: req.Color})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategory(*category))
}

func (s *Server) handleDeleteCategory(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	result, err := s.svc.Categories.Delete(c.Request.Context(), accountID(c), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, deleteCategoryResponse{
		Fallback:            toCategory(result.Fallback),
		ReassignedTasks:     result.ReassignedTasks,
		ReassignedTemplates: result.ReassignedTemplates,
	})
}

func (s *Server) handleListTemplates(c *gin.Context) {
	templates, err := s.svc.Templates.List(c.Request.Context(), accountID(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	out := make([]templateResponse, len(templates))
	for i, t := range templates {
		out[i] = toTemplate(t)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateTemplate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "body", err)
		return
	}
	template, err := s.svc.Templates.Create(c.Request.Context(), accountID(c), service.TemplateInput(req))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTemplate(*template))
}

func (s *Server) handleUpdateTemplate(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "body", err)
		return
	}
	template, err := s.svc.Templates.Update(c.Request.Context(), accountID(c), id, service.TemplateInput(req))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTemplate(*template))
}

func (s *Server) handleDeleteTemplate(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.svc.Templates.Delete(c.Request.Context(), accountID(c), id); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleListTasks returns tasks starting between the from and to days, both inclusive.
func (s *Server) handleListTasks(c *gin.Context) {
	today := time.Now().In(s.loc).Format(dateLayout)
	from, err := time.ParseInLocation(dateLayout, c.DefaultQuery("from", today), s.loc)
	if err != nil {
		s.badRequest(c, "from", fmt.Errorf("expected YYYY-MM-DD"))
		return
	}
	to, err := time.ParseInLocation(dateLayout, c.DefaultQuery("to", c.DefaultQuery("from", today)), s.loc)
	if err != nil {
		s.badRequest(c, "to", fmt.Errorf("expected YYYY-MM-DD"))
		return
	}

	ctx := c.Request.Context()
	tasks, err := s.svc.Tasks.ListInRange(ctx, accountID(c), from, to.AddDate(0, 0, 1))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	s.writeTasks(c, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "body", err)
		return
	}
	task, err := s.svc.Tasks.CreateTask(c.Request.Context(), accountID(c), req.input())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	s.writeTasks(c, http.StatusCreated, []model.Task{*task})
}

func (s *Server) handleCreateTaskFromTemplate(c *gin.Context) {
	var req fromTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "body", err)
		return
	}
	task, err := s.svc.Tasks.CreateFromTemplate(c.Request.Context(), accountID(c), req.TemplateID, req.Start)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	s.writeTasks(c, http.StatusCreated, []model.Task{*task})
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "body", err)
		return
	}
	task, err := s.svc.Tasks.UpdateTask(c.Request.Context(), accountID(c), id, req.input())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	s.writeTasks(c, http.StatusOK, []model.Task{*task})
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.svc.Tasks.DeleteTask(c.Request.Context(), accountID(c), id); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleStats(c *gin.Context) {
	year := time.Now().In(s.loc).Year()
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1 {
			s.badRequest(c, "year", fmt.Errorf("expected a year such as %d", year))
			return
		}
		year = y
	}
	stats, err := s.svc.Stats.Summary(c.Request.Context(), accountID(c), year, s.loc)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// writeTasks annotates tasks with their categories. Single-task writes answer
// with an object, listings with an array.
func (s *Server) writeTasks(c *gin.Context, status int, tasks []model.Task) {
	entries, err := s.svc.Agenda.Annotate(c.Request.Context(), accountID(c), tasks)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	out := make([]taskResponse, len(entries))
	for i, e := range entries {
		out[i] = toTask(e)
	}
	if c.Request.Method != http.MethodGet && len(out) == 1 {
		c.JSON(status, out[0])
		return
	}
	c.JSON(status, out)
}

func (s *Server) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		// An id that cannot exist is reported like any other missing row.
		s.abortWithError(c, fmt.Errorf("%s: %w", c.Param("id"), service.ErrNotFound))
		return uuid.Nil, false
	}
	return id, true
}
