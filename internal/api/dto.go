package api

import (
	"time"

	"github.com/google/uuid"

	"time-planner/internal/model"
	"time-planner/internal/service"
)

type registerRequest struct {
	Email         string          `json:"email"`
	Password      string          `json:"password"`
	MigrationData *service.Bundle `json:"migrationData"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	AccountID uuid.UUID                `json:"accountId"`
	Token     string                   `json:"token"`
	Migration *service.MigrationReport `json:"migration,omitempty"`
}

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type categoryResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
}

func toCategory(c model.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Color: c.Color}
}

type deleteCategoryResponse struct {
	Fallback            categoryResponse `json:"fallback"`
	ReassignedTasks     int64            `json:"reassignedTasks"`
	ReassignedTemplates int64            `json:"reassignedTemplates"`
}

type templateRequest struct {
	Title      string    `json:"title"`
	Duration   float64   `json:"duration"`
	CategoryID uuid.UUID `json:"categoryId"`
}

type templateResponse struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Duration   float64   `json:"duration"`
	CategoryID uuid.UUID `json:"categoryId"`
}

func toTemplate(t model.TaskTemplate) templateResponse {
	return templateResponse{ID: t.ID, Title: t.Title, Duration: t.Duration, CategoryID: t.CategoryID}
}

type taskRequest struct {
	Title      string     `json:"title"`
	Start      time.Time  `json:"start"`
	Duration   float64    `json:"duration"`
	CategoryID uuid.UUID  `json:"categoryId"`
	TemplateID *uuid.UUID `json:"templateId"`
}

func (r taskRequest) input() service.TaskInput {
	return service.TaskInput{
		Title:      r.Title,
		Start:      r.Start,
		Duration:   r.Duration,
		CategoryID: r.CategoryID,
		TemplateID: r.TemplateID,
	}
}

type fromTemplateRequest struct {
	TemplateID uuid.UUID `json:"templateId"`
	Start      time.Time `json:"start"`
}

type taskResponse struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Start         time.Time  `json:"start"`
	End           time.Time  `json:"end"`
	Duration      float64    `json:"duration"`
	CategoryID    uuid.UUID  `json:"categoryId"`
	TemplateID    *uuid.UUID `json:"templateId,omitempty"`
	CategoryName  string     `json:"categoryName,omitempty"`
	CategoryColor string     `json:"categoryColor,omitempty"`
}

func toTask(e service.Entry) taskResponse {
	return taskResponse{
		ID:            e.ID,
		Title:         e.Title,
		Start:         e.Start,
		End:           e.End(),
		Duration:      e.Duration,
		CategoryID:    e.CategoryID,
		TemplateID:    e.TemplateID,
		CategoryName:  e.CategoryName,
		CategoryColor: e.CategoryColor,
	}
}
