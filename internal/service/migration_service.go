package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"time-planner/internal/model"
	"time-planner/internal/repository"
)

// Bundle is planning data kept by a client before it had an account. Ids are
// client-assigned and only meaningful inside one bundle.
type Bundle struct {
	Categories []BundleCategory `json:"categories" yaml:"categories"`
	Templates  []BundleTemplate `json:"templates" yaml:"templates"`
	Tasks      []BundleTask     `json:"tasks" yaml:"tasks"`
}

type BundleCategory struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

type BundleTemplate struct {
	ID         string  `json:"id" yaml:"id"`
	Title      string  `json:"title" yaml:"title"`
	Duration   float64 `json:"duration" yaml:"duration"`
	CategoryID string  `json:"categoryId" yaml:"categoryId"`
}

type BundleTask struct {
	Title      string  `json:"title" yaml:"title"`
	Start      string  `json:"start" yaml:"start"`
	Duration   float64 `json:"duration" yaml:"duration"`
	CategoryID string  `json:"categoryId" yaml:"categoryId"`
	TemplateID *string `json:"templateId,omitempty" yaml:"templateId,omitempty"`
}

// Empty reports whether there is nothing worth importing. Without categories
// no template or task can resolve.
func (b *Bundle) Empty() bool {
	return b == nil || len(b.Categories) == 0
}

// DecodeBundle reads a bundle in the given format ("json", "yaml" or "yml").
func DecodeBundle(r io.Reader, format string) (*Bundle, error) {
	var bundle Bundle
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json", "":
		if err := json.NewDecoder(r).Decode(&bundle); err != nil {
			return nil, fmt.Errorf("decode json bundle: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&bundle); err != nil {
			return nil, fmt.Errorf("decode yaml bundle: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported bundle format %q", format)
	}
	return &bundle, nil
}

// MigrationReport counts what an import created and what it dropped.
type MigrationReport struct {
	Categories       int `json:"categories"`
	Templates         int `json:"templates"`
	Tasks             int `json:"tasks"`
	SkippedCategories int `json:"skippedCategories"`
	SkippedTemplates  int `json:"skippedTemplates"`
	SkippedTasks      int `json:"skippedTasks"`
}

// Migrator imports a bundle into an account in one transaction.
type Migrator struct {
	store *repository.Store
	log   zerolog.Logger
}

func NewMigrator(store *repository.Store, log zerolog.Logger) *Migrator {
	return &Migrator{store: store, log: log}
}

// MigrateAccountData persists the bundle for accountID: categories first, then
// templates, then tasks, remapping client ids to durable ids on the way.
// Records that fail validation and templates or tasks whose references do not
// resolve are skipped and counted. An unknown account is ErrNotFound.
// Any other failure rolls the whole import back and matches ErrMigrationFailed.
//
// Imported tasks are not checked for overlaps. Calling it twice with the same
// bundle duplicates the data.
func (m *Migrator) MigrateAccountData(ctx context.Context, accountID uuid.UUID, bundle Bundle) (MigrationReport, error) {
	if err := requireAccount(accountID); err != nil {
		return MigrationReport{}, err
	}

	ctx = repository.WithActor(ctx, accountID)
	var report MigrationReport
	err := m.store.WithinTx(ctx, func(tx *repository.Store) error {
		report = MigrationReport{}

		if _, err := tx.Accounts.FindByID(ctx, accountID); err != nil {
			return notFound(err, "account")
		}

		categoryIDs, err := m.importCategories(ctx, tx, accountID, bundle.Categories, &report)
		if err != nil {
			return err
		}
		templates, err := m.importTemplates(ctx, tx, accountID, bundle.Templates, categoryIDs, &report)
		if err != nil {
			return err
		}
		return m.importTasks(ctx, tx, accountID, bundle.Tasks, categoryIDs, templates, &report)
	})
	if err != nil {
		return MigrationReport{}, fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	m.log.Info().
		Str("account", accountID.String()).
		Int("categories", report.Categories).
		Int("templates", report.Templates).
		Int("tasks", report.Tasks).
		Int("skipped_categories", report.SkippedCategories).
		Int("skipped_templates", report.SkippedTemplates).
		Int("skipped_tasks", report.SkippedTasks).
		Msg("account data migrated")
	return report, nil
}

func (m *Migrator) importCategories(ctx context.Context, tx *repository.Store, accountID uuid.UUID, in []BundleCategory, report *MigrationReport) (map[string]uuid.UUID, error) {
	rows := make([]model.Category, 0, len(in))
	clientIDs := make([]string, 0, len(in))
	for _, c := range in {
		input := CategoryInput{Name: strings.TrimSpace(c.Name), Color: c.Color}
		if err := input.validate(); err != nil {
			report.SkippedCategories++
			m.log.Warn().Err(err).Str("category", c.ID).Msg("skip invalid category")
			continue
		}
		rows = append(rows, model.Category{ID: uuid.New(), AccountID: accountID, Name: input.Name, Color: input.Color})
		clientIDs = append(clientIDs, c.ID)
	}
	if err := tx.Categories.CreateBatch(ctx, rows); err != nil {
		return nil, err
	}

	ids := make(map[string]uuid.UUID, len(rows))
	for i, clientID := range clientIDs {
		ids[clientID] = rows[i].ID
	}
	report.Categories = len(rows)
	return ids, nil
}

func (m *Migrator) importTemplates(ctx context.Context, tx *repository.Store, accountID uuid.UUID, in []BundleTemplate, categoryIDs map[string]uuid.UUID, report *MigrationReport) (map[string]model.TaskTemplate, error) {
	rows := make([]model.TaskTemplate, 0, len(in))
	clientIDs := make([]string, 0, len(in))
	for _, t := range in {
		categoryID, ok := categoryIDs[t.CategoryID]
		if !ok {
			report.SkippedTemplates++
			m.log.Warn().Str("template", t.ID).Str("category", t.CategoryID).Msg("skip template with unknown category")
			continue
		}
		input := TemplateInput{Title: strings.TrimSpace(t.Title), Duration: t.Duration, CategoryID: categoryID}
		if err := input.validate(); err != nil {
			report.SkippedTemplates++
			m.log.Warn().Err(err).Str("template", t.ID).Msg("skip invalid template")
			continue
		}
		rows = append(rows, model.TaskTemplate{
			ID:         uuid.New(),
			AccountID:  accountID,
			CategoryID: categoryID,
			Title:      input.Title,
			Duration:   input.Duration,
		})
		clientIDs = append(clientIDs, t.ID)
	}
	if err := tx.Templates.CreateBatch(ctx, rows); err != nil {
		return nil, err
	}

	templates := make(map[string]model.TaskTemplate, len(rows))
	for i, clientID := range clientIDs {
		if clientID != "" {
			templates[clientID] = rows[i]
		}
	}
	report.Templates = len(rows)
	return templates, nil
}

func (m *Migrator) importTasks(ctx context.Context, tx *repository.Store, accountID uuid.UUID, in []BundleTask, categoryIDs map[string]uuid.UUID, templates map[string]model.TaskTemplate, report *MigrationReport) error {
	durableCategories := make(map[uuid.UUID]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		durableCategories[id] = true
	}

	rows := make([]model.Task, 0, len(in))
	for i, t := range in {
		task := model.Task{AccountID: accountID}

		template, fromTemplate := lookupTemplate(templates, t.TemplateID)
		switch {
		case fromTemplate:
			if !durableCategories[template.CategoryID] {
				report.SkippedTasks++
				m.log.Warn().Int("task", i).Msg("skip task whose template category is unknown")
				continue
			}
			templateID := template.ID
			task.Title = template.Title
			task.Duration = template.Duration
			task.CategoryID = template.CategoryID
			task.TemplateID = &templateID
		default:
			categoryID, ok := categoryIDs[t.CategoryID]
			if !ok {
				report.SkippedTasks++
				m.log.Warn().Int("task", i).Str("category", t.CategoryID).Msg("skip task with unknown category")
				continue
			}
			var v validator
			v.text(t.Title, "title", maxTitle)
			v.duration(t.Duration)
			if err := v.err(); err != nil {
				report.SkippedTasks++
				m.log.Warn().Err(err).Int("task", i).Msg("skip invalid task")
				continue
			}
			task.Title = strings.TrimSpace(t.Title)
			task.Duration = t.Duration
			task.CategoryID = categoryID
		}

		start, err := time.Parse(time.RFC3339, strings.TrimSpace(t.Start))
		if err != nil {
			return fmt.Errorf("task %d: parse start %q: %w", i, t.Start, err)
		}
		task.Start = start
		rows = append(rows, task)
	}

	if err := tx.Tasks.CreateBatch(ctx, rows); err != nil {
		return err
	}
	report.Tasks = len(rows)
	return nil
}

func lookupTemplate(templates map[string]model.TaskTemplate, clientID *string) (model.TaskTemplate, bool) {
	if clientID == nil || *clientID == "" {
		return model.TaskTemplate{}, false
	}
	template, ok := templates[*clientID]
	return template, ok
}
