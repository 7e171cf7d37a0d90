package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"time-planner/internal/model"
	"time-planner/internal/repository"
	"time-planner/internal/schedule"
)

// Working window used when looking for free slots.
const (
	DayStartHour = 8
	DayEndHour   = 20
)

// Entry is a task annotated with its category.
type Entry struct {
	model.Task
	CategoryName  string
	CategoryColor string
}

// CategoryHours is the planned time for one category.
type CategoryHours struct {
	Name  string
	Color string
	Hours float64
}

// Agenda is one calendar day of an account.
type Agenda struct {
	Day     time.Time
	Entries []Entry
	Totals  []CategoryHours
	Free    []schedule.Interval
}

// AgendaService builds day views and the daily summary text.
type AgendaService struct {
	store *repository.Store
}

func NewAgendaService(store *repository.Store) *AgendaService {
	return &AgendaService{store: store}
}

// Annotate attaches category names and colors to tasks.
func (s *AgendaService) Annotate(ctx context.Context, accountID uuid.UUID, tasks []model.Task) ([]Entry, error) {
	categories, err := s.store.Categories.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	byID := make(map[uuid.UUID]model.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	entries := make([]Entry, len(tasks))
	for i, task := range tasks {
		entries[i] = Entry{Task: task}
		if c, ok := byID[task.CategoryID]; ok {
			entries[i].CategoryName = c.Name
			entries[i].CategoryColor = c.Color
		}
	}
	return entries, nil
}

// Day returns the tasks starting on day (in loc), hours per category and the
// free gaps inside the working window.
func (s *AgendaService) Day(ctx context.Context, accountID uuid.UUID, day time.Time, loc *time.Location) (*Agenda, error) {
	if err := requireAccount(accountID); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}
	day = day.In(loc)
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	to := from.AddDate(0, 0, 1)

	// Tasks from the previous day may still run into this one.
	tasks, err := s.store.Tasks.ListStartingIn(ctx, accountID, from.AddDate(0, 0, -1), to)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	busy := make([]schedule.Interval, 0, len(tasks))
	today := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		busy = append(busy, schedule.Span(task.Start, model.Hours(task.Duration)))
		if !task.Start.Before(from) {
			today = append(today, task)
		}
	}

	entries, err := s.Annotate(ctx, accountID, today)
	if err != nil {
		return nil, err
	}

	window := schedule.Interval{
		Start: from.Add(DayStartHour * time.Hour),
		End:   from.Add(DayEndHour * time.Hour),
	}
	free := schedule.Gaps(window, busy)
	for i := range free {
		free[i].Start = free[i].Start.In(loc)
		free[i].End = free[i].End.In(loc)
	}

	return &Agenda{Day: from, Entries: entries, Totals: totals(entries), Free: free}, nil
}

// DailySummary renders the agenda of now's day as Telegram HTML.
func (s *AgendaService) DailySummary(ctx context.Context, account model.Account, now time.Time, loc *time.Location) (string, error) {
	agenda, err := s.Day(ctx, account.ID, now, loc)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily agenda</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", agenda.Day.Format("Mon, 02 Jan 2006")))

	if len(agenda.Entries) == 0 {
		builder.WriteString("Nothing planned for today.\n")
	} else {
		for _, e := range agenda.Entries {
			builder.WriteString(FormatEntry(e, agenda.Day.Location()))
		}
	}

	if len(agenda.Totals) > 0 {
		builder.WriteString("\n⏱ <b>By category</b>\n")
		for _, t := range agenda.Totals {
			builder.WriteString(fmt.Sprintf("• %s: %s\n", html.EscapeString(t.Name), FormatHours(t.Hours)))
		}
	}

	builder.WriteString("\n🟢 <b>Free</b>\n")
	if len(agenda.Free) == 0 {
		builder.WriteString("no free time between 08:00 and 20:00\n")
	} else {
		for _, gap := range agenda.Free {
			builder.WriteString(fmt.Sprintf("• %s–%s\n", gap.Start.Format("15:04"), gap.End.Format("15:04")))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

// FormatEntry renders a single agenda line.
func FormatEntry(e Entry, loc *time.Location) string {
	start := e.Start.In(loc)
	end := e.End().In(loc)
	line := fmt.Sprintf("%s–%s %s", start.Format("15:04"), end.Format("15:04"), html.EscapeString(strings.TrimSpace(e.Title)))
	if name := strings.TrimSpace(e.CategoryName); name != "" {
		line += fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(name))
	}
	return line + "\n"
}

// FormatHours prints fractional hours as "1h 30m".
func FormatHours(hours float64) string {
	d := model.Hours(hours).Round(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

func totals(entries []Entry) []CategoryHours {
	index := make(map[uuid.UUID]int)
	var out []CategoryHours
	for _, e := range entries {
		i, ok := index[e.CategoryID]
		if !ok {
			i = len(out)
			index[e.CategoryID] = i
			out = append(out, CategoryHours{Name: e.CategoryName, Color: e.CategoryColor})
		}
		out[i].Hours += e.Duration
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Hours > out[j].Hours })
	return out
}
