package bot

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"time-planner/internal/model"
	"time-planner/internal/service"
)

type planRequest struct {
	index int
	start time.Time
}

// parsePlanArgs parses "<template#> <HH:MM> [YYYY-MM-DD]". Without a date the
// task goes on now's day.
func parsePlanArgs(args string, now time.Time, loc *time.Location) (planRequest, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 || len(fields) > 3 {
		return planRequest{}, errors.New("expected a template number and a time")
	}
	index, err := strconv.Atoi(strings.TrimPrefix(fields[0], "#"))
	if err != nil || index < 1 {
		return planRequest{}, fmt.Errorf("%q is not a template number", fields[0])
	}
	hour, minute, err := service.ParseClock(fields[1])
	if err != nil {
		return planRequest{}, err
	}

	day := now.In(loc)
	if len(fields) == 3 {
		day, err = time.ParseInLocation("2006-01-02", fields[2], loc)
		if err != nil {
			return planRequest{}, fmt.Errorf("%q is not a YYYY-MM-DD date", fields[2])
		}
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
	return planRequest{index: index, start: start}, nil
}

// userMessage turns a service error into chat text. internal is true when the
// error is not the user's doing.
func userMessage(err error) (text string, internal bool) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return "This chat is not linked yet. Use /link &lt;token&gt;.", false
	case errors.Is(err, service.ErrConflict):
		return "⛔ " + escape(err.Error()), false
	case errors.Is(err, service.ErrNotFound):
		return "Not found.", false
	case errors.Is(err, service.ErrValidation):
		return escape(err.Error()), false
	default:
		return "Something went wrong, please try again later.", true
	}
}

func formatAgenda(agenda *service.Agenda) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📅 <b>%s</b>\n", agenda.Day.Format("Monday, 02 Jan 2006")))
	if len(agenda.Entries) == 0 {
		builder.WriteString("Nothing planned.")
		return builder.String()
	}
	builder.WriteByte('\n')
	var total float64
	for _, e := range agenda.Entries {
		builder.WriteString(service.FormatEntry(e, agenda.Day.Location()))
		total += e.Duration
	}
	builder.WriteString(fmt.Sprintf("\n⏱ Planned: %s", service.FormatHours(total)))
	return builder.String()
}

func formatFree(agenda *service.Agenda) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🟢 <b>Free on %s</b>\n", agenda.Day.Format("Mon 02 Jan")))
	if len(agenda.Free) == 0 {
		builder.WriteString(fmt.Sprintf("Fully booked between %02d:00 and %02d:00.", service.DayStartHour, service.DayEndHour))
		return builder.String()
	}
	for _, gap := range agenda.Free {
		length := gap.End.Sub(gap.Start).Hours()
		builder.WriteString(fmt.Sprintf("• %s–%s (%s)\n", gap.Start.Format("15:04"), gap.End.Format("15:04"), service.FormatHours(length)))
	}
	return strings.TrimSpace(builder.String())
}

func formatTemplates(templates []model.TaskTemplate) string {
	if len(templates) == 0 {
		return "No templates yet."
	}
	var builder strings.Builder
	builder.WriteString("🧩 <b>Templates</b>\n")
	for i, t := range templates {
		builder.WriteString(fmt.Sprintf("%d. %s · %s\n", i+1, escape(t.Title), service.FormatHours(t.Duration)))
	}
	builder.WriteString("\nPlan one with /plan &lt;number&gt; &lt;HH:MM&gt;")
	return builder.String()
}

func deleteButtons(entries []service.Entry, loc *time.Location) [][]tgbotapi.InlineKeyboardButton {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(entries))
	for _, e := range entries {
		label := fmt.Sprintf("🗑 %s · %s", e.Start.In(loc).Format("15:04"), shortTitle(e.Title, 24))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbDeletePrefix+e.ID.String()),
		))
	}
	return rows
}

func isConfirmInput(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	return lower == strings.ToLower(btnConfirm) || lower == "confirm" || lower == "yes"
}

func isCancelInput(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	return lower == strings.ToLower(btnCancel) || lower == "cancel" || lower == "no"
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}
