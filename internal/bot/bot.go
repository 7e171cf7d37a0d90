package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"time-planner/internal/model"
	"time-planner/internal/service"
)

const (
	cbDeletePrefix = "delete:"
)

const (
	btnConfirm         = "✅ Confirm"
	btnCancel          = "↩️ Cancel"
	menuLabelToday     = "📅 Today"
	menuLabelTomorrow  = "➡️ Tomorrow"
	menuLabelFree      = "🟢 Free time"
	menuLabelTemplates = "🧩 Templates"
	menuLabelHelp      = "ℹ️ Help"
)

type confirmationRequest struct {
	taskID uuid.UUID
	day    time.Time
}

// Services are the planner services the bot talks to.
type Services struct {
	Accounts   *service.AccountService
	Categories *service.CategoryService
	Templates  *service.TemplateService
	Tasks      *service.TaskService
	Agenda     *service.AgendaService
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api           *tgbotapi.BotAPI
	svc           Services
	loc           *time.Location
	limiter       *rate.Limiter
	log           zerolog.Logger
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

// New authorizes the bot. Outgoing broadcast messages are limited to ratePerSec.
func New(token string, svc Services, loc *time.Location, ratePerSec float64, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}
	burst := int(ratePerSec)
	if burst < 1 {
		burst = 1
	}

	log.Info().Str("username", api.Self.UserName).Msg("bot authorized")

	return &Bot{
		api:           api,
		svc:           svc,
		loc:           loc,
		limiter:       rate.NewLimiter(rate.Limit(ratePerSec), burst),
		log:           log,
		confirmations: make(map[int64]confirmationRequest),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info().Msg("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.Error().Err(err).Msg("handle callback")
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.Error().Err(err).Int64("chat", update.Message.Chat.ID).Msg("handle message")
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if msg.IsCommand() {
		b.log.Debug().Int64("chat", msg.Chat.ID).Str("command", msg.Command()).Msg("command received")
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.Chat.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Try /today or /help.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.handleHelp(msg)
	case "link":
		return b.handleLink(ctx, msg)
	case "today":
		return b.sendDay(ctx, msg.Chat.ID, time.Now().In(b.loc))
	case "tomorrow":
		return b.sendDay(ctx, msg.Chat.ID, time.Now().In(b.loc).AddDate(0, 0, 1))
	case "free":
		return b.handleFree(ctx, msg)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "templates":
		return b.handleTemplates(ctx, msg)
	case "plan":
		return b.handlePlan(ctx, msg)
	case "cancel":
		b.clearConfirmation(msg.Chat.ID)
		return b.sendText(msg.Chat.ID, "Cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf(
		"👋 Hi, %s!\n<b>I show your planner day by day.</b>\n\n"+
			"Link this chat with the API token you got at sign-up:\n"+
			"<code>/link &lt;token&gt;</code>\n\nThen see /help.",
		escape(name),
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"• /link &lt;token&gt; — connect this chat to your account\n" +
		"• /today, /tomorrow — agenda with delete buttons\n" +
		"• /free — free slots between 08:00 and 20:00 today\n" +
		"• /categories — your categories\n" +
		"• /templates — numbered task templates\n" +
		"• /plan &lt;template#&gt; &lt;HH:MM&gt; [YYYY-MM-DD] — plan a task from a template\n" +
		"• /cancel — drop a pending confirmation"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleLink(ctx context.Context, msg *tgbotapi.Message) error {
	token := strings.TrimSpace(msg.CommandArguments())
	if token == "" {
		return b.sendText(msg.Chat.ID, "Send the token like this: /link &lt;token&gt;")
	}
	// Drop the token from the chat history.
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
		b.log.Warn().Err(err).Msg("delete link message")
	}

	account, err := b.svc.Accounts.LinkTelegram(ctx, token, msg.Chat.ID)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			return b.sendText(msg.Chat.ID, "That token is not valid.")
		}
		return b.sendError(msg.Chat.ID, err)
	}
	b.log.Info().Str("account", account.ID.String()).Int64("chat", msg.Chat.ID).Msg("chat linked")
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🔗 Linked to <b>%s</b>.", escape(account.Email)))
}

func (b *Bot) handleFree(ctx context.Context, msg *tgbotapi.Message) error {
	account, err := b.account(ctx, msg.Chat.ID)
	if err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	agenda, err := b.svc.Agenda.Day(ctx, account.ID, time.Now().In(b.loc), b.loc)
	if err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, formatFree(agenda))
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	account, err := b.account(ctx, msg.Chat.ID)
	if err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	categories, err := b.svc.Categories.List(ctx, account.ID)
	if err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	if len(categories) == 0 {
		return b.sendText(msg.Chat.ID, "No categories yet.")
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Categories</b>\n")
	for _, c := range categories {
		builder.WriteString(fmt.Sprintf("• %s <code>%s</code>\n", escape(c.Name), c.Color))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleTemplates(ctx context.Context, msg *tgbotapi.Message) error {
	account, err := b.account(ctx, msg.Chat.ID)
	if err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	templates, err := b.svc.Templates.List(ctx, account.ID)
	if err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, formatTemplates(templates))
}

func (b *Bot) handlePlan(ctx context.Context, msg *tgbotapi.Message) error {
	account, err := b.account(ctx, msg.Chat.ID)
	if err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	req, err := parsePlanArgs(msg.CommandArguments(), time.Now().In(b.loc), b.loc)
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error())+"\nUsage: /plan &lt;template#&gt; &lt;HH:MM&gt; [YYYY-MM-DD]")
	}

	templates, err := b.svc.Templates.List(ctx, account.ID)
	if err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	if req.index < 1 || req.index > len(templates) {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("There is no template #%d. See /templates.", req.index))
	}

	task, err := b.svc.Tasks.CreateFromTemplate(ctx, account.ID, templates[req.index-1].ID, req.start)
	if err != nil {
		return b.sendError(msg.Chat.ID, err)
	}
	b.log.Info().Str("account", account.ID.String()).Str("task", task.ID.String()).Msg("task planned from chat")

	text := fmt.Sprintf("✅ Planned <b>%s</b> on %s, %s–%s.",
		escape(task.Title),
		task.Start.In(b.loc).Format("Mon 02 Jan"),
		task.Start.In(b.loc).Format("15:04"),
		task.End().In(b.loc).Format("15:04"),
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.Chat.ID)
		return b.deleteTaskAndRefresh(ctx, msg.Chat.ID, req)
	case isCancelInput(text):
		b.clearConfirmation(msg.Chat.ID)
		return b.sendText(msg.Chat.ID, "Kept it.")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel the deletion.", confirmKeyboard())
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn().Err(err).Msg("callback ack")
	}

	if !strings.HasPrefix(cb.Data, cbDeletePrefix) {
		return nil
	}
	taskID, err := uuid.Parse(strings.TrimPrefix(cb.Data, cbDeletePrefix))
	if err != nil {
		return nil
	}
	return b.askDeleteConfirmation(ctx, cb.Message.Chat.ID, taskID)
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, taskID uuid.UUID) error {
	account, err := b.account(ctx, chatID)
	if err != nil {
		return b.sendError(chatID, err)
	}
	task, err := b.svc.Tasks.GetTask(ctx, account.ID, taskID)
	if err != nil {
		return b.sendError(chatID, err)
	}

	start := task.Start.In(b.loc)
	text := fmt.Sprintf("Delete \"%s\" at %s?", escape(task.Title), start.Format("Mon 02 Jan 15:04"))
	b.setConfirmation(chatID, confirmationRequest{taskID: task.ID, day: start})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) deleteTaskAndRefresh(ctx context.Context, chatID int64, req confirmationRequest) error {
	account, err := b.account(ctx, chatID)
	if err != nil {
		return b.sendError(chatID, err)
	}
	if err := b.svc.Tasks.DeleteTask(ctx, account.ID, req.taskID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(chatID, "That task is already gone.")
		}
		return b.sendError(chatID, err)
	}
	b.log.Info().Str("account", account.ID.String()).Str("task", req.taskID.String()).Msg("task deleted from chat")
	if err := b.sendText(chatID, "🗑 Deleted."); err != nil {
		return err
	}
	return b.sendDay(ctx, chatID, req.day)
}

// sendDay posts the agenda of day with one delete button per task.
func (b *Bot) sendDay(ctx context.Context, chatID int64, day time.Time) error {
	account, err := b.account(ctx, chatID)
	if err != nil {
		return b.sendError(chatID, err)
	}
	agenda, err := b.svc.Agenda.Day(ctx, account.ID, day, b.loc)
	if err != nil {
		return b.sendError(chatID, err)
	}

	msg := tgbotapi.NewMessage(chatID, formatAgenda(agenda))
	msg.ParseMode = tgbotapi.ModeHTML
	if rows := deleteButtons(agenda.Entries, b.loc); len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	_, err = b.api.Send(msg)
	return err
}

// SendDailyAgendas sends today's agenda to every linked chat, throttled by the bot's limiter.
func (b *Bot) SendDailyAgendas(ctx context.Context) error {
	accounts, err := b.svc.Accounts.Linked(ctx)
	if err != nil {
		return err
	}
	now := time.Now().In(b.loc)
	sent := 0
	for _, account := range accounts {
		if account.TelegramID == nil {
			continue
		}
		if err := b.limiter.Wait(ctx); err != nil {
			return err
		}
		text, err := b.svc.Agenda.DailySummary(ctx, account, now, b.loc)
		if err != nil {
			b.log.Error().Err(err).Str("account", account.ID.String()).Msg("build daily agenda")
			continue
		}
		if err := b.sendText(*account.TelegramID, text); err != nil {
			b.log.Error().Err(err).Int64("chat", *account.TelegramID).Msg("send daily agenda")
			continue
		}
		sent++
	}
	b.log.Info().Int("sent", sent).Int("linked", len(accounts)).Msg("daily agendas sent")
	return nil
}

func (b *Bot) account(ctx context.Context, chatID int64) (*model.Account, error) {
	return b.svc.Accounts.ByTelegram(ctx, chatID)
}

func (b *Bot) sendError(chatID int64, err error) error {
	text, internal := userMessage(err)
	if internal {
		b.log.Error().Err(err).Int64("chat", chatID).Msg("request failed")
	}
	return b.sendText(chatID, text)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) getConfirmation(chatID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[chatID]
	return req, ok
}

func (b *Bot) setConfirmation(chatID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[chatID] = req
}

func (b *Bot) clearConfirmation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, chatID)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelToday:
		return true, b.sendDay(ctx, msg.Chat.ID, time.Now().In(b.loc))
	case menuLabelTomorrow:
		return true, b.sendDay(ctx, msg.Chat.ID, time.Now().In(b.loc).AddDate(0, 0, 1))
	case menuLabelFree:
		return true, b.handleFree(ctx, msg)
	case menuLabelTemplates:
		return true, b.handleTemplates(ctx, msg)
	case menuLabelHelp:
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelTomorrow),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelFree),
			tgbotapi.NewKeyboardButton(menuLabelTemplates),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}
