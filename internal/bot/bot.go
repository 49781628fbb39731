package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"study-planner/internal/model"
	"study-planner/internal/planner"
	"study-planner/internal/repository"
	"study-planner/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTopic
	stageHours
	stageWeeks
	stageDays
)

const (
	btnSkip          = "⏭️ Skip"
	btnCancelDialog  = "⏪ Cancel"
	menuLabelNewPlan = "📝 New plan"
	menuLabelToday   = "📅 Today"
	menuLabelPlan    = "📚 My plan"
	menuLabelHelp    = "ℹ️ Help"
)

// planPreviewDays limits how many dates a plan reply lists.
const planPreviewDays = 7

type conversationState struct {
	stage conversationStage
	topic string
	hours string
	weeks string
}

// Recorder counts delivered agendas.
type Recorder interface {
	AgendaSent()
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api             sender
	stopUpdates     func()
	updates         func(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	subscribers     *repository.SubscriberRepository
	plans           *service.PlanService
	reminders       *service.ReminderService
	recorder        Recorder
	log             zerolog.Logger
	now             func() time.Time
	generateTimeout time.Duration
	conversations   map[int64]*conversationState
	mu              sync.Mutex
}

func New(token string, subscribers *repository.SubscriberRepository, plans *service.PlanService, reminders *service.ReminderService, recorder Recorder, generateTimeout time.Duration, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	b := newBot(api, subscribers, plans, reminders, recorder, generateTimeout, log)
	b.updates = api.GetUpdatesChan
	b.stopUpdates = api.StopReceivingUpdates
	b.log.Info().Str("account", api.Self.UserName).Msg("bot authorized")
	return b, nil
}

func newBot(api sender, subscribers *repository.SubscriberRepository, plans *service.PlanService, reminders *service.ReminderService, recorder Recorder, generateTimeout time.Duration, log zerolog.Logger) *Bot {
	return &Bot{
		api:             api,
		subscribers:     subscribers,
		plans:           plans,
		reminders:       reminders,
		recorder:        recorder,
		log:             log.With().Str("component", "bot").Logger(),
		now:             time.Now,
		generateTimeout: generateTimeout,
		conversations:   make(map[int64]*conversationState),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.updates == nil {
		return errors.New("bot has no update source")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.updates(updateConfig)

	b.log.Info().Msg("start polling updates")

	go func() {
		<-ctx.Done()
		if b.stopUpdates != nil {
			b.stopUpdates()
		}
	}()

	for update := range updates {
		if update.Message == nil || update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			continue
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Error().Err(err).Int64("chat", update.Message.Chat.ID).Msg("handle message")
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Plan request cancelled.")
	}

	if msg.IsCommand() {
		b.log.Debug().Int64("user", msg.From.ID).Str("command", msg.Command()).Msg("command received")
		return b.handleCommand(ctx, msg)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Send /plan to build a study plan or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "plan":
		return b.handlePlan(ctx, msg)
	case "today":
		return b.handleToday(ctx, msg)
	case "myplan":
		return b.handleLatest(ctx, msg)
	case "stop":
		return b.handleStop(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Nothing in progress now.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. Try /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureSubscriber(ctx, msg); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf(
		"👋 Hi, %s!\n<b>I turn a topic into a day-by-day study plan.</b>\n\n"+
			"Every morning I send you what is scheduled for today.\n\n%s",
		escape(name), commandList,
	)
	return b.sendText(msg.Chat.ID, text)
}

const commandList = "Commands:\n" +
	"• /plan — build a plan step by step\n" +
	"• /plan topic | hours per day | weeks [| days per week] — build a plan in one go\n" +
	"• /today — today's tasks\n" +
	"• /myplan — the latest plan\n" +
	"• /stop — stop the morning agenda\n" +
	"• /cancel — cancel the current input"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Help</b>\n"+commandList+
		"\n\nExample: <code>/plan Linear algebra | 1.5 | 4 | 5</code>")
}

func (b *Bot) handlePlan(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureSubscriber(ctx, msg); err != nil {
		return err
	}

	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		b.setConversation(msg.From.ID, &conversationState{stage: stageTopic})
		return b.sendWithReplyMarkup(msg.Chat.ID, "What do you want to study?", cancelKeyboard())
	}

	topic, hours, weeks, days, err := parsePlanArgs(args)
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}
	return b.buildPlan(ctx, msg, topic, hours, weeks, days)
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	text := strings.TrimSpace(msg.Text)

	switch state.stage {
	case stageTopic:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The topic cannot be empty. What do you want to study?", cancelKeyboard())
		}
		state.topic = text
		state.stage = stageHours
		return b.sendWithReplyMarkup(msg.Chat.ID, "How many hours per day can you study? For example 1.5", cancelKeyboard())
	case stageHours:
		if _, err := planner.ParseConstraints(text, 1, nil); err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Send a positive number of hours, at most 24.", cancelKeyboard())
		}
		state.hours = text
		state.stage = stageWeeks
		return b.sendWithReplyMarkup(msg.Chat.ID, "How many weeks until the deadline?", cancelKeyboard())
	case stageWeeks:
		if _, err := planner.ParseConstraints(state.hours, text, nil); err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Send a whole number of weeks, at least 1.", cancelKeyboard())
		}
		state.weeks = text
		state.stage = stageDays
		return b.sendWithReplyMarkup(msg.Chat.ID, "How many days a week? 5 means Monday to Friday. Skip for every day.", skipKeyboard())
	case stageDays:
		var days any
		if !isSkipInput(text) {
			days = text
		}
		if _, err := planner.ParseConstraints(state.hours, state.weeks, days); err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Send a whole number from 1 to 7, or skip.", skipKeyboard())
		}
		b.clearConversation(msg.From.ID)
		return b.buildPlan(ctx, msg, state.topic, state.hours, state.weeks, days)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Let's start over: /plan")
	}
}

func (b *Bot) buildPlan(ctx context.Context, msg *tgbotapi.Message, topic string, hours, weeks, days any) error {
	constraints, err := planner.ParseConstraints(hours, weeks, days)
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}

	if err := b.sendText(msg.Chat.ID, "⏳ Building your plan, this may take a minute…"); err != nil {
		return err
	}

	genCtx := ctx
	if b.generateTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, b.generateTimeout)
		defer cancel()
	}

	plan, err := b.plans.Generate(genCtx, model.TelegramOwner(msg.From.ID), service.PlanRequest{Topic: topic, Constraints: constraints}, b.now())
	if err != nil {
		b.log.Warn().Err(err).Int64("user", msg.From.ID).Msg("plan generation failed")
		return b.sendText(msg.Chat.ID, planFailureText(err))
	}
	return b.sendText(msg.Chat.ID, service.FormatPlan(plan, planPreviewDays))
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message) error {
	sub, err := b.ensureSubscriber(ctx, msg)
	if err != nil {
		return err
	}
	text, ok, err := b.reminders.DailyAgenda(ctx, *sub, b.now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not load today's tasks: %s", escape(err.Error())))
	}
	if !ok {
		return b.sendText(msg.Chat.ID, "🎉 Nothing scheduled for today.")
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleLatest(ctx context.Context, msg *tgbotapi.Message) error {
	plan, err := b.plans.Latest(ctx, model.TelegramOwner(msg.From.ID))
	if errors.Is(err, service.ErrNotFound) {
		return b.sendText(msg.Chat.ID, "You have no plans yet. Send /plan to build one.")
	}
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, service.FormatPlan(plan, planPreviewDays))
}

func (b *Bot) handleStop(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.subscribers.Deactivate(ctx, msg.From.ID); err != nil {
		return err
	}
	b.clearConversation(msg.From.ID)
	return b.sendText(msg.Chat.ID, "🔕 Morning agenda is off. Send /start to turn it back on.")
}

// SendDailyAgenda sends today's tasks to every active subscriber that has any.
func (b *Bot) SendDailyAgenda(ctx context.Context) error {
	subs, err := b.subscribers.ListActive(ctx)
	if err != nil {
		return err
	}
	now := b.now()
	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text, ok, err := b.reminders.DailyAgenda(ctx, sub, now)
		if err != nil {
			b.log.Error().Err(err).Int64("subscriber", sub.TelegramID).Msg("build agenda")
			continue
		}
		if !ok {
			continue
		}
		if err := b.sendText(sub.ChatID, text); err != nil {
			b.log.Error().Err(err).Int64("subscriber", sub.TelegramID).Msg("send agenda")
			continue
		}
		if b.recorder != nil {
			b.recorder.AgendaSent()
		}
	}
	return nil
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelNewPlan:
		b.setConversation(msg.From.ID, &conversationState{stage: stageTopic})
		return true, b.sendWithReplyMarkup(msg.Chat.ID, "What do you want to study?", cancelKeyboard())
	case menuLabelToday:
		return true, b.handleToday(ctx, msg)
	case menuLabelPlan:
		return true, b.handleLatest(ctx, msg)
	case menuLabelHelp:
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) ensureSubscriber(ctx context.Context, msg *tgbotapi.Message) (*model.Subscriber, error) {
	from := msg.From
	return b.subscribers.UpsertFromTelegram(ctx, from.ID, msg.Chat.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendWithReplyMarkup(chatID, text, mainMenuKeyboard())
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.conversations[userID]
	return ok && state.stage != stageNone
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

// parsePlanArgs splits "topic | hours | weeks [| days]".
func parsePlanArgs(args string) (topic string, hours, weeks, days any, err error) {
	parts := strings.Split(args, "|")
	if len(parts) < 3 || len(parts) > 4 {
		return "", nil, nil, nil, errors.New("usage: /plan topic | hours per day | weeks [| days per week]")
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if parts[0] == "" {
		return "", nil, nil, nil, errors.New("the topic cannot be empty")
	}
	if len(parts) == 4 && parts[3] != "" {
		days = parts[3]
	}
	return parts[0], parts[1], parts[2], days, nil
}

func planFailureText(err error) string {
	switch {
	case errors.Is(err, planner.ErrInvalidConstraints), errors.Is(err, service.ErrInvalidInput):
		return "⚠️ " + escape(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return "⌛ The planner took too long. Please try again."
	default:
		return "⚠️ Failed to generate plan. Please try again later."
	}
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewPlan),
			tgbotapi.NewKeyboardButton(menuLabelToday),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelPlan),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = true
	return keyboard
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = true
	return keyboard
}

func isSkipInput(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == strings.ToLower(btnSkip) || t == "skip" || t == "-"
}

func isCancelDialogInput(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == strings.ToLower(btnCancelDialog) || t == "cancel"
}

func escape(s string) string {
	return html.EscapeString(s)
}
