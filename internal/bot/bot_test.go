package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-planner/internal/generator"
	"study-planner/internal/repository"
	"study-planner/internal/service"
	"study-planner/internal/testutil"
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, sentMessage{chatID: m.ChatID, text: m.Text})
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) last() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].text
}

type stubGenerator struct {
	raw   string
	calls int
	last  generator.Request
}

func (g *stubGenerator) Generate(_ context.Context, req generator.Request) ([]byte, error) {
	g.calls++
	g.last = req
	return []byte(g.raw), nil
}

type agendaCounter struct{ n int }

func (c *agendaCounter) AgendaSent() { c.n++ }

var monday = time.Date(2026, time.October, 19, 8, 0, 0, 0, time.UTC)

type fixture struct {
	bot     *Bot
	sender  *fakeSender
	gen     *stubGenerator
	subs    *repository.SubscriberRepository
	agendas *agendaCounter
}

func newFixture(t *testing.T, raw string) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	subs := repository.NewSubscriberRepository(db)
	gen := &stubGenerator{raw: raw}
	plans := service.NewPlanService(repository.NewPlanRepository(db), gen, nil, zerolog.Nop())
	sender := &fakeSender{}
	agendas := &agendaCounter{}
	b := newBot(sender, subs, plans, service.NewReminderService(plans), agendas, time.Second, zerolog.Nop())
	b.now = func() time.Time { return monday }
	return &fixture{bot: b, sender: sender, gen: gen, subs: subs, agendas: agendas}
}

func command(userID int64, text string) *tgbotapi.Message {
	length := len(text)
	for i, r := range text {
		if r == ' ' {
			length = i
			break
		}
	}
	msg := message(userID, text)
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	return msg
}

func message(userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: userID * 10, Type: "private"},
		From: &tgbotapi.User{ID: userID, FirstName: "Sam"},
	}
}

func TestParsePlanArgs(t *testing.T) {
	t.Run("Should split topic and constraints", func(t *testing.T) {
		topic, hours, weeks, days, err := parsePlanArgs(" Go generics | 1.5 | 4 | 5 ")
		require.NoError(t, err)
		assert.Equal(t, "Go generics", topic)
		assert.Equal(t, "1.5", hours)
		assert.Equal(t, "4", weeks)
		assert.Equal(t, "5", days)
	})

	t.Run("Should leave days unset when omitted", func(t *testing.T) {
		_, _, _, days, err := parsePlanArgs("Go | 1 | 2")
		require.NoError(t, err)
		assert.Nil(t, days)
	})

	t.Run("Should reject wrong arity or empty topic", func(t *testing.T) {
		for _, args := range []string{"Go", "Go | 1", "Go | 1 | 2 | 3 | 4", " | 1 | 2"} {
			_, _, _, _, err := parsePlanArgs(args)
			assert.Error(t, err, args)
		}
	})
}

func TestBot_PlanCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("Should generate a plan from inline arguments", func(t *testing.T) {
		f := newFixture(t, `{"tasks":[{"task":"Read the tour","duration":45}]}`)
		require.NoError(t, f.bot.handleMessage(ctx, command(7, "/plan Go | 1 | 2 | 5")))

		assert.Equal(t, 1, f.gen.calls)
		assert.Equal(t, "Go", f.gen.last.Topic)
		assert.Equal(t, 5, f.gen.last.DaysPerWeek)
		assert.Contains(t, f.sender.last(), "Read the tour")
		assert.Equal(t, int64(70), f.sender.sent[0].chatID)

		sub, err := f.subs.FindByTelegramID(ctx, 7)
		require.NoError(t, err)
		assert.True(t, sub.Active)
	})

	t.Run("Should report invalid constraints without generating", func(t *testing.T) {
		f := newFixture(t, `{"tasks":[]}`)
		require.NoError(t, f.bot.handleMessage(ctx, command(7, "/plan Go | abc | 2")))
		assert.Zero(t, f.gen.calls)
		assert.Contains(t, f.sender.last(), "invalid constraints")
	})

	t.Run("Should report malformed generator output", func(t *testing.T) {
		f := newFixture(t, `{"foo":[]}`)
		require.NoError(t, f.bot.handleMessage(ctx, command(7, "/plan Go | 1 | 2")))
		assert.Contains(t, f.sender.last(), "Failed to generate plan")
	})

	t.Run("Should walk through the conversation", func(t *testing.T) {
		f := newFixture(t, `{"tasks":[{"task":"Drill","duration":30}]}`)
		steps := []*tgbotapi.Message{
			command(7, "/plan"),
			message(7, "Rust"),
			message(7, "zero"),
			message(7, "2"),
			message(7, "3"),
			message(7, btnSkip),
		}
		for _, step := range steps {
			require.NoError(t, f.bot.handleMessage(ctx, step))
		}

		assert.Equal(t, 1, f.gen.calls)
		assert.Equal(t, "Rust", f.gen.last.Topic)
		assert.Equal(t, 2.0, f.gen.last.HoursPerDay)
		assert.Equal(t, 3, f.gen.last.DeadlineWeeks)
		assert.Equal(t, 7, f.gen.last.DaysPerWeek)
		assert.False(t, f.bot.hasConversation(7))
		assert.Contains(t, f.sender.last(), "Drill")
	})

	t.Run("Should cancel the conversation", func(t *testing.T) {
		f := newFixture(t, `{"tasks":[]}`)
		require.NoError(t, f.bot.handleMessage(ctx, command(7, "/plan")))
		require.True(t, f.bot.hasConversation(7))
		require.NoError(t, f.bot.handleMessage(ctx, message(7, btnCancelDialog)))
		assert.False(t, f.bot.hasConversation(7))
		assert.Zero(t, f.gen.calls)
	})
}

func TestBot_TodayAndAgenda(t *testing.T) {
	ctx := context.Background()

	t.Run("Should answer when nothing is planned", func(t *testing.T) {
		f := newFixture(t, `{"tasks":[]}`)
		require.NoError(t, f.bot.handleMessage(ctx, command(7, "/today")))
		assert.Contains(t, f.sender.last(), "Nothing scheduled")
	})

	t.Run("Should send today's agenda to active subscribers only", func(t *testing.T) {
		f := newFixture(t, `{"tasks":[{"task":"Chapter 1","duration":30}]}`)
		require.NoError(t, f.bot.handleMessage(ctx, command(7, "/plan Go | 1 | 1")))
		require.NoError(t, f.bot.handleMessage(ctx, command(8, "/plan Go | 1 | 1")))
		require.NoError(t, f.bot.handleMessage(ctx, command(9, "/start")))
		require.NoError(t, f.bot.handleMessage(ctx, command(8, "/stop")))

		f.sender.sent = nil
		require.NoError(t, f.bot.SendDailyAgenda(ctx))

		require.Len(t, f.sender.sent, 1)
		assert.Equal(t, int64(70), f.sender.sent[0].chatID)
		assert.Contains(t, f.sender.sent[0].text, "Chapter 1")
		assert.Equal(t, 1, f.agendas.n)
	})

	t.Run("Should keep going when a send fails", func(t *testing.T) {
		f := newFixture(t, `{"tasks":[{"task":"Chapter 1","duration":30}]}`)
		require.NoError(t, f.bot.handleMessage(ctx, command(7, "/plan Go | 1 | 1")))
		f.sender.err = errors.New("blocked by user")
		require.NoError(t, f.bot.SendDailyAgenda(ctx))
		assert.Zero(t, f.agendas.n)
	})
}

func TestBot_MyPlan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, `{"schedule":{"Monday":[{"task":"Vocab","duration":20,"recurring":true}]}}`)

	require.NoError(t, f.bot.handleMessage(ctx, command(7, "/myplan")))
	assert.Contains(t, f.sender.last(), "no plans yet")

	require.NoError(t, f.bot.handleMessage(ctx, command(7, "/plan Spanish | 1 | 1")))
	require.NoError(t, f.bot.handleMessage(ctx, message(7, menuLabelPlan)))
	assert.Contains(t, f.sender.last(), "Spanish")
	assert.Contains(t, f.sender.last(), "Vocab")
}
