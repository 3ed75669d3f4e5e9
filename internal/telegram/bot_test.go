package telegram

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kitbuilder587/ikar-assistant/internal/links"
	"github.com/kitbuilder587/ikar-assistant/internal/repository"
	"github.com/kitbuilder587/ikar-assistant/internal/responder"
	"github.com/kitbuilder587/ikar-assistant/internal/service"
)

type sentMessage struct {
	ChatID int64
	Text   string
}

type recorder struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (r *recorder) send(chatID int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (r *recorder) messages() []sentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sentMessage, len(r.sent))
	copy(out, r.sent)
	return out
}

func (r *recorder) last() string {
	msgs := r.messages()
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Text
}

type testBot struct {
	bot     *Bot
	sent    *recorder
	history *repository.MockHistoryRepository
}

func createTestBot(t *testing.T, requestsPerMinute int) *testBot {
	t.Helper()

	history := repository.NewMockHistoryRepository()
	svc := service.NewSearchService(service.SearchServiceDeps{
		Responder: responder.NewKeyword(responder.DefaultTable()),
		Links:     links.NewStatic(),
		History:   history,
		Logger:    zap.NewNop(),
	})
	d := service.NewDispatcher(svc, zap.NewNop(), nil)
	t.Cleanup(d.Close)

	// чат 1 - администратор, ему доступна история
	bot := newBot(nil, BotConfig{RequestsPerMinute: requestsPerMinute, AdminChatIDs: []int64{1}}, d,
		service.NewHistoryService(history, 50, zap.NewNop()), zap.NewNop(), nil)
	t.Cleanup(bot.rateLimiter.Stop)

	rec := &recorder{}
	bot.send = rec.send

	return &testBot{bot: bot, sent: rec, history: history}
}

// deliverNext принимает следующий результат так же, как цикл Run
func (tb *testBot) deliverNext(t *testing.T) {
	t.Helper()
	select {
	case p := <-tb.bot.dispatcher.Pending():
		tb.bot.handlePending(context.Background(), p)
	case <-time.After(2 * time.Second):
		t.Fatal("no pending result")
	}
}

func createTestMessage(chatID int64, text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{
			ID:       chatID,
			UserName: "testuser",
		},
		Chat: &tgbotapi.Chat{
			ID: chatID,
		},
		Text: text,
	}
	if len(text) > 0 && text[0] == '/' {
		end := len(text)
		for i, r := range text {
			if r == ' ' {
				end = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	}
	return msg
}

func TestBot_HandlePending_BadKey(t *testing.T) {
	tb := createTestBot(t, 10)

	// ключ не номер чата: результат принят, но никуда не отправлен
	_, err := tb.bot.dispatcher.Submit(context.Background(), "console", "ошибка")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	tb.deliverNext(t)

	if len(tb.sent.messages()) != 0 {
		t.Errorf("sent = %v, want nothing", tb.sent.messages())
	}
}

func TestChatKey(t *testing.T) {
	if got := chatKey(-100123); got != "-100123" {
		t.Errorf("chatKey() = %q", got)
	}
}

func TestBotConfig_DefaultRateLimit(t *testing.T) {
	tb := createTestBot(t, 0)

	for i := 0; i < 10; i++ {
		if !tb.bot.rateLimiter.Allow(1) {
			t.Fatalf("request %d should be allowed with default limit", i+1)
		}
	}
	if tb.bot.rateLimiter.Allow(1) {
		t.Error("11th request should be blocked")
	}
}
