package telegram

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kitbuilder587/ikar-assistant/internal/domain"
	"github.com/kitbuilder587/ikar-assistant/internal/service"
)

const (
	welcomeMessage = "Добро пожаловать в ИКАР-Ассистент! Чем я могу помочь вам сегодня?"
	waitingMessage = "Поиск решения, пожалуйста подождите..."

	historyUnavailable = "Не удалось загрузить историю. Попробуйте позже."
	historyForbidden   = "История запросов доступна только администратору."
)

type Handler struct {
	bot *Bot
}

func NewHandler(bot *Bot) *Handler {
	return &Handler{bot: bot}
}

func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	h.bot.logger.Info("received message",
		zap.Int64("chat_id", msg.Chat.ID),
		zap.Bool("is_command", msg.IsCommand()),
	)

	if msg.IsCommand() {
		h.handleCommand(ctx, msg)
	} else {
		h.handleQuery(ctx, msg)
	}
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		h.bot.Send(msg.Chat.ID, welcomeMessage+"\n\nИспользуйте /help для просмотра доступных команд.")
	case "help":
		h.handleHelp(msg)
	case "history":
		h.handleHistory(ctx, msg)
	case "show":
		h.handleShow(ctx, msg)
	default:
		h.bot.Send(msg.Chat.ID, "Неизвестная команда. Используйте /help для справки.")
	}
}

func (h *Handler) handleHelp(msg *tgbotapi.Message) {
	helpText := `<b>Доступные команды:</b>

/start - Приветствие
/help - Показать эту справку
/history - Последние запросы
/show N - Ответ из истории по номеру

<b>Как использовать:</b>
Опишите проблему с ККТ, ФН или 1С обычным сообщением, и я подскажу решение и полезные ссылки.

<b>Примеры:</b>
• Касса пишет ошибку ФН
• Не печатает чек после обновления 1С`

	h.bot.Send(msg.Chat.ID, helpText)
}

func (h *Handler) handleHistory(ctx context.Context, msg *tgbotapi.Message) {
	if !h.allowHistory(msg) {
		return
	}

	entries, err := h.bot.history.Recent(ctx)
	if err != nil {
		h.bot.Send(msg.Chat.ID, historyUnavailable)
		return
	}

	if len(entries) == 0 {
		h.bot.Send(msg.Chat.ID, "История пуста.")
		return
	}

	for _, m := range SplitMessage(FormatHistoryList(entries), maxMessageLen) {
		h.bot.Send(msg.Chat.ID, m)
	}
}

func (h *Handler) handleShow(ctx context.Context, msg *tgbotapi.Message) {
	if !h.allowHistory(msg) {
		return
	}

	n, err := ParseIndex(msg.CommandArguments())
	if err != nil {
		h.bot.Send(msg.Chat.ID, "Укажите номер записи: /show 1")
		return
	}

	entries, err := h.bot.history.Recent(ctx)
	if err != nil {
		h.bot.Send(msg.Chat.ID, historyUnavailable)
		return
	}

	if n > len(entries) {
		h.bot.Send(msg.Chat.ID, fmt.Sprintf("Запись %d не найдена.", n))
		return
	}

	for _, m := range SplitMessage(FormatHistoryEntry(&entries[n-1]), maxMessageLen) {
		h.bot.Send(msg.Chat.ID, m)
	}
}

func (h *Handler) allowHistory(msg *tgbotapi.Message) bool {
	if h.bot.canReadHistory(msg.Chat.ID) {
		return true
	}
	h.bot.logger.Warn("history access denied", zap.Int64("chat_id", msg.Chat.ID))
	h.bot.Send(msg.Chat.ID, historyForbidden)
	return false
}

func (h *Handler) handleQuery(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if d := h.bot.rateLimiter.Reserve(chatID); !d.Allowed {
		h.bot.logger.Warn("rate limit exceeded",
			zap.Int64("chat_id", chatID),
			zap.Duration("retry_after", d.RetryAfter),
		)
		h.bot.RecordRateLimitHit()
		h.bot.Send(chatID, rateLimitMessage(d.RetryAfter))
		return
	}

	query := ParseQuery(msg.Text)

	token, err := h.bot.dispatcher.Submit(ctx, chatKey(chatID), query)
	if err != nil {
		h.bot.Send(chatID, mapErrorToMessage(err))
		return
	}

	h.bot.logger.Info("search submitted",
		zap.Int64("chat_id", chatID),
		zap.Uint64("token", token),
	)

	h.bot.SendTyping(chatID)
	h.bot.Send(chatID, waitingMessage)
}

// Deliver показывает принятый результат в чате
func (h *Handler) Deliver(chatID int64, d *service.Delivery) {
	if d.Err != nil {
		h.bot.logger.Error("search failed",
			zap.Error(d.Err),
			zap.Int64("chat_id", chatID),
		)
		h.bot.Send(chatID, mapErrorToMessage(d.Err))
		return
	}

	for _, m := range SplitMessage(FormatOutcome(d.Outcome), maxMessageLen) {
		if err := h.bot.Send(chatID, m); err != nil {
			h.bot.logger.Error("failed to send message", zap.Error(err))
		}
	}

	if d.RecordErr != nil {
		h.bot.Send(chatID, mapErrorToMessage(d.RecordErr))
	}
}

func mapErrorToMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		return "Пожалуйста, введите запрос"
	case errors.Is(err, domain.ErrQueryTooLong):
		return "Запрос слишком длинный. Максимум 1000 символов."
	case errors.Is(err, domain.ErrHistoryNotFound):
		return "Запись не найдена."
	case errors.Is(err, domain.ErrResponderFailed):
		return "Не удалось сформировать ответ. Попробуйте позже."
	case errors.Is(err, context.Canceled):
		return "Поиск отменён."
	}

	switch domain.KindOf(err) {
	case domain.FailureStorage:
		return "Ответ получен, но не сохранён в историю."
	case domain.FailureUpstreamUnavailable:
		return "Сервис временно недоступен. Попробуйте позже."
	default:
		return "Произошла ошибка. Попробуйте позже."
	}
}

func rateLimitMessage(retryAfter time.Duration) string {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("Слишком много запросов. Повторите через %d с.", secs)
}
