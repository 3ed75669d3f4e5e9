package telegram

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kitbuilder587/ikar-assistant/internal/metrics"
	"github.com/kitbuilder587/ikar-assistant/internal/ratelimit"
	"github.com/kitbuilder587/ikar-assistant/internal/service"
)

const maxMessageLen = 4096 // лимит телеграма

type BotConfig struct {
	Token             string
	Debug             bool
	RequestsPerMinute int
	AdminChatIDs      []int64
}

type Bot struct {
	api         *tgbotapi.BotAPI
	dispatcher  *service.Dispatcher
	history     service.HistoryService
	logger      *zap.Logger
	metrics     *metrics.Metrics
	handler     *Handler
	rateLimiter *ratelimit.Limiter[int64]
	admins      map[int64]struct{}
	wg          sync.WaitGroup

	// send подменяется в тестах
	send func(chatID int64, text string) error
}

func New(cfg BotConfig, dispatcher *service.Dispatcher, history service.HistoryService, logger *zap.Logger, m *metrics.Metrics) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	api.Debug = cfg.Debug

	bot := newBot(api, cfg, dispatcher, history, logger, m)

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
	)

	return bot, nil
}

func newBot(api *tgbotapi.BotAPI, cfg BotConfig, dispatcher *service.Dispatcher, history service.HistoryService, logger *zap.Logger, m *metrics.Metrics) *Bot {
	bot := &Bot{
		api:        api,
		dispatcher: dispatcher,
		history:    history,
		logger:     logger,
		metrics:    m,
		admins:     make(map[int64]struct{}, len(cfg.AdminChatIDs)),
		rateLimiter: ratelimit.New[int64](ratelimit.Config{
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
	}
	for _, id := range cfg.AdminChatIDs {
		bot.admins[id] = struct{}{}
	}
	bot.send = bot.sendAPI
	bot.handler = NewHandler(bot)
	return bot
}

// Run обрабатывает апдейты и доставляет готовые ответы. Доставка идёт только из этой горутины.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot started, waiting for updates")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bot stopping, waiting for handlers to finish")
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			b.rateLimiter.Stop()
			b.logger.Info("all handlers finished")
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			b.wg.Add(1)
			go func(upd tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdate(ctx, upd)
			}(update)
		case p := <-b.dispatcher.Pending():
			b.handlePending(ctx, p)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	startTime := time.Now()

	defer func() {
		if r := recover(); r != nil {
			chatID := int64(0)
			if update.Message != nil && update.Message.Chat != nil {
				chatID = update.Message.Chat.ID
			}
			b.logger.Error("panic in update handler",
				zap.Any("panic", r),
				zap.Int64("chat_id", chatID),
			)
			if b.metrics != nil {
				b.metrics.RecordRequest("message", "panic", time.Since(startTime))
			}
		}
	}()

	b.handler.HandleMessage(ctx, update.Message)

	if b.metrics != nil {
		reqType := "command"
		if update.Message != nil && !update.Message.IsCommand() {
			reqType = "query"
		}
		b.metrics.RecordRequest(reqType, "processed", time.Since(startTime))
	}
}

func (b *Bot) handlePending(ctx context.Context, p service.Pending) {
	d, ok := b.dispatcher.Accept(ctx, p)
	if !ok {
		return
	}

	chatID, err := strconv.ParseInt(d.Key, 10, 64)
	if err != nil {
		b.logger.Error("bad delivery key", zap.String("key", d.Key), zap.Error(err))
		return
	}

	b.handler.Deliver(chatID, d)
}

func (b *Bot) Send(chatID int64, text string) error {
	return b.send(chatID, text)
}

func (b *Bot) sendAPI(chatID int64, text string) error {
	if b.api == nil {
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	msg.DisableWebPagePreview = true
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) SendTyping(chatID int64) {
	if b.api == nil {
		return
	}
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	b.api.Send(action)
}

func (b *Bot) RecordRateLimitHit() {
	if b.metrics != nil {
		b.metrics.RecordRateLimitHit("telegram")
	}
}

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// canReadHistory - история общая для всех чатов, поэтому читать ее могут только администраторы
func (b *Bot) canReadHistory(chatID int64) bool {
	_, ok := b.admins[chatID]
	return ok
}
